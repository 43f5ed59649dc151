package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ogurasousui/company-lifecycle/internal/adapters/validation"
	"github.com/ogurasousui/company-lifecycle/internal/core/company"
	"github.com/rs/zerolog"
)

// writeError はドメインエラーを HTTP ステータスに変換して書き込みます。
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	var vErr *validation.Error
	switch {
	case errors.As(err, &vErr):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation failed", Violations: vErr.Violations})
	case errors.Is(err, company.ErrInvalidID),
		errors.Is(err, company.ErrInvalidShortName),
		errors.Is(err, company.ErrInvalidPageSize),
		errors.Is(err, company.ErrInvalidPageToken):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, company.ErrInvalidActor):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, company.ErrCompanyNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, company.ErrDuplicateEmail),
		errors.Is(err, company.ErrDuplicateShortName),
		errors.Is(err, company.ErrCompanyDeleted),
		errors.Is(err, company.ErrConcurrentModification):
		respondError(w, http.StatusConflict, err.Error())
	default:
		logger.Error().Err(err).Msg("company request failed")
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}
