package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ogurasousui/company-lifecycle/internal/adapters/validation"
	"github.com/ogurasousui/company-lifecycle/internal/core/company"
	"github.com/ogurasousui/company-lifecycle/internal/platform/auth"
	"github.com/rs/zerolog"
)

// optionsPageSize は選択肢一覧を組み立てる際の 1 回あたりの取得件数です。
const optionsPageSize = 200

// Handler は会社ユースケースの HTTP ハンドラーです。
type Handler struct {
	svc    company.UseCase
	logger zerolog.Logger
}

// NewHandler は Handler を生成します。
func NewHandler(svc company.UseCase, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Get は GET /companies/{id} を処理します。
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	found, err := h.svc.GetCompany(r.Context(), company.GetCompanyInput{ID: id})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, toResponse(found))
}

// ListActive は GET /companies/active を処理します。
func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	in, ok := h.listInput(w, r)
	if !ok {
		return
	}
	h.respondList(w, r, h.svc.ListActiveCompanies, in)
}

// ListDeleted は GET /companies/deleted を処理します。
func (h *Handler) ListDeleted(w http.ResponseWriter, r *http.Request) {
	in, ok := h.listInput(w, r)
	if !ok {
		return
	}
	h.respondList(w, r, h.svc.ListDeletedCompanies, in)
}

// Options は GET /companies/options を処理し、有効な会社の externalId と正式名称を返します。
func (h *Handler) Options(w http.ResponseWriter, r *http.Request) {
	options := []OptionResponse{}
	in := company.ListCompaniesInput{PageSize: optionsPageSize}
	for {
		result, err := h.svc.ListActiveCompanies(r.Context(), in)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		for _, c := range result.Companies {
			options = append(options, OptionResponse{ExternalID: c.ExternalID(), LongName: c.LongName()})
		}
		if result.NextPageToken == "" {
			break
		}
		in.PageToken = result.NextPageToken
	}
	respondJSON(w, http.StatusOK, options)
}

// Check は POST /companies/check を処理し、略称に一致する会社の識別子を返します。
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	found, err := h.svc.FindCompanyByShortName(r.Context(), company.FindCompanyByShortNameInput{ShortName: req.ShortName})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, CheckResponse{ShortName: found.ShortName(), ExternalID: found.ExternalID()})
}

// Create は POST /companies を処理します。
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	fields, ok := h.decodeFields(w, r)
	if !ok {
		return
	}

	actor, _ := auth.ActorFromContext(r.Context())
	created, err := h.svc.CreateCompany(r.Context(), company.CreateCompanyInput{Fields: fields, ActorID: actor})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, toResponse(created))
}

// Update は PUT /companies/{id} を処理します。
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	fields, ok := h.decodeFields(w, r)
	if !ok {
		return
	}

	actor, _ := auth.ActorFromContext(r.Context())
	updated, err := h.svc.UpdateCompany(r.Context(), company.UpdateCompanyInput{ID: id, Fields: fields, ActorID: actor})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, toResponse(updated))
}

// ToggleActive は POST /companies/{id}/toggle-active を処理します。
func (h *Handler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	actor, _ := auth.ActorFromContext(r.Context())
	toggled, err := h.svc.ToggleCompanyActive(r.Context(), company.ToggleCompanyActiveInput{ID: id, ActorID: actor})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, toResponse(toggled))
}

// Delete は DELETE /companies/{id} を処理します。論理削除後の会社を返します。
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	actor, _ := auth.ActorFromContext(r.Context())
	deleted, err := h.svc.DeleteCompany(r.Context(), company.DeleteCompanyInput{ID: id, ActorID: actor})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, toResponse(deleted))
}

type listFunc func(ctx context.Context, in company.ListCompaniesInput) (*company.ListCompaniesResult, error)

func (h *Handler) respondList(w http.ResponseWriter, r *http.Request, fetch listFunc, in company.ListCompaniesInput) {
	result, err := fetch(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := ListResponse{Companies: make([]CompanyResponse, 0, len(result.Companies)), NextPageToken: result.NextPageToken}
	for _, c := range result.Companies {
		resp.Companies = append(resp.Companies, toResponse(c))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) listInput(w http.ResponseWriter, r *http.Request) (company.ListCompaniesInput, bool) {
	q := r.URL.Query()
	in := company.ListCompaniesInput{PageToken: q.Get("pageToken")}
	if raw := q.Get("pageSize"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, company.ErrInvalidPageSize.Error())
			return in, false
		}
		in.PageSize = size
	}
	return in, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, company.ErrInvalidID.Error())
		return 0, false
	}
	return id, true
}

func (h *Handler) decodeFields(w http.ResponseWriter, r *http.Request) (company.Fields, bool) {
	var req CompanyRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return company.Fields{}, false
	}

	fields := req.fields()
	if err := validation.ValidateCompany(fields); err != nil {
		writeError(w, h.logger, err)
		return company.Fields{}, false
	}
	return fields, true
}
