package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/ogurasousui/company-lifecycle/internal/platform/auth"
	"github.com/rs/zerolog"
)

// ActorVerifier はベアラートークンから操作者 ID を取り出します。
type ActorVerifier interface {
	VerifyHeader(header string) (uuid.UUID, error)
}

// Authenticate は Authorization ヘッダーを検証し、操作者 ID をコンテキストに格納します。
func Authenticate(verifier ActorVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := verifier.VerifyHeader(r.Header.Get("Authorization"))
			if err != nil {
				message := "invalid bearer token"
				if errors.Is(err, auth.ErrMissingToken) {
					message = "missing bearer token"
				}
				w.Header().Set("WWW-Authenticate", `Bearer realm="companies"`)
				respondError(w, http.StatusUnauthorized, message)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actor)))
		})
	}
}

// RequestLogger は zerolog でアクセスログを出力します。
func RequestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			event := logger.Info()
			if status >= http.StatusInternalServerError {
				event = logger.Error()
			}
			event.
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("http request")
		})
	}
}
