package httpapi

import (
	"context"
	"net/http"
)

// Pinger は永続化先の疎通確認を行います。
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc は関数を Pinger として扱います。
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler は死活監視エンドポイントです。
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler は HealthHandler を生成します。
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// HealthResponse は死活監視のレスポンスです。
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services,omitempty"`
}

// Live は GET /health/live を処理します。
func (h *HealthHandler) Live(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready は GET /health/ready を処理し、データベースへの疎通を確認します。
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:   "unhealthy",
			Services: map[string]string{"database": "unhealthy: " + err.Error()},
		})
		return
	}
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Services: map[string]string{"database": "healthy"},
	})
}
