package handler

import (
	"context"
	"net/http"
	"time"

	"aurelia-be/internal/metrics"
	"aurelia-be/internal/order"
	"aurelia-be/internal/utils"
)

const maxBodyBytes = 1 << 20

// Pinger reports whether the backing database answers.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	orders          order.Service
	metrics         *metrics.CheckoutMetrics
	db              Pinger
	checkoutTimeout time.Duration
}

func New(orders order.Service, m *metrics.CheckoutMetrics, db Pinger, checkoutTimeout time.Duration) *Handler {
	if m == nil {
		m = metrics.NewCheckoutMetrics()
	}
	return &Handler{
		orders:          orders,
		metrics:         m,
		db:              db,
		checkoutTimeout: checkoutTimeout,
	}
}

type errorResponse struct {
	Success    bool              `json:"success"`
	Error      string            `json:"error"`
	Message    string            `json:"message,omitempty"`
	Violations []order.Violation `json:"violations,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	utils.WriteJSON(w, status, errorResponse{Error: code, Message: message})
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.db.PingContext(ctx); err != nil {
			utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "database": "unreachable"})
			return
		}
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, h.metrics.Snapshot())
}
