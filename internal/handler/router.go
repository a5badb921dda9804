package handler

import (
	"net/http"

	"aurelia-be/internal/logger"
	"aurelia-be/internal/middleware"
	"aurelia-be/internal/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

const (
	PathOrders        = "/api/orders"
	PathPaymentVerify = "/api/payments/verify"
	PathGraphQL       = "/query"
)

type RouterConfig struct {
	JWTSecret      string
	AllowedOrigins []string
	RateLimiter    *middleware.RateLimiter
	// GraphQL, when set, is served at PathGraphQL behind the same middleware.
	GraphQL http.Handler
}

func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(logger.RequestIDMiddleware)
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	r.Use(middleware.LoggingMiddleware)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Middleware)
	}

	r.Get("/health", h.HealthCheck)
	r.Get("/metrics", h.GetMetrics)

	if cfg.GraphQL != nil {
		r.Post(PathGraphQL, cfg.GraphQL.ServeHTTP)
	}

	r.Route("/api", func(r chi.Router) {
		// Identity is checked after the stop flag, inside checkout.
		r.Post("/orders", h.CreateOrder)
		r.Post("/payments/verify", h.VerifyPayment)

		r.With(middleware.RequireAuth).Get("/orders/{id}", h.GetOrder)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(utils.RoleAdmin))
			r.Patch("/orders/{id}/status", h.UpdateOrderStatus)
		})
	})

	return r
}
