package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/robertarktes/hotel-booking-backend/internal/observability"
	"github.com/robertarktes/hotel-booking-backend/internal/rateLimit"
)

func SetupRouter(h *Handlers, logger observability.Logger, rl *rateLimit.RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(logger))
	r.Use(TracingMiddleware)
	r.Use(MetricsMiddleware)
	r.Use(IdentityMiddleware)
	r.Use(RateLimitMiddleware(rl))

	r.Post("/quote", h.Quote)
	r.Post("/book-room", h.BookRoom)
	r.Get("/get-bookings", h.GetBookings)
	r.Delete("/cancel-booking/{id}", h.CancelBooking)
	r.Post("/api/create-order", h.CreateOrder)
	r.Post("/api/confirm-booking", h.ConfirmBooking)
	r.Post("/chat", h.Chat)
	r.Get("/dashboard", h.Dashboard)
	r.Get("/booking-summary", h.BookingSummary)
	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}
