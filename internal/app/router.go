package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/FasoDigital6/gestion-rad-sub000/internal/clients"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/deliveries"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/expenses"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/invoices"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/observability"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/orders"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/payments"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/quotes"
	"github.com/FasoDigital6/gestion-rad-sub000/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	ClientHandler   *clients.Handler
	QuoteHandler    *quotes.Handler
	OrderHandler    *orders.Handler
	DeliveryHandler *deliveries.Handler
	InvoiceHandler  *invoices.Handler
	PaymentHandler  *payments.Handler
	ExpenseHandler  *expenses.Handler
	JobHandler      *jobs.Handler
	Metrics         *observability.Metrics
	Pool            *pgxpool.Pool
	Redis           *redis.Client
}

// NewRouter assembles the HTTP router with the shared middleware stack and
// every document resource mounted under its own prefix.
func NewRouter(p RouterParams) chi.Router {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{Logger: p.Logger, Config: p.Config, Metrics: p.Metrics}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/readyz", readiness(p))
	if p.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", p.Metrics.Handler())
	}

	if p.ClientHandler != nil {
		r.Route("/clients", p.ClientHandler.MountRoutes)
	}
	if p.QuoteHandler != nil {
		r.Route("/quotes", p.QuoteHandler.MountRoutes)
	}
	if p.OrderHandler != nil {
		r.Route("/orders", func(sr chi.Router) {
			p.OrderHandler.MountRoutes(sr)
			if p.DeliveryHandler != nil {
				p.DeliveryHandler.MountProgressRoute(sr)
			}
		})
	}
	if p.DeliveryHandler != nil {
		r.Route("/deliveries", p.DeliveryHandler.MountRoutes)
	}
	if p.InvoiceHandler != nil {
		r.Route("/invoices", p.InvoiceHandler.MountRoutes)
	}
	if p.PaymentHandler != nil {
		r.Route("/payments", p.PaymentHandler.MountRoutes)
	}
	if p.ExpenseHandler != nil {
		r.Route("/expenses", p.ExpenseHandler.MountRoutes)
	}
	if p.JobHandler != nil {
		r.Route("/jobs", p.JobHandler.MountRoutes)
	}

	return r
}

// readiness reports whether the backing stores answer. Redis is optional at
// startup, so a missing client is not a failure.
func readiness(p RouterParams) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if p.Pool != nil {
			if err := p.Pool.Ping(ctx); err != nil {
				p.Logger.Warn("readiness postgres", slog.Any("error", err))
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unavailable","postgres":"down"}`))
				return
			}
		}
		if p.Redis != nil {
			if err := p.Redis.Ping(ctx).Err(); err != nil {
				p.Logger.Warn("readiness redis", slog.Any("error", err))
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unavailable","redis":"down"}`))
				return
			}
		}
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	}
}
