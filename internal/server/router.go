package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"blip_sim/internal/domain"
	"blip_sim/internal/infra"
	"blip_sim/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Commander moves orders between columns. *engine.Simulator satisfies it.
type Commander interface {
	Accept(ctx context.Context, id string) (domain.Order, error)
	Release(ctx context.Context, id string) (domain.Order, error)
}

// SettlementReader reads the ledger. *storage.Storage satisfies it.
type SettlementReader interface {
	RecentSettlements(limit int) ([]domain.SettledOrder, error)
	CountByPath() (map[string]int64, error)
}

// Deps are the collaborators of the HTTP surface. Ledger may be nil.
type Deps struct {
	Commands       Commander
	Dashboard      *service.DashboardService
	Ledger         SettlementReader
	Metrics        *infra.Metrics
	Hub            *Hub
	AllowedOrigins []string
	CommandTimeout time.Duration
}

// NewRouter wires every route onto a chi router.
func NewRouter(deps Deps) http.Handler {
	if deps.CommandTimeout <= 0 {
		deps.CommandTimeout = 5 * time.Second
	}
	if len(deps.AllowedOrigins) == 0 {
		deps.AllowedOrigins = []string{"*"}
	}
	h := &handler{deps: deps}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", h.getDashboard)
		r.Get("/orders", h.listOrders)
		r.Post("/orders/{id}/accept", h.acceptOrder)
		r.Post("/orders/{id}/release", h.releaseOrder)
		r.Get("/settlements", h.listSettlements)
		r.Get("/settlements/summary", h.settlementSummary)
		r.Get("/metrics", h.getMetrics)
	})

	if deps.Hub != nil {
		r.Get("/ws", deps.Hub.ServeWS)
	}

	return r
}

// requestLogger logs each request through slog once it completes.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
