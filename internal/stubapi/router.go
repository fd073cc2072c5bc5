// Package stubapi is an in-process implementation of the sales REST API used
// for local development and integration tests. It keeps carts and orders in
// memory or Redis and can be told to fail specific requests.
package stubapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	// Tokens maps accepted bearer tokens to user ids.
	Tokens         map[string]string
	RequestTimeout time.Duration
}

// NewRouter wires the sales API under /api/sales plus /health and /metrics.
func NewRouter(svc *Service, cfg RouterConfig, logger *zap.Logger) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stubapi",
		Name:      "requests_total",
		Help:      "Requests served by status.",
	}, []string{"method", "status"})
	registry.MustRegister(requests, collectors.NewGoCollector())

	h := NewHandler(svc, cfg.RequestTimeout, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestIDHeader)
	r.Use(RequestLogger(logger, requests))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Route("/api/sales", func(r chi.Router) {
		r.Use(BearerAuth(cfg.Tokens))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Post("/add", h.AddItem)
			r.Put("/update/{id}", h.UpdateItem)
			r.Delete("/remove/{id}", h.RemoveItem)
			r.Delete("/clear", h.ClearCart)
		})
		r.Post("/checkout", h.Checkout)
		r.Get("/", h.ListOrders)
		r.Get("/{id}", h.GetOrder)
	})

	return otelhttp.NewHandler(r, "stubapi")
}
