package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nifiops/nifibridge/internal/logger"
	"github.com/nifiops/nifibridge/pkg/metrics"
)

// NewRouter builds the chi router with the full route table.
//
// Middleware order matters: request ids and real IPs are resolved before the
// logger, recovery wraps everything below it, and the timeout bounds handler
// work. SSE routes sit outside the timeout middleware because streams outlive
// the regular request budget.
func NewRouter(deps Deps) http.Handler {
	h := newHandlers(deps)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(h.requestTimeout()))

		r.Get("/config/nifi-servers", h.listNiFiServers)

		r.Route("/tools", func(r chi.Router) {
			r.Get("/", h.listTools)
			r.Post("/{name}", h.dispatchTool)
		})

		r.Route("/workflows", func(r chi.Router) {
			r.Get("/", h.listWorkflows)
			r.Get("/{name}", h.getWorkflow)
			r.Get("/validate/{name}", h.validateWorkflow)
			r.Post("/execute", h.executeWorkflow)
		})
	})

	r.Get("/sse/tools/{name}", h.streamTool)

	return r
}

// requestLogger logs request start at DEBUG and completion at INFO.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("API request started",
			"chi_request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logger.Info("API request completed",
			"chi_request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
		)
	})
}
