package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ratingsync/internal/logging"
	"ratingsync/internal/services"
)

// RouterOptions configures the HTTP middleware stack.
type RouterOptions struct {
	CORSAllowedOrigins []string
	// RateLimitPerMinute caps requests per client IP; zero disables limiting.
	RateLimitPerMinute int
	Logger             *slog.Logger
}

// NewRouter mounts the lookup API on a chi router.
func NewRouter(svc *LookupService, opts RouterOptions) http.Handler {
	h := &handlers{svc: svc, logger: logging.NewComponentLogger(opts.Logger, "api")}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(correlate)
	r.Use(chimiddleware.Recoverer)
	if len(opts.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", h.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if opts.RateLimitPerMinute > 0 {
			r.Use(httprate.LimitByIP(opts.RateLimitPerMinute, time.Minute))
		}
		r.Get("/ratings/{type}/{id}", h.lookup)
		r.Get("/ratelimit", h.rateLimit)
	})
	return r
}

// correlate copies the chi request id into the context fields used by
// logging.WithContext and echoes it to the client.
func correlate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chimiddleware.GetReqID(r.Context())
		if id != "" {
			w.Header().Set(chimiddleware.RequestIDHeader, id)
		}
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), id)))
	})
}

type handlers struct {
	svc    *LookupService
	logger *slog.Logger
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) lookup(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Lookup(r.Context(), chi.URLParam(r, "type"), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handlers) rateLimit(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.RateLimit(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case services.IsCancellation(err):
		// Client went away; nothing useful to send.
		return
	}
	if status == http.StatusInternalServerError {
		logging.WithContext(r.Context(), h.logger).Error("api request failed",
			logging.String("path", r.URL.Path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "api_request_failed"),
		)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // response write errors are not recoverable
	json.NewEncoder(w).Encode(data)
}
