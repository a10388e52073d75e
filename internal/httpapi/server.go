package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/availability/internal/availability"
	apimw "github.com/hamed0406/availability/internal/httpapi/middleware"
)

// Banner is served on GET /.
const Banner = "Hello! The health check has started and every configured endpoint " +
	"is probed every 15 seconds. Metrics are served at /metrics; graph " +
	"'available_perc_first_domain' in Prometheus to follow the first domain. " +
	"The full per-domain view is at /api/availability."

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 5 * time.Second

type Server struct {
	Logger       *zap.Logger
	Availability *availability.Aggregator
	Metrics      http.Handler
}

func NewServer(l *zap.Logger, agg *availability.Aggregator, metrics http.Handler) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Logger: l, Availability: agg, Metrics: metrics}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)
	r.Use(apimw.AccessLog(s.Logger))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(Banner))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}
	r.Get("/api/availability", s.handleAvailability)
	r.Get("/api/availability/{domain}", s.handleDomain)

	return r
}

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	snap := s.Availability.Snapshot()
	if snap.Domains == nil {
		snap.Domains = []availability.DomainAvailability{}
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleDomain(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")
	d, ok := s.Availability.Snapshot().Lookup(domain)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown domain"})
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ListenAndServe serves the router on addr until ctx is cancelled, then shuts
// down within ShutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("http_listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.Logger.Info("http_shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
