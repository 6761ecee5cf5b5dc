package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"3tcapital/ms_extraccion_facturas/internal/infrastructure/config"
	httperrors "3tcapital/ms_extraccion_facturas/internal/infrastructure/http"
	"3tcapital/ms_extraccion_facturas/internal/infrastructure/http/middleware"
)

// ExtractionPrefix is where the extraction router is mounted.
const ExtractionPrefix = "/api/v1/facturas/extraccion"

// Server exposes the extraction API, health and metrics endpoints.
type Server struct {
	log             *slog.Logger
	httpServer      *http.Server
	auth            *middleware.JWTAuthenticator
	shutdownTimeout time.Duration
}

// Options holds the collaborators the server mounts. Only Logger and
// HealthHandler are required; missing API handlers answer 503.
type Options struct {
	Config            config.AppConfig
	Logger            *slog.Logger
	HealthHandler     http.Handler
	ExtractionHandler http.Handler
	MetricsHandler    http.Handler
}

// New builds the router and the underlying http.Server.
func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.HealthHandler == nil {
		return nil, errors.New("health handler is required")
	}

	cfg := opts.Config
	auth, err := middleware.NewJWTAuthenticator(cfg.Auth, opts.Logger)
	if err != nil {
		return nil, fmt.Errorf("create authenticator: %w", err)
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(chimw.Recoverer)
	r.Use(auth.Middleware)

	r.Method(http.MethodGet, "/health", opts.HealthHandler)

	if opts.MetricsHandler != nil {
		metricsPath := cfg.Metrics.Path
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		r.Method(http.MethodGet, metricsPath, opts.MetricsHandler)
	}

	extraction := opts.ExtractionHandler
	if extraction == nil {
		extraction = unavailable(opts.Logger)
	}
	r.Mount(ExtractionPrefix, extraction)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, http.StatusNotFound, httperrors.MessageNotFound, []string{"La ruta solicitada no existe"}, opts.Logger)
	})

	// Batches and OCR uploads may outlive the regular write timeout.
	writeTimeout := max(cfg.HTTP.WriteTimeout, cfg.HTTP.WriteTimeoutBatch)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &Server{
		log:             opts.Logger,
		httpServer:      srv,
		auth:            auth,
		shutdownTimeout: cfg.HTTP.ShutdownTimeout,
	}, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server started", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.log.Info("shutting down HTTP server")
		shutdownCtx := context.Background()
		if s.shutdownTimeout > 0 {
			var cancel context.CancelFunc
			shutdownCtx, cancel = context.WithTimeout(shutdownCtx, s.shutdownTimeout)
			defer cancel()
		}
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// Close releases the authenticator's background refresher.
func (s *Server) Close() {
	if s.auth != nil {
		s.auth.Close()
	}
}

func unavailable(log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, http.StatusServiceUnavailable, httperrors.MessageServiceUnavailable,
			[]string{"El servicio de extracción no está configurado"}, log)
	})
}
