package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"docvia-widget/internal/api/middleware"
	"docvia-widget/internal/queue"
)

const shutdownTimeout = 10 * time.Second

type RouteRegistrar func(mux *http.ServeMux, s *APIServer)

type Options struct {
	ListenAddr     string
	AllowedOrigins []string
	// Registry receives the server's collectors. A private registry is
	// created when nil.
	Registry *prometheus.Registry
}

type APIServer struct {
	listenAddr          string
	requestQueueManager *queue.RequestQueueManager
	routeRegistrars     []RouteRegistrar
	corsConfig          middleware.CORSConfig
	log                 zerolog.Logger
	metrics             *serverMetrics
}

func NewAPIServer(opts Options, rqm *queue.RequestQueueManager, log zerolog.Logger, registrars ...RouteRegistrar) *APIServer {
	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return &APIServer{
		listenAddr:          opts.ListenAddr,
		requestQueueManager: rqm,
		routeRegistrars:     registrars,
		corsConfig: middleware.CORSConfig{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "X-Requested-With", "Authorization"},
		},
		log:     log,
		metrics: newServerMetrics(registry, opts.ListenAddr, rqm),
	}
}

// Handler builds the instrumented route tree.
func (s *APIServer) Handler() http.Handler {
	mux := http.NewServeMux()

	for _, reg := range s.routeRegistrars {
		reg(mux, s)
	}

	mux.Handle("/metrics", s.metrics.handler())

	return s.metrics.wrap(mux)
}

// ChatbotMetrics returns the widget outcome counters registered with this
// server.
func (s *APIServer) ChatbotMetrics() *ChatbotMetrics {
	return s.metrics.chatbot
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *APIServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.listenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.listenAddr).Msg("server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.log.Info().Msg("shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
