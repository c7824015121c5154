package statusapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/heartbeat"
	"github.com/hupe1980/agentkernel/logging"
	"github.com/hupe1980/agentkernel/shutdown"
)

// Options configures the status server.
type Options struct {
	// Logger is the logger used by the server. Defaults to NoOpLogger.
	Logger logging.Logger

	// Addr is the listen address.
	Addr string

	// Gatherer serves the /metrics endpoint. Defaults to the global
	// Prometheus gatherer.
	Gatherer prometheus.Gatherer

	// Heartbeat configures the liveness check behind /status/heartbeat.
	Heartbeat heartbeat.Config

	// InitiateShutdown is called by POST /shutdown. If nil the endpoint
	// returns 404.
	InitiateShutdown func(reason string) bool
}

// Server is the kernel's HTTP status surface.
type Server struct {
	registry core.RegistrySnapshot
	coord    *shutdown.Coordinator
	router   chi.Router
	http     *http.Server
	opts     Options
}

// New creates a status server over the given registry snapshot and
// shutdown coordinator.
func New(registry core.RegistrySnapshot, coord *shutdown.Coordinator, optFns ...func(o *Options)) *Server {
	opts := Options{
		Logger:   logging.NoOpLogger{},
		Addr:     ":8090",
		Gatherer: prometheus.DefaultGatherer,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Server{
		registry: registry,
		coord:    coord,
		opts:     opts,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/agents", s.handleAgents)
	r.Get("/status/heartbeat", s.handleHeartbeat)
	r.Get("/status/shutdown", s.handleShutdown)
	r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))

	if opts.InitiateShutdown != nil {
		r.Post("/shutdown", s.handleInitiateShutdown)
	}

	s.router = r

	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	s.http = &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.opts.Logger.Error("Status server failed", "error", err)
		}
	}()

	s.opts.Logger.Info("Status server listening", "addr", s.opts.Addr)
}

// Stop shuts the HTTP server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}

	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	if s.coord.Initiated() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "shutting_down"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAgents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, _ *http.Request) {
	statuses := heartbeat.Check(s.registry.List(), s.opts.Heartbeat, time.Now())

	resp := struct {
		Summary  heartbeat.Summary  `json:"summary"`
		Statuses []heartbeat.Status `json:"statuses"`
	}{
		Summary:  heartbeat.Summarize(statuses),
		Statuses: statuses,
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleShutdown(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.coord.Status())
}

func (s *Server) handleInitiateShutdown(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}

	_ = json.NewDecoder(r.Body).Decode(&body)

	if body.Reason == "" {
		body.Reason = "api request"
	}

	if s.opts.InitiateShutdown(body.Reason) {
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "initiated", "reason": body.Reason})
		return
	}

	writeJSON(w, http.StatusConflict, map[string]string{"status": "already_initiated"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
