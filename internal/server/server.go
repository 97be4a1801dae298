// Package server implements the HTTP API that fronts the portfolio RAG
// pipelines: POST /chat answers visitor questions, POST /ingest adds
// documents to the knowledge base, POST /contact forwards messages to the
// site owner. The server is started by the `foliorag serve` CLI command.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"foliorag/internal/answer"
	"foliorag/internal/logging"
	"foliorag/internal/store"
)

// New constructs a Server from the provided pipelines and config.
// reg receives the server's Prometheus metrics; pass a fresh
// prometheus.NewRegistry() in tests to keep them hermetic.
func New(ans answerer, ing ingester, cfg *Config, reg *prometheus.Registry) (*Server, error) {
	if ans == nil {
		return nil, fmt.Errorf("server: answer pipeline must not be nil")
	}
	if ing == nil {
		return nil, fmt.Errorf("server: ingestion pipeline must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// Generation against a slow model can take a while.
		cfg.WriteTimeout = 2 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	s := &Server{
		answerer: ans,
		ingester: ing,
		cfg:      cfg,
		log:      cfg.Logger,
		pingers:  cfg.Pingers,
		metrics:  newServerMetrics(reg),
	}

	rl, stopRL := newRateLimiter(cfg.RateLimit, cfg.RateBurst, cfg.Logger)
	s.stopRL = stopRL

	limited := func(name string, h http.HandlerFunc) http.Handler {
		return rl.middleware(s.instrument(name, h))
	}

	mux := http.NewServeMux()
	// The chat endpoint is public: the widget on the portfolio site calls it
	// directly from the browser.
	mux.Handle("POST /chat", limited("chat", s.handleChat))
	mux.Handle("POST /ingest", authMiddleware(cfg.APIKey, limited("ingest", s.handleIngest)))
	mux.Handle("POST /contact", limited("contact", s.handleContact))
	mux.Handle("GET /healthz", s.instrument("healthz", s.handleHealthz))
	mux.Handle("GET /readyz", s.instrument("readyz", s.handleReady))
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	if cfg.APIKey == "" {
		cfg.Logger.Warn("server: FOLIORAG_API_KEY is not set — POST /ingest is unauthenticated")
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      requestLogger(cfg.Logger, corsMiddleware(mux)),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("server: listening", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.stopRL()
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		s.stopRL()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// handleChat handles POST /chat. It runs the retrieval-answer pipeline and
// returns the generated reply, mapping pipeline error classes to HTTP status
// codes. Internal error detail is logged, never returned to the client.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	start := time.Now()

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.metrics.chatRequestsTotal.WithLabelValues("client_error").Inc()
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := s.answerer.Answer(r.Context(), req.Message)
	if err != nil {
		outcome, status := classifyAnswerError(err)
		if status >= http.StatusInternalServerError {
			log.Error("chat pipeline failed",
				slog.String("outcome", outcome),
				slog.Any("error", err),
			)
		}
		s.metrics.chatRequestsTotal.WithLabelValues(outcome).Inc()
		writeError(w, status, answer.AsError(err).Message)
		return
	}

	s.metrics.chatRequestsTotal.WithLabelValues("ok").Inc()
	s.metrics.chatDurationSeconds.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	s.appendExchange(r.Context(), req.Message, res)

	log.Debug("chat answered",
		slog.Int("matches", res.Matches),
		slog.Duration("duration", res.Duration),
	)
	writeJSON(w, http.StatusOK, chatResponse{Reply: res.Reply})
}

// classifyAnswerError maps a pipeline error to a metrics outcome label and an
// HTTP status code.
func classifyAnswerError(err error) (outcome string, status int) {
	var pe *answer.Error
	if !errors.As(err, &pe) {
		return "error", http.StatusInternalServerError
	}
	switch pe.Class {
	case answer.ClassClientInput:
		return "client_error", http.StatusBadRequest
	case answer.ClassConfig:
		return "config_error", http.StatusInternalServerError
	case answer.ClassRetrieval:
		return "retrieval_error", http.StatusInternalServerError
	default:
		return "upstream_error", http.StatusInternalServerError
	}
}

// appendExchange records a completed chat round-trip in the exchange log.
// Failures are logged and swallowed — logging must never fail a chat request.
func (s *Server) appendExchange(ctx context.Context, question string, res *answer.Result) {
	if s.cfg.Exchanges == nil {
		return
	}
	ex := store.Exchange{
		Question: question,
		Reply:    res.Reply,
		Matches:  res.Matches,
		Duration: res.Duration,
	}
	if err := s.cfg.Exchanges.Append(ctx, ex); err != nil {
		logging.FromContext(ctx).Warn("exchange log append failed", slog.Any("error", err))
	}
}

// handleHealthz handles GET /healthz for liveness checks.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON encodes v as the response body with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response. msg must already be user-safe.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
