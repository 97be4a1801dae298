package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"foliorag/internal/answer"
	"foliorag/internal/content"
	"foliorag/internal/notify"
	"foliorag/internal/store"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 0.0.0.0).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, slog.Default() is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /readyz.
	// If empty, /readyz returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on the write endpoints
	// (POST /ingest). If empty, authentication is disabled (development mode).
	APIKey string
	// Mailer delivers contact-form submissions. If nil, POST /contact
	// returns 503.
	Mailer notify.Mailer
	// ContactTo is the site owner's inbox for contact-form submissions.
	ContactTo string
	// Exchanges is the optional chat exchange log. Appends are best-effort
	// and never fail a chat request.
	Exchanges store.ExchangeLog
}

// answerer is the interface handleChat calls to answer one question.
// *answer.Pipeline satisfies it; tests inject a fake.
type answerer interface {
	Answer(ctx context.Context, question string) (*answer.Result, error)
}

// ingester is the interface handleIngest calls to chunk, embed and store one
// uploaded document. *ingestion.Pipeline satisfies it; tests inject a fake.
type ingester interface {
	Ingest(ctx context.Context, doc content.Document) (int, error)
}

// Server is the HTTP server that fronts the chat and ingestion pipelines.
type Server struct {
	// answerer runs the retrieval-answer pipeline for POST /chat.
	answerer answerer
	// ingester runs the ingestion pipeline for POST /ingest.
	ingester ingester
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /readyz.
	pingers []Pinger
	// metrics holds the Prometheus instruments owned by this server.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// chatRequest is the JSON body for POST /chat.
type chatRequest struct {
	// Message is the visitor's question.
	Message string `json:"message"`
}

// chatResponse is the JSON response for POST /chat.
type chatResponse struct {
	// Reply is the generated answer text.
	Reply string `json:"reply"`
}

// ingestRequest is the JSON body for POST /ingest. Exactly one of Text or
// PDFBase64 must be non-empty.
type ingestRequest struct {
	// Text is raw document text to ingest.
	Text string `json:"text,omitempty"`
	// PDFBase64 is a base64-encoded PDF whose text will be extracted.
	PDFBase64 string `json:"pdfBase64,omitempty"`
	// Metadata is attached to every chunk produced from this document.
	Metadata map[string]string `json:"metadata,omitempty"`
	// Filename labels the upload in chunk metadata.
	Filename string `json:"filename,omitempty"`
}

// ingestResponse is the JSON response for POST /ingest.
type ingestResponse struct {
	// Message confirms the ingestion outcome.
	Message string `json:"message"`
}

// contactRequest is the JSON body for POST /contact.
type contactRequest struct {
	// Name is the sender's name.
	Name string `json:"name"`
	// Email is the sender's reply address.
	Email string `json:"email"`
	// Message is the body of the contact message.
	Message string `json:"message"`
}

// errorResponse is the JSON body for all error responses.
type errorResponse struct {
	// Error is a user-safe description of what went wrong.
	Error string `json:"error"`
}
