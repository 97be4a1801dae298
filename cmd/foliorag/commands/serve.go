package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino/callbacks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"foliorag/internal/answer"
	"foliorag/internal/embedder"
	"foliorag/internal/ingestion"
	"foliorag/internal/logging"
	"foliorag/internal/notify"
	"foliorag/internal/provider"
	"foliorag/internal/server"
	"foliorag/internal/tracing"
)

// NewServeCmd constructs the `foliorag serve` command, which starts the HTTP
// API that the portfolio site's chat widget and admin tooling call.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the foliorag HTTP API",
		Long: `Start the foliorag HTTP API.

The server exposes POST /chat for visitor questions, POST /ingest for adding
documents to the knowledge base, and POST /contact for forwarding messages to
the site owner. All clients (embedder, vector store, chat model) are created
once at startup and shared across requests.

Examples:
  foliorag serve
  foliorag serve --port 9090
  VECTOR_BACKEND=pgvector foliorag serve`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			log.Info("serve starting", slog.String("provider", os.Getenv("MODEL_PROVIDER")))

			// Setup Langfuse tracing — opt-in, no-op if keys are absent.
			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("langfuse tracing enabled")
			} else {
				log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY not set"))
			}

			chatModel, err := provider.NewFromEnv(ctx)
			if err != nil {
				return fmt.Errorf("serve: failed to initialise model provider: %w", err)
			}
			log.Info("chat model initialised", slog.String("provider", getEnvOrDefault("MODEL_PROVIDER", "openai")))

			if err := embedder.Validate(log); err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			emb, err := embedder.NewFromEnv()
			if err != nil {
				return fmt.Errorf("serve: failed to initialise embedder: %w", err)
			}
			log.Info("embedder initialised", slog.String("provider", embeddingBackend()))

			vecStore, err := buildVectorStore(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer func() { _ = vecStore.Close() }()

			answerPipeline, err := answer.New(emb, vecStore, chatModel, &answer.Config{
				Threshold:        getEnvFloat32("SIMILARITY_THRESHOLD", 0),
				TopK:             getEnvInt("TOP_K", 0),
				MaxContextTokens: getEnvInt("MAX_CONTEXT_TOKENS", 0),
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create answer pipeline: %w", err)
			}

			ingestPipeline, err := ingestion.NewPipeline(emb, vecStore, &ingestion.Config{
				ChunkSize: getEnvInt("CHUNK_SIZE", 0),
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create ingestion pipeline: %w", err)
			}

			// Contact form mailer — optional, the endpoint returns 503 when absent.
			var mailer notify.Mailer
			if key := os.Getenv("RESEND_API_KEY"); key != "" {
				m, mErr := notify.NewResendMailer(key, os.Getenv("CONTACT_FROM"), "")
				if mErr != nil {
					log.Warn("contact mailer disabled", slog.Any("error", mErr))
				} else {
					mailer = m
					log.Info("contact mailer enabled")
				}
			} else {
				log.Info("contact mailer disabled", slog.String("reason", "RESEND_API_KEY not set"))
			}

			exchanges := openExchangeLog(log)
			if exchanges != nil {
				defer func() { _ = exchanges.Close() }()
			}

			srv, err := server.New(answerPipeline, ingestPipeline, &server.Config{
				Host:      getEnvOrDefault("SERVER_HOST", host),
				Port:      getEnvInt("SERVER_PORT", port),
				Logger:    log,
				Pingers:   []server.Pinger{server.NewPinger("vector-store", vecStore.Ping)},
				APIKey:    os.Getenv("FOLIORAG_API_KEY"),
				Mailer:    mailer,
				ContactTo: os.Getenv("CONTACT_TO"),
				Exchanges: exchanges,
			}, prometheus.NewRegistry())
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on")

	return cmd
}
