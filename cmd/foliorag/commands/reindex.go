package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"foliorag/internal/content"
	"foliorag/internal/embedder"
	"foliorag/internal/ingestion"
	"foliorag/internal/logging"
)

// NewReindexCmd constructs the `foliorag reindex` command, which rebuilds the
// vector store from the portfolio content database.
func NewReindexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the vector store from the portfolio content database",
		Long: `Flush the vector store and re-ingest all portfolio content.

The command loads the about text plus every published blog post and project
from the Postgres content database (DATABASE_URL), chunks and embeds them,
and inserts the result into the vector store. The store is flushed first, so
a completed run never contains stale chunks for deleted or edited content.

Run this after publishing or editing site content. Documents added via
POST /ingest are not in the content database and must be re-uploaded after
a reindex.

Examples:
  foliorag reindex
  DATABASE_URL=postgres://… foliorag reindex
  VECTOR_BACKEND=pgvector foliorag reindex`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			if err := embedder.Validate(log); err != nil {
				return fmt.Errorf("reindex: %w", err)
			}
			emb, err := embedder.NewFromEnv()
			if err != nil {
				return fmt.Errorf("reindex: failed to initialise embedder: %w", err)
			}
			log.Info("embedder initialised", slog.String("provider", embeddingBackend()))

			vecStore, err := buildVectorStore(ctx, log)
			if err != nil {
				return fmt.Errorf("reindex: %w", err)
			}
			defer func() { _ = vecStore.Close() }()

			// Collect the documents to index. Without a content database only
			// the built-in about text is indexed.
			var docs []content.Document
			if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
				library, libErr := content.NewLibrary(dsn, os.Getenv("LOG_LEVEL") == "debug")
				if libErr != nil {
					return fmt.Errorf("reindex: %w", libErr)
				}
				defer func() { _ = library.Close() }()

				docs, err = library.All(ctx)
				if err != nil {
					return fmt.Errorf("reindex: failed to load content: %w", err)
				}
			} else {
				log.Warn("DATABASE_URL not set — indexing the about text only")
				docs = []content.Document{content.About()}
			}
			log.Info("content loaded", slog.Int("documents", len(docs)))

			pipeline, err := ingestion.NewPipeline(emb, vecStore, &ingestion.Config{
				ChunkSize: getEnvInt("CHUNK_SIZE", 0),
			})
			if err != nil {
				return fmt.Errorf("reindex: failed to create pipeline: %w", err)
			}

			if err := pipeline.Rebuild(ctx, docs, func(msg string) {
				log.Info(msg)
			}); err != nil {
				return fmt.Errorf("reindex: %w", err)
			}

			log.Info("reindex complete", slog.Int("documents", len(docs)))
			return nil
		},
	}

	return cmd
}
