package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"foliorag/internal/embedder"
	"foliorag/internal/rag"
	"foliorag/internal/store"
)

// getEnvOrDefault returns the value of the named environment variable, or
// fallback if the variable is unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the integer value of the named environment variable, or
// fallback if the variable is unset, empty, or not parseable.
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvFloat32 returns the float32 value of the named environment variable,
// or fallback if the variable is unset, empty, or not parseable.
func getEnvFloat32(key string, fallback float32) float32 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			return float32(f)
		}
	}
	return fallback
}

// embeddingBackend resolves the embedding backend name, falling back to the
// chat model provider so a single MODEL_PROVIDER setting configures both.
func embeddingBackend() string {
	return getEnvOrDefault("EMBEDDING_PROVIDER", getEnvOrDefault("MODEL_PROVIDER", "openai"))
}

// buildVectorStore constructs the vector store selected by VECTOR_BACKEND:
// "qdrant" (default), "pgvector", or "memory". The store's vector size is
// derived from the embedding backend so the collection schema always matches
// the embedder's output dimension.
func buildVectorStore(ctx context.Context, log *slog.Logger) (rag.VectorStore, error) {
	backend := getEnvOrDefault("VECTOR_BACKEND", "qdrant")
	dims := embedder.DefaultDimensions(embeddingBackend())

	switch backend {
	case "qdrant":
		host := getEnvOrDefault("QDRANT_HOST", "localhost")
		port := getEnvInt("QDRANT_PORT", 6334)
		collection := getEnvOrDefault("QDRANT_COLLECTION", "portfolio")
		s, err := rag.NewQdrantStore(ctx, &rag.QdrantConfig{
			Host:       host,
			Port:       port,
			Collection: collection,
			VectorSize: uint64(dims), //nolint:gosec // dimensions are bounded
			APIKey:     os.Getenv("QDRANT_API_KEY"),
			UseTLS:     os.Getenv("QDRANT_TLS") == "true",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Qdrant at %s:%d: %w", host, port, err)
		}
		log.Info("vector store ready",
			slog.String("backend", "qdrant"),
			slog.String("host", host),
			slog.Int("port", port),
			slog.String("collection", collection),
		)
		return s, nil

	case "pgvector":
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			return nil, fmt.Errorf("VECTOR_BACKEND=pgvector requires DATABASE_URL to be set")
		}
		s, err := rag.NewPgVectorStore(ctx, &rag.PgVectorConfig{
			DSN:        dsn,
			VectorSize: dims,
			Verbose:    os.Getenv("LOG_LEVEL") == "debug",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open pgvector store: %w", err)
		}
		log.Info("vector store ready", slog.String("backend", "pgvector"))
		return s, nil

	case "memory":
		log.Warn("vector store ready", slog.String("backend", "memory"),
			slog.String("note", "contents are lost on restart"))
		return rag.NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("unknown VECTOR_BACKEND %q — valid values: qdrant, pgvector, memory", backend)
	}
}

// openExchangeLog opens the SQLite chat exchange log. FOLIORAG_EXCHANGE_DB
// overrides the default path (~/.foliorag/exchanges.db); set to "disabled"
// to turn logging off. Failures degrade to a nil log rather than aborting
// startup — exchange logging is observational only.
func openExchangeLog(log *slog.Logger) store.ExchangeLog {
	dbPath := os.Getenv("FOLIORAG_EXCHANGE_DB")
	if dbPath == "disabled" {
		log.Info("exchange log disabled via FOLIORAG_EXCHANGE_DB=disabled")
		return nil
	}
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			log.Warn("exchange log: could not resolve default DB path, disabling", slog.Any("error", err))
			return nil
		}
	}
	s, err := store.Open(dbPath)
	if err != nil {
		log.Warn("exchange log: failed to open, disabling", slog.Any("error", err))
		return nil
	}
	log.Info("exchange log opened", slog.String("path", dbPath))
	return s
}
