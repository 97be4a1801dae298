package rag

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
)

// chunkRow is the bun model for the document_chunks table. The embedding is
// stored in a pgvector column; cosine distance is computed server-side with
// the <=> operator, the same operator the hosted-database RPC used.
type chunkRow struct {
	bun.BaseModel `bun:"table:document_chunks,alias:dc"`

	ID       int64             `bun:"id,pk,autoincrement"`
	ChunkID  string            `bun:"chunk_id,notnull"`
	Content  string            `bun:"content,notnull"`
	Source   string            `bun:"source,notnull"`
	Metadata map[string]string `bun:"metadata,type:jsonb"`
	Vector   string            `bun:"embedding,type:vector,notnull"`
	Score    float32           `bun:"score,scanonly"`
}

// PgVectorConfig holds connection parameters for a Postgres/pgvector store.
type PgVectorConfig struct {
	// DSN is the Postgres connection URL (postgres://…).
	DSN string

	// VectorSize is the dimensionality of the embedding column. Must match
	// the embedding model's output dimension.
	VectorSize int

	// Verbose enables bundebug query logging.
	Verbose bool
}

// PgVectorStore implements VectorStore backed by Postgres with the pgvector
// extension. It mirrors the similarity-search contract the site's hosted
// database exposed, so a managed Postgres (e.g. Supabase) works unchanged.
type PgVectorStore struct {
	db  *bun.DB
	cfg *PgVectorConfig
}

// NewPgVectorStore opens the Postgres connection, ensures the extension and
// table exist, and returns a ready-to-use VectorStore.
func NewPgVectorStore(ctx context.Context, cfg *PgVectorConfig) (*PgVectorStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("pgvector: DSN must not be empty")
	}
	if cfg.VectorSize <= 0 {
		return nil, fmt.Errorf("pgvector: vector size must be positive, got %d", cfg.VectorSize)
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Verbose {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	s := &PgVectorStore{db: db, cfg: cfg}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate enables pgvector and creates the chunk table if needed.
func (s *PgVectorStore) migrate(ctx context.Context) error {
	ddl := fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS document_chunks (
    id        BIGSERIAL PRIMARY KEY,
    chunk_id  TEXT NOT NULL,
    content   TEXT NOT NULL,
    source    TEXT NOT NULL,
    metadata  JSONB,
    embedding VECTOR(%d) NOT NULL
);`, s.cfg.VectorSize)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("pgvector: migrate: %w", err)
	}
	return nil
}

// InsertMany appends all chunks. No conflict check — re-index flushes first.
func (s *PgVectorStore) InsertMany(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	rows := make([]chunkRow, 0, len(chunks))
	for _, c := range chunks {
		rows = append(rows, chunkRow{
			ChunkID:  c.ID,
			Content:  c.Content,
			Source:   c.Source,
			Metadata: c.Metadata,
			Vector:   vectorLiteral(c.Embedding),
		})
	}

	if _, err := s.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("pgvector: insert failed: %w", err)
	}
	return nil
}

// DeleteAll truncates the chunk table.
func (s *PgVectorStore) DeleteAll(ctx context.Context) error {
	if _, err := s.db.NewTruncateTable().Model((*chunkRow)(nil)).Exec(ctx); err != nil {
		return fmt.Errorf("pgvector: delete all failed: %w", err)
	}
	return nil
}

// Search returns at most topK chunks whose cosine similarity to the query
// embedding is >= threshold, descending by similarity. pgvector's <=> is
// cosine distance, so similarity = 1 - distance.
func (s *PgVectorStore) Search(ctx context.Context, queryEmbedding []float32, threshold float32, topK int) ([]Match, error) {
	lit := vectorLiteral(queryEmbedding)

	var rows []chunkRow
	err := s.db.NewSelect().
		Model(&rows).
		Column("chunk_id", "content", "source", "metadata").
		ColumnExpr("1 - (embedding <=> ?::vector) AS score", lit).
		Where("1 - (embedding <=> ?::vector) >= ?", lit, threshold).
		OrderExpr("embedding <=> ?::vector", lit).
		Limit(topK).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("pgvector: search failed: %w", err)
	}

	matches := make([]Match, 0, len(rows))
	for _, r := range rows {
		matches = append(matches, Match{
			Chunk: Chunk{
				ID:       r.ChunkID,
				Content:  r.Content,
				Source:   r.Source,
				Metadata: r.Metadata,
			},
			Score: r.Score,
		})
	}
	return matches, nil
}

// Ping checks Postgres connectivity.
func (s *PgVectorStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("pgvector: ping failed: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *PgVectorStore) Close() error {
	return s.db.Close()
}

// vectorLiteral renders an embedding as a pgvector input literal: "[1,2,3]".
func vectorLiteral(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
