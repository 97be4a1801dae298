// Package rag defines the interfaces and data types shared by the retrieval
// pipelines: the vector store, the embedder, and the chunk/match records that
// flow between them. Concrete store implementations (Qdrant, pgvector,
// in-memory) satisfy these interfaces so the ingestion and answer layers
// never depend on a specific backend.
package rag

import (
	"context"
)

// Default retrieval parameters, shared by the answer pipeline and the
// CLI flags that override them.
const (
	// DefaultThreshold is the minimum cosine similarity a stored chunk must
	// reach to be included in retrieval results.
	DefaultThreshold = 0.78

	// DefaultTopK is the maximum number of chunks returned by a search.
	DefaultTopK = 5
)

// Chunk is the stored unit of retrieval: one bounded-length slice of a
// source document together with its embedding.
type Chunk struct {
	// ID is the deterministic identifier for this chunk (source + index hash).
	ID string

	// Content is the raw text of the chunk.
	Content string

	// Source identifies the originating collection ("about", "post",
	// "project", "upload").
	Source string

	// Metadata holds traceability key-value pairs (slug, title, filename).
	// It is never used to filter searches.
	Metadata map[string]string

	// Embedding is the dense vector for Content. Its length is fixed by the
	// embedding model in use and must match the store's configured dimension.
	Embedding []float32
}

// Match is one similarity-search result.
type Match struct {
	// Chunk is the stored chunk that matched.
	Chunk Chunk

	// Score is the cosine similarity to the query embedding (0.0–1.0).
	Score float32
}

// VectorStore is the interface for persisting and searching chunk embeddings.
// Implementations must be safe to call from multiple goroutines. The chat
// path only ever calls Search; DeleteAll and InsertMany are reserved for the
// ingestion path, which runs at most once at a time (operator rule).
type VectorStore interface {
	// InsertMany appends all chunks. There is no conflict check — callers
	// rebuild the store with DeleteAll first, or knowingly append.
	InsertMany(ctx context.Context, chunks []Chunk) error

	// DeleteAll removes every stored chunk. Used at the start of a full
	// re-index so stale content never shadows fresh content.
	DeleteAll(ctx context.Context) error

	// Search returns at most topK chunks whose cosine similarity to
	// queryEmbedding is >= threshold, ordered by descending similarity.
	Search(ctx context.Context, queryEmbedding []float32, threshold float32, topK int) ([]Match, error)

	// Ping checks that the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

// Embedder is the interface for converting text into dense vector embeddings.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
