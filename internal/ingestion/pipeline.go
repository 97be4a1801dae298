// Package ingestion implements the document ingestion pipeline.
// It chunks flattened source documents, embeds each chunk, and inserts the
// results into the vector store. A full rebuild (the `foliorag reindex`
// command) flushes the store first; the HTTP /ingest endpoint appends.
package ingestion

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"foliorag/internal/chunker"
	"foliorag/internal/content"
	"foliorag/internal/rag"
)

// Config holds the configuration for the ingestion pipeline.
type Config struct {
	// ChunkSize is the maximum number of characters per document chunk.
	// Defaults to chunker.DefaultChunkSize if zero.
	ChunkSize int
}

// Pipeline orchestrates the chunk → embed → insert flow for source documents.
type Pipeline struct {
	embedder rag.Embedder
	store    rag.VectorStore
	cfg      *Config
}

// NewPipeline constructs a Pipeline from the provided dependencies and config.
func NewPipeline(embedder rag.Embedder, store rag.VectorStore, cfg *Config) (*Pipeline, error) {
	if embedder == nil {
		return nil, fmt.Errorf("ingestion: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("ingestion: store must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = chunker.DefaultChunkSize
	}

	return &Pipeline{embedder: embedder, store: store, cfg: cfg}, nil
}

// Rebuild flushes the store and ingests all documents in order. It processes
// documents sequentially and returns the first error encountered; chunks
// inserted before a failure are not rolled back, so the store may be left
// partially populated until the next successful rebuild. Two overlapping
// Rebuild calls interleave deletes and inserts unpredictably — run at most
// one at a time. Progress is reported via the optional callback.
func (p *Pipeline) Rebuild(ctx context.Context, docs []content.Document, progress func(msg string)) error {
	if progress == nil {
		progress = func(string) {}
	}

	if err := p.store.DeleteAll(ctx); err != nil {
		return fmt.Errorf("ingestion: flush failed: %w", err)
	}
	progress("flushed existing chunks")

	total := 0
	for _, doc := range docs {
		n, err := p.Ingest(ctx, doc)
		if err != nil {
			return err
		}
		total += n
		progress(fmt.Sprintf("ingested %d chunks from %s %q", n, doc.Source, doc.Metadata["title"]))
	}

	progress(fmt.Sprintf("re-index complete: %d documents, %d chunks", len(docs), total))
	return nil
}

// Ingest chunks one document, embeds each chunk serially, and inserts the
// results. Embedding one chunk per request bounds throughput but avoids
// rate-limit bursts against the provider. Returns the number of chunks stored.
func (p *Pipeline) Ingest(ctx context.Context, doc content.Document) (int, error) {
	pieces := chunker.Split(doc.Text, p.cfg.ChunkSize)
	if len(pieces) == 0 {
		return 0, nil
	}

	chunks := make([]rag.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		vecs, err := p.embedder.Embed(ctx, []string{piece})
		if err != nil {
			return 0, fmt.Errorf("ingestion: embedding failed for %s chunk %d: %w", doc.Source, i, err)
		}
		if len(vecs) != 1 {
			return 0, fmt.Errorf("ingestion: embedder returned %d vectors for one chunk", len(vecs))
		}

		chunks = append(chunks, rag.Chunk{
			ID:        chunkID(doc, i),
			Content:   piece,
			Source:    doc.Source,
			Metadata:  chunkMetadata(doc, i),
			Embedding: vecs[0],
		})
	}

	if err := p.store.InsertMany(ctx, chunks); err != nil {
		return 0, fmt.Errorf("ingestion: insert failed for %s: %w", doc.Source, err)
	}

	return len(chunks), nil
}

// chunkMetadata copies the document metadata and records the chunk index.
func chunkMetadata(doc content.Document, index int) map[string]string {
	md := make(map[string]string, len(doc.Metadata)+1)
	for k, v := range doc.Metadata {
		md[k] = v
	}
	md["chunk_index"] = fmt.Sprintf("%d", index)
	return md
}

// chunkID generates a deterministic UUID for a chunk from its document
// identity and index, so re-ingesting unchanged sources produces the same
// IDs every run. Qdrant point IDs must be UUIDs, hence the name-based form.
func chunkID(doc content.Document, index int) string {
	key := fmt.Sprintf("%s/%s#%d", doc.Source, doc.Metadata["slug"], index)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}
