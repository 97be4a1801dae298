package ingestion

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"foliorag/internal/content"
	"foliorag/internal/rag"
)

// fakeEmbedder returns a fixed-dimension vector per call and records how many
// texts it was asked to embed per invocation.
type fakeEmbedder struct {
	calls     int
	batchSize []int
	err       error
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	f.batchSize = append(f.batchSize, len(texts))
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func newTestPipeline(t *testing.T, emb rag.Embedder, store rag.VectorStore, size int) *Pipeline {
	t.Helper()
	p, err := NewPipeline(emb, store, &Config{ChunkSize: size})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	return p
}

func Test_Ingest_SingleShortDocument(t *testing.T) {
	t.Parallel()

	store := rag.NewMemoryStore()
	emb := &fakeEmbedder{}
	p := newTestPipeline(t, emb, store, 500)

	doc := content.FromUpload("Hello world, this is a test.", "", nil)
	n, err := p.Ingest(context.Background(), doc)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if n != 1 {
		t.Fatalf("chunks stored: got %d, want 1", n)
	}

	matches, err := store.Search(context.Background(), []float32{1, 0, 0}, 0.5, 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 1 || matches[0].Chunk.Content != "Hello world, this is a test." {
		t.Errorf("stored chunk content mismatch: %+v", matches)
	}
}

func Test_Ingest_EmbedsChunksSerially(t *testing.T) {
	t.Parallel()

	store := rag.NewMemoryStore()
	emb := &fakeEmbedder{}
	p := newTestPipeline(t, emb, store, 10)

	doc := content.FromUpload(strings.Repeat("a", 35), "", nil)
	n, err := p.Ingest(context.Background(), doc)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if n != 4 {
		t.Fatalf("chunks: got %d, want 4", n)
	}
	if emb.calls != 4 {
		t.Errorf("embedder calls: got %d, want one per chunk (4)", emb.calls)
	}
	for i, size := range emb.batchSize {
		if size != 1 {
			t.Errorf("call %d: batch size %d, want 1", i, size)
		}
	}
}

func Test_Ingest_MetadataCarriesTraceability(t *testing.T) {
	t.Parallel()

	store := rag.NewMemoryStore()
	p := newTestPipeline(t, &fakeEmbedder{}, store, 500)

	doc := content.FromPost(content.Post{Slug: "go-notes", Title: "Go notes", Body: "Short body."})
	if _, err := p.Ingest(context.Background(), doc); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	matches, err := store.Search(context.Background(), []float32{1, 0, 0}, 0, 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	md := matches[0].Chunk.Metadata
	if md["source"] != "post" || md["slug"] != "go-notes" || md["chunk_index"] != "0" {
		t.Errorf("metadata: %v", md)
	}
}

func Test_Ingest_EmbedFailureAborts(t *testing.T) {
	t.Parallel()

	store := rag.NewMemoryStore()
	emb := &fakeEmbedder{err: fmt.Errorf("rate limited")}
	p := newTestPipeline(t, emb, store, 500)

	_, err := p.Ingest(context.Background(), content.FromUpload("some text", "", nil))
	if err == nil {
		t.Fatal("expected error from failing embedder")
	}
	if store.Len() != 0 {
		t.Errorf("no chunks should be inserted after embed failure, got %d", store.Len())
	}
}

func Test_Rebuild_FlushesThenReingests(t *testing.T) {
	t.Parallel()

	store := rag.NewMemoryStore()
	p := newTestPipeline(t, &fakeEmbedder{}, store, 500)
	ctx := context.Background()

	// Seed with stale content.
	stale := []rag.Chunk{{ID: "stale", Content: "old", Embedding: []float32{1, 0, 0}}}
	if err := store.InsertMany(ctx, stale); err != nil {
		t.Fatalf("seed: %v", err)
	}

	docs := []content.Document{
		content.About(),
		content.FromPost(content.Post{Slug: "p1", Title: "P1", Body: "body one"}),
	}

	var progress []string
	if err := p.Rebuild(ctx, docs, func(msg string) { progress = append(progress, msg) }); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	matches, err := store.Search(ctx, []float32{1, 0, 0}, 0, 100)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for _, m := range matches {
		if m.Chunk.ID == "stale" {
			t.Error("stale chunk survived the flush")
		}
	}
	if len(progress) == 0 {
		t.Error("expected progress messages")
	}

	// Structural idempotence: a second rebuild yields the same chunk count.
	before := store.Len()
	if err := p.Rebuild(ctx, docs, nil); err != nil {
		t.Fatalf("second Rebuild: %v", err)
	}
	if store.Len() != before {
		t.Errorf("chunk count changed across identical rebuilds: %d -> %d", before, store.Len())
	}
}

func Test_Rebuild_AbortsOnFirstFailure(t *testing.T) {
	t.Parallel()

	store := rag.NewMemoryStore()
	emb := &fakeEmbedder{err: fmt.Errorf("provider down")}
	p := newTestPipeline(t, emb, store, 500)

	docs := []content.Document{content.About(), content.About()}
	err := p.Rebuild(context.Background(), docs, nil)
	if err == nil {
		t.Fatal("expected rebuild failure")
	}
	// One failed document must stop the run: only one embed attempt.
	if emb.calls != 1 {
		t.Errorf("embedder calls after first failure: got %d, want 1", emb.calls)
	}
}

func Test_Ingest_EmptyDocumentStoresNothing(t *testing.T) {
	t.Parallel()

	store := rag.NewMemoryStore()
	p := newTestPipeline(t, &fakeEmbedder{}, store, 500)

	n, err := p.Ingest(context.Background(), content.Document{Text: "", Source: "upload"})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if n != 0 || store.Len() != 0 {
		t.Errorf("empty document should store nothing: n=%d len=%d", n, store.Len())
	}
}
