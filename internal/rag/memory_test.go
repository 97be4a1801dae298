package rag

import (
	"context"
	"testing"
)

func chunkWithVec(id string, vec []float32) Chunk {
	return Chunk{ID: id, Content: "content-" + id, Source: "post", Embedding: vec}
}

func Test_MemoryStore_ExactMatchScoresHighest(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore()
	ctx := context.Background()

	probe := []float32{0.6, 0.8, 0}
	err := s.InsertMany(ctx, []Chunk{
		chunkWithVec("a", []float32{0, 1, 0}),
		chunkWithVec("b", probe),
		chunkWithVec("c", []float32{1, 0, 0}),
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	matches, err := s.Search(ctx, probe, 0, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("expected matches, got none")
	}
	if matches[0].Chunk.ID != "b" {
		t.Errorf("top match: got %q, want %q", matches[0].Chunk.ID, "b")
	}
	if matches[0].Score < 0.9999 {
		t.Errorf("identical vector score: got %v, want ~1.0", matches[0].Score)
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Score > matches[i-1].Score {
			t.Errorf("matches not in descending score order at %d", i)
		}
	}
}

func Test_MemoryStore_TopKBound(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore()
	ctx := context.Background()

	probe := []float32{1, 0}
	var chunks []Chunk
	for i := 0; i < 8; i++ {
		chunks = append(chunks, chunkWithVec(string(rune('a'+i)), probe))
	}
	if err := s.InsertMany(ctx, chunks); err != nil {
		t.Fatalf("insert: %v", err)
	}

	matches, err := s.Search(ctx, probe, 0.5, 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 3 {
		t.Errorf("topK bound: got %d matches, want 3", len(matches))
	}
}

func Test_MemoryStore_ThresholdExcludes(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore()
	ctx := context.Background()

	err := s.InsertMany(ctx, []Chunk{
		chunkWithVec("near", []float32{1, 0}),
		chunkWithVec("far", []float32{0, 1}), // orthogonal: similarity 0
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	matches, err := s.Search(ctx, []float32{1, 0}, 0.78, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for _, m := range matches {
		if m.Score < 0.78 {
			t.Errorf("chunk %q below threshold returned with score %v", m.Chunk.ID, m.Score)
		}
		if m.Chunk.ID == "far" {
			t.Error("orthogonal chunk should have been excluded")
		}
	}
}

func Test_MemoryStore_DeleteAll(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.InsertMany(ctx, []Chunk{chunkWithVec("a", []float32{1})}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.DeleteAll(ctx); err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("store not empty after DeleteAll: %d chunks", s.Len())
	}

	matches, err := s.Search(ctx, []float32{1}, 0, 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches from empty store, got %d", len(matches))
	}
}

func Test_Cosine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"length mismatch", []float32{1, 0}, []float32{1}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cosine(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-6 || diff < -1e-6 {
				t.Errorf("Cosine(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
