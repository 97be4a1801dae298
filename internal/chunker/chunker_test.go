package chunker

import (
	"strings"
	"testing"
)

func Test_Split_Reassembles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		size int
	}{
		{"short text single chunk", "Hello world, this is a test.", 500},
		{"exact multiple", strings.Repeat("x", 1000), 500},
		{"remainder chunk", strings.Repeat("y", 1203), 500},
		{"size one", "abc", 1},
		{"unicode bytes", "héllo wörld é", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := Split(tt.text, tt.size)
			if got := strings.Join(chunks, ""); got != tt.text {
				t.Errorf("concatenated chunks do not reproduce input:\ngot  %q\nwant %q", got, tt.text)
			}
			for i, c := range chunks {
				if i < len(chunks)-1 && len(c) != tt.size {
					t.Errorf("chunk %d: length %d, want exactly %d", i, len(c), tt.size)
				}
				if len(c) == 0 {
					t.Errorf("chunk %d is empty", i)
				}
				if len(c) > tt.size {
					t.Errorf("chunk %d: length %d exceeds size %d", i, len(c), tt.size)
				}
			}
		})
	}
}

func Test_Split_Count(t *testing.T) {
	t.Parallel()

	tests := []struct {
		textLen int
		size    int
		want    int
	}{
		{0, 500, 0},
		{1, 500, 1},
		{500, 500, 1},
		{501, 500, 2},
		{1000, 500, 2},
		{1203, 500, 3},
	}

	for _, tt := range tests {
		chunks := Split(strings.Repeat("a", tt.textLen), tt.size)
		if len(chunks) != tt.want {
			t.Errorf("len=%d size=%d: got %d chunks, want %d", tt.textLen, tt.size, len(chunks), tt.want)
		}
	}
}

func Test_Split_EmptyInput(t *testing.T) {
	t.Parallel()

	if chunks := Split("", 500); chunks != nil {
		t.Errorf("expected nil for empty input, got %v", chunks)
	}
}

func Test_Split_InvalidSizeFallsBack(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("z", DefaultChunkSize+1)
	chunks := Split(text, 0)
	if len(chunks) != 2 {
		t.Errorf("size 0 should fall back to default: got %d chunks, want 2", len(chunks))
	}
	if len(chunks[0]) != DefaultChunkSize {
		t.Errorf("first chunk length %d, want %d", len(chunks[0]), DefaultChunkSize)
	}
}
