// Package chunker splits source text into the fixed-size pieces that get
// embedded and stored. Chunk boundaries are purely positional — no sentence
// or paragraph awareness — which keeps re-indexing deterministic at the cost
// of occasionally splitting mid-word.
package chunker

// DefaultChunkSize is the number of characters per chunk when no explicit
// size is configured.
const DefaultChunkSize = 500

// Split slices text into consecutive non-overlapping windows of size
// characters. The final chunk holds the remainder and may be shorter, but is
// never empty. Empty input yields nil. size values below 1 fall back to
// DefaultChunkSize.
func Split(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if len(text) == 0 {
		return nil
	}

	chunks := make([]string, 0, (len(text)+size-1)/size)
	for start := 0; start < len(text); start += size {
		end := start + size
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
	}
	return chunks
}
