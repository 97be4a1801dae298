// Package budget provides token budget estimation and context trimming for
// the answer pipeline. Because foliorag supports multiple LLM backends with
// different tokenizers, this package uses a conservative character-based
// heuristic: 1 token ≈ 4 characters (English prose). This deliberately
// under-estimates token counts to leave headroom for model-specific overhead.
package budget

const (
	// charsPerToken is the conservative character-to-token ratio used for
	// estimation. 4 chars/token is standard for English; using 3 would be
	// more aggressive but risks overflowing context windows.
	charsPerToken = 4

	// DefaultMaxContextTokens is the default budget for the retrieved
	// context block. With 500-character chunks and topK 5 the block is well
	// under this ceiling; the cap only bites when chunk size or topK are
	// raised by the operator.
	DefaultMaxContextTokens = 3000
)

// Estimate returns a rough token count for s using the character heuristic.
func Estimate(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// TrimChunks drops chunks from the tail of the slice until the estimated
// total token count fits within maxTokens. Chunks arrive ordered by
// descending similarity, so trimming from the tail discards the least
// relevant context first. The first chunk is never dropped — a single
// over-budget chunk is passed through rather than emptying the context.
func TrimChunks(chunks []string, maxTokens int) []string {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxContextTokens
	}

	for len(chunks) > 1 {
		total := 0
		for _, c := range chunks {
			total += Estimate(c)
		}
		if total <= maxTokens {
			break
		}
		chunks = chunks[:len(chunks)-1]
	}
	return chunks
}
