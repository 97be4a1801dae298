package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"foliorag/internal/rag"
)

// fakeEmbedder returns a fixed vector, or an error, and counts invocations.
type fakeEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vec
	}
	return out, nil
}

// fakeModel records the messages it was asked to generate from.
type fakeModel struct {
	reply string
	err   error
	seen  []*schema.Message
}

func (f *fakeModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.seen = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

// failingStore errors on every search.
type failingStore struct {
	rag.MemoryStore
}

func (f *failingStore) Search(context.Context, []float32, float32, int) ([]rag.Match, error) {
	return nil, fmt.Errorf("connection refused")
}

func seedStore(t *testing.T, contents ...string) *rag.MemoryStore {
	t.Helper()
	store := rag.NewMemoryStore()
	chunks := make([]rag.Chunk, 0, len(contents))
	for i, c := range contents {
		chunks = append(chunks, rag.Chunk{
			ID:        fmt.Sprintf("c%d", i),
			Content:   c,
			Source:    "post",
			Embedding: []float32{1, 0, 0},
		})
	}
	if err := store.InsertMany(context.Background(), chunks); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return store
}

func newTestPipeline(t *testing.T, emb rag.Embedder, store rag.VectorStore, gen Generator) *Pipeline {
	t.Helper()
	p, err := New(emb, store, gen, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func Test_Answer_HappyPath(t *testing.T) {
	t.Parallel()

	store := seedStore(t, "I built the Acme storefront.", "I write about Go.")
	emb := &fakeEmbedder{vec: []float32{1, 0, 0}}
	gen := &fakeModel{reply: "The owner built the Acme storefront."}
	p := newTestPipeline(t, emb, store, gen)

	res, err := p.Answer(context.Background(), "What did you build for Acme?")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if res.Reply != "The owner built the Acme storefront." {
		t.Errorf("reply: got %q", res.Reply)
	}
	if res.Matches != 2 {
		t.Errorf("matches: got %d, want 2", res.Matches)
	}
	if !strings.Contains(res.ContextBlock, "Acme storefront") {
		t.Errorf("context block missing retrieved content: %q", res.ContextBlock)
	}

	// The prompt must embed context and question, separated per the template.
	if len(gen.seen) != 2 {
		t.Fatalf("messages sent to model: got %d, want 2", len(gen.seen))
	}
	if gen.seen[0].Role != schema.System {
		t.Errorf("first message role: got %v, want system", gen.seen[0].Role)
	}
	user := gen.seen[1].Content
	if !strings.Contains(user, "Context:\n") || !strings.Contains(user, "Question: What did you build for Acme?") {
		t.Errorf("user prompt malformed: %q", user)
	}
}

func Test_Answer_EmptyQuestionFailsBeforeAnyCall(t *testing.T) {
	t.Parallel()

	emb := &fakeEmbedder{vec: []float32{1}}
	gen := &fakeModel{reply: "never"}
	p := newTestPipeline(t, emb, rag.NewMemoryStore(), gen)

	for _, q := range []string{"", "   ", "\n\t"} {
		_, err := p.Answer(context.Background(), q)
		if err == nil {
			t.Fatalf("question %q: expected error", q)
		}
		var pe *Error
		if !errors.As(err, &pe) {
			t.Fatalf("question %q: error not classified: %v", q, err)
		}
		if pe.Class != ClassClientInput {
			t.Errorf("question %q: class %v, want ClassClientInput", q, pe.Class)
		}
		if pe.Message != "Message is required" {
			t.Errorf("question %q: message %q", q, pe.Message)
		}
	}
	if emb.calls != 0 {
		t.Errorf("embedder invoked %d times for empty questions, want 0", emb.calls)
	}
	if gen.seen != nil {
		t.Error("model must never be invoked for an empty question")
	}
}

func Test_Answer_EmptyStoreSendsEmptyContext(t *testing.T) {
	t.Parallel()

	gen := &fakeModel{reply: "I don't have enough information to answer that."}
	p := newTestPipeline(t, &fakeEmbedder{vec: []float32{1, 0, 0}}, rag.NewMemoryStore(), gen)

	res, err := p.Answer(context.Background(), "What is your favourite colour?")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if res.Matches != 0 {
		t.Errorf("matches: got %d, want 0", res.Matches)
	}
	if res.ContextBlock != "" {
		t.Errorf("context block: got %q, want empty", res.ContextBlock)
	}

	// The prompt is still sent, with an empty context block.
	user := gen.seen[1].Content
	if !strings.Contains(user, "Context:\n\n\nQuestion:") {
		t.Errorf("prompt should contain an empty context block, got %q", user)
	}
}

func Test_Answer_EmbedFailureIsUpstream(t *testing.T) {
	t.Parallel()

	emb := &fakeEmbedder{err: fmt.Errorf("401 unauthorized")}
	p := newTestPipeline(t, emb, rag.NewMemoryStore(), &fakeModel{})

	_, err := p.Answer(context.Background(), "hello")
	pe := AsError(err)
	if pe.Class != ClassUpstream {
		t.Errorf("class: got %v, want ClassUpstream", pe.Class)
	}
	if strings.Contains(pe.Message, "401") {
		t.Error("internal error detail leaked into the user-facing message")
	}
}

func Test_Answer_SearchFailureIsRetrieval(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(t, &fakeEmbedder{vec: []float32{1}}, &failingStore{}, &fakeModel{})

	_, err := p.Answer(context.Background(), "hello")
	pe := AsError(err)
	if pe.Class != ClassRetrieval {
		t.Errorf("class: got %v, want ClassRetrieval", pe.Class)
	}
	if pe.Message != "Failed to retrieve context" {
		t.Errorf("message: got %q", pe.Message)
	}
	if strings.Contains(pe.Message, "connection refused") {
		t.Error("internal error detail leaked into the user-facing message")
	}
}

func Test_Answer_ModelFailureIsUpstream(t *testing.T) {
	t.Parallel()

	store := seedStore(t, "chunk")
	gen := &fakeModel{err: fmt.Errorf("model overloaded")}
	p := newTestPipeline(t, &fakeEmbedder{vec: []float32{1, 0, 0}}, store, gen)

	_, err := p.Answer(context.Background(), "hello")
	pe := AsError(err)
	if pe.Class != ClassUpstream {
		t.Errorf("class: got %v, want ClassUpstream", pe.Class)
	}
}

func Test_AssembleContext_BlankLineSeparated(t *testing.T) {
	t.Parallel()

	got := AssembleContext([]string{"first", "second", "third"})
	if got != "first\n\nsecond\n\nthird" {
		t.Errorf("AssembleContext: got %q", got)
	}
	if AssembleContext(nil) != "" {
		t.Error("nil contents should assemble to empty string")
	}
}

func Test_AsError_UnclassifiedBecomesUpstream(t *testing.T) {
	t.Parallel()

	pe := AsError(fmt.Errorf("plain error"))
	if pe.Class != ClassUpstream {
		t.Errorf("class: got %v, want ClassUpstream", pe.Class)
	}
}
