// Package answer implements the retrieval-answer pipeline: embed the
// question, search the vector store, assemble a bounded context block, and
// ask the chat model to answer from that context alone. The pipeline is a
// strict linear sequence — each stage either completes or fails the request
// with a classified error; there is no retry and no conversation memory.
package answer

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"foliorag/internal/budget"
	"foliorag/internal/logging"
	"foliorag/internal/rag"
)

// Generator is the narrow slice of an eino chat model the pipeline needs.
// All eino-ext model implementations satisfy it; tests inject a fake.
type Generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Config holds the retrieval parameters for the pipeline.
type Config struct {
	// Threshold is the minimum similarity for a chunk to be used as context.
	// Defaults to rag.DefaultThreshold if zero.
	Threshold float32

	// TopK is the maximum number of chunks retrieved per question.
	// Defaults to rag.DefaultTopK if zero.
	TopK int

	// MaxContextTokens bounds the assembled context block.
	// Defaults to budget.DefaultMaxContextTokens if zero.
	MaxContextTokens int
}

// Pipeline answers one question per call. It holds process-lifetime clients
// (embedder, store, model) injected at startup and is safe for concurrent use.
type Pipeline struct {
	embedder rag.Embedder
	store    rag.VectorStore
	model    Generator
	cfg      *Config
}

// Result is the outcome of a successful pipeline run.
type Result struct {
	// Reply is the model's answer text, returned verbatim.
	Reply string

	// Matches is the number of chunks retrieved above the threshold.
	Matches int

	// ContextBlock is the assembled context that was sent to the model.
	ContextBlock string

	// Duration is the wall-clock time of the whole run.
	Duration time.Duration
}

// New constructs a Pipeline from the provided dependencies and config.
func New(embedder rag.Embedder, store rag.VectorStore, gen Generator, cfg *Config) (*Pipeline, error) {
	if embedder == nil {
		return nil, &Error{Class: ClassConfig, Message: "embedder is not configured"}
	}
	if store == nil {
		return nil, &Error{Class: ClassConfig, Message: "vector store is not configured"}
	}
	if gen == nil {
		return nil, &Error{Class: ClassConfig, Message: "chat model is not configured"}
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = rag.DefaultThreshold
	}
	if cfg.TopK <= 0 {
		cfg.TopK = rag.DefaultTopK
	}
	if cfg.MaxContextTokens <= 0 {
		cfg.MaxContextTokens = budget.DefaultMaxContextTokens
	}
	return &Pipeline{embedder: embedder, store: store, model: gen, cfg: cfg}, nil
}

// Answer runs the four stages for one question. An empty question fails
// before any external call is made. Failures at later stages return a
// classified *Error whose Message is safe to surface; the wrapped cause is
// logged here and never shown to the caller.
func (p *Pipeline) Answer(ctx context.Context, question string) (*Result, error) {
	log := logging.FromContext(ctx)
	start := time.Now()

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, &Error{Class: ClassClientInput, Message: "Message is required"}
	}

	// Stage: embed the question.
	vecs, err := p.embedder.Embed(ctx, []string{question})
	if err != nil {
		log.Error("answer: embedding failed", slog.Any("error", err))
		return nil, &Error{Class: ClassUpstream, Message: "Failed to process the question", Err: err}
	}
	if len(vecs) == 0 {
		return nil, &Error{Class: ClassUpstream, Message: "Failed to process the question"}
	}

	// Stage: similarity search.
	matches, err := p.store.Search(ctx, vecs[0], p.cfg.Threshold, p.cfg.TopK)
	if err != nil {
		log.Error("answer: retrieval failed", slog.Any("error", err))
		return nil, &Error{Class: ClassRetrieval, Message: "Failed to retrieve context", Err: err}
	}

	// Stage: assemble the bounded context block. An empty store or a
	// question with no good match yields an empty block — the prompt's
	// insufficient-information instruction handles that case.
	contents := make([]string, 0, len(matches))
	for _, m := range matches {
		contents = append(contents, m.Chunk.Content)
	}
	contents = budget.TrimChunks(contents, p.cfg.MaxContextTokens)
	contextBlock := AssembleContext(contents)

	// Stage: generate the answer.
	resp, err := p.model.Generate(ctx, buildMessages(contextBlock, question))
	if err != nil {
		log.Error("answer: generation failed", slog.Any("error", err))
		return nil, &Error{Class: ClassUpstream, Message: "Failed to generate a response", Err: err}
	}
	if resp == nil {
		return nil, &Error{Class: ClassUpstream, Message: "Failed to generate a response"}
	}

	log.Debug("answer: completed",
		slog.Int("matches", len(matches)),
		slog.Int("context_chars", len(contextBlock)),
		slog.Duration("duration", time.Since(start)),
	)

	return &Result{
		Reply:        resp.Content,
		Matches:      len(matches),
		ContextBlock: contextBlock,
		Duration:     time.Since(start),
	}, nil
}
