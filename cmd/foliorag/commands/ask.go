package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"foliorag/internal/answer"
	"foliorag/internal/embedder"
	"foliorag/internal/logging"
	"foliorag/internal/provider"
)

// NewAskCmd constructs the `foliorag ask` command, which answers a single
// question against the indexed portfolio content and prints the reply.
// Useful for smoke-testing retrieval quality without the HTTP server.
func NewAskCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question against the indexed portfolio content",
		Long: `Run one question through the retrieval-answer pipeline and print the reply.

Examples:
  foliorag ask "what projects have you built with Go?"
  foliorag ask --verbose "tell me about your blog"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			chatModel, err := provider.NewFromEnv(ctx)
			if err != nil {
				return fmt.Errorf("ask: failed to initialise model provider: %w", err)
			}

			emb, err := embedder.NewFromEnv()
			if err != nil {
				return fmt.Errorf("ask: failed to initialise embedder: %w", err)
			}

			vecStore, err := buildVectorStore(ctx, log)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer func() { _ = vecStore.Close() }()

			pipeline, err := answer.New(emb, vecStore, chatModel, &answer.Config{
				Threshold:        getEnvFloat32("SIMILARITY_THRESHOLD", 0),
				TopK:             getEnvInt("TOP_K", 0),
				MaxContextTokens: getEnvInt("MAX_CONTEXT_TOKENS", 0),
			})
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			res, err := pipeline.Answer(ctx, strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			if verbose {
				fmt.Printf("--- retrieved %d chunk(s) ---\n%s\n--- reply ---\n", res.Matches, res.ContextBlock)
			}
			fmt.Println(res.Reply)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print the retrieved context before the reply")

	return cmd
}
