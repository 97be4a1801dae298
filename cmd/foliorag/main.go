// Command foliorag is the entry point for the portfolio RAG service.
// It provides a CLI interface (via Cobra) for serving the chat API,
// rebuilding the vector index, and asking one-off questions.
package main

import (
	"fmt"
	"os"

	"foliorag/cmd/foliorag/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
