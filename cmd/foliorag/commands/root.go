// Package commands defines all Cobra CLI commands for the foliorag binary.
package commands

import (
	"github.com/spf13/cobra"

	"foliorag/internal/audit"
	"foliorag/internal/config"
	"foliorag/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "foliorag",
		Short: "foliorag — RAG-backed chat API for a personal portfolio site",
		Long: `foliorag answers visitor questions about a portfolio site's owner using
retrieval-augmented generation over the site's own content.

Blog posts, project descriptions, and uploaded documents are chunked,
embedded, and stored in a vector database. Each chat question retrieves
the most similar chunks and answers strictly from that context.

Model provider is selected via the MODEL_PROVIDER environment variable
or a YAML config file (~/.foliorag/config.yaml).
See 'foliorag --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.foliorag/config.yaml)")

	root.AddCommand(
		NewServeCmd(),
		NewReindexCmd(),
		NewAskCmd(),
		NewVersionCmd(),
	)

	return root
}
