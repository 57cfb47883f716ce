package cli

import (
	"github.com/spf13/cobra"

	"github.com/clarion-ai/cli/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the database schema and default configuration",
	Long: `Creates the pgvector extension, the documents and chunks tables, and
the search indexes. Writes a default config file when none exists.
Safe to run more than once.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Save(); err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.store.Init(ctx, cfg.Embeddings.Dimension); err != nil {
		return err
	}

	cmd.Printf("Schema ready (embedding dimension %d, model %s).\n",
		cfg.Embeddings.Dimension, cfg.Embeddings.Model)
	return nil
}
