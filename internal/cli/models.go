package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clarion-ai/cli/config"
	"github.com/clarion-ai/cli/internal/ollama"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List locally available Ollama models",
	Args:  cobra.NoArgs,
	RunE:  runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	client := ollama.NewClient(cfg.Ollama.BaseURL)
	models, err := client.ListModels(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}
	if len(models) == 0 {
		cmd.Println("No models available. Pull one with 'ollama pull'.")
		return nil
	}

	for _, m := range models {
		marker := " "
		if m.Name == cfg.Ollama.ChatModel {
			marker = "*"
		}
		cmd.Printf("%s %-40s %6.1f GB\n", marker, m.Name, float64(m.Size)/1e9)
	}
	return nil
}
