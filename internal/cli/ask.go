package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clarion-ai/cli/internal/rag"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question answered strictly from the knowledge base",
	Long: `Retrieves the most relevant chunks with hybrid search, builds a
grounded prompt, and streams the model's answer. The model is told to
refuse when the context does not cover the question.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	engine, err := a.engine(ctx)
	if err != nil {
		return err
	}

	answer, err := engine.AnswerStream(ctx, args[0], func(chunk string) {
		cmd.Print(chunk)
	})
	if errors.Is(err, rag.ErrEmptyIndex) {
		return fmt.Errorf("the knowledge base is empty; run 'clarion ingest' first")
	}
	if err != nil {
		return err
	}
	cmd.Println()

	if len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for i, s := range answer.Sources {
			loc := fmt.Sprintf("chunk %d", s.Chunk.Seq)
			if len(s.Chunk.HeadingPath) > 0 {
				loc = strings.Join(s.Chunk.HeadingPath, " > ")
			}
			cmd.Printf("  [%d] %s (score %.3f)\n", i+1, loc, s.Score)
		}
	}
	return nil
}
