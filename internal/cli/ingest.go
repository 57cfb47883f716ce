package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clarion-ai/cli/internal/rag"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path...]",
	Short: "Ingest markdown and PDF files into the knowledge base",
	Long: `Normalizes, chunks, and embeds each document, then replaces its rows
atomically. Unchanged documents are skipped; a failing document is
reported and does not stop the rest.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	files, err := rag.CollectFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no ingestable files found under %v", args)
	}

	ingestor, err := a.ingestor()
	if err != nil {
		return err
	}

	results := ingestor.IngestAll(ctx, files)

	var ingested, skipped, failed int
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
			cmd.Printf("  FAIL %s: %v\n", r.Source, r.Err)
		case r.Skipped:
			skipped++
			cmd.Printf("  skip %s (unchanged)\n", r.Source)
		default:
			ingested++
			cmd.Printf("  ok   %s (%d chunks)\n", r.Source, r.Chunks)
		}
	}

	cmd.Printf("\nIngested %d, skipped %d, failed %d of %d documents.\n",
		ingested, skipped, failed, len(results))
	if failed > 0 {
		return fmt.Errorf("%d documents failed", failed)
	}
	return nil
}
