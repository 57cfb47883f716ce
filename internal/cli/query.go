package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/clarion-ai/cli/internal/rag"
)

var (
	queryTopK  int
	queryAlpha float64
	queryJSON  bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Search the knowledge base with hybrid retrieval",
	Long: `Runs a vector sub-query and a full-text sub-query concurrently and
fuses their rankings: score = alpha*vector + (1-alpha)*text.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().Float64Var(&queryAlpha, "alpha", -1, "vector weight in [0,1] (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
}

var (
	rankStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	scoreStyle   = lipgloss.NewStyle().Faint(true)
	headingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if queryAlpha >= 0 {
		a.cfg.Search.Alpha = queryAlpha
	}
	topK := a.cfg.Search.TopK
	if queryTopK > 0 {
		topK = queryTopK
	}

	retriever, err := a.retriever()
	if err != nil {
		return err
	}

	results, err := retriever.Retrieve(ctx, args[0], topK)
	if errors.Is(err, rag.ErrEmptyIndex) {
		return fmt.Errorf("the knowledge base is empty; run 'clarion ingest' first")
	}
	if err != nil {
		return err
	}

	if queryJSON {
		return outputQueryJSON(cmd, results)
	}
	outputQueryText(cmd, results)
	return nil
}

type queryResult struct {
	Rank        int      `json:"rank"`
	Score       float64  `json:"score"`
	VectorScore float64  `json:"vector_score"`
	TextScore   float64  `json:"text_score"`
	HeadingPath []string `json:"heading_path,omitempty"`
	Content     string   `json:"content"`
}

func outputQueryJSON(cmd *cobra.Command, results []rag.ScoredChunk) error {
	out := make([]queryResult, len(results))
	for i, r := range results {
		out[i] = queryResult{
			Rank:        i + 1,
			Score:       r.Score,
			VectorScore: r.VectorScore,
			TextScore:   r.TextScore,
			HeadingPath: r.Chunk.HeadingPath,
			Content:     r.Chunk.Content,
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputQueryText(cmd *cobra.Command, results []rag.ScoredChunk) {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return
	}

	for i, r := range results {
		cmd.Printf("%s %s\n",
			rankStyle.Render(fmt.Sprintf("[%d]", i+1)),
			scoreStyle.Render(fmt.Sprintf("score %.3f (vec %.3f, text %.3f)", r.Score, r.VectorScore, r.TextScore)),
		)
		if len(r.Chunk.HeadingPath) > 0 {
			cmd.Println("    " + headingStyle.Render(strings.Join(r.Chunk.HeadingPath, " > ")))
		}
		cmd.Println("    " + snippet(r.Chunk.Content, 200))
		cmd.Println()
	}
}

// snippet flattens content to one line and truncates on a rune boundary.
func snippet(content string, max int) string {
	s := strings.Join(strings.Fields(content), " ")
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) > max {
		runes = runes[:max]
	}
	return string(runes) + "..."
}
