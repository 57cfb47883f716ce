package cli

import (
	"github.com/spf13/cobra"

	"github.com/clarion-ai/cli/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat over the knowledge base",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
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
	return tui.Run(ctx, engine)
}
