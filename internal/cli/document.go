package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var deleteCmd = &cobra.Command{
	Use:   "delete [source]",
	Short: "Delete a document and all of its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	docs, err := a.store.ListDocuments(ctx)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		cmd.Println("No documents ingested yet.")
		return nil
	}

	count, err := a.store.CountChunks(ctx)
	if err != nil {
		return err
	}

	for _, d := range docs {
		cmd.Printf("  %s  (ingested %s)\n", d.Source, d.IngestedAt.Format("2006-01-02 15:04"))
	}
	cmd.Printf("\n%d documents, %d chunks.\n", len(docs), count)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	deleted, err := a.store.DeleteDocument(ctx, args[0])
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("no document with source %q", args[0])
	}
	cmd.Printf("Deleted %s.\n", args[0])
	return nil
}
