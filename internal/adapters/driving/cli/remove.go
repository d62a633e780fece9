package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:   "remove <document>",
	Short: "Remove a document from the engine",
	Long: `Deletes a document, its index entries and any relation edges
touching it. The argument is a document ID or a source path.`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	docID, err := resolveDocument(ctx, args[0])
	if err != nil {
		return err
	}

	if err := ingestService.Remove(ctx, docID); err != nil {
		return fmt.Errorf("remove failed: %w", err)
	}

	cmd.Printf("Removed %s.\n", docID)
	return nil
}
