package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openclaw/kbcore/internal/core/domain"
)

var relatedLimit int

var relatedCmd = &cobra.Command{
	Use:   "related <document>",
	Short: "List documents linked to a document",
	Long: `Shows documents related to the given document, ordered by
descending similarity. The argument is a document ID or a source path.`,
	Args: cobra.ExactArgs(1),
	RunE: runRelated,
}

func init() {
	relatedCmd.Flags().IntVarP(&relatedLimit, "limit", "n", 10, "maximum number of related documents")
	rootCmd.AddCommand(relatedCmd)
}

func runRelated(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	docID, err := resolveDocument(ctx, args[0])
	if err != nil {
		return err
	}

	edges, err := linkerService.Related(ctx, docID, relatedLimit)
	if err != nil {
		return fmt.Errorf("related lookup failed: %w", err)
	}

	if len(edges) == 0 {
		cmd.Println("No related documents.")
		return nil
	}

	for _, e := range edges {
		other := e.Other(docID)
		label := other
		if doc, err := docStore.GetDocument(ctx, other); err == nil {
			label = fmt.Sprintf("%s (%s)", doc.Path, other)
		}
		cmd.Printf("  %.3f  %s\n", e.Similarity, label)
	}
	return nil
}

// resolveDocument accepts a document ID or a source path and returns
// the document ID.
func resolveDocument(ctx context.Context, arg string) (string, error) {
	if _, err := docStore.GetDocument(ctx, arg); err == nil {
		return arg, nil
	}

	doc, err := docStore.GetDocumentByPath(ctx, arg)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("document %q: %w", arg, domain.ErrNotFound)
		}
		return "", err
	}
	return doc.ID, nil
}
