package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show corpus statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	docs, err := docStore.ListDocuments(ctx)
	if err != nil {
		return err
	}

	var chunkCount, incomplete int
	for _, doc := range docs {
		chunks, err := docStore.GetChunks(ctx, doc.ID)
		if err != nil {
			return err
		}
		chunkCount += len(chunks)
		for _, c := range chunks {
			if c.VectorIncomplete {
				incomplete++
			}
		}
	}

	edges, err := relationStore.ListEdges(ctx)
	if err != nil {
		return err
	}

	cmd.Printf("Documents:       %d\n", len(docs))
	cmd.Printf("Chunks:          %d\n", chunkCount)
	cmd.Printf("  vector-incomplete: %d\n", incomplete)
	cmd.Printf("Vector entries:  %d\n", vectorIndex.Len())
	cmd.Printf("Relation edges:  %d\n", len(edges))
	return nil
}
