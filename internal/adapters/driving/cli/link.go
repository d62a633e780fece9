package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var linkThreshold float64

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Discover similarity links between documents",
	Long: `Recomputes the relation edge set by comparing per-document
embedding centroids. Documents without embedded chunks are skipped.`,
	Args: cobra.NoArgs,
	RunE: runLink,
}

func init() {
	linkCmd.Flags().Float64VarP(&linkThreshold, "threshold", "t", 0, "minimum cosine similarity (default from config)")
	rootCmd.AddCommand(linkCmd)
}

func runLink(cmd *cobra.Command, _ []string) error {
	threshold := linkThreshold
	if threshold <= 0 {
		threshold = cfg.Linker.Threshold
	}

	edges, err := linkerService.DiscoverLinks(context.Background(), threshold)
	if err != nil {
		return fmt.Errorf("link discovery failed: %w", err)
	}

	if len(edges) == 0 {
		cmd.Println("No links found.")
		return nil
	}

	for _, e := range edges {
		cmd.Printf("  %s <-> %s (%.3f)\n", e.DocA, e.DocB, e.Similarity)
	}
	cmd.Printf("Discovered %d link(s) at threshold %.2f.\n", len(edges), threshold)
	return nil
}
