package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openclaw/kbcore/internal/core/domain"
)

var (
	searchLimit int
	searchMode  string
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Queries the indexes. Hybrid mode (the default) fuses keyword and
semantic results with a weighted sum; quoted phrases ("...") receive
exact-phrase boosting on the keyword side.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results")
	searchCmd.Flags().StringVarP(&searchMode, "mode", "m", "hybrid", "search mode: semantic, keyword or hybrid")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := domain.Query{
		Text:  args[0],
		Mode:  domain.QueryMode(searchMode),
		Limit: searchLimit,
	}

	rs, err := searchService.Search(context.Background(), query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, rs)
	}
	return outputSearchTable(cmd, rs)
}

func outputSearchJSON(cmd *cobra.Command, rs *domain.ResultSet) error {
	data, err := json.MarshalIndent(rs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, rs *domain.ResultSet) error {
	for _, w := range rs.Warnings {
		cmd.Printf("warning: %s\n", w)
	}

	if len(rs.Results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, r := range rs.Results {
		cmd.Printf("  [%d] %s (%.2f, %s)\n", i+1, r.DocumentID, r.Score, r.Source)
		if r.Snippet != "" {
			cmd.Printf("      %s\n", r.Snippet)
		}
		cmd.Println()
	}

	return nil
}
