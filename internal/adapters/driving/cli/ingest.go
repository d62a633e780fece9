package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/openclaw/kbcore/internal/core/domain"
	"github.com/openclaw/kbcore/internal/normalisers"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <path>...",
	Short: "Ingest documents into the indexes",
	Long: `Reads the given files or directories and indexes their content.
Directories are walked recursively; only .md, .markdown, .txt and .text
files are picked up. Re-ingesting a path replaces the previous version.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	raws, err := collectDocuments(args)
	if err != nil {
		return err
	}
	if len(raws) == 0 {
		cmd.Println("No ingestable files found.")
		return nil
	}

	report, err := ingestService.Ingest(context.Background(), raws)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	for _, o := range report.Outcomes {
		switch {
		case o.Err != nil:
			cmd.Printf("  FAIL %s: %v\n", o.Path, o.Err)
		case o.VectorIncomplete:
			cmd.Printf("  OK   %s: %d chunk(s), keyword only (embedding unavailable)\n", o.Path, o.Chunks)
		default:
			cmd.Printf("  OK   %s: %d chunk(s)\n", o.Path, o.Chunks)
		}
	}
	cmd.Printf("Ingested %d document(s), %d failed.\n", report.Succeeded, report.Failed)
	return nil
}

// collectDocuments expands the argument list into raw documents,
// walking directories for supported extensions.
func collectDocuments(paths []string) ([]domain.RawDocument, error) {
	var raws []domain.RawDocument

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}

		if !info.IsDir() {
			raw, err := readDocument(path)
			if err != nil {
				return nil, err
			}
			raws = append(raws, raw)
			continue
		}

		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if _, err := normalisers.FormatForPath(p); err != nil {
				return nil // unsupported extension, skip
			}
			raw, err := readDocument(p)
			if err != nil {
				return err
			}
			raws = append(raws, raw)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", path, err)
		}
	}

	return raws, nil
}

// readDocument loads one file as a raw document. The format is left
// empty; the registry resolves it from the extension.
func readDocument(path string) (domain.RawDocument, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return domain.RawDocument{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return domain.RawDocument{Path: path, Content: string(content)}, nil
}
