// Package cli implements the kb command line interface. Commands are
// thin adapters: they parse flags, call the driving services and format
// the output.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/openclaw/kbcore/internal/adapters/driven/config/file"
	"github.com/openclaw/kbcore/internal/adapters/driven/embedding/gateway"
	"github.com/openclaw/kbcore/internal/adapters/driven/index/keyword"
	"github.com/openclaw/kbcore/internal/adapters/driven/index/vector"
	"github.com/openclaw/kbcore/internal/adapters/driven/storage/sqlite"
	"github.com/openclaw/kbcore/internal/core/ports/driven"
	"github.com/openclaw/kbcore/internal/core/ports/driving"
	"github.com/openclaw/kbcore/internal/core/services"
	"github.com/openclaw/kbcore/internal/logger"
	"github.com/openclaw/kbcore/internal/normalisers"
	"github.com/openclaw/kbcore/internal/normalisers/markdown"
	"github.com/openclaw/kbcore/internal/normalisers/plaintext"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	flagConfig  string
	flagDataDir string
	flagVerbose bool
)

// Wired services, populated by initServices before a command runs.
var (
	cfg           file.Config
	metaStore     *sqlite.Store
	docStore      driven.DocumentStore
	relationStore driven.RelationStore
	keywordIndex  *keyword.Index
	vectorIndex   *vector.Index
	embedder      driven.EmbeddingService

	ingestService driving.IngestService
	searchService driving.SearchService
	linkerService driving.LinkerService
)

var rootCmd = &cobra.Command{
	Use:   "kb",
	Short: "Local knowledge retrieval engine",
	Long: `kb ingests text and markdown documents into a dual index
(keyword + vector) and answers semantic, keyword and hybrid queries
over them. All state lives in a local data directory.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(flagVerbose)
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		return initServices()
	},
	PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		return closeServices()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ~/.kb/config.toml)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default ~/.kb/data)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose logging to stderr")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// initServices loads the config and wires stores, indexes and services.
func initServices() error {
	configPath := flagConfig
	if configPath == "" {
		p, err := file.DefaultPath()
		if err != nil {
			return err
		}
		configPath = p
	}

	var err error
	cfg, err = file.Load(configPath)
	if err != nil {
		return err
	}

	dataDir := flagDataDir
	if dataDir == "" {
		dataDir = cfg.DataDir
	}
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".kb", "data")
	}

	metaStore, err = sqlite.NewStore(dataDir)
	if err != nil {
		return fmt.Errorf("opening metadata store: %w", err)
	}
	docStore = metaStore.DocumentStore()
	relationStore = metaStore.RelationStore()

	keywordIndex, err = keyword.New(filepath.Join(dataDir, "keyword"))
	if err != nil {
		return fmt.Errorf("opening keyword index: %w", err)
	}

	vectorIndex, err = vector.New(filepath.Join(dataDir, "vector"))
	if err != nil {
		return fmt.Errorf("opening vector index: %w", err)
	}

	embedder = newEmbedder()

	registry := normalisers.NewRegistry(
		markdown.New(markdown.WithMaxTokens(cfg.Ingest.MaxChunkTokens)),
		plaintext.New(plaintext.WithMaxTokens(cfg.Ingest.MaxChunkTokens)),
	)

	ingestService = services.NewIngestService(
		registry, embedder, vectorIndex, keywordIndex, docStore, relationStore)

	search := services.NewSearchService(docStore, keywordIndex, vectorIndex, embedder)
	search.SetWeights(cfg.Search.VectorWeight, cfg.Search.KeywordWeight)
	search.SetDefaultLimit(cfg.Search.DefaultLimit)
	searchService = search

	linkerService = services.NewLinkerService(docStore, relationStore)

	return nil
}

// newEmbedder builds the gateway service from the configured endpoint
// list. With no endpoints, embedding calls fail and the engine runs
// keyword-only.
func newEmbedder() driven.EmbeddingService {
	endpoints := make([]gateway.EndpointConfig, 0, len(cfg.Embedding.Endpoints))
	for _, ep := range cfg.Embedding.Endpoints {
		endpoints = append(endpoints, gateway.EndpointConfig{
			Name:              ep.Name,
			BaseURL:           ep.BaseURL,
			APIKey:            ep.APIKey,
			Model:             ep.Model,
			RequestsPerMinute: ep.RequestsPerMinute,
			MaxConcurrent:     ep.MaxConcurrent,
		})
	}
	return gateway.NewService(gateway.Config{
		Endpoints:  endpoints,
		Dimensions: cfg.Embedding.Dimensions,
		CacheSize:  cfg.Embedding.CacheSize,
	})
}

// closeServices flushes index snapshots and closes the stores.
func closeServices() error {
	var firstErr error
	for _, c := range []interface{ Close() error }{keywordIndex, vectorIndex, embedder, metaStore} {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
