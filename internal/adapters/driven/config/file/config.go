// Package file loads engine configuration from a TOML file.
package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// EndpointConfig describes one embedding backend. Endpoints are tried
// in file order until one produces a complete batch.
type EndpointConfig struct {
	Name              string `toml:"name"`
	BaseURL           string `toml:"base_url"`
	APIKey            string `toml:"api_key"`
	Model             string `toml:"model"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
	MaxConcurrent     int    `toml:"max_concurrent"`
}

// SearchConfig holds ranking parameters.
type SearchConfig struct {
	VectorWeight  float64 `toml:"vector_weight"`
	KeywordWeight float64 `toml:"keyword_weight"`
	DefaultLimit  int     `toml:"default_limit"`
}

// IngestConfig holds normalisation parameters.
type IngestConfig struct {
	MaxChunkTokens int `toml:"max_chunk_tokens"`
}

// LinkerConfig holds relation discovery parameters.
type LinkerConfig struct {
	Threshold float64 `toml:"threshold"`
}

// EmbeddingConfig holds the embedding backend settings.
type EmbeddingConfig struct {
	Dimensions int              `toml:"dimensions"`
	CacheSize  int              `toml:"cache_size"`
	Endpoints  []EndpointConfig `toml:"endpoints"`
}

// Config is the top-level engine configuration.
type Config struct {
	DataDir   string          `toml:"data_dir"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Search    SearchConfig    `toml:"search"`
	Ingest    IngestConfig    `toml:"ingest"`
	Linker    LinkerConfig    `toml:"linker"`
}

// Default configuration values applied when the file omits a field.
const (
	defaultVectorWeight   = 0.6
	defaultKeywordWeight  = 0.4
	defaultLimit          = 10
	defaultMaxChunkTokens = 320
	defaultThreshold      = 0.75
	defaultDimensions     = 1024
	defaultCacheSize      = 4096
)

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Search: SearchConfig{
			VectorWeight:  defaultVectorWeight,
			KeywordWeight: defaultKeywordWeight,
			DefaultLimit:  defaultLimit,
		},
		Ingest: IngestConfig{MaxChunkTokens: defaultMaxChunkTokens},
		Linker: LinkerConfig{Threshold: defaultThreshold},
		Embedding: EmbeddingConfig{
			Dimensions: defaultDimensions,
			CacheSize:  defaultCacheSize,
		},
	}
}

// Load reads the configuration file at path. A missing file yields the
// defaults. API keys support ${VAR} expansion from the environment so
// secrets stay out of the file.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&cfg)

	for i := range cfg.Embedding.Endpoints {
		cfg.Embedding.Endpoints[i].APIKey = os.ExpandEnv(cfg.Embedding.Endpoints[i].APIKey)
	}

	return cfg, nil
}

// DefaultPath returns ~/.kb/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".kb", "config.toml"), nil
}

// applyDefaults fills in zero values left by a partial file.
func applyDefaults(cfg *Config) {
	if cfg.Search.VectorWeight == 0 && cfg.Search.KeywordWeight == 0 {
		cfg.Search.VectorWeight = defaultVectorWeight
		cfg.Search.KeywordWeight = defaultKeywordWeight
	}
	if cfg.Search.DefaultLimit <= 0 {
		cfg.Search.DefaultLimit = defaultLimit
	}
	if cfg.Ingest.MaxChunkTokens <= 0 {
		cfg.Ingest.MaxChunkTokens = defaultMaxChunkTokens
	}
	if cfg.Linker.Threshold <= 0 {
		cfg.Linker.Threshold = defaultThreshold
	}
	if cfg.Embedding.Dimensions <= 0 {
		cfg.Embedding.Dimensions = defaultDimensions
	}
	if cfg.Embedding.CacheSize <= 0 {
		cfg.Embedding.CacheSize = defaultCacheSize
	}
}
