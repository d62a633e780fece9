// Package gateway provides an embedding service that routes batches
// across an ordered list of credentialed OpenAI-compatible endpoints
// with per-endpoint rate limits, retries and fallback.
//
// A batch either succeeds against one endpoint or fails as a whole with
// domain.ErrEmbeddingUnavailable after every endpoint is exhausted.
// There is no partial success: downstream chunks must all carry an
// embedding or none.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/openclaw/kbcore/internal/core/domain"
	"github.com/openclaw/kbcore/internal/core/ports/driven"
	"github.com/openclaw/kbcore/internal/logger"
)

// Ensure Service implements the interface.
var _ driven.EmbeddingService = (*Service)(nil)

// Default configuration values.
const (
	DefaultTimeout     = 60 * time.Second
	DefaultDimensions  = 1024
	DefaultMaxAttempts = 3
	DefaultBackoffBase = 250 * time.Millisecond
	DefaultCacheSize   = 4096
)

// Config holds configuration for the gateway embedding service.
type Config struct {
	// Endpoints is the ordered fallback list. At least one is required
	// for the service to ever succeed; an empty list makes every call
	// fail with domain.ErrEmbeddingUnavailable.
	Endpoints []EndpointConfig

	// Dimensions is the embedding vector size (default 1024).
	Dimensions int

	// Timeout bounds each HTTP request (default 60s).
	Timeout time.Duration

	// MaxAttempts is the attempt cap per endpoint (default 3).
	MaxAttempts int

	// BackoffBase is the base delay for exponential backoff between
	// attempts on the same endpoint (default 250ms).
	BackoffBase time.Duration

	// CacheSize bounds the in-memory text->vector cache (default 4096).
	CacheSize int
}

// Service generates embeddings with multi-endpoint fallback.
type Service struct {
	client      *http.Client
	endpoints   []*endpoint
	dims        int
	maxAttempts int
	backoffBase time.Duration
	cache       *embedCache
}

// embeddingRequest is the OpenAI-compatible request format.
type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// embeddingResponse is the OpenAI-compatible response format.
type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewService creates a gateway embedding service.
func NewService(cfg Config) *Service {
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = DefaultBackoffBase
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}

	endpoints := make([]*endpoint, 0, len(cfg.Endpoints))
	for _, ec := range cfg.Endpoints {
		endpoints = append(endpoints, newEndpoint(ec))
	}

	return &Service{
		client:      &http.Client{Timeout: cfg.Timeout},
		endpoints:   endpoints,
		dims:        cfg.Dimensions,
		maxAttempts: cfg.MaxAttempts,
		backoffBase: cfg.BackoffBase,
		cache:       newEmbedCache(cfg.CacheSize),
	}
}

// Embed generates a vector embedding for a single text.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch generates embeddings for multiple texts, in input order.
// Cached texts are served locally; the remainder goes to the endpoints
// in priority order. The whole batch fails together.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	result := make([][]float32, len(texts))
	var missing []string
	var missingAt []int
	for i, text := range texts {
		if vec, ok := s.cache.get(text); ok {
			result[i] = vec
			continue
		}
		missing = append(missing, text)
		missingAt = append(missingAt, i)
	}

	if len(missing) == 0 {
		logger.Debug("embedding: full cache hit for %d texts", len(texts))
		return result, nil
	}

	vecs, err := s.requestWithFallback(ctx, missing)
	if err != nil {
		return nil, err
	}
	for i, vec := range vecs {
		s.cache.put(missing[i], vec)
		result[missingAt[i]] = vec
	}

	return result, nil
}

// requestWithFallback tries each endpoint in priority order, with up to
// maxAttempts per endpoint and exponential backoff between attempts.
func (s *Service) requestWithFallback(ctx context.Context, texts []string) ([][]float32, error) {
	if len(s.endpoints) == 0 {
		return nil, fmt.Errorf("%w: no endpoints configured", domain.ErrEmbeddingUnavailable)
	}

	var lastErr error
	for _, ep := range s.endpoints {
		for attempt := 0; attempt < s.maxAttempts; attempt++ {
			if attempt > 0 {
				backoff := s.backoffBase << (attempt - 1)
				select {
				case <-ctx.Done():
					return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, ctx.Err())
				case <-time.After(backoff):
				}
			}

			vecs, err := s.request(ctx, ep, texts)
			if err == nil {
				return vecs, nil
			}
			lastErr = err
			logger.Warn("embedding: %s attempt %d/%d failed: %v",
				ep.cfg.Name, attempt+1, s.maxAttempts, err)

			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, ctx.Err())
			}
		}
		logger.Info("embedding: endpoint %s exhausted, trying next", ep.cfg.Name)
	}

	return nil, fmt.Errorf("%w: all %d endpoints failed, last error: %v",
		domain.ErrEmbeddingUnavailable, len(s.endpoints), lastErr)
}

// request performs one HTTP call against one endpoint.
func (s *Service) request(ctx context.Context, ep *endpoint, texts []string) ([][]float32, error) {
	release, err := ep.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	body, err := json.Marshal(embeddingRequest{Model: ep.cfg.Model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, ep.cfg.BaseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+ep.cfg.APIKey)
	// Request ID for correlating failures across endpoint logs.
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d: %s", ep.cfg.Name, resp.StatusCode, truncate(raw, 200))
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("%s error: %s", ep.cfg.Name, parsed.Error.Message)
	}
	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("%s returned %d embeddings for %d inputs", ep.cfg.Name, len(parsed.Data), len(texts))
	}

	// Order by index: the response carries one vector per input.
	vecs := make([][]float32, len(texts))
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("%s returned out-of-range index %d", ep.cfg.Name, d.Index)
		}
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		vecs[d.Index] = vec
	}
	for i, vec := range vecs {
		if vec == nil {
			return nil, fmt.Errorf("%s returned no embedding for input %d", ep.cfg.Name, i)
		}
	}

	return vecs, nil
}

// Dimensions returns the embedding vector size.
func (s *Service) Dimensions() int {
	return s.dims
}

// Close releases resources.
func (s *Service) Close() error {
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
