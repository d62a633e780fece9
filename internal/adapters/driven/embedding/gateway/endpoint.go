package gateway

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// EndpointConfig describes one credentialed embedding backend.
// Endpoints are tried in the order they are configured.
type EndpointConfig struct {
	// Name identifies the endpoint in logs.
	Name string

	// BaseURL is the API base, e.g. https://api.siliconflow.cn/v1.
	// The adapter POSTs to BaseURL + "/embeddings".
	BaseURL string

	// APIKey is the bearer token. Supplied via configuration, never
	// hard-coded.
	APIKey string

	// Model is the embedding model identifier sent with each request.
	Model string

	// RequestsPerMinute caps the request rate. Zero means unlimited.
	RequestsPerMinute int

	// MaxConcurrent caps in-flight requests. Zero means unlimited.
	MaxConcurrent int
}

// endpoint is the runtime state for one backend. The limiter and the
// semaphore are shared process-wide: concurrent ingestion batches
// compete for the same headroom rather than each allocating their own.
type endpoint struct {
	cfg     EndpointConfig
	limiter *rate.Limiter
	sem     chan struct{} // nil when unlimited
}

func newEndpoint(cfg EndpointConfig) *endpoint {
	ep := &endpoint{cfg: cfg}

	if cfg.RequestsPerMinute > 0 {
		ep.limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 1)
	}
	if cfg.MaxConcurrent > 0 {
		ep.sem = make(chan struct{}, cfg.MaxConcurrent)
	}

	return ep
}

// acquire blocks until rate-limit headroom and a concurrency slot are
// available, or the context expires. The returned release func must be
// called when the request finishes.
func (ep *endpoint) acquire(ctx context.Context) (release func(), err error) {
	if ep.limiter != nil {
		if err := ep.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait on %s: %w", ep.cfg.Name, err)
		}
	}

	if ep.sem == nil {
		return func() {}, nil
	}
	select {
	case ep.sem <- struct{}{}:
		return func() { <-ep.sem }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("concurrency wait on %s: %w", ep.cfg.Name, ctx.Err())
	}
}
