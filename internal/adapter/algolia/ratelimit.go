package algolia

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/couchcryptid/firewatch/internal/domain"
	"golang.org/x/time/rate"
)

// RateLimitedProvider wraps a SearchProvider with an outbound rate limit so a
// burst of dashboard traffic cannot exhaust the provider quota.
type RateLimitedProvider struct {
	provider domain.SearchProvider
	limiter  *rate.Limiter
}

// NewRateLimitedProvider allows rps provider calls per second with the given burst.
func NewRateLimitedProvider(provider domain.SearchProvider, rps float64, burst int) *RateLimitedProvider {
	return &RateLimitedProvider{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Search waits for limiter permission, then forwards to the wrapped provider.
func (r *RateLimitedProvider) Search(ctx context.Context, index, query string, params map[string]any) (json.RawMessage, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait canceled: %w", err)
	}
	return r.provider.Search(ctx, index, query, params)
}

var (
	_ domain.SearchProvider = (*Client)(nil)
	_ domain.SearchProvider = (*RateLimitedProvider)(nil)
)
