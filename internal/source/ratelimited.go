package source

import (
	"context"
	"iter"

	"golang.org/x/time/rate"

	"bulbank-notification-parser/pkg/errors"
)

// RateLimitedProvider spaces out fetches against a provider with a request
// quota. Each Document call and each listing takes one token.
type RateLimitedProvider struct {
	next    Provider
	limiter *rate.Limiter
}

// NewRateLimitedProvider allows perSecond fetches with the given burst. A
// non-positive rate disables limiting.
func NewRateLimitedProvider(next Provider, perSecond float64, burst int) *RateLimitedProvider {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	return &RateLimitedProvider{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (p *RateLimitedProvider) DocumentIDs(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if err := p.limiter.Wait(ctx); err != nil {
			yield("", errors.SourceError(errors.CodeSourceUnavailable, "listing", err))
			return
		}
		for id, err := range p.next.DocumentIDs(ctx) {
			if !yield(id, err) {
				return
			}
		}
	}
}

func (p *RateLimitedProvider) Document(ctx context.Context, id string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, errors.SourceError(errors.CodeSourceUnavailable, id, err)
	}
	return p.next.Document(ctx, id)
}
