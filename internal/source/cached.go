package source

import (
	"context"
	"iter"
	"time"

	"github.com/patrickmn/go-cache"
)

// CachedProvider keeps fetched documents in memory for ttl. Listing is never
// cached so new documents show up on the next walk.
type CachedProvider struct {
	next  Provider
	cache *cache.Cache
}

// NewCachedProvider wraps next; a non-positive ttl keeps documents forever
func NewCachedProvider(next Provider, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		return &CachedProvider{next: next, cache: cache.New(cache.NoExpiration, 0)}
	}
	return &CachedProvider{next: next, cache: cache.New(ttl, 2*ttl)}
}

func (p *CachedProvider) DocumentIDs(ctx context.Context) iter.Seq2[string, error] {
	return p.next.DocumentIDs(ctx)
}

func (p *CachedProvider) Document(ctx context.Context, id string) ([]byte, error) {
	if raw, ok := p.cache.Get(id); ok {
		return raw.([]byte), nil
	}

	raw, err := p.next.Document(ctx, id)
	if err != nil {
		return nil, err
	}
	p.cache.Set(id, raw, cache.DefaultExpiration)
	return raw, nil
}

// Len returns the number of cached documents
func (p *CachedProvider) Len() int {
	return p.cache.ItemCount()
}

// Invalidate drops one document from the cache
func (p *CachedProvider) Invalidate(id string) {
	p.cache.Delete(id)
}
