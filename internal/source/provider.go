// Package source retrieves raw notification documents. Providers are
// external to the parser: they list document ids lazily and fetch one
// document at a time, honouring context cancellation.
package source

import (
	"context"
	"iter"
)

// Provider lists and fetches raw documents. DocumentIDs is restartable: each
// call walks the source from the beginning.
type Provider interface {
	DocumentIDs(ctx context.Context) iter.Seq2[string, error]
	Document(ctx context.Context, id string) ([]byte, error)
}

// Collect drains DocumentIDs into a slice, stopping at the first error
func Collect(ctx context.Context, p Provider) ([]string, error) {
	var ids []string
	for id, err := range p.DocumentIDs(ctx) {
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
