package vocabulary

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"recruit-backend/internal/shared/auth"
)

// Source reads one dimension table.
type Source interface {
	Dimension(ctx context.Context, p auth.Principal, d Dimension) ([]Value, error)
}

// Resolver loads the full vocabulary.
type Resolver struct {
	Source Source
}

// NewResolver returns a Resolver reading from src.
func NewResolver(src Source) *Resolver {
	return &Resolver{Source: src}
}

// Load reads all dimensions concurrently. Any failed read fails the call:
// a partial vocabulary would silently drop allowed values from prompts.
func (r *Resolver) Load(ctx context.Context, p auth.Principal) (*Vocabulary, error) {
	results := make([][]Value, len(Dimensions))
	g, gctx := errgroup.WithContext(ctx)
	for i, dim := range Dimensions {
		i, dim := i, dim
		g.Go(func() error {
			values, err := r.Source.Dimension(gctx, p, dim)
			if err != nil {
				return fmt.Errorf("load %s: %w", dim.Table(), err)
			}
			results[i] = values
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	values := make(map[Dimension][]Value, len(Dimensions))
	for i, dim := range Dimensions {
		values[dim] = results[i]
	}
	return New(values), nil
}
