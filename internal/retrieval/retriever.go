// Package retrieval selects background passages for the instructions sent to
// the language model.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"starlight-postoffice/internal/domain"
	"starlight-postoffice/internal/vectorstore"
)

// ErrUnavailable means there is no usable index to search.
var ErrUnavailable = errors.New("retrieval: index unavailable")

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Store is the nearest-neighbour backend.
type Store interface {
	Nearest(ctx context.Context, vec []float32, scope string, n int) ([]vectorstore.Neighbor, error)
	Count(ctx context.Context) (int, error)
}

// Similarity maps a distance d >= 0 onto (0, 1].
func Similarity(distance float64) float64 {
	if distance < 0 {
		distance = 0
	}
	return 1 / (1 + distance)
}

type Options struct {
	TopK              int
	Threshold         float64
	FallbackThreshold float64
}

type Retriever struct {
	embedder Embedder
	store    Store
	opts     Options
}

func NewRetriever(embedder Embedder, store Store, opts Options) *Retriever {
	if opts.TopK <= 0 {
		opts.TopK = 3
	}
	return &Retriever{embedder: embedder, store: store, opts: opts}
}

// Retrieve searches scope first and, when nothing passes the threshold,
// retries once without a scope at the fallback threshold.
func (r *Retriever) Retrieve(ctx context.Context, query, scope string) ([]domain.Passage, error) {
	if r == nil || r.store == nil {
		return nil, ErrUnavailable
	}
	n, err := r.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if n == 0 {
		return nil, ErrUnavailable
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retrieval: embed query: %w", err)
	}

	out, err := r.search(ctx, vec, scope, r.opts.TopK, r.opts.Threshold)
	if err != nil || len(out) > 0 || scope == "" {
		return out, err
	}
	return r.search(ctx, vec, "", r.opts.TopK, r.opts.FallbackThreshold)
}

func (r *Retriever) search(ctx context.Context, vec []float32, scope string, topK int, threshold float64) ([]domain.Passage, error) {
	neighbors, err := r.store.Nearest(ctx, vec, scope, max(3*topK, 6))
	if err != nil {
		return nil, fmt.Errorf("retrieval: nearest: %w", err)
	}

	out := make([]domain.Passage, 0, len(neighbors))
	for _, nb := range neighbors {
		sim := Similarity(nb.Distance)
		if sim < threshold {
			continue
		}
		out = append(out, domain.Passage{
			Text:       nb.Content,
			Similarity: sim,
			Scope:      nb.Scope,
			SourceID:   nb.SourceID,
			ChunkIndex: nb.ChunkIndex,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}
