package index

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"support-copilot/internal/domain"
)

var (
	// ErrEmbeddingUnavailable means the embedding capability was unreachable
	// or returned malformed vectors during a build. The build aborts and
	// nothing partial is persisted.
	ErrEmbeddingUnavailable = errors.New("embedding capability unavailable")

	// ErrIndexCorrupt means the on-disk artifacts are mismatched, missing or
	// undecodable. The process cannot serve retrieval until storage is
	// repaired and both artifacts are replaced together.
	ErrIndexCorrupt = errors.New("index artifacts corrupt")
)

// Index is an exact nearest-neighbor index over embedded chunks. Position i
// in the vector list corresponds to chunk i in the metadata list at all
// times, including after persistence and reload. Read-only after build/load.
type Index struct {
	dimension int
	vectors   [][]float32
	chunks    []domain.Chunk
}

// Hit is one search match: the chunk's index position and its inner-product
// score against the query (cosine similarity for unit vectors).
type Hit struct {
	Pos   int
	Score float64
}

// Build embeds all chunk texts in one batched pass and constructs the index.
// Any embedding failure, dimensionality disagreement or non-finite value
// aborts the whole build with ErrEmbeddingUnavailable.
func Build(ctx context.Context, embedder domain.Embedder, chunks []domain.Chunk) (*Index, error) {
	if len(chunks) == 0 {
		return &Index{}, nil
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}

	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d vectors for %d chunks", ErrEmbeddingUnavailable, len(vectors), len(chunks))
	}

	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim || len(v) == 0 {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, want %d", ErrEmbeddingUnavailable, i, len(v), dim)
		}
		for _, x := range v {
			if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
				return nil, fmt.Errorf("%w: vector %d contains a non-finite value", ErrEmbeddingUnavailable, i)
			}
		}
	}

	stored := make([]domain.Chunk, len(chunks))
	copy(stored, chunks)

	return &Index{dimension: dim, vectors: vectors, chunks: stored}, nil
}

// Search returns up to k hits sorted by descending score. Ties keep original
// insertion order, so the earlier-inserted chunk wins.
func (ix *Index) Search(query []float32, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if len(ix.vectors) == 0 {
		return nil, nil
	}
	if len(query) != ix.dimension {
		return nil, fmt.Errorf("query dimension %d does not match index dimension %d", len(query), ix.dimension)
	}

	hits := make([]Hit, len(ix.vectors))
	for i, v := range ix.vectors {
		hits[i] = Hit{Pos: i, Score: dot(v, query)}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Pos < hits[j].Pos
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Len returns the number of embedded chunks.
func (ix *Index) Len() int { return len(ix.chunks) }

// Dimension returns the vector dimensionality, 0 for an empty index.
func (ix *Index) Dimension() int { return ix.dimension }

// Chunk returns the metadata for index position i.
func (ix *Index) Chunk(i int) domain.Chunk { return ix.chunks[i] }

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
