package retriever

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"support-copilot/internal/domain"
	"support-copilot/internal/index"
	"support-copilot/internal/pkg/logger"
)

type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   int
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.vectors[t]
	}
	return out, nil
}

func unit(xs ...float32) []float32 {
	var sum float64
	for _, x := range xs {
		sum += float64(x) * float64(x)
	}
	inv := float32(1 / math.Sqrt(sum))
	out := make([]float32, len(xs))
	for i, x := range xs {
		out[i] = x * inv
	}
	return out
}

func buildTestIndex(t *testing.T) *index.Index {
	t.Helper()
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"disputing unauthorized charges": unit(1, 0.1, 0),
		"refund processing times":        unit(0, 1, 0),
		"closing your account":           unit(0, 0, 1),
	}}
	chunks := []domain.Chunk{
		{DocID: "disputes.md", Title: "disputes", Text: "disputing unauthorized charges"},
		{DocID: "refunds.md", Title: "refunds", Text: "refund processing times"},
		{DocID: "accounts.md", Title: "accounts", Text: "closing your account"},
	}
	ix, err := index.Build(context.Background(), emb, chunks)
	require.NoError(t, err)
	return ix
}

func TestRetrieveRanksAndFilters(t *testing.T) {
	ix := buildTestIndex(t)
	queryEmb := &fakeEmbedder{vectors: map[string][]float32{
		"unauthorized charge on my card": unit(1, 0.2, 0),
	}}

	r := New(NewStaticIndexHandle(ix), queryEmb, 4, 0.25, logger.NewNop())
	results := r.Retrieve(context.Background(), "unauthorized charge on my card")

	require.NotEmpty(t, results)
	assert.Equal(t, "disputes.md", results[0].DocID)
	for _, res := range results {
		assert.GreaterOrEqual(t, res.Score, 0.25)
	}
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestRetrieveShortQuerySkipsEmbedding(t *testing.T) {
	ix := buildTestIndex(t)
	emb := &fakeEmbedder{}
	r := New(NewStaticIndexHandle(ix), emb, 4, 0.25, logger.NewNop())

	assert.Empty(t, r.Retrieve(context.Background(), ""))
	assert.Empty(t, r.Retrieve(context.Background(), "  hi  "))
	assert.Empty(t, r.Retrieve(context.Background(), " \t\n "))
	assert.Equal(t, 0, emb.calls)
}

func TestRetrieveEmbeddingFailureFailsOpen(t *testing.T) {
	ix := buildTestIndex(t)
	emb := &fakeEmbedder{err: errors.New("timeout")}
	r := New(NewStaticIndexHandle(ix), emb, 4, 0.25, logger.NewNop())

	assert.Empty(t, r.Retrieve(context.Background(), "unauthorized charge on my card"))
}

func TestRetrieveDimensionMismatchFailsOpen(t *testing.T) {
	ix := buildTestIndex(t)
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"unauthorized charge on my card": unit(1, 0),
	}}
	r := New(NewStaticIndexHandle(ix), emb, 4, 0.25, logger.NewNop())

	assert.Empty(t, r.Retrieve(context.Background(), "unauthorized charge on my card"))
}

func TestRetrieveLoadFailureFailsOpen(t *testing.T) {
	handle := NewIndexHandle(t.TempDir())
	emb := &fakeEmbedder{}
	r := New(handle, emb, 4, 0.25, logger.NewNop())

	assert.Empty(t, r.Retrieve(context.Background(), "unauthorized charge on my card"))
	// The load failure is cached and the handle never retries.
	_, err := handle.Get()
	assert.Error(t, err)
}

func TestRetrieveLowerThresholdNeverReturnsFewer(t *testing.T) {
	ix := buildTestIndex(t)
	query := "unauthorized charge on my card"
	vecs := map[string][]float32{query: unit(1, 0.4, 0.1)}

	strict := New(NewStaticIndexHandle(ix), &fakeEmbedder{vectors: vecs}, 4, 0.25, logger.NewNop())
	loose := New(NewStaticIndexHandle(ix), &fakeEmbedder{vectors: vecs}, 4, -1, logger.NewNop())

	strictResults := strict.Retrieve(context.Background(), query)
	looseResults := loose.Retrieve(context.Background(), query)

	assert.GreaterOrEqual(t, len(looseResults), len(strictResults))
}

func TestIndexHandleLoadsOnce(t *testing.T) {
	loads := 0
	ix := buildTestIndex(t)
	h := &IndexHandle{load: func() (*index.Index, error) {
		loads++
		return ix, nil
	}}

	for i := 0; i < 3; i++ {
		got, err := h.Get()
		require.NoError(t, err)
		assert.Same(t, ix, got)
	}
	assert.Equal(t, 1, loads)
}
