package retriever

import (
	"context"
	"strings"
	"sync"
	"unicode/utf8"

	"support-copilot/internal/domain"
	"support-copilot/internal/index"
	"support-copilot/internal/pkg/logger"
)

// minQueryRunes is the shortest normalized query worth embedding. Anything
// shorter is noise and would burn an embedding call for nothing.
const minQueryRunes = 3

// IndexHandle loads the index at most once per process lifetime and shares
// the read-only result with every caller. It is an explicit handle handed to
// the Retriever at construction, so tests inject fake indexes instead of
// touching storage. Invalidation rule: restart the process.
type IndexHandle struct {
	once sync.Once
	load func() (*index.Index, error)
	idx  *index.Index
	err  error
}

// NewIndexHandle returns a handle that lazily loads the persisted artifacts
// from dir on first use.
func NewIndexHandle(dir string) *IndexHandle {
	return &IndexHandle{load: func() (*index.Index, error) { return index.Load(dir) }}
}

// NewStaticIndexHandle wraps an already-built index, bypassing storage.
func NewStaticIndexHandle(ix *index.Index) *IndexHandle {
	return &IndexHandle{load: func() (*index.Index, error) { return ix, nil }}
}

// Get returns the cached index, loading it on the first call. A failed load
// is cached too: the process cannot serve retrieval until storage is
// repaired and the process restarted.
func (h *IndexHandle) Get() (*index.Index, error) {
	h.once.Do(func() {
		h.idx, h.err = h.load()
	})
	return h.idx, h.err
}

// Retriever turns free-text queries into ranked, score-filtered chunk lists.
// Retrieval weakness degrades into an empty result, never an error: the
// composer's fallback path owns the "nothing found" behavior.
type Retriever struct {
	handle   *IndexHandle
	embedder domain.Embedder
	topK     int
	minScore float64
	log      logger.Logger
}

// New constructs a Retriever. topK and minScore come from configuration;
// they are domain-tuned, not contractual.
func New(handle *IndexHandle, embedder domain.Embedder, topK int, minScore float64, log logger.Logger) *Retriever {
	return &Retriever{handle: handle, embedder: embedder, topK: topK, minScore: minScore, log: log}
}

// Retrieve embeds the query, searches the cached index and returns results
// scoring at least minScore, in ranked order.
func (r *Retriever) Retrieve(ctx context.Context, query string) []domain.RetrievalResult {
	normalized := strings.TrimSpace(query)
	if utf8.RuneCountInString(normalized) < minQueryRunes {
		return nil
	}

	ix, err := r.handle.Get()
	if err != nil {
		r.log.Warn("retriever", "index unavailable, returning nothing", map[string]interface{}{"error": err.Error()})
		return nil
	}

	vectors, err := r.embedder.EmbedBatch(ctx, []string{normalized})
	if err != nil || len(vectors) != 1 {
		r.log.Warn("retriever", "query embedding failed, returning nothing", map[string]interface{}{"error": errString(err)})
		return nil
	}
	queryVec := vectors[0]
	if len(queryVec) != ix.Dimension() {
		r.log.Warn("retriever", "query vector dimension mismatch, returning nothing", map[string]interface{}{
			"query_dim": len(queryVec),
			"index_dim": ix.Dimension(),
		})
		return nil
	}

	hits, err := ix.Search(queryVec, r.topK)
	if err != nil {
		r.log.Warn("retriever", "search failed, returning nothing", map[string]interface{}{"error": err.Error()})
		return nil
	}

	results := make([]domain.RetrievalResult, 0, len(hits))
	for _, h := range hits {
		if h.Score < r.minScore {
			continue
		}
		ch := ix.Chunk(h.Pos)
		results = append(results, domain.RetrievalResult{
			DocID:     ch.DocID,
			Title:     ch.Title,
			ChunkText: ch.Text,
			Score:     h.Score,
		})
	}
	return results
}

func errString(err error) string {
	if err == nil {
		return "embedding returned unexpected vector count"
	}
	return err.Error()
}
