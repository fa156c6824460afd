package composer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"support-copilot/internal/domain"
	"support-copilot/internal/pkg/logger"
)

type fakeRetriever struct {
	results []domain.RetrievalResult
}

func (f *fakeRetriever) Retrieve(context.Context, string) []domain.RetrievalResult {
	return f.results
}

type fakeGenerator struct {
	output string
	err    error
	calls  int
	prompt string
	schema domain.ResponseSchema
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string, schema domain.ResponseSchema) (string, error) {
	f.calls++
	f.prompt = prompt
	f.schema = schema
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

func retrievedChunks() []domain.RetrievalResult {
	return []domain.RetrievalResult{
		{DocID: "disputes.md", Title: "disputes", ChunkText: "To dispute an unauthorized charge, contact us within 60 days.", Score: 0.81},
		{DocID: "cards.md", Title: "cards", ChunkText: "Report a lost or stolen card immediately.", Score: 0.44},
		{DocID: "refunds.md", Title: "refunds", ChunkText: "Refunds post within 5-7 business days.", Score: 0.3},
	}
}

func newComposer(r Retriever, g domain.Generator) *Composer {
	return New(r, g, Config{}, logger.NewNop())
}

func TestComposeEmptyRetrievalReturnsFallback(t *testing.T) {
	gen := &fakeGenerator{}
	c := newComposer(&fakeRetriever{}, gen)

	reply, err := c.Compose(context.Background(), "my favorite color is blue, what do you think?")
	require.NoError(t, err)

	assert.False(t, reply.FoundInKB)
	assert.Equal(t, FallbackReply, reply.FinalReply)
	assert.Empty(t, reply.Citations)
	assert.Equal(t, 0, gen.calls, "fallback path must never call the generator")
}

func TestComposeGroundedAnswer(t *testing.T) {
	gen := &fakeGenerator{output: `{
		"found_in_kb": true,
		"final_reply": "You can dispute the charge within 60 days.",
		"citations": [{"doc_id": "disputes.md", "title": "disputes", "snippet": "dispute an unauthorized charge"}]
	}`}
	c := newComposer(&fakeRetriever{results: retrievedChunks()}, gen)

	reply, err := c.Compose(context.Background(), "I see an unauthorized charge on my card.")
	require.NoError(t, err)

	assert.True(t, reply.FoundInKB)
	assert.Equal(t, "You can dispute the charge within 60 days.", reply.FinalReply)
	require.Len(t, reply.Citations, 1)
	assert.Equal(t, "disputes.md", reply.Citations[0].DocID)
}

func TestComposePromptCarriesContract(t *testing.T) {
	gen := &fakeGenerator{output: `{"found_in_kb": true, "final_reply": "ok", "citations": []}`}
	c := newComposer(&fakeRetriever{results: retrievedChunks()}, gen)

	_, err := c.Compose(context.Background(), "I see an unauthorized charge on my card.")
	require.NoError(t, err)

	assert.Contains(t, gen.prompt, "Use ONLY the provided KB context")
	assert.Contains(t, gen.prompt, "I see an unauthorized charge on my card.")
	assert.Contains(t, gen.prompt, "[disputes.md | disputes]")
	assert.Contains(t, gen.prompt, "\n---\n")
	assert.Equal(t, "support_reply", gen.schema.Name)
}

func TestComposeNotFoundForcesEmptyCitations(t *testing.T) {
	gen := &fakeGenerator{output: `{
		"found_in_kb": false,
		"final_reply": "Could you clarify which charge you mean?",
		"citations": [{"doc_id": "disputes.md", "title": "disputes", "snippet": "should be dropped"}]
	}`}
	c := newComposer(&fakeRetriever{results: retrievedChunks()}, gen)

	reply, err := c.Compose(context.Background(), "I see an unauthorized charge on my card.")
	require.NoError(t, err)

	assert.False(t, reply.FoundInKB)
	assert.Empty(t, reply.Citations)
}

func TestComposeBackfillsCitations(t *testing.T) {
	gen := &fakeGenerator{output: `{"found_in_kb": true, "final_reply": "Dispute it within 60 days.", "citations": []}`}
	c := newComposer(&fakeRetriever{results: retrievedChunks()}, gen)

	reply, err := c.Compose(context.Background(), "I see an unauthorized charge on my card.")
	require.NoError(t, err)

	// min(2, retrieved) from the top-ranked chunks, in rank order.
	require.Len(t, reply.Citations, 2)
	assert.Equal(t, "disputes.md", reply.Citations[0].DocID)
	assert.Equal(t, "cards.md", reply.Citations[1].DocID)
	assert.NotEmpty(t, reply.Citations[0].Snippet)
}

func TestComposeBackfillBoundedByRetrievedCount(t *testing.T) {
	gen := &fakeGenerator{output: `{"found_in_kb": true, "final_reply": "Dispute it.", "citations": []}`}
	one := retrievedChunks()[:1]
	c := newComposer(&fakeRetriever{results: one}, gen)

	reply, err := c.Compose(context.Background(), "I see an unauthorized charge on my card.")
	require.NoError(t, err)
	assert.Len(t, reply.Citations, 1)
}

func TestComposeExtractsJSONFromText(t *testing.T) {
	gen := &fakeGenerator{output: "Here is the answer:\n" +
		`{"found_in_kb": true, "final_reply": "Dispute within 60 days.", "citations": []}` +
		"\nHope that helps!"}
	c := newComposer(&fakeRetriever{results: retrievedChunks()}, gen)

	reply, err := c.Compose(context.Background(), "I see an unauthorized charge on my card.")
	require.NoError(t, err)
	assert.True(t, reply.FoundInKB)
	assert.Equal(t, "Dispute within 60 days.", reply.FinalReply)
}

func TestComposeMalformedOutputFallsBack(t *testing.T) {
	for _, output := range []string{
		"no json here at all",
		`{"found_in_kb": true`,
		`{"citations": []}`,
		"",
	} {
		gen := &fakeGenerator{output: output}
		c := newComposer(&fakeRetriever{results: retrievedChunks()}, gen)

		reply, err := c.Compose(context.Background(), "I see an unauthorized charge on my card.")
		require.NoError(t, err, "output %q", output)
		assert.False(t, reply.FoundInKB, "output %q", output)
		assert.Equal(t, FallbackReply, reply.FinalReply, "output %q", output)
		assert.Empty(t, reply.Citations, "output %q", output)
	}
}

func TestComposeGeneratorFailurePropagates(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("upstream timeout")}
	c := newComposer(&fakeRetriever{results: retrievedChunks()}, gen)

	_, err := c.Compose(context.Background(), "I see an unauthorized charge on my card.")
	assert.ErrorIs(t, err, ErrGenerationUnavailable)
}

func TestParseReply(t *testing.T) {
	p, ok := parseReply(`{"found_in_kb": false, "final_reply": "Which card?", "citations": []}`)
	require.True(t, ok)
	assert.False(t, *p.FoundInKB)
	assert.Equal(t, "Which card?", p.FinalReply)

	_, ok = parseReply("}{")
	assert.False(t, ok)

	_, ok = parseReply(`{"found_in_kb": true, "final_reply": ""}`)
	assert.False(t, ok)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "héll", truncateRunes("héllo", 4))
	assert.Equal(t, "short", truncateRunes("short", 100))
}
