package composer

import (
	"context"
	"errors"
	"fmt"

	"support-copilot/internal/domain"
	"support-copilot/internal/pkg/logger"
)

// ErrGenerationUnavailable means the generation capability failed or timed
// out. Unlike "nothing relevant found", this is an infrastructure fault and
// must reach the caller as an error, never disguised as a grounded reply.
var ErrGenerationUnavailable = errors.New("generation capability unavailable")

// FallbackReply is the deterministic "not found in knowledge base" answer.
// It is returned whenever retrieval comes up empty or the generation output
// is unusable, without any model involvement.
const FallbackReply = "I couldn't find anything in our knowledge base covering this. " +
	"Could you tell me which product or account this is about? " +
	"And what exactly happened, including any error message you saw?"

// Retriever is the slice of retrieval behavior the composer needs.
type Retriever interface {
	Retrieve(ctx context.Context, query string) []domain.RetrievalResult
}

// Composer builds grounded replies: answers restricted to retrieved
// knowledge-base content, with a verifiable citation trail and a
// deterministic fallback when the knowledge base has nothing relevant.
type Composer struct {
	retriever    Retriever
	generator    domain.Generator
	contextChars int
	snippetChars int
	maxCitations int
	log          logger.Logger
}

// Config sets the composer's truncation and citation limits.
type Config struct {
	ContextChars int
	SnippetChars int
	MaxCitations int
}

// New constructs a Composer.
func New(retriever Retriever, generator domain.Generator, cfg Config, log logger.Logger) *Composer {
	if cfg.ContextChars <= 0 {
		cfg.ContextChars = 600
	}
	if cfg.SnippetChars <= 0 {
		cfg.SnippetChars = 240
	}
	if cfg.MaxCitations <= 0 {
		cfg.MaxCitations = 2
	}
	return &Composer{
		retriever:    retriever,
		generator:    generator,
		contextChars: cfg.ContextChars,
		snippetChars: cfg.SnippetChars,
		maxCitations: cfg.MaxCitations,
		log:          log,
	}
}

// Compose answers the ticket from retrieved context only. An empty retrieval
// short-circuits to the fallback reply without calling the generator; a
// malformed generation payload degrades to the same fallback; a generator
// failure surfaces as ErrGenerationUnavailable.
func (c *Composer) Compose(ctx context.Context, ticketText string) (*domain.GroundedReply, error) {
	retrieved := c.retriever.Retrieve(ctx, ticketText)
	if len(retrieved) == 0 {
		c.log.Info("composer", "nothing retrieved above threshold, using fallback", nil)
		return fallbackReply(), nil
	}

	prompt := buildPrompt(ticketText, retrieved, c.contextChars)
	raw, err := c.generator.Generate(ctx, prompt, replySchema)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}

	payload, ok := parseReply(raw)
	if !ok {
		c.log.Warn("composer", "unparseable generation output, using fallback", map[string]interface{}{
			"raw_length": len(raw),
		})
		return fallbackReply(), nil
	}

	reply := &domain.GroundedReply{
		FoundInKB:  *payload.FoundInKB,
		FinalReply: payload.FinalReply,
		Citations:  payload.Citations,
	}
	c.enforceCitations(reply, retrieved)
	return reply, nil
}

// enforceCitations applies the citation policy independent of what the model
// claimed: a negative answer carries no citations, and a positive answer
// always carries at least one, backfilled from the top-ranked chunks.
func (c *Composer) enforceCitations(reply *domain.GroundedReply, retrieved []domain.RetrievalResult) {
	if !reply.FoundInKB {
		reply.Citations = []domain.Citation{}
		return
	}
	if len(reply.Citations) > 0 {
		return
	}

	n := c.maxCitations
	if n > len(retrieved) {
		n = len(retrieved)
	}
	citations := make([]domain.Citation, 0, n)
	for _, r := range retrieved[:n] {
		citations = append(citations, domain.Citation{
			DocID:   r.DocID,
			Title:   r.Title,
			Snippet: truncateRunes(r.ChunkText, c.snippetChars),
		})
	}
	reply.Citations = citations
}

func fallbackReply() *domain.GroundedReply {
	return &domain.GroundedReply{
		FoundInKB:  false,
		FinalReply: FallbackReply,
		Citations:  []domain.Citation{},
	}
}
