package chunker

import (
	"fmt"

	"support-copilot/internal/domain"
)

// WindowChunker splits documents into fixed-size chunks with a fixed overlap.
// Splitting is deterministic: for text of length L, chunk size S and overlap
// O, the chunk count is ceil(L/(S-O)), each start offset advances by S-O and
// the final chunk ends exactly at L.
type WindowChunker struct {
	chunkSize int
	overlap   int
}

// NewWindowChunker validates the window configuration. Overlap must be
// smaller than the chunk size or the window would never advance.
func NewWindowChunker(chunkSize, overlap int) (*WindowChunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("overlap must be in [0, chunk size), got %d", overlap)
	}
	return &WindowChunker{chunkSize: chunkSize, overlap: overlap}, nil
}

// Split slides the window over the document text. Empty text yields no
// chunks; text shorter than the chunk size yields exactly one chunk holding
// the whole text. Lengths are measured in runes so multi-byte text never
// splits mid-character.
func (c *WindowChunker) Split(doc domain.Document) []domain.Chunk {
	runes := []rune(doc.RawText)
	if len(runes) == 0 {
		return nil
	}

	step := c.chunkSize - c.overlap
	var chunks []domain.Chunk
	for start := 0; start < len(runes); start += step {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, domain.Chunk{
			DocID: doc.DocID,
			Title: doc.Title,
			Text:  string(runes[start:end]),
		})
	}
	return chunks
}
