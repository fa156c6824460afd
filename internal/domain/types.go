package domain

// Document is a single knowledge-base source file. Immutable once read.
type Document struct {
	DocID   string
	Title   string
	RawText string
}

// Chunk is a fixed-size, overlapping slice of a document's text, the unit of
// retrieval. Its ordinal is implicit in its position within the index.
type Chunk struct {
	DocID string `json:"doc_id"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// RetrievalResult is a chunk matched against a query, with its cosine
// similarity score. Produced per request, never persisted.
type RetrievalResult struct {
	DocID     string
	Title     string
	ChunkText string
	Score     float64
}

// Citation points a reply back at the knowledge-base chunk it came from.
type Citation struct {
	DocID   string `json:"doc_id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// GroundedReply is the composer's answer to a ticket. FoundInKB is false when
// the knowledge base had nothing relevant; in that case Citations is empty.
type GroundedReply struct {
	FoundInKB  bool       `json:"found_in_kb"`
	FinalReply string     `json:"final_reply"`
	Citations  []Citation `json:"citations"`
}
