package composer

import (
	"fmt"
	"strings"

	"support-copilot/internal/domain"
)

// replySchema is the fixed output contract for the generation capability.
// No additional properties are permitted; every positive answer must be
// expressible in this shape.
var replySchema = domain.ResponseSchema{
	Name: "support_reply",
	Schema: []byte(`{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "found_in_kb": {"type": "boolean"},
    "final_reply": {"type": "string"},
    "citations": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "properties": {
          "doc_id": {"type": "string"},
          "title": {"type": "string"},
          "snippet": {"type": "string"}
        },
        "required": ["doc_id", "title", "snippet"]
      }
    }
  },
  "required": ["found_in_kb", "final_reply", "citations"]
}`),
}

// buildPrompt assembles the constrained generation request: the instruction
// contract, the ticket, and each retrieved chunk under a [doc_id | title]
// header with explicit separators. Chunk texts are truncated to contextChars.
func buildPrompt(ticketText string, retrieved []domain.RetrievalResult, contextChars int) string {
	contextLines := make([]string, 0, len(retrieved))
	for _, r := range retrieved {
		contextLines = append(contextLines,
			fmt.Sprintf("[%s | %s]\n%s\n", r.DocID, r.Title, truncateRunes(r.ChunkText, contextChars)))
	}
	context := strings.Join(contextLines, "\n---\n")

	var b strings.Builder
	b.WriteString("You are a customer support assistant.\n")
	b.WriteString("RULES:\n")
	b.WriteString("- Use ONLY the provided KB context to answer.\n")
	b.WriteString("- If KB does not contain the answer, set found_in_kb=false and ask 1-2 clarifying questions.\n")
	b.WriteString("- Never invent policies or steps.\n")
	b.WriteString("- Be concise and professional.\n\n")
	b.WriteString("TICKET:\n")
	b.WriteString(ticketText)
	b.WriteString("\n\nKB CONTEXT:\n")
	b.WriteString(context)
	return b.String()
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
