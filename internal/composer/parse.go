package composer

import (
	"encoding/json"
	"strings"

	"support-copilot/internal/domain"
)

type replyPayload struct {
	FoundInKB  *bool             `json:"found_in_kb"`
	FinalReply string            `json:"final_reply"`
	Citations  []domain.Citation `json:"citations"`
}

// parseReply extracts the structured payload from the raw generation output.
// First attempt: the whole output is the JSON object. Second attempt: the
// output is text containing a single JSON object, located by the first '{'
// and the last '}'. Anything else is unusable and the caller falls back.
func parseReply(raw string) (replyPayload, bool) {
	if p, ok := decodePayload(raw); ok {
		return p, true
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return replyPayload{}, false
	}
	return decodePayload(raw[start : end+1])
}

func decodePayload(s string) (replyPayload, bool) {
	var p replyPayload
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return replyPayload{}, false
	}
	// A payload without the required fields is as unusable as undecodable
	// text.
	if p.FoundInKB == nil || p.FinalReply == "" {
		return replyPayload{}, false
	}
	return p, true
}
