package triage

import "strings"

// Ticket priorities, highest first.
const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

var (
	highPriorityTerms = []string{
		"fraud", "unauthorized", "identity theft", "stolen", "hacked",
	}
	mediumPriorityTerms = []string{
		"refund", "charge", "billing", "payment", "charged twice", "double charged",
	}
)

// PriorityFor applies the keyword priority rule to the ticket text. It is a
// deliberately simple heuristic applied alongside the learned category
// classifier, not a substitute for it.
func PriorityFor(text string) string {
	t := strings.ToLower(text)
	for _, term := range highPriorityTerms {
		if strings.Contains(t, term) {
			return PriorityHigh
		}
	}
	for _, term := range mediumPriorityTerms {
		if strings.Contains(t, term) {
			return PriorityMedium
		}
	}
	return PriorityLow
}
