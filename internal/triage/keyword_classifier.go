package triage

import (
	"context"
	"strings"
)

// Support categories matching the trained model's label set.
const (
	CategoryFraud       = "Fraud/Unauthorized"
	CategoryCreditRep   = "Credit Reporting"
	CategoryBanking     = "Banking"
	CategoryCollections = "Debt/Collections"
	CategoryLoans       = "Loans"
	CategoryPayments    = "Payments/Transfers"
	CategoryOther       = "Other"
)

// KeywordClassifier is a dependency-free stand-in for the learned triage
// model: it scores categories by keyword hits. It keeps the service fully
// functional when no model sidecar is deployed.
type KeywordClassifier struct{}

// NewKeywordClassifier constructs the keyword classifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

var categoryTerms = map[string][]string{
	CategoryFraud:       {"fraud", "unauthorized", "stolen", "hacked", "identity theft", "scam"},
	CategoryCreditRep:   {"credit report", "credit score", "credit bureau", "credit reporting"},
	CategoryBanking:     {"checking account", "savings account", "bank account", "overdraft", "deposit"},
	CategoryCollections: {"debt", "collection", "collector", "collections"},
	CategoryLoans:       {"loan", "mortgage", "student loan", "payday"},
	CategoryPayments:    {"transfer", "wire", "money transfer", "virtual currency", "payment service"},
}

// Predict returns the best-matching category and the hit share as a rough
// confidence. No keyword hit means CategoryOther with nil confidence.
func (c *KeywordClassifier) Predict(_ context.Context, text string) (string, *float64, error) {
	t := strings.ToLower(text)

	best := CategoryOther
	bestHits := 0
	total := 0
	for category, terms := range categoryTerms {
		hits := 0
		for _, term := range terms {
			if strings.Contains(t, term) {
				hits++
			}
		}
		total += hits
		if hits > bestHits || (hits == bestHits && hits > 0 && category < best) {
			best = category
			bestHits = hits
		}
	}

	if bestHits == 0 {
		return CategoryOther, nil, nil
	}
	confidence := float64(bestHits) / float64(total)
	return best, &confidence, nil
}
