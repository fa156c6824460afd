package domain

import "context"

// Embedder converts free text into fixed-dimension numeric vectors.
// Implementations return unit-length (L2-normalized) vectors so that inner
// product equals cosine similarity.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ResponseSchema constrains the generation capability's output to a fixed
// JSON shape.
type ResponseSchema struct {
	Name   string
	Schema []byte
}

// Generator sends a prompt to a language model and returns the raw payload,
// which may or may not conform to the requested schema.
type Generator interface {
	Generate(ctx context.Context, prompt string, schema ResponseSchema) (string, error)
}

// Classifier is the triage model predicting a support category for a ticket.
// Confidence is nil when the model does not expose probabilities.
type Classifier interface {
	Predict(ctx context.Context, text string) (category string, confidence *float64, err error)
}
