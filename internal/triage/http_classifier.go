package triage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClassifier calls a triage-model sidecar serving the trained
// classifier. The sidecar owns the model artifact; this client only speaks
// its small JSON contract.
type HTTPClassifier struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClassifier constructs a classifier client for the sidecar at
// baseURL.
func NewHTTPClassifier(baseURL string, timeout time.Duration) *HTTPClassifier {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClassifier{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type predictRequest struct {
	Text string `json:"text"`
}

type predictResponse struct {
	Category   string   `json:"category"`
	Confidence *float64 `json:"confidence"`
}

// Predict posts the ticket text to the sidecar's /predict endpoint.
func (c *HTTPClassifier) Predict(ctx context.Context, text string) (string, *float64, error) {
	body, err := json.Marshal(predictRequest{Text: text})
	if err != nil {
		return "", nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return "", nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return "", nil, fmt.Errorf("triage predict failed: %s: %s", resp.Status, string(payload))
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", nil, err
	}
	if out.Category == "" {
		return "", nil, fmt.Errorf("triage predict returned empty category")
	}
	return out.Category, out.Confidence, nil
}
