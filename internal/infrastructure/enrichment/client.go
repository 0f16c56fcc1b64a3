package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/astraforge/engine/internal/domain"
)

const (
	healthProbeTimeout = 1 * time.Second
	requestTimeout     = 5 * time.Second
)

// Client talks to the knowledge-base retrieval service over HTTP. The
// resolver uses it purely as a content source for simulated-trade
// narration and outcome signal.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

// HealthCheck is a lightweight liveness probe against the service root.
func (c *Client) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Query searches the knowledge base and returns the matched documents.
func (c *Client) Query(ctx context.Context, text string, limit int) ([]domain.EnrichmentResult, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"query":       text,
		"max_results": limit,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewBuffer(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("enrichment API error: %s", string(body))
	}

	var result struct {
		Results []struct {
			Content string `json:"content"`
		} `json:"results"`
		TotalResults int `json:"total_results"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}

	out := make([]domain.EnrichmentResult, 0, len(result.Results))
	for _, r := range result.Results {
		out = append(out, domain.EnrichmentResult{Content: r.Content})
	}
	return out, nil
}

var _ domain.EnrichmentSource = (*Client)(nil)
