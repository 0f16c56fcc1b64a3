package venue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/astraforge/engine/internal/domain"
)

// ExtendedClient is the REST client for the Extended trading venue.
// Authentication travels inside the signed payload; the API key header
// only identifies the account.
type ExtendedClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewExtendedClient(apiKey, baseURL string) *ExtendedClient {
	return &ExtendedClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *ExtendedClient) sendRequest(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var body []byte
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = jsonBody
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("venue API error: %s", string(respBody))
	}

	return respBody, nil
}

// PlaceOrder submits a signed order and returns the venue's status.
func (c *ExtendedClient) PlaceOrder(ctx context.Context, payload *domain.SignedOrderPayload) (*domain.VenueOrderResult, error) {
	body, err := c.sendRequest(ctx, http.MethodPost, "/api/v1/user/order", payload)
	if err != nil {
		return nil, err
	}

	var result struct {
		Data struct {
			OrderID string `json:"id"`
			Market  string `json:"market"`
			Status  string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}

	return &domain.VenueOrderResult{
		OrderID: result.Data.OrderID,
		Market:  result.Data.Market,
		Status:  result.Data.Status,
	}, nil
}

// GetBalance returns the venue account balances.
func (c *ExtendedClient) GetBalance(ctx context.Context) ([]domain.VenueBalance, error) {
	body, err := c.sendRequest(ctx, http.MethodGet, "/api/v1/user/balance", nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Data []struct {
			Asset     string `json:"asset"`
			Available string `json:"availableForTrade"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}

	balances := make([]domain.VenueBalance, 0, len(result.Data))
	for _, b := range result.Data {
		available, err := strconv.ParseFloat(b.Available, 64)
		if err != nil {
			return nil, fmt.Errorf("parse balance for %s: %w", b.Asset, err)
		}
		balances = append(balances, domain.VenueBalance{Asset: b.Asset, Available: available})
	}
	return balances, nil
}

// GetPositions returns the venue account's open positions.
func (c *ExtendedClient) GetPositions(ctx context.Context) ([]domain.VenuePosition, error) {
	body, err := c.sendRequest(ctx, http.MethodGet, "/api/v1/user/positions", nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Data []struct {
			Market     string `json:"market"`
			Side       string `json:"side"`
			Size       string `json:"size"`
			EntryPrice string `json:"openPrice"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}

	positions := make([]domain.VenuePosition, 0, len(result.Data))
	for _, p := range result.Data {
		size, err := strconv.ParseFloat(p.Size, 64)
		if err != nil {
			return nil, fmt.Errorf("parse position size for %s: %w", p.Market, err)
		}
		entry, err := strconv.ParseFloat(p.EntryPrice, 64)
		if err != nil {
			return nil, fmt.Errorf("parse entry price for %s: %w", p.Market, err)
		}
		positions = append(positions, domain.VenuePosition{
			Market:     p.Market,
			Side:       p.Side,
			Size:       size,
			EntryPrice: entry,
		})
	}
	return positions, nil
}

var _ domain.Venue = (*ExtendedClient)(nil)
