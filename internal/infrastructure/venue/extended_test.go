package venue

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/astraforge/engine/internal/domain"
)

func testPayload() *domain.SignedOrderPayload {
	return &domain.SignedOrderPayload{
		Market:        "BTC-USD",
		Side:          "BUY",
		OrderType:     "MARKET",
		Size:          "0.5",
		ClientOrderID: "ASTRA_1_1",
		Signature: domain.Signature{
			R:      "0xaa",
			S:      "0xbb",
			Scheme: "SHA256-DEMO",
		},
		TimestampMillis: 1700000000000,
	}
}

func TestPlaceOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/user/order" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-Api-Key") != "test-key" {
			t.Errorf("api key header = %q", r.Header.Get("X-Api-Key"))
		}

		var payload domain.SignedOrderPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatal(err)
		}
		if payload.ClientOrderID != "ASTRA_1_1" || payload.Signature.R != "0xaa" {
			t.Errorf("payload lost fields in transit: %+v", payload)
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]string{
				"id":     "ord-42",
				"market": "BTC-USD",
				"status": "FILLED",
			},
		})
	}))
	defer srv.Close()

	c := NewExtendedClient("test-key", srv.URL)
	result, err := c.PlaceOrder(context.Background(), testPayload())
	if err != nil {
		t.Fatal(err)
	}
	if result.OrderID != "ord-42" || result.Market != "BTC-USD" || result.Status != "FILLED" {
		t.Errorf("result = %+v", result)
	}
	if !result.Accepted() {
		t.Error("filled order not accepted")
	}
}

func TestPlaceOrderAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"insufficient margin"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewExtendedClient("test-key", srv.URL)
	if _, err := c.PlaceOrder(context.Background(), testPayload()); err == nil {
		t.Error("expected error on 400 response")
	}
}

func TestGetBalance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/user/balance" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]string{
				{"asset": "USDC", "availableForTrade": "1500.25"},
				{"asset": "ETH", "availableForTrade": "0.75"},
			},
		})
	}))
	defer srv.Close()

	c := NewExtendedClient("test-key", srv.URL)
	balances, err := c.GetBalance(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(balances) != 2 {
		t.Fatalf("got %d balances", len(balances))
	}
	if balances[0].Asset != "USDC" || balances[0].Available != 1500.25 {
		t.Errorf("first balance = %+v", balances[0])
	}
}

func TestGetPositions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]string{
				{"market": "BTC-USD", "side": "LONG", "size": "0.1", "openPrice": "64000.5"},
			},
		})
	}))
	defer srv.Close()

	c := NewExtendedClient("test-key", srv.URL)
	positions, err := c.GetPositions(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(positions) != 1 {
		t.Fatalf("got %d positions", len(positions))
	}
	p := positions[0]
	if p.Market != "BTC-USD" || p.Side != "LONG" || p.Size != 0.1 || p.EntryPrice != 64000.5 {
		t.Errorf("position = %+v", p)
	}
}

func TestGetBalanceBadNumber(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]string{
				{"asset": "USDC", "availableForTrade": "not-a-number"},
			},
		})
	}))
	defer srv.Close()

	c := NewExtendedClient("test-key", srv.URL)
	if _, err := c.GetBalance(context.Background()); err == nil {
		t.Error("expected parse error")
	}
}
