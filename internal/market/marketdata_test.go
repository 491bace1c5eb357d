package market

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gate-dual-hedge/internal/gate/rest"

	"go.uber.org/zap"
)

func TestHandleMessageUpdatesCache(t *testing.T) {
	m := New(nil, nil, "usdt", zap.NewNop())
	msg := `{"channel":"futures.tickers","event":"update","result":[{"contract":"ETH_USDT","last":"2450.5"}]}`
	m.handleMessage(json.RawMessage(msg))
	price, err := m.Last(context.Background(), "ETH_USDT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != 2450.5 {
		t.Fatalf("expected 2450.5, got %v", price)
	}
	if _, ok := m.LastAge("ETH_USDT"); !ok {
		t.Fatalf("expected last age after update")
	}
}

func TestHandleMessageIgnoresOtherChannels(t *testing.T) {
	m := New(nil, nil, "usdt", zap.NewNop())
	m.handleMessage(json.RawMessage(`{"channel":"futures.pong","event":"update","result":[]}`))
	if _, err := m.Last(context.Background(), "ETH_USDT"); err == nil {
		t.Fatalf("expected miss for unrelated channel")
	}
}

func TestHandleMessageSkipsMalformedPrices(t *testing.T) {
	m := New(nil, nil, "usdt", zap.NewNop())
	msg := `{"channel":"futures.tickers","event":"update","result":[{"contract":"ETH_USDT","last":"nope"}]}`
	m.handleMessage(json.RawMessage(msg))
	if _, err := m.Last(context.Background(), "ETH_USDT"); err == nil {
		t.Fatalf("expected miss for malformed price")
	}
}

func TestLastFallsBackToREST(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v4/futures/usdt/tickers" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.RawQuery != "contract=ETH_USDT" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`[{"contract":"ETH_USDT","last":"2400"}]`))
	}))
	defer server.Close()

	restClient := rest.New(server.URL, "/api/v4", time.Second, nil, zap.NewNop())
	m := New(restClient, nil, "usdt", zap.NewNop())
	price, err := m.Last(context.Background(), "ETH_USDT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != 2400 {
		t.Fatalf("expected 2400, got %v", price)
	}
}
