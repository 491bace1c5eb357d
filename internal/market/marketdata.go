package market

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"gate-dual-hedge/internal/gate/rest"
	"gate-dual-hedge/internal/gate/ws"

	"go.uber.org/zap"
)

// MarketData caches the last traded price per futures contract. The cache
// is fed by the futures.tickers websocket channel; misses fall back to a
// REST ticker fetch.
type MarketData struct {
	rest   *rest.Client
	ws     *ws.Client
	settle string
	log    *zap.Logger

	mu         sync.RWMutex
	lastPrices map[string]float64
	updatedAt  map[string]time.Time
}

type restTicker struct {
	Contract string `json:"contract"`
	Last     string `json:"last"`
}

func New(restClient *rest.Client, wsClient *ws.Client, settle string, log *zap.Logger) *MarketData {
	return &MarketData{
		rest:       restClient,
		ws:         wsClient,
		settle:     settle,
		log:        log,
		lastPrices: make(map[string]float64),
		updatedAt:  make(map[string]time.Time),
	}
}

func (m *MarketData) Start(ctx context.Context, contracts ...string) error {
	if m.ws == nil {
		return nil
	}
	if err := m.ws.Connect(ctx); err != nil {
		return err
	}
	sub := map[string]any{
		"time":    time.Now().Unix(),
		"channel": "futures.tickers",
		"event":   "subscribe",
		"payload": contracts,
	}
	if err := m.ws.Subscribe(ctx, sub); err != nil {
		return err
	}
	go func() {
		_ = m.ws.Run(ctx, m.handleMessage)
	}()
	return nil
}

// Last returns the most recent traded price for a contract, preferring
// the websocket cache and falling back to the REST ticker endpoint.
func (m *MarketData) Last(ctx context.Context, contract string) (float64, error) {
	m.mu.RLock()
	price, ok := m.lastPrices[contract]
	m.mu.RUnlock()
	if ok && price > 0 {
		return price, nil
	}
	if m.rest == nil {
		return 0, errors.New("last price not found")
	}
	var tickers []restTicker
	if err := m.rest.Get(ctx, "/futures/"+m.settle+"/tickers", "contract="+contract, &tickers); err != nil {
		return 0, err
	}
	for _, ticker := range tickers {
		if ticker.Contract != "" && ticker.Contract != contract {
			continue
		}
		last, err := strconv.ParseFloat(ticker.Last, 64)
		if err != nil {
			continue
		}
		m.setLast(contract, last)
		return last, nil
	}
	return 0, errors.New("last price not found")
}

func (m *MarketData) LastAge(contract string) (time.Duration, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	at, ok := m.updatedAt[contract]
	if !ok {
		return 0, false
	}
	return time.Since(at), true
}

func (m *MarketData) handleMessage(msg json.RawMessage) {
	var payload struct {
		Channel string `json:"channel"`
		Event   string `json:"event"`
		Result  []struct {
			Contract string `json:"contract"`
			Last     string `json:"last"`
		} `json:"result"`
	}
	if err := json.Unmarshal(msg, &payload); err != nil {
		if m.log != nil {
			m.log.Debug("ws decode error", zap.Error(err))
		}
		return
	}
	if payload.Channel != "futures.tickers" || payload.Event != "update" {
		return
	}
	for _, ticker := range payload.Result {
		last, err := strconv.ParseFloat(ticker.Last, 64)
		if err != nil || ticker.Contract == "" {
			continue
		}
		m.setLast(ticker.Contract, last)
	}
}

func (m *MarketData) setLast(contract string, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastPrices[contract] = price
	m.updatedAt[contract] = time.Now().UTC()
}
