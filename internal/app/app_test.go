package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"gate-dual-hedge/internal/alerts"
	"gate-dual-hedge/internal/config"
	"gate-dual-hedge/internal/dual"
	"gate-dual-hedge/internal/exec"
	"gate-dual-hedge/internal/futures"
	"gate-dual-hedge/internal/metrics"
	"gate-dual-hedge/internal/spot"
	"gate-dual-hedge/internal/state"
	"gate-dual-hedge/internal/strategy"

	"go.uber.org/zap"
)

type memoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string]string)}
}

func (s *memoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	val, ok := s.data[key]
	return val, ok, nil
}

func (s *memoryStore) Set(ctx context.Context, key, value string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, key string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *memoryStore) Close() error { return nil }

type fakeOffers struct {
	offers []dual.Offer
}

func (f *fakeOffers) ListOffers(ctx context.Context) ([]dual.Offer, error) {
	_ = ctx
	return f.offers, nil
}

type fakeInvest struct {
	placed []string
}

func (f *fakeInvest) PlaceOrder(ctx context.Context, planID int64, amount, text string) (dual.OrderRecord, error) {
	_ = ctx
	f.placed = append(f.placed, text)
	return dual.OrderRecord{ID: 101, PlanID: planID, Amount: amount, Text: text}, nil
}

type fakeHedge struct {
	contract futures.Contract
	position futures.Position
	open     bool
	orders   []futures.OrderRequest
}

func (f *fakeHedge) GetContract(ctx context.Context, name string) (futures.Contract, error) {
	_ = ctx
	_ = name
	return f.contract, nil
}

func (f *fakeHedge) PlaceOrder(ctx context.Context, req futures.OrderRequest) (futures.Order, error) {
	_ = ctx
	f.orders = append(f.orders, req)
	return futures.Order{ID: int64(200 + len(f.orders)), Contract: req.Contract, Size: req.Size}, nil
}

func (f *fakeHedge) GetPosition(ctx context.Context, contract string) (futures.Position, bool, error) {
	_ = ctx
	_ = contract
	return f.position, f.open, nil
}

type fakeSpot struct {
	sells []spot.OrderRequest
}

func (f *fakeSpot) MarketSell(ctx context.Context, pair, amount, text string) (spot.Order, error) {
	_ = ctx
	f.sells = append(f.sells, spot.OrderRequest{CurrencyPair: pair, Amount: amount, Text: text})
	return spot.Order{ID: "301", CurrencyPair: pair, Amount: amount}, nil
}

type fakeSettlement struct {
	order dual.OrderRecord
	err   error
}

func (f *fakeSettlement) AwaitSettlement(ctx context.Context, tag string) (dual.OrderRecord, error) {
	_ = ctx
	f.order.Text = tag
	return f.order, f.err
}

type fakePrices struct{}

func (fakePrices) Start(ctx context.Context, contracts ...string) error {
	_ = ctx
	_ = contracts
	return nil
}

func (fakePrices) Last(ctx context.Context, contract string) (float64, error) {
	_ = ctx
	_ = contract
	return 2400, nil
}

type scriptedPrompter struct {
	amount  string
	confirm bool
}

func (p *scriptedPrompter) Amount(ctx context.Context, currency string) (string, error) {
	_ = ctx
	_ = currency
	return p.amount, nil
}

func (p *scriptedPrompter) Confirm(ctx context.Context, summary string) (bool, error) {
	_ = ctx
	_ = summary
	return p.confirm, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Strategy: config.StrategyConfig{
			FundingAsset:    "USDT",
			HedgeAsset:      "ETH",
			Settle:          "usdt",
			Contract:        "ETH_USDT",
			HedgeMultiplier: 1.0,
			PollInterval:    time.Minute,
		},
	}
}

func testApp(store state.Store, invest *fakeInvest, hedge *fakeHedge, sp *fakeSpot, settlement *fakeSettlement, prompt Prompter) *App {
	log := zap.NewNop()
	return &App{
		cfg:    testConfig(),
		log:    log,
		store:  store,
		market: fakePrices{},
		offers: &fakeOffers{offers: []dual.Offer{{
			ID:               7,
			InvestCurrency:   "USDT",
			ExerciseCurrency: "ETH",
			Type:             dual.KindPut,
			Status:           dual.StatusOngoing,
			DeliveryTime:     time.Now().Add(24 * time.Hour).Unix(),
			ExercisePrice:    2400,
			APYDisplay:       "15.5",
		}}},
		hedge:        hedge,
		spot:         sp,
		orchestrator: exec.New(invest, hedge, store, nil, log),
		settlement:   settlement,
		metrics:      metrics.NewNoop(),
		alerts:       alerts.NewTelegram(config.TelegramConfig{}, log),
		prompt:       prompt,
		machine:      strategy.NewStateMachine(),
		now:          time.Now,
	}
}

func TestRunFullCycle(t *testing.T) {
	store := newMemoryStore()
	invest := &fakeInvest{}
	hedge := &fakeHedge{
		contract: futures.Contract{Name: "ETH_USDT", QuantoMultiplier: "1.0"},
		position: futures.Position{Contract: "ETH_USDT", Size: -1000, EntryPrice: "2400"},
		open:     true,
	}
	sp := &fakeSpot{}
	settlement := &fakeSettlement{order: dual.OrderRecord{
		ID:             101,
		Status:         dual.OrderStatusSettled,
		SettleCurrency: "ETH",
		SettleAmount:   "0.41",
	}}
	app := testApp(store, invest, hedge, sp, settlement, &scriptedPrompter{amount: "1000", confirm: true})

	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(invest.placed) != 1 {
		t.Fatalf("expected one investment order, got %d", len(invest.placed))
	}
	if len(hedge.orders) != 2 {
		t.Fatalf("expected hedge open and close orders, got %d", len(hedge.orders))
	}
	if hedge.orders[0].Size != -1000 || hedge.orders[0].TIF != "ioc" {
		t.Fatalf("unexpected hedge open order %+v", hedge.orders[0])
	}
	if hedge.orders[1].Size != 1000 || !hedge.orders[1].ReduceOnly {
		t.Fatalf("expected reduce-only close of the live short, got %+v", hedge.orders[1])
	}
	if len(sp.sells) != 1 || sp.sells[0].CurrencyPair != "ETH_USDT" || sp.sells[0].Amount != "0.41" {
		t.Fatalf("expected settled ETH sold back to USDT, got %+v", sp.sells)
	}
	if _, ok, _ := state.LoadActivePlan(context.Background(), store); ok {
		t.Fatalf("expected active plan cleared after a complete run")
	}
	tag := invest.placed[0]
	plan, ok, err := state.LoadPlan(context.Background(), store, tag)
	if err != nil || !ok {
		t.Fatalf("expected plan history kept, ok=%v err=%v", ok, err)
	}
	if plan.Stage != strategy.StageUnwound {
		t.Fatalf("expected unwound, got %s", plan.Stage)
	}
	if plan.SettleCurrency != "ETH" || plan.SettleAmount != "0.41" {
		t.Fatalf("expected settlement recorded on plan, got %+v", plan)
	}
}

func TestRunDeclinedPlacesNoOrders(t *testing.T) {
	store := newMemoryStore()
	invest := &fakeInvest{}
	hedge := &fakeHedge{contract: futures.Contract{Name: "ETH_USDT", QuantoMultiplier: "1.0"}}
	app := testApp(store, invest, hedge, &fakeSpot{}, &fakeSettlement{}, &scriptedPrompter{amount: "1000", confirm: false})

	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("expected clean exit on decline, got %v", err)
	}
	if len(invest.placed) != 0 || len(hedge.orders) != 0 {
		t.Fatalf("expected no orders after decline")
	}
	if _, ok, _ := state.LoadActivePlan(context.Background(), store); ok {
		t.Fatalf("expected no plan persisted after decline")
	}
}

func TestRunRejectsInvalidAmount(t *testing.T) {
	store := newMemoryStore()
	hedge := &fakeHedge{contract: futures.Contract{Name: "ETH_USDT", QuantoMultiplier: "1.0"}}
	app := testApp(store, &fakeInvest{}, hedge, &fakeSpot{}, &fakeSettlement{}, &scriptedPrompter{amount: "abc", confirm: true})

	if err := app.Run(context.Background()); err == nil {
		t.Fatalf("expected error for non-numeric amount")
	}
}

func TestRunRejectsNotionalAboveLimit(t *testing.T) {
	store := newMemoryStore()
	invest := &fakeInvest{}
	hedge := &fakeHedge{contract: futures.Contract{Name: "ETH_USDT", QuantoMultiplier: "1.0"}}
	app := testApp(store, invest, hedge, &fakeSpot{}, &fakeSettlement{}, &scriptedPrompter{amount: "1000", confirm: true})
	app.cfg.Risk.MaxNotionalUSD = 500

	err := app.Run(context.Background())
	if !errors.Is(err, strategy.ErrNotionalExceeded) {
		t.Fatalf("expected ErrNotionalExceeded, got %v", err)
	}
	if len(invest.placed) != 0 {
		t.Fatalf("expected no orders after risk rejection")
	}
}

func TestCheckStalePlanBlocksUnresolvedRun(t *testing.T) {
	store := newMemoryStore()
	stale := state.PlanRecord{Tag: "dual-hedge-1-ab", Stage: strategy.StageInvestSubmitted}
	if err := state.SavePlan(context.Background(), store, stale); err != nil {
		t.Fatalf("save: %v", err)
	}
	app := testApp(store, &fakeInvest{}, &fakeHedge{}, &fakeSpot{}, &fakeSettlement{}, &scriptedPrompter{})

	err := app.checkStalePlan(context.Background())
	if err == nil {
		t.Fatalf("expected error for unresolved plan")
	}
	if !strings.Contains(err.Error(), "invest_submitted") {
		t.Fatalf("expected stage in error, got %v", err)
	}
}

func TestCheckStalePlanAllowsResolvedRun(t *testing.T) {
	store := newMemoryStore()
	resolved := state.PlanRecord{Tag: "dual-hedge-1-ab", Stage: strategy.StageUnwound}
	if err := state.SavePlan(context.Background(), store, resolved); err != nil {
		t.Fatalf("save: %v", err)
	}
	app := testApp(store, &fakeInvest{}, &fakeHedge{}, &fakeSpot{}, &fakeSettlement{}, &scriptedPrompter{})

	if err := app.checkStalePlan(context.Background()); err != nil {
		t.Fatalf("expected resolved plan to pass, got %v", err)
	}
}

func TestPlanSummaryIncludesImpliedQuantity(t *testing.T) {
	plan := state.PlanRecord{
		PlanID:           7,
		Amount:           "1000",
		InvestCurrency:   "USDT",
		ExerciseCurrency: "ETH",
		APYDisplay:       "15.5",
		StrikePrice:      2400,
		NotionalUSD:      1000,
		ContractSize:     1000,
		Contract:         "ETH_USDT",
		DeliveryTime:     1767225600,
	}
	summary := planSummary(plan, 2400)
	if !strings.Contains(summary, "short 1000 ETH_USDT contracts") {
		t.Fatalf("expected contract size in summary, got %q", summary)
	}
	if !strings.Contains(summary, "0.416667 ETH") {
		t.Fatalf("expected implied base quantity in summary, got %q", summary)
	}
	withoutMark := planSummary(plan, 0)
	if strings.Contains(withoutMark, "~") {
		t.Fatalf("expected no implied quantity without a mark price, got %q", withoutMark)
	}
}
