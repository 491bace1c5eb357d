package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gate-dual-hedge/internal/alerts"
	"gate-dual-hedge/internal/config"
	"gate-dual-hedge/internal/dual"
	"gate-dual-hedge/internal/exec"
	"gate-dual-hedge/internal/futures"
	"gate-dual-hedge/internal/gate/rest"
	"gate-dual-hedge/internal/gate/ws"
	"gate-dual-hedge/internal/journal"
	"gate-dual-hedge/internal/market"
	"gate-dual-hedge/internal/metrics"
	"gate-dual-hedge/internal/monitor"
	"gate-dual-hedge/internal/spot"
	"gate-dual-hedge/internal/state"
	"gate-dual-hedge/internal/state/sqlite"
	"gate-dual-hedge/internal/strategy"

	"go.uber.org/zap"
)

type offerLister interface {
	ListOffers(ctx context.Context) ([]dual.Offer, error)
}

type priceSource interface {
	Start(ctx context.Context, contracts ...string) error
	Last(ctx context.Context, contract string) (float64, error)
}

type hedgeVenue interface {
	GetContract(ctx context.Context, name string) (futures.Contract, error)
	PlaceOrder(ctx context.Context, req futures.OrderRequest) (futures.Order, error)
	GetPosition(ctx context.Context, contract string) (futures.Position, bool, error)
}

type spotVenue interface {
	MarketSell(ctx context.Context, pair, amount, text string) (spot.Order, error)
}

type settlementWaiter interface {
	AwaitSettlement(ctx context.Context, tag string) (dual.OrderRecord, error)
}

type App struct {
	cfg          *config.Config
	log          *zap.Logger
	store        state.Store
	market       priceSource
	offers       offerLister
	hedge        hedgeVenue
	spot         spotVenue
	orchestrator *exec.Orchestrator
	settlement   settlementWaiter
	metrics      *metrics.Metrics
	prom         *metrics.Prometheus
	alerts       *alerts.Telegram
	journal      *journal.Writer
	prompt       Prompter
	machine      *strategy.StateMachine

	now func() time.Time
}

func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	if err := cfg.RequireCredentials(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.State.SQLitePath), 0o755); err != nil {
		return nil, err
	}
	store, err := sqlite.New(cfg.State.SQLitePath)
	if err != nil {
		return nil, err
	}
	signer := rest.NewSigner(cfg.Credentials.APIKey, cfg.Credentials.APISecret, cfg.REST.Prefix)
	restClient := rest.New(cfg.REST.BaseURL, cfg.REST.Prefix, cfg.REST.Timeout, signer, log)
	wsClient := ws.New(cfg.WS.URL, cfg.WS.ReconnectDelay, cfg.WS.PingInterval, log)
	marketData := market.New(restClient, wsClient, cfg.Strategy.Settle, log)

	dualClient := dual.NewClient(restClient)
	futuresClient := futures.NewClient(restClient, cfg.Strategy.Settle)
	spotClient := spot.NewClient(restClient)

	m := metrics.NewNoop()
	var prom *metrics.Prometheus
	if cfg.Metrics.Enabled {
		prom = metrics.NewPrometheus()
		m = prom.Metrics
	}

	journalWriter, err := journal.New(cfg.Journal, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &App{
		cfg:          cfg,
		log:          log,
		store:        store,
		market:       marketData,
		offers:       dualClient,
		hedge:        futuresClient,
		spot:         spotClient,
		orchestrator: exec.New(dualClient, futuresClient, store, m, log),
		settlement: monitor.New(dualClient, cfg.Strategy.PollInterval,
			cfg.Strategy.PollBackoffMax, cfg.Strategy.SettleTimeout, m, log),
		metrics: m,
		prom:    prom,
		alerts:  alerts.NewTelegram(cfg.Telegram, log),
		journal: journalWriter,
		prompt:  newStdinPrompter(),
		machine: strategy.NewStateMachine(),
		now:     time.Now,
	}, nil
}

// Run drives one full hedge cycle: select an offer, size the short, submit
// both legs, wait for settlement, unwind. A declined confirmation is a
// clean no-op exit.
func (a *App) Run(ctx context.Context) error {
	defer a.store.Close()
	defer a.journal.Close()
	a.journal.Start(ctx)
	a.startMetricsServer(ctx)

	if err := a.checkStalePlan(ctx); err != nil {
		return err
	}

	contract, err := a.hedge.GetContract(ctx, a.cfg.Strategy.Contract)
	if err != nil {
		return fmt.Errorf("load contract %s: %w", a.cfg.Strategy.Contract, err)
	}
	if err := a.market.Start(ctx, contract.Name); err != nil {
		a.log.Warn("market data start failed, falling back to rest lookups", zap.Error(err))
	}

	offers, err := a.offers.ListOffers(ctx)
	if err != nil {
		return fmt.Errorf("list offers: %w", err)
	}
	criteria := dual.Criteria{
		InvestCurrency:   a.cfg.Strategy.FundingAsset,
		ExerciseCurrency: a.cfg.Strategy.HedgeAsset,
	}
	offer, err := dual.SelectBestOffer(offers, criteria, a.now())
	if err != nil {
		return err
	}
	a.log.Info("selected offer",
		zap.Int64("plan_id", offer.ID),
		zap.String("apy", offer.APYDisplay),
		zap.Float64("strike", offer.ExercisePrice),
		zap.Time("delivery", offer.Delivery()),
	)

	amountRaw, err := a.prompt.Amount(ctx, a.cfg.Strategy.FundingAsset)
	if err != nil {
		return err
	}
	amount, err := strconv.ParseFloat(amountRaw, 64)
	if err != nil || amount <= 0 {
		return fmt.Errorf("invalid investment amount %q", amountRaw)
	}

	notional := strategy.Notional(amount, a.cfg.Strategy.HedgeMultiplier)
	markPrice, err := a.market.Last(ctx, contract.Name)
	if err != nil {
		a.log.Warn("mark price unavailable", zap.String("contract", contract.Name), zap.Error(err))
		markPrice = 0
	}
	size := strategy.ContractSize(notional, contract.QuantoMultiplier, markPrice)

	if err := strategy.CheckRisk(a.cfg.Risk, notional, offer.APY()); err != nil {
		a.metrics.OffersRejected.Inc()
		return err
	}

	plan := state.PlanRecord{
		Tag:              exec.NewTag(a.now()),
		PlanID:           offer.ID,
		Contract:         contract.Name,
		InvestCurrency:   offer.InvestCurrency,
		ExerciseCurrency: offer.ExerciseCurrency,
		Amount:           amountRaw,
		NotionalUSD:      notional,
		ContractSize:     size,
		APYDisplay:       offer.APYDisplay,
		StrikePrice:      offer.ExercisePrice,
		DeliveryTime:     offer.DeliveryTime,
	}

	confirmed, err := a.prompt.Confirm(ctx, planSummary(plan, markPrice))
	if err != nil {
		return err
	}
	if !confirmed {
		a.log.Info("operator declined, no orders placed", zap.String("tag", plan.Tag))
		return nil
	}

	plan, err = a.orchestrator.Execute(ctx, plan)
	a.journalEvent(plan, "orders submitted")
	if err != nil {
		a.alerts.Notify(ctx, "hedge run %s failed at stage %s: %v", plan.Tag, plan.Stage, err)
		return err
	}
	a.machine.SetStage(strategy.StageHedgeSubmitted)
	a.alerts.Notify(ctx, "hedge run %s: invested %s %s, short %d contracts on %s",
		plan.Tag, plan.Amount, plan.InvestCurrency, plan.ContractSize, plan.Contract)

	order, err := a.settlement.AwaitSettlement(ctx, plan.Tag)
	if err != nil {
		a.alerts.Notify(ctx, "hedge run %s: settlement wait ended: %v", plan.Tag, err)
		return err
	}
	plan.Stage = a.machine.Apply(strategy.EventSettled)
	plan.SettleCurrency = order.SettleCurrency
	plan.SettleAmount = order.SettleAmount
	plan.UpdatedAtMS = a.now().UTC().UnixMilli()
	if err := state.SavePlan(ctx, a.store, plan); err != nil {
		a.log.Warn("failed to persist settled plan", zap.Error(err))
	}
	a.journalEvent(plan, "settled")
	a.journal.EnqueueSettlement(journal.Settlement{
		Time:           a.now().UTC(),
		Tag:            plan.Tag,
		OrderID:        order.ID,
		SettleCurrency: order.SettleCurrency,
		SettleAmount:   order.SettleAmount,
		APYDisplay:     plan.APYDisplay,
	})
	a.alerts.Notify(ctx, "hedge run %s settled: %s %s", plan.Tag, order.SettleAmount, order.SettleCurrency)

	if err := a.unwind(ctx, plan, order); err != nil {
		a.alerts.Notify(ctx, "hedge run %s: unwind failed: %v", plan.Tag, err)
		return err
	}
	plan.Stage = a.machine.Apply(strategy.EventUnwound)
	plan.UpdatedAtMS = a.now().UTC().UnixMilli()
	if err := state.SavePlan(ctx, a.store, plan); err != nil {
		a.log.Warn("failed to persist unwound plan", zap.Error(err))
	}
	if err := state.ClearActivePlan(ctx, a.store); err != nil {
		a.log.Warn("failed to clear active plan", zap.Error(err))
	}
	a.journalEvent(plan, "unwound")
	a.alerts.Notify(ctx, "hedge run %s complete", plan.Tag)
	a.log.Info("hedge run complete", zap.String("tag", plan.Tag))
	return nil
}

// checkStalePlan refuses to start while a previous run is stuck between
// stages. An invest-only or hedge-only state is exactly what an operator
// must resolve by hand before new orders go out.
func (a *App) checkStalePlan(ctx context.Context) error {
	plan, ok, err := state.LoadActivePlan(ctx, a.store)
	if err != nil {
		return fmt.Errorf("load active plan: %w", err)
	}
	if !ok || plan.Resolved() {
		return nil
	}
	a.alerts.Notify(ctx, "unresolved hedge run %s at stage %s, refusing to start", plan.Tag, plan.Stage)
	return fmt.Errorf("unresolved plan %s at stage %s: resolve manually and clear it before starting a new run", plan.Tag, plan.Stage)
}

func (a *App) startMetricsServer(ctx context.Context) {
	if a.prom == nil || a.cfg.Metrics.Address == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle(a.cfg.Metrics.Path, a.prom.Handler())
	server := &http.Server{Addr: a.cfg.Metrics.Address, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
}

func (a *App) journalEvent(plan state.PlanRecord, detail string) {
	a.journal.EnqueueEvent(journal.Event{
		Time:     a.now().UTC(),
		Tag:      plan.Tag,
		Stage:    string(plan.Stage),
		PlanID:   plan.PlanID,
		Contract: plan.Contract,
		Detail:   detail,
	})
}

func planSummary(plan state.PlanRecord, markPrice float64) string {
	summary := fmt.Sprintf(
		"plan %d: invest %s %s (APY %s%%, strike %.2f, delivery %s)\nhedge: short %d %s contracts",
		plan.PlanID, plan.Amount, plan.InvestCurrency, plan.APYDisplay, plan.StrikePrice,
		time.Unix(plan.DeliveryTime, 0).UTC().Format(time.RFC3339),
		plan.ContractSize, plan.Contract,
	)
	if markPrice > 0 {
		summary += fmt.Sprintf(" (~%.6f %s at %.2f)",
			strategy.ImpliedBaseQuantity(plan.NotionalUSD, markPrice), plan.ExerciseCurrency, markPrice)
	}
	return summary
}
