package exec

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"gate-dual-hedge/internal/dual"
	"gate-dual-hedge/internal/futures"
	"gate-dual-hedge/internal/metrics"
	"gate-dual-hedge/internal/state"
	"gate-dual-hedge/internal/strategy"

	"go.uber.org/zap"
)

type InvestmentClient interface {
	PlaceOrder(ctx context.Context, planID int64, amount, text string) (dual.OrderRecord, error)
}

type HedgeClient interface {
	PlaceOrder(ctx context.Context, req futures.OrderRequest) (futures.Order, error)
}

// Orchestrator submits the two legs of a hedge run. The plan record is
// persisted before the first order and after every stage change, and the
// investment order always goes out before the hedge short: a crash in
// between leaves the recoverable "investment-only" state, never
// "hedge-only". Neither leg is retried; failures propagate and the
// persisted stage tells the operator where the run stopped.
type Orchestrator struct {
	invest  InvestmentClient
	hedge   HedgeClient
	store   state.Store
	metrics *metrics.Metrics
	log     *zap.Logger
}

func New(invest InvestmentClient, hedge HedgeClient, store state.Store, m *metrics.Metrics, log *zap.Logger) *Orchestrator {
	if m == nil {
		m = metrics.NewNoop()
	}
	return &Orchestrator{invest: invest, hedge: hedge, store: store, metrics: m, log: log}
}

// NewTag builds a correlation tag unique across concurrent runs against
// the same account.
func NewTag(now time.Time) string {
	suffix := make([]byte, 2)
	_, _ = rand.Read(suffix)
	return fmt.Sprintf("dual-hedge-%d-%s", now.Unix(), hex.EncodeToString(suffix))
}

func (o *Orchestrator) Execute(ctx context.Context, plan state.PlanRecord) (state.PlanRecord, error) {
	plan.Stage = strategy.StageCreated
	now := time.Now().UTC().UnixMilli()
	plan.CreatedAtMS = now
	plan.UpdatedAtMS = now
	if err := state.SavePlan(ctx, o.store, plan); err != nil {
		return plan, fmt.Errorf("persist plan: %w", err)
	}

	investOrder, err := o.invest.PlaceOrder(ctx, plan.PlanID, plan.Amount, plan.Tag)
	if err != nil {
		o.metrics.OrdersFailed.Inc()
		return plan, fmt.Errorf("investment order: %w", err)
	}
	o.metrics.OrdersPlaced.Inc()
	plan.InvestOrderID = investOrder.ID
	o.advance(ctx, &plan, strategy.StageInvestSubmitted)
	o.log.Info("investment order placed",
		zap.String("tag", plan.Tag),
		zap.Int64("plan_id", plan.PlanID),
		zap.String("amount", plan.Amount),
	)

	hedgeOrder, err := o.hedge.PlaceOrder(ctx, futures.OrderRequest{
		Contract: plan.Contract,
		Size:     -abs(plan.ContractSize),
		Iceberg:  0,
		TIF:      "ioc",
		Text:     plan.Tag,
	})
	if err != nil {
		o.metrics.OrdersFailed.Inc()
		return plan, fmt.Errorf("hedge order: %w", err)
	}
	o.metrics.OrdersPlaced.Inc()
	plan.HedgeOrderID = hedgeOrder.ID
	o.advance(ctx, &plan, strategy.StageHedgeSubmitted)
	o.log.Info("hedge short placed",
		zap.String("tag", plan.Tag),
		zap.String("contract", plan.Contract),
		zap.Int64("size", -abs(plan.ContractSize)),
	)
	return plan, nil
}

// advance updates the persisted stage. Persist failures after an order
// is already out are logged, not fatal: the order exists either way.
func (o *Orchestrator) advance(ctx context.Context, plan *state.PlanRecord, stage strategy.Stage) {
	plan.Stage = stage
	plan.UpdatedAtMS = time.Now().UTC().UnixMilli()
	if err := state.SavePlan(ctx, o.store, *plan); err != nil {
		o.log.Warn("failed to persist plan stage", zap.String("stage", string(stage)), zap.Error(err))
	}
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
