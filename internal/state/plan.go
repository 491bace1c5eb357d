package state

import (
	"context"
	"encoding/json"
	"strings"

	"gate-dual-hedge/internal/strategy"
)

const activePlanKey = "plan:active"

// PlanRecord is the locally owned record of one hedge run, keyed by the
// correlation tag shared between the investment and hedge orders. It is
// written BEFORE the first order goes out so a crash between the two legs
// leaves a detectable trace instead of an invisible unhedged position.
type PlanRecord struct {
	Tag              string         `json:"tag"`
	Stage            strategy.Stage `json:"stage"`
	PlanID           int64          `json:"plan_id"`
	Contract         string         `json:"contract"`
	InvestCurrency   string         `json:"invest_currency"`
	ExerciseCurrency string         `json:"exercise_currency"`
	Amount           string         `json:"amount"`
	NotionalUSD      float64        `json:"notional_usd"`
	ContractSize     int64          `json:"contract_size"`
	APYDisplay       string         `json:"apy_display"`
	StrikePrice      float64        `json:"strike_price"`
	DeliveryTime     int64          `json:"delivery_time"`
	InvestOrderID    int64          `json:"invest_order_id,omitempty"`
	HedgeOrderID     int64          `json:"hedge_order_id,omitempty"`
	SettleCurrency   string         `json:"settle_currency,omitempty"`
	SettleAmount     string         `json:"settle_amount,omitempty"`
	CreatedAtMS      int64          `json:"created_at_ms"`
	UpdatedAtMS      int64          `json:"updated_at_ms"`
}

// Resolved reports whether the run behind this record needs no operator
// attention: both legs out and the lifecycle carried through unwind.
func (p PlanRecord) Resolved() bool {
	return p.Stage == strategy.StageUnwound
}

func SavePlan(ctx context.Context, store Store, plan PlanRecord) error {
	if store == nil {
		return nil
	}
	payload, err := json.Marshal(plan)
	if err != nil {
		return err
	}
	if err := store.Set(ctx, planKey(plan.Tag), string(payload)); err != nil {
		return err
	}
	return store.Set(ctx, activePlanKey, plan.Tag)
}

func LoadPlan(ctx context.Context, store Store, tag string) (PlanRecord, bool, error) {
	if store == nil {
		return PlanRecord{}, false, nil
	}
	raw, ok, err := store.Get(ctx, planKey(tag))
	if err != nil || !ok {
		return PlanRecord{}, false, err
	}
	if strings.TrimSpace(raw) == "" {
		return PlanRecord{}, false, nil
	}
	var plan PlanRecord
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return PlanRecord{}, false, err
	}
	return plan, true, nil
}

// LoadActivePlan returns the plan most recently marked active, if any.
// Startup uses it to detect a previous run that stopped mid-sequence.
func LoadActivePlan(ctx context.Context, store Store) (PlanRecord, bool, error) {
	if store == nil {
		return PlanRecord{}, false, nil
	}
	tag, ok, err := store.Get(ctx, activePlanKey)
	if err != nil || !ok {
		return PlanRecord{}, false, err
	}
	return LoadPlan(ctx, store, tag)
}

// ClearActivePlan drops the active pointer; the per-tag record stays for
// auditing.
func ClearActivePlan(ctx context.Context, store Store) error {
	if store == nil {
		return nil
	}
	return store.Delete(ctx, activePlanKey)
}

func planKey(tag string) string {
	return "plan:" + tag
}
