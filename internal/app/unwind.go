package app

import (
	"context"
	"fmt"

	"gate-dual-hedge/internal/dual"
	"gate-dual-hedge/internal/futures"
	"gate-dual-hedge/internal/state"

	"go.uber.org/zap"
)

// unwind flattens whatever the settled run left behind. The short is
// re-read from the venue rather than trusted from the plan record: partial
// IOC fills and manual intervention both make the persisted size stale.
func (a *App) unwind(ctx context.Context, plan state.PlanRecord, order dual.OrderRecord) error {
	position, open, err := a.hedge.GetPosition(ctx, plan.Contract)
	if err != nil {
		a.metrics.UnwindFailed.Inc()
		return fmt.Errorf("read position %s: %w", plan.Contract, err)
	}
	if open && position.Size != 0 {
		closeOrder, err := a.hedge.PlaceOrder(ctx, futures.OrderRequest{
			Contract:   plan.Contract,
			Size:       -position.Size,
			TIF:        "ioc",
			ReduceOnly: true,
			Text:       plan.Tag,
		})
		if err != nil {
			a.metrics.UnwindFailed.Inc()
			return fmt.Errorf("close position %s: %w", plan.Contract, err)
		}
		a.metrics.OrdersPlaced.Inc()
		a.log.Info("hedge position closed",
			zap.String("contract", plan.Contract),
			zap.Int64("size", -position.Size),
			zap.Int64("order_id", closeOrder.ID),
		)
	} else {
		a.log.Info("no open hedge position to close", zap.String("contract", plan.Contract))
	}

	// Settlement in the exercise currency means the put was exercised and
	// the account now holds the base asset instead of the funding asset.
	// Selling it spot restores the funding currency balance.
	if order.SettleCurrency == a.cfg.Strategy.HedgeAsset && order.SettleAmount != "" && order.SettleAmount != "0" {
		pair := a.cfg.Strategy.HedgeAsset + "_" + a.cfg.Strategy.FundingAsset
		sellOrder, err := a.spot.MarketSell(ctx, pair, order.SettleAmount, plan.Tag)
		if err != nil {
			a.metrics.UnwindFailed.Inc()
			return fmt.Errorf("sell settled %s: %w", order.SettleCurrency, err)
		}
		a.metrics.OrdersPlaced.Inc()
		a.log.Info("settled asset sold",
			zap.String("pair", pair),
			zap.String("amount", order.SettleAmount),
			zap.String("order_id", sellOrder.ID),
		)
	}
	return nil
}
