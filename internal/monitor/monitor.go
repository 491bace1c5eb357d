package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gate-dual-hedge/internal/dual"
	"gate-dual-hedge/internal/metrics"

	"go.uber.org/zap"
)

// ErrSettlementTimeout is returned when a settlement deadline is configured
// and the order has not settled before it elapses.
var ErrSettlementTimeout = errors.New("settlement wait timed out")

type OrderLookup interface {
	FindOrderByTag(ctx context.Context, tag string) (dual.OrderRecord, bool, error)
}

// Monitor polls a dual investment order until the venue reports settlement.
// Lookup errors and a missing order are transient: the venue can lag behind
// a just-placed order, so both only delay the next poll.
type Monitor struct {
	orders   OrderLookup
	interval time.Duration
	// maxBackoff caps the poll interval growth after consecutive lookup
	// errors. Zero disables backoff.
	maxBackoff time.Duration
	// timeout bounds the whole wait. Zero waits forever.
	timeout time.Duration
	metrics *metrics.Metrics
	log     *zap.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func New(orders OrderLookup, interval, maxBackoff, timeout time.Duration, m *metrics.Metrics, log *zap.Logger) *Monitor {
	if m == nil {
		m = metrics.NewNoop()
	}
	return &Monitor{
		orders:     orders,
		interval:   interval,
		maxBackoff: maxBackoff,
		timeout:    timeout,
		metrics:    m,
		log:        log,
		now:        time.Now,
		sleep:      sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// AwaitSettlement blocks until the order tagged tag settles, the context is
// cancelled, or the configured timeout elapses. The settled order record is
// returned so the caller can read the settlement currency and amount.
func (m *Monitor) AwaitSettlement(ctx context.Context, tag string) (dual.OrderRecord, error) {
	start := m.now()
	delay := m.interval
	for {
		if err := ctx.Err(); err != nil {
			return dual.OrderRecord{}, err
		}
		if m.timeout > 0 && m.now().Sub(start) >= m.timeout {
			return dual.OrderRecord{}, fmt.Errorf("%w after %s", ErrSettlementTimeout, m.timeout)
		}

		m.metrics.SettlementPolls.Inc()
		order, found, err := m.orders.FindOrderByTag(ctx, tag)
		switch {
		case err != nil:
			m.log.Warn("settlement poll failed", zap.String("tag", tag), zap.Error(err))
			delay = m.nextBackoff(delay)
		case !found:
			m.log.Debug("order not visible yet", zap.String("tag", tag))
			delay = m.interval
		case order.Settled():
			m.log.Info("order settled",
				zap.String("tag", tag),
				zap.String("settle_currency", order.SettleCurrency),
				zap.String("settle_amount", order.SettleAmount),
			)
			return order, nil
		default:
			m.log.Info("order not settled yet",
				zap.String("tag", tag),
				zap.String("status", order.Status),
			)
			delay = m.interval
		}

		if err := m.sleep(ctx, delay); err != nil {
			return dual.OrderRecord{}, err
		}
	}
}

func (m *Monitor) nextBackoff(current time.Duration) time.Duration {
	if m.maxBackoff <= 0 {
		return m.interval
	}
	next := current * 2
	if next > m.maxBackoff {
		next = m.maxBackoff
	}
	return next
}
