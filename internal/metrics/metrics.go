package metrics

type Counter interface {
	Inc()
}

type Metrics struct {
	OrdersPlaced    Counter
	OrdersFailed    Counter
	SettlementPolls Counter
	UnwindFailed    Counter
	OffersRejected  Counter
}

type noopCounter struct{}

func (noopCounter) Inc() {}

func NewNoop() *Metrics {
	n := noopCounter{}
	return &Metrics{
		OrdersPlaced:    n,
		OrdersFailed:    n,
		SettlementPolls: n,
		UnwindFailed:    n,
		OffersRejected:  n,
	}
}
