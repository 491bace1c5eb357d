package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const promNamespace = "gate_dual_hedge"

type promCounter struct {
	counter prometheus.Counter
}

func (p promCounter) Inc() {
	p.counter.Inc()
}

type Prometheus struct {
	Metrics *Metrics

	registry        *prometheus.Registry
	ordersPlaced    prometheus.Counter
	ordersFailed    prometheus.Counter
	settlementPolls prometheus.Counter
	unwindFailed    prometheus.Counter
	offersRejected  prometheus.Counter
}

func NewPrometheus() *Prometheus {
	registry := prometheus.NewRegistry()
	ordersPlaced := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "orders_placed_total",
		Help:      "Total number of orders placed.",
	})
	ordersFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "orders_failed_total",
		Help:      "Total number of order placement failures.",
	})
	settlementPolls := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "settlement_polls_total",
		Help:      "Total number of settlement status polls.",
	})
	unwindFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "unwind_failed_total",
		Help:      "Total number of unwind flow failures.",
	})
	offersRejected := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "offers_rejected_total",
		Help:      "Total number of offer selections rejected by risk checks.",
	})

	registry.MustRegister(ordersPlaced, ordersFailed, settlementPolls, unwindFailed, offersRejected)

	m := &Metrics{
		OrdersPlaced:    promCounter{ordersPlaced},
		OrdersFailed:    promCounter{ordersFailed},
		SettlementPolls: promCounter{settlementPolls},
		UnwindFailed:    promCounter{unwindFailed},
		OffersRejected:  promCounter{offersRejected},
	}

	return &Prometheus{
		Metrics:         m,
		registry:        registry,
		ordersPlaced:    ordersPlaced,
		ordersFailed:    ordersFailed,
		settlementPolls: settlementPolls,
		unwindFailed:    unwindFailed,
		offersRejected:  offersRejected,
	}
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
