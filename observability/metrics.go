// Package observability counts what a backtest run did in Prometheus form.
// Runs are batch jobs, so metrics live on a private registry and are written
// to a textfile at the end instead of being scraped.
package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// RunMetrics holds the counters and gauges for one run.
type RunMetrics struct {
	registry *prometheus.Registry

	BarsProcessed   prometheus.Counter
	OrdersSubmitted *prometheus.CounterVec
	TradesApplied   *prometheus.CounterVec
	OrdersRejected  *prometheus.CounterVec
	Equity          prometheus.Gauge
	Cash            prometheus.Gauge
	FeesPaid        prometheus.Counter
	SlippagePaid    prometheus.Counter
}

// NewRunMetrics registers every metric on a fresh registry, labelled with
// the run's ID and symbol.
func NewRunMetrics(namespace, runID, symbol string) *RunMetrics {
	if namespace == "" {
		namespace = "backtester"
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	labels := prometheus.Labels{"run_id": runID, "symbol": symbol}

	return &RunMetrics{
		registry: reg,
		BarsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "run",
			Name:        "bars_processed_total",
			Help:        "Total number of bars replayed",
			ConstLabels: labels,
		}),
		OrdersSubmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "run",
			Name:        "orders_submitted_total",
			Help:        "Total number of orders sent to the execution model",
			ConstLabels: labels,
		}, []string{"side"}),
		TradesApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "run",
			Name:        "trades_applied_total",
			Help:        "Total number of trades booked by the portfolio",
			ConstLabels: labels,
		}, []string{"side"}),
		OrdersRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "run",
			Name:        "orders_rejected_total",
			Help:        "Orders the execution model or portfolio refused, by reason",
			ConstLabels: labels,
		}, []string{"reason"}),
		Equity: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "portfolio",
			Name:        "equity",
			Help:        "Equity at the latest snapshot",
			ConstLabels: labels,
		}),
		Cash: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "portfolio",
			Name:        "cash",
			Help:        "Cash at the latest snapshot",
			ConstLabels: labels,
		}),
		FeesPaid: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "portfolio",
			Name:        "fees_paid_total",
			Help:        "Total fees charged",
			ConstLabels: labels,
		}),
		SlippagePaid: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "portfolio",
			Name:        "slippage_paid_total",
			Help:        "Total slippage cost",
			ConstLabels: labels,
		}),
	}
}

// Registry exposes the private registry, for tests and custom exporters.
func (m *RunMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveTrade counts a booked trade and its costs.
func (m *RunMetrics) ObserveTrade(side string, fee, slippage decimal.Decimal) {
	m.TradesApplied.WithLabelValues(side).Inc()
	m.FeesPaid.Add(fee.InexactFloat64())
	m.SlippagePaid.Add(slippage.InexactFloat64())
}

// ObserveSnapshot records the latest valuation.
func (m *RunMetrics) ObserveSnapshot(cash, equity decimal.Decimal) {
	m.Cash.Set(cash.InexactFloat64())
	m.Equity.Set(equity.InexactFloat64())
}

// WriteTextfile writes every metric to path in the Prometheus text format,
// as read by the node_exporter textfile collector.
func (m *RunMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
