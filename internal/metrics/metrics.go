package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	CyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_cycles_total",
			Help: "Total number of completed polling cycles.",
		},
	)

	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_signals_total",
			Help: "Fused signals by resulting action.",
		},
		[]string{"symbol", "action"},
	)

	OrdersSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_orders_submitted_total",
			Help: "Orders submitted to the exchange (by side and reason).",
		},
		[]string{"side", "reason"},
	)

	ExchangeErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_exchange_errors_total",
			Help: "Exchange calls that failed after retries.",
		},
	)

	OpenPositions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_open_positions",
			Help: "Current number of open positions.",
		},
	)

	EquityGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_equity_quote",
			Help: "Estimated account equity in quote currency.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		CyclesTotal,
		SignalsTotal,
		OrdersSubmitted,
		ExchangeErrors,
		OpenPositions,
		EquityGauge,
	)
}
