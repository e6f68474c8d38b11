package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts import outcomes per bank.
type Metrics struct {
	Statements   *prometheus.CounterVec
	Imported     *prometheus.CounterVec
	Duplicates   *prometheus.CounterVec
	Failures     *prometheus.CounterVec
	Transactions *prometheus.HistogramVec
}

// NewMetrics registers the import collectors on reg. A nil reg creates
// unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Statements: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "statements",
			Subsystem: "import",
			Name:      "statements_total",
			Help:      "Statements parsed, by bank.",
		}, []string{"bank"}),
		Imported: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "statements",
			Subsystem: "import",
			Name:      "transactions_added_total",
			Help:      "Transactions stored, by bank.",
		}, []string{"bank"}),
		Duplicates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "statements",
			Subsystem: "import",
			Name:      "transactions_duplicate_total",
			Help:      "Transactions skipped as already stored, by bank.",
		}, []string{"bank"}),
		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "statements",
			Subsystem: "import",
			Name:      "failures_total",
			Help:      "Failed imports, by stage.",
		}, []string{"stage"}),
		Transactions: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "statements",
			Subsystem: "import",
			Name:      "statement_transactions",
			Help:      "Transactions per parsed statement.",
			Buckets:   []float64{0, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"bank"}),
	}
}
