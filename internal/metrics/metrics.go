// Package metrics defines the Prometheus collectors of the ledger server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// rpcDuration measures handler latency.
	// Labels: procedure, code (ok or a Connect code)
	rpcDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "halaqa",
		Subsystem: "rpc",
		Name:      "duration_seconds",
		Help:      "Ledger RPC latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"procedure", "code"})

	// joinsTotal counts join attempts.
	// Labels: outcome (joined, already_member, slot_taken, group_full, not_open, not_found, error)
	joinsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "halaqa",
		Subsystem: "ledger",
		Name:      "joins_total",
		Help:      "Total group join attempts by outcome",
	}, []string{"outcome"})

	// groupsCreated counts created groups.
	// Labels: payout_order
	groupsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "halaqa",
		Subsystem: "ledger",
		Name:      "groups_created_total",
		Help:      "Total groups created",
	}, []string{"payout_order"})

	// paymentsTotal counts recorded contributions.
	paymentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "halaqa",
		Subsystem: "ledger",
		Name:      "payments_total",
		Help:      "Total cycle payments recorded",
	})

	// cycleAdvances counts scheduler transitions.
	// Labels: result (started, advanced, completed, error)
	cycleAdvances = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "halaqa",
		Subsystem: "scheduler",
		Name:      "cycle_advances_total",
		Help:      "Total cycle advancements by result",
	}, []string{"result"})
)

// ObserveRPC records one handled RPC.
func ObserveRPC(procedure, code string, elapsed time.Duration) {
	rpcDuration.WithLabelValues(procedure, code).Observe(elapsed.Seconds())
}

// RecordJoin counts one join attempt.
func RecordJoin(outcome string) {
	joinsTotal.WithLabelValues(outcome).Inc()
}

// RecordGroupCreated counts one created group.
func RecordGroupCreated(payoutOrder string) {
	groupsCreated.WithLabelValues(payoutOrder).Inc()
}

// RecordPayment counts one recorded payment.
func RecordPayment() {
	paymentsTotal.Inc()
}

// RecordCycleAdvance counts one scheduler transition.
func RecordCycleAdvance(result string) {
	cycleAdvances.WithLabelValues(result).Inc()
}
