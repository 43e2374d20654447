package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	GenerationsStarted   *prometheus.CounterVec
	GenerationsCompleted *prometheus.CounterVec
	GenerationsFailed    *prometheus.CounterVec
	CreditsSpent         prometheus.Counter
	VouchersRedeemed     prometheus.Counter
	ReconcileConflicts   prometheus.Counter
}

var (
	once   sync.Once
	global *Metrics
)

// Global returns the process-wide metrics set, registering it on first use.
func Global() *Metrics {
	once.Do(func() {
		global = &Metrics{
			GenerationsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "genstudio",
				Name:      "generations_started_total",
				Help:      "Generation jobs accepted for processing",
			}, []string{"kind", "server"}),
			GenerationsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "genstudio",
				Name:      "generations_completed_total",
				Help:      "Generation jobs that produced an output URL",
			}, []string{"kind", "server"}),
			GenerationsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "genstudio",
				Name:      "generations_failed_total",
				Help:      "Generation jobs resolved as failed",
			}, []string{"kind", "server"}),
			CreditsSpent: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "genstudio",
				Name:      "credits_spent_total",
				Help:      "Credits debited for completed generations",
			}),
			VouchersRedeemed: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "genstudio",
				Name:      "vouchers_redeemed_total",
				Help:      "Vouchers successfully redeemed",
			}),
			ReconcileConflicts: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "genstudio",
				Name:      "reconcile_conflicts_total",
				Help:      "Settlement attempts that hit a conditional update conflict",
			}),
		}
		prometheus.MustRegister(
			global.GenerationsStarted,
			global.GenerationsCompleted,
			global.GenerationsFailed,
			global.CreditsSpent,
			global.VouchersRedeemed,
			global.ReconcileConflicts,
		)
	})
	return global
}
