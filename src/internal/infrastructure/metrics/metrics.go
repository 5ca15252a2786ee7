// Package metrics Prometheus 指標
package metrics

import (
	"time"

	"github.com/jackyeh168/gym_crm/src/internal/domain/shared"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// OutcomeOK 成功的 outcome 標籤值；失敗時使用錯誤代碼
const OutcomeOK = "ok"

var (
	LedgerOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymcore_ledger_operations_total",
			Help: "Total number of ledger operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	LedgerOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gymcore_ledger_operation_duration_seconds",
			Help:    "Duration of ledger operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// LedgerConflicts 樂觀鎖 compare-and-set 失敗次數
	LedgerConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymcore_ledger_version_conflicts_total",
			Help: "Total number of optimistic version conflicts in ledger writes",
		},
		[]string{"operation"},
	)

	NotificationsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymcore_notifications_issued_total",
			Help: "Total number of notifications created",
		},
		[]string{"kind"},
	)

	NotificationsDeduplicated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymcore_notifications_deduplicated_total",
			Help: "Total number of issue requests that found an existing notification",
		},
		[]string{"kind"},
	)

	TierChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymcore_tier_changes_total",
			Help: "Total number of member tier changes",
		},
		[]string{"tier"},
	)

	TierRecomputeFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymcore_tier_recompute_failures_total",
			Help: "Total number of failed member tier recomputations",
		},
	)

	TierNoQualifyingTier = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymcore_tier_no_qualifying_tier_total",
			Help: "Total number of recomputations where no active tier qualified",
		},
	)

	EventHandlerFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymcore_event_handler_failures_total",
			Help: "Total number of domain event handler failures",
		},
		[]string{"event_type"},
	)
)

// ObserveLedgerOperation 記錄 ledger 操作結果與耗時
//
// 用法：defer func() { metrics.ObserveLedgerOperation("confirm_payment", start, err) }()
func ObserveLedgerOperation(operation string, start time.Time, err error) {
	LedgerOperations.WithLabelValues(operation, Outcome(err)).Inc()
	LedgerOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// Outcome 錯誤對應的標籤值（穩定的錯誤代碼，避免高基數）
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	return shared.Describe(err).Code
}
