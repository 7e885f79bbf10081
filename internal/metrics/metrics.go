package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Daemon counters, partitioned by decision branch, notification kind or
// suppression reason.

var (
	// Decision engine
	DecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "btapmd",
		Subsystem: "engine",
		Name:      "decisions_total",
		Help:      "Total override decisions, by policy branch",
	}, []string{"branch"})

	// Controller
	ModeEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "btapmd",
		Subsystem: "controller",
		Name:      "mode_events_total",
		Help:      "Total airplane mode events processed, by new signal value",
	}, []string{"airplane"})

	OverrideCallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "btapmd",
		Subsystem: "controller",
		Name:      "override_callbacks_total",
		Help:      "Total listener invocations, by effective mode",
	}, []string{"active"})

	OverrideSuppressedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "btapmd",
		Subsystem: "controller",
		Name:      "override_suppressed_total",
		Help:      "Total mode events that did not reach listeners, by reason",
	}, []string{"reason"})

	EventsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "btapmd",
		Subsystem: "controller",
		Name:      "events_dropped_total",
		Help:      "Total inbound events rejected because the queue was full",
	})

	// Sessions
	SessionsStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "btapmd",
		Subsystem: "session",
		Name:      "started_total",
		Help:      "Total airplane sessions opened",
	})

	SessionsReportedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "btapmd",
		Subsystem: "session",
		Name:      "reported_total",
		Help:      "Total airplane sessions closed and reported",
	})

	SessionsReplacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "btapmd",
		Subsystem: "session",
		Name:      "replaced_total",
		Help:      "Total open sessions discarded by a repeated airplane-on event",
	})

	SessionReportErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "btapmd",
		Subsystem: "session",
		Name:      "report_errors_total",
		Help:      "Total session reports the telemetry sink rejected",
	})

	UserTogglesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "btapmd",
		Subsystem: "session",
		Name:      "user_toggles_total",
		Help:      "Total user Bluetooth toggles during airplane mode, by new state",
	}, []string{"bluetooth"})

	// Notifications
	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "btapmd",
		Subsystem: "notify",
		Name:      "notifications_total",
		Help:      "Total notification requests, by kind and outcome",
	}, []string{"kind", "result"})

	ToastBudgetRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "btapmd",
		Subsystem: "notify",
		Name:      "toast_budget_remaining",
		Help:      "Legacy toast displays left before the ceiling is reached",
	})
)

// Label values shared by callers.
const (
	ResultSent      = "sent"
	ResultDropped   = "dropped"
	ResultFailed    = "failed"
	ResultThrottled = "throttled"

	ReasonSameState = "same_state"
	ReasonAdapterOn = "adapter_on"
)

// BoolLabel renders a boolean label value.
func BoolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
