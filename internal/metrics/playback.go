// Package metrics provides Prometheus metrics for the playback session controller.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// No item or session identifiers in labels.
var (
	// SessionTransitionsTotal counts state machine transitions.
	SessionTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skystream_session_transitions_total",
		Help: "Total number of playback session state transitions, by source and target state.",
	}, []string{"from", "to"})

	// SessionState is 1 for the state the session is currently in.
	SessionState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "skystream_session_state",
		Help: "Current playback session state (1 = active).",
	}, []string{"state"})

	// ResolveFailuresTotal counts failed stream resolutions.
	ResolveFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skystream_resolve_failures_total",
		Help: "Total number of failed stream URL resolutions, by error kind.",
	}, []string{"kind"})

	// PlaybackErrorsTotal counts fatal engine errors.
	PlaybackErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skystream_playback_errors_total",
		Help: "Total number of fatal media engine errors, by error kind.",
	}, []string{"kind"})

	// QualityChangesTotal counts applied quality constraint changes.
	QualityChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skystream_quality_changes_total",
		Help: "Total number of quality constraint changes, by direction (downgrade/recover/manual).",
	}, []string{"direction"})

	// RebufferTotal counts entries into the buffering state.
	RebufferTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skystream_rebuffer_total",
		Help: "Total number of times playback entered the buffering state.",
	})

	// NetworkRetriesTotal counts automatic retries after a network timeout.
	NetworkRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skystream_network_retries_total",
		Help: "Total number of automatic playback retries after a network timeout.",
	})
)

// RecordState marks state as the current one among all known states.
func RecordState(state string, all []string) {
	for _, s := range all {
		v := 0.0
		if s == state {
			v = 1
		}
		SessionState.WithLabelValues(s).Set(v)
	}
}
