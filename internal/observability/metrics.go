// Package observability registers the Prometheus metrics exported on /metrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	workoutsRecorded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapty",
		Subsystem: "session",
		Name:      "workouts_recorded_total",
		Help:      "Workouts appended to a session list, by workout type.",
	}, []string{"type"})

	validationFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapty",
		Subsystem: "session",
		Name:      "validation_failures_total",
		Help:      "Form submissions that failed validation, by validation mode.",
	}, []string{"mode"})

	storageWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapty",
		Subsystem: "storage",
		Name:      "writes_total",
		Help:      "Whole-list storage writes, by outcome.",
	}, []string{"outcome"})

	geolocationFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mapty",
		Subsystem: "session",
		Name:      "geolocation_failures_total",
		Help:      "Session initialisations whose geolocation request failed.",
	})
)

func init() {
	prometheus.MustRegister(workoutsRecorded, validationFailures, storageWrites, geolocationFailures)
}

// RecordWorkout counts a workout appended to a session.
func RecordWorkout(kind string) {
	workoutsRecorded.WithLabelValues(kind).Inc()
}

// RecordValidationFailure counts a rejected or leniently accepted submission.
func RecordValidationFailure(mode string) {
	validationFailures.WithLabelValues(mode).Inc()
}

// RecordStorageWrite counts a storage write; err decides the outcome label.
func RecordStorageWrite(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	storageWrites.WithLabelValues(outcome).Inc()
}

// RecordGeolocationFailure counts a failed geolocation request.
func RecordGeolocationFailure() {
	geolocationFailures.Inc()
}
