package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	pollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opennotify_tracker_polls_total",
			Help: "Total number of tracker poll cycles by result.",
		},
		[]string{"result"},
	)

	pollDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "opennotify_tracker_poll_duration_seconds",
			Help:    "Duration of tracker poll cycles in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)

	stepErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opennotify_tracker_step_errors_total",
			Help: "Total number of failed tracker steps by endpoint.",
		},
		[]string{"step"},
	)

	eventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opennotify_events_published_total",
			Help: "Total number of events delivered to publishers by kind.",
		},
		[]string{"kind"},
	)

	issPosition = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "opennotify_iss_position_degrees",
			Help: "Last observed ISS ground position.",
		},
		[]string{"axis"},
	)

	peopleInSpace = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "opennotify_people_in_space",
			Help: "Number of people in space reported by the last astros poll.",
		},
	)
)

func init() {
	prometheus.MustRegister(pollsTotal)
	prometheus.MustRegister(pollDurationSeconds)
	prometheus.MustRegister(stepErrorsTotal)
	prometheus.MustRegister(eventsPublishedTotal)
	prometheus.MustRegister(issPosition)
	prometheus.MustRegister(peopleInSpace)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordPoll records the outcome and duration of one poll cycle.
func RecordPoll(duration time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	pollsTotal.WithLabelValues(result).Inc()
	pollDurationSeconds.Observe(duration.Seconds())
}

// IncStepError counts a failed tracker step.
func IncStepError(step string) {
	stepErrorsTotal.WithLabelValues(step).Inc()
}

// AddEventsPublished counts deliveries of an event kind.
func AddEventsPublished(kind string, delivered int) {
	if delivered <= 0 {
		return
	}
	eventsPublishedTotal.WithLabelValues(kind).Add(float64(delivered))
}

// SetISSPosition updates the last observed position gauges.
func SetISSPosition(lat, lon float64) {
	issPosition.WithLabelValues("latitude").Set(lat)
	issPosition.WithLabelValues("longitude").Set(lon)
}

// SetPeopleInSpace updates the crew gauge.
func SetPeopleInSpace(n int) {
	peopleInSpace.Set(float64(n))
}
