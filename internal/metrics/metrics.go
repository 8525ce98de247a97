package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	assessmentSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindcoach_assessment_submissions_total",
			Help: "Assessment submissions by outcome",
		},
		[]string{"outcome"},
	)

	assessmentPercent = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mindcoach_assessment_percent",
			Help:    "Distribution of evaluated assessment percentages",
			Buckets: []float64{-50, 0, 20, 40, 60, 80, 100},
		},
	)

	trainingItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindcoach_training_items_total",
			Help: "Daily plan items marked, by activity and state",
		},
		[]string{"item", "completed"},
	)
)

// ObserveSubmission records one assessment submission. outcome is "saved",
// "save_failed" or "fetch_failed".
func ObserveSubmission(outcome string, percent int) {
	assessmentSubmissions.WithLabelValues(outcome).Inc()
	if outcome != "fetch_failed" {
		assessmentPercent.Observe(float64(percent))
	}
}

// ObserveTrainingItem records a daily plan update.
func ObserveTrainingItem(itemID string, completed bool) {
	state := "false"
	if completed {
		state = "true"
	}
	trainingItems.WithLabelValues(itemID, state).Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
