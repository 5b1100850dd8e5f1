package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	// RequestsInFlight mirrors the fetch wrapper's pending counter.
	RequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "multipaga_requests_in_flight",
		Help: "The number of API requests currently in flight",
	})

	// RequestsTotal counts completed API requests by method and status code.
	// Transport failures are labelled with status "error".
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "multipaga_requests_total",
		Help: "The total number of API requests by method and status",
	}, []string{"method", "status"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "multipaga_request_duration_seconds",
		Help:    "The API request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	TokenRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "multipaga_token_refresh_total",
		Help: "The total number of access token refreshes by outcome",
	}, []string{"outcome"})

	ForcedLogoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "multipaga_forced_logouts_total",
		Help: "The total number of sessions ended without the user asking",
	}, []string{"reason"})

	SignInTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "multipaga_sign_in_total",
		Help: "The total number of sign in attempts by method and outcome",
	}, []string{"method", "outcome"})
)

// StatusLabel converts a status code to a label, 0 meaning no response.
func StatusLabel(status int) string {
	if status == 0 {
		return "error"
	}
	return strconv.Itoa(status)
}

// Outcome maps an error to a success or failure label.
func Outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
