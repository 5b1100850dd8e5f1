package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/multipaga/internal/metrics"
)

func TestLabels(t *testing.T) {
	require.Equal(t, "error", metrics.StatusLabel(0))
	require.Equal(t, "401", metrics.StatusLabel(401))
	require.Equal(t, metrics.OutcomeSuccess, metrics.Outcome(nil))
	require.Equal(t, metrics.OutcomeFailure, metrics.Outcome(errors.New("boom")))
}

func TestHandlerExposesCounters(t *testing.T) {
	metrics.ForcedLogoutsTotal.WithLabelValues("test").Inc()

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), `multipaga_forced_logouts_total{reason="test"} `))
	require.True(t, strings.Contains(rec.Body.String(), "multipaga_requests_in_flight"))
}
