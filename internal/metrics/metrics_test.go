package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitIsIdempotent(t *testing.T) {
	Init()
	Init()
	require.NotNil(t, ingestResultsTotal)
}

func TestObserveIngest(t *testing.T) {
	Init()
	before := testutil.ToFloat64(ingestResultsTotal.WithLabelValues("created"))
	ObserveIngest("created")
	after := testutil.ToFloat64(ingestResultsTotal.WithLabelValues("created"))
	assert.Equal(t, before+1, after)
}

func TestHandlerExposesCollectors(t *testing.T) {
	ObserveSummary("timeout", 2*time.Second)
	ObserveHTTPRequest(http.MethodGet, "/feed", http.StatusOK, 10*time.Millisecond)
	ObserveFollowChange("follow")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "readwatch_summarizer_outcomes_total"))
	assert.True(t, strings.Contains(body, "http_requests_total"))
	assert.True(t, strings.Contains(body, "readwatch_follow_changes_total"))
}
