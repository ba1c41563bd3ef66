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

func TestMetrics_ObserveAction(t *testing.T) {
	m := New()

	m.ObserveAction("details", "not_found")
	m.ObserveAction("details", "not_found")
	m.ObserveAction("index", "render_view")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.actionResults.WithLabelValues("details", "not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.actionResults.WithLabelValues("index", "render_view")))
}

func TestMetrics_ObserveRequest(t *testing.T) {
	m := New()

	m.ObserveRequest("/products", http.MethodGet, http.StatusOK, 15*time.Millisecond)

	assert.Equal(t, 1, testutil.CollectAndCount(m.requestDuration))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveAction("create_submit", "redirect")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `catalog_action_results_total{action="create_submit",result="redirect"} 1`)
	assert.True(t, strings.Contains(body, "go_goroutines"), "expected go collector output")
}

func TestMetrics_Lint(t *testing.T) {
	m := New()
	m.ObserveAction("index", "render_view")

	problems, err := testutil.GatherAndLint(m.Registry(), "catalog_action_results_total")
	require.NoError(t, err)
	assert.Empty(t, problems)
}
