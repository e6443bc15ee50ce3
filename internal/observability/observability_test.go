package observability

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_IsolatedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	m.Aggregations.WithLabelValues("staged", "").Inc()
	m.Aggregations.WithLabelValues("no_action", "lost_race").Inc()
	m.Aggregations.WithLabelValues("no_action", "lost_race").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Aggregations.WithLabelValues("no_action", "lost_race")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Aggregations.WithLabelValues("staged", "")))

	n, err := testutil.GatherAndCount(reg, "test_discovery_aggregations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRecordBroadcast(t *testing.T) {
	ok := DefaultMetrics.Broadcasts.WithLabelValues("sell", "success")
	failed := DefaultMetrics.Broadcasts.WithLabelValues("sell", "error")
	okBefore, failedBefore := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	RecordBroadcast("sell", nil)
	RecordBroadcast("sell", errors.New("boom"))
	RecordBroadcast("sell", errors.New("boom"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	assert.Equal(t, failedBefore+2, testutil.ToFloat64(failed))
}

func TestMux(t *testing.T) {
	srv := httptest.NewServer(NewMux(func() any {
		return map[string]int{"sweeps": 3}
	}))
	defer srv.Close()

	get := func(path string) (int, string) {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(body)
	}

	code, body := get("/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body)

	code, body = get("/status")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"sweeps":3}`, body)

	RecordSweep("discovery", "success", 0.2)
	code, body = get("/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, strings.Contains(body, "risk_ladder_sweep_runs_total"))
}

func TestMux_NilStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	NewMux(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"running"}`, rec.Body.String())
}
