package metrics_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jihwankim/nado/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_ExposesCountersViaHandler(t *testing.T) {
	rec := metrics.NewRecorder()
	rec.CaseCompleted()
	rec.CaseCompleted()
	rec.CandidateFailureRecorded("candidate-1", "output-mismatch")
	rec.InfrastructureFailureRecorded("origin")

	srv := httptest.NewServer(rec.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body := make([]byte, 8192)
	n, _ := resp.Body.Read(body)
	text := string(body[:n])
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, text, "nado_candidate_failures_total")
	assert.Contains(t, text, "nado_infrastructure_failures_total")
}

func TestPushSummary_SetsLastRunDurationGauge(t *testing.T) {
	rec := metrics.NewRecorder()
	rec.PushSummary(metrics.RunSummary{CasesTotal: 3, Duration: 2500 * time.Millisecond})

	srv := httptest.NewServer(rec.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body := make([]byte, 8192)
	n, _ := resp.Body.Read(body)
	assert.Contains(t, string(body[:n]), "nado_last_run_duration_seconds 2.5")
}

func TestCaseStarted_TracksActiveWorkers(t *testing.T) {
	rec := metrics.NewRecorder()
	done := rec.CaseStarted()
	done()
}

func TestServer_DisabledReturnsNil(t *testing.T) {
	srv := metrics.Server(metrics.Config{Enabled: false}, metrics.NewRecorder())
	assert.Nil(t, srv)
}

func TestServer_EnabledBindsAddress(t *testing.T) {
	srv := metrics.Server(metrics.Config{Enabled: true, Address: "127.0.0.1:0"}, metrics.NewRecorder())
	require.NotNil(t, srv)
	assert.Equal(t, "127.0.0.1:0", srv.Addr)
}
