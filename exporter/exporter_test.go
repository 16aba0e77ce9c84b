package exporter

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	v1 "github.com/erikmagkekse/zfs-exporter/exporter/api/v1"
	"github.com/erikmagkekse/zfs-exporter/exporter/zfs"
	"github.com/erikmagkekse/zfs-exporter/model"

	"github.com/juju/clock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

var t0 = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func testConfig() *model.ExporterConfig {
	return &model.ExporterConfig{
		ListenAddr:     "127.0.0.1:0",
		ScrapeInterval: time.Hour,
		InspectTimeout: time.Second,
		MaxConcurrency: 1,
	}
}

func twoPools() *zfs.RawPoolState {
	return &zfs.RawPoolState{
		CollectedAt: t0,
		Pools: []zfs.Pool{
			{Name: "tank", Health: zfs.HealthOnline, SizeBytes: 1000000000000, AllocatedBytes: 400000000000, FreeBytes: 600000000000, DedupRatio: 1},
			{Name: "backup", Health: zfs.HealthDegraded, SizeBytes: 500000000000, AllocatedBytes: 500000000000, DedupRatio: 1},
		},
	}
}

func newTestExporter(cfg *model.ExporterConfig, f zfs.PoolInspector) *Exporter {
	return newExporter(cfg, f, "v1.2.3", "abc123", "zfs-2.2.2", clock.WallClock)
}

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, model.MetricsPath, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func hasLine(body, line string) bool {
	for _, l := range strings.Split(body, "\n") {
		if l == line {
			return true
		}
	}
	return false
}

func TestMetricsWarmupTwoPools(t *testing.T) {
	f := &zfs.FakeInspector{Results: []zfs.FakeResult{{State: twoPools()}}}
	x := newTestExporter(testConfig(), f)

	// the first scrape never blocks on the inspection it triggers
	first := scrape(t, x.Handler())
	assert.Contains(t, first, "zfs_up")

	require.Eventually(t, func() bool { return x.cache.Get().Attempted() }, time.Second, 5*time.Millisecond)

	body := scrape(t, x.Handler())
	assert.True(t, hasLine(body, `zfs_pool_health{pool="tank"} 0`), body)
	assert.True(t, hasLine(body, `zfs_pool_health{pool="backup"} 1`), body)
	assert.True(t, hasLine(body, `zfs_up 1`), body)
	assert.Equal(t, 1, f.Calls())
}

func TestMetricsTimeoutOnFirstAttempt(t *testing.T) {
	cfg := testConfig()
	cfg.InspectTimeout = 20 * time.Millisecond
	f := &zfs.FakeInspector{Gate: make(chan struct{})}
	x := newTestExporter(cfg, f)

	require.True(t, x.scheduler.Collect(context.Background()))

	body := scrape(t, x.Handler())
	assert.True(t, hasLine(body, `zfs_up 0`), body)
	assert.True(t, hasLine(body, `zfs_collection_failure{kind="TIMEOUT"} 1`), body)
	assert.NotContains(t, body, "zfs_pool_")
}

func TestMetricsSuccessThenUnavailable(t *testing.T) {
	f := &zfs.FakeInspector{Results: []zfs.FakeResult{
		{State: twoPools()},
		{Err: &zfs.InspectionError{Kind: zfs.ErrNotAvailable, Message: "zpool list: zfs tools not found"}},
	}}
	x := newTestExporter(testConfig(), f)

	require.True(t, x.scheduler.Collect(context.Background()))
	for range 3 {
		require.True(t, x.scheduler.Collect(context.Background()))
	}

	body := scrape(t, x.Handler())
	assert.True(t, hasLine(body, `zfs_pool_health{pool="tank"} 0`), body)
	assert.True(t, hasLine(body, `zfs_pool_health{pool="backup"} 1`), body)
	assert.True(t, hasLine(body, `zfs_up 0`), body)
	assert.True(t, hasLine(body, `zfs_snapshot_stale 1`), body)
	assert.True(t, hasLine(body, `zfs_consecutive_failures 3`), body)
}

func TestHealthzAndStatus(t *testing.T) {
	f := &zfs.FakeInspector{Results: []zfs.FakeResult{{State: twoPools()}}}
	x := newTestExporter(testConfig(), f)
	srv := httptest.NewServer(x.Handler())
	defer srv.Close()
	client := v1.NewClient(srv.URL)

	health, err := client.Healthz(context.Background())
	require.NoError(t, err)
	assert.Equal(t, v1.StatusStarting, health.Status)
	assert.Equal(t, "v1.2.3", health.Version)
	assert.Equal(t, "zfs-2.2.2", health.ZFSVersion)

	status, err := client.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Up)
	assert.Nil(t, status.AttemptedAt)
	assert.Empty(t, status.Pools)

	require.True(t, x.scheduler.Collect(context.Background()))

	health, err = client.Healthz(context.Background())
	require.NoError(t, err)
	assert.Equal(t, v1.StatusOK, health.Status)

	status, err = client.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Up)
	assert.False(t, status.Stale)
	assert.Equal(t, "idle", status.State)
	assert.ElementsMatch(t, []string{"tank", "backup"}, status.Pools)
	require.NotNil(t, status.SnapshotTimestamp)
	assert.True(t, status.SnapshotTimestamp.Equal(t0))
}

func TestClientError(t *testing.T) {
	x := newTestExporter(testConfig(), &zfs.FakeInspector{})
	srv := httptest.NewServer(x.Handler())
	defer srv.Close()

	_, err := v1.NewClient(srv.URL+"/nope").Status(context.Background())
	var ee *v1.ExporterError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, http.StatusNotFound, ee.StatusCode)
}

func TestLanding(t *testing.T) {
	x := newTestExporter(testConfig(), &zfs.FakeInspector{})
	rec := httptest.NewRecorder()
	x.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/metrics"`)
	assert.Contains(t, rec.Body.String(), "starting")
}

func TestRunBindFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := testConfig()
	cfg.ListenAddr = ln.Addr().String()
	x := newTestExporter(cfg, &zfs.FakeInspector{})

	err = x.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), cfg.ListenAddr)
}

func TestServeGracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	f := &zfs.FakeInspector{Results: []zfs.FakeResult{{State: twoPools()}}}
	x := newTestExporter(testConfig(), f)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- x.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + model.MetricsPath
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
