package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/plc-visualizer/safety-dashboard/internal/config"
	"github.com/plc-visualizer/safety-dashboard/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLoggerLevelFromString(t *testing.T) {
	tests := map[string]zerolog.Level{
		"error": zerolog.ErrorLevel,
		"WARN":  zerolog.WarnLevel,
		"info":  zerolog.InfoLevel,
		"Debug": zerolog.DebugLevel,
		"":      zerolog.WarnLevel,
		"loud":  zerolog.WarnLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, loggerLevelFromString(in), in)
	}
}

func TestRenderCommand(t *testing.T) {
	out, err := execute(t, "render", "--width", "120")
	require.NoError(t, err)
	assert.Contains(t, out, "Safety Service Dashboard")
	assert.Contains(t, out, "v2.3 - Platform Area Monitoring")
	assert.Contains(t, out, "System Safe")
	assert.Contains(t, out, "No active faults")
}

func TestRenderCommand_SeededStepsAreDeterministic(t *testing.T) {
	first, err := execute(t, "render", "--seed", "7", "--steps", "200")
	require.NoError(t, err)
	second, err := execute(t, "render", "--seed", "7", "--steps", "200")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRenderCommand_UnknownProfile(t *testing.T) {
	_, err := execute(t, "render", "--profile", "nope")
	assert.Error(t, err)
}

func TestCatalogValidate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte(`
name: test
flags:
  - { id: online, label: Online, value: true, error_message: Offline, aggregate: true }
inputs:
  - { id: e-stop-0, label: E-Stop 0, state: false, category: Emergency Systems }
outputs:
  - { id: buzzer, label: Buzzer, state: false, category: Alarms }
alarms: [buzzer]
`), 0644))

	out, err := execute(t, "catalog", "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "ok (1 flags, 1 inputs, 1 outputs, 3 conditions)")
	assert.Contains(t, out, "initial state has 1 failed conditions")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(`
name: test
inputs:
  - { id: a, label: A, state: true, category: X }
alarms: [missing-buzzer]
`), 0644))
	_, err = execute(t, "catalog", "validate", bad)
	assert.Error(t, err)

	_, err = execute(t, "catalog", "validate")
	assert.Error(t, err)
}

func TestCatalogProfiles(t *testing.T) {
	out, err := execute(t, "catalog", "profiles")
	require.NoError(t, err)
	assert.Contains(t, out, "platform-v2.3 (default)")
	assert.Contains(t, out, "platform-core")
}

func TestNewServer_WiresRoutes(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Simulator.Enabled = false
	cfg.Catalog.Profile = "platform-core"

	s, err := newServer(cfg)
	require.NoError(t, err)
	assert.Nil(t, s.sim)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.start(ctx)

	srv := httptest.NewServer(s.echo)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap models.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Len(t, snap.State.Flags, 8)

	page, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer page.Body.Close()
	assert.Equal(t, http.StatusOK, page.StatusCode)

	shutdownCtx, done := context.WithTimeout(context.Background(), time.Second)
	defer done()
	require.NoError(t, s.shutdown(shutdownCtx))
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func TestRunServer_ShutdownClosesListener(t *testing.T) {
	port := freePort(t)
	cfg := config.DefaultConfig()
	cfg.Server.BindAddress = "127.0.0.1"
	cfg.Server.Port = port
	cfg.Simulator.Enabled = false
	cfg.Advanced.LogLevel = "error"
	cfg.Advanced.EnableRequestLogging = false

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- runServer(ctx, cfg, "test.config", io.Discard) }()

	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/api/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	// an open state stream must not hold up the shutdown
	stream, err := http.Get(base + "/api/state/stream")
	require.NoError(t, err)
	defer stream.Body.Close()

	start := time.Now()
	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("runServer did not return after cancel")
	}
	assert.Less(t, time.Since(start), shutdownTimeout)

	conn, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), 200*time.Millisecond)
	if err == nil {
		conn.Close()
	}
	assert.Error(t, err, "listener still accepting after shutdown")
}

func TestNewServer_BadCatalog(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Catalog.Profile = "does-not-exist"
	_, err := newServer(cfg)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "signal catalog"))
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	printBanner(&buf, config.DefaultConfig(), "/etc/safety-dashboard.config", "platform-v2.3", true)
	assert.Contains(t, buf.String(), "Simulated telemetry")
	assert.Contains(t, buf.String(), "http://0.0.0.0:8090")
}
