package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	healthcheck "github.com/vladislavdragonenkov/storefront/internal/health"
	"github.com/vladislavdragonenkov/storefront/internal/version"
)

func TestStartMetricsServer_Endpoints(t *testing.T) {
	logger := log.WithField("test", "http")
	port := findFreePort(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	healthHandler := healthcheck.NewHandler(version.Version())
	srv := startMetricsServer(ctx, fmt.Sprintf("127.0.0.1:%d", port), logger, healthHandler)
	require.NotNil(t, srv)
	waitForHTTP(t, port)

	cases := []struct {
		path string
		body string
	}{
		{path: "/metrics"},
		{path: "/healthz"},
		{path: "/livez", body: "ok"},
		{path: "/readyz", body: "ready"},
	}
	for _, tc := range cases {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d%s", port, tc.path))
		require.NoError(t, err, tc.path)
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode, tc.path)
		require.NotEmpty(t, body, tc.path)
		if tc.body != "" {
			require.Equal(t, tc.body, string(body), tc.path)
		}
	}
}

func TestStartMetricsServer_ReadinessFailsOnUnhealthyStorage(t *testing.T) {
	logger := log.WithField("test", "http-readiness")
	port := findFreePort(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	healthHandler := healthcheck.NewHandler(version.Version())
	healthHandler.Register("storage", healthcheck.Func("storage", func(context.Context) error {
		return errors.New("connection refused")
	}))
	startMetricsServer(ctx, fmt.Sprintf("127.0.0.1:%d", port), logger, healthHandler)
	waitForHTTP(t, port)

	for _, path := range []string{"/readyz", "/healthz"} {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d%s", port, path))
		require.NoError(t, err)
		_ = resp.Body.Close()
		require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, path)
	}

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/livez", port))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode, "liveness ignores dependencies")
}

func TestStartMetricsServer_Shutdown(t *testing.T) {
	logger := log.WithField("test", "http-shutdown")
	port := findFreePort(t)

	ctx, cancel := context.WithCancel(context.Background())
	startMetricsServer(ctx, fmt.Sprintf("127.0.0.1:%d", port), logger, healthcheck.NewHandler(version.Version()))
	waitForHTTP(t, port)

	cancel()

	url := fmt.Sprintf("http://127.0.0.1:%d/livez", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return true
		}
		_ = resp.Body.Close()
		return false
	}, 2*time.Second, 20*time.Millisecond, "server should be stopped after context cancellation")
}

func TestShutdownHTTP_NilServer(_ *testing.T) {
	// Не должно паниковать.
	shutdownHTTP(nil, log.WithField("test", "http-nil"))
}

// findFreePort находит свободный порт для тестов.
func findFreePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	return listener.Addr().(*net.TCPAddr).Port
}

func waitForHTTP(t *testing.T, port int) {
	t.Helper()
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	require.Eventually(t, func() bool {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}, 2*time.Second, 20*time.Millisecond, "http server did not start")
}
