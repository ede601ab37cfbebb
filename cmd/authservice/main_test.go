package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/petauth/internal/testutil"
)

func Test_run(t *testing.T) {
	// Empty working directory: no '.env' file to pick up
	getwd := func() (string, error) { return t.TempDir(), nil }
	noenv := func(string) string { return "" }

	t.Run("serve until context cancelled", func(t *testing.T) {
		port, err := testutil.RandomPort()
		require.NoError(t, err, "failed to get random port to start server")
		listenAddr := fmt.Sprintf("localhost:%d", port)

		ctx, cancel := context.WithCancel(context.Background())
		t.Cleanup(cancel)

		done := make(chan error, 1)
		go func() {
			done <- run(ctx, noenv, getwd, []string{
				"--address", listenAddr,
				"--log-level", "debug",
				"--environment", "dev",
				"--database", "sqlite://" + filepath.Join(t.TempDir(), "auth.db"),
				"--access-secret", testAccessSecret,
				"--refresh-secret", testRefreshSecret,
			})
		}()

		// Wait until server is up
		require.Eventually(t, func() bool {
			resp, err := http.Get("http://" + listenAddr + "/health")
			if err != nil {
				return false
			}
			defer resp.Body.Close() // nolint:errcheck
			body, _ := io.ReadAll(resp.Body)
			return resp.StatusCode == http.StatusOK && len(body) > 0
		}, 5*time.Second, 50*time.Millisecond, "server should start")

		cancel()

		select {
		case err := <-done:
			require.NoError(t, err, "on correct stop should not return error")
		case <-time.After(10 * time.Second):
			t.Fatal("server did not stop")
		}
	})

	t.Run("stop with timeout", func(t *testing.T) {
		port, err := testutil.RandomPort()
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond) // Half Second
		t.Cleanup(cancel)

		err = run(ctx, noenv, getwd, []string{
			"--address", fmt.Sprintf("localhost:%d", port),
			"--database", "sqlite://:memory:",
			"--access-secret", testAccessSecret,
			"--refresh-secret", testRefreshSecret,
		})

		require.NoError(t, err, "on correct stop should not return error")
	})

	t.Run("config from environment", func(t *testing.T) {
		port, err := testutil.RandomPort()
		require.NoError(t, err)

		env := map[string]string{
			"RUN_ADDRESS":        fmt.Sprintf("localhost:%d", port),
			"DATABASE_URI":       "sqlite://:memory:",
			"JWT_ACCESS_SECRET":  testAccessSecret,
			"JWT_REFRESH_SECRET": testRefreshSecret,
		}
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		t.Cleanup(cancel)

		err = run(ctx, func(key string) string { return env[key] }, getwd, nil)

		require.NoError(t, err)
	})

	t.Run("fail without secrets", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond) // Half Second
		t.Cleanup(cancel)

		err := run(ctx, noenv, getwd, []string{
			"--database", "sqlite://:memory:",
		})

		require.Error(t, err, "must not start without secrets")
	})

	t.Run("fail with unknown environment", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		t.Cleanup(cancel)

		err := run(ctx, noenv, getwd, []string{
			"--database", "sqlite://:memory:",
			"--environment", "staging",
			"--access-secret", testAccessSecret,
			"--refresh-secret", testRefreshSecret,
		})

		require.Error(t, err)
	})

	t.Run("fail with broken .env", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("JWT_ACCESS_EXPIRES_IN=soon\n"), 0o600))

		err := run(context.Background(), noenv, func() (string, error) { return dir, nil }, nil)

		require.Error(t, err)
	})
}
