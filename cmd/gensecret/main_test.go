package main

import (
	"bytes"
	"crypto/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_run(t *testing.T) {
	t.Run("print two different secrets", func(t *testing.T) {
		var out bytes.Buffer

		err := run(&out, rand.Reader, nil)

		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, 2)

		access, ok := strings.CutPrefix(lines[0], "JWT_ACCESS_SECRET=")
		require.True(t, ok)
		refresh, ok := strings.CutPrefix(lines[1], "JWT_REFRESH_SECRET=")
		require.True(t, ok)

		require.Len(t, access, 2*SecretKeyBytesLen, "secret is hex encoded")
		require.Len(t, refresh, 2*SecretKeyBytesLen, "secret is hex encoded")
		require.NotEqual(t, access, refresh)
	})

	t.Run("custom length", func(t *testing.T) {
		var out bytes.Buffer

		err := run(&out, rand.Reader, []string{"--bytes", "48"})

		require.NoError(t, err)
		line := strings.Split(out.String(), "\n")[0]
		require.Len(t, strings.TrimPrefix(line, "JWT_ACCESS_SECRET="), 96)
	})

	t.Run("too short", func(t *testing.T) {
		err := run(&bytes.Buffer{}, rand.Reader, []string{"-b", "16"})

		require.Error(t, err)
	})

	t.Run("random source failure", func(t *testing.T) {
		err := run(&bytes.Buffer{}, strings.NewReader("not enough"), nil)

		require.Error(t, err)
	})
}
