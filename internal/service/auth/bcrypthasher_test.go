package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func Test_BcryptHasher(t *testing.T) {
	t.Parallel()

	h := BcryptHasher{}

	t.Run("hash password", func(t *testing.T) {
		got, err := h.Hash("password")
		require.NoError(t, err)

		require.Len(t, got, 60, "bcrypt length is 60 letters as far as i know")
		require.Equal(t, "$2a$", got[:4], "bcrypt has should have prefix '$2a$'")

		cost, err := bcrypt.Cost([]byte(got))
		require.NoError(t, err)
		require.Equal(t, bcrypt.DefaultCost, cost)
	})

	t.Run("same password hashed twice differs", func(t *testing.T) {
		first, err := h.Hash("password")
		require.NoError(t, err)
		second, err := h.Hash("password")
		require.NoError(t, err)

		require.NotEqual(t, first, second, "every hash has its own salt")
		require.True(t, h.Verify(first, "password"))
		require.True(t, h.Verify(second, "password"))
	})

	t.Run("verify password ok", func(t *testing.T) {
		hash, err := h.Hash("password")
		require.NoError(t, err)

		require.True(t, h.Verify(hash, "password"))
	})

	t.Run("fail verify if wrong password", func(t *testing.T) {
		hash, err := h.Hash("password")
		require.NoError(t, err)

		require.False(t, h.Verify(hash, "wrong"))
		require.False(t, h.Verify(hash, "Password"), "comparison is case sensitive")
	})

	t.Run("empty password", func(t *testing.T) {
		hash, err := h.Hash("")
		require.NoError(t, err)

		require.True(t, h.Verify(hash, ""))
		require.False(t, h.Verify(hash, " "))
	})

	t.Run("long password", func(t *testing.T) {
		long := strings.Repeat("a", 1000)
		hash, err := h.Hash(long)
		require.NoError(t, err)

		require.True(t, h.Verify(hash, long))
		require.False(t, h.Verify(hash, long[:999]+"b"), "difference after 72 bytes matters")
	})

	t.Run("malformed hash never matches", func(t *testing.T) {
		for _, hash := range []string{"", "not-a-hash", "$2a$10$short"} {
			require.False(t, h.Verify(hash, "password"))
		}
	})
}
