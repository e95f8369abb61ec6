package email

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Run("lowercases and trims", func(t *testing.T) {
		got, err := Normalize("  Jane.Nguyen@Example.COM ")
		require.NoError(t, err)
		assert.Equal(t, "jane.nguyen@example.com", got)
	})

	for _, raw := range []string{
		"",
		"jane",
		"jane@",
		"@example.com",
		"jane@localhost",
		"Jane <jane@example.com>",
		strings.Repeat("a", 250) + "@example.com",
	} {
		t.Run("rejects "+raw, func(t *testing.T) {
			_, err := Normalize(raw)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}
