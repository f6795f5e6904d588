package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTicketCode(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		code, err := GenerateTicketCode(12)
		require.NoError(t, err)
		require.Len(t, code, 12)
		for _, r := range code {
			assert.Contains(t, codeAlphabet, string(r))
		}
		_, dup := seen[code]
		assert.False(t, dup, "duplicate code %q", code)
		seen[code] = struct{}{}
	}
}

func TestGenerateTicketCode_Lengths(t *testing.T) {
	for _, n := range []int{1, 8, 32} {
		code, err := GenerateTicketCode(n)
		require.NoError(t, err)
		assert.Len(t, code, n)
	}
}
