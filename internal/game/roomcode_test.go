package game

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUsesAlphabet(t *testing.T) {
	gen := NewCodeGenerator()
	code, err := gen.Generate(func(string) bool { return false })
	require.NoError(t, err)
	assert.Len(t, code, roomCodeLength)
	for _, r := range code {
		assert.True(t, strings.ContainsRune(roomCodeAlphabet, r), "unexpected character %q", r)
	}
}

func TestGenerateRetriesOnCollision(t *testing.T) {
	gen := NewCodeGenerator()
	calls := 0
	code, err := gen.Generate(func(string) bool {
		calls++
		return calls < 4
	})
	require.NoError(t, err)
	assert.NotEmpty(t, code)
	assert.Equal(t, 4, calls)
}

func TestGenerateGivesUp(t *testing.T) {
	gen := NewCodeGenerator()
	calls := 0
	_, err := gen.Generate(func(string) bool {
		calls++
		return true
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrResourceExhausted))
	assert.Equal(t, roomCodeMaxRetries, calls)
}

func TestGenerateRandomFailure(t *testing.T) {
	gen := NewCodeGenerator()
	gen.random = func([]byte) (int, error) { return 0, errors.New("entropy gone") }
	_, err := gen.Generate(func(string) bool { return false })
	require.Error(t, err)
	assert.Equal(t, CodeInternal, CodeOf(err))
}

func TestNormalizeCode(t *testing.T) {
	cases := map[string]string{
		"qqqqq":   "QQQQQ",
		" ab1c2 ": "AB1C2",
		"iLoO5":   "11005",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeCode(in), "input %q", in)
	}
}
