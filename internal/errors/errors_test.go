package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrConfig, "Something broke", "Try turning it off and on")
	msg := err.Error()

	assert.Contains(t, msg, "✗ Something broke")
	assert.Contains(t, msg, "Try turning it off and on")
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("underlying")
	err := WrapWithCode(cause, ErrInventory, "Parse failed", "Check the file")

	assert.Contains(t, err.Error(), "underlying")
	assert.True(t, stderrors.Is(err, cause))
}

func TestIsCode(t *testing.T) {
	err := New(ErrSelection, "nothing matched", "")
	assert.True(t, IsCode(err, ErrSelection))
	assert.False(t, IsCode(err, ErrConfig))
	assert.False(t, IsCode(nil, ErrConfig))
	assert.False(t, IsCode(stderrors.New("plain"), ErrConfig))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitNoHosts, ExitCode(New(ErrSelection, "x", "")))
	assert.Equal(t, ExitConfig, ExitCode(New(ErrConfig, "x", "")))
	assert.Equal(t, ExitConfig, ExitCode(New(ErrInventory, "x", "")))
	assert.Equal(t, ExitConfig, ExitCode(stderrors.New("plain")))

	wrapped := Wrap(New(ErrSelection, "inner", ""), "outer")
	require.NotNil(t, wrapped)
	// The outer code wins for wrapped structured errors.
	assert.Equal(t, ExitConfig, ExitCode(wrapped))
}
