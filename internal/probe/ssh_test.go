package probe

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_AuthFailure(t *testing.T) {
	err := classify(context.Background(), errors.New("exit status 255"),
		"deploy@10.0.0.1: Permission denied (publickey,password).\n")
	assert.Equal(t, FailAuth, err.Kind)
	assert.Contains(t, err.Detail, "Permission denied")
}

func TestClassify_ConnectionTimedOut(t *testing.T) {
	err := classify(context.Background(), errors.New("exit status 255"),
		"ssh: connect to host 10.0.0.1 port 22: Connection timed out\n")
	assert.Equal(t, FailConnectTimeout, err.Kind)
}

func TestClassify_DeadlineExceeded(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	err := classify(ctx, errors.New("signal: terminated"), "")
	assert.Equal(t, FailConnectTimeout, err.Kind)
}

func TestClassify_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := classify(ctx, errors.New("signal: terminated"), "")
	assert.Equal(t, FailCancelled, err.Kind)
}

func TestClassify_RemoteCommandFailure(t *testing.T) {
	err := classify(context.Background(), errors.New("exit status 127"),
		"sh: nproc: not found\n")
	assert.Equal(t, FailRemoteCommand, err.Kind)
	assert.Contains(t, err.Detail, "nproc")
}

func TestLimitWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &limitWriter{w: &buf, limit: 10}

	n, err := w.Write([]byte("0123456789abcdef"))
	require.NoError(t, err)
	// Writers must report full consumption so the producer never errors.
	assert.Equal(t, 16, n)
	assert.Equal(t, "0123456789", buf.String())

	_, err = w.Write([]byte("more"))
	require.NoError(t, err)
	assert.Equal(t, "0123456789", buf.String())
}

func TestReadAllTimed(t *testing.T) {
	data, firstByte := readAllTimed(strings.NewReader("hello world"))
	assert.Equal(t, "hello world", string(data))
	assert.False(t, firstByte.IsZero())

	data, firstByte = readAllTimed(strings.NewReader(""))
	assert.Empty(t, data)
	assert.True(t, firstByte.IsZero(), "no bytes means no first-byte time")
}
