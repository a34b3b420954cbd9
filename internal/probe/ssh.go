package probe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rileyhilliard/ansimon/internal/logger"
)

// killGrace is how long a cancelled ssh process gets between SIGTERM and
// SIGKILL.
const killGrace = 2 * time.Second

// stderrLimit bounds how much remote stderr is buffered for diagnostics.
const stderrLimit = 4096

// Target is a fully resolved probe destination: inventory data merged with
// CLI overrides and ssh_config fallbacks.
type Target struct {
	Name    string
	Address string
	Port    int
	User    string
	KeyPath string
}

// Dest returns the ssh destination argument ("user@host" or "host").
func (t Target) Dest() string {
	if t.User != "" {
		return t.User + "@" + t.Address
	}
	return t.Address
}

// Runner executes metric probes against targets by invoking the ssh binary
// as a subprocess. The zero value is not usable; use NewRunner.
type Runner struct {
	// ConnectTimeout is passed to ssh -o ConnectTimeout.
	ConnectTimeout time.Duration

	log logger.Logger

	// command allows tests to substitute the remote command.
	command string
}

// NewRunner creates a runner with the given ssh connect timeout.
func NewRunner(connectTimeout time.Duration, log logger.Logger) *Runner {
	if log == nil {
		log = logger.Noop()
	}
	return &Runner{
		ConnectTimeout: connectTimeout,
		log:            log,
		command:        Command(),
	}
}

// Run executes one probe round trip and parses the result. The context
// bounds the whole probe; on cancellation the ssh child is terminated
// (SIGTERM to its process group, SIGKILL after a grace period) and a
// cancelled or timeout error is returned.
//
// The returned Sample's SSHLatencyMS is the wall clock from dispatch to the
// first byte on stdout.
func (r *Runner) Run(ctx context.Context, target Target) (*Sample, error) {
	args := r.sshArgs(target)
	cmd := exec.CommandContext(ctx, "ssh", args...)

	// Run the child in its own process group so cancellation kills the
	// whole ssh process tree, not just the leader.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
	}
	cmd.WaitDelay = killGrace

	var stderr bytes.Buffer
	cmd.Stderr = &limitWriter{w: &stderr, limit: stderrLimit}

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &Error{Kind: FailRemoteCommand, Detail: err.Error()}
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, &Error{Kind: FailRemoteCommand, Detail: err.Error()}
	}

	r.log.Debug("probe %s: ssh %s", target.Name, strings.Join(args, " "))

	stdout, firstByte := readAllTimed(stdoutPipe)
	waitErr := cmd.Wait()

	latencyMS := int64(0)
	if !firstByte.IsZero() {
		latencyMS = firstByte.Sub(start).Milliseconds()
	}

	if waitErr != nil {
		return nil, classify(ctx, waitErr, stderr.String())
	}

	sample, err := ParseSample(string(stdout), time.Now())
	if err != nil {
		return nil, err
	}
	sample.SSHLatencyMS = latencyMS
	return sample, nil
}

// sshArgs builds the ssh invocation for a target. Credentials never appear
// here, so the argument list is safe to log.
func (r *Runner) sshArgs(target Target) []string {
	args := []string{
		"-o", "BatchMode=yes",
		"-o", fmt.Sprintf("ConnectTimeout=%d", int(r.ConnectTimeout.Seconds())),
		"-o", "StrictHostKeyChecking=accept-new",
		"-o", "LogLevel=ERROR",
	}
	if target.Port > 0 && target.Port != 22 {
		args = append(args, "-p", fmt.Sprintf("%d", target.Port))
	}
	if target.KeyPath != "" {
		args = append(args, "-i", target.KeyPath)
	}
	args = append(args, target.Dest(), r.command)
	return args
}

// classify maps a subprocess failure to a probe error kind.
func classify(ctx context.Context, waitErr error, stderr string) *Error {
	tail := stderrTail(stderr)

	switch ctx.Err() {
	case context.DeadlineExceeded:
		return &Error{Kind: FailConnectTimeout, Detail: tail}
	case context.Canceled:
		return &Error{Kind: FailCancelled}
	}

	lower := strings.ToLower(tail)
	switch {
	case strings.Contains(lower, "permission denied"),
		strings.Contains(lower, "authentication failed"),
		strings.Contains(lower, "too many authentication failures"):
		return &Error{Kind: FailAuth, Detail: tail}
	case strings.Contains(lower, "connection timed out"),
		strings.Contains(lower, "operation timed out"):
		return &Error{Kind: FailConnectTimeout, Detail: tail}
	}

	exitCode := -1
	if ee, ok := waitErr.(*exec.ExitError); ok {
		exitCode = ee.ExitCode()
	}
	return &Error{Kind: FailRemoteCommand, ExitCode: exitCode, Detail: tail}
}

// readAllTimed drains the reader, recording when the first byte arrived.
func readAllTimed(r io.Reader) ([]byte, time.Time) {
	var (
		buf       bytes.Buffer
		firstByte time.Time
		chunk     [32 * 1024]byte
	)
	for {
		n, err := r.Read(chunk[:])
		if n > 0 {
			if firstByte.IsZero() {
				firstByte = time.Now()
			}
			buf.Write(chunk[:n])
		}
		if err != nil {
			return buf.Bytes(), firstByte
		}
	}
}

// limitWriter keeps only the first limit bytes written to it.
type limitWriter struct {
	mu    sync.Mutex
	w     *bytes.Buffer
	limit int
}

func (l *limitWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if remaining := l.limit - l.w.Len(); remaining > 0 {
		if len(p) > remaining {
			l.w.Write(p[:remaining])
		} else {
			l.w.Write(p)
		}
	}
	return len(p), nil
}
