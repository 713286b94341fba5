// Package ytdlp drives the yt-dlp binary to enumerate channels and fetch
// video metadata.
package ytdlp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"mailscout/internal/platform/logx"
)

// DefaultBinary is looked up in PATH when no path is configured.
const DefaultBinary = "yt-dlp"

// Runner executes one yt-dlp invocation. stderr is returned even when the
// process fails so callers can classify the failure.
type Runner interface {
	Run(ctx context.Context, args []string) (stdout []byte, stderr string, err error)
}

// ExecRunner runs the real binary. It tracks live processes so Close can
// terminate them.
type ExecRunner struct {
	execPath string
	logger   logx.Logger

	mu     sync.Mutex
	procs  map[*exec.Cmd]struct{}
	closed bool
}

// NewExecRunner creates a runner for the binary at execPath (DefaultBinary
// when empty).
func NewExecRunner(execPath string, logger logx.Logger) *ExecRunner {
	if execPath == "" {
		execPath = DefaultBinary
	}
	if logger == nil {
		logger = logx.NewNop()
	}
	return &ExecRunner{
		execPath: execPath,
		logger:   logger.With("component", "ytdlp-runner"),
		procs:    make(map[*exec.Cmd]struct{}),
	}
}

// Init resolves the binary in PATH and logs its version.
func (r *ExecRunner) Init(ctx context.Context) error {
	path, err := exec.LookPath(r.execPath)
	if err != nil {
		return fmt.Errorf("yt-dlp not found (%s): %w (install: pip install -U yt-dlp)", r.execPath, err)
	}
	r.execPath = path

	vctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out, err := exec.CommandContext(vctx, r.execPath, "--version").Output()
	if err != nil {
		r.logger.Debug("version check failed (non-fatal)", "error", err.Error())
		return nil
	}
	r.logger.Debug("yt-dlp found", "path", path, "version", strings.TrimSpace(string(out)))
	return nil
}

// Path returns the resolved binary path.
func (r *ExecRunner) Path() string {
	return r.execPath
}

// Run executes yt-dlp with args and waits for it to exit.
func (r *ExecRunner) Run(ctx context.Context, args []string) ([]byte, string, error) {
	cmd := exec.CommandContext(ctx, r.execPath, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, "", fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, "", fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, "", fmt.Errorf("failed to start yt-dlp: %w", err)
	}
	if err := r.track(cmd); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, "", err
	}
	defer r.untrack(cmd)

	// stderr is drained concurrently so a chatty process cannot block on it
	var errBuf bytes.Buffer
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := io.Copy(&errBuf, stderr); err != nil {
			r.logger.Debug("error reading stderr", "error", err.Error())
		}
	}()

	out, readErr := io.ReadAll(stdout)
	wg.Wait()
	waitErr := cmd.Wait()

	if waitErr != nil {
		return out, errBuf.String(), fmt.Errorf("yt-dlp exited with error: %w", waitErr)
	}
	if readErr != nil {
		return out, errBuf.String(), fmt.Errorf("failed to read yt-dlp output: %w", readErr)
	}
	return out, errBuf.String(), nil
}

// Close interrupts every running process, killing those that refuse.
// Safe to call multiple times.
func (r *ExecRunner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	for cmd := range r.procs {
		if err := cmd.Process.Signal(os.Interrupt); err != nil && err != os.ErrProcessDone {
			r.logger.Warn("interrupt failed, forcing kill", "error", err.Error())
			if killErr := cmd.Process.Kill(); killErr != nil && killErr != os.ErrProcessDone {
				r.logger.Warn("failed to kill process", "error", killErr.Error())
			}
		}
	}
	return nil
}

func (r *ExecRunner) track(cmd *exec.Cmd) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return fmt.Errorf("yt-dlp runner is closed")
	}
	r.procs[cmd] = struct{}{}
	return nil
}

func (r *ExecRunner) untrack(cmd *exec.Cmd) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.procs, cmd)
}
