// Package cli runs the aider executable as a child process.
package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/hugo-lorenzo-mato/aiderkit/internal/core"
	"github.com/hugo-lorenzo-mato/aiderkit/internal/logging"
)

// DefaultTimeout bounds a captured run when no timeout is configured.
const DefaultTimeout = time.Hour

// DefaultGracePeriod is how long a cancelled process gets between SIGTERM and SIGKILL.
const DefaultGracePeriod = 5 * time.Second

// Config holds runner configuration.
type Config struct {
	// Path replaces argv[0]. It may hold several words ("uvx aider-chat").
	Path    string
	WorkDir string
	Timeout time.Duration
	// ExtraEnv is applied on top of the current process environment.
	ExtraEnv map[string]string
}

// ProcessRunner implements core.Runner with os/exec.
type ProcessRunner struct {
	config Config
	logger *logging.Logger

	// Terminal streams for Spawn. Default to the process's own.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewProcessRunner creates a runner.
func NewProcessRunner(cfg Config, logger *logging.Logger) *ProcessRunner {
	if logger == nil {
		logger = logging.NewNop()
	}
	if cfg.ExtraEnv == nil {
		cfg.ExtraEnv = make(map[string]string)
	}
	return &ProcessRunner{
		config: cfg,
		logger: logger,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Config returns the runner configuration.
func (r *ProcessRunner) Config() Config {
	return r.config
}

// SetEnv adds an environment variable for every later invocation.
func (r *ProcessRunner) SetEnv(key, value string) {
	r.config.ExtraEnv[key] = value
}

// Run executes argv and captures its output.
func (r *ProcessRunner) Run(ctx context.Context, argv []string) (*core.RunResult, error) {
	timeout := r.config.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd, err := r.command(ctx, argv)
	if err != nil {
		return nil, err
	}
	configureProcAttr(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Info("cli: executing command",
		"path", cmd.Path,
		"args", cmd.Args,
		"work_dir", cmd.Dir,
		"timeout", timeout,
	)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, r.startError(cmd.Path, err)
	}
	r.logger.Debug("cli: process started", "pid", cmd.Process.Pid)

	err = cmd.Wait()
	result := &core.RunResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		r.logger.Error("cli: command timeout",
			"path", cmd.Path,
			"duration", result.Duration,
			"stderr_preview", truncateForLog(result.Stderr, 1000),
		)
		return result, core.ErrExecution(core.CodeTimeout,
			fmt.Sprintf("aider timed out after %v", timeout)).WithDetail("stderr", result.Stderr)
	case errors.Is(ctx.Err(), context.Canceled):
		r.logger.Info("cli: command cancelled", "path", cmd.Path, "duration", result.Duration)
		return result, core.ErrExecution(core.CodeCancelled, "aider run cancelled")
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			r.logger.Error("cli: command failed",
				"path", cmd.Path,
				"exit_code", result.ExitCode,
				"duration", result.Duration,
				"stderr", truncateForLog(result.Stderr, 2000),
			)
			return result, classifyError(result)
		}
		r.logger.Error("cli: command execution error", "path", cmd.Path, "error", err)
		return result, core.ErrExecution(core.CodeCommandFailed, err.Error()).WithCause(err)
	}

	r.logger.Info("cli: command completed",
		"path", cmd.Path,
		"duration", result.Duration,
		"stdout_length", len(result.Stdout),
		"stdout_preview", truncateForLog(result.Stdout, 300),
	)
	return result, nil
}

// Spawn starts argv attached to the runner's terminal streams.
func (r *ProcessRunner) Spawn(ctx context.Context, argv []string) (core.Process, error) {
	cmd, err := r.command(ctx, argv)
	if err != nil {
		return nil, err
	}
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	r.logger.Info("cli: spawning interactive session", "path", cmd.Path, "args", cmd.Args)
	if err := cmd.Start(); err != nil {
		return nil, r.startError(cmd.Path, err)
	}
	return &process{cmd: cmd}, nil
}

// CheckAvailability verifies the executable is installed and on PATH.
func (r *ProcessRunner) CheckAvailability() (string, error) {
	name := "aider"
	if parts := strings.Fields(r.config.Path); len(parts) > 0 {
		name = parts[0]
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", core.ErrExecution(core.CodeCommandNotFound,
			fmt.Sprintf("%s not found on PATH; install it with: pip install aider-chat", name)).WithCause(err)
	}
	return path, nil
}

var versionPattern = regexp.MustCompile(`v?\d+\.\d+(\.\d+)?(-[a-zA-Z0-9.]+)?`)

// Version runs "aider --version" and extracts the version string.
func (r *ProcessRunner) Version(ctx context.Context) (string, error) {
	result, err := r.Run(ctx, []string{"aider", "--version"})
	if err != nil {
		return "", err
	}
	output := result.Stdout + result.Stderr
	if match := versionPattern.FindString(output); match != "" {
		return match, nil
	}
	return strings.TrimSpace(output), nil
}

// command builds the exec.Cmd, substituting the configured path for argv[0].
func (r *ProcessRunner) command(ctx context.Context, argv []string) (*exec.Cmd, error) {
	if len(argv) == 0 {
		return nil, core.ErrValidation(core.CodeInvalidFormat, "empty argument list")
	}
	name, args := argv[0], argv[1:]
	if parts := strings.Fields(r.config.Path); len(parts) > 0 {
		name = parts[0]
		args = append(append([]string{}, parts[1:]...), args...)
	}

	// #nosec G204 -- argv is compiled from typed options
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.config.WorkDir
	cmd.Env = os.Environ()
	for k, v := range r.config.ExtraEnv {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Cancel = func() error { return terminate(cmd) }
	cmd.WaitDelay = DefaultGracePeriod
	return cmd, nil
}

func (r *ProcessRunner) startError(path string, err error) error {
	r.logger.Error("cli: failed to start", "path", path, "error", err)
	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return core.ErrExecution(core.CodeCommandNotFound,
			fmt.Sprintf("aider executable not found (%s); install it with: pip install aider-chat", path)).WithCause(err)
	case errors.Is(err, fs.ErrPermission):
		return core.ErrExecution(core.CodePermissionDenied,
			fmt.Sprintf("permission denied running %s", path)).WithCause(err)
	default:
		return core.ErrExecution(core.CodeCommandFailed,
			fmt.Sprintf("starting %s: %v", path, err)).WithCause(err)
	}
}

// classifyError converts a non-zero exit into an execution error carrying stderr.
func classifyError(result *core.RunResult) error {
	msg := strings.TrimSpace(result.Stderr)
	if msg == "" {
		msg = lastLine(result.Stdout)
	}
	if msg == "" {
		msg = "(no error message captured)"
	}
	return core.ErrExecution(core.CodeCommandFailed,
		fmt.Sprintf("aider command failed (exit %d): %s", result.ExitCode, msg)).
		WithDetail("exit_code", result.ExitCode).
		WithDetail("stderr", result.Stderr)
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	line := strings.TrimSpace(lines[len(lines)-1])
	if len(line) > 200 {
		return line[:200] + "..."
	}
	return line
}

func truncateForLog(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "... [truncated]"
	}
	return s
}

type process struct {
	cmd *exec.Cmd
}

func (p *process) Pid() int {
	return p.cmd.Process.Pid
}

func (p *process) Wait() error {
	err := p.cmd.Wait()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return core.ErrExecution(core.CodeCommandFailed,
			fmt.Sprintf("interactive aider session exited with code %d", exitErr.ExitCode())).WithCause(err)
	}
	return err
}

var _ core.Runner = (*ProcessRunner)(nil)
