package cli

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/hugo-lorenzo-mato/aiderkit/internal/core"
)

// fakeAider writes an executable shell script standing in for aider.
func fakeAider(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixtures need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "aider")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o700); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestProcessRunner_RunCapturesStdout(t *testing.T) {
	t.Parallel()
	path := fakeAider(t, `echo "args: $@"`)
	runner := NewProcessRunner(Config{Path: path, Timeout: 5 * time.Second}, nil)

	result, err := runner.Run(t.Context(), []string{"aider", "--model", "gpt-4o", "--message", "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(result.Stdout) != "args: --model gpt-4o --message hi" {
		t.Errorf("Stdout = %q", result.Stdout)
	}
	if result.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", result.ExitCode)
	}
}

func TestProcessRunner_NonZeroExitCarriesStderr(t *testing.T) {
	t.Parallel()
	path := fakeAider(t, `echo "API key not found" >&2; exit 3`)
	runner := NewProcessRunner(Config{Path: path}, nil)

	result, err := runner.Run(t.Context(), []string{"aider"})
	if !core.IsCategory(err, core.ErrCatExecution) {
		t.Fatalf("expected execution error, got %v", err)
	}
	if !strings.Contains(core.MessageOf(err), "API key not found") {
		t.Errorf("message %q should carry stderr", core.MessageOf(err))
	}
	if result == nil || result.ExitCode != 3 {
		t.Errorf("result = %+v, want exit code 3", result)
	}
}

func TestProcessRunner_MissingExecutable(t *testing.T) {
	t.Parallel()
	runner := NewProcessRunner(Config{Path: filepath.Join(t.TempDir(), "no-such-aider")}, nil)

	_, err := runner.Run(t.Context(), []string{"aider"})
	if err == nil {
		t.Fatal("expected error")
	}
	if err.(*core.DomainError).Code != core.CodeCommandNotFound {
		t.Errorf("code = %s, want %s", err.(*core.DomainError).Code, core.CodeCommandNotFound)
	}
}

func TestProcessRunner_PermissionDenied(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not enforced on Windows")
	}
	path := filepath.Join(t.TempDir(), "aider")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	runner := NewProcessRunner(Config{Path: path}, nil)

	_, err := runner.Run(t.Context(), []string{"aider"})
	var code string
	if de, ok := err.(*core.DomainError); ok {
		code = de.Code
	}
	if code != core.CodePermissionDenied {
		t.Errorf("err = %v, want %s", err, core.CodePermissionDenied)
	}
}

func TestProcessRunner_Timeout(t *testing.T) {
	t.Parallel()
	path := fakeAider(t, `sleep 5`)
	runner := NewProcessRunner(Config{Path: path, Timeout: 100 * time.Millisecond}, nil)

	start := time.Now()
	_, err := runner.Run(t.Context(), []string{"aider"})
	if de, ok := err.(*core.DomainError); !ok || de.Code != core.CodeTimeout {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if time.Since(start) > 4*time.Second {
		t.Errorf("timeout did not stop the process promptly")
	}
}

func TestProcessRunner_Cancelled(t *testing.T) {
	t.Parallel()
	path := fakeAider(t, `sleep 5`)
	runner := NewProcessRunner(Config{Path: path, Timeout: 10 * time.Second}, nil)

	ctx, cancel := context.WithCancel(t.Context())
	time.AfterFunc(100*time.Millisecond, cancel)

	_, err := runner.Run(ctx, []string{"aider"})
	if de, ok := err.(*core.DomainError); !ok || de.Code != core.CodeCancelled {
		t.Fatalf("expected cancelled error, got %v", err)
	}
}

func TestProcessRunner_ExtraEnvAndWorkDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := fakeAider(t, `echo "$AIDER_MODEL"; pwd`)
	runner := NewProcessRunner(Config{Path: path, WorkDir: dir}, nil)
	runner.SetEnv("AIDER_MODEL", "gpt-4o")

	result, err := runner.Run(t.Context(), []string{"aider"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(result.Stdout), "\n")
	if len(lines) != 2 || lines[0] != "gpt-4o" {
		t.Fatalf("Stdout = %q", result.Stdout)
	}
	resolved, _ := filepath.EvalSymlinks(dir)
	if lines[1] != dir && lines[1] != resolved {
		t.Errorf("work dir = %q, want %q", lines[1], dir)
	}
}

func TestProcessRunner_MultiWordPath(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("needs sh")
	}
	runner := NewProcessRunner(Config{Path: "sh -c"}, nil)

	result, err := runner.Run(t.Context(), []string{"aider", "echo multiword"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(result.Stdout) != "multiword" {
		t.Errorf("Stdout = %q", result.Stdout)
	}
}

func TestProcessRunner_EmptyArgv(t *testing.T) {
	t.Parallel()
	runner := NewProcessRunner(Config{}, nil)
	if _, err := runner.Run(t.Context(), nil); !core.IsCategory(err, core.ErrCatValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestProcessRunner_Spawn(t *testing.T) {
	t.Parallel()
	out := filepath.Join(t.TempDir(), "spawned")
	path := fakeAider(t, `touch "`+out+`"`)
	runner := NewProcessRunner(Config{Path: path}, nil)
	runner.Stdin = strings.NewReader("")
	runner.Stdout = &strings.Builder{}
	runner.Stderr = &strings.Builder{}

	proc, err := runner.Spawn(t.Context(), []string{"aider"})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	if proc.Pid() <= 0 {
		t.Errorf("Pid = %d", proc.Pid())
	}
	if err := proc.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("spawned process did not run: %v", err)
	}
}

func TestProcessRunner_Version(t *testing.T) {
	t.Parallel()
	path := fakeAider(t, `echo "aider 0.86.1"`)
	runner := NewProcessRunner(Config{Path: path}, nil)

	v, err := runner.Version(t.Context())
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if v != "0.86.1" {
		t.Errorf("Version = %q, want 0.86.1", v)
	}
}

func TestProcessRunner_CheckAvailability(t *testing.T) {
	t.Parallel()
	runner := NewProcessRunner(Config{Path: "definitely-not-installed-aider-xyz"}, nil)
	if _, err := runner.CheckAvailability(); !core.IsCategory(err, core.ErrCatExecution) {
		t.Fatalf("expected execution error, got %v", err)
	}
}

func TestClassifyError_FallsBackToStdout(t *testing.T) {
	t.Parallel()
	err := classifyError(&core.RunResult{Stdout: "working...\nModel not available", ExitCode: 1})
	if !strings.Contains(core.MessageOf(err), "Model not available") {
		t.Errorf("message = %q", core.MessageOf(err))
	}
}
