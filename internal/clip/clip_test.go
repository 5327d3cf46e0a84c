package clip

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteAll_NativeSuccess(t *testing.T) {
	t.Cleanup(resetStubs())
	nativeWriteAll = func(_ string) error { return nil }
	osc52WriteAll = func(_ string) error {
		t.Fatal("osc52 should not be called when native succeeds")
		return nil
	}

	got, err := WriteAll("hello")
	if err != nil {
		t.Fatalf("WriteAll returned error: %v", err)
	}
	if got.Method != MethodNative {
		t.Fatalf("Method=%q, want %q", got.Method, MethodNative)
	}
	if got.FilePath != "" {
		t.Fatalf("FilePath=%q, want empty", got.FilePath)
	}
}

func TestWriteAll_OSC52Fallback(t *testing.T) {
	t.Cleanup(resetStubs())
	nativeWriteAll = func(_ string) error { return errFake("native failed") }
	osc52WriteAll = func(_ string) error { return nil }

	got, err := WriteAll("hello")
	if err != nil {
		t.Fatalf("WriteAll returned error: %v", err)
	}
	if got.Method != MethodOSC52 {
		t.Fatalf("Method=%q, want %q", got.Method, MethodOSC52)
	}
	if got.FilePath != "" {
		t.Fatalf("FilePath=%q, want empty", got.FilePath)
	}
}

func TestWriteAll_FileFallback(t *testing.T) {
	t.Cleanup(resetStubs())
	nativeWriteAll = func(_ string) error { return errFake("native failed") }
	osc52WriteAll = func(_ string) error { return errFake("osc52 failed") }
	dir := t.TempDir()
	tempDir = func() string { return dir }

	got, err := WriteAll("hello")
	if err != nil {
		t.Fatalf("WriteAll returned error: %v", err)
	}
	if got.Method != MethodFile {
		t.Fatalf("Method=%q, want %q", got.Method, MethodFile)
	}
	if got.FilePath == "" {
		t.Fatalf("FilePath is empty")
	}
	if filepath.Dir(got.FilePath) != dir || !strings.HasPrefix(filepath.Base(got.FilePath), "aiderkit-command-") {
		t.Fatalf("FilePath=%q, want aiderkit-command-* in %s", got.FilePath, dir)
	}

	b, err := os.ReadFile(got.FilePath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(b) != "hello" {
		t.Fatalf("file contents=%q, want %q", string(b), "hello")
	}
}

type errFake string

func (e errFake) Error() string { return string(e) }

func resetStubs() func() {
	origNative := nativeWriteAll
	origOSC52 := osc52WriteAll
	origTempDir := tempDir
	return func() {
		nativeWriteAll = origNative
		osc52WriteAll = origOSC52
		tempDir = origTempDir
	}
}

func TestWriteAll_TempFileFails(t *testing.T) {
	t.Cleanup(resetStubs())
	nativeWriteAll = func(_ string) error { return errFake("native failed") }
	osc52WriteAll = func(_ string) error { return errFake("osc52 failed") }
	missing := filepath.Join(t.TempDir(), "missing")
	tempDir = func() string { return missing }

	if _, err := WriteAll("hello"); err == nil {
		t.Fatal("expected error when no temp file can be created")
	}
}

func TestWriteAllOSC52_Rejects(t *testing.T) {
	if err := writeAllOSC52(""); err == nil {
		t.Error("empty text should be rejected")
	}
	// go test does not attach stderr to a terminal.
	if err := writeAllOSC52("hello"); err == nil {
		t.Error("non-terminal stderr should be rejected")
	}
}

func TestQuoteArgs(t *testing.T) {
	tests := []struct {
		argv []string
		want string
	}{
		{[]string{"aider", "--yes-always"}, "aider --yes-always"},
		{[]string{"aider", "--file", "src/main.go"}, "aider --file src/main.go"},
		{[]string{"aider", "--message", "fix the bug"}, "aider --message 'fix the bug'"},
		{[]string{"aider", "--message", "don't panic"}, `aider --message 'don'\''t panic'`},
		{[]string{"aider", "--test-cmd", ""}, "aider --test-cmd ''"},
		{[]string{"aider", "--message", "$HOME; rm -rf *"}, "aider --message '$HOME; rm -rf *'"},
		{[]string{"aider", "--alias", "fast:gpt-4o-mini"}, "aider --alias fast:gpt-4o-mini"},
	}
	for _, tt := range tests {
		if got := QuoteArgs(tt.argv); got != tt.want {
			t.Errorf("QuoteArgs(%q) = %s, want %s", tt.argv, got, tt.want)
		}
	}
}

func TestCopyCommand(t *testing.T) {
	t.Cleanup(resetStubs())
	var copied string
	nativeWriteAll = func(text string) error { copied = text; return nil }

	got, err := CopyCommand([]string{"aider", "--message", "add tests"})
	if err != nil {
		t.Fatalf("CopyCommand returned error: %v", err)
	}
	if got.Method != MethodNative || copied != "aider --message 'add tests'" {
		t.Fatalf("Method=%q copied=%q", got.Method, copied)
	}

	if _, err := CopyCommand(nil); err == nil {
		t.Fatal("empty argv should be rejected")
	}
}

func TestResult_Describe(t *testing.T) {
	tests := []struct {
		r    Result
		want string
	}{
		{Result{Method: MethodNative}, "copied to clipboard"},
		{Result{Method: MethodOSC52}, "copied to clipboard (OSC52)"},
		{Result{Method: MethodFile, FilePath: "/tmp/x.txt"}, "clipboard unavailable, written to /tmp/x.txt"},
		{Result{}, "not copied"},
	}
	for _, tt := range tests {
		if got := tt.r.Describe(); got != tt.want {
			t.Errorf("Describe() = %q, want %q", got, tt.want)
		}
	}
}
