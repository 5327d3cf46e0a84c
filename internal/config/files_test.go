package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/hugo-lorenzo-mato/aiderkit/internal/core"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadOptionsFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"yaml", "opts.yaml", "model: gpt-4o\nauto_commits: false\nread_files: [a.md]\n"},
		{"yml", "opts.YML", "model: gpt-4o\nauto_commits: false\nread_files: [a.md]\n"},
		{"json", "opts.json", `{"model": "gpt-4o", "auto_commits": false, "read_files": ["a.md"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadOptionsFile(writeFile(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("LoadOptionsFile() error = %v", err)
			}
			if got["model"] != "gpt-4o" || got["auto_commits"] != false {
				t.Errorf("got %v", got)
			}
		})
	}
}

func TestLoadOptionsFile_Errors(t *testing.T) {
	tests := []struct {
		name     string
		path     func(t *testing.T) string
		category core.ErrorCategory
		code     string
	}{
		{
			name:     "missing",
			path:     func(t *testing.T) string { return filepath.Join(t.TempDir(), "none.yaml") },
			category: core.ErrCatFile,
			code:     core.CodeFileNotFound,
		},
		{
			name:     "unsupported extension",
			path:     func(t *testing.T) string { return writeFile(t, "opts.toml", "model = 'x'") },
			category: core.ErrCatConfiguration,
			code:     core.CodeUnsupportedFormat,
		},
		{
			name:     "malformed yaml",
			path:     func(t *testing.T) string { return writeFile(t, "opts.yaml", "model: [oops") },
			category: core.ErrCatConfiguration,
			code:     core.CodeParseFailed,
		},
		{
			name:     "malformed json",
			path:     func(t *testing.T) string { return writeFile(t, "opts.json", "{") },
			category: core.ErrCatConfiguration,
			code:     core.CodeParseFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadOptionsFile(tt.path(t))
			if err == nil {
				t.Fatal("expected error")
			}
			if !core.IsCategory(err, tt.category) {
				t.Errorf("category = %v, want %v", core.GetCategory(err), tt.category)
			}
			var de *core.DomainError
			if !errors.As(err, &de) || de.Code != tt.code {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := writeFile(t, ".env", "MODEL=gpt-4o\nauto_commits=false\n")

	env, err := LoadEnvFile(path)
	if err != nil {
		t.Fatalf("LoadEnvFile() error = %v", err)
	}
	if env["AIDER_MODEL"] != "gpt-4o" || env["AIDER_AUTO_COMMITS"] != "false" {
		t.Errorf("env = %v", env)
	}
	want := []string{"AIDER_AUTO_COMMITS=false", "AIDER_MODEL=gpt-4o"}
	if got := EnvList(env); !slices.Equal(got, want) {
		t.Errorf("EnvList() = %v, want %v", got, want)
	}
}

func TestLoadEnvFile_MissingIsEmpty(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), ".env")} {
		env, err := LoadEnvFile(path)
		if err != nil {
			t.Fatalf("LoadEnvFile(%q) error = %v", path, err)
		}
		if len(env) != 0 {
			t.Errorf("LoadEnvFile(%q) = %v, want empty", path, env)
		}
	}
}
