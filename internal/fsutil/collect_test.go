package fsutil

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"testing"
)

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		p := filepath.Join(root, f)
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte("x"), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
}

func TestCollect_Filters(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.go", "b.md", "sub/c.go", "vendor/d.go", "sub/e_test.go")

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all", Filter{}, []string{"a.go", "b.md", "sub/c.go", "sub/e_test.go", "vendor/d.go"}},
		{"extension", Filter{Extensions: []string{".go"}}, []string{"a.go", "sub/c.go", "sub/e_test.go", "vendor/d.go"}},
		{"substring exclude", Filter{Extensions: []string{".go"}, Exclude: []string{"vendor"}},
			[]string{"a.go", "sub/c.go", "sub/e_test.go"}},
		{"regexp exclude", Filter{ExcludeRegexp: []*regexp.Regexp{regexp.MustCompile(`_test\.go$`)}},
			[]string{"a.go", "b.md", "sub/c.go", "vendor/d.go"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Collect(root, tt.filter)
			if err != nil {
				t.Fatalf("Collect: %v", err)
			}
			want := make([]string, len(tt.want))
			for i, w := range tt.want {
				want[i] = filepath.Join(root, filepath.FromSlash(w))
			}
			if !slices.Equal(got, want) {
				t.Fatalf("got %v, want %v", got, want)
			}
		})
	}
}

func TestCollect_RejectsFileRoot(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.go")
	if _, err := Collect(filepath.Join(root, "a.go"), Filter{}); err == nil {
		t.Fatalf("expected error for non-directory root")
	}
	if _, err := Collect(filepath.Join(root, "missing"), Filter{}); err == nil {
		t.Fatalf("expected error for missing root")
	}
}

func TestCollectAll_KeepsRootOrder(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeTree(t, first, "z.go")
	writeTree(t, second, "a.go")

	got, err := CollectAll(context.Background(), []string{first, second}, Filter{})
	if err != nil {
		t.Fatalf("CollectAll: %v", err)
	}
	want := []string{filepath.Join(first, "z.go"), filepath.Join(second, "a.go")}
	if !slices.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	if _, err := CollectAll(context.Background(), []string{first, filepath.Join(first, "nope")}, Filter{}); err == nil {
		t.Fatalf("expected error when one root is missing")
	}
}
