// Package fsutil holds small filesystem helpers: scoped reads and filtered
// recursive file collection.
package fsutil

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
)

// ReadFileScoped reads a file by opening a root at the file's directory.
// This scopes access to the intended directory and avoids path traversal.
func ReadFileScoped(path string) ([]byte, error) {
	cleaned := filepath.Clean(path)
	dir := filepath.Dir(cleaned)
	base := filepath.Base(cleaned)
	if base == "" || base == "." || base == string(filepath.Separator) {
		return nil, fmt.Errorf("invalid file path: %q", path)
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, err
	}
	defer root.Close()

	file, err := root.Open(base)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}

// Filter selects files during a Collect walk. Zero value matches everything.
type Filter struct {
	// Extensions keeps only files whose extension (".go") is listed.
	Extensions []string
	// Exclude drops paths containing any of these substrings.
	Exclude []string
	// ExcludeRegexp drops paths matching any of these patterns.
	ExcludeRegexp []*regexp.Regexp
}

// Match reports whether path passes the filter.
func (f Filter) Match(path string) bool {
	if len(f.Extensions) > 0 && !slices.Contains(f.Extensions, filepath.Ext(path)) {
		return false
	}
	for _, s := range f.Exclude {
		if s != "" && strings.Contains(path, s) {
			return false
		}
	}
	for _, re := range f.ExcludeRegexp {
		if re != nil && re.MatchString(path) {
			return false
		}
	}
	return true
}

// Collect walks root recursively and returns the regular files passing f, in
// lexical walk order.
func Collect(root string, f Filter) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", root)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !f.Match(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// CollectAll walks several roots in parallel. Results keep the order of roots.
func CollectAll(ctx context.Context, roots []string, f Filter) ([]string, error) {
	results := make([][]string, len(roots))
	g, ctx := errgroup.WithContext(ctx)
	for i, root := range roots {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			files, err := Collect(root, f)
			if err != nil {
				return err
			}
			results[i] = files
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []string
	for _, files := range results {
		all = append(all, files...)
	}
	return all, nil
}
