package state

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hugo-lorenzo-mato/aiderkit/internal/core"
)

// Backend names accepted by NewLedgerStore.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Backends lists the supported backend names.
var Backends = []string{BackendJSON, BackendSQLite}

// ResolveBackend picks a backend from an explicit name, or from the file
// extension of path when name is empty: .db, .sqlite and .sqlite3 select
// SQLite, anything else JSON.
func ResolveBackend(name, path string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case BackendJSON:
		return BackendJSON, nil
	case BackendSQLite:
		return BackendSQLite, nil
	case "":
		switch strings.ToLower(filepath.Ext(path)) {
		case ".db", ".sqlite", ".sqlite3":
			return BackendSQLite, nil
		}
		return BackendJSON, nil
	}
	return "", core.ErrConfiguration(core.CodeInvalidChoice,
		fmt.Sprintf("unsupported ledger backend %q (want one of %s)", name, strings.Join(Backends, ", ")))
}

// NewLedgerStore creates the store for backend at path.
func NewLedgerStore(backend, path string) (core.LedgerStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, core.ErrConfiguration("LEDGER_PATH_REQUIRED", "ledger path cannot be empty")
	}
	resolved, err := ResolveBackend(backend, path)
	if err != nil {
		return nil, err
	}
	if resolved == BackendSQLite {
		return NewSQLiteLedgerStore(path)
	}
	return NewJSONLedgerStore(path), nil
}

// Closeable is implemented by stores holding resources.
type Closeable interface {
	Close() error
}

// CloseLedgerStore closes store if it implements Closeable.
func CloseLedgerStore(store core.LedgerStore) error {
	if c, ok := store.(Closeable); ok {
		return c.Close()
	}
	return nil
}
