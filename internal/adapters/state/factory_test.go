package state

import (
	"path/filepath"
	"testing"

	"github.com/hugo-lorenzo-mato/aiderkit/internal/core"
)

func TestResolveBackend(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		path    string
		want    string
		wantErr bool
	}{
		{"explicit json", "json", "ledger.db", BackendJSON, false},
		{"explicit sqlite uppercase", "SQLite", "ledger.json", BackendSQLite, false},
		{"db extension", "", "ledger.db", BackendSQLite, false},
		{"sqlite3 extension", "", "ledger.SQLITE3", BackendSQLite, false},
		{"json extension", "", "ledger.json", BackendJSON, false},
		{"no extension", "", "ledger", BackendJSON, false},
		{"unknown backend", "postgres", "ledger.json", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveBackend(tt.backend, tt.path)
			if tt.wantErr {
				if !core.IsCategory(err, core.ErrCatConfiguration) {
					t.Fatalf("expected configuration error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNewLedgerStore(t *testing.T) {
	dir := t.TempDir()

	js, err := NewLedgerStore("", filepath.Join(dir, "ledger.json"))
	if err != nil {
		t.Fatalf("json store: %v", err)
	}
	if _, ok := js.(*JSONLedgerStore); !ok {
		t.Fatalf("got %T, want *JSONLedgerStore", js)
	}
	if err := CloseLedgerStore(js); err != nil {
		t.Fatalf("closing a json store is a no-op: %v", err)
	}

	db, err := NewLedgerStore("", filepath.Join(dir, "ledger.db"))
	if err != nil {
		t.Fatalf("sqlite store: %v", err)
	}
	if _, ok := db.(*SQLiteLedgerStore); !ok {
		t.Fatalf("got %T, want *SQLiteLedgerStore", db)
	}
	if err := CloseLedgerStore(db); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := NewLedgerStore("json", "  "); err == nil {
		t.Fatal("empty path should fail")
	}
}
