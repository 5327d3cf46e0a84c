package state

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/hugo-lorenzo-mato/aiderkit/internal/core"
	"github.com/hugo-lorenzo-mato/aiderkit/internal/fsutil"
)

// JSONLedgerStore keeps the ledger as a bare JSON array, the same document
// Ledger.Export produces, so a ledger file can be imported elsewhere as is.
type JSONLedgerStore struct {
	path       string
	backupPath string
	mu         sync.Mutex
}

// JSONLedgerStoreOption configures the store.
type JSONLedgerStoreOption func(*JSONLedgerStore)

// WithBackupPath sets where the previous snapshot is kept on save. An empty
// path disables backups.
func WithBackupPath(path string) JSONLedgerStoreOption {
	return func(s *JSONLedgerStore) {
		s.backupPath = path
	}
}

// NewJSONLedgerStore creates a store writing to path.
func NewJSONLedgerStore(path string, opts ...JSONLedgerStoreOption) *JSONLedgerStore {
	s := &JSONLedgerStore{
		path:       path,
		backupPath: path + ".bak",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the ledger file path.
func (s *JSONLedgerStore) Path() string {
	return s.path
}

// BackupPath returns the backup file path.
func (s *JSONLedgerStore) BackupPath() string {
	return s.backupPath
}

// Exists reports whether the ledger file has been written.
func (s *JSONLedgerStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Save writes tasks atomically, first copying the current file to the backup.
func (s *JSONLedgerStore) Save(_ context.Context, tasks []*core.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := core.MarshalTasks(tasks)
	if err != nil {
		return err
	}

	if s.backupPath != "" && s.Exists() {
		if err := s.backup(); err != nil {
			return core.ErrFile(core.CodeFileAccess, "creating ledger backup").WithCause(err)
		}
	}

	if err := fsutil.WriteFileAtomic(s.path, append(data, '\n'), 0o644); err != nil {
		return core.ErrFile(core.CodeFileAccess, fmt.Sprintf("writing ledger %s", s.path)).WithCause(err)
	}
	return nil
}

// Load reads the ledger. A missing file is an empty ledger. When the primary
// file cannot be parsed the backup is tried before giving up.
func (s *JSONLedgerStore) Load(_ context.Context) ([]*core.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.loadFrom(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []*core.Task{}, nil
	}
	if err == nil {
		return tasks, nil
	}
	if s.backupPath == "" {
		return nil, err
	}
	backup, backupErr := s.loadFrom(s.backupPath)
	if backupErr != nil {
		return nil, err
	}
	return backup, nil
}

func (s *JSONLedgerStore) loadFrom(path string) ([]*core.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, core.ErrFile(core.CodeFileAccess, fmt.Sprintf("reading ledger %s", path)).WithCause(err)
	}
	tasks, err := core.UnmarshalTasks(data)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// backup copies the current file over the backup. A current file that does
// not parse is not copied, so the last good snapshot survives.
func (s *JSONLedgerStore) backup() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	if _, err := core.UnmarshalTasks(data); err != nil {
		return nil
	}
	return fsutil.WriteFileAtomic(s.backupPath, data, 0o644)
}

// Restore loads the backup snapshot.
func (s *JSONLedgerStore) Restore(_ context.Context) ([]*core.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.backupPath == "" {
		return nil, core.ErrState("NO_BACKUP", "backups are disabled for this store")
	}
	tasks, err := s.loadFrom(s.backupPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, core.ErrFile(core.CodeFileNotFound, "no ledger backup at "+s.backupPath)
	}
	return tasks, err
}

var _ core.LedgerStore = (*JSONLedgerStore)(nil)
