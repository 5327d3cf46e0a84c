package core

import (
	"context"
	"time"
)

// =============================================================================
// Process Port
// =============================================================================

// RunResult holds the captured outcome of one external tool invocation.
type RunResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Process is a handle to an interactively spawned tool process.
type Process interface {
	// Pid returns the OS process id.
	Pid() int

	// Wait blocks until the process exits.
	Wait() error
}

// Runner invokes the external tool.
type Runner interface {
	// Run executes argv to completion and captures its output. A non-zero
	// exit surfaces as an execution error carrying the captured stderr.
	Run(ctx context.Context, argv []string) (*RunResult, error)

	// Spawn starts argv attached to the current terminal and returns
	// without waiting for it to exit.
	Spawn(ctx context.Context, argv []string) (Process, error)
}

// =============================================================================
// Ledger Persistence Port
// =============================================================================

// LedgerStore persists full ledger snapshots.
type LedgerStore interface {
	// Load returns the persisted tasks in ledger order. A store that has
	// never been saved returns an empty slice.
	Load(ctx context.Context) ([]*Task, error)

	// Save replaces the persisted snapshot with tasks.
	Save(ctx context.Context, tasks []*Task) error
}
