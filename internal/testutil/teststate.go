package testutil

import (
	"errors"
	"testing"

	"github.com/hugo-lorenzo-mato/aiderkit/internal/core"
)

// NewTestTask creates a pending task. Use functional options to override
// specific fields.
func NewTestTask(opts ...func(*core.Task)) *core.Task {
	t := core.NewTask(core.TaskTypeCoding, "test task", []string{"main.go"})
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// CompletedTask creates a task driven through start and complete.
func CompletedTask(t *testing.T, typ core.TaskType, desc, result string) *core.Task {
	t.Helper()
	task := core.NewTask(typ, desc, nil)
	if err := task.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := task.Complete(core.NewResult(result)); err != nil {
		t.Fatalf("complete: %v", err)
	}
	return task
}

// FailedTask creates a task driven through start and fail.
func FailedTask(t *testing.T, typ core.TaskType, desc, msg string) *core.Task {
	t.Helper()
	task := core.NewTask(typ, desc, nil)
	if err := task.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := task.Fail(errors.New(msg)); err != nil {
		t.Fatalf("fail: %v", err)
	}
	return task
}
