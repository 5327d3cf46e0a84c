package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Filter selects tasks from a ledger. Zero-valued fields are ignored; the
// remaining predicates must all match.
type Filter struct {
	Type   TaskType
	Status TaskStatus
	Since  time.Time // created at or after
}

// Matches reports whether task satisfies every set predicate.
func (f Filter) Matches(task *Task) bool {
	if f.Type != "" && task.Type != f.Type {
		return false
	}
	if f.Status != "" && task.Status != f.Status {
		return false
	}
	if !f.Since.IsZero() && task.CreatedAt.Before(f.Since) {
		return false
	}
	return true
}

// ParseFilter builds a filter from its text form. Empty strings leave the
// predicate unset. since is an RFC 3339 timestamp or a duration counted back
// from now.
func ParseFilter(typ, status, since string, now time.Time) (Filter, error) {
	var f Filter
	if typ != "" {
		t, err := ParseTaskType(typ)
		if err != nil {
			return f, err
		}
		f.Type = t
	}
	if status != "" {
		st, err := ParseTaskStatus(status)
		if err != nil {
			return f, err
		}
		f.Status = st
	}
	if since != "" {
		if ts, err := time.Parse(time.RFC3339, since); err == nil {
			f.Since = ts
		} else if d, err := time.ParseDuration(since); err == nil && d >= 0 {
			f.Since = now.Add(-d)
		} else {
			return f, ErrValidation(CodeInvalidFormat,
				fmt.Sprintf("since must be RFC 3339 or a duration, got %q", since))
		}
	}
	return f, nil
}

// Ledger is the append-only, ordered record of tasks for a session.
//
// A Ledger is owned by a single caller; concurrent writers must serialize
// access themselves.
type Ledger struct {
	tasks []*Task
	ids   map[TaskID]struct{}
}

// NewLedger creates a ledger seeded with pre-built tasks, in order.
func NewLedger(tasks ...*Task) (*Ledger, error) {
	l := &Ledger{
		tasks: make([]*Task, 0, len(tasks)),
		ids:   make(map[TaskID]struct{}, len(tasks)),
	}
	for _, t := range tasks {
		if err := l.Append(t); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Append adds a task to the end of the ledger.
func (l *Ledger) Append(task *Task) error {
	if task == nil {
		return ErrValidation("TASK_REQUIRED", "cannot append nil task")
	}
	if task.ID == "" {
		return ErrValidation("TASK_ID_REQUIRED", "task ID cannot be empty")
	}
	if _, exists := l.ids[task.ID]; exists {
		return ErrState(CodeDuplicateTask, fmt.Sprintf("task %s already in ledger", task.ID))
	}
	l.tasks = append(l.tasks, task)
	l.ids[task.ID] = struct{}{}
	return nil
}

// Len returns the number of tasks.
func (l *Ledger) Len() int {
	return len(l.tasks)
}

// Tasks returns the tasks in ledger order. The slice is a copy; the tasks are shared.
func (l *Ledger) Tasks() []*Task {
	out := make([]*Task, len(l.tasks))
	copy(out, l.tasks)
	return out
}

// Query returns the tasks matching filter, preserving ledger order.
func (l *Ledger) Query(filter Filter) []*Task {
	out := make([]*Task, 0)
	for _, t := range l.tasks {
		if filter.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// Lookup returns the task with the given id.
func (l *Ledger) Lookup(id TaskID) (*Task, error) {
	for _, t := range l.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, &DomainError{
		Category: ErrCatNotFound,
		Code:     CodeTaskNotFound,
		Message:  fmt.Sprintf("task not found: %s", id),
	}
}

// Export serializes the whole ledger as an indented JSON array.
func (l *Ledger) Export() ([]byte, error) {
	return MarshalTasks(l.tasks)
}

// Import parses a JSON array of tasks and appends them to the ledger. The
// batch is validated as a whole first, so either every record is appended
// or none is.
func (l *Ledger) Import(data []byte) (int, error) {
	tasks, err := UnmarshalTasks(data)
	if err != nil {
		return 0, err
	}

	seen := make(map[TaskID]struct{}, len(tasks))
	for i, t := range tasks {
		if err := t.Validate(); err != nil {
			return 0, ErrState(CodeImportFailed, fmt.Sprintf("record %d rejected", i)).WithCause(err)
		}
		if _, dup := l.ids[t.ID]; dup {
			return 0, ErrState(CodeDuplicateTask, fmt.Sprintf("record %d: task %s already in ledger", i, t.ID))
		}
		if _, dup := seen[t.ID]; dup {
			return 0, ErrState(CodeDuplicateTask, fmt.Sprintf("record %d: task %s repeated in import", i, t.ID))
		}
		seen[t.ID] = struct{}{}
	}

	for _, t := range tasks {
		l.tasks = append(l.tasks, t)
		l.ids[t.ID] = struct{}{}
	}
	return len(tasks), nil
}

// MarshalTasks renders tasks in the persisted ledger format.
func MarshalTasks(tasks []*Task) ([]byte, error) {
	if tasks == nil {
		tasks = []*Task{}
	}
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling tasks: %w", err)
	}
	return data, nil
}

// UnmarshalTasks parses the persisted ledger format. Missing files and steps
// arrays come back empty rather than nil.
func UnmarshalTasks(data []byte) ([]*Task, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrConfiguration(CodeParseFailed, "empty ledger document")
	}
	var tasks []*Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, ErrConfiguration(CodeParseFailed, "invalid ledger JSON").WithCause(err)
	}
	for i, t := range tasks {
		if t == nil {
			return nil, ErrConfiguration(CodeParseFailed, fmt.Sprintf("record %d is null", i))
		}
		if t.Files == nil {
			t.Files = []string{}
		}
		if t.Steps == nil {
			t.Steps = []Checkpoint{}
		}
	}
	return tasks, nil
}
