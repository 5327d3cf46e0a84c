package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskID uniquely identifies a task within a ledger.
type TaskID string

// TaskType is the closed set of task categories.
type TaskType string

const (
	TaskTypeCoding         TaskType = "coding"
	TaskTypeRefactoring    TaskType = "refactoring"
	TaskTypeDebugging      TaskType = "debugging"
	TaskTypeDocumentation  TaskType = "documentation"
	TaskTypeTestGeneration TaskType = "test_generation"
	TaskTypeMultiStep      TaskType = "multi_step"
)

// AllTaskTypes lists every task type in display order.
var AllTaskTypes = []TaskType{
	TaskTypeCoding,
	TaskTypeRefactoring,
	TaskTypeDebugging,
	TaskTypeDocumentation,
	TaskTypeTestGeneration,
	TaskTypeMultiStep,
}

// Valid reports whether t is one of the known task types.
func (t TaskType) Valid() bool {
	for _, known := range AllTaskTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseTaskType accepts both "test_generation" and "test-generation" spellings.
func ParseTaskType(s string) (TaskType, error) {
	t := TaskType(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if !t.Valid() {
		return "", ErrValidation(CodeInvalidChoice, fmt.Sprintf("unknown task type: %q", s))
	}
	return t, nil
}

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusRunning, TaskStatusCompleted, TaskStatusFailed:
		return true
	}
	return false
}

// ParseTaskStatus parses a status name.
func ParseTaskStatus(s string) (TaskStatus, error) {
	st := TaskStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", ErrValidation(CodeInvalidChoice, fmt.Sprintf("unknown task status: %q", s))
	}
	return st, nil
}

// Step describes one step of a multi-step task. Steps with Checkpoint set get
// their result and completion time recorded on the task as they finish.
type Step struct {
	Description string
	Checkpoint  bool
}

// Checkpoint is the per-step record kept on a multi-step task.
type Checkpoint struct {
	Description string     `json:"description"`
	Tracked     bool       `json:"tracked"`
	Result      *string    `json:"result"`
	CompletedAt *time.Time `json:"completed_at"`
}

// Filled reports whether the checkpoint has a recorded result.
func (c Checkpoint) Filled() bool {
	return c.CompletedAt != nil
}

// TaskResult holds the output of a task: a single string for one-shot tasks,
// an ordered list for multi-step tasks.
type TaskResult struct {
	outputs []string
	multi   bool
}

// NewResult creates a single-output result.
func NewResult(output string) *TaskResult {
	return &TaskResult{outputs: []string{output}}
}

// NewMultiResult creates a multi-output result.
func NewMultiResult(outputs []string) *TaskResult {
	cp := make([]string, len(outputs))
	copy(cp, outputs)
	return &TaskResult{outputs: cp, multi: true}
}

// IsMulti reports whether the result came from a multi-step task.
func (r *TaskResult) IsMulti() bool {
	return r != nil && r.multi
}

// Output returns the result as one string; multi-step outputs are joined by newlines.
func (r *TaskResult) Output() string {
	if r == nil {
		return ""
	}
	return strings.Join(r.outputs, "\n")
}

// Outputs returns a copy of the individual outputs.
func (r *TaskResult) Outputs() []string {
	if r == nil {
		return nil
	}
	cp := make([]string, len(r.outputs))
	copy(cp, r.outputs)
	return cp
}

// Equal compares two results by shape and content.
func (r *TaskResult) Equal(other *TaskResult) bool {
	if r == nil || other == nil {
		return r == other
	}
	if r.multi != other.multi || len(r.outputs) != len(other.outputs) {
		return false
	}
	for i := range r.outputs {
		if r.outputs[i] != other.outputs[i] {
			return false
		}
	}
	return true
}

// MarshalJSON renders single results as a string and multi results as an array.
func (r *TaskResult) MarshalJSON() ([]byte, error) {
	if r.multi {
		outputs := r.outputs
		if outputs == nil {
			outputs = []string{}
		}
		return json.Marshal(outputs)
	}
	return json.Marshal(r.Output())
}

// UnmarshalJSON accepts either a string or an array of strings.
func (r *TaskResult) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var outputs []string
		if err := json.Unmarshal(trimmed, &outputs); err != nil {
			return err
		}
		*r = TaskResult{outputs: outputs, multi: true}
		return nil
	}
	var output string
	if err := json.Unmarshal(trimmed, &output); err != nil {
		return err
	}
	*r = TaskResult{outputs: []string{output}}
	return nil
}

// Task represents one tracked invocation of the external tool.
type Task struct {
	ID          TaskID       `json:"id"`
	Type        TaskType     `json:"type"`
	Description string       `json:"description"`
	Files       []string     `json:"files"`
	Status      TaskStatus   `json:"status"`
	Steps       []Checkpoint `json:"steps"`
	Result      *TaskResult  `json:"result"`
	Error       *string      `json:"error"`
	CreatedAt   time.Time    `json:"created_at"`
	CompletedAt *time.Time   `json:"completed_at"`
	FailedAt    *time.Time   `json:"failed_at"`
}

// NewTaskID returns a fresh, time-ordered task identifier. UUIDv7 carries a
// monotonic counter so ids minted within the same millisecond still differ
// and sort in creation order.
func NewTaskID() TaskID {
	return TaskID("task_" + uuid.Must(uuid.NewV7()).String())
}

// NewTask creates a pending task with a fresh id.
func NewTask(taskType TaskType, description string, files []string) *Task {
	fileCopy := make([]string, len(files))
	copy(fileCopy, files)
	return &Task{
		ID:          NewTaskID(),
		Type:        taskType,
		Description: description,
		Files:       fileCopy,
		Status:      TaskStatusPending,
		Steps:       []Checkpoint{},
		CreatedAt:   time.Now(),
	}
}

// WithSteps sets the checkpoint slots for a multi-step task.
func (t *Task) WithSteps(steps ...Step) *Task {
	t.Steps = make([]Checkpoint, len(steps))
	for i, s := range steps {
		t.Steps[i] = Checkpoint{Description: s.Description, Tracked: s.Checkpoint}
	}
	return t
}

// Start transitions the task to running state.
func (t *Task) Start() error {
	if t.Status != TaskStatusPending {
		return ErrState(CodeInvalidTransition, fmt.Sprintf("cannot start task in %s state", t.Status))
	}
	t.Status = TaskStatusRunning
	return nil
}

// Complete transitions the task to completed state.
func (t *Task) Complete(result *TaskResult) error {
	if t.Status != TaskStatusRunning {
		return ErrState(CodeInvalidTransition, fmt.Sprintf("cannot complete task in %s state", t.Status))
	}
	if result == nil {
		result = NewResult("")
	}
	t.Status = TaskStatusCompleted
	t.Result = result
	now := time.Now()
	t.CompletedAt = &now
	return nil
}

// Fail transitions the task to failed state, keeping the error's message.
func (t *Task) Fail(err error) error {
	if t.Status != TaskStatusRunning {
		return ErrState(CodeInvalidTransition, fmt.Sprintf("cannot fail task in %s state", t.Status))
	}
	msg := "unknown error"
	if err != nil {
		msg = MessageOf(err)
	}
	t.Status = TaskStatusFailed
	t.Error = &msg
	now := time.Now()
	t.FailedAt = &now
	return nil
}

// Reset returns a terminal task to pending so it can be started again.
func (t *Task) Reset() error {
	if !t.IsTerminal() {
		return ErrState(CodeInvalidTransition, fmt.Sprintf("cannot reset task in %s state", t.Status))
	}
	t.Status = TaskStatusPending
	t.Result = nil
	t.Error = nil
	t.CompletedAt = nil
	t.FailedAt = nil
	for i := range t.Steps {
		t.Steps[i].Result = nil
		t.Steps[i].CompletedAt = nil
	}
	return nil
}

// RecordCheckpoint stores the result of step index. Tracked checkpoints are
// filled strictly in order: every earlier tracked checkpoint must already be
// filled and a checkpoint is never filled twice.
func (t *Task) RecordCheckpoint(index int, result string) error {
	if t.Status != TaskStatusRunning {
		return ErrState(CodeInvalidTransition, fmt.Sprintf("cannot record checkpoint for task in %s state", t.Status))
	}
	if index < 0 || index >= len(t.Steps) {
		return ErrState(CodeInvalidCheckpoint, fmt.Sprintf("checkpoint %d out of range (%d steps)", index, len(t.Steps)))
	}
	cp := &t.Steps[index]
	if !cp.Tracked {
		return ErrState(CodeInvalidCheckpoint, fmt.Sprintf("step %d is not a checkpoint", index))
	}
	if cp.Filled() {
		return ErrState(CodeInvalidCheckpoint, fmt.Sprintf("checkpoint %d already recorded", index))
	}
	for i := 0; i < index; i++ {
		if t.Steps[i].Tracked && !t.Steps[i].Filled() {
			return ErrState(CodeInvalidCheckpoint, fmt.Sprintf("checkpoint %d recorded before checkpoint %d", index, i))
		}
	}
	now := time.Now()
	cp.Result = &result
	cp.CompletedAt = &now
	return nil
}

// ErrorMessage returns the recorded error, or "" when none.
func (t *Task) ErrorMessage() string {
	if t.Error == nil {
		return ""
	}
	return *t.Error
}

// IsTerminal returns true if the task is in a terminal state.
func (t *Task) IsTerminal() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusFailed
}

// Duration returns the time from creation to the terminal transition, or
// zero while the task has not finished.
func (t *Task) Duration() time.Duration {
	switch {
	case t.CompletedAt != nil:
		return t.CompletedAt.Sub(t.CreatedAt)
	case t.FailedAt != nil:
		return t.FailedAt.Sub(t.CreatedAt)
	}
	return 0
}

// Validate checks task invariants.
func (t *Task) Validate() error {
	if t.ID == "" {
		return ErrValidation("TASK_ID_REQUIRED", "task ID cannot be empty")
	}
	if !t.Type.Valid() {
		return ErrValidation(CodeInvalidChoice, fmt.Sprintf("task %s: unknown type %q", t.ID, t.Type))
	}
	if !t.Status.Valid() {
		return ErrValidation(CodeInvalidChoice, fmt.Sprintf("task %s: unknown status %q", t.ID, t.Status))
	}
	if t.CreatedAt.IsZero() {
		return ErrValidation("CREATED_AT_REQUIRED", fmt.Sprintf("task %s: created_at is required", t.ID))
	}
	switch t.Status {
	case TaskStatusPending, TaskStatusRunning:
		if t.Result != nil || t.Error != nil || t.CompletedAt != nil || t.FailedAt != nil {
			return ErrValidation(CodeInvalidTransition, fmt.Sprintf("task %s: %s task cannot carry a result, error or end time", t.ID, t.Status))
		}
	case TaskStatusCompleted:
		if t.CompletedAt == nil || t.FailedAt != nil || t.Error != nil {
			return ErrValidation(CodeInvalidTransition, fmt.Sprintf("task %s: completed task must carry completed_at only", t.ID))
		}
	case TaskStatusFailed:
		if t.FailedAt == nil || t.Error == nil || t.CompletedAt != nil || t.Result != nil {
			return ErrValidation(CodeInvalidTransition, fmt.Sprintf("task %s: failed task must carry error and failed_at only", t.ID))
		}
	}
	return nil
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	cp := *t
	cp.Files = append([]string{}, t.Files...)
	cp.Steps = make([]Checkpoint, len(t.Steps))
	for i, s := range t.Steps {
		cp.Steps[i] = Checkpoint{
			Description: s.Description,
			Tracked:     s.Tracked,
			Result:      cloneString(s.Result),
			CompletedAt: cloneTime(s.CompletedAt),
		}
	}
	if t.Result != nil {
		cp.Result = &TaskResult{outputs: t.Result.Outputs(), multi: t.Result.multi}
	}
	cp.Error = cloneString(t.Error)
	cp.CompletedAt = cloneTime(t.CompletedAt)
	cp.FailedAt = cloneTime(t.FailedAt)
	return &cp
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(ts *time.Time) *time.Time {
	if ts == nil {
		return nil
	}
	v := *ts
	return &v
}
