package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hugo-lorenzo-mato/aiderkit/internal/aider"
	"github.com/hugo-lorenzo-mato/aiderkit/internal/core"
	"github.com/hugo-lorenzo-mato/aiderkit/internal/fsutil"
	"github.com/hugo-lorenzo-mato/aiderkit/internal/logging"
)

// TaskExecutor runs aider for typed tasks and records each one in a ledger.
// It owns its ledger and is not safe for concurrent use.
type TaskExecutor struct {
	client  *aider.Client
	base    aider.Invocation
	ledger  *core.Ledger
	store   core.LedgerStore
	metrics *Metrics
	logger  *logging.Logger
	now     func() time.Time
}

// ExecutorOption configures a TaskExecutor.
type ExecutorOption func(*TaskExecutor)

// WithStore persists the ledger after every state change.
func WithStore(s core.LedgerStore) ExecutorOption {
	return func(e *TaskExecutor) { e.store = s }
}

// WithMetrics records task outcomes and usage.
func WithMetrics(m *Metrics) ExecutorOption {
	return func(e *TaskExecutor) { e.metrics = m }
}

// WithLogger sets the executor logger.
func WithLogger(l *logging.Logger) ExecutorOption {
	return func(e *TaskExecutor) { e.logger = l }
}

// WithLedger starts from an existing ledger instead of an empty one.
func WithLedger(l *core.Ledger) ExecutorOption {
	return func(e *TaskExecutor) { e.ledger = l }
}

// WithInvocation sets the config and env files passed to aider on every run.
func WithInvocation(inv aider.Invocation) ExecutorOption {
	return func(e *TaskExecutor) {
		e.base = aider.Invocation{ConfigFile: inv.ConfigFile, EnvFile: inv.EnvFile}
	}
}

// NewTaskExecutor creates an executor around client.
func NewTaskExecutor(client *aider.Client, opts ...ExecutorOption) *TaskExecutor {
	e := &TaskExecutor{
		client: client,
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.ledger == nil {
		e.ledger, _ = core.NewLedger()
	}
	return e
}

// OpenTaskExecutor creates an executor whose ledger is loaded from store and
// saved back to it after every change.
func OpenTaskExecutor(ctx context.Context, client *aider.Client, store core.LedgerStore, opts ...ExecutorOption) (*TaskExecutor, error) {
	tasks, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading ledger: %w", err)
	}
	ledger, err := core.NewLedger(tasks...)
	if err != nil {
		return nil, fmt.Errorf("loading ledger: %w", err)
	}
	opts = append([]ExecutorOption{WithLedger(ledger), WithStore(store)}, opts...)
	return NewTaskExecutor(client, opts...), nil
}

// Ledger returns the executor's ledger.
func (e *TaskExecutor) Ledger() *core.Ledger {
	return e.ledger
}

// Coding runs a plain coding task.
func (e *TaskExecutor) Coding(ctx context.Context, description string, files []string, overrides map[string]any) (*core.Task, error) {
	return e.Run(ctx, core.TaskTypeCoding, description, files, overrides)
}

// Refactoring runs with git, auto commits and linting enabled.
func (e *TaskExecutor) Refactoring(ctx context.Context, description string, files []string, overrides map[string]any) (*core.Task, error) {
	return e.Run(ctx, core.TaskTypeRefactoring, description, files, overrides)
}

// Debugging runs verbosely with tests and diffs enabled.
func (e *TaskExecutor) Debugging(ctx context.Context, description string, files []string, overrides map[string]any) (*core.Task, error) {
	return e.Run(ctx, core.TaskTypeDebugging, description, files, overrides)
}

// Documentation runs with the documentation model and pretty output.
func (e *TaskExecutor) Documentation(ctx context.Context, description string, files []string, overrides map[string]any) (*core.Task, error) {
	return e.Run(ctx, core.TaskTypeDocumentation, description, files, overrides)
}

// TestGeneration runs with tests enabled and the default test command.
func (e *TaskExecutor) TestGeneration(ctx context.Context, description string, files []string, overrides map[string]any) (*core.Task, error) {
	return e.Run(ctx, core.TaskTypeTestGeneration, description, files, overrides)
}

// Run executes a single-message task of typ: the preset for typ is applied
// first and caller overrides win. The returned task is in a terminal state
// whenever the run itself was attempted; the run error is returned as is.
func (e *TaskExecutor) Run(ctx context.Context, typ core.TaskType, description string, files []string, overrides map[string]any) (*core.Task, error) {
	if typ == core.TaskTypeMultiStep {
		return nil, core.ErrValidation(core.CodeInvalidChoice, "multi-step tasks run through MultiStep")
	}
	if !typ.Valid() {
		return nil, core.ErrValidation(core.CodeInvalidChoice, fmt.Sprintf("unknown task type: %q", typ))
	}

	task := core.NewTask(typ, description, files)
	inv := e.invocation(task, withPreset(typ, overrides))

	return e.track(ctx, task, func(ctx context.Context) (*core.TaskResult, error) {
		resp, err := e.client.Execute(ctx, description, inv)
		if err != nil {
			return nil, err
		}
		e.metrics.ObserveUsage(resp.Usage)
		return core.NewResult(resp.Output()), nil
	})
}

// MultiStep runs each step as its own message, in order, with the same
// overrides. Results accumulate in step order and tracked checkpoints are
// recorded as their step finishes. The first failing step fails the task and
// its error is returned; later steps are not run.
func (e *TaskExecutor) MultiStep(ctx context.Context, steps []core.Step, files []string, overrides map[string]any) (*core.Task, error) {
	if len(steps) == 0 {
		return nil, core.ErrValidation("STEPS_REQUIRED", "multi-step task needs at least one step")
	}

	task := core.NewTask(core.TaskTypeMultiStep, fmt.Sprintf("Multi-step task with %d steps", len(steps)), files).
		WithSteps(steps...)
	inv := e.invocation(task, withPreset(core.TaskTypeMultiStep, overrides))

	return e.track(ctx, task, func(ctx context.Context) (*core.TaskResult, error) {
		results := make([]string, 0, len(steps))
		for i, step := range steps {
			e.logger.Info("task step", "task_id", task.ID, "step", i+1, "steps", len(steps))
			resp, err := e.client.Execute(ctx, step.Description, inv)
			if err != nil {
				return nil, stepError(i, step, err)
			}
			e.metrics.ObserveUsage(resp.Usage)
			out := resp.Output()
			results = append(results, out)
			if step.Checkpoint {
				if err := task.RecordCheckpoint(i, out); err != nil {
					return nil, err
				}
				_ = e.persist(ctx)
			}
		}
		return core.NewMultiResult(results), nil
	})
}

// stepError prefixes err with the failing step. Domain errors keep their
// category and code so the recorded message stays readable.
func stepError(i int, step core.Step, err error) error {
	prefix := fmt.Sprintf("step %d (%s)", i+1, step.Description)
	var domErr *core.DomainError
	if errors.As(err, &domErr) {
		wrapped := *domErr
		wrapped.Message = prefix + ": " + domErr.Message
		wrapped.Cause = err
		return &wrapped
	}
	return fmt.Errorf("%s: %w", prefix, err)
}

func (e *TaskExecutor) invocation(task *core.Task, overrides map[string]any) aider.Invocation {
	inv := e.base
	inv.Files = task.Files
	inv.Overrides = overrides
	return inv
}

// track appends task, starts it, runs fn and records the outcome.
func (e *TaskExecutor) track(ctx context.Context, task *core.Task, fn func(context.Context) (*core.TaskResult, error)) (*core.Task, error) {
	if err := e.ledger.Append(task); err != nil {
		return nil, err
	}
	if err := task.Start(); err != nil {
		return task, err
	}
	logger := e.logger.WithTask(string(task.ID)).WithCategory(string(task.Type))
	logger.Info("task started", "description", task.Description, "files", len(task.Files))
	_ = e.persist(ctx)

	started := e.now()
	result, runErr := fn(ctx)
	elapsed := e.now().Sub(started)

	if runErr != nil {
		if err := task.Fail(runErr); err != nil {
			return task, err
		}
		logger.Error("task failed", "error", runErr, "duration", elapsed)
	} else {
		if err := task.Complete(result); err != nil {
			return task, err
		}
		logger.Info("task completed", "duration", elapsed)
	}
	e.metrics.ObserveTask(task, elapsed.Seconds())

	saveErr := e.persist(ctx)
	if runErr != nil {
		return task, runErr
	}
	return task, saveErr
}

// persist saves the ledger when a store is configured. Failures are logged
// and returned.
func (e *TaskExecutor) persist(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	if err := e.store.Save(context.WithoutCancel(ctx), e.ledger.Tasks()); err != nil {
		e.logger.Error("saving ledger", "error", err)
		return err
	}
	return nil
}

// History returns the tasks matching filter in ledger order.
func (e *TaskExecutor) History(filter core.Filter) []*core.Task {
	return e.ledger.Query(filter)
}

// Task looks up one task by id.
func (e *TaskExecutor) Task(id core.TaskID) (*core.Task, error) {
	return e.ledger.Lookup(id)
}

// ExportHistory renders the ledger as JSON. When path is non-empty the
// document is also written there.
func (e *TaskExecutor) ExportHistory(path string) ([]byte, error) {
	data, err := e.ledger.Export()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return data, nil
	}
	if err := fsutil.WriteFileAtomic(path, append(data, '\n'), 0o644); err != nil {
		return nil, core.ErrFile(core.CodeFileAccess, "writing history to "+path).WithCause(err)
	}
	return data, nil
}

// ImportHistory appends the tasks exported to path. Nothing is imported if
// any record is rejected.
func (e *TaskExecutor) ImportHistory(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, core.ErrFile(core.CodeFileNotFound, "history file not found: "+path)
		}
		return 0, core.ErrFile(core.CodeFileAccess, "reading history from "+path).WithCause(err)
	}
	n, err := e.ledger.Import(data)
	if err != nil {
		return 0, err
	}
	e.logger.Info("history imported", "path", path, "tasks", n)
	return n, e.persist(ctx)
}
