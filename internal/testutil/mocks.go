package testutil

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/hugo-lorenzo-mato/aiderkit/internal/core"
)

// MockCall records a call to the mock.
type MockCall struct {
	Method    string
	Args      []string
	Timestamp time.Time
}

// MockResponse is one scripted Run outcome.
type MockResponse struct {
	Stdout string
	Stderr string
	Err    error
}

// MockRunner implements core.Runner for testing. Responses are consumed in
// order; once exhausted, Run falls back to runFunc or an empty success.
type MockRunner struct {
	responses []MockResponse
	runFunc   func(context.Context, []string) (*core.RunResult, error)
	spawnFunc func(context.Context, []string) (core.Process, error)
	calls     []MockCall
	mu        sync.Mutex
}

// NewMockRunner creates a new mock runner.
func NewMockRunner() *MockRunner {
	return &MockRunner{calls: make([]MockCall, 0)}
}

// WithResponses queues scripted Run outcomes.
func (m *MockRunner) WithResponses(responses ...MockResponse) *MockRunner {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, responses...)
	return m
}

// WithRunFunc sets a custom Run function.
func (m *MockRunner) WithRunFunc(fn func(context.Context, []string) (*core.RunResult, error)) *MockRunner {
	m.runFunc = fn
	return m
}

// WithSpawnFunc sets a custom Spawn function.
func (m *MockRunner) WithSpawnFunc(fn func(context.Context, []string) (core.Process, error)) *MockRunner {
	m.spawnFunc = fn
	return m
}

// Run mocks a captured invocation.
func (m *MockRunner) Run(ctx context.Context, argv []string) (*core.RunResult, error) {
	m.recordCall("Run", argv)

	m.mu.Lock()
	var next *MockResponse
	if len(m.responses) > 0 {
		next = &m.responses[0]
		m.responses = m.responses[1:]
	}
	m.mu.Unlock()

	if next != nil {
		result := &core.RunResult{Stdout: next.Stdout, Stderr: next.Stderr}
		if next.Err != nil {
			result.ExitCode = 1
			return result, next.Err
		}
		return result, nil
	}
	if m.runFunc != nil {
		return m.runFunc(ctx, argv)
	}
	return &core.RunResult{}, nil
}

// Spawn mocks an interactive invocation.
func (m *MockRunner) Spawn(ctx context.Context, argv []string) (core.Process, error) {
	m.recordCall("Spawn", argv)
	if m.spawnFunc != nil {
		return m.spawnFunc(ctx, argv)
	}
	return &MockProcess{PID: 4242}, nil
}

func (m *MockRunner) recordCall(method string, argv []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{
		Method:    method,
		Args:      slices.Clone(argv),
		Timestamp: time.Now(),
	})
}

// Calls returns all recorded calls.
func (m *MockRunner) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockCall, len(m.calls))
	copy(result, m.calls)
	return result
}

// CallCount returns the number of calls to a method.
func (m *MockRunner) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.calls {
		if c.Method == method {
			count++
		}
	}
	return count
}

// LastArgs returns the argv of the most recent call, or nil.
func (m *MockRunner) LastArgs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	return slices.Clone(m.calls[len(m.calls)-1].Args)
}

// Reset clears recorded calls and queued responses.
func (m *MockRunner) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = make([]MockCall, 0)
	m.responses = nil
}

// MockProcess implements core.Process.
type MockProcess struct {
	PID     int
	WaitErr error
}

// Pid returns the fake pid.
func (p *MockProcess) Pid() int { return p.PID }

// Wait returns WaitErr immediately.
func (p *MockProcess) Wait() error { return p.WaitErr }

// MockLedgerStore implements core.LedgerStore in memory.
type MockLedgerStore struct {
	mu      sync.Mutex
	tasks   []*core.Task
	saves   int
	LoadErr error
	SaveErr error
}

// NewMockLedgerStore creates a store seeded with tasks.
func NewMockLedgerStore(tasks ...*core.Task) *MockLedgerStore {
	return &MockLedgerStore{tasks: cloneTasks(tasks)}
}

// Load returns copies of the stored tasks.
func (s *MockLedgerStore) Load(_ context.Context) ([]*core.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	return cloneTasks(s.tasks), nil
}

// Save replaces the stored tasks.
func (s *MockLedgerStore) Save(_ context.Context, tasks []*core.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.tasks = cloneTasks(tasks)
	s.saves++
	return nil
}

// Saves returns how many successful saves happened.
func (s *MockLedgerStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func cloneTasks(tasks []*core.Task) []*core.Task {
	out := make([]*core.Task, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Clone())
	}
	return out
}

var (
	_ core.Runner      = (*MockRunner)(nil)
	_ core.Process     = (*MockProcess)(nil)
	_ core.LedgerStore = (*MockLedgerStore)(nil)
)
