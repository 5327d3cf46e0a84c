package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/aiderkit/internal/core"
	"github.com/hugo-lorenzo-mato/aiderkit/internal/testutil"
)

type fixture struct {
	server    *Server
	completed *core.Task
	failed    *core.Task
	multi     *core.Task
}

func newFixture(t *testing.T, opts ...ServerOption) fixture {
	t.Helper()
	completed := testutil.CompletedTask(t, core.TaskTypeRefactoring, "extract helper", "done")
	failed := testutil.FailedTask(t, core.TaskTypeDebugging, "fix flaky test", "exit status 1")

	multi := core.NewTask(core.TaskTypeMultiStep, "Multi-step task with 2 steps", nil).WithSteps(
		core.Step{Description: "write", Checkpoint: true},
		core.Step{Description: "test", Checkpoint: true},
	)
	require.NoError(t, multi.Start())
	require.NoError(t, multi.RecordCheckpoint(0, "written"))

	store := testutil.NewMockLedgerStore(completed, failed, multi)
	s, err := NewServer(context.Background(), store, opts...)
	require.NoError(t, err)
	return fixture{server: s, completed: completed, failed: failed, multi: multi}
}

func get(t *testing.T, h http.Handler, target string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeTasks(t *testing.T, rec *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var out []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestNewServer_LoadErrorFails(t *testing.T) {
	store := testutil.NewMockLedgerStore()
	store.LoadErr = errors.New("disk gone")

	_, err := NewServer(context.Background(), store)
	assert.EqualError(t, err, "disk gone")
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := get(t, f.server.Handler(), "/health")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.EqualValues(t, 3, body["tasks"])
}

func TestListTasks(t *testing.T) {
	f := newFixture(t)
	rec := get(t, f.server.Handler(), "/api/v1/tasks")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	tasks := decodeTasks(t, rec)
	require.Len(t, tasks, 3)
	assert.Equal(t, string(f.completed.ID), tasks[0]["id"])
	assert.Equal(t, "done", tasks[0]["output"])
	assert.Contains(t, tasks[0], "duration_ms")
	assert.Equal(t, "exit status 1", tasks[1]["error"])
	assert.Equal(t, "1/2", tasks[2]["progress"])
	assert.NotContains(t, tasks[2], "duration_ms")
}

func TestListTasks_Filters(t *testing.T) {
	f := newFixture(t)
	future := url.QueryEscape(time.Now().Add(time.Hour).Format(time.RFC3339))

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"by type", "?type=refactoring", 1},
		{"dashed type", "?type=multi-step", 1},
		{"by status", "?status=failed", 1},
		{"type and status", "?type=debugging&status=completed", 0},
		{"since duration", "?since=1h", 3},
		{"since timestamp", "?since=" + future, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, f.server.Handler(), "/api/v1/tasks"+tt.query)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Len(t, decodeTasks(t, rec), tt.want)
		})
	}
}

func TestListTasks_BadQuery(t *testing.T) {
	f := newFixture(t)
	for _, q := range []string{"?type=poetry", "?status=done", "?since=yesterday"} {
		rec := get(t, f.server.Handler(), "/api/v1/tasks"+q)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, q)
		assert.Contains(t, rec.Body.String(), `"error"`)
	}
}

func TestGetTask(t *testing.T) {
	f := newFixture(t)

	rec := get(t, f.server.Handler(), "/api/v1/tasks/"+string(f.failed.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	var task map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	assert.Equal(t, "debugging", task["type"])
	assert.Equal(t, "failed", task["status"])

	rec = get(t, f.server.Handler(), "/api/v1/tasks/task_missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "task_missing")
}

func TestExportTasks(t *testing.T) {
	f := newFixture(t)
	h := f.server.Handler()

	rec := get(t, h, "/api/v1/tasks/export")
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "ledger.json")

	imported, err := core.NewLedger()
	require.NoError(t, err)
	n, err := imported.Import(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	rec = get(t, h, "/api/v1/tasks/export", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "aiderkit_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Add(2)

	f := newFixture(t, WithGatherer(reg))
	rec := get(t, f.server.Handler(), "/metrics")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "aiderkit_test_total 2")
}

func TestCORS(t *testing.T) {
	f := newFixture(t, WithCORSOrigins([]string{"http://localhost:5173"}))
	h := f.server.Handler()

	rec := get(t, h, "/health", "Origin", "http://localhost:5173")
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = get(t, h, "/health", "Origin", "http://evil.example")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestReload_KeepsSnapshotOnError(t *testing.T) {
	store := testutil.NewMockLedgerStore(testutil.NewTestTask())
	s, err := NewServer(context.Background(), store)
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), []*core.Task{
		testutil.NewTestTask(), testutil.NewTestTask(),
	}))
	require.NoError(t, s.Reload(context.Background()))
	assert.Equal(t, 2, s.Snapshot().Len())

	store.LoadErr = errors.New("boom")
	assert.Error(t, s.Reload(context.Background()))
	assert.Equal(t, 2, s.Snapshot().Len())
}

func TestHTTPStatusForDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantOK     bool
	}{
		{"validation", core.ErrValidation("BAD_INPUT", "bad"), http.StatusUnprocessableEntity, true},
		{"not found", core.ErrNotFound("task", "x"), http.StatusNotFound, true},
		{"state", core.ErrState(core.CodeDuplicateTask, "dup"), http.StatusConflict, true},
		{"configuration", core.ErrConfiguration(core.CodeParseFailed, "bad json"), http.StatusBadRequest, true},
		{"execution (default)", core.ErrExecution(core.CodeCommandFailed, "exit 1"), http.StatusInternalServerError, true},
		{"non-domain error", errors.New("plain"), 0, false},
		{"nil error", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, ok := httpStatusForDomainError(tt.err)
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.wantStatus, status)
			}
		})
	}
}
