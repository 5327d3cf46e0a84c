package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hugo-lorenzo-mato/aiderkit/internal/config"
	"github.com/hugo-lorenzo-mato/aiderkit/internal/core"
)

// TaskResponse is the API response for a task: the persisted record plus a
// few derived fields.
type TaskResponse struct {
	*core.Task
	Output     string  `json:"output,omitempty"`
	DurationMS *int64  `json:"duration_ms,omitempty"`
	Progress   *string `json:"progress,omitempty"`
}

func toResponse(task *core.Task) TaskResponse {
	resp := TaskResponse{Task: task}
	if task.Result != nil {
		resp.Output = task.Result.Output()
	}
	if task.IsTerminal() {
		ms := task.Duration().Milliseconds()
		resp.DurationMS = &ms
	}
	tracked, filled := 0, 0
	for _, cp := range task.Steps {
		if !cp.Tracked {
			continue
		}
		tracked++
		if cp.Filled() {
			filled++
		}
	}
	if tracked > 0 {
		p := fmt.Sprintf("%d/%d", filled, tracked)
		resp.Progress = &p
	}
	return resp
}

// parseFilter reads type, status and since from the query string. since
// accepts an RFC 3339 timestamp or a duration back from now ("24h").
func parseFilter(r *http.Request, now time.Time) (core.Filter, error) {
	q := r.URL.Query()
	return core.ParseFilter(q.Get("type"), q.Get("status"), q.Get("since"), now)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r, time.Now())
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	tasks := s.Snapshot().Query(filter)
	response := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		response = append(response, toResponse(t))
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	if taskID == "" {
		s.respondError(w, http.StatusBadRequest, "task ID is required")
		return
	}

	task, err := s.Snapshot().Lookup(core.TaskID(taskID))
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toResponse(task))
}

// handleExportTasks returns the whole ledger in its persisted format.
func (s *Server) handleExportTasks(w http.ResponseWriter, r *http.Request) {
	data, err := s.Snapshot().Export()
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	etag := config.CalculateETag(data)
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && strings.Contains(match, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="ledger.json"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Error("failed to write export", "error", err)
	}
}
