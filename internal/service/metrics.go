package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hugo-lorenzo-mato/aiderkit/internal/aider"
	"github.com/hugo-lorenzo-mato/aiderkit/internal/core"
)

const metricsNamespace = "aiderkit"

// Metrics records task outcomes and aider usage.
type Metrics struct {
	// TasksTotal counts finished tasks. Labels: type, status.
	TasksTotal *prometheus.CounterVec
	// TaskDuration observes task run time in seconds. Labels: type, status.
	TaskDuration *prometheus.HistogramVec
	// TokensTotal counts tokens reported by aider. Labels: direction (sent, received).
	TokensTotal *prometheus.CounterVec
	// CostTotal sums the reported message cost in USD.
	CostTotal prometheus.Counter
}

// NewMetrics registers the task metrics on reg. A nil reg uses the default
// prometheus registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		TasksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "tasks_total",
			Help:      "Finished tasks by type and terminal status",
		}, []string{"type", "status"}),
		TaskDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "task_duration_seconds",
			Help:      "Task run time from start to terminal state",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		}, []string{"type", "status"}),
		TokensTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "tokens_total",
			Help:      "Tokens reported by aider",
		}, []string{"direction"}),
		CostTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cost_usd_total",
			Help:      "Message cost reported by aider in USD",
		}),
	}
}

// ObserveTask records a task that reached a terminal state.
func (m *Metrics) ObserveTask(task *core.Task, seconds float64) {
	if m == nil {
		return
	}
	labels := []string{string(task.Type), string(task.Status)}
	m.TasksTotal.WithLabelValues(labels...).Inc()
	m.TaskDuration.WithLabelValues(labels...).Observe(seconds)
}

// ObserveUsage records the token and cost summary of one aider run.
func (m *Metrics) ObserveUsage(u aider.Usage) {
	if m == nil || !u.Found {
		return
	}
	m.TokensTotal.WithLabelValues("sent").Add(float64(u.TokensSent))
	m.TokensTotal.WithLabelValues("received").Add(float64(u.TokensReceived))
	m.CostTotal.Add(u.CostUSD)
}
