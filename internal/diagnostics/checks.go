package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/hugo-lorenzo-mato/aiderkit/internal/core"
)

// Status is the outcome of one check.
type Status string

const (
	StatusOK   Status = "ok"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// Check is one line of the doctor report.
type Check struct {
	Name   string `json:"name" yaml:"name"`
	Status Status `json:"status" yaml:"status"`
	Detail string `json:"detail" yaml:"detail"`
}

// Report is the full doctor output.
type Report struct {
	Checks []Check   `json:"checks" yaml:"checks"`
	Host   *HostInfo `json:"host,omitempty" yaml:"host,omitempty"`
}

// OK reports whether no check failed. Warnings do not count.
func (r Report) OK() bool {
	for _, c := range r.Checks {
		if c.Status == StatusFail {
			return false
		}
	}
	return true
}

// AiderProbe locates and queries the aider executable.
type AiderProbe interface {
	CheckAvailability() (string, error)
	Version(ctx context.Context) (string, error)
}

// Doctor runs the environment checks.
type Doctor struct {
	Probe       AiderProbe
	Ledger      core.LedgerStore
	LedgerPath  string
	EnvFile     string
	Env         map[string]string // from EnvFile, AIDER_-prefixed
	IncludeHost bool
	WorkDir     string

	// Swapped out in tests.
	lookupEnv func(string) (string, bool)
}

// apiKeyVars are the variables aider reads provider keys from.
var apiKeyVars = []string{
	"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "DEEPSEEK_API_KEY",
	"OPENROUTER_API_KEY", "GROQ_API_KEY", "MISTRAL_API_KEY", "XAI_API_KEY",
	"AIDER_OPENAI_API_KEY", "AIDER_ANTHROPIC_API_KEY",
}

// Run executes every check in order.
func (d *Doctor) Run(ctx context.Context) Report {
	var r Report
	r.Checks = append(r.Checks, d.checkAider(ctx)...)
	r.Checks = append(r.Checks, d.checkLedger(ctx))
	r.Checks = append(r.Checks, d.checkEnvFile())
	r.Checks = append(r.Checks, d.checkAPIKeys())
	if d.IncludeHost {
		host := CollectHost(ctx, d.WorkDir)
		r.Host = &host
		r.Checks = append(r.Checks, checkMemory(host))
	}
	return r
}

func (d *Doctor) checkAider(ctx context.Context) []Check {
	if d.Probe == nil {
		return []Check{{Name: "aider", Status: StatusFail, Detail: "no runner configured"}}
	}
	path, err := d.Probe.CheckAvailability()
	if err != nil {
		return []Check{{Name: "aider", Status: StatusFail, Detail: core.MessageOf(err)}}
	}
	checks := []Check{{Name: "aider", Status: StatusOK, Detail: path}}

	version, err := d.Probe.Version(ctx)
	if err != nil {
		checks = append(checks, Check{Name: "aider version", Status: StatusFail, Detail: core.MessageOf(err)})
	} else {
		checks = append(checks, Check{Name: "aider version", Status: StatusOK, Detail: version})
	}
	return checks
}

func (d *Doctor) checkLedger(ctx context.Context) Check {
	c := Check{Name: "ledger"}
	if d.Ledger == nil {
		c.Status, c.Detail = StatusWarn, "no ledger configured"
		return c
	}
	tasks, err := d.Ledger.Load(ctx)
	if err != nil {
		c.Status, c.Detail = StatusFail, fmt.Sprintf("%s: %s", d.LedgerPath, core.MessageOf(err))
		return c
	}
	c.Status, c.Detail = StatusOK, fmt.Sprintf("%s (%d tasks)", d.LedgerPath, len(tasks))
	return c
}

func (d *Doctor) checkEnvFile() Check {
	c := Check{Name: "env file"}
	if d.EnvFile == "" {
		c.Status, c.Detail = StatusOK, "not configured"
		return c
	}
	if _, err := os.Stat(d.EnvFile); errors.Is(err, fs.ErrNotExist) {
		c.Status, c.Detail = StatusWarn, d.EnvFile+" not found"
		return c
	}
	c.Status, c.Detail = StatusOK, fmt.Sprintf("%s (%d variables)", d.EnvFile, len(d.Env))
	return c
}

func (d *Doctor) checkAPIKeys() Check {
	lookup := d.lookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	var found []string
	for _, name := range apiKeyVars {
		if v, ok := lookup(name); ok && v != "" {
			found = append(found, name)
		} else if d.Env[name] != "" {
			found = append(found, name)
		}
	}
	if len(found) == 0 {
		return Check{Name: "api keys", Status: StatusWarn, Detail: "no provider API key found in the environment"}
	}
	return Check{Name: "api keys", Status: StatusOK, Detail: strings.Join(found, ", ")}
}

// lowMemoryMB is the available memory below which aider tends to struggle
// with large repo maps.
const lowMemoryMB = 512

func checkMemory(h HostInfo) Check {
	c := Check{Name: "memory"}
	switch {
	case h.MemTotalMB == 0:
		c.Status, c.Detail = StatusWarn, "could not read memory usage"
	case h.MemAvailableMB < lowMemoryMB:
		c.Status, c.Detail = StatusWarn, fmt.Sprintf("only %.0f MB available", h.MemAvailableMB)
	default:
		c.Status, c.Detail = StatusOK, fmt.Sprintf("%.0f of %.0f MB available", h.MemAvailableMB, h.MemTotalMB)
	}
	return c
}
