package service

import (
	"maps"
	"strings"

	"github.com/hugo-lorenzo-mato/aiderkit/internal/core"
)

const (
	// DefaultDocModel is the model documentation tasks run with.
	DefaultDocModel = "claude-3-5-sonnet-20241022"
	// DefaultTestCmd is the test command test-generation tasks run with.
	DefaultTestCmd = "go test ./..."
)

var presets = map[core.TaskType]map[string]any{
	core.TaskTypeRefactoring: {
		"git":          true,
		"auto_commits": true,
		"lint":         true,
		"auto_lint":    true,
	},
	core.TaskTypeDebugging: {
		"verbose":    true,
		"test":       true,
		"auto_test":  true,
		"show_diffs": true,
	},
	core.TaskTypeDocumentation: {
		"model":  DefaultDocModel,
		"pretty": true,
	},
	core.TaskTypeTestGeneration: {
		"test":      true,
		"auto_test": true,
		"test_cmd":  DefaultTestCmd,
	},
}

// Preset returns a copy of the option overrides applied for typ. Coding and
// multi-step tasks have none.
func Preset(typ core.TaskType) map[string]any {
	return maps.Clone(presets[typ])
}

// withPreset layers caller overrides on top of the preset for typ. Keys are
// normalized to snake_case first so "auto-commits" replaces "auto_commits".
func withPreset(typ core.TaskType, overrides map[string]any) map[string]any {
	merged := Preset(typ)
	if merged == nil {
		merged = make(map[string]any, len(overrides))
	}
	for k, v := range overrides {
		merged[strings.ReplaceAll(k, "-", "_")] = v
	}
	return merged
}
