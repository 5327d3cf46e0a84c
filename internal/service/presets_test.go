package service

import (
	"testing"

	"github.com/hugo-lorenzo-mato/aiderkit/internal/aider"
	"github.com/hugo-lorenzo-mato/aiderkit/internal/core"
)

func TestPreset_ReturnsCopy(t *testing.T) {
	p := Preset(core.TaskTypeRefactoring)
	p["git"] = false
	if Preset(core.TaskTypeRefactoring)["git"] != true {
		t.Fatal("Preset must return a copy")
	}
	if Preset(core.TaskTypeCoding) != nil || Preset(core.TaskTypeMultiStep) != nil {
		t.Fatal("coding and multi-step have no preset")
	}
}

func TestPreset_KeysAreOptionNames(t *testing.T) {
	known := make(map[string]bool)
	for _, n := range aider.OptionNames() {
		known[n] = true
	}
	for _, typ := range core.AllTaskTypes {
		for key := range Preset(typ) {
			if !known[key] {
				t.Errorf("%s preset sets unknown option %q", typ, key)
			}
		}
	}
}

func TestWithPreset_NormalizesCallerKeys(t *testing.T) {
	merged := withPreset(core.TaskTypeRefactoring, map[string]any{"auto-commits": false, "model": "m"})
	if merged["auto_commits"] != false || merged["model"] != "m" {
		t.Fatalf("merged = %v", merged)
	}
	if _, dup := merged["auto-commits"]; dup {
		t.Fatal("dashed key must be folded into the snake_case key")
	}
	if merged["git"] != true {
		t.Fatal("untouched preset keys survive")
	}
}
