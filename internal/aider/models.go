package aider

import (
	"slices"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Provider names a model vendor aider can talk to.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGoogle    Provider = "google"
	ProviderGroq      Provider = "groq"
	ProviderDeepSeek  Provider = "deepseek"
	ProviderXAI       Provider = "xai"
	ProviderCohere    Provider = "cohere"
)

var providerOrder = []Provider{
	ProviderOpenAI, ProviderAnthropic, ProviderGoogle, ProviderGroq,
	ProviderDeepSeek, ProviderXAI, ProviderCohere,
}

var providerModels = map[Provider][]string{
	ProviderOpenAI: {
		"gpt-4o", "gpt-4o-mini", "gpt-4-turbo", "gpt-4", "gpt-3.5-turbo",
		"o1-preview", "o1-mini",
	},
	ProviderAnthropic: {
		"claude-3-5-sonnet-20241022", "claude-3-5-haiku-20241022",
		"claude-3-opus-20240229", "claude-3-sonnet-20240229", "claude-3-haiku-20240307",
	},
	ProviderGoogle:   {"gemini-1.5-pro", "gemini-1.5-flash", "gemini-pro"},
	ProviderGroq:     {"llama-3.1-70b-versatile", "llama-3.1-8b-instant", "mixtral-8x7b-32768", "gemma-7b-it"},
	ProviderDeepSeek: {"deepseek-chat", "deepseek-coder"},
	ProviderXAI:      {"grok-beta"},
	ProviderCohere:   {"command-r-plus", "command-r", "command-light"},
}

var (
	reasoningModels = []string{"o1-preview", "o1-mini"}
	visionModels    = []string{
		"gpt-4o", "gpt-4o-mini", "gpt-4-turbo",
		"claude-3-5-sonnet-20241022", "claude-3-opus-20240229",
		"gemini-1.5-pro", "gemini-1.5-flash",
	}
)

// RecommendedModels maps a use case to the suggested model.
var RecommendedModels = map[string]string{
	"best_overall": "claude-3-5-sonnet-20241022",
	"fastest":      "claude-3-5-haiku-20241022",
	"cheapest":     "gpt-4o-mini",
	"reasoning":    "o1-preview",
	"coding":       "deepseek-chat",
	"vision":       "gpt-4o",
}

// Cost is the approximate price in USD per million tokens.
type Cost struct {
	Input  float64 `json:"input" yaml:"input"`
	Output float64 `json:"output" yaml:"output"`
}

// ModelInfo describes one catalogue entry.
type ModelInfo struct {
	Name          string   `json:"name" yaml:"name"`
	Provider      Provider `json:"provider" yaml:"provider"`
	Reasoning     bool     `json:"reasoning" yaml:"reasoning"`
	Vision        bool     `json:"vision" yaml:"vision"`
	ContextWindow int      `json:"context_window" yaml:"context_window"`
	Cost          Cost     `json:"cost_per_million_tokens" yaml:"cost_per_million_tokens"`
}

type modelRule struct {
	fragment      string
	contextWindow int
	cost          Cost
}

// Matched by substring, first hit wins, so more specific names come first.
var modelRules = []modelRule{
	{"gpt-4o-mini", 128_000, Cost{0.15, 0.6}},
	{"gpt-4o", 128_000, Cost{5.0, 15.0}},
	{"gpt-4-turbo", 128_000, Cost{10.0, 30.0}},
	{"gpt-4", 8_192, Cost{30.0, 60.0}},
	{"gpt-3.5-turbo", 4_096, Cost{0.5, 1.5}},
	{"o1-preview", 200_000, Cost{15.0, 60.0}},
	{"o1-mini", 200_000, Cost{3.0, 12.0}},
	{"claude-3-5-sonnet", 200_000, Cost{3.0, 15.0}},
	{"claude-3-5-haiku", 200_000, Cost{0.8, 4.0}},
	{"claude-3-opus", 200_000, Cost{15.0, 75.0}},
	{"claude-3-sonnet", 200_000, Cost{3.0, 15.0}},
	{"claude-3-haiku", 200_000, Cost{0.25, 1.25}},
	{"gemini-1.5-pro", 1_000_000, Cost{1.25, 5.0}},
	{"gemini-1.5-flash", 1_000_000, Cost{0.075, 0.3}},
	{"gemini-pro", 32_768, Cost{0.5, 1.5}},
	{"llama-3.1-70b", 128_000, Cost{0.59, 0.79}},
	{"llama-3.1-8b", 128_000, Cost{0.05, 0.05}},
	{"mixtral", 32_768, Cost{0.27, 0.27}},
	{"deepseek", 64_000, Cost{0.14, 0.28}},
	{"grok", 128_000, Cost{0.01, 0.01}},
	{"command-r-plus", 128_000, Cost{3.0, 15.0}},
	{"command-r", 128_000, Cost{0.5, 1.5}},
	{"command-light", 100_000, Cost{0.3, 0.3}},
}

var fallbackRule = modelRule{contextWindow: 4_096, cost: Cost{1.0, 2.0}}

// Providers lists the known providers in catalogue order.
func Providers() []Provider {
	return slices.Clone(providerOrder)
}

// ParseProvider resolves a provider name case-insensitively.
func ParseProvider(name string) (Provider, bool) {
	p := Provider(strings.ToLower(strings.TrimSpace(name)))
	_, ok := providerModels[p]
	return p, ok
}

// Models lists the models of provider, or every model when provider is empty.
func Models(provider Provider) []string {
	if provider != "" {
		return slices.Clone(providerModels[provider])
	}
	var all []string
	for _, p := range providerOrder {
		all = append(all, providerModels[p]...)
	}
	return all
}

// IsKnownModel reports whether name is in the catalogue.
func IsKnownModel(name string) bool {
	_, ok := ProviderFor(name)
	return ok
}

// ProviderFor finds the provider serving model name.
func ProviderFor(name string) (Provider, bool) {
	for _, p := range providerOrder {
		if slices.Contains(providerModels[p], name) {
			return p, true
		}
	}
	return "", false
}

// IsReasoningModel reports whether name is a reasoning model.
func IsReasoningModel(name string) bool {
	return slices.Contains(reasoningModels, name)
}

// HasVision reports whether name accepts images.
func HasVision(name string) bool {
	return slices.Contains(visionModels, name)
}

// LookupModel returns catalogue details for name.
func LookupModel(name string) (ModelInfo, bool) {
	provider, ok := ProviderFor(name)
	if !ok {
		return ModelInfo{}, false
	}
	rule := ruleFor(name)
	return ModelInfo{
		Name:          name,
		Provider:      provider,
		Reasoning:     IsReasoningModel(name),
		Vision:        HasVision(name),
		ContextWindow: rule.contextWindow,
		Cost:          rule.cost,
	}, true
}

func ruleFor(name string) modelRule {
	for _, r := range modelRules {
		if strings.Contains(name, r.fragment) {
			return r
		}
	}
	return fallbackRule
}

// SuggestModels returns up to limit catalogue names that fuzzily match name,
// best match first.
func SuggestModels(name string, limit int) []string {
	if name == "" || limit <= 0 {
		return nil
	}
	matches := fuzzy.Find(strings.ToLower(name), Models(""))
	if len(matches) == 0 {
		return nil
	}
	sort.Stable(matches)
	out := make([]string, 0, limit)
	for _, m := range matches {
		if len(out) == limit {
			break
		}
		out = append(out, m.Str)
	}
	return out
}
