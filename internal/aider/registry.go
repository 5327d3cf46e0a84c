package aider

import (
	"fmt"
	"sort"
	"strings"
)

// Kind describes how a field turns into tokens.
type Kind int

const (
	// KindPresence emits the bare flag when the boolean field is true.
	KindPresence Kind = iota
	// KindValued emits the flag followed by the stringified value.
	KindValued
	// KindRepeated emits one flag+value pair per list element.
	KindRepeated
	// KindComposite emits one flag+"alias:model" pair per alias element.
	KindComposite
	// KindFixedValue emits the flag followed by a fixed value when the
	// boolean field is true (edit-format switches).
	KindFixedValue
)

func (k Kind) String() string {
	switch k {
	case KindPresence:
		return "presence"
	case KindValued:
		return "valued"
	case KindRepeated:
		return "repeated-valued"
	case KindComposite:
		return "repeated-composite"
	case KindFixedValue:
		return "fixed-value"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Category groups fields. Categories are emitted in CategoryOrder.
type Category string

const (
	CategoryModel       Category = "model"
	CategoryCache       Category = "cache"
	CategoryRepoMap     Category = "repomap"
	CategoryHistory     Category = "history"
	CategoryOutput      Category = "output"
	CategoryGit         Category = "git"
	CategoryLintTest    Category = "lint_test"
	CategoryAnalytics   Category = "analytics"
	CategoryVoice       Category = "voice"
	CategoryGeneral     Category = "general"
	CategoryConventions Category = "conventions"
)

// CategoryOrder is the fixed emission order of categories.
var CategoryOrder = []Category{
	CategoryModel,
	CategoryCache,
	CategoryRepoMap,
	CategoryHistory,
	CategoryOutput,
	CategoryGit,
	CategoryLintTest,
	CategoryAnalytics,
	CategoryVoice,
	CategoryGeneral,
	CategoryConventions,
}

func categoryRank(c Category) int {
	for i, known := range CategoryOrder {
		if known == c {
			return i
		}
	}
	return -1
}

// Field is one registry entry: how option Name maps to tokens.
type Field struct {
	Name     string
	Flag     string
	Kind     Kind
	Category Category
	Value    string // KindFixedValue only
	get      func(*Options) any
}

// Get reads the field's current value from opts.
func (f Field) Get(opts *Options) any {
	if opts == nil || f.get == nil {
		return nil
	}
	return f.get(opts)
}

// Registry is an ordered table of fields. Build one with NewRegistry.
type Registry struct {
	fields   []Field
	byName   map[string]int
	excluded map[string]struct{}
}

// NewRegistry validates fields and orders them by category, keeping the
// given order within a category. Names listed in excluded are options that
// deliberately produce no tokens.
func NewRegistry(fields []Field, excluded ...string) (*Registry, error) {
	r := &Registry{
		fields:   make([]Field, len(fields)),
		byName:   make(map[string]int, len(fields)),
		excluded: make(map[string]struct{}, len(excluded)),
	}
	copy(r.fields, fields)

	for _, f := range r.fields {
		switch {
		case f.Name == "":
			return nil, fmt.Errorf("registry: field with empty name (flag %q)", f.Flag)
		case !strings.HasPrefix(f.Flag, "--"):
			return nil, fmt.Errorf("registry: field %s: flag %q must start with --", f.Name, f.Flag)
		case categoryRank(f.Category) < 0:
			return nil, fmt.Errorf("registry: field %s: unknown category %q", f.Name, f.Category)
		case f.Kind == KindFixedValue && f.Value == "":
			return nil, fmt.Errorf("registry: field %s: fixed-value kind needs a value", f.Name)
		case f.get == nil:
			return nil, fmt.Errorf("registry: field %s: no accessor", f.Name)
		}
	}

	sort.SliceStable(r.fields, func(i, j int) bool {
		return categoryRank(r.fields[i].Category) < categoryRank(r.fields[j].Category)
	})

	for i, f := range r.fields {
		if _, dup := r.byName[f.Name]; dup {
			return nil, fmt.Errorf("registry: field %s registered twice", f.Name)
		}
		r.byName[f.Name] = i
	}
	for _, name := range excluded {
		if _, registered := r.byName[name]; registered {
			return nil, fmt.Errorf("registry: field %s both registered and excluded", name)
		}
		r.excluded[name] = struct{}{}
	}
	return r, nil
}

// Fields returns the entries in emission order.
func (r *Registry) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Lookup finds an entry by option name.
func (r *Registry) Lookup(name string) (Field, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Field{}, false
	}
	return r.fields[i], true
}

// IsExcluded reports whether name is a known option that emits nothing.
func (r *Registry) IsExcluded(name string) bool {
	_, ok := r.excluded[name]
	return ok
}

// Excluded returns the excluded option names, sorted.
func (r *Registry) Excluded() []string {
	out := make([]string, 0, len(r.excluded))
	for name := range r.excluded {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ExcludedFields are options kept for callers but never passed to aider.
var ExcludedFields = []string{
	"use_temperature",
	"use_system_prompt",
	"use_repo_map",
	"extra_params",
	"reasoning_tag",
	"weak_model_name",
	"editor_model_name",
	"shell_completions",
}

var defaultRegistry = mustRegistry(defaultFields(), ExcludedFields...)

// DefaultRegistry returns the registry describing aider's flags.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

func mustRegistry(fields []Field, excluded ...string) *Registry {
	r, err := NewRegistry(fields, excluded...)
	if err != nil {
		panic(err)
	}
	return r
}

// flagFor derives aider's flag from an option name: auto_commits → --auto-commits.
func flagFor(name string) string {
	return "--" + strings.ReplaceAll(name, "_", "-")
}

func presence(c Category, name string, get func(*Options) any) Field {
	return Field{Name: name, Flag: flagFor(name), Kind: KindPresence, Category: c, get: get}
}

func valued(c Category, name string, get func(*Options) any) Field {
	return Field{Name: name, Flag: flagFor(name), Kind: KindValued, Category: c, get: get}
}

func repeated(c Category, name, flag string, get func(*Options) any) Field {
	return Field{Name: name, Flag: flag, Kind: KindRepeated, Category: c, get: get}
}

func fixed(c Category, name, flag, value string, get func(*Options) any) Field {
	return Field{Name: name, Flag: flag, Kind: KindFixedValue, Category: c, Value: value, get: get}
}

func defaultFields() []Field {
	return []Field{
		valued(CategoryModel, "model", func(o *Options) any { return o.Model }),
		valued(CategoryModel, "openai_api_key", func(o *Options) any { return o.OpenAIAPIKey }),
		valued(CategoryModel, "anthropic_api_key", func(o *Options) any { return o.AnthropicAPIKey }),
		valued(CategoryModel, "openai_api_base", func(o *Options) any { return o.OpenAIAPIBase }),
		valued(CategoryModel, "openai_api_type", func(o *Options) any { return o.OpenAIAPIType }),
		valued(CategoryModel, "openai_api_version", func(o *Options) any { return o.OpenAIAPIVersion }),
		valued(CategoryModel, "openai_api_deployment_id", func(o *Options) any { return o.OpenAIAPIDeploymentID }),
		valued(CategoryModel, "openai_organization_id", func(o *Options) any { return o.OpenAIOrganizationID }),
		valued(CategoryModel, "reasoning_effort", func(o *Options) any { return o.ReasoningEffort }),
		valued(CategoryModel, "thinking_tokens", func(o *Options) any { return o.ThinkingTokens }),
		presence(CategoryModel, "verify_ssl", func(o *Options) any { return o.VerifySSL }),
		valued(CategoryModel, "timeout", func(o *Options) any { return o.Timeout }),
		valued(CategoryModel, "edit_format", func(o *Options) any { return o.EditFormat }),
		presence(CategoryModel, "architect", func(o *Options) any { return o.Architect }),
		presence(CategoryModel, "auto_accept_architect", func(o *Options) any { return o.AutoAcceptArchitect }),
		valued(CategoryModel, "weak_model", func(o *Options) any { return o.WeakModel }),
		valued(CategoryModel, "editor_model", func(o *Options) any { return o.EditorModel }),
		valued(CategoryModel, "editor_edit_format", func(o *Options) any { return o.EditorEditFormat }),
		presence(CategoryModel, "show_model_warnings", func(o *Options) any { return o.ShowModelWarnings }),
		presence(CategoryModel, "check_model_accepts_settings", func(o *Options) any { return o.CheckModelAcceptsSettings }),
		valued(CategoryModel, "max_chat_history_tokens", func(o *Options) any { return o.MaxChatHistoryTokens }),
		valued(CategoryModel, "model_settings_file", func(o *Options) any { return o.ModelSettingsFile }),
		valued(CategoryModel, "model_metadata_file", func(o *Options) any { return o.ModelMetadataFile }),
		{Name: "alias_settings", Flag: "--alias", Kind: KindComposite, Category: CategoryModel,
			get: func(o *Options) any { return o.AliasSettings }},

		presence(CategoryCache, "cache_prompts", func(o *Options) any { return o.CachePrompts }),
		valued(CategoryCache, "cache_keepalive_pings", func(o *Options) any { return o.CacheKeepalivePings }),

		valued(CategoryRepoMap, "map_tokens", func(o *Options) any { return o.MapTokens }),
		valued(CategoryRepoMap, "map_refresh", func(o *Options) any { return o.MapRefresh }),
		valued(CategoryRepoMap, "map_multiplier_no_files", func(o *Options) any { return o.MapMultiplierNoFiles }),

		valued(CategoryHistory, "input_history_file", func(o *Options) any { return o.InputHistoryFile }),
		valued(CategoryHistory, "chat_history_file", func(o *Options) any { return o.ChatHistoryFile }),
		presence(CategoryHistory, "restore_chat_history", func(o *Options) any { return o.RestoreChatHistory }),
		valued(CategoryHistory, "llm_history_file", func(o *Options) any { return o.LLMHistoryFile }),

		presence(CategoryOutput, "dark_mode", func(o *Options) any { return o.DarkMode }),
		presence(CategoryOutput, "light_mode", func(o *Options) any { return o.LightMode }),
		presence(CategoryOutput, "pretty", func(o *Options) any { return o.Pretty }),
		presence(CategoryOutput, "stream", func(o *Options) any { return o.Stream }),
		valued(CategoryOutput, "user_input_color", func(o *Options) any { return o.UserInputColor }),
		valued(CategoryOutput, "tool_output_color", func(o *Options) any { return o.ToolOutputColor }),
		valued(CategoryOutput, "tool_error_color", func(o *Options) any { return o.ToolErrorColor }),
		valued(CategoryOutput, "tool_warning_color", func(o *Options) any { return o.ToolWarningColor }),
		valued(CategoryOutput, "assistant_output_color", func(o *Options) any { return o.AssistantOutputColor }),
		valued(CategoryOutput, "completion_menu_color", func(o *Options) any { return o.CompletionMenuColor }),
		valued(CategoryOutput, "completion_menu_bg_color", func(o *Options) any { return o.CompletionMenuBgColor }),
		valued(CategoryOutput, "completion_menu_current_color", func(o *Options) any { return o.CompletionMenuCurrentColor }),
		valued(CategoryOutput, "completion_menu_current_bg_color", func(o *Options) any { return o.CompletionMenuCurrentBgColor }),
		valued(CategoryOutput, "code_theme", func(o *Options) any { return o.CodeTheme }),
		presence(CategoryOutput, "show_diffs", func(o *Options) any { return o.ShowDiffs }),

		presence(CategoryGit, "git", func(o *Options) any { return o.Git }),
		presence(CategoryGit, "gitignore", func(o *Options) any { return o.Gitignore }),
		presence(CategoryGit, "add_gitignore_files", func(o *Options) any { return o.AddGitignoreFiles }),
		valued(CategoryGit, "aiderignore", func(o *Options) any { return o.Aiderignore }),
		presence(CategoryGit, "subtree_only", func(o *Options) any { return o.SubtreeOnly }),
		presence(CategoryGit, "auto_commits", func(o *Options) any { return o.AutoCommits }),
		presence(CategoryGit, "dirty_commits", func(o *Options) any { return o.DirtyCommits }),
		presence(CategoryGit, "attribute_author", func(o *Options) any { return o.AttributeAuthor }),
		presence(CategoryGit, "attribute_committer", func(o *Options) any { return o.AttributeCommitter }),
		presence(CategoryGit, "attribute_commit_message_author", func(o *Options) any { return o.AttributeCommitMessageAuthor }),
		presence(CategoryGit, "attribute_commit_message_committer", func(o *Options) any { return o.AttributeCommitMessageCommitter }),
		presence(CategoryGit, "attribute_co_authored_by", func(o *Options) any { return o.AttributeCoAuthoredBy }),
		presence(CategoryGit, "git_commit_verify", func(o *Options) any { return o.GitCommitVerify }),
		presence(CategoryGit, "commit", func(o *Options) any { return o.Commit }),
		valued(CategoryGit, "commit_prompt", func(o *Options) any { return o.CommitPrompt }),
		presence(CategoryGit, "dry_run", func(o *Options) any { return o.DryRun }),
		presence(CategoryGit, "skip_sanity_check_repo", func(o *Options) any { return o.SkipSanityCheckRepo }),
		presence(CategoryGit, "watch_files", func(o *Options) any { return o.WatchFiles }),

		presence(CategoryLintTest, "lint", func(o *Options) any { return o.Lint }),
		valued(CategoryLintTest, "lint_cmd", func(o *Options) any { return o.LintCmd }),
		presence(CategoryLintTest, "auto_lint", func(o *Options) any { return o.AutoLint }),
		valued(CategoryLintTest, "test_cmd", func(o *Options) any { return o.TestCmd }),
		presence(CategoryLintTest, "auto_test", func(o *Options) any { return o.AutoTest }),
		presence(CategoryLintTest, "test", func(o *Options) any { return o.Test }),

		presence(CategoryAnalytics, "analytics", func(o *Options) any { return o.Analytics }),
		valued(CategoryAnalytics, "analytics_log", func(o *Options) any { return o.AnalyticsLog }),
		presence(CategoryAnalytics, "analytics_disable", func(o *Options) any { return o.AnalyticsDisable }),
		valued(CategoryAnalytics, "analytics_posthog_host", func(o *Options) any { return o.AnalyticsPosthogHost }),
		valued(CategoryAnalytics, "analytics_posthog_project_api_key", func(o *Options) any { return o.AnalyticsPosthogProjectAPIKey }),

		valued(CategoryVoice, "voice_format", func(o *Options) any { return o.VoiceFormat }),
		valued(CategoryVoice, "voice_language", func(o *Options) any { return o.VoiceLanguage }),
		valued(CategoryVoice, "voice_input_device", func(o *Options) any { return o.VoiceInputDevice }),

		presence(CategoryGeneral, "disable_playwright", func(o *Options) any { return o.DisablePlaywright }),
		presence(CategoryGeneral, "vim", func(o *Options) any { return o.Vim }),
		valued(CategoryGeneral, "chat_language", func(o *Options) any { return o.ChatLanguage }),
		valued(CategoryGeneral, "commit_language", func(o *Options) any { return o.CommitLanguage }),
		presence(CategoryGeneral, "yes_always", func(o *Options) any { return o.YesAlways }),
		presence(CategoryGeneral, "verbose", func(o *Options) any { return o.Verbose }),
		valued(CategoryGeneral, "encoding", func(o *Options) any { return o.Encoding }),
		valued(CategoryGeneral, "line_endings", func(o *Options) any { return o.LineEndings }),
		presence(CategoryGeneral, "suggest_shell_commands", func(o *Options) any { return o.SuggestShellCommands }),
		presence(CategoryGeneral, "fancy_input", func(o *Options) any { return o.FancyInput }),
		presence(CategoryGeneral, "multiline", func(o *Options) any { return o.Multiline }),
		presence(CategoryGeneral, "notifications", func(o *Options) any { return o.Notifications }),
		valued(CategoryGeneral, "notifications_command", func(o *Options) any { return o.NotificationsCommand }),
		presence(CategoryGeneral, "detect_urls", func(o *Options) any { return o.DetectURLs }),
		valued(CategoryGeneral, "editor", func(o *Options) any { return o.Editor }),

		repeated(CategoryConventions, "conventions_files", "--read", func(o *Options) any { return o.ConventionsFiles }),
		repeated(CategoryConventions, "read_files", "--read", func(o *Options) any { return o.ReadFiles }),
		fixed(CategoryConventions, "edit_format_whole", "--edit-format", "whole", func(o *Options) any { return o.EditFormatWhole }),
		fixed(CategoryConventions, "edit_format_diff", "--edit-format", "diff", func(o *Options) any { return o.EditFormatDiff }),
		fixed(CategoryConventions, "edit_format_diff_fenced", "--edit-format", "diff-fenced", func(o *Options) any { return o.EditFormatDiffFenced }),
		fixed(CategoryConventions, "editor_edit_format_whole", "--editor-edit-format", "whole", func(o *Options) any { return o.EditorEditFormatWhole }),
		fixed(CategoryConventions, "editor_edit_format_diff", "--editor-edit-format", "diff", func(o *Options) any { return o.EditorEditFormatDiff }),
		fixed(CategoryConventions, "editor_edit_format_diff_fenced", "--editor-edit-format", "diff-fenced", func(o *Options) any { return o.EditorEditFormatDiffFenced }),
	}
}
