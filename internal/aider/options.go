// Package aider compiles structured aider options into command-line tokens and
// wraps the aider executable behind a small client.
package aider

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/hugo-lorenzo-mato/aiderkit/internal/core"
)

// ModelAlias maps a short alias to a full model name (--alias alias:model).
type ModelAlias struct {
	Alias string `mapstructure:"alias" yaml:"alias"`
	Model string `mapstructure:"model" yaml:"model"`
}

// String renders the alias in aider's alias:model form.
func (a ModelAlias) String() string {
	return a.Alias + ":" + a.Model
}

// Options is the full set of aider settings. Every field is optional: a nil
// pointer or empty list means "not set", which is distinct from false or "".
// Field names (the mapstructure tag) are the option names used by config
// files, env files, and task presets.
type Options struct {
	// Model
	Model                     *string        `mapstructure:"model" yaml:"model,omitempty"`
	OpenAIAPIKey              *string        `mapstructure:"openai_api_key" yaml:"openai_api_key,omitempty"`
	AnthropicAPIKey           *string        `mapstructure:"anthropic_api_key" yaml:"anthropic_api_key,omitempty"`
	OpenAIAPIBase             *string        `mapstructure:"openai_api_base" yaml:"openai_api_base,omitempty"`
	OpenAIAPIType             *string        `mapstructure:"openai_api_type" yaml:"openai_api_type,omitempty"`
	OpenAIAPIVersion          *string        `mapstructure:"openai_api_version" yaml:"openai_api_version,omitempty"`
	OpenAIAPIDeploymentID     *string        `mapstructure:"openai_api_deployment_id" yaml:"openai_api_deployment_id,omitempty"`
	OpenAIOrganizationID      *string        `mapstructure:"openai_organization_id" yaml:"openai_organization_id,omitempty"`
	ReasoningEffort           *string        `mapstructure:"reasoning_effort" yaml:"reasoning_effort,omitempty"`
	ThinkingTokens            *string        `mapstructure:"thinking_tokens" yaml:"thinking_tokens,omitempty"`
	VerifySSL                 *bool          `mapstructure:"verify_ssl" yaml:"verify_ssl,omitempty"`
	Timeout                   *int           `mapstructure:"timeout" yaml:"timeout,omitempty"`
	EditFormat                *string        `mapstructure:"edit_format" yaml:"edit_format,omitempty"`
	Architect                 *bool          `mapstructure:"architect" yaml:"architect,omitempty"`
	AutoAcceptArchitect       *bool          `mapstructure:"auto_accept_architect" yaml:"auto_accept_architect,omitempty"`
	WeakModel                 *string        `mapstructure:"weak_model" yaml:"weak_model,omitempty"`
	EditorModel               *string        `mapstructure:"editor_model" yaml:"editor_model,omitempty"`
	EditorEditFormat          *string        `mapstructure:"editor_edit_format" yaml:"editor_edit_format,omitempty"`
	ShowModelWarnings         *bool          `mapstructure:"show_model_warnings" yaml:"show_model_warnings,omitempty"`
	CheckModelAcceptsSettings *bool          `mapstructure:"check_model_accepts_settings" yaml:"check_model_accepts_settings,omitempty"`
	MaxChatHistoryTokens      *int           `mapstructure:"max_chat_history_tokens" yaml:"max_chat_history_tokens,omitempty"`
	ModelSettingsFile         *string        `mapstructure:"model_settings_file" yaml:"model_settings_file,omitempty"`
	ModelMetadataFile         *string        `mapstructure:"model_metadata_file" yaml:"model_metadata_file,omitempty"`
	AliasSettings             []ModelAlias   `mapstructure:"alias_settings" yaml:"alias_settings,omitempty"`
	UseTemperature            *bool          `mapstructure:"use_temperature" yaml:"use_temperature,omitempty"`
	UseSystemPrompt           *bool          `mapstructure:"use_system_prompt" yaml:"use_system_prompt,omitempty"`
	UseRepoMap                *bool          `mapstructure:"use_repo_map" yaml:"use_repo_map,omitempty"`
	ExtraParams               map[string]any `mapstructure:"extra_params" yaml:"extra_params,omitempty"`
	ReasoningTag              *string        `mapstructure:"reasoning_tag" yaml:"reasoning_tag,omitempty"`
	WeakModelName             *string        `mapstructure:"weak_model_name" yaml:"weak_model_name,omitempty"`
	EditorModelName           *string        `mapstructure:"editor_model_name" yaml:"editor_model_name,omitempty"`

	// Cache
	CachePrompts        *bool `mapstructure:"cache_prompts" yaml:"cache_prompts,omitempty"`
	CacheKeepalivePings *int  `mapstructure:"cache_keepalive_pings" yaml:"cache_keepalive_pings,omitempty"`

	// Repository map
	MapTokens            *int     `mapstructure:"map_tokens" yaml:"map_tokens,omitempty"`
	MapRefresh           *string  `mapstructure:"map_refresh" yaml:"map_refresh,omitempty"`
	MapMultiplierNoFiles *float64 `mapstructure:"map_multiplier_no_files" yaml:"map_multiplier_no_files,omitempty"`

	// History
	InputHistoryFile   *string `mapstructure:"input_history_file" yaml:"input_history_file,omitempty"`
	ChatHistoryFile    *string `mapstructure:"chat_history_file" yaml:"chat_history_file,omitempty"`
	RestoreChatHistory *bool   `mapstructure:"restore_chat_history" yaml:"restore_chat_history,omitempty"`
	LLMHistoryFile     *string `mapstructure:"llm_history_file" yaml:"llm_history_file,omitempty"`

	// Output
	DarkMode                     *bool   `mapstructure:"dark_mode" yaml:"dark_mode,omitempty"`
	LightMode                    *bool   `mapstructure:"light_mode" yaml:"light_mode,omitempty"`
	Pretty                       *bool   `mapstructure:"pretty" yaml:"pretty,omitempty"`
	Stream                       *bool   `mapstructure:"stream" yaml:"stream,omitempty"`
	UserInputColor               *string `mapstructure:"user_input_color" yaml:"user_input_color,omitempty"`
	ToolOutputColor              *string `mapstructure:"tool_output_color" yaml:"tool_output_color,omitempty"`
	ToolErrorColor               *string `mapstructure:"tool_error_color" yaml:"tool_error_color,omitempty"`
	ToolWarningColor             *string `mapstructure:"tool_warning_color" yaml:"tool_warning_color,omitempty"`
	AssistantOutputColor         *string `mapstructure:"assistant_output_color" yaml:"assistant_output_color,omitempty"`
	CompletionMenuColor          *string `mapstructure:"completion_menu_color" yaml:"completion_menu_color,omitempty"`
	CompletionMenuBgColor        *string `mapstructure:"completion_menu_bg_color" yaml:"completion_menu_bg_color,omitempty"`
	CompletionMenuCurrentColor   *string `mapstructure:"completion_menu_current_color" yaml:"completion_menu_current_color,omitempty"`
	CompletionMenuCurrentBgColor *string `mapstructure:"completion_menu_current_bg_color" yaml:"completion_menu_current_bg_color,omitempty"`
	CodeTheme                    *string `mapstructure:"code_theme" yaml:"code_theme,omitempty"`
	ShowDiffs                    *bool   `mapstructure:"show_diffs" yaml:"show_diffs,omitempty"`

	// Git
	Git                             *bool   `mapstructure:"git" yaml:"git,omitempty"`
	Gitignore                       *bool   `mapstructure:"gitignore" yaml:"gitignore,omitempty"`
	AddGitignoreFiles               *bool   `mapstructure:"add_gitignore_files" yaml:"add_gitignore_files,omitempty"`
	Aiderignore                     *string `mapstructure:"aiderignore" yaml:"aiderignore,omitempty"`
	SubtreeOnly                     *bool   `mapstructure:"subtree_only" yaml:"subtree_only,omitempty"`
	AutoCommits                     *bool   `mapstructure:"auto_commits" yaml:"auto_commits,omitempty"`
	DirtyCommits                    *bool   `mapstructure:"dirty_commits" yaml:"dirty_commits,omitempty"`
	AttributeAuthor                 *bool   `mapstructure:"attribute_author" yaml:"attribute_author,omitempty"`
	AttributeCommitter              *bool   `mapstructure:"attribute_committer" yaml:"attribute_committer,omitempty"`
	AttributeCommitMessageAuthor    *bool   `mapstructure:"attribute_commit_message_author" yaml:"attribute_commit_message_author,omitempty"`
	AttributeCommitMessageCommitter *bool   `mapstructure:"attribute_commit_message_committer" yaml:"attribute_commit_message_committer,omitempty"`
	AttributeCoAuthoredBy           *bool   `mapstructure:"attribute_co_authored_by" yaml:"attribute_co_authored_by,omitempty"`
	GitCommitVerify                 *bool   `mapstructure:"git_commit_verify" yaml:"git_commit_verify,omitempty"`
	Commit                          *bool   `mapstructure:"commit" yaml:"commit,omitempty"`
	CommitPrompt                    *string `mapstructure:"commit_prompt" yaml:"commit_prompt,omitempty"`
	DryRun                          *bool   `mapstructure:"dry_run" yaml:"dry_run,omitempty"`
	SkipSanityCheckRepo             *bool   `mapstructure:"skip_sanity_check_repo" yaml:"skip_sanity_check_repo,omitempty"`
	WatchFiles                      *bool   `mapstructure:"watch_files" yaml:"watch_files,omitempty"`

	// Lint and test
	Lint     *bool   `mapstructure:"lint" yaml:"lint,omitempty"`
	LintCmd  *string `mapstructure:"lint_cmd" yaml:"lint_cmd,omitempty"`
	AutoLint *bool   `mapstructure:"auto_lint" yaml:"auto_lint,omitempty"`
	TestCmd  *string `mapstructure:"test_cmd" yaml:"test_cmd,omitempty"`
	AutoTest *bool   `mapstructure:"auto_test" yaml:"auto_test,omitempty"`
	Test     *bool   `mapstructure:"test" yaml:"test,omitempty"`

	// Analytics
	Analytics                     *bool   `mapstructure:"analytics" yaml:"analytics,omitempty"`
	AnalyticsLog                  *string `mapstructure:"analytics_log" yaml:"analytics_log,omitempty"`
	AnalyticsDisable              *bool   `mapstructure:"analytics_disable" yaml:"analytics_disable,omitempty"`
	AnalyticsPosthogHost          *string `mapstructure:"analytics_posthog_host" yaml:"analytics_posthog_host,omitempty"`
	AnalyticsPosthogProjectAPIKey *string `mapstructure:"analytics_posthog_project_api_key" yaml:"analytics_posthog_project_api_key,omitempty"`

	// Voice
	VoiceFormat      *string `mapstructure:"voice_format" yaml:"voice_format,omitempty"`
	VoiceLanguage    *string `mapstructure:"voice_language" yaml:"voice_language,omitempty"`
	VoiceInputDevice *string `mapstructure:"voice_input_device" yaml:"voice_input_device,omitempty"`

	// General
	DisablePlaywright    *bool   `mapstructure:"disable_playwright" yaml:"disable_playwright,omitempty"`
	Vim                  *bool   `mapstructure:"vim" yaml:"vim,omitempty"`
	ChatLanguage         *string `mapstructure:"chat_language" yaml:"chat_language,omitempty"`
	CommitLanguage       *string `mapstructure:"commit_language" yaml:"commit_language,omitempty"`
	YesAlways            *bool   `mapstructure:"yes_always" yaml:"yes_always,omitempty"`
	Verbose              *bool   `mapstructure:"verbose" yaml:"verbose,omitempty"`
	Encoding             *string `mapstructure:"encoding" yaml:"encoding,omitempty"`
	LineEndings          *string `mapstructure:"line_endings" yaml:"line_endings,omitempty"`
	SuggestShellCommands *bool   `mapstructure:"suggest_shell_commands" yaml:"suggest_shell_commands,omitempty"`
	FancyInput           *bool   `mapstructure:"fancy_input" yaml:"fancy_input,omitempty"`
	Multiline            *bool   `mapstructure:"multiline" yaml:"multiline,omitempty"`
	Notifications        *bool   `mapstructure:"notifications" yaml:"notifications,omitempty"`
	NotificationsCommand *string `mapstructure:"notifications_command" yaml:"notifications_command,omitempty"`
	DetectURLs           *bool   `mapstructure:"detect_urls" yaml:"detect_urls,omitempty"`
	Editor               *string `mapstructure:"editor" yaml:"editor,omitempty"`
	ShellCompletions     *bool   `mapstructure:"shell_completions" yaml:"shell_completions,omitempty"`

	// Conventions and edit formats
	ConventionsFiles           []string `mapstructure:"conventions_files" yaml:"conventions_files,omitempty"`
	ReadFiles                  []string `mapstructure:"read_files" yaml:"read_files,omitempty"`
	EditFormatWhole            *bool    `mapstructure:"edit_format_whole" yaml:"edit_format_whole,omitempty"`
	EditFormatDiff             *bool    `mapstructure:"edit_format_diff" yaml:"edit_format_diff,omitempty"`
	EditFormatDiffFenced       *bool    `mapstructure:"edit_format_diff_fenced" yaml:"edit_format_diff_fenced,omitempty"`
	EditorEditFormatWhole      *bool    `mapstructure:"editor_edit_format_whole" yaml:"editor_edit_format_whole,omitempty"`
	EditorEditFormatDiff       *bool    `mapstructure:"editor_edit_format_diff" yaml:"editor_edit_format_diff,omitempty"`
	EditorEditFormatDiffFenced *bool    `mapstructure:"editor_edit_format_diff_fenced" yaml:"editor_edit_format_diff_fenced,omitempty"`
}

// Defaults applied by NewOptions.
const (
	DefaultEncoding      = "utf-8"
	DefaultLineEndings   = "platform"
	DefaultVoiceFormat   = "wav"
	DefaultVoiceLanguage = "en"
)

// NewOptions returns options populated with aider's fixed defaults.
func NewOptions() *Options {
	return &Options{
		Encoding:             String(DefaultEncoding),
		LineEndings:          String(DefaultLineEndings),
		SuggestShellCommands: Bool(true),
		FancyInput:           Bool(true),
		DetectURLs:           Bool(true),
		VoiceFormat:          String(DefaultVoiceFormat),
		VoiceLanguage:        String(DefaultVoiceLanguage),
	}
}

// NewOptionsFrom builds options from the defaults, then each layer in order.
// Later layers win on key collisions.
func NewOptionsFrom(layers ...map[string]any) (*Options, error) {
	return NewOptions().Merge(layers...)
}

// Merge returns a copy of o with each override layer applied in order.
// The receiver is left untouched.
func (o *Options) Merge(layers ...map[string]any) (*Options, error) {
	out := o.Clone()
	for _, layer := range layers {
		if err := out.Apply(layer); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Apply sets options in place from a name→value map. Unknown names are
// ignored. A list value replaces the current list; an empty list clears it. String values are coerced ("true", "8192", "a:b" for aliases) so
// env-style sources can be applied directly.
func (o *Options) Apply(values map[string]any) error {
	if len(values) == 0 {
		return nil
	}
	normalized := make(map[string]any, len(values))
	for k, v := range values {
		normalized[strings.ReplaceAll(k, "-", "_")] = v
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(aliasHook, mapstructure.StringToSliceHookFunc(",")),
		WeaklyTypedInput: true,
		ZeroFields:       true,
		Result:           o,
		TagName:          "mapstructure",
	})
	if err != nil {
		return core.ErrConfiguration(core.CodeParseFailed, "building option decoder").WithCause(err)
	}
	if err := dec.Decode(normalized); err != nil {
		return core.ErrConfiguration(core.CodeParseFailed, fmt.Sprintf("applying options: %v", err)).WithCause(err)
	}
	return nil
}

// Set assigns a single option by name.
func (o *Options) Set(name string, value any) error {
	return o.Apply(map[string]any{name: value})
}

// aliasHook decodes "alias:model" strings into ModelAlias values.
func aliasHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(ModelAlias{}) {
		return data, nil
	}
	s, _ := data.(string)
	alias, model, ok := strings.Cut(s, ":")
	if !ok || alias == "" || model == "" {
		return nil, fmt.Errorf("alias %q: expected alias:model", s)
	}
	return ModelAlias{Alias: alias, Model: model}, nil
}

// Clone returns a deep copy: pointers, slices, and maps are duplicated so the
// copy can be mutated or decoded into without touching the original.
func (o *Options) Clone() *Options {
	if o == nil {
		return NewOptions()
	}
	out := *o
	v := reflect.ValueOf(&out).Elem()
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		switch f.Kind() {
		case reflect.Pointer:
			if f.IsNil() {
				continue
			}
			cp := reflect.New(f.Elem().Type())
			cp.Elem().Set(f.Elem())
			f.Set(cp)
		case reflect.Slice:
			if f.IsNil() {
				continue
			}
			cp := reflect.MakeSlice(f.Type(), f.Len(), f.Len())
			reflect.Copy(cp, f)
			f.Set(cp)
		case reflect.Map:
			if f.IsNil() {
				continue
			}
			cp := reflect.MakeMapWithSize(f.Type(), f.Len())
			iter := f.MapRange()
			for iter.Next() {
				cp.SetMapIndex(iter.Key(), iter.Value())
			}
			f.Set(cp)
		}
	}
	return &out
}

// OptionNames returns every option name in struct order.
func OptionNames() []string {
	t := reflect.TypeOf(Options{})
	names := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		names = append(names, t.Field(i).Tag.Get("mapstructure"))
	}
	return names
}

// String returns a pointer to s.
func String(s string) *string { return &s }

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

// Int returns a pointer to n.
func Int(n int) *int { return &n }

// Float returns a pointer to f.
func Float(f float64) *float64 { return &f }
