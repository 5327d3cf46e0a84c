package aider

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/hugo-lorenzo-mato/aiderkit/internal/core"
)

// Accepted values for enumerated options.
var (
	EditFormats      = []string{"whole", "diff", "diff-fenced"}
	ReasoningEfforts = []string{"low", "medium", "high"}
	VoiceFormats     = []string{"wav", "webm", "mp3"}
	LineEndings      = []string{"platform", "lf", "crlf", "cr"}
	Encodings        = []string{"utf-8", "utf-16", "utf-32", "ascii"}
)

// Range limits for numeric options.
const (
	MinTimeout      = 1
	MaxTimeout      = 3600
	MinMapTokens    = 1
	MaxMapTokens    = 100000
	MinAPIKeyLength = 10
)

var thinkingTokensPattern = regexp.MustCompile(`^\d+[km]?$`)

// ValidationErrors collects every failed check of one validation pass.
type ValidationErrors []error

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (e ValidationErrors) Unwrap() []error {
	return e
}

// Validator checks option values against aider's accepted ranges.
type Validator struct {
	strictModels bool
	errors       ValidationErrors
}

// NewValidator creates a validator. Model names are not checked unless
// WithStrictModels is set.
func NewValidator() *Validator {
	return &Validator{}
}

// WithStrictModels rejects model names missing from the catalogue.
func (v *Validator) WithStrictModels() *Validator {
	v.strictModels = true
	return v
}

// Validate runs every check and returns ValidationErrors, or nil.
func (v *Validator) Validate(opts *Options) error {
	v.errors = nil
	if opts == nil {
		return nil
	}

	v.check(ValidateChoice("edit_format", opts.EditFormat, EditFormats))
	v.check(ValidateChoice("editor_edit_format", opts.EditorEditFormat, EditFormats))
	v.check(ValidateChoice("reasoning_effort", opts.ReasoningEffort, ReasoningEfforts))
	v.check(ValidateChoice("voice_format", opts.VoiceFormat, VoiceFormats))
	v.check(ValidateChoice("line_endings", opts.LineEndings, LineEndings))
	v.check(ValidateChoice("encoding", opts.Encoding, Encodings))
	v.check(ValidateThinkingTokens(opts.ThinkingTokens))
	v.check(ValidateRange("timeout", opts.Timeout, MinTimeout, MaxTimeout))
	v.check(ValidateRange("map_tokens", opts.MapTokens, MinMapTokens, MaxMapTokens))
	v.check(ValidateAPIKey("openai_api_key", opts.OpenAIAPIKey))
	v.check(ValidateAPIKey("anthropic_api_key", opts.AnthropicAPIKey))

	if v.strictModels {
		v.check(ValidateModel("model", opts.Model))
		v.check(ValidateModel("weak_model", opts.WeakModel))
		v.check(ValidateModel("editor_model", opts.EditorModel))
	}

	if len(v.errors) > 0 {
		return v.errors
	}
	return nil
}

// Errors returns the errors of the last Validate call.
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

func (v *Validator) check(err error) {
	if err != nil {
		v.errors = append(v.errors, err)
	}
}

// Validate checks opts with the default (non-strict) validator.
func Validate(opts *Options) error {
	return NewValidator().Validate(opts)
}

// ValidateChoice fails when value is set and not one of allowed.
func ValidateChoice(name string, value *string, allowed []string) error {
	if value == nil || slices.Contains(allowed, *value) {
		return nil
	}
	return core.ErrValidation(core.CodeInvalidChoice,
		fmt.Sprintf("invalid %s %q, must be one of: %s", name, *value, strings.Join(allowed, ", "))).
		WithDetail("option", name)
}

// ValidateRange fails when value is set and outside [lo, hi].
func ValidateRange(name string, value *int, lo, hi int) error {
	if value == nil || (*value >= lo && *value <= hi) {
		return nil
	}
	return core.ErrValidation(core.CodeOutOfRange,
		fmt.Sprintf("%s must be between %d and %d, got %d", name, lo, hi, *value)).
		WithDetail("option", name)
}

// ValidateThinkingTokens accepts digits with an optional k or m suffix.
func ValidateThinkingTokens(value *string) error {
	if value == nil || thinkingTokensPattern.MatchString(*value) {
		return nil
	}
	return core.ErrValidation(core.CodeInvalidFormat,
		fmt.Sprintf("invalid thinking_tokens %q, use a number with optional k or m suffix (e.g. 8k)", *value)).
		WithDetail("option", "thinking_tokens")
}

// ValidateAPIKey rejects empty or implausibly short keys.
func ValidateAPIKey(name string, value *string) error {
	if value == nil {
		return nil
	}
	if len(strings.TrimSpace(*value)) < MinAPIKeyLength {
		return core.ErrValidation(core.CodeInvalidFormat,
			fmt.Sprintf("%s looks too short to be an API key", name)).
			WithDetail("option", name)
	}
	return nil
}

// ValidateModel fails for models absent from the catalogue and suggests close
// matches.
func ValidateModel(name string, value *string) error {
	if value == nil || *value == "" || IsKnownModel(*value) {
		return nil
	}
	msg := fmt.Sprintf("unsupported %s %q", name, *value)
	if suggestions := SuggestModels(*value, 3); len(suggestions) > 0 {
		msg += "; did you mean " + strings.Join(suggestions, ", ") + "?"
	}
	return core.ErrValidation(core.CodeUnsupportedModel, msg).WithDetail("option", name)
}

// ValidateFilePath fails with a file error when path does not exist.
func ValidateFilePath(path string) error {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, os.ErrNotExist):
		return core.ErrFile(core.CodeFileNotFound, fmt.Sprintf("file not found: %s", path)).
			WithDetail("path", path)
	default:
		return core.ErrFile(core.CodeFileAccess, fmt.Sprintf("cannot access %s", path)).
			WithCause(err).WithDetail("path", path)
	}
}

// ValidateFilePaths checks every path and stops at the first failure.
func ValidateFilePaths(paths []string) error {
	for _, p := range paths {
		if err := ValidateFilePath(p); err != nil {
			return err
		}
	}
	return nil
}
