package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/hugo-lorenzo-mato/aiderkit/internal/aider"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation: %s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// Validate validates the entire configuration.
func (v *Validator) Validate(cfg *Config) error {
	v.validateLog(&cfg.Log)
	v.validateAider(&cfg.Aider)
	v.validateLedger(&cfg.Ledger)
	v.validateServe(&cfg.Serve)
	v.validateOptions(cfg)

	if len(v.errors) > 0 {
		return v.errors
	}
	return nil
}

// Errors returns the collected validation errors.
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

func (v *Validator) addError(field string, value any, msg string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Value:   value,
		Message: msg,
	})
}

func (v *Validator) validateLog(cfg *LogConfig) {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[cfg.Level] {
		v.addError("log.level", cfg.Level, "must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"auto": true, "text": true, "json": true,
	}
	if !validFormats[cfg.Format] {
		v.addError("log.format", cfg.Format, "must be one of: auto, text, json")
	}
}

func (v *Validator) validateAider(cfg *AiderConfig) {
	if strings.TrimSpace(cfg.Path) == "" {
		v.addError("aider.path", cfg.Path, "path required")
	}

	if d, err := cfg.TimeoutDuration(); err != nil {
		v.addError("aider.timeout", cfg.Timeout, "invalid duration format")
	} else if d < 0 {
		v.addError("aider.timeout", cfg.Timeout, "must be non-negative")
	}
}

func (v *Validator) validateLedger(cfg *LedgerConfig) {
	if cfg.Path == "" {
		v.addError("ledger.path", cfg.Path, "path required")
	}

	switch strings.ToLower(cfg.Backend) {
	case "", "json", "sqlite":
	default:
		v.addError("ledger.backend", cfg.Backend, "must be one of: json, sqlite")
	}
}

func (v *Validator) validateServe(cfg *ServeConfig) {
	if _, port, err := net.SplitHostPort(cfg.Addr); err != nil || port == "" {
		v.addError("serve.addr", cfg.Addr, "must be host:port")
	}
}

func (v *Validator) validateOptions(cfg *Config) {
	opts, err := cfg.AiderOptions()
	if err != nil {
		v.addError("options", cfg.Options, err.Error())
		return
	}
	val := aider.NewValidator()
	if cfg.Aider.StrictModels {
		val = val.WithStrictModels()
	}
	if err := val.Validate(opts); err != nil {
		for _, e := range val.Errors() {
			v.addError("options", nil, e.Error())
		}
	}
}

// ValidateConfig is a convenience function that creates a validator and validates config.
func ValidateConfig(cfg *Config) error {
	v := NewValidator()
	return v.Validate(cfg)
}
