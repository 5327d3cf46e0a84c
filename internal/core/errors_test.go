package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("root")
	err := (&DomainError{
		Category: ErrCatValidation,
		Code:     "CODE",
		Message:  "message",
	}).WithCause(cause)

	if err.Unwrap() != cause {
		t.Fatalf("expected cause to be unwrapped")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to match cause")
	}

	match := &DomainError{Category: ErrCatValidation, Code: "CODE"}
	if !errors.Is(err, match) {
		t.Fatalf("expected errors.Is to match category and code")
	}
}

func TestDomainError_WithDetail(t *testing.T) {
	err := &DomainError{Category: ErrCatExecution, Code: "X", Message: "msg"}
	err.WithDetail("k", "v")
	if err.Details == nil || err.Details["k"] != "v" {
		t.Fatalf("expected details to be set")
	}
}

func TestErrorFactories(t *testing.T) {
	tests := []struct {
		name string
		err  *DomainError
		want ErrorCategory
	}{
		{"configuration", ErrConfiguration("C", "m"), ErrCatConfiguration},
		{"execution", ErrExecution("C", "m"), ErrCatExecution},
		{"file", ErrFile("C", "m"), ErrCatFile},
		{"validation", ErrValidation("C", "m"), ErrCatValidation},
		{"state", ErrState("C", "m"), ErrCatState},
		{"not found", ErrNotFound("task", "x"), ErrCatNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Category != tt.want {
				t.Fatalf("category = %s, want %s", tt.err.Category, tt.want)
			}
		})
	}
}

func TestGetCategory_Wrapped(t *testing.T) {
	err := fmt.Errorf("outer: %w", ErrExecution(CodeCommandFailed, "boom"))
	if !IsCategory(err, ErrCatExecution) {
		t.Fatalf("expected wrapped error to keep execution category")
	}
	if GetCategory(errors.New("plain")) != ErrCatInternal {
		t.Fatalf("plain errors should be internal")
	}
}

func TestMessageOf(t *testing.T) {
	if got := MessageOf(ErrExecution(CodeCommandFailed, "aider exited 1")); got != "aider exited 1" {
		t.Fatalf("MessageOf(domain) = %q", got)
	}
	if got := MessageOf(errors.New("plain")); got != "plain" {
		t.Fatalf("MessageOf(plain) = %q", got)
	}
	if got := MessageOf(nil); got != "" {
		t.Fatalf("MessageOf(nil) = %q", got)
	}
}
