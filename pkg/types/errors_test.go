package types

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestRefactorError_Error(t *testing.T) {
	testCases := []struct {
		name     string
		err      *RefactorError
		expected string
	}{
		{
			name: "With file location",
			err: &RefactorError{
				Type:    ParseError,
				Message: "unexpected token",
				File:    "/src/Program.cs",
				Line:    15,
				Column:  10,
			},
			expected: "/src/Program.cs:15:10: unexpected token",
		},
		{
			name: "Without file location",
			err: &RefactorError{
				Type:    StaleTrackedNode,
				Message: "tracked node not found",
			},
			expected: "tracked node not found",
		},
		{
			name:     "Sentinel without message",
			err:      ErrNoMatch,
			expected: "NoMatch",
		},
		{
			name:     "Unsafe rewrite sentinel",
			err:      ErrUnsafeRewrite,
			expected: "UnsafeRewrite",
		},
		{
			name:     "Located without message",
			err:      &RefactorError{Type: StaleTrackedNode, File: "a.cs", Line: 1, Column: 2},
			expected: "a.cs:1:2: StaleTrackedNode",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := tc.err.Error()
			if result != tc.expected {
				t.Errorf("Expected error message '%s', got '%s'", tc.expected, result)
			}
		})
	}
}

func TestRefactorError_Unwrap(t *testing.T) {
	err := CancelledError(context.Canceled)

	if !errors.Is(err, context.Canceled) {
		t.Error("Expected cancelled error to wrap context.Canceled")
	}
	if !errors.Is(err, ErrCancelled) {
		t.Error("Expected cancelled error to match ErrCancelled")
	}
	if errors.Is(err, ErrNoMatch) {
		t.Error("Expected cancelled error not to match ErrNoMatch")
	}
}

func TestIsType(t *testing.T) {
	base := NewError(StaleTrackedNode, "node %d missing", 3)
	wrapped := fmt.Errorf("sort usings: %w", base)

	if !IsType(wrapped, StaleTrackedNode) {
		t.Error("Expected wrapped error to be StaleTrackedNode")
	}
	if IsType(wrapped, NoMatch) {
		t.Error("Expected wrapped error not to be NoMatch")
	}
	if IsType(errors.New("plain"), StaleTrackedNode) {
		t.Error("Expected plain error not to be a RefactorError")
	}
	if base.Error() != "node 3 missing" {
		t.Errorf("Expected formatted message, got '%s'", base.Error())
	}
}

func TestValidationError(t *testing.T) {
	single := &ValidationError{Issues: []Issue{{Description: "project.name is required"}}}
	if single.Error() != "validation failed: project.name is required" {
		t.Errorf("Unexpected message: %s", single.Error())
	}

	multi := &ValidationError{Issues: []Issue{{}, {}}}
	if multi.Error() != "validation failed with 2 issues" {
		t.Errorf("Unexpected message: %s", multi.Error())
	}
}

func TestParseSeverity(t *testing.T) {
	testCases := []struct {
		in       string
		expected Severity
		wantErr  bool
	}{
		{"error", Error, false},
		{"Warning", Warning, false},
		{"info", Info, false},
		{"silent", Hidden, false},
		{"loud", 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseSeverity(tc.in)
			if tc.wantErr {
				if !IsType(err, ConfigError) {
					t.Errorf("Expected ConfigError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tc.expected {
				t.Errorf("Expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestDescriptor(t *testing.T) {
	d := &Descriptor{ID: "CSR0001", MessageFormat: "'%s' can be simplified", Severity: Info}

	if msg := d.Message("x"); msg != "'x' can be simplified" {
		t.Errorf("Unexpected message: %s", msg)
	}

	w := d.WithSeverity(Warning)
	if w.Severity != Warning || d.Severity != Info {
		t.Errorf("Expected copy with new severity, got %v and original %v", w.Severity, d.Severity)
	}
}
