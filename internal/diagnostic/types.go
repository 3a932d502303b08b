package diagnostic

import (
	"errors"
	"fmt"
	"strings"
)

// Diagnostics collects findings about transformer declarations.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
}

// Diagnostic represents a single finding.
type Diagnostic struct {
	// Severity of the diagnostic.
	Severity Severity
	// Code is a stable identifier for this kind of finding.
	Code string
	// Message is the human-readable description.
	Message string
	// Transformer names the declaration concerned (if any).
	Transformer string
	// Path identifies the field or entry concerned (if any).
	Path string
	// Suggestion is a likely intended name, when one was found.
	Suggestion string
}

// Severity represents the severity level of a diagnostic.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

// String returns a human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// AddError records an error diagnostic.
func (d *Diagnostics) AddError(code, message, transformer, path string) *Diagnostic {
	d.Errors = append(d.Errors, Diagnostic{
		Severity:    SeverityError,
		Code:        code,
		Message:     message,
		Transformer: transformer,
		Path:        path,
	})

	return &d.Errors[len(d.Errors)-1]
}

// AddWarning records a warning diagnostic.
func (d *Diagnostics) AddWarning(code, message, transformer, path string) *Diagnostic {
	d.Warnings = append(d.Warnings, Diagnostic{
		Severity:    SeverityWarning,
		Code:        code,
		Message:     message,
		Transformer: transformer,
		Path:        path,
	})

	return &d.Warnings[len(d.Warnings)-1]
}

// HasErrors returns true if there are any error diagnostics.
func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// Merge appends the findings of other.
func (d *Diagnostics) Merge(other *Diagnostics) {
	if other == nil {
		return
	}

	d.Errors = append(d.Errors, other.Errors...)
	d.Warnings = append(d.Warnings, other.Warnings...)
}

// Err returns the error diagnostics combined into one error, or nil.
func (d *Diagnostics) Err() error {
	if !d.HasErrors() {
		return nil
	}

	parts := make([]string, 0, len(d.Errors))
	for _, e := range d.Errors {
		parts = append(parts, e.String())
	}

	return errors.New(strings.Join(parts, "; "))
}

// String returns a formatted diagnostic line.
func (d Diagnostic) String() string {
	var prefix []string
	if d.Transformer != "" {
		prefix = append(prefix, "["+d.Transformer+"]")
	}

	if d.Path != "" {
		prefix = append(prefix, d.Path)
	}

	msg := d.Message
	if d.Code != "" {
		msg = fmt.Sprintf("[%s] %s", d.Code, msg)
	}

	if d.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", d.Suggestion)
	}

	if len(prefix) > 0 {
		return strings.Join(prefix, " ") + ": " + msg
	}

	return msg
}

// String formats every diagnostic, errors first, one per line.
func (d *Diagnostics) String() string {
	var b strings.Builder

	for _, e := range d.Errors {
		b.WriteString(e.Severity.String() + ": " + e.String() + "\n")
	}

	for _, w := range d.Warnings {
		b.WriteString(w.Severity.String() + ": " + w.String() + "\n")
	}

	return b.String()
}
