// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package diag collects positioned diagnostics for a translation unit.
package diag

import (
	"fmt"
	"strings"

	"github.com/gogpu/acc2omp/ast"
)

// Severity is the level of a diagnostic.
type Severity uint8

const (
	Ignored Severity = iota
	Note
	Warning
	Error
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Ignored:
		return "ignored"
	case Note:
		return "note"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal error"
	}
	return fmt.Sprintf("Severity(%d)", uint8(s))
}

// Related is a note attached to a diagnostic at a secondary location.
type Related struct {
	Message string
	Span    ast.Span
}

// Diagnostic is a positioned message.
type Diagnostic struct {
	Severity Severity
	// Flag is the warning flag that controls the diagnostic, if any.
	Flag    string
	Message string
	Span    ast.Span
	Notes   []Related
	// File and Source are used for context rendering.
	File   string
	Source string
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	if !d.Span.IsValid() {
		return d.Message
	}
	return fmt.Sprintf("%d:%d: %s", d.Span.Start.Line, d.Span.Start.Column, d.Message)
}

// Note attaches a note and returns d. It is a no-op on a nil diagnostic, so
// callers can chain on suppressed warnings.
func (d *Diagnostic) Note(span ast.Span, format string, args ...any) *Diagnostic {
	if d == nil {
		return nil
	}
	d.Notes = append(d.Notes, Related{Message: fmt.Sprintf(format, args...), Span: span})
	return d
}

// IsError reports whether the diagnostic fails the translation.
func (d *Diagnostic) IsError() bool { return d.Severity >= Error }

// FormatWithContext renders the diagnostic with the offending source line
// and a caret under the reported column, followed by its notes.
func (d *Diagnostic) FormatWithContext() string {
	var sb strings.Builder
	msg := d.Message
	if d.Flag != "" {
		msg = fmt.Sprintf("%s [-W%s]", msg, d.Flag)
	}
	d.writeBlock(&sb, d.Severity.String(), msg, d.Span)
	for _, n := range d.Notes {
		d.writeBlock(&sb, Note.String(), n.Message, n.Span)
	}
	return sb.String()
}

func (d *Diagnostic) writeBlock(sb *strings.Builder, label, msg string, span ast.Span) {
	fmt.Fprintf(sb, "%s: %s\n", label, msg)
	if !span.IsValid() {
		return
	}
	lines := strings.Split(d.Source, "\n")
	lineNum := span.Start.Line
	col := span.Start.Column
	if col < 1 {
		col = 1
	}
	if d.File != "" {
		fmt.Fprintf(sb, "  --> %s:%d:%d\n", d.File, lineNum, col)
	} else {
		fmt.Fprintf(sb, "  --> line %d:%d\n", lineNum, col)
	}
	if d.Source == "" || lineNum < 1 || lineNum > len(lines) {
		return
	}
	line := lines[lineNum-1]
	if col > len(line)+1 {
		col = len(line) + 1
	}
	sb.WriteString("   |\n")
	fmt.Fprintf(sb, "%3d| %s\n", lineNum, line)
	fmt.Fprintf(sb, "   | %s^\n", strings.Repeat(" ", col-1))
}

// List is a list of diagnostics. As an error it reports the first one.
type List []*Diagnostic

// Error implements the error interface.
func (l List) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", l[0].Error(), len(l)-1)
}

// FormatAll renders every diagnostic with context.
func (l List) FormatAll() string {
	var sb strings.Builder
	for i, d := range l {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(d.FormatWithContext())
	}
	return sb.String()
}

// Errors returns the diagnostics of severity Error or Fatal.
func (l List) Errors() List {
	var out List
	for _, d := range l {
		if d.IsError() {
			out = append(out, d)
		}
	}
	return out
}

// Warnings returns the diagnostics of severity Warning.
func (l List) Warnings() List {
	var out List
	for _, d := range l {
		if d.Severity == Warning {
			out = append(out, d)
		}
	}
	return out
}

// HasErrors reports whether any diagnostic is an error.
func (l List) HasErrors() bool {
	for _, d := range l {
		if d.IsError() {
			return true
		}
	}
	return false
}

// Messages returns the bare messages, handy in tests.
func (l List) Messages() []string {
	out := make([]string, len(l))
	for i, d := range l {
		out[i] = d.Message
	}
	return out
}
