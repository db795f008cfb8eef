// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package diag

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/gogpu/acc2omp/ast"
)

// Engine collects the diagnostics of one translation unit. It is not safe
// for concurrent use; each unit owns its engine.
type Engine struct {
	file   string
	source string
	policy *Policy
	log    *zap.Logger
	diags  List
}

// NewEngine returns an engine for the named source. A nil policy means the
// default policy and a nil logger discards log output.
func NewEngine(file, source string, policy *Policy, log *zap.Logger) *Engine {
	if policy == nil {
		policy = NewPolicy()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{file: file, source: source, policy: policy, log: log}
}

// Policy returns the warning policy in effect.
func (e *Engine) Policy() *Policy { return e.policy }

func (e *Engine) report(sev Severity, flag string, span ast.Span, format string, args []any) *Diagnostic {
	d := &Diagnostic{
		Severity: sev,
		Flag:     flag,
		Message:  fmt.Sprintf(format, args...),
		Span:     span,
		File:     e.file,
		Source:   e.source,
	}
	e.diags = append(e.diags, d)
	e.log.Debug("diagnostic",
		zap.Stringer("severity", sev),
		zap.String("flag", flag),
		zap.Stringer("pos", span),
		zap.String("message", d.Message),
	)
	return d
}

// Errorf reports an error.
func (e *Engine) Errorf(span ast.Span, format string, args ...any) *Diagnostic {
	return e.report(Error, "", span, format, args)
}

// Fatalf reports an error that stops the pipeline.
func (e *Engine) Fatalf(span ast.Span, format string, args ...any) *Diagnostic {
	return e.report(Fatal, "", span, format, args)
}

// Warnf reports a warning controlled by flag. It returns nil when the policy
// ignores the flag.
func (e *Engine) Warnf(flag string, span ast.Span, format string, args ...any) *Diagnostic {
	sev := e.policy.Severity(flag)
	if sev == Ignored {
		e.log.Debug("diagnostic suppressed", zap.String("flag", flag), zap.Stringer("pos", span))
		return nil
	}
	return e.report(sev, flag, span, format, args)
}

// Notef reports a standalone note.
func (e *Engine) Notef(span ast.Span, format string, args ...any) *Diagnostic {
	return e.report(Note, "", span, format, args)
}

// Diagnostics returns everything reported so far in report order.
func (e *Engine) Diagnostics() List { return e.diags }

// HasErrors reports whether an error or fatal error was reported.
func (e *Engine) HasErrors() bool { return e.diags.HasErrors() }

// HasFatal reports whether a fatal error was reported.
func (e *Engine) HasFatal() bool {
	for _, d := range e.diags {
		if d.Severity == Fatal {
			return true
		}
	}
	return false
}

// Err returns the reported errors as a List, or nil.
func (e *Engine) Err() error {
	if errs := e.diags.Errors(); len(errs) > 0 {
		return errs
	}
	return nil
}
