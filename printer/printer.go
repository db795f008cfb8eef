// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package printer renders a translation unit as C source.
//
// Four modes are supported. ModeACC reproduces the OpenACC program,
// ModeOMP prints the OpenMP translation, and the two mixed modes print one
// program with the other carried along in comments:
//
//	#pragma acc parallel loop
//	// #pragma omp target teams
//	// #pragma omp distribute
//	for (int i = 0; i < n; ++i)
//
// The OpenMP modes read the implementation subtrees left by the transform
// package; a directive without one prints as if it were discarded.
package printer

import (
	"fmt"
	"strings"

	"github.com/gogpu/acc2omp/ast"
	"github.com/gogpu/acc2omp/config"
)

const discardedNote = "// discarded in OpenMP translation"

// Writer generates C source from a unit.
type Writer struct {
	unit *ast.Unit
	mode config.Mode

	// Output buffer
	out strings.Builder

	// Current indentation level
	indent int
}

func newWriter(u *ast.Unit, mode config.Mode) *Writer {
	return &Writer{unit: u, mode: mode}
}

// String returns the generated source.
func (w *Writer) String() string {
	return w.out.String()
}

// Print renders u in the given mode.
func Print(u *ast.Unit, mode config.Mode) (string, error) {
	if u == nil {
		return "", fmt.Errorf("printer: nil unit")
	}
	switch mode {
	case config.ModeOMP, config.ModeACC, config.ModeACCOMP, config.ModeOMPACC:
	default:
		return "", fmt.Errorf("printer: unknown mode %d", mode)
	}
	w := newWriter(u, mode)
	w.writeUnit()
	return w.String(), nil
}

// printsACC reports whether OpenACC directives are printed as code.
func (w *Writer) printsACC() bool {
	return w.mode == config.ModeACC || w.mode == config.ModeACCOMP
}

// writeUnit writes the async tokens, when OpenMP is printed as code, then
// every file-scope item.
func (w *Writer) writeUnit() {
	u := w.unit
	if !w.printsACC() && len(u.AsyncTokens) > 0 {
		for _, tok := range u.AsyncTokens {
			w.writeLine("static char %s;", tok)
		}
		w.out.WriteByte('\n')
	}
	prevBlock := false
	for i, h := range u.Items {
		d := u.Decl(h)
		block := isBlockItem(d)
		if i > 0 && (block || prevBlock) {
			w.out.WriteByte('\n')
		}
		prevBlock = block
		w.writeItem(d)
	}
}

// isBlockItem reports whether d spans several lines and is set off by
// blank lines.
func isBlockItem(d ast.Decl) bool {
	switch v := d.(type) {
	case *ast.FuncDecl:
		return v.IsDefinition()
	case *ast.RecordDecl:
		return true
	case *ast.TemplateDecl:
		return true
	}
	return false
}

func (w *Writer) writeItem(d ast.Decl) {
	switch v := d.(type) {
	case *ast.GroupDecl:
		w.writeIndent()
		w.writeDeclGroup(v.Members)
		w.out.WriteString(";\n")
	case *ast.FuncDecl:
		w.writeFunction(v)
	case *ast.RecordDecl:
		w.writeRecord(v)
	case *ast.TemplateDecl:
		w.writeTemplate(v)
	case *ast.DirectiveDecl:
		w.writeDirective(v.Dir)
	case *ast.PragmaDecl:
		w.writeLine("%s", v.Text)
	}
}

func (w *Writer) writeRecord(r *ast.RecordDecl) {
	w.writeLine("struct %s {", r.Name)
	w.pushIndent()
	for _, f := range r.Fields {
		w.writeLine("%s;", declaration(f.Type, f.Name))
	}
	w.popIndent()
	w.writeLine("};")
}

func (w *Writer) writeTemplate(t *ast.TemplateDecl) {
	u := w.unit
	params := make([]string, 0, len(t.Params))
	for _, h := range t.Params {
		if p, ok := u.Decl(h).(*ast.TemplateParamDecl); ok {
			params = append(params, "typename "+p.Name)
		}
	}
	header := "template <" + strings.Join(params, ", ") + ">"
	switch p := u.Decl(t.Pattern).(type) {
	case *ast.FuncDecl:
		w.writeRoutineOpen(p)
		w.writeLine("%s", header)
		w.writeFunctionBody(p)
		w.writeRoutineClose(p)
	case *ast.DeductionGuideDecl:
		w.writeLine("%s", header)
		args := make([]string, 0, len(p.Params))
		for _, a := range p.Params {
			args = append(args, typeName(a))
		}
		w.writeLine("%s(%s) -> %s;", p.Name, strings.Join(args, ", "), typeName(p.Result))
	}
}

// writeFunction writes a function with the directives around it.
func (w *Writer) writeFunction(f *ast.FuncDecl) {
	w.writeRoutineOpen(f)
	w.writeFunctionBody(f)
	w.writeRoutineClose(f)
}

func (w *Writer) writeFunctionBody(f *ast.FuncDecl) {
	w.writeIndent()
	w.writeSignature(f)
	if f.Body == nil {
		w.out.WriteString(";\n")
		return
	}
	w.out.WriteByte(' ')
	w.writeBlock(f.Body)
	w.out.WriteByte('\n')
}

func (w *Writer) writeSignature(f *ast.FuncDecl) {
	if f.Static {
		w.out.WriteString("static ")
	}
	w.out.WriteString(declaration(f.Result, f.Name+w.paramList(f)))
}

func (w *Writer) paramList(f *ast.FuncDecl) string {
	if f.VoidParams {
		return "(void)"
	}
	parts := make([]string, 0, len(f.Params))
	for _, h := range f.Params {
		if p := w.unit.Var(h); p != nil {
			parts = append(parts, declaration(p.Type, p.Name))
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// writeRoutineOpen writes the routine directive of f and, in the OpenMP
// modes, the opening declare target.
func (w *Writer) writeRoutineOpen(f *ast.FuncDecl) {
	r := f.Routine
	if r == nil {
		return
	}
	explicit := r.Provenance == ast.ProvExplicit
	omp := ""
	if r.ImplKind != ast.ImplDiscarded {
		if s, ok := r.Impl.(*ast.OMPStmt); ok {
			omp = OMPDirective(w.unit, s.Dir)
		}
	}
	switch w.mode {
	case config.ModeACC:
		if explicit {
			w.writeLine("%s", ACCDirective(w.unit, r))
		}
	case config.ModeACCOMP:
		if explicit {
			w.writeLine("%s", ACCDirective(w.unit, r))
			if r.ImplKind == ast.ImplDiscarded {
				w.writeLine("%s", discardedNote)
			}
		}
		if omp != "" {
			w.writeLine("// %s", omp)
		}
	case config.ModeOMP:
		if omp != "" {
			w.writeLine("%s", omp)
		}
	case config.ModeOMPACC:
		if explicit {
			w.writeACCComment(r)
		}
		if omp != "" {
			w.writeLine("%s", omp)
		}
	}
}

func (w *Writer) writeRoutineClose(f *ast.FuncDecl) {
	r := f.Routine
	if r == nil || r.ImplKind == ast.ImplDiscarded || w.mode == config.ModeACC {
		return
	}
	s, ok := r.Impl.(*ast.OMPStmt)
	if !ok || s.Dir.Kind != ast.OMPDeclareTarget {
		return
	}
	if w.mode == config.ModeACCOMP {
		w.writeLine("// #pragma omp end declare target")
		return
	}
	w.writeLine("#pragma omp end declare target")
}

// Output helpers

// writeLine writes a line with indentation and newline.
//
//nolint:goprintffuncname
func (w *Writer) writeLine(format string, args ...any) {
	w.writeIndent()
	if len(args) == 0 {
		w.out.WriteString(format)
	} else {
		fmt.Fprintf(&w.out, format, args...)
	}
	w.out.WriteByte('\n')
}

// writeIndent writes the current indentation.
func (w *Writer) writeIndent() {
	for i := 0; i < w.indent; i++ {
		w.out.WriteString("    ")
	}
}

func (w *Writer) pushIndent() {
	w.indent++
}

func (w *Writer) popIndent() {
	if w.indent > 0 {
		w.indent--
	}
}
