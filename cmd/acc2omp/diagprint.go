// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/gogpu/acc2omp/diag"
)

// diagPrinter writes diagnostics with caret context, coloring the severity
// labels when the destination is a terminal.
type diagPrinter struct {
	w      io.Writer
	labels map[string]*color.Color
}

func newDiagPrinter(w io.Writer) *diagPrinter {
	p := &diagPrinter{
		w: w,
		labels: map[string]*color.Color{
			diag.Fatal.String():   color.New(color.FgRed, color.Bold),
			diag.Error.String():   color.New(color.FgRed, color.Bold),
			diag.Warning.String(): color.New(color.FgYellow, color.Bold),
			diag.Note.String():    color.New(color.FgCyan),
		},
	}
	on := isTerminal(w)
	for _, c := range p.labels {
		if on {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *diagPrinter) printAll(l diag.List) {
	for _, d := range l {
		p.print(d)
	}
}

func (p *diagPrinter) print(d *diag.Diagnostic) {
	text := d.FormatWithContext()
	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		label, rest, ok := strings.Cut(line, ": ")
		if c, known := p.labels[label]; ok && known {
			_, _ = io.WriteString(p.w, c.Sprint(label)+": "+rest)
			continue
		}
		_, _ = io.WriteString(p.w, line)
	}
}
