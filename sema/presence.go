// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package sema

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/gogpu/acc2omp/ast"
)

type refCount struct {
	dynamic    int
	structured int
}

// Presence models OpenACC device presence: a dynamic and a structured
// reference count per storage key. Keys are compared exactly, so a whole
// struct and one of its members are independent entries. The replay keys
// entries with StorageKey, so same-named variables never share a count.
type Presence struct {
	counts map[string]*refCount
}

// NewPresence returns an empty table.
func NewPresence() *Presence {
	return &Presence{counts: make(map[string]*refCount)}
}

func (p *Presence) entry(key string) *refCount {
	c, ok := p.counts[key]
	if !ok {
		c = &refCount{}
		p.counts[key] = c
	}
	return c
}

// Present reports whether key has a non-zero reference count.
func (p *Presence) Present(key string) bool {
	c, ok := p.counts[key]
	return ok && c.dynamic+c.structured > 0
}

// Counts returns the dynamic and structured counts of key.
func (p *Presence) Counts(key string) (dynamic, structured int) {
	if c, ok := p.counts[key]; ok {
		return c.dynamic, c.structured
	}
	return 0, 0
}

// EnterDynamic models an enter data action.
func (p *Presence) EnterDynamic(key string) { p.entry(key).dynamic++ }

// ExitDynamic models an exit data action and reports whether it changed
// the presence of key. With finalize the dynamic count drops to zero.
func (p *Presence) ExitDynamic(key string, finalize bool) bool {
	before := p.Present(key)
	c := p.entry(key)
	switch {
	case finalize:
		c.dynamic = 0
	case c.dynamic > 0:
		c.dynamic--
	}
	return before != p.Present(key)
}

// EnterStructured models entry into a data or compute construct.
func (p *Presence) EnterStructured(key string) { p.entry(key).structured++ }

// ExitStructured models leaving a data or compute construct.
func (p *Presence) ExitStructured(key string) {
	if c := p.entry(key); c.structured > 0 {
		c.structured--
	}
}

// replayPresence runs every host function body through a fresh presence
// table and records the exit data actions that change nothing.
func (a *Analyzer) replayPresence() {
	for _, h := range a.unit.Functions() {
		f := a.unit.Func(h)
		if f.IsPattern() || f.IsInstance() {
			continue
		}
		a.replay(f.Body, NewPresence())
	}
}

func (a *Analyzer) replay(root ast.Node, p *Presence) {
	a.unit.Inspect(root, func(n ast.Node) bool {
		acc, ok := n.(*ast.AccStmt)
		if !ok {
			return true
		}
		d := acc.Dir
		if d.Effect != nil {
			d = d.Effect
		}
		switch d.Kind {
		case ast.DirEnterData:
			for _, c := range d.Clauses {
				if c.Kind == ast.ClauseCopyIn || c.Kind == ast.ClauseCreate {
					for _, v := range c.Vars {
						p.EnterDynamic(StorageKey(v))
					}
				}
			}
		case ast.DirExitData:
			finalize := d.Has(ast.ClauseFinalize)
			for _, c := range d.Clauses {
				if c.Kind != ast.ClauseCopyOut && c.Kind != ast.ClauseDelete {
					continue
				}
				for _, v := range c.Vars {
					if !p.ExitDynamic(StorageKey(v), finalize) {
						key := ExprKey(v)
						a.result.Redundant = append(a.result.Redundant, Action{Dir: acc.Dir, Clause: c, Var: v, Key: key})
						a.log.Debug("exit data action has no effect", zap.Stringer("pos", v.Pos()), zap.String("key", key))
					}
				}
			}
		case ast.DirData, ast.DirParallel:
			var keys []string
			for _, c := range d.Clauses {
				if !c.Kind.IsDataMapping() {
					continue
				}
				for _, v := range c.Vars {
					keys = append(keys, StorageKey(v))
				}
			}
			for _, k := range keys {
				p.EnterStructured(k)
			}
			if d.Stmt != nil {
				a.replay(d.Stmt, p)
			}
			for _, k := range keys {
				p.ExitStructured(k)
			}
			return false
		}
		return true
	})
}

// ExprKey renders e as text such as "x", "x.a", or "a[0:n]".
func ExprKey(e ast.Expr) string {
	var b strings.Builder
	writeKey(&b, e, false)
	return b.String()
}

// StorageKey is ExprKey with every resolved identifier qualified by its
// declaration, so "x" in two scopes yields two keys.
func StorageKey(e ast.Expr) string {
	var b strings.Builder
	writeKey(&b, e, true)
	return b.String()
}

func writeKey(b *strings.Builder, e ast.Expr, decls bool) {
	switch v := e.(type) {
	case nil:
	case *ast.Ident:
		b.WriteString(v.Name)
		if decls && v.Decl.IsValid() {
			b.WriteByte('#')
			b.WriteString(strconv.FormatUint(uint64(v.Decl), 10))
		}
	case *ast.IntLit:
		b.WriteString(v.Text)
	case *ast.FloatLit:
		b.WriteString(v.Text)
	case *ast.CharLit:
		b.WriteString(v.Text)
	case *ast.ParenExpr:
		writeKey(b, v.X, decls)
	case *ast.MemberExpr:
		writeKey(b, v.X, decls)
		if v.Arrow {
			b.WriteString("->")
		} else {
			b.WriteByte('.')
		}
		b.WriteString(v.Name)
	case *ast.IndexExpr:
		writeKey(b, v.X, decls)
		b.WriteByte('[')
		writeKey(b, v.Index, decls)
		b.WriteByte(']')
	case *ast.SectionExpr:
		writeKey(b, v.X, decls)
		b.WriteByte('[')
		writeKey(b, v.Lo, decls)
		b.WriteByte(':')
		writeKey(b, v.Len, decls)
		b.WriteByte(']')
	case *ast.UnaryExpr:
		if v.Postfix {
			writeKey(b, v.X, decls)
			b.WriteString(v.Op.String())
			return
		}
		b.WriteString(v.Op.String())
		writeKey(b, v.X, decls)
	case *ast.BinaryExpr:
		writeKey(b, v.X, decls)
		b.WriteString(v.Op.String())
		writeKey(b, v.Y, decls)
	case *ast.CallExpr:
		writeKey(b, v.Fun, decls)
		b.WriteByte('(')
		for i, arg := range v.Args {
			if i > 0 {
				b.WriteByte(',')
			}
			writeKey(b, arg, decls)
		}
		b.WriteByte(')')
	default:
		b.WriteByte('?')
	}
}
