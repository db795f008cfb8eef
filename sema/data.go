// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package sema

import (
	"strconv"
	"strings"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"go.uber.org/zap"

	"github.com/gogpu/acc2omp/ast"
)

// varRef summarizes the references to one variable inside a region.
type varRef struct {
	decl  ast.DeclHandle
	first *ast.Ident
	// escapes records an address-of on the variable.
	escapes bool
	// mutated records an assignment to the variable itself.
	mutated bool
	// reduced records that a contained gang loop reduces the variable.
	reduced bool
}

// refCollector gathers the variables a region references from outside,
// in first-reference order.
type refCollector struct {
	a       *Analyzer
	refs    *linkedhashmap.Map
	inner   map[ast.DeclHandle]bool
	escaped map[ast.DeclHandle]bool
	written map[ast.DeclHandle]bool
	// covered reports whether a storage path is named by a clause of the
	// directive the references are collected for.
	covered func(path string) bool
}

func (a *Analyzer) newCollector(covered func(string) bool) *refCollector {
	return &refCollector{
		a:       a,
		refs:    linkedhashmap.New(),
		inner:   make(map[ast.DeclHandle]bool),
		escaped: make(map[ast.DeclHandle]bool),
		written: make(map[ast.DeclHandle]bool),
		covered: covered,
	}
}

// collect walks root. private holds the variables privatized by the
// enclosing directives within the region.
func (c *refCollector) collect(root ast.Node, private map[ast.DeclHandle]bool) {
	u := c.a.unit
	u.Inspect(root, func(n ast.Node) bool {
		switch v := n.(type) {
		case *ast.DeclStmt:
			for _, h := range v.Decls {
				c.inner[h] = true
			}
		case *ast.AccStmt:
			d := v.Dir
			if d.Effect != nil {
				d = d.Effect
			}
			c.enter(d, private)
			return false
		case *ast.LambdaExpr:
			if f := u.Func(v.Func); f != nil && f.Body != nil {
				for _, p := range f.Params {
					c.inner[p] = true
				}
				c.collect(f.Body, private)
			}
			return false
		case *ast.AssignExpr:
			c.write(v.LHS)
		case *ast.UnaryExpr:
			switch v.Op {
			case ast.OpAddr:
				if id := ast.BaseIdent(v.X); id != nil {
					c.escaped[id.Decl] = true
				}
			case ast.OpInc, ast.OpDec:
				c.write(v.X)
			}
		case *ast.MemberExpr:
			if path, id, ok := storagePath(v); ok {
				c.reference(id, path, private)
				return false
			}
		case *ast.Ident:
			c.reference(v, declKey(v.Decl), private)
		}
		return true
	})
}

// write notes a store to a variable. Stores through a pointer or into an
// element leave the variable itself unchanged.
func (c *refCollector) write(lhs ast.Expr) {
	if id, ok := ast.StripParens(lhs).(*ast.Ident); ok {
		c.written[id.Decl] = true
	}
}

// enter continues the walk into a nested directive, adding its private
// variables and noting its gang reductions. The control variable of a
// loop directive is private to the loop whatever its partitioning.
func (c *refCollector) enter(d *ast.Directive, private map[ast.DeclHandle]bool) {
	inner := private
	if d.Kind == ast.DirLoop {
		inner = make(map[ast.DeclHandle]bool, len(private))
		for h := range private {
			inner[h] = true
		}
		if loop, ok := d.Stmt.(*ast.ForStmt); ok {
			if v := c.a.unit.LoopVar(loop); v.IsValid() {
				inner[v] = true
			}
		}
		for _, cl := range d.All(ast.ClausePrivate) {
			for _, e := range cl.Vars {
				if id, ok := ast.StripParens(e).(*ast.Ident); ok {
					inner[id.Decl] = true
				}
			}
		}
		if d.MaxLevel() == ast.LevelGang {
			for _, cl := range d.All(ast.ClauseReduction) {
				for _, e := range cl.Vars {
					if id := ast.BaseIdent(e); id != nil && !private[id.Decl] {
						if ref := c.reference(id, declKey(id.Decl), private); ref != nil {
							ref.reduced = true
						}
					}
				}
			}
		}
	}
	if d.Stmt != nil {
		c.collect(d.Stmt, inner)
	}
}

// reference records a use of id through path and returns its summary, or
// nil when the use does not need a data attribute.
func (c *refCollector) reference(id *ast.Ident, path string, private map[ast.DeclHandle]bool) *varRef {
	if c.a.unit.Var(id.Decl) == nil || c.inner[id.Decl] || private[id.Decl] {
		return nil
	}
	if c.covered != nil && c.covered(path) {
		return nil
	}
	if v, ok := c.refs.Get(id.Decl); ok {
		return v.(*varRef)
	}
	ref := &varRef{decl: id.Decl, first: id}
	c.refs.Put(id.Decl, ref)
	return ref
}

// results returns the summaries in first-reference order.
func (c *refCollector) results() []*varRef {
	out := make([]*varRef, 0, c.refs.Size())
	for _, v := range c.refs.Values() {
		ref := v.(*varRef)
		ref.escapes = c.escaped[ref.decl]
		ref.mutated = c.written[ref.decl]
		out = append(out, ref)
	}
	return out
}

func declKey(h ast.DeclHandle) string { return strconv.FormatUint(uint64(h), 10) }

// storagePath returns the access path of a chain of non-arrow member
// accesses rooted at a variable, such as "12.a.b".
func storagePath(e ast.Expr) (string, *ast.Ident, bool) {
	switch v := ast.StripParens(e).(type) {
	case *ast.Ident:
		return declKey(v.Decl), v, true
	case *ast.MemberExpr:
		if v.Arrow {
			return "", nil, false
		}
		base, id, ok := storagePath(v.X)
		if !ok {
			return "", nil, false
		}
		return base + "." + v.Name, id, true
	}
	return "", nil, false
}

// clausePath returns the path a clause variable covers. Subscripts and
// sections cover their whole base; an arrow access covers its pointer.
func clausePath(e ast.Expr) (string, bool) {
	for {
		switch v := ast.StripParens(e).(type) {
		case *ast.SectionExpr:
			e = v.X
		case *ast.IndexExpr:
			e = v.X
		case *ast.MemberExpr:
			if path, _, ok := storagePath(v); ok {
				return path, true
			}
			e = v.X
		case *ast.Ident:
			return declKey(v.Decl), true
		default:
			return "", false
		}
	}
}

// explicitPaths returns a predicate matching paths covered by the explicit
// data clauses of d.
func explicitPaths(d *ast.Directive) func(string) bool {
	var paths []string
	for _, c := range d.Clauses {
		if c.IsImplicit() || !(c.Kind.IsDataMapping() || c.Kind.IsDataSharing()) {
			continue
		}
		for _, e := range c.Vars {
			if p, ok := clausePath(e); ok {
				paths = append(paths, p)
			}
		}
	}
	return func(path string) bool {
		for _, p := range paths {
			if path == p || strings.HasPrefix(path, p+".") {
				return true
			}
		}
		return false
	}
}

// computeDataAttributes adds implicit data clauses to the compute
// constructs of f and implicit shared clauses to its loops.
func (a *Analyzer) computeDataAttributes(f *ast.FuncDecl) {
	a.directives(f.Body, nil, func(d *ast.Directive, _ []*ast.Directive) {
		switch d.Kind {
		case ast.DirParallel:
			a.parallelAttributes(d)
		case ast.DirLoop:
			a.loopAttributes(d)
		}
	})
}

func (a *Analyzer) parallelAttributes(d *ast.Directive) {
	c := a.newCollector(explicitPaths(d))
	c.collect(d.Stmt, nil)

	def := d.Find(ast.ClauseDefault)
	var copies, presents, firsts []ast.Expr
	for _, ref := range c.results() {
		v := a.unit.Var(ref.decl)
		t := ast.Underlying(v.Type)
		ident := &ast.Ident{Name: v.Name, Decl: ref.decl, Span: ref.first.Span}
		switch {
		case ref.reduced:
			copies = append(copies, ident)
		case def != nil && def.Default == ast.DefaultNone:
			a.errorf(ref.first.Span, "variable '%s' must have explicit data clause because of 'default(none)'", v.Name)
		case ast.IsDependent(t):
		case (ref.escapes || ref.mutated) && ast.IsScalar(t):
			copies = append(copies, ident)
		case ast.IsScalar(t):
			firsts = append(firsts, ident)
		case ast.IsAggregate(t) && def != nil && def.Default == ast.DefaultPresent:
			presents = append(presents, ident)
		case ast.IsAggregate(t):
			copies = append(copies, ident)
		}
	}
	addImplicit(d, ast.ClauseCopy, copies)
	addImplicit(d, ast.ClausePresent, presents)
	addImplicit(d, ast.ClauseFirstPrivate, firsts)
	if len(copies)+len(presents)+len(firsts) > 0 {
		a.log.Debug("implicit data clauses",
			zap.Stringer("pos", d.Span),
			zap.Int("copy", len(copies)),
			zap.Int("present", len(presents)),
			zap.Int("firstprivate", len(firsts)),
		)
	}
}

// loopAttributes marks the outside variables a loop uses as shared unless
// the loop privatizes or reduces them.
func (a *Analyzer) loopAttributes(d *ast.Directive) {
	own := make(map[ast.DeclHandle]bool)
	for _, cl := range d.Clauses {
		if cl.Kind != ast.ClausePrivate && cl.Kind != ast.ClauseReduction {
			continue
		}
		for _, e := range cl.Vars {
			if id := ast.BaseIdent(e); id != nil {
				own[id.Decl] = true
			}
		}
	}
	c := a.newCollector(nil)
	c.collect(d.Stmt, own)
	var shared []ast.Expr
	for _, ref := range c.results() {
		v := a.unit.Var(ref.decl)
		shared = append(shared, &ast.Ident{Name: v.Name, Decl: ref.decl, Span: ref.first.Span})
	}
	addImplicit(d, ast.ClauseShared, shared)
}

func addImplicit(d *ast.Directive, kind ast.ClauseKind, vars []ast.Expr) {
	if len(vars) == 0 {
		return
	}
	d.AddClause(&ast.Clause{Kind: kind, Span: d.Span, Provenance: ast.ProvImplicit, Vars: vars})
}
