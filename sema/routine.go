// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package sema

import (
	"sort"

	"go.uber.org/zap"

	"github.com/gogpu/acc2omp/ast"
	"github.com/gogpu/acc2omp/diag"
)

// RoutineInfo is the level record of one function.
type RoutineInfo struct {
	Level ast.Level
	// Provenance is ProvExplicit when a routine directive names the
	// function and ProvImplicit when the level comes from its uses.
	Provenance ast.Provenance
	// Dir is the first explicit routine directive.
	Dir *ast.Directive
	// Use is the call that implied an implicit level, and Via the
	// function containing it.
	Use ast.Span
	Via ast.DeclHandle
	// Lambda marks the call operator of a lambda.
	Lambda bool
}

// routineTable is an arena of level records indexed by the first
// declaration of a redeclaration chain. Pointers returned by lookup are
// only valid until the next add.
type routineTable struct {
	entries []RoutineInfo
	index   map[ast.DeclHandle]int
	order   []ast.DeclHandle
}

func (t *routineTable) init() { t.index = make(map[ast.DeclHandle]int) }

func (t *routineTable) lookup(h ast.DeclHandle) *RoutineInfo {
	i, ok := t.index[h]
	if !ok {
		return nil
	}
	return &t.entries[i]
}

func (t *routineTable) add(h ast.DeclHandle, info RoutineInfo) *RoutineInfo {
	if i, ok := t.index[h]; ok {
		t.entries[i] = info
		return &t.entries[i]
	}
	t.entries = append(t.entries, info)
	t.index[h] = len(t.entries) - 1
	t.order = append(t.order, h)
	return &t.entries[len(t.entries)-1]
}

// callSite is one edge of the device call graph.
type callSite struct {
	caller ast.DeclHandle
	callee ast.DeclHandle
	// level is the required level of a call inside loops or directly in a
	// compute construct. Otherwise the call inherits the caller's level.
	level   ast.Level
	inherit bool
	compute bool
	lambda  bool
	span    ast.Span
}

// collectCalls records the call edges of the function h.
func (a *Analyzer) collectCalls(h ast.DeclHandle, f *ast.FuncDecl) {
	caller := a.unit.First(h)
	var walk func(root ast.Node, stack []*ast.Directive)
	walk = func(root ast.Node, stack []*ast.Directive) {
		a.unit.Inspect(root, func(n ast.Node) bool {
			switch v := n.(type) {
			case *ast.AccStmt:
				d := v.Dir
				if d.Effect != nil {
					d = d.Effect
				}
				if d.Stmt != nil {
					walk(d.Stmt, append(stack[:len(stack):len(stack)], d))
				}
				return false
			case *ast.CallExpr:
				a.addCall(caller, v, stack)
			}
			return true
		})
	}
	walk(f.Body, nil)
}

func (a *Analyzer) addCall(caller ast.DeclHandle, call *ast.CallExpr, stack []*ast.Directive) {
	cf := a.unit.Func(call.Callee)
	if cf == nil {
		return
	}
	site := callSite{
		caller:  caller,
		callee:  a.unit.First(call.Callee),
		compute: enclosingCompute(stack) != nil,
		lambda:  cf.Lambda,
		span:    call.Span,
	}
	loops := enclosingLoops(stack)
	switch {
	case len(loops) > 0:
		for _, l := range loops {
			site.level = max(site.level, l.MaxLevel())
		}
	case site.compute:
		site.level = ast.LevelSeq
	default:
		site.inherit = true
	}
	a.calls = append(a.calls, site)
}

// explicitRoutines gathers the routine directives written for each
// function chain, in source order.
func (a *Analyzer) explicitRoutines() map[ast.DeclHandle][]*ast.Directive {
	u := a.unit
	out := make(map[ast.DeclHandle][]*ast.Directive)
	addNamed := func(d *ast.Directive) {
		if d.Kind == ast.DirRoutine && d.RoutineName != nil && u.Func(d.RoutineName.Decl) != nil {
			first := u.First(d.RoutineName.Decl)
			out[first] = append(out[first], d)
		}
	}
	for i, d := range u.Decls {
		switch v := d.(type) {
		case *ast.FuncDecl:
			if v.Routine != nil && v.Routine.Provenance == ast.ProvExplicit {
				first := u.First(ast.DeclHandle(i))
				out[first] = append(out[first], v.Routine)
			}
			if v.Body != nil {
				a.directives(v.Body, nil, func(d *ast.Directive, _ []*ast.Directive) { addNamed(d) })
			}
		case *ast.DirectiveDecl:
			addNamed(v.Dir)
		}
	}
	for _, dirs := range out {
		sort.SliceStable(dirs, func(i, j int) bool { return dirs[i].Span.Start.Before(dirs[j].Span.Start) })
	}
	return out
}

// inferLevels records explicit routine levels, reports conflicting
// directives, and computes implicit levels as the least fixpoint over the
// call graph.
func (a *Analyzer) inferLevels() {
	explicit := a.explicitRoutines()
	chains := make([]ast.DeclHandle, 0, len(explicit))
	for h := range explicit {
		chains = append(chains, h)
	}
	sort.Slice(chains, func(i, j int) bool { return chains[i] < chains[j] })
	for _, h := range chains {
		dirs := explicit[h]
		first := dirs[0]
		level, _ := first.RoutineLevel()
		for _, d := range dirs[1:] {
			if l, _ := d.RoutineLevel(); l != level {
				a.errorf(d.Span, "routine directive for '%s' conflicts with previous routine directive", a.varName(h)).
					Note(first.Span, "previous routine directive is here")
			}
		}
		a.routines.add(h, RoutineInfo{Level: level, Provenance: ast.ProvExplicit, Dir: first, Via: ast.InvalidDecl})
	}

	implicit := make(map[ast.DeclHandle]ast.Level)
	levelOf := func(h ast.DeclHandle) (ast.Level, bool) {
		if r := a.routines.lookup(h); r != nil {
			return r.Level, true
		}
		l, ok := implicit[h]
		return l, ok
	}
	for changed := true; changed; {
		changed = false
		for _, c := range a.calls {
			if a.routines.lookup(c.callee) != nil {
				continue
			}
			req, ok := c.required(levelOf)
			if !ok {
				continue
			}
			if c.lambda {
				req = ast.LevelSeq
			}
			if cur, has := implicit[c.callee]; !has || req > cur {
				implicit[c.callee] = req
				changed = true
			}
		}
	}

	// The recorded use is the first call in source order that requires the
	// final level, so the record does not depend on iteration order.
	for _, c := range a.calls {
		level, ok := implicit[c.callee]
		if !ok || a.routines.lookup(c.callee) != nil {
			continue
		}
		req, _ := c.required(levelOf)
		if c.lambda {
			req = ast.LevelSeq
		}
		if req != level {
			continue
		}
		via := ast.InvalidDecl
		if !c.compute {
			via = c.caller
		}
		a.routines.add(c.callee, RoutineInfo{
			Level:      level,
			Provenance: ast.ProvImplicit,
			Use:        c.span,
			Via:        via,
			Lambda:     c.lambda,
		})
		a.log.Debug("implicit routine",
			zap.String("function", a.varName(c.callee)),
			zap.Stringer("level", level),
			zap.Stringer("use", c.span),
		)
		if c.lambda {
			a.warnf(diag.FlagACCRoutineLambda, c.span,
				"lambda used in device code is treated as '#pragma acc routine seq'")
		}
	}
}

// required returns the level a call needs from its callee, or false when
// the call is host code.
func (c *callSite) required(levelOf func(ast.DeclHandle) (ast.Level, bool)) (ast.Level, bool) {
	if c.compute {
		return c.level, true
	}
	callerLevel, ok := levelOf(c.caller)
	if !ok {
		return ast.LevelSeq, false
	}
	if c.inherit {
		return callerLevel, true
	}
	return c.level, true
}

// checkRoutines checks routine bodies against their final levels.
func (a *Analyzer) checkRoutines() {
	for _, h := range a.routines.order {
		info := *a.routines.lookup(h)
		def := a.unit.Definition(h)
		f := a.unit.Func(def)
		if f == nil {
			continue
		}
		a.checkOrphanedLoops(f, info.Level)
		if info.Level == ast.LevelSeq {
			continue
		}
		a.unit.Inspect(f.Body, func(n ast.Node) bool {
			ds, ok := n.(*ast.DeclStmt)
			if !ok {
				return true
			}
			for _, vh := range ds.Decls {
				v := a.unit.Var(vh)
				if v == nil || !v.Static {
					continue
				}
				d := a.errorf(v.Span, "static local variable '%s' is not permitted within a function with OpenACC routine '%s'",
					v.Name, info.Level)
				a.explain(d, h)
			}
			return true
		})
	}
}

// explain attaches the chain of notes that justifies h's level.
func (a *Analyzer) explain(d *diag.Diagnostic, h ast.DeclHandle) {
	visited := make(map[ast.DeclHandle]bool)
	for h.IsValid() && !visited[h] {
		visited[h] = true
		info := a.routines.lookup(h)
		if info == nil {
			return
		}
		if info.Provenance == ast.ProvExplicit {
			d.Note(info.Dir.Span, "'%s' is declared routine '%s' here", a.varName(h), info.Level)
			return
		}
		d.Note(info.Use, "'%s' is implicitly declared routine '%s' because it is used here", a.varName(h), info.Level)
		h = info.Via
	}
}

// checkOrphanedLoops rejects loops outside compute constructs whose level
// exceeds the enclosing routine's.
func (a *Analyzer) checkOrphanedLoops(f *ast.FuncDecl, level ast.Level) {
	a.directives(f.Body, nil, func(d *ast.Directive, stack []*ast.Directive) {
		if d.Kind != ast.DirLoop || enclosingCompute(stack) != nil {
			return
		}
		if d.IsPartitioned() && d.MaxLevel() > level {
			a.errorf(d.Span, "loop with '%s' clause is not permitted within a function with OpenACC routine '%s'",
				d.MaxLevel(), level)
		}
	})
}

// materializeRoutines stores the final records on the declarations:
// declarations after an explicit directive inherit it, and every
// declaration of an implicitly leveled function gets an implicit
// directive.
func (a *Analyzer) materializeRoutines() {
	u := a.unit
	for _, h := range a.routines.order {
		info := *a.routines.lookup(h)
		a.result.Routines[h] = &info
		for _, dh := range u.Redecls(h) {
			f := u.Func(dh)
			if f == nil || f.Routine != nil {
				continue
			}
			prov := ast.ProvImplicit
			if info.Provenance == ast.ProvExplicit {
				if !info.Dir.Span.Start.Before(f.Span.Start) {
					continue
				}
				prov = ast.ProvInherited
			}
			f.Routine = &ast.Directive{
				Kind:       ast.DirRoutine,
				Span:       f.Span,
				Provenance: prov,
				Clauses: []*ast.Clause{{
					Kind:       info.Level.Clause(),
					Span:       f.Span,
					Provenance: prov,
				}},
			}
		}
	}
}
