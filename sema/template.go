// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package sema

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/gogpu/acc2omp/ast"
)

// instantiate binds every template call with concrete arguments to an
// instantiation, creating one per distinct argument list. Instances are
// appended to the arena, so the loop reaches their bodies too.
func (a *Analyzer) instantiate() {
	u := a.unit
	for i := 0; i < len(u.Decls); i++ {
		switch v := u.Decls[i].(type) {
		case *ast.FuncDecl:
			if v.Body != nil && !v.IsPattern() {
				a.bindCalls(v.Body)
			}
		case *ast.VarDecl:
			if v.Init != nil && u.IsFileScope(v.Scope) {
				a.bindCalls(v.Init)
			}
		}
	}
}

func (a *Analyzer) bindCalls(n ast.Node) {
	a.unit.Inspect(n, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		id, ok := ast.StripParens(call.Fun).(*ast.Ident)
		if !ok {
			return true
		}
		if td := a.unit.Template(id.Decl); td != nil {
			if inst, ok := a.instanceFor(id.Decl, td, call); ok {
				call.Callee = inst
			}
		}
		return true
	})
}

// instanceFor returns the instantiation a call binds to, creating it on
// first use. Calls whose arguments are still dependent are left alone.
func (a *Analyzer) instanceFor(th ast.DeclHandle, td *ast.TemplateDecl, call *ast.CallExpr) (ast.DeclHandle, bool) {
	pattern := a.unit.Func(td.Pattern)
	if pattern == nil {
		return ast.InvalidDecl, false
	}
	args := call.TemplateArgs
	if len(args) == 0 {
		args = a.deduceArgs(td, pattern, call)
	}
	if len(args) != len(td.Params) {
		a.errorf(call.Span, "no matching function for call to '%s'", td.Name)
		return ast.InvalidDecl, false
	}
	names := make([]string, len(args))
	for i, t := range args {
		if t == nil {
			a.errorf(call.Span, "no matching function for call to '%s'", td.Name)
			return ast.InvalidDecl, false
		}
		if ast.IsDependent(t) {
			return ast.InvalidDecl, false
		}
		names[i] = ast.TypeString(t)
	}
	key := fmt.Sprintf("%d<%s>", th, strings.Join(names, ", "))
	if h, ok := a.instances[key]; ok {
		return h, true
	}

	r := ast.NewRebinder(a.unit)
	r.Args = args
	h := r.Func(td.Pattern, td.Scope)
	inst := a.unit.Func(h)
	inst.TemplateArgs = args
	if pattern.Routine != nil {
		inst.Routine = r.Directive(pattern.Routine)
	}
	td.Instances = append(td.Instances, h)
	a.instances[key] = h
	a.result.Instances = append(a.result.Instances, h)
	a.log.Debug("template instantiated",
		zap.String("template", td.Name),
		zap.Strings("args", names),
		zap.Uint32("decl", uint32(h)),
	)
	return h, true
}

// deduceArgs infers template arguments from the call's argument types.
// Unbound parameters are left nil.
func (a *Analyzer) deduceArgs(td *ast.TemplateDecl, pattern *ast.FuncDecl, call *ast.CallExpr) []ast.Type {
	out := make([]ast.Type, len(td.Params))
	for i, p := range pattern.Params {
		if i >= len(call.Args) {
			break
		}
		pv := a.unit.Var(p)
		if pv == nil {
			continue
		}
		deduce(pv.Type, TypeOf(a.unit, call.Args[i]), out)
	}
	return out
}

func deduce(param, arg ast.Type, out []ast.Type) {
	if arg == nil {
		return
	}
	switch p := param.(type) {
	case *ast.TemplateParamType:
		if p.Index < len(out) && out[p.Index] == nil {
			out[p.Index] = ast.Underlying(arg)
		}
	case *ast.ReferenceType:
		deduce(p.Elem, arg, out)
	case *ast.PointerType:
		if elem, ok := ast.ElemType(arg); ok {
			deduce(p.Elem, elem, out)
		}
	}
}
