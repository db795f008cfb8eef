// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ast

// Rebinder deep-copies subtrees while rebuilding their declaration
// contexts. Local declarations inside the copied region get fresh arena
// entries whose scopes are the copied scopes, references are redirected to
// the copies, and template parameters are replaced by Args.
//
// Record declarations are reused as-is. Sharing is preserved: a statement
// or directive reachable twice in the source region (for example through
// both a directive's associated statement and its implementation) is
// copied once.
type Rebinder struct {
	unit *Unit
	// Args binds template parameters by index.
	Args []Type

	decls  map[DeclHandle]DeclHandle
	scopes map[ScopeHandle]ScopeHandle
	stmts  map[Stmt]Stmt
	dirs   map[*Directive]*Directive
}

// NewRebinder returns a rebinder allocating into u.
func NewRebinder(u *Unit) *Rebinder {
	return &Rebinder{
		unit:   u,
		decls:  make(map[DeclHandle]DeclHandle),
		scopes: make(map[ScopeHandle]ScopeHandle),
		stmts:  make(map[Stmt]Stmt),
		dirs:   make(map[*Directive]*Directive),
	}
}

// MapDecl redirects references to old so they name repl.
func (r *Rebinder) MapDecl(old, repl DeclHandle) { r.decls[old] = repl }

// MapScope makes copies of scopes whose parent is old hang off repl.
func (r *Rebinder) MapScope(old, repl ScopeHandle) { r.scopes[old] = repl }

// Lookup returns the copy of h, or h itself when it was not copied.
func (r *Rebinder) Lookup(h DeclHandle) DeclHandle {
	if n, ok := r.decls[h]; ok {
		return n
	}
	return h
}

// Type substitutes template arguments in t.
func (r *Rebinder) Type(t Type) Type {
	if t == nil || len(r.Args) == 0 {
		return t
	}
	return Substitute(t, r.Args)
}

func (r *Rebinder) scope(old ScopeHandle) ScopeHandle {
	if old == InvalidScope {
		return old
	}
	if n, ok := r.scopes[old]; ok {
		return n
	}
	sc := r.unit.Scope(old)
	if sc == nil {
		return old
	}
	n := r.unit.NewScope(sc.Kind, r.parentScope(sc.Parent), r.Lookup(sc.Owner))
	r.scopes[old] = n
	return n
}

func (r *Rebinder) parentScope(old ScopeHandle) ScopeHandle {
	if n, ok := r.scopes[old]; ok {
		return n
	}
	return old
}

// Func copies the function declaration h into scope and returns the copy.
// The copy is not linked into any redeclaration chain.
func (r *Rebinder) Func(h DeclHandle, scope ScopeHandle) DeclHandle {
	src := r.unit.Func(h)
	if src == nil {
		return h
	}
	dst := &FuncDecl{
		Name:       src.Name,
		Result:     r.Type(src.Result),
		VoidParams: src.VoidParams,
		Static:     src.Static,
		Scope:      scope,
		Prev:       InvalidDecl,
		Next:       InvalidDecl,
		Lambda:     src.Lambda,
		Template:   src.Template,
		Span:       src.Span,
	}
	nh := r.unit.Add(dst)
	r.decls[h] = nh

	kind := ScopeFunction
	if src.Lambda {
		kind = ScopeLambda
	}
	dst.BodyScope = r.unit.NewScope(kind, r.parentScope(scope), nh)
	r.scopes[src.BodyScope] = dst.BodyScope

	for _, p := range src.Params {
		dst.Params = append(dst.Params, r.Var(p))
	}
	if src.Body != nil {
		dst.Body, _ = r.Stmt(src.Body).(*CompoundStmt)
	}
	return nh
}

// Var copies a local variable declaration into the copy of its scope.
func (r *Rebinder) Var(h DeclHandle) DeclHandle {
	if n, ok := r.decls[h]; ok {
		return n
	}
	src := r.unit.Var(h)
	if src == nil {
		// Block-scope function prototypes keep their declaration.
		return h
	}
	scope := r.scope(src.Scope)
	dst := &VarDecl{
		Name:   src.Name,
		Type:   r.Type(src.Type),
		Static: src.Static,
		Param:  src.Param,
		Scope:  scope,
		Span:   src.Span,
	}
	nh := r.unit.Add(dst)
	r.decls[h] = nh
	r.unit.Declare(scope, src.Name, nh)
	if src.Init != nil {
		dst.Init = r.Expr(src.Init)
	}
	return nh
}

// Directive copies d, its clauses, and its subtrees.
func (r *Rebinder) Directive(d *Directive) *Directive {
	if d == nil {
		return nil
	}
	if n, ok := r.dirs[d]; ok {
		return n
	}
	out := &Directive{
		Kind:          d.Kind,
		Span:          d.Span,
		Atomic:        d.Atomic,
		AtomicClause:  d.AtomicClause,
		ImplKind:      d.ImplKind,
		DiscardReason: d.DiscardReason,
		Provenance:    d.Provenance,
	}
	r.dirs[d] = out
	for _, c := range d.Clauses {
		out.Clauses = append(out.Clauses, r.Clause(c))
	}
	out.WaitArgs = r.exprs(d.WaitArgs)
	if d.RoutineName != nil {
		out.RoutineName, _ = r.Expr(d.RoutineName).(*Ident)
	}
	if d.Stmt != nil {
		out.Stmt = r.Stmt(d.Stmt)
	}
	out.Effect = r.Directive(d.Effect)
	if d.Impl != nil {
		out.Impl = r.Stmt(d.Impl)
	}
	return out
}

// Clause copies c.
func (r *Rebinder) Clause(c *Clause) *Clause {
	out := *c
	out.Vars = r.exprs(c.Vars)
	out.Args = r.exprs(c.Args)
	if c.Arg != nil {
		out.Arg = r.Expr(c.Arg)
	}
	return &out
}

func (r *Rebinder) ompDirective(d *OMPDirective) *OMPDirective {
	out := &OMPDirective{Kind: d.Kind, Atomic: d.Atomic}
	for _, c := range d.Clauses {
		nc := *c
		nc.Modifiers = append([]Modifier(nil), c.Modifiers...)
		nc.Vars = r.exprs(c.Vars)
		if c.Arg != nil {
			nc.Arg = r.Expr(c.Arg)
		}
		out.Clauses = append(out.Clauses, &nc)
	}
	if d.Stmt != nil {
		out.Stmt = r.Stmt(d.Stmt)
	}
	return out
}

func (r *Rebinder) stmtList(list []Stmt) []Stmt {
	if list == nil {
		return nil
	}
	out := make([]Stmt, len(list))
	for i, s := range list {
		out[i] = r.Stmt(s)
	}
	return out
}

// Stmt copies s.
func (r *Rebinder) Stmt(s Stmt) Stmt {
	if s == nil {
		return nil
	}
	if n, ok := r.stmts[s]; ok {
		return n
	}
	var out Stmt
	switch v := s.(type) {
	case *CompoundStmt:
		n := &CompoundStmt{Scope: r.scope(v.Scope), Span: v.Span}
		r.stmts[s] = n
		n.Stmts = r.stmtList(v.Stmts)
		out = n
	case *SeqStmt:
		out = &SeqStmt{Stmts: r.stmtList(v.Stmts), Span: v.Span}
	case *DeclStmt:
		n := &DeclStmt{Span: v.Span}
		for _, h := range v.Decls {
			n.Decls = append(n.Decls, r.Var(h))
		}
		out = n
	case *ExprStmt:
		out = &ExprStmt{X: r.Expr(v.X), Span: v.Span}
	case *IfStmt:
		out = &IfStmt{Cond: r.Expr(v.Cond), Then: r.Stmt(v.Then), Else: r.Stmt(v.Else), Span: v.Span}
	case *ForStmt:
		n := &ForStmt{Scope: r.scope(v.Scope), Span: v.Span}
		n.Init = r.Stmt(v.Init)
		n.Cond = r.Expr(v.Cond)
		n.Post = r.Expr(v.Post)
		n.Body = r.Stmt(v.Body)
		out = n
	case *WhileStmt:
		out = &WhileStmt{Cond: r.Expr(v.Cond), Body: r.Stmt(v.Body), Span: v.Span}
	case *DoStmt:
		out = &DoStmt{Body: r.Stmt(v.Body), Cond: r.Expr(v.Cond), Span: v.Span}
	case *ReturnStmt:
		out = &ReturnStmt{X: r.Expr(v.X), Span: v.Span}
	case *BreakStmt:
		out = &BreakStmt{Span: v.Span}
	case *ContinueStmt:
		out = &ContinueStmt{Span: v.Span}
	case *NullStmt:
		out = &NullStmt{Span: v.Span}
	case *AccStmt:
		out = &AccStmt{Dir: r.Directive(v.Dir)}
	case *OMPStmt:
		out = &OMPStmt{Dir: r.ompDirective(v.Dir), Span: v.Span}
	case *PragmaStmt:
		out = &PragmaStmt{Text: v.Text, Span: v.Span}
	default:
		out = s
	}
	r.stmts[s] = out
	return out
}

func (r *Rebinder) exprs(list []Expr) []Expr {
	if list == nil {
		return nil
	}
	out := make([]Expr, len(list))
	for i, e := range list {
		out[i] = r.Expr(e)
	}
	return out
}

func (r *Rebinder) types(list []Type) []Type {
	if list == nil {
		return nil
	}
	out := make([]Type, len(list))
	for i, t := range list {
		out[i] = r.Type(t)
	}
	return out
}

// Expr copies e.
func (r *Rebinder) Expr(e Expr) Expr {
	switch v := e.(type) {
	case nil:
		return nil
	case *IntLit:
		c := *v
		return &c
	case *FloatLit:
		c := *v
		return &c
	case *CharLit:
		c := *v
		return &c
	case *StringLit:
		c := *v
		return &c
	case *BoolLit:
		c := *v
		return &c
	case *Ident:
		return &Ident{Name: v.Name, Decl: r.Lookup(v.Decl), Span: v.Span}
	case *ParenExpr:
		return &ParenExpr{X: r.Expr(v.X), Span: v.Span}
	case *UnaryExpr:
		return &UnaryExpr{Op: v.Op, X: r.Expr(v.X), Postfix: v.Postfix, Span: v.Span}
	case *BinaryExpr:
		return &BinaryExpr{Op: v.Op, X: r.Expr(v.X), Y: r.Expr(v.Y), Span: v.Span}
	case *AssignExpr:
		return &AssignExpr{Op: v.Op, LHS: r.Expr(v.LHS), RHS: r.Expr(v.RHS), Span: v.Span}
	case *CondExpr:
		return &CondExpr{Cond: r.Expr(v.Cond), Then: r.Expr(v.Then), Else: r.Expr(v.Else), Span: v.Span}
	case *CallExpr:
		return &CallExpr{
			Fun:          r.Expr(v.Fun),
			TemplateArgs: r.types(v.TemplateArgs),
			Args:         r.exprs(v.Args),
			Callee:       r.Lookup(v.Callee),
			Span:         v.Span,
		}
	case *IndexExpr:
		return &IndexExpr{X: r.Expr(v.X), Index: r.Expr(v.Index), Span: v.Span}
	case *SectionExpr:
		return &SectionExpr{X: r.Expr(v.X), Lo: r.Expr(v.Lo), Len: r.Expr(v.Len), Span: v.Span}
	case *MemberExpr:
		return &MemberExpr{X: r.Expr(v.X), Name: v.Name, Arrow: v.Arrow, Span: v.Span}
	case *CastExpr:
		return &CastExpr{Type: r.Type(v.Type), X: r.Expr(v.X), Span: v.Span}
	case *LambdaExpr:
		scope := InvalidScope
		if f := r.unit.Func(v.Func); f != nil {
			scope = r.parentScope(f.Scope)
		}
		return &LambdaExpr{Capture: v.Capture, Func: r.Func(v.Func, scope), Span: v.Span}
	}
	return e
}
