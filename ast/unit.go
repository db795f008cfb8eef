// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ast

// ScopeHandle addresses a scope in Unit.Scopes.
type ScopeHandle uint32

// InvalidScope marks an absent scope.
const InvalidScope = ^ScopeHandle(0)

// FileScope is the handle of the translation unit scope.
const FileScope ScopeHandle = 0

// ScopeKind classifies scopes.
type ScopeKind uint8

const (
	ScopeFile ScopeKind = iota
	ScopeFunction
	ScopeBlock
	ScopeRecord
	ScopeLambda
	ScopeTemplate
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeFile:
		return "file"
	case ScopeFunction:
		return "function"
	case ScopeBlock:
		return "block"
	case ScopeRecord:
		return "record"
	case ScopeLambda:
		return "lambda"
	case ScopeTemplate:
		return "template"
	}
	return "unknown"
}

// Scope is a declaration context.
type Scope struct {
	Kind   ScopeKind
	Parent ScopeHandle
	// Owner is the function, lambda, record, or template that opened the
	// scope, or InvalidDecl for blocks and the file scope.
	Owner DeclHandle
	Names map[string]DeclHandle
}

// Unit is a translation unit.
type Unit struct {
	Name   string
	Source string
	Decls  []Decl
	Scopes []Scope
	// Items are the file-scope declarations in source order.
	Items []DeclHandle
	// AsyncTokens are the dependence tokens lowering introduced, in queue
	// order.
	AsyncTokens []string
}

// NewUnit creates an empty unit with its file scope.
func NewUnit(name, source string) *Unit {
	u := &Unit{Name: name, Source: source}
	u.NewScope(ScopeFile, InvalidScope, InvalidDecl)
	return u
}

// Add appends d to the declaration arena.
func (u *Unit) Add(d Decl) DeclHandle {
	u.Decls = append(u.Decls, d)
	return DeclHandle(len(u.Decls) - 1)
}

// Decl returns the declaration for h, or nil.
func (u *Unit) Decl(h DeclHandle) Decl {
	if !h.IsValid() || int(h) >= len(u.Decls) {
		return nil
	}
	return u.Decls[h]
}

// Var returns h as a variable declaration, or nil.
func (u *Unit) Var(h DeclHandle) *VarDecl {
	v, _ := u.Decl(h).(*VarDecl)
	return v
}

// Func returns h as a function declaration, or nil.
func (u *Unit) Func(h DeclHandle) *FuncDecl {
	f, _ := u.Decl(h).(*FuncDecl)
	return f
}

// Record returns h as a record declaration, or nil.
func (u *Unit) Record(h DeclHandle) *RecordDecl {
	r, _ := u.Decl(h).(*RecordDecl)
	return r
}

// Template returns h as a template declaration, or nil.
func (u *Unit) Template(h DeclHandle) *TemplateDecl {
	t, _ := u.Decl(h).(*TemplateDecl)
	return t
}

// NewScope appends a scope and returns its handle.
func (u *Unit) NewScope(kind ScopeKind, parent ScopeHandle, owner DeclHandle) ScopeHandle {
	u.Scopes = append(u.Scopes, Scope{
		Kind:   kind,
		Parent: parent,
		Owner:  owner,
		Names:  make(map[string]DeclHandle),
	})
	return ScopeHandle(len(u.Scopes) - 1)
}

// Scope returns the scope for h, or nil.
func (u *Unit) Scope(h ScopeHandle) *Scope {
	if h == InvalidScope || int(h) >= len(u.Scopes) {
		return nil
	}
	return &u.Scopes[h]
}

// Declare binds name to h in scope, shadowing any earlier binding there.
func (u *Unit) Declare(scope ScopeHandle, name string, h DeclHandle) {
	if s := u.Scope(scope); s != nil && name != "" {
		s.Names[name] = h
	}
}

// LookupLocal resolves name in scope only.
func (u *Unit) LookupLocal(scope ScopeHandle, name string) DeclHandle {
	if s := u.Scope(scope); s != nil {
		if h, ok := s.Names[name]; ok {
			return h
		}
	}
	return InvalidDecl
}

// Lookup resolves name by walking the scope chain outward.
func (u *Unit) Lookup(scope ScopeHandle, name string) DeclHandle {
	for s := scope; s != InvalidScope; {
		sc := u.Scope(s)
		if sc == nil {
			break
		}
		if h, ok := sc.Names[name]; ok {
			return h
		}
		s = sc.Parent
	}
	return InvalidDecl
}

// Encloses reports whether inner is outer or nested within it.
func (u *Unit) Encloses(outer, inner ScopeHandle) bool {
	for s := inner; s != InvalidScope; {
		if s == outer {
			return true
		}
		sc := u.Scope(s)
		if sc == nil {
			return false
		}
		s = sc.Parent
	}
	return false
}

// IsFileScope reports whether scope is the file scope or a template
// parameter scope directly under it.
func (u *Unit) IsFileScope(scope ScopeHandle) bool {
	for scope != InvalidScope {
		sc := u.Scope(scope)
		if sc == nil {
			return false
		}
		switch sc.Kind {
		case ScopeFile:
			return true
		case ScopeTemplate:
			scope = sc.Parent
		default:
			return false
		}
	}
	return false
}

// Link makes next the redeclaration following prev.
func (u *Unit) Link(prev, next DeclHandle) {
	p, n := u.Func(prev), u.Func(next)
	if p == nil || n == nil {
		return
	}
	p.Next = next
	n.Prev = prev
}

// First returns the first declaration of h's redeclaration chain.
func (u *Unit) First(h DeclHandle) DeclHandle {
	for {
		f := u.Func(h)
		if f == nil || !f.Prev.IsValid() {
			return h
		}
		h = f.Prev
	}
}

// MostRecent returns the last declaration of h's redeclaration chain.
func (u *Unit) MostRecent(h DeclHandle) DeclHandle {
	for {
		f := u.Func(h)
		if f == nil || !f.Next.IsValid() {
			return h
		}
		h = f.Next
	}
}

// Redecls returns every declaration of h's chain in source order.
func (u *Unit) Redecls(h DeclHandle) []DeclHandle {
	var out []DeclHandle
	for c := u.First(h); c.IsValid(); {
		out = append(out, c)
		f := u.Func(c)
		if f == nil {
			break
		}
		c = f.Next
	}
	return out
}

// Definition returns the declaration with a body in h's chain, or
// InvalidDecl.
func (u *Unit) Definition(h DeclHandle) DeclHandle {
	for _, c := range u.Redecls(h) {
		if u.Func(c).IsDefinition() {
			return c
		}
	}
	return InvalidDecl
}

// Functions returns every function declaration with a body, in arena
// order. Template patterns are included; callers skip them as needed.
func (u *Unit) Functions() []DeclHandle {
	var out []DeclHandle
	for i, d := range u.Decls {
		if f, ok := d.(*FuncDecl); ok && f.IsDefinition() {
			out = append(out, DeclHandle(i))
		}
	}
	return out
}

// EnclosingFunction returns the function or lambda that owns scope, or
// InvalidDecl at file scope.
func (u *Unit) EnclosingFunction(scope ScopeHandle) DeclHandle {
	for s := scope; s != InvalidScope; {
		sc := u.Scope(s)
		if sc == nil {
			break
		}
		if sc.Kind == ScopeFunction || sc.Kind == ScopeLambda {
			return sc.Owner
		}
		s = sc.Parent
	}
	return InvalidDecl
}
