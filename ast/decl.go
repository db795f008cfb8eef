// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ast

// DeclHandle addresses a declaration in Unit.Decls.
type DeclHandle uint32

// InvalidDecl marks an unresolved or absent declaration.
const InvalidDecl = ^DeclHandle(0)

// IsValid reports whether h refers to a declaration.
func (h DeclHandle) IsValid() bool { return h != InvalidDecl }

// Decl is a declaration stored in the unit arena.
type Decl interface {
	Node
	declNode()
}

// VarDecl declares a variable or a function parameter.
type VarDecl struct {
	Name   string
	Type   Type
	Init   Expr
	Static bool
	Param  bool
	Scope  ScopeHandle
	Span   Span
}

// FuncDecl declares a function, a function template pattern or
// instantiation, or the call operator of a lambda.
type FuncDecl struct {
	Name   string
	Result Type
	Params []DeclHandle
	// VoidParams records an explicit "(void)" parameter list.
	VoidParams bool
	Body       *CompoundStmt
	Static     bool
	// Scope is the enclosing scope; BodyScope holds the parameters.
	Scope     ScopeHandle
	BodyScope ScopeHandle
	// Prev and Next link redeclarations of the same function in source
	// order. Only file-scope and block-scope function declarations are
	// linked; lambdas and template instances are never redeclared.
	Prev DeclHandle
	Next DeclHandle
	// Lambda marks the call operator of a lambda expression.
	Lambda bool
	// Template is the owning TemplateDecl for patterns and instances.
	Template     DeclHandle
	TemplateArgs []Type
	// Routine is the routine directive that applies to this declaration:
	// written before it, inherited from an earlier redeclaration, or
	// computed from its uses.
	Routine *Directive
	Span    Span
}

// IsDefinition reports whether the declaration has a body.
func (f *FuncDecl) IsDefinition() bool { return f.Body != nil }

// IsInstance reports whether the declaration is a template instantiation.
func (f *FuncDecl) IsInstance() bool { return f.Template.IsValid() && len(f.TemplateArgs) > 0 }

// IsPattern reports whether the declaration is a template pattern.
func (f *FuncDecl) IsPattern() bool { return f.Template.IsValid() && len(f.TemplateArgs) == 0 }

// Field is a struct member.
type Field struct {
	Name string
	Type Type
	Span Span
}

// RecordDecl declares a struct.
type RecordDecl struct {
	Name   string
	Fields []Field
	Scope  ScopeHandle
	Span   Span
}

// FieldIndex returns the index of the named field or -1.
func (r *RecordDecl) FieldIndex(name string) int {
	for i := range r.Fields {
		if r.Fields[i].Name == name {
			return i
		}
	}
	return -1
}

// TemplateDecl declares a function template or a deduction guide template.
type TemplateDecl struct {
	Name       string
	Params     []DeclHandle
	Pattern    DeclHandle
	Instances  []DeclHandle
	Scope      ScopeHandle
	ParamScope ScopeHandle
	Span       Span
}

// TemplateParamDecl declares a template type parameter.
type TemplateParamDecl struct {
	Name  string
	Index int
	Scope ScopeHandle
	Span  Span
}

// DeductionGuideDecl is "S(T) -> S<T>;". Guides are never functions in
// the generated program.
type DeductionGuideDecl struct {
	Name   string
	Params []Type
	Result Type
	Scope  ScopeHandle
	Span   Span
}

// GroupDecl is a file-scope declaration statement with one or more
// declarators sharing a specifier ("int a, *b;").
type GroupDecl struct {
	Members []DeclHandle
	Span    Span
}

// DirectiveDecl is a standalone OpenACC directive at file scope.
type DirectiveDecl struct {
	Dir  *Directive
	Span Span
}

// PragmaDecl is a preprocessor line kept verbatim.
type PragmaDecl struct {
	Text string
	Span Span
}

func (d *VarDecl) Pos() Span            { return d.Span }
func (d *FuncDecl) Pos() Span           { return d.Span }
func (d *RecordDecl) Pos() Span         { return d.Span }
func (d *TemplateDecl) Pos() Span       { return d.Span }
func (d *TemplateParamDecl) Pos() Span  { return d.Span }
func (d *DeductionGuideDecl) Pos() Span { return d.Span }
func (d *GroupDecl) Pos() Span          { return d.Span }
func (d *DirectiveDecl) Pos() Span      { return d.Span }
func (d *PragmaDecl) Pos() Span         { return d.Span }

func (*VarDecl) declNode()            {}
func (*FuncDecl) declNode()           {}
func (*RecordDecl) declNode()         {}
func (*TemplateDecl) declNode()       {}
func (*TemplateParamDecl) declNode()  {}
func (*DeductionGuideDecl) declNode() {}
func (*GroupDecl) declNode()          {}
func (*DirectiveDecl) declNode()      {}
func (*PragmaDecl) declNode()         {}

// DeclName returns the declared name, or "" for unnamed declarations.
func DeclName(d Decl) string {
	switch v := d.(type) {
	case *VarDecl:
		return v.Name
	case *FuncDecl:
		return v.Name
	case *RecordDecl:
		return v.Name
	case *TemplateDecl:
		return v.Name
	case *TemplateParamDecl:
		return v.Name
	case *DeductionGuideDecl:
		return v.Name
	}
	return ""
}
