// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ast

import (
	"fmt"
	"strings"
)

// Type is a base-language type. Types are plain values; two types are the
// same when Equal says so.
type Type interface {
	typeNode()
}

// BuiltinKind enumerates the fundamental types.
type BuiltinKind uint8

const (
	Void BuiltinKind = iota
	Bool
	Char
	Int
	Long
	UInt
	ULong
	Float
	Double
)

func (k BuiltinKind) String() string {
	switch k {
	case Void:
		return "void"
	case Bool:
		return "bool"
	case Char:
		return "char"
	case Int:
		return "int"
	case Long:
		return "long"
	case UInt:
		return "unsigned int"
	case ULong:
		return "unsigned long"
	case Float:
		return "float"
	case Double:
		return "double"
	default:
		return fmt.Sprintf("BuiltinKind(%d)", uint8(k))
	}
}

// IsInteger reports whether the kind is an integral type (bool and char
// included).
func (k BuiltinKind) IsInteger() bool {
	switch k {
	case Bool, Char, Int, Long, UInt, ULong:
		return true
	}
	return false
}

// IsFloat reports whether the kind is a floating-point type.
func (k BuiltinKind) IsFloat() bool { return k == Float || k == Double }

// Rank orders arithmetic kinds for the usual arithmetic conversions.
func (k BuiltinKind) Rank() int {
	switch k {
	case Bool, Char, Int:
		return 1
	case UInt:
		return 2
	case Long:
		return 3
	case ULong:
		return 4
	case Float:
		return 5
	case Double:
		return 6
	}
	return 0
}

// BuiltinType is a fundamental type.
type BuiltinType struct {
	Kind BuiltinKind
}

// PointerType is T*.
type PointerType struct {
	Elem Type
}

// ReferenceType is T&.
type ReferenceType struct {
	Elem Type
}

// ArrayType is T[Len]. Len is -1 for an array of unspecified bound.
type ArrayType struct {
	Elem Type
	Len  int64
}

// RecordType names a struct declaration.
type RecordType struct {
	Decl DeclHandle
	Name string
	// Elaborated is set when the source spelled "struct T".
	Elaborated bool
}

// TemplateParamType is a reference to a template type parameter. Any type
// containing one is dependent.
type TemplateParamType struct {
	Name  string
	Index int
}

// SpecializationType is a named template specialization such as S<T>. It
// only appears as the result of a deduction guide.
type SpecializationType struct {
	Name string
	Args []Type
}

// AutoType is the placeholder of a lambda-initialized local.
type AutoType struct {
	Deduced Type
}

// LambdaType is the closure type of a lambda expression.
type LambdaType struct {
	Func DeclHandle
}

// FunctionType is the type of an expression naming a function.
type FunctionType struct {
	Decl DeclHandle
}

func (*BuiltinType) typeNode()        {}
func (*PointerType) typeNode()        {}
func (*ReferenceType) typeNode()      {}
func (*ArrayType) typeNode()          {}
func (*RecordType) typeNode()         {}
func (*TemplateParamType) typeNode()  {}
func (*SpecializationType) typeNode() {}
func (*AutoType) typeNode()           {}
func (*LambdaType) typeNode()         {}
func (*FunctionType) typeNode()       {}

// Builtin returns the builtin type of kind k.
func Builtin(k BuiltinKind) *BuiltinType { return &BuiltinType{Kind: k} }

// Underlying strips references and resolved auto placeholders.
func Underlying(t Type) Type {
	for {
		switch v := t.(type) {
		case *ReferenceType:
			t = v.Elem
		case *AutoType:
			if v.Deduced == nil {
				return t
			}
			t = v.Deduced
		default:
			return t
		}
	}
}

// AsBuiltin returns the builtin kind of t after Underlying.
func AsBuiltin(t Type) (BuiltinKind, bool) {
	if b, ok := Underlying(t).(*BuiltinType); ok {
		return b.Kind, true
	}
	return Void, false
}

// IsArithmetic reports whether t is a non-void builtin.
func IsArithmetic(t Type) bool {
	k, ok := AsBuiltin(t)
	return ok && k != Void
}

// IsInteger reports whether t is an integral builtin.
func IsInteger(t Type) bool {
	k, ok := AsBuiltin(t)
	return ok && k.IsInteger()
}

// IsScalar reports whether t is arithmetic or a pointer.
func IsScalar(t Type) bool {
	switch Underlying(t).(type) {
	case *PointerType:
		return true
	case *BuiltinType:
		return IsArithmetic(t)
	}
	return false
}

// IsAggregate reports whether t is an array or a record.
func IsAggregate(t Type) bool {
	switch Underlying(t).(type) {
	case *ArrayType, *RecordType, *SpecializationType:
		return true
	}
	return false
}

// IsDependent reports whether t mentions a template parameter.
func IsDependent(t Type) bool {
	switch v := t.(type) {
	case nil:
		return false
	case *TemplateParamType:
		return true
	case *PointerType:
		return IsDependent(v.Elem)
	case *ReferenceType:
		return IsDependent(v.Elem)
	case *ArrayType:
		return IsDependent(v.Elem)
	case *AutoType:
		return IsDependent(v.Deduced)
	case *SpecializationType:
		for _, a := range v.Args {
			if IsDependent(a) {
				return true
			}
		}
	}
	return false
}

// ElemType returns the element type of an array or pointer.
func ElemType(t Type) (Type, bool) {
	switch v := Underlying(t).(type) {
	case *ArrayType:
		return v.Elem, true
	case *PointerType:
		return v.Elem, true
	}
	return nil, false
}

// Equal reports structural type identity.
func Equal(a, b Type) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case *BuiltinType:
		y, ok := b.(*BuiltinType)
		return ok && x.Kind == y.Kind
	case *PointerType:
		y, ok := b.(*PointerType)
		return ok && Equal(x.Elem, y.Elem)
	case *ReferenceType:
		y, ok := b.(*ReferenceType)
		return ok && Equal(x.Elem, y.Elem)
	case *ArrayType:
		y, ok := b.(*ArrayType)
		return ok && x.Len == y.Len && Equal(x.Elem, y.Elem)
	case *RecordType:
		y, ok := b.(*RecordType)
		return ok && x.Decl == y.Decl
	case *TemplateParamType:
		y, ok := b.(*TemplateParamType)
		return ok && x.Index == y.Index && x.Name == y.Name
	case *SpecializationType:
		y, ok := b.(*SpecializationType)
		if !ok || x.Name != y.Name || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !Equal(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	case *AutoType:
		y, ok := b.(*AutoType)
		return ok && Equal(x.Deduced, y.Deduced)
	case *LambdaType:
		y, ok := b.(*LambdaType)
		return ok && x.Func == y.Func
	case *FunctionType:
		y, ok := b.(*FunctionType)
		return ok && x.Decl == y.Decl
	}
	return false
}

// TypeString renders t for diagnostics and instantiation keys.
func TypeString(t Type) string {
	var b strings.Builder
	writeType(&b, t)
	return b.String()
}

func writeType(b *strings.Builder, t Type) {
	switch v := t.(type) {
	case nil:
		b.WriteString("<nil>")
	case *BuiltinType:
		b.WriteString(v.Kind.String())
	case *PointerType:
		writeType(b, v.Elem)
		b.WriteString(" *")
	case *ReferenceType:
		writeType(b, v.Elem)
		b.WriteString(" &")
	case *ArrayType:
		writeType(b, v.Elem)
		if v.Len < 0 {
			b.WriteString("[]")
		} else {
			fmt.Fprintf(b, "[%d]", v.Len)
		}
	case *RecordType:
		if v.Elaborated {
			b.WriteString("struct ")
		}
		b.WriteString(v.Name)
	case *TemplateParamType:
		b.WriteString(v.Name)
	case *SpecializationType:
		b.WriteString(v.Name)
		b.WriteByte('<')
		for i, a := range v.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			writeType(b, a)
		}
		b.WriteByte('>')
	case *AutoType:
		b.WriteString("auto")
	case *LambdaType:
		b.WriteString("(lambda)")
	case *FunctionType:
		b.WriteString("(function)")
	default:
		fmt.Fprintf(b, "%T", t)
	}
}

// Substitute replaces template parameters in t by the corresponding entry of
// args. Parameters without a binding are kept.
func Substitute(t Type, args []Type) Type {
	switch v := t.(type) {
	case *TemplateParamType:
		if v.Index < len(args) && args[v.Index] != nil {
			return args[v.Index]
		}
		return v
	case *PointerType:
		return &PointerType{Elem: Substitute(v.Elem, args)}
	case *ReferenceType:
		return &ReferenceType{Elem: Substitute(v.Elem, args)}
	case *ArrayType:
		return &ArrayType{Elem: Substitute(v.Elem, args), Len: v.Len}
	case *SpecializationType:
		out := &SpecializationType{Name: v.Name, Args: make([]Type, len(v.Args))}
		for i, a := range v.Args {
			out.Args[i] = Substitute(a, args)
		}
		return out
	case *AutoType:
		if v.Deduced == nil {
			return v
		}
		return &AutoType{Deduced: Substitute(v.Deduced, args)}
	}
	return t
}
