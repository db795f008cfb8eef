// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package serial

import (
	"fmt"
	"reflect"
	"unsafe"

	jsoniter "github.com/json-iterator/go"

	"github.com/gogpu/acc2omp/ast"
)

// kindTable maps node names to the concrete struct types implementing one
// node interface.
type kindTable map[string]reflect.Type

func newKindTable(nodes ...any) kindTable {
	t := make(kindTable, len(nodes))
	for _, n := range nodes {
		rt := reflect.TypeOf(n).Elem()
		t[rt.Name()] = rt
	}
	return t
}

func (t kindTable) alloc(kind string) (any, bool) {
	rt, ok := t[kind]
	if !ok {
		return nil, false
	}
	return reflect.New(rt).Interface(), true
}

var (
	declKinds = newKindTable(
		&ast.VarDecl{}, &ast.FuncDecl{}, &ast.RecordDecl{}, &ast.TemplateDecl{},
		&ast.TemplateParamDecl{}, &ast.DeductionGuideDecl{}, &ast.GroupDecl{},
		&ast.DirectiveDecl{}, &ast.PragmaDecl{},
	)
	stmtKinds = newKindTable(
		&ast.CompoundStmt{}, &ast.SeqStmt{}, &ast.DeclStmt{}, &ast.ExprStmt{},
		&ast.IfStmt{}, &ast.ForStmt{}, &ast.WhileStmt{}, &ast.DoStmt{},
		&ast.ReturnStmt{}, &ast.BreakStmt{}, &ast.ContinueStmt{}, &ast.NullStmt{},
		&ast.AccStmt{}, &ast.OMPStmt{}, &ast.PragmaStmt{},
	)
	exprKinds = newKindTable(
		&ast.IntLit{}, &ast.FloatLit{}, &ast.CharLit{}, &ast.StringLit{},
		&ast.BoolLit{}, &ast.Ident{}, &ast.ParenExpr{}, &ast.UnaryExpr{},
		&ast.BinaryExpr{}, &ast.AssignExpr{}, &ast.CondExpr{}, &ast.CallExpr{},
		&ast.IndexExpr{}, &ast.SectionExpr{}, &ast.MemberExpr{}, &ast.CastExpr{},
		&ast.LambdaExpr{},
	)
	typeKinds = newKindTable(
		&ast.BuiltinType{}, &ast.PointerType{}, &ast.ReferenceType{},
		&ast.ArrayType{}, &ast.RecordType{}, &ast.TemplateParamType{},
		&ast.SpecializationType{}, &ast.AutoType{}, &ast.LambdaType{},
		&ast.FunctionType{},
	)
)

func init() {
	registerUnion("ast.Decl", declKinds,
		func(ptr unsafe.Pointer) any { return *(*ast.Decl)(ptr) },
		func(ptr unsafe.Pointer, v any) {
			d, _ := v.(ast.Decl)
			*(*ast.Decl)(ptr) = d
		})
	registerUnion("ast.Stmt", stmtKinds,
		func(ptr unsafe.Pointer) any { return *(*ast.Stmt)(ptr) },
		func(ptr unsafe.Pointer, v any) {
			s, _ := v.(ast.Stmt)
			*(*ast.Stmt)(ptr) = s
		})
	registerUnion("ast.Expr", exprKinds,
		func(ptr unsafe.Pointer) any { return *(*ast.Expr)(ptr) },
		func(ptr unsafe.Pointer, v any) {
			e, _ := v.(ast.Expr)
			*(*ast.Expr)(ptr) = e
		})
	registerUnion("ast.Type", typeKinds,
		func(ptr unsafe.Pointer) any { return *(*ast.Type)(ptr) },
		func(ptr unsafe.Pointer, v any) {
			t, _ := v.(ast.Type)
			*(*ast.Type)(ptr) = t
		})
}

// registerUnion installs the tagged encoding for one node interface. load
// reads the interface value at ptr and store writes a decoded node back.
func registerUnion(name string, table kindTable, load func(unsafe.Pointer) any, store func(unsafe.Pointer, any)) {
	jsoniter.RegisterTypeEncoderFunc(name,
		func(ptr unsafe.Pointer, stream *jsoniter.Stream) {
			encodeNode(stream, table, name, load(ptr))
		},
		func(ptr unsafe.Pointer) bool { return isNil(load(ptr)) })
	jsoniter.RegisterTypeDecoderFunc(name, func(ptr unsafe.Pointer, iter *jsoniter.Iterator) {
		store(ptr, decodeNode(iter, table, name))
	})
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

func encodeNode(stream *jsoniter.Stream, table kindTable, what string, v any) {
	if isNil(v) {
		stream.WriteNil()
		return
	}
	kind := reflect.TypeOf(v).Elem().Name()
	if _, ok := table[kind]; !ok {
		if stream.Error == nil {
			stream.Error = fmt.Errorf("encode %s: unsupported node %T", what, v)
		}
		return
	}
	stream.WriteObjectStart()
	stream.WriteObjectField("k")
	stream.WriteString(kind)
	stream.WriteMore()
	stream.WriteObjectField("v")
	stream.WriteVal(v)
	stream.WriteObjectEnd()
}

func decodeNode(iter *jsoniter.Iterator, table kindTable, what string) any {
	if iter.ReadNil() {
		return nil
	}
	var node any
	for field := iter.ReadObject(); field != ""; field = iter.ReadObject() {
		switch field {
		case "k":
			kind := iter.ReadString()
			n, ok := table.alloc(kind)
			if !ok {
				iter.ReportError("decode "+what, "unknown node kind "+kind)
				return nil
			}
			node = n
		case "v":
			if node == nil {
				iter.ReportError("decode "+what, "node value before kind")
				return nil
			}
			iter.ReadVal(node)
		default:
			iter.Skip()
		}
	}
	return node
}
