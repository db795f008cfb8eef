// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSoleStmt(t *testing.T) {
	inner := &ExprStmt{X: &Ident{Name: "x"}}
	assert.Same(t, inner, SoleStmt(inner))
	assert.Same(t, inner, SoleStmt(&CompoundStmt{Stmts: []Stmt{&CompoundStmt{Stmts: []Stmt{inner}}}}))

	two := &CompoundStmt{Stmts: []Stmt{inner, inner}}
	assert.Same(t, two, SoleStmt(&CompoundStmt{Stmts: []Stmt{two}}))
}

func TestLoopNest(t *testing.T) {
	body := &ExprStmt{X: &Ident{Name: "x"}}
	k := &ForStmt{Body: body}
	j := &ForStmt{Body: &CompoundStmt{Stmts: []Stmt{k}}}
	i := &ForStmt{Body: j}
	imperfect := &ForStmt{Body: &CompoundStmt{Stmts: []Stmt{body, k}}}

	tests := []struct {
		name string
		loop *ForStmt
		n    int64
		want []*ForStmt
	}{
		{"single", i, 1, []*ForStmt{i}},
		{"two through a block", i, 2, []*ForStmt{i, j}},
		{"three", i, 3, []*ForStmt{i, j, k}},
		{"deeper than the nest", i, 5, []*ForStmt{i, j, k}},
		{"imperfect nest", imperfect, 2, []*ForStmt{imperfect}},
		{"non-positive depth", i, 0, []*ForStmt{i}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LoopNest(tt.loop, tt.n))
		})
	}
}
