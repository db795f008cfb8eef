// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package sema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/gogpu/acc2omp/ast"
	"github.com/gogpu/acc2omp/diag"
	"github.com/gogpu/acc2omp/parse"
)

func analyzeWith(t *testing.T, src string, policy *diag.Policy) (*ast.Unit, *Result, *diag.Engine) {
	t.Helper()
	eng := diag.NewEngine("test.c", src, policy, nil)
	u, err := parse.File("test.c", src, eng)
	require.NoError(t, err, eng.Diagnostics().FormatAll())
	res, _ := Analyze(u, eng, zaptest.NewLogger(t))
	require.NotNil(t, res)
	return u, res, eng
}

func analyze(t *testing.T, src string) (*ast.Unit, *Result, *diag.Engine) {
	t.Helper()
	return analyzeWith(t, src, nil)
}

func analyzeOK(t *testing.T, src string) (*ast.Unit, *Result) {
	t.Helper()
	u, res, eng := analyze(t, src)
	require.False(t, eng.HasErrors(), eng.Diagnostics().FormatAll())
	return u, res
}

// function returns the first definition named name.
func function(t *testing.T, u *ast.Unit, name string) (ast.DeclHandle, *ast.FuncDecl) {
	t.Helper()
	for i, d := range u.Decls {
		if f, ok := d.(*ast.FuncDecl); ok && f.Name == name && f.Body != nil && !f.IsInstance() {
			return ast.DeclHandle(i), f
		}
	}
	t.Fatalf("function %s not found", name)
	return ast.InvalidDecl, nil
}

// directivesOf lists the directives of f as the analyzer sees them.
func directivesOf(u *ast.Unit, f *ast.FuncDecl) []*ast.Directive {
	a := &Analyzer{unit: u}
	var out []*ast.Directive
	a.directives(f.Body, nil, func(d *ast.Directive, _ []*ast.Directive) { out = append(out, d) })
	return out
}

// clauseVars returns the variable names of the clauses of kind k with
// provenance prov.
func clauseVars(d *ast.Directive, k ast.ClauseKind, prov ast.Provenance) []string {
	var out []string
	for _, c := range d.Clauses {
		if c.Kind != k || c.Provenance != prov {
			continue
		}
		for _, v := range c.Vars {
			out = append(out, ExprKey(v))
		}
	}
	return out
}

func TestImplicitDataAttributes(t *testing.T) {
	u, _ := analyzeOK(t, `
struct P { int a; int b; };
void f(int n, float *x) {
  int i;
  float s = 0;
  int arr[8];
  struct P p;
#pragma acc parallel loop reduction(+:s)
  for (i = 0; i < n; i++) {
    s += x[i] + arr[i] + p.a;
  }
}
`)
	_, f := function(t, u, "f")
	dirs := directivesOf(u, f)
	require.Len(t, dirs, 2)
	par, loop := dirs[0], dirs[1]
	assert.Equal(t, ast.DirParallel, par.Kind)
	assert.Equal(t, ast.ProvImplicit, par.Provenance)

	assert.Equal(t, []string{"s", "arr", "p"}, clauseVars(par, ast.ClauseCopy, ast.ProvImplicit))
	assert.Equal(t, []string{"n", "x"}, clauseVars(par, ast.ClauseFirstPrivate, ast.ProvImplicit))
	assert.Empty(t, clauseVars(par, ast.ClausePresent, ast.ProvImplicit))

	assert.True(t, loop.Has(ast.ClauseGang))
	assert.False(t, loop.HasExplicit(ast.ClauseGang))
	assert.Equal(t, []string{"i"}, clauseVars(loop, ast.ClausePrivate, ast.ProvPredetermined))
	assert.Equal(t, []string{"n", "x", "arr", "p"}, clauseVars(loop, ast.ClauseShared, ast.ProvImplicit))
}

func TestDataAttributeRules(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		kind   ast.ClauseKind
		want   []string
		absent []ast.ClauseKind
	}{
		{
			name: "default present maps aggregates as present",
			src:  "void f(int n) { int a[4];\n#pragma acc parallel default(present)\n{ a[0] = n; }\n}",
			kind: ast.ClausePresent,
			want: []string{"a"},
		},
		{
			name: "escaping scalar is copied",
			src:  "void f() { int v;\n#pragma acc parallel\n{ int *q = &v; *q = 1; }\n}",
			kind: ast.ClauseCopy,
			want: []string{"v"},
		},
		{
			name:   "claused member covers the member only",
			src:    "struct P { int a; int b; };\nvoid f() { struct P p;\n#pragma acc parallel copy(p.a)\n{ p.a = 1; }\n}",
			absent: []ast.ClauseKind{ast.ClauseCopy, ast.ClauseFirstPrivate},
		},
		{
			name: "other member falls back to the base",
			src:  "struct P { int a; int b; };\nvoid f() { struct P p;\n#pragma acc parallel copy(p.a)\n{ p.a = 1; p.b = 2; }\n}",
			kind: ast.ClauseCopy,
			want: []string{"p"},
		},
		{
			name:   "loop control variable only",
			src:    "void f(int *a) { int i;\n#pragma acc parallel\n{\n#pragma acc loop gang\nfor (i = 0; i < 4; i++) ;\n}\n}",
			absent: []ast.ClauseKind{ast.ClauseFirstPrivate, ast.ClauseCopy},
		},
		{
			name:   "assigned scalar is copied",
			src:    "void f() { int s = 0;\n#pragma acc parallel\n{ s = 5; }\n}",
			kind:   ast.ClauseCopy,
			want:   []string{"s"},
			absent: []ast.ClauseKind{ast.ClauseFirstPrivate},
		},
		{
			name: "compound assigned scalar is copied",
			src:  "void f(int n) { int s = 0;\n#pragma acc parallel\n{ s += n; }\n}",
			kind: ast.ClauseCopy,
			want: []string{"s"},
		},
		{
			name:   "incremented scalar is copied",
			src:    "void f() { int s = 0;\n#pragma acc parallel\n{ s++; --s; }\n}",
			kind:   ast.ClauseCopy,
			want:   []string{"s"},
			absent: []ast.ClauseKind{ast.ClauseFirstPrivate},
		},
		{
			name:   "atomic capture result is copied",
			src:    "void f() { int x = 0; int w;\n#pragma acc parallel\n{\n#pragma acc atomic capture\n{ w = x; ++x; }\n}\n}",
			kind:   ast.ClauseCopy,
			want:   []string{"w", "x"},
			absent: []ast.ClauseKind{ast.ClauseFirstPrivate},
		},
		{
			name:   "store through pointer keeps the pointer firstprivate",
			src:    "void f(int *a) {\n#pragma acc parallel\n{ a[0] = 1; *a = 2; }\n}",
			kind:   ast.ClauseFirstPrivate,
			want:   []string{"a"},
			absent: []ast.ClauseKind{ast.ClauseCopy},
		},
		{
			name:   "sequential loop control variable",
			src:    "void f(int *a) { int i;\n#pragma acc parallel\n{\n#pragma acc loop seq\nfor (i = 0; i < 4; i++) a[i] = 0;\n}\n}",
			kind:   ast.ClauseFirstPrivate,
			want:   []string{"a"},
			absent: []ast.ClauseKind{ast.ClauseCopy},
		},
		{
			name: "explicit clause wins",
			src:  "void f(int n, int *a) {\n#pragma acc parallel copyin(n)\n{ a[0] = n; }\n}",
			kind: ast.ClauseFirstPrivate,
			want: []string{"a"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, _ := analyzeOK(t, tt.src)
			_, f := function(t, u, "f")
			par := directivesOf(u, f)[0]
			if tt.want != nil {
				assert.Equal(t, tt.want, clauseVars(par, tt.kind, ast.ProvImplicit))
			}
			for _, k := range tt.absent {
				assert.Empty(t, clauseVars(par, k, ast.ProvImplicit), k.String())
			}
		})
	}
}

func TestAnalyzerErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "default none",
			src:  "void f(int n, int *a) {\n#pragma acc parallel default(none) copy(a)\n{ a[0] = n; }\n}",
			want: "variable 'n' must have explicit data clause because of 'default(none)'",
		},
		{
			name: "control variable in private clause",
			src:  "void f(int n) { int i;\n#pragma acc parallel loop private(i)\nfor (i = 0; i < n; i++) ;\n}",
			want: "loop control variable 'i' cannot appear in 'private' clause",
		},
		{
			name: "gang inside gang",
			src:  "void f(int n) {\n#pragma acc parallel loop gang\nfor (int i = 0; i < n; i++) {\n#pragma acc loop gang\nfor (int j = 0; j < n; j++) ;\n}\n}",
			want: "loop with 'gang' clause cannot be nested within loop with 'gang' clause",
		},
		{
			name: "bad collapse",
			src:  "void f(int n) {\n#pragma acc parallel loop collapse(2)\nfor (int i = 0; i < n; i++) ;\n}",
			want: "expected 2 nested for loops for 'collapse(2)'",
		},
		{
			name: "bitwise reduction on float",
			src:  "void f(int n) { float v = 0;\n#pragma acc parallel loop reduction(&:v)\nfor (int i = 0; i < n; i++) ;\n}",
			want: "OpenACC reduction operator '&' argument must be of integer type",
		},
		{
			name: "sum reduction on pointer",
			src:  "void f(int n, int *p) {\n#pragma acc parallel loop reduction(+:p)\nfor (int i = 0; i < n; i++) ;\n}",
			want: "OpenACC reduction operator '+' argument must be of arithmetic type",
		},
		{
			name: "logical reduction on struct",
			src:  "struct S { int a; };\nvoid f(int n) { struct S s;\n#pragma acc parallel loop reduction(&&:s)\nfor (int i = 0; i < n; i++) ;\n}",
			want: "OpenACC reduction operator '&&' argument must be of scalar type",
		},
		{
			name: "undeclared variable",
			src:  "void f() { y = 1; g(2); }",
			want: "use of undeclared identifier 'y'",
		},
		{
			name: "static local in gang routine",
			src:  "#pragma acc routine gang\nvoid f(int *a) { static int c; a[0] = c; }",
			want: "static local variable 'c' is not permitted within a function with OpenACC routine 'gang'",
		},
		{
			name: "orphaned gang loop in worker routine",
			src:  "#pragma acc routine worker\nvoid f(int n) {\n#pragma acc loop gang\nfor (int i = 0; i < n; i++) ;\n}",
			want: "loop with 'gang' clause is not permitted within a function with OpenACC routine 'worker'",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, eng := analyze(t, tt.src)
			assert.Equal(t, []string{tt.want}, eng.Diagnostics().Errors().Messages())
		})
	}
}

func TestImplicitGangPlacement(t *testing.T) {
	u, _ := analyzeOK(t, `
void f(int n, int *a) {
#pragma acc parallel
  {
#pragma acc loop
    for (int i = 0; i < n; i++) {
#pragma acc loop
      for (int j = 0; j < n; j++) a[j] = i;
    }
#pragma acc loop
    for (int i = 0; i < n; i++) {
#pragma acc loop gang
      for (int j = 0; j < n; j++) a[j] = i;
    }
  }
}
`)
	_, f := function(t, u, "f")
	dirs := directivesOf(u, f)
	require.Len(t, dirs, 5)
	assert.True(t, dirs[1].Has(ast.ClauseGang), "outer loop")
	assert.False(t, dirs[2].IsPartitioned(), "loop nested in a gang loop")
	assert.False(t, dirs[3].IsPartitioned(), "loop containing an explicit gang loop")
	assert.True(t, dirs[4].HasExplicit(ast.ClauseGang))
}

func TestAtomicShapes(t *testing.T) {
	tests := []struct {
		clause string
		stmt   string
		valid  bool
	}{
		{"read", "v = x;", true},
		{"read", "v = x + 1;", false},
		{"write", "x = v * 2;", true},
		{"update", "x++;", true},
		{"update", "--x;", true},
		{"update", "x += v;", true},
		{"update", "x = x * v;", true},
		{"update", "x = v - x;", true},
		{"update", "x %= 2;", false},
		{"update", "x = v;", false},
		{"capture", "v = x++;", true},
		{"capture", "v = x += 2;", true},
		{"capture", "{ v = x; ++x; }", true},
		{"capture", "{ x -= 1; v = x; }", true},
		{"capture", "{ v = x; ++v; }", false},
		{"compare", "if (x == v) { x = 3; }", true},
		{"compare", "x = x < v ? v : x;", true},
		{"compare", "if (x == v) x = 3; else x = 4;", false},
	}
	for _, tt := range tests {
		t.Run(tt.clause+" "+tt.stmt, func(t *testing.T) {
			src := "void f(int x, int v) {\n#pragma acc atomic " + tt.clause + "\n" + tt.stmt + "\n}"
			_, _, eng := analyze(t, src)
			msgs := eng.Diagnostics().Errors().Messages()
			if tt.valid {
				assert.Empty(t, msgs)
				return
			}
			assert.Equal(t, []string{"statement form is not valid for '#pragma acc atomic " + tt.clause + "'"}, msgs)
		})
	}
}

func TestDesugarSplitsClauses(t *testing.T) {
	gang := &ast.Clause{Kind: ast.ClauseGang}
	copyc := &ast.Clause{Kind: ast.ClauseCopy}
	red := &ast.Clause{Kind: ast.ClauseReduction}
	async := &ast.Clause{Kind: ast.ClauseAsync}
	body := &ast.NullStmt{}
	d := &ast.Directive{Kind: ast.DirParallelLoop, Clauses: []*ast.Clause{gang, copyc, red, async}, Stmt: body}

	eff := Desugar(d)
	assert.Equal(t, ast.DirParallel, eff.Kind)
	assert.Equal(t, []*ast.Clause{copyc, async}, eff.Clauses)
	loop := eff.Stmt.(*ast.AccStmt).Dir
	assert.Equal(t, ast.DirLoop, loop.Kind)
	assert.Equal(t, []*ast.Clause{gang, red}, loop.Clauses)
	assert.Same(t, body, loop.Stmt)
}

func TestConstInt(t *testing.T) {
	tests := []struct {
		expr ast.Expr
		want int64
		ok   bool
	}{
		{&ast.IntLit{Text: "42"}, 42, true},
		{&ast.IntLit{Text: "0x10u"}, 16, true},
		{&ast.UnaryExpr{Op: ast.OpNeg, X: &ast.IntLit{Text: "2"}}, -2, true},
		{&ast.BinaryExpr{Op: ast.OpMul, X: &ast.IntLit{Text: "3"}, Y: &ast.ParenExpr{X: &ast.IntLit{Text: "4"}}}, 12, true},
		{&ast.Ident{Name: "n"}, 0, false},
		{&ast.BinaryExpr{Op: ast.OpDiv, X: &ast.IntLit{Text: "1"}, Y: &ast.IntLit{Text: "0"}}, 0, false},
	}
	for _, tt := range tests {
		t.Run(ExprKey(tt.expr), func(t *testing.T) {
			got, ok := ConstInt(tt.expr)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
