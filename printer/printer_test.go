// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package printer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/gogpu/acc2omp/ast"
	"github.com/gogpu/acc2omp/config"
	"github.com/gogpu/acc2omp/diag"
	"github.com/gogpu/acc2omp/parse"
	"github.com/gogpu/acc2omp/sema"
	"github.com/gogpu/acc2omp/transform"
)

// translate runs the full pipeline on src with the default options.
func translate(t *testing.T, src string) *ast.Unit {
	t.Helper()
	return translateWith(t, src, config.DefaultOptions())
}

func translateWith(t *testing.T, src string, opts config.Options) *ast.Unit {
	t.Helper()
	policy, err := opts.Policy()
	require.NoError(t, err)
	log := zaptest.NewLogger(t)
	eng := diag.NewEngine("test.c", src, policy, log)
	u, err := parse.File("test.c", src, eng)
	require.NoError(t, err, eng.Diagnostics().FormatAll())
	res, err := sema.Analyze(u, eng, log)
	require.NoError(t, err, eng.Diagnostics().FormatAll())
	_, err = transform.Lower(u, res, eng, opts, log)
	require.NoError(t, err, eng.Diagnostics().FormatAll())
	return u
}

func render(t *testing.T, u *ast.Unit, mode config.Mode) string {
	t.Helper()
	out, err := Print(u, mode)
	require.NoError(t, err)
	return out
}

const scaleSrc = `void scale(int n, float *x) {
    #pragma acc parallel loop copy(x[0:n])
    for (int i = 0; i < n; ++i)
        x[i] = 2 * x[i];
}
`

func TestPrintModes(t *testing.T) {
	tests := []struct {
		name string
		mode config.Mode
		want string
	}{
		{
			name: "acc",
			mode: config.ModeACC,
			want: scaleSrc,
		},
		{
			name: "omp",
			mode: config.ModeOMP,
			want: `void scale(int n, float *x) {
    #pragma omp target teams map(ompx_hold,tofrom: x[0:n]) firstprivate(n)
    #pragma omp distribute
    for (int i = 0; i < n; ++i)
        x[i] = 2 * x[i];
}
`,
		},
		{
			name: "acc-omp",
			mode: config.ModeACCOMP,
			want: `void scale(int n, float *x) {
    #pragma acc parallel loop copy(x[0:n])
    // #pragma omp target teams map(ompx_hold,tofrom: x[0:n]) firstprivate(n)
    // #pragma omp distribute
    for (int i = 0; i < n; ++i)
        x[i] = 2 * x[i];
}
`,
		},
		{
			name: "omp-acc",
			mode: config.ModeOMPACC,
			want: `void scale(int n, float *x) {
    // #pragma acc parallel loop copy(x[0:n])
    #pragma omp target teams map(ompx_hold,tofrom: x[0:n]) firstprivate(n)
    #pragma omp distribute
    for (int i = 0; i < n; ++i)
        x[i] = 2 * x[i];
}
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := translate(t, scaleSrc)
			assert.Equal(t, tt.want, render(t, u, tt.mode))
		})
	}
}

func TestPrintACCRoundTrip(t *testing.T) {
	src := `struct P {
    int a;
    double w[4];
};

static int counter = 0, *ptr;
int rows[2][4];

#pragma acc routine seq
int twice(int v) {
    return 2 * v;
}

void run(int n, int *a, struct P p) {
    int i;
    float s = 0;
    #pragma acc data copyin(a[0:n]) create(p)
    {
        #pragma acc parallel num_gangs(4) vector_length(32) reduction(+:s)
        {
            #pragma acc loop gang vector
            for (i = 0; i < n; i++) {
                if (a[i] > 0) {
                    s += twice(a[i]);
                } else if (a[i] < 0) {
                    s -= 1;
                } else
                    continue;
            }
        }
    }
    #pragma acc update self(a[0:n]) if_present
    #pragma acc wait(1, 2)
    do {
        n--;
    } while (n > 0 && -(-n) != 0);
}
`
	u := translate(t, src)
	first := render(t, u, config.ModeACC)
	assert.Equal(t, src, first)

	again := translate(t, first)
	assert.Equal(t, first, render(t, again, config.ModeACC))
}

func TestPrintDiscarded(t *testing.T) {
	src := `void f(int n, int *a) {
    int i;
    #pragma acc parallel loop seq
    for (i = 0; i < n; ++i)
        a[i] = i;
}
`
	u := translate(t, src)

	omp := render(t, u, config.ModeOMP)
	assert.Contains(t, omp, "#pragma omp target teams")
	assert.NotContains(t, omp, "distribute")
	// The sequential loop redeclares its outer control variable.
	assert.Contains(t, omp, "        int i;\n        for (i = 0; i < n; ++i)\n")

	ompACC := render(t, u, config.ModeOMPACC)
	assert.Contains(t, ompACC, "// #pragma acc parallel loop seq\n")

	u = translate(t, `void g(int n, int *a) {
    #pragma acc loop
    for (int i = 0; i < n; ++i)
        a[i] = i;
}
`)
	accOMP := render(t, u, config.ModeACCOMP)
	assert.Contains(t, accOMP, "    #pragma acc loop\n    "+discardedNote+"\n    for (int i = 0;")
	assert.Contains(t, render(t, u, config.ModeOMPACC), "    // #pragma acc loop "+discardedNote+"\n")
}

func TestPrintAsyncTokens(t *testing.T) {
	src := `void f(int n, float *x) {
    #pragma acc enter data copyin(x[0:n]) async(2)
    #pragma acc update device(x[0:n]) async(2) wait(1)
    #pragma acc wait(2)
}
`
	u := translate(t, src)
	want := `static char __acc_async_1;
static char __acc_async_2;

void f(int n, float *x) {
    #pragma omp target enter data nowait depend(inout: __acc_async_2) map(to: x[0:n])
    #pragma omp target update nowait depend(inout: __acc_async_2) depend(in: __acc_async_1) to(present: x[0:n])
    #pragma omp taskwait depend(inout: __acc_async_2)
}
`
	assert.Equal(t, want, render(t, u, config.ModeOMP))

	// OpenACC output never declares tokens.
	assert.False(t, strings.HasPrefix(render(t, u, config.ModeACCOMP), "static char"))
}

func TestPrintRoutine(t *testing.T) {
	src := `#pragma acc routine seq
int inc(int v) {
    return v + 1;
}

int dec(int v);
#pragma acc routine(dec) seq
`
	u := translate(t, src)
	want := `#pragma omp declare target
int inc(int v) {
    return v + 1;
}
#pragma omp end declare target

int dec(int v);
#pragma omp declare target to(dec)
`
	assert.Equal(t, want, render(t, u, config.ModeOMP))

	accOMP := render(t, u, config.ModeACCOMP)
	assert.Contains(t, accOMP, "#pragma acc routine seq\n// #pragma omp declare target\nint inc(int v) {")
	assert.Contains(t, accOMP, "}\n// #pragma omp end declare target\n")
	assert.Contains(t, accOMP, "#pragma acc routine(dec) seq\n// #pragma omp declare target to(dec)\n")
}

func TestPrintExitDataFinalize(t *testing.T) {
	u := translate(t, `void f(int n, float *x) {
    #pragma acc exit data copyout(x[0:n]) finalize
}
`)
	out := render(t, u, config.ModeOMP)
	assert.Contains(t, out, "#pragma omp target exit data map(always,from: x[0:n])\n")
	assert.Contains(t, out, "#pragma omp target exit data map(delete: x[0:n])\n")
}

func TestDeclaration(t *testing.T) {
	intT := ast.Builtin(ast.Int)
	rec := &ast.RecordType{Name: "P", Elaborated: true}
	tests := []struct {
		name string
		typ  ast.Type
		id   string
		want string
	}{
		{"scalar", intT, "a", "int a"},
		{"pointer", &ast.PointerType{Elem: intT}, "p", "int *p"},
		{"pointer to pointer", &ast.PointerType{Elem: &ast.PointerType{Elem: intT}}, "pp", "int **pp"},
		{"array", &ast.ArrayType{Elem: intT, Len: 4}, "a", "int a[4]"},
		{"unbounded array", &ast.ArrayType{Elem: intT, Len: -1}, "a", "int a[]"},
		{"matrix", &ast.ArrayType{Elem: &ast.ArrayType{Elem: intT, Len: 3}, Len: 2}, "m", "int m[2][3]"},
		{"pointer to array", &ast.PointerType{Elem: &ast.ArrayType{Elem: intT, Len: 4}}, "q", "int (*q)[4]"},
		{"reference", &ast.ReferenceType{Elem: rec}, "r", "struct P &r"},
		{"abstract pointer", &ast.PointerType{Elem: ast.Builtin(ast.Double)}, "", "double *"},
		{"abstract array", &ast.ArrayType{Elem: intT, Len: 4}, "", "int[4]"},
		{"specialization", &ast.SpecializationType{Name: "S", Args: []ast.Type{intT}}, "", "S<int>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, declaration(tt.typ, tt.id))
		})
	}
}

func TestExpr(t *testing.T) {
	x := &ast.Ident{Name: "x"}
	n := &ast.Ident{Name: "n"}
	tests := []struct {
		name string
		expr ast.Expr
		want string
	}{
		{"section", &ast.SectionExpr{X: x, Lo: &ast.IntLit{Text: "0"}, Len: n}, "x[0:n]"},
		{"open section", &ast.SectionExpr{X: x, Len: n}, "x[:n]"},
		{"double negation", &ast.UnaryExpr{Op: ast.OpNeg, X: &ast.UnaryExpr{Op: ast.OpNeg, X: n}}, "- -n"},
		{"not not", &ast.UnaryExpr{Op: ast.OpNot, X: &ast.UnaryExpr{Op: ast.OpNot, X: n}}, "!!n"},
		{"postfix", &ast.UnaryExpr{Op: ast.OpInc, X: n, Postfix: true}, "n++"},
		{"member", &ast.MemberExpr{X: &ast.MemberExpr{X: x, Name: "p", Arrow: true}, Name: "a"}, "x->p.a"},
		{"cast", &ast.CastExpr{Type: &ast.PointerType{Elem: ast.Builtin(ast.Float)}, X: x}, "(float *)x"},
		{"conditional", &ast.CondExpr{Cond: &ast.BoolLit{Value: true}, Then: x, Else: n}, "true ? x : n"},
		{
			"template call",
			&ast.CallExpr{Fun: &ast.Ident{Name: "f"}, TemplateArgs: []ast.Type{ast.Builtin(ast.Int)}, Args: []ast.Expr{x, n}},
			"f<int>(x, n)",
		},
		{"compound assign", &ast.AssignExpr{Op: ast.OpShlAssign, LHS: x, RHS: &ast.IntLit{Text: "2"}}, "x <<= 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Expr(nil, tt.expr))
		})
	}
}

func TestOMPDirective(t *testing.T) {
	a := &ast.Ident{Name: "a"}
	tests := []struct {
		name string
		dir  *ast.OMPDirective
		want string
	}{
		{
			name: "map modifiers",
			dir: &ast.OMPDirective{Kind: ast.OMPTargetData, Clauses: []*ast.OMPClause{{
				Kind: ast.OMPClauseMap, MapType: ast.MapAlloc,
				Modifiers: []ast.Modifier{ast.ModOMPXHold, ast.ModPresent}, Vars: []ast.Expr{a},
			}}},
			want: "#pragma omp target data map(ompx_hold,present,alloc: a)",
		},
		{
			name: "motion without modifier",
			dir: &ast.OMPDirective{Kind: ast.OMPTargetUpdate, Clauses: []*ast.OMPClause{
				{Kind: ast.OMPClauseFrom, Vars: []ast.Expr{a}},
			}},
			want: "#pragma omp target update from(a)",
		},
		{
			name: "atomic",
			dir:  &ast.OMPDirective{Kind: ast.OMPAtomic, Atomic: ast.AtomicCapture},
			want: "#pragma omp atomic capture",
		},
		{
			name: "reduction and simdlen",
			dir: &ast.OMPDirective{Kind: ast.OMPParallelForSimd, Clauses: []*ast.OMPClause{
				{Kind: ast.OMPClauseReduction, Op: ast.RedMax, Vars: []ast.Expr{a}},
				{Kind: ast.OMPClauseSimdlen, Arg: &ast.IntLit{Text: "8"}},
			}},
			want: "#pragma omp parallel for simd reduction(max: a) simdlen(8)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OMPDirective(nil, tt.dir))
		})
	}
}

func TestPrintUnknownMode(t *testing.T) {
	_, err := Print(ast.NewUnit("x.c", ""), config.Mode(42))
	require.Error(t, err)
	_, err = Print(nil, config.ModeOMP)
	require.Error(t, err)
}
