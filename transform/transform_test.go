// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package transform

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/gogpu/acc2omp/ast"
	"github.com/gogpu/acc2omp/config"
	"github.com/gogpu/acc2omp/diag"
	"github.com/gogpu/acc2omp/parse"
	"github.com/gogpu/acc2omp/printer"
	"github.com/gogpu/acc2omp/sema"
)

func lowerWith(t *testing.T, src string, opts config.Options) (*ast.Unit, *Info, *diag.Engine) {
	t.Helper()
	policy, err := opts.Policy()
	require.NoError(t, err)
	log := zaptest.NewLogger(t)
	eng := diag.NewEngine("test.c", src, policy, log)
	u, err := parse.File("test.c", src, eng)
	require.NoError(t, err, eng.Diagnostics().FormatAll())
	res, err := sema.Analyze(u, eng, log)
	require.NoError(t, err, eng.Diagnostics().FormatAll())
	info, err := Lower(u, res, eng, opts, log)
	require.NoError(t, err, eng.Diagnostics().FormatAll())
	return u, info, eng
}

// pragmas lowers src and returns the OpenMP directive lines of the
// translation in order.
func pragmas(t *testing.T, src string, opts config.Options) []string {
	t.Helper()
	u, _, _ := lowerWith(t, src, opts)
	out, err := printer.Print(u, config.ModeOMP)
	require.NoError(t, err)
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#pragma omp ") {
			lines = append(lines, line)
		}
	}
	return lines
}

// directiveName strips the clauses from an OpenMP pragma line.
func directiveName(line string) string {
	var words []string
	for _, w := range strings.Fields(strings.TrimPrefix(line, "#pragma omp ")) {
		if strings.Contains(w, "(") || w == "nowait" {
			break
		}
		words = append(words, w)
	}
	return strings.Join(words, " ")
}

func defaults() config.Options { return config.DefaultOptions() }

func TestComputeClauses(t *testing.T) {
	lines := pragmas(t, `void f(int n, float *x) {
  int p;
#pragma acc parallel num_gangs(4) num_workers(8) if(n > 0) private(p) copyin(x[0:n])
  {
    p = n;
    x[0] = p;
  }
}
`, defaults())
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0],
		"#pragma omp target teams num_teams(4) thread_limit(8) if(n > 0) private(p) map(ompx_hold,to: x[0:n])")
}

func TestLoopPartitioning(t *testing.T) {
	tests := []struct {
		clauses string
		want    string
	}{
		{"", "distribute"},
		{"gang", "distribute"},
		{"worker", "parallel for"},
		{"vector", "simd"},
		{"gang worker", "distribute parallel for"},
		{"gang vector", "distribute simd"},
		{"worker vector", "parallel for simd"},
		{"gang worker vector", "distribute parallel for simd"},
		{"seq", ""},
		{"auto", ""},
	}
	for _, tt := range tests {
		t.Run(tt.clauses, func(t *testing.T) {
			src := fmt.Sprintf(`void f(int n, float *x) {
#pragma acc parallel
  {
#pragma acc loop %s
    for (int i = 0; i < n; ++i)
      x[i] = 0;
  }
}
`, tt.clauses)
			lines := pragmas(t, src, defaults())
			require.NotEmpty(t, lines)
			assert.Equal(t, "target teams", directiveName(lines[0]))
			if tt.want == "" {
				assert.Len(t, lines, 1)
				return
			}
			require.Len(t, lines, 2)
			assert.Equal(t, tt.want, directiveName(lines[1]))
		})
	}
}

func TestLoopPrivateClauses(t *testing.T) {
	lines := pragmas(t, `void f(int n, float *x) {
  int i;
  float tmp;
#pragma acc parallel loop gang worker private(tmp)
  for (i = 0; i < n; ++i) {
    tmp = x[i];
    x[i] = tmp * tmp;
  }
}
`, defaults())
	require.Len(t, lines, 2)
	// The outer control variable joins the explicit private clause.
	assert.Contains(t, lines[1], "distribute parallel for private(tmp, i)")
	assert.NotContains(t, lines[0], "i)")
}

func TestLoopControlVariablePrivate(t *testing.T) {
	tests := []struct {
		name    string
		clauses string
		init    string
		want    string
	}{
		{"gang outer variable", "gang", "i = 0", "#pragma omp distribute private(i)"},
		{"implicit gang outer variable", "", "i = 0", "#pragma omp distribute private(i)"},
		{"vector outer variable", "vector", "i = 0", "#pragma omp simd private(i)"},
		{"declared in init", "gang", "int i = 0", "#pragma omp distribute"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := fmt.Sprintf(`void f(int n, float *x) {
  int i;
#pragma acc parallel
  {
#pragma acc loop %s
    for (%s; i < n; ++i)
      x[i] = 0;
  }
}
`, tt.clauses, tt.init)
			lines := pragmas(t, src, defaults())
			require.Len(t, lines, 2)
			assert.Equal(t, tt.want, lines[1])
			assert.NotContains(t, lines[0], "(i")
		})
	}
}

func TestCollapsedControlVariablesPrivate(t *testing.T) {
	lines := pragmas(t, `void f(int n, float *x) {
  int i, j;
#pragma acc parallel loop gang collapse(2)
  for (i = 0; i < n; ++i)
    for (j = 0; j < n; ++j)
      x[i * n + j] = 0;
}
`, defaults())
	require.Len(t, lines, 2)
	assert.Equal(t, "#pragma omp distribute collapse(2) private(i, j)", lines[1])
}

func TestGangReductions(t *testing.T) {
	tests := []struct {
		name     string
		clauses  string
		loop     string
		teamsRed int
		loopRed  bool
	}{
		{"gang only moves to teams", "gang reduction(+:s)", "distribute", 1, false},
		{"gang vector is on both", "gang vector reduction(+:s)", "distribute simd", 1, true},
		{"worker stays on the loop", "worker reduction(+:s)", "parallel for", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := fmt.Sprintf(`void f(int n, float *x) {
  float s = 0;
#pragma acc parallel
  {
#pragma acc loop %s
    for (int i = 0; i < n; ++i)
      s += x[i];
  }
}
`, tt.clauses)
			lines := pragmas(t, src, defaults())
			require.Len(t, lines, 2)
			assert.Equal(t, tt.teamsRed, strings.Count(lines[0], "reduction(+: s)"))
			assert.Equal(t, tt.loop, directiveName(lines[1]))
			assert.Equal(t, tt.loopRed, strings.Contains(lines[1], "reduction(+: s)"))
		})
	}
}

func TestReductionDeduplication(t *testing.T) {
	lines := pragmas(t, `void f(int n, float *x) {
  float s = 0;
#pragma acc parallel reduction(+:s)
  {
#pragma acc loop gang reduction(+:s)
    for (int i = 0; i < n; ++i)
      s += x[i];
  }
}
`, defaults())
	require.Len(t, lines, 2)
	assert.Equal(t, 1, strings.Count(lines[0], "reduction(+: s)"))
}

func TestSimdlen(t *testing.T) {
	lines := pragmas(t, `void f(int n, float *x) {
#pragma acc parallel vector_length(8)
  {
#pragma acc loop gang vector
    for (int i = 0; i < n; ++i)
      x[i] = 0;
  }
}
`, defaults())
	require.Len(t, lines, 2)
	assert.Equal(t, "#pragma omp distribute simd simdlen(8)", lines[1])

	lines = pragmas(t, `void f(int n, float *x) {
#pragma acc parallel vector_length(n)
  {
#pragma acc loop gang vector
    for (int i = 0; i < n; ++i)
      x[i] = 0;
  }
}
`, defaults())
	require.Len(t, lines, 2)
	assert.NotContains(t, lines[1], "simdlen")
}

func TestDataMapping(t *testing.T) {
	noHold := defaults()
	noHold.StructuredRefCount = config.RefCountNone
	plain := noHold
	plain.Present = config.PresentAlloc
	plain.NoCreate = config.NoCreateAlloc

	tests := []struct {
		name    string
		clauses string
		opts    config.Options
		want    string
	}{
		{"copy", "copy(x[0:n])", defaults(), "map(ompx_hold,tofrom: x[0:n])"},
		{"copyin without hold", "copyin(x[0:n])", noHold, "map(to: x[0:n])"},
		{"copyout", "copyout(x[0:n])", noHold, "map(from: x[0:n])"},
		{"create", "create(x[0:n])", defaults(), "map(ompx_hold,alloc: x[0:n])"},
		{"present", "present(x[0:n])", defaults(), "map(ompx_hold,present,alloc: x[0:n])"},
		{"present as alloc", "present(x[0:n])", plain, "map(alloc: x[0:n])"},
		{"no_create", "no_create(x[0:n])", defaults(), "map(ompx_hold,ompx_no_alloc,alloc: x[0:n])"},
		{"no_create as alloc", "no_create(x[0:n])", plain, "map(alloc: x[0:n])"},
		{"if", "if(n > 0) copy(x[0:n])", noHold, "if(n > 0) map(tofrom: x[0:n])"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := fmt.Sprintf("void f(int n, float *x) {\n#pragma acc data %s\n  {\n    x[0] = 1;\n  }\n}\n", tt.clauses)
			lines := pragmas(t, src, tt.opts)
			require.Len(t, lines, 1)
			assert.Equal(t, "#pragma omp target data "+tt.want, lines[0])
		})
	}
}

func TestExtensionWarnings(t *testing.T) {
	opts := defaults()
	opts.Warnings = []string{"omp-ext"}
	_, _, eng := lowerWith(t, "void f(int n, float *x) {\n#pragma acc data present(x[0:n])\n  {\n  }\n}\n", opts)

	flags := map[string]bool{}
	for _, d := range eng.Diagnostics() {
		flags[d.Flag] = true
	}
	assert.True(t, flags[diag.FlagOMPMapPresent])
	assert.True(t, flags[diag.FlagOMPMapOMPXHold])
	assert.False(t, eng.HasErrors())
}

func TestUnstructuredData(t *testing.T) {
	tests := []struct {
		name string
		dir  string
		want []string
	}{
		{"enter", "enter data copyin(x[0:n]) create(y)", []string{
			"#pragma omp target enter data map(to: x[0:n]) map(alloc: y)",
		}},
		{"exit", "exit data copyout(x[0:n]) delete(y)", []string{
			"#pragma omp target exit data map(from: x[0:n]) map(release: y)",
		}},
		{"exit finalize", "exit data copyout(x[0:n]) delete(y) finalize", []string{
			"#pragma omp target exit data map(always,from: x[0:n]) map(delete: y)",
			"#pragma omp target exit data map(delete: x[0:n])",
		}},
		{"exit if", "exit data delete(y) if(n > 1)", []string{
			"#pragma omp target exit data if(n > 1) map(release: y)",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := fmt.Sprintf("void f(int n, float *x) {\n  int y;\n#pragma acc %s\n}\n", tt.dir)
			assert.Equal(t, tt.want, pragmas(t, src, defaults()))
		})
	}
}

func TestUpdate(t *testing.T) {
	noPresent := defaults()
	noPresent.UpdatePresent = config.UpdatePresentNone
	tests := []struct {
		name string
		dir  string
		opts config.Options
		want string
	}{
		{"self", "update self(x[0:n])", defaults(), "#pragma omp target update from(present: x[0:n])"},
		{"host if_present", "update host(x[0:n]) if_present", defaults(), "#pragma omp target update from(x[0:n])"},
		{"device without modifier", "update device(x[0:n])", noPresent, "#pragma omp target update to(x[0:n])"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := fmt.Sprintf("void f(int n, float *x) {\n#pragma acc %s\n}\n", tt.dir)
			assert.Equal(t, []string{tt.want}, pragmas(t, src, tt.opts))
		})
	}
}

func TestAsyncQueues(t *testing.T) {
	u, info, _ := lowerWith(t, `void f(int n, float *x) {
  acc_set_default_async(3);
#pragma acc update device(x[0:n]) async
#pragma acc update device(x[0:n]) async(acc_async_sync)
#pragma acc update device(x[0:n]) async(acc_async_noval)
#pragma acc update device(x[0:n]) async(n)
#pragma acc update device(x[0:n]) wait
#pragma acc wait(3)
}
`, defaults())
	out, err := printer.Print(u, config.ModeOMP)
	require.NoError(t, err)
	assert.Equal(t, []string{"__acc_async_sync", "__acc_async_3"}, u.AsyncTokens)
	assert.Equal(t, []string{"__acc_async_sync", "__acc_async_3"}, info.Async.Tokens())
	for _, want := range []string{
		"#pragma omp target update nowait depend(inout: __acc_async_3) to(present: x[0:n])\n",
		"#pragma omp target update depend(inout: __acc_async_sync) to(present: x[0:n])\n",
		"#pragma omp target update to(present: x[0:n])\n",
		"#pragma omp taskwait\n    #pragma omp target update to(present: x[0:n])\n",
		"#pragma omp taskwait depend(inout: __acc_async_3)\n",
	} {
		assert.Contains(t, out, want)
	}
	assert.Equal(t, 2, strings.Count(out, "nowait depend(inout: __acc_async_3)"))
}

func TestUnknownDefaultQueue(t *testing.T) {
	lines := pragmas(t, `void f(int n, int q, float *x) {
  acc_set_default_async(q);
#pragma acc update device(x[0:n]) async
#pragma acc update device(x[0:n]) async(1)
}
`, defaults())
	assert.Equal(t, []string{
		"#pragma omp target update to(present: x[0:n])",
		"#pragma omp target update nowait depend(inout: __acc_async_1) to(present: x[0:n])",
	}, lines)
}

func TestOrphanedLoops(t *testing.T) {
	lines := pragmas(t, `#pragma acc routine gang
void g(int n, float *x) {
#pragma acc loop gang worker
  for (int i = 0; i < n; ++i)
    x[i] = 0;
}
`, defaults())
	require.Len(t, lines, 3)
	assert.Equal(t, "#pragma omp declare target", lines[0])
	assert.Equal(t, "parallel for", directiveName(lines[1]))
	assert.Equal(t, "#pragma omp end declare target", lines[2])

	u, info, _ := lowerWith(t, `void h(int n, float *x) {
  int i;
#pragma acc loop gang
  for (i = 0; i < n; ++i)
    x[i] = 0;
}
`, defaults())
	require.Len(t, info.Discarded, 1)
	d := info.Discarded[0]
	assert.Equal(t, ast.ImplDiscarded, d.ImplKind)
	assert.Equal(t, "orphaned loop in host code runs sequentially", d.DiscardReason)

	// The sequential copy declares its own control variable.
	blk, ok := d.Impl.(*ast.CompoundStmt)
	require.True(t, ok)
	require.Len(t, blk.Stmts, 2)
	decl := blk.Stmts[0].(*ast.DeclStmt)
	require.Len(t, decl.Decls, 1)
	shadow := decl.Decls[0]
	loop := blk.Stmts[1].(*ast.ForStmt)
	assign := loop.Init.(*ast.ExprStmt).X.(*ast.AssignExpr)
	assert.Equal(t, shadow, assign.LHS.(*ast.Ident).Decl)
	assert.NotEqual(t, shadow, d.Stmt.(*ast.ForStmt).Init.(*ast.ExprStmt).X.(*ast.AssignExpr).LHS.(*ast.Ident).Decl)
	assert.Equal(t, "i", u.Var(shadow).Name)
}

func TestAtomic(t *testing.T) {
	lines := pragmas(t, `void f(int n, int *x) {
#pragma acc parallel
  {
#pragma acc atomic capture
    n = x[0]++;
#pragma acc atomic
    x[1] += 2;
  }
}
`, defaults())
	require.Len(t, lines, 3)
	assert.Equal(t, "#pragma omp atomic capture", lines[1])
	assert.Equal(t, "#pragma omp atomic update", lines[2])
}

func TestRoutineDirectives(t *testing.T) {
	u, info, _ := lowerWith(t, `int sq(int v);
#pragma acc routine(sq) seq

void h(int n, int *a) {
#pragma acc routine seq
  int k(int);
#pragma acc parallel loop
  for (int i = 0; i < n; ++i)
    a[i] = sq(a[i]) + k(i);
}
`, defaults())
	var reasons []string
	for _, d := range info.Discarded {
		reasons = append(reasons, d.DiscardReason)
	}
	assert.Contains(t, reasons, "declare target is not permitted at block scope")

	named := u.Decl(u.Items[1]).(*ast.DirectiveDecl)
	require.Equal(t, ast.ImplExplicit, named.Dir.ImplKind)
	s := named.Dir.Impl.(*ast.OMPStmt)
	assert.Equal(t, "#pragma omp declare target to(sq)", printer.OMPDirective(u, s.Dir))
}

func TestLowerRejectsBadInput(t *testing.T) {
	eng := diag.NewEngine("x.c", "", nil, nil)
	_, err := Lower(nil, nil, eng, defaults(), nil)
	require.Error(t, err)

	opts := defaults()
	opts.OpenMP = true
	_, err = Lower(ast.NewUnit("x.c", ""), &sema.Result{}, eng, opts, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transform")
}
