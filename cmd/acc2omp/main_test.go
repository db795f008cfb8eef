// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/gogpu/acc2omp"
)

const scaleSource = `void scale(int n, float *x) {
    #pragma acc parallel loop copy(x[0:n])
    for (int i = 0; i < n; ++i)
        x[i] = 2 * x[i];
}
`

func writeInput(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

// run executes the CLI without exiting the test binary.
func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp(&out, &errOut)
	app.ExitErrHandler = func(*cli.Context, error) {}
	err = app.Run(append([]string{"acc2omp"}, args...))
	return out.String(), errOut.String(), err
}

func exitCode(err error) int {
	if ec, ok := err.(cli.ExitCoder); ok {
		return ec.ExitCode()
	}
	if err != nil {
		return 1
	}
	return 0
}

func TestModes(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "scale.c", scaleSource)

	tests := []struct {
		mode string
		want string
	}{
		{"omp", "    #pragma omp distribute\n"},
		{"acc", scaleSource},
		{"acc-omp", "    // #pragma omp distribute\n"},
		{"omp-acc", "    // #pragma acc parallel loop copy(x[0:n])\n"},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			out, stderr, err := run(t, "--mode", tt.mode, in)
			require.NoError(t, err, stderr)
			assert.Contains(t, out, tt.want)
			assert.Empty(t, stderr)
		})
	}
}

func TestStrategyFlags(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "scale.c", scaleSource)

	out, _, err := run(t, "--structured-ref-count", "none", in)
	require.NoError(t, err)
	assert.Contains(t, out, "map(tofrom: x[0:n])")

	_, _, err = run(t, "--present", "maybe", in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--present")
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "scale.c", scaleSource)
	cfg := writeInput(t, dir, "acc2omp.yaml", "mode: acc-omp\nstructured_ref_count: none\n")

	out, _, err := run(t, "--config", cfg, in)
	require.NoError(t, err)
	assert.Contains(t, out, "// #pragma omp target teams map(tofrom: x[0:n])")

	// Flags win over the file.
	out, _, err = run(t, "--config", cfg, "--mode", "omp", in)
	require.NoError(t, err)
	assert.Contains(t, out, "#pragma omp target teams map(tofrom: x[0:n])")
	assert.NotContains(t, out, "#pragma acc")
}

func TestWarningsAndErrors(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "scale.c", scaleSource)

	out, stderr, err := run(t, "-W", "omp-ext", in)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	assert.Contains(t, stderr, "warning: ")
	assert.Contains(t, stderr, "[-Womp-map-ompx-hold]")
	assert.Contains(t, stderr, "--> "+in+":2:")

	out, stderr, err = run(t, "-W", "error=omp-ext", in)
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
	assert.Empty(t, out)
	assert.Contains(t, stderr, "error: ")

	bad := writeInput(t, dir, "bad.c", "void f(int n) {\n    n = ;\n}\n")
	out, stderr, err = run(t, in, bad)
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
	assert.Contains(t, err.Error(), "1 of 2 files failed")
	// The good file is still written.
	assert.Contains(t, out, "#pragma omp distribute")
	assert.Contains(t, stderr, "bad.c:2:")
}

func TestOutputDirectory(t *testing.T) {
	dir := t.TempDir()
	a := writeInput(t, dir, "a.c", scaleSource)
	b := writeInput(t, dir, "b.c", "void empty(void) {\n}\n")
	outDir := filepath.Join(dir, "out")

	out, _, err := run(t, "-o", outDir, "--emit-json", "-j", "2", a, b)
	require.NoError(t, err)
	assert.Empty(t, out)

	got, err := os.ReadFile(filepath.Join(outDir, "a.c"))
	require.NoError(t, err)
	assert.Contains(t, string(got), "#pragma omp target teams")

	got, err = os.ReadFile(filepath.Join(outDir, "b.c"))
	require.NoError(t, err)
	assert.Equal(t, "void empty(void) {\n}\n", string(got))

	data, err := os.ReadFile(filepath.Join(outDir, "a.c.json"))
	require.NoError(t, err)
	unit, err := acc2omp.Load(data)
	require.NoError(t, err)
	printed, err := acc2omp.Print(unit, acc2omp.DefaultOptions().Mode)
	require.NoError(t, err)
	assert.Contains(t, printed, "#pragma omp target teams")
}

func TestOutputNameCollision(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "a"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "b"), 0o755))
	first := writeInput(t, dir, filepath.Join("a", "scale.c"), scaleSource)
	second := writeInput(t, dir, filepath.Join("b", "scale.c"), scaleSource)
	outDir := filepath.Join(dir, "out")

	_, _, err := run(t, "-o", outDir, first, second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "would both be written to scale.c")
	_, statErr := os.Stat(outDir)
	assert.True(t, os.IsNotExist(statErr), "nothing is written")

	// Standard output has no such conflict.
	out, _, err := run(t, first, second)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "#pragma omp distribute\n"))
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no inputs", nil, "no input files"},
		{"json without output", []string{"--emit-json", "x.c"}, "--emit-json requires --output"},
		{"missing file", []string{filepath.Join(t.TempDir(), "nope.c")}, "read "},
		{"unknown warning", []string{"-W", "bogus", "x.c"}, "unknown warning option"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
