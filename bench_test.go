// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package acc2omp

import (
	"runtime"
	"testing"

	"github.com/gogpu/acc2omp/config"
	"github.com/gogpu/acc2omp/diag"
	"github.com/gogpu/acc2omp/sema"
	"github.com/gogpu/acc2omp/transform"
)

// ---------------------------------------------------------------------------
// Benchmark sources at different complexity levels
// ---------------------------------------------------------------------------

// sourceSmall is a single offloaded loop.
const sourceSmall = scaleSource

// sourceMedium nests data regions, gang/vector loops, and a reduction.
const sourceMedium = `void saxpy(int n, float a, float *x, float *y, float *sum) {
    float s = 0;
    #pragma acc data copyin(x[0:n]) copy(y[0:n])
    {
        #pragma acc parallel num_gangs(64) vector_length(128) reduction(+:s)
        {
            #pragma acc loop gang vector
            for (int i = 0; i < n; ++i) {
                y[i] = a * x[i] + y[i];
                s += y[i];
            }
        }
    }
    *sum = s;
}
`

// sourceLarge adds routines, async queues, and unstructured data.
const sourceLarge = `#pragma acc routine seq
float sq(float v) {
    return v * v;
}

#pragma acc routine vector
void row(int m, float *r) {
    #pragma acc loop vector
    for (int j = 0; j < m; ++j)
        r[j] = sq(r[j]);
}

void grid(int n, int m, float *g) {
    #pragma acc enter data copyin(g[0:n * m]) async(1)
    #pragma acc parallel loop gang async(1) wait(1)
    for (int i = 0; i < n; ++i)
        row(m, &g[i * m]);
    #pragma acc update self(g[0:n * m]) async(2) wait(1)
    #pragma acc wait(2)
    #pragma acc exit data delete(g[0:n * m]) finalize
}
`

var sourcesByComplexity = []struct {
	name   string
	source string
}{
	{"small_loop", sourceSmall},
	{"medium_data", sourceMedium},
	{"large_async", sourceLarge},
}

// ---------------------------------------------------------------------------
// End-to-end translation
// ---------------------------------------------------------------------------

// BenchmarkTranslate benchmarks the full pipeline grouped by source
// complexity. Reports allocations and throughput in bytes/sec.
func BenchmarkTranslate(b *testing.B) {
	for _, sc := range sourcesByComplexity {
		b.Run(sc.name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(sc.source)))
			b.ResetTimer()

			var result *Result
			for i := 0; i < b.N; i++ {
				var err error
				result, err = Translate("bench.c", sc.source)
				if err != nil {
					b.Fatalf("translate failed: %v", err)
				}
			}
			runtime.KeepAlive(result)
		})
	}
}

// BenchmarkPrintModes benchmarks printing an already lowered unit in every
// mode.
func BenchmarkPrintModes(b *testing.B) {
	res, err := Translate("bench.c", sourceLarge)
	if err != nil {
		b.Fatalf("translate failed: %v", err)
	}
	for _, mode := range []config.Mode{config.ModeOMP, config.ModeACC, config.ModeACCOMP, config.ModeOMPACC} {
		b.Run(mode.String(), func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()

			var out string
			for i := 0; i < b.N; i++ {
				out, err = Print(res.Unit, mode)
				if err != nil {
					b.Fatalf("print failed: %v", err)
				}
			}
			runtime.KeepAlive(out)
		})
	}
}

// ---------------------------------------------------------------------------
// Per-stage
// ---------------------------------------------------------------------------

// BenchmarkStages times parsing, analysis, and lowering separately.
func BenchmarkStages(b *testing.B) {
	source := sourceLarge
	opts := DefaultOptions()

	b.Run("parse", func(b *testing.B) {
		b.ReportAllocs()
		b.SetBytes(int64(len(source)))
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			eng := diag.NewEngine("bench.c", source, nil, nil)
			if _, err := Parse("bench.c", source, eng); err != nil {
				b.Fatalf("parse failed: %v", err)
			}
		}
	})

	b.Run("analyze", func(b *testing.B) {
		b.ReportAllocs()
		b.SetBytes(int64(len(source)))
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			b.StopTimer()
			eng := diag.NewEngine("bench.c", source, nil, nil)
			unit, err := Parse("bench.c", source, eng)
			if err != nil {
				b.Fatalf("parse failed: %v", err)
			}
			b.StartTimer()
			if _, err := Analyze(unit, eng, nil); err != nil {
				b.Fatalf("analyze failed: %v", err)
			}
		}
	})

	b.Run("lower", func(b *testing.B) {
		b.ReportAllocs()
		b.SetBytes(int64(len(source)))
		b.ResetTimer()
		var info *transform.Info
		for i := 0; i < b.N; i++ {
			b.StopTimer()
			eng := diag.NewEngine("bench.c", source, nil, nil)
			unit, err := Parse("bench.c", source, eng)
			if err != nil {
				b.Fatalf("parse failed: %v", err)
			}
			var analysis *sema.Result
			analysis, err = Analyze(unit, eng, nil)
			if err != nil {
				b.Fatalf("analyze failed: %v", err)
			}
			b.StartTimer()
			info, err = Lower(unit, analysis, eng, opts, nil)
			if err != nil {
				b.Fatalf("lower failed: %v", err)
			}
		}
		runtime.KeepAlive(info)
	})
}

// BenchmarkSaveLoad benchmarks the unit encoding round trip.
func BenchmarkSaveLoad(b *testing.B) {
	res, err := Translate("bench.c", sourceLarge)
	if err != nil {
		b.Fatalf("translate failed: %v", err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		data, err := Save(res.Unit)
		if err != nil {
			b.Fatalf("save failed: %v", err)
		}
		if _, err := Load(data); err != nil {
			b.Fatalf("load failed: %v", err)
		}
	}
}
