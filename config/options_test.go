// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/acc2omp/diag"
)

func TestDefaultOptions(t *testing.T) {
	o := DefaultOptions()
	assert.True(t, o.OpenACC)
	assert.False(t, o.OpenMP)
	assert.Equal(t, ModeOMP, o.Mode)
	assert.Equal(t, "present", o.Present.String())
	assert.Equal(t, "ompx-no-alloc", o.NoCreate.String())
	assert.Equal(t, "ompx-hold", o.StructuredRefCount.String())
	assert.Equal(t, AsyncNoval, o.DefaultAsync)
	require.NoError(t, o.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr string
	}{
		{"openmp with openacc", func(o *Options) { o.OpenMP = true }, "cannot be combined"},
		{"openmp alone", func(o *Options) { o.OpenMP = true; o.OpenACC = false }, ""},
		{"bad queue", func(o *Options) { o.DefaultAsync = -7 }, "invalid default async queue"},
		{"bad warning", func(o *Options) { o.Warnings = []string{"bogus"} }, "unknown warning option"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultOptions()
			tt.mutate(&o)
			err := o.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseModes(t *testing.T) {
	for _, name := range []string{"acc", "omp", "acc-omp", "omp-acc"} {
		m, err := ParseMode(name)
		require.NoError(t, err)
		assert.Equal(t, name, m.String())
	}
	_, err := ParseMode("cuda")
	assert.Error(t, err)
}

func TestParseYAML(t *testing.T) {
	data := []byte(`
mode: acc-omp
present: alloc
no_create: alloc
update_present: none
structured_ref_count: none
default_async: 3
warnings:
  - error=omp-ext
`)
	o, err := Parse(data)
	require.NoError(t, err)
	assert.True(t, o.OpenACC, "defaults survive")
	assert.Equal(t, ModeACCOMP, o.Mode)
	assert.Equal(t, PresentAlloc, o.Present)
	assert.Equal(t, NoCreateAlloc, o.NoCreate)
	assert.Equal(t, UpdatePresentNone, o.UpdatePresent)
	assert.Equal(t, RefCountNone, o.StructuredRefCount)
	assert.EqualValues(t, 3, o.DefaultAsync)

	p, err := o.Policy()
	require.NoError(t, err)
	assert.Equal(t, diag.Error, p.Severity(diag.FlagOMPMapPresent))
}

func TestParseYAMLRejectsUnknownStrategy(t *testing.T) {
	_, err := Parse([]byte("present: maybe\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown present strategy")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "acc2omp.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: omp-acc\n"), 0o600))

	o, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ModeOMPACC, o.Mode)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}
