// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package serial persists translated units as JSON.
//
// The encoding covers the whole unit: the declaration arena, scopes,
// statements, directives with their effect and implementation subtrees,
// provenance, and discard flags. Interface-typed nodes are written as a
// two-field object naming the concrete node:
//
//	{"k":"ForStmt","v":{"Init":...,"Cond":...}}
//
// Nodes shared between the source tree and an implementation subtree are
// written once per reference, so a decoded unit prints identically but does
// not preserve pointer identity.
package serial

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/gogpu/acc2omp/ast"
)

// Format identifies acc2omp unit files.
const Format = "acc2omp-unit"

// Version is bumped whenever the encoding changes incompatibly.
const Version = 1

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type file struct {
	Format  string    `json:"format"`
	Version int       `json:"version"`
	Unit    *ast.Unit `json:"unit"`
}

// Marshal encodes u.
func Marshal(u *ast.Unit) ([]byte, error) {
	if u == nil {
		return nil, fmt.Errorf("serial: nil unit")
	}
	data, err := json.Marshal(&file{Format: Format, Version: Version, Unit: u})
	if err != nil {
		return nil, fmt.Errorf("serial: %w", err)
	}
	return data, nil
}

// MarshalIndent encodes u with two-space indentation.
func MarshalIndent(u *ast.Unit) ([]byte, error) {
	if u == nil {
		return nil, fmt.Errorf("serial: nil unit")
	}
	data, err := json.MarshalIndent(&file{Format: Format, Version: Version, Unit: u}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serial: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a unit written by Marshal.
func Unmarshal(data []byte) (*ast.Unit, error) {
	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("serial: %w", err)
	}
	if f.Format != Format {
		return nil, fmt.Errorf("serial: not a unit file (format %q)", f.Format)
	}
	if f.Version != Version {
		return nil, fmt.Errorf("serial: unsupported version %d (want %d)", f.Version, Version)
	}
	if f.Unit == nil {
		return nil, fmt.Errorf("serial: missing unit")
	}
	if len(f.Unit.Scopes) == 0 {
		return nil, fmt.Errorf("serial: unit has no file scope")
	}
	for i := range f.Unit.Scopes {
		if f.Unit.Scopes[i].Names == nil {
			f.Unit.Scopes[i].Names = make(map[string]ast.DeclHandle)
		}
	}
	return f.Unit, nil
}
