// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package ast defines the typed tree shared by every stage of the
// translator.
//
// A translation unit owns two arenas: declarations and scopes. Both are
// addressed by stable integer handles (DeclHandle, ScopeHandle) so that
// passes can keep references across tree rewrites without holding Go
// pointers into a slice that may grow.
//
// The tree has three layers:
//
//   - the base language: a C/C++ subset (records, variables, functions,
//     templates, lambdas, the usual statements and expressions);
//   - OpenACC directives and clauses (Directive, Clause), attached to the
//     tree at statement or declaration position;
//   - OpenMP directives and clauses (OMPDirective, OMPClause), produced by
//     the transform package and hung off each OpenACC directive as its
//     implementation subtree.
//
// Sum types are interfaces with unexported marker methods. Code that
// switches over them must handle every variant or return an error naming
// the unsupported kind.
package ast
