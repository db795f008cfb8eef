// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ast

import "fmt"

// OMPDirectiveKind enumerates the OpenMP directives lowering produces.
type OMPDirectiveKind uint8

const (
	OMPTargetTeams OMPDirectiveKind = iota
	OMPDistribute
	OMPParallelFor
	OMPSimd
	OMPDistributeParallelFor
	OMPDistributeSimd
	OMPParallelForSimd
	OMPDistributeParallelForSimd
	OMPTargetData
	OMPTargetEnterData
	OMPTargetExitData
	OMPTargetUpdate
	OMPTaskwait
	OMPAtomic
	OMPDeclareTarget
	OMPDeclareTargetTo
)

var ompDirectiveSpellings = [...]string{
	OMPTargetTeams:               "target teams",
	OMPDistribute:                "distribute",
	OMPParallelFor:               "parallel for",
	OMPSimd:                      "simd",
	OMPDistributeParallelFor:     "distribute parallel for",
	OMPDistributeSimd:            "distribute simd",
	OMPParallelForSimd:           "parallel for simd",
	OMPDistributeParallelForSimd: "distribute parallel for simd",
	OMPTargetData:                "target data",
	OMPTargetEnterData:           "target enter data",
	OMPTargetExitData:            "target exit data",
	OMPTargetUpdate:              "target update",
	OMPTaskwait:                  "taskwait",
	OMPAtomic:                    "atomic",
	OMPDeclareTarget:             "declare target",
	OMPDeclareTargetTo:           "declare target",
}

func (k OMPDirectiveKind) String() string {
	if int(k) < len(ompDirectiveSpellings) {
		return ompDirectiveSpellings[k]
	}
	return fmt.Sprintf("OMPDirectiveKind(%d)", uint8(k))
}

// HasParallelFor reports whether the directive creates a thread team over
// a worksharing loop, which is where shared clauses are accepted.
func (k OMPDirectiveKind) HasParallelFor() bool {
	switch k {
	case OMPParallelFor, OMPDistributeParallelFor, OMPParallelForSimd,
		OMPDistributeParallelForSimd:
		return true
	}
	return false
}

// HasSimd reports whether the directive vectorizes its loop.
func (k OMPDirectiveKind) HasSimd() bool {
	switch k {
	case OMPSimd, OMPDistributeSimd, OMPParallelForSimd, OMPDistributeParallelForSimd:
		return true
	}
	return false
}

// IsDistributeOnly reports whether the directive only splits iterations
// across teams.
func (k OMPDirectiveKind) IsDistributeOnly() bool { return k == OMPDistribute }

// OMPClauseKind enumerates OpenMP clauses.
type OMPClauseKind uint8

const (
	OMPClauseNumTeams OMPClauseKind = iota
	OMPClauseThreadLimit
	OMPClauseNumThreads
	OMPClauseSimdlen
	OMPClauseCollapse
	OMPClausePrivate
	OMPClauseFirstPrivate
	OMPClauseShared
	OMPClauseReduction
	OMPClauseMap
	OMPClauseTo
	OMPClauseFrom
	OMPClauseIf
	OMPClauseNowait
	OMPClauseDepend
)

var ompClauseSpellings = [...]string{
	OMPClauseNumTeams:     "num_teams",
	OMPClauseThreadLimit:  "thread_limit",
	OMPClauseNumThreads:   "num_threads",
	OMPClauseSimdlen:      "simdlen",
	OMPClauseCollapse:     "collapse",
	OMPClausePrivate:      "private",
	OMPClauseFirstPrivate: "firstprivate",
	OMPClauseShared:       "shared",
	OMPClauseReduction:    "reduction",
	OMPClauseMap:          "map",
	OMPClauseTo:           "to",
	OMPClauseFrom:         "from",
	OMPClauseIf:           "if",
	OMPClauseNowait:       "nowait",
	OMPClauseDepend:       "depend",
}

func (k OMPClauseKind) String() string {
	if int(k) < len(ompClauseSpellings) {
		return ompClauseSpellings[k]
	}
	return fmt.Sprintf("OMPClauseKind(%d)", uint8(k))
}

// MapType is the map-type of a map clause.
type MapType uint8

const (
	MapAlloc MapType = iota
	MapTo
	MapFrom
	MapToFrom
	MapRelease
	MapDelete
)

func (m MapType) String() string {
	switch m {
	case MapAlloc:
		return "alloc"
	case MapTo:
		return "to"
	case MapFrom:
		return "from"
	case MapToFrom:
		return "tofrom"
	case MapRelease:
		return "release"
	case MapDelete:
		return "delete"
	}
	return fmt.Sprintf("MapType(%d)", uint8(m))
}

// Modifier is a map-type or motion modifier.
type Modifier uint8

const (
	ModAlways Modifier = iota
	ModPresent
	ModOMPXHold
	ModOMPXNoAlloc
)

func (m Modifier) String() string {
	switch m {
	case ModAlways:
		return "always"
	case ModPresent:
		return "present"
	case ModOMPXHold:
		return "ompx_hold"
	case ModOMPXNoAlloc:
		return "ompx_no_alloc"
	}
	return fmt.Sprintf("Modifier(%d)", uint8(m))
}

// DependType is the dependence type of a depend clause.
type DependType uint8

const (
	DependIn DependType = iota
	DependOut
	DependInOut
)

func (d DependType) String() string {
	switch d {
	case DependIn:
		return "in"
	case DependOut:
		return "out"
	case DependInOut:
		return "inout"
	}
	return fmt.Sprintf("DependType(%d)", uint8(d))
}

// OMPClause is an OpenMP clause.
type OMPClause struct {
	Kind      OMPClauseKind
	MapType   MapType
	Modifiers []Modifier
	Op        ReductionOp
	Vars      []Expr
	Arg       Expr
	Depend    DependType
	// Implicit marks clauses that come from implicit OpenACC clauses.
	Implicit bool
}

// OMPDirective is an OpenMP directive. Stmt is the associated statement of
// constructs and nil for standalone directives and declare target.
type OMPDirective struct {
	Kind    OMPDirectiveKind
	Clauses []*OMPClause
	Stmt    Stmt
	Atomic  AtomicKind
}

// Find returns the first clause of kind k, or nil.
func (d *OMPDirective) Find(k OMPClauseKind) *OMPClause {
	for _, c := range d.Clauses {
		if c.Kind == k {
			return c
		}
	}
	return nil
}

// AddClause appends c.
func (d *OMPDirective) AddClause(c *OMPClause) { d.Clauses = append(d.Clauses, c) }
