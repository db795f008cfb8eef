// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ast

import "fmt"

// DirectiveKind enumerates OpenACC directives.
type DirectiveKind uint8

const (
	DirParallel DirectiveKind = iota
	DirLoop
	DirParallelLoop
	DirData
	DirEnterData
	DirExitData
	DirAtomic
	DirWait
	DirUpdate
	DirRoutine
)

var directiveSpellings = [...]string{
	DirParallel:     "parallel",
	DirLoop:         "loop",
	DirParallelLoop: "parallel loop",
	DirData:         "data",
	DirEnterData:    "enter data",
	DirExitData:     "exit data",
	DirAtomic:       "atomic",
	DirWait:         "wait",
	DirUpdate:       "update",
	DirRoutine:      "routine",
}

func (k DirectiveKind) String() string {
	if int(k) < len(directiveSpellings) {
		return directiveSpellings[k]
	}
	return fmt.Sprintf("DirectiveKind(%d)", uint8(k))
}

// IsCompute reports whether k launches device execution.
func (k DirectiveKind) IsCompute() bool { return k == DirParallel || k == DirParallelLoop }

// IsLoop reports whether k is associated with a for statement.
func (k DirectiveKind) IsLoop() bool { return k == DirLoop || k == DirParallelLoop }

// IsStandalone reports whether k has no associated statement.
func (k DirectiveKind) IsStandalone() bool {
	switch k {
	case DirEnterData, DirExitData, DirWait, DirUpdate:
		return true
	}
	return false
}

// ClauseKind enumerates OpenACC clauses.
type ClauseKind uint8

const (
	ClauseNumGangs ClauseKind = iota
	ClauseNumWorkers
	ClauseVectorLength
	ClauseGang
	ClauseWorker
	ClauseVector
	ClauseSeq
	ClauseAuto
	ClauseIndependent
	ClauseCollapse
	ClausePrivate
	ClauseFirstPrivate
	ClauseShared
	ClauseCopy
	ClauseCopyIn
	ClauseCopyOut
	ClauseCreate
	ClauseDelete
	ClausePresent
	ClauseNoCreate
	ClauseReduction
	ClauseAsync
	ClauseWait
	ClauseIf
	ClauseIfPresent
	ClauseFinalize
	ClauseDefault
	ClauseSelf
	ClauseHost
	ClauseDevice
)

var clauseSpellings = [...]string{
	ClauseNumGangs:     "num_gangs",
	ClauseNumWorkers:   "num_workers",
	ClauseVectorLength: "vector_length",
	ClauseGang:         "gang",
	ClauseWorker:       "worker",
	ClauseVector:       "vector",
	ClauseSeq:          "seq",
	ClauseAuto:         "auto",
	ClauseIndependent:  "independent",
	ClauseCollapse:     "collapse",
	ClausePrivate:      "private",
	ClauseFirstPrivate: "firstprivate",
	ClauseShared:       "shared",
	ClauseCopy:         "copy",
	ClauseCopyIn:       "copyin",
	ClauseCopyOut:      "copyout",
	ClauseCreate:       "create",
	ClauseDelete:       "delete",
	ClausePresent:      "present",
	ClauseNoCreate:     "no_create",
	ClauseReduction:    "reduction",
	ClauseAsync:        "async",
	ClauseWait:         "wait",
	ClauseIf:           "if",
	ClauseIfPresent:    "if_present",
	ClauseFinalize:     "finalize",
	ClauseDefault:      "default",
	ClauseSelf:         "self",
	ClauseHost:         "host",
	ClauseDevice:       "device",
}

func (k ClauseKind) String() string {
	if int(k) < len(clauseSpellings) {
		return clauseSpellings[k]
	}
	return fmt.Sprintf("ClauseKind(%d)", uint8(k))
}

// IsDataMapping reports whether k moves or allocates device data.
func (k ClauseKind) IsDataMapping() bool {
	switch k {
	case ClauseCopy, ClauseCopyIn, ClauseCopyOut, ClauseCreate, ClauseDelete,
		ClausePresent, ClauseNoCreate:
		return true
	}
	return false
}

// IsDataSharing reports whether k privatizes or reduces a variable.
func (k ClauseKind) IsDataSharing() bool {
	switch k {
	case ClausePrivate, ClauseFirstPrivate, ClauseShared, ClauseReduction:
		return true
	}
	return false
}

// IsMotion reports whether k is an update motion clause.
func (k ClauseKind) IsMotion() bool {
	return k == ClauseSelf || k == ClauseHost || k == ClauseDevice
}

// Level is a parallelism level. The zero value is seq.
type Level uint8

const (
	LevelSeq Level = iota
	LevelVector
	LevelWorker
	LevelGang
)

func (l Level) String() string {
	switch l {
	case LevelSeq:
		return "seq"
	case LevelVector:
		return "vector"
	case LevelWorker:
		return "worker"
	case LevelGang:
		return "gang"
	}
	return fmt.Sprintf("Level(%d)", uint8(l))
}

// Clause returns the clause kind that spells the level.
func (l Level) Clause() ClauseKind {
	switch l {
	case LevelVector:
		return ClauseVector
	case LevelWorker:
		return ClauseWorker
	case LevelGang:
		return ClauseGang
	}
	return ClauseSeq
}

// LevelOf maps a level clause to its level.
func LevelOf(k ClauseKind) (Level, bool) {
	switch k {
	case ClauseSeq:
		return LevelSeq, true
	case ClauseVector:
		return LevelVector, true
	case ClauseWorker:
		return LevelWorker, true
	case ClauseGang:
		return LevelGang, true
	}
	return LevelSeq, false
}

// ReductionOp is a reduction operator.
type ReductionOp uint8

const (
	RedAdd ReductionOp = iota
	RedMul
	RedMax
	RedMin
	RedBitAnd
	RedBitOr
	RedBitXor
	RedLAnd
	RedLOr
)

var reductionSpellings = [...]string{
	RedAdd:    "+",
	RedMul:    "*",
	RedMax:    "max",
	RedMin:    "min",
	RedBitAnd: "&",
	RedBitOr:  "|",
	RedBitXor: "^",
	RedLAnd:   "&&",
	RedLOr:    "||",
}

func (o ReductionOp) String() string {
	if int(o) < len(reductionSpellings) {
		return reductionSpellings[o]
	}
	return fmt.Sprintf("ReductionOp(%d)", uint8(o))
}

// ParseReductionOp maps an operator spelling to its ReductionOp.
func ParseReductionOp(s string) (ReductionOp, bool) {
	for i, sp := range reductionSpellings {
		if sp == s {
			return ReductionOp(i), true
		}
	}
	return RedAdd, false
}

// DefaultKind is the argument of a default clause.
type DefaultKind uint8

const (
	DefaultNone DefaultKind = iota
	DefaultPresent
)

func (d DefaultKind) String() string {
	if d == DefaultPresent {
		return "present"
	}
	return "none"
}

// AtomicKind is the sub-clause of an atomic directive.
type AtomicKind uint8

const (
	AtomicUpdate AtomicKind = iota
	AtomicRead
	AtomicWrite
	AtomicCapture
	AtomicCompare
)

func (k AtomicKind) String() string {
	switch k {
	case AtomicUpdate:
		return "update"
	case AtomicRead:
		return "read"
	case AtomicWrite:
		return "write"
	case AtomicCapture:
		return "capture"
	case AtomicCompare:
		return "compare"
	}
	return fmt.Sprintf("AtomicKind(%d)", uint8(k))
}

// Provenance records where a clause or directive came from.
type Provenance uint8

const (
	ProvExplicit Provenance = iota
	ProvImplicit
	ProvPredetermined
	ProvInherited
)

func (p Provenance) String() string {
	switch p {
	case ProvExplicit:
		return "explicit"
	case ProvImplicit:
		return "implicit"
	case ProvPredetermined:
		return "predetermined"
	case ProvInherited:
		return "inherited"
	}
	return fmt.Sprintf("Provenance(%d)", uint8(p))
}

// ImplKind classifies a directive's implementation subtree.
type ImplKind uint8

const (
	// ImplNone means lowering has not run.
	ImplNone ImplKind = iota
	// ImplExplicit is the translation of a user-written directive.
	ImplExplicit
	// ImplImplicit is the translation of a directive the analyzer created.
	ImplImplicit
	// ImplDiscarded means no OpenMP directive corresponds; Impl may still
	// hold a privatizing rewrite of the associated statement.
	ImplDiscarded
)

func (k ImplKind) String() string {
	switch k {
	case ImplNone:
		return "none"
	case ImplExplicit:
		return "explicit"
	case ImplImplicit:
		return "implicit"
	case ImplDiscarded:
		return "discarded"
	}
	return fmt.Sprintf("ImplKind(%d)", uint8(k))
}

// Clause is an OpenACC clause.
type Clause struct {
	Kind ClauseKind
	// Spelling is the alias the source used (pcopy, present_or_copyin, ...)
	// or "" for the canonical name.
	Spelling   string
	Span       Span
	Provenance Provenance
	Op         ReductionOp
	Vars       []Expr
	// Arg is the single argument of num_gangs, collapse, if, async, ...
	// It is nil for a bare async.
	Arg     Expr
	Args    []Expr
	Default DefaultKind
}

// Name returns the clause name as written.
func (c *Clause) Name() string {
	if c.Spelling != "" {
		return c.Spelling
	}
	return c.Kind.String()
}

// IsImplicit reports whether the analyzer added the clause.
func (c *Clause) IsImplicit() bool { return c.Provenance != ProvExplicit }

// Directive is an OpenACC directive.
type Directive struct {
	Kind    DirectiveKind
	Span    Span
	Clauses []*Clause
	// Stmt is the associated statement of constructs, nil for standalone
	// directives.
	Stmt Stmt
	// Atomic is the atomic sub-clause; AtomicClause records whether it was
	// spelled out.
	Atomic       AtomicKind
	AtomicClause bool
	// WaitArgs are the queue arguments of the wait directive.
	WaitArgs []Expr
	// RoutineName is the name of the routine(name) form.
	RoutineName *Ident
	// Effect is the Parallel directive wrapping a Loop directive that a
	// parallel loop construct desugars to.
	Effect *Directive
	// Impl is the OpenMP implementation subtree.
	Impl          Stmt
	ImplKind      ImplKind
	DiscardReason string
	Provenance    Provenance
}

// Has reports whether any clause of kind k is present.
func (d *Directive) Has(k ClauseKind) bool { return d.Find(k) != nil }

// HasExplicit reports whether an explicit clause of kind k is present.
func (d *Directive) HasExplicit(k ClauseKind) bool {
	for _, c := range d.Clauses {
		if c.Kind == k && c.Provenance == ProvExplicit {
			return true
		}
	}
	return false
}

// Find returns the first clause of kind k, or nil.
func (d *Directive) Find(k ClauseKind) *Clause {
	for _, c := range d.Clauses {
		if c.Kind == k {
			return c
		}
	}
	return nil
}

// All returns every clause of kind k.
func (d *Directive) All(k ClauseKind) []*Clause {
	var out []*Clause
	for _, c := range d.Clauses {
		if c.Kind == k {
			out = append(out, c)
		}
	}
	return out
}

// AddClause appends c.
func (d *Directive) AddClause(c *Clause) { d.Clauses = append(d.Clauses, c) }

// PartitionLevels returns the gang/worker/vector levels of a loop in
// descending order.
func (d *Directive) PartitionLevels() []Level {
	var out []Level
	for _, l := range []Level{LevelGang, LevelWorker, LevelVector} {
		if d.Has(l.Clause()) {
			out = append(out, l)
		}
	}
	return out
}

// IsPartitioned reports whether a loop is split across gangs, workers, or
// vector lanes.
func (d *Directive) IsPartitioned() bool { return len(d.PartitionLevels()) > 0 }

// MaxLevel returns the outermost partitioning level of a loop, or seq.
func (d *Directive) MaxLevel() Level {
	if ls := d.PartitionLevels(); len(ls) > 0 {
		return ls[0]
	}
	return LevelSeq
}

// RoutineLevel returns the level clause of a routine directive.
func (d *Directive) RoutineLevel() (Level, bool) {
	for _, c := range d.Clauses {
		if l, ok := LevelOf(c.Kind); ok {
			return l, true
		}
	}
	return LevelSeq, false
}

// Spelling returns "#pragma acc <kind>".
func (d *Directive) Spelling() string { return "#pragma acc " + d.Kind.String() }
