// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package config holds translation options and their file format.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/acc2omp/diag"
)

// Async queue pseudo-values from openacc.h.
const (
	AsyncSync  int64 = -2
	AsyncNoval int64 = -1
)

// Mode selects what the printer emits.
type Mode uint8

const (
	// ModeOMP prints the OpenMP translation only.
	ModeOMP Mode = iota
	// ModeACC prints the OpenACC source only.
	ModeACC
	// ModeACCOMP prints OpenACC with the OpenMP translation in comments.
	ModeACCOMP
	// ModeOMPACC prints OpenMP with the OpenACC source in comments.
	ModeOMPACC
)

var modeNames = []string{"omp", "acc", "acc-omp", "omp-acc"}

func (m Mode) String() string { return enumName(modeNames, int(m)) }

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	i, err := enumValue("print mode", modeNames, s)
	return Mode(i), err
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *Mode) UnmarshalYAML(n *yaml.Node) error { return decodeEnum(n, (*uint8)(m), "print mode", modeNames) }

// PresentStrategy selects the translation of the present clause.
type PresentStrategy uint8

const (
	PresentModifier PresentStrategy = iota
	PresentAlloc
)

var presentNames = []string{"present", "alloc"}

func (s PresentStrategy) String() string { return enumName(presentNames, int(s)) }

// ParsePresentStrategy parses a present strategy name.
func ParsePresentStrategy(s string) (PresentStrategy, error) {
	i, err := enumValue("present strategy", presentNames, s)
	return PresentStrategy(i), err
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *PresentStrategy) UnmarshalYAML(n *yaml.Node) error {
	return decodeEnum(n, (*uint8)(s), "present strategy", presentNames)
}

// NoCreateStrategy selects the translation of the no_create clause.
type NoCreateStrategy uint8

const (
	NoCreateNoAlloc NoCreateStrategy = iota
	NoCreateAlloc
)

var noCreateNames = []string{"ompx-no-alloc", "alloc"}

func (s NoCreateStrategy) String() string { return enumName(noCreateNames, int(s)) }

// ParseNoCreateStrategy parses a no_create strategy name.
func ParseNoCreateStrategy(s string) (NoCreateStrategy, error) {
	i, err := enumValue("no_create strategy", noCreateNames, s)
	return NoCreateStrategy(i), err
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *NoCreateStrategy) UnmarshalYAML(n *yaml.Node) error {
	return decodeEnum(n, (*uint8)(s), "no_create strategy", noCreateNames)
}

// UpdatePresentStrategy selects whether update motion clauses carry the
// present modifier.
type UpdatePresentStrategy uint8

const (
	UpdatePresentModifier UpdatePresentStrategy = iota
	UpdatePresentNone
)

var updatePresentNames = []string{"present", "none"}

func (s UpdatePresentStrategy) String() string { return enumName(updatePresentNames, int(s)) }

// ParseUpdatePresentStrategy parses an update strategy name.
func ParseUpdatePresentStrategy(s string) (UpdatePresentStrategy, error) {
	i, err := enumValue("update present strategy", updatePresentNames, s)
	return UpdatePresentStrategy(i), err
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *UpdatePresentStrategy) UnmarshalYAML(n *yaml.Node) error {
	return decodeEnum(n, (*uint8)(s), "update present strategy", updatePresentNames)
}

// RefCountStrategy selects how the structured reference count is kept.
type RefCountStrategy uint8

const (
	RefCountHold RefCountStrategy = iota
	RefCountNone
)

var refCountNames = []string{"ompx-hold", "none"}

func (s RefCountStrategy) String() string { return enumName(refCountNames, int(s)) }

// ParseRefCountStrategy parses a structured reference count strategy name.
func ParseRefCountStrategy(s string) (RefCountStrategy, error) {
	i, err := enumValue("structured reference count strategy", refCountNames, s)
	return RefCountStrategy(i), err
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *RefCountStrategy) UnmarshalYAML(n *yaml.Node) error {
	return decodeEnum(n, (*uint8)(s), "structured reference count strategy", refCountNames)
}

// Options configures a translation.
type Options struct {
	// OpenACC enables OpenACC directive processing.
	OpenACC bool `yaml:"openacc"`
	// OpenMP enables OpenMP directives in the source. It cannot be combined
	// with OpenACC translation.
	OpenMP bool `yaml:"openmp"`

	Mode               Mode                  `yaml:"mode"`
	Present            PresentStrategy       `yaml:"present"`
	NoCreate           NoCreateStrategy      `yaml:"no_create"`
	UpdatePresent      UpdatePresentStrategy `yaml:"update_present"`
	StructuredRefCount RefCountStrategy      `yaml:"structured_ref_count"`

	// DefaultAsync is the queue a bare async clause uses until the program
	// calls acc_set_default_async.
	DefaultAsync int64 `yaml:"default_async"`

	// Warnings are warning controls ("no-omp-ext", "error=acc-discard").
	Warnings []string `yaml:"warnings"`
}

// DefaultOptions returns the default options.
func DefaultOptions() Options {
	return Options{
		OpenACC:            true,
		Mode:               ModeOMP,
		Present:            PresentModifier,
		NoCreate:           NoCreateNoAlloc,
		UpdatePresent:      UpdatePresentModifier,
		StructuredRefCount: RefCountHold,
		DefaultAsync:       AsyncNoval,
	}
}

// Validate rejects option combinations the translator cannot honor.
func (o Options) Validate() error {
	if o.OpenMP && o.OpenACC {
		return errors.New("OpenACC translation cannot be combined with OpenMP source directives")
	}
	if o.DefaultAsync < AsyncSync {
		return errors.Errorf("invalid default async queue %d", o.DefaultAsync)
	}
	if _, err := o.Policy(); err != nil {
		return err
	}
	return nil
}

// Policy builds the warning policy from Warnings.
func (o Options) Policy() (*diag.Policy, error) {
	p := diag.NewPolicy()
	if err := p.ApplyAll(o.Warnings); err != nil {
		return nil, errors.Wrap(err, "warning controls")
	}
	return p, nil
}

// Parse decodes YAML options on top of the defaults.
func Parse(data []byte) (Options, error) {
	opts := DefaultOptions()
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, errors.Wrap(err, "decode options")
	}
	return opts, nil
}

// Load reads options from a YAML file.
func Load(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, errors.Wrapf(err, "read config %s", path)
	}
	opts, err := Parse(data)
	if err != nil {
		return Options{}, errors.Wrapf(err, "config %s", path)
	}
	return opts, nil
}

func enumName(names []string, i int) string {
	if i >= 0 && i < len(names) {
		return names[i]
	}
	return fmt.Sprintf("%d", i)
}

func enumValue(what string, names []string, s string) (int, error) {
	for i, n := range names {
		if strings.EqualFold(n, s) {
			return i, nil
		}
	}
	return 0, errors.Errorf("unknown %s %q (want one of %s)", what, s, strings.Join(names, ", "))
}

func decodeEnum(n *yaml.Node, dst *uint8, what string, names []string) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	i, err := enumValue(what, names, s)
	if err != nil {
		return errors.Wrapf(err, "line %d", n.Line)
	}
	*dst = uint8(i)
	return nil
}
