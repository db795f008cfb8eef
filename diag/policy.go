// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package diag

import (
	"fmt"
	"sort"
	"strings"
)

// Warning flags.
const (
	FlagOMPMapOMPXHold    = "omp-map-ompx-hold"
	FlagOMPMapOMPXNoAlloc = "omp-map-ompx-no-alloc"
	FlagOMPMapPresent     = "omp-map-present"
	FlagOMPUpdatePresent  = "omp-update-present"
	FlagOMPExt            = "omp-ext"
	FlagACCRoutineLambda  = "acc-routine-lambda"
	FlagACCDiscard        = "acc-discard"
)

type flagInfo struct {
	enabled bool
	parent  string
}

var knownFlags = map[string]flagInfo{
	FlagOMPMapOMPXHold:    {parent: FlagOMPExt},
	FlagOMPMapOMPXNoAlloc: {parent: FlagOMPExt},
	FlagOMPMapPresent:     {parent: FlagOMPExt},
	FlagOMPUpdatePresent:  {parent: FlagOMPExt},
	FlagOMPExt:            {},
	FlagACCRoutineLambda:  {enabled: true},
	FlagACCDiscard:        {},
}

// Flags returns the known warning flags, sorted.
func Flags() []string {
	out := make([]string, 0, len(knownFlags))
	for f := range knownFlags {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

type flagState struct {
	enabled *bool
	asError *bool
}

// Policy maps warning flags to severities. The zero value is not usable;
// call NewPolicy.
type Policy struct {
	states map[string]*flagState
	werror bool
}

// NewPolicy returns the default policy.
func NewPolicy() *Policy {
	return &Policy{states: make(map[string]*flagState)}
}

func (p *Policy) state(flag string) *flagState {
	s, ok := p.states[flag]
	if !ok {
		s = &flagState{}
		p.states[flag] = s
	}
	return s
}

// Apply processes one warning control: "-Wfoo", "-Wno-foo",
// "-Werror=foo", "-Wno-error=foo", or "-Werror". The "-W" prefix is
// optional.
func (p *Policy) Apply(control string) error {
	spec := strings.TrimPrefix(control, "-W")
	if spec == "error" {
		p.werror = true
		return nil
	}
	on, off := true, false
	var (
		flag    string
		enabled *bool
		asError *bool
	)
	switch {
	case strings.HasPrefix(spec, "error="):
		flag, enabled, asError = strings.TrimPrefix(spec, "error="), &on, &on
	case strings.HasPrefix(spec, "no-error="):
		flag, asError = strings.TrimPrefix(spec, "no-error="), &off
	case strings.HasPrefix(spec, "no-"):
		flag, enabled = strings.TrimPrefix(spec, "no-"), &off
	default:
		flag, enabled = spec, &on
	}
	if _, ok := knownFlags[flag]; !ok {
		return fmt.Errorf("unknown warning option '%s'", control)
	}
	s := p.state(flag)
	if enabled != nil {
		s.enabled = enabled
	}
	if asError != nil {
		s.asError = asError
	}
	return nil
}

// ApplyAll applies controls in order and stops at the first bad one.
func (p *Policy) ApplyAll(controls []string) error {
	for _, c := range controls {
		if err := p.Apply(c); err != nil {
			return err
		}
	}
	return nil
}

// Severity returns the effective severity of a diagnostic under flag. An
// empty flag is always a warning, promoted by -Werror.
func (p *Policy) Severity(flag string) Severity {
	info := knownFlags[flag]
	enabled := info.enabled
	asError := p.werror
	chain := []string{flag}
	if info.parent != "" {
		chain = append(chain, info.parent)
	}
	// The most specific explicit setting wins.
	for i := len(chain) - 1; i >= 0; i-- {
		s, ok := p.states[chain[i]]
		if !ok {
			continue
		}
		if s.enabled != nil {
			enabled = *s.enabled
		}
		if s.asError != nil {
			asError = *s.asError
		}
	}
	if flag == "" {
		enabled = true
	}
	switch {
	case !enabled:
		return Ignored
	case asError:
		return Error
	default:
		return Warning
	}
}
