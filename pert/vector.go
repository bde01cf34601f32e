// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pert implements the perturbation integrator (§4.P): the
// per-(mode,ic,k) integration of the coupled fluid/Boltzmann hierarchy
// from tau_ini to tau_today, sampling source functions along the way.
package pert

import "github.com/cpmech/gosl/chk"

// Span is a contiguous region of the integration vector owned by one
// named field (one species, or a gauge-specific metric variable).
type Span struct {
	Offset int
	Length int
}

// Layout is the struct-of-arrays header describing which fields are
// present in the current approximation regime and their offsets, per
// spec §3's IntegrationVector invariant ("y fields are laid out as
// disjoint contiguous regions, with one stable index per field") and
// §9's design note ("model y as a struct-of-arrays with a small header
// ... do not rely on pointer punning across layouts").
type Layout struct {
	Spans []fieldSpan
	Size  int
}

type fieldSpan struct {
	name string
	span Span
}

// NewLayout returns an empty layout.
func NewLayout() *Layout { return &Layout{} }

// Add appends a new field of the given length, returning its span.
func (l *Layout) Add(name string, length int) Span {
	sp := Span{Offset: l.Size, Length: length}
	l.Spans = append(l.Spans, fieldSpan{name, sp})
	l.Size += length
	return sp
}

// Lookup returns the span for a field name, or ok=false if absent.
func (l *Layout) Lookup(name string) (Span, bool) {
	for _, fs := range l.Spans {
		if fs.name == name {
			return fs.span, true
		}
	}
	return Span{}, false
}

// Vector is the IntegrationVector: a flat []float64 data array plus the
// layout describing its fields.
type Vector struct {
	Layout *Layout
	Y      []float64
}

// NewVector allocates a zeroed vector for the given layout.
func NewVector(layout *Layout) *Vector {
	return &Vector{Layout: layout, Y: make([]float64, layout.Size)}
}

// Slice returns the sub-slice of Y owned by the named field, panicking
// (a programmer error, not a runtime data error) if the field is absent.
func (v *Vector) Slice(name string) []float64 {
	sp, ok := v.Layout.Lookup(name)
	if !ok {
		chk.Panic("pert: vector has no field named %q", name)
	}
	return v.Y[sp.Offset : sp.Offset+sp.Length]
}

// Has reports whether a field is present in this vector's layout.
func (v *Vector) Has(name string) bool {
	_, ok := v.Layout.Lookup(name)
	return ok
}

// Transition builds a new vector for newLayout, copying every field
// present in both layouts verbatim (truncating/zero-padding on length
// mismatch, which happens whenever a regime change alters a species'
// NumEqs under the same field name) and leaving newly-introduced fields
// and entries at zero for the
// caller to fill from physics surrogates, per spec §3's invariant that
// "fields created at a transition are initialized from physically
// motivated small-parameter expansions ... never left uninitialized."
// Transition itself only guarantees zero-initialization; filling the
// surrogates is the approximation scheduler's responsibility.
func (v *Vector) Transition(newLayout *Layout) *Vector {
	nv := NewVector(newLayout)
	for _, fs := range newLayout.Spans {
		if oldSpan, ok := v.Layout.Lookup(fs.name); ok {
			n := fs.span.Length
			if oldSpan.Length < n {
				n = oldSpan.Length
			}
			copy(nv.Y[fs.span.Offset:fs.span.Offset+n], v.Y[oldSpan.Offset:oldSpan.Offset+n])
		}
	}
	return nv
}
