// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package thermo defines the external collaborator interface for
// recombination/thermodynamics tables, out of scope for the core engine
// per spec §1.
package thermo

import (
	"math"

	"github.com/cpmech/gosl/chk"
)

// State is the output of one thermodynamics_at_z call (spec §6).
type State struct {
	Xe     float64 // ionization fraction
	G      float64 // visibility function
	Kappa1 float64 // κ′
	Kappa2 float64 // κ″
	Kappa3 float64 // κ‴
	Tb     float64 // baryon temperature
	Cb2    float64 // baryon sound speed squared
	DCb2   float64 // dCb2/dz or dτ, per table convention
	Rate   float64 // recombination rate
}

// LastIndex mirrors background.LastIndex: an opaque locality hint.
type LastIndex struct{ idx int }

// Provider is the external thermodynamics collaborator.
type Provider interface {
	AtZ(z float64, last *LastIndex) (State, error)
	ZRec() float64 // redshift of recombination (peak visibility), used by grid construction
}

// Row is one tabulated row, caller-supplied (spec §1 excludes computing
// recombination itself).
type Row struct {
	Z      float64 `json:"z"`
	Xe     float64 `json:"xe"`
	G      float64 `json:"g"`
	Kappa1 float64 `json:"kappa1"`
	Kappa2 float64 `json:"kappa2"`
	Kappa3 float64 `json:"kappa3"`
	Tb     float64 `json:"tb"`
	Cb2    float64 `json:"cb2"`
	Rate   float64 `json:"rate"`
}

// TableProvider is the reference tabulated implementation, analogous to
// background.TableProvider.
type TableProvider struct {
	Rows []Row // sorted by increasing z
	zRec float64
}

// NewTableProvider validates monotonicity in z and locates the
// visibility-function peak to serve ZRec().
func NewTableProvider(rows []Row) (*TableProvider, error) {
	if len(rows) < 2 {
		return nil, chk.Err("thermo: table must have at least 2 rows")
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].Z <= rows[i-1].Z {
			return nil, chk.Err("thermo: table rows must be strictly increasing in z; row %d (z=%v) <= row %d (z=%v)", i, rows[i].Z, i-1, rows[i-1].Z)
		}
	}
	best := 0
	for i, r := range rows {
		if r.G > rows[best].G {
			best = i
		}
	}
	return &TableProvider{Rows: rows, zRec: rows[best].Z}, nil
}

func (p *TableProvider) ZRec() float64 { return p.zRec }

func (p *TableProvider) AtZ(z float64, last *LastIndex) (State, error) {
	n := len(p.Rows)
	zmin, zmax := p.Rows[0].Z, p.Rows[n-1].Z
	if z < zmin || z > zmax {
		return State{}, chk.Err("thermo: queried z=%v out of tabulated range [%v, %v]", z, zmin, zmax)
	}
	idx := 0
	if last != nil {
		idx = last.idx
		if idx < 0 || idx >= n-1 {
			idx = 0
		}
	}
	for idx < n-2 && p.Rows[idx+1].Z < z {
		idx++
	}
	for idx > 0 && p.Rows[idx].Z > z {
		idx--
	}
	r0, r1 := p.Rows[idx], p.Rows[idx+1]
	frac := (z - r0.Z) / (r1.Z - r0.Z)
	if last != nil {
		last.idx = idx
	}
	st := State{
		Xe:     lerp(r0.Xe, r1.Xe, frac),
		G:      lerp(r0.G, r1.G, frac),
		Kappa1: lerp(r0.Kappa1, r1.Kappa1, frac),
		Kappa2: lerp(r0.Kappa2, r1.Kappa2, frac),
		Kappa3: lerp(r0.Kappa3, r1.Kappa3, frac),
		Tb:     lerp(r0.Tb, r1.Tb, frac),
		Cb2:    lerp(r0.Cb2, r1.Cb2, frac),
		Rate:   lerp(r0.Rate, r1.Rate, frac),
	}
	if st.Kappa1 < 0 {
		return State{}, chk.Err("thermo: numerical error, kappa1 (opacity) is negative at z=%v: %v", z, st.Kappa1)
	}
	return st, nil
}

func lerp(a, b, frac float64) float64 { return a + frac*(b-a) }

// SanityCheckAH returns a fatal error if aH evaluates to zero at the
// queried point, per spec §7's numerical-error taxonomy ("aH=0 at a
// queried τ"), identifying the queried τ and x_e in the message.
func SanityCheckAH(tau, ah, xe float64) error {
	if math.Abs(ah) < 1e-300 {
		return chk.Err("thermo: aH == 0 at queried tau=%v (x_e=%v)", tau, xe)
	}
	return nil
}
