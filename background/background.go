// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package background defines the external collaborator interface for
// background-cosmology tables (a, H, ρ_i, p_i and their τ-derivatives),
// deliberately out of scope for the core engine per spec §1: this
// package only specifies the ABI and ships one reference tabulated
// implementation, the way gofem treats a thermodynamics driver as an
// external module with a function-call interface.
package background

import "github.com/cpmech/gosl/chk"

// Level selects which rows of the background table are filled, mirroring
// spec §6's {short, normal, long} selector.
type Level int

const (
	Short Level = iota
	Normal
	Long
)

// State is the output of one background_at_tau call.
type State struct {
	A      float64            // scale factor
	H      float64            // Hubble rate (dτ normalization: conformal)
	HPrime float64            // dH/dτ
	Rho    map[string]float64 // background densities keyed by species name
	P      map[string]float64 // background pressures keyed by species name
	DRho   map[string]float64 // dρ/dτ keyed by species name (decaying species)
}

// LastIndex is an opaque locality hint threaded through repeated calls so
// a table-based provider can start its search near the previous result,
// mirroring spec §6's last_index* parameter.
type LastIndex struct{ idx int }

// Provider is the external background-cosmology collaborator.
type Provider interface {
	// AtTau returns the background state at conformal time tau for the
	// given detail level, threading last as a locality hint.
	AtTau(tau float64, level Level, last *LastIndex) (State, error)

	// TauToday returns the conformal time today (needed by grid
	// construction, §4.P.1).
	TauToday() float64

	// TauIni returns the earliest tabulated conformal time.
	TauIni() float64
}

// Row is one row of a tabulated background: the external table passed in
// by the caller (spec §1 explicitly excludes computing this table).
type Row struct {
	Tau    float64            `json:"tau"`
	A      float64            `json:"a"`
	H      float64            `json:"h"`
	HPrime float64            `json:"hprime"`
	Rho    map[string]float64 `json:"rho"`
	P      map[string]float64 `json:"p"`
	DRho   map[string]float64 `json:"drho"`
}

// TableProvider implements Provider by linear interpolation of a
// caller-supplied, τ-sorted table. It is the reference implementation
// used by goboltz's tests and thin CLI shell; a production deployment is
// expected to supply a richer Provider (e.g. backed by a spline table)
// without otherwise touching the core engine, per spec §1.
type TableProvider struct {
	Rows []Row
}

// NewTableProvider validates that rows are sorted by tau and returns a
// provider, or a fatal configuration error per spec §7.
func NewTableProvider(rows []Row) (*TableProvider, error) {
	for i := 1; i < len(rows); i++ {
		if rows[i].Tau <= rows[i-1].Tau {
			return nil, chk.Err("background: table rows must be strictly increasing in tau; row %d (tau=%v) <= row %d (tau=%v)", i, rows[i].Tau, i-1, rows[i-1].Tau)
		}
	}
	if len(rows) < 2 {
		return nil, chk.Err("background: table must have at least 2 rows")
	}
	return &TableProvider{Rows: rows}, nil
}

func (p *TableProvider) TauToday() float64 { return p.Rows[len(p.Rows)-1].Tau }
func (p *TableProvider) TauIni() float64   { return p.Rows[0].Tau }

func (p *TableProvider) AtTau(tau float64, level Level, last *LastIndex) (State, error) {
	n := len(p.Rows)
	if tau < p.Rows[0].Tau || tau > p.Rows[n-1].Tau {
		return State{}, chk.Err("background: queried tau=%v out of tabulated range [%v, %v]", tau, p.Rows[0].Tau, p.Rows[n-1].Tau)
	}
	idx := 0
	if last != nil {
		idx = last.idx
		if idx < 0 || idx >= n-1 {
			idx = 0
		}
	}
	// locality-preserving linear search from the hint, per spec §3's
	// Workspace "last-index back/thermo" field.
	for idx < n-2 && p.Rows[idx+1].Tau < tau {
		idx++
	}
	for idx > 0 && p.Rows[idx].Tau > tau {
		idx--
	}
	r0, r1 := p.Rows[idx], p.Rows[idx+1]
	frac := (tau - r0.Tau) / (r1.Tau - r0.Tau)
	if last != nil {
		last.idx = idx
	}
	st := State{
		A:      lerp(r0.A, r1.A, frac),
		H:      lerp(r0.H, r1.H, frac),
		HPrime: lerp(r0.HPrime, r1.HPrime, frac),
		Rho:    map[string]float64{},
		P:      map[string]float64{},
		DRho:   map[string]float64{},
	}
	for k := range r0.Rho {
		st.Rho[k] = lerp(r0.Rho[k], r1.Rho[k], frac)
	}
	for k := range r0.P {
		st.P[k] = lerp(r0.P[k], r1.P[k], frac)
	}
	for k := range r0.DRho {
		st.DRho[k] = lerp(r0.DRho[k], r1.DRho[k], frac)
	}
	return st, nil
}

func lerp(a, b, frac float64) float64 { return a + frac*(b-a) }
