// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hyper

import "github.com/cpmech/gosl/chk"

// FlatShared is the single flat-geometry table built once by
// transfer.Projector.Init and shared read-only across every task, per
// spec §5's "the hyperspherical interpolator for flat geometry (BIS) is
// constructed once ... and read-only shared across tasks". A curved
// (open/closed) table, by contrast, is nu-dependent (nu = q/sqrt(|K|)
// varies per q) and so is built per-task in transfer's q-loop, never
// shared.
type FlatShared struct {
	table *Table
}

// NewFlatShared builds the shared flat table once for the given nu
// range by constructing one Table per distinct nu actually requested;
// callers in a flat universe only ever need nu == k (since sqrt(|K|)
// does not apply), so in practice this wraps a single Table keyed by
// the run's k-grid-derived (xMin, xMax, lMax, nSamples).
func NewFlatShared(nu float64, lMax int, xMin, xMax float64, nSamples int, phiMinAbs float64) (*FlatShared, error) {
	t, err := NewTable(Flat, nu, lMax, xMin, xMax, nSamples, phiMinAbs)
	if err != nil {
		return nil, chk.Err("hyper: failed to build shared flat table:\n%v", err)
	}
	return &FlatShared{table: t}, nil
}

// Eval proxies to the underlying table; safe for concurrent read-only
// use by every transfer task, since Table is never mutated after
// NewFlatShared returns.
func (f *FlatShared) Eval(l int, x float64) (phi, phi1, phi2 float64, err error) {
	return f.table.Eval(l, x)
}

// Table exposes the underlying table for callers (e.g. ChiAtPhiMin
// bookkeeping) that need PhiMinIdx directly rather than through Eval.
func (f *FlatShared) Table() *Table { return f.table }
