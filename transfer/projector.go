// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transfer

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/cpmech/goboltz/config"
	"github.com/cpmech/goboltz/hyper"
)

// Projector is the [T] Transfer / Radial Projector: it owns the shared
// flat-geometry HIS table (built once, §5's shared-resource contract)
// and projects one InterpolatedSources row at a time into Δℓ(q).
type Projector struct {
	Cfg    *config.Config
	CurvK  float64
	Geom   hyper.Curvature
	Shared *hyper.FlatShared

	lMax, nSamples int
	xMin, xMax     float64
}

// NewProjector builds the Projector and its shared flat HIS table, per
// §4.T.E's "hyper.FlatShared is the single ... table built once by
// transfer.Projector.Init". The shared table is always built at nu=1:
// j_l(x) for any wavenumber q is recovered from the SAME table by
// evaluating at x=q·χ, which is exactly what makes one flat table
// shareable across every q rather than needing one per q (a
// curved-geometry table, by contrast, genuinely depends on q through
// nu=q/√|K| and so is rebuilt per-task below index_q_flat_approximation;
// see exactTable). lMax/xMin/xMax/nSamples size the table.
func NewProjector(cfg *config.Config, curvK float64, lMax int, xMin, xMax float64, nSamples int) (*Projector, error) {
	geom := hyper.Flat
	if curvK > 0 {
		geom = hyper.Closed
	} else if curvK < 0 {
		geom = hyper.Open
	}
	shared, err := hyper.NewFlatShared(1.0, lMax, xMin, xMax, nSamples, cfg.Precision.Eps)
	if err != nil {
		return nil, chk.Err("transfer: failed to build shared HIS table:\n%v", err)
	}
	if cfg.Verbose {
		io.Pf("transfer: built shared flat HIS table for l_max=%d\n", lMax)
	}
	return &Projector{
		Cfg: cfg, CurvK: curvK, Geom: geom, Shared: shared,
		lMax: lMax, xMin: xMin, xMax: xMax, nSamples: nSamples,
	}, nil
}

// exactTable builds the per-task curved-geometry table for one q
// (ν = q/√|K|), used only below index_q_flat_approximation; never
// shared across tasks, per §5's distinction between the one shared flat
// table and per-task curved ones.
func (p *Projector) exactTable(q float64) (*hyper.Table, error) {
	nu := q / math.Sqrt(math.Abs(p.CurvK))
	return hyper.NewTable(p.Geom, nu, p.lMax, p.xMin, p.xMax, p.nSamples, p.Cfg.Precision.Eps)
}

// PhiSourceFor returns the table to evaluate Φℓ from for wavenumber
// index iq against ql.IndexFlatApproximation, building an exact curved
// table only when iq falls below the flat-approximation threshold.
func (p *Projector) PhiSourceFor(ql *QList, iq int) (phiSource, error) {
	if p.Geom == hyper.Flat || iq >= ql.IndexFlatApproximation {
		return p.Shared, nil
	}
	return p.exactTable(ql.Q[iq])
}

// ChiAtPhiMin returns the χ at which |Φℓ| first clears the negligible
// threshold in src's table, used by §4.T.3's truncation rule
// τ0 − τ_min_bessel = χ_at_ϕmin[ℓ] / k_eff.
func ChiAtPhiMin(src phiSource, l int) (float64, error) {
	t, ok := src.(*hyper.Table)
	if !ok {
		if fs, ok2 := src.(*hyper.FlatShared); ok2 {
			t = fs.Table()
		} else {
			return 0, chk.Err("transfer: phiSource does not expose a table for chi_at_phimin lookup")
		}
	}
	if l < 0 || l > t.LMax {
		return 0, chk.Err("transfer: l=%d out of range for chi_at_phimin", l)
	}
	return t.X[t.PhiMinIdx[l]], nil
}

// RadialKindFor maps a (mode, source-type) pair onto one of the eleven
// §4.T.4 radial families; mode 0/1/2 = scalar/vector/tensor.
func RadialKindFor(mode int, kind SourceCategory, isE, isB bool) RadialKind {
	switch mode {
	case 1:
		switch {
		case isE:
			return VectorE
		case isB:
			return VectorB
		default:
			return VectorT1
		}
	case 2:
		switch {
		case isE:
			return TensorE
		case isB:
			return TensorB
		default:
			return TensorT2
		}
	default:
		if kind == CategoryIntegrated {
			return NcRSDRadial
		}
		return ScalarT0
	}
}

// ProjectExact computes Δℓ by direct quadrature over the τ-range
// [tauStart, tauEnd] (already truncated by the caller per §4.T.3's
// Bessel/source-vanishing rules): Δℓ = Σ sources[τ]·radial[τ]·w_trapz[τ].
// The Bessel argument x follows the table's own convention: the shared
// flat table is built at nu=1 so any q shares it by evaluating at
// x = q·(τ0−τ) (j_l(qχ) for arbitrary q from one table of j_l); a
// per-task curved table is built at nu = q/√|K| and evaluated at the
// curvature angle x = √|K|·(τ0−τ), the argument hyperspherical Bessel
// functions Φℓ(χ;ν) are conventionally tabulated in.
func (p *Projector) ProjectExact(kind RadialKind, src phiSource, l int, q, k, tau0 float64, tau []float64, s []float64) (float64, error) {
	if len(tau) != len(s) {
		return 0, chk.Err("transfer: tau/source length mismatch (%d vs %d)", len(tau), len(s))
	}
	if len(tau) < 2 {
		return 0, chk.Err("transfer: need at least two tau samples to integrate, got %d", len(tau))
	}
	total := 0.0
	isFlatTable := p.Geom == hyper.Flat || src == phiSource(p.Shared)
	for i := range tau {
		var x float64
		if isFlatTable {
			x = q * (tau0 - tau[i])
		} else {
			x = math.Sqrt(math.Abs(p.CurvK)) * (tau0 - tau[i])
		}
		if x <= 0 {
			continue
		}
		r, err := Radial(kind, src, l, x, k, p.CurvK)
		if err != nil {
			return 0, err
		}
		w := trapWeight(tau, i)
		total += s[i] * r * w
	}
	return total, nil
}

// trapWeight returns the trapezoidal quadrature weight for sample i of
// a (possibly non-uniform) grid tau.
func trapWeight(tau []float64, i int) float64 {
	n := len(tau)
	switch {
	case i == 0:
		return 0.5 * (tau[1] - tau[0])
	case i == n-1:
		return 0.5 * (tau[n-1] - tau[n-2])
	default:
		return 0.5 * (tau[i+1] - tau[i-1])
	}
}

// BesselTailCorrection adds the small triangular correction spec §4.T.3
// names for truncations caused by the Bessel side rather than the
// source side: half the last retained cell's trapezoidal contribution,
// approximating the truncated tail as a linear ramp to zero.
func BesselTailCorrection(lastS, lastR, lastWeight float64) float64 {
	return 0.5 * lastS * lastR * lastWeight
}
