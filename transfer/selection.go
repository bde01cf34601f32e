// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transfer

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"gonum.org/v1/gonum/integrate"

	"github.com/cpmech/goboltz/config"
)

// DNDz is a redshift selection density, normalized or not -- SelectionWindow
// normalizes the product itself.
type DNDz func(z float64) float64

// EuclidIST returns the default analytic Euclid photometric-survey
// dN/dz of §6.E / spec §6: (z/z0)^alpha * exp(-(z/z0)^beta), with
// z0=0.9/sqrt(2), alpha=2, beta=1.5.
func EuclidIST() DNDz {
	return DNDzFromParams(0.9/math.Sqrt2, 2, 1.5)
}

// DNDzFromParams builds the same analytic family with caller-supplied
// constants, per §9's note that a run may override the Euclid-IST
// defaults.
func DNDzFromParams(z0, alpha, beta float64) DNDz {
	return func(z float64) float64 {
		if z <= 0 {
			return 0
		}
		r := z / z0
		return math.Pow(r, alpha) * math.Exp(-math.Pow(r, beta))
	}
}

// SelectionWindow is a normalized dN/dτ window (§4.T.2): ∫ W dτ = 1 over
// its support.
type SelectionWindow struct {
	Kind        config.SelectionKind
	ZMean       float64
	Width       float64
	CutInSigma  float64
	Dz          DNDz // optional extra factor, nil if unused

	tauOfZ func(z float64) float64
	zOfTau func(tau float64) float64
}

// NewSelectionWindow builds a window from config parameters and the
// background's z<->tau maps.
func NewSelectionWindow(p config.SelectionParams, dz DNDz, zOfTau, tauOfZ func(float64) float64) (*SelectionWindow, error) {
	if p.Width <= 0 && p.Kind != config.SelectionDirac {
		return nil, chk.Err("transfer: selection window width must be positive for kind=%v, got %v", p.Kind, p.Width)
	}
	return &SelectionWindow{
		Kind: p.Kind, ZMean: p.ZMean, Width: p.Width, CutInSigma: p.CutInSigma,
		Dz: dz, zOfTau: zOfTau, tauOfZ: tauOfZ,
	}, nil
}

// TauBounds returns [tauLo, tauHi] = tau(z_mean+sigma*cut), tau(z_mean-sigma*cut)
// for non-integrated source types (§4.T.2), with tauLo < tauHi since z
// decreases as tau increases.
func (w *SelectionWindow) TauBounds() (tauLo, tauHi float64) {
	if w.Kind == config.SelectionDirac {
		tau := w.tauOfZ(w.ZMean)
		return tau, tau
	}
	zHi := w.ZMean + w.CutInSigma*w.Width
	zLo := w.ZMean - w.CutInSigma*w.Width
	if zLo < 0 {
		zLo = 0
	}
	return w.tauOfZ(zHi), w.tauOfZ(zLo)
}

// unnormalized evaluates the raw shape (Gaussian, tanh-smoothed top-hat,
// or Dirac -- handled by the caller as a delta weight, not sampled here)
// times the optional dN/dz factor.
func (w *SelectionWindow) unnormalized(z float64) float64 {
	var shape float64
	switch w.Kind {
	case config.SelectionGaussian:
		d := (z - w.ZMean) / w.Width
		shape = math.Exp(-0.5 * d * d)
	case config.SelectionTophat:
		half := w.Width
		edge := 0.1 * half // smoothing scale relative to half-width
		lo := 0.5 * (1 + math.Tanh((z-(w.ZMean-half))/edge))
		hi := 0.5 * (1 + math.Tanh(((w.ZMean+half)-z)/edge))
		shape = lo * hi
	default:
		shape = 1
	}
	if w.Dz != nil {
		shape *= w.Dz(z)
	}
	return shape
}

// Eval returns the raw shape at z(tau) divided by norm, the constant
// returned by Normalize (0 when norm is 0); no dz/dτ Jacobian is
// applied.
func (w *SelectionWindow) Eval(tau, norm float64) float64 {
	if norm == 0 {
		return 0
	}
	z := w.zOfTau(tau)
	return w.unnormalized(z) / norm
}

// Normalize integrates the raw shape over [tauLo,tauHi] on n points and
// returns the constant that makes ∫ W dτ = 1.
func (w *SelectionWindow) Normalize(n int) (float64, error) {
	if w.Kind == config.SelectionDirac {
		return 1, nil
	}
	tauLo, tauHi := w.TauBounds()
	if tauHi <= tauLo || n < 3 {
		return 0, chk.Err("transfer: cannot normalize selection window on degenerate interval [%v,%v]", tauLo, tauHi)
	}
	h := (tauHi - tauLo) / float64(n-1)
	taus := make([]float64, n)
	vals := make([]float64, n)
	for i := 0; i < n; i++ {
		tau := tauLo + float64(i)*h
		taus[i] = tau
		vals[i] = w.unnormalized(w.zOfTau(tau))
	}
	integral := integrate.Trapezoidal(taus, vals)
	if integral <= 0 {
		return 0, chk.Err("transfer: selection window integrates to a non-positive value (%v)", integral)
	}
	return integral, nil
}

// LensingWindow builds the CMB-lensing-potential gauge-covariant window
// of §4.T.2: sin_K(tau_rec - tau) * cscK(tau_today - tau) / sin_K(tau_today - tau_rec),
// truncated to tau > tau_rec.
func LensingWindow(curvK, tauRec, tauToday, tau float64) float64 {
	if tau <= tauRec {
		return 0
	}
	sinK := func(x float64) float64 {
		switch {
		case curvK > 0:
			return math.Sin(math.Sqrt(curvK)*x) / math.Sqrt(curvK)
		case curvK < 0:
			return math.Sinh(math.Sqrt(-curvK)*x) / math.Sqrt(-curvK)
		default:
			return x
		}
	}
	cscK := func(x float64) float64 {
		s := sinK(x)
		if s == 0 {
			return 0
		}
		return 1 / s
	}
	return sinK(tauRec-tau) * cscK(tauToday-tau) / sinK(tauToday-tauRec)
}
