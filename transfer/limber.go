// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transfer

import (
	"math"

	"github.com/cpmech/goboltz/config"
)

// SourceCategory groups a source-type for the Limber-threshold rules of
// §4.T.3, which differ between density-like, line-of-sight-integrated,
// and lensing/large-l-always-on types.
type SourceCategory int

const (
	CategoryDensity SourceCategory = iota
	CategoryIntegrated
	CategoryLensing
)

// UseLimber decides use_limber per §4.T.3's rules: q beyond
// q_max_bessel always switches to Limber; density types switch once l
// clears l_switch_limber_for_nc_local_over_z * z_mean (unless the
// selection is Dirac, which needs the exact kernel at all l since it
// has no width to average Limber's error over); integrated types use
// the los threshold variant; lensing and any large-l query always uses
// Limber.
func UseLimber(q float64, l int, cat SourceCategory, zMean float64, isDirac bool, lim config.LimberParams) bool {
	if q > lim.QMaxBessel {
		return true
	}
	if cat == CategoryLensing {
		return true
	}
	if isDirac {
		return false
	}
	switch cat {
	case CategoryDensity:
		return float64(l) >= lim.LSwitchLimberForNcLocalOverZ*zMean
	case CategoryIntegrated:
		return float64(l) >= lim.LSwitchLimberForNcLOSOverZ*zMean
	default:
		return false
	}
}

// limberI is the flat scalar-T0 Limber amplitude factor
// I = sqrt(pi/(2l)) * (1 - 1/(4l) + 1/(32 l^2)), §4.T.5.
func limberI(l int) float64 {
	lf := float64(l)
	return math.Sqrt(math.Pi/(2*lf)) * (1 - 1/(4*lf) + 1/(32*lf*lf))
}

// LimberScalarT0 evaluates Delta_l for the scalar-T0 family in the
// Limber approximation: flat space uses I*S(tau_limb)/(l+0.5); curved
// space adds the (1 - K l^2/q^2)^(-1/4) / (tau_rem * q) correction,
// per §4.T.5. sAtTauLimb is S*(tau0-tau) interpolated by a three-point
// parabola at tau_limb (the caller forms this via SAtTauLimber, since it
// needs the full S(tau) row, not just one value).
func LimberScalarT0(l int, q, curvK, tauRem float64, sTimesTauRem float64) float64 {
	lf := float64(l)
	s := sTimesTauRem / tauRem
	if curvK == 0 {
		return limberI(l) * s / (lf + 0.5)
	}
	corr := math.Pow(1-curvK*lf*lf/(q*q), -0.25)
	return limberI(l) * s * corr / (tauRem * q)
}

// TauLimber returns tau0 - (l+0.5)/q, the flat-space Limber-kernel peak
// location; curved-space callers instead look up chi_at_phimin from the
// HIS table and are not served by this helper.
func TauLimber(tau0 float64, l int, q float64) float64 {
	return tau0 - (float64(l)+0.5)/q
}

// SAtTauLimber interpolates S*(tau0-tau) (the regular product, since S
// itself diverges as tau->tau0) by a three-point parabola centered on
// the bracketing samples around tauLimb, then divides back out, per
// §4.T.5's "interpolating the regular product ... rather than S
// itself".
func SAtTauLimber(tau []float64, s []float64, tau0, tauLimb float64) (float64, error) {
	i := bracketIndex(tau, tauLimb)
	reg := make([]float64, len(s))
	for j, sv := range s {
		reg[j] = sv * (tau0 - tau[j])
	}
	val := parabola3(tau, reg, i, tauLimb)
	rem := tau0 - tauLimb
	if rem == 0 {
		return 0, nil
	}
	return val / rem, nil
}

func bracketIndex(xs []float64, x float64) int {
	lo, hi := 0, len(xs)-1
	for lo < hi-1 {
		mid := (lo + hi) / 2
		if xs[mid] <= x {
			lo = mid
		} else {
			hi = mid
		}
	}
	if lo < 1 {
		lo = 1
	}
	if lo > len(xs)-2 {
		lo = len(xs) - 2
	}
	return lo
}

// parabola3 fits a parabola through (xs[i-1],ys[i-1]), (xs[i],ys[i]),
// (xs[i+1],ys[i+1]) and evaluates it at x.
func parabola3(xs, ys []float64, i int, x float64) float64 {
	x0, x1, x2 := xs[i-1], xs[i], xs[i+1]
	y0, y1, y2 := ys[i-1], ys[i], ys[i+1]
	l0 := (x - x1) * (x - x2) / ((x0 - x1) * (x0 - x2))
	l1 := (x - x0) * (x - x2) / ((x1 - x0) * (x1 - x2))
	l2 := (x - x0) * (x - x1) / ((x2 - x0) * (x2 - x1))
	return y0*l0 + y1*l1 + y2*l2
}
