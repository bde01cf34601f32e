// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hyper

import "math"

// xMinApprox estimates the WKB turning point x_min(l, nu) below which
// Φℓ(x) is exponentially suppressed: the classical turning point of the
// radial equation's effective potential, l(l+1)/sin_K(x)^2 = nu^2,
// solved for x. This is the cheap closed-form estimate spec §4.S calls
// `get_xmin_from_approx`, used for a fast bracketing search before the
// Airy refinement.
func xMinApprox(geom Curvature, nu float64, l int) float64 {
	lp := float64(l) + 0.5
	if lp >= nu {
		// forbidden for every x in a flat/open space; clamp to the
		// largest meaningful angle for closed space (pi/2), else a
		// large sentinel the caller's bracket search will reject.
		if geom == Closed {
			return math.Pi / 2
		}
		return math.Inf(1)
	}
	switch geom {
	case Closed:
		return math.Asin(lp / nu)
	case Open:
		return math.Asinh(lp / nu)
	default:
		return lp / nu
	}
}

// xMinAiry refines xMinApprox's bracket with the next WKB order (the
// Airy-function turning-point correction `get_xmin_from_Airy` of §4.S):
// the leading correction shifts the turning point outward by a term of
// order (l+1/2)^(-2/3), reflecting the Airy function's own decay length
// past the classical turning point rather than the sudden cutoff the
// zeroth-order WKB estimate assumes.
func xMinAiry(geom Curvature, nu float64, l int) float64 {
	x0 := xMinApprox(geom, nu, l)
	if math.IsInf(x0, 1) {
		return x0
	}
	lp := float64(l) + 0.5
	correction := 1.0 / math.Cbrt(lp*lp)
	return x0 + correction
}

// LMaxForThreshold performs the bracketed binary search of §4.S: find
// the largest l such that x_min(l, nu) <= xMax, i.e. Φ_l still has
// non-negligible amplitude somewhere in [x_min(l), xMax]. It first
// brackets with xMinApprox, then refines the found boundary with one
// xMinAiry pass, matching the "fast approximation then WKB/Airy
// refinement" two-stage search spec §4.S names.
func LMaxForThreshold(geom Curvature, nu, xMax float64, lCap int) int {
	lo, hi := 0, lCap
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if xMinApprox(geom, nu, mid) <= xMax {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	// refine with the Airy-corrected estimate: walk forward while it
	// still clears the threshold, backward while it does not.
	for lo < lCap && xMinAiry(geom, nu, lo+1) <= xMax {
		lo++
	}
	for lo > 0 && xMinAiry(geom, nu, lo) > xMax {
		lo--
	}
	return lo
}
