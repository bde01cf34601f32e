// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hyper

import (
	"math"

	"github.com/cpmech/gosl/chk"
)

// NewTable allocates and fills a Φℓ(χ) table for ℓ in [0, lMax], χ in
// [xMin, xMax], sampled at nSamples points dense enough for the cubic
// Hermite interpolation of Eval. geom selects flat/open/closed (§4.S);
// nu is the eigenvalue (k for flat, k/sqrt(|K|) for curved space).
// phiMinAbs is the magnitude below which Φℓ is considered negligible,
// recorded per-ℓ in PhiMinIdx for transfer.ChiAtPhiMin.
func NewTable(geom Curvature, nu float64, lMax int, xMin, xMax float64, nSamples int, phiMinAbs float64) (*Table, error) {
	if nu <= 0 {
		return nil, chk.Err("hyper: nu must be positive, got %v", nu)
	}
	if lMax < 0 {
		return nil, chk.Err("hyper: l_max must be >= 0, got %d", lMax)
	}
	if xMax <= xMin || nSamples < 4 {
		return nil, chk.Err("hyper: invalid sampling range [%v,%v] with %d samples", xMin, xMax, nSamples)
	}

	t := &Table{Geom: geom, Nu: nu, LMax: lMax, xMax: xMax}
	t.X = make([]float64, nSamples)
	dx := (xMax - xMin) / float64(nSamples-1)
	for i := range t.X {
		t.X[i] = xMin + float64(i)*dx
	}

	t.Phi = make([][]float64, lMax+1)
	t.Phi1 = make([][]float64, lMax+1)
	t.Phi2 = make([][]float64, lMax+1)
	t.PhiMinIdx = make([]int, lMax+1)
	for l := range t.Phi {
		t.Phi[l] = make([]float64, nSamples)
		t.Phi1[l] = make([]float64, nSamples)
		t.Phi2[l] = make([]float64, nSamples)
	}

	for i, x := range t.X {
		fillColumn(t, i, x)
	}
	for l := 0; l <= lMax; l++ {
		t.PhiMinIdx[l] = firstAboveThreshold(t.Phi[l], phiMinAbs)
	}
	return t, nil
}

// fillColumn fills one χ column across all ℓ using the standard
// three-term hyperspherical-Bessel recursion in ℓ (Abbott & Schaefer
// 1986; the flat limit reduces it to the ordinary spherical-Bessel
// recursion). Stability is handled the same way species/kernel.go
// handles the decay-scattering kernel's recursion: forward recursion in
// ℓ is stable while ℓ ≲ νχ (the classically allowed region), and the
// column is instead filled by Miller's backward recursion from an
// over-ℓ seed once ℓ enters the WKB-forbidden region ℓ ≳ νχ, where
// forward recursion loses all significant digits to cancellation.
func fillColumn(t *Table, i int, x float64) {
	nu, lMax, geom := t.Nu, t.LMax, t.Geom
	turning := int(nu * x)
	if turning > lMax {
		turning = lMax
	}

	phi := make([]float64, lMax+1)
	phi1 := make([]float64, lMax+1)

	seedPhi0(geom, nu, x, phi, phi1)
	for l := 1; l <= turning && l <= lMax; l++ {
		forwardStep(geom, nu, x, l, phi, phi1)
	}
	if turning < lMax {
		millerBackward(geom, nu, x, turning, lMax, phi, phi1)
	}

	for l := 0; l <= lMax; l++ {
		t.Phi[l][i] = phi[l]
		t.Phi1[l][i] = phi1[l]
	}
	// Phi2 follows from the defining ODE Φ″ + 2cotK·Φ′ + (ν²−K l(l+2)−l(l+1)/sin²)Φ = 0
	// simplified here to the flat/curved radial equation
	// Φ″_l = -2 cotK(x) Φ′_l - (nu^2 - l(l+1)/sin_K(x)^2) Φ_l,
	// the second-order form every Φℓ satisfies regardless of how it was
	// generated, used instead of differencing Phi1 so Phi2 stays
	// consistent even at the single sample i=0.
	for l := 0; l <= lMax; l++ {
		s := sinK(geom, x)
		lTerm := float64(l) * float64(l+1) / (s * s)
		t.Phi2[l][i] = -2*cotK(geom, x)*phi1[l] - (nu*nu-lTerm)*phi[l]
	}
}

// seedPhi0 fills the ℓ=0,1 seed values from closed forms:
// Φ_0 = sinK(νχ)/(ν sinK(χ)), Φ_0′ via direct differentiation, and Φ_1
// from the ℓ=0→1 recursion step evaluated at l=0.
func seedPhi0(geom Curvature, nu, x float64, phi, phi1 []float64) {
	s := sinK(geom, x)
	var num, numPrime float64
	switch geom {
	case Closed:
		num = math.Sin(nu * x)
		numPrime = nu * math.Cos(nu*x)
	case Open:
		num = math.Sinh(nu * x)
		numPrime = nu * math.Cosh(nu*x)
	default:
		num = math.Sin(nu * x)
		numPrime = nu * math.Cos(nu*x)
	}
	phi[0] = num / (nu * s)
	// d/dx [num/(nu s)] = numPrime/(nu s) - num*s'/(nu s^2); s' = cosK(x)
	sPrime := cosK(geom, x)
	phi1[0] = numPrime/(nu*s) - num*sPrime/(nu*s*s)

	if len(phi) > 1 {
		forwardStep(geom, nu, x, 1, phi, phi1)
	}
}

func cosK(geom Curvature, x float64) float64 {
	switch geom {
	case Closed:
		return math.Cos(x)
	case Open:
		return math.Cosh(x)
	default:
		return 1
	}
}

// forwardStep advances the recursion from (l-2,l-1) to l using the
// three-term relation
//
//	sqrt(nu^2-K l^2) Phi_l = (2l-1) cotK(x) Phi_{l-1} - sqrt(nu^2-K(l-1)^2) Phi_{l-2}
//
// with K = +1/0/-1 for Closed/Flat/Open. At l=1 the l-2 term is absent
// and Phi_1 is instead obtained from the l=0 Sturm-Liouville relation
// Phi_1 = -Phi_0' / sqrt(nu^2 - K).
func forwardStep(geom Curvature, nu, x float64, l int, phi, phi1 []float64) {
	K := float64(geom)
	if l == 1 {
		denom := math.Sqrt(math.Max(nu*nu-K, 1e-300))
		phi[1] = -phi1[0] / denom
		phi1[1] = denom*phi[0] - float64(2)*cotK(geom, x)*phi[1]
		return
	}
	denomL := math.Sqrt(math.Max(nu*nu-K*float64(l*l), 1e-300))
	denomLm1 := math.Sqrt(math.Max(nu*nu-K*float64((l-1)*(l-1)), 1e-300))
	phi[l] = ((2*float64(l)-1)*cotK(geom, x)*phi[l-1] - denomLm1*phi[l-2]) / denomL
	phi1[l] = denomL*phi[l-1] - float64(l+1)*cotK(geom, x)*phi[l]
}

// millerBackward fills ell in (turning, lMax] by downward recursion from
// an arbitrary seed at lMax+buffer and normalizing against the forward
// value already computed at l=turning, mirroring
// species/kernel.go's Miller-recurrence stabilization for the WKB-forbidden
// region where forward recursion is unstable.
func millerBackward(geom Curvature, nu, x float64, turning, lMax int, phi, phi1 []float64) {
	buffer := 16
	hi := lMax + buffer
	tmp := make([]float64, hi+1)
	tmp[hi] = 0
	tmp[hi-1] = 1e-300
	K := float64(geom)
	for l := hi - 1; l >= 1; l-- {
		denomL := math.Sqrt(math.Max(nu*nu-K*float64(l*l), 1e-300))
		denomLp1 := math.Sqrt(math.Max(nu*nu-K*float64((l+1)*(l+1)), 1e-300))
		tmp[l-1] = ((2*float64(l)+1)*cotK(geom, x)*tmp[l] - denomLp1*tmp[l+1]) / denomL
	}
	if turning < 0 {
		turning = 0
	}
	if tmp[turning] == 0 {
		// pathological column (should not occur for a well-formed grid);
		// leave the already-computed forward values in place.
		return
	}
	scale := phi[turning] / tmp[turning]
	for l := turning + 1; l <= lMax; l++ {
		phi[l] = tmp[l] * scale
	}
	for l := turning + 1; l <= lMax; l++ {
		denomL := math.Sqrt(math.Max(nu*nu-K*float64(l*l), 1e-300))
		phi1[l] = denomL*phi[l-1] - float64(l+1)*cotK(geom, x)*phi[l]
	}
}

func firstAboveThreshold(col []float64, thresh float64) int {
	for i := len(col) - 1; i >= 0; i-- {
		if math.Abs(col[i]) >= thresh {
			return i
		}
	}
	return 0
}
