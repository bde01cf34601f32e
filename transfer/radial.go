// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transfer

import (
	"math"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/goboltz/hyper"
)

// RadialKind enumerates the eleven radial-function families of §4.T.4.
type RadialKind int

const (
	ScalarT0 RadialKind = iota
	ScalarT1
	ScalarT2
	ScalarE
	VectorT1
	VectorT2
	VectorE
	VectorB
	TensorT2
	TensorE
	TensorB
	NcRSDRadial
)

// sFactor returns s_n = sqrt(1 - nK/k^2), the curvature rescaling shared
// by every radial family in §4.T.4.
func sFactor(n int, curvK, k float64) float64 {
	if k == 0 {
		return 1
	}
	return math.Sqrt(math.Max(1-float64(n)*curvK/(k*k), 1e-12))
}

// evalPhi fetches (Φ, Φ′, Φ″) at x for l from an HIS-like table (either
// hyper.Table for curved geometry or hyper.FlatShared for flat),
// abstracted behind this tiny interface so Radial does not care which
// one backs a given task.
type phiSource interface {
	Eval(l int, x float64) (phi, phi1, phi2 float64, err error)
}

// Radial evaluates the radial function named by kind at (l, x), scaled
// by curvature factors and k, per §4.T.4's eleven families. rescaleArg
// is the √|K|/k (or equivalent) argument-rescaling factor the spec
// names explicitly for T1/T2; it is 1 in flat space.
func Radial(kind RadialKind, src phiSource, l int, x, k, curvK float64) (float64, error) {
	phi, phi1, phi2, err := src.Eval(l, x)
	if err != nil {
		return 0, chk.Err("transfer: radial function evaluation failed:\n%v", err)
	}
	rescaleArg := 1.0
	if curvK != 0 && k != 0 {
		rescaleArg = math.Sqrt(math.Abs(curvK)) / k
	}
	s0 := sFactor(0, curvK, k)
	s1 := sFactor(1, curvK, k)
	s2 := sFactor(2, curvK, k)
	cotK := 0.0
	cscK := 0.0
	if x != 0 {
		if curvK == 0 {
			cotK = 1 / x
			cscK = 1 / x
		} else if curvK < 0 {
			cotK = 1 / math.Tanh(x)
			cscK = 1 / math.Sinh(x)
		} else {
			cscK = 1 / math.Sin(x)
		}
	}

	switch kind {
	case ScalarT0:
		return phi, nil
	case ScalarT1:
		return rescaleArg * phi1, nil
	case ScalarT2:
		num := 3*math.Abs(curvK)/(k*k)*phi2*rescaleArg*rescaleArg + phi
		return num / (2 * s2), nil
	case ScalarE:
		lp := float64(l)
		norm := math.Sqrt(3.0 / 8.0 * (lp + 2) * (lp + 1) * lp * (lp - 1))
		return norm * cscK * cscK * phi / s2, nil
	case VectorT1:
		return s1 * (phi1 + cotK*phi), nil
	case VectorT2:
		return s1 * s0 * cscK * phi, nil
	case VectorE:
		return s1 * (cotK*phi - phi1), nil
	case VectorB:
		return s1 * cscK * phi, nil
	case TensorT2:
		return s2 * s1 * s0 * cscK * cscK * phi, nil
	case TensorE:
		return s2 * s1 * (phi2 + 4*cotK*phi1 - 2*(1-cotK*cotK)*phi), nil
	case TensorB:
		return 2 * s2 * s1 * (phi1 + cotK*phi), nil
	case NcRSDRadial:
		return math.Abs(curvK) / (k * k) * phi2 * rescaleArg * rescaleArg, nil
	default:
		return 0, chk.Err("transfer: unknown radial function kind %v", kind)
	}
}

// RescaleAmp blends a polynomial in (χ − χ_tp)·atan(ℓ/ν) with a
// singularity-tamed ceiling/floor, the flat-approximation-regime
// amplitude correction named in §4.T.4's closing paragraph. chiTp is
// the turning-point χ recorded by the HIS table for this ℓ.
func RescaleAmp(chi, chiTp float64, l int, nu float64) float64 {
	if nu == 0 {
		return 1
	}
	arg := (chi - chiTp) * math.Atan(float64(l)/nu)
	amp := 1 + 0.5*arg - 0.125*arg*arg
	if amp > 2 {
		return 2
	}
	if amp < 0.1 {
		return 0.1
	}
	return amp
}
