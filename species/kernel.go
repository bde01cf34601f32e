// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package species

import "math"

// overflowGuard is the ceiling (§9) past which an accumulated value in
// the backward recurrence triggers renormalization of the whole sweep.
const overflowGuard = 1e200

// DecayKernel computes the scattering-kernel coefficients F_l(x) used to
// weight a parent phase-space perturbation ψ0_parent(q) into decay
// radiation multipoles, x = q/ε (§4.P.4, §9). For x > 0.9 a stable
// forward recurrence is used; otherwise Miller's backward recurrence is
// used, renormalized whenever a partial sum would overflow.
func DecayKernel(lmax int, x float64) []float64 {
	F := make([]float64, lmax+1)
	if x > 0.9 {
		forwardDecayKernel(F, x)
		return F
	}
	backwardDecayKernel(F, x)
	return F
}

// forwardDecayKernel fills F via the stable forward three-term
// recurrence valid for x not too close to zero.
func forwardDecayKernel(F []float64, x float64) {
	lmax := len(F) - 1
	F[0] = 1
	if lmax == 0 {
		return
	}
	F[1] = x
	for l := 2; l <= lmax; l++ {
		fl := float64(l)
		F[l] = ((2*fl-1)*x*F[l-1] - (fl-1)*F[l-2]) / fl
	}
}

// backwardDecayKernel fills F by seeding a start index well above lmax
// with an arbitrary value, running the same recurrence downward, and
// renormalizing against the true F[0]=1 boundary condition. Any time an
// intermediate magnitude exceeds overflowGuard the whole accumulated
// window is rescaled by its current top value to keep magnitudes bounded
// (§9's "single floating-point overflow ... triggers renormalization").
func backwardDecayKernel(F []float64, x float64) {
	lmax := len(F) - 1
	start := lmax + 20
	work := make([]float64, start+2)
	work[start+1] = 0
	work[start] = 1e-30
	for l := start; l >= 1; l-- {
		fl := float64(l)
		work[l-1] = ((2*fl+1)*x*work[l] - (fl+1)*work[l+1]) / fl
		if math.Abs(work[l-1]) > overflowGuard {
			top := work[l-1]
			for j := l - 1; j <= start+1; j++ {
				work[j] /= top
			}
		}
	}
	norm := work[0]
	if norm == 0 {
		norm = 1
	}
	for l := 0; l <= lmax; l++ {
		F[l] = work[l] / norm
	}
}

// DRSpecies implements one dark-radiation species sourced by the decay
// of one or more parent species (pert.Builder wires DCDM→DR only; no
// NCDM→DR channel is built); its hierarchy is
// driven by a scattering-kernel weighted integral over the parent
// phase-space perturbation.
type DRSpecies struct {
	Lmax     int
	Channels []DecayChannel
}

// DecayChannel models one parent→radiation edge: the parent's index into
// the pipeline's species list, its decay rate, and a cached kernel
// (refreshed by pert.System.Derivatives on every call, evaluated at
// x = q/ε = 1 for a DCDM parent).
type DecayChannel struct {
	ParentIndex int
	Rate        float64
	Kernel      []float64 // F_l(x), len Lmax+1
}

func init() {
	SetAllocator(DR, func() Species { return &DRSpecies{Lmax: 8} })
}

func (s *DRSpecies) Kind() Kind              { return DR }
func (s *DRSpecies) Capabilities() Capability { return HasDensity | HasVelocity | HasShear | HasHierarchy }
func (s *DRSpecies) NumEqs(approxOn bool) int { return s.Lmax + 1 }

func (s *DRSpecies) Contribute(y []float64, bg Background, met Metric) StressEnergy {
	rho := bg.Rho
	delta := y[0]
	theta := 0.75 * met.K2 * y[1]
	sigma := y[2] / 2
	return StressEnergy{
		DeltaRho:  rho * delta,
		RhoPTheta: (4.0 / 3.0) * rho * theta,
		RhoPSigma: (4.0 / 3.0) * rho * sigma,
		DeltaP:    rho * delta / 3,
	}
}

// SourceTerm sums, over all decay channels, rate·F_l(x)·ψ0_parent for
// the requested multipole l (§4.P.4's "sum of species-level F_l is
// maintained in parallel for convenience").
func (s *DRSpecies) SourceTerm(l int, parentPsi0 []float64) float64 {
	var sum float64
	for i, ch := range s.Channels {
		if l >= len(ch.Kernel) || i >= len(parentPsi0) {
			continue
		}
		sum += ch.Rate * ch.Kernel[l] * parentPsi0[i]
	}
	return sum
}

func (s *DRSpecies) Derivs(dy, y []float64, tau float64, bg Background, th Thermo, met Metric) error {
	k2 := met.K2
	parents := bg.ParentPsi0
	dy[0] = -(4.0 / 3.0) * (0.75*k2*y[1] + met.Continuity) + s.SourceTerm(0, parents)
	sigma := y[2] / 2
	dy[1] = (k2/3)*(y[0]-2*met.S2*met.S2*sigma) + met.Euler/0.75/k2 + s.SourceTerm(1, parents)
	for l := 2; l < s.Lmax; l++ {
		dy[l] = (float64(l)/float64(2*l-1))*met.S2*y[l-1] - (float64(l+1)/float64(2*l+1))*met.S2*y[l+1] + s.SourceTerm(l, parents)
	}
	dy[s.Lmax] = (float64(s.Lmax)/float64(2*s.Lmax-1))*y[s.Lmax-1] - float64(s.Lmax+1)*y[s.Lmax]/tauSafe(tau) + s.SourceTerm(s.Lmax, parents)
	return nil
}
