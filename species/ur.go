// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package species

func init() {
	SetAllocator(UR, func() Species { return NewStreamingSpecies(UR, 8, 0) })
}

// StreamingSpecies implements the free-streaming radiation hierarchy
// shared by ultra-relativistic neutrinos (UR) and, with a non-zero
// opacity, interacting dark radiation (IDR): multipoles F_0..Lmax, no
// polarization. RSA collapses it to an algebraic surrogate (rsa_δ,
// rsa_θ carried in Background.Extra by the approximation scheduler).
type StreamingSpecies struct {
	kind    Kind
	Lmax    int
	Opacity float64 // non-zero only for idr-idm_dr coupling; 0 for UR
	RSAOn   bool
}

// NewStreamingSpecies allocates a free-streaming hierarchy species.
func NewStreamingSpecies(kind Kind, lmax int, opacity float64) *StreamingSpecies {
	return &StreamingSpecies{kind: kind, Lmax: lmax, Opacity: opacity}
}

func (s *StreamingSpecies) Kind() Kind { return s.kind }

func (s *StreamingSpecies) Capabilities() Capability {
	c := HasDensity | HasVelocity | HasShear | HasHierarchy
	if s.Opacity != 0 || s.kind == IDR {
		c |= IsInteracting
	}
	return c
}

func (s *StreamingSpecies) NumEqs(approxOn bool) int {
	if s.RSAOn {
		return 0
	}
	return s.Lmax + 1
}

func (s *StreamingSpecies) Contribute(y []float64, bg Background, met Metric) StressEnergy {
	if s.RSAOn {
		delta := bg.Extra["rsa_delta"]
		theta := bg.Extra["rsa_theta"]
		rho := bg.Rho
		return StressEnergy{DeltaRho: rho * delta, RhoPTheta: (4.0 / 3.0) * rho * theta, DeltaP: rho * delta / 3}
	}
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

func (s *StreamingSpecies) Derivs(dy, y []float64, tau float64, bg Background, th Thermo, met Metric) error {
	if s.RSAOn {
		return nil
	}
	k2 := met.K2
	dy[0] = -(4.0 / 3.0) * (0.75*k2*y[1] + met.Continuity)
	sigma := y[2] / 2
	dy[1] = (k2/3)*(y[0]-2*met.S2*met.S2*sigma) + met.Euler/0.75/k2 - s.Opacity*(y[1]-bg.Extra["idm_theta_over_norm"])
	for l := 2; l < s.Lmax; l++ {
		dy[l] = (float64(l)/float64(2*l-1))*met.S2*y[l-1] - (float64(l+1)/float64(2*l+1))*met.S2*y[l+1] - s.Opacity*y[l]
	}
	dy[s.Lmax] = (float64(s.Lmax)/float64(2*s.Lmax-1))*y[s.Lmax-1] - float64(s.Lmax+1)*y[s.Lmax]/tauSafe(tau) - s.Opacity*y[s.Lmax]
	return nil
}
