// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package species

func init() {
	SetAllocator(Photon, func() Species { return NewPhotonSpecies(8) })
}

// PhotonSpecies implements the photon Boltzmann hierarchy with E-mode
// polarization, truncated at LmaxG (intensity) and LmaxPol (polarization).
// Layout within its y-slice: F_0..F_LmaxG (temperature multipoles),
// G_0..G_LmaxPol (E-polarization multipoles).
type PhotonSpecies struct {
	LmaxG   int
	LmaxPol int
	TCAOn   bool // when true, only F_0,F_1 are integrated (rest synthesized)
}

// NewPhotonSpecies allocates a photon species with the given hierarchy
// truncation for both temperature and polarization (CLASS uses the same
// default for both unless overridden).
func NewPhotonSpecies(lmax int) *PhotonSpecies {
	return &PhotonSpecies{LmaxG: lmax, LmaxPol: lmax}
}

func (s *PhotonSpecies) Kind() Kind { return Photon }

func (s *PhotonSpecies) Capabilities() Capability {
	return HasDensity | HasVelocity | HasShear | HasHierarchy | IsInteracting
}

func (s *PhotonSpecies) NumEqs(approxOn bool) int {
	if approxOn { // RSA: photons are algebraic, not integrated
		return 0
	}
	if s.TCAOn { // TCA: only monopole+dipole carried, rest are surrogates
		return 2
	}
	return (s.LmaxG + 1) + (s.LmaxPol + 1)
}

// indices into the species' own y-slice
func (s *PhotonSpecies) iF(l int) int { return l }
func (s *PhotonSpecies) iG(l int) int { return s.LmaxG + 1 + l }

// sigma returns the photon shear σ_γ = F_2/2 from the hierarchy, or from
// a tight-coupling surrogate when TCA is active (caller supplies it via
// bg.Extra["tca_shear_g"] in that case).
func (s *PhotonSpecies) sigma(y []float64, bg Background) float64 {
	if s.TCAOn {
		return bg.Extra["tca_shear_g"]
	}
	return y[s.iF(2)] / 2
}

func (s *PhotonSpecies) Contribute(y []float64, bg Background, met Metric) StressEnergy {
	rho := bg.Rho
	delta := y[s.iF(0)]
	theta := 0.75 * met.K2 * y[s.iF(1)] // θ_γ = (3/4) k² F_1 in this package's F_1 normalization
	sigma := s.sigma(y, bg)
	return StressEnergy{
		DeltaRho:  rho * delta,
		RhoPTheta: (4.0 / 3.0) * rho * theta,
		RhoPSigma: (4.0 / 3.0) * rho * sigma,
		DeltaP:    rho * delta / 3,
	}
}

func (s *PhotonSpecies) Derivs(dy, y []float64, tau float64, bg Background, th Thermo, met Metric) error {
	k2 := met.K2
	kappa1 := th.Kappa1

	if s.TCAOn {
		// Tight-coupling: only the monopole and a slip-corrected dipole
		// are integrated; higher multipoles are synthesized surrogates
		// computed by the approximation scheduler at transition and
		// consumed read-only here (bg.Extra carries theta_b, slip).
		thetaB := bg.Extra["theta_b"]
		slip := bg.Extra["tca_slip"]
		thetaGamma := 0.75 * k2 * y[s.iF(1)]
		dy[s.iF(0)] = -(4.0 / 3.0) * (thetaGamma + met.Continuity)
		// dθ_γ/dτ combines the Euler equation with the slip correction,
		// then θ_γ' is converted back to the F_1' normalization.
		dThetaGamma := k2*(y[s.iF(0)]/4) + met.Euler + kappa1*(thetaB-thetaGamma) + slip
		dy[s.iF(1)] = dThetaGamma / (0.75 * k2)
		return nil
	}

	// full hierarchy, §4.P.4
	lmax := s.LmaxG
	dy[s.iF(0)] = -(4.0 / 3.0) * (0.75*k2*y[s.iF(1)] + met.Continuity)
	sigma := s.sigma(y, bg)
	dy[s.iF(1)] = (k2/3)*(y[s.iF(0)] - 2*met.S2*met.S2*sigma) + met.Euler/0.75/ (k2) + kappa1*(bg.Extra["theta_b"]/(0.75*k2)-y[s.iF(1)])
	for l := 2; l < lmax; l++ {
		pol := polKernel(l)
		dy[s.iF(l)] = (float64(l)/float64(2*l-1))*sqrtKFac(l, met)*y[s.iF(l-1)] -
			(float64(l+1)/float64(2*l+1))*sqrtKFac(l+1, met)*y[s.iF(l+1)] -
			kappa1*y[s.iF(l)]
		if l == 2 {
			dy[s.iF(l)] += kappa1 * 0.1 * pol * (y[s.iG(0)] + y[s.iG(2)])
		}
	}
	// closure at lmax
	dy[s.iF(lmax)] = (float64(lmax)/float64(2*lmax-1))*y[s.iF(lmax-1)] -
		(float64(lmax+1))*y[s.iF(lmax)]/tauSafe(tau) - kappa1*y[s.iF(lmax)]

	// polarization hierarchy, coupled to F_2 via the tensor-polarization
	// kernel P (Ma & Bertschinger style).
	plmax := s.LmaxPol
	dy[s.iG(0)] = -sqrtKFac(1, met)*y[s.iG(1)] - kappa1*(y[s.iG(0)]-0.5*(y[s.iF(2)]+y[s.iG(0)]+y[s.iG(2)]))
	for l := 1; l < plmax; l++ {
		dy[s.iG(l)] = (float64(l)/float64(2*l-1))*sqrtKFac(l, met)*y[s.iG(l-1)] -
			(float64(l+1)/float64(2*l+1))*sqrtKFac(l+1, met)*y[s.iG(l+1)] - kappa1*y[s.iG(l)]
	}
	dy[s.iG(plmax)] = (float64(plmax)/float64(2*plmax-1))*y[s.iG(plmax-1)] -
		(float64(plmax+1))*y[s.iG(plmax)]/tauSafe(tau) - kappa1*y[s.iG(plmax)]
	return nil
}

// polKernel returns the ℓ=2-only switch (1 at ℓ=2, 0 otherwise) that
// multiplies the 0.1 coefficient of the temperature/polarization
// coupling at the call site; kept as a function so a curvature
// generalization can replace the constant without touching call sites.
func polKernel(l int) float64 {
	if l == 2 {
		return 1.0
	}
	return 0.0
}

// sqrtKFac returns the curvature factor multiplying the ℓ recursion
// coefficient; in flat space it is 1.
func sqrtKFac(l int, met Metric) float64 {
	return met.S2
}

func tauSafe(tau float64) float64 {
	if tau <= 0 {
		return 1e-300
	}
	return tau
}
