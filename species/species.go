// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package species implements the polymorphic stress-energy contributors
// of the perturbation integrator: photons, baryons, cold dark matter,
// neutrinos, interacting dark radiation/matter, decaying dark matter,
// non-cold dark matter, dark energy fluid and scalar field. Each variant
// is a tagged struct (discriminant + payload) rather than a class
// hierarchy, and contributes to the total stress-energy via an additive
// fold, mirroring gofem's ele.Element / mdl/solid.Model pattern.
package species

import "github.com/cpmech/gosl/chk"

// Kind identifies a species variant.
type Kind int

const (
	Photon Kind = iota
	Baryon
	CDM
	UR
	IDR
	IDMDR
	DCDM
	DR
	NCDM
	FLD
	SCF
)

func (k Kind) String() string {
	switch k {
	case Photon:
		return "photon"
	case Baryon:
		return "baryon"
	case CDM:
		return "cdm"
	case UR:
		return "ur"
	case IDR:
		return "idr"
	case IDMDR:
		return "idm_dr"
	case DCDM:
		return "dcdm"
	case DR:
		return "dr"
	case NCDM:
		return "ncdm"
	case FLD:
		return "fld"
	case SCF:
		return "scf"
	}
	return "unknown"
}

// Capability is a bitmask describing what a species supports; the stress
// energy fold and approximation scheduler consult this rather than type
// switches, mirroring ele.Element's narrow marker interfaces.
type Capability uint

const (
	HasDensity Capability = 1 << iota
	HasVelocity
	HasShear
	HasHierarchy
	CanDecay
	IsInteracting
)

func (c Capability) Has(bit Capability) bool { return c&bit != 0 }

// StressEnergy is the additive contribution of one species at one
// instant: δρ, (ρ+p)θ, (ρ+p)σ, δp. Species.Contribute fills this struct;
// pert.TotalStressEnergy folds all active species' contributions.
type StressEnergy struct {
	DeltaRho   float64 // δρ
	RhoPTheta  float64 // (ρ+p)θ
	RhoPSigma  float64 // (ρ+p)σ
	DeltaP     float64 // δp
}

// Add accumulates another contribution in place.
func (s *StressEnergy) Add(o StressEnergy) {
	s.DeltaRho += o.DeltaRho
	s.RhoPTheta += o.RhoPTheta
	s.RhoPSigma += o.RhoPSigma
	s.DeltaP += o.DeltaP
}

// Background summarizes the background quantities a species needs at a
// given τ to evaluate its contribution and derivatives: scale factor,
// conformal Hubble, species density/pressure and their derivatives. This
// is the subset of the external background_at_tau(...) output (§6)
// relevant to perturbation equations.
type Background struct {
	A     float64 // scale factor
	AH    float64 // conformal Hubble a*H
	Rho   float64 // background density of this species
	P     float64 // background pressure of this species
	DRho  float64 // dρ/dτ (for decaying species)
	Extra map[string]float64

	// ParentPsi0 carries, for decay-radiation species only, the parent
	// species' monopole phase-space perturbation(s) ψ0_parent(q) needed
	// by the scattering-kernel source term (§4.P.4).
	ParentPsi0 []float64
}

// Thermo summarizes the thermodynamics quantities needed by interacting
// species (baryons, photons, idm/idr): opacity and its derivatives.
type Thermo struct {
	Kappa1 float64 // κ′ Thomson opacity
	Kappa2 float64 // κ″
	Kappa3 float64 // κ‴
	Cb2    float64 // baryon sound speed squared
	Xe     float64
}

// Metric carries the algebraic metric perturbations computed by the
// Einstein closure (§4.P.4), passed into every species' derivative
// evaluation.
type Metric struct {
	Psi       float64 // newtonian ψ
	PhiPrime  float64 // newtonian ϕ′ (synchronous: unused)
	Eta       float64 // synchronous η
	HPrime    float64 // synchronous h′
	Continuity float64 // metric term entering density-continuity equations
	Euler      float64 // metric term entering velocity-Euler equations
	K2         float64 // k²
	S2         float64 // s₂ = sqrt(1-2K/k²) curvature factor
}

// Species is the interface every stress-energy contributor implements.
// Each species reports capability bits via Capabilities(), in the spirit
// of ele.Element's companion interfaces (WithIntVars, CanExtrapolate,
// ...); pert's stress-energy fold and approximation scheduler do not read
// them, dispatching on Kind() and on the concrete type instead.
type Species interface {
	Kind() Kind
	Capabilities() Capability

	// NumEqs returns how many scalar ODE degrees of freedom this species
	// occupies in the current approximation regime (may depend on which
	// approximations are active, e.g. NCDM fluid-approx collapses a
	// per-momentum hierarchy to 3 moments).
	NumEqs(approxOn bool) int

	// Contribute evaluates this species' stress-energy contribution at
	// (τ, y-slice, background) given the already-computed metric (or,
	// for shear-dependent species summed before scalar-field terms, the
	// psi-free metric; see pert.TotalStressEnergy ordering note, §4.P.4).
	Contribute(y []float64, bg Background, met Metric) StressEnergy

	// Derivs evaluates dy/dτ for this species' slice of the integration
	// vector, given the metric closure and any companion species data
	// (e.g. baryon needs photon θ_γ, κ′).
	Derivs(dy, y []float64, tau float64, bg Background, th Thermo, met Metric) error
}

// New returns a newly allocated species instance from the registry.
func New(kind Kind) (Species, error) {
	alloc, ok := allocators[kind]
	if !ok {
		return nil, chk.Err("species: no allocator registered for kind %q", kind)
	}
	return alloc(), nil
}

// SetAllocator registers a constructor for a species kind; panics on a
// duplicate registration, mirroring ele.SetAllocator.
func SetAllocator(kind Kind, fcn func() Species) {
	if _, ok := allocators[kind]; ok {
		chk.Panic("species: allocator for kind %q already registered", kind)
	}
	allocators[kind] = fcn
}

var allocators = make(map[Kind]func() Species)
