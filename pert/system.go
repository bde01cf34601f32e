// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pert

import (
	"math"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/goboltz/approx"
	"github.com/cpmech/goboltz/background"
	"github.com/cpmech/goboltz/config"
	"github.com/cpmech/goboltz/species"
	"github.com/cpmech/goboltz/thermo"
)

// Builder constructs the species roster and integration-vector layout
// for a given configuration, mirroring the way gofem's fem.NewDomain
// assembles a roster of ele.Element from an inp.Simulation.
type Builder struct {
	Cfg *config.Config
}

// NewBuilder returns a roster builder bound to cfg.
func NewBuilder(cfg *config.Config) *Builder { return &Builder{Cfg: cfg} }

const (
	fieldMetric = "metric" // synchronous: [eta]; newtonian: [phi]
)

// BuildRoster allocates one species instance per enabled kind (the
// standard photon/baryon/cdm/ur set always; the dark-sector and ncdm
// species only when config.DarkSectorParams enables them) and lays out
// the integration vector at the roster's current (pre-schedule) sizes:
// one metric field first, then one field per roster member in
// registration order, per §3's IntegrationVector. The task driver
// rebuilds the layout with BuildLayout once it has applied the
// approximation schedule's initial state and again at every regime
// transition, since a species' NumEqs can shrink or grow once its
// TCA/RSA/fluid flag is set.
func (b *Builder) BuildRoster(gauge config.Gauge) ([]species.Species, *Layout, error) {
	var roster []species.Species

	add := func(sp species.Species) {
		roster = append(roster, sp)
	}

	add(species.NewPhotonSpecies(8))
	add(&species.BaryonSpecies{})
	add(&species.CDMSpecies{Newtonian: gauge == config.Newtonian})
	add(species.NewStreamingSpecies(species.UR, 8, 0))

	ds := b.Cfg.DarkSector
	if ds.UseIDR {
		lmax := ds.IDRLmax
		if lmax == 0 {
			lmax = 8
		}
		add(species.NewStreamingSpecies(species.IDR, lmax, 0))
		if ds.UseIDMDR {
			add(&species.IDMDRSpecies{Coupling: ds.IDMDRCoupling})
		}
	}

	if ds.UseDCDM {
		add(&species.DCDMSpecies{Gamma: ds.DCDMGamma})
		lmax := ds.DRLmax
		if lmax == 0 {
			lmax = 8
		}
		add(&species.DRSpecies{Lmax: lmax, Channels: []species.DecayChannel{{ParentIndex: 0, Rate: ds.DRRate}}})
	}

	if ds.UseNCDM {
		nq, lmax := ds.NCDMNQ, ds.NCDMLmax
		if nq == 0 {
			nq = 16
		}
		if lmax == 0 {
			lmax = 8
		}
		add(species.NewNCDMSpecies(nq, lmax))
	}

	if ds.UseFLD || b.Cfg.PPF.Use {
		add(&species.FLDSpecies{UsePPF: b.Cfg.PPF.Use, W: -1, Cs2: 1})
	}

	if ds.UseSCF {
		add(&species.SCFSpecies{MassSquared: ds.SCFMassSquared})
	}

	return roster, BuildLayout(roster), nil
}

// BuildLayout lays out the integration vector from the roster's current
// per-species NumEqs(false) sizes: one metric field first, then one
// field per roster member, per §3's IntegrationVector invariant. It is
// called once by BuildRoster and again by the task driver after every
// approximation-regime transition (species.PhotonSpecies.TCAOn,
// StreamingSpecies.RSAOn, ... having just been flipped by
// applyApproxState), since those flags change a species' NumEqs.
func BuildLayout(roster []species.Species) *Layout {
	layout := NewLayout()
	layout.Add(fieldMetric, 1)
	for _, sp := range roster {
		layout.Add(sp.Kind().String(), sp.NumEqs(false))
	}
	return layout
}

// applyApproxState mutates every roster member's approximation flag to
// match state, the same way System.RefreshSurrogates fills the
// surrogate values those flags make available to Derivs. Species whose
// NumEqs ignores its own field are unaffected; config.UFAScheme has no
// species-level collapse to drive yet (tracked gap, see DESIGN.md).
func applyApproxState(roster []species.Species, state approx.State) {
	for _, sp := range roster {
		switch s := sp.(type) {
		case *species.PhotonSpecies:
			s.TCAOn = state[approx.TCA]
		case *species.BaryonSpecies:
			s.TCAOn = state[approx.TCA]
		case *species.StreamingSpecies:
			if s.Kind() == species.IDR {
				s.RSAOn = state[approx.RSAIdr]
			} else {
				s.RSAOn = state[approx.RSA]
			}
		case *species.IDMDRSpecies:
			s.TCAOn = state[approx.TCAIdmDr]
		case *species.NCDMSpecies:
			s.FluidOn = state[approx.NCDMFA]
		}
	}
}

// System ties a roster, its layout, the background/thermo providers and
// the approximation schedule together into the single ODE right-hand
// side the integrator calls at every step (§4.P.3/§4.P.4). It is the
// orchestration workspace.go deliberately left for this file to own.
type System struct {
	Cfg      *config.Config
	Roster   []species.Species
	Layout   *Layout
	K, CurvK float64
	Gauge    config.Gauge

	BackgroundProvider background.Provider
	ThermoProvider      thermo.Provider
	lastBg              background.LastIndex
	lastTh              thermo.LastIndex

	// Surrogates refreshed by the approximation scheduler whenever a
	// regime transition turns TCA/RSA/PPF on (§3's Workspace, §4.P.2).
	// Derivatives reads these into the live Background.Extra map instead
	// of recomputing them, since outside their own regime they are by
	// construction not driven by a Boltzmann hierarchy that could supply
	// a better value.
	TCAShearG                       float64
	TCASlip                         float64
	RSADeltaUR, RSAThetaUR           float64
	RSADeltaIDR, RSAThetaIDR         float64
	SFld, GammaPrimeFld, DeltaRhoFld, RhoPThetaFld, DeltaPFld float64
}

// NewSystem assembles a System from a roster/layout built by Builder.
func NewSystem(cfg *config.Config, roster []species.Species, layout *Layout, k float64, bgP background.Provider, thP thermo.Provider) *System {
	return &System{
		Cfg: cfg, Roster: roster, Layout: layout, K: k, CurvK: cfg.K, Gauge: cfg.Gauge,
		BackgroundProvider: bgP, ThermoProvider: thP,
	}
}

// Derivatives is the master right-hand side dy/dtau = f(tau, y), called
// once per evolver step (and internally several times per step by an
// implicit solver's Newton iterations). It: (1) queries the external
// background/thermo collaborators at tau; (2) builds each species' live
// Background.Extra cross-coupling map from the *current* y, never a
// stale snapshot; (3) runs a first stress-energy fold excluding the
// scalar field to solve the Einstein closure; (4) calls each species'
// Derivs, finishing with the scalar field so its Contribute (used only
// by the next step's fold) sees the already-closed metric.
func (s *System) Derivatives(tau float64, y, dy []float64) error {
	bgState, err := s.BackgroundProvider.AtTau(tau, background.Normal, &s.lastBg)
	if err != nil {
		return chk.Err("pert: background lookup failed at tau=%v:\n%v", tau, err)
	}
	z := 0.0
	if bgState.A > 0 {
		z = 1/bgState.A - 1
	}
	thState, err := s.ThermoProvider.AtZ(z, &s.lastTh)
	if err != nil {
		return chk.Err("pert: thermodynamics lookup failed at z=%v (tau=%v):\n%v", z, tau, err)
	}
	if err := thermo.SanityCheckAH(tau, bgState.A*bgState.H, thState.Xe); err != nil {
		return err
	}

	k2 := s.K * s.K
	th := species.Thermo{Kappa1: thState.Kappa1, Kappa2: thState.Kappa2, Kappa3: thState.Kappa3, Cb2: thState.Cb2, Xe: thState.Xe}

	ySlices := make(map[species.Kind][]float64, len(s.Roster))
	spans := make(map[species.Kind]Span, len(s.Roster))
	for _, sp := range s.Roster {
		sp2, ok := s.Layout.Lookup(sp.Kind().String())
		if !ok {
			return chk.Err("pert: roster species %v has no layout span", sp.Kind())
		}
		spans[sp.Kind()] = sp2
		ySlices[sp.Kind()] = y[sp2.Offset : sp2.Offset+sp2.Length]
	}
	metricSpan, _ := s.Layout.Lookup(fieldMetric)
	etaOrPhi := y[metricSpan.Offset]

	bgs := s.liveBackgrounds(bgState, ySlices, th)

	// first pass: metric with S2/K2 only, to seed the shear-dependent fold.
	seed := species.Metric{K2: k2}
	if s.CurvK != 0 {
		seed.S2 = math.Sqrt(math.Max(1-2*s.CurvK/k2, 1e-12))
	} else {
		seed.S2 = 1
	}
	tot := TotalStressEnergy(s.Roster, ySlices, bgs, seed)
	met, metricDeriv := EinsteinClosure(s.Gauge, s.CurvK, k2, bgState.A, bgState.A*bgState.H, etaOrPhi, tot)
	dy[metricSpan.Offset] = metricDeriv

	// refresh live cross-coupling values that depend on the now-closed
	// metric (none currently do; kept as an explicit seam since PPF
	// companions and TCA surrogates are metric-dependent in richer
	// closures) before calling Derivs.
	for _, sp := range s.Roster {
		if dr, ok := sp.(*species.DRSpecies); ok {
			// DCDM carries no momentum-dependence, so its decay kernel is
			// evaluated at the collinear limit x=q/eps->1 (§4.P.4); a
			// momentum-resolved parent (a decaying ncdm species) would
			// instead refresh one kernel per q-bin here.
			refreshDecayKernel(dr, 1.0)
		}
		ysp := ySlices[sp.Kind()]
		sp2 := spans[sp.Kind()]
		dysp := dy[sp2.Offset : sp2.Offset+sp2.Length]
		if err := sp.Derivs(dysp, ysp, tau, bgs[sp.Kind()], th, met); err != nil {
			return chk.Err("pert: species %v Derivs failed at tau=%v:\n%v", sp.Kind(), tau, err)
		}
	}
	return nil
}

// refreshDecayKernel recomputes every decay channel's F_l(x) kernel for
// the current x, mutating the species in place the way the approximation
// scheduler mutates TCA/RSA surrogates at a regime transition.
func refreshDecayKernel(dr *species.DRSpecies, x float64) {
	kernel := species.DecayKernel(dr.Lmax, x)
	for i := range dr.Channels {
		dr.Channels[i].Kernel = kernel
	}
}

// liveBackgrounds builds the per-species Background (density, pressure,
// and the Extra cross-coupling map) from the external background state
// and the *current* y, so every Extra value read by a species' Derivs
// (theta_gamma, theta_b, R, idr_theta, rsa_delta/theta, ...) reflects
// this step's state rather than a value frozen at a regime transition.
func (s *System) liveBackgrounds(bgState background.State, ySlices map[species.Kind][]float64, th species.Thermo) map[species.Kind]species.Background {
	out := make(map[species.Kind]species.Background, len(s.Roster))

	var thetaGamma, thetaB, rhoGamma, rhoBaryon, thetaIdr float64
	if yg, ok := ySlices[species.Photon]; ok && len(yg) > 1 {
		thetaGamma = 0.75 * (s.K * s.K) * yg[1]
	}
	if yb, ok := ySlices[species.Baryon]; ok && len(yb) > 1 {
		thetaB = yb[1]
	}
	rhoGamma = bgState.Rho[species.Photon.String()]
	rhoBaryon = bgState.Rho[species.Baryon.String()]
	if yi, ok := ySlices[species.IDR]; ok && len(yi) > 1 {
		thetaIdr = 0.75 * (s.K * s.K) * yi[1]
	}

	R := 0.0
	if rhoGamma != 0 {
		R = 0.75 * rhoBaryon / rhoGamma
	}

	for _, sp := range s.Roster {
		kind := sp.Kind()
		bg := species.Background{
			A:    bgState.A,
			AH:   bgState.A * bgState.H,
			Rho:  bgState.Rho[kind.String()],
			P:    bgState.P[kind.String()],
			DRho: bgState.DRho[kind.String()],
			Extra: map[string]float64{
				"R":              R,
				"theta_gamma":    thetaGamma,
				"theta_b":        thetaB,
				"idr_theta":      thetaIdr,
				"tca_shear_g":    s.TCAShearG,
				"tca_slip":       s.TCASlip,
				"rsa_delta":      s.RSADeltaUR,
				"rsa_theta":      s.RSAThetaUR,
				"S_fld":          s.SFld,
				"c_gamma":        s.GammaPrimeFld,
				"delta_rho_fld":  s.DeltaRhoFld,
				"rhop_theta_fld": s.RhoPThetaFld,
				"delta_p_fld":    s.DeltaPFld,
			},
		}
		if kind == species.IDR {
			bg.Extra["rsa_delta"] = s.RSADeltaIDR
			bg.Extra["rsa_theta"] = s.RSAThetaIDR
			if yidm, ok := ySlices[species.IDMDR]; ok && len(yidm) > 1 {
				bg.Extra["idm_theta_over_norm"] = yidm[1]
			}
		}
		if kind == species.DR {
			// decay-radiation species need every decaying parent's
			// monopole phase-space perturbation; only a DCDM parent is
			// wired here (an ncdm species is never passed as a parent).
			var parents []float64
			if ydcdm, ok := ySlices[species.DCDM]; ok && len(ydcdm) > 0 {
				parents = append(parents, ydcdm[0])
			}
			bg.ParentPsi0 = parents
		}
		out[kind] = bg
	}
	return out
}
