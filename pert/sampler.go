// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pert

import (
	"math"

	"github.com/cpmech/goboltz/background"
	"github.com/cpmech/goboltz/config"
	"github.com/cpmech/goboltz/species"
)

// SourceKind enumerates the per-type source-function columns of the
// dense S[mode][ic][source-type][tau][k] table (spec §1's output).
type SourceKind int

const (
	SourceTemperature SourceKind = iota
	SourcePolarization
	SourceLensing
	SourceNcDensity
	SourceNcRSD
	SourceNcLens
	SourceNcGR
	numSourceKinds
)

// NumSourceKinds is the exported source-kind count, for packages outside
// pert (transfer's per-type regrouping) that need to range over every
// kind without reaching into the unexported sentinel.
const NumSourceKinds = int(numSourceKinds)

// Sample is one source tuple: every enabled source-type's value at one
// (tau, k) point, recorded by Sampler.Record at each source-grid tau.
type Sample struct {
	Tau    float64
	Values [numSourceKinds]float64
	Have   [numSourceKinds]bool
}

// Sampler accumulates one Sample per source-grid tau for a single
// (mode, ic, k) task, to be handed to the transfer stage as one row of
// S(k, tau) (§4.P's "emit a source tuple into S" responsibility). It
// tracks the visibility-weighted optical depth and the previous step's
// metric potentials so the line-of-sight integrated Sachs-Wolfe term
// can be formed from a simple backward difference -- the ODE's own
// Derivatives already computes the exact metric derivative, but the
// sampler only sees landed steps, not the solver's internal stages.
type Sampler struct {
	sys     *System
	enables config.SourceEnables

	rows []Sample

	prevPsi, prevPhi float64
	prevTau          float64
	opticalDepth     float64
	havePrev         bool
}

// NewSampler builds a sampler bound to sys's roster and the configured
// source enables.
func NewSampler(sys *System, enables config.SourceEnables) *Sampler {
	return &Sampler{sys: sys, enables: enables}
}

// Record computes and stores one source tuple at tau from the current
// integration vector y, meant to be passed as the onStep callback to
// Integrator.Solve so every accepted landing on a source-grid tau emits
// exactly one row (§4.P.3).
func (sp *Sampler) Record(tau float64, y []float64) error {
	s := sp.sys
	bgState, err := s.BackgroundProvider.AtTau(tau, background.Normal, &s.lastBg)
	if err != nil {
		return err
	}
	z := 0.0
	if bgState.A > 0 {
		z = 1/bgState.A - 1
	}
	thState, err := s.ThermoProvider.AtZ(z, &s.lastTh)
	if err != nil {
		return err
	}

	photonSpan, hasPhoton := s.Layout.Lookup(species.Photon.String())
	baryonSpan, hasBaryon := s.Layout.Lookup(species.Baryon.String())
	metricSpan, _ := s.Layout.Lookup(fieldMetric)

	var deltaGamma, thetaB, shearGamma, polMono float64
	if hasPhoton {
		yg := y[photonSpan.Offset : photonSpan.Offset+photonSpan.Length]
		deltaGamma = yg[0]
		if photonSpan.Length > 2 {
			shearGamma = yg[2] / 2
		}
		if photonSpan.Length > 9 {
			polMono = yg[9] // first polarization multipole, just past the LmaxG+1 temperature entries
		}
	}
	if hasBaryon {
		yb := y[baryonSpan.Offset : baryonSpan.Offset+baryonSpan.Length]
		if baryonSpan.Length > 1 {
			thetaB = yb[1]
		}
	}

	etaOrPhi := y[metricSpan.Offset]
	var psi, phi float64
	if s.Gauge == config.Newtonian {
		phi = etaOrPhi
		psi = phi // refined within Derivatives' closure; the sampler only needs the landed-step value
	} else {
		phi = etaOrPhi
	}

	psiPrime, phiPrime := 0.0, 0.0
	if sp.havePrev && tau > sp.prevTau {
		dt := tau - sp.prevTau
		psiPrime = (psi - sp.prevPsi) / dt
		phiPrime = (phi - sp.prevPhi) / dt
		sp.opticalDepth += thState.Kappa1 * dt
	}
	sp.prevPsi, sp.prevPhi, sp.prevTau, sp.havePrev = psi, phi, tau, true
	visibility := thState.G
	expMinusKappa := math.Exp(-sp.opticalDepth)

	var smp Sample
	smp.Tau = tau

	if sp.enables.Temperature {
		// line-of-sight temperature source (Ma & Bertschinger / CLASS
		// form): the visibility-weighted monopole+potential term plus the
		// integrated Sachs-Wolfe term, with the Doppler term folded into
		// the visibility-weighted baryon velocity.
		smp.Values[SourceTemperature] = visibility*(deltaGamma/4+psi) + visibility*thetaB/ (s.K*s.K+1e-300) + expMinusKappa*(psiPrime+phiPrime)
		smp.Have[SourceTemperature] = true
	}
	if sp.enables.Polarization {
		smp.Values[SourcePolarization] = visibility * polMono
		smp.Have[SourcePolarization] = true
	}
	if sp.enables.Lensing {
		smp.Values[SourceLensing] = psi + phi
		smp.Have[SourceLensing] = true
	}
	if sp.enables.NcDensity {
		smp.Values[SourceNcDensity] = deltaGamma
		smp.Have[SourceNcDensity] = true
	}
	if sp.enables.NcRSD {
		smp.Values[SourceNcRSD] = shearGamma * (s.K * s.K)
		smp.Have[SourceNcRSD] = true
	}
	if sp.enables.NcLens {
		smp.Values[SourceNcLens] = psi + phi
		smp.Have[SourceNcLens] = true
	}
	if sp.enables.NcGR {
		smp.Values[SourceNcGR] = psiPrime - phiPrime
		smp.Have[SourceNcGR] = true
	}

	sp.rows = append(sp.rows, smp)
	return nil
}

// Rows returns every recorded sample, in increasing tau order.
func (sp *Sampler) Rows() []Sample { return sp.rows }
