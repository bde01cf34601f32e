// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pert

import (
	"math"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/goboltz/background"
	"github.com/cpmech/goboltz/config"
	"github.com/cpmech/goboltz/species"
)

// ICKind identifies one of the five scalar initial-condition families,
// or the tensor IC (§4.P.5: "all five scalar IC types are supported;
// only adiabatic is consistent with interacting DM/DR").
type ICKind int

const (
	ICAdiabatic ICKind = iota
	ICBaryonIso
	ICCdmIso
	ICNeutrinoDensityIso
	ICNeutrinoVelocityIso
	ICTensor
)

// InitialConditions fills y at tau_ini with the analytic series solution
// of the coupled equations, expanded to leading order in k*tau and
// omega*tau (omega = a*rho_m/sqrt(rho_r)), then gauge-transforms to
// newtonian by adding the scalar shift alpha solved from the constraint
// equation, per §4.P.5.
func InitialConditions(kind ICKind, sys *System, tauIni float64, curvature float64) ([]float64, error) {
	if kind != ICAdiabatic {
		for _, sp := range sys.Roster {
			if sp.Kind() == species.IDR || sp.Kind() == species.IDMDR {
				return nil, chk.Err("pert: initial condition %v is not consistent with interacting dark matter/radiation; only adiabatic is", kind)
			}
		}
	}

	bgState, err := sys.BackgroundProvider.AtTau(tauIni, background.Normal, &sys.lastBg)
	if err != nil {
		return nil, chk.Err("pert: cannot evaluate background at tau_ini=%v:\n%v", tauIni, err)
	}

	k := sys.K
	ktau := k * tauIni
	rhoR := bgState.Rho[species.Photon.String()] + bgState.Rho[species.UR.String()]
	rhoM := bgState.Rho[species.Baryon.String()] + bgState.Rho[species.CDM.String()]
	omega := 0.0
	if rhoR > 0 {
		omega = bgState.A * rhoM / math.Sqrt(rhoR)
	}
	omegaTau := omega * tauIni

	y := make([]float64, sys.Layout.Size)

	// curvature ripples through the leading-order amplitude via the
	// s2 factor; negligible at the order this expansion is valid for
	// (ktau, omegaTau << 1), so the flat-space adiabatic series is used
	// regardless of curvature sign, consistent with §4.P.5 naming only
	// kτ and ωτ as the small parameters.
	_ = curvature

	const C = -1.0 / 6.0 // curvature-perturbation normalization, adiabatic mode

	switch kind {
	case ICAdiabatic:
		setAdiabaticIC(y, sys.Layout, C, ktau, omegaTau)
	case ICBaryonIso:
		setBaryonIsoIC(y, sys.Layout, ktau)
	case ICCdmIso:
		setCdmIsoIC(y, sys.Layout, ktau)
	case ICNeutrinoDensityIso:
		setNeutrinoDensityIsoIC(y, sys.Layout, ktau, rhoR, bgState)
	case ICNeutrinoVelocityIso:
		setNeutrinoVelocityIsoIC(y, sys.Layout, ktau, rhoR, bgState)
	case ICTensor:
		// tensor IC carries only the transverse-traceless amplitude
		// (the metric field here doubles as h_T for tensor mode); no
		// scalar shift applies.
		return y, nil
	default:
		return nil, chk.Err("pert: unknown initial-condition kind %v", kind)
	}

	if sys.Gauge == config.Newtonian {
		applyNewtonianShift(y, sys.Layout, ktau)
	}
	return y, nil
}

// setAdiabaticIC is the standard adiabatic mode: all species share one
// curvature perturbation C to leading order. The metric entry is 2C, the
// photon and ur monopoles are -2C(1+0.4ωτ), the baryon and cdm monopoles
// are -1.5C(1+0.4ωτ) (3/4 of the radiation value), and the photon,
// baryon and ur dipoles are (2/3)C·kτ.
func setAdiabaticIC(y []float64, layout *Layout, C, ktau, omegaTau float64) {
	setField(y, layout, fieldMetric, 0, 2*C)
	setField(y, layout, species.Photon.String(), 0, -2*C*(1+0.4*omegaTau))
	setField(y, layout, species.Photon.String(), 1, (2.0/3.0)*C*ktau)
	setField(y, layout, species.Baryon.String(), 0, -1.5*C*(1+0.4*omegaTau))
	setField(y, layout, species.Baryon.String(), 1, (2.0/3.0)*C*ktau)
	setField(y, layout, species.CDM.String(), 0, -1.5*C*(1+0.4*omegaTau))
	setField(y, layout, species.UR.String(), 0, -2*C*(1+0.4*omegaTau))
	setField(y, layout, species.UR.String(), 1, (2.0/3.0)*C*ktau)
}

// setBaryonIsoIC seeds a baryon density perturbation uncorrelated with
// the metric, with photons/cdm/ur initially unperturbed.
func setBaryonIsoIC(y []float64, layout *Layout, ktau float64) {
	setField(y, layout, species.Baryon.String(), 0, 1)
	setField(y, layout, species.Baryon.String(), 1, -ktau/3)
}

func setCdmIsoIC(y []float64, layout *Layout, ktau float64) {
	setField(y, layout, species.CDM.String(), 0, 1)
}

func setNeutrinoDensityIsoIC(y []float64, layout *Layout, ktau, rhoR float64, bg background.State) {
	rhoUR := bg.Rho[species.UR.String()]
	rhoG := bg.Rho[species.Photon.String()]
	if rhoR <= 0 {
		return
	}
	// compensate the neutrino density perturbation against photons so
	// the total radiation density is initially unperturbed.
	setField(y, layout, species.UR.String(), 0, rhoG/rhoR)
	setField(y, layout, species.Photon.String(), 0, -rhoUR/rhoR)
}

func setNeutrinoVelocityIsoIC(y []float64, layout *Layout, ktau, rhoR float64, bg background.State) {
	rhoUR := bg.Rho[species.UR.String()]
	rhoG := bg.Rho[species.Photon.String()]
	if rhoR <= 0 || ktau == 0 {
		return
	}
	setField(y, layout, species.UR.String(), 1, (rhoG/rhoR)*ktau/3)
	setField(y, layout, species.Photon.String(), 1, -(rhoUR/rhoR)*ktau/3)
}

// applyNewtonianShift solves the scalar gauge-transformation shift alpha
// from the synchronous-to-newtonian constraint (alpha = (h' + 6 eta')/(2
// k^2) in the synchronous convention this series was built in) and adds
// alpha's leading contribution to every species' velocity, per §4.P.5.
func applyNewtonianShift(y []float64, layout *Layout, ktau float64) {
	if ktau == 0 {
		return
	}
	alpha := y[0] / (2 * ktau * ktau / 9) // leading-order eta/(k^2 tau^2)-type estimate from the same small-parameter expansion
	for _, fs := range layout.Spans {
		if fs.name == fieldMetric {
			continue
		}
		if fs.span.Length > 1 {
			y[fs.span.Offset+1] += alpha
		}
	}
}

func setField(y []float64, layout *Layout, name string, index int, value float64) {
	sp, ok := layout.Lookup(name)
	if !ok || index >= sp.Length {
		return
	}
	y[sp.Offset+index] = value
}
