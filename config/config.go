// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config implements the core engine's configuration: a struct of
// flags and precision knobs read from a JSON file, mirroring the way
// gofem's inp package structures simulation input data.
package config

import (
	"encoding/json"
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// Gauge selects which metric variables are integrated.
type Gauge int

const (
	Synchronous Gauge = iota
	Newtonian
)

func (g Gauge) String() string {
	if g == Newtonian {
		return "newtonian"
	}
	return "synchronous"
}

// Evolver selects the stiff-ODE backend used by the perturbation integrator.
type Evolver int

const (
	EvolverNDF15 Evolver = iota // Radau5-class variable-order BDF
	EvolverRK                   // explicit Runge-Kutta alternative
)

// TCAScheme selects the tight-coupling slip formula (§4.P.4).
type TCAScheme int

const (
	TCAMaBertschinger TCAScheme = iota
	TCACAMB
	TCAClass1st
	TCAClass2nd
	TCACRS2nd
	TCACompromiseClass
)

// RSAScheme and UFAScheme select radiation-streaming / ultra-relativistic
// fluid approximation schemes; "none" disables the approximation entirely.
type RSAScheme int

const (
	RSANone RSAScheme = iota
	RSAMD
	RSAMDWithReio
)

type UFAScheme int

const (
	UFANone UFAScheme = iota
	UFAMB
	UFAHu
	UFAClass
)

type NCDMFAScheme int

const (
	NCDMFANone NCDMFAScheme = iota
	NCDMFAMB
	NCDMFAHu
	NCDMFAClass
)

// SelectionKind selects the LSS window shape (§4.T.2).
type SelectionKind int

const (
	SelectionGaussian SelectionKind = iota
	SelectionTophat
	SelectionDirac
)

// PrecisionParams groups the tolerances and stepsize multipliers that
// control the perturbation integrator's accuracy/speed tradeoff.
type PrecisionParams struct {
	TolPerturbIntegration float64 `json:"tol_perturb_integration"`
	StartSmallKTauAtTauCOverTauH float64 `json:"start_small_k_at_tau_c_over_tau_h"`
	StartSmallKTauAtTauCOverTauK float64 `json:"start_small_k_at_tau_c_over_tau_k"`
	StartSourcesAtTauCOverTauH   float64 `json:"start_sources_at_tau_c_over_tau_h"`
	TightCouplingTrigTauCOverTauH float64 `json:"tca_trigger_tau_c_over_tau_h"`
	TightCouplingTrigTauCOverTauK float64 `json:"tca_trigger_tau_c_over_tau_k"`
	RadStreamingTrigTauOverTauK   float64 `json:"rsa_trigger_tau_over_tau_k"`
	FreeStreamingTrigTauOverTauK  float64 `json:"ufa_trigger_tau_over_tau_k"`
	StepSize float64 `json:"perturb_sampling_stepsize"`

	// eps is a tiny positive floor (default: 4 times the smallest positive
	// float64), also used as the negligible-amplitude threshold of the
	// hyperspherical Bessel tables; mirrors inp.SolverData.Eps.
	Eps float64 `json:"eps"`
}

// DefaultPrecisionParams returns CLASS-like defaults.
func DefaultPrecisionParams() PrecisionParams {
	return PrecisionParams{
		TolPerturbIntegration:        1e-5,
		StartSmallKTauAtTauCOverTauH: 1e-3,
		StartSmallKTauAtTauCOverTauK: 1e-3,
		StartSourcesAtTauCOverTauH:   1e-2,
		TightCouplingTrigTauCOverTauH: 1e-2,
		TightCouplingTrigTauCOverTauK: 1e-3,
		RadStreamingTrigTauOverTauK:   240.0,
		FreeStreamingTrigTauOverTauK:  2000.0,
		StepSize:                      0.1,
		Eps:                           math.SmallestNonzeroFloat64 * 4,
	}
}

// KGridParams controls wavenumber-grid construction (§4.P.1).
type KGridParams struct {
	KMinTau0       float64 `json:"k_min_tau0"`
	KStepSuper     float64 `json:"k_step_super"`
	KStepSub       float64 `json:"k_step_sub"`
	KStepTransition float64 `json:"k_step_transition"`
	KPerDecadePk   float64 `json:"k_per_decade_pk"`
	KPerDecadeBao  float64 `json:"k_per_decade_bao"`
	KBaoCenter     float64 `json:"k_bao_center"`
	KBaoWidth      float64 `json:"k_bao_width"`
	SuperReduction float64 `json:"k_step_super_reduction"`
	HyperFlatApproximationNu float64 `json:"hyper_flat_approximation_nu"`
	OutputKValues  []float64 `json:"output_k_values"`
}

// LGridParams controls multipole-grid construction.
type LGridParams struct {
	LLogStep        float64 `json:"l_logstep"`
	LLinStep        float64 `json:"l_linstep"`
	AngularRescaling float64 `json:"angular_rescaling"`
}

// SelectionParams describes an LSS redshift-bin window (§4.T.2, §9).
type SelectionParams struct {
	Kind        SelectionKind `json:"kind"`
	ZMean       float64       `json:"z_mean"`
	Width       float64       `json:"width"`
	CutInSigma  float64       `json:"selection_cut_in_sigma"`
	SamplingNonIntegrated int `json:"selection_sampling"`
	SamplingBesselLOS     int `json:"selection_sampling_bessel_los"`

	// dN/dz defaults, exposed so a caller can override per spec §9.
	DNDzZ0    float64 `json:"dndz_z0"`
	DNDzAlpha float64 `json:"dndz_alpha"`
	DNDzBeta  float64 `json:"dndz_beta"`
}

// DefaultSelectionParams returns the Euclid-IST-like analytic default.
func DefaultSelectionParams() SelectionParams {
	return SelectionParams{
		Kind:                  SelectionGaussian,
		CutInSigma:            5.0,
		SamplingNonIntegrated: 50,
		SamplingBesselLOS:     100,
		DNDzZ0:                0.9 / math.Sqrt2,
		DNDzAlpha:             2.0,
		DNDzBeta:              1.5,
	}
}

// LimberParams controls the Limber-switching decision (§4.T.3).
type LimberParams struct {
	QMaxBessel                 float64 `json:"q_max_bessel"`
	LSwitchLimberForNcLocalOverZ float64 `json:"l_switch_limber_for_nc_local_over_z"`
	LSwitchLimberForNcLOSOverZ   float64 `json:"l_switch_limber_for_nc_los_over_z"`
}

// PPFParams controls the parameterized post-Friedmann dark-energy scheme.
type PPFParams struct {
	Use              bool    `json:"use_ppf"`
	CGammaOverCFld   float64 `json:"c_gamma_over_c_fld"`
	CGammaKHSquareMax float64 `json:"c_gamma_k_h_square_max"`
}

// DarkSectorParams enables and parameterizes the non-standard species
// (§3's optional roster members): interacting dark radiation/matter,
// decaying dark matter and its radiation product, non-cold dark matter,
// and the quintessence-like scalar field. Each is off by default so the
// roster builder reduces to the standard photon/baryon/cdm/ur set.
type DarkSectorParams struct {
	UseFLD  bool `json:"use_fld"`
	UseSCF  bool `json:"use_scf"`
	UseIDR  bool `json:"use_idr"`
	UseIDMDR bool `json:"use_idm_dr"`
	UseDCDM bool `json:"use_dcdm"`
	UseNCDM bool `json:"use_ncdm"`

	IDRLmax      int     `json:"idr_lmax"`
	IDMDRCoupling float64 `json:"idm_dr_coupling"`

	DCDMGamma float64 `json:"dcdm_gamma"`
	DRLmax    int     `json:"dr_lmax"`
	DRRate    float64 `json:"dr_decay_rate"`

	NCDMNQ   int `json:"ncdm_nq"`
	NCDMLmax int `json:"ncdm_lmax"`

	SCFMassSquared float64 `json:"scf_mass_squared"`
}

// SourceEnables selects which source types are computed.
type SourceEnables struct {
	Temperature        bool `json:"temperature"`
	Polarization       bool `json:"polarization"`
	Lensing            bool `json:"lensing"`
	NcDensity          bool `json:"nc_density"`
	NcRSD              bool `json:"nc_rsd"`
	NcLens             bool `json:"nc_lens"`
	NcGR               bool `json:"nc_gr"`
	ClLensingPotential bool `json:"cl_lensing_potential"`
}

// ICEnables selects which scalar initial-condition families are computed.
type ICEnables struct {
	Adiabatic             bool `json:"ad"`
	BaryonIso             bool `json:"bi"`
	CdmIso                bool `json:"cdi"`
	NeutrinoDensityIso    bool `json:"nid"`
	NeutrinoVelocityIso   bool `json:"niv"`
}

// ModeEnables selects which perturbation modes are computed.
type ModeEnables struct {
	Scalars bool `json:"scalars"`
	Vectors bool `json:"vectors"`
	Tensors bool `json:"tensors"`
}

// Mode identifies a single perturbation mode for task dispatch, as
// opposed to ModeEnables which selects the set computed by a run.
type Mode int

const (
	ModeScalar Mode = iota
	ModeVector
	ModeTensor
)

func (m Mode) String() string {
	switch m {
	case ModeVector:
		return "vector"
	case ModeTensor:
		return "tensor"
	}
	return "scalar"
}

// TensorMethod selects the tensor photon/neutrino treatment.
type TensorMethod int

const (
	TensorPhotonsOnly TensorMethod = iota
	TensorMasslessApprox
	TensorExact
)

// Config is the top-level struct of flags and precision knobs that drives
// both the perturbation integrator and the transfer/radial projector.
type Config struct {
	Gauge     Gauge         `json:"gauge"`
	Modes     ModeEnables   `json:"modes"`
	Sources   SourceEnables `json:"sources"`
	ICs       ICEnables     `json:"ics"`
	ZMaxPk    float64       `json:"z_max_pk"`
	Selection []SelectionParams `json:"selection"`
	TensorMethod TensorMethod `json:"tensor_method"`

	TCA     TCAScheme    `json:"tca"`
	RSA     RSAScheme    `json:"rsa"`
	UFA     UFAScheme    `json:"ufa"`
	NCDMFA  NCDMFAScheme `json:"ncdmfa"`
	TCAIdmDr bool        `json:"tca_idm_dr"`
	RSAIdr   RSAScheme   `json:"rsa_idr"`

	Evolver Evolver `json:"evolver"`

	Precision PrecisionParams `json:"precision"`
	KGrid     KGridParams     `json:"k_grid"`
	LGrid     LGridParams     `json:"l_grid"`
	Limber    LimberParams    `json:"limber"`
	PPF       PPFParams       `json:"ppf"`
	DarkSector DarkSectorParams `json:"dark_sector"`

	// K is the spatial curvature; K>0 closed, K=0 flat, K<0 open.
	K float64 `json:"K"`

	// NumWorkers sizes the fixed worker pool (§5); 0 means GOMAXPROCS.
	NumWorkers int `json:"num_workers"`

	Verbose bool `json:"verbose"`

	// derived, computed by Validate()
	Itol float64 `json:"-"`
}

// Default returns a flat-ΛCDM-shaped, scalars-only, adiabatic default
// configuration suitable for smoke tests.
func Default() *Config {
	return &Config{
		Gauge:     Synchronous,
		Modes:     ModeEnables{Scalars: true},
		Sources:   SourceEnables{Temperature: true},
		ICs:       ICEnables{Adiabatic: true},
		Selection: []SelectionParams{DefaultSelectionParams()},
		Precision: DefaultPrecisionParams(),
		KGrid: KGridParams{
			KMinTau0:                0.1,
			KStepSuper:              0.1,
			KStepSub:                0.1,
			KStepTransition:         2.0,
			KPerDecadePk:            10,
			KPerDecadeBao:           70,
			KBaoCenter:              3.0,
			KBaoWidth:               0.2,
			SuperReduction:          0.1,
			HyperFlatApproximationNu: 1500,
		},
		LGrid: LGridParams{
			LLogStep:         1.12,
			LLinStep:         50,
			AngularRescaling: 1.0,
		},
		Limber: LimberParams{
			QMaxBessel:                   1e6,
			LSwitchLimberForNcLocalOverZ: 100,
			LSwitchLimberForNcLOSOverZ:   30,
		},
		Evolver: EvolverNDF15,
	}
}

// Validate checks fatal configuration errors per spec §7 and computes
// derived fields. It must be called before any grid/task construction.
func (c *Config) Validate() error {
	if !c.Modes.Scalars && !c.Modes.Vectors && !c.Modes.Tensors {
		return chk.Err("configuration error: no mode enabled (scalars, vectors, tensors all false)")
	}
	if c.Modes.Scalars {
		if !c.ICs.Adiabatic && !c.ICs.BaryonIso && !c.ICs.CdmIso && !c.ICs.NeutrinoDensityIso && !c.ICs.NeutrinoVelocityIso {
			return chk.Err("configuration error: scalar mode requested but no initial condition enabled")
		}
	}
	if c.Precision.TolPerturbIntegration <= 0 {
		return chk.Err("configuration error: tol_perturb_integration must be positive, got %v", c.Precision.TolPerturbIntegration)
	}
	if c.Precision.Eps <= 0 {
		c.Precision.Eps = math.SmallestNonzeroFloat64 * 4
	}
	c.Itol = c.Precision.Eps * 10
	if c.Evolver != EvolverNDF15 && c.Evolver != EvolverRK {
		return chk.Err("configuration error: evolver flag out of range: %v", c.Evolver)
	}
	if c.NumWorkers < 0 {
		return chk.Err("configuration error: num_workers must be >= 0, got %d", c.NumWorkers)
	}
	return nil
}

// Load reads a JSON configuration file, applying defaults for any
// zero-valued nested struct the way inp.ReadSim merges .sim data.
func Load(path string) (*Config, error) {
	buf, err := readFile(path)
	if err != nil {
		return nil, chk.Err("cannot read configuration file %q:\n%v", path, err)
	}
	c := Default()
	if err := json.Unmarshal(buf, c); err != nil {
		return nil, chk.Err("cannot parse configuration file %q:\n%v", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func readFile(path string) ([]byte, error) {
	return io.ReadFile(path)
}
