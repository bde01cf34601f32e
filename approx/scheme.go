// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package approx implements the approximation-switching state machine of
// spec §4.P.2: tight-coupling, radiation-streaming, ultra-relativistic
// fluid, ncdm-fluid and the dark-sector analogues, each a monotone
// (on->off, or off->on) flag over [tau_ini, tau_today].
package approx

import (
	"math"
	"sort"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/goboltz/config"
)

// Flag identifies one approximation bit.
type Flag int

const (
	TCA Flag = iota
	RSA
	UFA
	NCDMFA
	TCAIdmDr
	RSAIdr
	numFlags
)

func (f Flag) String() string {
	switch f {
	case TCA:
		return "tca"
	case RSA:
		return "rsa"
	case UFA:
		return "ufa"
	case NCDMFA:
		return "ncdmfa"
	case TCAIdmDr:
		return "tca_idm_dr"
	case RSAIdr:
		return "rsa_idr"
	}
	return "unknown"
}

// State is the combination of flags active over one interval.
type State [numFlags]bool

// Trigger computes, at a given tau, the physical quantities the
// scheduler's bisection needs: tau_c=1/kappa1, tau_h=1/aH, tau_k=1/k,
// and any species-specific timescales folded into Extra.
type Trigger struct {
	TauC  float64
	TauH  float64
	TauK  float64
	Extra map[string]float64
}

// TriggerSampler evaluates Trigger at a given tau; supplied by the
// pert package once background/thermo providers are wired.
type TriggerSampler func(tau float64) (Trigger, error)

// Interval is one [TauLo, TauHi) segment of constant approximation state.
type Interval struct {
	TauLo, TauHi float64
	State        State
}

// Schedule is the ordered sequence of switch times and the resulting
// per-interval states over [tauIni, tauToday].
type Schedule struct {
	SwitchTimes []float64
	Intervals   []Interval
}

// on evaluates whether a flag's trigger condition holds at tau.
func on(flag Flag, t Trigger, p config.PrecisionParams, p2 config.Config) bool {
	switch flag {
	case TCA:
		return t.TauC/t.TauH < p.TightCouplingTrigTauCOverTauH && t.TauC/t.TauK < p.TightCouplingTrigTauCOverTauK
	case RSA:
		if p2.RSA == config.RSANone {
			return false
		}
		freeStreamStart := t.Extra["tau_free_streaming"]
		return t.TauH/t.TauK > p.RadStreamingTrigTauOverTauK && t.TauH > freeStreamStart
	case UFA:
		if p2.UFA == config.UFANone {
			return false
		}
		return t.TauH/t.TauK > p.FreeStreamingTrigTauOverTauK
	case NCDMFA:
		if p2.NCDMFA == config.NCDMFANone {
			return false
		}
		return t.TauH/t.TauK > p.FreeStreamingTrigTauOverTauK
	case TCAIdmDr:
		return p2.TCAIdmDr && t.TauC/t.TauH < p.TightCouplingTrigTauCOverTauH
	case RSAIdr:
		if p2.RSAIdr == config.RSANone {
			return false
		}
		return t.TauH/t.TauK > p.RadStreamingTrigTauOverTauK
	}
	return false
}

// flagIsOnInitially encodes the "TCA can only switch OFF as time grows"
// rule (§4.P.2): once off, TCA stays off; the reverse ordering applies
// to RSA/UFA/NCDMFA, which switch ON and stay on.
func flagIsOnInitially(flag Flag) bool {
	return flag == TCA || flag == TCAIdmDr
}

// NewSchedule bisects each flag's trigger condition to find its single
// switch time in [tauIni, tauToday], verifies monotonicity and the
// no-simultaneous-switch invariant, and builds the resulting interval
// list (§4.P.2 steps 1-2).
func NewSchedule(tauIni, tauToday float64, cfg *config.Config, sample TriggerSampler) (*Schedule, error) {
	var switches []struct {
		flag Flag
		tau  float64
	}
	tIni, err := sample(tauIni)
	if err != nil {
		return nil, err
	}
	tToday, err := sample(tauToday)
	if err != nil {
		return nil, err
	}
	var start State
	for f := Flag(0); f < numFlags; f++ {
		startsOn := on(f, tIni, cfg.Precision, *cfg)
		endsOn := on(f, tToday, cfg.Precision, *cfg)
		start[f] = startsOn
		if startsOn == endsOn {
			continue // never switches over the integration range
		}
		if startsOn != flagIsOnInitially(f) {
			return nil, chk.Err("approx: flag %v switches the wrong way (on at tau_ini=%v: %v, on at tau_today=%v: %v)", f, tauIni, startsOn, tauToday, endsOn)
		}
		tau, err := bisectSwitch(f, tauIni, tauToday, cfg, sample)
		if err != nil {
			return nil, chk.Err("approx: failed to bisect switch time for flag %v:\n%v", f, err)
		}
		switches = append(switches, struct {
			flag Flag
			tau  float64
		}{f, tau})
	}

	sort.Slice(switches, func(i, j int) bool { return switches[i].tau < switches[j].tau })

	// reject simultaneous switches (§4.P.2 step 2's fatal misconfiguration)
	const simulEps = 1e-9
	for i := 1; i < len(switches); i++ {
		if switches[i].tau-switches[i-1].tau < simulEps*(tauToday-tauIni) {
			return nil, chk.Err("approx: flags %v and %v switch at the same tau (%v); this is a fatal misconfiguration per spec", switches[i-1].flag, switches[i].flag, switches[i].tau)
		}
	}

	sched := &Schedule{}
	state := start
	prevTau := tauIni
	for _, sw := range switches {
		sched.Intervals = append(sched.Intervals, Interval{TauLo: prevTau, TauHi: sw.tau, State: state})
		sched.SwitchTimes = append(sched.SwitchTimes, sw.tau)
		state[sw.flag] = !state[sw.flag]
		prevTau = sw.tau
	}
	sched.Intervals = append(sched.Intervals, Interval{TauLo: prevTau, TauHi: tauToday, State: state})
	return sched, nil
}

func initialState() State {
	var s State
	for f := Flag(0); f < numFlags; f++ {
		s[f] = flagIsOnInitially(f)
	}
	return s
}

func bisectSwitch(flag Flag, lo, hi float64, cfg *config.Config, sample TriggerSampler) (float64, error) {
	tLo, err := sample(lo)
	if err != nil {
		return 0, err
	}
	startVal := on(flag, tLo, cfg.Precision, *cfg)
	f := func(tau float64) (bool, error) {
		t, err := sample(tau)
		if err != nil {
			return false, err
		}
		return on(flag, t, cfg.Precision, *cfg), nil
	}
	for it := 0; it < 200; it++ {
		mid := 0.5 * (lo + hi)
		v, err := f(mid)
		if err != nil {
			return 0, err
		}
		if v == startVal {
			lo = mid
		} else {
			hi = mid
		}
		if math.Abs(hi-lo) < 1e-10*(hi+lo+1) {
			break
		}
	}
	return 0.5 * (lo + hi), nil
}

// CheckMonotone verifies the "approximation can only turn on/off once"
// invariant against an explicit sampled sequence of states, used by
// tests (spec §8's monotonicity property).
func CheckMonotone(flag Flag, states []bool) error {
	flips := 0
	for i := 1; i < len(states); i++ {
		if states[i] != states[i-1] {
			flips++
		}
	}
	if flips > 1 {
		return chk.Err("approx: flag %v flips %d times; must be monotone over tau", flag, flips)
	}
	return nil
}
