// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transfer

import (
	"gonum.org/v1/gonum/interp"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/goboltz/pert"
)

// SourceRow is one (ic, source-type) plane of S(k, τ): TauRows[i] holds
// the per-k values sampled at Tau[i] for every k in KList, the
// perturbation stage's native layout (§1's S[mode][ic·n_tp+tp][τ·n_k+k]
// flattening, kept as a slice-of-slices here for interpolation
// convenience).
type SourceRow struct {
	IC      pert.ICKind
	Kind    pert.SourceKind
	KList   []float64
	Tau     []float64
	TauRows [][]float64 // TauRows[itau][ik]
}

// BuildSourceRows regroups per-k task Results into one SourceRow per
// (ic, source-type), the input SourcePrep needs; results must share one
// common τ sampling grid (guaranteed by pert.Task using the same
// SampleTaus for every k in a run).
func BuildSourceRows(results []pert.Result) ([]SourceRow, error) {
	if len(results) == 0 {
		return nil, chk.Err("transfer: no perturbation results to prepare")
	}
	nTau := len(results[0].Rows)
	kList := make([]float64, len(results))
	for i, r := range results {
		kList[i] = r.K
		if len(r.Rows) != nTau {
			return nil, chk.Err("transfer: result for k=%v has %d tau rows, expected %d", r.K, len(r.Rows), nTau)
		}
	}

	byIC := map[pert.ICKind]map[pert.SourceKind]*SourceRow{}
	for ik, r := range results {
		for it, row := range r.Rows {
			for kind := pert.SourceKind(0); int(kind) < pert.NumSourceKinds; kind++ {
				if !row.Have[kind] {
					continue
				}
				m, ok := byIC[r.IC]
				if !ok {
					m = map[pert.SourceKind]*SourceRow{}
					byIC[r.IC] = m
				}
				sr, ok := m[kind]
				if !ok {
					sr = &SourceRow{
						IC: r.IC, Kind: kind, KList: kList,
						Tau:     make([]float64, nTau),
						TauRows: make([][]float64, nTau),
					}
					for t := range sr.TauRows {
						sr.TauRows[t] = make([]float64, len(results))
					}
					m[kind] = sr
				}
				sr.Tau[it] = row.Tau
				sr.TauRows[it][ik] = row.Values[kind]
			}
		}
	}

	var out []SourceRow
	for _, m := range byIC {
		for _, sr := range m {
			out = append(out, *sr)
		}
	}
	return out, nil
}

// InterpolatedSources is SourceRow's content after splining in k (§4.T.2:
// "interpolate S in k ... at the transfer q list"): Values[itau][iq].
type InterpolatedSources struct {
	IC     pert.ICKind
	Kind   pert.SourceKind
	Tau    []float64
	Values [][]float64
}

// Prepare natural-cubic-splines row.TauRows[itau] in k and evaluates at
// every q in ql, producing one InterpolatedSources per input row, per
// §4.T.2.
func Prepare(row SourceRow, ql *QList) (InterpolatedSources, error) {
	out := InterpolatedSources{
		IC: row.IC, Kind: row.Kind, Tau: row.Tau,
		Values: make([][]float64, len(row.Tau)),
	}
	for it, ys := range row.TauRows {
		var spline interp.NaturalCubic
		if err := spline.Fit(row.KList, ys); err != nil {
			return out, chk.Err("transfer: source k-spline fit failed at tau index %d:\n%v", it, err)
		}
		vals := make([]float64, len(ql.Q))
		for iq, q := range ql.Q {
			vals[iq] = spline.Predict(q)
		}
		out.Values[it] = vals
	}
	return out, nil
}
