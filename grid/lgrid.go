// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grid

import (
	"math"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/goboltz/config"
)

// LGrid is the multipole grid, starting in log steps and crossing over
// to linear steps, ending exactly at lMax (§3). PrefixLen records, per
// source type, how many leading entries apply (different source types
// truncate at different ell_max).
type LGrid struct {
	L         []int
	PrefixLen map[string]int
}

// NewLGrid builds the ℓ grid from 2 to lMax using log step
// ℓ·(step^rescaling − 1), crossing to linear step p.LLinStep once the log
// step would exceed it, finishing exactly at lMax.
func NewLGrid(lMax int, p config.LGridParams) (*LGrid, error) {
	if lMax < 2 {
		return nil, chk.Err("grid: l_max must be >= 2, got %d", lMax)
	}
	g := &LGrid{PrefixLen: map[string]int{}}
	l := 2
	g.L = append(g.L, l)
	for l < lMax {
		logStep := float64(l) * (math.Pow(p.LLogStep, p.AngularRescaling) - 1)
		step := logStep
		if step > p.LLinStep {
			step = p.LLinStep
		}
		if step < 1 {
			step = 1
		}
		next := l + int(math.Round(step))
		if next >= lMax {
			next = lMax
		}
		if next <= l {
			next = l + 1
		}
		l = next
		g.L = append(g.L, l)
	}
	return g, nil
}

// SetPrefix records, for a (mode,type) pair, how many leading ℓ-grid
// entries this source type uses (its own ℓ_max truncation).
func (g *LGrid) SetPrefix(key string, lMaxForType int) {
	n := 0
	for _, l := range g.L {
		if l > lMaxForType {
			break
		}
		n++
	}
	g.PrefixLen[key] = n
}
