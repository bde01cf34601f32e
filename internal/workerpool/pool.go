// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package workerpool implements the fixed-size goroutine dispatch of
// spec §5: one task per wavenumber, run to completion independently,
// with no shared mutable state -- the goroutine analogue of the
// teacher's per-MPI-rank independent fem.NewDomains dispatch, here with
// channels and a sync.WaitGroup standing in for MPI ranks.
package workerpool

import (
	"runtime"
	"sync"

	"github.com/cpmech/gosl/chk"
)

// Task is one unit of independent work; Run must not mutate state shared
// with any other Task.
type Task func() (interface{}, error)

// Result pairs one task's output with its index in the original slice,
// so the caller can reassemble results in submission order even though
// tasks complete out of order.
type Result struct {
	Index int
	Value interface{}
	Err   error
}

// Run runs every task in tasks using n worker goroutines (n<=0 means
// runtime.GOMAXPROCS(0)), returning one Result per task in the original
// submission order. There is no cancellation primitive: per spec §5,
// tasks are pure and independent, so every dispatched task always runs
// to completion; the caller inspects Results and aggregates the first
// failure with FirstError.
func Run(n int, tasks []Task) []Result {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	if n > len(tasks) {
		n = len(tasks)
	}
	if n < 1 {
		n = 1
	}

	results := make([]Result, len(tasks))
	jobs := make(chan int, len(tasks))
	for i := range tasks {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	wg.Add(n)
	for w := 0; w < n; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				v, err := tasks[i]()
				results[i] = Result{Index: i, Value: v, Err: err}
			}
		}()
	}
	wg.Wait()
	return results
}

// FirstError returns the first error in submission order, or nil if
// every task succeeded, per spec §5's "aggregate the first failure"
// contract (no partial output is published on failure by the caller).
func FirstError(results []Result) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}

// MustAllOK is a convenience wrapper used by callers that treat any
// worker failure as fatal, mirroring chk.Panic's "this should never
// happen in a correctly configured run" usage elsewhere in the stack.
func MustAllOK(results []Result) {
	if err := FirstError(results); err != nil {
		chk.Panic("workerpool: task failed:\n%v", err)
	}
}
