// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package demo runs the compute demos: the bitonic sort, the squares
// transform and the separable blur.
//
// Every demo times a CPU baseline against the compute path, validates the
// compute result and writes a short report to its output writer:
//
//	sort test: 131072
//	---
//	CPU sort time: 9 ms
//	CPU sort result validation: success
//	GPU sort time: 3 ms
//	GPU sort result validation: success
//
// A demo runs one operation at a time. Calling Run while a run is pending
// returns ErrBusy.
package demo

import (
	"errors"
	"sync/atomic"
)

// ErrBusy is returned by Run while the same demo is still running.
var ErrBusy = errors.New("demo: run already in progress")

// Runner guards a demo against overlapping runs.
// The zero value is ready to use.
type Runner struct {
	busy atomic.Bool
}

// Busy reports whether a run is in progress.
func (r *Runner) Busy() bool {
	return r.busy.Load()
}

func (r *Runner) acquire() error {
	if !r.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

func (r *Runner) release() {
	r.busy.Store(false)
}
