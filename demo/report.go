// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package demo

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/gogpu/compute"
)

// Report is the outcome of one demo run.
type Report struct {
	// Length is the number of elements, or pixels for the blur.
	Length int

	CPUElapsed     time.Duration
	ComputeElapsed time.Duration

	// Backend is where the compute path ran: compute.BackendCPU or the
	// accelerator name.
	Backend  string
	Fallback bool

	// Valid is set when the compute result matched the CPU baseline.
	Valid bool

	// FirstInvalid is the first mismatching index, -1 when Valid.
	FirstInvalid int
}

// OnGPU reports whether the compute path ran on an accelerator.
func (r Report) OnGPU() bool {
	return r.Backend != "" && r.Backend != compute.BackendCPU
}

var (
	successColor = color.New(color.FgHiGreen, color.Bold)
	failureColor = color.New(color.FgHiRed, color.Bold)
	noteColor    = color.New(color.FgHiBlack)
)

func status(ok bool) string {
	if ok {
		return successColor.Sprint("success")
	}
	return failureColor.Sprint("failure")
}

// millis rounds d to whole milliseconds.
func millis(d time.Duration) int64 {
	return d.Round(time.Millisecond).Milliseconds()
}

// reporter writes report lines and keeps the first write error.
type reporter struct {
	w   io.Writer
	err error
}

func newReporter(w io.Writer) *reporter {
	if w == nil {
		w = io.Discard
	}
	return &reporter{w: w}
}

func (r *reporter) printf(format string, args ...any) {
	if r.err != nil {
		return
	}
	_, r.err = fmt.Fprintf(r.w, format+"\n", args...)
}

// header writes the "<name> test: <size>" line and the separator.
func (r *reporter) header(name string, size any) {
	r.printf("%s test: %v", name, size)
	r.printf("---")
}

func (r *reporter) timing(side, name string, d time.Duration) {
	r.printf("%s %s time: %d ms", side, name, millis(d))
}

func (r *reporter) validation(side, name string, ok bool) {
	r.printf("%s %s result validation: %s", side, name, status(ok))
}

// backend notes where the compute path ran.
func (r *reporter) backend(res compute.Result) {
	note := "backend: " + res.Backend
	if res.Fallback {
		note += " (fallback)"
	}
	r.printf("%s", noteColor.Sprint(note))
}
