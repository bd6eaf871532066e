// SPDX-FileCopyrightText: 2020-2026 The go-neorest Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package trace implements a minimal flag controlled tracing facility.
package trace

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
)

// A Trace represents a tracing object writing to stdout when enabled
// and discarding output otherwise.
type Trace struct {
	*log.Logger
}

// NewTrace returns a new trace object with the given prefix words.
func NewTrace(prefix ...string) *Trace {
	return &Trace{Logger: log.New(io.Discard, fmt.Sprintf("%s ", strings.Join(prefix, " ")), log.Ldate|log.Ltime|log.Lshortfile)}
}

// On returns true if the tracing output is enabled, false otherwise.
func (t *Trace) On() bool { return t.Writer() != io.Discard }

// SetOn enables or disables the tracing output.
func (t *Trace) SetOn(on bool) {
	if on {
		t.SetOutput(os.Stdout)
	} else {
		t.SetOutput(io.Discard)
	}
}

// A Flag adapts a trace object to the flag.Value interface.
type Flag struct {
	trace *Trace
}

// NewFlag returns a new Flag instance.
func NewFlag(trace *Trace) *Flag { return &Flag{trace: trace} }

func (f *Flag) String() string {
	// the flag package creates zero values via reflection to determine defaults
	if f.trace == nil {
		return strconv.FormatBool(false)
	}
	return strconv.FormatBool(f.trace.On())
}

// IsBoolFlag implements the flag.Value interface.
func (f *Flag) IsBoolFlag() bool { return true }

// Set implements the flag.Value interface.
func (f *Flag) Set(s string) error {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	f.trace.SetOn(b)
	return nil
}
