// SPDX-FileCopyrightText: 2020-2026 The go-neorest Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package cyphertrace implements a flag controlled statement trace for
// neorest clients.
package cyphertrace

import (
	"flag"
	"fmt"

	"github.com/neorest/go-neorest/driver/internal/trace"
)

var std = trace.NewTrace("neorest", "cypher")

var traceFlag = trace.NewFlag(std)

func init() {
	flag.Var(traceFlag, "neorest.cypherTrace", "enabling neorest cypher trace")
}

// On returns if tracing methods output is active.
func On() bool { return std.On() }

// SetOn sets tracing methods output active or inactive.
func SetOn(on bool) { std.SetOn(on) }

// Trace calls trace logger Print method to print to the trace logger.
func Trace(v ...any) { std.Output(2, fmt.Sprint(v...)) }

// Tracef calls trace logger Printf method to print to the trace logger.
func Tracef(format string, v ...any) { std.Output(2, fmt.Sprintf(format, v...)) }

// Traceln calls trace logger Println method to print to the trace logger.
func Traceln(v ...any) { std.Output(2, fmt.Sprintln(v...)) }
