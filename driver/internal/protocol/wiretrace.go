// SPDX-FileCopyrightText: 2020-2026 The go-neorest Authors
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"flag"
	"fmt"

	"github.com/neorest/go-neorest/driver/internal/trace"
)

var wireTrace = trace.NewTrace("neorest", "wire")

var wireTraceFlag = trace.NewFlag(wireTrace)

func init() {
	flag.Var(wireTraceFlag, "neorest.wire.trace", "enabling neorest wire trace")
}

const (
	upStreamPrefix   = "→"
	downStreamPrefix = "←"
)

func streamPrefix(upStream bool) string {
	if upStream {
		return upStreamPrefix
	}
	return downStreamPrefix
}

// traceWire writes one line per request or response including the JSON
// payload. body maybe nil (requests without payload).
func traceWire(up bool, status, url string, body []byte) {
	if !wireTrace.On() {
		return
	}
	var msg string
	if len(body) == 0 {
		msg = fmt.Sprintf("%s %s %s", streamPrefix(up), status, url)
	} else {
		msg = fmt.Sprintf("%s %s %s %s", streamPrefix(up), status, url, body)
	}
	wireTrace.Output(2, msg)
}
