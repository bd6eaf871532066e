// SPDX-FileCopyrightText: 2020-2026 The go-neorest Authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/neorest/go-neorest/driver"
	"github.com/neorest/go-neorest/driver/drivertest"
)

// benchmarkDSN returns the DSN of the benchmark database. Without a
// GONEORESTDSN environment variable a fake transactional endpoint is used.
func benchmarkDSN(b *testing.B) string {
	if dsn, ok := os.LookupEnv(envDSN); ok {
		return dsn
	}
	srv := drivertest.NewServer()
	b.Cleanup(srv.Close)
	return strings.Replace(srv.URL(), "http://", "neorest://", 1)
}

func Benchmark(b *testing.B) {
	dba, err := newDBA(benchmarkDSN(b))
	if err != nil {
		b.Fatal(err)
	}
	lt := newLoadTest(dba)

	const maxDuration time.Duration = 1<<63 - 1

	f := func(b *testing.B, sequential bool, workers, statements int) {
		ds := make([]time.Duration, b.N)
		var avg, max time.Duration //nolint: predeclared
		min := maxDuration         //nolint: predeclared

		for i := 0; i < b.N; i++ {
			tr := lt.execute(sequential, workers, statements, cleanup)
			if tr.Err != nil {
				b.Fatal(tr.Err)
			}

			avg += tr.Duration
			if tr.Duration < min {
				min = tr.Duration
			}
			if tr.Duration > max {
				max = tr.Duration
			}
			ds[i] = tr.Duration
		}

		// Median.
		var med time.Duration
		sort.Slice(ds, func(i, j int) bool { return ds[i] < ds[j] })
		l := len(ds)
		switch {
		case l == 0: // keep med == 0
		case l%2 != 0: // odd number
			med = ds[l/2] //  mid value
		default:
			med = (ds[l/2] + ds[l/2-1]) / 2 // even number - return avg of the two mid numbers
		}

		// Add metrics.
		b.ReportMetric((avg / time.Duration(b.N)).Seconds(), "avgsec/op")
		b.ReportMetric(min.Seconds(), "minsec/op")
		b.ReportMetric(max.Seconds(), "maxsec/op")
		b.ReportMetric(med.Seconds(), "medsec/op")
	}

	// Additional info.
	log.SetOutput(os.Stdout)
	log.Printf("Runtime Info - GOMAXPROCS: %d NumCPU: %d DriverVersion %s ServerVersion: %s",
		runtime.GOMAXPROCS(0),
		runtime.NumCPU(),
		driver.DriverVersion,
		dba.serverVersion(),
	)

	b.Cleanup(func() {
		dba.close() //nolint: errcheck
	})

	for _, prm := range parameters {
		b.Run(fmt.Sprintf("sequential-%dx%d", prm.Workers, prm.Statements), func(b *testing.B) {
			f(b, true, prm.Workers, prm.Statements)
		})
	}
	for _, prm := range parameters {
		b.Run(fmt.Sprintf("concurrent-%dx%d", prm.Workers, prm.Statements), func(b *testing.B) {
			f(b, false, prm.Workers, prm.Statements)
		})
	}
}
