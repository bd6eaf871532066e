// SPDX-FileCopyrightText: 2020-2026 The go-neorest Authors
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"fmt"
	"strings"
)

// DurationStat represents a duration statistic.
type DurationStat struct {
	// Count holds the number of measurements.
	Count uint64
	// Sum holds the sum of the spent time in milliseconds.
	Sum uint64
	// The bucket key is the upper time limit in milliseconds for a measurement
	// falling in this category, the bucket value the number of measurements.
	Buckets map[uint64]uint64
}

func (s *DurationStat) String() string {
	return fmt.Sprintf("count %d sum %d values %v", s.Count, s.Sum, s.Buckets)
}

// Stats contains client statistics.
type Stats struct {
	// Gauges
	OpenConnections     int // The number of established server connections.
	OpenTransactions    int // The number of open transactions.
	OverflowConnections int // The number of transient connections exceeding the pool size.
	// Counter
	Checkouts    uint64 // Total number of pool checkouts.
	PoolTimeouts uint64 // Total number of checkouts failed with a pool timeout.
	BytesRead    uint64 // Total payload bytes read from the server.
	BytesWritten uint64 // Total payload bytes written to the server.
	//
	TimeStats []*DurationStat // Operation duration statistics.
}

func (s Stats) String() string {
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("\nopenConnections     %d", s.OpenConnections))
	sb.WriteString(fmt.Sprintf("\nopenTransactions    %d", s.OpenTransactions))
	sb.WriteString(fmt.Sprintf("\noverflowConnections %d", s.OverflowConnections))
	sb.WriteString(fmt.Sprintf("\ncheckouts           %d", s.Checkouts))
	sb.WriteString(fmt.Sprintf("\npoolTimeouts        %d", s.PoolTimeouts))
	sb.WriteString(fmt.Sprintf("\nbytesRead           %d", s.BytesRead))
	sb.WriteString(fmt.Sprintf("\nbytesWritten        %d", s.BytesWritten))
	sb.WriteString("\ntimes")
	for i, durationStat := range s.TimeStats {
		sb.WriteString(fmt.Sprintf("\n  %-8s %s", StatsTimeTexts[i], durationStat.String()))
	}
	return sb.String()
}
