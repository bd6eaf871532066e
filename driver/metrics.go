// SPDX-FileCopyrightText: 2020-2026 The go-neorest Authors
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"io"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
)

// StatsNumTime is the number of operation duration categories.
const StatsNumTime = 7

// StatsTimeTexts are the texts used for the operation duration categories.
var StatsTimeTexts = [StatsNumTime]string{"checkout", "ping", "query", "begin", "exec", "commit", "rollback"}

// StatsDurationBuckets are the used duration buckets in milliseconds.
var StatsDurationBuckets = []uint64{1, 10, 100, 1000, 10000, 100000}

// Constants for duration statistics.
const (
	timeCheckout = iota
	timePing
	timeQuery
	timeBegin
	timeExec
	timeCommit
	timeRollback
)

const (
	counterBytesRead = iota
	counterBytesWritten
	counterCheckouts
	counterPoolTimeouts
	numCounter
)

const (
	gaugeConn = iota
	gaugeTx
	gaugeOverflow
	numGauge
)

type counter struct {
	n uint64 // atomic access.
}

func (c *counter) add(n uint64)  { atomic.AddUint64(&c.n, n) }
func (c *counter) value() uint64 { return atomic.LoadUint64(&c.n) }

type gauge struct {
	v int64 // atomic access.
}

func (g *gauge) add(n int64)  { atomic.AddInt64(&g.v, n) }
func (g *gauge) value() int64 { return atomic.LoadInt64(&g.v) }

type durationHistogram struct {
	mu              sync.Mutex
	count           uint64
	sum             uint64
	durationBuckets []uint64
	buckets         []uint64
	underflow       uint64 // in case of negative duration (will add to zero bucket)
}

func newDurationHistogram(durationBuckets []uint64) *durationHistogram {
	durationBucketsClone := make([]uint64, len(durationBuckets))
	copy(durationBucketsClone, durationBuckets)
	numBuckets := len(durationBucketsClone)
	if numBuckets == 0 {
		panic("number of duration buckets cannot be zero")
	}
	return &durationHistogram{durationBuckets: durationBucketsClone, buckets: make([]uint64, numBuckets)}
}

func (h *durationHistogram) stats() *DurationStat {
	h.mu.Lock()
	rv := &DurationStat{
		Count:   h.count,
		Sum:     h.sum,
		Buckets: make(map[uint64]uint64, len(h.buckets)),
	}
	for i, durationBucket := range h.durationBuckets {
		rv.Buckets[durationBucket] = h.buckets[i]
	}
	h.mu.Unlock()
	return rv
}

func (h *durationHistogram) add(ms int64) {
	h.mu.Lock()
	h.count++
	if ms < 0 {
		h.underflow++
		h.mu.Unlock()
		return
	}
	h.sum += uint64(ms)
	// determine index
	i := sort.Search(len(h.durationBuckets), func(i int) bool { return h.durationBuckets[i] >= uint64(ms) })
	if i < len(h.durationBuckets) {
		h.buckets[i]++
	}
	h.mu.Unlock()
}

type metrics struct {
	parent             *metrics
	counters           []*counter
	gauges             []*gauge
	durationHistograms []*durationHistogram
}

func newMetrics(parent *metrics) *metrics {
	rv := &metrics{
		parent:             parent,
		counters:           make([]*counter, numCounter),
		gauges:             make([]*gauge, numGauge),
		durationHistograms: make([]*durationHistogram, StatsNumTime),
	}
	for i := 0; i < numCounter; i++ {
		rv.counters[i] = &counter{}
	}
	for i := 0; i < numGauge; i++ {
		rv.gauges[i] = &gauge{}
	}
	for i := 0; i < int(StatsNumTime); i++ {
		rv.durationHistograms[i] = newDurationHistogram(StatsDurationBuckets)
	}
	return rv
}

func (m *metrics) addCounterValue(kind int, v uint64) {
	m.counters[kind].add(v)
	if m.parent != nil {
		m.parent.addCounterValue(kind, v)
	}
}

func (m *metrics) addGaugeValue(kind int, v int64) {
	m.gauges[kind].add(v)
	if m.parent != nil {
		m.parent.addGaugeValue(kind, v)
	}
}

func (m *metrics) addDurationHistogramValue(kind int, v int64) {
	m.durationHistograms[kind].add(v)
	if m.parent != nil {
		m.parent.addDurationHistogramValue(kind, v)
	}
}

func (m *metrics) stats() Stats {
	timeStats := make([]*DurationStat, StatsNumTime)
	for i := 0; i < int(StatsNumTime); i++ {
		timeStats[i] = m.durationHistograms[i].stats()
	}
	return Stats{
		OpenConnections:     int(m.gauges[gaugeConn].value()),
		OpenTransactions:    int(m.gauges[gaugeTx].value()),
		OverflowConnections: int(m.gauges[gaugeOverflow].value()),
		Checkouts:           m.counters[counterCheckouts].value(),
		PoolTimeouts:        m.counters[counterPoolTimeouts].value(),
		BytesRead:           m.counters[counterBytesRead].value(),
		BytesWritten:        m.counters[counterBytesWritten].value(),
		TimeStats:           timeStats,
	}
}

// countingBody wraps a response body counting the bytes read.
type countingBody struct {
	io.ReadCloser
	metrics *metrics
}

func (b *countingBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if n > 0 {
		b.metrics.addCounterValue(counterBytesRead, uint64(n))
	}
	return n, err
}

// metricsTransport wraps an http.RoundTripper counting the payload
// bytes written to and read from the server.
type metricsTransport struct {
	base    http.RoundTripper
	metrics *metrics
}

func newMetricsTransport(base http.RoundTripper, metrics *metrics) *metricsTransport {
	return &metricsTransport{base: base, metrics: metrics}
}

// RoundTrip implements the http.RoundTripper interface.
func (t *metricsTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.ContentLength > 0 {
		t.metrics.addCounterValue(counterBytesWritten, uint64(req.ContentLength))
	}
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	resp.Body = &countingBody{ReadCloser: resp.Body, metrics: t.metrics}
	return resp, nil
}
