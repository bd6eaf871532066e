// SPDX-FileCopyrightText: 2020-2026 The go-neorest Authors
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"context"
	"sync"
	"time"
)

/*
pool is a fixed size connection pool with a bounded overflow: a buffered
channel holds the idle steady state connections, overflow connections are
created per checkout while the counter permits and discarded on checkin.

The channel is the wait mechanism for blocked checkouts, the mutex only
guards the overflow counter and the closed flag. Checked out connections
are owned exclusively by their caller, so the pool never locks per
connection.
*/
type pool struct {
	size        int
	maxOverflow int
	timeout     time.Duration // checkout timeout, TimeoutInfinite waits forever
	factory     func(overflow bool) *Conn
	metrics     *metrics

	idle    chan *Conn
	closeCh chan struct{}

	mu       sync.Mutex
	overflow int // current number of overflow connections
	closed   bool
}

func newPool(size, maxOverflow int, timeout time.Duration, factory func(overflow bool) *Conn, metrics *metrics) *pool {
	p := &pool{
		size:        size,
		maxOverflow: maxOverflow,
		timeout:     timeout,
		factory:     factory,
		metrics:     metrics,
		idle:        make(chan *Conn, size),
		closeCh:     make(chan struct{}),
	}
	for range size {
		p.idle <- factory(false)
	}
	return p
}

func (p *pool) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// checkout returns an idle connection, an overflow connection while the
// overflow limit permits, or blocks until a connection is checked in -
// bounded by the pool timeout and ctx. It fails with ErrPoolTimeout when
// the timeout elapses first and with ErrClientClosed on a closed pool.
func (p *pool) checkout(ctx context.Context) (*Conn, error) {
	start := time.Now()
	defer func() { p.metrics.addDurationHistogramValue(timeCheckout, time.Since(start).Milliseconds()) }()
	p.metrics.addCounterValue(counterCheckouts, 1)

	if p.isClosed() {
		return nil, ErrClientClosed
	}

	select {
	case conn := <-p.idle:
		return conn, nil
	default:
	}

	// no idle connection: try overflow
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClientClosed
	}
	if p.overflow < p.maxOverflow {
		p.overflow++
		p.mu.Unlock()
		return p.factory(true), nil
	}
	p.mu.Unlock()

	// overflow exhausted: wait for a checkin
	var timeoutCh <-chan time.Time
	if p.timeout != TimeoutInfinite {
		timer := time.NewTimer(p.timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case conn := <-p.idle:
		return conn, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.closeCh:
		return nil, ErrClientClosed
	case <-timeoutCh:
		p.metrics.addCounterValue(counterPoolTimeouts, 1)
		return nil, ErrPoolTimeout
	}
}

// checkin returns a connection to the idle set. Overflow connections are
// discarded instead of retained. checkin must be called exactly once per
// successful checkout.
func (p *pool) checkin(conn *Conn) {
	if conn.overflow {
		p.mu.Lock()
		p.overflow--
		p.mu.Unlock()
		conn.Close()
		return
	}
	// the closed check and the send happen under the lock, so a concurrent
	// close either sees the connection in the channel when draining or the
	// checkin sees the pool closed - never neither.
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		conn.Close()
		return
	}
	// cannot block: checkins never exceed the channel capacity
	p.idle <- conn
}

// numIdle returns the current number of idle steady state connections.
func (p *pool) numIdle() int { return len(p.idle) }

// close closes the pool and its idle connections. Connections still
// checked out are closed on checkin; blocked checkouts are released.
func (p *pool) close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	close(p.closeCh)
	var lastErr error
	for {
		select {
		case conn := <-p.idle:
			if err := conn.Close(); err != nil {
				lastErr = err
			}
		default:
			return lastErr
		}
	}
}
