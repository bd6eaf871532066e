// SPDX-FileCopyrightText: 2020-2026 The go-neorest Authors
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/neorest/go-neorest/driver/cyphertrace"
	p "github.com/neorest/go-neorest/driver/internal/protocol"
)

// maxNumTraceParam is the maximum number of parameters being traced.
const maxNumTraceParam = 20

// pingStatement is the statement executed by Ping as a one shot round trip.
const pingStatement = "RETURN 1"

// unique connection number.
var connNo atomic.Uint64

/*
A Conn is a single client connection: the server metadata shared by all
connections of a client plus the state of at most one open transaction.

A Conn is owned by the pool while idle and exclusively by one caller while
checked out, so its transaction state is never accessed concurrently. The
transaction state machine is: closed (no transaction URL), opened by Begin,
returned to closed by Commit or Rollback.
*/
type Conn struct {
	session    *p.Session
	serverInfo *p.ServerInfo
	metrics    *metrics
	logger     *slog.Logger
	formats    []string
	overflow   bool
	trace      bool
	closed     atomic.Bool

	txURL     string // empty: no open transaction
	commitURL string // commit resource of the open transaction
	expires   time.Time
}

func newConn(session *p.Session, serverInfo *p.ServerInfo, formats []string, metrics *metrics, logger *slog.Logger, overflow bool) *Conn {
	c := &Conn{
		session:    session,
		serverInfo: serverInfo,
		metrics:    metrics,
		logger:     logger.With(slog.Uint64("conn", connNo.Add(1))),
		formats:    formats,
		overflow:   overflow,
		trace:      cyphertrace.On(),
	}
	c.metrics.addGaugeValue(gaugeConn, 1)
	if overflow {
		c.metrics.addGaugeValue(gaugeOverflow, 1)
	}
	return c
}

// Close closes the connection. An open transaction is left to its server
// side timeout.
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	if c.inTx() {
		c.clearTx()
	}
	c.metrics.addGaugeValue(gaugeConn, -1)
	if c.overflow {
		c.metrics.addGaugeValue(gaugeOverflow, -1)
	}
	return nil
}

// ServerInfo returns the server metadata shared by all connections of a client.
func (c *Conn) ServerInfo() *ServerInfo { return c.serverInfo }

// InTx returns true if the connection has an open transaction, false otherwise.
func (c *Conn) InTx() bool { return c.inTx() }

// TxExpires returns the server side expiry of the open transaction (zero
// if no transaction is open or the server does not report one).
func (c *Conn) TxExpires() time.Time { return c.expires }

func (c *Conn) inTx() bool { return c.txURL != "" }

func (c *Conn) setTx(txURL, commitURL string, expires time.Time) {
	c.txURL, c.commitURL, c.expires = txURL, commitURL, expires
	c.metrics.addGaugeValue(gaugeTx, 1)
}

func (c *Conn) clearTx() {
	c.txURL, c.commitURL, c.expires = "", "", time.Time{}
	c.metrics.addGaugeValue(gaugeTx, -1)
}

func (c *Conn) statements(stmt string, params map[string]any, formats []string) []p.Statement {
	if formats == nil {
		formats = c.formats
	}
	return []p.Statement{{Statement: stmt, Parameters: params, ResultDataContents: formats}}
}

// Ping executes a minimal one shot round trip.
func (c *Conn) Ping(ctx context.Context) error {
	start := time.Now()
	defer func() { c.metrics.addDurationHistogramValue(timePing, time.Since(start).Milliseconds()) }()
	_, err := c.session.Execute(ctx, p.CommitURL(c.serverInfo.TxEndpoint), c.statements(pingStatement, nil, nil))
	return err
}

// Query executes a single statement. Without an open transaction the
// statement is sent in begin-and-commit-immediately form, opening and
// closing an implicit transaction in one round trip; within an open
// transaction it executes as part of that transaction. Either way the
// transaction state of the connection does not change.
func (c *Conn) Query(ctx context.Context, stmt string, params map[string]any) (*Result, error) {
	return c.QueryFormats(ctx, stmt, params, nil)
}

// QueryFormats is like Query with the result formats requested for this
// call only (overriding the connector formats).
func (c *Conn) QueryFormats(ctx context.Context, stmt string, params map[string]any, formats []string) (*Result, error) {
	start := time.Now()
	defer func() {
		ms := time.Since(start).Milliseconds()
		c.metrics.addDurationHistogramValue(timeQuery, ms)
		if c.trace {
			c.traceStatement(stmt, params, ms)
		}
	}()

	url := p.CommitURL(c.serverInfo.TxEndpoint) // one shot
	if c.inTx() {
		url = c.txURL
	}
	reply, err := c.session.Execute(ctx, url, c.statements(stmt, params, formats))
	if err != nil {
		return nil, err
	}
	if c.inTx() && !reply.Expires.IsZero() {
		c.expires = reply.Expires // server extends the transaction timeout
	}
	return singleResult(reply.Results), nil
}

// Begin opens a transaction by posting an empty statement list to the
// transaction endpoint and storing the returned transaction URLs.
// Calling Begin on a connection with an open transaction fails with
// ErrNestedTransaction - silently overwriting the transaction URL would
// leak the open server side transaction.
func (c *Conn) Begin(ctx context.Context) error {
	if c.inTx() {
		return ErrNestedTransaction
	}
	start := time.Now()
	defer func() { c.metrics.addDurationHistogramValue(timeBegin, time.Since(start).Milliseconds()) }()

	reply, err := c.session.Execute(ctx, c.serverInfo.TxEndpoint, nil)
	if err != nil {
		return err
	}
	if reply.CommitURL == "" {
		return &ProtocolError{Op: "begin", URL: c.serverInfo.TxEndpoint, Reason: "response is missing the commit URL"}
	}
	c.setTx(reply.TxURL(), reply.CommitURL, reply.Expires)
	return nil
}

// Exec executes a statement within the open transaction, keeping the
// transaction open. It fails with ErrNoTransaction if no transaction is open.
func (c *Conn) Exec(ctx context.Context, stmt string, params map[string]any) (*Result, error) {
	results, err := c.ExecMany(ctx, c.statements(stmt, params, nil))
	if err != nil {
		return nil, err
	}
	return results.first(), nil
}

// ExecMany executes statements within the open transaction, keeping the
// transaction open.
func (c *Conn) ExecMany(ctx context.Context, stmts []Statement) (Results, error) {
	if !c.inTx() {
		return nil, ErrNoTransaction
	}
	start := time.Now()
	defer func() { c.metrics.addDurationHistogramValue(timeExec, time.Since(start).Milliseconds()) }()

	reply, err := c.session.Execute(ctx, c.txURL, stmts)
	if err != nil {
		return nil, c.afterTxError(err)
	}
	if !reply.Expires.IsZero() {
		c.expires = reply.Expires
	}
	return newResults(reply.Results), nil
}

// Commit commits the open transaction, optionally executing final
// statements in the commit request. Without an open transaction Commit
// degrades to the one shot path, opening and committing a transaction in a
// single round trip. On success the connection returns to the closed state.
func (c *Conn) Commit(ctx context.Context, stmts ...Statement) (Results, error) {
	start := time.Now()
	defer func() { c.metrics.addDurationHistogramValue(timeCommit, time.Since(start).Milliseconds()) }()

	if !c.inTx() { // one shot commit
		reply, err := c.session.Execute(ctx, p.CommitURL(c.serverInfo.TxEndpoint), stmts)
		if err != nil {
			return nil, err
		}
		return newResults(reply.Results), nil
	}

	reply, err := c.session.Execute(ctx, c.commitURL, stmts)
	if err != nil {
		return nil, c.afterTxError(err)
	}
	c.clearTx()
	return newResults(reply.Results), nil
}

// Rollback deletes the transaction resource of the open transaction. It
// fails with ErrNoTransaction if no transaction is open. On success the
// connection returns to the closed state.
func (c *Conn) Rollback(ctx context.Context) error {
	if !c.inTx() {
		return ErrNoTransaction
	}
	start := time.Now()
	defer func() { c.metrics.addDurationHistogramValue(timeRollback, time.Since(start).Milliseconds()) }()

	if err := c.session.Rollback(ctx, c.txURL); err != nil {
		return c.afterTxError(err)
	}
	c.clearTx()
	return nil
}

// afterTxError adjusts the local transaction state after a failed
// transaction request. The server rolls back a transaction on statement
// errors, so server reported errors close the local state as well;
// transport and protocol errors keep it, the caller may retry or roll back.
func (c *Conn) afterTxError(err error) error {
	var serverErrors *TransactionError
	if errors.As(err, &serverErrors) {
		c.clearTx()
	}
	return err
}

func (c *Conn) traceStatement(stmt string, params map[string]any, ms int64) {
	switch {
	case len(params) == 0:
		cyphertrace.Tracef("%s duration %dms", stmt, ms)
	case len(params) > maxNumTraceParam:
		cyphertrace.Tracef("%s %d params (not traced) duration %dms", stmt, len(params), ms)
	default:
		cyphertrace.Tracef("%s params %v duration %dms", stmt, params, ms)
	}
}
