// SPDX-FileCopyrightText: 2020-2026 The go-neorest Authors
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	p "github.com/neorest/go-neorest/driver/internal/protocol"
)

/*
A Client is the explicit context of a neorest client: the connector
configuration it was opened with, the server metadata determined by the
handshake and the connection pool. A Client is safe for concurrent use by
any number of goroutines; every call checks out its own connection for the
duration of the call.
*/
type Client struct {
	connector  *Connector
	serverInfo *ServerInfo
	version    *Version
	pool       *pool
	closed     atomic.Bool
}

/*
OpenClient validates the connector configuration, performs the server
handshake exactly once and constructs the connection pool, eagerly creating
the steady state connections bound to the shared server metadata. A failing
handshake aborts pool construction - no connection is created.
*/
func OpenClient(ctx context.Context, connector *Connector) (*Client, error) {
	if err := connector.validate(); err != nil {
		return nil, err
	}

	session := p.NewSession(connector.httpClient(), connector.sessionConfig())
	serverInfo, err := session.Discover(ctx)
	if err != nil {
		return nil, err
	}

	formats := connector.formats()
	logger := connector.logger()
	factory := func(overflow bool) *Conn {
		return newConn(session, serverInfo, formats, connector.metrics, logger, overflow)
	}
	pool := newPool(connector.poolSize(), connector.maxOverflow(), connector.timeout(), factory, connector.metrics)

	return &Client{
		connector:  connector,
		serverInfo: serverInfo,
		version:    ParseVersion(serverInfo.Version),
		pool:       pool,
	}, nil
}

// Close closes the client and its pooled connections.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.pool.close()
}

// Connector returns the connector the client was opened with.
func (c *Client) Connector() *Connector { return c.connector }

// ServerInfo returns the server metadata determined by the handshake.
func (c *Client) ServerInfo() *ServerInfo { return c.serverInfo }

// Version returns the server version determined by the handshake.
func (c *Client) Version() *Version { return c.version }

// Stats returns the client statistics.
func (c *Client) Stats() Stats { return c.connector.metrics.stats() }

// Conn checks out a connection for advanced callers driving the connection
// operations directly. The connection must be returned with PutConn exactly
// once, including on error paths.
func (c *Client) Conn(ctx context.Context) (*Conn, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	return c.pool.checkout(ctx)
}

// PutConn returns a checked out connection to the pool.
func (c *Client) PutConn(conn *Conn) { c.pool.checkin(conn) }

// withConn runs fn with a checked out connection, guaranteeing the checkin
// on all paths.
func (c *Client) withConn(ctx context.Context, fn func(conn *Conn) error) error {
	conn, err := c.Conn(ctx)
	if err != nil {
		return err
	}
	defer c.pool.checkin(conn)
	return fn(conn)
}

// Ping executes a minimal one shot round trip.
func (c *Client) Ping(ctx context.Context) error {
	return c.withConn(ctx, func(conn *Conn) error { return conn.Ping(ctx) })
}

// Query executes a single statement in begin-and-commit-immediately form:
// one round trip opens and closes an implicit transaction server side.
func (c *Client) Query(ctx context.Context, stmt string, params map[string]any) (*Result, error) {
	return c.QueryFormats(ctx, stmt, params, nil)
}

// QueryFormats is like Query with the result formats requested for this
// call only (overriding the connector formats).
func (c *Client) QueryFormats(ctx context.Context, stmt string, params map[string]any, formats []string) (*Result, error) {
	var result *Result
	err := c.withConn(ctx, func(conn *Conn) error {
		var err error
		result, err = conn.QueryFormats(ctx, stmt, params, formats)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// MustQuery is like Query but panics on error, for callers preferring
// failures to halt the current call path over tagged errors.
func (c *Client) MustQuery(ctx context.Context, stmt string, params map[string]any) *Result {
	result, err := c.Query(ctx, stmt, params)
	if err != nil {
		panic(fmt.Errorf("neorest query: %w", err))
	}
	return result
}

// Begin checks out a connection and opens a transaction on it. The
// connection stays checked out until the transaction reaches a terminal
// state via Commit or Rollback.
func (c *Client) Begin(ctx context.Context) (*Tx, error) {
	conn, err := c.Conn(ctx)
	if err != nil {
		return nil, err
	}
	if err := conn.Begin(ctx); err != nil {
		c.pool.checkin(conn)
		return nil, err
	}
	return &Tx{client: c, conn: conn}, nil
}

/*
A Tx is an open transaction bound to a single checked out connection. A Tx
is finished by Commit or Rollback, which return the connection to the pool;
it must not be used concurrently.
*/
type Tx struct {
	client *Client
	mu     sync.Mutex
	conn   *Conn // nil once finished
}

// ErrTxDone is returned by operations on a finished transaction.
var ErrTxDone = ErrNoTransaction

func (tx *Tx) finish() {
	tx.client.pool.checkin(tx.conn)
	tx.conn = nil
}

// Expires returns the server side expiry of the transaction. Executing
// statements extends it (zero once finished or if the server does not
// report one).
func (tx *Tx) Expires() time.Time {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.conn == nil {
		return time.Time{}
	}
	return tx.conn.TxExpires()
}

// Exec executes a statement within the transaction, keeping it open.
func (tx *Tx) Exec(ctx context.Context, stmt string, params map[string]any) (*Result, error) {
	results, err := tx.ExecMany(ctx, []Statement{{Statement: stmt, Parameters: params}})
	if err != nil {
		return nil, err
	}
	return results.first(), nil
}

// ExecMany executes statements within the transaction, keeping it open.
func (tx *Tx) ExecMany(ctx context.Context, stmts []Statement) (Results, error) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.conn == nil {
		return nil, ErrTxDone
	}
	results, err := tx.conn.ExecMany(ctx, stmts)
	if err != nil && !tx.conn.inTx() { // server rolled the transaction back
		tx.finish()
	}
	return results, err
}

// Commit commits the transaction, optionally executing final statements
// within the commit request, and returns the connection to the pool.
func (tx *Tx) Commit(ctx context.Context, stmts ...Statement) (Results, error) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.conn == nil {
		return nil, ErrTxDone
	}
	results, err := tx.conn.Commit(ctx, stmts...)
	if !tx.conn.inTx() { // committed or rolled back server side
		tx.finish()
	}
	return results, err
}

// Rollback rolls the transaction back and returns the connection to the pool.
func (tx *Tx) Rollback(ctx context.Context) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.conn == nil {
		return ErrTxDone
	}
	err := tx.conn.Rollback(ctx)
	if !tx.conn.inTx() {
		tx.finish()
	}
	return err
}

// MustCommit is like Commit but panics on error.
func (tx *Tx) MustCommit(ctx context.Context, stmts ...Statement) Results {
	results, err := tx.Commit(ctx, stmts...)
	if err != nil {
		panic(fmt.Errorf("neorest commit: %w", err))
	}
	return results
}

// MustRollback is like Rollback but panics on error.
func (tx *Tx) MustRollback(ctx context.Context) {
	if err := tx.Rollback(ctx); err != nil {
		panic(fmt.Errorf("neorest rollback: %w", err))
	}
}
