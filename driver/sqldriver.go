// SPDX-FileCopyrightText: 2020-2026 The go-neorest Authors
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"io"
	"strconv"
)

// The database/sql facade: a stateless adapter translating driver calls
// into the connection operations of the core. Statement parameters map to
// Cypher parameters by argument name, positional arguments are exposed as
// $p1, $p2, ...

// check if the facade implements all required interfaces.
var (
	_ driver.Conn              = (*sqlConn)(nil)
	_ driver.Pinger            = (*sqlConn)(nil)
	_ driver.QueryerContext    = (*sqlConn)(nil)
	_ driver.ExecerContext     = (*sqlConn)(nil)
	_ driver.ConnBeginTx       = (*sqlConn)(nil)
	_ driver.NamedValueChecker = (*sqlConn)(nil)
	_ driver.Validator         = (*sqlConn)(nil)
	_ driver.Tx                = (*sqlTx)(nil)
	_ driver.Stmt              = (*sqlStmt)(nil)
	_ driver.StmtQueryContext  = (*sqlStmt)(nil)
	_ driver.StmtExecContext   = (*sqlStmt)(nil)
	_ driver.Rows              = (*sqlRows)(nil)
)

type sqlConn struct {
	conn *Conn
}

// Close implements the driver.Conn interface.
func (c *sqlConn) Close() error { return c.conn.Close() }

// IsValid implements the driver.Validator interface.
func (c *sqlConn) IsValid() bool { return !c.conn.closed.Load() }

// Ping implements the driver.Pinger interface.
func (c *sqlConn) Ping(ctx context.Context) error {
	if err := c.conn.Ping(ctx); err != nil {
		var connErr *ConnectionError
		if errors.As(err, &connErr) {
			return driver.ErrBadConn
		}
		return err
	}
	return nil
}

// Prepare implements the driver.Conn interface.
func (c *sqlConn) Prepare(query string) (driver.Stmt, error) {
	// the transactional endpoint has no prepare phase - the statement is
	// captured and sent on execution.
	return &sqlStmt{conn: c, query: query}, nil
}

// CheckNamedValue implements the driver.NamedValueChecker interface.
func (c *sqlConn) CheckNamedValue(nv *driver.NamedValue) error {
	// pass all values through, the JSON codec handles the conversion.
	return nil
}

// BeginTx implements the driver.ConnBeginTx interface.
func (c *sqlConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if sql.IsolationLevel(opts.Isolation) != sql.LevelDefault {
		return nil, errors.New("unsupported isolation level")
	}
	if opts.ReadOnly {
		return nil, errors.New("read only transactions are not supported")
	}
	if err := c.conn.Begin(ctx); err != nil {
		return nil, err
	}
	return &sqlTx{conn: c.conn}, nil
}

// Begin implements the driver.Conn interface.
func (c *sqlConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

// QueryContext implements the driver.QueryerContext interface.
func (c *sqlConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	result, err := c.query(ctx, query, args)
	if err != nil {
		return nil, err
	}
	return &sqlRows{result: result}, nil
}

// ExecContext implements the driver.ExecerContext interface.
func (c *sqlConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	if _, err := c.query(ctx, query, args); err != nil {
		return nil, err
	}
	return driver.ResultNoRows, nil
}

// query dispatches in transaction statements to the open transaction and
// everything else to the one shot path.
func (c *sqlConn) query(ctx context.Context, query string, args []driver.NamedValue) (*Result, error) {
	params := namedValuesToParams(args)
	if c.conn.InTx() {
		return c.conn.Exec(ctx, query, params)
	}
	return c.conn.Query(ctx, query, params)
}

func namedValuesToParams(args []driver.NamedValue) map[string]any {
	if len(args) == 0 {
		return nil
	}
	params := make(map[string]any, len(args))
	for _, arg := range args {
		name := arg.Name
		if name == "" {
			name = "p" + strconv.Itoa(arg.Ordinal)
		}
		params[name] = arg.Value
	}
	return params
}

type sqlTx struct {
	conn *Conn
}

// Commit implements the driver.Tx interface.
func (tx *sqlTx) Commit() error {
	_, err := tx.conn.Commit(context.Background())
	return err
}

// Rollback implements the driver.Tx interface.
func (tx *sqlTx) Rollback() error {
	return tx.conn.Rollback(context.Background())
}

type sqlStmt struct {
	conn  *sqlConn
	query string
}

// Close implements the driver.Stmt interface.
func (s *sqlStmt) Close() error { return nil }

// NumInput implements the driver.Stmt interface.
func (s *sqlStmt) NumInput() int { return -1 }

// Exec implements the driver.Stmt interface.
func (s *sqlStmt) Exec(args []driver.Value) (driver.Result, error) {
	return s.ExecContext(context.Background(), valuesToNamedValues(args))
}

// Query implements the driver.Stmt interface.
func (s *sqlStmt) Query(args []driver.Value) (driver.Rows, error) {
	return s.QueryContext(context.Background(), valuesToNamedValues(args))
}

// ExecContext implements the driver.StmtExecContext interface.
func (s *sqlStmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	return s.conn.ExecContext(ctx, s.query, args)
}

// QueryContext implements the driver.StmtQueryContext interface.
func (s *sqlStmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	return s.conn.QueryContext(ctx, s.query, args)
}

func valuesToNamedValues(values []driver.Value) []driver.NamedValue {
	nvs := make([]driver.NamedValue, len(values))
	for i, value := range values {
		nvs[i] = driver.NamedValue{Ordinal: i + 1, Value: value}
	}
	return nvs
}

type sqlRows struct {
	result *Result
	pos    int
}

// Columns implements the driver.Rows interface.
func (r *sqlRows) Columns() []string { return r.result.Columns }

// Close implements the driver.Rows interface.
func (r *sqlRows) Close() error { return nil }

// Next implements the driver.Rows interface.
func (r *sqlRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.result.Records) {
		return io.EOF
	}
	record := r.result.Records[r.pos]
	r.pos++
	for i := range dest {
		if i < len(record.Values) {
			dest[i] = toDriverValue(record.Values[i])
		} else {
			dest[i] = nil
		}
	}
	return nil
}

// toDriverValue maps decoded JSON values to driver values. Composite
// values (node and relationship projections, lists) are re-encoded as
// JSON bytes, scalars pass through.
func toDriverValue(value any) driver.Value {
	switch v := value.(type) {
	case nil, bool, float64, string:
		return v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		return data
	}
}
