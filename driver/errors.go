// SPDX-FileCopyrightText: 2020-2026 The go-neorest Authors
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"errors"
	"fmt"

	p "github.com/neorest/go-neorest/driver/internal/protocol"
)

var (
	// ErrClientClosed is the error raised if a client is used after closing it.
	ErrClientClosed = errors.New("client is closed")
	// ErrPoolTimeout is the error raised if a connection checkout did time out.
	ErrPoolTimeout = errors.New("connection pool checkout timed out")
	// ErrNestedTransaction is the error raised if a transaction is created within
	// a transaction as this is not supported by the transactional endpoint.
	ErrNestedTransaction = errors.New("nested transactions are not supported")
	// ErrNoTransaction is the error raised if a transaction operation is executed
	// on a connection without an open transaction.
	ErrNoTransaction = errors.New("no transaction open")
)

// A ConnectionError reports a failed HTTP exchange with the server. Use
// errors.As to detect it and Unwrap to access the transport error.
type ConnectionError = p.ConnectionError

// A ProtocolError reports an unexpected or malformed server response.
type ProtocolError = p.ProtocolError

// A TransactionError reports statement or transaction errors returned by the
// server within the errors list of a response, independently of the HTTP
// status. Use errors.As to detect it; the individual server errors are
// accessible via Unwrap or the index based accessors.
type TransactionError = p.ServerErrors

// A ServerError represents a single server error of a TransactionError.
type ServerError = p.ServerError

// Server error classifications (see TransactionError.Classification).
const (
	ClassificationClientError        = p.ClassificationClientError
	ClassificationClientNotification = p.ClassificationClientNotification
	ClassificationTransientError     = p.ClassificationTransientError
	ClassificationDatabaseError      = p.ClassificationDatabaseError
)

// A ConfigError reports an invalid client configuration, like a missing URL
// or both credential kinds being set. Configuration errors are fatal and
// surface before any connection is established.
type ConfigError struct {
	s   string
	err error
}

func newConfigError(format string, v ...any) *ConfigError {
	return &ConfigError{s: fmt.Sprintf(format, v...)}
}

func wrapConfigError(err error) *ConfigError {
	return &ConfigError{err: err}
}

func (e *ConfigError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("configuration error: %v", e.err)
	}
	return fmt.Sprintf("configuration error: %s", e.s)
}

// Unwrap returns the nested error.
func (e *ConfigError) Unwrap() error { return e.err }
