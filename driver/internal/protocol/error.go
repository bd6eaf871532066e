package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Error classifications used by the server status codes
// (second segment of "Neo.<Classification>.<Category>.<Title>").
const (
	ClassificationClientError        = "ClientError"
	ClassificationClientNotification = "ClientNotification"
	ClassificationTransientError     = "TransientError"
	ClassificationDatabaseError      = "DatabaseError"
)

// Frequently checked server status codes.
const (
	CodeUnauthorized       = "Neo.ClientError.Security.Unauthorized"
	CodeInvalidTransaction = "Neo.ClientError.Transaction.TransactionNotFound"
)

// ServerError represents a single entry of the errors list returned by the server.
type ServerError struct {
	code    string
	message string
	stmtNo  int
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (e *ServerError) UnmarshalJSON(data []byte) error {
	var entry struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &entry); err != nil {
		return err
	}
	e.code = entry.Code
	e.message = entry.Message
	e.stmtNo = -1
	return nil
}

func (e *ServerError) String() string {
	return fmt.Sprintf("code %s message %s stmtNo %d", e.code, e.message, e.stmtNo)
}

func (e *ServerError) Error() string {
	if e.stmtNo != -1 {
		return fmt.Sprintf("cypher %s - %s (statement no: %d)", e.code, e.message, e.stmtNo)
	}
	return fmt.Sprintf("cypher %s - %s", e.code, e.message)
}

// StmtNo implements the driver.Error interface.
func (e *ServerError) StmtNo() int { return e.stmtNo }

// Code implements the driver.Error interface.
func (e *ServerError) Code() string { return e.code }

// Message implements the driver.Error interface.
func (e *ServerError) Message() string { return e.message }

// Classification implements the driver.Error interface.
func (e *ServerError) Classification() string {
	parts := strings.SplitN(e.code, ".", 3)
	if len(parts) < 2 || parts[0] != "Neo" {
		return ""
	}
	return parts[1]
}

// IsClientError implements the driver.Error interface.
func (e *ServerError) IsClientError() bool { return e.Classification() == ClassificationClientError }

// IsTransientError implements the driver.Error interface.
func (e *ServerError) IsTransientError() bool {
	return e.Classification() == ClassificationTransientError
}

// IsDatabaseError implements the driver.Error interface.
func (e *ServerError) IsDatabaseError() bool {
	return e.Classification() == ClassificationDatabaseError
}

// ServerErrors represents the collection of errors returned by the server.
type ServerErrors struct {
	errs []*ServerError
	idx  int
}

func newServerErrors(errs []*ServerError) *ServerErrors {
	return &ServerErrors{errs: errs}
}

func (e *ServerErrors) String() string {
	if len(e.errs) == 1 {
		return e.errs[0].String()
	}
	strs := make([]string, 0, len(e.errs))
	for _, err := range e.errs {
		strs = append(strs, err.String())
	}
	return strings.Join(strs, " ")
}

func (e *ServerErrors) Error() string {
	if len(e.errs) == 1 {
		return e.errs[0].Error()
	}
	strs := make([]string, 0, len(e.errs))
	for _, err := range e.errs {
		strs = append(strs, err.Error())
	}
	return strings.Join(strs, " ")
}

// ErrorsFunc executes fn on all server errors.
func (e *ServerErrors) ErrorsFunc(fn func(err error)) {
	for _, err := range e.errs {
		fn(err)
	}
}

// NumError implements the driver.Error interface.
func (e *ServerErrors) NumError() int { return len(e.errs) }

func (e *ServerErrors) Unwrap() []error {
	errs := make([]error, 0, len(e.errs))
	for _, err := range e.errs {
		errs = append(errs, err)
	}
	return errs
}

// SetIdx implements the driver.Error interface.
func (e *ServerErrors) SetIdx(idx int) {
	numError := e.NumError()
	switch {
	case idx < 0:
		e.idx = 0
	case idx >= numError:
		e.idx = numError - 1
	default:
		e.idx = idx
	}
}

// StmtNo implements the driver.Error interface.
func (e *ServerErrors) StmtNo() int { return e.errs[e.idx].StmtNo() }

// Code implements the driver.Error interface.
func (e *ServerErrors) Code() string { return e.errs[e.idx].Code() }

// Message implements the driver.Error interface.
func (e *ServerErrors) Message() string { return e.errs[e.idx].Message() }

// Classification implements the driver.Error interface.
func (e *ServerErrors) Classification() string { return e.errs[e.idx].Classification() }

// IsClientError implements the driver.Error interface.
func (e *ServerErrors) IsClientError() bool { return e.errs[e.idx].IsClientError() }

// IsTransientError implements the driver.Error interface.
func (e *ServerErrors) IsTransientError() bool { return e.errs[e.idx].IsTransientError() }

// IsDatabaseError implements the driver.Error interface.
func (e *ServerErrors) IsDatabaseError() bool { return e.errs[e.idx].IsDatabaseError() }

// setStmtNo sets the statement number of all errors. The server stops executing
// at the first failing statement, so the number of returned results equals the
// index of the statement the errors refer to.
func (e *ServerErrors) setStmtNo(no int) {
	for _, err := range e.errs {
		err.stmtNo = no
	}
}

// Retryable returns true if the error collection consists of transient errors only, false otherwise.
func (e *ServerErrors) Retryable() bool {
	for _, err := range e.errs {
		if !err.IsTransientError() {
			return false
		}
	}
	return true
}

// ConnectionError represents a failed HTTP exchange with the server
// (resolver, dial, TLS or timeout failures). It does not indicate a
// server side statement or transaction failure.
type ConnectionError struct {
	Op  string
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error: %s %s: %v", e.Op, e.URL, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *ConnectionError) Unwrap() error { return e.Err }

// ProtocolError represents an unexpected or malformed server response,
// like a non JSON body or a discovery document without the fields the
// client depends on.
type ProtocolError struct {
	Op     string
	URL    string
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol error: %s %s: %s: %v", e.Op, e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("protocol error: %s %s: %s", e.Op, e.URL, e.Reason)
}

// Unwrap returns the underlying decode error if any.
func (e *ProtocolError) Unwrap() error { return e.Err }
