package protocol

import (
	"encoding/json"
	"testing"
)

func TestServerErrorClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		code           string
		classification string
		transient      bool
	}{
		{"client", "Neo.ClientError.Statement.SyntaxError", ClassificationClientError, false},
		{"transient", "Neo.TransientError.Transaction.DeadlockDetected", ClassificationTransientError, true},
		{"database", "Neo.DatabaseError.General.UnknownError", ClassificationDatabaseError, false},
		{"notification", "Neo.ClientNotification.Statement.CartesianProduct", ClassificationClientNotification, false},
		{"unknown scheme", "Whatever.Error", "", false},
		{"empty", "", "", false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			serverErr := &ServerError{code: test.code, message: "m", stmtNo: -1}
			if classification := serverErr.Classification(); classification != test.classification {
				t.Fatalf("classification %s - expected %s", classification, test.classification)
			}
			if transient := serverErr.IsTransientError(); transient != test.transient {
				t.Fatalf("transient %t - expected %t", transient, test.transient)
			}
		})
	}
}

func TestServerErrorUnmarshal(t *testing.T) {
	t.Parallel()

	data := []byte(`{"code":"Neo.ClientError.Security.Unauthorized","message":"No authentication header supplied."}`)
	serverErr := &ServerError{}
	if err := json.Unmarshal(data, serverErr); err != nil {
		t.Fatal(err)
	}
	if serverErr.Code() != CodeUnauthorized {
		t.Fatalf("code %s - expected %s", serverErr.Code(), CodeUnauthorized)
	}
	if serverErr.Message() != "No authentication header supplied." {
		t.Fatalf("unexpected message %s", serverErr.Message())
	}
	if serverErr.StmtNo() != -1 {
		t.Fatalf("stmtNo %d - expected -1", serverErr.StmtNo())
	}
}

func TestServerErrors(t *testing.T) {
	t.Parallel()

	serverErrors := newServerErrors([]*ServerError{
		{code: "Neo.TransientError.Transaction.DeadlockDetected", message: "first", stmtNo: -1},
		{code: "Neo.ClientError.Statement.SyntaxError", message: "second", stmtNo: -1},
	})

	if serverErrors.NumError() != 2 {
		t.Fatalf("numError %d - expected 2", serverErrors.NumError())
	}
	if len(serverErrors.Unwrap()) != 2 {
		t.Fatalf("unwrap %d - expected 2", len(serverErrors.Unwrap()))
	}

	serverErrors.SetIdx(1)
	if serverErrors.Message() != "second" {
		t.Fatalf("message %s - expected second", serverErrors.Message())
	}
	serverErrors.SetIdx(99)
	if serverErrors.Message() != "second" {
		t.Fatalf("message %s - expected second", serverErrors.Message())
	}
	serverErrors.SetIdx(-1)
	if serverErrors.Message() != "first" {
		t.Fatalf("message %s - expected first", serverErrors.Message())
	}

	if serverErrors.Retryable() {
		t.Fatal("retryable true - expected false")
	}

	transientOnly := newServerErrors([]*ServerError{
		{code: "Neo.TransientError.Transaction.DeadlockDetected", message: "deadlock", stmtNo: -1},
	})
	if !transientOnly.Retryable() {
		t.Fatal("retryable false - expected true")
	}

	serverErrors.setStmtNo(3)
	if serverErrors.StmtNo() != 3 {
		t.Fatalf("stmtNo %d - expected 3", serverErrors.StmtNo())
	}

	var count int
	serverErrors.ErrorsFunc(func(err error) { count++ })
	if count != 2 {
		t.Fatalf("count %d - expected 2", count)
	}
}
