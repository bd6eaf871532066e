// SPDX-FileCopyrightText: 2020-2026 The go-neorest Authors
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/neorest/go-neorest/driver/drivertest"
)

func newTestClient(t *testing.T, srv *drivertest.Server) *Client {
	t.Helper()
	connector := NewBasicAuthConnector(srv.URL(), "", "")
	connector.SetPoolSize(2)
	connector.SetMaxOverflow(1)
	client, err := OpenClient(context.Background(), connector)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestOpenClient(t *testing.T) {
	t.Parallel()

	srv := drivertest.NewServer()
	defer srv.Close()

	client := newTestClient(t, srv)

	serverInfo := client.ServerInfo()
	if serverInfo.Version != drivertest.ServerVersion {
		t.Fatalf("version %s - expected %s", serverInfo.Version, drivertest.ServerVersion)
	}
	if serverInfo.Edition != drivertest.ServerEdition {
		t.Fatalf("edition %s - expected %s", serverInfo.Edition, drivertest.ServerEdition)
	}
	// the database template is resolved during the handshake
	if !strings.HasSuffix(serverInfo.TxEndpoint, "/db/"+DefaultDatabase+"/tx") {
		t.Fatalf("transaction endpoint %s - expected /db/%s/tx suffix", serverInfo.TxEndpoint, DefaultDatabase)
	}
	if client.Version().Major() != 5 {
		t.Fatalf("major version %d - expected 5", client.Version().Major())
	}

	// the pool is created eagerly
	stats := client.Stats()
	if stats.OpenConnections != 2 {
		t.Fatalf("open connections %d - expected 2", stats.OpenConnections)
	}

	if err := client.Ping(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestOpenClientDiscoveryError(t *testing.T) {
	t.Parallel()

	// a discovery document without transaction endpoint aborts the
	// handshake before any connection is created.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"neo4j_version":"5.26.0"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	connector := NewBasicAuthConnector(srv.URL, "", "")
	_, err := OpenClient(context.Background(), connector)
	var protocolError *ProtocolError
	if !errors.As(err, &protocolError) {
		t.Fatalf("error %v - expected protocol error", err)
	}
	if stats := connector.Stats(); stats.OpenConnections != 0 {
		t.Fatalf("open connections %d - expected 0", stats.OpenConnections)
	}
}

func TestClientQuery(t *testing.T) {
	t.Parallel()

	srv := drivertest.NewServer()
	defer srv.Close()

	client := newTestClient(t, srv)
	ctx := context.Background()

	result, err := client.QueryFormats(ctx, "CREATE (n:Test {name: $name}) RETURN n",
		map[string]any{"name": "A"}, []string{FormatRow, FormatGraph})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Records) != 1 {
		t.Fatalf("records %d - expected 1", len(result.Records))
	}
	record := result.Records[0]
	if record.Values[0] != "A" {
		t.Fatalf("value %v - expected A", record.Values[0])
	}
	if record.Graph == nil || len(record.Graph.Nodes) != 1 {
		t.Fatal("graph representation missing")
	}
	if name := record.Graph.Nodes[0].Properties["name"]; name != "A" {
		t.Fatalf("node property %v - expected A", name)
	}

	// one shot requests commit immediately and leave no transaction behind
	if srv.OpenTransactions() != 0 {
		t.Fatalf("open transactions %d - expected 0", srv.OpenTransactions())
	}
	if srv.Begins() != 0 {
		t.Fatalf("begins %d - expected 0", srv.Begins())
	}
	if srv.Commits() != 1 {
		t.Fatalf("commits %d - expected 1", srv.Commits())
	}
}

func TestClientQueryServerError(t *testing.T) {
	t.Parallel()

	srv := drivertest.NewServer()
	defer srv.Close()
	srv.Handle("FAIL", func(_ map[string]any) (*drivertest.StatementResult, *drivertest.StatementError) {
		return nil, &drivertest.StatementError{Code: "Neo.ClientError.Statement.SyntaxError", Message: "Invalid input"}
	})

	client := newTestClient(t, srv)

	// the server reports statement errors within the response body
	_, err := client.Query(context.Background(), "FAIL", nil)
	var transactionError *TransactionError
	if !errors.As(err, &transactionError) {
		t.Fatalf("error %v - expected transaction error", err)
	}
	if transactionError.Code() != "Neo.ClientError.Statement.SyntaxError" {
		t.Fatalf("code %s - expected Neo.ClientError.Statement.SyntaxError", transactionError.Code())
	}
	if transactionError.Classification() != ClassificationClientError {
		t.Fatalf("classification %s - expected %s", transactionError.Classification(), ClassificationClientError)
	}
	if !transactionError.IsClientError() {
		t.Fatal("expected client error classification")
	}
}

func TestClientTx(t *testing.T) {
	t.Parallel()

	srv := drivertest.NewServer()
	defer srv.Close()

	client := newTestClient(t, srv)
	ctx := context.Background()

	tx, err := client.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if srv.OpenTransactions() != 1 {
		t.Fatalf("open transactions %d - expected 1", srv.OpenTransactions())
	}
	if tx.Expires().IsZero() {
		t.Fatal("transaction expiry not reported")
	}
	if stats := client.Stats(); stats.OpenTransactions != 1 {
		t.Fatalf("open transactions %d - expected 1", stats.OpenTransactions)
	}

	result, err := tx.Exec(ctx, "CREATE (n:Test {name: $name})", map[string]any{"name": "A"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Records[0].Values[0] != "A" {
		t.Fatalf("value %v - expected A", result.Records[0].Values[0])
	}

	// final statements execute within the commit request
	results, err := tx.Commit(ctx, Statement{Statement: "CREATE (n:Test {name: $name})", Parameters: map[string]any{"name": "B"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("results %d - expected 1", len(results))
	}
	if srv.OpenTransactions() != 0 {
		t.Fatalf("open transactions %d - expected 0", srv.OpenTransactions())
	}

	// the connection is back in the pool
	if stats := client.Stats(); stats.OpenTransactions != 0 {
		t.Fatalf("open transactions %d - expected 0", stats.OpenTransactions)
	}
	if client.pool.numIdle() != 2 {
		t.Fatalf("idle %d - expected 2", client.pool.numIdle())
	}

	// a finished transaction rejects further operations
	if _, err := tx.Exec(ctx, "RETURN 1", nil); !errors.Is(err, ErrTxDone) {
		t.Fatalf("error %v - expected %v", err, ErrTxDone)
	}
	if _, err := tx.Commit(ctx); !errors.Is(err, ErrTxDone) {
		t.Fatalf("error %v - expected %v", err, ErrTxDone)
	}
}

func TestClientTxRollback(t *testing.T) {
	t.Parallel()

	srv := drivertest.NewServer()
	defer srv.Close()

	client := newTestClient(t, srv)
	ctx := context.Background()

	tx, err := client.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tx.Exec(ctx, "CREATE (n:Test)", nil); err != nil {
		t.Fatal(err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatal(err)
	}
	if srv.Rollbacks() != 1 {
		t.Fatalf("rollbacks %d - expected 1", srv.Rollbacks())
	}
	if srv.OpenTransactions() != 0 {
		t.Fatalf("open transactions %d - expected 0", srv.OpenTransactions())
	}
	if client.pool.numIdle() != 2 {
		t.Fatalf("idle %d - expected 2", client.pool.numIdle())
	}
	if err := tx.Rollback(ctx); !errors.Is(err, ErrTxDone) {
		t.Fatalf("error %v - expected %v", err, ErrTxDone)
	}
}

func TestClientTxServerErrorRollsBack(t *testing.T) {
	t.Parallel()

	srv := drivertest.NewServer()
	defer srv.Close()
	srv.Handle("FAIL", func(_ map[string]any) (*drivertest.StatementResult, *drivertest.StatementError) {
		return nil, &drivertest.StatementError{Code: "Neo.ClientError.Statement.SyntaxError", Message: "Invalid input"}
	})

	client := newTestClient(t, srv)
	ctx := context.Background()

	tx, err := client.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}

	// the server rolls the transaction back on a failing statement, so
	// the transaction is finished client side as well.
	_, err = tx.Exec(ctx, "FAIL", nil)
	var transactionError *TransactionError
	if !errors.As(err, &transactionError) {
		t.Fatalf("error %v - expected transaction error", err)
	}
	if srv.OpenTransactions() != 0 {
		t.Fatalf("open transactions %d - expected 0", srv.OpenTransactions())
	}
	if _, err := tx.Exec(ctx, "RETURN 1", nil); !errors.Is(err, ErrTxDone) {
		t.Fatalf("error %v - expected %v", err, ErrTxDone)
	}
	if client.pool.numIdle() != 2 {
		t.Fatalf("idle %d - expected 2", client.pool.numIdle())
	}
}

func TestConnNestedBegin(t *testing.T) {
	t.Parallel()

	srv := drivertest.NewServer()
	defer srv.Close()

	client := newTestClient(t, srv)
	ctx := context.Background()

	conn, err := client.Conn(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer client.PutConn(conn)

	if err := conn.Begin(ctx); err != nil {
		t.Fatal(err)
	}
	if err := conn.Begin(ctx); !errors.Is(err, ErrNestedTransaction) {
		t.Fatalf("error %v - expected %v", err, ErrNestedTransaction)
	}
	// the open transaction survives the rejected begin
	if !conn.InTx() {
		t.Fatal("transaction not open")
	}
	if err := conn.Rollback(ctx); err != nil {
		t.Fatal(err)
	}
	if err := conn.Rollback(ctx); !errors.Is(err, ErrNoTransaction) {
		t.Fatalf("error %v - expected %v", err, ErrNoTransaction)
	}
}

func TestConnCommitWithoutTx(t *testing.T) {
	t.Parallel()

	srv := drivertest.NewServer()
	defer srv.Close()

	client := newTestClient(t, srv)
	ctx := context.Background()

	conn, err := client.Conn(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer client.PutConn(conn)

	// without an open transaction Commit degrades to the one shot path
	results, err := conn.Commit(ctx, Statement{Statement: "CREATE (n:Test {name: $name})", Parameters: map[string]any{"name": "A"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("results %d - expected 1", len(results))
	}
	if srv.Begins() != 0 {
		t.Fatalf("begins %d - expected 0", srv.Begins())
	}
	if _, err := conn.Exec(ctx, "RETURN 1", nil); !errors.Is(err, ErrNoTransaction) {
		t.Fatalf("error %v - expected %v", err, ErrNoTransaction)
	}
}

func TestClientClosed(t *testing.T) {
	t.Parallel()

	srv := drivertest.NewServer()
	defer srv.Close()

	client := newTestClient(t, srv)
	if err := client.Close(); err != nil {
		t.Fatal(err)
	}
	if err := client.Close(); err != nil { // closing twice is fine
		t.Fatal(err)
	}
	if _, err := client.Query(context.Background(), "RETURN 1", nil); !errors.Is(err, ErrClientClosed) {
		t.Fatalf("error %v - expected %v", err, ErrClientClosed)
	}
	if stats := client.Stats(); stats.OpenConnections != 0 {
		t.Fatalf("open connections %d - expected 0", stats.OpenConnections)
	}
}

func TestClientAuthRefresh(t *testing.T) {
	t.Parallel()

	srv := drivertest.NewServer()
	defer srv.Close()
	srv.SetBasicAuth("neo4j", "secret")

	// the rejected request is retried once after a successful refresh
	connector := NewBasicAuthConnector(srv.URL(), "neo4j", "outdated")
	connector.SetRefreshPassword(func() (string, bool) { return "secret", true })

	client, err := OpenClient(context.Background(), connector)
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	if err := client.Ping(context.Background()); err != nil {
		t.Fatal(err)
	}
}
