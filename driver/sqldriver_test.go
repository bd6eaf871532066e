// SPDX-FileCopyrightText: 2020-2026 The go-neorest Authors
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/neorest/go-neorest/driver/drivertest"
)

func TestSQLQuery(t *testing.T) {
	t.Parallel()

	srv := drivertest.NewServer()
	defer srv.Close()

	db := sql.OpenDB(NewBasicAuthConnector(srv.URL(), "", ""))
	defer db.Close()

	// named arguments map to statement parameters
	rows, err := db.Query("MATCH (n:Test {name: $name}) RETURN n.name", sql.Named("name", "A"))
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		t.Fatal(err)
	}
	if len(columns) != 1 || columns[0] != "name" {
		t.Fatalf("columns %v - expected [name]", columns)
	}
	if !rows.Next() {
		t.Fatal(rows.Err())
	}
	var name string
	if err := rows.Scan(&name); err != nil {
		t.Fatal(err)
	}
	if name != "A" {
		t.Fatalf("name %s - expected A", name)
	}
	if rows.Next() {
		t.Fatal("unexpected second row")
	}
}

func TestSQLPositionalArgs(t *testing.T) {
	t.Parallel()

	srv := drivertest.NewServer()
	defer srv.Close()

	db := sql.OpenDB(NewBasicAuthConnector(srv.URL(), "", ""))
	defer db.Close()

	// positional arguments are exposed as p1, p2, ...
	var value float64
	if err := db.QueryRow("RETURN $p1", 42).Scan(&value); err != nil {
		t.Fatal(err)
	}
	if value != 42 {
		t.Fatalf("value %v - expected 42", value)
	}
}

func TestSQLTx(t *testing.T) {
	t.Parallel()

	srv := drivertest.NewServer()
	defer srv.Close()

	db := sql.OpenDB(NewBasicAuthConnector(srv.URL(), "", ""))
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tx.Exec("CREATE (n:Test {name: $name})", sql.Named("name", "A")); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}
	if srv.Begins() != 1 {
		t.Fatalf("begins %d - expected 1", srv.Begins())
	}
	if srv.OpenTransactions() != 0 {
		t.Fatalf("open transactions %d - expected 0", srv.OpenTransactions())
	}

	tx, err = db.Begin()
	if err != nil {
		t.Fatal(err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatal(err)
	}
	if srv.Rollbacks() != 1 {
		t.Fatalf("rollbacks %d - expected 1", srv.Rollbacks())
	}
}

func TestSQLDriverRegistration(t *testing.T) {
	t.Parallel()

	srv := drivertest.NewServer()
	defer srv.Close()

	// the driver registers itself under its name for sql.Open
	dsn := strings.Replace(srv.URL(), "http://", "neorest://", 1)
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		t.Fatal(err)
	}

	var value float64
	if err := db.QueryRow("RETURN 1").Scan(&value); err != nil {
		t.Fatal(err)
	}
	if value != 1 {
		t.Fatalf("value %v - expected 1", value)
	}
}
