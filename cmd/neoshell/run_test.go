// SPDX-FileCopyrightText: 2020-2026 The go-neorest Authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/neorest/go-neorest/driver/drivertest"
)

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"count=42", "name=Alice", "flags=[1,2]"})
	if err != nil {
		t.Fatal(err)
	}
	if v := params["count"]; v != float64(42) {
		t.Fatalf("count %v - expected 42", v)
	}
	if v := params["name"]; v != "Alice" {
		t.Fatalf("name %v - expected Alice", v)
	}
	if v, ok := params["flags"].([]any); !ok || len(v) != 2 {
		t.Fatalf("flags %v - expected [1 2]", params["flags"])
	}

	if _, err := parseParams([]string{"novalue"}); err == nil {
		t.Fatal("error expected for parameter without value")
	}
}

// execCommand runs the root command with args against the fake server.
func execCommand(t *testing.T, srv *drivertest.Server, args ...string) string {
	t.Helper()

	dsnArg := strings.Replace(srv.URL(), "http://", "neorest://", 1)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(append(args, "--dsn", dsnArg))

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func TestRunCommand(t *testing.T) {
	srv := drivertest.NewServer()
	defer srv.Close()

	out := execCommand(t, srv, "run", "RETURN $name", "name=Alice")
	if !strings.Contains(out, "Alice") {
		t.Fatalf("output %q - expected record value Alice", out)
	}
	if commits := srv.Commits(); commits != 1 {
		t.Fatalf("commits %d - expected 1", commits)
	}
}

func TestScriptCommand(t *testing.T) {
	srv := drivertest.NewServer()
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "test.cypher")
	script := `// test script
CREATE (n:Test {id: 1});
CREATE (n:Test {id: 2});
RETURN 1;
`
	if err := os.WriteFile(path, []byte(script), 0o600); err != nil {
		t.Fatal(err)
	}

	out := execCommand(t, srv, "script", path)
	if !strings.Contains(out, "3 statements committed") {
		t.Fatalf("output %q - expected 3 statements committed", out)
	}
	if begins := srv.Begins(); begins != 1 {
		t.Fatalf("begins %d - expected 1", begins)
	}
}

func TestInfoCommand(t *testing.T) {
	srv := drivertest.NewServer()
	defer srv.Close()

	out := execCommand(t, srv, "info")
	if !strings.Contains(out, drivertest.ServerVersion) {
		t.Fatalf("output %q - expected server version %s", out, drivertest.ServerVersion)
	}
}
