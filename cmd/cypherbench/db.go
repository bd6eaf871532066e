// SPDX-FileCopyrightText: 2020-2026 The go-neorest Authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/neorest/go-neorest/driver"
)

// Database operation URL paths.
const (
	cmdCountNodes  = "countNodes"
	cmdDeleteNodes = "deleteNodes"
	cmdServerInfo  = "serverInfo"
)

// nodeLabel is the label of all nodes created by the load tests.
const nodeLabel = "CypherBench"

// dba wraps the client used for the load tests and database commands.
type dba struct {
	client *driver.Client
}

func newDBA(dsn string) (*dba, error) {
	connector, err := driver.NewDSNConnector(dsn)
	if err != nil {
		return nil, err
	}
	client, err := driver.OpenClient(context.Background(), connector)
	if err != nil {
		return nil, err
	}
	return &dba{client: client}, nil
}

func (dba *dba) close() error { return dba.client.Close() }

func (dba *dba) serverVersion() string { return dba.client.ServerInfo().Version }

// countNodes returns the number of load test nodes.
func (dba *dba) countNodes() (int64, error) {
	result, err := dba.client.Query(context.Background(), fmt.Sprintf("MATCH (n:%s) RETURN count(n)", nodeLabel), nil)
	if err != nil {
		return 0, err
	}
	if len(result.Records) != 1 || len(result.Records[0].Values) != 1 {
		return 0, fmt.Errorf("invalid count result %v", result.Records)
	}
	count, ok := result.Records[0].Values[0].(float64)
	if !ok {
		return 0, fmt.Errorf("invalid count value %v", result.Records[0].Values[0])
	}
	return int64(count), nil
}

// deleteNodes deletes all load test nodes.
func (dba *dba) deleteNodes() (int64, error) {
	result, err := dba.client.Query(context.Background(), fmt.Sprintf("MATCH (n:%s) DETACH DELETE n", nodeLabel), nil)
	if err != nil {
		return 0, err
	}
	if result.Stats != nil {
		return int64(result.Stats.NodesDeleted), nil
	}
	return -1, nil
}

func (dba *dba) executeCommand(command string) *dbResult {
	result := &dbResult{Command: command, NumRow: -1}
	switch command {
	case cmdCountNodes:
		result.NumRow, result.Err = dba.countNodes()
	case cmdDeleteNodes:
		result.NumRow, result.Err = dba.deleteNodes()
	case cmdServerInfo:
		serverInfo := dba.client.ServerInfo()
		result.Text = fmt.Sprintf("version %s edition %s endpoint %s", serverInfo.Version, serverInfo.Edition, serverInfo.TxEndpoint)
	default:
		result.Err = fmt.Errorf("invalid command %s", command)
	}
	return result
}

// dbResult is the structure used to provide db command result response.
type dbResult struct {
	Command string
	NumRow  int64
	Text    string
	Err     error
}

func (r *dbResult) String() string {
	switch {
	case r.Err != nil:
		return fmt.Sprintf("command: %s error: %s", r.Command, r.Err)
	case r.Text != "":
		return fmt.Sprintf("command: %s: %s", r.Command, r.Text)
	case r.NumRow != -1:
		return fmt.Sprintf("command: %s: %d nodes", r.Command, r.NumRow)
	default:
		return fmt.Sprintf("command: %s: ok", r.Command)
	}
}

// dbHandler implements the http.Handler interface for database operations.
type dbHandler struct {
	dba *dba
}

// newDBHandler returns a new DBHandler instance.
func newDBHandler(dba *dba) *dbHandler {
	return &dbHandler{dba: dba}
}

func (h *dbHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := newURLQuery(r)

	command := q.getString(urlQueryCommand, "")

	result := h.dba.executeCommand(command)

	log.Printf("%s", result)
	fmt.Fprintln(w, result)
}
