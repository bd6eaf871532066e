// SPDX-FileCopyrightText: 2020-2026 The go-neorest Authors
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	p "github.com/neorest/go-neorest/driver/internal/protocol"
)

// Result formats a statement can request from the server.
const (
	FormatRow   = p.FormatRow
	FormatGraph = p.FormatGraph
)

// A Statement is a single parameterized statement of a multi statement
// request (see Tx.Commit and Conn.ExecMany).
type Statement = p.Statement

// ServerInfo represents the discovery result of the server handshake:
// the resolved transaction endpoint and the server version. It is
// determined once per client and shared read only by all connections.
type ServerInfo = p.ServerInfo

// A Node represents a graph node of a result requested with FormatGraph.
type Node = p.Node

// A Relationship represents a directed graph relationship of a result
// requested with FormatGraph.
type Relationship = p.Relationship

// A Graph represents the graph projection of a result row.
type Graph = p.Graph

// QueryStats represents the update counters of a statement.
type QueryStats = p.QueryStats

// A Record represents a single result row.
type Record struct {
	// Values holds the row representation of the record, one value per
	// result column (nil if the row format was not requested).
	Values []any
	// Graph holds the graph representation of the record (nil if the
	// graph format was not requested).
	Graph *Graph
}

// A Result represents the result of a single statement.
type Result struct {
	Columns []string
	Records []*Record
	// Stats holds the update counters if reported by the server.
	Stats *QueryStats
}

// Results represents the results of a multi statement request, one entry
// per statement in request order.
type Results []*Result

func (rs Results) first() *Result {
	if len(rs) == 0 {
		return &Result{}
	}
	return rs[0]
}

func newResult(sr *p.StatementResult) *Result {
	records := make([]*Record, 0, len(sr.Data))
	for _, row := range sr.Data {
		records = append(records, &Record{Values: row.Row, Graph: row.Graph})
	}
	return &Result{Columns: sr.Columns, Records: records, Stats: sr.Stats}
}

func newResults(srs []*p.StatementResult) Results {
	results := make(Results, 0, len(srs))
	for _, sr := range srs {
		results = append(results, newResult(sr))
	}
	return results
}

func singleResult(srs []*p.StatementResult) *Result {
	if len(srs) == 0 {
		return &Result{}
	}
	return newResult(srs[0])
}
