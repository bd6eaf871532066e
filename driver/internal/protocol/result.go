// SPDX-FileCopyrightText: 2020-2026 The go-neorest Authors
//
// SPDX-License-Identifier: Apache-2.0

package protocol

// StatementResult represents the result of a single statement.
type StatementResult struct {
	Columns []string    `json:"columns"`
	Data    []*DataRow  `json:"data"`
	Stats   *QueryStats `json:"stats"`
}

// DataRow represents a single result row holding the representations
// requested via the statement result formats.
type DataRow struct {
	Row   []any  `json:"row"`
	Meta  []any  `json:"meta"`
	Graph *Graph `json:"graph"`
}

// Graph represents the graph projection of a result row.
type Graph struct {
	Nodes         []*Node         `json:"nodes"`
	Relationships []*Relationship `json:"relationships"`
}

// Node represents a graph node.
type Node struct {
	ID         string         `json:"id"`
	Labels     []string       `json:"labels"`
	Properties map[string]any `json:"properties"`
}

// Relationship represents a directed graph relationship.
type Relationship struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	StartNode  string         `json:"startNode"`
	EndNode    string         `json:"endNode"`
	Properties map[string]any `json:"properties"`
}

// QueryStats represents the update counters of a statement, reported by
// the server when includeStats is requested.
type QueryStats struct {
	ContainsUpdates      bool `json:"contains_updates"`
	NodesCreated         int  `json:"nodes_created"`
	NodesDeleted         int  `json:"nodes_deleted"`
	PropertiesSet        int  `json:"properties_set"`
	RelationshipsCreated int  `json:"relationships_created"`
	RelationshipsDeleted int  `json:"relationship_deleted"`
	LabelsAdded          int  `json:"labels_added"`
	LabelsRemoved        int  `json:"labels_removed"`
	IndexesAdded         int  `json:"indexes_added"`
	IndexesRemoved       int  `json:"indexes_removed"`
	ConstraintsAdded     int  `json:"constraints_added"`
	ConstraintsRemoved   int  `json:"constraints_removed"`
}
