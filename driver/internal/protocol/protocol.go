// Package protocol implements the HTTP transactional endpoint protocol.
package protocol

import (
	"encoding/json"
	"strings"
)

// Result formats a statement can request from the server.
const (
	FormatRow   = "row"
	FormatGraph = "graph"
)

// databaseTemplate is the placeholder used by discovery documents of
// multi database servers within the transaction endpoint URL.
const databaseTemplate = "{databaseName}"

// Statement represents a single parameterized statement of a request payload.
type Statement struct {
	Statement          string         `json:"statement"`
	Parameters         map[string]any `json:"parameters,omitempty"`
	ResultDataContents []string       `json:"resultDataContents,omitempty"`
}

// statements is the request payload of the transactional endpoint.
type statements struct {
	Statements []Statement `json:"statements"`
}

// discoveryDoc is the response payload of the discovery request. Servers
// without multi database support answer with a fixed transaction URL,
// newer ones with a {databaseName} template.
type discoveryDoc struct {
	Transaction  string `json:"transaction"`
	Neo4jVersion string `json:"neo4j_version"`
	Neo4jEdition string `json:"neo4j_edition"`
}

// txInfo carries the transaction metadata of a response payload.
type txInfo struct {
	Expires string `json:"expires"`
}

// response is the response payload of the transactional endpoint.
type response struct {
	Results     []*StatementResult `json:"results"`
	Errors      []*ServerError     `json:"errors"`
	Commit      string             `json:"commit"`
	Transaction *txInfo            `json:"transaction"`
}

// ServerInfo represents the discovery result. It is determined once per
// client and shared read only by all of its connections.
type ServerInfo struct {
	BaseURL    string // configured server URL
	TxEndpoint string // resolved transaction endpoint URL
	Version    string // server version, like "5.26.0"
	Edition    string // server edition, empty on servers not reporting one
}

// resolveDatabase substitutes the database template of a discovery
// transaction URL. Endpoints without a template are left untouched.
func resolveDatabase(endpoint, database string) string {
	return strings.Replace(endpoint, databaseTemplate, database, 1)
}

// commitSuffix is the URL suffix addressing the commit resource of a
// transaction (or of the endpoint itself for one shot requests).
const commitSuffix = "/commit"

// txURLOf derives the transaction resource URL from its commit URL.
func txURLOf(commitURL string) string {
	return strings.TrimSuffix(commitURL, commitSuffix)
}

// CommitURL returns the URL of the commit resource of url, which is either
// the transaction endpoint (one shot requests) or an open transaction.
func CommitURL(url string) string { return joinURL(url, commitSuffix) }

// joinURL appends a suffix path to a URL without doubling slashes.
func joinURL(url, suffix string) string {
	return strings.TrimSuffix(url, "/") + suffix
}

// marshalStatements encodes the request payload of the transactional endpoint.
func marshalStatements(stmts []Statement) ([]byte, error) {
	if stmts == nil {
		stmts = []Statement{}
	}
	return json.Marshal(&statements{Statements: stmts})
}
