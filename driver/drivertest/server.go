// SPDX-FileCopyrightText: 2020-2026 The go-neorest Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package drivertest provides test support for neorest clients: an in
// process fake of the HTTP transactional endpoint and a containerized
// server harness for integration tests.
package drivertest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Fake server defaults.
const (
	ServerVersion = "5.26.0"
	ServerEdition = "community"

	defaultTxTimeout = 60 * time.Second
)

// Server error codes used by the fake server.
const (
	codeSyntaxError         = "Neo.ClientError.Statement.SyntaxError"
	codeTransactionNotFound = "Neo.ClientError.Transaction.TransactionNotFound"
	codeUnauthorized        = "Neo.ClientError.Security.Unauthorized"
)

// StatementResult is the result a statement handler produces.
type StatementResult struct {
	Columns []string
	Rows    []Row
}

// Row is a single result row. Node carries the properties of a graph node
// returned when the statement requests the graph format.
type Row struct {
	Values []any
	Node   map[string]any
}

// StatementError is the server error a statement handler produces.
type StatementError struct {
	Code    string
	Message string
}

// StatementFunc evaluates a single statement of a request payload.
type StatementFunc func(params map[string]any) (*StatementResult, *StatementError)

// Server is an in process fake of the HTTP transactional endpoint. It
// implements discovery, explicit and one shot transactions and rolls back
// a transaction on the first failing statement like a live server does.
//
// Statement evaluation is table driven: handlers registered via Handle
// evaluate matching statements, any other statement echoes its parameters
// (columns are the sorted parameter names). The zero statement "RETURN 1"
// answers with a single 1.
type Server struct {
	hs *httptest.Server

	mu        sync.Mutex
	handlers  map[string]StatementFunc
	txs       map[int]time.Time
	nextTxID  int
	username  string
	password  string
	txTimeout time.Duration

	begins    int
	commits   int
	rollbacks int
}

// NewServer starts a fake transactional endpoint server.
func NewServer() *Server {
	s := &Server{
		handlers:  map[string]StatementFunc{},
		txs:       map[int]time.Time{},
		nextTxID:  1,
		txTimeout: defaultTxTimeout,
	}
	s.hs = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// Close shuts the server down.
func (s *Server) Close() { s.hs.Close() }

// URL returns the base URL of the server.
func (s *Server) URL() string { return s.hs.URL }

// SetBasicAuth lets the server reject requests not carrying the given
// basic auth credentials as unauthorized.
func (s *Server) SetBasicAuth(username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username, s.password = username, password
}

// SetTxTimeout sets the transaction timeout reported in the expires field.
func (s *Server) SetTxTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txTimeout = d
}

// Handle registers fn as the handler of stmt.
func (s *Server) Handle(stmt string, fn StatementFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[stmt] = fn
}

// OpenTransactions returns the number of transactions neither committed
// nor rolled back.
func (s *Server) OpenTransactions() int { s.mu.Lock(); defer s.mu.Unlock(); return len(s.txs) }

// Begins returns the number of transactions opened.
func (s *Server) Begins() int { s.mu.Lock(); defer s.mu.Unlock(); return s.begins }

// Commits returns the number of commit requests served (one shot requests included).
func (s *Server) Commits() int { s.mu.Lock(); defer s.mu.Unlock(); return s.commits }

// Rollbacks returns the number of transactions rolled back.
func (s *Server) Rollbacks() int { s.mu.Lock(); defer s.mu.Unlock(); return s.rollbacks }

// wire format of the transactional endpoint.

type wireStatement struct {
	Statement          string         `json:"statement"`
	Parameters         map[string]any `json:"parameters"`
	ResultDataContents []string       `json:"resultDataContents"`
}

type wireRequest struct {
	Statements []wireStatement `json:"statements"`
}

type wireNode struct {
	ID         string         `json:"id"`
	Labels     []string       `json:"labels"`
	Properties map[string]any `json:"properties"`
}

type wireGraph struct {
	Nodes         []wireNode `json:"nodes"`
	Relationships []any      `json:"relationships"`
}

type wireRow struct {
	Row   []any      `json:"row,omitempty"`
	Graph *wireGraph `json:"graph,omitempty"`
}

type wireResult struct {
	Columns []string  `json:"columns"`
	Data    []wireRow `json:"data"`
}

type wireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type wireTx struct {
	Expires string `json:"expires"`
}

type wireResponse struct {
	Results     []wireResult `json:"results"`
	Errors      []wireError  `json:"errors"`
	Commit      string       `json:"commit,omitempty"`
	Transaction *wireTx      `json:"transaction,omitempty"`
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, &wireResponse{
			Errors: []wireError{{Code: codeUnauthorized, Message: "invalid credentials"}},
		})
		return
	}

	if r.Method == http.MethodGet {
		s.serveDiscovery(w, r)
		return
	}

	db, txPart, ok := splitTxPath(r.URL.Path)
	if !ok || db == "" {
		writeJSON(w, http.StatusNotFound, &wireResponse{
			Errors: []wireError{{Code: codeTransactionNotFound, Message: fmt.Sprintf("no such resource: %s", r.URL.Path)}},
		})
		return
	}

	switch {
	case r.Method == http.MethodPost && txPart == "":
		s.serveBegin(w, r, db)
	case r.Method == http.MethodPost && txPart == "commit":
		s.serveOneShot(w, r)
	case r.Method == http.MethodPost:
		s.serveTx(w, r, db, txPart)
	case r.Method == http.MethodDelete:
		s.serveRollback(w, r, txPart)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// splitTxPath splits a transactional endpoint path /db/<db>/tx[/<txPart>]
// into database name and transaction part. txPart is empty for the begin
// endpoint, "commit" for the one shot endpoint, "<id>" or "<id>/commit"
// for an open transaction.
func splitTxPath(path string) (db, txPart string, ok bool) {
	rest, found := strings.CutPrefix(path, "/db/")
	if !found {
		return "", "", false
	}
	db, rest, found = strings.Cut(rest, "/")
	if !found {
		return "", "", false
	}
	switch {
	case rest == "tx":
		return db, "", true
	case strings.HasPrefix(rest, "tx/"):
		return db, strings.TrimPrefix(rest, "tx/"), true
	default:
		return "", "", false
	}
}

func (s *Server) authorized(r *http.Request) bool {
	s.mu.Lock()
	username, password := s.username, s.password
	s.mu.Unlock()
	if username == "" {
		return true
	}
	user, pwd, ok := r.BasicAuth()
	return ok && user == username && pwd == password
}

func (s *Server) serveDiscovery(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"transaction":   s.hs.URL + "/db/{databaseName}/tx",
		"neo4j_version": ServerVersion,
		"neo4j_edition": ServerEdition,
	})
}

// serveBegin opens a transaction and executes the statements of the begin
// request within it.
func (s *Server) serveBegin(w http.ResponseWriter, r *http.Request, db string) {
	stmts, err := readStatements(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, &wireResponse{Errors: []wireError{*err}})
		return
	}

	s.mu.Lock()
	id := s.nextTxID
	s.nextTxID++
	expires := time.Now().Add(s.txTimeout)
	s.txs[id] = expires
	s.begins++
	s.mu.Unlock()

	txURL := fmt.Sprintf("%s/db/%s/tx/%d", s.hs.URL, db, id)
	resp := s.run(stmts)
	resp.Commit = txURL + "/commit"
	resp.Transaction = &wireTx{Expires: expires.Format(time.RFC1123Z)}
	if len(resp.Errors) != 0 {
		s.dropTx(id)
	}
	w.Header().Set("Location", txURL)
	writeJSON(w, http.StatusCreated, resp)
}

// serveOneShot executes statements in begin and commit immediately form.
func (s *Server) serveOneShot(w http.ResponseWriter, r *http.Request) {
	stmts, err := readStatements(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, &wireResponse{Errors: []wireError{*err}})
		return
	}
	s.mu.Lock()
	s.commits++
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.run(stmts))
}

// serveTx executes statements within an open transaction (txPart "<id>")
// or commits it (txPart "<id>/commit"). A failing statement rolls the
// transaction back, like a live server does.
func (s *Server) serveTx(w http.ResponseWriter, r *http.Request, db, txPart string) {
	idPart, commit := strings.CutSuffix(txPart, "/commit")
	id, ok := s.lookupTx(idPart)
	if !ok {
		writeJSON(w, http.StatusNotFound, &wireResponse{
			Errors: []wireError{{Code: codeTransactionNotFound, Message: fmt.Sprintf("transaction %s not found", idPart)}},
		})
		return
	}

	stmts, err := readStatements(r)
	if err != nil {
		s.dropTx(id)
		writeJSON(w, http.StatusBadRequest, &wireResponse{Errors: []wireError{*err}})
		return
	}

	resp := s.run(stmts)
	switch {
	case len(resp.Errors) != 0:
		s.dropTx(id)
	case commit:
		s.mu.Lock()
		delete(s.txs, id)
		s.commits++
		s.mu.Unlock()
	default:
		s.mu.Lock()
		expires := time.Now().Add(s.txTimeout)
		s.txs[id] = expires
		s.mu.Unlock()
		resp.Commit = fmt.Sprintf("%s/db/%s/tx/%d/commit", s.hs.URL, db, id)
		resp.Transaction = &wireTx{Expires: expires.Format(time.RFC1123Z)}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) serveRollback(w http.ResponseWriter, _ *http.Request, txPart string) {
	id, ok := s.lookupTx(txPart)
	if !ok {
		writeJSON(w, http.StatusNotFound, &wireResponse{
			Errors: []wireError{{Code: codeTransactionNotFound, Message: fmt.Sprintf("transaction %s not found", txPart)}},
		})
		return
	}
	s.mu.Lock()
	delete(s.txs, id)
	s.rollbacks++
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, &wireResponse{Results: []wireResult{}, Errors: []wireError{}})
}

func (s *Server) lookupTx(idPart string) (int, bool) {
	id, err := strconv.Atoi(idPart)
	if err != nil {
		return 0, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	expires, ok := s.txs[id]
	if ok && time.Now().After(expires) {
		delete(s.txs, id)
		return 0, false
	}
	return id, ok
}

func (s *Server) dropTx(id int) {
	s.mu.Lock()
	delete(s.txs, id)
	s.mu.Unlock()
}

// run evaluates statements, stopping at the first failing one.
func (s *Server) run(stmts []wireStatement) *wireResponse {
	resp := &wireResponse{Results: []wireResult{}, Errors: []wireError{}}
	for _, stmt := range stmts {
		result, stmtErr := s.eval(stmt)
		if stmtErr != nil {
			resp.Errors = append(resp.Errors, wireError{Code: stmtErr.Code, Message: stmtErr.Message})
			return resp
		}
		resp.Results = append(resp.Results, toWireResult(result, stmt.ResultDataContents))
	}
	return resp
}

func (s *Server) eval(stmt wireStatement) (*StatementResult, *StatementError) {
	s.mu.Lock()
	fn, ok := s.handlers[stmt.Statement]
	s.mu.Unlock()
	if ok {
		return fn(stmt.Parameters)
	}
	return echo(stmt.Parameters), nil
}

// echo is the default statement evaluation: the parameters come back as a
// single row with the sorted parameter names as columns. Without
// parameters the row is a single 1, so that "RETURN 1" behaves like on a
// live server.
func echo(params map[string]any) *StatementResult {
	if len(params) == 0 {
		return &StatementResult{Columns: []string{"1"}, Rows: []Row{{Values: []any{1}}}}
	}
	columns := make([]string, 0, len(params))
	for name := range params {
		columns = append(columns, name)
	}
	sort.Strings(columns)
	values := make([]any, len(columns))
	for i, name := range columns {
		values[i] = params[name]
	}
	return &StatementResult{Columns: columns, Rows: []Row{{Values: values, Node: params}}}
}

func toWireResult(result *StatementResult, formats []string) wireResult {
	wantRow, wantGraph := true, false
	if len(formats) != 0 {
		wantRow, wantGraph = false, false
		for _, format := range formats {
			switch format {
			case "row":
				wantRow = true
			case "graph":
				wantGraph = true
			}
		}
	}
	wr := wireResult{Columns: result.Columns, Data: []wireRow{}}
	for i, row := range result.Rows {
		data := wireRow{}
		if wantRow {
			data.Row = row.Values
		}
		if wantGraph {
			graph := &wireGraph{Nodes: []wireNode{}, Relationships: []any{}}
			if row.Node != nil {
				graph.Nodes = append(graph.Nodes, wireNode{ID: strconv.Itoa(i), Labels: []string{"Fake"}, Properties: row.Node})
			}
			data.Graph = graph
		}
		wr.Data = append(wr.Data, data)
	}
	return wr
}

func readStatements(r *http.Request) ([]wireStatement, *wireError) {
	defer r.Body.Close()
	var req wireRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, &wireError{Code: codeSyntaxError, Message: fmt.Sprintf("invalid request payload: %s", err)}
	}
	return req.Statements, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
