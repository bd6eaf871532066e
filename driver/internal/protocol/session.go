package protocol

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	contentTypeJSON = "application/json"
	acceptJSON      = "application/json; charset=UTF-8"
)

// SessionConfig represents the session relevant part of the client
// configuration.
type SessionConfig struct {
	BaseURL      string
	Database     string
	UserAgent    string
	AuthProvider AuthProvider
	Logger       *slog.Logger
}

// Session implements the request response exchanges of the transactional
// endpoint on top of a shared http.Client. A session holds no transaction
// state itself, so it can be used by the discovery request as well as by
// every pooled connection.
type Session struct {
	client *http.Client
	cfg    *SessionConfig
	logger *slog.Logger
}

// NewSession returns a new session instance.
func NewSession(client *http.Client, cfg *SessionConfig) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{client: client, cfg: cfg, logger: logger}
}

// Reply represents the decoded payload of a transactional endpoint response.
type Reply struct {
	Results   []*StatementResult
	CommitURL string    // commit URL of the open transaction (body commit field)
	Location  string    // transaction resource URL (location header, begin only)
	Expires   time.Time // transaction expiry, zero if not reported
}

// TxURL returns the transaction resource URL of a begin reply, preferring
// the location header over the URL derived from the commit URL.
func (r *Reply) TxURL() string {
	if r.Location != "" {
		return r.Location
	}
	return txURLOf(r.CommitURL)
}

// Discover executes the discovery request determining the transaction
// endpoint and the server version.
func (s *Session) Discover(ctx context.Context) (*ServerInfo, error) {
	raw, _, err := s.exchange(ctx, http.MethodGet, s.cfg.BaseURL, nil)
	if err != nil {
		return nil, err
	}
	var doc discoveryDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &ProtocolError{Op: "discover", URL: s.cfg.BaseURL, Reason: "invalid discovery document", Err: err}
	}
	if doc.Transaction == "" {
		return nil, &ProtocolError{Op: "discover", URL: s.cfg.BaseURL, Reason: "discovery document is missing the transaction endpoint"}
	}
	if doc.Neo4jVersion == "" {
		return nil, &ProtocolError{Op: "discover", URL: s.cfg.BaseURL, Reason: "discovery document is missing the server version"}
	}
	return &ServerInfo{
		BaseURL:    s.cfg.BaseURL,
		TxEndpoint: resolveDatabase(doc.Transaction, s.cfg.Database),
		Version:    doc.Neo4jVersion,
		Edition:    doc.Neo4jEdition,
	}, nil
}

// Execute posts statements to url, which is either the transaction
// endpoint (begin), the endpoint commit resource (one shot), the
// transaction resource (execute within an open transaction) or the
// transaction commit resource (commit).
func (s *Session) Execute(ctx context.Context, url string, stmts []Statement) (*Reply, error) {
	body, err := marshalStatements(stmts)
	if err != nil {
		return nil, &ProtocolError{Op: "encode", URL: url, Reason: "invalid statement parameters", Err: err}
	}
	raw, header, err := s.exchange(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	reply, err := decodeReply(http.MethodPost, url, raw)
	if err != nil {
		return nil, err
	}
	reply.Location = header.Get("Location")
	return reply, nil
}

// Rollback deletes the transaction resource.
func (s *Session) Rollback(ctx context.Context, txURL string) error {
	raw, _, err := s.exchange(ctx, http.MethodDelete, txURL, nil)
	if err != nil {
		return err
	}
	_, err = decodeReply(http.MethodDelete, txURL, raw)
	return err
}

func decodeReply(op, url string, raw []byte) (*Reply, error) {
	var resp response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &ProtocolError{Op: op, URL: url, Reason: "invalid response document", Err: err}
	}
	if len(resp.Errors) != 0 {
		serverErrors := newServerErrors(resp.Errors)
		// the server stops executing at the first failing statement
		serverErrors.setStmtNo(len(resp.Results))
		return nil, serverErrors
	}
	reply := &Reply{Results: resp.Results, CommitURL: resp.Commit}
	if resp.Transaction != nil {
		reply.Expires = parseExpires(resp.Transaction.Expires)
	}
	return reply, nil
}

// exchange executes a single authenticated request. A request rejected as
// unauthorized is retried once if the auth provider is able to refresh
// its credentials.
func (s *Session) exchange(ctx context.Context, method, url string, body []byte) ([]byte, http.Header, error) {
	auth, err := s.cfg.AuthProvider.Auth()
	if err != nil {
		return nil, nil, err
	}
	resp, raw, err := s.roundTrip(ctx, method, url, body, auth)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		refreshed, refreshErr := s.cfg.AuthProvider.Refresh()
		if refreshErr == nil && refreshed {
			if auth, err = s.cfg.AuthProvider.Auth(); err != nil {
				return nil, nil, err
			}
			if resp, raw, err = s.roundTrip(ctx, method, url, body, auth); err != nil {
				return nil, nil, err
			}
		}
	}
	// server errors are reported within the body, also for non 2xx statuses
	if !json.Valid(raw) {
		if resp.StatusCode >= http.StatusMultipleChoices {
			return nil, nil, &ProtocolError{Op: method, URL: url, Reason: fmt.Sprintf("unexpected status %d (%s)", resp.StatusCode, http.StatusText(resp.StatusCode))}
		}
		return nil, nil, &ProtocolError{Op: method, URL: url, Reason: "response body is not JSON"}
	}
	return raw, resp.Header, nil
}

func (s *Session) roundTrip(ctx context.Context, method, url string, body []byte, auth Auth) (*http.Response, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, nil, &ConnectionError{Op: method, URL: url, Err: err}
	}
	req.Header.Set("Accept", acceptJSON)
	req.Header.Set("X-Stream", "true")
	if body != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}
	if s.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", s.cfg.UserAgent)
	}
	auth.Apply(req)

	traceWire(true, method, url, body)
	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, nil, &ConnectionError{Op: method, URL: url, Err: err}
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &ConnectionError{Op: method, URL: url, Err: err}
	}
	traceWire(false, resp.Status, url, raw)
	s.logger.LogAttrs(ctx, slog.LevelDebug, "exchange",
		slog.String("method", method),
		slog.String("url", url),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)
	return resp, raw, nil
}

var expiresFormats = []string{time.RFC1123Z, time.RFC1123}

// parseExpires parses the transaction expiry timestamp. The timestamp is
// advisory, so parse failures map to the zero time instead of an error.
func parseExpires(value string) time.Time {
	for _, format := range expiresFormats {
		if t, err := time.Parse(format, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
