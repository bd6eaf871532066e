// SPDX-FileCopyrightText: 2020-2026 The go-neorest Authors
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"net/http"
)

// Auth applies opaque credentials to an outgoing request.
type Auth interface {
	Apply(req *http.Request)
}

// AuthProvider provides the current credentials of a session and
// supports refreshing them when the server rejects a request as
// unauthorized. Refresh returns false if no refreshed credentials
// are available, in which case the request fails with the server
// error of the first attempt.
type AuthProvider interface {
	Auth() (Auth, error)
	Refresh() (bool, error)
}

// BasicAuth authenticates via HTTP basic authentication.
type BasicAuth struct {
	Username string
	Password string
}

// Apply implements the Auth interface.
func (a BasicAuth) Apply(req *http.Request) { req.SetBasicAuth(a.Username, a.Password) }

// TokenAuth authenticates via a bearer token.
type TokenAuth struct {
	Token string
}

// Apply implements the Auth interface.
func (a TokenAuth) Apply(req *http.Request) { req.Header.Set("Authorization", "Bearer "+a.Token) }

// NoAuth leaves requests unauthenticated, for servers with
// authentication disabled.
type NoAuth struct{}

// Apply implements the Auth interface.
func (a NoAuth) Apply(*http.Request) {}

var (
	_ Auth = (*BasicAuth)(nil)
	_ Auth = (*TokenAuth)(nil)
	_ Auth = (*NoAuth)(nil)
)
