// SPDX-FileCopyrightText: 2020-2026 The go-neorest Authors
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"sync"

	p "github.com/neorest/go-neorest/driver/internal/protocol"
)

// authAttrs is holding authentication relevant attributes.
//
// The credential kinds are mutually exclusive: a connector carries either a
// basic username password pair or a bearer token (validated on open). The
// refresh callbacks let long running clients replace rotated credentials
// without reconnecting; the session retries a rejected request once after a
// successful refresh.
type authAttrs struct {
	mu                   sync.RWMutex
	_username, _password string // basic authentication
	_token               string // bearer token
	_refreshPassword     func() (password string, ok bool)
	_refreshToken        func() (token string, ok bool)
}

/*
keep c as the instance name, so that the generated help does have the same variable name when object is
included in connector
*/

var _ p.AuthProvider = (*authAttrs)(nil)

// Auth implements the protocol.AuthProvider interface.
func (c *authAttrs) Auth() (p.Auth, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch {
	case c._token != "":
		return p.TokenAuth{Token: c._token}, nil
	case c._username != "":
		return p.BasicAuth{Username: c._username, Password: c._password}, nil
	default:
		return p.NoAuth{}, nil
	}
}

// Refresh implements the protocol.AuthProvider interface.
func (c *authAttrs) Refresh() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c._token != "" {
		if fn := c._refreshToken; fn != nil {
			if token, ok := fn(); ok && token != c._token {
				c._token = token
				return true, nil
			}
		}
		return false, nil
	}
	if fn := c._refreshPassword; fn != nil {
		if password, ok := fn(); ok && password != c._password {
			c._password = password
			return true, nil
		}
	}
	return false, nil
}

func (c *authAttrs) clone() *authAttrs {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return &authAttrs{
		_username:        c._username,
		_password:        c._password,
		_token:           c._token,
		_refreshPassword: c._refreshPassword,
		_refreshToken:    c._refreshToken,
	}
}

// Username returns the username of the connector.
func (c *authAttrs) Username() string { c.mu.RLock(); defer c.mu.RUnlock(); return c._username }

// Password returns the basic authentication password of the connector.
func (c *authAttrs) Password() string { c.mu.RLock(); defer c.mu.RUnlock(); return c._password }

// SetPassword sets the basic authentication password of the connector.
func (c *authAttrs) SetPassword(password string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c._password = password
}

// RefreshPassword returns the callback function for basic authentication password refresh.
func (c *authAttrs) RefreshPassword() func() (password string, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c._refreshPassword
}

// SetRefreshPassword sets the callback function for basic authentication password refresh.
func (c *authAttrs) SetRefreshPassword(refreshPassword func() (password string, ok bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c._refreshPassword = refreshPassword
}

// Token returns the bearer token of the connector.
func (c *authAttrs) Token() string { c.mu.RLock(); defer c.mu.RUnlock(); return c._token }

// SetToken sets the bearer token of the connector.
func (c *authAttrs) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c._token = token
}

// RefreshToken returns the callback function for bearer token refresh.
func (c *authAttrs) RefreshToken() func() (token string, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c._refreshToken
}

// SetRefreshToken sets the callback function for bearer token refresh.
func (c *authAttrs) SetRefreshToken(refreshToken func() (token string, ok bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c._refreshToken = refreshToken
}
