// SPDX-FileCopyrightText: 2020-2026 The go-neorest Authors
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"context"
	"database/sql/driver"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/neorest/go-neorest/driver/internal/conf"
	"github.com/neorest/go-neorest/driver/internal/dsn"
	p "github.com/neorest/go-neorest/driver/internal/protocol"
	"github.com/neorest/go-neorest/proxy"
)

/*
A Connector represents the fixed configuration of a neorest client: server
URL, database, pool sizing, timeouts and credentials. A Connector can be
passed to OpenClient for the native API or to sql.OpenDB for the database/sql
facade. After a client has been opened from a connector the connector must
not be modified.
*/
type Connector struct {
	*connAttrs
	*authAttrs
	metrics *metrics

	mu          sync.Mutex
	_session    *p.Session    // lazily shared by the database/sql facade
	_serverInfo *p.ServerInfo // dito
}

var _ driver.Connector = (*Connector)(nil)

// NewConnector returns a new connector instance with default values.
func NewConnector() *Connector {
	return &Connector{
		connAttrs: newConnAttrs(),
		authAttrs: &authAttrs{},
		metrics:   newMetrics(stdDriver.metrics),
	}
}

// NewBasicAuthConnector creates a connector for basic authentication.
func NewBasicAuthConnector(url, username, password string) *Connector {
	c := NewConnector()
	c._url = url
	c._username = username
	c._password = password
	return c
}

// NewTokenAuthConnector creates a connector for bearer token authentication.
func NewTokenAuthConnector(url, token string) *Connector {
	c := NewConnector()
	c._url = url
	c._token = token
	return c
}

// NewDSNConnector creates a connector from a data source name.
func NewDSNConnector(dsnStr string) (*Connector, error) {
	d, err := dsn.Parse(dsnStr)
	if err != nil {
		return nil, wrapConfigError(err)
	}
	c := NewConnector()
	c._url = d.ServerURL()
	if d.Username != "" || d.Password != "" {
		c._username = d.Username
		c._password = d.Password
	}
	c._token = d.Token
	c.setDatabase(d.Database)
	if d.PoolSize != 0 {
		c.setPoolSize(d.PoolSize)
	}
	if d.MaxOverflow != 0 {
		c.setMaxOverflow(d.MaxOverflow)
	}
	if d.Timeout != 0 {
		c.setTimeout(d.Timeout)
	}
	if err := c.setFormats(d.Formats); err != nil {
		return nil, wrapConfigError(err)
	}
	if d.TLS != nil {
		if err := c.setTLS(d.TLS.ServerName, d.TLS.InsecureSkipVerify, d.TLS.RootCAFiles); err != nil {
			return nil, wrapConfigError(err)
		}
	}
	return c, nil
}

// NewMapConnector creates a connector from an option map (see package conf
// for the recognized keys).
func NewMapConnector(options map[string]any) (*Connector, error) {
	cfg, err := conf.Decode(options)
	if err != nil {
		return nil, wrapConfigError(err)
	}
	return newConfConnector(cfg)
}

// NewFileConnector creates a connector from a YAML configuration file.
func NewFileConnector(path string) (*Connector, error) {
	cfg, err := conf.Load(path)
	if err != nil {
		return nil, wrapConfigError(err)
	}
	return newConfConnector(cfg)
}

func newConfConnector(cfg *conf.Config) (*Connector, error) {
	c := NewConnector()
	c._url = cfg.URL
	c.setDatabase(cfg.Database)
	if cfg.PoolSize != 0 {
		c.setPoolSize(cfg.PoolSize)
	}
	if cfg.MaxOverflow != 0 {
		c.setMaxOverflow(cfg.MaxOverflow)
	}
	if cfg.Timeout != 0 {
		c.setTimeout(time.Duration(cfg.Timeout) * time.Second)
	}
	if cfg.BasicAuth != nil {
		c._username = cfg.BasicAuth.Username
		c._password = cfg.BasicAuth.Password
	}
	c._token = cfg.TokenAuth
	if err := c.setFormats(cfg.ResultFormats); err != nil {
		return nil, wrapConfigError(err)
	}
	return c, nil
}

// validate checks the connector invariants which cannot be enforced by the
// individual setters.
func (c *Connector) validate() error {
	if c.url() == "" {
		return newConfigError("server URL is missing")
	}
	if c.Token() != "" && (c.Username() != "" || c.Password() != "") {
		return newConfigError("basic and token credentials are mutually exclusive")
	}
	return nil
}

// URL returns the server URL of the connector.
func (c *Connector) URL() string { return c.url() }

// Database returns the database of the connector.
func (c *Connector) Database() string { return c.database() }

// SetDatabase sets the database addressed on multi database servers.
func (c *Connector) SetDatabase(database string) { c.setDatabase(database) }

// PoolSize returns the connection pool size of the connector.
func (c *Connector) PoolSize() int { return c.poolSize() }

// SetPoolSize sets the connection pool size of the connector.
func (c *Connector) SetPoolSize(poolSize int) { c.setPoolSize(poolSize) }

// MaxOverflow returns the maximum number of transient connections exceeding
// the pool size.
func (c *Connector) MaxOverflow() int { return c.maxOverflow() }

// SetMaxOverflow sets the maximum number of transient connections exceeding
// the pool size.
func (c *Connector) SetMaxOverflow(maxOverflow int) { c.setMaxOverflow(maxOverflow) }

// Timeout returns the connection checkout timeout of the connector.
func (c *Connector) Timeout() time.Duration { return c.timeout() }

// SetTimeout sets the connection checkout timeout of the connector
// (TimeoutInfinite waits forever, zero fails immediately).
func (c *Connector) SetTimeout(timeout time.Duration) { c.setTimeout(timeout) }

// RequestTimeout returns the timeout of a single HTTP exchange.
func (c *Connector) RequestTimeout() time.Duration { return c.requestTimeout() }

// SetRequestTimeout sets the timeout of a single HTTP exchange (zero means
// no timeout beyond context cancellation).
func (c *Connector) SetRequestTimeout(requestTimeout time.Duration) {
	c.setRequestTimeout(requestTimeout)
}

// Formats returns the result formats requested from the server.
func (c *Connector) Formats() []string { return c.formats() }

// SetFormats sets the result formats requested from the server
// (FormatRow, FormatGraph or both; none uses the server default).
func (c *Connector) SetFormats(formats ...string) error { return c.setFormats(formats) }

// SetTLS sets the TLS configuration of the connector with the given
// parameters. An existing connector TLS configuration is replaced.
func (c *Connector) SetTLS(serverName string, insecureSkipVerify bool, rootCAFiles ...string) error {
	return c.setTLS(serverName, insecureSkipVerify, rootCAFiles)
}

// SetTransport sets a custom HTTP transport, replacing the transport
// assembled from the TLS and proxy attributes.
func (c *Connector) SetTransport(transport http.RoundTripper) { c.setTransport(transport) }

// SetProxy routes all server connections through the SOCKS5 proxy
// described by config.
func (c *Connector) SetProxy(config *proxy.Config) {
	c.setDialFn(proxy.NewDialer(config).DialContext)
}

// Logger returns the logger of the connector.
func (c *Connector) Logger() *slog.Logger { return c.logger() }

// SetLogger sets the logger of the connector (nil resets to slog.Default()).
func (c *Connector) SetLogger(logger *slog.Logger) { c.setLogger(logger) }

// Stats returns the client statistics aggregated over all clients and
// facade connections opened from this connector.
func (c *Connector) Stats() Stats { return c.metrics.stats() }

// sessionConfig returns the session relevant connector attributes.
func (c *Connector) sessionConfig() *p.SessionConfig {
	return &p.SessionConfig{
		BaseURL:      c.url(),
		Database:     c.database(),
		UserAgent:    userAgent,
		AuthProvider: c.authAttrs,
		Logger:       c.logger(),
	}
}

// httpClient returns a new HTTP client for the connector configuration.
// The client (and with it the transport and its idle sockets) is shared by
// all connections opened from one native client or one sql.DB.
func (c *Connector) httpClient() *http.Client {
	return &http.Client{
		Transport: newMetricsTransport(c.roundTripper(), c.metrics),
		Timeout:   c.requestTimeout(),
	}
}

// session returns the shared session of the database/sql facade,
// discovering the server metadata on first use.
func (c *Connector) session(ctx context.Context) (*p.Session, *p.ServerInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c._session != nil {
		return c._session, c._serverInfo, nil
	}
	if err := c.validate(); err != nil {
		return nil, nil, err
	}
	session := p.NewSession(c.httpClient(), c.sessionConfig())
	serverInfo, err := session.Discover(ctx)
	if err != nil {
		return nil, nil, err
	}
	c._session, c._serverInfo = session, serverInfo
	return session, serverInfo, nil
}

// Connect implements the database/sql/driver/Connector interface.
func (c *Connector) Connect(ctx context.Context) (driver.Conn, error) {
	session, serverInfo, err := c.session(ctx)
	if err != nil {
		return nil, err
	}
	// database/sql maintains its own pool, so facade connections are
	// transient handles outside any native pool.
	return &sqlConn{conn: newConn(session, serverInfo, c.formats(), c.metrics, c.logger(), false)}, nil
}

// Driver implements the database/sql/driver/Connector interface.
func (c *Connector) Driver() driver.Driver { return stdDriver }

// NativeDriver returns the concrete neorest driver.
func (c *Connector) NativeDriver() *Driver { return stdDriver }
