// SPDX-FileCopyrightText: 2020-2026 The go-neorest Authors
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	p "github.com/neorest/go-neorest/driver/internal/protocol"
)

// conn attributes default values.
const (
	DefaultPoolSize       = 5                 // default number of pooled connections.
	DefaultMaxOverflow    = 10                // default number of transient connections exceeding the pool size.
	DefaultTimeout        = 30 * time.Second  // default connection checkout timeout.
	DefaultRequestTimeout = 300 * time.Second // default timeout of a single HTTP exchange (300 seconds = 5 minutes).
	DefaultDatabase       = "neo4j"           // default database addressed on multi database servers.
)

// TimeoutInfinite lets a connection checkout wait forever (respectively
// until the caller context is cancelled). A zero timeout fails immediately
// if no connection is idle and the overflow limit is reached.
const TimeoutInfinite time.Duration = -1

// minimal values.
const (
	minPoolSize    = 1 // minimal poolSize value.
	minMaxOverflow = 0 // minimal maxOverflow value.
)

// DialFn is the function signature used to establish the TCP connections
// of the HTTP transport (see net.Dialer and proxy.Dialer).
type DialFn func(ctx context.Context, network, addr string) (net.Conn, error)

// connAttrs is holding connection relevant attributes.
type connAttrs struct {
	mu              sync.RWMutex
	_url            string
	_database       string
	_poolSize       int
	_maxOverflow    int
	_timeout        time.Duration // checkout timeout
	_requestTimeout time.Duration
	_formats        []string
	_tlsConfig      *tls.Config
	_transport      http.RoundTripper
	_dialFn         DialFn
	_logger         *slog.Logger
}

func newConnAttrs() *connAttrs {
	return &connAttrs{
		_database:       DefaultDatabase,
		_poolSize:       DefaultPoolSize,
		_maxOverflow:    DefaultMaxOverflow,
		_timeout:        DefaultTimeout,
		_requestTimeout: DefaultRequestTimeout,
		_logger:         slog.Default(),
	}
}

func (a *connAttrs) clone() *connAttrs {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return &connAttrs{
		_url:            a._url,
		_database:       a._database,
		_poolSize:       a._poolSize,
		_maxOverflow:    a._maxOverflow,
		_timeout:        a._timeout,
		_requestTimeout: a._requestTimeout,
		_formats:        a._formats,
		_tlsConfig:      a._tlsConfig.Clone(),
		_transport:      a._transport,
		_dialFn:         a._dialFn,
		_logger:         a._logger,
	}
}

func (a *connAttrs) url() string      { a.mu.RLock(); defer a.mu.RUnlock(); return a._url }
func (a *connAttrs) database() string { a.mu.RLock(); defer a.mu.RUnlock(); return a._database }
func (a *connAttrs) setDatabase(database string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if database == "" {
		database = DefaultDatabase
	}
	a._database = database
}
func (a *connAttrs) poolSize() int { a.mu.RLock(); defer a.mu.RUnlock(); return a._poolSize }
func (a *connAttrs) _setPoolSize(poolSize int) {
	if poolSize < minPoolSize {
		poolSize = minPoolSize
	}
	a._poolSize = poolSize
}
func (a *connAttrs) setPoolSize(poolSize int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a._setPoolSize(poolSize)
}
func (a *connAttrs) maxOverflow() int { a.mu.RLock(); defer a.mu.RUnlock(); return a._maxOverflow }
func (a *connAttrs) _setMaxOverflow(maxOverflow int) {
	if maxOverflow < minMaxOverflow {
		maxOverflow = minMaxOverflow
	}
	a._maxOverflow = maxOverflow
}
func (a *connAttrs) setMaxOverflow(maxOverflow int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a._setMaxOverflow(maxOverflow)
}
func (a *connAttrs) timeout() time.Duration { a.mu.RLock(); defer a.mu.RUnlock(); return a._timeout }
func (a *connAttrs) _setTimeout(timeout time.Duration) {
	if timeout < 0 {
		timeout = TimeoutInfinite
	}
	a._timeout = timeout
}
func (a *connAttrs) setTimeout(timeout time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a._setTimeout(timeout)
}
func (a *connAttrs) requestTimeout() time.Duration {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a._requestTimeout
}
func (a *connAttrs) setRequestTimeout(requestTimeout time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if requestTimeout < 0 {
		requestTimeout = 0
	}
	a._requestTimeout = requestTimeout
}
func (a *connAttrs) formats() []string { a.mu.RLock(); defer a.mu.RUnlock(); return a._formats }
func (a *connAttrs) _setFormats(formats []string) error {
	for _, format := range formats {
		if format != p.FormatRow && format != p.FormatGraph {
			return fmt.Errorf("invalid result format %s", format)
		}
	}
	a._formats = formats
	return nil
}
func (a *connAttrs) setFormats(formats []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a._setFormats(formats)
}
func (a *connAttrs) tlsConfig() *tls.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a._tlsConfig.Clone()
}
func (a *connAttrs) setTLSConfig(tlsConfig *tls.Config) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a._tlsConfig = tlsConfig.Clone()
}
func (a *connAttrs) _setTLS(serverName string, insecureSkipVerify bool, rootCAFiles []string) error {
	a._tlsConfig = &tls.Config{
		ServerName:         serverName,
		InsecureSkipVerify: insecureSkipVerify,
	}
	var certPool *x509.CertPool
	for _, fn := range rootCAFiles {
		rootPEM, err := os.ReadFile(fn)
		if err != nil {
			return err
		}
		if certPool == nil {
			certPool = x509.NewCertPool()
		}
		if ok := certPool.AppendCertsFromPEM(rootPEM); !ok {
			return fmt.Errorf("failed to parse root certificate - filename: %s", fn)
		}
	}
	if certPool != nil {
		a._tlsConfig.RootCAs = certPool
	}
	return nil
}
func (a *connAttrs) setTLS(serverName string, insecureSkipVerify bool, rootCAFiles []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a._setTLS(serverName, insecureSkipVerify, rootCAFiles)
}
func (a *connAttrs) transport() http.RoundTripper {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a._transport
}
func (a *connAttrs) setTransport(transport http.RoundTripper) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a._transport = transport
}
func (a *connAttrs) dialFn() DialFn { a.mu.RLock(); defer a.mu.RUnlock(); return a._dialFn }
func (a *connAttrs) setDialFn(dialFn DialFn) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a._dialFn = dialFn
}
func (a *connAttrs) logger() *slog.Logger { a.mu.RLock(); defer a.mu.RUnlock(); return a._logger }
func (a *connAttrs) setLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a._logger = logger
}

// roundTripper returns the HTTP transport used by all connections of a
// client. A custom transport set via SetTransport wins over the transport
// assembled from the TLS and dial attributes.
func (a *connAttrs) roundTripper() http.RoundTripper {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a._transport != nil {
		return a._transport
	}
	dialer := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 15 * time.Second}
	dialFn := a._dialFn
	if dialFn == nil {
		dialFn = dialer.DialContext
	}
	// connections of one pool share one transport, so idle HTTP
	// connections are bounded by the pool limits.
	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialFn,
		TLSClientConfig:     a._tlsConfig.Clone(),
		MaxIdleConns:        a._poolSize + a._maxOverflow,
		MaxIdleConnsPerHost: a._poolSize + a._maxOverflow,
		IdleConnTimeout:     90 * time.Second,
	}
}
