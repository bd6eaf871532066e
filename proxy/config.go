// Package proxy implements a SOCKS5 dialer for routing client connections
// through a proxy server (RFC 1928, username/password authentication per
// RFC 1929).
package proxy

// Config holds the proxy connection parameters.
type Config struct {
	Address  string // host:port of the SOCKS5 server
	Username string
	Password string
}
