package proxy

// reply is a SOCKS5 reply code (RFC 1928, section 6).
type reply int

const (
	replySucceeded reply = iota
	replyGeneralFailure
	replyConnectionNotAllowed
	replyNetworkUnreachable
	replyHostUnreachable
	replyConnectionRefused
	replyTTLExpired
	replyCommandNotSupported
	replyAddressTypeNotSupported
)

func (r reply) String() string {
	switch r {
	case replySucceeded:
		return "succeeded"
	case replyGeneralFailure:
		return "general SOCKS server failure"
	case replyConnectionNotAllowed:
		return "connection not allowed by ruleset"
	case replyNetworkUnreachable:
		return "network unreachable"
	case replyHostUnreachable:
		return "host unreachable"
	case replyConnectionRefused:
		return "connection refused"
	case replyTTLExpired:
		return "TTL expired"
	case replyCommandNotSupported:
		return "command not supported"
	case replyAddressTypeNotSupported:
		return "address type not supported"
	default:
		return "unassigned reply code"
	}
}
