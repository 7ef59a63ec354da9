package manifest

import (
	"crypto/x509"
	"errors"
	"net"
	"net/url"
	"strings"
)

// FetchErrorType categorizes a manifest/artifact fetch failure so callers
// (and the fetcher's debug logging) can distinguish transient network
// trouble from a TLS trust problem without string-matching error text.
type FetchErrorType int

const (
	FetchErrorUnknown FetchErrorType = iota
	FetchErrorTLS
	FetchErrorNetwork
	FetchErrorTimeout
	FetchErrorDNS
)

func (t FetchErrorType) String() string {
	switch t {
	case FetchErrorTLS:
		return "tls"
	case FetchErrorNetwork:
		return "network"
	case FetchErrorTimeout:
		return "timeout"
	case FetchErrorDNS:
		return "dns"
	default:
		return "unknown"
	}
}

// ClassifyFetchError inspects err and returns the category it falls into.
// A nil err classifies as FetchErrorUnknown (callers should only invoke this
// when err is non-nil).
func ClassifyFetchError(err error) FetchErrorType {
	if err == nil {
		return FetchErrorUnknown
	}
	if isTLSError(err) {
		return FetchErrorTLS
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return FetchErrorDNS
	}
	if isTimeoutError(err) {
		return FetchErrorTimeout
	}
	if isNetworkError(err.Error()) {
		return FetchErrorNetwork
	}
	return FetchErrorUnknown
}

func isTLSError(err error) bool {
	var certErr *x509.CertificateInvalidError
	var hostErr *x509.HostnameError
	var unknownAuthErr *x509.UnknownAuthorityError
	var systemRootsErr *x509.SystemRootsError
	if errors.As(err, &certErr) || errors.As(err, &hostErr) ||
		errors.As(err, &unknownAuthErr) || errors.As(err, &systemRootsErr) {
		return true
	}
	errStr := err.Error()
	for _, keyword := range []string{"x509:", "certificate", "tls:", "TLS handshake"} {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}

func isTimeoutError(err error) bool {
	for e := err; e != nil; {
		if ne, ok := e.(net.Error); ok && ne.Timeout() {
			return true
		}
		if u, ok := e.(interface{ Unwrap() error }); ok {
			e = u.Unwrap()
		} else {
			break
		}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded")
}

func isNetworkError(errStr string) bool {
	for _, keyword := range []string{
		"connection refused", "connection reset", "network is unreachable",
		"no route to host", "dial tcp", "connect:",
	} {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}
