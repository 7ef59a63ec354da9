package manifest

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyFetchErrorDNS(t *testing.T) {
	err := &net.DNSError{Err: "no such host", Name: "example.invalid"}
	assert.Equal(t, FetchErrorDNS, ClassifyFetchError(err))
}

func TestClassifyFetchErrorNetwork(t *testing.T) {
	err := errors.New("dial tcp 10.0.0.1:443: connect: connection refused")
	assert.Equal(t, FetchErrorNetwork, ClassifyFetchError(err))
}

func TestClassifyFetchErrorTimeout(t *testing.T) {
	err := errors.New("context deadline exceeded")
	assert.Equal(t, FetchErrorTimeout, ClassifyFetchError(err))
}

func TestClassifyFetchErrorTLS(t *testing.T) {
	err := errors.New("x509: certificate signed by unknown authority")
	assert.Equal(t, FetchErrorTLS, ClassifyFetchError(err))
}

func TestClassifyFetchErrorUnknown(t *testing.T) {
	err := errors.New("something else entirely")
	assert.Equal(t, FetchErrorUnknown, ClassifyFetchError(err))
}

func TestFetchErrorTypeString(t *testing.T) {
	assert.Equal(t, "tls", FetchErrorTLS.String())
	assert.Equal(t, "dns", FetchErrorDNS.String())
	assert.Equal(t, "unknown", FetchErrorUnknown.String())
}
