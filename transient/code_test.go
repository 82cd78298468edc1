// Copyright 2021 The httpclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transient

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/url"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		code int
	}{
		{"unreachable", wrapper{syscall.EHOSTUNREACH}, CodeConnect},
		{"dns", &url.Error{Op: "Get", URL: "x", Err: &net.DNSError{Err: "no such host", Name: "nope"}}, CodeResolveHost},
		{"unknown authority", &url.Error{Op: "Get", URL: "x", Err: x509.UnknownAuthorityError{}}, CodePeerVerification},
		{"tls record", &url.Error{Op: "Get", URL: "x", Err: tls.RecordHeaderError{Msg: "first record does not look like a TLS handshake"}}, CodeTLSConnect},
		{"redirects", &url.Error{Op: "Get", URL: "x", Err: fmt.Errorf("stopped: %w", ErrTooManyRedirects)}, CodeTooManyRedirects},
		{"redirects beat timeout", timeoutWrapper{true, ErrTooManyRedirects}, CodeTooManyRedirects},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.code, Code(testCase.err))
		})
	}
}

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "Not", Not.String())
	assert.Equal(t, "Timeout", Timeout.String())
	assert.Equal(t, "ConnRefused", ConnRefused.String())
	assert.Equal(t, "ConnReset", ConnReset.String())
	assert.Equal(t, "Category(?)", Category(99).String())
}
