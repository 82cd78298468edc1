// Copyright 2021 The httpclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transient

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"syscall"
)

// Error codes reported by Code. The numbers follow libcurl's CURLcode
// values so that messages stay comparable with curl-based tooling.
const (
	CodeOK               = 0
	CodeOther            = 1
	CodeResolveHost      = 6
	CodeConnect          = 7
	CodeTimeout          = 28
	CodeTLSConnect       = 35
	CodeTooManyRedirects = 47
	CodeRecv             = 56
	CodePeerVerification = 60
)

// ErrTooManyRedirects should be returned, possibly wrapped, by redirect
// policies that give up following redirects, so that Code can report
// CodeTooManyRedirects.
var ErrTooManyRedirects = errors.New("too many redirects")

// Code reduces a transport error to a numeric code. A nil error has
// code CodeOK. Errors that match none of the known failure kinds have
// code CodeOther.
func Code(err error) int {
	if err == nil {
		return CodeOK
	}

	if errors.Is(err, ErrTooManyRedirects) {
		return CodeTooManyRedirects
	}

	switch Categorize(err) {
	case Timeout:
		return CodeTimeout
	case ConnRefused:
		return CodeConnect
	case ConnReset:
		return CodeRecv
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return CodeResolveHost
	}

	if isVerificationErr(err) {
		return CodePeerVerification
	}

	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return CodeTLSConnect
	}

	var errno syscall.Errno
	if errors.As(err, &errno) && (errno == syscall.EHOSTUNREACH || errno == syscall.ENETUNREACH) {
		return CodeConnect
	}

	return CodeOther
}

func isVerificationErr(err error) bool {
	var verifyErr *tls.CertificateVerificationError
	var authErr x509.UnknownAuthorityError
	var hostErr x509.HostnameError
	var invalidErr x509.CertificateInvalidError
	return errors.As(err, &verifyErr) ||
		errors.As(err, &authErr) ||
		errors.As(err, &hostErr) ||
		errors.As(err, &invalidErr)
}
