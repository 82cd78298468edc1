// Copyright 2021 The httpclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorize(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		category Category
		code     int
	}{
		{"nil", nil, Not, CodeOK},
		{"plain", errors.New("connection closed by peer"), Not, CodeOther},
		{"empty wrapper", wrapper{}, Not, CodeOther},
		{"wrapped plain", wrapper{errors.New("bad gateway")}, Not, CodeOther},
		{"canceled", &url.Error{Op: "Get", URL: "x", Err: context.Canceled}, Not, CodeOther},
		{"host unreachable", &url.Error{Op: "Post", URL: "x", Err: syscall.EHOSTUNREACH}, Not, CodeConnect},
		{"network down", syscall.ENETDOWN, Not, CodeOther},

		{"ETIMEDOUT", syscall.ETIMEDOUT, Timeout, CodeTimeout},
		{"deadline", &url.Error{Op: "Get", URL: "x", Err: context.DeadlineExceeded}, Timeout, CodeTimeout},
		{"attempt timeout", &url.Error{Op: "Put", URL: "x", Err: timeout{}}, Timeout, CodeTimeout},
		{"dial timeout", &net.OpError{Op: "dial", Net: "tcp", Err: timeout{}}, Timeout, CodeTimeout},
		{"deeply wrapped", wrapper{wrapper{timeout{}}}, Timeout, CodeTimeout},
		{"timeout beats reset", timeoutWrapper{true, syscall.ECONNRESET}, Timeout, CodeTimeout},
		{"timeout beats refused", wrapper{timeoutWrapper{true, syscall.ECONNREFUSED}}, Timeout, CodeTimeout},

		{"refused", &url.Error{Op: "Delete", URL: "x", Err: syscall.ECONNREFUSED}, ConnRefused, CodeConnect},
		{"refused dial", &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}, ConnRefused, CodeConnect},
		{"refused not timeout", &url.Error{Err: wrapper{timeoutWrapper{false, syscall.ECONNREFUSED}}}, ConnRefused, CodeConnect},

		{"reset", syscall.ECONNRESET, ConnReset, CodeRecv},
		{"reset read", &url.Error{Op: "Get", URL: "x", Err: &net.OpError{Op: "read", Err: syscall.ECONNRESET}}, ConnReset, CodeRecv},
		{"reset not timeout", timeoutWrapper{false, syscall.ECONNRESET}, ConnReset, CodeRecv},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.category, Categorize(testCase.err))
			assert.Equal(t, testCase.code, Code(testCase.err))
		})
	}
}

type timeout struct{}

func (timeout) Error() string { return "i/o timeout" }

func (timeout) Timeout() bool { return true }

type wrapper struct {
	err error
}

func (w wrapper) Error() string {
	return fmt.Sprintf("wrapped: %v", w.err)
}

func (w wrapper) Unwrap() error {
	return w.err
}

type timeoutWrapper struct {
	timeout bool
	err     error
}

func (w timeoutWrapper) Error() string {
	return fmt.Sprintf("timeout=%t: %v", w.timeout, w.err)
}

func (w timeoutWrapper) Timeout() bool {
	return w.timeout
}

func (w timeoutWrapper) Unwrap() error {
	return w.err
}
