// Copyright 2021 The httpclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transient

import (
	"errors"
	"syscall"
)

// A Category is the transience category of an error, as reported by
// Categorize.
//
// Not means a retry is very unlikely to help. Every other category
// means a retry after the error has some prospect of success.
type Category int

const (
	// Not indicates a nil error or any non-transient error.
	Not Category = iota
	// Timeout indicates a client-side timeout: the error, or one of its
	// wrapped causes, has a Timeout method that reports true.
	Timeout
	// ConnRefused indicates the remote host refused the connection
	// (syscall.ECONNREFUSED). A service that is restarting refuses
	// connections until it listens again, so this is worth a retry.
	ConnRefused
	// ConnReset indicates the remote host reset a previously active
	// TCP connection (syscall.ECONNRESET), typically a load balancer or
	// a service going down mid-response.
	ConnReset
)

var categoryNames = []string{
	"Not",
	"Timeout",
	"ConnRefused",
	"ConnReset",
}

// String returns the name of the category.
func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "Category(?)"
	}
	return categoryNames[c]
}

// Categorize returns the transience category of err, looking through
// wrapped causes as well as err itself. Timeouts win over errno-based
// categories. Temporary methods are never consulted.
func Categorize(err error) Category {
	if err == nil {
		return Not
	}

	var t hasTimeout
	if errors.As(err, &t) && t.Timeout() {
		return Timeout
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNRESET:
			return ConnReset
		case syscall.ECONNREFUSED:
			return ConnRefused
		}
	}

	return Not
}

type hasTimeout interface {
	Timeout() bool
}
