// Copyright 2021 The httpclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"time"

	"github.com/curlsdk/httpclient/request"
	"github.com/curlsdk/httpclient/transient"
)

// A Decider decides if a retry should be done.
//
// Implementations of Decider must be safe for concurrent use by
// multiple goroutines.
type Decider interface {
	Decide(e *request.Execution) bool
}

// The DeciderFunc type is an adapter to allow the use of ordinary
// functions as retry deciders. It also provides the logical
// composition method And.
type DeciderFunc func(e *request.Execution) bool

// TransientErr is a decider that indicates a retry if the current
// error is transient according to transient.Categorize. It returns
// false whenever an HTTP response was received.
var TransientErr DeciderFunc = transientErr

// Decide returns f(e).
func (f DeciderFunc) Decide(e *request.Execution) bool {
	return f(e)
}

// And composes f and g into a decider that returns true only if both
// do. g is not evaluated if f returns false.
func (f DeciderFunc) And(g DeciderFunc) DeciderFunc {
	return func(e *request.Execution) bool {
		return f(e) && g(e)
	}
}

// Times constructs a decider which allows up to n retries, that is up
// to n+1 attempts in total. It returns true while the zero-based
// attempt index is less than n.
func Times(n int) DeciderFunc {
	return func(e *request.Execution) bool {
		return e.Attempt < n
	}
}

// Before constructs a decider allowing retries until d has elapsed
// since the start of the execution. A d of zero or less places no
// limit.
func Before(d time.Duration) DeciderFunc {
	return func(e *request.Execution) bool {
		return d <= 0 || e.Duration() < d
	}
}

// Failed constructs a decider that returns true if the most recent
// attempt ended in a transport error, or in a response whose status
// code is not one of success.
//
// Failed is the heart of the client's retry loop: with success set to
// just 200, any other status, including other 2XX codes, counts as a
// failure.
func Failed(success ...int) DeciderFunc {
	set := statusSet(success)
	return func(e *request.Execution) bool {
		return e.Err != nil || e.Response == nil || !set[e.StatusCode()]
	}
}

func statusSet(ss []int) map[int]bool {
	set := make(map[int]bool, len(ss))
	for _, s := range ss {
		set[s] = true
	}
	return set
}

func transientErr(e *request.Execution) bool {
	return transient.Categorize(e.Err) != transient.Not
}
