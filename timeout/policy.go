// Copyright 2021 The httpclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"math"
	"time"

	"github.com/curlsdk/httpclient/request"
)

// A Policy decides the timeout to set on the next attempt of an
// execution.
//
// Implementations of Policy must be safe for concurrent use by multiple
// goroutines.
type Policy interface {
	// Timeout returns the timeout for the next attempt, given the
	// current state of the execution. A non-positive value means no
	// timeout.
	Timeout(e *request.Execution) time.Duration
}

// Infinite is a policy which never times out an attempt.
var Infinite Policy = Fixed(math.MaxInt64)

// DefaultPolicy is the policy a client uses when none is set. It is
// Infinite, leaving timeouts to the transport.
var DefaultPolicy = Infinite

// Fixed constructs a policy that sets the same timeout d on every
// attempt.
func Fixed(d time.Duration) Policy {
	return fixed(d)
}

type fixed time.Duration

func (p fixed) Timeout(_ *request.Execution) time.Duration {
	return time.Duration(p)
}
