// Copyright 2021 The httpclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"time"

	"github.com/curlsdk/httpclient/request"
)

// A Waiter specifies how long to pause before retrying a failed
// attempt. The client only consults the Waiter after its Decider chose
// to retry.
//
// Implementations of Waiter must be safe for concurrent use by multiple
// goroutines.
type Waiter interface {
	Wait(e *request.Execution) time.Duration
}

// NewFixedWaiter constructs a Waiter that always returns d. Negative
// durations are treated as zero.
func NewFixedWaiter(d time.Duration) Waiter {
	if d < 0 {
		d = 0
	}
	return fixedWaiter(d)
}

type fixedWaiter time.Duration

func (w fixedWaiter) Wait(_ *request.Execution) time.Duration {
	return time.Duration(w)
}
