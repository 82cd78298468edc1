// Copyright 2021 The httpclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package retry decides whether a failed attempt during a verb call is
// retried, and how long to pause before the retry.
//
// A Policy is a Decider plus a Waiter. The client builds its policy
// from its retry attempts and pause settings:
//
//	decider := retry.Times(attempts).And(retry.Failed(http.StatusOK))
//	policy := retry.NewPolicy(decider, retry.NewFixedWaiter(pause))
//
// A client's RetryIf decider is ANDed onto that policy. To retry only
// transient transport errors, and only during the first ten seconds of
// the call:
//
//	c.RetryIf = retry.TransientErr.And(retry.Before(10 * time.Second))
package retry
