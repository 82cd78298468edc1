// Copyright 2021 The httpclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"net/http"
	"time"

	"github.com/curlsdk/httpclient/transient"
)

// An Execution represents the state of a single Plan execution, that is
// of one verb call on the client together with all of its retries.
//
// Retry deciders, timeout policies and event handlers receive the
// Execution while it is in flight. They may attach data with SetValue
// but should otherwise treat the exported fields as read-only.
type Execution struct {
	// Plan specifies the request plan being executed. It is never nil.
	Plan *Plan

	// ID uniquely identifies the execution in logs and traces. It is
	// assigned before the BeforeExecutionStart event.
	ID string

	// Start is the time the execution started. It is zero until then.
	Start time.Time

	// End is the time the execution ended. It is zero until then.
	End time.Time

	// Attempt is the zero-based number of the current attempt: zero on
	// the initial attempt, one on the first retry, and so on. After the
	// execution ends it holds the number of the last attempt made.
	Attempt int

	// AttemptTimeouts counts the attempts that ended in a timeout.
	AttemptTimeouts int

	// Request is the HTTP request of the current or most recent
	// attempt.
	Request *http.Request

	// Response is the HTTP response received in the most recent
	// attempt. It is nil if that attempt ended in a transport error or
	// if an attempt is underway.
	Response *http.Response

	// Err is the error of the most recent attempt, always of type
	// *url.Error when non-nil. A non-success status code is not an
	// error at this level; see the client's retry decider.
	Err error

	// Body is the complete response body read after the most recent
	// attempt. It is nil if that attempt ended in an error.
	Body []byte

	data context.Context
}

// StatusCode returns the status code of the most recent response, or 0
// if there is none.
func (e *Execution) StatusCode() int {
	if e.Response == nil {
		return 0
	}

	return e.Response.StatusCode
}

// Header returns the headers of the most recent response, or a nil
// header if there is none. A nil header is safe for reads.
func (e *Execution) Header() http.Header {
	if e.Response == nil {
		return nil
	}

	return e.Response.Header
}

// Attempts returns the one-based count of attempts made so far.
func (e *Execution) Attempts() int {
	if !e.Started() {
		return 0
	}

	return e.Attempt + 1
}

// Duration returns the duration of the execution. It is zero before the
// execution starts, grows while it runs, and is End minus Start once it
// has ended.
func (e *Execution) Duration() time.Duration {
	if !e.Started() {
		return 0
	} else if !e.Ended() {
		return time.Since(e.Start)
	}

	return e.End.Sub(e.Start)
}

// Started indicates whether the execution has started.
func (e *Execution) Started() bool {
	return !e.Start.IsZero()
}

// Ended indicates whether the execution has ended. An ended execution
// does not change any further.
func (e *Execution) Ended() bool {
	return !e.End.IsZero()
}

// Timeout indicates whether Err currently holds a timeout, either of
// the most recent attempt or of the plan as a whole.
func (e *Execution) Timeout() bool {
	return transient.Categorize(e.Err) == transient.Timeout
}

// SetValue stores arbitrary data in the execution. The key follows the
// rules of context.WithValue: it must be comparable, and should be of
// an unexported type to avoid collisions between handlers.
func (e *Execution) SetValue(key, value interface{}) {
	ctx := e.data
	if ctx == nil {
		ctx = context.Background()
	}

	e.data = context.WithValue(ctx, key, value)
}

// Value returns the data stored in the execution for key, or nil.
func (e *Execution) Value(key interface{}) interface{} {
	if e.data == nil {
		return nil
	}

	return e.data.Value(key)
}
