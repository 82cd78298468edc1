// Copyright 2021 The httpclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpclient

// An Event identifies the event type when installing or running a
// Handler. Install event handlers in a Client to extend it with custom
// functionality.
type Event int

const (
	// BeforeExecutionStart occurs once per verb call, after the
	// transport handle is opened and before the first attempt. Only the
	// execution's Plan and ID are set.
	BeforeExecutionStart Event = iota
	// BeforeAttempt occurs before each attempt. The execution's Request
	// is the request that will be sent once the handlers return.
	//
	// Handlers may change the request. They should clone its URL and
	// Header before changing them, since these initially reference the
	// plan's fields.
	BeforeAttempt
	// BeforeReadBody occurs when an attempt received a response, before
	// its body is read. It fires whatever the status code, and never
	// fires for an attempt that ended in a transport error.
	BeforeReadBody
	// AfterAttemptTimeout occurs when an attempt ended in a timeout.
	// The execution's Err holds the timeout error and AttemptTimeouts
	// has been incremented.
	AfterAttemptTimeout
	// AfterAttempt occurs after every attempt, before the retry
	// decision. At least one of the execution's Response and Err is
	// set. Both are set only if reading the body failed.
	AfterAttempt
	// AfterPlanTimeout occurs when the deadline of the plan's context
	// is exceeded, either during an attempt or during the pause before
	// a retry. It always follows AfterAttempt.
	AfterPlanTimeout
	// AfterExecutionEnd occurs once per verb call after the last
	// attempt. The execution's End is set, and it no longer changes.
	AfterExecutionEnd
	// eventSentinel provides the total number of events typed as an
	// Event.
	eventSentinel

	// numEvents provides the total number of events types as an int.
	numEvents = int(eventSentinel)
)

var eventNames = []string{
	"BeforeExecutionStart",
	"BeforeAttempt",
	"BeforeReadBody",
	"AfterAttemptTimeout",
	"AfterAttempt",
	"AfterPlanTimeout",
	"AfterExecutionEnd",
}

// Events returns a slice containing all events which can occur in an
// verb call on a Client, in the order in which
// they would occur.
func Events() []Event {
	return []Event{
		BeforeExecutionStart,
		BeforeAttempt,
		BeforeReadBody,
		AfterAttemptTimeout,
		AfterAttempt,
		AfterPlanTimeout,
		AfterExecutionEnd,
	}
}

// Name returns the name of the event.
func (evt Event) Name() string {
	if evt < 0 || int(evt) >= numEvents {
		return "Event(?)"
	}
	return eventNames[int(evt)]
}

// String returns the name of the event.
func (evt Event) String() string {
	return evt.Name()
}
