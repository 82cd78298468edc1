// Copyright 2021 The httpclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpclient

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/curlsdk/httpclient/request"
	"github.com/curlsdk/httpclient/transient"
)

var (
	// ErrInvalidArgument is returned, wrapped with detail, when a
	// retry setting is negative or not a decimal integer. The client's
	// configuration is left unchanged.
	ErrInvalidArgument = errors.New("httpclient: invalid argument")

	// ErrTransportUnavailable is returned, wrapped with the cause, when
	// the client's HandleOpener cannot provide a transport handle. No
	// request is attempted and nothing is retried.
	ErrTransportUnavailable = errors.New("httpclient: transport unavailable")
)

// A TransportError is returned by a verb call when the final attempt
// failed, after all retries were used up.
//
// An attempt fails either with a transport error, in which case Err is
// the *url.Error of the last attempt, or with a status code the client
// does not accept as success, in which case Err is nil and Body holds
// the raw response body.
type TransportError struct {
	// Code is the numeric transport error code, as computed by
	// transient.Code. It is transient.CodeOK when the last attempt
	// received a response with an unacceptable status.
	Code int

	// Message describes the failure of the last attempt.
	Message string

	// StatusCode is the status code of the last response, or 0 if the
	// last attempt did not receive one.
	StatusCode int

	// Body is the raw body of the last response, if any.
	Body []byte

	// Attempts is the number of attempts made.
	Attempts int

	// Err is the error of the last attempt, if any.
	Err error
}

// Error formats the error as "Error <code>: <message> <body>".
func (err *TransportError) Error() string {
	return fmt.Sprintf("Error %d: %s %s", err.Code, err.Message, err.Body)
}

// Unwrap returns the error of the last attempt.
func (err *TransportError) Unwrap() error {
	return err.Err
}

// Timeout indicates whether the last attempt, or the plan as a whole,
// timed out.
func (err *TransportError) Timeout() bool {
	return transient.Categorize(err.Err) == transient.Timeout
}

func newTransportError(e *request.Execution) *TransportError {
	err := &TransportError{
		Code:       transient.Code(e.Err),
		StatusCode: e.StatusCode(),
		Body:       e.Body,
		Attempts:   e.Attempts(),
		Err:        e.Err,
	}
	if e.Err != nil {
		err.Message = e.Err.Error()
	} else {
		err.Message = fmt.Sprintf("unexpected status %d %s", err.StatusCode, http.StatusText(err.StatusCode))
	}
	return err
}
