// Copyright 2021 The httpclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/curlsdk/httpclient/request"
	"github.com/curlsdk/httpclient/retry"
	"github.com/curlsdk/httpclient/timeout"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultRetryAttempts is the number of retries made by a client
	// created with New.
	DefaultRetryAttempts = 1

	// DefaultRetryPause is the pause before each retry made by a client
	// created with New.
	DefaultRetryPause = time.Second

	// LegacyUserAgent is the User-Agent sent when neither the plan nor
	// the client specifies one.
	LegacyUserAgent = "Mozilla/5.0 (Windows; U; Windows NT 6.1; en-US; rv:1.9.2.12) Gecko/20101026 Firefox/3.6.12"
)

var (
	emptyHandlers  = HandlerGroup{}
	defaultSuccess = []int{http.StatusOK}
)

// A Client is an HTTP client which retries failed requests a fixed
// number of times with a fixed pause between attempts.
//
// An attempt succeeds when it receives a response whose status code is
// in SuccessStatus, by default only 200. Any other status, and any
// transport error, is a failure. After a failure the client waits for
// the retry pause and tries again, until the retry attempts are used up,
// at which point the verb call returns a *TransportError.
//
// Use New or NewWithRetry to create a Client. The zero value is usable
// but never retries.
//
// Each verb call opens its own transport handle, sends all of its
// attempts through that handle, and closes it before returning. Cookies
// set by a server therefore persist across the redirects and retries of
// one call, but not between calls.
//
// The exported fields may be set after creation but not while a verb
// call is running. Verb calls themselves may run concurrently.
type Client struct {
	// HandleOpener opens the transport handle for each verb call.
	//
	// If HandleOpener is nil, DefaultOpener is used.
	HandleOpener HandleOpener
	// TimeoutPolicy specifies how to set timeouts on individual request
	// attempts.
	//
	// If TimeoutPolicy is nil, timeout.DefaultPolicy is used.
	TimeoutPolicy timeout.Policy
	// Handlers allows custom handler chains to be invoked when
	// designated events occur during execution of a request plan.
	//
	// If Handlers is nil, no custom handlers will be run.
	Handlers *HandlerGroup
	// Logger receives attempt, retry and failure logs.
	//
	// If Logger is nil, nothing is logged.
	Logger *zap.Logger
	// UserAgent is sent on requests whose plan has no User-Agent header.
	//
	// If UserAgent is empty, LegacyUserAgent is sent.
	UserAgent string
	// SuccessStatus lists the status codes that end a verb call
	// successfully.
	//
	// If SuccessStatus is empty, only 200 is a success.
	SuccessStatus []int
	// InsecureSkipVerify disables verification of the server's
	// certificate chain and host name.
	InsecureSkipVerify bool
	// RetryIf further restricts which failed attempts are retried. It is
	// consulted only after a failed attempt while retry attempts remain,
	// for example retry.TransientErr to retry transport errors but not
	// unwanted status codes.
	//
	// If RetryIf is nil, every failed attempt is retried.
	RetryIf retry.Decider

	attempts int
	pause    time.Duration
}

// New returns a client with DefaultRetryAttempts and DefaultRetryPause.
func New() *Client {
	return &Client{
		attempts: DefaultRetryAttempts,
		pause:    DefaultRetryPause,
	}
}

// NewWithRetry returns a client that makes up to retryAttempts retries,
// pausing retryPauseSeconds before each. Either value being negative
// results in an error wrapping ErrInvalidArgument.
func NewWithRetry(retryAttempts, retryPauseSeconds int) (*Client, error) {
	c := New()
	if _, err := c.SetConnectionRetryAttempts(retryAttempts); err != nil {
		return nil, err
	}
	if _, err := c.SetConnectionRetryPause(retryPauseSeconds); err != nil {
		return nil, err
	}
	return c, nil
}

// SetConnectionRetryAttempts sets the number of retries made after a
// failed attempt, and returns c. A negative n results in an error
// wrapping ErrInvalidArgument and leaves c unchanged.
func (c *Client) SetConnectionRetryAttempts(n int) (*Client, error) {
	if n < 0 {
		return c, fmt.Errorf("%w: retry attempts must be non-negative, got %d", ErrInvalidArgument, n)
	}
	c.attempts = n
	return c, nil
}

// SetConnectionRetryPause sets the pause before each retry in whole
// seconds, and returns c. A negative value results in an error wrapping
// ErrInvalidArgument and leaves c unchanged.
func (c *Client) SetConnectionRetryPause(seconds int) (*Client, error) {
	if seconds < 0 {
		return c, fmt.Errorf("%w: retry pause must be non-negative, got %d", ErrInvalidArgument, seconds)
	}
	if int64(seconds) > math.MaxInt64/int64(time.Second) {
		return c, fmt.Errorf("%w: retry pause of %d seconds is too long", ErrInvalidArgument, seconds)
	}
	c.pause = time.Duration(seconds) * time.Second
	return c, nil
}

// RetryAttempts returns the number of retries made after a failed
// attempt.
func (c *Client) RetryAttempts() int {
	return c.attempts
}

// RetryPause returns the pause before each retry.
func (c *Client) RetryPause() time.Duration {
	return c.pause
}

// ParseNonNegative parses a retry setting given as text. Only decimal
// digits are accepted; anything else, including a sign or surrounding
// space, results in an error wrapping ErrInvalidArgument.
func ParseNonNegative(s string) (int, error) {
	if s == "" || strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) != -1 {
		return 0, fmt.Errorf("%w: %q is not a non-negative integer", ErrInvalidArgument, s)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidArgument, s)
	}
	return n, nil
}

// Do executes an HTTP request plan and returns the final response,
// following the retry configuration and timeout policy set on c.
//
// Do opens a transport handle before the first attempt and closes it
// on every return path. If the handle cannot be opened the error wraps
// ErrTransportUnavailable and no attempt is made.
//
// If the final attempt failed, the returned *TransportError carries the
// transport error code and message, the last status code and the last
// body. Its Timeout method returns true if the final attempt timed out,
// or if the plan's context deadline was exceeded. Cancelling the plan's
// context ends the execution, including a pending retry pause.
//
// For simple use cases, the Get, Post, Put, and Delete methods may
// prove easier to use than Do.
func (c *Client) Do(p *request.Plan) (*Response, error) {
	if p == nil {
		panic("httpclient: nil plan")
	}

	log := c.logger()

	h, err := c.opener().Open(HandleOptions{InsecureSkipVerify: c.InsecureSkipVerify})
	if err == nil && h == nil {
		err = errors.New("opener returned nil handle")
	}
	if err != nil {
		log.Warn("transport unavailable", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrTransportUnavailable, err)
	}
	defer func() {
		if err := h.Close(); err != nil {
			log.Warn("failed to close transport handle", zap.Error(err))
		}
	}()

	e := request.Execution{
		Plan: p,
		ID:   uuid.NewString(),
	}
	log = log.With(
		zap.String("execution_id", e.ID),
		zap.String("method", p.Method),
		zap.String("url", p.URL.Redacted()),
	)
	if keys := request.ParamKeys(p.Body); len(keys) > 0 && p.Header.Get("Content-Type") == request.FormContentType {
		log = log.With(zap.Strings("params", keys))
	}

	timeoutPolicy := c.TimeoutPolicy
	if timeoutPolicy == nil {
		timeoutPolicy = timeout.DefaultPolicy
	}

	retryPolicy := c.retryPolicy()

	handlers := c.Handlers
	if handlers == nil {
		handlers = &emptyHandlers
	}
	handlers.run(BeforeExecutionStart, &e)
	e.Start = time.Now()

RetryLoop:
	for {
		c.sendAndReceive(p, &e, h, handlers, timeoutPolicy)
		if e.Timeout() {
			e.AttemptTimeouts++
			handlers.run(AfterAttemptTimeout, &e)
		}
		handlers.run(AfterAttempt, &e)
		log.Debug("attempt finished",
			zap.Int("attempt", e.Attempts()),
			zap.Int("status", e.StatusCode()),
			zap.Error(e.Err),
		)
		planCtxErr := p.Context().Err()
		if c.succeeded(&e) {
			break
		} else if planCtxErr == context.DeadlineExceeded {
			handlers.run(AfterPlanTimeout, &e)
			break
		} else if planCtxErr != nil {
			e.Err = urlErrorWrap(p, planCtxErr)
			break
		} else if retryPolicy.Decide(&e) {
			wait := retryPolicy.Wait(&e)
			log.Warn("retrying request",
				zap.Int("attempt", e.Attempts()),
				zap.Int("status", e.StatusCode()),
				zap.Error(e.Err),
				zap.Duration("wait", wait),
			)
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
				break
			case <-p.Context().Done():
				timer.Stop()
				err := p.Context().Err()
				e.Err = urlErrorWrap(p, err)
				if err == context.DeadlineExceeded {
					handlers.run(AfterPlanTimeout, &e)
				}
				break RetryLoop
			}
			e.Response = nil
			e.Err = nil
			e.Body = nil
			e.Attempt++
		} else {
			break
		}
	}

	e.End = time.Now()
	ok := c.succeeded(&e)
	e.SetValue(verdictKey{}, ok)
	handlers.run(AfterExecutionEnd, &e)

	if ok {
		return newResponse(&e, h.Redirects()), nil
	}

	terr := newTransportError(&e)
	log.Warn("request failed",
		zap.Int("attempt", terr.Attempts),
		zap.Int("status", terr.StatusCode),
		zap.Int("code", terr.Code),
		zap.Error(e.Err),
	)
	return nil, terr
}

func (c *Client) sendAndReceive(p *request.Plan, e *request.Execution, doer HTTPDoer, handlers *HandlerGroup, timeoutPolicy timeout.Policy) {
	ctx, cancel := attemptContext(p.Context(), timeoutPolicy.Timeout(e))
	defer cancel()
	e.Request = p.ToRequest(ctx)
	if e.Request.Header.Get("User-Agent") == "" {
		e.Request.Header = e.Request.Header.Clone()
		e.Request.Header.Set("User-Agent", c.userAgent())
	}
	handlers.run(BeforeAttempt, e)
	resp, err := doer.Do(e.Request)
	if err != nil {
		e.Err = urlErrorWrap(p, err)
		return
	}
	e.Response = resp
	readBody(p, e, handlers)
}

func readBody(p *request.Plan, e *request.Execution, handlers *HandlerGroup) {
	defer func() {
		_ = e.Response.Body.Close()
	}()
	handlers.run(BeforeReadBody, e)
	var err error
	e.Body, err = io.ReadAll(e.Response.Body)
	if err != nil {
		e.Err = urlErrorWrap(p, err)
		e.Body = nil
	}
}

func attemptContext(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 || d == math.MaxInt64 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, d)
}

// Get issues a GET to the specified URL, using the same policies
// followed by Do. No body is sent.
//
// To make a request plan with custom headers, use request.NewPlan and
// Client.Do.
func (c *Client) Get(url string) (*Response, error) {
	return Get(c, url)
}

// Post issues a POST to the specified URL, using the same policies
// followed by Do.
//
// The params may be nil for an empty body, a parameter mapping
// (url.Values, map[string]string or map[string][]string) which is sent
// form-encoded, or a pre-encoded body of any type accepted by
// request.BodyBytes.
func (c *Client) Post(url string, params interface{}) (*Response, error) {
	return Post(c, url, params)
}

// Put issues a PUT to the specified URL. The params are treated as in
// Post.
func (c *Client) Put(url string, params interface{}) (*Response, error) {
	return Put(c, url, params)
}

// Delete issues a DELETE to the specified URL. The params are treated
// as in Post; pass nil to send no body.
func (c *Client) Delete(url string, params interface{}) (*Response, error) {
	return Delete(c, url, params)
}

func (c *Client) opener() HandleOpener {
	if c.HandleOpener == nil {
		return DefaultOpener
	}

	return c.HandleOpener
}

func (c *Client) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}

	return c.Logger
}

func (c *Client) userAgent() string {
	if c.UserAgent == "" {
		return LegacyUserAgent
	}

	return c.UserAgent
}

func (c *Client) successStatus() []int {
	if len(c.SuccessStatus) == 0 {
		return defaultSuccess
	}

	return c.SuccessStatus
}

func (c *Client) success(status int) bool {
	for _, s := range c.successStatus() {
		if s == status {
			return true
		}
	}
	return false
}

func (c *Client) succeeded(e *request.Execution) bool {
	return e.Err == nil && e.Response != nil && c.success(e.StatusCode())
}

func (c *Client) retryPolicy() retry.Policy {
	d := retry.Times(c.attempts).And(retry.Failed(c.successStatus()...))
	if c.RetryIf != nil {
		d = d.And(c.RetryIf.Decide)
	}
	return retry.NewPolicy(d, retry.NewFixedWaiter(c.pause))
}

type verdictKey struct{}

// Succeeded reports whether the client judged e a success: the final
// attempt received a response with one of the client's success status
// codes and no error. It is meaningful from the AfterExecutionEnd event
// onward and returns false before then.
func Succeeded(e *request.Execution) bool {
	ok, _ := e.Value(verdictKey{}).(bool)
	return ok
}

func urlErrorWrap(p *request.Plan, err error) error {
	if _, ok := err.(*url.Error); ok {
		return err
	}

	return &url.Error{
		Op:  urlErrorOp(p.Method),
		URL: p.URL.String(),
		Err: err,
	}
}

// urlErrorOp matches the Op that net/http uses in its *url.Error values.
func urlErrorOp(method string) string {
	if method == "" {
		return "Get"
	}
	return method[:1] + strings.ToLower(method[1:])
}
