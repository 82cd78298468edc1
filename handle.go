// Copyright 2021 The httpclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpclient

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"sync"

	"github.com/curlsdk/httpclient/transient"
	"golang.org/x/net/publicsuffix"
)

// DefaultMaxRedirects is the redirect limit applied when
// HandleOptions.MaxRedirects is zero.
const DefaultMaxRedirects = 10

var errHandleClosed = errors.New("httpclient: use of closed handle")

// An HTTPDoer implements a Do method in the same manner as the GoLang
// standard library http.Client from the net/http package.
type HTTPDoer interface {
	// Do sends an HTTP request and returns an HTTP response following
	// policy (such as redirects and cookies) configured on the
	// HTTPDoer.
	//
	// The Do method must follow the contract documented on the GoLang
	// standard library http.Client from the net/http package.
	Do(r *http.Request) (*http.Response, error)
}

// A Handle is a transport session owned by a single verb call. The
// client opens one handle per call, sends every attempt of the call
// through it, and closes it before returning.
type Handle interface {
	HTTPDoer

	// Redirects returns the number of redirects followed while serving
	// the most recent request.
	Redirects() int

	// Close releases the handle's resources. The client calls Close
	// exactly once.
	Close() error
}

// HandleOptions configure a Handle when it is opened.
type HandleOptions struct {
	// InsecureSkipVerify disables verification of peer certificates
	// and host names.
	InsecureSkipVerify bool

	// MaxRedirects limits the number of redirects followed per
	// request. Zero means DefaultMaxRedirects.
	MaxRedirects int
}

// A HandleOpener opens transport handles.
//
// Implementations of HandleOpener must be safe for concurrent use by
// multiple goroutines.
type HandleOpener interface {
	Open(o HandleOptions) (Handle, error)
}

// The HandleOpenerFunc type is an adapter to allow the use of ordinary
// functions as handle openers.
type HandleOpenerFunc func(o HandleOptions) (Handle, error)

// Open returns f(o).
func (f HandleOpenerFunc) Open(o HandleOptions) (Handle, error) {
	return f(o)
}

// DefaultOpener is the HandleOpener used by a Client whose HandleOpener
// field is nil.
var DefaultOpener HandleOpener = &NetOpener{}

// NetOpener opens handles backed by the net/http client.
//
// Each handle gets its own clone of the base transport and its own
// in-memory cookie jar, so cookies set by a response are sent on
// redirects and retries within one verb call but never leak into the
// next call. Redirects are followed with a Referer header and the
// original request headers.
type NetOpener struct {
	// Base is the transport cloned for every handle. If nil,
	// http.DefaultTransport is used.
	Base *http.Transport
}

// Open opens a new handle.
func (o *NetOpener) Open(opts HandleOptions) (Handle, error) {
	base := o.Base
	if base == nil {
		t, ok := http.DefaultTransport.(*http.Transport)
		if !ok {
			return nil, fmt.Errorf("unsupported default transport %T", http.DefaultTransport)
		}
		base = t
	}

	transport := base.Clone()
	if opts.InsecureSkipVerify {
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{}
		}
		transport.TLSClientConfig.InsecureSkipVerify = true
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}

	maxRedirects := opts.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = DefaultMaxRedirects
	}

	h := &netHandle{transport: transport}
	h.client = &http.Client{
		Transport: transport,
		Jar:       jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return fmt.Errorf("stopped after %d redirects: %w", maxRedirects, transient.ErrTooManyRedirects)
			}
			// http.Client has already copied the original headers and
			// set Referer, except on an https to http downgrade.
			h.redirected()
			return nil
		},
	}
	return h, nil
}

type netHandle struct {
	client    *http.Client
	transport *http.Transport

	lock      sync.Mutex
	redirects int
	closed    bool
}

func (h *netHandle) Do(r *http.Request) (*http.Response, error) {
	h.lock.Lock()
	if h.closed {
		h.lock.Unlock()
		return nil, errHandleClosed
	}
	h.redirects = 0
	h.lock.Unlock()

	return h.client.Do(r)
}

func (h *netHandle) Redirects() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.redirects
}

func (h *netHandle) Close() error {
	h.lock.Lock()
	defer h.lock.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	h.transport.CloseIdleConnections()
	return nil
}

func (h *netHandle) redirected() {
	h.lock.Lock()
	h.redirects++
	h.lock.Unlock()
}
