// Copyright 2021 The httpclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpclient

import (
	"net/http"

	"github.com/curlsdk/httpclient/request"
)

// Doer is the interface that wraps the basic Do method.
//
// Do executes an HTTP request plan and returns the final response, or
// an error. Client implements the Doer interface, and any other Doer
// implementation must behave substantially the same as Client.Do.
//
// Any Doer can be converted into an Executor via the Inflate function.
type Doer interface {
	Do(p *request.Plan) (*Response, error)
}

// Getter is the interface that wraps the basic Get method.
//
// Any Doer can be used to emulate a Getter via the Get function.
type Getter interface {
	Get(url string) (*Response, error)
}

// Poster is the interface that wraps the basic Post method.
//
// Any Doer can be used to emulate a Poster via the Post function.
type Poster interface {
	Post(url string, params interface{}) (*Response, error)
}

// Putter is the interface that wraps the basic Put method.
//
// Any Doer can be used to emulate a Putter via the Put function.
type Putter interface {
	Put(url string, params interface{}) (*Response, error)
}

// Deleter is the interface that wraps the basic Delete method.
//
// Any Doer can be used to emulate a Deleter via the Delete function.
type Deleter interface {
	Delete(url string, params interface{}) (*Response, error)
}

// Executor is the interface that groups the basic Do, Get, Post, Put,
// and Delete methods.
//
// Any Doer can be converted into an Executor via the Inflate function.
type Executor interface {
	Doer
	Getter
	Poster
	Putter
	Deleter
}

// Get uses the specified Doer to issue a GET to the specified URL,
// using the same policies as d.Do. No body is sent.
func Get(d Doer, url string) (*Response, error) {
	return send(d, http.MethodGet, url, nil)
}

// Post uses the specified Doer to issue a POST to the specified URL.
//
// The params may be nil, a parameter mapping which is form-encoded, or
// a pre-encoded body; see request.EncodeParams.
func Post(d Doer, url string, params interface{}) (*Response, error) {
	return send(d, http.MethodPost, url, params)
}

// Put uses the specified Doer to issue a PUT to the specified URL. The
// params are treated as in Post.
func Put(d Doer, url string, params interface{}) (*Response, error) {
	return send(d, http.MethodPut, url, params)
}

// Delete uses the specified Doer to issue a DELETE to the specified
// URL. The params are treated as in Post.
func Delete(d Doer, url string, params interface{}) (*Response, error) {
	return send(d, http.MethodDelete, url, params)
}

func send(d Doer, method, url string, params interface{}) (*Response, error) {
	p, err := request.NewPlan(method, url, params)
	if err != nil {
		return nil, err
	}
	return d.Do(p)
}

// Inflate converts any non-nil Doer into an Executor. This may be
// helpful for interop across library boundaries, i.e. if code that only
// has access to a Doer needs to call a function that requires an
// Executor.
func Inflate(d Doer) Executor {
	if d == nil {
		panic("httpclient: nil doer")
	}

	if e, ok := d.(Executor); ok {
		return e
	}

	return inflated{d}
}

type inflated struct {
	doer Doer
}

func (i inflated) Do(p *request.Plan) (*Response, error) {
	return i.doer.Do(p)
}

func (i inflated) Get(url string) (*Response, error) {
	return Get(i.doer, url)
}

func (i inflated) Post(url string, params interface{}) (*Response, error) {
	return Post(i.doer, url, params)
}

func (i inflated) Put(url string, params interface{}) (*Response, error) {
	return Put(i.doer, url, params)
}

func (i inflated) Delete(url string, params interface{}) (*Response, error) {
	return Delete(i.doer, url, params)
}
