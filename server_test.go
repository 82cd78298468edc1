// Copyright 2021 The httpclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpclient

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// echo is what the test server's /echo endpoint reports about the
// request it received.
type echo struct {
	Method      string
	Path        string
	ContentType string
	UserAgent   string
	Referer     string
	Cookie      string
	Body        string
}

func newTestServer(t *testing.T, tls bool) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/echo", echoHandler)
	mux.HandleFunc("/status/", func(w http.ResponseWriter, r *http.Request) {
		code, err := strconv.Atoi(path.Base(r.URL.Path))
		if err != nil {
			code = http.StatusBadRequest
		}
		w.WriteHeader(code)
		_, _ = io.WriteString(w, http.StatusText(code))
	})
	mux.HandleFunc("/redirect", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/echo", http.StatusFound)
	})
	mux.HandleFunc("/loop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	})
	mux.HandleFunc("/cookie", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
		http.Redirect(w, r, "/echo", http.StatusFound)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(5 * time.Second):
		case <-r.Context().Done():
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	var s *httptest.Server
	if tls {
		s = httptest.NewTLSServer(mux)
	} else {
		s = httptest.NewServer(mux)
	}
	t.Cleanup(s.Close)
	return s
}

func echoHandler(w http.ResponseWriter, r *http.Request) {
	b, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(echo{
		Method:      r.Method,
		Path:        r.URL.Path,
		ContentType: r.Header.Get("Content-Type"),
		UserAgent:   r.UserAgent(),
		Referer:     r.Referer(),
		Cookie:      r.Header.Get("Cookie"),
		Body:        string(b),
	})
}

func decodeEcho(t *testing.T, resp *Response) echo {
	require.NotNil(t, resp)
	var e echo
	require.NoError(t, json.Unmarshal([]byte(resp.Content), &e))
	return e
}

// newFlakyServer returns a server which answers the first failures
// requests with failStatus and every later request with 200. The
// returned counter holds the number of requests served.
func newFlakyServer(t *testing.T, failures int32, failStatus int) (*httptest.Server, *int32) {
	var n int32
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&n, 1) <= failures {
			w.WriteHeader(failStatus)
			_, _ = io.WriteString(w, "try again")
			return
		}
		_, _ = io.WriteString(w, "ok")
	}))
	t.Cleanup(s.Close)
	return s, &n
}

// countingOpener wraps a HandleOpener and counts opened and closed
// handles.
type countingOpener struct {
	opener HandleOpener
	opened int32
	closed int32
}

func (o *countingOpener) Open(opts HandleOptions) (Handle, error) {
	h, err := o.opener.Open(opts)
	if err != nil {
		return nil, err
	}
	atomic.AddInt32(&o.opened, 1)
	return &countedHandle{Handle: h, o: o}, nil
}

type countedHandle struct {
	Handle
	o *countingOpener
}

func (h *countedHandle) Close() error {
	atomic.AddInt32(&h.o.closed, 1)
	return h.Handle.Close()
}
