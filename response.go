// Copyright 2021 The httpclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpclient

import (
	"net/http"
	"time"

	"github.com/curlsdk/httpclient/request"
)

// A Response is the result of a successful verb call.
type Response struct {
	// StatusCode is the HTTP status code of the final response.
	StatusCode int

	// Info holds transport metadata about the final response and the
	// execution that produced it.
	Info Info

	// Content is the raw response body.
	Content string
}

// Info describes the transfer that produced a Response.
type Info struct {
	URL           string // Effective URL, after redirects
	Method        string
	StatusCode    int
	ContentType   string
	ContentLength int64 // From the response header; -1 if unknown
	SizeDownload  int   // Bytes of body actually read
	Header        http.Header
	Proto         string
	Redirects     int // Redirects followed by the final attempt
	Attempts      int
	StartTime     time.Time
	TotalTime     time.Duration
}

// Map renders the info under the key names used by curl_getinfo. Times
// are in seconds.
func (i Info) Map() map[string]interface{} {
	return map[string]interface{}{
		"url":                     i.URL,
		"request_method":          i.Method,
		"http_code":               i.StatusCode,
		"content_type":            i.ContentType,
		"download_content_length": i.ContentLength,
		"size_download":           i.SizeDownload,
		"http_version":            i.Proto,
		"redirect_count":          i.Redirects,
		"attempts":                i.Attempts,
		"total_time":              i.TotalTime.Seconds(),
	}
}

func newResponse(e *request.Execution, redirects int) *Response {
	info := Info{
		Method:        e.Plan.Method,
		StatusCode:    e.StatusCode(),
		ContentType:   e.Response.Header.Get("Content-Type"),
		ContentLength: e.Response.ContentLength,
		SizeDownload:  len(e.Body),
		Header:        e.Response.Header,
		Proto:         e.Response.Proto,
		Redirects:     redirects,
		Attempts:      e.Attempts(),
		StartTime:     e.Start,
		TotalTime:     e.Duration(),
	}
	if e.Response.Request != nil && e.Response.Request.URL != nil {
		info.URL = e.Response.Request.URL.String()
	} else {
		info.URL = e.Plan.URL.String()
	}
	return &Response{
		StatusCode: info.StatusCode,
		Info:       info,
		Content:    string(e.Body),
	}
}
