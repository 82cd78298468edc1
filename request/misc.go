// Copyright 2021 The httpclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"errors"
	"io"
	"net/url"
	"sort"
)

const badBodyTypeMsg = "httpclient/request: invalid type (for body use nil, " +
	"url.Values, map[string]string, map[string][]string, string, []byte, " +
	"io.Reader or io.ReadCloser)"

// EncodeParams converts the params argument of a verb call into a
// request body.
//
// Parameter mappings (url.Values, map[string][]string and
// map[string]string) are form-encoded with keys in sorted order and
// form is returned true. An empty mapping encodes to a nil body.
// Anything else is handed to BodyBytes and form is returned false.
func EncodeParams(params interface{}) (body []byte, form bool, err error) {
	var values url.Values
	switch x := params.(type) {
	case url.Values:
		values = x
	case map[string][]string:
		values = url.Values(x)
	case map[string]string:
		values = make(url.Values, len(x))
		for k, v := range x {
			values.Set(k, v)
		}
	default:
		body, err = BodyBytes(params)
		return body, false, err
	}

	if len(values) == 0 {
		return nil, true, nil
	}
	return []byte(values.Encode()), true, nil
}

// BodyBytes converts a pre-encoded body to a byte slice.
//
// The conversion logic is:
//
// • nil yields a nil byte slice.
//
// • a []byte is returned as is, and a string is converted.
//
// • an io.Reader is read to the end, and closed if it is also an
// io.Closer. A read or close error yields a nil byte slice and the
// error.
//
// • any other type yields an error.
func BodyBytes(body interface{}) ([]byte, error) {
	switch x := body.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(x), nil
	case []byte:
		return x, nil
	case io.ReadCloser:
		b, err := io.ReadAll(x)
		if err != nil {
			return nil, err
		}
		if err = x.Close(); err != nil {
			return nil, err
		}
		return b, nil
	case io.Reader:
		return BodyBytes(io.NopCloser(x))
	default:
		return nil, errors.New(badBodyTypeMsg)
	}
}

// ParamKeys returns the sorted keys of a form-encoded body. It is meant
// for logging, and returns nil if body does not parse as a form.
func ParamKeys(body []byte) []string {
	values, err := url.ParseQuery(string(body))
	if err != nil || len(values) == 0 {
		return nil
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
