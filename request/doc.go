// Copyright 2021 The httpclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request contains the two types every verb call of the client
revolves around: Plan, which describes a logical HTTP request that may
be attempted several times, and Execution, which records the state of
one run of a Plan.

A Plan looks like a stripped-down http.Request whose body is a
pre-buffered []byte, so the same request can be replayed on each retry:

	p, err := request.NewPlan("PUT", "https://example.com/items/1",
		map[string]string{"key": "value"})
	...
	resp, err := client.Do(p)

Mappings passed as the body are form-encoded and the plan's Content-Type
is set to application/x-www-form-urlencoded. Strings, byte slices and
readers are sent as given.

A plan may carry a context, which bounds the whole execution including
the pause between retries:

	p, err := request.NewPlanWithContext(ctx, "GET", "https://example.com", nil)

Execution is handed to retry deciders, timeout policies and event
handlers while the client works through its attempts, and is the source
from which the client builds its Response once the attempts are over.
*/
package request
