// Copyright 2021 The httpclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package httpclient provides a small HTTP client that retries failed
requests a fixed number of times with a fixed pause in between.

Create a Client to begin making requests.

	client := httpclient.New()
	resp, err := client.Get("https://www.example.com")
	...
	resp, err := client.Post("https://www.example.com/form",
		map[string]string{"key": "value", "id": "123"})
	...
	resp, err := client.Delete("https://www.example.com/item/1", nil)

A parameter mapping is sent form-encoded. Any other params value is sent
as a pre-encoded body. GET never sends a body.

An attempt succeeds only if it receives a 200 response. To change the
retry settings:

	client, err := httpclient.NewWithRetry(3, 2) // 3 retries, 2s apart
	...
	_, err = client.SetConnectionRetryAttempts(5)

When every attempt fails, the verb call returns a *TransportError
holding the transport error code, its message, and the last response
body:

	var terr *httpclient.TransportError
	if errors.As(err, &terr) {
		log.Printf("gave up after %d attempts: %v", terr.Attempts, terr)
	}

For a cancellable call, or one with custom headers, build a plan with
package request and pass it to Do:

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	p, err := request.NewPlanWithContext(ctx, "PUT", url, params)
	...
	resp, err := client.Do(p)

To hook into the details of the client's request execution logic,
install a handler into the appropriate handler chain:

	handlers := &httpclient.HandlerGroup{}
	handlers.PushBack(httpclient.BeforeAttempt, httpclient.HandlerFunc(
		func(_ httpclient.Event, e *request.Execution) {
			e.Request.Header = e.Request.Header.Clone()
			e.Request.Header.Set("X-Attempt", strconv.Itoa(e.Attempts()))
		}))
	client.Handlers = handlers

Packages metrics and tracing install Prometheus and OpenTelemetry
handlers in the same way.
*/
package httpclient
