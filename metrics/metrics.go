// Copyright 2021 The httpclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package metrics exposes Prometheus metrics about the executions of an
// httpclient.Client.
//
// Create a Collector, register it, and install it into the client's
// handler group:
//
//	c := metrics.NewCollector("myapp")
//	prometheus.MustRegister(c)
//	handlers := &httpclient.HandlerGroup{}
//	c.Install(handlers)
//	client.Handlers = handlers
package metrics

import (
	"strconv"

	"github.com/curlsdk/httpclient"
	"github.com/curlsdk/httpclient/request"
	"github.com/prometheus/client_golang/prometheus"
)

const subsystem = "httpclient"

// TransportErrorCode is the code label value used when an attempt or
// execution ended without a response.
const TransportErrorCode = "transport_error"

// A Collector counts requests, attempts, retries and timeouts, and
// observes request durations. It implements prometheus.Collector.
type Collector struct {
	requests        *prometheus.CounterVec
	attempts        *prometheus.CounterVec
	retries         *prometheus.CounterVec
	attemptTimeouts *prometheus.CounterVec
	duration        *prometheus.HistogramVec
}

// NewCollector creates a Collector whose metric names are prefixed with
// namespace, which may be empty.
func NewCollector(namespace string) *Collector {
	return &Collector{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "requests_total",
				Help:      "Total number of verb calls, by method and final status code",
			},
			[]string{"method", "code"},
		),
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "attempts_total",
				Help:      "Total number of request attempts, by method and status code",
			},
			[]string{"method", "code"},
		),
		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "retries_total",
				Help:      "Total number of retried attempts",
			},
			[]string{"method"},
		),
		attemptTimeouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "attempt_timeouts_total",
				Help:      "Total number of attempts that timed out",
			},
			[]string{"method"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "request_duration_seconds",
				Help:      "Duration of verb calls including retries and pauses, in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.requests.Describe(ch)
	c.attempts.Describe(ch)
	c.retries.Describe(ch)
	c.attemptTimeouts.Describe(ch)
	c.duration.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.requests.Collect(ch)
	c.attempts.Collect(ch)
	c.retries.Collect(ch)
	c.attemptTimeouts.Collect(ch)
	c.duration.Collect(ch)
}

// Install adds the collector's handlers to g.
func (c *Collector) Install(g *httpclient.HandlerGroup) {
	g.PushBack(httpclient.BeforeAttempt, httpclient.HandlerFunc(c.beforeAttempt))
	g.PushBack(httpclient.AfterAttemptTimeout, httpclient.HandlerFunc(c.afterAttemptTimeout))
	g.PushBack(httpclient.AfterAttempt, httpclient.HandlerFunc(c.afterAttempt))
	g.PushBack(httpclient.AfterExecutionEnd, httpclient.HandlerFunc(c.afterExecutionEnd))
}

func (c *Collector) beforeAttempt(_ httpclient.Event, e *request.Execution) {
	if e.Attempt > 0 {
		c.retries.WithLabelValues(e.Plan.Method).Inc()
	}
}

func (c *Collector) afterAttemptTimeout(_ httpclient.Event, e *request.Execution) {
	c.attemptTimeouts.WithLabelValues(e.Plan.Method).Inc()
}

func (c *Collector) afterAttempt(_ httpclient.Event, e *request.Execution) {
	c.attempts.WithLabelValues(e.Plan.Method, code(e)).Inc()
}

func (c *Collector) afterExecutionEnd(_ httpclient.Event, e *request.Execution) {
	c.requests.WithLabelValues(e.Plan.Method, code(e)).Inc()
	c.duration.WithLabelValues(e.Plan.Method).Observe(e.Duration().Seconds())
}

func code(e *request.Execution) string {
	if e.Err != nil || e.Response == nil {
		return TransportErrorCode
	}
	return strconv.Itoa(e.StatusCode())
}
