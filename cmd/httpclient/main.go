// Copyright 2021 The httpclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Command httpclient sends one HTTP request with retries.
//
// Usage:
//
//	httpclient [flags] METHOD URL [key=value ...]
//
// The key=value arguments are sent form-encoded (or, for GET, are
// ignored with a warning). The response body is written to standard
// output. Logs, response info, traces and metrics go to standard error.
//
// Settings may also come from a YAML file (--config), from a .env file
// in the working directory, and from HTTPCLIENT_ environment variables.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/curlsdk/httpclient"
	"github.com/curlsdk/httpclient/config"
	"github.com/curlsdk/httpclient/metrics"
	"github.com/curlsdk/httpclient/request"
	"github.com/curlsdk/httpclient/tracing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("httpclient", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		_, _ = fmt.Fprintln(stderr, "usage: httpclient [flags] METHOD URL [key=value ...]")
		flags.PrintDefaults()
	}
	configFile := flags.String("config", "", "YAML settings file")
	showInfo := flags.Bool("info", false, "print response info to stderr")
	showMetrics := flags.Bool("metrics", false, "print Prometheus metrics to stderr")
	config.RegisterFlags(flags)

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if flags.NArg() < 2 {
		flags.Usage()
		return exitUsage
	}
	method := strings.ToUpper(flags.Arg(0))
	target := flags.Arg(1)
	params, err := parseParams(flags.Args()[2:])
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return exitUsage
	}

	cfg, err := config.Load(*configFile, flags)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return exitUsage
	}
	log, err := cfg.NewLogger()
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return exitUsage
	}
	defer func() { _ = log.Sync() }()

	client, err := cfg.NewClient(log)
	if err != nil {
		log.Error("invalid client settings", zap.Error(err))
		return exitUsage
	}
	handlers := &httpclient.HandlerGroup{}
	client.Handlers = handlers

	collector := metrics.NewCollector("")
	registry := prometheus.NewRegistry()
	registry.MustRegister(collector)
	collector.Install(handlers)

	if cfg.Trace {
		shutdown, err := installTracing(handlers, stderr)
		if err != nil {
			log.Error("failed to set up tracing", zap.Error(err))
			return exitFailure
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				log.Warn("failed to flush traces", zap.Error(err))
			}
		}()
	}

	if method == http.MethodGet && len(params) > 0 {
		log.Warn("ignoring parameters on GET", zap.Int("count", len(params)))
		params = nil
	}
	var body interface{}
	if params != nil {
		body = params
	}
	p, err := request.NewPlanWithContext(ctx, method, target, body)
	if err != nil {
		log.Error("invalid request", zap.Error(err))
		return exitUsage
	}

	resp, err := client.Do(p)
	if *showMetrics {
		printMetrics(registry, stderr, log)
	}
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return exitFailure
	}
	if *showInfo {
		printInfo(resp.Info, stderr)
	}
	_, _ = io.WriteString(stdout, resp.Content)
	return exitOK
}

func parseParams(args []string) (url.Values, error) {
	if len(args) == 0 {
		return nil, nil
	}
	params := make(url.Values, len(args))
	for _, arg := range args {
		i := strings.IndexByte(arg, '=')
		if i < 1 {
			return nil, fmt.Errorf("parameter %q is not of the form key=value", arg)
		}
		params.Add(arg[:i], arg[i+1:])
	}
	return params, nil
}

func installTracing(handlers *httpclient.HandlerGroup, w io.Writer) (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	tracing.New(
		tracing.WithTracerProvider(tp),
		tracing.WithPropagator(propagation.TraceContext{}),
	).Install(handlers)
	return tp.Shutdown, nil
}

func printInfo(info httpclient.Info, w io.Writer) {
	m := info.Map()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = fmt.Fprintf(w, "%s: %v\n", k, m[k])
	}
}

func printMetrics(g prometheus.Gatherer, w io.Writer, log *zap.Logger) {
	families, err := g.Gather()
	if err != nil {
		log.Warn("failed to gather metrics", zap.Error(err))
		return
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			log.Warn("failed to write metrics", zap.Error(err))
			return
		}
	}
}
