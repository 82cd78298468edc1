// Copyright 2021 The httpclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package config loads client settings from a .env file, an optional
// YAML file, HTTPCLIENT_ environment variables and command line flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/curlsdk/httpclient"
	"github.com/curlsdk/httpclient/internal/logger"
	"github.com/curlsdk/httpclient/retry"
	"github.com/curlsdk/httpclient/timeout"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix prefixes the environment variables read by Load, for
// example HTTPCLIENT_RETRY_ATTEMPTS or HTTPCLIENT_LOG_LEVEL.
const EnvPrefix = "HTTPCLIENT"

// DotEnvFile is the file Load reads environment variables from, if it
// exists in the working directory.
const DotEnvFile = ".env"

// Setting keys. Flags use the same names with dashes, so retry_attempts
// is set by --retry-attempts.
const (
	KeyRetryAttempts  = "retry_attempts"
	KeyRetryPause     = "retry_pause"
	KeyRetryTransient = "retry_transient_only"
	KeyRetryWithin    = "retry_within"
	KeyInsecure       = "insecure"
	KeyUserAgent      = "user_agent"
	KeySuccessStatus  = "success_status"
	KeyTimeout        = "timeout"
	KeyLogLevel       = "log.level"
	KeyLogFormat      = "log.format"
	KeyTrace          = "trace"
)

var flagNames = map[string]string{
	KeyRetryAttempts:  "retry-attempts",
	KeyRetryPause:     "retry-pause",
	KeyRetryTransient: "retry-transient-only",
	KeyRetryWithin:    "retry-within",
	KeyInsecure:       "insecure",
	KeyUserAgent:      "user-agent",
	KeySuccessStatus:  "success-status",
	KeyTimeout:        "timeout",
	KeyLogLevel:       "log-level",
	KeyLogFormat:      "log-format",
	KeyTrace:          "trace",
}

// Config holds the settings of a client and of the command line tool.
type Config struct {
	RetryAttempts int
	RetryPause    int // Seconds
	Insecure      bool
	UserAgent     string
	SuccessStatus []int
	Timeout       time.Duration // Per attempt; zero means none
	Log           Log
	Trace         bool

	// RetryTransientOnly limits retries to transport errors that
	// transient.Categorize reports as transient.
	RetryTransientOnly bool
	// RetryWithin stops retries once a call has run this long. Zero
	// means no limit.
	RetryWithin time.Duration
}

// Log holds logger settings.
type Log struct {
	Level  string
	Format string
}

// Default returns the default settings.
func Default() *Config {
	return &Config{
		RetryAttempts: httpclient.DefaultRetryAttempts,
		RetryPause:    int(httpclient.DefaultRetryPause / time.Second),
		Log: Log{
			Level:  "info",
			Format: logger.FormatConsole,
		},
	}
}

// RegisterFlags defines the flags read by Load on flags.
func RegisterFlags(flags *pflag.FlagSet) {
	d := Default()
	flags.String(flagNames[KeyRetryAttempts], fmt.Sprint(d.RetryAttempts), "number of retries after a failed attempt")
	flags.String(flagNames[KeyRetryPause], fmt.Sprint(d.RetryPause), "seconds to pause before each retry")
	flags.Bool(flagNames[KeyRetryTransient], false, "retry only refused, reset or timed out connections")
	flags.Duration(flagNames[KeyRetryWithin], 0, "stop retrying once the call has run this long, 0 for no limit")
	flags.Bool(flagNames[KeyInsecure], false, "skip verification of the server certificate")
	flags.String(flagNames[KeyUserAgent], "", "User-Agent header (default legacy Firefox string)")
	flags.StringSlice(flagNames[KeySuccessStatus], nil, "status codes accepted as success (default 200)")
	flags.Duration(flagNames[KeyTimeout], 0, "timeout of each attempt, 0 for none")
	flags.String(flagNames[KeyLogLevel], d.Log.Level, "log level: debug, info, warn or error")
	flags.String(flagNames[KeyLogFormat], d.Log.Format, "log format: console or json")
	flags.Bool(flagNames[KeyTrace], false, "print an OpenTelemetry trace of the request to stderr")
}

// Load reads the settings. path names an optional YAML file; flags, if
// not nil, should have been set up with RegisterFlags and parsed.
//
// Invalid values result in an error wrapping
// httpclient.ErrInvalidArgument.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", DotEnvFile, err)
	}

	v := viper.New()
	d := Default()
	v.SetDefault(KeyRetryAttempts, d.RetryAttempts)
	v.SetDefault(KeyRetryPause, d.RetryPause)
	v.SetDefault(KeyLogLevel, d.Log.Level)
	v.SetDefault(KeyLogFormat, d.Log.Format)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if flags != nil {
		for key, name := range flagNames {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Insecure:  v.GetBool(KeyInsecure),
		UserAgent: v.GetString(KeyUserAgent),
		Log: Log{
			Level:  v.GetString(KeyLogLevel),
			Format: v.GetString(KeyLogFormat),
		},
		Trace:              v.GetBool(KeyTrace),
		RetryTransientOnly: v.GetBool(KeyRetryTransient),
	}

	var err error
	if cfg.RetryAttempts, err = httpclient.ParseNonNegative(v.GetString(KeyRetryAttempts)); err != nil {
		return nil, fmt.Errorf("%s: %w", KeyRetryAttempts, err)
	}
	if cfg.RetryPause, err = httpclient.ParseNonNegative(v.GetString(KeyRetryPause)); err != nil {
		return nil, fmt.Errorf("%s: %w", KeyRetryPause, err)
	}
	if cfg.SuccessStatus, err = parseStatusList(v.Get(KeySuccessStatus)); err != nil {
		return nil, fmt.Errorf("%s: %w", KeySuccessStatus, err)
	}
	if cfg.Timeout, err = parseDuration(v.GetString(KeyTimeout)); err != nil {
		return nil, fmt.Errorf("%s: %w", KeyTimeout, err)
	}
	if cfg.RetryWithin, err = parseDuration(v.GetString(KeyRetryWithin)); err != nil {
		return nil, fmt.Errorf("%s: %w", KeyRetryWithin, err)
	}

	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", httpclient.ErrInvalidArgument, err)
	}
	return d, nil
}

// parseStatusList accepts the shapes a list takes in viper: a YAML
// sequence, a flag's string slice, or a comma or space separated string
// from the environment.
func parseStatusList(raw interface{}) ([]int, error) {
	var items []string
	switch x := raw.(type) {
	case nil:
		return nil, nil
	case string:
		items = strings.FieldsFunc(x, func(r rune) bool { return r == ',' || r == ' ' })
	case []string:
		items = x
	case []int:
		for _, n := range x {
			items = append(items, fmt.Sprint(n))
		}
	case []interface{}:
		for _, n := range x {
			items = append(items, fmt.Sprint(n))
		}
	default:
		return nil, fmt.Errorf("%w: unsupported list %v", httpclient.ErrInvalidArgument, raw)
	}

	var codes []int
	for _, item := range items {
		n, err := httpclient.ParseNonNegative(strings.TrimSpace(item))
		if err != nil {
			return nil, err
		}
		codes = append(codes, n)
	}
	return codes, nil
}

// Validate checks the settings. Every failure wraps
// httpclient.ErrInvalidArgument.
func (cfg *Config) Validate() error {
	if cfg.RetryAttempts < 0 {
		return fmt.Errorf("%s: %w: %d", KeyRetryAttempts, httpclient.ErrInvalidArgument, cfg.RetryAttempts)
	}
	if cfg.RetryPause < 0 {
		return fmt.Errorf("%s: %w: %d", KeyRetryPause, httpclient.ErrInvalidArgument, cfg.RetryPause)
	}
	for _, code := range cfg.SuccessStatus {
		if code < 100 || code > 599 {
			return fmt.Errorf("%s: %w: %d is not an HTTP status code", KeySuccessStatus, httpclient.ErrInvalidArgument, code)
		}
	}
	if cfg.Timeout < 0 {
		return fmt.Errorf("%s: %w: %v", KeyTimeout, httpclient.ErrInvalidArgument, cfg.Timeout)
	}
	if cfg.RetryWithin < 0 {
		return fmt.Errorf("%s: %w: %v", KeyRetryWithin, httpclient.ErrInvalidArgument, cfg.RetryWithin)
	}
	if _, err := zapcore.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("%s: %w: %v", KeyLogLevel, httpclient.ErrInvalidArgument, err)
	}
	switch cfg.Log.Format {
	case logger.FormatJSON, logger.FormatConsole:
	default:
		return fmt.Errorf("%s: %w: %q", KeyLogFormat, httpclient.ErrInvalidArgument, cfg.Log.Format)
	}
	return nil
}

// NewLogger builds the logger described by the settings.
func (cfg *Config) NewLogger() (*zap.Logger, error) {
	return logger.New(cfg.Log.Level, cfg.Log.Format)
}

// NewClient builds a client from the settings. The logger may be nil.
func (cfg *Config) NewClient(log *zap.Logger) (*httpclient.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c, err := httpclient.NewWithRetry(cfg.RetryAttempts, cfg.RetryPause)
	if err != nil {
		return nil, err
	}
	c.InsecureSkipVerify = cfg.Insecure
	c.UserAgent = cfg.UserAgent
	c.SuccessStatus = cfg.SuccessStatus
	c.Logger = log
	if cfg.Timeout > 0 {
		c.TimeoutPolicy = timeout.Fixed(cfg.Timeout)
	}
	c.RetryIf = cfg.retryIf()
	return c, nil
}

func (cfg *Config) retryIf() retry.Decider {
	var d retry.DeciderFunc
	if cfg.RetryTransientOnly {
		d = retry.TransientErr
	}
	if cfg.RetryWithin > 0 {
		within := retry.Before(cfg.RetryWithin)
		if d == nil {
			d = within
		} else {
			d = d.And(within)
		}
	}
	if d == nil {
		return nil
	}
	return d
}
