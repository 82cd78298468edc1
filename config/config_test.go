// Copyright 2021 The httpclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/curlsdk/httpclient"
	"github.com/curlsdk/httpclient/request"
	"github.com/curlsdk/httpclient/timeout"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testYAML = `
retry_attempts: 3
retry_pause: 2
insecure: true
user_agent: yaml/1.0
success_status: [200, 204]
timeout: 5s
log:
  level: debug
  format: json
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		chdir(t, t.TempDir())
		cfg, err := Load("", nil)
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
		assert.Equal(t, 1, cfg.RetryAttempts)
		assert.Equal(t, 1, cfg.RetryPause)
	})
	t.Run("yaml", func(t *testing.T) {
		dir := t.TempDir()
		chdir(t, dir)
		cfg, err := Load(writeFile(t, dir, "config.yaml", testYAML), nil)
		require.NoError(t, err)
		assert.Equal(t, &Config{
			RetryAttempts: 3,
			RetryPause:    2,
			Insecure:      true,
			UserAgent:     "yaml/1.0",
			SuccessStatus: []int{200, 204},
			Timeout:       5 * time.Second,
			Log:           Log{Level: "debug", Format: "json"},
		}, cfg)
	})
	t.Run("env overrides yaml", func(t *testing.T) {
		dir := t.TempDir()
		chdir(t, dir)
		t.Setenv("HTTPCLIENT_RETRY_ATTEMPTS", "4")
		t.Setenv("HTTPCLIENT_SUCCESS_STATUS", "200,201")
		t.Setenv("HTTPCLIENT_LOG_LEVEL", "warn")
		cfg, err := Load(writeFile(t, dir, "config.yaml", testYAML), nil)
		require.NoError(t, err)
		assert.Equal(t, 4, cfg.RetryAttempts)
		assert.Equal(t, 2, cfg.RetryPause)
		assert.Equal(t, []int{200, 201}, cfg.SuccessStatus)
		assert.Equal(t, "warn", cfg.Log.Level)
		assert.Equal(t, "json", cfg.Log.Format)
	})
	t.Run("flags override env", func(t *testing.T) {
		chdir(t, t.TempDir())
		t.Setenv("HTTPCLIENT_RETRY_ATTEMPTS", "4")
		t.Setenv("HTTPCLIENT_RETRY_PAUSE", "9")
		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		RegisterFlags(flags)
		require.NoError(t, flags.Parse([]string{
			"--retry-attempts", "5",
			"--success-status", "200,202",
			"--insecure",
			"--timeout", "250ms",
			"--trace",
			"--retry-transient-only",
			"--retry-within", "30s",
		}))
		cfg, err := Load("", flags)
		require.NoError(t, err)
		assert.Equal(t, 5, cfg.RetryAttempts)
		assert.Equal(t, 9, cfg.RetryPause)
		assert.Equal(t, []int{200, 202}, cfg.SuccessStatus)
		assert.True(t, cfg.Insecure)
		assert.True(t, cfg.Trace)
		assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
		assert.True(t, cfg.RetryTransientOnly)
		assert.Equal(t, 30*time.Second, cfg.RetryWithin)
	})
	t.Run("unset flags keep defaults", func(t *testing.T) {
		chdir(t, t.TempDir())
		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		RegisterFlags(flags)
		require.NoError(t, flags.Parse(nil))
		cfg, err := Load("", flags)
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})
	t.Run("dotenv", func(t *testing.T) {
		dir := t.TempDir()
		chdir(t, dir)
		writeFile(t, dir, DotEnvFile, "HTTPCLIENT_USER_AGENT=dotenv/1.0\n")
		t.Cleanup(func() { _ = os.Unsetenv("HTTPCLIENT_USER_AGENT") })
		cfg, err := Load("", nil)
		require.NoError(t, err)
		assert.Equal(t, "dotenv/1.0", cfg.UserAgent)
	})
	t.Run("missing config file", func(t *testing.T) {
		dir := t.TempDir()
		chdir(t, dir)
		_, err := Load(filepath.Join(dir, "nope.yaml"), nil)
		assert.Error(t, err)
	})
}

func TestLoad_Invalid(t *testing.T) {
	testCases := map[string]string{
		"HTTPCLIENT_RETRY_ATTEMPTS": "abc",
		"HTTPCLIENT_RETRY_PAUSE":    "-1",
		"HTTPCLIENT_SUCCESS_STATUS": "200,99",
		"HTTPCLIENT_TIMEOUT":        "soon",
		"HTTPCLIENT_LOG_LEVEL":      "loud",
		"HTTPCLIENT_LOG_FORMAT":     "xml",
	}
	for env, value := range testCases {
		t.Run(env, func(t *testing.T) {
			chdir(t, t.TempDir())
			t.Setenv(env, value)
			cfg, err := Load("", nil)
			assert.Nil(t, cfg)
			assert.ErrorIs(t, err, httpclient.ErrInvalidArgument)
		})
	}
}

func TestParseStatusList(t *testing.T) {
	for _, raw := range []interface{}{"200 201", "200,201", []string{"200", "201"}, []int{200, 201}, []interface{}{200, "201"}} {
		codes, err := parseStatusList(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, []int{200, 201}, codes, raw)
	}
	codes, err := parseStatusList(nil)
	assert.NoError(t, err)
	assert.Nil(t, codes)
	_, err = parseStatusList(3.5)
	assert.ErrorIs(t, err, httpclient.ErrInvalidArgument)
}

func TestConfig_Validate(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())

	cfg.RetryAttempts = -1
	assert.ErrorIs(t, cfg.Validate(), httpclient.ErrInvalidArgument)

	cfg = Default()
	cfg.RetryPause = -1
	assert.ErrorIs(t, cfg.Validate(), httpclient.ErrInvalidArgument)

	cfg = Default()
	cfg.Timeout = -time.Second
	assert.ErrorIs(t, cfg.Validate(), httpclient.ErrInvalidArgument)

	cfg = Default()
	cfg.RetryWithin = -time.Second
	assert.ErrorIs(t, cfg.Validate(), httpclient.ErrInvalidArgument)
}

func TestConfig_NewClient(t *testing.T) {
	cfg := &Config{
		RetryAttempts: 3,
		RetryPause:    2,
		Insecure:      true,
		UserAgent:     "cfg/1.0",
		SuccessStatus: []int{200, 201},
		Timeout:       time.Second,
		Log:           Log{Level: "info", Format: "console"},
	}
	log := zap.NewNop()
	c, err := cfg.NewClient(log)
	require.NoError(t, err)
	assert.Equal(t, 3, c.RetryAttempts())
	assert.Equal(t, 2*time.Second, c.RetryPause())
	assert.True(t, c.InsecureSkipVerify)
	assert.Equal(t, "cfg/1.0", c.UserAgent)
	assert.Equal(t, []int{200, 201}, c.SuccessStatus)
	assert.Equal(t, timeout.Fixed(time.Second), c.TimeoutPolicy)
	assert.Same(t, log, c.Logger)
	assert.Nil(t, c.RetryIf)

	cfg.Timeout = 0
	c, err = cfg.NewClient(nil)
	require.NoError(t, err)
	assert.Nil(t, c.TimeoutPolicy)

	cfg.RetryAttempts = -1
	_, err = cfg.NewClient(nil)
	assert.ErrorIs(t, err, httpclient.ErrInvalidArgument)
}

func TestConfig_NewLogger(t *testing.T) {
	l, err := Default().NewLogger()
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestConfig_RetryIf(t *testing.T) {
	refused := &request.Execution{Err: &url.Error{Op: "Get", URL: "x", Err: syscall.ECONNREFUSED}}
	unavailable := &request.Execution{Response: &http.Response{StatusCode: http.StatusServiceUnavailable}}

	t.Run("transient only", func(t *testing.T) {
		cfg := Default()
		cfg.RetryTransientOnly = true
		c, err := cfg.NewClient(nil)
		require.NoError(t, err)
		require.NotNil(t, c.RetryIf)
		assert.True(t, c.RetryIf.Decide(refused))
		assert.False(t, c.RetryIf.Decide(unavailable))
	})
	t.Run("within", func(t *testing.T) {
		cfg := Default()
		cfg.RetryWithin = time.Minute
		c, err := cfg.NewClient(nil)
		require.NoError(t, err)
		require.NotNil(t, c.RetryIf)
		e := &request.Execution{Start: time.Now()}
		assert.True(t, c.RetryIf.Decide(e))
		e.End = e.Start.Add(2 * time.Minute)
		assert.False(t, c.RetryIf.Decide(e))
	})
	t.Run("both", func(t *testing.T) {
		cfg := Default()
		cfg.RetryTransientOnly = true
		cfg.RetryWithin = time.Minute
		c, err := cfg.NewClient(nil)
		require.NoError(t, err)
		refused.Start = time.Now()
		assert.True(t, c.RetryIf.Decide(refused))
		refused.End = refused.Start.Add(2 * time.Minute)
		assert.False(t, c.RetryIf.Decide(refused))
	})
}

// chdir changes the working directory for the duration of the test,
// mirroring testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
