// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/netascode/go-fmg"
)

// device is a minimal /jsonrpc endpoint recording the calls it receives
type device struct {
	mu    sync.Mutex
	calls []gjson.Result

	// status is the code answered to calls other than login and logout
	status int
	data   string
}

func newDevice(t *testing.T, status int, data string) (*device, *httptest.Server) {
	t.Helper()
	d := &device{status: status, data: data}
	srv := httptest.NewServer(d)
	t.Cleanup(srv.Close)
	return d, srv
}

func (d *device) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body) //nolint:errcheck // test server
	env := gjson.ParseBytes(raw)

	d.mu.Lock()
	d.calls = append(d.calls, env)
	d.mu.Unlock()

	id := env.Get("id").Int()
	url := env.Get("params.0.url").String()
	switch url {
	case fmg.LoginURL:
		fmt.Fprintf(w, `{"id":%d,"result":[{"status":{"code":0,"message":"OK"},"url":"sys/login/user"}],"session":"sid-1"}`, id)
	case fmg.LogoutURL:
		fmt.Fprintf(w, `{"id":%d,"result":[{"status":{"code":0,"message":"OK"},"url":"sys/logout"}]}`, id)
	default:
		if d.data == "" {
			fmt.Fprintf(w, `{"id":%d,"result":[{"status":{"code":%d,"message":"status"},"url":%q}]}`, id, d.status, url)
			return
		}
		fmt.Fprintf(w, `{"id":%d,"result":[{"data":%s,"status":{"code":%d,"message":"OK"},"url":%q}]}`, id, d.data, d.status, url)
	}
}

func (d *device) urls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	urls := make([]string, len(d.calls))
	for i, c := range d.calls {
		urls[i] = c.Get("params.0.url").String()
	}
	return urls
}

func (d *device) call(i int) gjson.Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[i]
}

func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := Execute(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestNewCommand_Flags(t *testing.T) {
	cmd := NewCommand(io.Discard, io.Discard)

	for _, name := range []string{
		"config", "host", "ip", "username", "password", "apikey",
		"method", "endpoint", "data", "query",
		"no-ssl", "verify-ssl", "ssl-warnings", "timeout", "debug", "format",
		"table-max-width", "table-max-fields",
	} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "flag %s", name)
	}

	shorthands := map[string]string{
		"c": "config", "i": "host", "u": "username", "p": "password", "k": "apikey",
		"m": "method", "e": "endpoint", "d": "data", "q": "query",
	}
	for short, long := range shorthands {
		f := cmd.Flags().ShorthandLookup(short)
		require.NotNil(t, f, "shorthand -%s", short)
		assert.Equal(t, long, f.Name)
	}

	assert.Equal(t, "admin", cmd.Flags().Lookup("username").DefValue)
	assert.Equal(t, "300", cmd.Flags().Lookup("timeout").DefValue)
	assert.Equal(t, "json", cmd.Flags().Lookup("format").DefValue)
	assert.Equal(t, "50", cmd.Flags().Lookup("table-max-width").DefValue)
	assert.Equal(t, "6", cmd.Flags().Lookup("table-max-fields").DefValue)
}

func TestExecute_Get(t *testing.T) {
	d, srv := newDevice(t, 0, `[{"name":"srv1","subnet":["10.0.0.1","255.255.255.255"]}]`)

	code, out, _ := execute(t,
		"--host", srv.URL, "-p", "secret",
		"-m", "get", "-e", "pm/config/adom/root/obj/firewall/address",
		"-q", `fields=["name","subnet"]`,
	)

	assert.Equal(t, ExitOK, code)
	assert.Equal(t, "Status Code: 0\nResponse: [{\"name\":\"srv1\",\"subnet\":[\"10.0.0.1\",\"255.255.255.255\"]}]\n", out)
	assert.Equal(t, []string{fmg.LoginURL, "/pm/config/adom/root/obj/firewall/address", fmg.LogoutURL}, d.urls())

	get := d.call(1)
	assert.Equal(t, "get", get.Get("method").String())
	assert.Equal(t, "sid-1", get.Get("session").String())
	assert.Equal(t, `["name","subnet"]`, get.Get("params.0.fields").Raw)
}

func TestExecute_TableFormat(t *testing.T) {
	_, srv := newDevice(t, 0, `[{"name":"srv1","subnet":"10.0.0.1/32"}]`)

	code, out, _ := execute(t,
		"-i", srv.URL, "-p", "secret",
		"-m", "get", "-e", "/pm/config/adom/root/obj/firewall/address",
		"--format", "table",
	)

	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out, "1 result(s) found")
	assert.Contains(t, out, "| srv1 | 10.0.0.1/32 |")
}

func TestExecute_AddSendsData(t *testing.T) {
	d, srv := newDevice(t, 0, "")

	code, out, _ := execute(t,
		"-i", srv.URL, "-p", "secret",
		"-m", "ADD", "-e", "/pm/config/adom/root/obj/firewall/address",
		"-d", `{"name":"new-address","subnet":"10.0.0.0/24"}`,
	)

	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out, "Status Code: 0\n")
	add := d.call(1)
	assert.Equal(t, "add", add.Get("method").String())
	assert.Equal(t, "new-address", add.Get("params.0.data.name").String())
}

func TestExecute_RemoteErrorExitCodes(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   int
	}{
		{"http style error", 404, ExitHTTPError},
		{"negative device code", -6, ExitFailure},
		{"positive below 400", 1, ExitOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, srv := newDevice(t, tt.status, "")

			code, out, _ := execute(t,
				"-i", srv.URL, "-p", "secret",
				"-m", "delete", "-e", "/pm/config/adom/root/obj/firewall/address/old",
			)

			assert.Equal(t, tt.code, code)
			assert.Contains(t, out, fmt.Sprintf("Status Code: %d\n", tt.status))
			assert.Equal(t, fmg.LogoutURL, d.urls()[2])
		})
	}
}

func TestExecute_UnsupportedMethod(t *testing.T) {
	d, srv := newDevice(t, 0, "")

	code, out, errOut := execute(t,
		"-i", srv.URL, "-p", "secret",
		"-m", "patch", "-e", "/pm/config/adom/root/obj/firewall/address",
	)

	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, out, "Status Code: -5\n")
	assert.Contains(t, out, `"error":"Unsupported method"`)
	assert.Contains(t, out, "Method patch not supported")
	assert.Empty(t, d.urls())
	assert.NotContains(t, errOut, "Unexpected status code")
}

func TestExecute_ConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	code, out, _ := execute(t,
		"-i", addr, "-p", "secret",
		"-m", "get", "-e", "/dvmdb/device",
	)

	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, out, "Status Code: -1\n")
	assert.Contains(t, out, `"error":"Connection failed"`)
}

func TestExecute_InvalidData(t *testing.T) {
	d, srv := newDevice(t, 0, "")

	code, out, errOut := execute(t,
		"-i", srv.URL, "-p", "secret",
		"-m", "add", "-e", "/pm/config/adom/root/obj/firewall/address",
		"-d", `{"name":`,
	)

	assert.Equal(t, ExitFailure, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "Error: Invalid JSON data")
	assert.Empty(t, d.urls())
}

func TestExecute_MissingHost(t *testing.T) {
	t.Setenv("FMG_HOST", "")

	code, out, errOut := execute(t, "-p", "secret", "-m", "get", "-e", "/dvmdb/device")

	assert.Equal(t, ExitFailure, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "Error: FortiManager host/IP address is required")
}

func TestExecute_MissingSecret(t *testing.T) {
	t.Setenv("FMG_PASSWORD", "")
	t.Setenv("FMG_APIKEY", "")

	code, _, errOut := execute(t, "-i", "10.0.0.1", "-m", "get", "-e", "/dvmdb/device")

	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, errOut, "Error: Either API key or password is required")
}

func TestExecute_InvalidFormat(t *testing.T) {
	code, _, errOut := execute(t, "-i", "10.0.0.1", "-p", "x", "-m", "get", "-e", "/x", "--format", "yaml")

	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, errOut, "invalid format: yaml")
}

func TestExecute_MissingRequiredFlag(t *testing.T) {
	code, _, errOut := execute(t, "-i", "10.0.0.1", "-p", "x", "-e", "/x")

	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, errOut, `required flag(s) "method" not set`)
}

func TestExecute_ConfigFile(t *testing.T) {
	d, srv := newDevice(t, 0, `[]`)
	t.Setenv("FMG_HOST", "")
	t.Setenv("FMG_USERNAME", "")

	path := filepath.Join(t.TempDir(), "fmg.ini")
	content := fmt.Sprintf("[fortimanager]\nhost = %s\nusername = api-admin\npassword = from-file\n", srv.URL)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	code, _, _ := execute(t, "-c", path, "-m", "get", "-e", "/dvmdb/device")
	require.Equal(t, ExitOK, code)

	login := d.call(0)
	assert.Equal(t, "api-admin", login.Get("params.0.data.user").String())
	assert.Equal(t, "from-file", login.Get("params.0.data.passwd").String())

	// flags win over the file
	code, _, _ = execute(t, "-c", path, "-u", "ops", "-p", "from-flag", "-m", "get", "-e", "/dvmdb/device")
	require.Equal(t, ExitOK, code)

	login = d.call(3)
	assert.Equal(t, "ops", login.Get("params.0.data.user").String())
	assert.Equal(t, "from-flag", login.Get("params.0.data.passwd").String())
}

func TestExecute_ConfigFileMissing(t *testing.T) {
	code, out, errOut := execute(t,
		"-c", filepath.Join(t.TempDir(), "absent.ini"),
		"-m", "get", "-e", "/dvmdb/device",
	)

	assert.Equal(t, ExitFailure, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "Error loading configuration: Configuration file not found")
}

func TestExecute_APIKey(t *testing.T) {
	auth := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth <- r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body) //nolint:errcheck // test server
		env := gjson.ParseBytes(raw)
		fmt.Fprintf(w, `{"id":%d,"result":[{"data":{"version":"v7.4.2"},"status":{"code":0,"message":"OK"},"url":"/sys/status"}]}`,
			env.Get("id").Int())
	}))
	t.Cleanup(srv.Close)

	code, out, _ := execute(t, "-i", srv.URL, "-k", "key-123", "-m", "get", "-e", "/sys/status", "--format", "pretty")

	assert.Equal(t, ExitOK, code)
	assert.Equal(t, "Bearer key-123", <-auth)
	assert.Equal(t, "Status Code: 0\nResponse:\n{\n  \"version\": \"v7.4.2\"\n}\n", out)
}

func TestExecute_Cancelled(t *testing.T) {
	_, srv := newDevice(t, 0, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out, errOut bytes.Buffer
	code := Execute(ctx, []string{"-i", srv.URL, "-p", "secret", "-m", "get", "-e", "/dvmdb/device"}, &out, &errOut)

	assert.Equal(t, ExitInterrupted, code)
	assert.Contains(t, errOut.String(), "Operation cancelled by user")
	assert.Empty(t, out.String())
}
