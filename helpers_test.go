// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package fmg

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/tidwall/gjson"
)

const testSession = "sid-0123456789"

// fakeFMG is an in-process FortiManager /jsonrpc endpoint
type fakeFMG struct {
	mu sync.Mutex

	// envelopes holds every request body received, in order
	envelopes []gjson.Result

	// authHeaders holds the Authorization header of every request
	authHeaders []string

	logins  int
	logouts int

	// loginCode is the status code answered to login (0 = accept)
	loginCode int

	// handler answers every call other than login and logout.
	// It returns the HTTP status and the response body.
	handler func(env gjson.Result) (int, string)
}

func newFakeFMG(t *testing.T, handler func(env gjson.Result) (int, string)) (*fakeFMG, *httptest.Server) {
	t.Helper()
	f := &fakeFMG{handler: handler}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeFMG) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != JSONRPCPath {
		http.NotFound(w, r)
		return
	}
	raw, _ := io.ReadAll(r.Body) //nolint:errcheck // test server
	env := gjson.ParseBytes(raw)

	f.mu.Lock()
	f.envelopes = append(f.envelopes, env)
	f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))
	f.mu.Unlock()

	id := env.Get("id").Int()
	url := env.Get("params.0.url").String()

	w.Header().Set("Content-Type", "application/json")
	switch url {
	case LoginURL:
		f.mu.Lock()
		f.logins++
		code := f.loginCode
		f.mu.Unlock()
		if code != 0 {
			fmt.Fprintf(w, `{"id":%d,"result":[{"status":{"code":%d,"message":"Login fail"},"url":"sys/login/user"}]}`, id, code)
			return
		}
		fmt.Fprintf(w, `{"id":%d,"result":[{"status":{"code":0,"message":"OK"},"url":"sys/login/user"}],"session":%q}`, id, testSession)
	case LogoutURL:
		f.mu.Lock()
		f.logouts++
		f.mu.Unlock()
		fmt.Fprintf(w, `{"id":%d,"result":[{"status":{"code":0,"message":"OK"},"url":"sys/logout"}]}`, id)
	default:
		status, body := http.StatusOK, okResponse(url, `[]`)
		if f.handler != nil {
			status, body = f.handler(env)
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body) //nolint:errcheck // test server
	}
}

func (f *fakeFMG) setLoginCode(code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginCode = code
}

func (f *fakeFMG) counts() (logins, logouts, calls int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logins, f.logouts, len(f.envelopes)
}

// lastCall returns the last envelope that was neither login nor logout
func (f *fakeFMG) lastCall() gjson.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.envelopes) - 1; i >= 0; i-- {
		url := f.envelopes[i].Get("params.0.url").String()
		if url != LoginURL && url != LogoutURL {
			return f.envelopes[i]
		}
	}
	return gjson.Result{}
}

func okResponse(url, data string) string {
	return fmt.Sprintf(`{"id":1,"result":[{"status":{"code":0,"message":"OK"},"url":%q,"data":%s}]}`, url, data)
}

func statusResponse(url string, code int, message string) string {
	return fmt.Sprintf(`{"id":1,"result":[{"status":{"code":%d,"message":%q},"url":%q}]}`, code, message, url)
}

// newRawServer answers every request with body
func newRawServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body) //nolint:errcheck // test server
	}))
	t.Cleanup(srv.Close)
	return srv
}

// newTestClient returns a password-mode client pointed at srv
func newTestClient(t *testing.T, srv *httptest.Server, opts ...func(*Client)) *Client {
	t.Helper()
	base := []func(*Client){
		Password("secret"),
		WithHTTPClient(srv.Client()),
	}
	client, err := NewClient(srv.URL, append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}
