// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package fmg

import (
	"context"
	"fmt"
	"sync"

	"github.com/tidwall/gjson"
)

// Session is an authenticated session on the device.
//
// In password mode it holds the token returned by login and Close logs out.
// In API-key mode there is no server-side session and Close only marks the
// session released. Close runs at most once.
type Session struct {
	client *Client
	token  string

	once     sync.Once
	mu       sync.Mutex
	released bool
}

// Token returns the session token, empty in API-key mode
func (s *Session) Token() string {
	return s.token
}

// Released reports whether Close has run
func (s *Session) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

// Open authenticates and returns a session.
//
// Password mode sends exec /sys/login/user; a non-zero status or a missing
// session token is a KindSessionInvalid error. API-key mode makes no call.
// The caller must Close the session; prefer WithSession.
func (c *Client) Open(ctx context.Context) (*Session, error) {
	if err := checkContextCancellation(ctx); err != nil {
		return nil, err
	}

	if c.creds.UsesAPIKey() {
		c.logger.Debug(ctx, "using API key authentication",
			"host", c.Host,
			"user", c.creds.Username)
		return &Session{client: c}, nil
	}

	login := Body{}.
		Set("user", c.creds.Username).
		Set("passwd", c.creds.Password)
	data, err := login.String()
	if err != nil {
		return nil, newError(KindUnexpected, "login", "failed to build login request", err)
	}

	env, err := BuildEnvelope(Request{Verb: VerbExec, URL: LoginURL, Body: data}, "", c.requestID())
	if err != nil {
		return nil, err
	}

	resp, err := c.post(ctx, "login", env)
	if err != nil {
		return nil, err
	}

	code := gjson.GetBytes(resp, "result.0.status.code")
	if !code.Exists() {
		return nil, newError(KindRemoteAPI, "login", "response not formed correctly", nil)
	}
	if code.Int() != 0 {
		msg := gjson.GetBytes(resp, "result.0.status.message").String()
		return nil, newError(KindSessionInvalid, "login",
			fmt.Sprintf("login rejected for user %s (code %d: %s)", c.creds.Username, code.Int(), msg), nil)
	}

	token := gjson.GetBytes(resp, "session").String()
	if token == "" {
		return nil, newError(KindSessionInvalid, "login", "device returned no session token", nil)
	}

	c.logger.Info(ctx, "FortiManager session opened",
		"host", c.Host,
		"user", c.creds.Username)

	return &Session{client: c, token: token}, nil
}

// Close releases the session. Only the first call has any effect.
//
// Logout runs on a context detached from ctx's cancellation and bounded by
// the client's LogoutTimeout, so an interrupted caller still logs out.
// Logout failures are logged and returned but leave the session released.
func (s *Session) Close(ctx context.Context) error {
	var err error
	s.once.Do(func() {
		err = s.release(ctx)
		s.mu.Lock()
		s.released = true
		s.mu.Unlock()
	})
	return err
}

func (s *Session) release(ctx context.Context) error {
	c := s.client
	if s.token == "" {
		return nil
	}

	logoutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.LogoutTimeout)
	defer cancel()

	env, err := BuildEnvelope(Request{Verb: VerbExec, URL: LogoutURL}, s.token, c.requestID())
	if err != nil {
		return err
	}

	if _, err := c.post(logoutCtx, "logout", env); err != nil {
		c.logger.Warn(ctx, "FortiManager logout failed",
			"host", c.Host,
			"error", err.Error())
		return err
	}

	c.logger.Info(ctx, "FortiManager session closed",
		"host", c.Host)
	return nil
}

// call sends one request within the session
func (s *Session) call(ctx context.Context, req Request) ([]byte, error) {
	if s.Released() {
		return nil, newError(KindSessionInvalid, string(req.Verb), "session already released", nil)
	}

	env, err := BuildEnvelope(req, s.token, s.client.requestID())
	if err != nil {
		return nil, err
	}
	return s.client.post(ctx, string(req.Verb), env)
}

// WithSession opens a session, runs fn and releases the session on every
// exit path, including a panic in fn.
//
// Example:
//
//	err := client.WithSession(ctx, func(s *fmg.Session) error {
//	    res, err := s.Do(ctx, req)
//	    ...
//	})
func (c *Client) WithSession(ctx context.Context, fn func(*Session) error) error {
	sess, err := c.Open(ctx)
	if err != nil {
		return err
	}
	defer sess.Close(ctx) //nolint:errcheck // logout failures are logged in Close

	return fn(sess)
}
