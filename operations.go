// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package fmg

import (
	"context"
	"errors"
)

// Do performs one request in its own session.
//
// The order is fixed: validate the request, open the session, build and send
// the envelope, classify the outcome, release the session. The session is
// released on every path once it was opened.
//
// Every transport or device failure is returned as data in the Result. The
// error is non-nil only when ctx was cancelled (user interrupt) or the request
// failed validation; in the interrupt case the Result still describes the
// aborted call.
//
// An unsupported verb yields status -5 without any network activity.
//
// Example:
//
//	req, err := fmg.NewRequest("get", "/pm/config/adom/root/obj/firewall/address")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := client.Do(ctx, req)
//	if err != nil {
//	    log.Fatal(err) // interrupted
//	}
//	fmt.Println(res.Status, res.JSON())
func (c *Client) Do(ctx context.Context, req Request) (Result, error) {
	if err := req.Verb.validate(); err != nil {
		c.logger.Warn(ctx, "unsupported method",
			"method", string(req.Verb))
		return ErrorResult(err), nil
	}

	req.URL = NormalizeURL(req.URL)
	if err := req.Validate(); err != nil {
		return ErrorResult(err), err
	}

	if err := checkContextCancellation(ctx); err != nil {
		if ctxErr := canceled(ctx, err); ctxErr != nil {
			return ErrorResult(ctxErr), ctxErr
		}
		return Classify(nil, err), nil
	}

	sess, err := c.Open(ctx)
	if err != nil {
		if ctxErr := canceled(ctx, err); ctxErr != nil {
			return ErrorResult(ctxErr), ctxErr
		}
		return Classify(nil, err), nil
	}
	defer sess.Close(ctx) //nolint:errcheck // logout failures are logged in Close

	return sess.Do(ctx, req)
}

// Do performs one request within an open session.
//
// It follows the same error contract as Client.Do.
func (s *Session) Do(ctx context.Context, req Request) (Result, error) {
	resp, err := s.call(ctx, req)
	if ctxErr := canceled(ctx, err); ctxErr != nil {
		return ErrorResult(ctxErr), ctxErr
	}

	res := Classify(resp, err)
	s.client.logger.Debug(ctx, "FortiManager result",
		"method", string(req.Verb),
		"url", req.URL,
		"status", res.Status.String(),
		"remote", res.Remote)
	return res, nil
}

// Get retrieves objects at url.
//
// Params are positional parameters such as `fields=["name"]` or
// `{"filter": ["name", "==", "srv1"]}`.
func (c *Client) Get(ctx context.Context, url string, params ...string) (Result, error) {
	return c.doVerb(ctx, VerbGet, url, "", params)
}

// Add creates an object at url from a JSON body
func (c *Client) Add(ctx context.Context, url, body string, params ...string) (Result, error) {
	return c.doVerb(ctx, VerbAdd, url, body, params)
}

// Set replaces or updates an object at url from a JSON body
func (c *Client) Set(ctx context.Context, url, body string, params ...string) (Result, error) {
	return c.doVerb(ctx, VerbSet, url, body, params)
}

// Update is an alias of Set; both send the "set" wire method
func (c *Client) Update(ctx context.Context, url, body string, params ...string) (Result, error) {
	return c.doVerb(ctx, VerbUpdate, url, body, params)
}

// Delete removes the object at url
func (c *Client) Delete(ctx context.Context, url string, params ...string) (Result, error) {
	return c.doVerb(ctx, VerbDelete, url, "", params)
}

// Exec runs the executable action at url with a JSON parameter body
func (c *Client) Exec(ctx context.Context, url, body string, params ...string) (Result, error) {
	return c.doVerb(ctx, VerbExec, url, body, params)
}

func (c *Client) doVerb(ctx context.Context, verb Verb, url, body string, params []string) (Result, error) {
	req, err := NewRequest(string(verb), url, WithBody(body), WithParams(params...))
	if err != nil {
		return ErrorResult(err), err
	}
	return c.Do(ctx, req)
}

// checkContextCancellation checks if context is canceled without blocking
func checkContextCancellation(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// canceled returns ctx's error when err is the result of ctx being cancelled.
//
// A deadline on ctx is treated like any other timeout and classified as a
// connection failure, so only explicit cancellation counts.
func canceled(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	return nil
}
