// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Package fmg provides a small client for the FortiManager JSON-RPC API
// (the /jsonrpc endpoint).
//
// The library handles session lifecycle (login, token reuse, logout), builds
// JSON-RPC envelopes for the get, add, set, update, delete and exec verbs,
// classifies every outcome into a Result with a stable status taxonomy, and
// renders arbitrary JSON payloads as tables.
//
// # Quick Start
//
//	client, err := fmg.NewClient(
//	    "10.0.0.1",
//	    fmg.Username("admin"),
//	    fmg.Password("secret"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx := context.Background()
//	res, err := client.Get(ctx, "/pm/config/adom/root/obj/firewall/address")
//	if err != nil {
//	    log.Fatal(err) // interrupted
//	}
//	fmt.Println(res.Status, res.GetValue("#.name"))
//
// Each call opens its own session and logs out before returning, also when the
// call fails or the context is cancelled. Use WithSession to run several
// requests in one session.
//
// # Results and Status Codes
//
// Transport and device failures are never returned as errors; they are
// classified into a Result:
//
//	-1  Connection failed    (refused, DNS, TLS, timeout)
//	-2  Invalid session      (credentials or token rejected)
//	-3  API error            (malformed response from the device)
//	-4  Unexpected error     (any other local failure)
//	-5  Unsupported method   (unknown verb, no network activity)
//
// Any other status is the device's own status code, passed through unchanged
// with Result.Remote set. The payload of a client-side failure is
// {"error": <label>, "details": <message>}.
//
// # Request Bodies
//
// Use the Body builder to construct JSON bodies:
//
//	body, err := fmg.Body{}.
//	    Set("name", "srv1").
//	    Set("subnet", "10.0.0.1/32").
//	    String()
//	res, err := client.Add(ctx, "/pm/config/adom/root/obj/firewall/address", body)
//
// # Tables
//
// RenderTable infers columns from any JSON shape:
//
//	out, err := fmg.RenderTable(res.Payload, fmg.DefaultTableMaxFields, fmg.DefaultTableMaxWidth)
//
// # References
//
//   - FortiManager JSON API: https://fndn.fortinet.net
//   - gjson: https://github.com/tidwall/gjson
//   - sjson: https://github.com/tidwall/sjson
//   - go-pretty: https://github.com/jedib0t/go-pretty
package fmg
