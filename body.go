// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package fmg

import (
	"fmt"
	"strings"

	"github.com/tidwall/sjson"
)

// Body provides a fluent interface for building JSON request bodies
// using sjson for path-based manipulation.
//
// The Body builder tracks errors internally to enable method chaining
// while providing error checking through String() or Err() methods.
//
// Example:
//
//	body, err := fmg.Body{}.
//	    Set("name", "srv1").
//	    Set("subnet", "10.0.0.1/32").
//	    Set("comment", "web server").
//	    String()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := client.Add(ctx, "/pm/config/adom/root/obj/firewall/address", body)
type Body struct {
	str string
	err error
}

// Set sets a value at the specified JSON path and returns a new Body
//
// The path uses dot notation for nested fields (e.g., "scope.0.name").
// Once an error occurs, all subsequent operations are no-ops that preserve the error.
func (b Body) Set(path string, value any) Body {
	if b.err != nil {
		return b
	}

	result, err := sjson.Set(b.json(), path, value)
	if err != nil {
		return Body{str: b.str, err: fmt.Errorf("Set(%q): %w", path, err)}
	}
	return Body{str: result}
}

// SetRaw sets pre-encoded JSON at the specified path and returns a new Body
func (b Body) SetRaw(path, raw string) Body {
	if b.err != nil {
		return b
	}

	result, err := sjson.SetRaw(b.json(), path, raw)
	if err != nil {
		return Body{str: b.str, err: fmt.Errorf("SetRaw(%q): %w", path, err)}
	}
	return Body{str: result}
}

// Delete removes a value at the specified JSON path and returns a new Body
func (b Body) Delete(path string) Body {
	if b.err != nil {
		return b
	}

	result, err := sjson.Delete(b.json(), path)
	if err != nil {
		return Body{str: b.str, err: fmt.Errorf("Delete(%q): %w", path, err)}
	}
	return Body{str: result}
}

// String returns the JSON string representation and any error encountered during building
//
// An empty Body yields "{}".
func (b Body) String() (string, error) {
	return b.json(), b.err
}

// Err returns any error that occurred during the building process
func (b Body) Err() error {
	return b.err
}

// Bytes returns the JSON byte slice representation and any error encountered during building
func (b Body) Bytes() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	return []byte(b.json()), nil
}

func (b Body) json() string {
	if b.str == "" {
		return "{}"
	}
	return b.str
}

// EscapeKey escapes a literal object key for use as a single sjson path
// component, so keys such as "meta.fields" are not split.
//
// Only use it for keys of an existing object; a numeric component on a
// missing parent creates an array.
func EscapeKey(key string) string {
	var sb strings.Builder
	sb.Grow(len(key))
	for i := 0; i < len(key); i++ {
		switch key[i] {
		case '.', '*', '?', '\\', '|', '#', '@', '!', '=', '<', '>', '%':
			sb.WriteByte('\\')
		}
		sb.WriteByte(key[i])
	}
	return sb.String()
}
