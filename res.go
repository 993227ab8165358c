// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package fmg

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Status is a result status: either an integer code or a string such as
// "success"
type Status struct {
	code   int
	text   string
	isText bool
}

// IntStatus returns an integer status
func IntStatus(code int) Status {
	return Status{code: code}
}

// TextStatus returns a string status
func TextStatus(text string) Status {
	return Status{text: text, isText: true}
}

// Int returns the integer code and true, or 0 and false for string statuses
func (s Status) Int() (int, bool) {
	if s.isText {
		return 0, false
	}
	return s.code, true
}

// IsText reports whether the status is a string status
func (s Status) IsText() bool {
	return s.isText
}

// String returns the status as printed on the status line
func (s Status) String() string {
	if s.isText {
		return s.text
	}
	return strconv.Itoa(s.code)
}

// MarshalJSON encodes integer statuses as numbers and text statuses as strings
func (s Status) MarshalJSON() ([]byte, error) {
	if s.isText {
		return json.Marshal(s.text)
	}
	return json.Marshal(s.code)
}

// Result is a classified API result.
//
// Payload is always valid JSON. When the device answered it is the response
// data (or the status object when there is no data); for client-side failures
// it is {"error": <label>, "details": <message>}.
type Result struct {
	// Status is the device's status code, or a negative sentinel for
	// client-side failures
	Status Status

	// Payload is the JSON payload
	Payload string

	// Remote is true when the status came from the device
	Remote bool
}

// OK reports whether the result is a success: integer 0 or the strings
// "success" / "ok"
func (r Result) OK() bool {
	if code, ok := r.Status.Int(); ok {
		return code == 0
	}
	switch strings.ToLower(r.Status.String()) {
	case "success", "ok":
		return true
	}
	return false
}

// GetValue retrieves a value from the payload using a gjson path.
//
// Example:
//
//	res, _ := client.Get(ctx, "/pm/config/adom/root/obj/firewall/address")
//	for _, name := range res.GetValue("#.name").Array() {
//	    fmt.Println(name.String())
//	}
func (r Result) GetValue(path string) gjson.Result {
	if r.Payload == "" {
		return gjson.Result{}
	}
	return gjson.Get(r.Payload, path)
}

// JSON returns the payload as compact JSON
func (r Result) JSON() string {
	if r.Payload == "" {
		return "null"
	}
	return gjson.Get(r.Payload, "@ugly").Raw
}

// PrettyJSON returns the payload indented with two spaces
func (r Result) PrettyJSON() string {
	if r.Payload == "" {
		return "null"
	}
	return strings.TrimRight(gjson.Get(r.Payload, "@pretty").Raw, "\n")
}
