// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package fmg

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Well-known system URLs used for session handling
const (
	LoginURL  = "/sys/login/user"
	LogoutURL = "/sys/logout"
)

// Envelope is a JSON-RPC request as sent to the /jsonrpc endpoint
type Envelope struct {
	// ID correlates the response with the request
	ID uint64 `json:"id"`

	// Method is the wire method (get, add, set, delete, exec)
	Method string `json:"method"`

	// Params holds exactly one parameter object carrying url, data and
	// any positional parameters
	Params []json.RawMessage `json:"params"`

	// Session is the session token; empty in API-key mode and for login
	Session string `json:"session,omitempty"`

	// Verbose asks the device for symbolic instead of numeric enum values
	Verbose int `json:"verbose"`
}

// JSON returns the compact JSON encoding of the envelope
func (e Envelope) JSON() (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// BuildEnvelope translates a request into a JSON-RPC envelope.
//
// The params object starts with the URL, then positional params are merged in
// order (later keys win), then the body is attached as "data" for verbs that
// carry one. Body keys containing "__" are rewritten with "-", and a truthy
// top-level "data" key in the body is sent as the data payload itself.
//
// Example:
//
//	req, _ := fmg.NewRequest("get", "pm/config/adom/root/obj/firewall/address",
//	    fmg.WithParams(`fields=["name","subnet"]`))
//	env, err := fmg.BuildEnvelope(req, session, 1)
//	// {"id":1,"method":"get","params":[{"url":"/pm/config/adom/root/obj/firewall/address",
//	//   "fields":["name","subnet"]}],"session":"...","verbose":1}
func BuildEnvelope(req Request, session string, id uint64) (Envelope, error) {
	if err := req.Verb.validate(); err != nil {
		return Envelope{}, err
	}

	params := Body{}.Set("url", NormalizeURL(req.URL))

	for i, p := range req.Params {
		fields, err := parseParam(p)
		if err != nil {
			return Envelope{}, newError(KindValidation, string(req.Verb),
				fmt.Sprintf("query parameter at index %d: %s", i, err.Error()), nil)
		}
		for _, f := range fields {
			params = params.SetRaw(EscapeKey(f.key), f.raw)
		}
	}

	if req.Verb.HasBody() {
		data, err := bodyData(req.Body)
		if err != nil {
			return Envelope{}, newError(KindValidation, string(req.Verb), err.Error(), nil)
		}
		if data != "" {
			params = params.SetRaw("data", data)
		}
	}

	raw, err := params.String()
	if err != nil {
		return Envelope{}, newError(KindUnexpected, string(req.Verb), "failed to build request params", err)
	}

	return Envelope{
		ID:      id,
		Method:  req.Verb.WireMethod(),
		Params:  []json.RawMessage{json.RawMessage(raw)},
		Session: session,
		Verbose: 1,
	}, nil
}

// paramField is one key/value pair contributed by a positional parameter
type paramField struct {
	key string
	raw string
}

// parseParam splits a positional parameter into fields.
//
// A JSON object contributes all of its members. A key=value pair contributes
// one member whose value is the JSON text when valid, else the quoted string.
func parseParam(p string) ([]paramField, error) {
	trimmed := strings.TrimSpace(p)
	if strings.HasPrefix(trimmed, "{") {
		if !gjson.Valid(trimmed) {
			return nil, fmt.Errorf("invalid JSON object: %s", truncatePath(trimmed))
		}
		var fields []paramField
		gjson.Parse(trimmed).ForEach(func(k, v gjson.Result) bool {
			fields = append(fields, paramField{key: k.String(), raw: v.Raw})
			return true
		})
		return fields, nil
	}

	key, value, ok := strings.Cut(p, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return nil, fmt.Errorf("expected key=value or a JSON object, got %q", truncatePath(p))
	}

	raw := value
	if !gjson.Valid(value) {
		quoted, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		raw = string(quoted)
	}
	return []paramField{{key: key, raw: raw}}, nil
}

// bodyData returns the raw JSON sent as "data", or "" when there is none
func bodyData(body string) (string, error) {
	if strings.TrimSpace(body) == "" {
		return "", nil
	}
	if err := validateBody(body); err != nil {
		return "", err
	}

	parsed := gjson.Parse(body)
	renamed := Body{}
	empty := true
	parsed.ForEach(func(k, v gjson.Result) bool {
		empty = false
		renamed = renamed.SetRaw(EscapeKey(strings.ReplaceAll(k.String(), "__", "-")), v.Raw)
		return true
	})
	if empty {
		return "", nil
	}

	out, err := renamed.String()
	if err != nil {
		return "", err
	}

	if data := gjson.Get(out, "data"); truthy(data) {
		return data.Raw, nil
	}
	return out, nil
}

// truthy mirrors the usual notion of a "set" JSON value: present, not null,
// not false, not zero and not an empty string, array or object
func truthy(v gjson.Result) bool {
	if !v.Exists() {
		return false
	}
	switch v.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.Number:
		return v.Float() != 0
	case gjson.String:
		return v.Str != ""
	case gjson.JSON:
		if v.IsArray() {
			return len(v.Array()) > 0
		}
		empty := true
		v.ForEach(func(_, _ gjson.Result) bool {
			empty = false
			return false
		})
		return !empty
	default:
		return true
	}
}
