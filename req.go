// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package fmg

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Input validation constants
const (
	// MaxURLLength is the maximum length for a resource URL (1024 characters)
	MaxURLLength = 1024

	// MaxBodySize is the maximum size of a request body in bytes (10MB)
	MaxBodySize = 10 * 1024 * 1024
)

// Verb is one of the six request verbs the client understands
type Verb string

const (
	// VerbGet retrieves objects
	VerbGet Verb = "get"

	// VerbAdd creates objects
	VerbAdd Verb = "add"

	// VerbSet replaces or updates objects
	VerbSet Verb = "set"

	// VerbUpdate is an alias of VerbSet; both use the "set" wire method
	VerbUpdate Verb = "update"

	// VerbDelete removes objects
	VerbDelete Verb = "delete"

	// VerbExec runs an executable action
	VerbExec Verb = "exec"
)

// Verbs lists the supported verbs in the order they are documented
var Verbs = []Verb{VerbGet, VerbAdd, VerbSet, VerbUpdate, VerbDelete, VerbExec}

// ParseVerb converts a verb string (case-insensitive) to a Verb.
//
// Unknown verbs fail with a KindUnsupportedMethod error.
func ParseVerb(s string) (Verb, error) {
	v := Verb(strings.ToLower(strings.TrimSpace(s)))
	if err := v.validate(); err != nil {
		return "", err
	}
	return v, nil
}

// WireMethod returns the JSON-RPC method name sent for the verb
func (v Verb) WireMethod() string {
	if v == VerbUpdate {
		return string(VerbSet)
	}
	return string(v)
}

// HasBody reports whether the verb sends the request body as data
func (v Verb) HasBody() bool {
	switch v {
	case VerbAdd, VerbSet, VerbUpdate, VerbExec:
		return true
	default:
		return false
	}
}

func (v Verb) validate() error {
	for _, known := range Verbs {
		if v == known {
			return nil
		}
	}
	return &FmgError{
		Kind:    KindUnsupportedMethod,
		Message: fmt.Sprintf("Method %s not supported", string(v)),
	}
}

// Request describes one API call: verb, resource URL, optional JSON body and
// ordered positional parameters.
//
// Build requests with NewRequest so they are validated before any network
// activity.
//
// Example:
//
//	req, err := fmg.NewRequest("add", "pm/config/adom/root/obj/firewall/address",
//	    fmg.WithBody(`{"name": "srv1", "subnet": "10.0.0.1/32"}`))
type Request struct {
	// Verb is the request verb
	Verb Verb

	// URL is the resource path, always starting with "/"
	URL string

	// Body is a JSON object sent as data for add, set, update and exec
	Body string

	// Params are positional parameters merged into the request params in order.
	// Each is either a JSON object or a key=value pair.
	Params []string
}

// WithBody sets the JSON body of a request
func WithBody(body string) func(*Request) {
	return func(r *Request) {
		r.Body = body
	}
}

// WithParams appends positional parameters to a request
func WithParams(params ...string) func(*Request) {
	return func(r *Request) {
		r.Params = append(r.Params, params...)
	}
}

// NewRequest builds and validates a Request.
//
// The verb is parsed case-insensitively, the URL gets a leading slash if it
// lacks one, and the body and params are checked for well-formed JSON.
func NewRequest(verb, url string, mods ...func(*Request)) (Request, error) {
	v, err := ParseVerb(verb)
	if err != nil {
		return Request{}, err
	}

	req := Request{
		Verb: v,
		URL:  NormalizeURL(url),
	}
	for _, mod := range mods {
		mod(&req)
	}

	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}

// Validate checks the verb, URL, body and params of a request
func (r Request) Validate() error {
	if err := r.Verb.validate(); err != nil {
		return err
	}
	if err := validateURL(r.URL); err != nil {
		return newError(KindValidation, string(r.Verb), err.Error(), nil)
	}
	if err := validateBody(r.Body); err != nil {
		return newError(KindValidation, string(r.Verb), err.Error(), nil)
	}
	for i, p := range r.Params {
		if _, err := parseParam(p); err != nil {
			return newError(KindValidation, string(r.Verb),
				fmt.Sprintf("query parameter at index %d: %s", i, err.Error()), nil)
		}
	}
	return nil
}

// NormalizeURL prefixes url with "/" when it does not already start with one
func NormalizeURL(url string) string {
	if !strings.HasPrefix(url, "/") {
		return "/" + url
	}
	return url
}

// validateURL checks a resource URL for emptiness, length and null bytes
func validateURL(url string) error {
	if strings.Trim(url, "/ ") == "" {
		return fmt.Errorf("endpoint cannot be empty")
	}
	if len(url) > MaxURLLength {
		return fmt.Errorf("endpoint exceeds maximum length of %d characters: %s", MaxURLLength, truncatePath(url))
	}
	if i := strings.IndexByte(url, 0); i >= 0 {
		return fmt.Errorf("endpoint contains null byte at position %d", i)
	}
	return nil
}

// validateBody checks that a non-empty body is a JSON object
func validateBody(body string) error {
	if strings.TrimSpace(body) == "" {
		return nil
	}
	if len(body) > MaxBodySize {
		return fmt.Errorf("data size exceeds maximum of %d bytes (got %d bytes)", MaxBodySize, len(body))
	}
	if !gjson.Valid(body) {
		return fmt.Errorf("Invalid JSON data")
	}
	if !gjson.Parse(body).IsObject() {
		return fmt.Errorf("data must be a JSON object")
	}
	return nil
}

// truncatePath truncates a path for error messages
func truncatePath(path string) string {
	if len(path) <= 100 {
		return path
	}
	return path[:100] + "..."
}
