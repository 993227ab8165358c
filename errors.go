// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package fmg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
)

// ErrorKind classifies a failure by where it happened and how the caller
// should react to it
type ErrorKind int

const (
	// KindUnexpected is any local failure that fits no other kind
	KindUnexpected ErrorKind = iota

	// KindConnectionFailure covers refused or dropped connections, DNS
	// failures and timeouts
	KindConnectionFailure

	// KindSessionInvalid means the device rejected the credentials or the
	// session token
	KindSessionInvalid

	// KindRemoteAPI means the device answered with something that is not a
	// well-formed JSON-RPC response
	KindRemoteAPI

	// KindUnsupportedMethod is an unknown verb, caught before any network I/O
	KindUnsupportedMethod

	// KindValidation is a malformed request (body, params or URL)
	KindValidation

	// KindConfig is a missing host, missing secret or unreadable config file
	KindConfig
)

// Classified status codes for client-side failures.
//
// Negative sentinels are never produced for a request the device answered.
const (
	StatusConnectionFailed  = -1
	StatusInvalidSession    = -2
	StatusAPIError          = -3
	StatusUnexpectedError   = -4
	StatusUnsupportedMethod = -5
)

// String returns the name of the error kind
func (k ErrorKind) String() string {
	switch k {
	case KindUnexpected:
		return "UnexpectedError"
	case KindConnectionFailure:
		return "ConnectionFailure"
	case KindSessionInvalid:
		return "SessionInvalid"
	case KindRemoteAPI:
		return "RemoteApiError"
	case KindUnsupportedMethod:
		return "UnsupportedMethod"
	case KindValidation:
		return "ValidationError"
	case KindConfig:
		return "ConfigError"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(k))
	}
}

// Status returns the classified status code for the kind.
//
// Validation and config errors are never classified; they map to the
// unexpected error code should one reach the classifier.
func (k ErrorKind) Status() int {
	switch k {
	case KindConnectionFailure:
		return StatusConnectionFailed
	case KindSessionInvalid:
		return StatusInvalidSession
	case KindRemoteAPI:
		return StatusAPIError
	case KindUnsupportedMethod:
		return StatusUnsupportedMethod
	default:
		return StatusUnexpectedError
	}
}

// Label returns the stable payload label used in classified error payloads
func (k ErrorKind) Label() string {
	switch k {
	case KindConnectionFailure:
		return "Connection failed"
	case KindSessionInvalid:
		return "Invalid session"
	case KindRemoteAPI:
		return "API error"
	case KindUnsupportedMethod:
		return "Unsupported method"
	default:
		return "Unexpected error"
	}
}

// FmgError represents a structured FortiManager client error with operation context
type FmgError struct {
	// Kind classifies the failure
	Kind ErrorKind

	// Operation name that failed (login, logout, get, add, ...)
	Operation string

	// Human-readable error message
	Message string

	// InternalMsg contains detailed error information for internal logging
	InternalMsg string

	// Err is the underlying cause, if any
	Err error
}

// Error implements the error interface
func (e *FmgError) Error() string {
	if e.Operation == "" {
		return fmt.Sprintf("fmg: %s", e.Message)
	}
	return fmt.Sprintf("fmg: %s failed: %s", e.Operation, e.Message)
}

// DetailedError returns the full error message including internal details
//
// This should only be used in secure logging contexts where sensitive information
// disclosure is acceptable (e.g., debug output).
func (e *FmgError) DetailedError() string {
	if e.InternalMsg == "" {
		return e.Error()
	}
	return fmt.Sprintf("%s (internal: %s)", e.Error(), e.InternalMsg)
}

// Unwrap returns the underlying cause
func (e *FmgError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the ErrorKind of this error.
//
// Example:
//
//	if errors.Is(err, fmg.KindSessionInvalid) {
//	    // credentials rejected
//	}
func (e *FmgError) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == e.Kind
}

// Error lets an ErrorKind be used as an errors.Is target
func (k ErrorKind) Error() string {
	return k.String()
}

// Credential errors returned by NewCredentials and NewClient
var (
	ErrMissingHost   = &FmgError{Kind: KindConfig, Message: "FortiManager host/IP address is required"}
	ErrMissingSecret = &FmgError{Kind: KindConfig, Message: "Either API key or password is required"}
)

// newError builds an FmgError for an operation
func newError(kind ErrorKind, op, msg string, cause error) *FmgError {
	e := &FmgError{
		Kind:      kind,
		Operation: op,
		Message:   msg,
		Err:       cause,
	}
	if cause != nil {
		e.InternalMsg = cause.Error()
	}
	return e
}

// KindOf returns the kind of err.
//
// Errors that are not FmgErrors are inspected for transport failures; anything
// else is KindUnexpected.
func KindOf(err error) ErrorKind {
	var fe *FmgError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	if isConnectionError(err) {
		return KindConnectionFailure
	}
	return KindUnexpected
}

// isConnectionError reports whether err came from the network layer: a
// failed dial or read, a DNS failure, a connection dropped mid-response or a
// timeout.
//
// Context cancellation is not a connection error: it is the caller giving up.
// Certificate verification failures are not either; the peer was reached.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
