// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package fmg

import (
	"net/http"
	"time"
)

// Client configuration options using the functional options pattern

// Username sets the username for authentication (default: admin)
func Username(username string) func(*Client) {
	return func(c *Client) {
		c.creds.Username = username
	}
}

// Password sets the password for session-based authentication
func Password(password string) func(*Client) {
	return func(c *Client) {
		c.creds.Password = password
	}
}

// APIKey sets the API key for token authentication.
//
// When an API key is set it takes precedence over a password: no login or
// logout call is made and the key is sent as a bearer token.
func APIKey(key string) func(*Client) {
	return func(c *Client) {
		c.creds.APIKey = key
	}
}

// WithCredentials sets username, password and API key from a Credentials value
func WithCredentials(creds Credentials) func(*Client) {
	return func(c *Client) {
		if creds.Username != "" {
			c.creds.Username = creds.Username
		}
		c.creds.Password = creds.Password
		c.creds.APIKey = creds.APIKey
	}
}

// TLS enables or disables HTTPS (default: true)
//
// WARNING: Disabling TLS sends credentials and session tokens in clear text.
func TLS(enabled bool) func(*Client) {
	return func(c *Client) {
		c.UseTLS = enabled
	}
}

// VerifyCertificate enables or disables TLS certificate verification (default: false)
//
// FortiManager appliances ship with self-signed certificates, so verification
// is off unless requested.
func VerifyCertificate(verify bool) func(*Client) {
	return func(c *Client) {
		c.VerifyCertificate = verify
	}
}

// Timeout sets the connect and request timeout (default: 300s)
func Timeout(duration time.Duration) func(*Client) {
	return func(c *Client) {
		c.Timeout = duration
	}
}

// Debug enables debug logging of requests and responses.
//
// If no logger was configured, a DefaultLogger at debug level is installed.
// Sensitive fields are redacted before logging.
func Debug(enabled bool) func(*Client) {
	return func(c *Client) {
		c.Debug = enabled
	}
}

// WithLogger configures a custom logger for the client
//
// By default, the client uses NoOpLogger which discards all log messages.
func WithLogger(logger Logger) func(*Client) {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
			c.customLogger = true
		}
	}
}

// WithPrettyPrintLogs enables/disables JSON pretty printing in debug logs
func WithPrettyPrintLogs(enabled bool) func(*Client) {
	return func(c *Client) {
		c.prettyPrintLogs = enabled
	}
}

// WithHTTPClient replaces the HTTP client used for the transport.
//
// TLS and timeout options are not applied to a caller-supplied client.
func WithHTTPClient(hc *http.Client) func(*Client) {
	return func(c *Client) {
		c.httpClient = hc
	}
}
