// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package fmg

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/tidwall/gjson"
)

// Default client configuration values
const (
	DefaultUsername          = "admin"
	DefaultTimeout           = 300 * time.Second
	DefaultLogoutTimeout     = 10 * time.Second
	DefaultUseTLS            = true
	DefaultVerifyCertificate = false
	DefaultPrettyPrintLogs   = false

	// JSONRPCPath is the API endpoint path on the device
	JSONRPCPath = "/jsonrpc"
)

// Security limits for JSON processing and logging
const (
	MaxJSONSizeForLogging = 1 * 1024 * 1024
	MaxResponseSize       = 256 * 1024 * 1024
)

// JSONTooLargeMessage replaces JSON documents too large to redact and log
const JSONTooLargeMessage = "[JSON TOO LARGE FOR LOGGING]"

// defaultRedactionPatterns match sensitive JSON string fields in envelopes and responses
var defaultRedactionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"(passwd|password|apikey|api_key|session|token|secret)"\s*:\s*"[^"]*"`),
	regexp.MustCompile(`"(passwd|password|secret)"\s*:\s*\[[^\]]*\]`),
}

// Credentials identify the device and the user.
//
// Exactly one secret is needed; when both are set the API key wins.
type Credentials struct {
	Host     string
	Username string
	Password string
	APIKey   string
}

// NewCredentials validates and returns credentials.
//
// Username defaults to "admin". It fails with ErrMissingHost when host is
// empty and ErrMissingSecret when neither password nor API key is set.
func NewCredentials(host, username, password, apiKey string) (Credentials, error) {
	if username == "" {
		username = DefaultUsername
	}
	creds := Credentials{
		Host:     strings.TrimSpace(host),
		Username: username,
		Password: password,
		APIKey:   apiKey,
	}
	if err := creds.validate(); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

func (c Credentials) validate() error {
	if c.Host == "" {
		return ErrMissingHost
	}
	if c.Password == "" && c.APIKey == "" {
		return ErrMissingSecret
	}
	return nil
}

// UsesAPIKey reports whether token (API key) authentication is used
func (c Credentials) UsesAPIKey() bool {
	return c.APIKey != ""
}

// Client is a FortiManager JSON-RPC client.
//
// A Client holds configuration only; each call opens its own session (see
// Open and WithSession) and releases it before returning.
type Client struct {
	// Host is the device address, optionally with port or scheme
	Host string

	creds Credentials

	// Transport options
	UseTLS            bool
	VerifyCertificate bool
	Timeout           time.Duration
	LogoutTimeout     time.Duration
	Debug             bool

	httpClient *http.Client
	endpoint   string

	// nextID is the last JSON-RPC request id handed out
	nextID atomic.Uint64

	// Logging configuration
	logger            Logger
	customLogger      bool
	prettyPrintLogs   bool
	redactionPatterns []*regexp.Regexp
}

// NewClient creates a new FortiManager client for host.
//
// No network activity happens here; the connection is made by the first call.
//
// Example:
//
//	client, err := fmg.NewClient("10.0.0.1",
//	    fmg.Username("admin"),
//	    fmg.Password("secret"),
//	    fmg.VerifyCertificate(false),
//	)
//	if err != nil {
//	    log.Fatal(err) // configuration error
//	}
//
//	res, err := client.Get(ctx, "/pm/config/adom/root/obj/firewall/address")
func NewClient(host string, opts ...func(*Client)) (*Client, error) {
	client := &Client{
		Host:              strings.TrimSpace(host),
		creds:             Credentials{Username: DefaultUsername},
		UseTLS:            DefaultUseTLS,
		VerifyCertificate: DefaultVerifyCertificate,
		Timeout:           DefaultTimeout,
		LogoutTimeout:     DefaultLogoutTimeout,
		logger:            &NoOpLogger{},
		prettyPrintLogs:   DefaultPrettyPrintLogs,
		redactionPatterns: defaultRedactionPatterns,
	}

	for _, opt := range opts {
		opt(client)
	}
	client.creds.Host = client.Host

	if client.Debug && !client.customLogger {
		client.logger = NewDefaultLogger(LogLevelDebug)
	}

	if err := client.validateConfig(); err != nil {
		return nil, err
	}

	client.endpoint = client.buildEndpoint()
	if client.httpClient == nil {
		client.httpClient = client.newHTTPClient()
	}

	client.logger.Info(context.Background(), "FortiManager client created",
		"host", client.Host,
		"endpoint", client.endpoint,
		"auth", client.authMode())

	return client, nil
}

// Endpoint returns the full URL of the JSON-RPC endpoint
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Username returns the configured username
func (c *Client) Username() string {
	return c.creds.Username
}

// HasCredentials returns true if a password or API key is configured
func (c *Client) HasCredentials() bool {
	return c.creds.Password != "" || c.creds.APIKey != ""
}

func (c *Client) authMode() string {
	if c.creds.UsesAPIKey() {
		return "apikey"
	}
	return "session"
}

// validateConfig validates client configuration before first use
func (c *Client) validateConfig() error {
	if err := c.creds.validate(); err != nil {
		return err
	}
	if c.Timeout <= 0 {
		return newError(KindConfig, "", fmt.Sprintf("timeout must be positive, got: %v", c.Timeout), nil)
	}
	if c.LogoutTimeout <= 0 {
		c.LogoutTimeout = DefaultLogoutTimeout
	}

	if c.UseTLS && !c.VerifyCertificate {
		c.logger.Debug(context.Background(), "TLS certificate verification disabled",
			"host", c.Host)
	}
	if !c.UseTLS {
		c.logger.Warn(context.Background(), "TLS disabled - connection is not encrypted",
			"host", c.Host,
			"security_risk", "Credentials and session tokens transmitted in clear text")
	}
	return nil
}

// buildEndpoint returns scheme://host/jsonrpc, keeping an explicit scheme
func (c *Client) buildEndpoint() string {
	host := strings.TrimRight(c.Host, "/")
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host + JSONRPCPath
	}
	scheme := "https"
	if !c.UseTLS {
		scheme = "http"
	}
	return scheme + "://" + host + JSONRPCPath
}

func (c *Client) newHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		//nolint:gosec // G402: verification is an explicit user choice
		InsecureSkipVerify: !c.VerifyCertificate,
	}
	transport.TLSHandshakeTimeout = c.Timeout
	transport.ResponseHeaderTimeout = c.Timeout
	return &http.Client{
		Transport: transport,
		Timeout:   c.Timeout,
	}
}

// requestID returns the next JSON-RPC request id
func (c *Client) requestID() uint64 {
	return c.nextID.Add(1)
}

// post sends one envelope and returns the raw response body.
//
// Transport failures are KindConnectionFailure, HTTP 401/403 are
// KindSessionInvalid and other non-2xx statuses without a JSON body are
// KindRemoteAPI. Context cancellation is returned unwrapped so the caller can
// tell an interrupt from a timeout.
func (c *Client) post(ctx context.Context, op string, env Envelope) ([]byte, error) {
	payload, err := json.Marshal(env)
	if err != nil {
		return nil, newError(KindUnexpected, op, "failed to encode request", err)
	}

	c.logger.Debug(ctx, "FortiManager request",
		"operation", op,
		"id", env.ID,
		"method", env.Method,
		"body", c.prepareJSONForLogging(string(payload)))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, newError(KindUnexpected, op, "failed to create HTTP request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.creds.UsesAPIKey() {
		httpReq.Header.Set("Authorization", "Bearer "+c.creds.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Error(ctx, "FortiManager request failed",
			"operation", op,
			"host", c.Host,
			"error", err.Error())
		if isConnectionError(err) {
			return nil, newError(KindConnectionFailure, op, "could not reach "+c.Host, err)
		}
		if isCertificateError(err) {
			return nil, newError(KindUnexpected, op, "certificate verification failed for "+c.Host, err)
		}
		return nil, newError(KindUnexpected, op, "request failed", err)
	}
	defer resp.Body.Close() //nolint:errcheck // body is fully read below

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, newError(KindConnectionFailure, op, "failed to read response", err)
	}

	c.logger.Debug(ctx, "FortiManager response",
		"operation", op,
		"id", env.ID,
		"http_status", resp.StatusCode,
		"body", c.prepareJSONForLogging(string(body)))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, newError(KindSessionInvalid, op,
			fmt.Sprintf("device rejected credentials (HTTP %d)", resp.StatusCode), nil)
	case (resp.StatusCode < 200 || resp.StatusCode > 299) && !hasResultStatus(body):
		return nil, newError(KindRemoteAPI, op,
			fmt.Sprintf("unexpected HTTP status %d", resp.StatusCode), nil)
	}

	return body, nil
}

// hasResultStatus reports whether body is a JSON-RPC response carrying a status
func hasResultStatus(body []byte) bool {
	return gjson.ValidBytes(body) && gjson.GetBytes(body, "result.0.status.code").Exists()
}

// prepareJSONForLogging redacts sensitive data and formats JSON for logging
func (c *Client) prepareJSONForLogging(jsonStr string) string {
	if len(jsonStr) > MaxJSONSizeForLogging {
		return JSONTooLargeMessage
	}

	redacted := c.redactSensitiveData(jsonStr)

	if c.prettyPrintLogs {
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(redacted), "", "  "); err == nil {
			return buf.String()
		}
	}
	return redacted
}

// redactSensitiveData replaces the values of sensitive JSON fields with [REDACTED]
func (c *Client) redactSensitiveData(s string) string {
	result := s
	for _, pattern := range c.redactionPatterns {
		result = pattern.ReplaceAllString(result, `"$1":"[REDACTED]"`)
	}
	return result
}

// isCertificateError reports whether err is a rejected server certificate
func isCertificateError(err error) bool {
	var verifyErr *tls.CertificateVerificationError
	var authorityErr x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError
	return errors.As(err, &verifyErr) || errors.As(err, &authorityErr) || errors.As(err, &hostnameErr)
}
