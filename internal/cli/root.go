// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Package cli implements the fmg command: flag parsing, config resolution,
// one JSON-RPC call and the printed result.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/netascode/go-fmg"
	"github.com/netascode/go-fmg/internal/config"
)

const examples = `  # Get all firewall address objects from the 'root' ADOM
  fmg -i 10.0.0.1 -p secret -m get -e /pm/config/adom/root/obj/firewall/address

  # Only the name and subnet, as a table
  fmg -c fmg.ini -m get -e /pm/config/adom/root/obj/firewall/address -q 'fields=["name","subnet"]' --format table

  # Add a new firewall address to the 'root' ADOM
  fmg -c fmg.ini -m add -e /pm/config/adom/root/obj/firewall/address -d '{"name": "new-address", "subnet": "10.0.0.0/24"}'

  # Update (set) an existing firewall address in the Global scope
  fmg -c fmg.ini -m set -e /pm/config/global/obj/firewall/address/existing-address -d '{"subnet": "10.1.1.1/32"}'

  # Delete a firewall address object
  fmg -c fmg.ini -m delete -e /pm/config/adom/root/obj/firewall/address/old-address

  # Execute a script on a device
  fmg -c fmg.json -m exec -e /dvmdb/adom/root/script/execute -d '{"adom": "root", "scope": [{"name": "MyDevice", "vdom": "root"}], "script": "MyTestScript"}'`

const configHelp = `
Configuration file format (INI):
  [fortimanager]
  host = 10.0.0.1
  username = admin
  password = your_password

Configuration file format (JSON):
  {"fortimanager": {"host": "10.0.0.1", "username": "admin", "apikey": "your_api_key"}}

FMG_HOST, FMG_USERNAME, FMG_PASSWORD and FMG_APIKEY override the file.`

// Options holds the parsed command-line flags
type Options struct {
	ConfigFile string
	Host       string
	Username   string
	Password   string
	APIKey     string

	Method   string
	Endpoint string
	Data     string
	Query    []string

	NoSSL       bool
	VerifySSL   bool
	SSLWarnings bool
	Timeout     int
	Debug       bool
	Format      string

	TableMaxWidth  int
	TableMaxFields int
}

// exitError carries the exit code out of RunE. The message, if any, has
// already been printed.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// NewCommand returns the fmg root command writing to out and errOut
func NewCommand(out, errOut io.Writer) *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:   "fmg",
		Short: "FortiManager API client",
		Long: `Simple command-line client for the FortiManager JSON-RPC API.

Each invocation logs in, performs one request and logs out again. With an
API key no login or logout is needed.` + "\n" + configHelp,
		Example:       examples,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			code := run(cmd.Context(), cmd, opts, out, errOut)
			if code != ExitOK {
				return &exitError{code: code}
			}
			return nil
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	flags := cmd.Flags()
	flags.SortFlags = false

	flags.StringVarP(&opts.ConfigFile, "config", "c", "", "configuration file path (INI or JSON format)")
	flags.StringVarP(&opts.Host, "host", "i", "", "FortiManager IP address or hostname")
	flags.StringVar(&opts.Host, "ip", "", "alias of --host")
	flags.StringVarP(&opts.Username, "username", "u", fmg.DefaultUsername, "username")
	flags.StringVarP(&opts.Password, "password", "p", "", "password for authentication")
	flags.StringVarP(&opts.APIKey, "apikey", "k", "", "API key for authentication")

	flags.StringVarP(&opts.Method, "method", "m", "", "API method to use ("+verbList()+")")
	flags.StringVarP(&opts.Endpoint, "endpoint", "e", "", "API endpoint path (e.g. /pm/config/adom/root/obj/firewall/address)")
	flags.StringVarP(&opts.Data, "data", "d", "", "request data as a JSON object")
	flags.StringArrayVarP(&opts.Query, "query", "q", nil, "query parameter, key=value or a JSON object (repeatable)")

	flags.BoolVar(&opts.NoSSL, "no-ssl", false, "use HTTP instead of HTTPS")
	flags.BoolVar(&opts.VerifySSL, "verify-ssl", false, "verify SSL certificates")
	flags.BoolVar(&opts.SSLWarnings, "ssl-warnings", false, "warn when certificate verification is disabled")
	flags.IntVar(&opts.Timeout, "timeout", int(fmg.DefaultTimeout/time.Second), "request timeout in seconds")
	flags.BoolVar(&opts.Debug, "debug", false, "enable debug logging of requests and responses")
	flags.StringVar(&opts.Format, "format", fmg.FormatJSON, "output format ("+strings.Join(fmg.ValidFormats, ", ")+")")

	flags.IntVar(&opts.TableMaxWidth, "table-max-width", fmg.DefaultTableMaxWidth, "maximum width of a table cell")
	flags.IntVar(&opts.TableMaxFields, "table-max-fields", fmg.DefaultTableMaxFields, "maximum number of table columns, 0 for unlimited")

	_ = cmd.MarkFlagRequired("method")
	_ = cmd.MarkFlagRequired("endpoint")

	return cmd
}

// Execute runs the fmg command with args and returns the process exit code
func Execute(ctx context.Context, args []string, out, errOut io.Writer) int {
	cmd := NewCommand(out, errOut)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}

	// flag and argument errors from cobra
	printError(errOut, "%v", err)
	fmt.Fprintf(errOut, "Run '%s --help' for usage.\n", cmd.CommandPath())
	return ExitFailure
}

func run(ctx context.Context, cmd *cobra.Command, opts *Options, out, errOut io.Writer) int {
	if err := fmg.ValidateFormat(opts.Format); err != nil {
		printError(errOut, "%v", err)
		return ExitFailure
	}

	var settings config.Settings
	if opts.ConfigFile != "" {
		s, err := config.Load(opts.ConfigFile)
		if err != nil {
			fmt.Fprintln(errOut, colorize(errOut, text.FgRed, "Error loading configuration: "+message(err)))
			return ExitFailure
		}
		settings = s
	}
	settings = config.FromEnv(settings)

	resolved := resolve(cmd, opts, settings)
	creds, err := fmg.NewCredentials(resolved.host, resolved.username, resolved.password, resolved.apiKey)
	if err != nil {
		printError(errOut, "%s", message(err))
		return ExitFailure
	}

	logger := NewZapLogger(newLogger(errOut, opts.Debug))
	defer logger.Sync() //nolint:errcheck // stderr sync fails on some terminals

	client, err := fmg.NewClient(creds.Host,
		fmg.WithCredentials(creds),
		fmg.TLS(resolved.useTLS),
		fmg.VerifyCertificate(resolved.verify),
		fmg.Timeout(resolved.timeout),
		fmg.Debug(opts.Debug),
		fmg.WithLogger(logger),
		fmg.WithPrettyPrintLogs(opts.Debug),
	)
	if err != nil {
		printError(errOut, "%s", message(err))
		return ExitFailure
	}

	if opts.SSLWarnings && resolved.useTLS && !resolved.verify {
		printWarning(errOut, "certificate verification is disabled for %s", creds.Host)
	}

	req := fmg.Request{
		Verb:   fmg.Verb(strings.ToLower(strings.TrimSpace(opts.Method))),
		URL:    opts.Endpoint,
		Body:   opts.Data,
		Params: opts.Query,
	}

	res, err := client.Do(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(errOut, "\nOperation cancelled by user")
			return ExitInterrupted
		}
		printError(errOut, "%s", message(err))
		return ExitFailure
	}

	writeResult(out, errOut, res, opts.Format, fmg.TableOptions{
		MaxFields: opts.TableMaxFields,
		MaxWidth:  opts.TableMaxWidth,
	})

	code, warning := ExitCodeFor(res.Status)
	if warning != "" {
		printWarning(errOut, "%s", warning)
	}
	return code
}

// resolved are the connection settings after applying precedence
type resolved struct {
	host     string
	username string
	password string
	apiKey   string
	useTLS   bool
	verify   bool
	timeout  time.Duration
}

// resolve applies flag > config file > default to every connection setting
func resolve(cmd *cobra.Command, opts *Options, s config.Settings) resolved {
	flags := cmd.Flags()
	r := resolved{
		host:     firstNonEmpty(opts.Host, s.Address()),
		username: opts.Username,
		password: firstNonEmpty(opts.Password, s.Password),
		apiKey:   firstNonEmpty(opts.APIKey, s.APIKey),
		useTLS:   fmg.DefaultUseTLS,
		verify:   opts.VerifySSL,
		timeout:  time.Duration(opts.Timeout) * time.Second,
	}

	if !flags.Changed("username") && s.Username != "" {
		r.username = s.Username
	}
	switch {
	case opts.NoSSL:
		r.useTLS = false
	case s.UseSSL != nil:
		r.useTLS = *s.UseSSL
	}
	if !flags.Changed("verify-ssl") && s.VerifySSL != nil {
		r.verify = *s.VerifySSL
	}
	if !flags.Changed("timeout") && s.Timeout != nil {
		r.timeout = time.Duration(*s.Timeout) * time.Second
	}
	return r
}

// message returns the user-facing part of err
func message(err error) string {
	var fe *fmg.FmgError
	if errors.As(err, &fe) {
		return fe.Message
	}
	return err.Error()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func verbList() string {
	names := make([]string, len(fmg.Verbs))
	for i, v := range fmg.Verbs {
		names[i] = string(v)
	}
	return strings.Join(names, ", ")
}
