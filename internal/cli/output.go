// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/netascode/go-fmg"
)

// Process exit codes
const (
	// ExitOK is a successful call
	ExitOK = 0

	// ExitFailure covers configuration and validation errors, client-side
	// failures (negative status) and unexpected string statuses
	ExitFailure = 1

	// ExitHTTPError is an integer status of 400 or above
	ExitHTTPError = 2

	// ExitInterrupted is a call cancelled by SIGINT or SIGTERM
	ExitInterrupted = 130
)

// ExitCodeFor maps a result status to the process exit code.
//
// The returned message is a warning to print for string statuses other than
// "success" and "ok", empty otherwise.
func ExitCodeFor(status fmg.Status) (int, string) {
	if code, ok := status.Int(); ok {
		switch {
		case code < 0:
			return ExitFailure, ""
		case code >= 400:
			return ExitHTTPError, ""
		default:
			return ExitOK, ""
		}
	}

	switch strings.ToLower(status.String()) {
	case "success", "ok":
		return ExitOK, ""
	}
	return ExitFailure, fmt.Sprintf("Unexpected status code: %s", status)
}

// writeResult prints the status line and the payload in the chosen format.
//
// A payload the table renderer refuses is reported on errOut and printed as
// indented JSON instead.
func writeResult(out, errOut io.Writer, res fmg.Result, format string, opts fmg.TableOptions) {
	fmt.Fprintf(out, "Status Code: %s\n", res.Status)

	switch format {
	case fmg.FormatTable:
		rendered, err := fmg.FormatPayload(res, format, opts)
		if err != nil {
			fmt.Fprintf(errOut, "%s\n", colorize(errOut, text.FgRed, "Error formatting table: "+err.Error()))
			fmt.Fprintln(out, "Falling back to JSON output:")
			fmt.Fprintln(out, res.PrettyJSON())
			return
		}
		fmt.Fprintln(out, rendered)
	case fmg.FormatPretty:
		fmt.Fprintln(out, "Response:")
		fmt.Fprintln(out, res.PrettyJSON())
	default:
		fmt.Fprintf(out, "Response: %s\n", res.JSON())
	}
}

func printError(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, colorize(w, text.FgRed, "Error: "+fmt.Sprintf(format, args...)))
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, colorize(w, text.FgYellow, "Warning: "+fmt.Sprintf(format, args...)))
}

// colorize wraps s in c only when w is a terminal
func colorize(w io.Writer, c text.Color, s string) string {
	f, ok := w.(*os.File)
	if !ok {
		return s
	}
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return c.Sprint(s)
	}
	return s
}
