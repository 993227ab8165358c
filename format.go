// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package fmg

import "fmt"

// Output format constants
const (
	// FormatJSON prints the payload as compact JSON (default)
	FormatJSON = "json"

	// FormatPretty prints the payload as indented JSON
	FormatPretty = "pretty"

	// FormatTable prints the payload as a grid (see RenderTable)
	FormatTable = "table"
)

// ValidFormats contains the list of valid output format values
var ValidFormats = []string{
	FormatJSON,
	FormatPretty,
	FormatTable,
}

// ValidateFormat checks if the output format is valid
func ValidateFormat(format string) error {
	for _, valid := range ValidFormats {
		if format == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid format: %s (valid values: json, pretty, table)", format)
}

// TableOptions bounds the table output
type TableOptions struct {
	// MaxFields caps the number of columns (0 = unlimited)
	MaxFields int

	// MaxWidth caps the width of a cell in runes (0 = unlimited)
	MaxWidth int
}

// DefaultTableOptions returns the default table bounds (6 columns, 50 runes)
func DefaultTableOptions() TableOptions {
	return TableOptions{
		MaxFields: DefaultTableMaxFields,
		MaxWidth:  DefaultTableMaxWidth,
	}
}

// FormatPayload renders a result payload in the given format.
//
// For FormatTable a *RenderError is returned when the payload cannot be laid
// out; callers usually fall back to FormatPretty.
func FormatPayload(res Result, format string, opts TableOptions) (string, error) {
	switch format {
	case FormatJSON:
		return res.JSON(), nil
	case FormatPretty:
		return res.PrettyJSON(), nil
	case FormatTable:
		return RenderTable(res.Payload, opts.MaxFields, opts.MaxWidth)
	default:
		return "", ValidateFormat(format)
	}
}
