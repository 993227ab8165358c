// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package fmg

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/tidwall/gjson"
)

// Table rendering defaults and messages
const (
	DefaultTableMaxFields = 6
	DefaultTableMaxWidth  = 50

	// columnSampleSize is how many rows are inspected to infer columns
	columnSampleSize = 10

	NoDataMessage   = "No data to display in table format"
	NoFieldsMessage = "No suitable fields found for table display"
	ellipsis        = "..."
	missingCell     = "-"
)

// listKeys are looked up in order to find the rows inside a mapping
var listKeys = []string{"results", "data", "items"}

// RenderError reports a value the table renderer cannot lay out
type RenderError struct {
	Reason string
}

func (e *RenderError) Error() string {
	return "fmg: table rendering failed: " + e.Reason
}

// gridStyle is an ASCII grid with a line between every row, "=" under the
// header and headers kept as-is
var gridStyle = func() table.Style {
	s := table.StyleDefault
	s.Name = "FmgGrid"
	h := table.NewBoxStyleHorizontal("-")
	h.HeaderBottom = "="
	s.Box.Horizontal = h
	s.Format.Header = text.FormatDefault
	s.Format.Footer = text.FormatDefault
	s.Options.SeparateRows = true
	return s
}()

// RenderTable lays out an arbitrary JSON value as a grid.
//
// Rows come from the first non-empty "results", "data" or "items" member of a
// mapping (a single mapping there is one row), else the mapping itself is one
// row; a list is used directly. Columns are the keys seen most often in the
// first 10 rows, ties broken by first appearance, capped at maxFields
// (0 = unlimited). Cells are flattened with FlattenValue and cut to maxWidth
// runes including a "..." marker (0 = no limit).
//
// Shapes that cannot be tabulated, including lists without any mapping rows,
// return a descriptive message and no error. A RenderError is returned for
// invalid JSON or for a list that mixes mappings with other values.
//
// Example:
//
//	out, err := fmg.RenderTable(res.Payload, 6, 50)
//	// 1 result(s) found
//	// +------+-------------+
//	// | name | subnet      |
//	// +======+=============+
//	// | a    | 10.0.0.0/24 |
//	// +------+-------------+
func RenderTable(value string, maxFields, maxWidth int) (string, error) {
	if !gjson.Valid(value) {
		return "", &RenderError{Reason: "value is not valid JSON"}
	}

	rows, ok := extractRows(gjson.Parse(value))
	if !ok {
		return fmt.Sprintf("Table format not supported for response type: %s", typeName(gjson.Parse(value))), nil
	}
	if len(rows) == 0 {
		return NoDataMessage, nil
	}

	columns := inferColumns(rows, maxFields)
	if len(columns) == 0 {
		return NoFieldsMessage, nil
	}
	for i, row := range rows {
		if !row.IsObject() {
			return "", &RenderError{Reason: fmt.Sprintf("row %d is a %s, not a mapping", i, typeName(row))}
		}
	}

	t := table.NewWriter()
	t.SetStyle(gridStyle)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		header[i] = col
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       text.AlignLeft,
			AlignHeader: text.AlignLeft,
		}
	}
	t.AppendHeader(header)
	t.SetColumnConfigs(configs)

	for _, row := range rows {
		fields := make(map[string]gjson.Result)
		row.ForEach(func(k, v gjson.Result) bool {
			if _, dup := fields[k.String()]; !dup {
				fields[k.String()] = v
			}
			return true
		})
		cells := make(table.Row, len(columns))
		for j, col := range columns {
			s := missingCell
			if cell, ok := fields[col]; ok {
				s = FlattenValue(cell)
			}
			cells[j] = truncateCell(s, maxWidth)
		}
		t.AppendRow(cells)
	}

	return fmt.Sprintf("%d result(s) found\n%s", len(rows), t.Render()), nil
}

// extractRows finds the list of rows in v.
//
// It returns false for scalars, which have no tabular form.
func extractRows(v gjson.Result) ([]gjson.Result, bool) {
	switch {
	case v.IsArray():
		return v.Array(), true
	case v.IsObject():
		for _, key := range listKeys {
			candidate := v.Get(key)
			if !truthy(candidate) {
				continue
			}
			switch {
			case candidate.IsArray():
				return candidate.Array(), true
			case candidate.IsObject():
				return []gjson.Result{candidate}, true
			}
			// The first set key decides, even when it holds a scalar
			break
		}
		return []gjson.Result{v}, true
	default:
		return nil, false
	}
}

// inferColumns ranks the keys of the sampled mapping rows by how many rows
// contain them. The sort is stable over first-seen order so equal counts keep
// their document order.
func inferColumns(rows []gjson.Result, maxFields int) []string {
	sample := rows
	if len(sample) > columnSampleSize {
		sample = sample[:columnSampleSize]
	}

	counts := make(map[string]int)
	var order []string
	for _, row := range sample {
		if !row.IsObject() {
			continue
		}
		row.ForEach(func(k, _ gjson.Result) bool {
			key := k.String()
			if _, seen := counts[key]; !seen {
				order = append(order, key)
			}
			counts[key]++
			return true
		})
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if maxFields > 0 && len(order) > maxFields {
		order = order[:maxFields]
	}
	return order
}

// FlattenValue renders one JSON value as a table cell.
//
//   - null or an empty list → "-"
//   - a list of mappings that all have "name" → the names joined by ", "
//   - any other list → its elements' string forms joined by ", "
//   - a mapping with "name" → that name
//   - a mapping with a single entry → that entry's value
//   - any other mapping, including an empty one → its compact JSON
//   - a string → the string itself; other scalars → their JSON text
func FlattenValue(v gjson.Result) string {
	switch {
	case !v.Exists() || v.Type == gjson.Null:
		return missingCell
	case v.IsArray():
		items := v.Array()
		if len(items) == 0 {
			return missingCell
		}
		if allNamed(items) {
			names := make([]string, len(items))
			for i, item := range items {
				names[i] = scalarString(item.Get("name"))
			}
			return strings.Join(names, ", ")
		}
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = scalarString(item)
		}
		return strings.Join(parts, ", ")
	case v.IsObject():
		if name := v.Get("name"); name.Exists() {
			return scalarString(name)
		}
		var entries []gjson.Result
		v.ForEach(func(_, val gjson.Result) bool {
			entries = append(entries, val)
			return len(entries) < 2
		})
		if len(entries) == 1 {
			return scalarString(entries[0])
		}
		return compactJSON(v.Raw)
	default:
		return scalarString(v)
	}
}

func allNamed(items []gjson.Result) bool {
	for _, item := range items {
		if !item.IsObject() || !item.Get("name").Exists() {
			return false
		}
	}
	return true
}

// scalarString is the plain string form of a value: strings unquoted,
// everything else as compact JSON
func scalarString(v gjson.Result) string {
	if v.Type == gjson.String {
		return v.Str
	}
	if !v.Exists() {
		return ""
	}
	return compactJSON(v.Raw)
}

func compactJSON(raw string) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(raw)); err != nil {
		return raw
	}
	return buf.String()
}

// truncateCell cuts s to maxWidth runes, the last three being "..."
func truncateCell(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxWidth {
		return s
	}
	keep := maxWidth - len(ellipsis)
	if keep < 0 {
		keep = 0
	}
	return string(runes[:keep]) + ellipsis
}

func typeName(v gjson.Result) string {
	switch {
	case v.IsArray():
		return "list"
	case v.IsObject():
		return "mapping"
	}
	switch v.Type {
	case gjson.Null:
		return "null"
	case gjson.False, gjson.True:
		return "boolean"
	case gjson.Number:
		return "number"
	case gjson.String:
		return "string"
	default:
		return "unknown"
	}
}
