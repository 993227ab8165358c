// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/netascode/go-fmg"
)

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name    string
		status  fmg.Status
		code    int
		warning string
	}{
		{"zero", fmg.IntStatus(0), ExitOK, ""},
		{"positive below 400", fmg.IntStatus(200), ExitOK, ""},
		{"http error", fmg.IntStatus(404), ExitHTTPError, ""},
		{"server error", fmg.IntStatus(500), ExitHTTPError, ""},
		{"connection failed", fmg.IntStatus(fmg.StatusConnectionFailed), ExitFailure, ""},
		{"unsupported method", fmg.IntStatus(fmg.StatusUnsupportedMethod), ExitFailure, ""},
		{"device negative code", fmg.IntStatus(-6), ExitFailure, ""},
		{"success string", fmg.TextStatus("success"), ExitOK, ""},
		{"ok string any case", fmg.TextStatus("OK"), ExitOK, ""},
		{"other string", fmg.TextStatus("pending"), ExitFailure, "Unexpected status code: pending"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, warning := ExitCodeFor(tt.status)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.warning, warning)
		})
	}
}

func TestWriteResult_JSON(t *testing.T) {
	var out, errOut bytes.Buffer
	res := fmg.Result{Status: fmg.IntStatus(0), Payload: `[ {"name": "a"} ]`, Remote: true}

	writeResult(&out, &errOut, res, fmg.FormatJSON, fmg.DefaultTableOptions())

	assert.Equal(t, "Status Code: 0\nResponse: [{\"name\":\"a\"}]\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestWriteResult_Pretty(t *testing.T) {
	var out, errOut bytes.Buffer
	res := fmg.Result{Status: fmg.IntStatus(0), Payload: `{"name":"a"}`, Remote: true}

	writeResult(&out, &errOut, res, fmg.FormatPretty, fmg.DefaultTableOptions())

	assert.Equal(t, "Status Code: 0\nResponse:\n{\n  \"name\": \"a\"\n}\n", out.String())
}

func TestWriteResult_Table(t *testing.T) {
	var out, errOut bytes.Buffer
	res := fmg.Result{
		Status:  fmg.IntStatus(0),
		Payload: `[{"name":"srv1","subnet":"10.0.0.1/32"}]`,
		Remote:  true,
	}

	writeResult(&out, &errOut, res, fmg.FormatTable, fmg.DefaultTableOptions())

	assert.Contains(t, out.String(), "Status Code: 0\n")
	assert.Contains(t, out.String(), "| srv1 | 10.0.0.1/32 |")
	assert.NotContains(t, out.String(), "Response:")
	assert.Empty(t, errOut.String())
}

func TestWriteResult_TableFallback(t *testing.T) {
	var out, errOut bytes.Buffer
	res := fmg.Result{Status: fmg.IntStatus(0), Payload: `[{"name":"a"}, 2]`, Remote: true}

	writeResult(&out, &errOut, res, fmg.FormatTable, fmg.DefaultTableOptions())

	assert.Contains(t, errOut.String(), "Error formatting table: ")
	assert.Contains(t, out.String(), "Falling back to JSON output:\n")
	assert.Contains(t, out.String(), `"name": "a"`)
}

func TestWriteResult_TableScalarList(t *testing.T) {
	var out, errOut bytes.Buffer
	res := fmg.Result{Status: fmg.IntStatus(0), Payload: `["root","global"]`, Remote: true}

	writeResult(&out, &errOut, res, fmg.FormatTable, fmg.DefaultTableOptions())

	assert.Equal(t, "Status Code: 0\n"+fmg.NoFieldsMessage+"\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestWriteResult_ClientFailure(t *testing.T) {
	var out, errOut bytes.Buffer
	res := fmg.ErrorResult(&fmg.FmgError{Kind: fmg.KindUnsupportedMethod, Message: "Method patch not supported"})

	writeResult(&out, &errOut, res, fmg.FormatJSON, fmg.DefaultTableOptions())

	assert.Contains(t, out.String(), "Status Code: -5\n")
	assert.Contains(t, out.String(), `"error":"Unsupported method"`)
}

func TestPrintHelpers_NoColorOnBuffers(t *testing.T) {
	var buf bytes.Buffer
	printError(&buf, "bad %s", "thing")
	printWarning(&buf, "careful")

	assert.Equal(t, "Error: bad thing\nWarning: careful\n", buf.String())
}
