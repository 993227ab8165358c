// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package fmg

import (
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"
)

// Classify turns the outcome of one call into a Result.
//
// When err is nil, resp must be a JSON-RPC response body; the status of the
// first result is passed through unchanged and the payload is its data, or
// its status object when there is no data. A malformed response is a
// KindRemoteAPI failure. When err is non-nil it is mapped to its classified
// status (see ErrorKind.Status) and resp is ignored.
//
// Classify is total: every input yields exactly one Result.
func Classify(resp []byte, err error) Result {
	if err != nil {
		return ErrorResult(err)
	}

	if !gjson.ValidBytes(resp) {
		return ErrorResult(newError(KindRemoteAPI, "", "response not formed correctly", nil))
	}

	first := gjson.GetBytes(resp, "result.0")
	if !first.Exists() || !first.IsObject() {
		return ErrorResult(newError(KindRemoteAPI, "", "response does not contain a result", nil))
	}

	code := first.Get("status.code")
	var status Status
	switch code.Type {
	case gjson.Number:
		status = IntStatus(int(code.Int()))
	case gjson.String:
		status = TextStatus(code.Str)
	default:
		return ErrorResult(newError(KindRemoteAPI, "", "response result has no status code", nil))
	}

	payload := first.Get("data")
	if !payload.Exists() {
		payload = first.Get("status")
	}

	return Result{
		Status:  status,
		Payload: payload.Raw,
		Remote:  true,
	}
}

// ErrorResult builds the classified Result for a client-side failure
func ErrorResult(err error) Result {
	kind := KindOf(err)

	details := err.Error()
	var fe *FmgError
	if errors.As(err, &fe) {
		details = fe.Message
		if fe.InternalMsg != "" {
			details = fe.Message + ": " + fe.InternalMsg
		}
	}

	payload, mErr := json.Marshal(struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}{
		Error:   kind.Label(),
		Details: details,
	})
	if mErr != nil {
		payload = []byte(`{"error":"Unexpected error","details":""}`)
	}

	return Result{
		Status:  IntStatus(kind.Status()),
		Payload: string(payload),
	}
}
