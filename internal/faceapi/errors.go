package faceapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Detail     string // server-supplied "detail", empty when absent
	Body       []byte // compacted response body
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Message())
}

// Message returns the detail when the server supplied one, else the raw body.
func (e *APIError) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	return string(e.Body)
}

// TransportError means no response was obtained.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("could not send request to %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err (or anything it wraps) is a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// AsAPIError returns the APIError wrapped by err, if any.
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// newAPIError builds an APIError from a failed response body. A string
// "detail" is used as is; any other non-null detail (FastAPI validation
// errors are lists) is kept as its JSON text.
func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Body: compactJSON(body)}

	var parsed struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.Detail) == 0 {
		return apiErr
	}

	var detail string
	if err := json.Unmarshal(parsed.Detail, &detail); err == nil {
		apiErr.Detail = detail
		return apiErr
	}
	if string(parsed.Detail) != "null" {
		apiErr.Detail = string(compactJSON(parsed.Detail))
	}
	return apiErr
}

// compactJSON strips insignificant whitespace; non-JSON input is returned trimmed.
func compactJSON(body []byte) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err != nil {
		return bytes.TrimSpace(body)
	}
	return buf.Bytes()
}
