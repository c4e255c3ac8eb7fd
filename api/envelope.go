package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/jrsteele09/go-roombook/internal/errors"
)

// Envelope is the wire shape most endpoints answer with. The error member is not consistent
// across endpoints: it is sometimes a string and sometimes an object, so it is kept raw until
// Normalize decides what it is.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   json.RawMessage `json:"error,omitempty"`
}

// ErrorDetail is the single error shape every call site sees, regardless of how the server
// phrased the failure.
type ErrorDetail struct {
	Status  int               `json:"status,omitempty"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Kind    error             `json:"-"`
}

func (e *ErrorDetail) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, "; "))
}

func (e *ErrorDetail) Unwrap() error {
	return e.Kind
}

// FieldError returns the message attached to a single field, if any.
func (e *ErrorDetail) FieldError(field string) string {
	if e == nil {
		return ""
	}
	return e.Fields[field]
}

// Normalize turns a raw HTTP response into either data or an ErrorDetail. Both the HTTP status
// and the envelope's success flag must agree before a response counts as a success. A 2xx body
// that is not an envelope is taken as the data itself.
func Normalize(status int, body []byte) (json.RawMessage, *ErrorDetail) {
	statusOK := status >= 200 && status < 300
	trimmed := bytes.TrimSpace(body)

	if len(trimmed) == 0 {
		if statusOK {
			return nil, nil
		}
		return nil, newErrorDetail(status, "", nil, false)
	}

	if !json.Valid(trimmed) {
		if statusOK {
			return nil, &ErrorDetail{Status: status, Message: "malformed response body", Kind: errors.ErrMalformedResponse}
		}
		return nil, newErrorDetail(status, plainMessage(trimmed), nil, false)
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &members); err != nil {
		// Arrays and scalars are never envelopes.
		if statusOK {
			return json.RawMessage(trimmed), nil
		}
		return nil, newErrorDetail(status, "", nil, false)
	}

	rawSuccess, isEnvelope := members["success"]
	if !isEnvelope {
		if statusOK {
			return json.RawMessage(trimmed), nil
		}
		message, fields := parseErrorMembers(members)
		return nil, newErrorDetail(status, message, fields, false)
	}

	var success bool
	if err := json.Unmarshal(rawSuccess, &success); err != nil {
		return nil, &ErrorDetail{Status: status, Message: "malformed success flag", Kind: errors.ErrMalformedResponse}
	}
	if success && statusOK {
		return members["data"], nil
	}

	message, fields := parseErrorValue(members["error"])
	if message == "" {
		message, _ = decodeString(members["message"])
	}
	return nil, newErrorDetail(status, message, fields, statusOK)
}

func newErrorDetail(status int, message string, fields map[string]string, statusOK bool) *ErrorDetail {
	kind := errors.ErrRejected
	switch {
	case statusOK && len(fields) > 0:
		kind = errors.ErrValidation
	case statusOK:
		kind = errors.ErrRejected
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		kind = errors.ErrValidation
	case status == http.StatusUnauthorized:
		kind = errors.ErrUnauthorized
	case status == http.StatusForbidden:
		kind = errors.ErrForbidden
	case status == http.StatusNotFound:
		kind = errors.ErrNotFound
	}

	if message == "" {
		message = http.StatusText(status)
		if statusOK || message == "" {
			message = "request failed"
		}
	}
	return &ErrorDetail{Status: status, Message: message, Fields: fields, Kind: kind}
}

// parseErrorValue understands the error member as a string, an object carrying a message and
// field errors, or a bare list of field errors.
func parseErrorValue(raw json.RawMessage) (string, map[string]string) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if s, ok := decodeString(raw); ok {
		return s, nil
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err == nil {
		return parseErrorMembers(members)
	}
	return "", parseFields(raw)
}

func parseErrorMembers(members map[string]json.RawMessage) (string, map[string]string) {
	var message string
	for _, key := range []string{"message", "error_description", "error"} {
		if s, ok := decodeString(members[key]); ok && s != "" {
			message = s
			break
		}
	}
	if message == "" {
		if nested, ok := members["error"]; ok {
			if m, fields := parseErrorValue(nested); m != "" || len(fields) > 0 {
				return m, fields
			}
		}
	}

	for _, key := range []string{"fields", "errors", "fieldErrors"} {
		if fields := parseFields(members[key]); len(fields) > 0 {
			return message, fields
		}
	}
	return message, nil
}

func parseFields(raw json.RawMessage) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	var byName map[string]string
	if err := json.Unmarshal(raw, &byName); err == nil && len(byName) > 0 {
		return byName
	}
	var list []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &list); err != nil || len(list) == 0 {
		return nil
	}
	fields := make(map[string]string, len(list))
	for _, fe := range list {
		if fe.Field != "" {
			fields[fe.Field] = fe.Message
		}
	}
	return fields
}

func decodeString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func plainMessage(body []byte) string {
	const maxLen = 200
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
