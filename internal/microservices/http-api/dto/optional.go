package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// ErrNotInteger is returned when an optional field holds something other
// than an integer, a numeric string or null.
var ErrNotInteger = errors.New("a valid integer is required")

// ParseOptionalInt decodes a field that may be absent, null, an integer or an
// integer string. set reports whether the field was present at all.
func ParseOptionalInt(raw json.RawMessage) (set bool, value *int, err error) {
	if raw == nil {
		return false, nil, nil
	}
	trimmed := bytes.TrimSpace(raw)
	if bytes.Equal(trimmed, []byte("null")) {
		return true, nil, nil
	}

	var n int
	if err := json.Unmarshal(trimmed, &n); err == nil {
		return true, &n, nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return true, nil, ErrNotInteger
	}
	n, err = strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return true, nil, ErrNotInteger
	}
	return true, &n, nil
}

// RawText renders raw as the client sent it, without surrounding quotes.
func RawText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}
