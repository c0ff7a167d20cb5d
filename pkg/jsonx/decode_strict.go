// decode_strict.go
package jsonx

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

var (
	ErrEmptyBody    = errors.New("empty body")
	ErrTrailingJSON = errors.New("trailing data")
)

// DecodeStrictBody reads and **strictly** decodes a JSON HTTP request body into dst.
//
// Intended HTTP mapping: return **400 Bad Request** when decoding fails due to
// syntax/structural issues in the JSON payload or schema **shape** violations,
// including:
//
//   - Malformed JSON syntax (e.g., bad tokens, truncated body)
//   - Empty body (returns ErrEmptyBody)
//   - Oversized body (reader capped at 1MB)
//   - Trailing data (ensures a *single* JSON value; ErrTrailingJSON)
//   - Disallowed additional properties (unknown fields) via DisallowUnknownFields
//   - Field-type mismatches (e.g., string into int)
//
// It performs only structural validation: required-field presence and semantic
// rules remain the caller's concern (zero values are accepted).
func DecodeStrictBody[T any](r *http.Request, dst *T) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1MB cap
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return ErrEmptyBody
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	// Ensure no trailing JSON values
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return ErrTrailingJSON
	}
	return nil
}
