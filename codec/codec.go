// Package codec converts between flat entity data and broker attribute lists.
//
// String and object values travel as hex-encoded JSON so that any character
// survives brokers which reject punctuation in attribute values. Numbers and
// booleans travel as their literal text.
package codec

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrDecode is matched by every *DecodeError.
var ErrDecode = errors.New("malformed attribute value")

// DecodeError reports a stored value that could not be decoded.
type DecodeError struct {
	Attribute string
	Err       error
}

func (e *DecodeError) Error() string {
	if e.Attribute == "" {
		return fmt.Sprintf("decode value: %v", e.Err)
	}
	return fmt.Sprintf("decode attribute %q: %v", e.Attribute, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// Encode serializes v as JSON and returns the lowercase hex form of the bytes.
func Encode(v any) (string, error) {
	data, err := jsonMarshal(v)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(data), nil
}

// Decode reverses Encode.
func Decode(s string) (any, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return v, nil
}

func jsonMarshal(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
