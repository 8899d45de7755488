package rpc

import (
	"bytes"
	"fmt"
	"strconv"
)

// maxSafeInteger is the largest integer a float64/JSON-number round trip
// preserves exactly; fields that can exceed it arrive as decimal strings.
const maxSafeInteger = 1<<53 - 1

// Uint64 decodes a JSON field that may arrive as either a bare number or a
// decimal string (§4.A/§6.2 "dynamic field widths").
type Uint64 uint64

func (u Uint64) MarshalJSON() ([]byte, error) {
	if uint64(u) <= maxSafeInteger {
		return []byte(strconv.FormatUint(uint64(u), 10)), nil
	}
	return []byte(`"` + strconv.FormatUint(uint64(u), 10) + `"`), nil
}

func (u *Uint64) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*u = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := unquote(b, &s); err != nil {
			return fmt.Errorf("wideint: %w", err)
		}
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return fmt.Errorf("wideint: parse string %q: %w", s, err)
		}
		*u = Uint64(v)
		return nil
	}
	v, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("wideint: parse number %q: %w", string(b), err)
	}
	*u = Uint64(v)
	return nil
}

// Int64 mirrors Uint64 for signed wide integers.
type Int64 int64

func (i Int64) MarshalJSON() ([]byte, error) {
	if i >= -maxSafeInteger && i <= maxSafeInteger {
		return []byte(strconv.FormatInt(int64(i), 10)), nil
	}
	return []byte(`"` + strconv.FormatInt(int64(i), 10) + `"`), nil
}

func (i *Int64) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*i = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := unquote(b, &s); err != nil {
			return fmt.Errorf("wideint: %w", err)
		}
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("wideint: parse string %q: %w", s, err)
		}
		*i = Int64(v)
		return nil
	}
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("wideint: parse number %q: %w", string(b), err)
	}
	*i = Int64(v)
	return nil
}

func unquote(b []byte, out *string) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("not a JSON string: %s", b)
	}
	*out = string(b[1 : len(b)-1])
	return nil
}
