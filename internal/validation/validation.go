// Package validation implements the field validation engine. Every field
// has a fixed rule (expected kind, max length, format check) and checks
// run in a fixed order — datatype, then length, then format — stopping at
// the first failure.
package validation

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Seungho-Jeong/accountbooks/internal/apperr"
)

// Kind is the JSON value kind a field accepts.
type Kind int

const (
	KindString Kind = iota
	KindInt
	// KindOther covers floats, booleans, nulls, arrays and objects —
	// nothing accepts them, they only ever produce datatype failures.
	KindOther
)

// Value is a decoded JSON field value tagged with its kind.
type Value struct {
	Kind Kind
	Str  string
	Int  int64
}

type rule struct {
	kind   Kind
	want   string
	maxLen int // 0 = exempt from the length check
	format func(Value) error
}

var rules = map[string]rule{
	"email":       {kind: KindString, want: "string", maxLen: 60, format: checkEmail},
	"password":    {kind: KindString, want: "string", maxLen: 24, format: checkPassword},
	"title":       {kind: KindString, want: "string", maxLen: 255},
	"description": {kind: KindString, want: "string", maxLen: 255},
	"date":        {kind: KindString, want: "string"},
	"amount":      {kind: KindInt, want: "int", format: checkAmount},
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9]([-_.]?[a-zA-Z0-9])*@[a-zA-Z0-9]([-_.]?[a-zA-Z0-9])*\.[a-zA-Z]{2,}$`)

const passwordSpecials = "@$!%*#?&"

func checkEmail(v Value) error {
	if !emailPattern.MatchString(v.Str) {
		return apperr.InvalidValue("invalid email address.")
	}
	return nil
}

// checkPassword enforces the password policy: at least 8 characters,
// composed only of letters, digits and the special set, with at least one
// of each class. Go's regexp has no lookahead, so the classes are counted
// directly.
func checkPassword(v Value) error {
	var hasLetter, hasDigit, hasSpecial bool
	ok := len(v.Str) >= 8
	for _, r := range v.Str {
		switch {
		case r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
			hasLetter = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(passwordSpecials, r):
			hasSpecial = true
		default:
			ok = false
		}
	}
	if !ok || !hasLetter || !hasDigit || !hasSpecial {
		return apperr.InvalidValue("passwords must be at least 8 characters long and " +
			"contain alphanumeric characters and special characters.")
	}
	return nil
}

func checkAmount(v Value) error {
	if v.Int < 0 {
		return apperr.InvalidValue("'amount' must not be negative.")
	}
	return nil
}

// Field validates a single value against its field rule. Unknown fields
// are ignored.
func Field(field string, v Value) error {
	r, ok := rules[field]
	if !ok {
		return nil
	}
	if v.Kind != r.kind {
		return apperr.DataType(field, r.want)
	}
	// Lengths are counted in characters, not bytes, so multibyte input is
	// measured the way users see it.
	if r.maxLen > 0 && utf8.RuneCountInString(v.Str) > r.maxLen {
		return apperr.DataTooLong(field, r.maxLen)
	}
	if r.format != nil {
		return r.format(v)
	}
	return nil
}

// Payload is a decoded JSON object keyed by field name.
type Payload map[string]Value

// Parse decodes a JSON object body into a Payload. Numbers are kept exact
// so that non-integer amounts fail the datatype check instead of being
// silently truncated.
func Parse(body []byte) (Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, apperr.InvalidJSON()
	}

	p := make(Payload, len(raw))
	for name, val := range raw {
		switch v := val.(type) {
		case string:
			p[name] = Value{Kind: KindString, Str: v}
		case json.Number:
			if n, err := v.Int64(); err == nil {
				p[name] = Value{Kind: KindInt, Int: n}
			} else {
				p[name] = Value{Kind: KindOther}
			}
		default:
			p[name] = Value{Kind: KindOther}
		}
	}
	return p, nil
}

// Has reports whether the field was present in the payload.
func (p Payload) Has(field string) bool {
	_, ok := p[field]
	return ok
}

// String returns the string value of a validated field.
func (p Payload) String(field string) string { return p[field].Str }

// Int returns the integer value of a validated field.
func (p Payload) Int(field string) int64 { return p[field].Int }

// Require fails with MissingField for the first listed field absent from
// the payload.
func (p Payload) Require(fields ...string) error {
	for _, f := range fields {
		if !p.Has(f) {
			return apperr.MissingField(f)
		}
	}
	return nil
}

// Validate checks the listed fields in order, skipping absent ones, and
// stops at the first failure.
func (p Payload) Validate(fields ...string) error {
	for _, f := range fields {
		v, ok := p[f]
		if !ok {
			continue
		}
		if err := Field(f, v); err != nil {
			return err
		}
	}
	return nil
}
