// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package validation

type anyValidator struct{}

// Any accepts every value including nil
func Any() Validator {
	return anyValidator{}
}

func (anyValidator) IsOptional() bool     { return true }
func (anyValidator) SafeParse(any) Issues { return nil }

type funcValidator struct {
	fn       func(any) error
	optional bool
}

// Func adapts fn into a Validator, a non nil error becomes a single issue holding its message.
// nil inputs are passed to fn only when optional is false, otherwise they are accepted.
func Func(optional bool, fn func(value any) error) Validator {
	return &funcValidator{fn: fn, optional: optional}
}

func (f *funcValidator) IsOptional() bool {
	return f.optional
}

func (f *funcValidator) SafeParse(input any) Issues {
	if input == nil && f.optional {
		return nil
	}

	err := f.fn(input)
	if err == nil {
		return nil
	}

	if iss, ok := AsIssues(err); ok {
		return iss
	}

	return Issues{{Message: err.Error()}}
}

type requiredValidator struct {
	message string
}

// Required rejects nil, empty strings and empty slices
func Required(message string) Validator {
	if message == "" {
		message = "required"
	}

	return &requiredValidator{message: message}
}

func (r *requiredValidator) IsOptional() bool {
	return false
}

func (r *requiredValidator) SafeParse(input any) Issues {
	if isEmpty(input) {
		return Issues{{Message: r.message}}
	}

	return nil
}

type optionalValidator struct {
	inner Validator
}

// Optional accepts nil and otherwise delegates to v
func Optional(v Validator) Validator {
	if v == nil {
		return Any()
	}

	return &optionalValidator{inner: v}
}

func (o *optionalValidator) IsOptional() bool {
	return true
}

func (o *optionalValidator) SafeParse(input any) Issues {
	if input == nil {
		return nil
	}

	return o.inner.SafeParse(input)
}

type allOf []Validator

// All requires every validator to pass, issues from all of them are reported
func All(vs ...Validator) Validator {
	var res allOf
	for _, v := range vs {
		if v != nil {
			res = append(res, v)
		}
	}

	switch len(res) {
	case 0:
		return Any()
	case 1:
		return res[0]
	default:
		return res
	}
}

func (a allOf) IsOptional() bool {
	for _, v := range a {
		if !v.IsOptional() {
			return false
		}
	}

	return true
}

func (a allOf) SafeParse(input any) Issues {
	var res Issues
	for _, v := range a {
		res = append(res, v.SafeParse(input)...)
	}

	return res
}

func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []any:
		return len(val) == 0
	case []string:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	default:
		return false
	}
}
