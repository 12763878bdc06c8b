// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package validation

import (
	"fmt"
)

// ObjectValidator validates a keyed value by delegating every key to its own validator
type ObjectValidator struct {
	keys   []string
	fields map[string]Validator
}

// Object composes fields into an object validator, keys sets the order issues are reported in.
// Keys without a validator in fields are ignored.
func Object(keys []string, fields map[string]Validator) *ObjectValidator {
	o := &ObjectValidator{fields: make(map[string]Validator, len(fields))}

	for _, k := range keys {
		v, ok := fields[k]
		if !ok || v == nil {
			continue
		}
		if _, dupe := o.fields[k]; dupe {
			continue
		}

		o.keys = append(o.keys, k)
		o.fields[k] = v
	}

	return o
}

// Keys are the composed keys in order
func (o *ObjectValidator) Keys() []string {
	return append([]string(nil), o.keys...)
}

// Field returns the validator composed for key
func (o *ObjectValidator) Field(key string) (Validator, bool) {
	v, ok := o.fields[key]
	return v, ok
}

// IsOptional is always false, objects must be present
func (o *ObjectValidator) IsOptional() bool {
	return false
}

func (o *ObjectValidator) SafeParse(input any) Issues {
	m, ok := objectValue(input)
	if !ok {
		return Issues{{Message: fmt.Sprintf("expected object, received %T", input)}}
	}

	var res Issues
	for _, k := range o.keys {
		res = append(res, o.fields[k].SafeParse(m[k]).Prefixed(k)...)
	}

	return res
}

// objectValue accepts maps, Mappers and nil, nil being an empty object
func objectValue(input any) (map[string]any, bool) {
	switch v := input.(type) {
	case nil:
		return map[string]any{}, true
	case map[string]any:
		return v, true
	case Mapper:
		return v.AsMap(), true
	default:
		return nil, false
	}
}

type refined struct {
	inner Validator
	fn    RefineFunc
}

// Refine wraps v so that fn is also applied to object inputs, fn runs even when v reported issues
func Refine(v Validator, fn RefineFunc) Validator {
	if fn == nil {
		return v
	}

	return &refined{inner: v, fn: fn}
}

func (r *refined) IsOptional() bool {
	return r.inner.IsOptional()
}

func (r *refined) SafeParse(input any) Issues {
	res := r.inner.SafeParse(input)

	m, ok := objectValue(input)
	if !ok {
		return res
	}

	return append(res, r.fn(m)...)
}
