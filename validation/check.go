// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package validation

import (
	"fmt"
)

// Check is the declarative form of a validator as found in form definitions
type Check struct {
	// Expression is an expr-lang boolean expression with the value available as value
	Expression string `json:"expression" yaml:"expression"`
	// Tags are go-playground/validator tags like "required,email"
	Tags string `json:"tags" yaml:"tags"`
	// Required rejects empty values
	Required bool `json:"required" yaml:"required"`
	// Optional accepts nil values without running the other checks
	Optional bool `json:"optional" yaml:"optional"`
	// Message is reported on failure
	Message string `json:"message" yaml:"message"`
}

// FromCheck builds the validator described by c, an empty check accepts anything
func FromCheck(c Check) (Validator, error) {
	var vs []Validator

	if c.Required {
		vs = append(vs, Required(c.Message))
	}

	if c.Tags != "" {
		t, err := Tag(c.Tags, c.Message)
		if err != nil {
			return nil, err
		}
		vs = append(vs, t)
	}

	if c.Expression != "" {
		e, err := Expr(c.Expression, c.Message)
		if err != nil {
			return nil, err
		}
		vs = append(vs, e)
	}

	v := All(vs...)
	if c.Optional {
		if c.Required {
			return nil, fmt.Errorf("a check cannot be both required and optional")
		}
		v = Optional(v)
	}

	return v, nil
}

// Refinement is the declarative form of a cross field refinement
type Refinement struct {
	// Expression is evaluated with the object being refined available as value and input
	Expression string `json:"expression" yaml:"expression"`
	// Path receives the issue, relative to the refined object
	Path []string `json:"path" yaml:"path"`
	// Message is reported on failure
	Message string `json:"message" yaml:"message"`
}

// FromRefinements combines refinements into a single RefineFunc
func FromRefinements(refs []Refinement) (RefineFunc, error) {
	var fns []RefineFunc

	for _, r := range refs {
		fn, err := RefineExpr(r.Expression, r.Message, r.Path)
		if err != nil {
			return nil, err
		}
		fns = append(fns, fn)
	}

	if len(fns) == 0 {
		return nil, nil
	}

	return func(value any) Issues {
		var res Issues
		for _, fn := range fns {
			res = append(res, fn(value)...)
		}
		return res
	}, nil
}
