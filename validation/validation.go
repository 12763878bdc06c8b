// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package validation defines the small Validator capability the form engine
// composes: optional-ness introspection, a safe parse returning structured
// per-path issues, object composition and refinement.
//
// Leaf validators are usually built from expr-lang expressions (Expr) or
// go-playground/validator tags (Tag), the engine composes them into Object
// validators that mirror the shape of the form tree.
package validation

import (
	"errors"
	"fmt"
	"strings"
)

// Validator validates a single value, possibly a nested one.
type Validator interface {
	// IsOptional reports whether a missing (nil) value is accepted
	IsOptional() bool
	// SafeParse validates input and returns the issues found, nil when valid
	SafeParse(input any) Issues
}

// Mapper is implemented by keyed collections that can be validated like objects
type Mapper interface {
	AsMap() map[string]any
}

// RefineFunc inspects an object value and returns issues, paths are relative to the refined object
type RefineFunc func(value any) Issues

// Issue is a single validation failure, Path is relative to the value that was parsed
type Issue struct {
	Path    []string `json:"path" yaml:"path"`
	Message string   `json:"message" yaml:"message"`
}

// Issues is a collection of validation failures that implements error
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}

	const maxShown = 3

	b := &strings.Builder{}
	lim := min(len(iss), maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(b, "%s: %s", displayPath(iss[i].Path), iss[i].Message)
	}
	if len(iss) > lim {
		fmt.Fprintf(b, "; ... (total %d)", len(iss))
	}

	return b.String()
}

// Messages returns just the messages of all issues in order
func (iss Issues) Messages() []string {
	var res []string
	for _, i := range iss {
		res = append(res, i.Message)
	}

	return res
}

// Prefixed returns a copy of the issues with prefix prepended to every path
func (iss Issues) Prefixed(prefix ...string) Issues {
	if len(iss) == 0 {
		return nil
	}

	res := make(Issues, len(iss))
	for i, is := range iss {
		p := make([]string, 0, len(prefix)+len(is.Path))
		p = append(p, prefix...)
		p = append(p, is.Path...)
		res[i] = Issue{Path: p, Message: is.Message}
	}

	return res
}

// AsIssues extracts Issues from an error using errors.As
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}

	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}

	return nil, false
}

func displayPath(p []string) string {
	if len(p) == 0 {
		return "(root)"
	}

	return strings.Join(p, ".")
}

// IsOptional reports whether v accepts a missing value, a nil validator is optional
func IsOptional(v Validator) bool {
	if v == nil {
		return true
	}

	return v.IsOptional()
}
