// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package formstate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/choria-io/formstate/validation"
)

var (
	// ErrPathNotFound is returned when a path does not match the compiled form
	ErrPathNotFound = errors.New("path not found")
	// ErrNotLeaf is returned when a leaf operation targets a nested node
	ErrNotLeaf = errors.New("field is not a leaf")
	// ErrNotArray is returned when an array operation targets something else
	ErrNotArray = errors.New("this field is not an array")
	// ErrNotNested is returned when a nested operation targets a leaf
	ErrNotNested = errors.New("field is not nested")
	// ErrDirtyCache indicates a cache was read before it was rebuilt
	ErrDirtyCache = errors.New("dirty value")
	// ErrArrayKeyNotFound is returned when updating an array item that does not exist
	ErrArrayKeyNotFound = errors.New("key not found in array")
	// ErrDuplicateKey is returned when sibling keys collide
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrInvalidValue is returned when a value does not fit the shape of a node
	ErrInvalidValue = errors.New("invalid value")
)

// PathError records a structural error and the operation and path that caused it
type PathError struct {
	Op   string
	Path Path
	Err  error
}

func (e *PathError) Error() string {
	path := e.Path.String()
	if path == "" {
		path = "(root)"
	}

	return fmt.Sprintf("%s %s: %v", e.Op, path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

func pathError(op string, path Path, err error) error {
	return &PathError{Op: op, Path: path.Clone(), Err: err}
}

// ValidationError holds all the issues found while validating Path using Ruleset, issue paths are absolute
type ValidationError struct {
	Path    Path
	Ruleset string
	Issues  validation.Issues
}

func (e *ValidationError) Error() string {
	var parts []string
	for _, is := range e.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s", Path(is.Path), is.Message))
	}

	return fmt.Sprintf("validation failed using %s: %s", e.Ruleset, strings.Join(parts, "; "))
}

// Unwrap exposes the issues to validation.AsIssues
func (e *ValidationError) Unwrap() error {
	return e.Issues
}
