// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package formstate

import (
	"github.com/choria-io/formstate/validation"
)

// Ruleset names in common use, any name can be used
const (
	OnChange = "onChange"
	OnBlur   = "onBlur"
	OnSubmit = "onSubmit"
)

// IncludePolicy controls whether a node contributes to submitted data
type IncludePolicy string

const (
	// IncludeAlways includes the node regardless of visibility
	IncludeAlways IncludePolicy = "always"
	// IncludeNever never includes the node
	IncludeNever IncludePolicy = "never"
	// IncludeWhenVisible includes the node while it is visible, the default for leaves
	IncludeWhenVisible IncludePolicy = "when-visible"
	// IncludeWhenChildrenInclude includes a nested node when at least one child is included, the default for nested nodes
	IncludeWhenChildrenInclude IncludePolicy = "when-children-include"
)

// Source records who performed the last write to a leaf
type Source string

const (
	SourceInitial Source = "initial"
	SourceUser    Source = "user"
	SourceSource  Source = "source"
)

// Kind identifies the three node variants
type Kind string

const (
	KindField  Kind = "field"
	KindObject Kind = "object"
	KindArray  Kind = "array"
)

// Schema is the declarative description of a form
type Schema struct {
	Fields []Field `json:"fields" yaml:"fields"`
	// Refine are declarative cross field refinements for the whole form keyed by ruleset
	Refine map[string][]validation.Refinement `json:"refine" yaml:"refine"`
	// Refiners are cross field refinements for the whole form keyed by ruleset
	Refiners map[string]validation.RefineFunc `json:"-" yaml:"-"`
}

// Option is a choice presented for enum like controls
type Option struct {
	Label string `json:"label" yaml:"label"`
	Value any    `json:"value" yaml:"value"`
}

// Field describes a leaf, a fixed shape nested object when Fields is set or a
// dynamic array when Array is set. Array holds the template every item is
// compiled from, its Key is ignored.
type Field struct {
	Key     string         `json:"key" yaml:"key"`
	Label   string         `json:"label" yaml:"label"`
	Help    string         `json:"help" yaml:"help"`
	Control string         `json:"control" yaml:"control"`
	Default any            `json:"default" yaml:"default"`
	Options []Option       `json:"options" yaml:"options"`
	Props   map[string]any `json:"props" yaml:"props"`
	// Visible sets the initial visibility, defaults to true
	Visible  *bool         `json:"visible" yaml:"visible"`
	Disabled bool          `json:"disabled" yaml:"disabled"`
	Include  IncludePolicy `json:"include" yaml:"include"`
	// Validation are declarative checks keyed by ruleset
	Validation map[string]validation.Check `json:"validation" yaml:"validation"`
	// Refine are declarative cross field refinements for nested nodes keyed by ruleset
	Refine map[string][]validation.Refinement `json:"refine" yaml:"refine"`

	// Validator is used for the onChange ruleset
	Validator validation.Validator `json:"-" yaml:"-"`
	// Validators are keyed by ruleset and take precedence over Validation
	Validators map[string]validation.Validator `json:"-" yaml:"-"`
	// Refiners are cross field refinements for nested nodes keyed by ruleset
	Refiners map[string]validation.RefineFunc `json:"-" yaml:"-"`

	Fields []Field `json:"fields" yaml:"fields"`
	Array  *Field  `json:"array" yaml:"array"`
}

// Kind reports which node variant f compiles to
func (f *Field) Kind() Kind {
	switch {
	case f.Array != nil:
		return KindArray
	case f.Fields != nil:
		return KindObject
	default:
		return KindField
	}
}

// Visible is a helper to set Field.Visible
func Visible(v bool) *bool {
	return &v
}
