// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package forms loads form definitions from YAML documents and turns them into
// formstate models. A definition holds the schema fields, cross field
// refinements and declarative rules that show, hide, enable, disable, alert
// or set fields whenever the fields they watch change.
//
// Models can be filled in interactively on a terminal using Fill.
package forms

import (
	"fmt"
	"io"
	"os"

	"github.com/choria-io/formstate"
	"github.com/choria-io/formstate/validation"
	"gopkg.in/yaml.v3"
)

// Control names understood by Fill
const (
	InputControl    = "input"
	PasswordControl = "password"
	SelectControl   = "select"
	ConfirmControl  = "confirm"
	NumberControl   = "number"
	IntegerControl  = "integer"
)

// Definition is a form as found in YAML documents. The Description supports Go
// template syntax with Sprig functions and color markup tags like {red}text{/red}.
type Definition struct {
	Name        string                             `json:"name" yaml:"name"`
	Description string                             `json:"description" yaml:"description"`
	Fields      []formstate.Field                  `json:"fields" yaml:"fields"`
	Refine      map[string][]validation.Refinement `json:"refine" yaml:"refine"`
	Rules       []Rule                             `json:"rules" yaml:"rules"`
}

// Schema is the engine schema described by the definition
func (d *Definition) Schema() formstate.Schema {
	return formstate.Schema{Fields: d.Fields, Refine: d.Refine}
}

// LoadReader reads a YAML form definition from r
func LoadReader(r io.Reader) (*Definition, error) {
	fb, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	return LoadBytes(fb)
}

// LoadFile reads a YAML form definition from the file f
func LoadFile(f string) (*Definition, error) {
	fb, err := os.ReadFile(f)
	if err != nil {
		return nil, err
	}

	return LoadBytes(fb)
}

// LoadBytes parses f as a YAML form definition
func LoadBytes(f []byte) (*Definition, error) {
	var def Definition
	err := yaml.Unmarshal(f, &def)
	if err != nil {
		return nil, err
	}

	if len(def.Fields) == 0 {
		return nil, fmt.Errorf("no fields defined")
	}

	return &def, nil
}

type modelOptions struct {
	log formstate.Logger
}

// ModelOption configures NewModel
type ModelOption func(*modelOptions)

// WithLogger sets the logger used by the model
func WithLogger(log formstate.Logger) ModelOption {
	return func(o *modelOptions) {
		o.log = log
	}
}

// NewModel compiles the definition, registers its rules and performs the initial run
func NewModel(def *Definition, opts ...ModelOption) (*formstate.Model, error) {
	mo := &modelOptions{}
	for _, o := range opts {
		o(mo)
	}

	m, err := formstate.New(def.Schema())
	if err != nil {
		return nil, err
	}

	if mo.log != nil {
		m.Logger(mo.log)
	}

	for i, r := range def.Rules {
		name := r.Name
		if name == "" {
			name = fmt.Sprintf("rule %d", i)
		}

		effect, err := r.compile(m)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		_, err = m.RegisterRule(effect)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}

	err = m.Initial()
	if err != nil {
		return nil, err
	}

	return m, nil
}
