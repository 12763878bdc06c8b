// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package forms

import (
	"fmt"

	"github.com/choria-io/formstate"
	"github.com/choria-io/formstate/validation"
	"github.com/expr-lang/expr/vm"
)

// Rule reacts to changes of the Watch paths. When is an expr-lang expression
// that has the watched values available as watch, keyed by dotted path, and
// the first watched value as value. An empty When is always true and one
// that fails to evaluate is false.
//
// While When is true the Show paths are made visible, the Hide paths hidden,
// Enable and Disable paths enabled and disabled, Alert tips are shown and Set
// values written. While it is false visibility and disabled state are inverted
// and the alerts are cleared, Set is not undone.
type Rule struct {
	Name    string            `json:"name" yaml:"name"`
	Watch   []string          `json:"watch" yaml:"watch"`
	When    string            `json:"when" yaml:"when"`
	Show    []string          `json:"show" yaml:"show"`
	Hide    []string          `json:"hide" yaml:"hide"`
	Enable  []string          `json:"enable" yaml:"enable"`
	Disable []string          `json:"disable" yaml:"disable"`
	Alert   map[string]string `json:"alert" yaml:"alert"`
	Set     map[string]any    `json:"set" yaml:"set"`
}

// compile turns the rule into an effect after checking every path it refers to exists in m
func (r Rule) compile(m *formstate.Model) (formstate.Effect, error) {
	if len(r.Watch) == 0 {
		return nil, fmt.Errorf("no watched fields")
	}

	var targets []string
	targets = append(targets, r.Show...)
	targets = append(targets, r.Hide...)
	targets = append(targets, r.Enable...)
	targets = append(targets, r.Disable...)
	for p := range r.Alert {
		targets = append(targets, p)
	}
	for p := range r.Set {
		targets = append(targets, p)
	}

	for _, p := range targets {
		_, err := m.GetValue(formstate.ParsePath(p))
		if err != nil {
			return nil, err
		}
	}

	var prog *vm.Program
	if r.When != "" {
		var err error
		prog, err = validation.CompileExpr(r.When)
		if err != nil {
			return nil, err
		}
	}

	return func(ctx formstate.RuleContext, _ formstate.Cause) error {
		watch := make(map[string]any, len(r.Watch))
		var first any

		for i, w := range r.Watch {
			v, err := ctx.GetValue(formstate.ParsePath(w))
			if err != nil {
				return err
			}

			watch[w] = v
			if i == 0 {
				first = v
			}
		}

		env := map[string]any{"watch": watch, "value": first}

		active := true
		if prog != nil {
			ok, err := validation.EvalExpr(prog, env)
			active = ok && err == nil
		}

		return r.apply(ctx, active, env)
	}, nil
}

func (r Rule) apply(ctx formstate.RuleContext, active bool, env map[string]any) error {
	for _, p := range r.Show {
		err := ctx.SetVisible(formstate.ParsePath(p), active)
		if err != nil {
			return err
		}
	}

	for _, p := range r.Hide {
		err := ctx.SetVisible(formstate.ParsePath(p), !active)
		if err != nil {
			return err
		}
	}

	for _, p := range r.Enable {
		err := ctx.SetDisabled(formstate.ParsePath(p), !active)
		if err != nil {
			return err
		}
	}

	for _, p := range r.Disable {
		err := ctx.SetDisabled(formstate.ParsePath(p), active)
		if err != nil {
			return err
		}
	}

	for p, msg := range r.Alert {
		tip := ""
		if active {
			var err error
			tip, err = RenderTemplate(msg, env)
			if err != nil {
				return err
			}
		}

		err := ctx.SetAlertTip(formstate.ParsePath(p), tip)
		if err != nil {
			return err
		}
	}

	if !active {
		return nil
	}

	for p, v := range r.Set {
		err := ctx.SetValues(formstate.ParsePath(p), v)
		if err != nil {
			return err
		}
	}

	return nil
}
