// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package forms

//go:generate mockgen -source fill.go -destination mock_test.go -package forms -typed

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/choria-io/formstate"
	"github.com/google/uuid"
	"github.com/spf13/cast"
)

// surveyor abstracts the survey library for testability.
type surveyor interface {
	AskOne(p survey.Prompt, response any, opts ...survey.AskOpt) error
}

// errInvalidAnswer indicates an answer that cannot be converted for the control, it is asked again
var errInvalidAnswer = errors.New("invalid answer")

type defaultSurveyor struct{}

func (d *defaultSurveyor) AskOne(p survey.Prompt, response any, opts ...survey.AskOpt) error {
	return survey.AskOne(p, response, opts...)
}

type processOption func(*processor)

func withSurveyor(s surveyor) processOption {
	return func(p *processor) {
		p.surveyor = s
	}
}

func withIsTerminal(f func() bool) processOption {
	return func(p *processor) {
		p.isTerminal = f
	}
}

func withOutput(w io.Writer) processOption {
	return func(p *processor) {
		p.output = w
	}
}

// processor holds the configuration needed to interactively fill a model
type processor struct {
	env        map[string]any
	model      *formstate.Model
	surveyor   surveyor
	isTerminal func() bool
	output     io.Writer
}

// Fill presents every visible and enabled field of def on a terminal, writing
// the answers into m, and returns the submitted data. Answers are validated
// using the onChange ruleset and asked again until they pass. The env map is
// available to help text templates next to the current data as input.
func Fill(def *Definition, m *formstate.Model, env map[string]any, opts ...processOption) (map[string]any, error) {
	proc := &processor{
		env:        env,
		model:      m,
		surveyor:   &defaultSurveyor{},
		isTerminal: isTerminal,
		output:     os.Stdout,
	}

	for _, o := range opts {
		o(proc)
	}

	if !proc.isTerminal() {
		return nil, fmt.Errorf("can only fill forms on a valid terminal")
	}

	if len(def.Fields) == 0 {
		return nil, fmt.Errorf("no fields defined")
	}

	d, err := RenderTemplate(def.Description, proc.templateEnv())
	if err != nil {
		return nil, err
	}
	fmt.Fprintln(proc.output, d)
	fmt.Fprintln(proc.output)

	err = proc.surveyor.AskOne(&survey.Input{Message: "Press enter to start"}, &struct{}{})
	if err != nil {
		return nil, err
	}

	for _, f := range def.Fields {
		err = proc.fillField(formstate.Path{f.Key}, f)
		if err != nil {
			return nil, err
		}
	}

	data, err := m.GetJSONData(formstate.Path{})
	if err != nil {
		return nil, err
	}

	res, ok := data.(map[string]any)
	if !ok {
		return map[string]any{}, nil
	}

	return res, nil
}

func (p *processor) templateEnv() map[string]any {
	env := make(map[string]any, len(p.env)+2)
	for k, v := range p.env {
		env[k] = v
	}

	input, _ := p.model.GetJSONData(formstate.Path{})
	env["input"] = input
	env["Input"] = input

	return env
}

// fillField asks for the node at path unless it is hidden
func (p *processor) fillField(path formstate.Path, f formstate.Field) error {
	snap := formstate.FindSnapshot(p.model.GetSnapshot(), path)

	switch s := snap.(type) {
	case *formstate.FieldSnapshot:
		if !s.Visible || s.Disabled {
			return nil
		}
		return p.askLeaf(path)

	case *formstate.NestedSnapshot:
		if !s.Visible {
			return nil
		}

		err := p.describe(s.Label, s.Help)
		if err != nil {
			return err
		}

		if s.Kind == formstate.KindArray {
			return p.askArray(path, s, f)
		}

		for _, cf := range f.Fields {
			err = p.fillField(path.Child(cf.Key), cf)
			if err != nil {
				return err
			}
		}

		return nil

	default:
		return fmt.Errorf("%w: %s", formstate.ErrPathNotFound, path)
	}
}

// askArray adds items to the array at path for as long as the user wants more
func (p *processor) askArray(path formstate.Path, s *formstate.NestedSnapshot, f formstate.Field) error {
	name := s.Label
	if name == "" {
		name = s.Key
	}

	for added := 0; ; added++ {
		prompt := fmt.Sprintf("Add first '%s' entry", name)
		if added > 0 || len(s.Children) > 0 {
			prompt = fmt.Sprintf("Add additional '%s' entry", name)
		}

		ok, err := p.askConfirmation(prompt, false)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		key := uuid.NewString()
		var initial any = f.Array.Default
		if f.Array.Kind() == formstate.KindObject {
			initial = map[string]any{}
		}

		err = p.model.InsertIntoArray(path, formstate.Items{{Key: key, Value: initial}}, formstate.After, "")
		if err != nil {
			return err
		}

		err = p.fillField(path.Child(key), *f.Array)
		if err != nil {
			return err
		}
	}
}

func (p *processor) describe(label string, help string) error {
	if label == "" && help == "" {
		return nil
	}

	fmt.Fprintln(p.output)
	if label != "" {
		fmt.Fprintln(p.output, colorMarkup("{bold}"+label+"{/bold}"))
	}

	if help != "" {
		d, err := RenderTemplate(help, p.templateEnv())
		if err != nil {
			return err
		}
		fmt.Fprintln(p.output, d)
	}
	fmt.Fprintln(p.output)

	return nil
}

// askLeaf prompts for the leaf at path until the answer passes validation
func (p *processor) askLeaf(path formstate.Path) error {
	for {
		s, ok := formstate.FindSnapshot(p.model.GetSnapshot(), path).(*formstate.FieldSnapshot)
		if !ok {
			return fmt.Errorf("%w: %s", formstate.ErrNotLeaf, path)
		}

		err := p.describe("", s.Help)
		if err != nil {
			return err
		}

		if s.AlertTip != "" {
			fmt.Fprintln(p.output, colorMarkup("{yellow}"+s.AlertTip+"{/yellow}"))
		}

		ans, err := p.askValue(s)
		if errors.Is(err, errInvalidAnswer) {
			fmt.Fprintln(p.output, colorMarkup("{red}"+err.Error()+"{/red}"))
			continue
		}
		if err != nil {
			return err
		}

		err = p.model.SetValue(path, ans)
		if err != nil {
			return err
		}

		err = p.model.ValidateField(path, true, formstate.OnChange)
		if err == nil {
			return nil
		}

		var verr *formstate.ValidationError
		if !errors.As(err, &verr) {
			return err
		}

		for _, msg := range verr.Issues.Messages() {
			fmt.Fprintln(p.output, colorMarkup("{red}"+msg+"{/red}"))
		}
	}
}

// askValue prompts for a value suitable for the control of s
func (p *processor) askValue(s *formstate.FieldSnapshot) (any, error) {
	message := s.Label
	if message == "" {
		message = s.Key
	}

	switch s.Control {
	case ConfirmControl:
		ans := cast.ToBool(s.Value)
		err := p.surveyor.AskOne(&survey.Confirm{Message: message, Default: ans}, &ans)
		return ans, err

	case SelectControl:
		return p.askSelect(message, s)

	case PasswordControl:
		var ans string
		var opts []survey.AskOpt
		if s.Required {
			opts = append(opts, survey.WithValidator(survey.Required))
		}

		err := p.surveyor.AskOne(&survey.Password{Message: message}, &ans, opts...)
		if err != nil || ans == "" {
			return nil, err
		}
		return ans, nil

	case IntegerControl, NumberControl:
		var ans string
		err := p.surveyor.AskOne(&survey.Input{Message: message, Default: defaultString(s.Value)}, &ans)
		if err != nil || ans == "" {
			return nil, err
		}

		var v any
		if s.Control == IntegerControl {
			v, err = cast.ToIntE(ans)
		} else {
			v, err = cast.ToFloat64E(ans)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", errInvalidAnswer, ans)
		}
		return v, nil

	case InputControl, "":
		var ans string
		var opts []survey.AskOpt
		if s.Required {
			opts = append(opts, survey.WithValidator(survey.Required))
		}

		err := p.surveyor.AskOne(&survey.Input{Message: message, Default: defaultString(s.Value)}, &ans, opts...)
		if err != nil || ans == "" {
			return nil, err
		}
		return ans, nil

	default:
		return nil, fmt.Errorf("unsupported control %q for %s", s.Control, s.Path)
	}
}

func (p *processor) askSelect(message string, s *formstate.FieldSnapshot) (any, error) {
	if len(s.Options) == 0 {
		return nil, fmt.Errorf("no options defined for %s", s.Path)
	}

	labels := make([]string, len(s.Options))
	sel := &survey.Select{Message: message, Options: labels}

	for i, o := range s.Options {
		labels[i] = o.Label
		if labels[i] == "" {
			labels[i] = cast.ToString(o.Value)
		}

		if s.Value != nil && cast.ToString(o.Value) == cast.ToString(s.Value) {
			sel.Default = labels[i]
		}
	}

	var ans string
	err := p.surveyor.AskOne(sel, &ans)
	if err != nil {
		return nil, err
	}

	for i, l := range labels {
		if l == ans {
			return s.Options[i].Value, nil
		}
	}

	return nil, fmt.Errorf("unknown option %q for %s", ans, s.Path)
}

func (p *processor) askConfirmation(prompt string, dflt bool) (bool, error) {
	ans := dflt

	err := p.surveyor.AskOne(&survey.Confirm{
		Message: prompt,
		Default: dflt,
	}, &ans)

	return ans, err
}

func defaultString(v any) string {
	if v == nil {
		return ""
	}

	return cast.ToString(v)
}
