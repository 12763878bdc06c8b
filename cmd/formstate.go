// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/choria-io/fisk"
	"github.com/choria-io/formstate"
	"github.com/choria-io/formstate/forms"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"
)

var (
	formFile string
	dataFile string
	debug    bool
	version  string
)

// slogger adapts slog to the formstate logger
type slogger struct {
	log *slog.Logger
}

func (s *slogger) Debugf(format string, v ...any) {
	s.log.Debug(fmt.Sprintf(format, v...))
}

func (s *slogger) Infof(format string, v ...any) {
	s.log.Info(fmt.Sprintf(format, v...))
}

func main() {
	app := fisk.New("formstate", "Validates, inspects and fills forms")
	app.Version(version)

	app.Help = `
Forms are YAML documents describing fields, validation and rules that
react to changes in the form.

Data files are YAML or JSON documents holding values for the form.
`
	app.Flag("debug", "Enables debug logging").BoolVar(&debug)

	validate := app.Command("validate", "Validates data against a form").Action(validateAction)
	validate.HelpLong(`
Every ruleset used in the form is checked, the command fails when any
ruleset reports issues.
`)
	validate.Arg("form", "The form definition").Required().ExistingFileVar(&formFile)
	validate.Arg("data", "The data to validate").Required().ExistingFileVar(&dataFile)

	show := app.Command("show", "Shows the state of every field in a form").Action(showAction)
	show.Arg("form", "The form definition").Required().ExistingFileVar(&formFile)
	show.Arg("data", "Data to load into the form").ExistingFileVar(&dataFile)

	fill := app.Command("fill", "Interactively fills a form").Action(fillAction)
	fill.HelpLong(`
Asks for every visible field and prints the submitted data as JSON. The shell
environment is available as ENVIRONMENT to help text templates.
`)
	fill.Arg("form", "The form definition").Required().ExistingFileVar(&formFile)
	fill.Arg("data", "Initial data to load into the form").ExistingFileVar(&dataFile)

	app.MustParseWithUsage(os.Args[1:])
}

func newLogger() formstate.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	return &slogger{log: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// loadModel compiles the form and loads dataFile into it when set
func loadModel() (*forms.Definition, *formstate.Model, error) {
	def, err := forms.LoadFile(formFile)
	if err != nil {
		return nil, nil, err
	}

	m, err := forms.NewModel(def, forms.WithLogger(newLogger()))
	if err != nil {
		return nil, nil, err
	}

	if dataFile == "" {
		return def, m, nil
	}

	df, err := os.ReadFile(dataFile)
	if err != nil {
		return nil, nil, err
	}

	var data map[string]any
	err = yaml.Unmarshal(df, &data)
	if err != nil {
		return nil, nil, err
	}

	err = m.LoadData(data, formstate.Path{})
	if err != nil {
		return nil, nil, err
	}

	return def, m, nil
}

func validateAction(_ *fisk.ParseContext) error {
	_, m, err := loadModel()
	if err != nil {
		return err
	}

	failed := false
	for _, rs := range m.Rulesets() {
		err = m.ValidateAllFields(rs)

		var verr *formstate.ValidationError
		switch {
		case errors.As(err, &verr):
			failed = true
			for _, is := range verr.Issues {
				fmt.Printf("%s: %s: %s\n", rs, formstate.Path(is.Path), is.Message)
			}
		case err != nil:
			return err
		}
	}

	if failed {
		return fmt.Errorf("validation failed")
	}

	fmt.Println("Data is valid")

	return nil
}

func showAction(_ *fisk.ParseContext) error {
	_, m, err := loadModel()
	if err != nil {
		return err
	}

	paths, err := m.GetAllLeafPaths(formstate.Path{})
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Path", "Value", "Visible", "Included", "Required", "Dirty"})

	snap := m.GetSnapshot()
	for _, p := range paths {
		s, ok := formstate.FindSnapshot(snap, p).(*formstate.FieldSnapshot)
		if !ok {
			continue
		}

		dirty, err := m.GetIsDirty(p)
		if err != nil {
			return err
		}

		t.AppendRow(table.Row{p.String(), s.Value, s.Visible, s.Included, s.Required, dirty})
	}

	t.Render()

	return nil
}

func fillAction(_ *fisk.ParseContext) error {
	def, m, err := loadModel()
	if err != nil {
		return err
	}

	envData := map[string]string{}
	for _, val := range os.Environ() {
		parts := strings.SplitN(val, "=", 2)
		if len(parts) != 2 {
			continue
		}
		envData[parts[0]] = parts[1]
	}

	res, err := forms.Fill(def, m, map[string]any{"ENVIRONMENT": envData})
	if err != nil {
		return err
	}

	j, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(j))

	return nil
}
