// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package formstate_test

import (
	"encoding/json"
	"fmt"

	"github.com/choria-io/formstate"
	"github.com/choria-io/formstate/validation"
)

func Example() {
	m, err := formstate.New(formstate.Schema{Fields: []formstate.Field{
		{Key: "name", Validator: validation.Required("name is required")},
		{Key: "newsletter", Default: false},
		{Key: "email", Validator: validation.MustTag("email", "a valid email is required")},
	}})
	if err != nil {
		panic(err)
	}

	// email is only asked for when subscribing to the newsletter
	_, err = m.RegisterRule(func(ctx formstate.RuleContext, _ formstate.Cause) error {
		v, err := ctx.GetValue(formstate.Path{"newsletter"})
		if err != nil {
			return err
		}

		return ctx.SetVisible(formstate.Path{"email"}, v == true)
	})
	if err != nil {
		panic(err)
	}

	err = m.Initial()
	if err != nil {
		panic(err)
	}

	fmt.Println(m.ValidateAllFields(formstate.OnChange))

	m.SetValue(formstate.Path{"name"}, "bob")
	m.SetValue(formstate.Path{"newsletter"}, true)
	m.SetValue(formstate.Path{"email"}, "bob@example.net")

	fmt.Println(m.ValidateAllFields(formstate.OnChange))

	data, _ := m.GetJSONData(formstate.Path{})
	j, _ := json.Marshal(data)
	fmt.Println(string(j))

	dirty, _ := m.IsFormDirty()
	fmt.Println("dirty:", dirty)

	// Output:
	// validation failed using onChange: name: name is required
	// <nil>
	// {"email":"bob@example.net","name":"bob","newsletter":true}
	// dirty: true
}
