// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package forms

import (
	"errors"
	"testing"

	"github.com/choria-io/formstate"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestForms(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Forms")
}

const signupForm = `
name: signup
description: Create an account
fields:
  - key: name
    label: Name
    validation:
      onChange:
        required: true
        message: name is required
  - key: email
    validation:
      onChange:
        tags: omitempty,email
        message: invalid email
  - key: newsletter
    control: confirm
    default: false
  - key: frequency
    control: select
    visible: false
    options:
      - label: Daily
        value: daily
      - label: Weekly
        value: weekly
  - key: password
    control: password
  - key: confirm
    control: password
refine:
  onChange:
    - expression: value.password == value.confirm
      path: [confirm]
      message: passwords do not match
rules:
  - name: frequency
    watch: [newsletter]
    when: value == true
    show: [frequency]
    set:
      frequency: weekly
`

const alertForm = `
fields:
  - key: count
    control: integer
    default: 1
  - key: confirmed
    control: confirm
rules:
  - watch: [count]
    when: value > 10
    alert:
      count: "{{ .value }} is a lot"
    disable: [confirmed]
`

func field(m *formstate.Model, path ...string) *formstate.FieldSnapshot {
	GinkgoHelper()

	s, ok := formstate.FindSnapshot(m.GetSnapshot(), formstate.Path(path)).(*formstate.FieldSnapshot)
	Expect(ok).To(BeTrue())

	return s
}

var _ = Describe("Forms", func() {
	Describe("LoadBytes", func() {
		It("Should parse definitions", func() {
			def, err := LoadBytes([]byte(signupForm))
			Expect(err).ToNot(HaveOccurred())

			Expect(def.Name).To(Equal("signup"))
			Expect(def.Fields).To(HaveLen(6))
			Expect(def.Fields[0].Validation).To(HaveKey(formstate.OnChange))
			Expect(*def.Fields[3].Visible).To(BeFalse())
			Expect(def.Fields[3].Options[1]).To(Equal(formstate.Option{Label: "Weekly", Value: "weekly"}))
			Expect(def.Refine[formstate.OnChange]).To(HaveLen(1))
			Expect(def.Rules[0].Watch).To(Equal([]string{"newsletter"}))
			Expect(def.Rules[0].Set).To(Equal(map[string]any{"frequency": "weekly"}))
		})

		It("Should require fields", func() {
			_, err := LoadBytes([]byte("name: empty\n"))
			Expect(err).To(MatchError("no fields defined"))
		})

		It("Should fail on invalid yaml", func() {
			_, err := LoadBytes([]byte("fields: [\n"))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("NewModel", func() {
		var (
			def *Definition
			m   *formstate.Model
		)

		BeforeEach(func() {
			var err error
			def, err = LoadBytes([]byte(signupForm))
			Expect(err).ToNot(HaveOccurred())

			m, err = NewModel(def)
			Expect(err).ToNot(HaveOccurred())
		})

		It("Should compile the fields", func() {
			Expect(field(m, "name").Required).To(BeTrue())
			Expect(field(m, "email").Required).To(BeFalse())
			Expect(field(m, "frequency").Visible).To(BeFalse())
			Expect(field(m, "frequency").Control).To(Equal(SelectControl))

			dirty, err := m.IsFormDirty()
			Expect(err).ToNot(HaveOccurred())
			Expect(dirty).To(BeFalse())
		})

		It("Should apply rules when watched fields change", func() {
			Expect(m.SetValue(formstate.Path{"newsletter"}, true)).To(Succeed())
			Expect(field(m, "frequency").Visible).To(BeTrue())

			v, err := m.GetValue(formstate.Path{"frequency"})
			Expect(err).ToNot(HaveOccurred())
			Expect(v).To(Equal("weekly"))

			Expect(m.SetValue(formstate.Path{"newsletter"}, false)).To(Succeed())
			Expect(field(m, "frequency").Visible).To(BeFalse())

			v, err = m.GetValue(formstate.Path{"frequency"})
			Expect(err).ToNot(HaveOccurred())
			Expect(v).To(Equal("weekly"))

			d, err := m.GetJSONData(formstate.Path{"frequency"})
			Expect(err).ToNot(HaveOccurred())
			Expect(d).To(BeNil())
		})

		It("Should validate using checks and refinements", func() {
			Expect(m.SetValue(formstate.Path{"password"}, "secret")).To(Succeed())
			Expect(m.SetValue(formstate.Path{"confirm"}, "other")).To(Succeed())

			err := m.ValidateField(formstate.Path{"confirm"}, true, formstate.OnChange)
			var verr *formstate.ValidationError
			Expect(errors.As(err, &verr)).To(BeTrue())
			Expect(verr.Issues.Messages()).To(Equal([]string{"passwords do not match"}))
			Expect(field(m, "confirm").Errors).To(HaveKeyWithValue(formstate.OnChange, []string{"passwords do not match"}))

			Expect(m.SetValue(formstate.Path{"email"}, "bob")).To(Succeed())
			err = m.ValidateField(formstate.Path{"email"}, false, formstate.OnChange)
			Expect(err).To(MatchError(ContainSubstring("invalid email")))

			Expect(m.SetValue(formstate.Path{"name"}, "bob")).To(Succeed())
			Expect(m.SetValue(formstate.Path{"email"}, "bob@example.net")).To(Succeed())
			Expect(m.SetValue(formstate.Path{"confirm"}, "secret")).To(Succeed())
			Expect(m.ValidateAllFields(formstate.OnChange)).To(Succeed())
			Expect(field(m, "confirm").Errors).To(BeEmpty())
		})
	})

	Describe("Rules", func() {
		It("Should set alerts and disable fields", func() {
			def, err := LoadBytes([]byte(alertForm))
			Expect(err).ToNot(HaveOccurred())

			m, err := NewModel(def)
			Expect(err).ToNot(HaveOccurred())

			Expect(field(m, "count").AlertTip).To(BeEmpty())
			Expect(field(m, "confirmed").Disabled).To(BeFalse())

			Expect(m.SetValue(formstate.Path{"count"}, 20)).To(Succeed())
			Expect(field(m, "count").AlertTip).To(Equal("20 is a lot"))
			Expect(field(m, "confirmed").Disabled).To(BeTrue())

			Expect(m.SetValue(formstate.Path{"count"}, 2)).To(Succeed())
			Expect(field(m, "count").AlertTip).To(BeEmpty())
			Expect(field(m, "confirmed").Disabled).To(BeFalse())
		})

		It("Should treat failing expressions as false", func() {
			def, err := LoadBytes([]byte(alertForm))
			Expect(err).ToNot(HaveOccurred())

			m, err := NewModel(def)
			Expect(err).ToNot(HaveOccurred())

			Expect(m.SetValue(formstate.Path{"count"}, 20)).To(Succeed())
			Expect(field(m, "confirmed").Disabled).To(BeTrue())

			Expect(m.SetValue(formstate.Path{"count"}, "many")).To(Succeed())
			Expect(field(m, "confirmed").Disabled).To(BeFalse())
		})

		It("Should require watched fields", func() {
			def := &Definition{
				Fields: []formstate.Field{{Key: "a"}},
				Rules:  []Rule{{Name: "lazy", Show: []string{"a"}}},
			}

			_, err := NewModel(def)
			Expect(err).To(MatchError("lazy: no watched fields"))
		})

		It("Should detect unknown paths", func() {
			def := &Definition{
				Fields: []formstate.Field{{Key: "a"}},
				Rules:  []Rule{{Watch: []string{"a"}, Hide: []string{"missing"}}},
			}

			_, err := NewModel(def)
			Expect(err).To(MatchError(formstate.ErrPathNotFound))
			Expect(err).To(MatchError(ContainSubstring("rule 0: ")))
		})

		It("Should detect invalid expressions", func() {
			def := &Definition{
				Fields: []formstate.Field{{Key: "a"}},
				Rules:  []Rule{{Name: "broken", Watch: []string{"a"}, When: "value >"}},
			}

			_, err := NewModel(def)
			Expect(err).To(MatchError(ContainSubstring("broken: invalid expression")))
		})

		It("Should address nested fields", func() {
			def := &Definition{
				Fields: []formstate.Field{
					{Key: "user", Fields: []formstate.Field{{Key: "admin", Default: false}}},
					{Key: "reason"},
				},
				Rules: []Rule{{Watch: []string{"user.admin"}, When: "watch['user.admin']", Set: map[string]any{"reason": "admin"}}},
			}

			m, err := NewModel(def)
			Expect(err).ToNot(HaveOccurred())

			v, err := m.GetValue(formstate.Path{"reason"})
			Expect(err).ToNot(HaveOccurred())
			Expect(v).To(BeNil())

			Expect(m.SetValue(formstate.Path{"user", "admin"}, true)).To(Succeed())
			v, err = m.GetValue(formstate.Path{"reason"})
			Expect(err).ToNot(HaveOccurred())
			Expect(v).To(Equal("admin"))
		})
	})
})
