// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package forms

import (
	"io"

	"github.com/AlecAivazis/survey/v2"
	"github.com/choria-io/formstate"
	"github.com/choria-io/formstate/validation"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

func testOpts(mock *Mocksurveyor) []processOption {
	return []processOption{
		withSurveyor(mock),
		withIsTerminal(func() bool { return true }),
		withOutput(io.Discard),
	}
}

// mockStart matches the "Press enter to start" prompt
func mockStart(mock *Mocksurveyor) *MocksurveyorAskOneCall {
	return mock.EXPECT().AskOne(gomock.Any(), gomock.Any()).Return(nil)
}

// mockStringResponse matches an AskOne call without validator opts
func mockStringResponse(mock *Mocksurveyor, answer string) *MocksurveyorAskOneCall {
	return mock.EXPECT().AskOne(gomock.Any(), gomock.Any()).
		DoAndReturn(func(p survey.Prompt, resp any, opts ...survey.AskOpt) error {
			if ptr, ok := resp.(*string); ok {
				*ptr = answer
			}
			return nil
		})
}

// mockStringResponseV matches an AskOne call with validator opts
func mockStringResponseV(mock *Mocksurveyor, answer string) *MocksurveyorAskOneCall {
	return mock.EXPECT().AskOne(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(p survey.Prompt, resp any, opts ...survey.AskOpt) error {
			if ptr, ok := resp.(*string); ok {
				*ptr = answer
			}
			return nil
		})
}

// mockConfirm matches a confirmation and records its message
func mockConfirm(mock *Mocksurveyor, answer bool, message *string) *MocksurveyorAskOneCall {
	return mock.EXPECT().AskOne(gomock.Any(), gomock.Any()).
		DoAndReturn(func(p survey.Prompt, resp any, opts ...survey.AskOpt) error {
			if c, ok := p.(*survey.Confirm); ok && message != nil {
				*message = c.Message
			}
			if ptr, ok := resp.(*bool); ok {
				*ptr = answer
			}
			return nil
		})
}

var _ = Describe("Fill", func() {
	var (
		ctrl *gomock.Controller
		mock *Mocksurveyor
		opts []processOption
	)

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		mock = NewMocksurveyor(ctrl)
		opts = testOpts(mock)
	})

	AfterEach(func() {
		ctrl.Finish()
	})

	newModel := func(def *Definition) *formstate.Model {
		GinkgoHelper()

		m, err := NewModel(def)
		Expect(err).ToNot(HaveOccurred())

		return m
	}

	It("Should fail when not a terminal", func() {
		def := &Definition{Fields: []formstate.Field{{Key: "x"}}}
		_, err := Fill(def, newModel(def), nil, withSurveyor(mock), withIsTerminal(func() bool { return false }), withOutput(io.Discard))
		Expect(err).To(MatchError("can only fill forms on a valid terminal"))
	})

	It("Should fail with no fields", func() {
		def := &Definition{Fields: []formstate.Field{{Key: "x"}}}
		m := newModel(def)

		_, err := Fill(&Definition{}, m, nil, opts...)
		Expect(err).To(MatchError("no fields defined"))
	})

	It("Should ask every field until the answers are valid", func() {
		def := &Definition{
			Description: "{{ .greeting }}",
			Fields: []formstate.Field{
				{Key: "name", Validator: validation.Required("name is required")},
				{Key: "age", Control: IntegerControl, Validator: validation.MustExpr("value >= 18", "must be an adult")},
				{Key: "admin", Control: ConfirmControl, Default: false},
			},
		}

		mockStart(mock)
		mockStringResponseV(mock, "bob")
		mockStringResponse(mock, "abc")
		mockStringResponse(mock, "16")
		mockStringResponse(mock, "21")
		mockConfirm(mock, true, nil)

		res, err := Fill(def, newModel(def), map[string]any{"greeting": "hello"}, opts...)
		Expect(err).ToNot(HaveOccurred())
		Expect(res).To(Equal(map[string]any{"name": "bob", "age": 21, "admin": true}))
	})

	It("Should skip fields hidden by rules", func() {
		def, err := LoadBytes([]byte(`
fields:
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
rules:
  - watch: [newsletter]
    when: value == true
    show: [frequency]
`))
		Expect(err).ToNot(HaveOccurred())

		mockStart(mock)
		mockConfirm(mock, false, nil)

		res, err := Fill(def, newModel(def), nil, opts...)
		Expect(err).ToNot(HaveOccurred())
		Expect(res).To(Equal(map[string]any{"newsletter": false}))

		mockStart(mock)
		mockConfirm(mock, true, nil)
		mockStringResponse(mock, "Weekly")

		res, err = Fill(def, newModel(def), nil, opts...)
		Expect(err).ToNot(HaveOccurred())
		Expect(res).To(Equal(map[string]any{"newsletter": true, "frequency": "weekly"}))
	})

	It("Should skip disabled fields", func() {
		def := &Definition{Fields: []formstate.Field{
			{Key: "name", Default: "bob", Disabled: true},
			{Key: "city"},
		}}

		mockStart(mock)
		mockStringResponse(mock, "Cape Town")

		res, err := Fill(def, newModel(def), nil, opts...)
		Expect(err).ToNot(HaveOccurred())
		Expect(res).To(Equal(map[string]any{"name": "bob", "city": "Cape Town"}))
	})

	It("Should add array entries while confirmed", func() {
		def := &Definition{Fields: []formstate.Field{
			{Key: "tags", Label: "Tags", Array: &formstate.Field{}},
		}}

		var first, second, last string

		mockStart(mock)
		mockConfirm(mock, true, &first)
		mockStringResponse(mock, "a")
		mockConfirm(mock, true, &second)
		mockStringResponse(mock, "b")
		mockConfirm(mock, false, &last)

		res, err := Fill(def, newModel(def), nil, opts...)
		Expect(err).ToNot(HaveOccurred())
		Expect(res).To(Equal(map[string]any{"tags": []any{"a", "b"}}))

		Expect(first).To(Equal("Add first 'Tags' entry"))
		Expect(second).To(Equal("Add additional 'Tags' entry"))
		Expect(last).To(Equal("Add additional 'Tags' entry"))
	})

	It("Should fill objects inside arrays", func() {
		def := &Definition{Fields: []formstate.Field{
			{Key: "people", Array: &formstate.Field{Fields: []formstate.Field{
				{Key: "name"},
				{Key: "age", Control: NumberControl},
			}}},
		}}

		mockStart(mock)
		mockConfirm(mock, true, nil)
		mockStringResponse(mock, "bob")
		mockStringResponse(mock, "1.5")
		mockConfirm(mock, false, nil)

		res, err := Fill(def, newModel(def), nil, opts...)
		Expect(err).ToNot(HaveOccurred())
		Expect(res).To(Equal(map[string]any{"people": []any{map[string]any{"name": "bob", "age": 1.5}}}))
	})

	It("Should reject unsupported controls", func() {
		def := &Definition{Fields: []formstate.Field{{Key: "x", Control: "slider"}}}

		mockStart(mock)

		_, err := Fill(def, newModel(def), nil, opts...)
		Expect(err).To(MatchError(ContainSubstring(`unsupported control "slider"`)))
	})
})
