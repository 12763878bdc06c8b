// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package validation

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	tagValidate     *validator.Validate
	tagValidateOnce sync.Once
)

func tagValidator() *validator.Validate {
	tagValidateOnce.Do(func() {
		tagValidate = validator.New()
	})

	return tagValidate
}

// TagValidator validates a value using go-playground/validator tags such as "required,min=3"
type TagValidator struct {
	tags     string
	message  string
	optional bool
}

// Tag creates a tag based validator, when message is empty the failing tag names are reported
func Tag(tags string, message string) (*TagValidator, error) {
	tags = strings.TrimSpace(tags)
	if tags == "" {
		return nil, fmt.Errorf("tags are required")
	}

	t := &TagValidator{tags: tags, message: message}
	t.optional = slices.Contains(strings.Split(tags, ","), "omitempty")

	return t, nil
}

// MustTag is like Tag but panics on error
func MustTag(tags string, message string) *TagValidator {
	t, err := Tag(tags, message)
	if err != nil {
		panic(err)
	}

	return t
}

func (t *TagValidator) IsOptional() bool {
	return t.optional
}

func (t *TagValidator) SafeParse(input any) Issues {
	if input == nil {
		if t.optional {
			return nil
		}

		return Issues{{Message: t.messageFor("required")}}
	}

	err := tagValidator().Var(input, t.tags)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Issues{{Message: err.Error()}}
	}

	var res Issues
	for _, fe := range verrs {
		res = append(res, Issue{Message: t.messageFor(fe.Tag())})
	}

	return res
}

func (t *TagValidator) messageFor(tag string) string {
	if t.message != "" {
		return t.message
	}

	return fmt.Sprintf("failed on the '%s' validation", tag)
}
