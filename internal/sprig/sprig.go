// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package sprig extends the sprig template functions with helpers used when
// rendering form help text and alerts
package sprig

import (
	"strings"
	"text/template"

	upstream "github.com/Masterminds/sprig/v3"
)

// TxtFuncMap is the sprig text function map with the form helpers added
func TxtFuncMap() template.FuncMap {
	fm := upstream.TxtFuncMap()

	fm["uuidv4"] = uuidv4
	fm["randBytes"] = randBytes
	fm["dotted"] = dotted
	fm["answered"] = answered

	return fm
}

// dotted joins path keys the way form paths are written
func dotted(keys ...string) string {
	return strings.Join(keys, ".")
}

// answered reports whether a form value was given
func answered(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(val) != ""
	default:
		return true
	}
}
