// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package formstate

import (
	"slices"
	"strings"
)

// Path identifies a node by the keys leading to it from the root, the empty path is the root
type Path []string

// ParsePath parses a dotted path like "user.name", the empty string is the root
func ParsePath(s string) Path {
	s = strings.TrimSpace(s)
	if s == "" {
		return Path{}
	}

	return Path(strings.Split(s, "."))
}

// String renders the path in dotted form
func (p Path) String() string {
	return strings.Join(p, ".")
}

// Equal reports whether p and o hold the same keys
func (p Path) Equal(o Path) bool {
	return slices.Equal(p, o)
}

// HasPrefix reports whether prefix is p or one of its ancestors
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}

	return slices.Equal(p[:len(prefix)], prefix)
}

// Child returns a new path with keys appended, p is not modified
func (p Path) Child(keys ...string) Path {
	res := make(Path, 0, len(p)+len(keys))
	res = append(res, p...)

	return append(res, keys...)
}

// Parent returns the path of the parent node, the root is its own parent
func (p Path) Parent() Path {
	if len(p) == 0 {
		return Path{}
	}

	return p[:len(p)-1].Clone()
}

// Last is the final key or empty for the root
func (p Path) Last() string {
	if len(p) == 0 {
		return ""
	}

	return p[len(p)-1]
}

// Clone returns a copy of p
func (p Path) Clone() Path {
	if p == nil {
		return Path{}
	}

	return slices.Clone(p)
}
