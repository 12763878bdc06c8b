// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package formstate

import (
	"github.com/choria-io/formstate/validation"
)

// ValidateField validates the node at path using ruleset and records the issues
// found on every leaf at or below path, clearing them from leaves that passed.
//
// With enhancer set the composed validator of the top most node on the way to
// path is used so refinements registered higher up apply, otherwise only the
// validator of the node itself is used.
func (m *Model) ValidateField(path Path, enhancer bool, ruleset string) error {
	ruleset = rulesetOrDefault(ruleset)

	nodes, err := m.chain("validate", path)
	if err != nil {
		return err
	}
	target := nodes[len(nodes)-1]

	m.validators.rebuild()
	m.plain.rebuild()

	var anchor node
	var v validation.Validator

	if enhancer {
		for _, n := range nodes {
			if cv, ok := m.validators.validatorFor(n, ruleset); ok {
				anchor, v = n, cv
				break
			}
		}
	} else if cv, ok := m.validators.validatorFor(target, ruleset); ok {
		anchor, v = target, cv
	}

	var issues validation.Issues
	if v != nil {
		var data any
		if c := &anchor.base().plain; c.state == cacheHasValue {
			data = c.object
		}

		for _, is := range v.SafeParse(data).Prefixed(anchor.base().path...) {
			if Path(is.Path).HasPrefix(path) {
				issues = append(issues, is)
			}
		}
	}

	byLeaf := make(map[*fieldNode]validation.Issues)
	for _, is := range issues {
		if f := m.deepestLeaf(Path(is.Path)); f != nil {
			byLeaf[f] = append(byLeaf[f], is)
		}
	}

	eachLeaf(target, func(f *fieldNode) {
		found := byLeaf[f]
		_, had := f.errors[ruleset]

		switch {
		case len(found) > 0:
			f.errors[ruleset] = found
			m.touch(f)
		case had:
			delete(f.errors, ruleset)
			m.touch(f)
		}
	})

	m.Notify()

	if len(issues) == 0 {
		return nil
	}

	m.debugf("Validation of %s using %s found %d issues", path, ruleset, len(issues))

	return &ValidationError{Path: path.Clone(), Ruleset: ruleset, Issues: issues}
}

// ValidateFields validates every path in turn, all paths are validated and the first failure is returned
func (m *Model) ValidateFields(paths []Path, enhancer bool, ruleset string) error {
	var first error

	for _, p := range paths {
		err := m.ValidateField(p, enhancer, ruleset)
		if err != nil && first == nil {
			first = err
		}
	}

	return first
}

// ValidateAllFields validates the whole form using ruleset
func (m *Model) ValidateAllFields(ruleset string) error {
	return m.ValidateField(Path{}, false, ruleset)
}

// deepestLeaf follows path as far as the tree allows, nil unless that ends on a leaf
func (m *Model) deepestLeaf(path Path) *fieldNode {
	var cur node = m.root

	for _, k := range path {
		nn, ok := cur.(nestedNode)
		if !ok {
			break
		}

		next, ok := nn.nested().children.get(k)
		if !ok {
			break
		}
		cur = next
	}

	f, _ := cur.(*fieldNode)

	return f
}
