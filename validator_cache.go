// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package formstate

import (
	"fmt"

	"github.com/choria-io/formstate/validation"
)

// cacheState is the tri-state every node cache is in
type cacheState int

const (
	cacheDirty cacheState = iota
	cacheHidden
	cacheHasValue
)

type validatorEntry struct {
	state     cacheState
	validator validation.Validator
}

// validatorCache holds the composed validators of a node keyed by ruleset. The
// zero value is dirty for every ruleset.
type validatorCache struct {
	built   bool
	entries map[string]*validatorEntry
}

func (c *validatorCache) isDirty() bool {
	if !c.built {
		return true
	}

	for _, e := range c.entries {
		if e.state == cacheDirty {
			return true
		}
	}

	return false
}

func (c *validatorCache) markDirty(ruleset string) {
	if ruleset == "" || !c.built {
		c.built = false
		return
	}

	if c.entries == nil {
		c.entries = make(map[string]*validatorEntry)
	}

	e, ok := c.entries[ruleset]
	if !ok {
		c.entries[ruleset] = &validatorEntry{state: cacheDirty}
		return
	}
	e.state = cacheDirty
}

// dirtyRulesets are the rulesets needing a rebuild, nil with all true when everything does
func (c *validatorCache) dirtyRulesets() (rulesets []string, all bool) {
	if !c.built {
		return nil, true
	}

	for rs, e := range c.entries {
		if e.state == cacheDirty {
			rulesets = append(rulesets, rs)
		}
	}

	return rulesets, false
}

// validatorCacheManager derives the composed validator of every node per ruleset.
// Leaves contribute their own validator while visible, nested nodes compose an
// object validator over the children that have one for the same ruleset.
type validatorCacheManager struct {
	root *objectNode
}

// updateNode marks ruleset, or all rulesets when empty, dirty on n and its ancestors
func (m *validatorCacheManager) updateNode(n node, ruleset string) {
	ancestors(n, func(a node) {
		a.base().validators.markDirty(ruleset)
	})
}

// invalidateAll marks every node dirty
func (m *validatorCacheManager) invalidateAll() {
	eachNode(m.root, func(n node) {
		n.base().validators.markDirty("")
	})
}

func (m *validatorCacheManager) rebuild() {
	m.build(m.root)
}

// validatorFor is the composed validator for n, only valid after rebuild
func (m *validatorCacheManager) validatorFor(n node, ruleset string) (validation.Validator, bool) {
	e, ok := n.base().validators.entries[ruleset]
	if !ok || e.state != cacheHasValue {
		return nil, false
	}

	return e.validator, true
}

// finalValidator is the root validator for ruleset, callers must rebuild first
func (m *validatorCacheManager) finalValidator(ruleset string) (validation.Validator, bool) {
	return m.validatorFor(m.root, ruleset)
}

func (m *validatorCacheManager) build(n node) {
	c := &n.base().validators
	if !c.isDirty() {
		return
	}

	rulesets, all := c.dirtyRulesets()

	switch n := n.(type) {
	case *fieldNode:
		m.buildField(n, rulesets, all)
	case *objectNode:
		m.buildNested(&n.nestedBase, rulesets, all)
	case *arrayNode:
		m.buildNested(&n.nestedBase, rulesets, all)
	default:
		panic(fmt.Sprintf("unknown node type %T", n))
	}

	c.built = true
}

func (m *validatorCacheManager) buildField(f *fieldNode, rulesets []string, all bool) {
	c := &f.validators

	if all {
		c.entries = make(map[string]*validatorEntry, len(f.validation))
		for rs := range f.validation {
			c.entries[rs] = fieldEntry(f, rs)
		}
		return
	}

	for _, rs := range rulesets {
		if _, ok := f.validation[rs]; !ok {
			delete(c.entries, rs)
			continue
		}
		c.entries[rs] = fieldEntry(f, rs)
	}
}

func fieldEntry(f *fieldNode, ruleset string) *validatorEntry {
	if !f.visible {
		return &validatorEntry{state: cacheHidden}
	}

	return &validatorEntry{state: cacheHasValue, validator: f.validation[ruleset]}
}

func (m *validatorCacheManager) buildNested(n *nestedBase, rulesets []string, all bool) {
	c := &n.validators

	n.children.each(func(child node) {
		m.build(child)
	})

	if all {
		rulesets = nil
		seen := make(map[string]bool)
		n.children.each(func(child node) {
			for rs, e := range child.base().validators.entries {
				if e.state == cacheHasValue && !seen[rs] {
					seen[rs] = true
					rulesets = append(rulesets, rs)
				}
			}
		})
		c.entries = make(map[string]*validatorEntry, len(rulesets))
	}

	for _, rs := range rulesets {
		v, ok := m.compose(n, rs)
		if !ok {
			delete(c.entries, rs)
			continue
		}
		c.entries[rs] = &validatorEntry{state: cacheHasValue, validator: v}
	}
}

// compose builds the object validator of n for ruleset, false when no child has a validator for it.
// Hidden nested nodes compose nothing.
func (m *validatorCacheManager) compose(n *nestedBase, ruleset string) (validation.Validator, bool) {
	if !n.visible {
		return nil, false
	}

	fields := make(map[string]validation.Validator)
	var keys []string

	n.children.each(func(child node) {
		e, ok := child.base().validators.entries[ruleset]
		if !ok || e.state != cacheHasValue {
			return
		}

		k := child.base().key
		keys = append(keys, k)
		fields[k] = e.validator
	})

	if len(keys) == 0 {
		return nil, false
	}

	var v validation.Validator = validation.Object(keys, fields)
	if fn, ok := n.refiners[ruleset]; ok {
		v = validation.Refine(v, fn)
	}

	return v, true
}
