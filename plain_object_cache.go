// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package formstate

import (
	"fmt"
)

// plainCache holds the exported values of a node. submit and object are only
// meaningful in the cacheHasValue state, all is kept for hidden nodes too.
type plainCache struct {
	state cacheState
	// submit exports arrays as []any
	submit any
	// object exports arrays as Items
	object any
	// all is shaped like object but ignores inclusion
	all any
}

func leafIncluded(f *fieldNode) bool {
	return f.include == IncludeAlways || (f.visible && f.include != IncludeNever)
}

func nestedMaybeIncluded(n *nestedBase) bool {
	return n.include == IncludeAlways || (n.visible && n.include != IncludeNever) || n.include == IncludeWhenChildrenInclude
}

// nestedIncluded applies the nested inclusion rule given whether any child is included
func nestedIncluded(n *nestedBase, anyChild bool) bool {
	if !nestedMaybeIncluded(n) {
		return false
	}

	if n.include == IncludeWhenChildrenInclude {
		return anyChild
	}

	return true
}

// plainObjectCacheManager derives the submitted, object only and includes
// hidden projections of every node
type plainObjectCacheManager struct {
	root *objectNode
}

// updateNode marks n and its ancestors dirty
func (m *plainObjectCacheManager) updateNode(n node) {
	ancestors(n, func(a node) {
		a.base().plain.state = cacheDirty
	})
}

func (m *plainObjectCacheManager) invalidateAll() {
	eachNode(m.root, func(n node) {
		n.base().plain.state = cacheDirty
	})
}

func (m *plainObjectCacheManager) rebuild() {
	m.build(m.root)
}

// finalPlainObject is the submit or object only value of the whole form, nil when the root is hidden
func (m *plainObjectCacheManager) finalPlainObject(isSubmit bool) any {
	c := &m.root.plain
	if c.state != cacheHasValue {
		return nil
	}

	if isSubmit {
		return c.submit
	}

	return c.object
}

func (m *plainObjectCacheManager) build(n node) *plainCache {
	c := &n.base().plain
	if c.state != cacheDirty {
		return c
	}

	switch n := n.(type) {
	case *fieldNode:
		c.all = n.value
		if leafIncluded(n) {
			c.state = cacheHasValue
			c.submit = n.value
			c.object = n.value
		} else {
			c.state = cacheHidden
			c.submit = nil
			c.object = nil
		}

	case *objectNode:
		all := make(map[string]any, n.children.len())
		submit := make(map[string]any)
		object := make(map[string]any)
		anyChild := false

		n.children.each(func(child node) {
			cc := m.build(child)
			k := child.base().key

			all[k] = cc.all
			if cc.state == cacheHasValue {
				anyChild = true
				submit[k] = cc.submit
				object[k] = cc.object
			}
		})

		m.setNested(c, &n.nestedBase, anyChild, submit, object, all)

	case *arrayNode:
		all := make(Items, 0, n.children.len())
		submit := make([]any, 0, n.children.len())
		object := make(Items, 0, n.children.len())
		anyChild := false

		n.children.each(func(child node) {
			cc := m.build(child)
			k := child.base().key

			all = append(all, Item{Key: k, Value: cc.all})
			if cc.state == cacheHasValue {
				anyChild = true
				submit = append(submit, cc.submit)
				object = append(object, Item{Key: k, Value: cc.object})
			}
		})

		m.setNested(c, &n.nestedBase, anyChild, submit, object, all)

	default:
		panic(fmt.Sprintf("unknown node type %T", n))
	}

	return c
}

func (m *plainObjectCacheManager) setNested(c *plainCache, n *nestedBase, anyChild bool, submit any, object any, all any) {
	c.all = all

	if !nestedIncluded(n, anyChild) {
		c.state = cacheHidden
		c.submit = nil
		c.object = nil
		return
	}

	c.state = cacheHasValue
	c.submit = submit
	c.object = object
}
