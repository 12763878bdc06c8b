// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package formstate

import (
	"fmt"
)

// dirtyCache records, once built, whether a node is included in submitted data
// and whether it differs from the initial snapshot
type dirtyCache struct {
	state   cacheState
	include bool
	dirty   bool
}

// dirtyValueCacheManager compares every node against the value at the same
// position in the initial snapshot
type dirtyValueCacheManager struct {
	root    *objectNode
	initial func() any
}

func (m *dirtyValueCacheManager) updateNode(n node) {
	ancestors(n, func(a node) {
		a.base().dirty.state = cacheDirty
	})
}

// invalidateAll marks every node dirty, needed whenever the initial snapshot changes
func (m *dirtyValueCacheManager) invalidateAll() {
	eachNode(m.root, func(n node) {
		n.base().dirty.state = cacheDirty
	})
}

func (m *dirtyValueCacheManager) rebuild() {
	snap := m.initial()
	m.build(m.root, snap, snap != nil)
}

// isDirty walks from the root to path. A node that is not included decides the
// answer on its own since nothing below it is submitted.
func (m *dirtyValueCacheManager) isDirty(path Path) (bool, error) {
	var cur node = m.root

	for i := 0; ; i++ {
		c := cur.base().dirty
		if c.state == cacheDirty {
			return false, pathError("is dirty", cur.base().path, ErrDirtyCache)
		}

		if !c.include || i == len(path) {
			return c.dirty, nil
		}

		nn, ok := cur.(nestedNode)
		if !ok {
			return false, pathError("is dirty", path, ErrPathNotFound)
		}

		next, ok := nn.nested().children.get(path[i])
		if !ok {
			return false, pathError("is dirty", path, ErrPathNotFound)
		}
		cur = next
	}
}

func (m *dirtyValueCacheManager) build(n node, initial any, present bool) *dirtyCache {
	c := &n.base().dirty
	if c.state != cacheDirty {
		return c
	}

	switch n := n.(type) {
	case *fieldNode:
		c.include = leafIncluded(n)
		c.dirty = c.include != present || (c.include && !sameValue(n.value, initial))

	case *objectNode:
		anyChild, anyDirty, _ := m.buildChildren(&n.nestedBase, initial, present)
		c.include = nestedIncluded(&n.nestedBase, anyChild)
		c.dirty = c.include != present || (c.include && anyDirty)

	case *arrayNode:
		anyChild, anyDirty, included := m.buildChildren(&n.nestedBase, initial, present)
		c.include = nestedIncluded(&n.nestedBase, anyChild)
		// only included items are submitted so they are what gets compared with the initial length
		c.dirty = c.include != present || (c.include && (anyDirty || included != initialLen(initial)))

	default:
		panic(fmt.Sprintf("unknown node type %T", n))
	}

	c.state = cacheHasValue

	return c
}

func (m *dirtyValueCacheManager) buildChildren(n *nestedBase, initial any, present bool) (anyChild bool, anyDirty bool, included int) {
	n.children.each(func(child node) {
		var ci any
		var cp bool
		if present {
			ci, cp = lookupKey(initial, child.base().key)
		}

		cc := m.build(child, ci, cp)
		if cc.include {
			anyChild = true
			included++
		}
		if cc.dirty {
			anyDirty = true
		}
	})

	return anyChild, anyDirty, included
}

func initialLen(v any) int {
	switch val := v.(type) {
	case Items:
		return len(val)
	case map[string]any:
		return len(val)
	case []any:
		return len(val)
	default:
		return 0
	}
}
