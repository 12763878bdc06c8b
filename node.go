// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package formstate

import (
	"fmt"
	"slices"

	"github.com/choria-io/formstate/validation"
)

// node is implemented by the three node variants, *fieldNode, *objectNode and
// *arrayNode. Every switch over nodes handles all three and panics otherwise.
type node interface {
	base() *nodeBase
}

// nestedNode is implemented by *objectNode and *arrayNode
type nestedNode interface {
	node
	nested() *nestedBase
}

// nodeBase holds what every node variant shares: its place in the tree, the
// rules that track it and the per node state of each cache
type nodeBase struct {
	key       string
	path      Path
	parent    nestedNode
	rootArray *arrayNode
	rules     []*rule

	plain      plainCache
	validators validatorCache
	dirty      dirtyCache

	// version is stamped on every change to the node or its descendants
	version     uint64
	snapVersion uint64
	snap        Snapshot
}

func (b *nodeBase) base() *nodeBase { return b }

func (b *nodeBase) addRule(r *rule) {
	if !slices.Contains(b.rules, r) {
		b.rules = append(b.rules, r)
	}
}

func (b *nodeBase) removeRule(r *rule) {
	b.rules = slices.DeleteFunc(b.rules, func(e *rule) bool { return e == r })
}

// fieldNode is a leaf holding a value
type fieldNode struct {
	nodeBase

	value      any
	visible    bool
	disabled   bool
	include    IncludePolicy
	validation map[string]validation.Validator
	errors     map[string]validation.Issues
	required   bool
	source     Source

	label    string
	help     string
	alertTip string
	control  string
	options  []Option
	props    map[string]any
}

// updateRequired recomputes required from the validators and reports if it changed
func (f *fieldNode) updateRequired() bool {
	req := false
	for _, v := range f.validation {
		if !validation.IsOptional(v) {
			req = true
			break
		}
	}

	changed := req != f.required
	f.required = req

	return changed
}

// nestedBase is shared by objects and arrays
type nestedBase struct {
	nodeBase

	children childList
	visible  bool
	include  IncludePolicy
	refiners map[string]validation.RefineFunc
	label    string
	help     string
}

func (n *nestedBase) nested() *nestedBase { return n }

// objectNode is a nested node with a fixed shape
type objectNode struct {
	nestedBase
}

// arrayNode is a nested node whose children are created from template at runtime
type arrayNode struct {
	nestedBase

	template *Field
}

// childList is an ordered set of uniquely keyed child nodes
type childList struct {
	order []node
	byKey map[string]node
}

func (c *childList) len() int {
	return len(c.order)
}

func (c *childList) get(key string) (node, bool) {
	n, ok := c.byKey[key]
	return n, ok
}

func (c *childList) index(key string) int {
	return slices.IndexFunc(c.order, func(n node) bool { return n.base().key == key })
}

func (c *childList) keys() []string {
	res := make([]string, len(c.order))
	for i, n := range c.order {
		res[i] = n.base().key
	}

	return res
}

func (c *childList) each(cb func(node)) {
	for _, n := range c.order {
		cb(n)
	}
}

func (c *childList) add(n node) error {
	return c.insert(len(c.order), n)
}

// insert places nodes at idx in order, no node is added if any key is already present
func (c *childList) insert(idx int, nodes ...node) error {
	if c.byKey == nil {
		c.byKey = make(map[string]node)
	}

	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		k := n.base().key
		if _, ok := c.byKey[k]; ok || seen[k] {
			return fmt.Errorf("%w %q", ErrDuplicateKey, k)
		}
		seen[k] = true
	}

	idx = max(0, min(idx, len(c.order)))
	c.order = slices.Insert(c.order, idx, nodes...)
	for _, n := range nodes {
		c.byKey[n.base().key] = n
	}

	return nil
}

func (c *childList) remove(key string) bool {
	if _, ok := c.byKey[key]; !ok {
		return false
	}

	delete(c.byKey, key)
	c.order = slices.DeleteFunc(c.order, func(n node) bool { return n.base().key == key })

	return true
}

func (c *childList) reset() {
	c.order = nil
	c.byKey = make(map[string]node)
}

// ancestors calls cb for n and each of its ancestors up to the root
func ancestors(n node, cb func(node)) {
	for cur := n; cur != nil; {
		cb(cur)

		p := cur.base().parent
		if p == nil {
			return
		}
		cur = p
	}
}

// eachLeaf calls cb for every leaf at or below n in order
func eachLeaf(n node, cb func(*fieldNode)) {
	switch n := n.(type) {
	case *fieldNode:
		cb(n)
	case *objectNode:
		n.children.each(func(c node) { eachLeaf(c, cb) })
	case *arrayNode:
		n.children.each(func(c node) { eachLeaf(c, cb) })
	default:
		panic(fmt.Sprintf("unknown node type %T", n))
	}
}

// eachNode calls cb for n and every descendant, parents first
func eachNode(n node, cb func(node)) {
	cb(n)

	if nn, ok := n.(nestedNode); ok {
		nn.nested().children.each(func(c node) { eachNode(c, cb) })
	}
}

func nodeKind(n node) Kind {
	switch n.(type) {
	case *fieldNode:
		return KindField
	case *objectNode:
		return KindObject
	case *arrayNode:
		return KindArray
	default:
		panic(fmt.Sprintf("unknown node type %T", n))
	}
}
