// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package formstate maintains the state of a form described by a Schema.
//
// The schema is compiled into a mutable tree of field, object and array nodes.
// Submitted data, composed validators and dirty state are derived from the tree
// through caches that are invalidated from a changed node up to the root and
// rebuilt lazily on the next read.
//
// Rules are effects registered with RegisterRule. They run once while their
// dependencies are collected and afterwards whenever a node they read changes,
// using the same commands external callers use to change the form.
//
// A Model is not safe for concurrent use, it expects a single writer such as
// one UI event loop.
package formstate

import (
	"fmt"
	"slices"
	"sort"

	"dario.cat/mergo"
	"github.com/mitchellh/copystructure"
)

// Logger is used for debug logging when set using Model.Logger
type Logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
}

type listener struct {
	fn func()
}

// Model is a compiled form, its rules and the caches derived from it
type Model struct {
	root      *objectNode
	initial   any
	rules     []*rule
	listeners []*listener
	version   uint64
	log       Logger

	validators *validatorCacheManager
	plain      *plainObjectCacheManager
	dirty      *dirtyValueCacheManager
}

// New compiles schema into a Model, the current values become the initial snapshot
func New(schema Schema) (*Model, error) {
	root, err := compileRoot(schema)
	if err != nil {
		return nil, err
	}

	m := &Model{
		root:       root,
		validators: &validatorCacheManager{root: root},
		plain:      &plainObjectCacheManager{root: root},
	}
	m.dirty = &dirtyValueCacheManager{root: root, initial: func() any { return m.initial }}

	m.plain.rebuild()
	m.initial = m.plain.finalPlainObject(false)

	return m, nil
}

// Logger configures a logger to use, no logging is done without this
func (m *Model) Logger(log Logger) {
	m.log = log
}

func (m *Model) debugf(format string, v ...any) {
	if m.log != nil {
		m.log.Debugf(format, v...)
	}
}

// Subscribe registers fn to be called on every Notify, the returned function removes it
func (m *Model) Subscribe(fn func()) func() {
	l := &listener{fn: fn}
	m.listeners = append(m.listeners, l)

	return func() {
		for i, e := range m.listeners {
			if e == l {
				m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}

// Notify calls every listener registered when the call starts, in registration order
func (m *Model) Notify() {
	current := append([]*listener(nil), m.listeners...)
	for _, l := range current {
		l.fn()
	}
}

// Initial rebuilds all caches, runs every rule once and notifies listeners
func (m *Model) Initial() error {
	m.rebuildAll()

	for _, r := range append([]*rule(nil), m.rules...) {
		if r.disposed {
			continue
		}

		err := m.runRule(r, Cause{Kind: CauseInitialRun})
		if err != nil {
			return err
		}
	}

	m.Notify()

	return nil
}

func (m *Model) rebuildAll() {
	m.plain.rebuild()
	m.validators.rebuild()
	m.dirty.rebuild()
}

// find locates the node at path
func (m *Model) find(op string, path Path) (node, error) {
	var cur node = m.root

	for _, k := range path {
		nn, ok := cur.(nestedNode)
		if !ok {
			return nil, pathError(op, path, ErrPathNotFound)
		}

		cur, ok = nn.nested().children.get(k)
		if !ok {
			return nil, pathError(op, path, ErrPathNotFound)
		}
	}

	return cur, nil
}

func (m *Model) findLeaf(op string, path Path) (*fieldNode, error) {
	n, err := m.find(op, path)
	if err != nil {
		return nil, err
	}

	f, ok := n.(*fieldNode)
	if !ok {
		return nil, pathError(op, path, ErrNotLeaf)
	}

	return f, nil
}

func (m *Model) findArray(op string, path Path) (*arrayNode, error) {
	n, err := m.find(op, path)
	if err != nil {
		return nil, err
	}

	a, ok := n.(*arrayNode)
	if !ok {
		return nil, pathError(op, path, ErrNotArray)
	}

	return a, nil
}

func (m *Model) findNested(op string, path Path) (nestedNode, error) {
	n, err := m.find(op, path)
	if err != nil {
		return nil, err
	}

	nn, ok := n.(nestedNode)
	if !ok {
		return nil, pathError(op, path, ErrNotNested)
	}

	return nn, nil
}

// chain returns the nodes from the root down to path
func (m *Model) chain(op string, path Path) ([]node, error) {
	res := []node{m.root}
	var cur node = m.root

	for _, k := range path {
		nn, ok := cur.(nestedNode)
		if !ok {
			return nil, pathError(op, path, ErrPathNotFound)
		}

		cur, ok = nn.nested().children.get(k)
		if !ok {
			return nil, pathError(op, path, ErrPathNotFound)
		}
		res = append(res, cur)
	}

	return res, nil
}

// touch stamps n and its ancestors with a new version so snapshots are rebuilt for them
func (m *Model) touch(n node) {
	m.version++
	ancestors(n, func(a node) {
		a.base().version = m.version
	})
}

func (m *Model) valueChanged(n node) {
	m.plain.updateNode(n)
	m.dirty.updateNode(n)
	m.touch(n)
}

func (m *Model) inclusionChanged(n node) {
	m.plain.updateNode(n)
	m.dirty.updateNode(n)
	m.touch(n)
}

func (m *Model) validatorChanged(n node, ruleset string) {
	m.validators.updateNode(n, ruleset)
	m.touch(n)
}

func (m *Model) structureChanged(n node) {
	m.plain.updateNode(n)
	m.dirty.updateNode(n)
	m.validators.updateNode(n, "")
	m.touch(n)
}

// GetValue is the value at path regardless of visibility or include policy.
// Arrays are returned as Items and objects as maps, nested values are copies.
func (m *Model) GetValue(path Path) (any, error) {
	n, err := m.find("get value", path)
	if err != nil {
		return nil, err
	}

	if f, ok := n.(*fieldNode); ok {
		return f.value, nil
	}

	return copyValue(m.plain.build(n).all)
}

// GetJSONData is the submitted value at path, arrays are exported as lists.
// Nil is returned when the node is not included. The result is a copy.
func (m *Model) GetJSONData(path Path) (any, error) {
	n, err := m.find("get data", path)
	if err != nil {
		return nil, err
	}

	m.plain.rebuild()

	c := &n.base().plain
	if c.state != cacheHasValue {
		return nil, nil
	}

	return copyValue(c.submit)
}

// GetJSONDataByPath combines the submitted values of paths into one object
// shaped like the form. Paths under a hidden node and nil values are skipped,
// array items are addressed by key.
func (m *Model) GetJSONDataByPath(paths []Path) (map[string]any, error) {
	m.plain.rebuild()

	res := make(map[string]any)

	for _, p := range paths {
		nodes, err := m.chain("get data", p)
		if err != nil {
			return nil, err
		}

		if slices.ContainsFunc(nodes, func(n node) bool { return !nodeVisible(n) }) {
			continue
		}

		c := &nodes[len(nodes)-1].base().plain
		if c.state != cacheHasValue || c.submit == nil {
			continue
		}

		v, err := copyValue(c.submit)
		if err != nil {
			return nil, err
		}

		for i := len(p) - 1; i >= 0; i-- {
			v = map[string]any{p[i]: v}
		}

		frag, ok := v.(map[string]any)
		if !ok {
			continue
		}

		err = mergo.Merge(&res, frag, mergo.WithOverride)
		if err != nil {
			return nil, fmt.Errorf("could not merge %s: %w", p, err)
		}
	}

	return res, nil
}

func nodeVisible(n node) bool {
	switch n := n.(type) {
	case *fieldNode:
		return n.visible
	case *objectNode:
		return n.visible
	case *arrayNode:
		return n.visible
	default:
		panic(fmt.Sprintf("unknown node type %T", n))
	}
}

// GetObjectData is like GetJSONData but exports arrays as Items keyed by item key
func (m *Model) GetObjectData(path Path) (any, error) {
	n, err := m.find("get data", path)
	if err != nil {
		return nil, err
	}

	m.plain.rebuild()

	c := &n.base().plain
	if c.state != cacheHasValue {
		return nil, nil
	}

	return copyValue(c.object)
}

// GetIsDirty reports whether the submitted state at path differs from the initial snapshot
func (m *Model) GetIsDirty(path Path) (bool, error) {
	_, err := m.find("is dirty", path)
	if err != nil {
		return false, err
	}

	m.dirty.rebuild()

	return m.dirty.isDirty(path)
}

// IsFormDirty reports whether any submitted data differs from the initial snapshot
func (m *Model) IsFormDirty() (bool, error) {
	return m.GetIsDirty(Path{})
}

// InitialValue is the initial snapshot used for dirty tracking and resets
func (m *Model) InitialValue() any {
	return m.initial
}

// GetAllLeafPaths lists the path of every leaf at or below path in order
func (m *Model) GetAllLeafPaths(path Path) ([]Path, error) {
	n, err := m.find("leaf paths", path)
	if err != nil {
		return nil, err
	}

	var res []Path
	eachLeaf(n, func(f *fieldNode) {
		res = append(res, f.path.Clone())
	})

	return res, nil
}

// GetErrors returns the messages of every leaf with validation issues keyed by dotted path and ruleset
func (m *Model) GetErrors() map[string]map[string][]string {
	res := make(map[string]map[string][]string)

	eachLeaf(m.root, func(f *fieldNode) {
		for rs, iss := range f.errors {
			if len(iss) == 0 {
				continue
			}
			if res[f.path.String()] == nil {
				res[f.path.String()] = make(map[string][]string)
			}
			res[f.path.String()][rs] = iss.Messages()
		}
	})

	return res
}

// Rulesets lists every ruleset any leaf has a validator for
func (m *Model) Rulesets() []string {
	var res []string
	seen := make(map[string]bool)

	eachLeaf(m.root, func(f *fieldNode) {
		for rs := range f.validation {
			if !seen[rs] {
				seen[rs] = true
				res = append(res, rs)
			}
		}
	})

	sort.Strings(res)

	return res
}

func copyValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	res, err := copystructure.Copy(v)
	if err != nil {
		return nil, fmt.Errorf("could not copy value: %w", err)
	}

	return res, nil
}
