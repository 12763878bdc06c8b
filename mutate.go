// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package formstate

import (
	"fmt"
	"maps"

	"github.com/choria-io/formstate/validation"
	"github.com/google/uuid"
)

// Position places inserted array items relative to an existing item
type Position string

const (
	Before Position = "before"
	After  Position = "after"
)

// writeMode controls how values are written into a subtree
type writeMode struct {
	source       Source
	keepPrevious bool
	// guardUser skips leaves last written by the user
	guardUser bool
}

// SetValue sets the value of the leaf at path, writing the current value again does nothing
func (m *Model) SetValue(path Path, value any, opts ...MutateOption) error {
	o := newMutateOptions(opts)

	f, err := m.findLeaf("set value", path)
	if err != nil {
		return err
	}

	if sameValue(f.value, value) {
		return nil
	}

	f.value = value
	f.source = SourceUser
	m.valueChanged(f)

	t := &triggers{}
	t.leafChanged(f)

	return m.dispatch(t, o)
}

// SetValues merges values into the subtree at path. Array items are matched by
// key, unknown keys are compiled from the array template and items missing from
// values are removed unless KeepPrevious is given.
func (m *Model) SetValues(path Path, values any, opts ...MutateOption) error {
	o := newMutateOptions(opts)

	n, err := m.find("set values", path)
	if err != nil {
		return err
	}

	t := &triggers{}
	err = m.write(n, values, writeMode{source: SourceUser, keepPrevious: o.keepPrevious}, t)
	if err != nil {
		return err
	}

	return m.dispatch(t, o)
}

// SetValuesIfUserNotModified merges values like SetValues but leaves untouched
// any leaf the user wrote. Written leaves are tagged as SourceSource. Unless
// makeDirty is set the written subtree also replaces the initial snapshot.
func (m *Model) SetValuesIfUserNotModified(path Path, values any, makeDirty bool) error {
	n, err := m.find("set values", path)
	if err != nil {
		return err
	}

	t := &triggers{}
	err = m.write(n, values, writeMode{source: SourceSource, guardUser: true}, t)
	if err != nil {
		return err
	}

	if !makeDirty {
		m.replaceInitial(n)
	}

	return m.dispatch(t, newMutateOptions(nil))
}

// LoadData writes data into the subtree at path tagging leaves as SourceInitial,
// the written subtree replaces the initial snapshot at path
func (m *Model) LoadData(data any, path Path) error {
	n, err := m.find("load data", path)
	if err != nil {
		return err
	}

	t := &triggers{}
	err = m.write(n, data, writeMode{source: SourceInitial}, t)
	if err != nil {
		return err
	}

	m.replaceInitial(n)
	m.debugf("Loaded data into %s", path)

	return m.dispatch(t, newMutateOptions(nil))
}

// replaceInitial copies the object only value of n into the initial snapshot
func (m *Model) replaceInitial(n node) {
	m.plain.rebuild()

	c := &n.base().plain
	m.initial = withValueAt(m.initial, n.base().path, c.object, c.state == cacheHasValue)
	m.dirty.invalidateAll()
}

// write merges value into n
func (m *Model) write(n node, value any, wm writeMode, t *triggers) error {
	switch n := n.(type) {
	case *fieldNode:
		if wm.guardUser && n.source == SourceUser {
			return nil
		}

		changed := !sameValue(n.value, value)
		if changed {
			n.value = value
			m.valueChanged(n)
			t.leafChanged(n)
		}

		if n.source != wm.source {
			n.source = wm.source
			m.touch(n)
		}

		return nil

	case *objectNode:
		if value == nil {
			return nil
		}

		values, ok := asObject(value)
		if !ok {
			return pathError("write", n.path, fmt.Errorf("%w: expected object, received %T", ErrInvalidValue, value))
		}

		for _, child := range n.children.order {
			v, ok := values[child.base().key]
			if !ok {
				continue
			}

			err := m.write(child, v, wm, t)
			if err != nil {
				return err
			}
		}

		return nil

	case *arrayNode:
		if value == nil {
			return nil
		}

		entries, err := toItems(value)
		if err != nil {
			return pathError("write", n.path, err)
		}

		return m.writeArray(n, entries, wm, t)

	default:
		panic(fmt.Sprintf("unknown node type %T", n))
	}
}

func (m *Model) writeArray(a *arrayNode, entries Items, wm writeMode, t *triggers) error {
	structural := false
	incoming := make(map[string]bool, len(entries))

	for _, e := range entries {
		incoming[e.Key] = true

		child, ok := a.children.get(e.Key)
		if ok {
			err := m.write(child, e.Value, wm, t)
			if err != nil {
				return err
			}
			continue
		}

		nc, err := compileNode(a.template, e.Key, a, a, e.Value, true, wm.source)
		if err != nil {
			return err
		}

		err = a.children.add(nc)
		if err != nil {
			return pathError("write", a.path, err)
		}
		structural = true
	}

	if !wm.keepPrevious {
		for _, k := range a.children.keys() {
			if incoming[k] {
				continue
			}

			if child, _ := a.children.get(k); wm.guardUser && userModified(child) {
				continue
			}

			a.children.remove(k)
			structural = true
		}
	}

	if structural {
		m.structureChanged(a)
		t.childrenChanged(a)
	}

	return nil
}

// userModified reports whether any leaf at or below n was last written by the user
func userModified(n node) bool {
	found := false
	eachLeaf(n, func(f *fieldNode) {
		if f.source == SourceUser {
			found = true
		}
	})

	return found
}

// SetArray replaces every item of the array at path with items compiled from value
func (m *Model) SetArray(path Path, value any, opts ...MutateOption) error {
	o := newMutateOptions(opts)

	a, err := m.findArray("set array", path)
	if err != nil {
		return err
	}

	entries, err := toItems(value)
	if err != nil {
		return pathError("set array", path, err)
	}

	err = m.replaceArray(a, entries, SourceUser)
	if err != nil {
		return err
	}

	t := &triggers{}
	t.childrenChanged(a)

	return m.dispatch(t, o)
}

func (m *Model) replaceArray(a *arrayNode, entries Items, src Source) error {
	children, err := compileArrayChildren(a, entries, src)
	if err != nil {
		return err
	}

	var next childList
	next.reset()
	err = next.insert(0, children...)
	if err != nil {
		return pathError("set array", a.path, err)
	}

	a.children = next
	m.structureChanged(a)

	return nil
}

// InsertIntoArray compiles items from value and places them before or after the
// item identified by key, or at the start or end when key is not found. Lists
// and single values get generated keys, keyed objects keep their keys.
func (m *Model) InsertIntoArray(path Path, value any, pos Position, key string) error {
	a, err := m.findArray("insert into array", path)
	if err != nil {
		return err
	}

	entries, err := insertItems(value)
	if err != nil {
		return pathError("insert into array", path, err)
	}

	children, err := compileArrayChildren(a, entries, SourceUser)
	if err != nil {
		return err
	}

	idx := a.children.index(key)
	switch {
	case idx == -1 && pos == Before:
		idx = 0
	case idx == -1:
		idx = a.children.len()
	case pos == After:
		idx++
	}

	err = a.children.insert(idx, children...)
	if err != nil {
		return pathError("insert into array", path, err)
	}

	m.structureChanged(a)

	t := &triggers{}
	t.childrenChanged(a)

	return m.dispatch(t, newMutateOptions(nil))
}

// AppendToArray adds items compiled from value to the end of the array at path
func (m *Model) AppendToArray(path Path, value any) error {
	return m.InsertIntoArray(path, value, After, "")
}

func insertItems(value any) (Items, error) {
	switch v := value.(type) {
	case Items, []Item, map[string]any:
		return toItems(v)
	case []any:
		res := make(Items, len(v))
		for i, item := range v {
			res[i] = Item{Key: uuid.NewString(), Value: item}
		}
		return res, nil
	default:
		return Items{{Key: uuid.NewString(), Value: v}}, nil
	}
}

// SetItemOfArray updates the item key of the array at path by merging value into
// it, a nil value removes the item
func (m *Model) SetItemOfArray(path Path, key string, value any) error {
	a, err := m.findArray("set array item", path)
	if err != nil {
		return err
	}

	if value == nil {
		if !a.children.remove(key) {
			return nil
		}

		m.structureChanged(a)

		t := &triggers{}
		t.childrenChanged(a)

		return m.dispatch(t, newMutateOptions(nil))
	}

	if _, ok := a.children.get(key); !ok {
		return pathError("set array item", path.Child(key), ErrArrayKeyNotFound)
	}

	return m.SetValues(path.Child(key), value)
}

// ResetFields restores the subtree at path to the initial snapshot, leaves absent
// from it are set to nil
func (m *Model) ResetFields(path Path) error {
	n, err := m.find("reset", path)
	if err != nil {
		return err
	}

	iv, present := lookupPath(m.initial, path)

	t := &triggers{}
	err = m.reset(n, iv, present, t)
	if err != nil {
		return err
	}

	return m.dispatch(t, newMutateOptions(nil))
}

func (m *Model) reset(n node, initial any, present bool, t *triggers) error {
	switch n := n.(type) {
	case *fieldNode:
		var v any
		if present {
			v = initial
		}

		return m.write(n, v, writeMode{source: SourceSource}, t)

	case *objectNode:
		for _, child := range n.children.order {
			var ci any
			var cp bool
			if present {
				ci, cp = lookupKey(initial, child.base().key)
			}

			err := m.reset(child, ci, cp, t)
			if err != nil {
				return err
			}
		}

		return nil

	case *arrayNode:
		var entries Items
		if present {
			var err error
			entries, err = toItems(initial)
			if err != nil {
				return pathError("reset", n.path, err)
			}
		}

		err := m.replaceArray(n, entries, SourceSource)
		if err != nil {
			return err
		}

		for _, e := range entries {
			child, _ := n.children.get(e.Key)
			err = m.reset(child, e.Value, true, t)
			if err != nil {
				return err
			}
		}

		t.childrenChanged(n)

		return nil

	default:
		panic(fmt.Sprintf("unknown node type %T", n))
	}
}

// SetVisible changes the visibility of the node at path
func (m *Model) SetVisible(path Path, visible bool) error {
	n, err := m.find("set visible", path)
	if err != nil {
		return err
	}

	var include IncludePolicy

	switch n := n.(type) {
	case *fieldNode:
		if n.visible == visible {
			return nil
		}
		n.visible = visible
		include = n.include

	case *objectNode:
		if n.visible == visible {
			return nil
		}
		n.visible = visible
		include = n.include

	case *arrayNode:
		if n.visible == visible {
			return nil
		}
		n.visible = visible
		include = n.include

	default:
		panic(fmt.Sprintf("unknown node type %T", n))
	}

	// always, never and when-children-include ignore the node's own visibility
	if include == IncludeWhenVisible {
		m.inclusionChanged(n)
	}
	m.validatorChanged(n, "")

	m.Notify()

	return nil
}

// SetIncludePolicy changes the include policy of the node at path
func (m *Model) SetIncludePolicy(path Path, policy IncludePolicy) error {
	n, err := m.find("set include policy", path)
	if err != nil {
		return err
	}

	switch n := n.(type) {
	case *fieldNode:
		if n.include == policy {
			return nil
		}

		before := leafIncluded(n)
		n.include = policy
		if leafIncluded(n) != before {
			m.inclusionChanged(n)
		} else {
			m.touch(n)
		}

	case *objectNode, *arrayNode:
		nb := n.(nestedNode).nested()
		if nb.include == policy {
			return nil
		}

		before := nb.include
		beforeMaybe := nestedMaybeIncluded(nb)
		nb.include = policy
		if nestedMaybeIncluded(nb) != beforeMaybe || before == IncludeWhenChildrenInclude || policy == IncludeWhenChildrenInclude {
			m.inclusionChanged(n)
		} else {
			m.touch(n)
		}

	default:
		panic(fmt.Sprintf("unknown node type %T", n))
	}

	m.Notify()

	return nil
}

// SetDisabled changes the disabled state of the leaf at path
func (m *Model) SetDisabled(path Path, disabled bool) error {
	f, err := m.findLeaf("set disabled", path)
	if err != nil {
		return err
	}

	if f.disabled == disabled {
		return nil
	}

	f.disabled = disabled
	m.touch(f)
	m.Notify()

	return nil
}

// SetAlertTip sets the alert shown with the leaf at path, empty clears it
func (m *Model) SetAlertTip(path Path, tip string) error {
	f, err := m.findLeaf("set alert tip", path)
	if err != nil {
		return err
	}

	if f.alertTip == tip {
		return nil
	}

	f.alertTip = tip
	m.touch(f)
	m.Notify()

	return nil
}

// SetOptions replaces the choices of the leaf at path
func (m *Model) SetOptions(path Path, options []Option) error {
	f, err := m.findLeaf("set options", path)
	if err != nil {
		return err
	}

	f.options = append([]Option(nil), options...)
	m.touch(f)
	m.Notify()

	return nil
}

// SetControlProp sets a control metadata property of the leaf at path, a nil value removes it
func (m *Model) SetControlProp(path Path, name string, value any) error {
	f, err := m.findLeaf("set control prop", path)
	if err != nil {
		return err
	}

	cur, exists := f.props[name]
	if exists && sameValue(cur, value) {
		return nil
	}
	if !exists && value == nil {
		return nil
	}

	props := maps.Clone(f.props)
	if props == nil {
		props = make(map[string]any)
	}
	if value == nil {
		delete(props, name)
	} else {
		props[name] = value
	}

	f.props = props
	m.touch(f)
	m.Notify()

	return nil
}

// SetValidation replaces the validator of the leaf at path for ruleset, a nil
// validator removes it. Reports whether the required state of the leaf changed.
func (m *Model) SetValidation(path Path, v validation.Validator, ruleset string) (bool, error) {
	ruleset = rulesetOrDefault(ruleset)

	f, err := m.findLeaf("set validation", path)
	if err != nil {
		return false, err
	}

	if v == nil {
		delete(f.validation, ruleset)
	} else {
		f.validation[ruleset] = v
	}

	changed := f.updateRequired()
	m.validatorChanged(f, ruleset)
	m.Notify()

	return changed, nil
}

// SetRefiner sets the cross field refinement of the nested node at path for ruleset, nil removes it
func (m *Model) SetRefiner(path Path, fn validation.RefineFunc, ruleset string) error {
	ruleset = rulesetOrDefault(ruleset)

	n, err := m.findNested("set refiner", path)
	if err != nil {
		return err
	}

	nb := n.nested()
	if nb.refiners == nil {
		nb.refiners = make(map[string]validation.RefineFunc)
	}

	if fn == nil {
		delete(nb.refiners, ruleset)
	} else {
		nb.refiners[ruleset] = fn
	}

	m.validatorChanged(n, ruleset)
	m.Notify()

	return nil
}

func rulesetOrDefault(rs string) string {
	if rs == "" {
		return OnChange
	}

	return rs
}
