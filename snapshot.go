// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package formstate

import (
	"fmt"
	"maps"
)

// Snapshot is an immutable view of a node, either *FieldSnapshot or *NestedSnapshot.
//
// Snapshots of nodes that did not change between calls to Model.GetSnapshot are
// the same pointer, renderers can compare them to skip work.
type Snapshot interface {
	snapshotPath() Path
}

// FieldSnapshot is the state of a leaf
type FieldSnapshot struct {
	Key      string
	Path     Path
	Value    any
	Visible  bool
	Disabled bool
	Required bool
	Included bool
	Include  IncludePolicy
	Source   Source
	Control  string
	Label    string
	Help     string
	AlertTip string
	Options  []Option
	Props    map[string]any
	// Errors are the issue messages keyed by ruleset
	Errors map[string][]string
}

func (s *FieldSnapshot) snapshotPath() Path { return s.Path }

// NestedSnapshot is the state of an object or array and its children
type NestedSnapshot struct {
	Key      string
	Path     Path
	Kind     Kind
	Visible  bool
	Included bool
	Include  IncludePolicy
	Label    string
	Help     string
	Children []Snapshot
}

func (s *NestedSnapshot) snapshotPath() Path { return s.Path }

// Child finds the direct child with key
func (s *NestedSnapshot) Child(key string) (Snapshot, bool) {
	for _, c := range s.Children {
		if c.snapshotPath().Last() == key {
			return c, true
		}
	}

	return nil, false
}

// FindSnapshot walks path from s, nil when nothing is found
func FindSnapshot(s Snapshot, path Path) Snapshot {
	cur := s

	for _, k := range path {
		ns, ok := cur.(*NestedSnapshot)
		if !ok {
			return nil
		}

		cur, ok = ns.Child(k)
		if !ok {
			return nil
		}
	}

	return cur
}

// GetSnapshot builds the immutable view of the whole form reusing the snapshots of unchanged nodes
func (m *Model) GetSnapshot() Snapshot {
	m.plain.rebuild()

	return m.snapshot(m.root)
}

func (m *Model) snapshot(n node) Snapshot {
	b := n.base()
	if b.snap != nil && b.version <= b.snapVersion {
		return b.snap
	}

	var s Snapshot

	switch n := n.(type) {
	case *fieldNode:
		fs := &FieldSnapshot{
			Key:      n.key,
			Path:     n.path.Clone(),
			Value:    n.value,
			Visible:  n.visible,
			Disabled: n.disabled,
			Required: n.required,
			Included: n.plain.state == cacheHasValue,
			Include:  n.include,
			Source:   n.source,
			Control:  n.control,
			Label:    n.label,
			Help:     n.help,
			AlertTip: n.alertTip,
			Options:  append([]Option(nil), n.options...),
			Props:    maps.Clone(n.props),
			Errors:   make(map[string][]string, len(n.errors)),
		}
		for rs, iss := range n.errors {
			fs.Errors[rs] = iss.Messages()
		}
		s = fs

	case *objectNode:
		s = m.nestedSnapshot(&n.nestedBase, KindObject)

	case *arrayNode:
		s = m.nestedSnapshot(&n.nestedBase, KindArray)

	default:
		panic(fmt.Sprintf("unknown node type %T", n))
	}

	b.snap = s
	b.snapVersion = m.version

	return s
}

func (m *Model) nestedSnapshot(n *nestedBase, kind Kind) *NestedSnapshot {
	ns := &NestedSnapshot{
		Key:      n.key,
		Path:     n.path.Clone(),
		Kind:     kind,
		Visible:  n.visible,
		Included: n.plain.state == cacheHasValue,
		Include:  n.include,
		Label:    n.label,
		Help:     n.help,
		Children: make([]Snapshot, 0, n.children.len()),
	}

	n.children.each(func(c node) {
		ns.Children = append(ns.Children, m.snapshot(c))
	})

	return ns
}
