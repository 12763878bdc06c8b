// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package formstate

import (
	"github.com/choria-io/formstate/validation"
)

// CauseKind describes why an effect is running
type CauseKind string

const (
	// CauseCollect is the dry run used to collect dependencies, mutations are ignored
	CauseCollect CauseKind = "collect"
	// CauseInitialRun is the run performed by Model.Initial
	CauseInitialRun CauseKind = "initial-run"
	// CauseValueChanged is a change to a tracked leaf, or a leaf within a tracked array
	CauseValueChanged CauseKind = "value-changed"
	// CauseChildrenUpdated is a change to the items of a tracked array
	CauseChildrenUpdated CauseKind = "children-updated"
)

// Cause is passed to effects, Path is the node that changed
type Cause struct {
	Kind CauseKind
	Path Path
}

// Commands are the operations available to rules and to external callers
type Commands interface {
	GetValue(path Path) (any, error)
	SetValue(path Path, value any, opts ...MutateOption) error
	SetValues(path Path, values any, opts ...MutateOption) error
	SetValuesIfUserNotModified(path Path, values any, makeDirty bool) error
	SetVisible(path Path, visible bool) error
	SetDisabled(path Path, disabled bool) error
	SetAlertTip(path Path, tip string) error
	ResetFields(path Path) error
	SetValidation(path Path, v validation.Validator, ruleset string) (bool, error)
	SetArray(path Path, value any, opts ...MutateOption) error
	InsertIntoArray(path Path, value any, pos Position, key string) error
	SetItemOfArray(path Path, key string, value any) error
	SetControlProp(path Path, name string, value any) error
	ValidateField(path Path, enhancer bool, ruleset string) error
	SetIncludePolicy(path Path, policy IncludePolicy) error
}

// RuleContext is what effects interact with the form through
type RuleContext interface {
	Commands

	// Track records path as a dependency without reading it
	Track(path Path)
}

// Effect is a reactive rule, it runs whenever a node it read during registration changes.
// An error aborts the current cascade and is returned to the caller that triggered it.
type Effect func(ctx RuleContext, cause Cause) error

type rule struct {
	effect   Effect
	deps     []node
	disposed bool
}

// RegisterRule collects the dependencies of effect by running it once against a
// context that records every path read and ignores every mutation. The effect is
// attached to exactly those nodes, dependencies are not collected again later.
// The returned function detaches the rule.
func (m *Model) RegisterRule(effect Effect) (func(), error) {
	paths, err := m.collect(effect)
	if err != nil {
		return nil, err
	}

	r := &rule{effect: effect}
	for _, p := range paths {
		n, err := m.find("register rule", p)
		if err != nil {
			return nil, err
		}

		n.base().addRule(r)
		r.deps = append(r.deps, n)
	}

	m.rules = append(m.rules, r)
	m.debugf("Registered rule tracking %d paths: %v", len(paths), paths)

	return func() { m.dispose(r) }, nil
}

// collect performs the dependency collection run of effect
func (m *Model) collect(effect Effect) ([]Path, error) {
	tc := &trackingContext{m: m}

	err := effect(tc, Cause{Kind: CauseCollect})
	if err != nil {
		return nil, err
	}

	return tc.paths, nil
}

func (m *Model) dispose(r *rule) {
	if r.disposed {
		return
	}

	r.disposed = true
	for _, n := range r.deps {
		n.base().removeRule(r)
	}
	r.deps = nil

	for i, e := range m.rules {
		if e == r {
			m.rules = append(m.rules[:i:i], m.rules[i+1:]...)
			break
		}
	}
}

func (m *Model) runRule(r *rule, cause Cause) error {
	m.debugf("Running rule for %s on %s", cause.Kind, cause.Path)
	return r.effect(&liveContext{m: m}, cause)
}

type triggered struct {
	rule  *rule
	cause Cause
}

// triggers accumulates the rules a mutation fires, each rule at most once in
// the order they were first triggered
type triggers struct {
	seen map[*rule]bool
	list []triggered
}

func (t *triggers) node(n node, kind CauseKind, path Path) {
	for _, r := range n.base().rules {
		if t.seen == nil {
			t.seen = make(map[*rule]bool)
		}
		if t.seen[r] {
			continue
		}

		t.seen[r] = true
		t.list = append(t.list, triggered{rule: r, cause: Cause{Kind: kind, Path: path.Clone()}})
	}
}

// leafChanged fires rules tracking f and, for leaves within arrays, the rules tracking the array
func (t *triggers) leafChanged(f *fieldNode) {
	t.node(f, CauseValueChanged, f.path)
	if f.rootArray != nil {
		t.node(f.rootArray, CauseValueChanged, f.path)
	}
}

// childrenChanged fires rules tracking a and its enclosing array
func (t *triggers) childrenChanged(a *arrayNode) {
	t.node(a, CauseChildrenUpdated, a.path)
	if a.rootArray != nil {
		t.node(a.rootArray, CauseChildrenUpdated, a.path)
	}
}

// dispatch notifies listeners of an applied mutation then runs the triggered
// rules, notifying again after each of them
func (m *Model) dispatch(t *triggers, o *mutateOptions) error {
	if o.notify {
		m.Notify()
	}

	if !o.effects {
		return nil
	}

	for _, tr := range t.list {
		if tr.rule.disposed {
			continue
		}

		err := m.runRule(tr.rule, tr.cause)
		if err != nil {
			return err
		}

		if o.notify {
			m.Notify()
		}
	}

	return nil
}

// MutateOption adjusts how a mutation is applied
type MutateOption func(*mutateOptions)

type mutateOptions struct {
	effects      bool
	notify       bool
	keepPrevious bool
}

func newMutateOptions(opts []MutateOption) *mutateOptions {
	o := &mutateOptions{effects: true, notify: true}
	for _, opt := range opts {
		opt(o)
	}

	return o
}

// WithoutEffects applies a mutation without running the rules it would trigger
func WithoutEffects() MutateOption {
	return func(o *mutateOptions) { o.effects = false }
}

// WithoutNotify applies a mutation without notifying subscribers
func WithoutNotify() MutateOption {
	return func(o *mutateOptions) { o.notify = false }
}

// KeepPrevious keeps array items missing from the written value instead of removing them
func KeepPrevious() MutateOption {
	return func(o *mutateOptions) { o.keepPrevious = true }
}

// trackingContext records reads during dependency collection, mutations do nothing
type trackingContext struct {
	m     *Model
	paths []Path
}

func (t *trackingContext) Track(path Path) {
	for _, p := range t.paths {
		if p.Equal(path) {
			return
		}
	}

	t.paths = append(t.paths, path.Clone())
}

func (t *trackingContext) GetValue(path Path) (any, error) {
	t.Track(path)
	return t.m.GetValue(path)
}

func (t *trackingContext) SetValue(Path, any, ...MutateOption) error {
	return nil
}

func (t *trackingContext) SetValues(Path, any, ...MutateOption) error {
	return nil
}

func (t *trackingContext) SetValuesIfUserNotModified(Path, any, bool) error {
	return nil
}

func (t *trackingContext) SetVisible(Path, bool) error {
	return nil
}

func (t *trackingContext) SetDisabled(Path, bool) error {
	return nil
}

func (t *trackingContext) SetAlertTip(Path, string) error {
	return nil
}

func (t *trackingContext) ResetFields(Path) error {
	return nil
}

func (t *trackingContext) SetValidation(Path, validation.Validator, string) (bool, error) {
	return false, nil
}

func (t *trackingContext) SetArray(Path, any, ...MutateOption) error {
	return nil
}

func (t *trackingContext) InsertIntoArray(Path, any, Position, string) error {
	return nil
}

func (t *trackingContext) SetItemOfArray(Path, string, any) error {
	return nil
}

func (t *trackingContext) SetControlProp(Path, string, any) error {
	return nil
}

func (t *trackingContext) ValidateField(Path, bool, string) error {
	return nil
}

func (t *trackingContext) SetIncludePolicy(Path, IncludePolicy) error {
	return nil
}

// liveContext routes every command to the model
type liveContext struct {
	m *Model
}

func (l *liveContext) Track(Path) {}

func (l *liveContext) GetValue(path Path) (any, error) {
	return l.m.GetValue(path)
}

func (l *liveContext) SetValue(path Path, value any, opts ...MutateOption) error {
	return l.m.SetValue(path, value, opts...)
}

func (l *liveContext) SetValues(path Path, values any, opts ...MutateOption) error {
	return l.m.SetValues(path, values, opts...)
}

func (l *liveContext) SetValuesIfUserNotModified(path Path, values any, makeDirty bool) error {
	return l.m.SetValuesIfUserNotModified(path, values, makeDirty)
}

func (l *liveContext) SetVisible(path Path, visible bool) error {
	return l.m.SetVisible(path, visible)
}

func (l *liveContext) SetDisabled(path Path, disabled bool) error {
	return l.m.SetDisabled(path, disabled)
}

func (l *liveContext) SetAlertTip(path Path, tip string) error {
	return l.m.SetAlertTip(path, tip)
}

func (l *liveContext) ResetFields(path Path) error {
	return l.m.ResetFields(path)
}

func (l *liveContext) SetValidation(path Path, v validation.Validator, ruleset string) (bool, error) {
	return l.m.SetValidation(path, v, ruleset)
}

func (l *liveContext) SetArray(path Path, value any, opts ...MutateOption) error {
	return l.m.SetArray(path, value, opts...)
}

func (l *liveContext) InsertIntoArray(path Path, value any, pos Position, key string) error {
	return l.m.InsertIntoArray(path, value, pos, key)
}

func (l *liveContext) SetItemOfArray(path Path, key string, value any) error {
	return l.m.SetItemOfArray(path, key, value)
}

func (l *liveContext) SetControlProp(path Path, name string, value any) error {
	return l.m.SetControlProp(path, name, value)
}

func (l *liveContext) ValidateField(path Path, enhancer bool, ruleset string) error {
	return l.m.ValidateField(path, enhancer, ruleset)
}

func (l *liveContext) SetIncludePolicy(path Path, policy IncludePolicy) error {
	return l.m.SetIncludePolicy(path, policy)
}
