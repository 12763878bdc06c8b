// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package formstate

import (
	"fmt"
	"maps"

	"github.com/choria-io/formstate/validation"
)

// compileRoot builds the sentinel root holding the compiled schema fields
func compileRoot(s Schema) (*objectNode, error) {
	root := &objectNode{}
	root.path = Path{}
	root.visible = true
	root.include = IncludeWhenChildrenInclude
	root.children.reset()

	refiners, err := compileRefiners(s.Refine, s.Refiners)
	if err != nil {
		return nil, pathError("compile", root.path, err)
	}
	root.refiners = refiners

	for i := range s.Fields {
		child, err := compileNode(&s.Fields[i], s.Fields[i].Key, root, nil, nil, false, SourceInitial)
		if err != nil {
			return nil, err
		}

		err = root.children.add(child)
		if err != nil {
			return nil, pathError("compile", child.base().path, err)
		}
	}

	return root, nil
}

// compileNode turns f into a node placed under parent. When hasValue is set value
// replaces the schema defaults of f and its descendants.
func compileNode(f *Field, key string, parent nestedNode, rootArray *arrayNode, value any, hasValue bool, src Source) (node, error) {
	path := parent.base().path.Child(key)
	if key == "" {
		return nil, pathError("compile", path, fmt.Errorf("key is required"))
	}

	switch f.Kind() {
	case KindField:
		return compileField(f, key, path, parent, rootArray, value, hasValue, src)

	case KindObject:
		obj := &objectNode{}
		err := initNested(&obj.nestedBase, f, key, path, parent, rootArray)
		if err != nil {
			return nil, err
		}

		var values map[string]any
		if hasValue && value != nil {
			var ok bool
			values, ok = asObject(value)
			if !ok {
				return nil, pathError("compile", path, fmt.Errorf("%w: expected object, received %T", ErrInvalidValue, value))
			}
		}

		for i := range f.Fields {
			cf := &f.Fields[i]
			cv, ok := values[cf.Key]

			child, err := compileNode(cf, cf.Key, obj, rootArray, cv, ok, src)
			if err != nil {
				return nil, err
			}

			err = obj.children.add(child)
			if err != nil {
				return nil, pathError("compile", child.base().path, err)
			}
		}

		return obj, nil

	case KindArray:
		arr := &arrayNode{template: f.Array}
		err := initNested(&arr.nestedBase, f, key, path, parent, rootArray)
		if err != nil {
			return nil, err
		}

		if !hasValue {
			value = f.Default
		}

		entries, err := toItems(value)
		if err != nil {
			return nil, pathError("compile", path, err)
		}

		children, err := compileArrayChildren(arr, entries, src)
		if err != nil {
			return nil, err
		}

		err = arr.children.insert(0, children...)
		if err != nil {
			return nil, pathError("compile", path, err)
		}

		return arr, nil

	default:
		return nil, pathError("compile", path, fmt.Errorf("unknown field kind %q", f.Kind()))
	}
}

// compileArrayChildren compiles one child of arr per entry using the array template
func compileArrayChildren(arr *arrayNode, entries Items, src Source) ([]node, error) {
	var res []node

	for _, e := range entries {
		child, err := compileNode(arr.template, e.Key, arr, arr, e.Value, true, src)
		if err != nil {
			return nil, err
		}
		res = append(res, child)
	}

	return res, nil
}

func compileField(f *Field, key string, path Path, parent nestedNode, rootArray *arrayNode, value any, hasValue bool, src Source) (*fieldNode, error) {
	vals, err := leafValidators(f)
	if err != nil {
		return nil, pathError("compile", path, err)
	}

	leaf := &fieldNode{
		value:      f.Default,
		visible:    f.Visible == nil || *f.Visible,
		disabled:   f.Disabled,
		include:    f.Include,
		validation: vals,
		errors:     make(map[string]validation.Issues),
		source:     src,
		label:      f.Label,
		help:       f.Help,
		control:    f.Control,
		options:    append([]Option(nil), f.Options...),
		props:      maps.Clone(f.Props),
	}
	leaf.key = key
	leaf.path = path
	leaf.parent = parent
	leaf.rootArray = rootArray

	if hasValue {
		leaf.value = value
	}

	if leaf.include == "" {
		leaf.include = IncludeWhenVisible
	}

	leaf.updateRequired()

	return leaf, nil
}

func initNested(n *nestedBase, f *Field, key string, path Path, parent nestedNode, rootArray *arrayNode) error {
	refiners, err := compileRefiners(f.Refine, f.Refiners)
	if err != nil {
		return pathError("compile", path, err)
	}

	n.key = key
	n.path = path
	n.parent = parent
	n.rootArray = rootArray
	n.visible = f.Visible == nil || *f.Visible
	n.include = f.Include
	n.refiners = refiners
	n.label = f.Label
	n.help = f.Help
	n.children.reset()

	if n.include == "" {
		n.include = IncludeWhenChildrenInclude
	}

	return nil
}

// leafValidators merges the declarative checks, Validators and Validator of f,
// a leaf without any accepts anything under onChange
func leafValidators(f *Field) (map[string]validation.Validator, error) {
	res := make(map[string]validation.Validator)

	for rs, c := range f.Validation {
		v, err := validation.FromCheck(c)
		if err != nil {
			return nil, fmt.Errorf("ruleset %s: %w", rs, err)
		}
		res[rs] = v
	}

	for rs, v := range f.Validators {
		if v != nil {
			res[rs] = v
		}
	}

	if f.Validator != nil {
		res[OnChange] = f.Validator
	}

	if len(res) == 0 {
		res[OnChange] = validation.Any()
	}

	return res, nil
}

func compileRefiners(decl map[string][]validation.Refinement, fns map[string]validation.RefineFunc) (map[string]validation.RefineFunc, error) {
	res := make(map[string]validation.RefineFunc)

	for rs, refs := range decl {
		fn, err := validation.FromRefinements(refs)
		if err != nil {
			return nil, fmt.Errorf("ruleset %s: %w", rs, err)
		}
		if fn != nil {
			res[rs] = fn
		}
	}

	for rs, fn := range fns {
		if fn == nil {
			continue
		}

		if prev, ok := res[rs]; ok {
			res[rs] = combineRefiners(prev, fn)
			continue
		}
		res[rs] = fn
	}

	return res, nil
}

func combineRefiners(fns ...validation.RefineFunc) validation.RefineFunc {
	return func(v any) validation.Issues {
		var res validation.Issues
		for _, fn := range fns {
			res = append(res, fn(v)...)
		}
		return res
	}
}
