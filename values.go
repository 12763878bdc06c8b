// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package formstate

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"

	"github.com/choria-io/formstate/validation"
)

// Item is a single keyed array item
type Item struct {
	Key   string `json:"key" yaml:"key"`
	Value any    `json:"value" yaml:"value"`
}

// Items is an ordered keyed collection, the value form of array nodes
type Items []Item

// AsMap returns the entries keyed by their keys
func (e Items) AsMap() map[string]any {
	res := make(map[string]any, len(e))
	for _, i := range e {
		res[i.Key] = i.Value
	}

	return res
}

// Lookup finds the value stored for key
func (e Items) Lookup(key string) (any, bool) {
	for _, i := range e {
		if i.Key == key {
			return i.Value, true
		}
	}

	return nil, false
}

// Keys are the item keys in order
func (e Items) Keys() []string {
	res := make([]string, len(e))
	for i, v := range e {
		res[i] = v.Key
	}

	return res
}

// Values are the item values in order
func (e Items) Values() []any {
	res := make([]any, len(e))
	for i, v := range e {
		res[i] = v.Value
	}

	return res
}

// toItems converts the accepted array value forms into Items. Lists are
// keyed by their index and maps are ordered by key.
func toItems(v any) (Items, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case Items:
		return val, nil
	case []Item:
		return Items(val), nil
	case []any:
		res := make(Items, len(val))
		for i, item := range val {
			res[i] = Item{Key: strconv.Itoa(i), Value: item}
		}
		return res, nil
	case map[string]any:
		return sortedItems(val), nil
	case validation.Mapper:
		return sortedItems(val.AsMap()), nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		res := make(Items, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			res[i] = Item{Key: strconv.Itoa(i), Value: rv.Index(i).Interface()}
		}
		return res, nil
	}

	return nil, fmt.Errorf("%w: expected a list or keyed object, received %T", ErrInvalidValue, v)
}

func sortedItems(m map[string]any) Items {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	res := make(Items, len(keys))
	for i, k := range keys {
		res[i] = Item{Key: k, Value: m[k]}
	}

	return res
}

// asObject accepts the value forms nested objects can be written with
func asObject(v any) (map[string]any, bool) {
	switch val := v.(type) {
	case map[string]any:
		return val, true
	case validation.Mapper:
		return val.AsMap(), true
	default:
		return nil, false
	}
}

// lookupKey finds key within a map or Items value
func lookupKey(v any, key string) (any, bool) {
	switch val := v.(type) {
	case map[string]any:
		r, ok := val[key]
		return r, ok
	case Items:
		return val.Lookup(key)
	case validation.Mapper:
		r, ok := val.AsMap()[key]
		return r, ok
	default:
		return nil, false
	}
}

// lookupPath walks path through nested maps and Items
func lookupPath(v any, path Path) (any, bool) {
	cur := v
	for _, k := range path {
		next, ok := lookupKey(cur, k)
		if !ok {
			return nil, false
		}
		cur = next
	}

	return cur, true
}

// withValueAt returns a copy of root where the value at path is replaced by v, or removed when present is false.
// Only the containers along path are copied.
func withValueAt(root any, path Path, v any, present bool) any {
	if len(path) == 0 {
		if !present {
			return nil
		}
		return v
	}

	key := path[0]
	child, _ := lookupKey(root, key)
	nv := withValueAt(child, path[1:], v, present)
	keep := present || len(path) > 1

	switch val := root.(type) {
	case Items:
		res := make(Items, 0, len(val)+1)
		found := false
		for _, e := range val {
			if e.Key == key {
				found = true
				if keep {
					res = append(res, Item{Key: key, Value: nv})
				}
				continue
			}
			res = append(res, e)
		}
		if !found && keep {
			res = append(res, Item{Key: key, Value: nv})
		}
		return res

	default:
		src, _ := root.(map[string]any)
		res := make(map[string]any, len(src)+1)
		for k, e := range src {
			res[k] = e
		}
		if keep {
			res[key] = nv
		} else {
			delete(res, key)
		}
		return res
	}
}

// sameValue compares like Object.is: by value for comparable scalars and by identity for maps, slices and funcs
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	ra := reflect.ValueOf(a)
	rb := reflect.ValueOf(b)
	if ra.Type() != rb.Type() {
		return false
	}

	switch ra.Kind() {
	case reflect.Map, reflect.Func, reflect.Chan, reflect.Pointer, reflect.UnsafePointer:
		return ra.Pointer() == rb.Pointer()

	case reflect.Slice:
		return ra.Pointer() == rb.Pointer() && ra.Len() == rb.Len()

	case reflect.Float32, reflect.Float64:
		fa, fb := ra.Float(), rb.Float()
		if math.IsNaN(fa) && math.IsNaN(fb) {
			return true
		}
		if fa == 0 && fb == 0 {
			return math.Signbit(fa) == math.Signbit(fb)
		}
		return fa == fb
	}

	if !ra.Type().Comparable() {
		return false
	}

	return a == b
}
