// Package config gives typed, fallible reads over the opaque key/value bag a
// key manager is configured with.
package config

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
	"github.com/spf13/cast"

	"github.com/TwigBush/kmpolicy/internal/errs"
)

// Parameters is the raw configuration bag, as decoded from YAML, JSON or a
// persisted key-manager record.
type Parameters map[string]any

// Has reports whether key is present with a non-nil value.
func (p Parameters) Has(key string) bool {
	v, ok := p[key]
	return ok && v != nil
}

// Bool reads key as a boolean. "true"/"false" strings and 0/1 are accepted.
// ok is false when the key is absent.
func (p Parameters) Bool(key string) (val bool, ok bool, err error) {
	if !p.Has(key) {
		return false, false, nil
	}
	b, err := cast.ToBoolE(p[key])
	if err != nil {
		return false, true, paramErr(key, err)
	}
	return b, true, nil
}

// String reads key as a string. Maps and lists are rejected.
func (p Parameters) String(key string) (val string, ok bool, err error) {
	if !p.Has(key) {
		return "", false, nil
	}
	switch p[key].(type) {
	case map[string]any, map[any]any, []any:
		return "", true, paramErr(key, fmt.Errorf("want string, got %T", p[key]))
	}
	s, err := cast.ToStringE(p[key])
	if err != nil {
		return "", true, paramErr(key, err)
	}
	return s, true, nil
}

// StringMap reads key as a map of string to string.
func (p Parameters) StringMap(key string) (map[string]string, bool, error) {
	if !p.Has(key) {
		return nil, false, nil
	}
	m, err := toStringMapString(p[key])
	if err != nil {
		return nil, true, paramErr(key, err)
	}
	return m, true, nil
}

// NestedStringMap reads key as section -> name -> string, the shape used by
// claim rules.
func (p Parameters) NestedStringMap(key string) (map[string]map[string]string, bool, error) {
	if !p.Has(key) {
		return nil, false, nil
	}
	outer, err := cast.ToStringMapE(p[key])
	if err != nil {
		return nil, true, paramErr(key, err)
	}
	out := make(map[string]map[string]string, len(outer))
	for section, raw := range outer {
		inner, err := toStringMapString(raw)
		if err != nil {
			return nil, true, paramErr(key+"."+section, err)
		}
		out[section] = inner
	}
	return out, true, nil
}

// Keys returns the parameter names in sorted order.
func (p Parameters) Keys() []string {
	keys := lo.Keys(p)
	slices.Sort(keys)
	return keys
}

// toStringMapString is stricter than cast.ToStringMapStringE: nested maps or
// lists as values are errors instead of being stringified.
func toStringMapString(v any) (map[string]string, error) {
	m, err := cast.ToStringMapE(v)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(m))
	for k, e := range m {
		switch e.(type) {
		case map[string]any, map[any]any, []any, nil:
			return nil, fmt.Errorf("%s: want string, got %T", k, e)
		}
		s, err := cast.ToStringE(e)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out[k] = s
	}
	return out, nil
}

func paramErr(key string, err error) error {
	return errs.Field(key, fmt.Errorf("%w: %v", errs.ErrInvalidParameter, err))
}
