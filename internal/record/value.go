// Package record holds the tagged JSON value type shared by the request
// builders, the claims parser and the validation policy.
package record

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/TwigBush/kmpolicy/internal/errs"
)

type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a closed variant over the JSON shapes. The zero Value is null.
// Numbers keep their literal text so integers never pass through float64.
type Value struct {
	kind Kind
	text string
	b    bool
	list []Value
	obj  Record
}

// Record is a JSON object keyed by member name.
type Record map[string]Value

func Null() Value                { return Value{} }
func String(s string) Value      { return Value{kind: KindString, text: s} }
func Bool(b bool) Value          { return Value{kind: KindBool, b: b} }
func Int(n int64) Value          { return Value{kind: KindNumber, text: strconv.FormatInt(n, 10)} }
func Number(n json.Number) Value { return Value{kind: KindNumber, text: n.String()} }
func List(vs ...Value) Value     { return Value{kind: KindList, list: vs} }
func Object(r Record) Value      { return Value{kind: KindObject, obj: r} }

// Strings builds a list value of string elements.
func Strings(ss ...string) Value {
	return List(lo.Map(ss, func(s string, _ int) Value { return String(s) })...)
}

// FromAny converts decoded JSON (or YAML, or plain Go literals) into a Value.
func FromAny(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return Number(t), nil
	case int:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint64:
		if t > math.MaxInt64 {
			return Value{kind: KindNumber, text: strconv.FormatUint(t, 10)}, nil
		}
		return Int(int64(t)), nil
	case float64:
		return Value{kind: KindNumber, text: strconv.FormatFloat(t, 'f', -1, 64)}, nil
	case []string:
		return Strings(t...), nil
	case []any:
		out := make([]Value, 0, len(t))
		for i, e := range t {
			ev, err := FromAny(e)
			if err != nil {
				return Value{}, errs.Field(fmt.Sprintf("[%d]", i), err)
			}
			out = append(out, ev)
		}
		return List(out...), nil
	case map[string]any:
		r, err := RecordFromMap(t)
		if err != nil {
			return Value{}, err
		}
		return Object(r), nil
	case Record:
		return Object(t), nil
	default:
		return Value{}, fmt.Errorf("%w: unsupported type %T", errs.ErrInvalidFieldType, v)
	}
}

// RecordFromMap converts every member of m.
func RecordFromMap(m map[string]any) (Record, error) {
	r := make(Record, len(m))
	for k, e := range m {
		ev, err := FromAny(e)
		if err != nil {
			return nil, errs.Field(k, err)
		}
		r[k] = ev
	}
	return r, nil
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsString returns the payload of a string value.
func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", fmt.Errorf("%w: want string, got %s", errs.ErrInvalidFieldType, v.kind)
	}
	return v.text, nil
}

// AsInt64 reads a decimal integer from a string or an integral number.
func (v Value) AsInt64() (int64, error) {
	switch v.kind {
	case KindString, KindNumber:
		n, err := strconv.ParseInt(v.text, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a decimal integer", errs.ErrInvalidNumericField, v.text)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: want integer, got %s", errs.ErrInvalidNumericField, v.kind)
	}
}

// AsStrings returns the elements of a list whose members are all strings.
func (v Value) AsStrings() ([]string, error) {
	if v.kind != KindList {
		return nil, fmt.Errorf("%w: want list, got %s", errs.ErrInvalidFieldType, v.kind)
	}
	out := make([]string, 0, len(v.list))
	for i, e := range v.list {
		s, err := e.AsString()
		if err != nil {
			return nil, errs.Field(fmt.Sprintf("[%d]", i), err)
		}
		out = append(out, s)
	}
	return out, nil
}

// AsRecord returns the members of an object value.
func (v Value) AsRecord() (Record, error) {
	if v.kind != KindObject {
		return nil, fmt.Errorf("%w: want object, got %s", errs.ErrInvalidFieldType, v.kind)
	}
	return v.obj, nil
}

// Text renders the value the way claim patterns see it: strings verbatim,
// numbers as their literal, lists as "[a, b]", objects as compact JSON.
func (v Value) Text() string {
	switch v.kind {
	case KindString, KindNumber:
		return v.text
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindList:
		return JoinList(lo.Map(v.list, func(e Value, _ int) string { return e.Text() }))
	case KindObject:
		b, _ := json.Marshal(v.obj.Interface())
		return string(b)
	default:
		return ""
	}
}

// JoinList renders ss as "[a, b, c]".
func JoinList(ss []string) string {
	return "[" + strings.Join(ss, ", ") + "]"
}

// Interface converts back to plain Go values for encoding.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.text
	case KindNumber:
		return json.Number(v.text)
	case KindBool:
		return v.b
	case KindList:
		return lo.Map(v.list, func(e Value, _ int) any { return e.Interface() })
	case KindObject:
		return v.obj.Interface()
	default:
		return nil
	}
}

func (v Value) MarshalJSON() ([]byte, error) { return json.Marshal(v.Interface()) }

// MarshalYAML renders numbers as YAML numbers rather than quoted strings.
func (v Value) MarshalYAML() (any, error) {
	if v.kind == KindNumber {
		if n, err := strconv.ParseInt(v.text, 10, 64); err == nil {
			return n, nil
		}
		if f, err := strconv.ParseFloat(v.text, 64); err == nil {
			return f, nil
		}
	}
	if v.kind == KindList {
		return lo.Map(v.list, func(e Value, _ int) Value { return e }), nil
	}
	if v.kind == KindObject {
		return map[string]Value(v.obj), nil
	}
	return v.Interface(), nil
}

// Get returns the member named key and whether it is present.
func (r Record) Get(key string) (Value, bool) {
	v, ok := r[key]
	return v, ok
}

// Lookup is Get with JSON null treated as absent.
func (r Record) Lookup(key string) (Value, bool) {
	v, ok := r[key]
	if !ok || v.IsNull() {
		return Value{}, false
	}
	return v, true
}

// Keys returns member names in sorted order.
func (r Record) Keys() []string {
	keys := lo.Keys(r)
	slices.Sort(keys)
	return keys
}

// Merge copies every member of src into r, overwriting duplicates.
func (r Record) Merge(src Record) {
	for k, v := range src {
		r[k] = v
	}
}

func (r Record) Interface() map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		out[k] = v.Interface()
	}
	return out
}
