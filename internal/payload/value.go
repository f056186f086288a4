// Package payload models the loosely shaped arguments a chat host attaches
// to its events. Values are decoded into a small tagged tree that keeps
// object key order and node identity, so extraction can walk nested
// candidates the way the host lays them out without reflection.
package payload

import (
	"math"
	"strconv"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
	// Opaque marks host values that carry no data we may traverse,
	// such as callbacks. They are never searched.
	Opaque
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	case Opaque:
		return "opaque"
	}
	return "unknown"
}

// Value is one node of a decoded payload. Nodes are handled by pointer;
// pointer identity is what the extraction visitor uses to break cycles.
type Value struct {
	kind   Kind
	b      bool
	n      float64
	s      string
	items  []*Value
	keys   []string
	fields map[string]*Value
}

func NewNull() *Value            { return &Value{kind: Null} }
func NewBool(b bool) *Value      { return &Value{kind: Bool, b: b} }
func NewNumber(n float64) *Value { return &Value{kind: Number, n: n} }
func NewString(s string) *Value  { return &Value{kind: String, s: s} }
func NewOpaque() *Value          { return &Value{kind: Opaque} }

func NewArray(items ...*Value) *Value {
	return &Value{kind: Array, items: items}
}

// NewObject returns an empty object. Fields are added with Set.
func NewObject() *Value {
	return &Value{kind: Object, fields: map[string]*Value{}}
}

// Set assigns key on an object, keeping the position of the first
// assignment. It is a no-op on other kinds.
func (v *Value) Set(key string, val *Value) *Value {
	if v == nil || v.kind != Object {
		return v
	}
	if val == nil {
		val = NewNull()
	}
	if _, ok := v.fields[key]; !ok {
		v.keys = append(v.keys, key)
	}
	v.fields[key] = val
	return v
}

// Append adds an element to an array. It is a no-op on other kinds.
func (v *Value) Append(val *Value) *Value {
	if v == nil || v.kind != Array {
		return v
	}
	if val == nil {
		val = NewNull()
	}
	v.items = append(v.items, val)
	return v
}

// Kind reports the variant. A nil *Value is Null.
func (v *Value) Kind() Kind {
	if v == nil {
		return Null
	}
	return v.kind
}

func (v *Value) IsNull() bool { return v.Kind() == Null }

// Get returns the field named key when v is an object.
func (v *Value) Get(key string) (*Value, bool) {
	if v.Kind() != Object {
		return nil, false
	}
	f, ok := v.fields[key]
	return f, ok
}

// Field is Get without the presence flag; a missing field reads as nil (Null).
func (v *Value) Field(key string) *Value {
	f, _ := v.Get(key)
	return f
}

// Keys lists object keys in insertion order.
func (v *Value) Keys() []string {
	if v.Kind() != Object {
		return nil
	}
	return v.keys
}

// Items lists array elements.
func (v *Value) Items() []*Value {
	if v.Kind() != Array {
		return nil
	}
	return v.items
}

// Len is the element count of an array or the key count of an object.
func (v *Value) Len() int {
	switch v.Kind() {
	case Array:
		return len(v.items)
	case Object:
		return len(v.keys)
	}
	return 0
}

// Str returns the string held by a String value.
func (v *Value) Str() (string, bool) {
	if v.Kind() != String {
		return "", false
	}
	return v.s, true
}

// Num returns the number held by a Number value.
func (v *Value) Num() (float64, bool) {
	if v.Kind() != Number {
		return 0, false
	}
	return v.n, true
}

// FiniteNum is Num restricted to finite numbers.
func (v *Value) FiniteNum() (float64, bool) {
	n, ok := v.Num()
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// BoolVal returns the boolean held by a Bool value.
func (v *Value) BoolVal() (bool, bool) {
	if v.Kind() != Bool {
		return false, false
	}
	return v.b, true
}

// Truthy follows the host's loose truthiness: false, 0, NaN, "" and null
// are false, everything else is true.
func (v *Value) Truthy() bool {
	switch v.Kind() {
	case Null:
		return false
	case Bool:
		return v.b
	case Number:
		return v.n != 0 && !math.IsNaN(v.n)
	case String:
		return v.s != ""
	}
	return true
}

// Text renders scalars the way the host stringifies them. Containers and
// opaque values render as "".
func (v *Value) Text() string {
	switch v.Kind() {
	case Bool:
		return strconv.FormatBool(v.b)
	case Number:
		return FormatNumber(v.n)
	case String:
		return v.s
	case Null:
		return "null"
	}
	return ""
}

// FormatNumber prints n without exponent or trailing zeros for the
// magnitudes message ids use.
func FormatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}
