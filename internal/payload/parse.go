package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strconv"
)

// Parse decodes a JSON document into a Value tree. Object key order is
// preserved; a repeated key keeps its first position and its last value.
func Parse(data []byte) (*Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("payload: trailing data after top-level value")
	}
	return v, nil
}

// ParseArgs decodes a listener argument list. A JSON array yields its
// elements; any other value is a single argument; empty input is none.
func ParseArgs(data []byte) ([]*Value, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	v, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if v.Kind() == Array {
		return v.Items(), nil
	}
	return []*Value{v}, nil
}

// MustParse is Parse for literals in tests and fixtures.
func MustParse(s string) *Value {
	v, err := Parse([]byte(s))
	if err != nil {
		panic(err)
	}
	return v
}

func decodeValue(dec *json.Decoder) (*Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := NewObject()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("payload: object key is %T", kt)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				obj.Set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			arr := NewArray()
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr.Append(val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		}
		return nil, fmt.Errorf("payload: unexpected delimiter %q", t)
	case nil:
		return NewNull(), nil
	case bool:
		return NewBool(t), nil
	case json.Number:
		n, err := strconv.ParseFloat(t.String(), 64)
		if err != nil {
			return nil, fmt.Errorf("payload: number %q: %w", t, err)
		}
		return NewNumber(n), nil
	case string:
		return NewString(t), nil
	}
	return nil, fmt.Errorf("payload: unexpected token %T", tok)
}

// UnmarshalJSON lets a Value sit directly inside request structs.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = *parsed
	return nil
}

// MarshalJSON writes the tree back out in key order. Opaque values are
// written as null.
func (v *Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf, map[*Value]bool{}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v *Value) encode(buf *bytes.Buffer, active map[*Value]bool) error {
	switch v.Kind() {
	case Null, Opaque:
		buf.WriteString("null")
		return nil
	case Bool, String:
		b, err := json.Marshal(v.plainScalar())
		if err != nil {
			return err
		}
		buf.Write(b)
		return nil
	case Number:
		n, _ := v.FiniteNum()
		buf.WriteString(FormatNumber(n))
		return nil
	}

	if active[v] {
		return errors.New("payload: cycle in value")
	}
	active[v] = true
	defer delete(active, v)

	if v.kind == Array {
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf, active); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	}

	buf.WriteByte('{')
	for i, k := range v.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		buf.Write(kb)
		buf.WriteByte(':')
		if err := v.fields[k].encode(buf, active); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func (v *Value) plainScalar() any {
	if v.kind == Bool {
		return v.b
	}
	return v.s
}

// FromAny converts decoded Go data (encoding/json output, literals built in
// code, or an existing *Value) into a Value tree. Maps are walked in sorted
// key order. Funcs, channels and other non-data values become Opaque.
// Shared or self-referencing maps and slices map to a single node.
func FromAny(in any) *Value {
	return fromAny(reflect.ValueOf(in), map[seenKey]*Value{})
}

// seenKey identifies a map (n == -1) or a slice window by its backing store.
type seenKey struct {
	ptr uintptr
	n   int
}

func fromAny(rv reflect.Value, seen map[seenKey]*Value) *Value {
	if !rv.IsValid() {
		return NewNull()
	}
	if rv.CanInterface() {
		switch t := rv.Interface().(type) {
		case *Value:
			if t == nil {
				return NewNull()
			}
			return t
		case json.Number:
			n, err := t.Float64()
			if err != nil {
				return NewString(t.String())
			}
			return NewNumber(n)
		case json.RawMessage:
			if v, err := Parse(t); err == nil {
				return v
			}
			return NewNull()
		}
	}

	switch rv.Kind() {
	case reflect.Interface, reflect.Pointer:
		if rv.IsNil() {
			return NewNull()
		}
		return fromAny(rv.Elem(), seen)
	case reflect.Bool:
		return NewBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return NewNumber(float64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return NewNumber(float64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return NewNumber(rv.Float())
	case reflect.String:
		return NewString(rv.String())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice {
			if rv.IsNil() {
				return NewNull()
			}
			if rv.Type().Elem().Kind() == reflect.Uint8 {
				return NewString(string(rv.Bytes()))
			}
			if ptr := rv.Pointer(); ptr != 0 && rv.Len() > 0 {
				key := seenKey{ptr: ptr, n: rv.Len()}
				if v, ok := seen[key]; ok {
					return v
				}
				arr := NewArray()
				seen[key] = arr
				return fillArray(arr, rv, seen)
			}
		}
		return fillArray(NewArray(), rv, seen)
	case reflect.Map:
		if rv.IsNil() {
			return NewNull()
		}
		if rv.Type().Key().Kind() != reflect.String {
			return NewOpaque()
		}
		key := seenKey{ptr: rv.Pointer(), n: -1}
		if v, ok := seen[key]; ok {
			return v
		}
		obj := NewObject()
		seen[key] = obj
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		for _, k := range keys {
			obj.Set(k.String(), fromAny(rv.MapIndex(k), seen))
		}
		return obj
	case reflect.Struct:
		// Structs go through their JSON form so tags are honoured.
		if !rv.CanInterface() {
			return NewOpaque()
		}
		data, err := json.Marshal(rv.Interface())
		if err != nil {
			return NewOpaque()
		}
		v, err := Parse(data)
		if err != nil {
			return NewOpaque()
		}
		return v
	}
	return NewOpaque()
}

func fillArray(arr *Value, rv reflect.Value, seen map[seenKey]*Value) *Value {
	for i := 0; i < rv.Len(); i++ {
		arr.Append(fromAny(rv.Index(i), seen))
	}
	return arr
}
