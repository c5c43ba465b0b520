package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"time"
)

// TimeLayout is the fixed-width UTC layout used to store and compare times.
// Fixed nanosecond precision keeps text ordering identical to time ordering.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Value is a sealed interface over the value kinds a record store can hold
// and a predicate can bind. Only Null, String, Int, Float, Bool, Time and
// List implement it.
type Value interface {
	Kind() Kind
	value() // Sealed - only these types implement it
}

// Null is the explicit "no value" marker.
type Null struct{}

func (Null) value()     {}
func (Null) Kind() Kind { return KindNull }

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// String is a text value.
type String string

func (String) value()     {}
func (String) Kind() Kind { return KindString }

// Int is an integer value. Always int64.
type Int int64

func (Int) value()     {}
func (Int) Kind() Kind { return KindInt }

// Float is a floating point value.
type Float float64

func (Float) value()     {}
func (Float) Kind() Kind { return KindFloat }

// Bool is a boolean value.
type Bool bool

func (Bool) value()     {}
func (Bool) Kind() Kind { return KindBool }

// Time is an instant, always held in UTC.
// Construct with NewTime so the location is normalised.
type Time time.Time

func (Time) value()     {}
func (Time) Kind() Kind { return KindTime }

// Std returns the wrapped time.Time.
func (t Time) Std() time.Time {
	return time.Time(t)
}

// String renders the time with TimeLayout.
func (t Time) String() string {
	return time.Time(t).Format(TimeLayout)
}

// List is a sequence of scalar values. Lists never nest.
type List []Value

func (List) value()     {}
func (List) Kind() Kind { return KindList }

// NewTime creates a Time normalised to UTC without a monotonic reading.
func NewTime(t time.Time) Time {
	return Time(t.UTC())
}

// ParseTime parses a time written in TimeLayout or RFC 3339.
func ParseTime(s string) (Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return NewTime(t), nil
}

// FromGo converts a Go value into a Value.
//
// Accepted: nil, Value, string, bool, every signed and unsigned integer
// width, float32/float64, time.Time, and slices or arrays of those scalars
// (which become a List). Everything else is rejected.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint8:
		return Int(val), nil
	case uint16:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case uint:
		if uint64(val) > math.MaxInt64 {
			return nil, fmt.Errorf("unsigned value %d overflows int64", val)
		}
		return Int(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("unsigned value %d overflows int64", val)
		}
		return Int(val), nil
	case float32:
		return Float(val), nil
	case float64:
		return Float(val), nil
	case time.Time:
		return NewTime(val), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return List{}, nil
		}
		list := make(List, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elem, err := FromGo(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			if _, nested := elem.(List); nested {
				return nil, fmt.Errorf("[%d]: nested lists are not supported", i)
			}
			list[i] = elem
		}
		return list, nil
	case reflect.Pointer:
		if rv.IsNil() {
			return Null{}, nil
		}
		return FromGo(rv.Elem().Interface())
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil
	}

	return nil, fmt.Errorf("unsupported value type: %T", v)
}

// ToGo converts a Value into its natural Go representation: nil, string,
// int64, float64, bool, time.Time or []any.
func ToGo(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case String:
		return string(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case Bool:
		return bool(val)
	case Time:
		return val.Std()
	case List:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = ToGo(elem)
		}
		return out
	default:
		return nil
	}
}

// MarshalValue marshals a Value to JSON bytes. Times are rendered as
// TimeLayout strings.
func MarshalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case nil, Null:
		return []byte("null"), nil
	case String:
		return json.Marshal(string(val))
	case Int:
		return json.Marshal(int64(val))
	case Float:
		return json.Marshal(float64(val))
	case Bool:
		return json.Marshal(bool(val))
	case Time:
		return json.Marshal(val.String())
	case List:
		return marshalList(val)
	default:
		return nil, fmt.Errorf("unknown Value type: %T", v)
	}
}

// MarshalJSON implements json.Marshaler for List.
func (l List) MarshalJSON() ([]byte, error) {
	return marshalList(l)
}

// MarshalJSON implements json.Marshaler for Time.
func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func marshalList(l List) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, elem := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := MarshalValue(elem)
		if err != nil {
			return nil, fmt.Errorf("list[%d]: %w", i, err)
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalValue decodes JSON into a Value. Integral numbers become Int,
// other numbers Float, null becomes Null. Objects and nested arrays are
// rejected.
func UnmarshalValue(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return fromJSON(raw, true)
}

func fromJSON(v any, allowList bool) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return Int(n), nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %s: %w", val, err)
		}
		return Float(f), nil
	case []any:
		if !allowList {
			return nil, fmt.Errorf("nested lists are not supported")
		}
		list := make(List, len(val))
		for i, elem := range val {
			item, err := fromJSON(elem, false)
			if err != nil {
				return nil, fmt.Errorf("list[%d]: %w", i, err)
			}
			list[i] = item
		}
		return list, nil
	default:
		return nil, fmt.Errorf("unsupported JSON value: %T", v)
	}
}
