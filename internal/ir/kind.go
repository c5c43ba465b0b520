package ir

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the type of a Value or of a stored field.
type Kind string

const (
	KindNull   Kind = "null"
	KindString Kind = "string"
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
	KindBool   Kind = "bool"
	KindTime   Kind = "time"
	KindList   Kind = "list"
)

// FieldKinds lists the kinds a schema field may declare.
var FieldKinds = []Kind{KindString, KindInt, KindFloat, KindBool, KindTime}

// ParseFieldKind parses a field kind name.
func ParseFieldKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, fk := range FieldKinds {
		if k == fk {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown field kind %q: must be one of %v", s, FieldKinds)
}

// IsNumeric reports whether the kind is int or float.
func (k Kind) IsNumeric() bool {
	return k == KindInt || k == KindFloat
}

// Compatible reports whether a scalar of kind v may be compared with a field
// of kind field. Numbers compare across int and float; Null compares with
// everything.
func Compatible(field, v Kind) bool {
	switch {
	case v == KindNull:
		return true
	case field == v:
		return true
	case field.IsNumeric() && v.IsNumeric():
		return true
	default:
		return false
	}
}

// Coerce converts v into a value of the given field kind where a lossless
// conversion exists. Null passes through unchanged. Lists are rejected.
//
// Conversions: int -> float, integral float -> int, string -> time.
func Coerce(v Value, kind Kind) (Value, error) {
	switch v.(type) {
	case nil, Null:
		return Null{}, nil
	case List:
		return nil, fmt.Errorf("cannot coerce list to %s", kind)
	}

	if v.Kind() == kind {
		return v, nil
	}

	switch kind {
	case KindFloat:
		if i, ok := v.(Int); ok {
			return Float(i), nil
		}
	case KindInt:
		if f, ok := v.(Float); ok && integral(float64(f)) {
			return Int(f), nil
		}
	case KindTime:
		if s, ok := v.(String); ok {
			return ParseTime(string(s))
		}
	}

	return nil, fmt.Errorf("cannot use %s value as %s", v.Kind(), kind)
}

// integral reports whether f is a whole number that fits in an int64.
// 2^63 itself is excluded: it rounds to MaxInt64+1.
func integral(f float64) bool {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	return f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64
}

// ParseLiteral reads a command-line style literal.
//
// Quoted text is a string, nil/null is Null, true/false are booleans,
// integers and decimals are numbers, everything else is an unquoted string.
func ParseLiteral(s string) Value {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return String(s[1 : len(s)-1])
		}
	}

	switch s {
	case "nil", "null":
		return Null{}
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !strings.ContainsAny(s, "xXnN") {
		return Float(f)
	}
	return String(s)
}
