package profile

import (
	"fmt"
	"time"
)

// Kind tags the concrete shape held by a Value. FieldData.Value is a
// polymorphic scalar, string, time or tuple; Kind lets callers switch on it
// without a type assertion on interface{}.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt
	KindUint
	KindFloat
	KindString
	KindBool
	KindBytes
	KindTime
	KindTimeOfDay
	KindSlice
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindBytes:
		return "bytes"
	case KindTime:
		return "time"
	case KindTimeOfDay:
		return "time_of_day"
	case KindSlice:
		return "slice"
	default:
		return "invalid"
	}
}

// TimeOfDay is a wall-clock time of day rendered from the localtime_into_day
// base type. A seconds count of a full day or more saturates at 23:59:59,
// per spec.md's localtime_into_day rule.
type TimeOfDay struct {
	Hours, Minutes, Seconds int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hours, t.Minutes, t.Seconds)
}

// Value is a tagged-variant rendering of one field's data: scalar integer,
// float, string, datetime, time-of-day, boolean, byte-group, or a tuple
// (Slice) of any of those. It replaces interface{} typed values with an
// explicit, exhaustively-switchable shape, per spec.md §9's "polymorphic
// value" design note.
type Value struct {
	Kind  Kind
	Units string

	i   int64
	u   uint64
	f   float64
	s   string
	b   bool
	by  []byte
	t   time.Time
	tod TimeOfDay
	sl  []Value
}

// Invalid returns the "no value present" Value.
func Invalid() Value { return Value{Kind: KindInvalid} }

// IsValid reports whether the value is present (not the invalid sentinel).
func (v Value) IsValid() bool { return v.Kind != KindInvalid }

func IntValue(i int64) Value     { return Value{Kind: KindInt, i: i} }
func UintValue(u uint64) Value   { return Value{Kind: KindUint, u: u} }
func FloatValue(f float64) Value { return Value{Kind: KindFloat, f: f} }
func StringValue(s string) Value { return Value{Kind: KindString, s: s} }
func BoolValue(b bool) Value     { return Value{Kind: KindBool, b: b} }
func BytesValue(b []byte) Value  { return Value{Kind: KindBytes, by: b} }
func TimeValue(t time.Time) Value {
	return Value{Kind: KindTime, t: t}
}
func TimeOfDayValue(tod TimeOfDay) Value { return Value{Kind: KindTimeOfDay, tod: tod} }
func SliceValue(vs []Value) Value        { return Value{Kind: KindSlice, sl: vs} }

// WithUnits returns a copy of v with Units set.
func (v Value) WithUnits(units string) Value {
	v.Units = units
	return v
}

// Int returns the raw int64 payload and whether Kind is KindInt.
func (v Value) Int() (int64, bool) {
	if v.Kind != KindInt {
		return 0, false
	}
	return v.i, true
}

// Uint returns the raw uint64 payload and whether Kind is KindUint.
func (v Value) Uint() (uint64, bool) {
	if v.Kind != KindUint {
		return 0, false
	}
	return v.u, true
}

// Float returns the raw float64 payload and whether Kind is KindFloat.
func (v Value) Float() (float64, bool) {
	if v.Kind != KindFloat {
		return 0, false
	}
	return v.f, true
}

// String returns the raw string payload and whether Kind is KindString.
func (v Value) String() (string, bool) {
	if v.Kind != KindString {
		return "", false
	}
	return v.s, true
}

// Bool returns the raw bool payload and whether Kind is KindBool.
func (v Value) Bool() (bool, bool) {
	if v.Kind != KindBool {
		return false, false
	}
	return v.b, true
}

// Bytes returns the raw byte group and whether Kind is KindBytes.
func (v Value) Bytes() ([]byte, bool) {
	if v.Kind != KindBytes {
		return nil, false
	}
	return v.by, true
}

// Time returns the raw time payload and whether Kind is KindTime.
func (v Value) Time() (time.Time, bool) {
	if v.Kind != KindTime {
		return time.Time{}, false
	}
	return v.t, true
}

// TimeOfDayVal returns the raw time-of-day payload and whether Kind is
// KindTimeOfDay.
func (v Value) TimeOfDayVal() (TimeOfDay, bool) {
	if v.Kind != KindTimeOfDay {
		return TimeOfDay{}, false
	}
	return v.tod, true
}

// Slice returns the tuple elements and whether Kind is KindSlice.
func (v Value) Slice() ([]Value, bool) {
	if v.Kind != KindSlice {
		return nil, false
	}
	return v.sl, true
}

// AsFloat64 converts numeric kinds (and the first element of a numeric
// slice) to float64, mirroring the teacher's FieldValue.AsFloat64 helper.
func (v Value) AsFloat64() (float64, bool) {
	switch v.Kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	case KindUint:
		return float64(v.u), true
	case KindSlice:
		if len(v.sl) > 0 {
			return v.sl[0].AsFloat64()
		}
	}
	return 0, false
}

// Raw converts the Value to a plain Go value suitable for JSON/map
// rendering (DataMessage.AsMap).
func (v Value) Raw() interface{} {
	switch v.Kind {
	case KindInt:
		return v.i
	case KindUint:
		return v.u
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindBool:
		return v.b
	case KindBytes:
		return v.by
	case KindTime:
		return v.t
	case KindTimeOfDay:
		return v.tod
	case KindSlice:
		out := make([]interface{}, len(v.sl))
		for i, e := range v.sl {
			out[i] = e.Raw()
		}
		return out
	default:
		return nil
	}
}

// mapNumeric applies fn to every numeric element of v (scalar or slice),
// leaving non-numeric kinds untouched. Used by scale/offset and unit
// conversion, which spec.md §4.7/§4.9 require to apply element-wise to
// tuples.
func (v Value) mapNumeric(fn func(float64) float64) Value {
	switch v.Kind {
	case KindFloat:
		v.f = fn(v.f)
		return v
	case KindInt:
		v.f = fn(float64(v.i))
		v.Kind = KindFloat
		return v
	case KindUint:
		v.f = fn(float64(v.u))
		v.Kind = KindFloat
		return v
	case KindSlice:
		out := make([]Value, len(v.sl))
		for i, e := range v.sl {
			out[i] = e.mapNumeric(fn)
		}
		v.sl = out
		return v
	default:
		return v
	}
}
