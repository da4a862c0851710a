package profile

// FieldType is a higher type layered over a BaseType, optionally mapping
// raw integer values to names (an enum). Grounded on canboat.Enum /
// canboat.LookupEnumerations (canboat/enum.go), generalized from a
// separate lookup table keyed by enum name to a value embedded directly in
// the FieldType, which is how FIT's profile associates enums with fields.
type FieldType struct {
	Name     string
	BaseType *BaseType
	Values   map[uint64]string // nil when this FieldType has no enum mapping
}

// Render substitutes a raw unsigned value for its enum name, if one is
// known. Non-enum FieldTypes and unknown raw values pass the Value through
// unchanged, matching spec.md §4.6's "render the field itself" step.
func (ft *FieldType) Render(v Value) Value {
	if ft == nil || ft.Values == nil || !v.IsValid() {
		return v
	}
	var raw uint64
	switch v.Kind {
	case KindUint:
		raw, _ = v.Uint()
	case KindInt:
		i, _ := v.Int()
		raw = uint64(i)
	default:
		return v
	}
	if name, ok := ft.Values[raw]; ok {
		return StringValue(name)
	}
	return v
}

// RefField is one trigger condition for a SubField: the sub-field activates
// only when every one of its RefFields matches the raw (pre-scale) value of
// the named field elsewhere in the same data message (spec.md §3).
type RefField struct {
	DefNum   uint8
	RawValue uint64
}

// Component is a bit-packed sub-value of a containing field (spec.md §3/
// §4.6). Its DefNum names the sibling Field in the same MessageType that
// describes how to render the extracted bits.
type Component struct {
	DefNum     uint8
	Scale      float64
	Offset     float64
	Units      string
	Accumulate bool
	Bits       uint8
	BitOffset  uint8
}

// SubField is a conditionally-activated alternative interpretation of a
// Field, selected by RefFields matching already-decoded raw values in the
// same message (spec.md §3/§4.6).
type SubField struct {
	Name       string
	Type       *FieldType
	Scale      float64
	Offset     float64
	Units      string
	Components []Component
	RefFields  []RefField
}

// Matches reports whether every RefField condition is satisfied by raw,
// a map of def_num -> already-decoded raw Value for the current message.
func (sf *SubField) Matches(raw map[uint8]Value) bool {
	for _, rf := range sf.RefFields {
		v, ok := raw[rf.DefNum]
		if !ok || !v.IsValid() {
			return false
		}
		var got uint64
		switch v.Kind {
		case KindUint:
			got, _ = v.Uint()
		case KindInt:
			i, _ := v.Int()
			got = uint64(i)
		default:
			return false
		}
		if got != rf.RawValue {
			return false
		}
	}
	return len(sf.RefFields) > 0
}

// Field is one profile-defined field of a MessageType (spec.md §3).
type Field struct {
	Name       string
	DefNum     uint8
	Type       *FieldType
	Scale      float64
	Offset     float64
	Units      string
	Components []Component
	SubFields  []SubField
	Array      bool
}

// ResolveSubField scans f's sub-fields in declared order and returns the
// first one whose RefFields all match, per spec.md §4.6. ok is false when
// no sub-field is declared or none matched, in which case the base Field
// interpretation applies.
func (f *Field) ResolveSubField(raw map[uint8]Value) (*SubField, bool) {
	for i := range f.SubFields {
		if f.SubFields[i].Matches(raw) {
			return &f.SubFields[i], true
		}
	}
	return nil, false
}

// Apply applies scale and offset to v, after enum rendering and before unit
// conversion, per spec.md §4.7: value = (raw/scale) - offset, element-wise
// over tuples. Non-numeric values pass through unchanged.
func Apply(v Value, scale, offset float64) Value {
	if !v.IsValid() {
		return v
	}
	if scale == 0 && offset == 0 {
		return v
	}
	return v.mapNumeric(func(x float64) float64 {
		if scale != 0 {
			x = x / scale
		}
		if offset != 0 {
			x = x - offset
		}
		return x
	})
}

// Unapply is the inverse of Apply, used by round-trip tests (spec.md §8).
func Unapply(v Value, scale, offset float64) Value {
	if !v.IsValid() {
		return v
	}
	if scale == 0 && offset == 0 {
		return v
	}
	return v.mapNumeric(func(x float64) float64 {
		if offset != 0 {
			x = x + offset
		}
		if scale != 0 {
			x = x * scale
		}
		return x
	})
}

// MessageType is the profile schema for one global FIT message, keyed by
// def_num (spec.md §3). Grounded on canboat.PGN (canboat/canboatpgns.go).
type MessageType struct {
	Name   string
	Num    MesgNum
	Fields map[uint8]*Field
}

// Field looks up a Field by its def_num.
func (mt *MessageType) Field(defNum uint8) (*Field, bool) {
	if mt == nil {
		return nil, false
	}
	f, ok := mt.Fields[defNum]
	return f, ok
}
