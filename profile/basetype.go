package profile

import (
	"encoding/binary"
	"math"
)

// BaseType is one of the FIT protocol's seventeen primitive encodings:
// struct format, element size, signedness and invalid-value sentinel.
// Modeled on canboat's closed FieldType enumeration (canboat/canboatpgns.go)
// but for FIT's byte-level base types instead of NMEA 2000's bit-level
// field types.
type BaseType struct {
	Name       string
	Identifier byte
	Size       int // bytes per element
	Signed     bool
	Float      bool
	IsString   bool
	IsByteType bool
}

// nr is the low 5 bits of the identifier byte (the "type number" spec.md §3
// describes: identifier & 0x1F == type_num).
func (bt *BaseType) nr() byte { return bt.Identifier & 0x1F }

var (
	Enum     = &BaseType{Name: "enum", Identifier: 0x00, Size: 1}
	SInt8    = &BaseType{Name: "sint8", Identifier: 0x01, Size: 1, Signed: true}
	UInt8    = &BaseType{Name: "uint8", Identifier: 0x02, Size: 1}
	SInt16   = &BaseType{Name: "sint16", Identifier: 0x83, Size: 2, Signed: true}
	UInt16   = &BaseType{Name: "uint16", Identifier: 0x84, Size: 2}
	SInt32   = &BaseType{Name: "sint32", Identifier: 0x85, Size: 4, Signed: true}
	UInt32   = &BaseType{Name: "uint32", Identifier: 0x86, Size: 4}
	StringBT = &BaseType{Name: "string", Identifier: 0x07, Size: 1, IsString: true}
	Float32  = &BaseType{Name: "float32", Identifier: 0x88, Size: 4, Float: true, Signed: true}
	Float64  = &BaseType{Name: "float64", Identifier: 0x89, Size: 8, Float: true, Signed: true}
	UInt8z   = &BaseType{Name: "uint8z", Identifier: 0x0A, Size: 1}
	UInt16z  = &BaseType{Name: "uint16z", Identifier: 0x8B, Size: 2}
	UInt32z  = &BaseType{Name: "uint32z", Identifier: 0x8C, Size: 4}
	Byte     = &BaseType{Name: "byte", Identifier: 0x0D, Size: 1, IsByteType: true}
	SInt64   = &BaseType{Name: "sint64", Identifier: 0x8E, Size: 8, Signed: true}
	UInt64   = &BaseType{Name: "uint64", Identifier: 0x8F, Size: 8}
	UInt64z  = &BaseType{Name: "uint64z", Identifier: 0x90, Size: 8}
)

// BaseTypes is the registry of all known base types, keyed by their wire
// identifier byte.
var BaseTypes = map[byte]*BaseType{
	Enum.Identifier:     Enum,
	SInt8.Identifier:    SInt8,
	UInt8.Identifier:    UInt8,
	SInt16.Identifier:   SInt16,
	UInt16.Identifier:   UInt16,
	SInt32.Identifier:   SInt32,
	UInt32.Identifier:   UInt32,
	StringBT.Identifier: StringBT,
	Float32.Identifier:  Float32,
	Float64.Identifier:  Float64,
	UInt8z.Identifier:   UInt8z,
	UInt16z.Identifier:  UInt16z,
	UInt32z.Identifier:  UInt32z,
	Byte.Identifier:     Byte,
	SInt64.Identifier:   SInt64,
	UInt64.Identifier:   UInt64,
	UInt64z.Identifier:  UInt64z,
}

// LookupBaseType resolves a wire base-type identifier, following spec.md
// §4.5: an unknown id falls back to the byte base type.
func LookupBaseType(id byte) *BaseType {
	if bt, ok := BaseTypes[id]; ok {
		return bt
	}
	return Byte
}

// ParseElement decodes exactly bt.Size bytes (or, for string/byte types, the
// whole of raw) into a Value, mapping the base type's invalid sentinel to
// Value{Kind: KindInvalid} per spec.md §6's base-type table.
func (bt *BaseType) ParseElement(raw []byte, order binary.ByteOrder) Value {
	switch bt {
	case StringBT:
		return bt.parseString(raw)
	case Byte:
		return bt.parseByteGroup(raw)
	}

	switch bt {
	case Enum, UInt8, UInt8z:
		b := raw[0]
		if b == invalidUint8(bt) {
			return Invalid()
		}
		return UintValue(uint64(b))
	case SInt8:
		b := raw[0]
		if b == 0x7F {
			return Invalid()
		}
		return IntValue(int64(int8(b)))
	case UInt16, UInt16z:
		v := order.Uint16(raw)
		if v == invalidUint16(bt) {
			return Invalid()
		}
		return UintValue(uint64(v))
	case SInt16:
		v := order.Uint16(raw)
		if v == 0x7FFF {
			return Invalid()
		}
		return IntValue(int64(int16(v)))
	case UInt32, UInt32z:
		v := order.Uint32(raw)
		if v == invalidUint32(bt) {
			return Invalid()
		}
		return UintValue(uint64(v))
	case SInt32:
		v := order.Uint32(raw)
		if v == 0x7FFFFFFF {
			return Invalid()
		}
		return IntValue(int64(int32(v)))
	case UInt64, UInt64z:
		v := order.Uint64(raw)
		if v == invalidUint64(bt) {
			return Invalid()
		}
		return UintValue(v)
	case SInt64:
		v := order.Uint64(raw)
		if v == 0x7FFFFFFFFFFFFFFF {
			return Invalid()
		}
		return IntValue(int64(v))
	case Float32:
		bits := order.Uint32(raw)
		f := math.Float32frombits(bits)
		if bits == 0xFFFFFFFF || f != f { // NaN
			return Invalid()
		}
		return FloatValue(float64(f))
	case Float64:
		bits := order.Uint64(raw)
		f := math.Float64frombits(bits)
		if f != f { // NaN
			return Invalid()
		}
		return FloatValue(f)
	default:
		return bt.parseByteGroup(raw)
	}
}

func invalidUint8(bt *BaseType) byte {
	if bt == UInt8z {
		return 0x00
	}
	return 0xFF
}

func invalidUint16(bt *BaseType) uint16 {
	if bt == UInt16z {
		return 0x0000
	}
	return 0xFFFF
}

func invalidUint32(bt *BaseType) uint32 {
	if bt == UInt32z {
		return 0x00000000
	}
	return 0xFFFFFFFF
}

func invalidUint64(bt *BaseType) uint64 {
	if bt == UInt64z {
		return 0
	}
	return 0xFFFFFFFFFFFFFFFF
}

// parseString renders a null-terminated (or unterminated) UTF-8 byte group.
// Unterminated strings decode the entire declared length (spec.md §4.9/§8).
func (bt *BaseType) parseString(raw []byte) Value {
	end := len(raw)
	for i, b := range raw {
		if b == 0x00 {
			end = i
			break
		}
	}
	if end == 0 {
		return Invalid()
	}
	return StringValue(sanitizeUTF8(raw[:end]))
}

// parseByteGroup renders a "byte" base type group as a single tuple value;
// an all-0xFF group is the invalid sentinel (spec.md §6).
func (bt *BaseType) parseByteGroup(raw []byte) Value {
	allFF := true
	for _, b := range raw {
		if b != 0xFF {
			allFF = false
			break
		}
	}
	if allFF && len(raw) > 0 {
		return Invalid()
	}
	cp := make([]byte, len(raw))
	copy(cp, raw)
	return BytesValue(cp)
}

// sanitizeUTF8 replaces invalid UTF-8 byte sequences, matching spec.md §9's
// "be tolerant ... of invalid UTF-8 (use replacement)".
func sanitizeUTF8(b []byte) string {
	return string([]rune(string(b)))
}

// ParseArray decodes size bytes as size/bt.Size elements of bt, returning a
// scalar Value for a single element or a KindSlice Value otherwise. String
// and byte base types are always treated as one value regardless of size,
// per spec.md §4.6.
func (bt *BaseType) ParseArray(raw []byte, order binary.ByteOrder) Value {
	if bt.IsString || bt.IsByteType {
		return bt.ParseElement(raw, order)
	}
	n := len(raw) / bt.Size
	if n <= 1 {
		if len(raw) < bt.Size {
			return Invalid()
		}
		return bt.ParseElement(raw[:bt.Size], order)
	}
	elems := make([]Value, 0, n)
	for i := 0; i < n; i++ {
		elems = append(elems, bt.ParseElement(raw[i*bt.Size:(i+1)*bt.Size], order))
	}
	return SliceValue(elems)
}
