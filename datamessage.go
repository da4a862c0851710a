package fitstream

import (
	"strconv"

	"github.com/halvorsen/fitstream/profile"
)

// FieldData is one rendered value inside a DataMessage (spec.md §3),
// grounded on nmea.FieldValue (fieldvalue.go).
type FieldData struct {
	FieldDef    *FieldDef // nil for synthesized component/timestamp fields
	Field       *profile.Field
	SubField    *profile.SubField
	ParentField *profile.Field
	Name        string
	Value       profile.Value
	RawValue    profile.Value
	Units       string
}

// DataMessage is one decoded record (spec.md §3), grounded on
// nmea.Message (nmea.go).
type DataMessage struct {
	Header   MessageHeader
	DefMesg  *DefinitionMessage
	MesgName string
	MesgNum  profile.MesgNum
	Fields   []FieldData
}

// AsMap renders m as a plain name -> value mapping, per spec.md §4.10's
// as_dict option / SPEC_FULL's DataMessage.AsMap.
func (m DataMessage) AsMap() map[string]interface{} {
	out := make(map[string]interface{}, len(m.Fields))
	for _, f := range m.Fields {
		out[f.Name] = f.Value.Raw()
	}
	return out
}

// valueAsUint coerces a scalar or byte-tuple Value into an unsigned
// integer for bit manipulation: KindBytes is read as a little-endian tuple
// the way spec.md §4.6 describes component bit-unpacking.
func valueAsUint(v profile.Value) (uint64, bool) {
	switch v.Kind {
	case profile.KindUint:
		u, _ := v.Uint()
		return u, true
	case profile.KindInt:
		i, _ := v.Int()
		return uint64(i), true
	case profile.KindBytes:
		b, _ := v.Bytes()
		var n uint64
		for i, bb := range b {
			n |= uint64(bb) << uint(8*i)
		}
		return n, true
	default:
		return 0, false
	}
}

type accumKey struct {
	mesgNum profile.MesgNum
	defNum  uint8
}

// compressedAccumulate implements spec.md §4.6's generic accumulation used
// both for compressed-timestamp headers and accumulating components.
func compressedAccumulate(raw, accum uint32, bits uint) uint32 {
	max := uint32(1) << bits
	mask := max - 1
	base := raw + (accum &^ mask)
	if raw < (accum & mask) {
		base += max
	}
	return base
}

// decodeDataMessage reads the data message bound to hdr.LocalMesgNum,
// following tormoder-gofit/reader.go's parseDataMessage/parseDataFields
// shape but building a generic []FieldData the way
// canboat.Decoder.decode/decodeWithRepeatedFields builds []decoded,
// instead of reflect-setting fields on a generated per-message struct
// (spec.md §9's instruction to avoid reflection-like dispatch).
func (d *Decoder) decodeDataMessage(hdr MessageHeader) (DataMessage, error) {
	def, ok := d.defs[hdr.LocalMesgNum]
	if !ok {
		return DataMessage{}, &ParseError{
			Msg: "data message references an unbound local message number",
			Err: ErrUnboundLocalMessage,
		}
	}

	msg := DataMessage{Header: hdr, DefMesg: def, MesgNum: def.MesgNum}
	if def.MesgType != nil {
		msg.MesgName = def.MesgType.Name
	}

	raw := make(map[uint8]profile.Value, len(def.FieldDefs))
	rawVals := make([]profile.Value, len(def.FieldDefs))
	fields := make([]*profile.Field, len(def.FieldDefs))

	// First pass: read every regular field-def's raw bytes before rendering
	// any of them, per spec.md §4.6 step 2 (read raw values) preceding step 3
	// (sub-field resolution) — a sub-field may name a ref field defined
	// later in the same definition message.
	for i, fd := range def.FieldDefs {
		buf := make([]byte, fd.Size)
		if err := d.br.readFull(buf); err != nil {
			return DataMessage{}, err
		}
		rawVal := fd.BaseType.ParseArray(buf, def.Endian)
		raw[fd.DefNum] = rawVal
		rawVals[i] = rawVal

		if def.MesgType != nil {
			fields[i], _ = def.MesgType.Field(fd.DefNum)
		}

		if fd.DefNum == profile.FieldNumTimestamp && rawVal.IsValid() {
			if u, ok := valueAsUint(rawVal); ok {
				d.timestampAccum = uint32(u)
			}
		}
	}

	// Second pass: render each field now that every raw value in the
	// message is available for sub-field resolution.
	for i, fd := range def.FieldDefs {
		rendered := d.renderField(def, fd, fields[i], rawVals[i], raw)
		msg.Fields = append(msg.Fields, rendered...)
	}

	for _, dfd := range def.DevFieldDefs {
		buf := make([]byte, dfd.Size)
		if err := d.br.readFull(buf); err != nil {
			return DataMessage{}, err
		}
		bt := profile.Byte
		name := ""
		units := ""
		if dfd.Field != nil {
			bt = dfd.Field.Type
			name = dfd.Field.Name
			units = dfd.Field.Units
		}
		rawVal := bt.ParseArray(buf, def.Endian)
		value := d.process(msg.MesgName, name, "", units, rawVal)
		msg.Fields = append(msg.Fields, FieldData{
			FieldDef: nil, Name: name, Value: value, RawValue: rawVal, Units: units,
		})
	}

	switch msg.MesgNum {
	case profile.MesgNumDeveloperDataID:
		d.installDeveloperDataID(raw)
	case profile.MesgNumFieldDescription:
		if err := d.installFieldDescription(raw); err != nil {
			return DataMessage{}, err
		}
	}

	if hdr.TimeOffset != nil {
		d.timestampAccum = compressedAccumulate(uint32(*hdr.TimeOffset), d.timestampAccum, 5)
		tsField, _ := lookupField(def.MesgType, profile.FieldNumTimestamp)
		rawVal := profile.UintValue(uint64(d.timestampAccum))
		typeName := ""
		if tsField != nil && tsField.Type != nil {
			typeName = tsField.Type.Name
		}
		value := d.process(msg.MesgName, "timestamp", typeName, "", rawVal)
		msg.Fields = append(msg.Fields, FieldData{
			FieldDef: nil, Field: tsField, Name: "timestamp", Value: value, RawValue: rawVal,
		})
	}

	msg.Fields = d.processor.ProcessMessage(msg.MesgName, msg.Fields)

	return msg, nil
}

// installDeveloperDataID feeds a decoded developer_data_id message into the
// decoder's developer-data registry, per spec.md §4.8.
func (d *Decoder) installDeveloperDataID(raw map[uint8]profile.Value) {
	idx, ok := valueAsUint(raw[3]) // developer_data_index
	if !ok {
		return
	}
	var appID []byte
	if b, ok := raw[1].Bytes(); ok { // application_id
		appID = b
	}
	d.devs.installDeveloperDataID(uint8(idx), appID)
}

// installFieldDescription feeds a decoded field_description message into
// the decoder's developer-data registry, per spec.md §4.8.
func (d *Decoder) installFieldDescription(raw map[uint8]profile.Value) error {
	idx, ok := valueAsUint(raw[0]) // developer_data_index
	if !ok {
		return nil
	}
	defNum, ok := valueAsUint(raw[1]) // field_definition_number
	if !ok {
		return nil
	}
	btID, _ := valueAsUint(raw[2]) // fit_base_type_id
	bt := profile.LookupBaseType(uint8(btID))

	name := ""
	if s, ok := raw[3].String(); ok {
		name = s
	}
	units := ""
	if s, ok := raw[8].String(); ok {
		units = s
	}
	var nativeFieldNum *uint8
	if n, ok := valueAsUint(raw[15]); ok {
		nn := uint8(n)
		nativeFieldNum = &nn
	}

	warn, err := d.devs.installFieldDescription(uint8(idx), uint8(defNum), bt, name, units, nativeFieldNum)
	if err != nil {
		return err
	}
	if warn != nil {
		d.addWarning(*warn)
	}
	return nil
}

func lookupField(mt *profile.MessageType, defNum uint8) (*profile.Field, bool) {
	if mt == nil {
		return nil, false
	}
	return mt.Field(defNum)
}

// process runs the type -> field -> unit processor pipeline over a single
// value, per spec.md §4.9.
func (d *Decoder) process(mesgName, fieldName, typeName, units string, v profile.Value) profile.Value {
	v = d.processor.ProcessType(typeName, v)
	v = d.processor.ProcessField(fieldName, v)
	v = d.processor.ProcessUnit(units, v)
	return v
}

// renderField builds the FieldData(s) for one regular field-def: component
// expansion (emitted first, per spec.md §5's ordering rule) followed by the
// field's own rendered value.
func (d *Decoder) renderField(def *DefinitionMessage, fd FieldDef, f *profile.Field, rawVal profile.Value, raw map[uint8]profile.Value) []FieldData {
	name := fieldNameOrDefault(f, fd.DefNum)
	if f == nil {
		return []FieldData{{
			FieldDef: &fd, Name: name, Value: rawVal, RawValue: rawVal,
		}}
	}

	active := f
	var subField *profile.SubField
	if sf, ok := f.ResolveSubField(raw); ok {
		subField = sf
	}

	components := f.Components
	scale, offset, units := f.Scale, f.Offset, f.Units
	typeName := ""
	if f.Type != nil {
		typeName = f.Type.Name
	}
	if subField != nil {
		components = subField.Components
		scale, offset, units = subField.Scale, subField.Offset, subField.Units
		name = subField.Name
		if subField.Type != nil {
			typeName = subField.Type.Name
		}
	}

	var out []FieldData
	if rawVal.IsValid() {
		out = append(out, d.expandComponents(def, components, rawVal)...)
	}

	rendered := rawVal
	if subField != nil {
		// An active sub-field replaces the parent's interpretation entirely
		// (spec.md §4.6); the parent's FieldType must not also render.
		if subField.Type != nil {
			rendered = subField.Type.Render(rendered)
		}
	} else if active.Type != nil {
		rendered = active.Type.Render(rendered)
	}
	rendered = profile.Apply(rendered, scale, offset)
	rendered = rendered.WithUnits(units)
	rendered = d.process(def.mesgName(), name, typeName, units, rendered)

	fd2 := fd
	out = append(out, FieldData{
		FieldDef: &fd2, Field: active, SubField: subField, Name: name,
		Value: rendered, RawValue: rawVal, Units: rendered.Units,
	})
	return out
}

func fieldNameOrDefault(f *profile.Field, defNum uint8) string {
	if f != nil {
		return f.Name
	}
	return unknownFieldName(defNum)
}

func unknownFieldName(defNum uint8) string {
	return "unknown_" + strconv.Itoa(int(defNum))
}

// expandComponents unpacks each component per spec.md §4.6: bit-extract,
// optionally accumulate, apply the component's own scale/offset, then
// re-render through the target field named by component.DefNum.
func (d *Decoder) expandComponents(def *DefinitionMessage, components []profile.Component, rawVal profile.Value) []FieldData {
	if len(components) == 0 {
		return nil
	}
	n, ok := valueAsUint(rawVal)
	if !ok {
		return nil
	}
	totalBits := valueBitWidth(rawVal)

	var out []FieldData
	for _, c := range components {
		if int(c.BitOffset) >= totalBits {
			continue // silently skipped, per spec.md §9's open-question decision
		}
		mask := uint64(1)<<c.Bits - 1
		compRaw := (n >> c.BitOffset) & mask

		if c.Accumulate {
			key := accumKey{def.MesgNum, c.DefNum}
			accum := d.componentAccum[key]
			newAccum := compressedAccumulate(uint32(compRaw), accum, uint(c.Bits))
			d.componentAccum[key] = newAccum
			compRaw = uint64(newAccum)
		}

		targetField, _ := lookupField(def.MesgType, c.DefNum)
		value := profile.Apply(profile.UintValue(compRaw), c.Scale, c.Offset)
		name := fieldNameOrDefault(targetField, c.DefNum)
		units := c.Units
		typeName := ""
		if targetField != nil {
			if targetField.Type != nil {
				value = targetField.Type.Render(value)
				typeName = targetField.Type.Name
			}
			if units == "" {
				units = targetField.Units
			}
		}
		value = value.WithUnits(units)
		value = d.process(def.mesgName(), name, typeName, units, value)

		out = append(out, FieldData{
			FieldDef: nil, Field: targetField, Name: name,
			Value: value, RawValue: profile.UintValue(compRaw), Units: value.Units,
		})
	}
	return out
}

func valueBitWidth(v profile.Value) int {
	switch v.Kind {
	case profile.KindBytes:
		b, _ := v.Bytes()
		return len(b) * 8
	case profile.KindUint, profile.KindInt:
		return 64
	default:
		return 0
	}
}

func (def *DefinitionMessage) mesgName() string {
	if def.MesgType != nil {
		return def.MesgType.Name
	}
	return ""
}

