package fitstream

import (
	"encoding/binary"
	"fmt"

	"github.com/halvorsen/fitstream/profile"
)

// FieldDef is one regular field-def triplet inside a definition message
// (spec.md §4.5 / §3), grounded on tormoder-gofit/reader.go's fieldDef.
type FieldDef struct {
	DefNum   uint8
	Size     uint8
	BaseType *profile.BaseType
}

// DevFieldDef is one developer field-def triplet, resolved against the
// developer-data registry at definition time (spec.md §4.8).
type DevFieldDef struct {
	DefNum       uint8
	Size         uint8
	DevDataIndex uint8
	Field        *DevField
}

// DefinitionMessage is the per-local-id layout template bound by a
// definition message, grounded on tormoder-gofit/reader.go's defmsg.
type DefinitionMessage struct {
	LocalMesgNum uint8
	Endian       binary.ByteOrder
	MesgNum      profile.MesgNum
	MesgType     *profile.MessageType // nil for an unknown global message number
	FieldDefs    []FieldDef
	DevFieldDefs []DevFieldDef
}

// decodeDefinition parses the definition message following hdr, per
// spec.md §4.5.
func (d *Decoder) decodeDefinition(hdr MessageHeader) (*DefinitionMessage, error) {
	if err := d.br.readFull(d.tmp[:1]); err != nil { // reserved byte
		return nil, err
	}
	archByte, err := d.br.readByte()
	if err != nil {
		return nil, err
	}
	endian := binary.ByteOrder(binary.LittleEndian)
	if archByte != 0 {
		endian = binary.BigEndian
	}

	mesgNumRaw, err := d.br.readUint16(endian)
	if err != nil {
		return nil, err
	}
	mesgNum := profile.MesgNum(mesgNumRaw)

	numFields, err := d.br.readByte()
	if err != nil {
		return nil, err
	}

	def := &DefinitionMessage{
		LocalMesgNum: hdr.LocalMesgNum,
		Endian:       endian,
		MesgNum:      mesgNum,
	}
	def.MesgType, _ = profile.GetMessageType(mesgNum)

	def.FieldDefs = make([]FieldDef, 0, numFields)
	for i := 0; i < int(numFields); i++ {
		var triplet [3]byte
		if err := d.br.readFull(triplet[:]); err != nil {
			return nil, err
		}
		defNum, size, baseTypeID := triplet[0], triplet[1], triplet[2]
		bt := profile.LookupBaseType(baseTypeID)
		if int(size)%bt.Size != 0 {
			d.warn(fmt.Sprintf("field %d: size %d is not a multiple of base type %s size %d, falling back to byte", defNum, size, bt.Name, bt.Size))
			bt = profile.Byte
		}
		def.FieldDefs = append(def.FieldDefs, FieldDef{DefNum: defNum, Size: size, BaseType: bt})
	}

	if hdr.IsDeveloperData {
		numDevFields, err := d.br.readByte()
		if err != nil {
			return nil, err
		}
		def.DevFieldDefs = make([]DevFieldDef, 0, numDevFields)
		for i := 0; i < int(numDevFields); i++ {
			var triplet [3]byte
			if err := d.br.readFull(triplet[:]); err != nil {
				return nil, err
			}
			defNum, size, devDataIndex := triplet[0], triplet[1], triplet[2]
			devField, warn, err := d.devs.get(devDataIndex, defNum)
			if err != nil {
				return nil, err
			}
			if warn != nil {
				d.addWarning(*warn)
			}
			def.DevFieldDefs = append(def.DevFieldDefs, DevFieldDef{
				DefNum: defNum, Size: size, DevDataIndex: devDataIndex, Field: devField,
			})
		}
	}

	d.initAccumulators(def)

	return def, nil
}

// initAccumulators zeroes the per-mesg-num accumulator slot for every
// component declared with accumulate=true on this message type's fields,
// per spec.md §4.5 step 6. There is no direct teacher analog for component
// accumulation (NMEA 2000 has no equivalent mechanism); this follows
// spec.md's text directly, in profile.Field's idiom.
func (d *Decoder) initAccumulators(def *DefinitionMessage) {
	if def.MesgType == nil {
		return
	}
	for _, f := range def.MesgType.Fields {
		for _, c := range f.Components {
			if c.Accumulate {
				d.componentAccum[accumKey{def.MesgNum, c.DefNum}] = 0
			}
		}
		for _, sf := range f.SubFields {
			for _, c := range sf.Components {
				if c.Accumulate {
					d.componentAccum[accumKey{def.MesgNum, c.DefNum}] = 0
				}
			}
		}
	}
}
