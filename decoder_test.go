package fitstream

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halvorsen/fitstream/profile"
)

func fieldByName(t *testing.T, msg DataMessage, name string) FieldData {
	t.Helper()
	for _, f := range msg.Fields {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("field %q not found in message %s (have: %v)", name, msg.MesgName, fieldNames(msg))
	return FieldData{}
}

func fieldNames(msg DataMessage) []string {
	out := make([]string, len(msg.Fields))
	for i, f := range msg.Fields {
		out[i] = f.Name
	}
	return out
}

// fileIDBody builds one file_id definition + data message pair with the
// given raw values, little- or big-endian per uint16/uint32 writers.
func fileIDBody(u16 func(uint16) []byte, u32 func(uint32) []byte, bigEndian bool, manufacturer, product, number uint16, serial, timeCreated uint32, productName string, fileType byte) []byte {
	def := defMsg(0, false, bigEndian, uint16(profile.MesgNumFileID), []fieldSpec{
		{defNum: 0, size: 2, baseType: 0x84},
		{defNum: 1, size: 2, baseType: 0x84},
		{defNum: 3, size: 4, baseType: 0x8C},
		{defNum: 4, size: 4, baseType: 0x86},
		{defNum: 5, size: 2, baseType: 0x84},
		{defNum: 8, size: byte(len(productName)), baseType: 0x07},
		{defNum: 11, size: 1, baseType: 0x00},
	}, nil)
	data := dataMsg(0, false, nil,
		u16(product), u16(manufacturer), u32(serial), u32(timeCreated), u16(number),
		[]byte(productName), []byte{fileType},
	)
	return append(def, data...)
}

func TestDecoder_MinimalFileIDMessage(t *testing.T) {
	body := fileIDBody(le16, le32, false, 1, 1036, 7, 123456789, 1000000000, "Edge", 4)
	dec := NewDecoderFromBytes(buildFile(body))

	msg, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, "file_id", msg.MesgName)

	assert.Equal(t, "edge500", fieldByName(t, msg, "garmin_product").Value.Raw())
	assert.Equal(t, "garmin", fieldByName(t, msg, "manufacturer").Value.Raw())
	assert.EqualValues(t, 123456789, fieldByName(t, msg, "serial_number").Value.Raw())
	assert.EqualValues(t, 7, fieldByName(t, msg, "number").Value.Raw())
	assert.Equal(t, "Edge", fieldByName(t, msg, "product_name").Value.Raw())
	assert.Equal(t, "activity", fieldByName(t, msg, "type").Value.Raw())

	wantTime := time.Unix(1000000000+fitEpochOffset, 0).UTC()
	gotTime, ok := fieldByName(t, msg, "time_created").Value.Time()
	require.True(t, ok)
	assert.True(t, wantTime.Equal(gotTime))

	_, err = dec.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestDecoder_BigEndianEquivalence(t *testing.T) {
	bodyLE := fileIDBody(le16, le32, false, 1, 1036, 7, 42, 1000000000, "Edge", 4)
	bodyBE := fileIDBody(be16, be32, true, 1, 1036, 7, 42, 1000000000, "Edge", 4)

	decLE := NewDecoderFromBytes(buildFile(bodyLE))
	decBE := NewDecoderFromBytes(buildFile(bodyBE))

	msgLE, err := decLE.Next()
	require.NoError(t, err)
	msgBE, err := decBE.Next()
	require.NoError(t, err)

	assert.Equal(t, fieldByName(t, msgLE, "garmin_product").Value.Raw(), fieldByName(t, msgBE, "garmin_product").Value.Raw())
	assert.Equal(t, fieldByName(t, msgLE, "serial_number").Value.Raw(), fieldByName(t, msgBE, "serial_number").Value.Raw())
}

// TestDecoder_SubFieldResolution_DevelopmentProduct exercises file_id's
// garmin_product -> product sub-field, which activates when manufacturer
// (def_num 1) is 255 (development). All raw values in the message are read
// before any field is rendered (spec.md §4.6 steps 2-3), so the ref field
// need not precede the sub-fielded field in definition order.
func TestDecoder_SubFieldResolution_DevelopmentProduct(t *testing.T) {
	def := defMsg(0, false, false, uint16(profile.MesgNumFileID), []fieldSpec{
		{defNum: 0, size: 2, baseType: 0x84}, // garmin_product, decoded first
		{defNum: 1, size: 2, baseType: 0x84}, // manufacturer, decoded second
	}, nil)
	data := dataMsg(0, false, nil, le16(9001), le16(255))
	dec := NewDecoderFromBytes(buildFile(append(def, data...)))

	msg, err := dec.Next()
	require.NoError(t, err)

	f := fieldByName(t, msg, "product")
	assert.EqualValues(t, 9001, f.Value.Raw())
	assert.NotNil(t, f.SubField)
}

// TestDecoder_SubFieldResolution_ReplacesParentRender exercises a raw value
// that collides with the parent garmin_product enum (1036 -> "edge500"):
// once the "product" sub-field activates, only its (enum-free) rendering
// applies, not the parent FieldType's, per spec.md §4.6.
func TestDecoder_SubFieldResolution_ReplacesParentRender(t *testing.T) {
	def := defMsg(0, false, false, uint16(profile.MesgNumFileID), []fieldSpec{
		{defNum: 1, size: 2, baseType: 0x84}, // manufacturer
		{defNum: 0, size: 2, baseType: 0x84}, // garmin_product
	}, nil)
	data := dataMsg(0, false, nil, le16(255), le16(1036))
	dec := NewDecoderFromBytes(buildFile(append(def, data...)))

	msg, err := dec.Next()
	require.NoError(t, err)

	f := fieldByName(t, msg, "product")
	assert.EqualValues(t, 1036, f.Value.Raw())
	assert.NotNil(t, f.SubField)
}

func TestDecoder_SubFieldResolution_TimerTrigger(t *testing.T) {
	def := defMsg(0, false, false, uint16(profile.MesgNumEvent), []fieldSpec{
		{defNum: 253, size: 4, baseType: 0x86},
		{defNum: 0, size: 1, baseType: 0x00},
		{defNum: 1, size: 1, baseType: 0x00},
		{defNum: 2, size: 2, baseType: 0x84},
	}, nil)
	data := dataMsg(0, false, nil,
		le32(1000000000), []byte{0}, []byte{0}, le16(2), // event=timer, event_type=start, data16=2 (fitness_equipment)
	)
	dec := NewDecoderFromBytes(buildFile(append(def, data...)))

	msg, err := dec.Next()
	require.NoError(t, err)

	f := fieldByName(t, msg, "timer_trigger")
	assert.Equal(t, "fitness_equipment", f.Value.Raw())
	assert.NotNil(t, f.SubField)
}

func TestDecoder_SubFieldComponents_SportPoint(t *testing.T) {
	def := defMsg(0, false, false, uint16(profile.MesgNumEvent), []fieldSpec{
		{defNum: 253, size: 4, baseType: 0x86},
		{defNum: 0, size: 1, baseType: 0x00},
		{defNum: 1, size: 1, baseType: 0x00},
		{defNum: 3, size: 4, baseType: 0x86},
	}, nil)
	packed := uint32(123) | uint32(456)<<16
	data := dataMsg(0, false, nil,
		le32(1000000000), []byte{33}, []byte{0}, le32(packed), // event=sport_point
	)
	dec := NewDecoderFromBytes(buildFile(append(def, data...)))

	msg, err := dec.Next()
	require.NoError(t, err)

	assert.EqualValues(t, 123, fieldByName(t, msg, "score").Value.Raw())
	assert.EqualValues(t, 456, fieldByName(t, msg, "opponent_score").Value.Raw())
}

// TestDecoder_StandardUnitsProcessor_RelabelsConvertedUnits wires
// StandardUnitsProcessor into the decoder (not just the processor in
// isolation) and checks that a converted field's emitted Units reflects the
// processor's relabeling rather than the profile's declared units.
func TestDecoder_StandardUnitsProcessor_RelabelsConvertedUnits(t *testing.T) {
	def := defMsg(0, false, false, uint16(profile.MesgNumRecord), []fieldSpec{
		{defNum: 0, size: 4, baseType: 0x85}, // position_lat, declared units "semicircles"
		{defNum: 5, size: 4, baseType: 0x86}, // distance, declared units "m"
	}, nil)
	data := dataMsg(0, false, nil, le32(uint32(1<<30)), le32(250000))

	cfg := DefaultDecoderConfig()
	cfg.Processor = StandardUnitsProcessor{}
	dec := NewDecoderWithConfig(bytes.NewReader(buildFile(append(def, data...))), cfg)

	msg, err := dec.Next()
	require.NoError(t, err)

	lat := fieldByName(t, msg, "position_lat")
	assert.InDelta(t, 90.0, mustFloat(t, lat.Value), 0.001)
	assert.Equal(t, "deg", lat.Units)

	dist := fieldByName(t, msg, "distance")
	assert.InDelta(t, 2.5, mustFloat(t, dist.Value), 0.001)
	assert.Equal(t, "km", dist.Units)
}

func TestDecoder_CompressedSpeedDistance_Accumulates(t *testing.T) {
	def := defMsg(0, false, false, uint16(profile.MesgNumRecord), []fieldSpec{
		{defNum: 253, size: 4, baseType: 0x86},
		{defNum: 13, size: 3, baseType: 0x0D},
	}, nil)

	packRecord := func(speedRaw, distanceRaw uint32) []byte {
		n := (speedRaw & 0xFFF) | ((distanceRaw & 0xFFF) << 12)
		return []byte{byte(n), byte(n >> 8), byte(n >> 16)}
	}

	rec1 := dataMsg(0, false, nil, le32(1000000000), packRecord(500, 4000))
	rec2 := dataMsg(0, false, nil, le32(1000000001), packRecord(500, 100))

	body := append(append([]byte{}, def...), rec1...)
	body = append(body, rec2...)
	dec := NewDecoderFromBytes(buildFile(body))

	msg1, err := dec.Next()
	require.NoError(t, err)
	assert.InDelta(t, 5.0, mustFloat(t, fieldByName(t, msg1, "speed").Value), 0.001)
	assert.InDelta(t, 250.0, mustFloat(t, fieldByName(t, msg1, "distance").Value), 0.001)

	msg2, err := dec.Next()
	require.NoError(t, err)
	assert.InDelta(t, 262.25, mustFloat(t, fieldByName(t, msg2, "distance").Value), 0.001)
}

func mustFloat(t *testing.T, v profile.Value) float64 {
	t.Helper()
	f, ok := v.AsFloat64()
	require.True(t, ok)
	return f
}

func TestDecoder_ChainedFiles_ResetsStateBetweenFiles(t *testing.T) {
	body1 := fileIDBody(le16, le32, false, 1, 1036, 1, 1, 1000000000, "A", 4)
	body2 := fileIDBody(le16, le32, false, 1, 1169, 2, 2, 1000000001, "B", 4)

	stream := append(buildFile(body1), buildFile(body2)...)
	dec := NewDecoderFromBytes(stream)

	all, err := dec.All()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "edge500", fieldByName(t, all[0], "garmin_product").Value.Raw())
	assert.Equal(t, "edge800", fieldByName(t, all[1], "garmin_product").Value.Raw())
}

func TestDecoder_UnboundLocalMessageErrors(t *testing.T) {
	data := dataMsg(5, false, nil, []byte{0x01})
	dec := NewDecoderFromBytes(buildFile(data))

	_, err := dec.Next()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnboundLocalMessage)
}

func TestDecoder_TrailerCRCMismatchErrors(t *testing.T) {
	body := fileIDBody(le16, le32, false, 1, 1036, 1, 1, 1000000000, "A", 4)
	stream := buildFile(body)
	stream[len(stream)-1] ^= 0xFF // corrupt trailing CRC

	dec := NewDecoderFromBytes(stream)
	_, err := dec.All()
	require.Error(t, err)
	var crcErr *CRCError
	require.ErrorAs(t, err, &crcErr)
}

func TestDecoder_TrailerCRCMismatchIgnoredWhenCheckDisabled(t *testing.T) {
	body := fileIDBody(le16, le32, false, 1, 1036, 1, 1, 1000000000, "A", 4)
	stream := buildFile(body)
	stream[len(stream)-1] ^= 0xFF

	cfg := DefaultDecoderConfig()
	cfg.CheckCRC = false
	dec := NewDecoderWithConfig(bytes.NewReader(stream), cfg)

	_, err := dec.All()
	assert.NoError(t, err)
}

func TestDecoder_DeveloperData_StrictModeErrorsOnUnknownIndex(t *testing.T) {
	def := defMsg(0, true, false, uint16(profile.MesgNumRecord), []fieldSpec{
		{defNum: 253, size: 4, baseType: 0x86},
	}, []fieldSpec{
		{defNum: 0, size: 1, baseType: 9}, // dev_data_index 9, never registered
	})
	dec := NewDecoderFromBytes(buildFile(def))

	_, err := dec.Next()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeveloperDataNotFound)
}

func TestDecoder_DeveloperData_LenientModeWarnsInsteadOfErroring(t *testing.T) {
	def := defMsg(0, true, false, uint16(profile.MesgNumRecord), []fieldSpec{
		{defNum: 253, size: 4, baseType: 0x86},
	}, []fieldSpec{
		{defNum: 0, size: 1, baseType: 9},
	})
	data := dataMsg(0, true, nil, le32(1000000000), []byte{0x42})
	body := append(def, data...)

	cfg := DefaultDecoderConfig()
	cfg.CheckDeveloperData = false
	dec := NewDecoderWithConfig(bytes.NewReader(buildFile(body)), cfg)

	msg, err := dec.Next()
	require.NoError(t, err)
	assert.NotEmpty(t, dec.Warnings())
	assert.NotEmpty(t, msg.Fields)
}

func TestDecoder_DeveloperData_RegisteredFieldResolves(t *testing.T) {
	devDataIDDef := defMsg(1, false, false, uint16(profile.MesgNumDeveloperDataID), []fieldSpec{
		{defNum: 3, size: 1, baseType: 0x02}, // developer_data_index
	}, nil)
	devDataIDData := dataMsg(1, false, nil, []byte{7})

	fieldDescDef := defMsg(2, false, false, uint16(profile.MesgNumFieldDescription), []fieldSpec{
		{defNum: 0, size: 1, baseType: 0x02}, // developer_data_index
		{defNum: 1, size: 1, baseType: 0x02}, // field_definition_number
		{defNum: 2, size: 1, baseType: 0x02}, // fit_base_type_id
		{defNum: 3, size: 4, baseType: 0x07}, // field_name
	}, nil)
	fieldDescData := dataMsg(2, false, nil, []byte{7}, []byte{0}, []byte{0x02}, []byte("grit"))

	recordDef := defMsg(0, true, false, uint16(profile.MesgNumRecord), []fieldSpec{
		{defNum: 253, size: 4, baseType: 0x86},
	}, []fieldSpec{
		{defNum: 0, size: 1, baseType: 7},
	})
	recordData := dataMsg(0, true, nil, le32(1000000000), []byte{0x63})

	body := append(append(append(append(devDataIDDef, devDataIDData...), fieldDescDef...), fieldDescData...), recordDef...)
	body = append(body, recordData...)

	dec := NewDecoderFromBytes(buildFile(body))

	msg1, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, "developer_data_id", msg1.MesgName)

	msg2, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, "field_description", msg2.MesgName)

	msg3, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, "record", msg3.MesgName)
	f := fieldByName(t, msg3, "grit")
	assert.EqualValues(t, 0x63, f.Value.Raw())
}

func TestMessageFilter_ByName(t *testing.T) {
	body1 := fileIDBody(le16, le32, false, 1, 1036, 1, 1, 1000000000, "A", 4)
	def := defMsg(1, false, false, uint16(profile.MesgNumRecord), []fieldSpec{
		{defNum: 253, size: 4, baseType: 0x86},
	}, nil)
	data := dataMsg(1, false, nil, le32(1000000001))

	stream := buildFile(append(append(append([]byte{}, body1...), def...), data...))
	dec := NewDecoderFromBytes(stream)

	filter := NewMessageFilter("record")
	msg, err := dec.NextFiltered(filter)
	require.NoError(t, err)
	assert.Equal(t, "record", msg.MesgName)
}

func TestMessageFilter_ByNum(t *testing.T) {
	body1 := fileIDBody(le16, le32, false, 1, 1036, 1, 1, 1000000000, "A", 4)
	dec := NewDecoderFromBytes(buildFile(body1))

	filter := NewMessageNumFilter(profile.MesgNumFileID)
	msg, err := dec.NextFiltered(filter)
	require.NoError(t, err)
	assert.Equal(t, "file_id", msg.MesgName)
}

func TestCachedDecoder_MessagesReplaysWholeStream(t *testing.T) {
	body1 := fileIDBody(le16, le32, false, 1, 1036, 1, 1, 1000000000, "A", 4)
	body2 := fileIDBody(le16, le32, false, 1, 1169, 2, 2, 1000000001, "B", 4)
	stream := append(buildFile(body1), buildFile(body2)...)

	cached := NewDecoderFromBytes(stream).Cached()
	msgs := cached.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "edge500", fieldByName(t, msgs[0], "garmin_product").Value.Raw())
}

func TestDataMessage_AsMap(t *testing.T) {
	body := fileIDBody(le16, le32, false, 1, 1036, 7, 1, 1000000000, "A", 4)
	dec := NewDecoderFromBytes(buildFile(body))
	msg, err := dec.Next()
	require.NoError(t, err)

	m := msg.AsMap()
	assert.Equal(t, "edge500", m["garmin_product"])
	assert.EqualValues(t, 7, m["number"])
}

func TestDecoder_FieldSizeMismatchFallsBackToByteWithWarning(t *testing.T) {
	def := defMsg(0, false, false, uint16(profile.MesgNumRecord), []fieldSpec{
		{defNum: 3, size: 3, baseType: 0x84}, // uint16 (size 2) with a declared size of 3: not a multiple
	}, nil)
	data := dataMsg(0, false, nil, []byte{0x01, 0x02, 0x03})
	dec := NewDecoderFromBytes(buildFile(append(def, data...)))

	msg, err := dec.Next()
	require.NoError(t, err)
	assert.NotEmpty(t, dec.Warnings())
	f := fieldByName(t, msg, "heart_rate")
	b, ok := f.RawValue.Bytes()
	require.True(t, ok)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, b)
}
