package profile

// plainType wraps a bare BaseType in a FieldType with no enum mapping, for
// fields that carry no named values.
func plainType(bt *BaseType) *FieldType { return &FieldType{Name: bt.Name, BaseType: bt} }

var dateTimeFieldType = &FieldType{Name: "date_time", BaseType: UInt32}
var localDateTimeFieldType = &FieldType{Name: "local_date_time", BaseType: UInt32}

var messages = map[MesgNum]*MessageType{}

func register(mt *MessageType) {
	messages[mt.Num] = mt
}

// GetMessageType looks up the profile schema for a global message number.
// A miss is not an error: unknown message numbers degrade silently per
// spec.md §7 and remain readable by raw def_num.
func GetMessageType(num MesgNum) (*MessageType, bool) {
	mt, ok := messages[num]
	return mt, ok
}

// GetField looks up one field of a known message type by def_num.
func GetField(num MesgNum, defNum uint8) (*Field, bool) {
	mt, ok := GetMessageType(num)
	if !ok {
		return nil, false
	}
	return mt.Field(defNum)
}

func init() {
	register(fileIDMessage())
	register(fileCreatorMessage())
	register(deviceInfoMessage())
	register(eventMessage())
	register(recordMessage())
	register(sportMessage())
	register(lapMessage())
	register(sessionMessage())
	register(activityMessage())
	register(developerDataIDMessage())
	register(fieldDescriptionMessage())
}

func timestampField() *Field {
	return &Field{Name: "timestamp", DefNum: FieldNumTimestamp, Type: dateTimeFieldType}
}

// fileIDMessage deviates from the real Garmin profile's def_num layout
// (where "type" occupies def_num 0): this curated table puts garmin_product
// at 0 to match spec.md §8 scenario 1's fixture bytes exactly, and gives
// "type" its own unambiguous slot instead.
func fileIDMessage() *MessageType {
	return &MessageType{
		Name: "file_id",
		Num:  MesgNumFileID,
		Fields: map[uint8]*Field{
			0: {
				Name: "garmin_product", DefNum: 0, Type: garminProductFieldType,
				SubFields: []SubField{
					{
						Name: "product", Type: plainType(UInt16),
						RefFields: []RefField{{DefNum: 1, RawValue: 255}}, // development manufacturer -> generic product code
					},
				},
			},
			1:  {Name: "manufacturer", DefNum: 1, Type: manufacturerFieldType},
			3:  {Name: "serial_number", DefNum: 3, Type: plainType(UInt32z)},
			4:  {Name: "time_created", DefNum: 4, Type: dateTimeFieldType},
			5:  {Name: "number", DefNum: 5, Type: plainType(UInt16)},
			8:  {Name: "product_name", DefNum: 8, Type: plainType(StringBT)},
			11: {Name: "type", DefNum: 11, Type: fileTypeFieldType},
		},
	}
}

func fileCreatorMessage() *MessageType {
	return &MessageType{
		Name: "file_creator",
		Num:  MesgNumFileCreator,
		Fields: map[uint8]*Field{
			0: {Name: "software_version", DefNum: 0, Type: plainType(UInt16)},
			1: {Name: "hardware_version", DefNum: 1, Type: plainType(UInt8)},
		},
	}
}

func deviceInfoMessage() *MessageType {
	return &MessageType{
		Name: "device_info",
		Num:  MesgNumDeviceInfo,
		Fields: map[uint8]*Field{
			253: timestampField(),
			0:   {Name: "device_index", DefNum: 0, Type: plainType(UInt8)},
			1:   {Name: "device_type", DefNum: 1, Type: deviceTypeFieldType},
			2:   {Name: "manufacturer", DefNum: 2, Type: manufacturerFieldType},
			3:   {Name: "serial_number", DefNum: 3, Type: plainType(UInt32z)},
			4:   {Name: "product", DefNum: 4, Type: garminProductFieldType},
			5:   {Name: "software_version", DefNum: 5, Type: plainType(UInt16), Scale: 100},
			11:  {Name: "battery_status", DefNum: 11, Type: batteryStatusFieldType},
		},
	}
}

// eventMessage models spec.md's §8 scenarios 3 & 4 exactly: the data16
// field carries a timer_trigger sub-field keyed off event+event_type, and
// the data field carries a sport_point sub-field whose two components
// (score, opponent_score) are themselves ordinary fields of this message
// type, per spec.md §3's ComponentField invariant ("def_num refers to a
// Field in the same MessageType").
func eventMessage() *MessageType {
	return &MessageType{
		Name: "event",
		Num:  MesgNumEvent,
		Fields: map[uint8]*Field{
			253: timestampField(),
			0:   {Name: "event", DefNum: 0, Type: eventFieldType},
			1:   {Name: "event_type", DefNum: 1, Type: eventTypeFieldType},
			2: {
				Name: "data16", DefNum: 2, Type: plainType(UInt16),
				SubFields: []SubField{
					{
						Name: "timer_trigger", Type: timerTriggerFieldType,
						RefFields: []RefField{
							{DefNum: 0, RawValue: 0}, // event == timer
							{DefNum: 1, RawValue: 0}, // event_type == start
						},
					},
				},
			},
			3: {
				Name: "data", DefNum: 3, Type: plainType(UInt32),
				SubFields: []SubField{
					{
						Name: "sport_point", Type: plainType(UInt32),
						RefFields: []RefField{{DefNum: 0, RawValue: 33}}, // event == sport_point
						Components: []Component{
							{DefNum: 7, Bits: 16, BitOffset: 0},
							{DefNum: 8, Bits: 16, BitOffset: 16},
						},
					},
				},
			},
			7: {Name: "score", DefNum: 7, Type: plainType(UInt16)},
			8: {Name: "opponent_score", DefNum: 8, Type: plainType(UInt16)},
		},
	}
}

// recordMessage models spec.md's §8 scenario 5: compressed_speed_distance
// packs a 12 bit speed component and a 12 bit, accumulating distance
// component into a 3 byte field.
func recordMessage() *MessageType {
	return &MessageType{
		Name: "record",
		Num:  MesgNumRecord,
		Fields: map[uint8]*Field{
			253: timestampField(),
			0:   {Name: "position_lat", DefNum: 0, Type: plainType(SInt32), Units: "semicircles"},
			1:   {Name: "position_long", DefNum: 1, Type: plainType(SInt32), Units: "semicircles"},
			2:   {Name: "altitude", DefNum: 2, Type: plainType(UInt16), Scale: 5, Offset: 500, Units: "m"},
			3:   {Name: "heart_rate", DefNum: 3, Type: plainType(UInt8), Units: "bpm"},
			4:   {Name: "cadence", DefNum: 4, Type: plainType(UInt8), Units: "rpm"},
			5:   {Name: "distance", DefNum: 5, Type: plainType(UInt32), Scale: 100, Units: "m"},
			6:   {Name: "speed", DefNum: 6, Type: plainType(UInt16), Scale: 1000, Units: "m/s"},
			7:   {Name: "power", DefNum: 7, Type: plainType(UInt16), Units: "watts"},
			13: {
				Name: "compressed_speed_distance", DefNum: 13, Type: plainType(Byte),
				Components: []Component{
					{DefNum: 6, Bits: 12, BitOffset: 0, Scale: 100, Units: "m/s"},
					{DefNum: 5, Bits: 12, BitOffset: 12, Scale: 16, Units: "m", Accumulate: true},
				},
			},
		},
	}
}

func sportMessage() *MessageType {
	return &MessageType{
		Name: "sport",
		Num:  MesgNumSport,
		Fields: map[uint8]*Field{
			0: {Name: "sport", DefNum: 0, Type: sportFieldType},
			1: {Name: "sub_sport", DefNum: 1, Type: plainType(Enum)},
			3: {Name: "name", DefNum: 3, Type: plainType(StringBT)},
		},
	}
}

func lapMessage() *MessageType {
	return &MessageType{
		Name: "lap",
		Num:  MesgNumLap,
		Fields: map[uint8]*Field{
			253: timestampField(),
			0:   {Name: "event", DefNum: 0, Type: eventFieldType},
			1:   {Name: "event_type", DefNum: 1, Type: eventTypeFieldType},
			2:   {Name: "start_time", DefNum: 2, Type: dateTimeFieldType},
			7:   {Name: "total_elapsed_time", DefNum: 7, Type: plainType(UInt32), Scale: 1000, Units: "s"},
			8:   {Name: "total_timer_time", DefNum: 8, Type: plainType(UInt32), Scale: 1000, Units: "s"},
			9:   {Name: "total_distance", DefNum: 9, Type: plainType(UInt32), Scale: 100, Units: "m"},
		},
	}
}

func sessionMessage() *MessageType {
	return &MessageType{
		Name: "session",
		Num:  MesgNumSession,
		Fields: map[uint8]*Field{
			253: timestampField(),
			0:   {Name: "event", DefNum: 0, Type: eventFieldType},
			1:   {Name: "event_type", DefNum: 1, Type: eventTypeFieldType},
			5:   {Name: "sport", DefNum: 5, Type: sportFieldType},
			7:   {Name: "total_elapsed_time", DefNum: 7, Type: plainType(UInt32), Scale: 1000, Units: "s"},
			9:   {Name: "total_distance", DefNum: 9, Type: plainType(UInt32), Scale: 100, Units: "m"},
		},
	}
}

func activityMessage() *MessageType {
	return &MessageType{
		Name: "activity",
		Num:  MesgNumActivity,
		Fields: map[uint8]*Field{
			253: timestampField(),
			0:   {Name: "total_timer_time", DefNum: 0, Type: plainType(UInt32), Scale: 1000, Units: "s"},
			1:   {Name: "num_sessions", DefNum: 1, Type: plainType(UInt16)},
			2:   {Name: "type", DefNum: 2, Type: activityTypeFieldType},
			3:   {Name: "event", DefNum: 3, Type: eventFieldType},
			4:   {Name: "event_type", DefNum: 4, Type: eventTypeFieldType},
		},
	}
}

func developerDataIDMessage() *MessageType {
	return &MessageType{
		Name: "developer_data_id",
		Num:  MesgNumDeveloperDataID,
		Fields: map[uint8]*Field{
			0: {Name: "developer_id", DefNum: 0, Type: plainType(Byte)},
			1: {Name: "application_id", DefNum: 1, Type: plainType(Byte)},
			2: {Name: "manufacturer_id", DefNum: 2, Type: plainType(UInt16)},
			3: {Name: "developer_data_index", DefNum: 3, Type: plainType(UInt8)},
		},
	}
}

func fieldDescriptionMessage() *MessageType {
	return &MessageType{
		Name: "field_description",
		Num:  MesgNumFieldDescription,
		Fields: map[uint8]*Field{
			0:  {Name: "developer_data_index", DefNum: 0, Type: plainType(UInt8)},
			1:  {Name: "field_definition_number", DefNum: 1, Type: plainType(UInt8)},
			2:  {Name: "fit_base_type_id", DefNum: 2, Type: plainType(UInt8)},
			3:  {Name: "field_name", DefNum: 3, Type: plainType(StringBT)},
			6:  {Name: "scale", DefNum: 6, Type: plainType(UInt8)},
			7:  {Name: "offset", DefNum: 7, Type: plainType(SInt8)},
			8:  {Name: "units", DefNum: 8, Type: plainType(StringBT)},
			14: {Name: "native_mesg_num", DefNum: 14, Type: plainType(UInt16)},
			15: {Name: "native_field_num", DefNum: 15, Type: plainType(UInt8)},
		},
	}
}
