package profile

// The FieldType values below are a representative subset of the Garmin
// profile's lookup tables (spec.md §3's FieldType.values), grounded on
// canboat's Enum/EnumValue shape (canboat/enum.go) but embedded directly in
// the FieldType the way FIT's profile does it.

var fileTypeFieldType = &FieldType{
	Name:     "file",
	BaseType: Enum,
	Values: map[uint64]string{
		1:  "device",
		2:  "settings",
		3:  "sport",
		4:  "activity",
		5:  "workout",
		6:  "course",
		7:  "schedules",
		9:  "weight",
		10: "totals",
		11: "goals",
		14: "blood_pressure",
		15: "monitoring_a",
		20: "activity_summary",
		28: "monitoring_daily",
		32: "monitoring_b",
		34: "segment",
		35: "segment_list",
	},
}

var manufacturerFieldType = &FieldType{
	Name:     "manufacturer",
	BaseType: UInt16,
	Values: map[uint64]string{
		1:  "garmin",
		15: "dynastream",
		23: "dynastream_oem",
		255: "development",
		263: "wahoo_fitness",
		265: "zwift",
	},
}

var garminProductFieldType = &FieldType{
	Name:     "garmin_product",
	BaseType: UInt16,
	Values: map[uint64]string{
		1036: "edge500",
		1169: "edge800",
		1253: "edge510",
		1328: "edge810",
		2067: "edge520",
		2798: "edge1030",
		3122: "edge130",
		3314: "edge830",
		3589: "fenix6",
		3990: "edge1030_plus",
	},
}

var sportFieldType = &FieldType{
	Name:     "sport",
	BaseType: Enum,
	Values: map[uint64]string{
		0:  "generic",
		1:  "running",
		2:  "cycling",
		5:  "swimming",
		11: "hiking",
		19: "rowing",
	},
}

var eventFieldType = &FieldType{
	Name:     "event",
	BaseType: Enum,
	Values: map[uint64]string{
		0:  "timer",
		3:  "workout",
		4:  "workout_step",
		8:  "session",
		9:  "lap",
		26: "activity",
		33: "sport_point",
	},
}

var eventTypeFieldType = &FieldType{
	Name:     "event_type",
	BaseType: Enum,
	Values: map[uint64]string{
		0: "start",
		1: "stop",
		3: "marker",
		4: "stop_all",
	},
}

var timerTriggerFieldType = &FieldType{
	Name:     "timer_trigger",
	BaseType: Enum,
	Values: map[uint64]string{
		0: "manual",
		1: "auto",
		2: "fitness_equipment",
	},
}

var activityTypeFieldType = &FieldType{
	Name:     "activity",
	BaseType: Enum,
	Values: map[uint64]string{
		0: "manual",
		1: "auto_multi_sport",
	},
}

var deviceTypeFieldType = &FieldType{
	Name:     "antplus_device_type",
	BaseType: UInt8,
	Values: map[uint64]string{
		11:  "bike_power",
		120: "heart_rate",
		121: "bike_speed_cadence",
		123: "bike_speed",
		124: "bike_cadence",
	},
}

var batteryStatusFieldType = &FieldType{
	Name:     "battery_status",
	BaseType: UInt8,
	Values: map[uint64]string{
		1: "new",
		2: "good",
		3: "ok",
		4: "low",
		5: "critical",
	},
}
