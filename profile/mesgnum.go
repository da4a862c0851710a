package profile

// MesgNum is a FIT global message number.
type MesgNum uint16

// Global message numbers for the curated subset of the Garmin profile this
// module ships. The full Profile.xlsx has several hundred message numbers;
// the offline generator that would produce all of them is out of scope
// (spec.md §1), so this table is a hand-curated, representative sample
// covering every message type spec.md's scenarios and invariants exercise.
const (
	MesgNumFileID           MesgNum = 0
	MesgNumSport            MesgNum = 12
	MesgNumSession          MesgNum = 18
	MesgNumLap              MesgNum = 19
	MesgNumRecord           MesgNum = 20
	MesgNumEvent            MesgNum = 21
	MesgNumDeviceInfo       MesgNum = 23
	MesgNumActivity         MesgNum = 34
	MesgNumFileCreator      MesgNum = 49
	MesgNumFieldDescription MesgNum = 206
	MesgNumDeveloperDataID  MesgNum = 207
)

// FieldNumTimestamp is the def_num every FIT message type shares for its
// optional "timestamp" field (spec.md §4.6 step 4 / §4.9).
const FieldNumTimestamp uint8 = 253
