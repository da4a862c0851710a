package fitstream

import (
	"fmt"

	"github.com/halvorsen/fitstream/profile"
)

// DevField is a runtime developer-defined field, installed from
// developer_data_id and field_description messages during decode
// (spec.md §4.8).
type DevField struct {
	DevDataIndex   uint8
	DefNum         uint8
	Type           *profile.BaseType
	Name           string
	Units          string
	NativeFieldNum *uint8
}

type devDataEntry struct {
	applicationID []byte
	fields        map[uint8]*DevField
}

// devRegistry is the per-decoder mutable state mapping
// (dev_data_index, field_def_num) -> DevField, grounded loosely on
// canboat.LookupEnumerations's found/not-found branching (canboat/enum.go)
// generalized to the strict/lenient policy spec.md §4.8 specifies.
type devRegistry struct {
	entries map[uint8]*devDataEntry
	lenient bool
}

func newDevRegistry(lenient bool) *devRegistry {
	return &devRegistry{entries: map[uint8]*devDataEntry{}, lenient: lenient}
}

func (r *devRegistry) reset() {
	r.entries = map[uint8]*devDataEntry{}
}

// installDeveloperDataID records a developer_data_id data message. Fields
// already registered for this index are preserved.
func (r *devRegistry) installDeveloperDataID(devDataIndex uint8, applicationID []byte) {
	e, ok := r.entries[devDataIndex]
	if !ok {
		e = &devDataEntry{fields: map[uint8]*DevField{}}
		r.entries[devDataIndex] = e
	}
	e.applicationID = applicationID
}

// installFieldDescription records a field_description data message.
func (r *devRegistry) installFieldDescription(devDataIndex, defNum uint8, bt *profile.BaseType, name, units string, nativeFieldNum *uint8) (*Warning, error) {
	e, ok := r.entries[devDataIndex]
	if !ok {
		if !r.lenient {
			return nil, &ParseError{
				Msg: fmt.Sprintf("field_description for unregistered developer_data_index %d", devDataIndex),
				Err: ErrDeveloperDataNotFound,
			}
		}
		e = &devDataEntry{fields: map[uint8]*DevField{}}
		r.entries[devDataIndex] = e
	}
	e.fields[defNum] = &DevField{
		DevDataIndex: devDataIndex, DefNum: defNum, Type: bt,
		Name: name, Units: units, NativeFieldNum: nativeFieldNum,
	}
	return nil, nil
}

// get resolves a developer field during definition parsing, per spec.md
// §4.8's get_dev_type. In lenient mode an unknown index or def_num yields a
// dummy byte-typed field plus a Warning instead of an error.
func (r *devRegistry) get(devDataIndex, defNum uint8) (*DevField, *Warning, error) {
	e, ok := r.entries[devDataIndex]
	if !ok {
		if !r.lenient {
			return nil, nil, &ParseError{
				Msg: fmt.Sprintf("unknown developer_data_index %d", devDataIndex),
				Err: ErrDeveloperDataNotFound,
			}
		}
		w := &Warning{Msg: fmt.Sprintf("lenient developer data: unknown index %d, using dummy field", devDataIndex)}
		return &DevField{DevDataIndex: devDataIndex, DefNum: defNum, Type: profile.Byte}, w, nil
	}
	f, ok := e.fields[defNum]
	if !ok {
		if !r.lenient {
			return nil, nil, &ParseError{
				Msg: fmt.Sprintf("unknown developer field def_num %d for index %d", defNum, devDataIndex),
				Err: ErrDeveloperDataNotFound,
			}
		}
		w := &Warning{Msg: fmt.Sprintf("lenient developer data: unknown def_num %d for index %d, using dummy field", defNum, devDataIndex)}
		return &DevField{DevDataIndex: devDataIndex, DefNum: defNum, Type: profile.Byte}, w, nil
	}
	return f, nil, nil
}
