package fitstream

import (
	"math"
	"strings"
	"time"

	"github.com/halvorsen/fitstream/profile"
)

// fitEpochOffset is the number of seconds between the Unix epoch and the
// FIT epoch, 1989-12-31T00:00:00Z.
const fitEpochOffset = 631065600

// Processor is the pluggable value-rendering pipeline invoked per
// FieldData after decoding, dispatching by name rather than by any
// reflection-like mechanism (spec.md §4.9/§9).
type Processor interface {
	ProcessType(typeName string, v profile.Value) profile.Value
	ProcessField(fieldName string, v profile.Value) profile.Value
	ProcessUnit(unitName string, v profile.Value) profile.Value
	ProcessMessage(mesgName string, fields []FieldData) []FieldData
}

// defaultProcessor implements spec.md §4.9's type-stage conversions (bool,
// date_time, local_date_time, localtime_into_day); its field, unit and
// message stages pass values through unchanged. Grounded on canboat.Decoder's
// switch-on-closed-type dispatch (canboat/decoder.go decodeToEnum) rather
// than a name-constructed method lookup.
type defaultProcessor struct{}

func (defaultProcessor) ProcessType(typeName string, v profile.Value) profile.Value {
	if !v.IsValid() {
		return v
	}
	switch typeName {
	case "bool":
		return renderBool(v)
	case "date_time", "local_date_time":
		return renderDateTime(v)
	case "localtime_into_day":
		return renderTimeOfDay(v)
	}
	return v
}

func (defaultProcessor) ProcessField(_ string, v profile.Value) profile.Value { return v }
func (defaultProcessor) ProcessUnit(_ string, v profile.Value) profile.Value  { return v }
func (defaultProcessor) ProcessMessage(_ string, fields []FieldData) []FieldData { return fields }

func renderBool(v profile.Value) profile.Value {
	f, ok := v.AsFloat64()
	if !ok {
		return v
	}
	return profile.BoolValue(f != 0)
}

// renderDateTime implements spec.md §4.9's date_time/local_date_time
// rendering. Both variants render as UTC: local_date_time's true timezone
// offset is not reconstructed (see DESIGN.md's Open Question decision),
// matching the source's documented-but-unfixed behavior.
func renderDateTime(v profile.Value) profile.Value {
	raw, ok := v.AsFloat64()
	if !ok {
		return v
	}
	if raw < 0x10000000 {
		return v // system time since power-on, not a calendar datetime
	}
	t := time.Unix(int64(raw)+fitEpochOffset, 0).UTC()
	return profile.TimeValue(t)
}

func renderTimeOfDay(v profile.Value) profile.Value {
	raw, ok := v.AsFloat64()
	if !ok {
		return v
	}
	secs := int(raw)
	if secs >= 86400 {
		secs = 86399
	}
	m, s := secs/60, secs%60
	h, m := m/60, m%60
	return profile.TimeOfDayValue(profile.TimeOfDay{Hours: h, Minutes: m, Seconds: s})
}

// StandardUnitsProcessor additionally converts *_speed fields to km/h,
// distance to km, and semicircles to degrees, per spec.md §4.9.
type StandardUnitsProcessor struct {
	defaultProcessor
}

func (StandardUnitsProcessor) ProcessField(fieldName string, v profile.Value) profile.Value {
	if !v.IsValid() {
		return v
	}
	switch {
	case strings.HasSuffix(fieldName, "_speed"):
		return profile.Apply(v, 1.0/3.6, 0).WithUnits("km/h")
	case fieldName == "distance":
		return profile.Apply(v, 1000, 0).WithUnits("km")
	}
	return v
}

func (StandardUnitsProcessor) ProcessUnit(unitName string, v profile.Value) profile.Value {
	if !v.IsValid() {
		return v
	}
	if sanitizeUnitName(unitName) == "semicircles" {
		return profile.Apply(v, math.Pow(2, 31)/180, 0).WithUnits("deg")
	}
	return v
}

// sanitizeUnitName maps arbitrary unit-string characters to word
// characters so unit-keyed handlers can match reliably, per spec.md
// §4.9's "/" -> "_per_", "%" -> "percent", "*" -> "_times_" rule.
func sanitizeUnitName(u string) string {
	var b strings.Builder
	for _, r := range u {
		switch {
		case r == '/':
			b.WriteString("_per_")
		case r == '%':
			b.WriteString("percent")
		case r == '*':
			b.WriteString("_times_")
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
