// Package fittest provides delta-tolerant assertion helpers for tests
// exercising decoded FIT messages.
package fittest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/halvorsen/fitstream"
)

// AssertMessage compares two DataMessages field by field, tolerating
// floating-point noise up to delta.
func AssertMessage(t *testing.T, expect, actual fitstream.DataMessage, delta float64) {
	assert.Equal(t, expect.MesgName, actual.MesgName)
	assert.Equal(t, expect.MesgNum, actual.MesgNum)
	AssertFieldValues(t, expect.Fields, actual.Fields, delta)
}

// AssertFieldValues asserts that actual holds exactly the fields of expect,
// matched by name, each compared with AssertFieldValue.
func AssertFieldValues(t *testing.T, expect, actual []fitstream.FieldData, delta float64) {
	assert.Len(t, actual, len(expect))

	for _, a := range actual {
		e, ok := findByName(expect, a.Name)
		if !ok {
			t.Errorf("actual fields contain field %q that is not in expected fields", a.Name)
			continue
		}
		AssertFieldValue(t, e, a, delta)
	}
}

// AssertFieldValue compares one field, using an InDelta comparison for
// numeric values and an exact match otherwise.
func AssertFieldValue(t *testing.T, expect, actual fitstream.FieldData, delta float64) {
	ef, eok := expect.Value.AsFloat64()
	af, aok := actual.Value.AsFloat64()
	if eok && aok {
		assert.InDelta(t, ef, af, delta, "field %q: got %v, want %v", actual.Name, af, ef)
		return
	}
	assert.Equal(t, expect.Value.Raw(), actual.Value.Raw(), "field %q", actual.Name)
}

func findByName(fields []fitstream.FieldData, name string) (fitstream.FieldData, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return fitstream.FieldData{}, false
}
