package pagination

import (
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		rawLimit  string
		rawOffset string
		want      Window
	}{
		{name: "parse failure falls back, negative offset clamps", rawLimit: "abc", rawOffset: "-5", want: Window{Limit: 100, Offset: 0}},
		{name: "clamp to max", rawLimit: "999999", rawOffset: "0", want: Window{Limit: 5000, Offset: 0}},
		{name: "all forces offset zero", rawLimit: "all", rawOffset: "50", want: Window{Unbounded: true}},
		{name: "all is case-insensitive", rawLimit: "ALL", rawOffset: "", want: Window{Unbounded: true}},
		{name: "absent values use defaults", rawLimit: "", rawOffset: "", want: Window{Limit: 100, Offset: 0}},
		{name: "explicit values pass through", rawLimit: "25", rawOffset: "75", want: Window{Limit: 25, Offset: 75}},
		{name: "exactly max is kept", rawLimit: "5000", rawOffset: "1", want: Window{Limit: 5000, Offset: 1}},
		{name: "zero limit is accepted", rawLimit: "0", rawOffset: "0", want: Window{Limit: 0, Offset: 0}},
		{name: "negative limit is accepted", rawLimit: "-3", rawOffset: "0", want: Window{Limit: -3, Offset: 0}},
		{name: "float limit falls back", rawLimit: "10.5", rawOffset: "x", want: Window{Limit: 100, Offset: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.rawLimit, tt.rawOffset, 100, 5000))
		})
	}
}

func TestNormalize_CSVDefault(t *testing.T) {
	assert.Equal(t, Window{Limit: 1000}, Normalize("", "", DefaultCSVLimit, MaxLimit))
}

func TestWindow_String(t *testing.T) {
	assert.Equal(t, "limit=all", Window{Unbounded: true}.String())
	assert.Equal(t, "limit=10 offset=20", Window{Limit: 10, Offset: 20}.String())
}

func TestProperty_NormalizeBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("offset is never negative", prop.ForAll(
		func(limit, offset int) bool {
			w := Normalize(strconv.Itoa(limit), strconv.Itoa(offset), 100, 5000)
			return w.Offset >= 0
		},
		gen.IntRange(-100000, 100000),
		gen.IntRange(-100000, 100000),
	))

	properties.Property("bounded limit never exceeds max", prop.ForAll(
		func(limit int) bool {
			w := Normalize(strconv.Itoa(limit), "0", 100, 5000)
			return !w.Unbounded && w.Limit <= 5000
		},
		gen.IntRange(-1000000, 1000000),
	))

	properties.Property("arbitrary text never fails and stays within bounds", prop.ForAll(
		func(rawLimit, rawOffset string) bool {
			w := Normalize(rawLimit, rawOffset, 100, 5000)
			if w.Unbounded {
				return w.Offset == 0
			}
			return w.Offset >= 0 && w.Limit <= 5000
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
