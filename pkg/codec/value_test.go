package codec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDecimal_ExactPreservesRawString(t *testing.T) {
	d := NewDecimalExact("1.230")
	assert.Equal(t, "1.230", d.String())
	assert.Equal(t, 1.23, d.Float64())
}

func TestDecimal_FloatStripsTrailingZero(t *testing.T) {
	d := NewDecimalFloat(5.0)
	assert.Equal(t, "5", d.String())
}

func TestValue_EqualAcrossKinds(t *testing.T) {
	now := time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		a, b Value
		want bool
	}{
		{"equal ints", NewInt(3), NewInt(3), true},
		{"different ints", NewInt(3), NewInt(4), false},
		{"equal decimals by float value", NewDecimalValue(NewDecimalExact("2.5")), NewDecimalValue(NewDecimalFloat(2.5)), true},
		{"different kinds never equal", NewInt(1), NewString("1"), false},
		{"equal times", NewDateTime(now), NewDateTime(now), true},
		{"equal string lists", NewStringList([]string{"a", "b"}), NewStringList([]string{"a", "b"}), true},
		{"different length string lists", NewStringList([]string{"a"}), NewStringList([]string{"a", "b"}), false},
		{"equal enums", NewEnum("1", "BUY"), NewEnum("1", "BUY"), true},
		{"different enum name", NewEnum("1", "BUY"), NewEnum("1", "SELL"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.a.Equal(tc.b))
		})
	}
}

func TestValue_GroupEqual(t *testing.T) {
	g1 := NewGroup([]map[string]Value{
		{"PartyID": NewString("BROKER1")},
	})
	g2 := NewGroup([]map[string]Value{
		{"PartyID": NewString("BROKER1")},
	})
	g3 := NewGroup([]map[string]Value{
		{"PartyID": NewString("BROKER2")},
	})

	assert.True(t, g1.Equal(g2))
	assert.False(t, g1.Equal(g3))
}

func TestValue_AccessorsReportWrongKind(t *testing.T) {
	v := NewInt(42)
	_, ok := v.Str()
	assert.False(t, ok)

	n, ok := v.Int()
	assert.True(t, ok)
	assert.Equal(t, int64(42), n)
}
