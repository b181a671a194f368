// Package codec implements the field-level and message-level FIX wire
// codec: encoding/decoding a single value by its declared semantic type
// (§4.1), and assembling/parsing a full framed message (§4.2).
package codec

import (
	"strconv"
	"strings"
	"time"
)

// Kind discriminates the closed sum type a decoded field value can take
// (§9 "dynamically typed field values").
type Kind int

const (
	KindInt Kind = iota
	KindDecimal
	KindString
	KindBool
	KindDateTime
	KindDate
	KindTimeOfDay
	KindStringList
	KindEnum
	KindGroup
)

// Decimal preserves the wire string form of a FLOAT-family value when the
// protocol requests arbitrary precision, or a native float64 otherwise —
// the engine never silently loses precision on a value it only needs to
// pass through (§4.1 FLOAT/QTY/PRICE/PRICEOFFSET/AMT).
//
// There is no arbitrary-precision decimal library in the dependency set
// this engine draws from (see DESIGN.md); Decimal is therefore a thin,
// deliberately narrow stdlib type rather than a general-purpose one.
type Decimal struct {
	raw   string
	f     float64
	exact bool // true: raw is authoritative; false: f is authoritative
}

// NewDecimalExact preserves raw exactly, for arbitrary-precision mode.
func NewDecimalExact(raw string) Decimal { return Decimal{raw: raw, exact: true} }

// NewDecimalFloat wraps a native float64, for non-arbitrary-precision mode.
func NewDecimalFloat(f float64) Decimal { return Decimal{f: f, exact: false} }

// Float64 returns the value as a float64, parsing the preserved string if
// needed.
func (d Decimal) Float64() float64 {
	if !d.exact {
		return d.f
	}
	f, _ := strconv.ParseFloat(d.raw, 64)
	return f
}

// String renders d for the wire: the preserved string verbatim when
// exact, otherwise the shortest round-tripping decimal representation of
// the float64 — in both cases an integer-valued result has its trailing
// ".0" stripped (§4.2.1 encode contract).
func (d Decimal) String() string {
	var s string
	if d.exact {
		s = d.raw
	} else {
		s = strconv.FormatFloat(d.f, 'f', -1, 64)
	}
	return strings.TrimSuffix(s, ".0")
}

// TimeKind distinguishes the three FIX date/time wire formats that share
// the Go time.Time representation.
type TimeKind int

const (
	TimeKindTimestamp TimeKind = iota // UTCTIMESTAMP
	TimeKindDate                      // LOCALMKTDATE / UTCDATE
	TimeKindTimeOfDay                 // UTCTIMEONLY
)

// Value is the dynamically typed result of decoding one field, or the
// input to encoding one. Exactly the fields relevant to Kind are
// meaningful; the rest are zero.
type Value struct {
	Kind Kind

	i   int64
	dec Decimal
	s   string
	b   bool
	t   time.Time
	list []string

	enumToken string
	enumName  string

	group []map[string]Value
}

func NewInt(v int64) Value                 { return Value{Kind: KindInt, i: v} }
func NewDecimalValue(d Decimal) Value       { return Value{Kind: KindDecimal, dec: d} }
func NewString(v string) Value              { return Value{Kind: KindString, s: v} }
func NewBool(v bool) Value                  { return Value{Kind: KindBool, b: v} }
func NewDateTime(t time.Time) Value         { return Value{Kind: KindDateTime, t: t} }
func NewDate(t time.Time) Value             { return Value{Kind: KindDate, t: t} }
func NewTimeOfDay(t time.Time) Value        { return Value{Kind: KindTimeOfDay, t: t} }
func NewStringList(v []string) Value        { return Value{Kind: KindStringList, list: v} }
func NewEnum(token, name string) Value      { return Value{Kind: KindEnum, enumToken: token, enumName: name} }
func NewGroup(v []map[string]Value) Value   { return Value{Kind: KindGroup, group: v} }

func (v Value) Int() (int64, bool)     { return v.i, v.Kind == KindInt }
func (v Value) DecimalVal() (Decimal, bool) { return v.dec, v.Kind == KindDecimal }
func (v Value) Str() (string, bool)    { return v.s, v.Kind == KindString }
func (v Value) Bool() (bool, bool)     { return v.b, v.Kind == KindBool }
func (v Value) Time() (time.Time, bool) {
	return v.t, v.Kind == KindDateTime || v.Kind == KindDate || v.Kind == KindTimeOfDay
}
func (v Value) StringList() ([]string, bool) { return v.list, v.Kind == KindStringList }
func (v Value) Enum() (token, name string, ok bool) {
	return v.enumToken, v.enumName, v.Kind == KindEnum
}
func (v Value) Group() ([]map[string]Value, bool) { return v.group, v.Kind == KindGroup }

// Equal reports whether v and other represent the same decoded value.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindInt:
		return v.i == other.i
	case KindDecimal:
		return v.dec.Float64() == other.dec.Float64()
	case KindString:
		return v.s == other.s
	case KindBool:
		return v.b == other.b
	case KindDateTime, KindDate, KindTimeOfDay:
		return v.t.Equal(other.t)
	case KindStringList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if v.list[i] != other.list[i] {
				return false
			}
		}
		return true
	case KindEnum:
		return v.enumToken == other.enumToken && v.enumName == other.enumName
	case KindGroup:
		if len(v.group) != len(other.group) {
			return false
		}
		for i := range v.group {
			if len(v.group[i]) != len(other.group[i]) {
				return false
			}
			for k, val := range v.group[i] {
				ov, ok := other.group[i][k]
				if !ok || !val.Equal(ov) {
					return false
				}
			}
		}
		return true
	}
	return false
}
