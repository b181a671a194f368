package codec

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/quorumfx/fixengine/pkg/protocol"
)

const (
	layoutTimestampMillis = "20060102-15:04:05.000"
	layoutTimestamp       = "20060102-15:04:05"
	layoutTimeOnlyMillis  = "15:04:05.000"
	layoutTimeOnly        = "15:04:05"
	layoutDate            = "20060102"
)

// DecodeField decodes a single raw wire value according to fd's semantic
// type (§4.1). ok is false when wire is empty (the field is absent).
func DecodeField(p *protocol.Protocol, fd *protocol.FieldDef, wire []byte) (Value, bool, error) {
	if len(wire) == 0 {
		return Value{}, false, nil
	}
	s := string(wire)

	switch fd.Type {
	case protocol.TypeInt, protocol.TypeSeqNum, protocol.TypeNumInGroup, protocol.TypeLength:
		if fd.HasEnum() {
			if name, ok := fd.NameForToken(s); ok {
				return NewEnum(s, name), true, nil
			}
		}
		n, err := parseIntToken(s)
		if err != nil {
			return Value{}, false, fmt.Errorf("field %s: %w", fd.Name, err)
		}
		return NewInt(n), true, nil

	case protocol.TypeFloat, protocol.TypeQty, protocol.TypePrice, protocol.TypePriceOffset, protocol.TypeAmt:
		if p.DecimalFloat {
			return NewDecimalValue(NewDecimalExact(s)), true, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, false, fmt.Errorf("field %s: %w", fd.Name, err)
		}
		return NewDecimalValue(NewDecimalFloat(f)), true, nil

	case protocol.TypeChar, protocol.TypeString:
		if fd.HasEnum() {
			if name, ok := fd.NameForToken(s); ok {
				return NewEnum(s, name), true, nil
			}
		}
		return NewString(s), true, nil

	case protocol.TypeCurrency, protocol.TypeExchange, protocol.TypeMonthYear:
		return NewString(s), true, nil

	case protocol.TypeBoolean:
		if p.BoolEnum && fd.HasEnum() {
			if name, ok := fd.NameForToken(s); ok {
				return NewEnum(s, name), true, nil
			}
		}
		return NewBool(s == "Y"), true, nil

	case protocol.TypeMultipleValueString:
		return NewStringList(strings.Fields(s)), true, nil

	case protocol.TypeUTCTimestamp:
		layout := layoutTimestamp
		if p.MillisecondTime {
			layout = layoutTimestampMillis
		}
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err != nil {
			return Value{}, false, fmt.Errorf("field %s: %w", fd.Name, err)
		}
		return NewDateTime(t), true, nil

	case protocol.TypeUTCTimeOnly:
		layout := layoutTimeOnly
		if p.MillisecondTime {
			layout = layoutTimeOnlyMillis
		}
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err != nil {
			return Value{}, false, fmt.Errorf("field %s: %w", fd.Name, err)
		}
		return NewTimeOfDay(t), true, nil

	case protocol.TypeLocalMktDate, protocol.TypeUTCDate:
		t, err := time.ParseInLocation(layoutDate, s, time.UTC)
		if err != nil {
			return Value{}, false, fmt.Errorf("field %s: %w", fd.Name, err)
		}
		return NewDate(t), true, nil

	default:
		return Value{}, false, fmt.Errorf("%w: field %s", protocol.ErrUnknownFieldType, fd.Name)
	}
}

// EncodeField renders v for the wire according to fd's semantic type.
func EncodeField(p *protocol.Protocol, fd *protocol.FieldDef, v Value) ([]byte, error) {
	switch fd.Type {
	case protocol.TypeInt, protocol.TypeSeqNum, protocol.TypeNumInGroup, protocol.TypeLength:
		if v.Kind == KindEnum {
			return []byte(v.enumToken), nil
		}
		n, ok := v.Int()
		if !ok {
			return nil, fmt.Errorf("field %s: expected int value", fd.Name)
		}
		return []byte(strconv.FormatInt(n, 10)), nil

	case protocol.TypeFloat, protocol.TypeQty, protocol.TypePrice, protocol.TypePriceOffset, protocol.TypeAmt:
		dec, ok := v.DecimalVal()
		if !ok {
			return nil, fmt.Errorf("field %s: expected decimal value", fd.Name)
		}
		return []byte(dec.String()), nil

	case protocol.TypeChar, protocol.TypeString:
		if v.Kind == KindEnum {
			return []byte(v.enumToken), nil
		}
		s, ok := v.Str()
		if !ok {
			return nil, fmt.Errorf("field %s: expected string value", fd.Name)
		}
		if fd.HasEnum() {
			if token, ok := fd.TokenForName(s); ok {
				return []byte(token), nil
			}
		}
		return []byte(s), nil

	case protocol.TypeCurrency, protocol.TypeExchange, protocol.TypeMonthYear:
		s, ok := v.Str()
		if !ok {
			return nil, fmt.Errorf("field %s: expected string value", fd.Name)
		}
		return []byte(s), nil

	case protocol.TypeBoolean:
		if v.Kind == KindEnum {
			return []byte(v.enumToken), nil
		}
		b, ok := v.Bool()
		if !ok {
			return nil, fmt.Errorf("field %s: expected bool value", fd.Name)
		}
		if b {
			return []byte("Y"), nil
		}
		return []byte("N"), nil

	case protocol.TypeMultipleValueString:
		list, ok := v.StringList()
		if !ok {
			return nil, fmt.Errorf("field %s: expected string list value", fd.Name)
		}
		return []byte(strings.Join(list, " ")), nil

	case protocol.TypeUTCTimestamp:
		t, ok := v.Time()
		if !ok {
			return nil, fmt.Errorf("field %s: expected time value", fd.Name)
		}
		layout := layoutTimestamp
		if p.MillisecondTime {
			layout = layoutTimestampMillis
			t = t.Truncate(time.Millisecond)
		} else {
			t = t.Truncate(time.Second)
		}
		return []byte(t.UTC().Format(layout)), nil

	case protocol.TypeUTCTimeOnly:
		t, ok := v.Time()
		if !ok {
			return nil, fmt.Errorf("field %s: expected time value", fd.Name)
		}
		layout := layoutTimeOnly
		if p.MillisecondTime {
			layout = layoutTimeOnlyMillis
			t = t.Truncate(time.Millisecond)
		} else {
			t = t.Truncate(time.Second)
		}
		return []byte(t.UTC().Format(layout)), nil

	case protocol.TypeLocalMktDate, protocol.TypeUTCDate:
		t, ok := v.Time()
		if !ok {
			return nil, fmt.Errorf("field %s: expected time value", fd.Name)
		}
		return []byte(t.UTC().Format(layoutDate)), nil

	default:
		return nil, fmt.Errorf("%w: field %s", protocol.ErrUnknownFieldType, fd.Name)
	}
}

// parseIntToken parses a decimal integer token, tolerating leading zeros
// (e.g. "007" -> 7) and an empty digit string (-> 0), per §4.1.
func parseIntToken(s string) (int64, error) {
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	s = strings.TrimLeft(s, "0")
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if neg {
		n = -n
	}
	return n, nil
}
