package codec

import (
	"strconv"
	"strings"

	"github.com/quorumfx/fixengine/pkg/protocol"
)

// Message is a mapping from field name to Value (§3 "in-flight
// message"). It is a plain Go map and keeps no insertion order; nothing
// in the codec depends on map iteration order: encode always walks the
// declared member lists, never the map.
type Message map[string]Value

// EncodeOptions controls message assembly (§4.2.1).
type EncodeOptions struct {
	// Sep is the field separator; SOH (0x01) in production, optionally a
	// diagnostic substitute such as '|'.
	Sep byte

	// RegenerateIntegrity recomputes BeginString, BodyLength, and
	// CheckSum after the body is assembled, overriding whatever the
	// caller put in fields for those three.
	RegenerateIntegrity bool

	// ConvertSepForChecksum substitutes Sep with SOH before summing when
	// Sep != SOH. The spec's recommended default is true; see §9 Open
	// Questions and DESIGN.md.
	ConvertSepForChecksum bool
}

// EncodeMessage assembles fields into a complete framed message per the
// header/body/trailer member lists of md (§4.2.1). Group occurrences
// each carry their own nested field map, so the walk threads the
// currently-active scope explicitly rather than closing over a single
// outer map.
func EncodeMessage(p *protocol.Protocol, md *protocol.MessageDef, fields Message, opts EncodeOptions) ([]byte, error) {
	var body []byte

	var encodeMembers func(members []protocol.MessageMember, scope Message) error
	encodeMembers = func(members []protocol.MessageMember, scope Message) error {
		for _, m := range FlattenMembers(members) {
			switch m.Kind {
			case protocol.MemberField:
				v, ok := scope[m.Field.Name]
				if !ok {
					if m.Required {
						return NewMissingRequiredEncodingError(m.Field.Name)
					}
					continue
				}
				wire, err := EncodeField(p, m.Field, v)
				if err != nil {
					return err
				}
				body = append(body, []byte(strconv.Itoa(m.Field.Tag))...)
				body = append(body, '=')
				body = append(body, wire...)
				body = append(body, opts.Sep)

			case protocol.MemberGroup:
				v, ok := scope[m.Field.Name]
				if !ok {
					if m.Required {
						return NewMissingRequiredEncodingError(m.Field.Name)
					}
					continue
				}
				occurrences, _ := v.Group()
				countWire, err := EncodeField(p, m.Field, NewInt(int64(len(occurrences))))
				if err != nil {
					return err
				}
				body = append(body, []byte(strconv.Itoa(m.Field.Tag))...)
				body = append(body, '=')
				body = append(body, countWire...)
				body = append(body, opts.Sep)
				for _, occ := range occurrences {
					if err := encodeMembers(m.Members, occ); err != nil {
						return err
					}
				}
			}
		}
		return nil
	}

	if opts.RegenerateIntegrity {
		// Placeholder integrity fields give the assembled frame the
		// 8=/9=/.../10= shape regenerateIntegrity expects; all three are
		// then recomputed, so any caller-supplied values are ignored.
		framed := make(Message, len(fields)+3)
		for k, v := range fields {
			framed[k] = v
		}
		framed["BeginString"] = NewString(p.BeginString)
		framed["BodyLength"] = NewInt(0)
		framed["CheckSum"] = NewString("000")
		fields = framed
	}

	if err := encodeMembers(p.Header, fields); err != nil {
		return nil, err
	}
	if err := encodeMembers(md.Members, fields); err != nil {
		return nil, err
	}
	if err := encodeMembers(p.Trailer, fields); err != nil {
		return nil, err
	}

	if !opts.RegenerateIntegrity {
		return body, nil
	}
	return regenerateIntegrity(p, body, opts)
}

// regenerateIntegrity rewrites the BeginString/BodyLength header and the
// trailing CheckSum around the already-encoded body, as if the caller's
// own BeginString/BodyLength/CheckSum values in `fields` never existed
// (§4.2.1).
func regenerateIntegrity(p *protocol.Protocol, body []byte, opts EncodeOptions) ([]byte, error) {
	beginStringFd, _ := p.FieldByName("BeginString")
	bodyLengthFd, _ := p.FieldByName("BodyLength")
	checkSumFd, _ := p.FieldByName("CheckSum")

	bodyStart, trailerStart, err := FrameBounds(body, opts.Sep)
	if err != nil {
		return nil, err
	}
	// bodyStart sits right after BodyLength's separator, so innerBody
	// already includes MsgType and everything through the last body
	// field; only BeginString/BodyLength in front and CheckSum at the
	// back need regenerating.
	innerBody := body[bodyStart:trailerStart]

	header := []byte{}
	header = append(header, []byte(strconv.Itoa(beginStringFd.Tag))...)
	header = append(header, '=')
	header = append(header, []byte(p.BeginString)...)
	header = append(header, opts.Sep)

	bodyLength := len(innerBody)
	header = append(header, []byte(strconv.Itoa(bodyLengthFd.Tag))...)
	header = append(header, '=')
	header = append(header, []byte(strconv.Itoa(bodyLength))...)
	header = append(header, opts.Sep)

	full := append(header, innerBody...) //nolint:gocritic // building a fresh frame
	sum := Checksum(full, opts.Sep, opts.ConvertSepForChecksum)

	full = append(full, []byte(strconv.Itoa(checkSumFd.Tag))...)
	full = append(full, '=')
	full = append(full, []byte(FormatChecksum(sum))...)
	full = append(full, opts.Sep)
	return full, nil
}

// DecodeOptions controls message parsing (§4.2.2).
type DecodeOptions struct {
	Sep                   byte
	Strict                bool
	Validate              bool
	ConvertSepForChecksum bool
}

// pair is one raw tag=value token split out of a frame.
type pair struct {
	tag   string
	value []byte
}

func splitPairs(raw []byte, sep byte) []pair {
	tokens := strings.Split(string(raw), string(sep))
	// A well-formed frame ends with sep, producing one trailing empty
	// element; discard it.
	if len(tokens) > 0 && tokens[len(tokens)-1] == "" {
		tokens = tokens[:len(tokens)-1]
	}
	pairs := make([]pair, 0, len(tokens))
	for _, tok := range tokens {
		idx := strings.IndexByte(tok, '=')
		if idx < 0 {
			continue
		}
		pairs = append(pairs, pair{tag: tok[:idx], value: []byte(tok[idx+1:])})
	}
	return pairs
}

// DecodeMessage parses a complete raw frame into a Message plus the
// identified MessageDef (§4.2.2).
func DecodeMessage(p *protocol.Protocol, raw []byte, opts DecodeOptions) (Message, *protocol.MessageDef, error) {
	pairs := splitPairs(raw, opts.Sep)
	if len(pairs) < 4 {
		return nil, nil, NewStructureDecodingError("frame too short")
	}

	beginStringFd, _ := p.FieldByName("BeginString")
	bodyLengthFd, _ := p.FieldByName("BodyLength")
	msgTypeFd, _ := p.FieldByName("MsgType")
	checkSumFd, _ := p.FieldByName("CheckSum")

	if pairs[0].tag != strconv.Itoa(beginStringFd.Tag) {
		return nil, nil, NewStructureDecodingError("expected BeginString as first field")
	}
	if pairs[1].tag != strconv.Itoa(bodyLengthFd.Tag) {
		return nil, nil, NewStructureDecodingError("expected BodyLength as second field")
	}
	if pairs[2].tag != strconv.Itoa(msgTypeFd.Tag) {
		return nil, nil, NewStructureDecodingError("expected MsgType as third field")
	}
	if pairs[len(pairs)-1].tag != strconv.Itoa(checkSumFd.Tag) {
		return nil, nil, NewStructureDecodingError("expected CheckSum as last field")
	}

	fields := Message{}

	beginStringVal, _, err := DecodeField(p, beginStringFd, pairs[0].value)
	if err != nil {
		return nil, nil, err
	}
	fields[beginStringFd.Name] = beginStringVal

	bodyLengthVal, _, err := DecodeField(p, bodyLengthFd, pairs[1].value)
	if err != nil {
		return nil, nil, err
	}
	fields[bodyLengthFd.Name] = bodyLengthVal

	msgTypeVal, _, err := DecodeField(p, msgTypeFd, pairs[2].value)
	if err != nil {
		return nil, nil, err
	}
	fields[msgTypeFd.Name] = msgTypeVal

	msgType := string(pairs[2].value)
	md, ok := p.MessageByType(msgType)
	if !ok {
		return nil, nil, NewStructureDecodingError("unknown MsgType " + msgType)
	}

	cursor := 3
	restHeader := p.Header[3:]
	cursor, err = consumeSet(p, pairs, cursor, restHeader, fields, opts.Strict)
	if err != nil {
		return nil, nil, err
	}

	cursor, err = consumeSet(p, pairs, cursor, md.Members, fields, opts.Strict)
	if err != nil {
		return nil, nil, err
	}

	// Trailer members other than the final CheckSum.
	if len(p.Trailer) > 1 {
		cursor, err = consumeSet(p, pairs, cursor, p.Trailer[:len(p.Trailer)-1], fields, opts.Strict)
		if err != nil {
			return nil, nil, err
		}
	}

	if opts.Strict && cursor != len(pairs)-1 {
		return nil, nil, NewUnexpectedTagDecodingError(pairs[cursor].tag)
	}

	checkSumVal, _, err := DecodeField(p, checkSumFd, pairs[len(pairs)-1].value)
	if err != nil {
		return nil, nil, err
	}
	fields[checkSumFd.Name] = checkSumVal

	if opts.Validate {
		if err := validateIntegrity(p, raw, opts, string(pairs[0].value), string(pairs[1].value), string(pairs[len(pairs)-1].value)); err != nil {
			return nil, nil, err
		}
	}

	return fields, md, nil
}

// consumeSet implements the "consume pairs in any order until a tag is
// seen that is not in the expected set" algorithm shared by header,
// body, trailer, and (recursively) group-occurrence parsing (§4.2.2).
// It returns the index of the first pair it did not consume.
func consumeSet(p *protocol.Protocol, pairs []pair, start int, members []protocol.MessageMember, fields Message, strict bool) (int, error) {
	flat := FlattenMembers(members)
	byTag := make(map[string]protocol.MessageMember, len(flat))
	for _, m := range flat {
		if m.Field != nil {
			byTag[strconv.Itoa(m.Field.Tag)] = m
		}
	}

	seen := make(map[string]bool, len(flat))
	idx := start
	for idx < len(pairs) {
		m, ok := byTag[pairs[idx].tag]
		if !ok {
			break
		}
		// A tag already consumed in this set starts the next group
		// occurrence (or is a duplicate the caller reports).
		if seen[pairs[idx].tag] {
			break
		}
		seen[pairs[idx].tag] = true

		switch m.Kind {
		case protocol.MemberField:
			v, _, err := DecodeField(p, m.Field, pairs[idx].value)
			if err != nil {
				return idx, err
			}
			fields[m.Field.Name] = v
			idx++

		case protocol.MemberGroup:
			countVal, _, err := DecodeField(p, m.Field, pairs[idx].value)
			if err != nil {
				return idx, err
			}
			n, _ := countVal.Int()
			idx++

			occurrences := make([]map[string]Value, 0, n)
			for i := int64(0); i < n; i++ {
				occFields := Message{}
				idx, err = consumeSet(p, pairs, idx, m.Members, occFields, strict)
				if err != nil {
					return idx, err
				}
				occurrences = append(occurrences, occFields)
			}
			fields[m.Field.Name] = NewGroup(occurrences)
		}
	}

	if strict {
		for _, m := range flat {
			if m.Required && !seen[strconv.Itoa(m.Field.Tag)] {
				return idx, NewMissingRequiredDecodingError(m.Field.Name)
			}
		}
	}

	return idx, nil
}

func validateIntegrity(p *protocol.Protocol, raw []byte, opts DecodeOptions, beginStringReceived, bodyLengthReceived, checkSumReceived string) error {
	if beginStringReceived != p.BeginString {
		return NewFieldValueMismatchError("BeginString", p.BeginString, beginStringReceived)
	}

	bodyStart, trailerStart, err := FrameBounds(raw, opts.Sep)
	if err != nil {
		return err
	}
	gotBodyLength := trailerStart - bodyStart
	wantBodyLength, err := strconv.Atoi(bodyLengthReceived)
	if err != nil {
		return NewStructureDecodingError("non-numeric BodyLength")
	}
	if gotBodyLength != wantBodyLength {
		return NewFieldValueMismatchError("BodyLength", strconv.Itoa(gotBodyLength), bodyLengthReceived)
	}

	sum := Checksum(raw[:trailerStart], opts.Sep, opts.ConvertSepForChecksum)
	wantSum := FormatChecksum(sum)
	if wantSum != checkSumReceived {
		return NewFieldValueMismatchError("CheckSum", wantSum, checkSumReceived)
	}
	return nil
}
