package protocol

import "fmt"

// Validate checks the structural invariants of §3 that can be checked
// once, at load time, independent of any particular message instance:
//
//	(i)   tag numbers are unique across fields (enforced during resolve)
//	(ii)  MsgType wire tokens are unique across messages (enforced during resolve)
//	(iii) the first three header members in wire order are BeginString,
//	      BodyLength, MsgType
//	(iv)  the last trailer member is CheckSum
//
// Per-message required-member presence (invariant vi) and the group
// framing invariant (v) are checked during decoding (§4.2.2), not here,
// since they depend on the wire content of a particular message.
func (p *Protocol) Validate() error {
	if len(p.Header) < 3 {
		return fmt.Errorf("header must declare at least BeginString, BodyLength, MsgType")
	}
	wantHeader := []string{"BeginString", "BodyLength", "MsgType"}
	for i, want := range wantHeader {
		m := p.Header[i]
		if m.Kind != MemberField || m.Field == nil || m.Field.Name != want {
			return fmt.Errorf("header member %d must be %s, got %s", i, want, memberName(m))
		}
	}

	if len(p.Trailer) == 0 {
		return fmt.Errorf("trailer must declare CheckSum")
	}
	last := p.Trailer[len(p.Trailer)-1]
	if last.Kind != MemberField || last.Field == nil || last.Field.Name != "CheckSum" {
		return fmt.Errorf("trailer's last member must be CheckSum, got %s", memberName(last))
	}

	return nil
}

func memberName(m MessageMember) string {
	switch m.Kind {
	case MemberField:
		if m.Field != nil {
			return m.Field.Name
		}
	case MemberComponent:
		if m.Component != nil {
			return "component:" + m.Component.Name
		}
	case MemberGroup:
		if m.Field != nil {
			return "group:" + m.Field.Name
		}
	}
	return "<invalid>"
}
