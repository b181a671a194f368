package codec

import "github.com/quorumfx/fixengine/pkg/protocol"

// FlattenMembers walks members, resolving component references
// transparently while preserving the order of fields and groups (§4.8).
// Groups are returned whole — their own child list stays nested and is
// not flattened until something iterates into it.
func FlattenMembers(members []protocol.MessageMember) []protocol.MessageMember {
	out := make([]protocol.MessageMember, 0, len(members))
	appendFlattened(&out, members)
	return out
}

func appendFlattened(out *[]protocol.MessageMember, members []protocol.MessageMember) {
	for _, m := range members {
		if m.Kind == protocol.MemberComponent && m.Component != nil {
			appendFlattened(out, m.Component.Members)
			continue
		}
		*out = append(*out, m)
	}
}
