package codec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quorumfx/fixengine/pkg/protocol"
)

func bundledProtocol(t *testing.T) *protocol.Protocol {
	t.Helper()
	p, err := protocol.Bundled()
	require.NoError(t, err)
	return p
}

func TestEncodeDecodeMessage_RoundTrip(t *testing.T) {
	p := bundledProtocol(t)
	md, ok := p.MessageByName("Logon")
	require.True(t, ok)

	sendingTime := time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)
	fields := Message{
		"MsgType":       NewString(md.MsgType),
		"SenderCompID":  NewString("INITIATOR"),
		"TargetCompID":  NewString("ACCEPTOR"),
		"MsgSeqNum":     NewInt(1),
		"SendingTime":   NewDateTime(sendingTime),
		"EncryptMethod": NewInt(0),
		"HeartBtInt":    NewInt(30),
	}

	raw, err := EncodeMessage(p, md, fields, EncodeOptions{
		Sep:                   0x01,
		RegenerateIntegrity:   true,
		ConvertSepForChecksum: true,
	})
	require.NoError(t, err)

	decoded, decodedMD, err := DecodeMessage(p, raw, DecodeOptions{
		Sep:                   0x01,
		Strict:                true,
		Validate:              true,
		ConvertSepForChecksum: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Logon", decodedMD.Name)

	gotHeartBtInt, _ := decoded["HeartBtInt"].Int()
	assert.Equal(t, int64(30), gotHeartBtInt)

	gotSenderCompID, _ := decoded["SenderCompID"].Str()
	assert.Equal(t, "INITIATOR", gotSenderCompID)

	gotSendingTime, _ := decoded["SendingTime"].Time()
	assert.True(t, sendingTime.Equal(gotSendingTime))
}

func TestEncodeMessage_MissingRequiredFieldErrors(t *testing.T) {
	p := bundledProtocol(t)
	md, _ := p.MessageByName("Logon")

	fields := Message{
		"MsgType":      NewString(md.MsgType),
		"SenderCompID": NewString("INITIATOR"),
		"TargetCompID": NewString("ACCEPTOR"),
		"MsgSeqNum":    NewInt(1),
		"SendingTime":  NewDateTime(time.Now().UTC()),
		// EncryptMethod and HeartBtInt are required by the Logon member
		// list and deliberately omitted.
	}

	_, err := EncodeMessage(p, md, fields, EncodeOptions{Sep: 0x01, RegenerateIntegrity: true})
	assert.Error(t, err)
}

func TestDecodeMessage_StrictRejectsMissingRequiredField(t *testing.T) {
	p := bundledProtocol(t)
	md, _ := p.MessageByName("Logon")

	fields := Message{
		"MsgType":       NewString(md.MsgType),
		"SenderCompID":  NewString("INITIATOR"),
		"TargetCompID":  NewString("ACCEPTOR"),
		"MsgSeqNum":     NewInt(1),
		"SendingTime":   NewDateTime(time.Now().UTC()),
		"EncryptMethod": NewInt(0),
		"HeartBtInt":    NewInt(30),
	}
	raw, err := EncodeMessage(p, md, fields, EncodeOptions{Sep: 0x01, RegenerateIntegrity: true})
	require.NoError(t, err)

	// Manufacture a frame missing HeartBtInt(108) to exercise the
	// required-field check on decode independent of EncodeMessage's own
	// check.
	withoutHeartBtInt := removeTag(t, raw, "108")
	raw2 := reframe(t, p, withoutHeartBtInt)

	_, _, err = DecodeMessage(p, raw2, DecodeOptions{Sep: 0x01, Strict: true})
	assert.Error(t, err)
}

func TestEncodeDecodeMessage_GroupRoundTrip(t *testing.T) {
	p := bundledProtocol(t)
	md, ok := p.MessageByName("NewOrderSingle")
	require.True(t, ok)

	fields := Message{
		"MsgType":      NewString(md.MsgType),
		"SenderCompID": NewString("INITIATOR"),
		"TargetCompID": NewString("ACCEPTOR"),
		"MsgSeqNum":    NewInt(7),
		"SendingTime":  NewDateTime(time.Now().UTC()),
		"ClOrdID":      NewString("ORDER-1"),
		"Symbol":       NewString("IBM"),
		"Side":         NewEnum("1", "BUY"),
		"TransactTime": NewDateTime(time.Now().UTC()),
		"OrdType":      NewEnum("2", "LIMIT"),
		"OrderQty":     NewDecimalValue(NewDecimalFloat(100)),
		"Price":        NewDecimalValue(NewDecimalFloat(50.25)),
		"NoPartyIDs": NewGroup([]map[string]Value{
			{
				"PartyID":       NewString("BROKER1"),
				"PartyIDSource": NewEnum("D", "PROPRIETARY"),
				"PartyRole":     NewInt(1),
			},
			{
				"PartyID": NewString("BROKER2"),
			},
		}),
	}

	raw, err := EncodeMessage(p, md, fields, EncodeOptions{Sep: 0x01, RegenerateIntegrity: true})
	require.NoError(t, err)

	decoded, _, err := DecodeMessage(p, raw, DecodeOptions{Sep: 0x01, Strict: true})
	require.NoError(t, err)

	occ, ok := decoded["NoPartyIDs"].Group()
	require.True(t, ok)
	require.Len(t, occ, 2)
	first, _ := occ[0]["PartyID"].Str()
	assert.Equal(t, "BROKER1", first)
	second, _ := occ[1]["PartyID"].Str()
	assert.Equal(t, "BROKER2", second)
}

func TestEncodeDecodeMessage_DiagnosticPipeSeparator(t *testing.T) {
	p := bundledProtocol(t)
	md, _ := p.MessageByName("Logon")

	fields := Message{
		"MsgType":       NewString(md.MsgType),
		"SenderCompID":  NewString("A"),
		"TargetCompID":  NewString("AB"),
		"MsgSeqNum":     NewInt(1),
		"SendingTime":   NewDateTime(time.Date(2010, 2, 19, 14, 33, 32, 0, time.UTC)),
		"EncryptMethod": NewInt(0),
		"HeartBtInt":    NewInt(30),
	}

	opts := EncodeOptions{Sep: '|', RegenerateIntegrity: true, ConvertSepForChecksum: true}
	raw, err := EncodeMessage(p, md, fields, opts)
	require.NoError(t, err)
	// The checksum is computed as if the separator were SOH, so the
	// pipe-framed rendering checksums identically to the wire form.
	assert.NotContains(t, string(raw), "\x01")

	decoded, decodedMD, err := DecodeMessage(p, raw, DecodeOptions{
		Sep: '|', Strict: true, Validate: true, ConvertSepForChecksum: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Logon", decodedMD.Name)
	seq, _ := decoded["MsgSeqNum"].Int()
	assert.Equal(t, int64(1), seq)
	hb, _ := decoded["HeartBtInt"].Int()
	assert.Equal(t, int64(30), hb)

	// Without the conversion the recomputed checksum disagrees with the
	// one written under conversion.
	_, _, err = DecodeMessage(p, raw, DecodeOptions{
		Sep: '|', Strict: true, Validate: true, ConvertSepForChecksum: false,
	})
	assert.Error(t, err)
}

func TestDecodeMessage_ChecksumMismatchFailsValidation(t *testing.T) {
	p := bundledProtocol(t)
	md, _ := p.MessageByName("Heartbeat")

	raw, err := EncodeMessage(p, md, Message{
		"MsgType":      NewString(md.MsgType),
		"SenderCompID": NewString("INITIATOR"),
		"TargetCompID": NewString("ACCEPTOR"),
		"MsgSeqNum":    NewInt(2),
		"SendingTime":  NewDateTime(time.Now().UTC()),
	}, EncodeOptions{Sep: 0x01, RegenerateIntegrity: true})
	require.NoError(t, err)

	corrupted := append([]byte{}, raw...)
	idx := len(corrupted) - 2 // last digit of the three-digit checksum, before the trailing separator
	corrupted[idx] = '0' + (corrupted[idx]-'0'+1)%10

	_, _, err = DecodeMessage(p, corrupted, DecodeOptions{Sep: 0x01, Validate: true})
	assert.Error(t, err)
}

// removeTag strips every "tag=value" pair equal to tag from a frame (not
// recomputing integrity), for constructing deliberately malformed frames.
func removeTag(t *testing.T, raw []byte, tag string) []byte {
	t.Helper()
	pairs := splitPairs(raw, 0x01)
	var out []byte
	for _, p := range pairs {
		if p.tag == tag {
			continue
		}
		out = append(out, []byte(p.tag)...)
		out = append(out, '=')
		out = append(out, p.value...)
		out = append(out, 0x01)
	}
	return out
}

// reframe recomputes BodyLength/CheckSum over an already-serialized,
// tag-order-preserved body so a hand-modified frame is internally
// consistent again.
func reframe(t *testing.T, p *protocol.Protocol, body []byte) []byte {
	t.Helper()
	out, err := regenerateIntegrity(p, body, EncodeOptions{Sep: 0x01})
	require.NoError(t, err)
	return out
}
