package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalDictionary = `
version: "FIX.4.4"
beginString: "FIX.4.4"
fields:
  - { name: BeginString, tag: 8, type: STRING }
  - { name: BodyLength, tag: 9, type: LENGTH }
  - { name: MsgType, tag: 35, type: STRING }
  - { name: SenderCompID, tag: 49, type: STRING }
  - { name: CheckSum, tag: 10, type: STRING }
  - { name: HeartBtInt, tag: 108, type: INT }
  - { name: NoPartyIDs, tag: 453, type: NUMINGROUP }
  - { name: PartyID, tag: 448, type: STRING }
header:
  - { field: BeginString, required: true }
  - { field: BodyLength, required: true }
  - { field: MsgType, required: true }
  - { field: SenderCompID, required: true }
trailer:
  - { field: CheckSum, required: true }
components:
  - name: Parties
    members:
      - group:
          field: NoPartyIDs
          members:
            - { field: PartyID, required: true }
messages:
  - name: Logon
    msgtype: "A"
    msgcat: admin
    members:
      - { field: HeartBtInt, required: true }
      - { component: Parties, required: false }
`

func TestLoadBytes_ResolvesComponentsAndMessages(t *testing.T) {
	p, err := LoadBytes([]byte(minimalDictionary))
	require.NoError(t, err)

	md, ok := p.MessageByType("A")
	require.True(t, ok)
	assert.Equal(t, "Logon", md.Name)
	assert.Equal(t, CategoryAdmin, md.Category)
	require.Len(t, md.Members, 2)
	assert.Equal(t, MemberField, md.Members[0].Kind)
	assert.Equal(t, MemberComponent, md.Members[1].Kind)
	assert.Equal(t, "Parties", md.Members[1].Component.Name)

	fd, ok := p.FieldByTag(108)
	require.True(t, ok)
	assert.Equal(t, "HeartBtInt", fd.Name)
}

func TestLoadBytes_IsIdempotent(t *testing.T) {
	p1, err := LoadBytes([]byte(minimalDictionary))
	require.NoError(t, err)
	p2, err := LoadBytes([]byte(minimalDictionary))
	require.NoError(t, err)

	md1, _ := p1.MessageByName("Logon")
	md2, _ := p2.MessageByName("Logon")
	assert.Equal(t, md1.MsgType, md2.MsgType)
	assert.Equal(t, len(md1.Members), len(md2.Members))
}

func TestLoadBytes_UnknownFieldType(t *testing.T) {
	_, err := LoadBytes([]byte(`
version: "FIX.4.4"
beginString: "FIX.4.4"
fields:
  - { name: Weird, tag: 9999, type: NOTATYPE }
header: []
trailer: []
`))
	assert.ErrorIs(t, err, ErrUnknownFieldType)
}

func TestLoadBytes_DuplicateTag(t *testing.T) {
	_, err := LoadBytes([]byte(`
version: "FIX.4.4"
beginString: "FIX.4.4"
fields:
  - { name: A, tag: 1, type: STRING }
  - { name: B, tag: 1, type: STRING }
header: []
trailer: []
`))
	assert.Error(t, err)
}

func TestValidate_RejectsBadHeaderOrder(t *testing.T) {
	_, err := LoadBytes([]byte(`
version: "FIX.4.4"
beginString: "FIX.4.4"
fields:
  - { name: BeginString, tag: 8, type: STRING }
  - { name: MsgType, tag: 35, type: STRING }
  - { name: BodyLength, tag: 9, type: LENGTH }
  - { name: CheckSum, tag: 10, type: STRING }
header:
  - { field: BeginString, required: true }
  - { field: MsgType, required: true }
  - { field: BodyLength, required: true }
trailer:
  - { field: CheckSum, required: true }
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BodyLength")
}

func TestValidate_RejectsMissingTrailerCheckSum(t *testing.T) {
	_, err := LoadBytes([]byte(`
version: "FIX.4.4"
beginString: "FIX.4.4"
fields:
  - { name: BeginString, tag: 8, type: STRING }
  - { name: BodyLength, tag: 9, type: LENGTH }
  - { name: MsgType, tag: 35, type: STRING }
  - { name: Text, tag: 58, type: STRING }
header:
  - { field: BeginString, required: true }
  - { field: BodyLength, required: true }
  - { field: MsgType, required: true }
trailer:
  - { field: Text, required: false }
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CheckSum")
}

func TestBundled_LoadsAndValidates(t *testing.T) {
	p, err := Bundled()
	require.NoError(t, err)

	for _, want := range []string{"Logon", "Heartbeat", "TestRequest", "ResendRequest", "Reject", "SequenceReset", "Logout", "NewOrderSingle"} {
		_, ok := p.MessageByName(want)
		assert.True(t, ok, "expected bundled dictionary to define %s", want)
	}

	nos, ok := p.MessageByType("D")
	require.True(t, ok)
	assert.Equal(t, CategoryApp, nos.Category)
}
