// Package protocol holds the immutable, in-memory description of a FIX
// protocol dictionary: fields, components, messages, header and trailer
// layout, and the decoding flags that vary between FIX 4.x revisions.
//
// A Protocol is built once (see loader.go) and then shared read-only by
// every session on the process; nothing in this package mutates a
// Protocol after Validate succeeds.
package protocol

// SemanticType is the wire-level type a field's value is encoded as.
type SemanticType int

const (
	TypeInt SemanticType = iota
	TypeSeqNum
	TypeNumInGroup
	TypeLength
	TypeFloat
	TypeQty
	TypePrice
	TypePriceOffset
	TypeAmt
	TypeChar
	TypeString
	TypeCurrency
	TypeExchange
	TypeBoolean
	TypeMultipleValueString
	TypeUTCTimestamp
	TypeUTCTimeOnly
	TypeLocalMktDate
	TypeUTCDate
	TypeMonthYear
)

var semanticTypeNames = map[string]SemanticType{
	"INT":                 TypeInt,
	"SEQNUM":              TypeSeqNum,
	"NUMINGROUP":          TypeNumInGroup,
	"LENGTH":              TypeLength,
	"FLOAT":               TypeFloat,
	"QTY":                 TypeQty,
	"PRICE":               TypePrice,
	"PRICEOFFSET":         TypePriceOffset,
	"AMT":                 TypeAmt,
	"CHAR":                TypeChar,
	"STRING":              TypeString,
	"CURRENCY":            TypeCurrency,
	"EXCHANGE":            TypeExchange,
	"BOOLEAN":             TypeBoolean,
	"MULTIPLEVALUESTRING": TypeMultipleValueString,
	"UTCTIMESTAMP":        TypeUTCTimestamp,
	"UTCTIMEONLY":         TypeUTCTimeOnly,
	"LOCALMKTDATE":        TypeLocalMktDate,
	"UTCDATE":             TypeUTCDate,
	"MONTHYEAR":           TypeMonthYear,
}

// ParseSemanticType maps a dictionary type token (e.g. "PRICE") to a
// SemanticType. ok is false for an unrecognized token.
func ParseSemanticType(token string) (SemanticType, bool) {
	t, ok := semanticTypeNames[token]
	return t, ok
}

// FieldDef describes one named, numbered field and, optionally, its
// enumeration — a bijection between wire token and logical name.
type FieldDef struct {
	Name string
	Tag  int
	Type SemanticType

	// enumToName maps a wire token (e.g. "0") to its logical name (e.g.
	// "NEW"); enumToToken is its inverse. Both are nil when the field has
	// no enumeration.
	enumToName  map[string]string
	enumToToken map[string]string
}

// NewFieldDef constructs a field definition with an optional enumeration.
// enum keys are wire tokens, values are logical names.
func NewFieldDef(name string, tag int, typ SemanticType, enum map[string]string) *FieldDef {
	fd := &FieldDef{Name: name, Tag: tag, Type: typ}
	if len(enum) > 0 {
		fd.enumToName = make(map[string]string, len(enum))
		fd.enumToToken = make(map[string]string, len(enum))
		for token, name := range enum {
			fd.enumToName[token] = name
			fd.enumToToken[name] = token
		}
	}
	return fd
}

// HasEnum reports whether fd carries an enumeration.
func (fd *FieldDef) HasEnum() bool { return fd.enumToName != nil }

// NameForToken returns the logical name for a wire token, or ("", false)
// if fd has no enumeration or the token is unrecognized.
func (fd *FieldDef) NameForToken(token string) (string, bool) {
	if fd.enumToName == nil {
		return "", false
	}
	n, ok := fd.enumToName[token]
	return n, ok
}

// TokenForName returns the wire token for a logical name, or ("", false).
func (fd *FieldDef) TokenForName(name string) (string, bool) {
	if fd.enumToToken == nil {
		return "", false
	}
	t, ok := fd.enumToToken[name]
	return t, ok
}

// MemberKind distinguishes the three shapes a message member can take.
type MemberKind int

const (
	MemberField MemberKind = iota
	MemberGroup
	MemberComponent
)

// MessageMember is a tagged union over {Field, Group, Component}. Kind
// says which of the fields below are populated; a group uses both Field
// and Members.
type MessageMember struct {
	Kind     MemberKind
	Required bool

	Field *FieldDef // MemberField

	// MemberGroup: Field is the NUMINGROUP counter field; Members is the
	// ordered list of members repeated for each group occurrence.
	Members []MessageMember

	// MemberComponent: a reference to a previously (or forward-)declared
	// component, resolved during the loader's second pass.
	Component *ComponentDef
}

// ComponentDef is a named, reusable, ordered list of members flattened
// into any message or group that references it.
type ComponentDef struct {
	Name    string
	Members []MessageMember
}

// MessageCategory distinguishes session-layer (admin) messages from
// business (app) messages.
type MessageCategory int

const (
	CategoryAdmin MessageCategory = iota
	CategoryApp
)

// MessageDef describes one message type: its wire MsgType token, its
// category, and its ordered body members (header/trailer are shared
// across all messages and live on Protocol).
type MessageDef struct {
	Name    string
	MsgType string // wire token, e.g. "A" for Logon
	Category MessageCategory
	Members []MessageMember
}

// Protocol is the immutable, fully resolved metadata for one FIX
// dictionary version. Construct via Load/LoadBytes; never mutate a
// Protocol after it is returned.
type Protocol struct {
	Version     string
	BeginString string

	fieldsByName map[string]*FieldDef
	fieldsByTag  map[int]*FieldDef

	components map[string]*ComponentDef

	messagesByName map[string]*MessageDef
	messagesByType map[string]*MessageDef

	Header  []MessageMember
	Trailer []MessageMember

	// Decoding flags (§3).
	MillisecondTime bool
	DecimalFloat    bool
	BoolEnum        bool
}

// FieldByName looks up a field definition by its dictionary name.
func (p *Protocol) FieldByName(name string) (*FieldDef, bool) {
	fd, ok := p.fieldsByName[name]
	return fd, ok
}

// FieldByTag looks up a field definition by its numeric tag.
func (p *Protocol) FieldByTag(tag int) (*FieldDef, bool) {
	fd, ok := p.fieldsByTag[tag]
	return fd, ok
}

// Component looks up a component definition by name.
func (p *Protocol) Component(name string) (*ComponentDef, bool) {
	c, ok := p.components[name]
	return c, ok
}

// MessageByName looks up a message definition by its dictionary name
// (e.g. "Logon").
func (p *Protocol) MessageByName(name string) (*MessageDef, bool) {
	m, ok := p.messagesByName[name]
	return m, ok
}

// MessageByType looks up a message definition by its wire MsgType token
// (e.g. "A").
func (p *Protocol) MessageByType(msgType string) (*MessageDef, bool) {
	m, ok := p.messagesByType[msgType]
	return m, ok
}
