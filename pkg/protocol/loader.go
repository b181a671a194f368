package protocol

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Intermediate (pre-resolution) dictionary shape.
//
// The wire format is a QuickFIX-dictionary-shaped YAML file (§6): root has
// version, beginString, fields, components, messages, header, trailer;
// each message carries msgtype and msgcat. We unmarshal into a generic
// map first, then use mapstructure to decode each section into a typed
// spec, because message members are a tagged union (field | group |
// component) that doesn't map cleanly onto a single yaml struct tag set.
// ---------------------------------------------------------------------------

type fieldSpec struct {
	Name string            `mapstructure:"name"`
	Tag  int               `mapstructure:"tag"`
	Type string            `mapstructure:"type"`
	Enum map[string]string `mapstructure:"enum"`
}

type memberSpec struct {
	Field     string       `mapstructure:"field"`
	Group     *groupSpec   `mapstructure:"group"`
	Component string       `mapstructure:"component"`
	Required  bool         `mapstructure:"required"`
}

type groupSpec struct {
	Field   string       `mapstructure:"field"`
	Members []memberSpec `mapstructure:"members"`
}

type componentSpec struct {
	Name    string       `mapstructure:"name"`
	Members []memberSpec `mapstructure:"members"`
}

type messageSpec struct {
	Name    string       `mapstructure:"name"`
	MsgType string       `mapstructure:"msgtype"`
	MsgCat  string       `mapstructure:"msgcat"`
	Members []memberSpec `mapstructure:"members"`
}

type dictionarySpec struct {
	Version         string          `mapstructure:"version"`
	BeginString     string          `mapstructure:"beginString"`
	MillisecondTime bool            `mapstructure:"millisecondTime"`
	DecimalFloat    bool            `mapstructure:"decimalFloat"`
	BoolEnum        bool            `mapstructure:"boolEnum"`
	Fields          []fieldSpec     `mapstructure:"fields"`
	Components      []componentSpec `mapstructure:"components"`
	Messages        []messageSpec   `mapstructure:"messages"`
	Header          []memberSpec    `mapstructure:"header"`
	Trailer         []memberSpec    `mapstructure:"trailer"`
}

// Load reads and resolves a protocol dictionary from path.
func Load(path string) (*Protocol, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read protocol dictionary %q: %w", path, err)
	}
	return LoadBytes(raw)
}

// LoadBytes reads and resolves a protocol dictionary from raw YAML bytes.
func LoadBytes(raw []byte) (*Protocol, error) {
	var generic map[string]any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("parse protocol dictionary: %w", err)
	}

	var spec dictionarySpec
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &spec,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("build dictionary decoder: %w", err)
	}
	if err := decoder.Decode(generic); err != nil {
		return nil, fmt.Errorf("decode protocol dictionary: %w", err)
	}

	return resolve(&spec)
}

// resolve turns the flat, string-keyed spec into the fully linked,
// immutable Protocol, following the two-phase build described in §9:
// reserve every component slot first, then populate, so forward
// references between components are allowed.
func resolve(spec *dictionarySpec) (*Protocol, error) {
	p := &Protocol{
		Version:         spec.Version,
		BeginString:     spec.BeginString,
		MillisecondTime: spec.MillisecondTime,
		DecimalFloat:    spec.DecimalFloat,
		BoolEnum:        spec.BoolEnum,
		fieldsByName:    make(map[string]*FieldDef, len(spec.Fields)),
		fieldsByTag:     make(map[int]*FieldDef, len(spec.Fields)),
		components:      make(map[string]*ComponentDef, len(spec.Components)),
		messagesByName:  make(map[string]*MessageDef, len(spec.Messages)),
		messagesByType:  make(map[string]*MessageDef, len(spec.Messages)),
	}

	for _, fs := range spec.Fields {
		typ, ok := ParseSemanticType(fs.Type)
		if !ok {
			return nil, fmt.Errorf("%w: field %q has type %q", ErrUnknownFieldType, fs.Name, fs.Type)
		}
		if _, dup := p.fieldsByName[fs.Name]; dup {
			return nil, fmt.Errorf("duplicate field name %q", fs.Name)
		}
		if _, dup := p.fieldsByTag[fs.Tag]; dup {
			return nil, fmt.Errorf("duplicate field tag %d (field %q)", fs.Tag, fs.Name)
		}
		fd := NewFieldDef(fs.Name, fs.Tag, typ, fs.Enum)
		p.fieldsByName[fs.Name] = fd
		p.fieldsByTag[fs.Tag] = fd
	}

	// Phase 1: reserve every component slot so forward references resolve.
	for _, cs := range spec.Components {
		if _, dup := p.components[cs.Name]; dup {
			return nil, fmt.Errorf("duplicate component name %q", cs.Name)
		}
		p.components[cs.Name] = &ComponentDef{Name: cs.Name}
	}

	// Phase 2: populate each component's member list.
	for _, cs := range spec.Components {
		members, err := resolveMembers(p, cs.Members)
		if err != nil {
			return nil, fmt.Errorf("component %q: %w", cs.Name, err)
		}
		p.components[cs.Name].Members = members
	}

	header, err := resolveMembers(p, spec.Header)
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	p.Header = header

	trailer, err := resolveMembers(p, spec.Trailer)
	if err != nil {
		return nil, fmt.Errorf("trailer: %w", err)
	}
	p.Trailer = trailer

	for _, ms := range spec.Messages {
		if _, dup := p.messagesByType[ms.MsgType]; dup {
			return nil, fmt.Errorf("duplicate MsgType %q (message %q)", ms.MsgType, ms.Name)
		}
		members, err := resolveMembers(p, ms.Members)
		if err != nil {
			return nil, fmt.Errorf("message %q: %w", ms.Name, err)
		}
		cat := CategoryApp
		if ms.MsgCat == "admin" {
			cat = CategoryAdmin
		}
		md := &MessageDef{Name: ms.Name, MsgType: ms.MsgType, Category: cat, Members: members}
		p.messagesByName[ms.Name] = md
		p.messagesByType[ms.MsgType] = md
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func resolveMembers(p *Protocol, specs []memberSpec) ([]MessageMember, error) {
	members := make([]MessageMember, 0, len(specs))
	for _, ms := range specs {
		switch {
		case ms.Group != nil:
			fd, ok := p.FieldByName(ms.Group.Field)
			if !ok {
				return nil, fmt.Errorf("group counter field %q not found", ms.Group.Field)
			}
			children, err := resolveMembers(p, ms.Group.Members)
			if err != nil {
				return nil, fmt.Errorf("group %q: %w", ms.Group.Field, err)
			}
			members = append(members, MessageMember{
				Kind:     MemberGroup,
				Required: ms.Required,
				Field:    fd,
				Members:  children,
			})
		case ms.Component != "":
			comp, ok := p.Component(ms.Component)
			if !ok {
				return nil, fmt.Errorf("component %q not found", ms.Component)
			}
			members = append(members, MessageMember{
				Kind:      MemberComponent,
				Required:  ms.Required,
				Component: comp,
			})
		case ms.Field != "":
			fd, ok := p.FieldByName(ms.Field)
			if !ok {
				return nil, fmt.Errorf("field %q not found", ms.Field)
			}
			members = append(members, MessageMember{
				Kind:     MemberField,
				Required: ms.Required,
				Field:    fd,
			})
		default:
			return nil, fmt.Errorf("member has neither field, group, nor component")
		}
	}
	return members, nil
}
