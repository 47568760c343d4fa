// Package schema models the minimal slice of a Smithy shape graph that
// event stream binding needs: shape types, union member names, and the
// eventHeader, eventPayload, mediaType, and error traits.
package schema

import "github.com/samber/lo"

// ShapeType classifies a schema shape.
type ShapeType int

const (
	ShapeTypeStructure ShapeType = iota
	ShapeTypeUnion
	ShapeTypeBlob
	ShapeTypeString
	ShapeTypeBoolean
	ShapeTypeByte
	ShapeTypeShort
	ShapeTypeInteger
	ShapeTypeLong
	ShapeTypeTimestamp
)

func (t ShapeType) String() string {
	switch t {
	case ShapeTypeStructure:
		return "structure"
	case ShapeTypeUnion:
		return "union"
	case ShapeTypeBlob:
		return "blob"
	case ShapeTypeString:
		return "string"
	case ShapeTypeBoolean:
		return "boolean"
	case ShapeTypeByte:
		return "byte"
	case ShapeTypeShort:
		return "short"
	case ShapeTypeInteger:
		return "integer"
	case ShapeTypeLong:
		return "long"
	case ShapeTypeTimestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// Schema describes an event shape: an event stream union branch, an
// operation input/output structure, or a member target.
type Schema struct {
	// ID is the shape name, for diagnostics only.
	ID string

	Type ShapeType

	// MemberName is the union branch name the shape was reached through.
	// It is empty when the shape is an operation input or output, which is
	// what marks an event as an initial message.
	MemberName string

	// Error marks shapes carrying the error trait; such events are
	// published as exception messages.
	Error bool

	// MediaType is the shape's mediaType trait, if any.
	MediaType string

	Members []*Member
}

// Member is a structure member and its binding traits.
type Member struct {
	Name   string
	Target *Schema

	// EventHeader binds the member to a same-named event header.
	EventHeader bool

	// EventPayload binds the member to the raw event payload.
	EventPayload bool
}

// Member returns the member with the given name, or nil.
func (s *Schema) Member(name string) *Member {
	m, _ := lo.Find(s.Members, func(m *Member) bool { return m.Name == name })
	return m
}

// PayloadMember returns the member bound to the event payload, or nil.
func (s *Schema) PayloadMember() *Member {
	m, _ := lo.Find(s.Members, func(m *Member) bool { return m.EventPayload })
	return m
}

// HeaderMembers returns the members bound to event headers, in order.
func (s *Schema) HeaderMembers() []*Member {
	return lo.Filter(s.Members, func(m *Member, _ int) bool { return m.EventHeader })
}
