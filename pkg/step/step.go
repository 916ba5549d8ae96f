// Package step parses the ISO 10303-21 exchange structure (the text
// format of .step/.stp files) into an arena of entity records keyed by
// entity id. Parsing is a pure bytes-in transformation: no file I/O,
// no interpretation of entity semantics. The topology layer gives the
// records meaning.
package step

import "fmt"

// EntityID is the integer key of a record in the entity arena
// (the "#123" instance name). It is opaque outside parsing except as
// an identity for welding and error reporting.
type EntityID int64

// ValueKind discriminates parsed argument values.
type ValueKind int

const (
	// KindNull covers both "$" (unset) and "*" (derived).
	KindNull ValueKind = iota
	KindNumber
	KindString
	KindEnum
	KindRef
	KindList
	// KindTyped is a keyword-wrapped argument such as
	// PARAMETER_VALUE(1.0), and also the parts of a complex instance.
	KindTyped
)

// Value is one parsed argument. The entity cross-reference graph is
// cyclic, so references stay raw EntityIDs; resolution is a lookup in
// the arena, never a live pointer.
type Value struct {
	Kind ValueKind
	Num  float64
	Str  string // string text, enum name, or typed keyword
	Ref  EntityID
	List []Value
}

// Entity is one instance record from the DATA section.
type Entity struct {
	ID     EntityID
	Type   string // upper-case keyword; "" for complex instances
	Args   []Value
	Offset int // byte offset of the record in the input
}

// File is the parsed exchange structure.
type File struct {
	Description string
	Name        string
	Schema      string
	Entities    map[EntityID]*Entity
}

// Get returns the entity with the given id, or nil.
func (f *File) Get(id EntityID) *Entity {
	return f.Entities[id]
}

// OfType returns all entities with the given (upper-case) type name,
// in ascending id order.
func (f *File) OfType(name string) []*Entity {
	var out []*Entity
	for _, e := range f.Entities {
		if e.Type == name {
			out = append(out, e)
		}
	}
	sortEntities(out)
	return out
}

// ParseError reports malformed syntax, an unresolved reference or a
// structurally unusable exchange file. Offset is a byte offset into
// the input; Entity is the offending record id when known.
type ParseError struct {
	Offset int
	Entity EntityID
	Msg    string
}

func (e *ParseError) Error() string {
	if e.Entity != 0 {
		return fmt.Sprintf("step: parse error at byte %d (#%d): %s", e.Offset, e.Entity, e.Msg)
	}
	return fmt.Sprintf("step: parse error at byte %d: %s", e.Offset, e.Msg)
}

func sortEntities(es []*Entity) {
	// Insertion sort; type queries return a handful of records.
	for i := 1; i < len(es); i++ {
		for j := i; j > 0 && es[j].ID < es[j-1].ID; j-- {
			es[j], es[j-1] = es[j-1], es[j]
		}
	}
}
