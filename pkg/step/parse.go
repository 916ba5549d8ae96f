package step

import (
	"sort"
	"strconv"
	"strings"
)

// Parse reads a Part 21 exchange structure. It runs two passes: the
// first tokenizes every record in the DATA section into the arena, the
// second verifies that every "#n" reference resolves, so forward
// references are legal regardless of record order.
func Parse(data []byte) (*File, error) {
	s := &scanner{in: data}
	s.skip()
	off := s.pos
	if kw, ok := s.keyword(); !ok || kw != "ISO-10303-21" || !s.eat(';') {
		return nil, &ParseError{Offset: off, Msg: "missing ISO-10303-21 header"}
	}

	f := &File{Entities: make(map[EntityID]*Entity)}
	for {
		s.skip()
		if s.pos >= len(s.in) {
			return nil, &ParseError{Offset: s.pos, Msg: "unexpected end of file before END-ISO-10303-21"}
		}
		off = s.pos
		kw, ok := s.keyword()
		if !ok {
			return nil, &ParseError{Offset: off, Msg: "expected section keyword"}
		}
		if !s.eat(';') {
			return nil, &ParseError{Offset: s.pos, Msg: "expected ';' after " + kw}
		}
		switch kw {
		case "HEADER":
			if err := s.parseHeader(f); err != nil {
				return nil, err
			}
		case "DATA":
			if err := s.parseData(f); err != nil {
				return nil, err
			}
		case "END-ISO-10303-21":
			if err := resolveRefs(f); err != nil {
				return nil, err
			}
			return f, nil
		default:
			// Unknown section: skip records until ENDSEC.
			if err := s.skipSection(); err != nil {
				return nil, err
			}
		}
	}
}

// resolveRefs is the second pass: every reference must name an entity
// present in the arena.
func resolveRefs(f *File) error {
	ids := make([]EntityID, 0, len(f.Entities))
	for id := range f.Entities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		e := f.Entities[id]
		if bad, ok := findUnresolved(f, e.Args); ok {
			return &ParseError{Offset: e.Offset, Entity: e.ID,
				Msg: "unresolved reference #" + strconv.FormatInt(int64(bad), 10)}
		}
	}
	return nil
}

func findUnresolved(f *File, vals []Value) (EntityID, bool) {
	for _, v := range vals {
		switch v.Kind {
		case KindRef:
			if f.Entities[v.Ref] == nil {
				return v.Ref, true
			}
		case KindList, KindTyped:
			if bad, ok := findUnresolved(f, v.List); ok {
				return bad, true
			}
		}
	}
	return 0, false
}

type scanner struct {
	in  []byte
	pos int
}

// skip advances over whitespace and /* */ comments.
func (s *scanner) skip() {
	for s.pos < len(s.in) {
		c := s.in[s.pos]
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			s.pos++
			continue
		}
		if c == '/' && s.pos+1 < len(s.in) && s.in[s.pos+1] == '*' {
			end := strings.Index(string(s.in[s.pos+2:]), "*/")
			if end < 0 {
				s.pos = len(s.in)
				return
			}
			s.pos += 2 + end + 2
			continue
		}
		return
	}
}

func (s *scanner) eat(c byte) bool {
	s.skip()
	if s.pos < len(s.in) && s.in[s.pos] == c {
		s.pos++
		return true
	}
	return false
}

func (s *scanner) peek() byte {
	s.skip()
	if s.pos < len(s.in) {
		return s.in[s.pos]
	}
	return 0
}

func isKeywordChar(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-' || c == '!' ||
		c >= 'a' && c <= 'z'
}

// keyword reads an upper-cased keyword token.
func (s *scanner) keyword() (string, bool) {
	s.skip()
	start := s.pos
	for s.pos < len(s.in) && isKeywordChar(s.in[s.pos]) {
		s.pos++
	}
	if s.pos == start {
		return "", false
	}
	return strings.ToUpper(string(s.in[start:s.pos])), true
}

func (s *scanner) parseHeader(f *File) error {
	for {
		s.skip()
		off := s.pos
		kw, ok := s.keyword()
		if !ok {
			return &ParseError{Offset: off, Msg: "malformed header record"}
		}
		if kw == "ENDSEC" {
			if !s.eat(';') {
				return &ParseError{Offset: s.pos, Msg: "expected ';' after ENDSEC"}
			}
			return nil
		}
		if s.peek() != '(' {
			return &ParseError{Offset: s.pos, Msg: "expected '(' in header record " + kw}
		}
		args, err := s.parseList()
		if err != nil {
			return err
		}
		if !s.eat(';') {
			return &ParseError{Offset: s.pos, Msg: "unterminated header record " + kw}
		}
		switch kw {
		case "FILE_DESCRIPTION":
			if len(args) > 0 && args[0].Kind == KindList && len(args[0].List) > 0 {
				f.Description = args[0].List[0].Str
			}
		case "FILE_NAME":
			if len(args) > 0 {
				f.Name = args[0].Str
			}
		case "FILE_SCHEMA":
			if len(args) > 0 && args[0].Kind == KindList && len(args[0].List) > 0 {
				f.Schema = args[0].List[0].Str
			}
		}
	}
}

func (s *scanner) parseData(f *File) error {
	for {
		s.skip()
		if s.pos >= len(s.in) {
			return &ParseError{Offset: s.pos, Msg: "unterminated DATA section"}
		}
		if s.in[s.pos] != '#' {
			off := s.pos
			kw, ok := s.keyword()
			if !ok || kw != "ENDSEC" || !s.eat(';') {
				return &ParseError{Offset: off, Msg: "expected entity record or ENDSEC"}
			}
			return nil
		}

		off := s.pos
		s.pos++ // '#'
		id, err := s.integer()
		if err != nil {
			return err
		}
		if !s.eat('=') {
			return &ParseError{Offset: s.pos, Entity: EntityID(id), Msg: "expected '=' after instance name"}
		}

		e := &Entity{ID: EntityID(id), Offset: off}
		if s.peek() == '(' {
			// Complex instance: a parenthesized run of typed parts.
			parts, err := s.parseComplex()
			if err != nil {
				return err
			}
			e.Args = parts
		} else {
			kw, ok := s.keyword()
			if !ok {
				return &ParseError{Offset: s.pos, Entity: e.ID, Msg: "expected entity type keyword"}
			}
			e.Type = kw
			if s.peek() != '(' {
				return &ParseError{Offset: s.pos, Entity: e.ID, Msg: "expected '(' after " + kw}
			}
			e.Args, err = s.parseList()
			if err != nil {
				return err
			}
		}
		if !s.eat(';') {
			return &ParseError{Offset: s.pos, Entity: e.ID, Msg: "unterminated entity"}
		}
		if f.Entities[e.ID] != nil {
			return &ParseError{Offset: off, Entity: e.ID, Msg: "duplicate entity id"}
		}
		f.Entities[e.ID] = e
	}
}

// skipSection discards records of an unrecognized section.
func (s *scanner) skipSection() error {
	for {
		s.skip()
		off := s.pos
		kw, ok := s.keyword()
		if ok && kw == "ENDSEC" && s.eat(';') {
			return nil
		}
		// Advance to the next ';'.
		for s.pos < len(s.in) && s.in[s.pos] != ';' {
			s.pos++
		}
		if s.pos >= len(s.in) {
			return &ParseError{Offset: off, Msg: "unterminated section"}
		}
		s.pos++
	}
}

// parseComplex parses "( KW(args) KW(args) ... )", the
// external-mapping form of a multiply-typed instance. Unlike list
// elements, the parts have no separating commas.
func (s *scanner) parseComplex() ([]Value, error) {
	if !s.eat('(') {
		return nil, &ParseError{Offset: s.pos, Msg: "expected '(' in complex instance"}
	}
	var parts []Value
	for {
		if s.eat(')') {
			if len(parts) == 0 {
				return nil, &ParseError{Offset: s.pos, Msg: "empty complex instance"}
			}
			return parts, nil
		}
		off := s.pos
		kw, ok := s.keyword()
		if !ok {
			return nil, &ParseError{Offset: off, Msg: "expected keyword in complex instance"}
		}
		if s.peek() != '(' {
			return nil, &ParseError{Offset: s.pos, Msg: "expected '(' after " + kw}
		}
		list, err := s.parseList()
		if err != nil {
			return nil, err
		}
		parts = append(parts, Value{Kind: KindTyped, Str: kw, List: list})
	}
}

// parseList parses "( v, v, ... )". The opening parenthesis has not
// been consumed yet.
func (s *scanner) parseList() ([]Value, error) {
	if !s.eat('(') {
		return nil, &ParseError{Offset: s.pos, Msg: "expected '('"}
	}
	var vals []Value
	if s.peek() == ')' {
		s.pos++
		return vals, nil
	}
	for {
		v, err := s.parseValue()
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
		if s.eat(',') {
			continue
		}
		if s.eat(')') {
			return vals, nil
		}
		return nil, &ParseError{Offset: s.pos, Msg: "expected ',' or ')' in list"}
	}
}

func (s *scanner) parseValue() (Value, error) {
	s.skip()
	if s.pos >= len(s.in) {
		return Value{}, &ParseError{Offset: s.pos, Msg: "unexpected end of input in value"}
	}
	switch c := s.in[s.pos]; {
	case c == '$':
		s.pos++
		return Value{Kind: KindNull}, nil
	case c == '*':
		s.pos++
		return Value{Kind: KindNull, Str: "*"}, nil
	case c == '#':
		s.pos++
		id, err := s.integer()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindRef, Ref: EntityID(id)}, nil
	case c == '\'':
		str, err := s.stringLit()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindString, Str: str}, nil
	case c == '.':
		return s.enum()
	case c == '(':
		list, err := s.parseList()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindList, List: list}, nil
	case c == '-' || c == '+' || c >= '0' && c <= '9':
		return s.number()
	case isKeywordChar(c):
		kw, _ := s.keyword()
		list, err := s.parseList()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindTyped, Str: kw, List: list}, nil
	default:
		return Value{}, &ParseError{Offset: s.pos, Msg: "unexpected character " + strconv.QuoteRune(rune(c))}
	}
}

func (s *scanner) integer() (int64, error) {
	start := s.pos
	for s.pos < len(s.in) && s.in[s.pos] >= '0' && s.in[s.pos] <= '9' {
		s.pos++
	}
	if s.pos == start {
		return 0, &ParseError{Offset: start, Msg: "expected integer"}
	}
	n, err := strconv.ParseInt(string(s.in[start:s.pos]), 10, 64)
	if err != nil {
		return 0, &ParseError{Offset: start, Msg: "bad integer: " + err.Error()}
	}
	return n, nil
}

func (s *scanner) number() (Value, error) {
	start := s.pos
	if s.in[s.pos] == '-' || s.in[s.pos] == '+' {
		s.pos++
	}
	for s.pos < len(s.in) {
		c := s.in[s.pos]
		if c >= '0' && c <= '9' || c == '.' {
			s.pos++
			continue
		}
		if c == 'E' || c == 'e' {
			s.pos++
			if s.pos < len(s.in) && (s.in[s.pos] == '-' || s.in[s.pos] == '+') {
				s.pos++
			}
			continue
		}
		break
	}
	n, err := strconv.ParseFloat(string(s.in[start:s.pos]), 64)
	if err != nil {
		return Value{}, &ParseError{Offset: start, Msg: "bad number: " + err.Error()}
	}
	return Value{Kind: KindNumber, Num: n}, nil
}

// stringLit parses 'text', with '' as the embedded-quote escape.
func (s *scanner) stringLit() (string, error) {
	start := s.pos
	s.pos++ // opening quote
	var b strings.Builder
	for s.pos < len(s.in) {
		c := s.in[s.pos]
		if c == '\'' {
			if s.pos+1 < len(s.in) && s.in[s.pos+1] == '\'' {
				b.WriteByte('\'')
				s.pos += 2
				continue
			}
			s.pos++
			return b.String(), nil
		}
		b.WriteByte(c)
		s.pos++
	}
	return "", &ParseError{Offset: start, Msg: "unterminated string"}
}

// enum parses .NAME. including .T. and .F.
func (s *scanner) enum() (Value, error) {
	start := s.pos
	s.pos++ // leading dot
	for s.pos < len(s.in) && s.in[s.pos] != '.' {
		if !isKeywordChar(s.in[s.pos]) {
			return Value{}, &ParseError{Offset: start, Msg: "malformed enumeration value"}
		}
		s.pos++
	}
	if s.pos >= len(s.in) {
		return Value{}, &ParseError{Offset: start, Msg: "unterminated enumeration value"}
	}
	name := strings.ToUpper(string(s.in[start+1 : s.pos]))
	s.pos++ // trailing dot
	return Value{Kind: KindEnum, Str: name}, nil
}
