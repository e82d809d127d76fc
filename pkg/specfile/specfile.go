// Package specfile parses the line-oriented section/key-value format used by
// cluster spec and test case files. A file may hold several independent
// documents separated by a boundary marker line; each document is an ordered
// list of bracketed sections holding key = value pairs, where a value may
// continue onto more deeply indented lines.
package specfile

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Boundary separates independent documents within one file.
const Boundary = "---"

// A ParseError describes a syntax failure and the line it occurred on.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// A Field is a single key with its value text. Continuation lines each
// contribute one additional element; how elements are combined is decided by
// the field's schema, not here.
type Field struct {
	Key   string
	Line  int
	Value string   // text on the key line, may be empty
	Cont  []string // continuation lines, outer whitespace removed
}

// Lines returns the value line (when non-empty) followed by all
// continuations.
func (f *Field) Lines() []string {
	var lines []string
	if f.Value != "" {
		lines = append(lines, f.Value)
	}
	lines = append(lines, f.Cont...)
	return lines
}

// Text returns the whole value as one string with continuations joined by
// newlines.
func (f *Field) Text() string {
	return strings.Join(f.Lines(), "\n")
}

// A Section is a named, ordered collection of fields.
type Section struct {
	Name   string
	Line   int
	Fields []*Field

	byKey map[string]*Field
}

// Field returns the named field, or nil when absent.
func (s *Section) Field(key string) *Field {
	return s.byKey[key]
}

// Keys returns the field keys in file order.
func (s *Section) Keys() []string {
	keys := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		keys = append(keys, f.Key)
	}
	return keys
}

func (s *Section) add(f *Field) error {
	if _, dup := s.byKey[f.Key]; dup {
		return &ParseError{
			Line: f.Line,
			Msg:  fmt.Sprintf("duplicate key %q in section [%s]", f.Key, s.Name),
		}
	}
	s.Fields = append(s.Fields, f)
	s.byKey[f.Key] = f
	return nil
}

// NewSection returns an empty named section.
func NewSection(name string) *Section {
	return &Section{Name: name, byKey: map[string]*Field{}}
}

// Put inserts or replaces a field. A replaced value is dropped wholly, list
// elements are never merged.
func (s *Section) Put(f *Field) {
	if old, ok := s.byKey[f.Key]; ok {
		for i, existing := range s.Fields {
			if existing == old {
				s.Fields[i] = f
				break
			}
		}
		s.byKey[f.Key] = f
		return
	}
	s.Fields = append(s.Fields, f)
	s.byKey[f.Key] = f
}

// Clone returns a deep copy of the section.
func (s *Section) Clone() *Section {
	c := NewSection(s.Name)
	c.Line = s.Line
	for _, f := range s.Fields {
		c.Put(&Field{
			Key:   f.Key,
			Line:  f.Line,
			Value: f.Value,
			Cont:  append([]string(nil), f.Cont...),
		})
	}
	return c
}

// A Document is one boundary-separated unit of a spec file.
type Document struct {
	Sections []*Section
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	c := &Document{}
	for _, s := range d.Sections {
		c.Sections = append(c.Sections, s.Clone())
	}
	return c
}

// Section returns the named section, or nil when absent.
func (d *Document) Section(name string) *Section {
	for _, s := range d.Sections {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Parse reads rendered spec text and splits it into documents. Sections never
// span a document boundary. Duplicate keys within a section are rejected.
func Parse(r io.Reader) ([]*Document, error) {
	var (
		docs    []*Document
		doc     = &Document{}
		section *Section
		field   *Field
		indent  = -1 // indentation of the current key line
	)

	flush := func() {
		docs = append(docs, doc)
		doc = &Document{}
		section = nil
		field = nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Text()
		text := strings.TrimSpace(raw)

		if text == Boundary {
			flush()
			continue
		}
		if text == "" || strings.HasPrefix(text, "#") || strings.HasPrefix(text, ";") {
			continue
		}

		if strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]") {
			name := strings.TrimSpace(text[1 : len(text)-1])
			if name == "" {
				return nil, &ParseError{Line: line, Msg: "empty section name"}
			}
			section = &Section{Name: name, Line: line, byKey: map[string]*Field{}}
			doc.Sections = append(doc.Sections, section)
			field = nil
			continue
		}

		// Anything before the first section header is preamble and carries
		// no meaning.
		if section == nil {
			continue
		}

		lineIndent := len(raw) - len(strings.TrimLeft(raw, " \t"))

		// A line indented beyond the current key continues its value.
		if field != nil && lineIndent > indent {
			field.Cont = append(field.Cont, text)
			continue
		}

		key, value, found := strings.Cut(text, "=")
		if !found {
			return nil, &ParseError{
				Line: line,
				Msg:  fmt.Sprintf("expected key = value, got %q", text),
			}
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, &ParseError{Line: line, Msg: "empty key"}
		}

		field = &Field{
			Key:   key,
			Line:  line,
			Value: strings.TrimSpace(value),
		}
		indent = lineIndent
		if err := section.add(field); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read spec: %w", err)
	}

	flush()
	return docs, nil
}
