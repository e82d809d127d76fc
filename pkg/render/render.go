// Package render expands loop templating directives in spec files before
// they are parsed. Templates iterate over named host lists supplied by the
// caller, emitting one copy of the loop body per element:
//
//	{% for server in servers %}
//	{{server}}:kv
//	{% endfor %}
//
// A `-` immediately inside a marker ({%- or -%}) suppresses the newline
// adjacent to the directive so generated listings carry no blank lines.
// Only flat iteration is supported.
package render

import (
	"fmt"
	"strings"
)

// An Environment binds list names to their ordered elements.
type Environment map[string][]string

const (
	tagOpen  = "{%"
	tagClose = "%}"
	subOpen  = "{{"
	subClose = "}}"
)

// An Error describes a templating failure and the line it occurred on.
type Error struct {
	Line int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("template: line %d: %s", e.Line, e.Msg)
}

type tag struct {
	start, end int // offsets of the whole directive in the input
	name       string
	variable   string // loop variable, for tags only
	list       string // source list name, for tags only
	trimBefore bool
	trimAfter  bool
}

// Render expands all loop blocks in input against env. Input without
// directives is returned unchanged.
func Render(input string, env Environment) (string, error) {
	var out strings.Builder

	pos := 0
	for {
		ti := strings.Index(input[pos:], tagOpen)
		si := strings.Index(input[pos:], subOpen)

		if si != -1 && (ti == -1 || si < ti) {
			return "", errAt(input, pos+si, "variable substitution outside a loop body")
		}
		if ti == -1 {
			out.WriteString(input[pos:])
			return out.String(), nil
		}

		open, err := parseTag(input, pos+ti)
		if err != nil {
			return "", err
		}
		if open.name != "for" {
			return "", errAt(input, open.start, "endfor without a matching for")
		}

		elems, ok := env[open.list]
		if !ok {
			return "", errAt(input, open.start, fmt.Sprintf("undefined list variable %q", open.list))
		}

		literal := input[pos:open.start]
		if open.trimBefore {
			literal = trimTrailingLine(literal)
		}
		out.WriteString(literal)

		ci := strings.Index(input[open.end:], tagOpen)
		if ci == -1 {
			return "", errAt(input, open.start, fmt.Sprintf("loop over %q is not terminated", open.list))
		}
		closing, err := parseTag(input, open.end+ci)
		if err != nil {
			return "", err
		}
		if closing.name == "for" {
			return "", errAt(input, closing.start, "nested loops are not supported")
		}

		body := input[open.end:closing.start]
		if open.trimAfter {
			body = trimLeadingLine(body)
		}
		if closing.trimBefore {
			body = trimTrailingLine(body)
		}

		for _, elem := range elems {
			expanded, err := substitute(input, open.end, body, open.variable, elem)
			if err != nil {
				return "", err
			}
			out.WriteString(expanded)
		}

		pos = closing.end
		if closing.trimAfter {
			rest := input[pos:]
			pos += len(rest) - len(trimLeadingLine(rest))
		}
	}
}

// substitute replaces every {{name}} in body with elem, rejecting names other
// than the loop variable. off is the offset of body within input, used for
// error line numbers.
func substitute(input string, off int, body, variable, elem string) (string, error) {
	var out strings.Builder

	pos := 0
	for {
		i := strings.Index(body[pos:], subOpen)
		if i == -1 {
			out.WriteString(body[pos:])
			return out.String(), nil
		}
		start := pos + i
		rel := strings.Index(body[start:], subClose)
		if rel == -1 {
			return "", errAt(input, off+start, "unterminated variable substitution")
		}
		name := strings.TrimSpace(body[start+len(subOpen) : start+rel])
		if name != variable {
			return "", errAt(input, off+start, fmt.Sprintf("undefined variable %q", name))
		}
		out.WriteString(body[pos:start])
		out.WriteString(elem)
		pos = start + rel + len(subClose)
	}
}

func parseTag(input string, start int) (*tag, error) {
	rel := strings.Index(input[start:], tagClose)
	if rel == -1 {
		return nil, errAt(input, start, "unterminated directive")
	}

	t := &tag{
		start: start,
		end:   start + rel + len(tagClose),
	}

	inner := input[start+len(tagOpen) : start+rel]
	if strings.HasPrefix(inner, "-") {
		t.trimBefore = true
		inner = inner[1:]
	}
	if strings.HasSuffix(inner, "-") {
		t.trimAfter = true
		inner = inner[:len(inner)-1]
	}

	words := strings.Fields(inner)
	switch {
	case len(words) == 1 && words[0] == "endfor":
		t.name = "endfor"
	case len(words) == 4 && words[0] == "for" && words[2] == "in":
		t.name = "for"
		t.variable = words[1]
		t.list = words[3]
	default:
		return nil, errAt(input, start, fmt.Sprintf("malformed directive %q", strings.TrimSpace(inner)))
	}

	return t, nil
}

// trimTrailingLine removes trailing spaces and tabs plus the newline that
// precedes a directive.
func trimTrailingLine(s string) string {
	s = strings.TrimRight(s, " \t")
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}

// trimLeadingLine removes the newline that follows a directive plus any
// leading spaces and tabs on the next line.
func trimLeadingLine(s string) string {
	s = strings.TrimLeft(s, " \t")
	s = strings.TrimPrefix(s, "\r")
	s = strings.TrimPrefix(s, "\n")
	return s
}

func errAt(input string, pos int, msg string) *Error {
	return &Error{
		Line: strings.Count(input[:pos], "\n") + 1,
		Msg:  msg,
	}
}
