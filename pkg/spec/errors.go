package spec

import "fmt"

// A SchemaError reports a section name that the registry does not know.
type SchemaError struct {
	Section string
	Line    int
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("line %d: unknown section [%s]", e.Line, e.Section)
}

// A CoercionError reports a raw value that does not match the declared shape
// of its field.
type CoercionError struct {
	Section string
	Key     string
	Value   string
	Want    string // description of the expected shape
	Line    int
}

func (e *CoercionError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("section [%s]: %s: %s", e.Section, e.Key, e.Want)
	}
	return fmt.Sprintf("line %d: section [%s]: %s: cannot interpret %q as %s",
		e.Line, e.Section, e.Key, e.Value, e.Want)
}

// A ValidationError reports a violated cross-field invariant.
type ValidationError struct {
	Section string
	Field   string
	Msg     string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("section [%s]: %s", e.Section, e.Msg)
	}
	return fmt.Sprintf("section [%s]: %s: %s", e.Section, e.Field, e.Msg)
}
