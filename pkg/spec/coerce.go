package spec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/pavel-paulau/perfrunner/pkg/specfile"
)

// Credentials is a principal:secret pair used for REST administration, SSH
// access or client authentication.
type Credentials struct {
	Username string
	Password string
}

func (c Credentials) String() string {
	return c.Username + ":" + c.Password
}

// A coercer converts the raw fields of one section into typed values,
// applying registry defaults and collecting every coercion failure instead of
// stopping at the first. The section may be nil, in which case every field
// resolves to its default.
type coercer struct {
	section *specfile.Section
	schema  *sectionSchema
	errs    *multierror.Error
	known   map[string]bool
}

func newCoercer(section *specfile.Section, schema *sectionSchema) *coercer {
	return &coercer{
		section: section,
		schema:  schema,
		known:   map[string]bool{},
	}
}

// finish returns all coercion errors collected for the section, or nil.
func (c *coercer) finish() error {
	return c.errs.ErrorOrNil()
}

func (c *coercer) fail(f *specfile.Field, key, value, want string) {
	e := &CoercionError{Section: c.schema.name, Key: key, Value: value, Want: want}
	if f != nil {
		e.Line = f.Line
	}
	c.errs = multierror.Append(c.errs, e)
}

// field resolves a declared key to its raw lines, falling back to the
// registry default when the file omits it.
func (c *coercer) field(key string) (*specfile.Field, []string, bool) {
	fs, ok := c.schema.fields[key]
	if !ok {
		panic(fmt.Sprintf("section [%s] has no declared field %q", c.schema.name, key))
	}
	c.known[key] = true

	var f *specfile.Field
	if c.section != nil {
		f = c.section.Field(key)
	}
	if f != nil {
		return f, f.Lines(), true
	}
	if fs.required {
		c.fail(nil, key, "", "required field is missing")
		return nil, nil, false
	}
	if fs.def == "" {
		return nil, nil, false
	}
	return nil, []string{fs.def}, true
}

func (c *coercer) str(key string) string {
	f, lines, ok := c.field(key)
	if !ok {
		return ""
	}
	value := strings.Join(lines, "\n")

	fs := c.schema.fields[key]
	if fs.kind == kindEnum {
		for _, allowed := range fs.enum {
			if value == allowed {
				return value
			}
		}
		c.fail(f, key, value, "one of "+strings.Join(fs.enum, ", "))
		return fs.def
	}
	return value
}

func (c *coercer) integer(key string) int {
	f, lines, ok := c.field(key)
	if !ok {
		return 0
	}
	value := strings.TrimSpace(strings.Join(lines, " "))
	n, err := strconv.Atoi(value)
	if err != nil {
		c.fail(f, key, value, "an integer")
		return 0
	}
	return n
}

func (c *coercer) float(key string) float64 {
	f, lines, ok := c.field(key)
	if !ok {
		return 0
	}
	value := strings.TrimSpace(strings.Join(lines, " "))
	x, err := strconv.ParseFloat(value, 64)
	if err != nil {
		c.fail(f, key, value, "a number")
		return 0
	}
	return x
}

func (c *coercer) boolean(key string) bool {
	f, lines, ok := c.field(key)
	if !ok {
		return false
	}
	value := strings.TrimSpace(strings.Join(lines, " "))
	b, err := strconv.ParseBool(strings.ToLower(value))
	if err != nil {
		c.fail(f, key, value, "a boolean (0/1/true/false)")
		return false
	}
	return b
}

func (c *coercer) credential(key string) Credentials {
	f, lines, ok := c.field(key)
	if !ok {
		return Credentials{}
	}
	value := strings.TrimSpace(strings.Join(lines, " "))

	cred, err := ParseCredentials(value)
	if err != nil {
		c.fail(f, key, value, "a user:password pair")
		return Credentials{}
	}
	return cred
}

func (c *coercer) list(key string) []string {
	_, lines, ok := c.field(key)
	if !ok {
		return nil
	}
	return splitList(lines, c.schema.fields[key].sep)
}

func (c *coercer) intList(key string) []int {
	f, lines, ok := c.field(key)
	if !ok {
		return nil
	}
	var nums []int
	for _, elem := range splitList(lines, c.schema.fields[key].sep) {
		n, err := strconv.Atoi(elem)
		if err != nil {
			c.fail(f, key, elem, "an integer list")
			return nil
		}
		nums = append(nums, n)
	}
	return nums
}

// pairs coerces a list of name:value entries, for example eventing function
// bindings (alias:scriptPath) or secondary index definitions
// (indexName:fieldExpression).
func (c *coercer) pairs(key string) map[string]string {
	f, lines, ok := c.field(key)
	if !ok {
		return nil
	}
	pairs := map[string]string{}
	for _, elem := range splitList(lines, c.schema.fields[key].sep) {
		name, value, found := strings.Cut(elem, ":")
		if !found || strings.TrimSpace(name) == "" {
			c.fail(f, key, elem, "a name:value pair")
			continue
		}
		pairs[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return pairs
}

// extras returns every field the schema does not declare, preserved verbatim.
// For open sections this is the whole section.
func (c *coercer) extras() map[string]string {
	if c.section == nil {
		return nil
	}
	var m map[string]string
	for _, f := range c.section.Fields {
		if c.schema.fields != nil {
			if _, declared := c.schema.fields[f.Key]; declared {
				continue
			}
		}
		if m == nil {
			m = map[string]string{}
		}
		m[f.Key] = f.Text()
	}
	return m
}

func splitList(lines []string, sep separator) []string {
	var elems []string
	switch sep {
	case sepComma:
		for _, line := range lines {
			for _, elem := range strings.Split(line, ",") {
				if elem = strings.TrimSpace(elem); elem != "" {
					elems = append(elems, elem)
				}
			}
		}
	case sepLines:
		for _, line := range lines {
			if line = strings.TrimSpace(line); line != "" {
				elems = append(elems, line)
			}
		}
	default:
		elems = strings.Fields(strings.Join(lines, " "))
	}
	return elems
}

// ParseCredentials splits a principal:secret pair. Exactly one colon must
// separate two non-empty halves.
func ParseCredentials(value string) (Credentials, error) {
	if strings.Count(value, ":") != 1 {
		return Credentials{}, fmt.Errorf("expected exactly one colon in %q", value)
	}
	username, password, _ := strings.Cut(value, ":")
	if username == "" || password == "" {
		return Credentials{}, fmt.Errorf("user and password must both be non-empty")
	}
	return Credentials{Username: username, Password: password}, nil
}

// maybeNumber interprets free-form tuning values the way the query and
// indexing services expect them: integers and floats stay numeric, everything
// else remains a string.
func maybeNumber(value string) interface{} {
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	if x, err := strconv.ParseFloat(value, 64); err == nil {
		return x
	}
	return value
}
