package spec

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/exp/slog"

	"github.com/pavel-paulau/perfrunner/pkg/render"
	"github.com/pavel-paulau/perfrunner/pkg/specfile"
)

// A TestSpecification is the final immutable plan handed to the execution
// harness: ambient topology merged with one resolved test case.
type TestSpecification struct {
	Cluster *ClusterSpec
	Test    *TestConfig
}

// QueryDefinition returns the named [n1ql-<name>] definition.
func (ts *TestSpecification) QueryDefinition(name string) (map[string]string, bool) {
	def, ok := ts.Test.Queries[name]
	return def, ok
}

// An Override replaces one field before coercion. The flag form is
// section.key.value, matching the original command line convention.
type Override struct {
	Section string
	Key     string
	Value   string
}

// ParseOverride splits a section.key.value flag.
func ParseOverride(s string) (Override, error) {
	parts := strings.SplitN(s, ".", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return Override{}, fmt.Errorf("override must have the form section.key.value, got %q", s)
	}
	return Override{Section: parts[0], Key: parts[1], Value: parts[2]}, nil
}

func applyOverrides(doc *specfile.Document, overrides []Override) {
	for _, o := range overrides {
		section := doc.Section(o.Section)
		if section == nil {
			section = specfile.NewSection(o.Section)
			doc.Sections = append(doc.Sections, section)
		}
		section.Put(&specfile.Field{Key: o.Key, Value: o.Value})
	}
}

// overlayTopology merges the topology sections a test document declares over
// the ambient cluster document. The test case wins per key; a list value
// replaces the ambient list wholly.
func overlayTopology(ambient, doc *specfile.Document) *specfile.Document {
	merged := ambient.Clone()
	for _, s := range doc.Sections {
		if !topologySection(s.Name) {
			continue
		}
		target := merged.Section(s.Name)
		if target == nil {
			merged.Sections = append(merged.Sections, s.Clone())
			continue
		}
		for _, f := range s.Fields {
			target.Put(&specfile.Field{
				Key:   f.Key,
				Line:  f.Line,
				Value: f.Value,
				Cont:  append([]string(nil), f.Cont...),
			})
		}
	}
	return merged
}

// Resolve combines the ambient cluster spec with one parsed test case
// document and validates the result.
func Resolve(cs *ClusterSpec, doc *specfile.Document, name string, overrides []Override) (*TestSpecification, error) {
	if len(overrides) > 0 {
		doc = doc.Clone()
		applyOverrides(doc, overrides)
	}

	tc, err := newTestConfig(doc, name)
	if err != nil {
		return nil, err
	}

	ambient := cs
	for _, s := range doc.Sections {
		if topologySection(s.Name) {
			merged := overlayTopology(cs.doc, doc)
			ambient, err = buildClusterSpec(merged, cs.Name)
			if err != nil {
				return nil, err
			}
			break
		}
	}

	ts := &TestSpecification{Cluster: ambient, Test: tc}
	if err := ts.Validate(); err != nil {
		return nil, err
	}
	return ts, nil
}

// LoadClusterSpec reads, renders and resolves a cluster topology file.
func LoadClusterSpec(path string, env render.Environment) (*ClusterSpec, error) {
	slog.Debug("reading cluster spec", "file", path)

	doc, err := loadDocuments(path, env)
	if err != nil {
		return nil, err
	}
	if len(doc) != 1 {
		return nil, fmt.Errorf("%s: a cluster spec must hold exactly one document, found %d", path, len(doc))
	}

	for _, s := range doc[0].Sections {
		if !topologySection(s.Name) {
			return nil, fmt.Errorf("%s: %w", path, &SchemaError{Section: s.Name, Line: s.Line})
		}
	}

	cs, err := buildClusterSpec(doc[0], specName(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cs, nil
}

// LoadTestSpecs reads a test case file, which may hold several documents
// separated by the boundary marker, and resolves each one independently
// against the ambient cluster spec.
func LoadTestSpecs(path string, cs *ClusterSpec, env render.Environment, overrides []Override) ([]*TestSpecification, error) {
	slog.Debug("reading test config", "file", path)

	docs, err := loadDocuments(path, env)
	if err != nil {
		return nil, err
	}

	name := specName(path)
	var specs []*TestSpecification
	for i, doc := range docs {
		docName := name
		if len(docs) > 1 {
			docName = fmt.Sprintf("%s#%d", name, i+1)
		}
		ts, err := Resolve(cs, doc, docName, overrides)
		if err != nil {
			return nil, fmt.Errorf("%s: document %d: %w", path, i+1, err)
		}
		specs = append(specs, ts)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("%s: no test case documents found", path)
	}
	return specs, nil
}

// loadDocuments reads a file, expands its templating and parses it into
// documents, dropping empty ones.
func loadDocuments(path string, env render.Environment) ([]*specfile.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	rendered, err := render.Render(string(data), env)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	docs, err := specfile.Parse(strings.NewReader(rendered))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var nonEmpty []*specfile.Document
	for _, doc := range docs {
		if len(doc.Sections) > 0 {
			nonEmpty = append(nonEmpty, doc)
		}
	}
	return nonEmpty, nil
}

// specName derives the spec name from its file name, without the extension.
func specName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
