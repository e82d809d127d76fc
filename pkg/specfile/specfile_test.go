package specfile

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseSingleDocument(t *testing.T) {
	input := `
# hardware inventory lives elsewhere

[clusters]
test =
    10.0.0.1:kv,index
    10.0.0.2:kv

[clients]
hosts = 172.23.0.1
credentials = root:couchbase

[storage]
data = /data
`

	docs, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("got %d documents, want 1", len(docs))
	}

	doc := docs[0]
	wantSections := []string{"clusters", "clients", "storage"}
	var gotSections []string
	for _, s := range doc.Sections {
		gotSections = append(gotSections, s.Name)
	}
	if diff := cmp.Diff(wantSections, gotSections); diff != "" {
		t.Errorf("section order mismatch (-want +got):\n%s", diff)
	}

	f := doc.Section("clusters").Field("test")
	if f == nil {
		t.Fatal("missing clusters.test field")
	}
	wantLines := []string{"10.0.0.1:kv,index", "10.0.0.2:kv"}
	if diff := cmp.Diff(wantLines, f.Lines()); diff != "" {
		t.Errorf("continuation lines mismatch (-want +got):\n%s", diff)
	}

	if got := doc.Section("clients").Field("credentials").Text(); got != "root:couchbase" {
		t.Errorf("got credentials %q", got)
	}
}

func TestParseDocumentBoundary(t *testing.T) {
	input := `[test_case]
test = perfrunner.tests.kv.ReadLatencyTest

[access]
time = 600
---
[test_case]
test = perfrunner.tests.kv.WriteLatencyTest

[access]
time = 1200
`

	docs, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
	if got := docs[0].Section("access").Field("time").Text(); got != "600" {
		t.Errorf("first document access.time = %q", got)
	}
	if got := docs[1].Section("access").Field("time").Text(); got != "1200" {
		t.Errorf("second document access.time = %q", got)
	}
	if docs[0].Section("test_case") == docs[1].Section("test_case") {
		t.Error("documents must not share sections")
	}
}

func TestParseErrors(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		wantLine int
	}{
		{
			name:     "duplicate key",
			input:    "[load]\nitems = 1000\nitems = 1000\n",
			wantLine: 3,
		},
		{
			name:     "duplicate key with different values",
			input:    "[load]\nitems = 1000\nworkers = 10\nitems = 2000\n",
			wantLine: 4,
		},
		{
			name:     "missing equals",
			input:    "[load]\nitems\n",
			wantLine: 2,
		},
		{
			name:     "empty key",
			input:    "[load]\n= 10\n",
			wantLine: 2,
		},
		{
			name:     "empty section name",
			input:    "[]\n",
			wantLine: 1,
		},
		{
			name:     "continuation without a key",
			input:    "[clusters]\n    10.0.0.1:kv\n",
			wantLine: 2,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.input))
			if err == nil {
				t.Fatal("expected an error")
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if perr.Line != tc.wantLine {
				t.Errorf("got line %d, want %d: %v", perr.Line, tc.wantLine, perr)
			}
		})
	}
}

func TestParsePreambleIgnored(t *testing.T) {
	input := "generated by jenkins build 1234\n\n[storage]\ndata = /data\n"
	docs, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if docs[0].Section("storage") == nil {
		t.Fatal("missing storage section")
	}
}

func TestParseValueOnKeyLineAndContinuations(t *testing.T) {
	input := "[index]\nstatements = CREATE INDEX by_city ON `bucket-1`(city)\n    CREATE INDEX by_year ON `bucket-1`(year)\n"
	docs, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f := docs[0].Section("index").Field("statements")
	if len(f.Lines()) != 2 {
		t.Fatalf("got %d statements, want 2: %#v", len(f.Lines()), f.Lines())
	}
}

func TestParseIdempotent(t *testing.T) {
	input := "[clusters]\ntest =\n    10.0.0.1:kv\n    10.0.0.2:kv\n"

	first, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff(first[0].Section("clusters").Field("test").Lines(),
		second[0].Section("clusters").Field("test").Lines()); diff != "" {
		t.Errorf("parses differ:\n%s", diff)
	}
}
