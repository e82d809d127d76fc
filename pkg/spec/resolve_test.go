package spec

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const testConfigText = `[test_case]
test = perfrunner.tests.n1ql.N1QLLatencyTest

[showfast]
title = Q1, Key-Value Lookup, 20M docs
component = n1ql
category = latency

[cluster]
mem_quota = 20480
index_mem_quota = 100000
initial_nodes = 4
num_buckets = 1

[load]
items = 20000000
size = 1024
workers = 80
doc_gen = reverse_lookup

[secondary]
indexes = by_capped_small:capped_small
indexer.settings.storage_mode = memory_optimized
indexer.settings.max_cpu_percent = 2400

[access]
creates = 10
updates = 80
deletes = 10
ops = 100000
time = 600
n1ql_queries = key-value-lookup
n1ql_workers = 120
workers = 0

[n1ql-key-value-lookup]
statement = SELECT * FROM bucket-1 USE KEYS[$1];
scan_consistency = not_bounded
args = ["{key}"]
`

func resolveTestSpec(t *testing.T, text string, overrides ...Override) *TestSpecification {
	t.Helper()
	cs := loadTestClusterSpec(t)
	specs, err := LoadTestSpecs(writeSpec(t, "kv_lookup.test", text), cs, nil, overrides)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(specs) != 1 {
		t.Fatalf("got %d specs, want 1", len(specs))
	}
	return specs[0]
}

func TestTestConfig(t *testing.T) {
	ts := resolveTestSpec(t, testConfigText)
	tc := ts.Test

	if tc.Name != "kv_lookup" {
		t.Errorf("got name %q, want kv_lookup", tc.Name)
	}
	if tc.TestCase.Module != "perfrunner.tests.n1ql" || tc.TestCase.Class != "N1QLLatencyTest" {
		t.Errorf("got module %q class %q", tc.TestCase.Module, tc.TestCase.Class)
	}
	if !tc.TestCase.UseWorkers {
		t.Error("use_workers should default to true")
	}

	if tc.ShowFast.Title != "Q1, Key-Value Lookup, 20M docs" {
		t.Errorf("got title %q", tc.ShowFast.Title)
	}
	if tc.ShowFast.Threshold != -10 {
		t.Errorf("got threshold %d, want -10", tc.ShowFast.Threshold)
	}

	if tc.Cluster.MemQuota != 20480 || tc.Cluster.IndexMemQuota != 100000 {
		t.Errorf("got quotas %d/%d", tc.Cluster.MemQuota, tc.Cluster.IndexMemQuota)
	}
	if diff := cmp.Diff([]int{4}, tc.Cluster.InitialNodes); diff != "" {
		t.Errorf("initial_nodes mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"bucket-1"}, tc.Buckets()); diff != "" {
		t.Errorf("buckets mismatch (-want +got):\n%s", diff)
	}

	if tc.Load == nil {
		t.Fatal("load phase is missing")
	}
	if tc.Load.Items != 20000000 || tc.Load.Workers != 80 {
		t.Errorf("got load items=%d workers=%d", tc.Load.Items, tc.Load.Workers)
	}
	if tc.Load.Creates != 100 {
		t.Errorf("got load creates=%d, want the default 100", tc.Load.Creates)
	}
	if !tc.Load.SeqUpserts {
		t.Error("load phase should upsert sequentially")
	}
	if !math.IsInf(tc.Load.Throughput, 1) {
		t.Errorf("got load throughput %v, want +Inf", tc.Load.Throughput)
	}

	if tc.Access == nil {
		t.Fatal("access phase is missing")
	}
	if tc.Access.Ops != 100000 || tc.Access.Time != 600 {
		t.Errorf("got access ops=%v time=%d", tc.Access.Ops, tc.Access.Time)
	}
	if tc.Access.N1QLWorkers != 120 {
		t.Errorf("got n1ql_workers=%d", tc.Access.N1QLWorkers)
	}
	if diff := cmp.Diff([]string{"key-value-lookup"}, tc.Access.N1QLQueries); diff != "" {
		t.Errorf("n1ql_queries mismatch (-want +got):\n%s", diff)
	}

	// Document shape settings flow from the load phase unless overridden.
	if tc.Access.DocGen != "reverse_lookup" {
		t.Errorf("got access doc_gen %q, want reverse_lookup", tc.Access.DocGen)
	}
	if tc.Access.Size != 1024 {
		t.Errorf("got access size %d, want 1024", tc.Access.Size)
	}

	if tc.Secondary == nil {
		t.Fatal("secondary settings are missing")
	}
	if tc.Secondary.Indexes["by_capped_small"] != "capped_small" {
		t.Errorf("got indexes %v", tc.Secondary.Indexes)
	}
	if got := tc.Secondary.Settings["indexer.settings.max_cpu_percent"]; got != 2400 {
		t.Errorf("got max_cpu_percent %v (%T), want 2400", got, got)
	}
	if tc.Secondary.StorageMode() != "memdb" {
		t.Errorf("got storage mode %q", tc.Secondary.StorageMode())
	}
	if tc.Secondary.ScanTime != 1200 {
		t.Errorf("got scan_time %d, want the default 1200", tc.Secondary.ScanTime)
	}

	query, ok := ts.QueryDefinition("key-value-lookup")
	if !ok {
		t.Fatal("query definition is missing")
	}
	if !strings.HasPrefix(query["statement"], "SELECT * FROM") {
		t.Errorf("got statement %q", query["statement"])
	}
	if query["scan_consistency"] != "not_bounded" {
		t.Errorf("got scan_consistency %q", query["scan_consistency"])
	}

	// Sections that apply to every test take defaults when omitted.
	if !tc.Stats.Enabled || tc.Stats.Interval != 5 {
		t.Errorf("got stats %+v", tc.Stats)
	}
	found := false
	for _, p := range tc.Stats.ServerProcesses {
		if p == "memcached" {
			found = true
		}
	}
	if !found {
		t.Errorf("server processes %v do not include memcached", tc.Stats.ServerProcesses)
	}
	if tc.Bucket.ReplicaNumber != 1 || tc.Bucket.EvictionPolicy != "valueOnly" {
		t.Errorf("got bucket %+v", tc.Bucket)
	}
	if tc.Compaction.DBPercentage != 30 || !tc.Compaction.Parallel {
		t.Errorf("got compaction %+v", tc.Compaction)
	}

	if tc.Eventing != nil || tc.XDCR != nil || tc.Rebalance != nil {
		t.Error("absent subsystem sections must stay nil")
	}
}

func TestResolveOverrides(t *testing.T) {
	ts := resolveTestSpec(t, testConfigText,
		Override{Section: "cluster", Key: "mem_quota", Value: "5555"},
		Override{Section: "load", Key: "items", Value: "1000"},
	)

	if ts.Test.Cluster.MemQuota != 5555 {
		t.Errorf("got mem_quota %d, want 5555", ts.Test.Cluster.MemQuota)
	}
	if ts.Test.Load.Items != 1000 {
		t.Errorf("got items %d, want 1000", ts.Test.Load.Items)
	}
	// The other fields of an overridden section stay intact.
	if ts.Test.Cluster.IndexMemQuota != 100000 {
		t.Errorf("got index_mem_quota %d, want 100000", ts.Test.Cluster.IndexMemQuota)
	}
}

func TestParseOverride(t *testing.T) {
	o, err := ParseOverride("cluster.mem_quota.5555")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o != (Override{Section: "cluster", Key: "mem_quota", Value: "5555"}) {
		t.Errorf("got %+v", o)
	}

	// The value keeps any dots of its own.
	o, err = ParseOverride("ycsb.repo.git://github.com/couchbaselabs/YCSB.git")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Value != "git://github.com/couchbaselabs/YCSB.git" {
		t.Errorf("got value %q", o.Value)
	}

	for _, s := range []string{"", "cluster", "cluster.mem_quota", ".key.value"} {
		if _, err := ParseOverride(s); err == nil {
			t.Errorf("ParseOverride(%q) should fail", s)
		}
	}
}

func TestResolveTopologyOverlay(t *testing.T) {
	text := testConfigText + `
[clients]
hosts = 172.23.100.9
`
	ts := resolveTestSpec(t, text)

	if diff := cmp.Diff([]string{"172.23.100.9"}, ts.Cluster.Clients.Hosts); diff != "" {
		t.Errorf("clients mismatch (-want +got):\n%s", diff)
	}
	// Only the overridden key changes; ambient credentials survive.
	if ts.Cluster.Clients.Credentials.Username != "root" {
		t.Errorf("got client user %q, want root", ts.Cluster.Clients.Credentials.Username)
	}
	if diff := cmp.Diff([]string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4"}, ts.Cluster.Servers()); diff != "" {
		t.Errorf("servers mismatch (-want +got):\n%s", diff)
	}

	// The ambient spec itself is untouched.
	cs := loadTestClusterSpec(t)
	if diff := cmp.Diff([]string{"172.23.100.1"}, cs.Clients.Hosts); diff != "" {
		t.Errorf("ambient clients mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadTestSpecsMultipleDocuments(t *testing.T) {
	text := testConfigText + "\n---\n" + strings.Replace(
		testConfigText, "mem_quota = 20480", "mem_quota = 40960", 1)

	cs := loadTestClusterSpec(t)
	specs, err := LoadTestSpecs(writeSpec(t, "kv_lookup.test", text), cs, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("got %d specs, want 2", len(specs))
	}

	if specs[0].Test.Name != "kv_lookup#1" || specs[1].Test.Name != "kv_lookup#2" {
		t.Errorf("got names %q, %q", specs[0].Test.Name, specs[1].Test.Name)
	}
	if specs[0].Test.Cluster.MemQuota != 20480 || specs[1].Test.Cluster.MemQuota != 40960 {
		t.Errorf("got quotas %d, %d", specs[0].Test.Cluster.MemQuota, specs[1].Test.Cluster.MemQuota)
	}
}

func TestLoadTestSpecsDocumentErrorsAreIndexed(t *testing.T) {
	text := testConfigText + "\n---\n" + strings.Replace(
		testConfigText, "mem_quota = 20480", "mem_quota = lots", 1)

	cs := loadTestClusterSpec(t)
	_, err := LoadTestSpecs(writeSpec(t, "kv_lookup.test", text), cs, nil, nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "document 2") {
		t.Errorf("error %q does not name the failing document", err)
	}
	var cerr *CoercionError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected a *CoercionError, got %v", err)
	}
	if cerr.Key != "mem_quota" || cerr.Value != "lots" {
		t.Errorf("got %+v", cerr)
	}
}

func TestTestConfigUnknownSection(t *testing.T) {
	cs := loadTestClusterSpec(t)
	text := testConfigText + "\n[warmup]\ntime = 60\n"

	_, err := LoadTestSpecs(writeSpec(t, "kv_lookup.test", text), cs, nil, nil)
	var serr *SchemaError
	if !errors.As(err, &serr) {
		t.Fatalf("expected a *SchemaError, got %v", err)
	}
	if serr.Section != "warmup" {
		t.Errorf("got section %q", serr.Section)
	}
}

func TestTestConfigAggregatesCoercionErrors(t *testing.T) {
	mangled := strings.NewReplacer(
		"mem_quota = 20480", "mem_quota = lots",
		"items = 20000000", "items = many",
	).Replace(testConfigText)

	cs := loadTestClusterSpec(t)
	_, err := LoadTestSpecs(writeSpec(t, "kv_lookup.test", mangled), cs, nil, nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, want := range []string{"mem_quota", "items"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestTestConfigRequiredSections(t *testing.T) {
	cs := loadTestClusterSpec(t)
	text := `[showfast]
title = Incomplete
`
	_, err := LoadTestSpecs(writeSpec(t, "incomplete.test", text), cs, nil, nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, want := range []string{"test_case", "cluster"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}
