package spec

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/pavel-paulau/perfrunner/pkg/specfile"
)

// A TestConfig is the typed form of one test case document. Subsystem
// pointers are nil when the section is absent, meaning the feature is not
// exercised by the test.
type TestConfig struct {
	Name string

	TestCase   TestCaseSettings
	ShowFast   ShowFastSettings
	Stats      StatsSettings
	Cluster    ClusterSettings
	Bucket     BucketSettings
	Compaction CompactionSettings

	BucketExtras map[string]string
	Internal     map[string]string

	Load    *PhaseSettings
	HotLoad *PhaseSettings
	Access  *PhaseSettings

	Secondary *GSISettings
	N1QL      *N1QLSettings
	Index     *IndexSettings
	JTS       *JTSSettings
	Eventing  *EventingSettings
	Rebalance *RebalanceSettings
	Restore   *RestoreSettings
	Backup    *BackupSettings
	Export    *ExportSettings
	DCP       *DCPSettings
	Views     *ViewsSettings
	XDCR      *XDCRSettings
	Analytics *AnalyticsSettings
	Audit     *AuditSettings
	Profiling *ProfilingSettings
	YCSB      *YCSBSettings

	// Named query definitions from [n1ql-<name>] sections, referenced by
	// access.n1ql_queries.
	Queries map[string]map[string]string
}

// Buckets returns the generated names of the test buckets.
func (tc *TestConfig) Buckets() []string {
	names := make([]string, 0, tc.Cluster.NumBuckets)
	for i := 0; i < tc.Cluster.NumBuckets; i++ {
		names = append(names, fmt.Sprintf("bucket-%d", i+1))
	}
	return names
}

// EventingBuckets returns the generated names of the eventing buckets.
func (tc *TestConfig) EventingBuckets() []string {
	names := make([]string, 0, tc.Cluster.EventingBuckets)
	for i := 0; i < tc.Cluster.EventingBuckets; i++ {
		names = append(names, fmt.Sprintf("eventing-bucket-%d", i+1))
	}
	return names
}

// newTestConfig coerces every section of a test case document. Unknown
// sections fail immediately; coercion failures are collected across the whole
// document.
func newTestConfig(doc *specfile.Document, name string) (*TestConfig, error) {
	tc := &TestConfig{Name: name}
	var errs *multierror.Error

	for _, s := range doc.Sections {
		schema, ok := lookupSection(s.Name)
		if !ok {
			return nil, &SchemaError{Section: s.Name, Line: s.Line}
		}
		if topologySection(s.Name) {
			// Ambient overrides, resolved by the assembler.
			continue
		}

		c := newCoercer(s, schema)
		switch s.Name {
		case "test_case":
			tc.TestCase = newTestCaseSettings(c)
		case "showfast":
			tc.ShowFast = newShowFastSettings(c)
		case "stats":
			tc.Stats = newStatsSettings(c)
		case "cluster":
			tc.Cluster = newClusterSettings(c)
		case "bucket":
			tc.Bucket = newBucketSettings(c)
		case "bucket_extras":
			tc.BucketExtras = c.extras()
		case "compaction":
			tc.Compaction = newCompactionSettings(c)
		case "internal":
			tc.Internal = c.extras()
		case "load":
			tc.Load = newPhaseSettings(c)
			tc.Load.SeqUpserts = true
		case "hot_load":
			tc.HotLoad = newPhaseSettings(c)
			tc.HotLoad.HotReads = true
		case "access":
			tc.Access = newPhaseSettings(c)
		case "secondary":
			tc.Secondary = newGSISettings(c)
		case "n1ql":
			tc.N1QL = newN1QLSettings(c)
		case "index":
			tc.Index = newIndexSettings(c)
		case "jts":
			tc.JTS = newJTSSettings(c)
		case "eventing":
			tc.Eventing = newEventingSettings(c)
		case "rebalance":
			tc.Rebalance = newRebalanceSettings(c)
		case "restore":
			tc.Restore = newRestoreSettings(c)
		case "backup":
			tc.Backup = newBackupSettings(c)
		case "export":
			tc.Export = newExportSettings(c)
		case "dcp":
			tc.DCP = newDCPSettings(c)
		case "views":
			tc.Views = newViewsSettings(c)
		case "xdcr":
			tc.XDCR = newXDCRSettings(c)
		case "analytics":
			tc.Analytics = newAnalyticsSettings(c)
		case "audit":
			tc.Audit = newAuditSettings(c)
		case "profiling":
			tc.Profiling = newProfilingSettings(c)
		case "ycsb":
			tc.YCSB = newYCSBSettings(c)
		default:
			if strings.HasPrefix(s.Name, "n1ql-") {
				if tc.Queries == nil {
					tc.Queries = map[string]map[string]string{}
				}
				tc.Queries[strings.TrimPrefix(s.Name, "n1ql-")] = c.extras()
			}
		}
		errs = multierror.Append(errs, c.finish())
	}

	for _, required := range []string{"test_case", "cluster"} {
		if doc.Section(required) == nil {
			errs = multierror.Append(errs, &ValidationError{
				Section: required,
				Msg:     "section is required",
			})
		}
	}

	// Sections that apply to every test take their defaults when omitted.
	if doc.Section("stats") == nil {
		tc.Stats = newStatsSettings(newCoercer(nil, registry["stats"]))
	}
	if doc.Section("bucket") == nil {
		tc.Bucket = newBucketSettings(newCoercer(nil, registry["bucket"]))
	}
	if doc.Section("compaction") == nil {
		tc.Compaction = newCompactionSettings(newCoercer(nil, registry["compaction"]))
	}

	// Later phases operate on the documents the load phase created, so the
	// document shape settings follow it unless explicitly overridden.
	if tc.HotLoad != nil {
		tc.HotLoad.inheritLoad(tc.Load, doc.Section("hot_load"))
	}
	if tc.Access != nil {
		tc.Access.inheritLoad(tc.Load, doc.Section("access"))
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return tc, nil
}
