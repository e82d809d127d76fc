package spec

import "strings"

// TestCaseSettings names the test implementation in the harness registry.
type TestCaseSettings struct {
	Test         string // full dotted path
	Module       string
	Class        string
	UseWorkers   bool
	ResetWorkers bool
}

func newTestCaseSettings(c *coercer) TestCaseSettings {
	s := TestCaseSettings{
		Test:         c.str("test"),
		UseWorkers:   c.boolean("use_workers"),
		ResetWorkers: c.boolean("reset_workers"),
	}
	if i := strings.LastIndex(s.Test, "."); i != -1 {
		s.Module = s.Test[:i]
		s.Class = s.Test[i+1:]
	} else {
		s.Class = s.Test
	}
	return s
}

// ShowFastSettings controls how results are reported on the dashboard.
type ShowFastSettings struct {
	Title       string
	Component   string
	Category    string
	SubCategory string
	OrderBy     string
	BuildLabel  string
	Threshold   int
}

func newShowFastSettings(c *coercer) ShowFastSettings {
	return ShowFastSettings{
		Title:       c.str("title"),
		Component:   c.str("component"),
		Category:    c.str("category"),
		SubCategory: c.str("sub_category"),
		OrderBy:     c.str("orderby"),
		BuildLabel:  c.str("build_label"),
		Threshold:   c.integer("threshold"),
	}
}

// Server processes always monitored during a run; configured processes are
// appended to these.
var defaultServerProcesses = []string{
	"beam.smp",
	"cbft",
	"cbq-engine",
	"indexer",
	"memcached",
}

// StatsSettings directs statistics collection during a run.
type StatsSettings struct {
	Enabled     bool
	PostToSF    bool // publish results to the showfast dashboard
	Interval    int
	LatInterval float64
	PostCPU     bool

	ClientProcesses []string
	ServerProcesses []string
	TracedProcesses []string
}

func newStatsSettings(c *coercer) StatsSettings {
	return StatsSettings{
		Enabled:     c.boolean("enabled"),
		PostToSF:    c.boolean("post_to_sf"),
		Interval:    c.integer("interval"),
		LatInterval: c.float("lat_interval"),
		PostCPU:     c.boolean("post_cpu"),

		ClientProcesses: c.list("client_processes"),
		ServerProcesses: append(append([]string{}, defaultServerProcesses...), c.list("server_processes")...),
		TracedProcesses: c.list("traced_processes"),
	}
}

// ClusterSettings sizes the cluster under test.
type ClusterSettings struct {
	MemQuota          int
	IndexMemQuota     int
	FTSIndexMemQuota  int
	AnalyticsMemQuota int
	EventingMemQuota  int

	InitialNodes []int // per cluster, in clusters order

	NumBuckets             int
	EventingBucketMemQuota int
	EventingBuckets        int
	NumVBuckets            int
	OnlineCores            int
	IPv6                   bool
	KernelMemLimit         string
	KernelMemLimitServices []string
}

func newClusterSettings(c *coercer) ClusterSettings {
	return ClusterSettings{
		MemQuota:          c.integer("mem_quota"),
		IndexMemQuota:     c.integer("index_mem_quota"),
		FTSIndexMemQuota:  c.integer("fts_index_mem_quota"),
		AnalyticsMemQuota: c.integer("analytics_mem_quota"),
		EventingMemQuota:  c.integer("eventing_mem_quota"),

		InitialNodes: c.intList("initial_nodes"),

		NumBuckets:             c.integer("num_buckets"),
		EventingBucketMemQuota: c.integer("eventing_bucket_mem_quota"),
		EventingBuckets:        c.integer("eventing_buckets"),
		NumVBuckets:            c.integer("num_vbuckets"),
		OnlineCores:            c.integer("online_cores"),
		IPv6:                   c.boolean("ipv6"),
		KernelMemLimit:         c.str("kernel_mem_limit"),
		KernelMemLimitServices: c.list("kernel_mem_limit_services"),
	}
}

// BucketSettings configures each bucket created for the test.
type BucketSettings struct {
	Password               string
	ReplicaNumber          int
	ReplicaIndex           int
	EvictionPolicy         string
	BucketType             string
	ConflictResolutionType string
	CompressionMode        string
}

func newBucketSettings(c *coercer) BucketSettings {
	return BucketSettings{
		Password:               c.str("password"),
		ReplicaNumber:          c.integer("replica_number"),
		ReplicaIndex:           c.integer("replica_index"),
		EvictionPolicy:         c.str("eviction_policy"),
		BucketType:             c.str("bucket_type"),
		ConflictResolutionType: c.str("conflict_resolution_type"),
		CompressionMode:        c.str("compression_mode"),
	}
}

// CompactionSettings tunes auto-compaction thresholds.
type CompactionSettings struct {
	DBPercentage   int
	ViewPercentage int
	Parallel       bool
}

func newCompactionSettings(c *coercer) CompactionSettings {
	return CompactionSettings{
		DBPercentage:   c.integer("db_percentage"),
		ViewPercentage: c.integer("view_percentage"),
		Parallel:       c.boolean("parallel"),
	}
}
