package spec

import (
	"regexp"
	"strings"
)

// GSISettings configures the secondary indexing service. Indexer, projector
// and query-port tuning knobs pass through untyped but numeric values are
// recognized.
type GSISettings struct {
	Indexes map[string]string // index name -> field expression

	CBIndexPerfConfigFile     string
	CBIndexPerfConfigFiles    string
	RunRecoveryTest           bool
	IncrementalOnly           bool
	IncrementalLoadIterations int
	ScanTime                  int
	NumPartitions             int

	Settings map[string]interface{}
}

func newGSISettings(c *coercer) *GSISettings {
	s := &GSISettings{
		Indexes: c.pairs("indexes"),

		CBIndexPerfConfigFile:     c.str("cbindexperf_configfile"),
		CBIndexPerfConfigFiles:    c.str("cbindexperf_configfiles"),
		RunRecoveryTest:           c.boolean("run_recovery_test"),
		IncrementalOnly:           c.boolean("incremental_only"),
		IncrementalLoadIterations: c.integer("incremental_load_iterations"),
		ScanTime:                  c.integer("scan_time"),
		NumPartitions:             c.integer("num_partitions"),
	}

	for key, value := range c.extras() {
		if strings.HasPrefix(key, "indexer.") ||
			strings.HasPrefix(key, "projector.") ||
			strings.HasPrefix(key, "queryport.") {
			if s.Settings == nil {
				s.Settings = map[string]interface{}{}
			}
			s.Settings[key] = maybeNumber(value)
		}
	}
	return s
}

// StorageMode returns the indexer storage backend implied by the settings.
func (s *GSISettings) StorageMode() string {
	mode, ok := s.Settings["indexer.settings.storage_mode"].(string)
	if !ok {
		return ""
	}
	if mode == "forestdb" || mode == "plasma" {
		return mode
	}
	return "memdb"
}

// N1QLSettings is the free-form query engine tuning bag.
type N1QLSettings struct {
	Settings map[string]interface{}
}

func newN1QLSettings(c *coercer) *N1QLSettings {
	s := &N1QLSettings{Settings: map[string]interface{}{}}
	for key, value := range c.extras() {
		s.Settings[key] = maybeNumber(value)
	}
	return s
}

var reIndexName = regexp.MustCompile(`CREATE .*INDEX (.*) ON`)

// IndexSettings holds raw index DDL, one statement per line.
type IndexSettings struct {
	Statements []string
}

func newIndexSettings(c *coercer) *IndexSettings {
	return &IndexSettings{Statements: c.list("statements")}
}

// Names extracts the index names from the CREATE INDEX statements.
func (s *IndexSettings) Names() []string {
	var names []string
	for _, stmt := range s.Statements {
		if m := reIndexName.FindStringSubmatch(stmt); m != nil {
			names = append(names, strings.TrimSpace(m[1]))
		}
	}
	return names
}

// JTSSettings drives the full-text search throughput driver.
type JTSSettings struct {
	Instances            int
	TotalDocs            int
	QueryWorkers         int
	KVWorkers            int
	KVThroughputGoal     int
	DataFile             string
	Driver               string
	StatsLimit           int
	StatsAggregationStep int
	Debug                bool
	QueryType            string
	QueryLimit           int
	QueryField           string
	MutationField        string
	WorkerType           string
	IndexName            string
	IndexConfigFile      string
	IndexType            string
	Duration             int
	WarmupQueryWorkers   int
	WarmupTime           int

	Extras map[string]string
}

func newJTSSettings(c *coercer) *JTSSettings {
	return &JTSSettings{
		Instances:            c.integer("jts_instances"),
		TotalDocs:            c.integer("test_total_docs"),
		QueryWorkers:         c.integer("test_query_workers"),
		KVWorkers:            c.integer("test_kv_workers"),
		KVThroughputGoal:     c.integer("test_kv_throughput_goal"),
		DataFile:             c.str("test_data_file"),
		Driver:               c.str("test_driver"),
		StatsLimit:           c.integer("test_stats_limit"),
		StatsAggregationStep: c.integer("test_stats_aggregation_step"),
		Debug:                c.boolean("test_debug"),
		QueryType:            c.str("test_query_type"),
		QueryLimit:           c.integer("test_query_limit"),
		QueryField:           c.str("test_query_field"),
		MutationField:        c.str("test_mutation_field"),
		WorkerType:           c.str("test_worker_type"),
		IndexName:            c.str("couchbase_index_name"),
		IndexConfigFile:      c.str("couchbase_index_configfile"),
		IndexType:            c.str("couchbase_index_type"),
		Duration:             c.integer("test_duration"),
		WarmupQueryWorkers:   c.integer("warmup_query_workers"),
		WarmupTime:           c.integer("warmup_time"),

		Extras: c.extras(),
	}
}

// EventingSettings deploys eventing functions and sizes their workers.
type EventingSettings struct {
	Functions map[string]string // alias -> script path

	WorkerCount          int
	CPPWorkerThreadCount int
	TimerWorkerPoolSize  int
	WorkerQueueCap       int
	TimerTimeout         int
	TimerFuzz            int
}

func newEventingSettings(c *coercer) *EventingSettings {
	return &EventingSettings{
		Functions: c.pairs("functions"),

		WorkerCount:          c.integer("worker_count"),
		CPPWorkerThreadCount: c.integer("cpp_worker_thread_count"),
		TimerWorkerPoolSize:  c.integer("timer_worker_pool_size"),
		WorkerQueueCap:       c.integer("worker_queue_cap"),
		TimerTimeout:         c.integer("timer_timeout"),
		TimerFuzz:            c.integer("timer_fuzz"),
	}
}

// RebalanceSettings schedules topology changes relative to the start of the
// access phase.
type RebalanceSettings struct {
	NodesAfter          []int
	Swap                bool
	FailedNodes         int
	Failover            string
	DelayBeforeFailover int
	DeltaRecovery       bool
	StartAfter          int
	StopAfter           int
}

func newRebalanceSettings(c *coercer) *RebalanceSettings {
	return &RebalanceSettings{
		NodesAfter:          c.intList("nodes_after"),
		Swap:                c.boolean("swap"),
		FailedNodes:         c.integer("failed_nodes"),
		Failover:            c.str("failover"),
		DelayBeforeFailover: c.integer("delay_before_failover"),
		DeltaRecovery:       c.boolean("delta_recovery"),
		StartAfter:          c.integer("start_after"),
		StopAfter:           c.integer("stop_after"),
	}
}

// RestoreSettings points at a backup repository to restore before the run.
type RestoreSettings struct {
	BackupStorage string
	BackupRepo    string
	ImportFile    string
	Threads       int
}

func newRestoreSettings(c *coercer) *RestoreSettings {
	return &RestoreSettings{
		BackupStorage: c.str("backup_storage"),
		BackupRepo:    c.str("backup_repo"),
		ImportFile:    c.str("import_file"),
		Threads:       c.integer("threads"),
	}
}

// BackupSettings tunes the backup tool when a test exercises it.
type BackupSettings struct {
	Compression bool
	Threads     int
}

func newBackupSettings(c *coercer) *BackupSettings {
	return &BackupSettings{
		Compression: c.boolean("compression"),
		Threads:     c.integer("threads"),
	}
}

// ExportSettings configures data export runs.
type ExportSettings struct {
	Type       string
	Format     string
	ImportFile string
}

func newExportSettings(c *coercer) *ExportSettings {
	return &ExportSettings{
		Type:       c.str("type"),
		Format:     c.str("format"),
		ImportFile: c.str("import_file"),
	}
}

// DCPSettings sizes DCP client connections.
type DCPSettings struct {
	NumConnections int
}

func newDCPSettings(c *coercer) *DCPSettings {
	return &DCPSettings{NumConnections: c.integer("num_connections")}
}

// ViewsSettings configures map/reduce view tests.
type ViewsSettings struct {
	Views           string
	DisabledUpdates bool
	IndexType       string
}

func newViewsSettings(c *coercer) *ViewsSettings {
	return &ViewsSettings{
		Views:           c.str("views"),
		DisabledUpdates: c.boolean("disabled_updates"),
		IndexType:       c.str("index_type"),
	}
}

// XDCRSettings configures cross-datacenter replication tests.
type XDCRSettings struct {
	DemandEncryption string
	FilterExpression string
	SecureType       string
	WanDelay         int
}

func newXDCRSettings(c *coercer) *XDCRSettings {
	return &XDCRSettings{
		DemandEncryption: c.str("demand_encryption"),
		FilterExpression: c.str("filter_expression"),
		SecureType:       c.str("secure_type"),
		WanDelay:         c.integer("wan_delay"),
	}
}

// AnalyticsSettings sizes the analytics service I/O layout.
type AnalyticsSettings struct {
	NumIODevices int
}

func newAnalyticsSettings(c *coercer) *AnalyticsSettings {
	return &AnalyticsSettings{NumIODevices: c.integer("num_io_devices")}
}

// AuditSettings enables auditing with optional extra event ids.
type AuditSettings struct {
	Enabled     bool
	ExtraEvents []string
}

func newAuditSettings(c *coercer) *AuditSettings {
	return &AuditSettings{
		Enabled:     c.boolean("enabled"),
		ExtraEvents: c.list("extra_events"),
	}
}

// ProfilingSettings schedules service profiling during the run.
type ProfilingSettings struct {
	Services    []string
	Interval    int
	NumProfiles int
	Profiles    []string
}

func newProfilingSettings(c *coercer) *ProfilingSettings {
	return &ProfilingSettings{
		Services:    c.list("services"),
		Interval:    c.integer("interval"),
		NumProfiles: c.integer("num_profiles"),
		Profiles:    c.list("profiles"),
	}
}

// YCSBSettings points at the YCSB driver sources.
type YCSBSettings struct {
	Repo   string
	Branch string
}

func newYCSBSettings(c *coercer) *YCSBSettings {
	return &YCSBSettings{
		Repo:   c.str("repo"),
		Branch: c.str("branch"),
	}
}
