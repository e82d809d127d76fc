package spec

import "strings"

// kind is the declared shape of a field value.
type kind int

const (
	kindString kind = iota
	kindInt
	kindFloat
	kindBool
	kindEnum
	kindCredential // principal:secret with exactly one colon
	kindList       // list of strings
	kindIntList
	kindPairList // name:value entries
)

// separator selects how list elements are delimited. It is declared by the
// field's schema entry, never inferred from the value.
type separator int

const (
	sepWhitespace separator = iota // fields split on any whitespace, including newlines
	sepComma
	sepLines // one element per continuation line
)

type fieldSchema struct {
	kind     kind
	def      string // raw default, coerced the same way as file input
	required bool
	enum     []string
	sep      separator
}

// A sectionSchema catalogs the recognized fields of one section. Unknown
// fields within a known section pass through untyped; open sections have no
// declared fields at all.
type sectionSchema struct {
	name   string
	open   bool
	fields map[string]fieldSchema
}

// lookupSection returns the schema for a section name. Query definition
// sections (n1ql-<name>) are matched by prefix.
func lookupSection(name string) (*sectionSchema, bool) {
	if strings.HasPrefix(name, "n1ql-") {
		return &sectionSchema{name: name, open: true}, true
	}
	s, ok := registry[name]
	return s, ok
}

// topologySection reports whether the section defines ambient cluster state
// rather than test case settings.
func topologySection(name string) bool {
	switch name {
	case "clusters", "clients", "storage", "credentials", "parameters":
		return true
	}
	return false
}

func phaseFields(overrides map[string]fieldSchema) map[string]fieldSchema {
	fields := map[string]fieldSchema{
		"time":    {kind: kindInt, def: "86400"},
		"items":   {kind: kindInt, def: "0"},
		"size":    {kind: kindInt, def: "2048"},
		"workers": {kind: kindInt, def: "0"},

		"creates":           {kind: kindInt, def: "0"},
		"reads":             {kind: kindInt, def: "0"},
		"updates":           {kind: kindInt, def: "0"},
		"deletes":           {kind: kindInt, def: "0"},
		"reads_and_updates": {kind: kindInt, def: "0"},

		"ops":        {kind: kindFloat, def: "0"},
		"throughput": {kind: kindFloat, def: "inf"},

		"doc_gen":     {kind: kindString, def: "basic"},
		"power_alpha": {kind: kindFloat, def: "0"},
		"zipf_alpha":  {kind: kindFloat, def: "0"},
		"key_fmtr":    {kind: kindEnum, def: "decimal", enum: []string{"decimal", "hash"}},

		"working_set":            {kind: kindFloat, def: "100"},
		"working_set_access":     {kind: kindInt, def: "100"},
		"working_set_move_time":  {kind: kindInt, def: "0"},
		"working_set_moving_docs": {kind: kindInt, def: "0"},

		"batch_size":         {kind: kindInt, def: "1000"},
		"iterations":         {kind: kindInt, def: "1"},
		"async":              {kind: kindBool, def: "0"},
		"workload_instances": {kind: kindInt, def: "1"},

		"query_params":     {kind: kindString, def: "{}"},
		"query_workers":    {kind: kindInt, def: "0"},
		"query_throughput": {kind: kindFloat, def: "inf"},

		"n1ql_gen":        {kind: kindString},
		"n1ql_workers":    {kind: kindInt, def: "0"},
		"n1ql_op":         {kind: kindString, def: "read"},
		"n1ql_throughput": {kind: kindFloat, def: "inf"},
		"n1ql_batch_size": {kind: kindInt, def: "100"},
		"n1ql_timeout":    {kind: kindInt, def: "0"},
		"n1ql_queries":    {kind: kindList, sep: sepComma},

		"array_size":     {kind: kindInt, def: "10"},
		"num_categories": {kind: kindInt, def: "1000000"},
		"num_replies":    {kind: kindInt, def: "100"},
		"range_distance": {kind: kindInt, def: "10"},

		"item_size":          {kind: kindInt, def: "64"},
		"size_variation_min": {kind: kindInt, def: "1"},
		"size_variation_max": {kind: kindInt, def: "1024"},

		"workload_path":            {kind: kindString},
		"recorded_load_cache_size": {kind: kindInt, def: "0"},
		"inserts_per_workerinstance": {kind: kindInt, def: "0"},
		"epoll":                    {kind: kindBool, def: "true"},
		"boost":                    {kind: kindInt, def: "48"},

		"subdoc_field": {kind: kindString},
		"xattr_field":  {kind: kindString},

		"ssl_mode": {kind: kindEnum, def: "none", enum: []string{"none", "data", "auth"}},

		"persist_to":   {kind: kindInt, def: "0"},
		"replicate_to": {kind: kindInt, def: "0"},
	}
	for key, fs := range overrides {
		fields[key] = fs
	}
	return fields
}

var registry = map[string]*sectionSchema{
	"clusters": {name: "clusters", open: true},
	"clients": {name: "clients", fields: map[string]fieldSchema{
		"hosts":       {kind: kindList, sep: sepWhitespace},
		"credentials": {kind: kindCredential, required: true},
	}},
	"storage": {name: "storage", fields: map[string]fieldSchema{
		"data":      {kind: kindString, required: true},
		"index":     {kind: kindString}, // defaults to the data path
		"analytics": {kind: kindList, sep: sepWhitespace},
		"backup":    {kind: kindString},
	}},
	"credentials": {name: "credentials", fields: map[string]fieldSchema{
		"rest": {kind: kindCredential, required: true},
		"ssh":  {kind: kindCredential, required: true},
	}},
	"parameters": {name: "parameters", open: true},

	"test_case": {name: "test_case", fields: map[string]fieldSchema{
		"test":          {kind: kindString, required: true},
		"use_workers":   {kind: kindBool, def: "1"},
		"reset_workers": {kind: kindBool, def: "0"},
	}},
	"showfast": {name: "showfast", fields: map[string]fieldSchema{
		"title":       {kind: kindString, required: true},
		"component":   {kind: kindString},
		"category":    {kind: kindString},
		"sub_category": {kind: kindString},
		"orderby":     {kind: kindString},
		"build_label": {kind: kindString},
		"threshold":   {kind: kindInt, def: "-10"},
	}},
	"stats": {name: "stats", fields: map[string]fieldSchema{
		"enabled":          {kind: kindBool, def: "1"},
		"post_to_sf":       {kind: kindBool, def: "0"},
		"interval":         {kind: kindInt, def: "5"},
		"lat_interval":     {kind: kindFloat, def: "1"},
		"post_cpu":         {kind: kindBool, def: "0"},
		"client_processes": {kind: kindList, sep: sepWhitespace},
		"server_processes": {kind: kindList, sep: sepWhitespace},
		"traced_processes": {kind: kindList, sep: sepWhitespace},
	}},
	"cluster": {name: "cluster", fields: map[string]fieldSchema{
		"mem_quota":                {kind: kindInt, required: true},
		"index_mem_quota":          {kind: kindInt, def: "256"},
		"fts_index_mem_quota":      {kind: kindInt, def: "0"},
		"analytics_mem_quota":      {kind: kindInt, def: "0"},
		"eventing_mem_quota":       {kind: kindInt, def: "0"},
		"initial_nodes":            {kind: kindIntList, sep: sepWhitespace, required: true},
		"num_buckets":              {kind: kindInt, def: "1"},
		"eventing_bucket_mem_quota": {kind: kindInt, def: "0"},
		"eventing_buckets":         {kind: kindInt, def: "0"},
		"num_vbuckets":             {kind: kindInt, def: "0"},
		"online_cores":             {kind: kindInt, def: "0"},
		"ipv6":                     {kind: kindBool, def: "0"},
		"kernel_mem_limit":         {kind: kindString, def: "0"},
		"kernel_mem_limit_services": {kind: kindList, sep: sepWhitespace, def: "fts index"},
	}},
	"bucket": {name: "bucket", fields: map[string]fieldSchema{
		"password":                 {kind: kindString, def: "password"},
		"replica_number":           {kind: kindInt, def: "1"},
		"replica_index":            {kind: kindInt, def: "0"},
		"eviction_policy":          {kind: kindEnum, def: "valueOnly", enum: []string{"valueOnly", "fullEviction"}},
		"bucket_type":              {kind: kindEnum, def: "membase", enum: []string{"membase", "ephemeral"}},
		"conflict_resolution_type": {kind: kindString},
		"compression_mode":         {kind: kindString},
	}},
	"bucket_extras": {name: "bucket_extras", open: true},
	"compaction": {name: "compaction", fields: map[string]fieldSchema{
		"db_percentage":   {kind: kindInt, def: "30"},
		"view_percentage": {kind: kindInt, def: "30"},
		"parallel":        {kind: kindBool, def: "1"},
	}},

	"load":     {name: "load", fields: phaseFields(map[string]fieldSchema{"creates": {kind: kindInt, def: "100"}})},
	"hot_load": {name: "hot_load", fields: phaseFields(nil)},
	"access":   {name: "access", fields: phaseFields(map[string]fieldSchema{"ops": {kind: kindFloat, def: "inf"}})},

	"secondary": {name: "secondary", fields: map[string]fieldSchema{
		"indexes":                     {kind: kindPairList, sep: sepComma},
		"cbindexperf_configfile":      {kind: kindString},
		"cbindexperf_configfiles":     {kind: kindString},
		"run_recovery_test":           {kind: kindBool, def: "0"},
		"incremental_only":            {kind: kindBool, def: "0"},
		"incremental_load_iterations": {kind: kindInt, def: "0"},
		"scan_time":                   {kind: kindInt, def: "1200"},
		"num_partitions":              {kind: kindInt, def: "0"},
	}},
	"n1ql": {name: "n1ql", open: true},
	"index": {name: "index", fields: map[string]fieldSchema{
		"statements": {kind: kindList, sep: sepLines},
	}},
	"jts": {name: "jts", fields: map[string]fieldSchema{
		"jts_instances":              {kind: kindInt, def: "1"},
		"test_total_docs":            {kind: kindInt, def: "1000000"},
		"test_query_workers":         {kind: kindInt, def: "10"},
		"test_kv_workers":            {kind: kindInt, def: "0"},
		"test_kv_throughput_goal":    {kind: kindInt, def: "1000"},
		"test_data_file":             {kind: kindString, def: "../tests/fts/low.txt"},
		"test_driver":                {kind: kindString, def: "couchbase"},
		"test_stats_limit":           {kind: kindInt, def: "1000000"},
		"test_stats_aggregation_step": {kind: kindInt, def: "1000"},
		"test_debug":                 {kind: kindBool, def: "false"},
		"test_query_type":            {kind: kindString, def: "term"},
		"test_query_limit":           {kind: kindInt, def: "10"},
		"test_query_field":           {kind: kindString, def: "text"},
		"test_mutation_field":        {kind: kindString, def: "text2"},
		"test_worker_type":           {kind: kindString, def: "latency"},
		"couchbase_index_name":       {kind: kindString, def: "perf_fts_index"},
		"couchbase_index_configfile": {kind: kindString},
		"couchbase_index_type":       {kind: kindString},
		"test_duration":              {kind: kindInt, def: "600"},
		"warmup_query_workers":       {kind: kindInt, def: "0"},
		"warmup_time":                {kind: kindInt, def: "0"},
	}},
	"eventing": {name: "eventing", fields: map[string]fieldSchema{
		"functions":               {kind: kindPairList, sep: sepComma},
		"worker_count":            {kind: kindInt, def: "3"},
		"cpp_worker_thread_count": {kind: kindInt, def: "2"},
		"timer_worker_pool_size":  {kind: kindInt, def: "1"},
		"worker_queue_cap":        {kind: kindInt, def: "100000"},
		"timer_timeout":           {kind: kindInt, def: "0"},
		"timer_fuzz":              {kind: kindInt, def: "0"},
	}},
	"rebalance": {name: "rebalance", fields: map[string]fieldSchema{
		"nodes_after":           {kind: kindIntList, sep: sepWhitespace},
		"swap":                  {kind: kindBool, def: "0"},
		"failed_nodes":          {kind: kindInt, def: "1"},
		"failover":              {kind: kindEnum, def: "hard", enum: []string{"hard", "graceful"}},
		"delay_before_failover": {kind: kindInt, def: "600"},
		"delta_recovery":        {kind: kindBool, def: "0"},
		"start_after":           {kind: kindInt, def: "1200"},
		"stop_after":            {kind: kindInt, def: "1200"},
	}},
	"restore": {name: "restore", fields: map[string]fieldSchema{
		"backup_storage": {kind: kindString, def: "/backups"},
		"backup_repo":    {kind: kindString},
		"import_file":    {kind: kindString},
		"threads":        {kind: kindInt, def: "16"},
	}},
	"backup": {name: "backup", fields: map[string]fieldSchema{
		"compression": {kind: kindBool, def: "0"},
		"threads":     {kind: kindInt, def: "16"},
	}},
	"export": {name: "export", fields: map[string]fieldSchema{
		"type":        {kind: kindEnum, def: "json", enum: []string{"json", "csv"}},
		"format":      {kind: kindEnum, def: "lines", enum: []string{"lines", "list"}},
		"import_file": {kind: kindString},
	}},
	"dcp": {name: "dcp", fields: map[string]fieldSchema{
		"num_connections": {kind: kindInt, def: "4"},
	}},
	"views": {name: "views", fields: map[string]fieldSchema{
		"views":            {kind: kindString, def: "[1]"},
		"disabled_updates": {kind: kindBool, def: "0"},
		"index_type":       {kind: kindString},
	}},
	"xdcr": {name: "xdcr", fields: map[string]fieldSchema{
		"demand_encryption": {kind: kindString},
		"filter_expression": {kind: kindString},
		"secure_type":       {kind: kindString},
		"wan_delay":         {kind: kindInt, def: "0"},
	}},
	"analytics": {name: "analytics", fields: map[string]fieldSchema{
		"num_io_devices": {kind: kindInt, def: "1"},
	}},
	"audit": {name: "audit", fields: map[string]fieldSchema{
		"enabled":      {kind: kindBool, def: "1"},
		"extra_events": {kind: kindList, sep: sepWhitespace},
	}},
	"profiling": {name: "profiling", fields: map[string]fieldSchema{
		"services":     {kind: kindList, sep: sepWhitespace},
		"interval":     {kind: kindInt, def: "300"},
		"num_profiles": {kind: kindInt, def: "1"},
		"profiles":     {kind: kindList, sep: sepComma, def: "cpu"},
	}},
	"ycsb": {name: "ycsb", fields: map[string]fieldSchema{
		"repo":   {kind: kindString, def: "git://github.com/couchbaselabs/YCSB.git"},
		"branch": {kind: kindString, def: "master"},
	}},
	"internal": {name: "internal", open: true},
}
