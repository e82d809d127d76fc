package spec

import (
	"math"

	"github.com/pavel-paulau/perfrunner/pkg/specfile"
)

// PhaseSettings describes one workload stage. The same field set backs the
// load, hot_load and access sections; per-phase defaults differ (load creates
// everything sequentially, access runs an unbounded mixed workload).
type PhaseSettings struct {
	Time int // seconds

	Items   int
	Size    int // document size in bytes
	Workers int

	// Operation mix, in integer percentages.
	Creates         int
	Reads           int
	Updates         int
	Deletes         int
	ReadsAndUpdates int

	Ops        float64 // total operation bound, +Inf means unbounded
	Throughput float64 // ops/sec ceiling, +Inf means uncapped

	DocGen     string
	PowerAlpha float64
	ZipfAlpha  float64
	KeyFmtr    string

	WorkingSet           float64
	WorkingSetAccess     int
	WorkingSetMoveTime   int
	WorkingSetMovingDocs int

	BatchSize         int
	Iterations        int
	Async             bool
	WorkloadInstances int

	QueryParams     string
	QueryWorkers    int
	QueryThroughput float64

	N1QLGen        string
	N1QLWorkers    int
	N1QLOp         string
	N1QLThroughput float64
	N1QLBatchSize  int
	N1QLTimeout    int
	N1QLQueries    []string

	ArraySize     int
	NumCategories int
	NumReplies    int
	RangeDistance int

	ItemSize         int
	SizeVariationMin int
	SizeVariationMax int

	WorkloadPath           string
	RecordedLoadCacheSize  int
	InsertsPerWorkerInst   int
	Epoll                  bool
	Boost                  int

	SubdocField string
	XattrField  string

	SSLMode string

	PersistTo   int
	ReplicateTo int

	// Not read from the file: fixed per phase kind.
	HotReads   bool
	SeqUpserts bool

	Extras map[string]string
}

func newPhaseSettings(c *coercer) *PhaseSettings {
	p := &PhaseSettings{
		Time: c.integer("time"),

		Items:   c.integer("items"),
		Size:    c.integer("size"),
		Workers: c.integer("workers"),

		Creates:         c.integer("creates"),
		Reads:           c.integer("reads"),
		Updates:         c.integer("updates"),
		Deletes:         c.integer("deletes"),
		ReadsAndUpdates: c.integer("reads_and_updates"),

		Ops:        c.float("ops"),
		Throughput: c.float("throughput"),

		DocGen:     c.str("doc_gen"),
		PowerAlpha: c.float("power_alpha"),
		ZipfAlpha:  c.float("zipf_alpha"),
		KeyFmtr:    c.str("key_fmtr"),

		WorkingSet:           c.float("working_set"),
		WorkingSetAccess:     c.integer("working_set_access"),
		WorkingSetMoveTime:   c.integer("working_set_move_time"),
		WorkingSetMovingDocs: c.integer("working_set_moving_docs"),

		BatchSize:         c.integer("batch_size"),
		Iterations:        c.integer("iterations"),
		Async:             c.boolean("async"),
		WorkloadInstances: c.integer("workload_instances"),

		QueryParams:     c.str("query_params"),
		QueryWorkers:    c.integer("query_workers"),
		QueryThroughput: c.float("query_throughput"),

		N1QLGen:        c.str("n1ql_gen"),
		N1QLWorkers:    c.integer("n1ql_workers"),
		N1QLOp:         c.str("n1ql_op"),
		N1QLThroughput: c.float("n1ql_throughput"),
		N1QLBatchSize:  c.integer("n1ql_batch_size"),
		N1QLTimeout:    c.integer("n1ql_timeout"),
		N1QLQueries:    c.list("n1ql_queries"),

		ArraySize:     c.integer("array_size"),
		NumCategories: c.integer("num_categories"),
		NumReplies:    c.integer("num_replies"),
		RangeDistance: c.integer("range_distance"),

		ItemSize:         c.integer("item_size"),
		SizeVariationMin: c.integer("size_variation_min"),
		SizeVariationMax: c.integer("size_variation_max"),

		WorkloadPath:          c.str("workload_path"),
		RecordedLoadCacheSize: c.integer("recorded_load_cache_size"),
		InsertsPerWorkerInst:  c.integer("inserts_per_workerinstance"),
		Epoll:                 c.boolean("epoll"),
		Boost:                 c.integer("boost"),

		SubdocField: c.str("subdoc_field"),
		XattrField:  c.str("xattr_field"),

		SSLMode: c.str("ssl_mode"),

		PersistTo:   c.integer("persist_to"),
		ReplicateTo: c.integer("replicate_to"),

		Extras: c.extras(),
	}
	return p
}

// Bounded reports whether the phase terminates on its own: either a finite
// duration or a finite total operation count.
func (p *PhaseSettings) Bounded() bool {
	if p.Time > 0 {
		return true
	}
	return p.Ops > 0 && !math.IsInf(p.Ops, 1)
}

// MixedWorkload reports whether more than one operation type is requested.
func (p *PhaseSettings) MixedWorkload() bool {
	set := 0
	for _, pct := range []int{p.Creates, p.Reads, p.Updates, p.Deletes} {
		if pct != 0 {
			set++
		}
	}
	return set > 1
}

// MixSum is the total of the operation mix percentages.
func (p *PhaseSettings) MixSum() int {
	return p.Creates + p.Reads + p.Updates + p.Deletes
}

// inheritLoad copies the document shape settings that must stay consistent
// between the initial load and later phases working on the same documents.
func (p *PhaseSettings) inheritLoad(load *PhaseSettings, raw *specfile.Section) {
	if load == nil {
		return
	}
	overridden := func(key string) bool {
		return raw != nil && raw.Field(key) != nil
	}
	if !overridden("doc_gen") {
		p.DocGen = load.DocGen
	}
	if !overridden("size") {
		p.Size = load.Size
	}
	if !overridden("key_fmtr") {
		p.KeyFmtr = load.KeyFmtr
	}
	if !overridden("array_size") {
		p.ArraySize = load.ArraySize
	}
	if !overridden("num_categories") {
		p.NumCategories = load.NumCategories
	}
	if !overridden("num_replies") {
		p.NumReplies = load.NumReplies
	}
	if !overridden("range_distance") {
		p.RangeDistance = load.RangeDistance
	}
}
