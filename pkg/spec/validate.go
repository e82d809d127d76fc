package spec

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Validate runs every cross-field invariant over the resolved specification
// and reports all violations at once.
func (ts *TestSpecification) Validate() error {
	var errs *multierror.Error

	fail := func(section, field, format string, args ...interface{}) {
		errs = multierror.Append(errs, &ValidationError{
			Section: section,
			Field:   field,
			Msg:     fmt.Sprintf(format, args...),
		})
	}

	tc := ts.Test
	cs := ts.Cluster

	phases := []struct {
		name  string
		phase *PhaseSettings
	}{
		{"load", tc.Load},
		{"hot_load", tc.HotLoad},
		{"access", tc.Access},
	}

	anyPhase := false
	for _, p := range phases {
		if p.phase == nil {
			continue
		}
		anyPhase = true

		if p.phase.MixedWorkload() && p.phase.MixSum() != 100 {
			fail(p.name, "", "operation mix percentages sum to %d, expected 100", p.phase.MixSum())
		}
		for field, value := range map[string]int{
			"items":   p.phase.Items,
			"size":    p.phase.Size,
			"workers": p.phase.Workers,
			"time":    p.phase.Time,
		} {
			if value < 0 {
				fail(p.name, field, "must not be negative, got %d", value)
			}
		}
		if p.phase.Throughput < 0 {
			fail(p.name, "throughput", "must not be negative, got %v", p.phase.Throughput)
		}
	}

	if tc.Access != nil && !tc.Access.Bounded() {
		fail("access", "", "either a finite time or a finite ops bound is required")
	}

	if tc.Access != nil {
		for _, query := range tc.Access.N1QLQueries {
			if _, ok := tc.Queries[query]; !ok {
				fail("access", "n1ql_queries", "no [n1ql-%s] section defines query %q", query, query)
			}
		}
	}

	for field, quota := range map[string]int{
		"mem_quota":           tc.Cluster.MemQuota,
		"index_mem_quota":     tc.Cluster.IndexMemQuota,
		"fts_index_mem_quota": tc.Cluster.FTSIndexMemQuota,
		"analytics_mem_quota": tc.Cluster.AnalyticsMemQuota,
		"eventing_mem_quota":  tc.Cluster.EventingMemQuota,
	} {
		if quota < 0 {
			fail("cluster", field, "must not be negative, got %d", quota)
		}
	}

	if n := len(tc.Cluster.InitialNodes); n > len(cs.Clusters) {
		fail("cluster", "initial_nodes", "%d node counts given for %d clusters", n, len(cs.Clusters))
	}
	for i, n := range tc.Cluster.InitialNodes {
		if n <= 0 {
			fail("cluster", "initial_nodes", "node count must be positive, got %d", n)
			continue
		}
		if i < len(cs.Clusters) && n > len(cs.Clusters[i].Nodes) {
			fail("cluster", "initial_nodes",
				"%d nodes requested but cluster %q defines only %d",
				n, cs.Clusters[i].Name, len(cs.Clusters[i].Nodes))
		}
	}

	if tc.Bucket.ReplicaNumber < 0 || tc.Bucket.ReplicaNumber > 3 {
		fail("bucket", "replica_number", "must be between 0 and 3, got %d", tc.Bucket.ReplicaNumber)
	}

	if tc.Secondary != nil && tc.Secondary.NumPartitions > len(cs.Servers()) {
		fail("secondary", "num_partitions",
			"%d partitions exceed the %d nodes in the topology",
			tc.Secondary.NumPartitions, len(cs.Servers()))
	}

	if tc.Rebalance != nil {
		for i, after := range tc.Rebalance.NodesAfter {
			initial := 0
			if i < len(tc.Cluster.InitialNodes) {
				initial = tc.Cluster.InitialNodes[i]
			} else if len(tc.Cluster.InitialNodes) > 0 {
				initial = tc.Cluster.InitialNodes[len(tc.Cluster.InitialNodes)-1]
			}
			if after == initial {
				fail("rebalance", "nodes_after",
					"node count after rebalance (%d) must differ from the initial count", after)
			}
		}
	}

	if anyPhase && len(cs.Clients.Hosts) == 0 {
		fail("clients", "hosts", "a non-empty client host list is required to drive workload phases")
	}

	return errs.ErrorOrNil()
}
