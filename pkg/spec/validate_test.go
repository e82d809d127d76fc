package spec

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mangle  func(string) string
		wantMsg string
	}{
		{
			name: "mix does not sum to 100",
			mangle: func(s string) string {
				return strings.Replace(s, "updates = 80", "updates = 81", 1)
			},
			wantMsg: "sum to 101",
		},
		{
			name: "negative workers",
			mangle: func(s string) string {
				return strings.Replace(s, "workers = 80", "workers = -1", 1)
			},
			wantMsg: "must not be negative",
		},
		{
			name: "unbounded access phase",
			mangle: func(s string) string {
				s = strings.Replace(s, "ops = 100000\n", "ops = inf\n", 1)
				return strings.Replace(s, "time = 600\n", "time = 0\n", 1)
			},
			wantMsg: "finite",
		},
		{
			name: "unresolved query reference",
			mangle: func(s string) string {
				return strings.Replace(s, "n1ql_queries = key-value-lookup",
					"n1ql_queries = range-scan", 1)
			},
			wantMsg: "range-scan",
		},
		{
			name: "more initial nodes than the topology has",
			mangle: func(s string) string {
				return strings.Replace(s, "initial_nodes = 4", "initial_nodes = 5", 1)
			},
			wantMsg: "defines only 4",
		},
		{
			name: "more node counts than clusters",
			mangle: func(s string) string {
				return strings.Replace(s, "initial_nodes = 4", "initial_nodes = 2 2", 1)
			},
			wantMsg: "2 node counts given for 1 clusters",
		},
		{
			name: "replica number out of range",
			mangle: func(s string) string {
				return s + "\n[bucket]\nreplica_number = 4\n"
			},
			wantMsg: "between 0 and 3",
		},
		{
			name: "too many index partitions",
			mangle: func(s string) string {
				return strings.Replace(s, "[secondary]",
					"[secondary]\nnum_partitions = 16", 1)
			},
			wantMsg: "exceed",
		},
		{
			name: "rebalance to the same node count",
			mangle: func(s string) string {
				return s + "\n[rebalance]\nnodes_after = 4\n"
			},
			wantMsg: "must differ",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mangled := tc.mangle(testConfigText)
			if mangled == testConfigText {
				t.Fatal("mangle did not change the config")
			}
			cs := loadTestClusterSpec(t)
			_, err := LoadTestSpecs(writeSpec(t, "kv_lookup.test", mangled), cs, nil, nil)
			if err == nil {
				t.Fatal("expected an error")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected a *ValidationError, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tc.wantMsg)
			}
		})
	}
}

func TestValidateReportsAllViolations(t *testing.T) {
	mangled := strings.NewReplacer(
		"updates = 80", "updates = 81",
		"initial_nodes = 4", "initial_nodes = 5",
	).Replace(testConfigText)

	cs := loadTestClusterSpec(t)
	_, err := LoadTestSpecs(writeSpec(t, "kv_lookup.test", mangled), cs, nil, nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, want := range []string{"sum to 101", "defines only 4"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestValidatePhasesNeedClients(t *testing.T) {
	clusterText := strings.Replace(clusterSpecText,
		"hosts = 172.23.100.1\n", "", 1)
	cs, err := LoadClusterSpec(writeSpec(t, "test.spec", clusterText), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = LoadTestSpecs(writeSpec(t, "kv_lookup.test", testConfigText), cs, nil, nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "client host") {
		t.Errorf("error %q does not mention the client hosts", err)
	}
}
