package spec

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pavel-paulau/perfrunner/pkg/render"
)

const clusterSpecText = `[clusters]
test =
    10.0.0.1:kv,index,n1ql
    10.0.0.2:kv
    10.0.0.3:kv
    10.0.0.4:index

[clients]
hosts = 172.23.100.1
credentials = root:couchbase

[storage]
data = /data
index = /index

[credentials]
rest = Administrator:password
ssh = root:couchbase

[parameters]
OS = CentOS 7
CPU = E5-2630 v2
Memory = 64 GB
Disk = SSD
`

func writeSpec(t *testing.T, name, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func loadTestClusterSpec(t *testing.T) *ClusterSpec {
	t.Helper()
	cs, err := LoadClusterSpec(writeSpec(t, "test.spec", clusterSpecText), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return cs
}

func TestClusterSpec(t *testing.T) {
	cs := loadTestClusterSpec(t)

	if cs.Name != "test" {
		t.Errorf("got name %q, want test", cs.Name)
	}

	wantServers := []string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4"}
	if diff := cmp.Diff(wantServers, cs.Servers()); diff != "" {
		t.Errorf("servers mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"10.0.0.1"}, cs.Masters()); diff != "" {
		t.Errorf("masters mismatch (-want +got):\n%s", diff)
	}

	wantIndex := []string{"10.0.0.1", "10.0.0.4"}
	if diff := cmp.Diff(wantIndex, cs.ServersByRole(RoleIndex)); diff != "" {
		t.Errorf("index nodes mismatch (-want +got):\n%s", diff)
	}

	if cs.Storage.Index != "/index" {
		t.Errorf("got index path %q", cs.Storage.Index)
	}
	if diff := cmp.Diff([]string{"/data", "/index"}, cs.Storage.Paths()); diff != "" {
		t.Errorf("paths mismatch (-want +got):\n%s", diff)
	}

	if cs.Rest != (Credentials{Username: "Administrator", Password: "password"}) {
		t.Errorf("got rest credentials %v", cs.Rest)
	}
	if cs.Clients.Credentials.Username != "root" {
		t.Errorf("got client user %q", cs.Clients.Credentials.Username)
	}
	if cs.Parameters["OS"] != "CentOS 7" {
		t.Errorf("got parameters %v", cs.Parameters)
	}
}

func TestClusterSpecIndexPathFallsBackToData(t *testing.T) {
	text := strings.Replace(clusterSpecText, "index = /index\n", "", 1)
	cs, err := LoadClusterSpec(writeSpec(t, "test.spec", text), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs.Storage.Index != "/data" {
		t.Errorf("got index path %q, want /data", cs.Storage.Index)
	}
}

func TestClusterSpecTemplated(t *testing.T) {
	text := `[clusters]
test =
    {% for server in servers -%}
    {{server}}:kv
    {% endfor -%}

[clients]
hosts =
    {% for client in clients -%}
    {{client}}
    {% endfor -%}
credentials = root:couchbase

[storage]
data = /data

[credentials]
rest = Administrator:password
ssh = root:couchbase
`
	env := render.Environment{
		"servers": {"10.0.0.1", "10.0.0.2"},
		"clients": {"172.23.100.1", "172.23.100.2"},
	}

	cs, err := LoadClusterSpec(writeSpec(t, "templated.spec", text), env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff([]string{"10.0.0.1", "10.0.0.2"}, cs.Servers()); diff != "" {
		t.Errorf("servers mismatch (-want +got):\n%s", diff)
	}
	for _, n := range cs.Clusters[0].Nodes {
		if !n.HasRole(RoleKV) {
			t.Errorf("node %s is missing the kv role", n.Host)
		}
	}
	if diff := cmp.Diff([]string{"172.23.100.1", "172.23.100.2"}, cs.Clients.Hosts); diff != "" {
		t.Errorf("clients mismatch (-want +got):\n%s", diff)
	}
}

func TestClusterSpecInvariants(t *testing.T) {
	testCases := []struct {
		name    string
		mangle  func(string) string
		wantMsg string
	}{
		{
			name: "no kv node",
			mangle: func(s string) string {
				return strings.Replace(s, "10.0.0.2:kv\n", "10.0.0.2:index\n",
					1)
			},
			wantMsg: "kv",
		},
		{
			name: "duplicate host",
			mangle: func(s string) string {
				return strings.Replace(s, "10.0.0.2:kv", "10.0.0.1:kv", 1)
			},
			wantMsg: "duplicate host",
		},
		{
			name: "unknown role",
			mangle: func(s string) string {
				return strings.Replace(s, "10.0.0.2:kv", "10.0.0.2:kv,backup", 1)
			},
			wantMsg: "service role",
		},
		{
			name: "malformed credentials",
			mangle: func(s string) string {
				return strings.Replace(s, "rest = Administrator:password", "rest = Administratorpassword", 1)
			},
			wantMsg: "user:password",
		},
		{
			name: "missing storage data path",
			mangle: func(s string) string {
				return strings.Replace(s, "data = /data\n", "", 1)
			},
			wantMsg: "required",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mangled := tc.mangle(clusterSpecText)
			if mangled == clusterSpecText {
				t.Fatal("mangle did not change the spec")
			}
			_, err := LoadClusterSpec(writeSpec(t, "test.spec", mangled), nil)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tc.wantMsg)
			}
		})
	}

	t.Run("no kv node is a validation error", func(t *testing.T) {
		mangled := strings.NewReplacer(
			"10.0.0.1:kv,index,n1ql", "10.0.0.1:index",
			"10.0.0.2:kv", "10.0.0.2:index",
			"10.0.0.3:kv", "10.0.0.3:index",
		).Replace(clusterSpecText)
		_, err := LoadClusterSpec(writeSpec(t, "test.spec", mangled), nil)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected *ValidationError, got %v", err)
		}
	})
}

func TestClusterSpecRejectsTestSections(t *testing.T) {
	text := clusterSpecText + "\n[load]\nitems = 1000\n"
	_, err := LoadClusterSpec(writeSpec(t, "test.spec", text), nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	var serr *SchemaError
	if !errors.As(err, &serr) {
		t.Fatalf("expected *SchemaError, got %T: %v", err, err)
	}
}
