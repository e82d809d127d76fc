package spec

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/pavel-paulau/perfrunner/pkg/specfile"
)

// A Role is a cluster service running on a node.
type Role string

const (
	RoleKV        Role = "kv"
	RoleIndex     Role = "index"
	RoleN1QL      Role = "n1ql"
	RoleFTS       Role = "fts"
	RoleAnalytics Role = "cbas"
	RoleEventing  Role = "eventing"
)

var validRoles = map[Role]bool{
	RoleKV:        true,
	RoleIndex:     true,
	RoleN1QL:      true,
	RoleFTS:       true,
	RoleAnalytics: true,
	RoleEventing:  true,
}

// A Node is one server address tagged with the services it runs.
type Node struct {
	Host  string
	Roles []Role
}

func (n Node) HasRole(role Role) bool {
	for _, r := range n.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// A Cluster is an ordered set of nodes. The first node is the master used
// for administrative calls.
type Cluster struct {
	Name  string
	Nodes []Node
}

func (c *Cluster) Master() string {
	if len(c.Nodes) == 0 {
		return ""
	}
	return c.Nodes[0].Host
}

func (c *Cluster) Hosts() []string {
	hosts := make([]string, 0, len(c.Nodes))
	for _, n := range c.Nodes {
		hosts = append(hosts, n.Host)
	}
	return hosts
}

func (c *Cluster) HostsByRole(role Role) []string {
	var hosts []string
	for _, n := range c.Nodes {
		if n.HasRole(role) {
			hosts = append(hosts, n.Host)
		}
	}
	return hosts
}

// A ClientPool is the set of hosts that drive load generation.
type ClientPool struct {
	Hosts       []string
	Credentials Credentials
}

// A StorageLayout maps path roles to filesystem locations. Analytics may
// stripe across several mounts.
type StorageLayout struct {
	Data      string
	Index     string
	Analytics []string
	Backup    string
}

// Paths returns every distinct path in the layout.
func (s StorageLayout) Paths() []string {
	var paths []string
	seen := map[string]bool{}
	for _, p := range append([]string{s.Data, s.Index}, s.Analytics...) {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		paths = append(paths, p)
	}
	return paths
}

// A ClusterSpec is the ambient topology shared by every test case that runs
// against the same hardware: clusters, client pool, storage layout and
// credentials.
type ClusterSpec struct {
	Name       string
	Clusters   []*Cluster
	Clients    ClientPool
	Storage    StorageLayout
	Rest       Credentials
	SSH        Credentials
	Parameters map[string]string

	doc *specfile.Document
}

// Servers returns every server host across all clusters.
func (cs *ClusterSpec) Servers() []string {
	var hosts []string
	for _, c := range cs.Clusters {
		hosts = append(hosts, c.Hosts()...)
	}
	return hosts
}

// Masters returns the first node of each cluster.
func (cs *ClusterSpec) Masters() []string {
	var hosts []string
	for _, c := range cs.Clusters {
		hosts = append(hosts, c.Master())
	}
	return hosts
}

// ServersByRole returns every host carrying the given service role.
func (cs *ClusterSpec) ServersByRole(role Role) []string {
	var hosts []string
	for _, c := range cs.Clusters {
		hosts = append(hosts, c.HostsByRole(role)...)
	}
	return hosts
}

// buildClusterSpec resolves the topology sections of a document. Coercion and
// invariant failures are aggregated so authors see them all at once.
func buildClusterSpec(doc *specfile.Document, name string) (*ClusterSpec, error) {
	cs := &ClusterSpec{Name: name, doc: doc}
	var errs *multierror.Error

	clusters := doc.Section("clusters")
	if clusters == nil || len(clusters.Fields) == 0 {
		errs = multierror.Append(errs, &ValidationError{
			Section: "clusters",
			Msg:     "at least one cluster must be defined",
		})
	} else {
		for _, f := range clusters.Fields {
			cluster, err := parseCluster(f.Key, splitList(f.Lines(), sepWhitespace), f.Line)
			if err != nil {
				errs = multierror.Append(errs, err)
				continue
			}
			cs.Clusters = append(cs.Clusters, cluster)
		}
	}

	if clients := doc.Section("clients"); clients != nil {
		c := newCoercer(clients, registry["clients"])
		cs.Clients = ClientPool{
			Hosts:       c.list("hosts"),
			Credentials: c.credential("credentials"),
		}
		errs = multierror.Append(errs, c.finish())
	}

	if storage := doc.Section("storage"); storage != nil {
		c := newCoercer(storage, registry["storage"])
		cs.Storage = StorageLayout{
			Data:      c.str("data"),
			Index:     c.str("index"),
			Analytics: c.list("analytics"),
			Backup:    c.str("backup"),
		}
		if cs.Storage.Index == "" {
			cs.Storage.Index = cs.Storage.Data
		}
		errs = multierror.Append(errs, c.finish())
	} else {
		errs = multierror.Append(errs, &ValidationError{
			Section: "storage",
			Msg:     "section is required",
		})
	}

	if creds := doc.Section("credentials"); creds != nil {
		c := newCoercer(creds, registry["credentials"])
		cs.Rest = c.credential("rest")
		cs.SSH = c.credential("ssh")
		errs = multierror.Append(errs, c.finish())
	} else {
		errs = multierror.Append(errs, &ValidationError{
			Section: "credentials",
			Msg:     "section is required",
		})
	}

	if params := doc.Section("parameters"); params != nil {
		c := newCoercer(params, registry["parameters"])
		cs.Parameters = c.extras()
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return cs, nil
}

// parseCluster turns host:role entries into a Cluster and checks its
// topology invariants.
func parseCluster(name string, entries []string, line int) (*Cluster, error) {
	cluster := &Cluster{Name: name}
	var errs *multierror.Error

	seen := map[string]bool{}
	for _, entry := range entries {
		host, roleSpec, found := strings.Cut(entry, ":")
		if !found || host == "" || roleSpec == "" {
			errs = multierror.Append(errs, &CoercionError{
				Section: "clusters",
				Key:     name,
				Value:   entry,
				Want:    "host:role[,role...]",
				Line:    line,
			})
			continue
		}

		node := Node{Host: host}
		for _, r := range strings.Split(roleSpec, ",") {
			role := Role(strings.TrimSpace(r))
			if !validRoles[role] {
				errs = multierror.Append(errs, &CoercionError{
					Section: "clusters",
					Key:     name,
					Value:   string(role),
					Want:    "a service role (kv, index, n1ql, fts, cbas, eventing)",
					Line:    line,
				})
				continue
			}
			node.Roles = append(node.Roles, role)
		}

		if seen[host] {
			errs = multierror.Append(errs, &ValidationError{
				Section: "clusters",
				Field:   name,
				Msg:     fmt.Sprintf("duplicate host %q", host),
			})
			continue
		}
		seen[host] = true
		cluster.Nodes = append(cluster.Nodes, node)
	}

	if len(cluster.HostsByRole(RoleKV)) == 0 {
		errs = multierror.Append(errs, &ValidationError{
			Section: "clusters",
			Field:   name,
			Msg:     "at least one node must run the kv service",
		})
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return cluster, nil
}
