package main

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/kortschak/utter"
	"github.com/pkg/profile"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/pavel-paulau/perfrunner/pkg/spec"
)

var ValidateCommand = &cli.Command{
	Name:      "validate",
	Usage:     "Validate test case definitions against a cluster spec",
	Action:    Validate,
	ArgsUsage: "TEST-FILENAME...",
	Flags: flags([]cli.Flag{
		&cli.StringFlag{
			Name:        "cluster",
			Aliases:     []string{"c"},
			Usage:       "Filename of the cluster spec to resolve test cases against.",
			Required:    true,
			Destination: &validateOpts.cluster,
			EnvVars:     []string{envPrefix + "CLUSTER"},
		},
		&cli.StringSliceFlag{
			Name:    "env",
			Aliases: []string{"e"},
			Usage:   "Template environment binding in the form name=host1,host2. May be repeated.",
		},
		&cli.StringSliceFlag{
			Name:    "override",
			Aliases: []string{"o"},
			Usage:   "Test config override in the form section.key.value. May be repeated.",
		},
		&cli.BoolFlag{
			Name:        "dump",
			Usage:       "Dump the fully resolved specifications.",
			Destination: &validateOpts.dump,
		},
		&cli.StringFlag{
			Name:        "cpuprofile",
			Usage:       "Write a CPU profile to the specified file before exiting.",
			Destination: &validateOpts.cpuprofile,
			EnvVars:     []string{envPrefix + "CPUPROFILE"},
		},
		&cli.StringFlag{
			Name:        "memprofile",
			Usage:       "Write an allocation profile to the file before exiting.",
			Destination: &validateOpts.memprofile,
			EnvVars:     []string{envPrefix + "MEMPROFILE"},
		},
	}),
}

var validateOpts struct {
	cluster    string
	dump       bool
	cpuprofile string
	memprofile string
}

func Validate(cc *cli.Context) error {
	setupLogging()

	if cc.NArg() == 0 {
		return fmt.Errorf("at least one test case filename must be supplied")
	}

	if validateOpts.cpuprofile != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfileFilename(validateOpts.cpuprofile)).Stop()
	}
	if validateOpts.memprofile != "" {
		defer profile.Start(profile.MemProfile, profile.ProfileFilename(validateOpts.memprofile)).Stop()
	}

	env, err := parseEnvironment(cc.StringSlice("env"))
	if err != nil {
		return err
	}

	var overrides []spec.Override
	for _, o := range cc.StringSlice("override") {
		override, err := spec.ParseOverride(o)
		if err != nil {
			return err
		}
		overrides = append(overrides, override)
	}

	cs, err := spec.LoadClusterSpec(validateOpts.cluster, env)
	if err != nil {
		return err
	}

	files := cc.Args().Slice()
	resolved := make([][]*spec.TestSpecification, len(files))

	g, _ := errgroup.WithContext(cc.Context)
	for i := range files {
		i := i
		g.Go(func() error {
			specs, err := spec.LoadTestSpecs(files[i], cs, env, overrides)
			if err != nil {
				return err
			}
			resolved[i] = specs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	printClusterSpec(cs)
	for _, specs := range resolved {
		for _, ts := range specs {
			fmt.Println()
			printTestSpec(ts)
			if validateOpts.dump {
				fmt.Println(utter.Sdump(ts))
			}
		}
	}

	return nil
}

func printClusterSpec(cs *spec.ClusterSpec) {
	fmt.Printf("Cluster spec:       %s\n", cs.Name)
	for _, c := range cs.Clusters {
		fmt.Printf("  Cluster %q: %d nodes, master %s\n", c.Name, len(c.Nodes), c.Master())
	}
	fmt.Printf("  Clients:          %s\n", listDesc(cs.Clients.Hosts))
	fmt.Printf("  Data path:        %s\n", cs.Storage.Data)
	fmt.Printf("  Index path:       %s\n", cs.Storage.Index)
}

func printTestSpec(ts *spec.TestSpecification) {
	tc := ts.Test

	fmt.Printf("Test:               %s\n", tc.Name)
	fmt.Printf("  Class:            %s\n", tc.TestCase.Class)
	if tc.ShowFast.Title != "" {
		fmt.Printf("  Title:            %s\n", tc.ShowFast.Title)
	}
	fmt.Printf("  Buckets:          %s\n", listDesc(tc.Buckets()))
	fmt.Printf("  Memory quota:     %d MB\n", tc.Cluster.MemQuota)
	fmt.Printf("  Initial nodes:    %s\n", intListDesc(tc.Cluster.InitialNodes))

	printPhase("load", tc.Load)
	printPhase("hot load", tc.HotLoad)
	printPhase("access", tc.Access)

	if len(tc.Queries) > 0 {
		names := make([]string, 0, len(tc.Queries))
		for name := range tc.Queries {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Printf("  Queries:          %s\n", strings.Join(names, ", "))
	}

	subsystems := subsystemNames(tc)
	if len(subsystems) > 0 {
		fmt.Printf("  Subsystems:       %s\n", strings.Join(subsystems, ", "))
	}
}

func printPhase(name string, p *spec.PhaseSettings) {
	if p == nil {
		return
	}
	desc := fmt.Sprintf("%d items, %d workers", p.Items, p.Workers)
	if p.MixedWorkload() {
		desc += fmt.Sprintf(", mix %d/%d/%d/%d",
			p.Creates, p.Reads, p.Updates, p.Deletes)
	}
	if p.Time > 0 {
		desc += fmt.Sprintf(", %ds", p.Time)
	}
	if !math.IsInf(p.Throughput, 1) {
		desc += fmt.Sprintf(", capped at %.0f ops/s", p.Throughput)
	}
	fmt.Printf("  Phase %-10s  %s\n", name+":", desc)
}

func subsystemNames(tc *spec.TestConfig) []string {
	var names []string
	add := func(name string, present bool) {
		if present {
			names = append(names, name)
		}
	}
	add("secondary", tc.Secondary != nil)
	add("n1ql", tc.N1QL != nil)
	add("index", tc.Index != nil)
	add("jts", tc.JTS != nil)
	add("eventing", tc.Eventing != nil)
	add("rebalance", tc.Rebalance != nil)
	add("restore", tc.Restore != nil)
	add("backup", tc.Backup != nil)
	add("export", tc.Export != nil)
	add("dcp", tc.DCP != nil)
	add("views", tc.Views != nil)
	add("xdcr", tc.XDCR != nil)
	add("analytics", tc.Analytics != nil)
	add("audit", tc.Audit != nil)
	add("profiling", tc.Profiling != nil)
	add("ycsb", tc.YCSB != nil)
	return names
}

func listDesc(elems []string) string {
	if len(elems) == 0 {
		return "none"
	}
	return strings.Join(elems, ", ")
}

func intListDesc(nums []int) string {
	elems := make([]string, 0, len(nums))
	for _, n := range nums {
		elems = append(elems, fmt.Sprintf("%d", n))
	}
	return listDesc(elems)
}
