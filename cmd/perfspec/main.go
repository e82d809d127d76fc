package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"golang.org/x/exp/slog"

	"github.com/pavel-paulau/perfrunner/pkg/render"
)

const (
	appName   = "perfspec"
	envPrefix = "PERFSPEC_"
)

var app = &cli.App{
	Name:        appName,
	Usage:       "a tool for working with benchmark spec files",
	Description: "perfspec renders, parses and validates cluster specs and test case definitions",
	Commands: []*cli.Command{
		ValidateCommand,
		RenderCommand,
	},
	Flags: commonFlags,
}

func main() {
	ctx := context.Background()
	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func setupLogging() {
	logLevel := new(slog.LevelVar)
	logLevel.Set(slog.LevelWarn)
	if commonOpts.verbose {
		logLevel.Set(slog.LevelInfo)
	}
	if commonOpts.veryverbose {
		logLevel.Set(slog.LevelDebug)
	}

	if commonOpts.nocolor {
		slog.SetDefault(slog.New(slog.HandlerOptions{Level: logLevel}.NewTextHandler(os.Stdout)))
	} else {
		h := NewInteractiveHandler()
		h = h.WithLevel(logLevel.Level())
		slog.SetDefault(slog.New(h))
	}
}

var commonOpts struct {
	verbose     bool
	veryverbose bool
	nocolor     bool
}

var commonFlags = []cli.Flag{
	&cli.BoolFlag{
		Name:        "verbose",
		Aliases:     []string{"v"},
		Usage:       "Set logging level more verbose to include info level logs",
		Value:       false,
		Destination: &commonOpts.verbose,
		EnvVars:     []string{envPrefix + "VERBOSE"},
	},
	&cli.BoolFlag{
		Name:        "veryverbose",
		Aliases:     []string{"vv"},
		Usage:       "Set logging level very verbose to include debug level logs",
		Value:       false,
		Destination: &commonOpts.veryverbose,
		EnvVars:     []string{envPrefix + "VERY_VERBOSE"},
	},
	&cli.BoolFlag{
		Name:        "nocolor",
		Usage:       "Use plain, machine readable logs",
		Value:       false,
		Destination: &commonOpts.nocolor,
		EnvVars:     []string{envPrefix + "NOCOLOR"},
	},
}

func flags(fs []cli.Flag) []cli.Flag {
	fs = append(fs, commonFlags...)
	return fs
}

// parseEnvironment turns repeated name=host1,host2 flag values into a
// template environment.
func parseEnvironment(bindings []string) (render.Environment, error) {
	if len(bindings) == 0 {
		return nil, nil
	}
	env := render.Environment{}
	for _, b := range bindings {
		name, hosts, found := strings.Cut(b, "=")
		if !found || name == "" {
			return nil, fmt.Errorf("environment binding must have the form name=host1,host2, got %q", b)
		}
		var list []string
		for _, h := range strings.Split(hosts, ",") {
			if h = strings.TrimSpace(h); h != "" {
				list = append(list, h)
			}
		}
		env[name] = list
	}
	return env, nil
}
