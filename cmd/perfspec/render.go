package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pavel-paulau/perfrunner/pkg/render"
)

var RenderCommand = &cli.Command{
	Name:      "render",
	Usage:     "Expand the templating in a spec file and print the result",
	Action:    Render,
	ArgsUsage: "FILENAME",
	Flags: flags([]cli.Flag{
		&cli.StringSliceFlag{
			Name:    "env",
			Aliases: []string{"e"},
			Usage:   "Template environment binding in the form name=host1,host2. May be repeated.",
		},
	}),
}

func Render(cc *cli.Context) error {
	setupLogging()

	if cc.NArg() != 1 {
		return fmt.Errorf("a spec filename must be supplied")
	}

	env, err := parseEnvironment(cc.StringSlice("env"))
	if err != nil {
		return err
	}

	data, err := os.ReadFile(cc.Args().Get(0))
	if err != nil {
		return err
	}

	rendered, err := render.Render(string(data), env)
	if err != nil {
		return fmt.Errorf("%s: %w", cc.Args().Get(0), err)
	}

	fmt.Print(rendered)
	return nil
}
