package main

import (
	"github.com/urfave/cli/v2"

	"github.com/panbanda/chronicle/internal/output"
	"github.com/panbanda/chronicle/internal/service/analysis"
)

func graphCmd() *cli.Command {
	return &cli.Command{
		Name:      "graph",
		Aliases:   []string{"log"},
		Usage:     "List commits with churn, fix detection and pull requests",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-prs",
				Usage: "Skip GitHub pull request lookups",
			},
		},
		Action: runGraphCmd,
	}
}

func runGraphCmd(c *cli.Context) error {
	cmd, err := newCommand(c)
	if err != nil {
		return err
	}
	report, err := cmd.analyze(c, analysis.Request{PullRequests: !c.Bool("no-prs")})
	if err != nil {
		return err
	}
	return cmd.write(c, output.GraphTable(report.Graph, cmd.top))
}
