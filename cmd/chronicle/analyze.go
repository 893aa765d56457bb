package main

import (
	"github.com/urfave/cli/v2"

	"github.com/panbanda/chronicle/internal/output"
	"github.com/panbanda/chronicle/internal/service/analysis"
)

func analyzeCmd() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Aliases:   []string{"all"},
		Usage:     "Run every analysis and print the full report",
		ArgsUsage: "[path]",
		Description: `Runs churn, complexity trends, ownership drift, burnout, risk, the
commit graph and the TODO inventory in one pass. Enrichments that are not
available (no GITHUB_TOKEN, a commit whose diff cannot be read) are listed
as warnings and do not fail the run.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-prs",
				Usage: "Skip GitHub pull request lookups",
			},
			&cli.BoolFlag{
				Name:  "no-diffs",
				Usage: "Skip per-function complexity tracking",
			},
			&cli.BoolFlag{
				Name:  "no-todos",
				Usage: "Skip the TODO inventory",
			},
		},
		Action: runAnalyzeCmd,
	}
}

func runAnalyzeCmd(c *cli.Context) error {
	cmd, err := newCommand(c)
	if err != nil {
		return err
	}
	req := analysis.Request{
		Diffs:        !c.Bool("no-diffs"),
		PullRequests: !c.Bool("no-prs"),
		Todos:        !c.Bool("no-todos"),
	}
	report, err := cmd.analyze(c, req)
	if err != nil {
		return err
	}
	return cmd.write(c, output.ReportView(report, cmd.top))
}
