package main

import (
	"github.com/urfave/cli/v2"

	"github.com/panbanda/chronicle/internal/output"
	"github.com/panbanda/chronicle/internal/service/analysis"
)

func complexityCmd() *cli.Command {
	return &cli.Command{
		Name:      "complexity",
		Aliases:   []string{"cx"},
		Usage:     "Track per-function complexity across commits",
		ArgsUsage: "[path]",
		Description: `Scans each commit's diff for function bodies and measures their
complexity before and after the change. Functions whose complexity keeps
rising are reported as trends; single commits that add a lot of branching
are listed as refactoring candidates.`,
		Action: runComplexityCmd,
	}
}

func runComplexityCmd(c *cli.Context) error {
	cmd, err := newCommand(c)
	if err != nil {
		return err
	}
	report, err := cmd.analyze(c, analysis.Request{Diffs: true})
	if err != nil {
		return err
	}
	return cmd.write(c, output.ComplexityView(report.Complexity, cmd.top))
}
