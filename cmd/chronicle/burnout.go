package main

import (
	"github.com/urfave/cli/v2"

	"github.com/panbanda/chronicle/internal/output"
	"github.com/panbanda/chronicle/internal/service/analysis"
)

func burnoutCmd() *cli.Command {
	return &cli.Command{
		Name:      "burnout",
		Usage:     "Score authors by off-hours and weekend commits",
		ArgsUsage: "[path]",
		Action:    runBurnoutCmd,
	}
}

func runBurnoutCmd(c *cli.Context) error {
	cmd, err := newCommand(c)
	if err != nil {
		return err
	}
	report, err := cmd.analyze(c, analysis.Request{})
	if err != nil {
		return err
	}
	return cmd.write(c, output.BurnoutTable(report.Burnout, cmd.top))
}
