package main

import (
	"github.com/urfave/cli/v2"

	"github.com/panbanda/chronicle/internal/output"
	"github.com/panbanda/chronicle/internal/service/analysis"
)

func churnCmd() *cli.Command {
	return &cli.Command{
		Name:      "churn",
		Usage:     "Show files that change most often",
		ArgsUsage: "[path]",
		Action:    runChurnCmd,
	}
}

func runChurnCmd(c *cli.Context) error {
	cmd, err := newCommand(c)
	if err != nil {
		return err
	}
	report, err := cmd.analyze(c, analysis.Request{})
	if err != nil {
		return err
	}
	return cmd.write(c, output.ChurnTable(report.Churn, cmd.top))
}
