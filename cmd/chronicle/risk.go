package main

import (
	"github.com/urfave/cli/v2"

	"github.com/panbanda/chronicle/internal/output"
	"github.com/panbanda/chronicle/internal/service/analysis"
)

func riskCmd() *cli.Command {
	return &cli.Command{
		Name:      "risk",
		Usage:     "Combine churn and complexity into risk scores",
		ArgsUsage: "[path]",
		Action:    runRiskCmd,
	}
}

func runRiskCmd(c *cli.Context) error {
	cmd, err := newCommand(c)
	if err != nil {
		return err
	}
	report, err := cmd.analyze(c, analysis.Request{Diffs: true})
	if err != nil {
		return err
	}
	return cmd.write(c, output.RiskView(report.Risk, cmd.top))
}
