package main

import (
	"github.com/urfave/cli/v2"

	"github.com/panbanda/chronicle/internal/output"
	"github.com/panbanda/chronicle/internal/service/analysis"
)

func ownershipCmd() *cli.Command {
	return &cli.Command{
		Name:      "ownership",
		Aliases:   []string{"own"},
		Usage:     "Show ownership periods, drift and stability per file",
		ArgsUsage: "[path]",
		Action:    runOwnershipCmd,
	}
}

func runOwnershipCmd(c *cli.Context) error {
	cmd, err := newCommand(c)
	if err != nil {
		return err
	}
	report, err := cmd.analyze(c, analysis.Request{})
	if err != nil {
		return err
	}
	return cmd.write(c, output.OwnershipView(report.Ownership, cmd.top))
}
