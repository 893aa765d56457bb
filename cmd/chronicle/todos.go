package main

import (
	"errors"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/chronicle/internal/output"
	"github.com/panbanda/chronicle/internal/service/analysis"
)

func todosCmd() *cli.Command {
	return &cli.Command{
		Name:      "todos",
		Aliases:   []string{"satd"},
		Usage:     "List TODO markers and the ones that went stale",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "stale-days",
				Usage: "Age after which an untouched TODO is stale (default from config)",
			},
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "Only match markers followed by a colon",
			},
		},
		Action: runTodosCmd,
	}
}

func runTodosCmd(c *cli.Context) error {
	cmd, err := newCommand(c)
	if err != nil {
		return err
	}
	if !cmd.cfg.Todos.Enabled {
		return errors.New("todo inventory is disabled (todos.enabled = false)")
	}
	if n := c.Int("stale-days"); n > 0 {
		cmd.cfg.Todos.StaleDays = n
	}
	if c.Bool("strict") {
		cmd.cfg.Todos.Strict = true
	}

	report, err := cmd.analyze(c, analysis.Request{Todos: true})
	if err != nil {
		return err
	}
	return cmd.write(c, output.TodosView(report.Todos, newestCommit(report), cmd.top))
}
