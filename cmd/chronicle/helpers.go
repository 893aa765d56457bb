package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/chronicle/internal/logging"
	"github.com/panbanda/chronicle/internal/output"
	"github.com/panbanda/chronicle/internal/service/analysis"
	"github.com/panbanda/chronicle/pkg/analyzer/evolution"
	"github.com/panbanda/chronicle/pkg/config"
)

const defaultTop = 20

// getPath returns the repository path argument, defaulting to ".".
func getPath(c *cli.Context) string {
	if c.Args().Len() > 0 {
		return c.Args().First()
	}
	return "."
}

// loadConfig loads the file named by --config, CHRONICLE_CONFIG or the
// standard locations.
func loadConfig(c *cli.Context) (*config.LoadResult, error) {
	var opts []config.LoadOption
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithPath(path))
	}
	return config.LoadConfig(opts...)
}

func newLogger(c *cli.Context) *logrus.Logger {
	return logging.New(c.String("log-level"), c.Bool("log-json"), os.Stderr)
}

// command is the state shared by the analysis commands.
type command struct {
	cfg    *config.Config
	logger *logrus.Logger
	format output.Format
	top    int
}

func newCommand(c *cli.Context) (*command, error) {
	res, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	cmd := &command{
		cfg:    res.Config,
		logger: newLogger(c),
		format: output.ParseFormat(res.Config.Output.Format),
		top:    res.Config.Output.Top,
	}
	if f := c.String("format"); f != "" {
		cmd.format = output.ParseFormat(f)
	}
	if n := c.Int("top"); n > 0 {
		cmd.top = n
	}
	if cmd.top <= 0 {
		cmd.top = defaultTop
	}
	if res.Source != "" {
		cmd.logger.WithField("path", res.Source).Debug("loaded config")
	}
	return cmd, nil
}

// analyze runs the analysis service for the repository argument.
func (cmd *command) analyze(c *cli.Context, req analysis.Request) (*evolution.Report, error) {
	path, err := filepath.Abs(getPath(c))
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	since, err := analysis.ParseSince(c.String("since"), time.Now())
	if err != nil {
		return nil, err
	}
	req.RepoPath = path
	req.Since = since

	opts := []analysis.Option{
		analysis.WithConfig(cmd.cfg),
		analysis.WithLogger(cmd.logger),
		analysis.WithProgress(cmd.format == output.FormatText && c.String("output") == ""),
	}
	if c.Bool("no-cache") {
		opts = append(opts, analysis.WithoutCache())
	}

	report, err := analysis.New(opts...).Run(c.Context, req)
	if err != nil {
		return nil, err
	}
	for _, w := range report.Warnings {
		cmd.logger.WithFields(logrus.Fields{"source": w.Source, "hash": w.Hash}).Warn(w.Message)
	}
	return report, nil
}

// write renders view to stdout or the --output file.
func (cmd *command) write(c *cli.Context, view output.Renderable) error {
	colored := cmd.cfg.Output.Color && !c.Bool("no-color")
	formatter, err := output.NewFormatter(cmd.format, c.String("output"), colored)
	if err != nil {
		return err
	}
	defer formatter.Close()
	return formatter.Output(view)
}

// newestCommit is the reference time for ages in text output.
func newestCommit(r *evolution.Report) time.Time {
	if n := len(r.Commits); n > 0 {
		return r.Commits[n-1].Timestamp
	}
	return time.Time{}
}
