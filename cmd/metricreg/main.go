// Command metricreg fits OLS models relating the similarity weights
// and cluster count of candidate decompositions to their quality
// metrics, and prints a summary per metric.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/socialsoftware/metricreg/runner"
)

type options struct {
	configPath string
	dataDir    string
	files      []string
	discover   bool
	noHeader   bool
	checkHdr   bool
	logLevel   string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {

	var opts options

	cmd := &cobra.Command{
		Use:           "metricreg",
		Short:         "Regress decomposition quality metrics on similarity weights",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {

			level := hclog.LevelFromString(opts.logLevel)
			if level == hclog.NoLevel {
				return fmt.Errorf("unknown log level %q", opts.logLevel)
			}
			logger := hclog.New(&hclog.LoggerOptions{
				Name:   "metricreg",
				Level:  level,
				Output: stderr,
			})

			cfg, err := buildConfig(cmd, opts)
			if err != nil {
				return err
			}

			r, err := runner.New(cfg, logger)
			if err != nil {
				return err
			}

			_, err = r.Run(cmd.Context(), stdout)
			return err
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "YAML configuration file")
	f.StringVar(&opts.dataDir, "data-dir", "", "directory holding the measurement files")
	f.StringSliceVarP(&opts.files, "file", "f", nil, "measurement file, may be repeated")
	f.BoolVar(&opts.discover, "discover", false, "also analyze every CSV file in the data directory")
	f.BoolVar(&opts.noHeader, "no-header", false, "files have no header line")
	f.BoolVar(&opts.checkHdr, "check-header", false, "require header names to match the column layout")
	f.StringVar(&opts.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")

	return cmd
}

// buildConfig loads the configuration file, if any, and applies the
// flags that were set on the command line.
func buildConfig(cmd *cobra.Command, opts options) (runner.Config, error) {

	cfg := runner.DefaultConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = runner.LoadConfig(opts.configPath); err != nil {
			return cfg, err
		}
	}

	f := cmd.Flags()
	if f.Changed("data-dir") {
		cfg.DataDir = opts.dataDir
	}
	if f.Changed("file") {
		cfg.Files = opts.files
	}
	if f.Changed("discover") {
		cfg.Discover = opts.discover
	}
	if f.Changed("no-header") {
		cfg.NoHeader = opts.noHeader
	}
	if f.Changed("check-header") {
		cfg.CheckHeader = opts.checkHdr
	}

	return cfg, nil
}

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		hclog.New(&hclog.LoggerOptions{Name: "metricreg", Output: os.Stderr}).Error("run failed", "error", err)
		stop()
		os.Exit(1)
	}
}
