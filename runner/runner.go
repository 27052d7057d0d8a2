// Package runner fits the regression models of a measurement study:
// it loads the configured files into one table, then fits an OLS
// model with an intercept for every target and prints its summary.
package runner

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/socialsoftware/metricreg/metrics"
	"github.com/socialsoftware/metricreg/ols"
)

// Result is the fitted model for one target.
type Result struct {
	Target  string
	Results *ols.OLSResults
}

// Runner runs the regressions described by a Config.
type Runner struct {
	cfg Config
	log hclog.Logger
}

// New returns a Runner for a validated copy of cfg.  A nil logger
// discards log output.
func New(cfg Config, log hclog.Logger) (*Runner, error) {

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = hclog.NewNullLogger()
	}

	return &Runner{cfg: cfg, log: log}, nil
}

// Files returns the files to analyze: the configured files followed
// by the discovered ones, each listed once.
func (r *Runner) Files() ([]string, error) {

	files := append([]string(nil), r.cfg.Files...)

	if r.cfg.Discover {
		found, err := metrics.Discover(r.cfg.DataDir)
		if err != nil {
			return nil, err
		}
		r.log.Debug("discovered measurement files", "dir", r.cfg.DataDir, "count", len(found))
		files = append(files, found...)
	}

	seen := make(map[string]bool)
	var uniq []string
	for _, f := range files {
		if !seen[f] {
			seen[f] = true
			uniq = append(uniq, f)
		}
	}

	return uniq, nil
}

// Load reads every file into one table.  The name of each file is
// written to w before it is read.
func (r *Runner) Load(ctx context.Context, w io.Writer) (*metrics.Table, error) {

	files, err := r.Files()
	if err != nil {
		return nil, err
	}

	rdr := metrics.NewReader(r.cfg.Schema()).Header(!r.cfg.NoHeader).MatchNames(r.cfg.CheckHeader).Log(r.log)
	b := metrics.NewBuilder()

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fmt.Fprintln(w, f)
		n, err := rdr.ReadFile(filepath.Join(r.cfg.DataDir, f), b)
		if err != nil {
			return nil, err
		}
		r.log.Info("loaded measurements", "file", f, "rows", n)
	}

	if b.Len() == 0 {
		return nil, metrics.ErrEmpty
	}

	return b.Done(), nil
}

// Fit fits the model for one target.
func (r *Runner) Fit(tab *metrics.Table, target string) (*ols.OLSResults, error) {

	names := append([]string{target}, r.cfg.Predictors...)
	data, err := tab.Dstream(names...)
	if err != nil {
		return nil, err
	}

	model := ols.NewOLS(data, target).Covariates(r.cfg.Predictors...).AddConstant().Log(r.log).Done()
	rslt, err := model.Fit()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", target, err)
	}

	return rslt, nil
}

// Run loads the data, fits a model for every target and writes each
// summary followed by a blank line to w.
func (r *Runner) Run(ctx context.Context, w io.Writer) ([]Result, error) {

	tab, err := r.Load(ctx, w)
	if err != nil {
		return nil, err
	}
	r.log.Info("dataset assembled", "rows", tab.NumRows())

	var results []Result
	for _, target := range r.cfg.Targets {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		rslt, err := r.Fit(tab, target)
		if err != nil {
			return results, err
		}
		r.log.Info("fitted model", "target", target, "rsquared", rslt.Rsquared())

		if _, err := fmt.Fprintf(w, "%s\n", rslt.Summary()); err != nil {
			return results, err
		}
		results = append(results, Result{Target: target, Results: rslt})
	}

	return results, nil
}
