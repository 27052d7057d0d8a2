package runner

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socialsoftware/metricreg/metrics"
	"github.com/socialsoftware/metricreg/ols"
)

const header = "n,A,W,R,S,cohesion,coupling,complexity,pComplexity,performance,pPerformance\n"

// writeSynthetic writes rows with n = 1..nrows, constant weights and
// complexity = 2n + 3.  The unused columns hold values that would
// change every fit if they were read.
func writeSynthetic(t *testing.T, dir, name string, nrows int) {
	t.Helper()

	var buf bytes.Buffer
	buf.WriteString(header)
	for i := 1; i <= nrows; i++ {
		n := float64(i)
		cohesion := 0.9 - 0.02*n + 0.01*float64(i%3)
		coupling := 0.1 + 0.03*n + 0.02*float64(i%2)
		fmt.Fprintf(&buf, "%g,0.5,0.5,0.5,0.5,%g,%g,%g,%g,%g,%g\n",
			n, cohesion, coupling, 1000*n*n, 2*n+3, -500*n, 50-n+0.5*float64(i%4))
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644))
}

func testConfig(dir string, files ...string) Config {
	cfg := DefaultConfig()
	cfg.DataDir = dir
	cfg.Files = files
	return cfg
}

func TestRunSynthetic(t *testing.T) {

	dir := t.TempDir()
	writeSynthetic(t, dir, "synthetic.csv", 10)

	r, err := New(testConfig(dir, "synthetic.csv"), nil)
	require.NoError(t, err)

	var out bytes.Buffer
	results, err := r.Run(context.Background(), &out)
	require.NoError(t, err)
	require.Len(t, results, 4)

	var targets []string
	for _, res := range results {
		targets = append(targets, res.Target)
	}
	assert.Equal(t, []string{"complexity", "coupling", "cohesion", "performance"}, targets)

	cx := results[0].Results
	assert.Equal(t, []string{ols.ConstName, "n", "A", "W", "R", "S"}, cx.Names())
	want := []float64{3, 2, 0, 0, 0, 0}
	for k, b := range cx.Params() {
		assert.InDelta(t, want[k], b, 1e-8, "parameter %s", cx.Names()[k])
	}
	assert.InDelta(t, 1, cx.Rsquared(), 1e-10)
	assert.Equal(t, 10, cx.NumObs())

	s := out.String()
	assert.True(t, strings.HasPrefix(s, "synthetic.csv\n"))
	assert.Equal(t, 4, strings.Count(s, "OLS Regression Results"))
	for _, target := range targets {
		assert.Contains(t, s, target)
	}
	assert.True(t, strings.HasSuffix(s, "\n\n"))
}

func TestRunIdempotent(t *testing.T) {

	dir := t.TempDir()
	writeSynthetic(t, dir, "synthetic.csv", 12)

	r, err := New(testConfig(dir, "synthetic.csv"), nil)
	require.NoError(t, err)

	var out1, out2 bytes.Buffer
	res1, err := r.Run(context.Background(), &out1)
	require.NoError(t, err)
	res2, err := r.Run(context.Background(), &out2)
	require.NoError(t, err)

	for i := range res1 {
		assert.Equal(t, res1[i].Results.Params(), res2[i].Results.Params())
	}
	assert.Equal(t, out1.String(), out2.String())
}

// Rows of all files are concatenated in file order.
func TestLoadMultipleFiles(t *testing.T) {

	dir := t.TempDir()
	writeSynthetic(t, dir, "b.csv", 4)
	writeSynthetic(t, dir, "a.csv", 3)

	cfg := testConfig(dir, "b.csv")
	cfg.Discover = true
	r, err := New(cfg, nil)
	require.NoError(t, err)

	files, err := r.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{"b.csv", "a.csv"}, files)

	var out bytes.Buffer
	tab, err := r.Load(context.Background(), &out)
	require.NoError(t, err)
	assert.Equal(t, "b.csv\na.csv\n", out.String())

	n, err := tab.Column(metrics.FieldN)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4, 1, 2, 3}, n)
}

func TestRunTooFewRows(t *testing.T) {

	dir := t.TempDir()
	writeSynthetic(t, dir, "small.csv", 5)

	r, err := New(testConfig(dir, "small.csv"), nil)
	require.NoError(t, err)

	_, err = r.Run(context.Background(), &bytes.Buffer{})
	assert.ErrorIs(t, err, ols.ErrRankDeficient)
}

func TestRunErrors(t *testing.T) {

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.csv"), []byte(header), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.csv"), []byte("x,y\n1,2\n"), 0o644))

	r, err := New(testConfig(dir, "missing.csv"), nil)
	require.NoError(t, err)
	_, err = r.Run(context.Background(), &bytes.Buffer{})
	assert.ErrorIs(t, err, os.ErrNotExist)

	r, err = New(testConfig(dir, "empty.csv"), nil)
	require.NoError(t, err)
	_, err = r.Run(context.Background(), &bytes.Buffer{})
	assert.ErrorIs(t, err, metrics.ErrEmpty)

	r, err = New(testConfig(dir, "bad.csv"), nil)
	require.NoError(t, err)
	_, err = r.Run(context.Background(), &bytes.Buffer{})
	assert.ErrorIs(t, err, metrics.ErrSchema)
	assert.Contains(t, err.Error(), "bad.csv")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r, err = New(testConfig(dir, "empty.csv"), nil)
	require.NoError(t, err)
	_, err = r.Run(ctx, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCheckHeader(t *testing.T) {

	dir := t.TempDir()
	writeSynthetic(t, dir, "synthetic.csv", 10)
	path := filepath.Join(dir, "synthetic.csv")
	buf, err := os.ReadFile(path)
	require.NoError(t, err)
	renamed := "clusters,a,w,r,s,coh,coup,cx,pcx,perf,pperf\n" + strings.TrimPrefix(string(buf), header)
	require.NoError(t, os.WriteFile(path, []byte(renamed), 0o644))

	r, err := New(testConfig(dir, "synthetic.csv"), nil)
	require.NoError(t, err)
	results, err := r.Run(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)
	assert.InDelta(t, 2, results[0].Results.Params()[1], 1e-8)

	cfg := testConfig(dir, "synthetic.csv")
	cfg.CheckHeader = true
	r, err = New(cfg, nil)
	require.NoError(t, err)
	_, err = r.Run(context.Background(), &bytes.Buffer{})
	assert.ErrorIs(t, err, metrics.ErrSchema)
}

func TestValidate(t *testing.T) {

	require.NoError(t, DefaultConfig().Validate())

	for name, mod := range map[string]func(*Config){
		"no files":          func(c *Config) { c.Files = nil },
		"no targets":        func(c *Config) { c.Targets = nil },
		"unknown target":    func(c *Config) { c.Targets = []string{"speed"} },
		"unknown predictor": func(c *Config) { c.Predictors = []string{"n", "Z"} },
		"duplicate":         func(c *Config) { c.Predictors = []string{"n", "n"} },
		"target predictor":  func(c *Config) { c.Targets = []string{"n"} },
		"bad columns":       func(c *Config) { c.Columns = []metrics.Column{{Name: "n", Field: "n"}} },
	} {
		cfg := DefaultConfig()
		mod(&cfg)
		_, err := New(cfg, nil)
		assert.ErrorIs(t, err, ErrConfig, name)
	}

	cfg := DefaultConfig()
	cfg.Files = nil
	cfg.Discover = true
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {

	dir := t.TempDir()
	path := filepath.Join(dir, "metricreg.yaml")
	yml := `data_dir: /srv/data
files:
  - 45_11275.42_bw-simulation.csv
  - 49_81574.52_bw-maven.csv
targets: [complexity]
check_header: true
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/data", cfg.DataDir)
	assert.Equal(t, []string{"45_11275.42_bw-simulation.csv", "49_81574.52_bw-maven.csv"}, cfg.Files)
	assert.Equal(t, []string{"complexity"}, cfg.Targets)
	assert.Equal(t, DefaultConfig().Predictors, cfg.Predictors)
	assert.False(t, cfg.NoHeader)
	assert.True(t, cfg.CheckHeader)

	require.NoError(t, os.WriteFile(path, []byte("files: [unterminated\n"), 0o644))
	_, err = LoadConfig(path)
	assert.ErrorIs(t, err, ErrConfig)

	_, err = LoadConfig(filepath.Join(dir, "none.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
