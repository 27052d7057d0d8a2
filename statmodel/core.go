package statmodel

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrSingular is returned when the cross-product of a design matrix
// cannot be inverted.
var ErrSingular = errors.New("statmodel: singular design matrix")

// RegFitter is a regression model that has been fit to data.
type RegFitter interface {

	// Number of parameters in the model.
	NumParams() int

	// Number of observations in the data set
	NumObs() int

	// Positions of the covariates
	Xpos() []int

	// Dataset returns the data columns used to fit the model,
	// Dataset()[j][i] is observation i of variable j.
	Dataset() [][]float64
}

// BaseResultser is a fitted model that can produce results (parameter estimates, etc.).
type BaseResultser interface {
	Model() RegFitter
	Names() []string
	LogLike() float64
	Params() []float64
	VCov() []float64
	StdErr() []float64
	TValues() []float64
	PValues() []float64
}

// BaseResults contains the results after fitting a model to data.
type BaseResults struct {
	model   RegFitter
	loglike float64
	params  []float64
	xnames  []string
	vcov    []float64

	// Degrees of freedom of the reference t distribution.  When
	// dfResid is not positive the normal distribution is used.
	dfResid float64

	stderr  []float64
	tvalues []float64
	pvalues []float64
}

// NewBaseResults returns a BaseResults corresponding to the given
// fitted model.  The vcov argument is the vectorized covariance matrix
// of the parameter estimates and may be nil.
func NewBaseResults(model RegFitter, loglike float64, params []float64, xnames []string,
	vcov []float64, dfResid float64) BaseResults {
	return BaseResults{
		model:   model,
		loglike: loglike,
		params:  params,
		xnames:  xnames,
		vcov:    vcov,
		dfResid: dfResid,
	}
}

// Model produces the model value used to produce the results.
func (rslt *BaseResults) Model() RegFitter {
	return rslt.model
}

// FittedValues returns the fitted linear predictor for a regression
// model.  If da is nil, the fitted values are based on the data used
// to fit the model.  Otherwise da must have the same columns as the
// training data.
func (rslt *BaseResults) FittedValues(da [][]float64) []float64 {

	xpos := rslt.model.Xpos()

	if da == nil {
		da = rslt.model.Dataset()
	}

	if len(da) != len(rslt.model.Dataset()) {
		msg := fmt.Sprintf("Data has incorrect number of columns, %d != %d\n",
			len(da), len(rslt.model.Dataset()))
		panic(msg)
	}

	var n int
	if len(xpos) > 0 {
		n = len(da[xpos[0]])
	}

	fv := make([]float64, n)
	for k, j := range xpos {
		for i, x := range da[j] {
			fv[i] += rslt.params[k] * x
		}
	}

	return fv
}

// Names returns the covariate names for the variables in the model.
func (rslt *BaseResults) Names() []string {
	return rslt.xnames
}

// Params returns the point estimates for the parameters in the model.
func (rslt *BaseResults) Params() []float64 {
	return rslt.params
}

// VCov returns the sampling variance/covariance matrix for the
// parameters in the model, vectorized to one dimension.
func (rslt *BaseResults) VCov() []float64 {
	return rslt.vcov
}

// LogLike returns the log-likelihood for the fitted model.
func (rslt *BaseResults) LogLike() float64 {
	return rslt.loglike
}

// DFResid returns the residual degrees of freedom.
func (rslt *BaseResults) DFResid() float64 {
	return rslt.dfResid
}

// StdErr returns the standard errors for the parameters in the model.
func (rslt *BaseResults) StdErr() []float64 {

	// No vcov, no standard error
	if rslt.vcov == nil {
		return nil
	}

	if rslt.stderr != nil {
		return rslt.stderr
	}

	p := len(rslt.params)
	rslt.stderr = make([]float64, p)
	for i := range rslt.stderr {
		rslt.stderr[i] = math.Sqrt(rslt.vcov[i*p+i])
	}

	return rslt.stderr
}

// TValues returns the parameter estimates divided by their standard errors.
func (rslt *BaseResults) TValues() []float64 {

	if rslt.vcov == nil {
		return nil
	}

	if rslt.tvalues != nil {
		return rslt.tvalues
	}

	std := rslt.StdErr()
	rslt.tvalues = make([]float64, len(std))
	for i := range std {
		rslt.tvalues[i] = rslt.params[i] / std[i]
	}

	return rslt.tvalues
}

// dist is a continuous reference distribution.
type dist interface {
	CDF(float64) float64
	Quantile(float64) float64
}

// refDist returns the reference distribution for the t statistics.
func (rslt *BaseResults) refDist() dist {
	if rslt.dfResid > 0 {
		return distuv.StudentsT{Mu: 0, Sigma: 1, Nu: rslt.dfResid}
	}
	return distuv.UnitNormal
}

// PValues returns the two-sided p-values for the null hypothesis that
// each parameter's population value is equal to zero.
func (rslt *BaseResults) PValues() []float64 {

	if rslt.vcov == nil {
		return nil
	}

	if rslt.pvalues != nil {
		return rslt.pvalues
	}

	ref := rslt.refDist()
	tv := rslt.TValues()
	rslt.pvalues = make([]float64, len(tv))
	for i, t := range tv {
		rslt.pvalues[i] = 2 * ref.CDF(-math.Abs(t))
	}

	return rslt.pvalues
}

// ConfInt returns the lower and upper limits of the 1-alpha
// confidence intervals of the parameters.
func (rslt *BaseResults) ConfInt(alpha float64) ([]float64, []float64) {

	std := rslt.StdErr()
	if std == nil {
		return nil, nil
	}

	q := rslt.refDist().Quantile(1 - alpha/2)
	lcb := make([]float64, len(std))
	ucb := make([]float64, len(std))
	for i, s := range std {
		lcb[i] = rslt.params[i] - q*s
		ucb[i] = rslt.params[i] + q*s
	}

	return lcb, ucb
}

// GetVcov returns scale * (X'X)^-1 for the design matrix x, vectorized.
func GetVcov(x mat.Matrix, scale float64) ([]float64, error) {

	_, p := x.Dims()

	var xtx mat.SymDense
	xtx.SymOuterK(1, x.T())

	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); !ok {
		return nil, ErrSingular
	}

	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	vcov := make([]float64, p*p)
	for i := 0; i < p; i++ {
		for j := 0; j < p; j++ {
			vcov[i*p+j] = scale * inv.At(i, j)
		}
	}

	return vcov, nil
}

// SummaryTable holds the summary values for a fitted model.
type SummaryTable struct {

	// Title
	Title string

	// Column names
	ColNames []string

	// Formatters for the column values
	ColFmt []Fmter

	// Cols[j] is the j^th column.  Its concrete type should
	// be a slice, e.g. of numbers or strings.
	Cols []interface{}

	// Key/value cells shown above the table, two per line
	Top []string

	// Key/value cells shown below the table, two per line
	Bottom []string

	// Messages displayed below the table
	Msg []string

	// Total width of the table
	tw int
}

// Fmter formats the elements of a slice of values.
type Fmter func(interface{}, string) []string

// FmtString left-aligns a []string column to a common width.
func FmtString(x interface{}, h string) []string {
	y := x.([]string)
	m := len(h)
	for _, s := range y {
		if len(s) > m {
			m = len(s)
		}
	}
	z := make([]string, len(y))
	for i, s := range y {
		z[i] = fmt.Sprintf("%-*s", m, s)
	}
	return z
}

// FmtFloat formats a []float64 column with four decimals.
func FmtFloat(x interface{}, h string) []string {
	y := x.([]float64)
	z := make([]string, len(y))
	for i, v := range y {
		z[i] = fmt.Sprintf("%11.4f", v)
	}
	return z
}

// FmtPValue formats a []float64 column of p-values with three decimals.
func FmtPValue(x interface{}, h string) []string {
	y := x.([]float64)
	z := make([]string, len(y))
	for i, v := range y {
		z[i] = fmt.Sprintf("%8.3f", v)
	}
	return z
}

// Draw a line constructed of the given character filling the width of
// the table.
func (s *SummaryTable) line(c string) string {
	return strings.Repeat(c, s.tw) + "\n"
}

// grid lays out key/value cells two per line, with each of the two
// grid columns padded to the width of its widest cell.
func grid(cells []string, gap int) string {

	w := []int{0, 0}
	for j, x := range cells {
		if len(x) > w[j%2] {
			w[j%2] = len(x)
		}
	}

	var b strings.Builder
	for j, x := range cells {
		if j%2 == 1 {
			b.WriteString(strings.TrimRight(x, " "))
			b.WriteString("\n")
			continue
		}
		fmt.Fprintf(&b, "%-*s", w[0], x)
		b.WriteString(strings.Repeat(" ", gap))
	}

	if len(cells)%2 == 1 {
		b.WriteString("\n")
	}

	return b.String()
}

// gridWidth returns the width of the widest line produced by grid.
func gridWidth(cells []string, gap int) int {
	w := []int{0, 0}
	for j, x := range cells {
		if len(x) > w[j%2] {
			w[j%2] = len(x)
		}
	}
	return w[0] + gap + w[1]
}

// String returns the table as a string.
func (s *SummaryTable) String() string {

	var tab [][]string
	var wx []int
	for j, c := range s.Cols {
		u := s.ColFmt[j](c, s.ColNames[j])
		tab = append(tab, u)
		w := len(s.ColNames[j])
		for _, v := range u {
			if len(v) > w {
				w = len(v)
			}
		}
		wx = append(wx, w+1)
	}

	gap := 6

	// Get the total width of the table
	s.tw = 0
	for _, w := range wx {
		s.tw += w
	}
	if s.tw < len(s.Title) {
		s.tw = len(s.Title)
	}
	for _, cells := range [][]string{s.Top, s.Bottom} {
		if w := gridWidth(cells, gap); s.tw < w {
			s.tw = w
		}
	}

	var buf strings.Builder

	// Center the title
	kr := (s.tw - len(s.Title)) / 2
	if kr < 0 {
		kr = 0
	}
	buf.WriteString(strings.Repeat(" ", kr))
	buf.WriteString(s.Title)
	buf.WriteString("\n")

	buf.WriteString(s.line("="))
	if len(s.Top) > 0 {
		buf.WriteString(grid(s.Top, gap))
		buf.WriteString(s.line("="))
	}

	for j, c := range s.ColNames {
		if j == 0 {
			fmt.Fprintf(&buf, "%-*s", wx[j], c)
		} else {
			fmt.Fprintf(&buf, "%*s", wx[j], c)
		}
	}
	buf.WriteString("\n")
	buf.WriteString(s.line("-"))

	nrow := 0
	if len(tab) > 0 {
		nrow = len(tab[0])
	}
	for i := 0; i < nrow; i++ {
		for j := range tab {
			if j == 0 {
				fmt.Fprintf(&buf, "%-*s", wx[j], tab[j][i])
			} else {
				fmt.Fprintf(&buf, "%*s", wx[j], tab[j][i])
			}
		}
		buf.WriteString("\n")
	}
	buf.WriteString(s.line("="))

	if len(s.Bottom) > 0 {
		buf.WriteString(grid(s.Bottom, gap))
		buf.WriteString(s.line("="))
	}

	for _, msg := range s.Msg {
		buf.WriteString(msg + "\n")
	}

	return buf.String()
}
