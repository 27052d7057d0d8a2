package ols

import (
	"errors"
	"fmt"
	"math"

	"github.com/hashicorp/go-hclog"
	"github.com/kshedden/dstream/dstream"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/socialsoftware/metricreg/statmodel"
)

// ConstName is the name given to the intercept column added by AddConstant.
const ConstName = "const"

// ErrRankDeficient is returned by Fit when the data do not determine
// the coefficients, e.g. when there are fewer observations than
// parameters.
var ErrRankDeficient = errors.New("ols: rank deficient design")

// OLS represents a linear model fit by ordinary least squares.
type OLS struct {
	data dstream.Dstream

	// Name and position of the outcome variable
	yname string
	ypos  int

	// Names of the covariates, if empty all variables other than
	// the outcome are covariates.
	xnames []string

	// Positions of the covariates in da
	xpos []int

	// If true, an intercept column is placed before the covariates.
	constant bool

	// The data read from the stream, da[j][i] is observation i of
	// variable j.  The intercept, if present, is the last column.
	da    [][]float64
	names []string

	// Relative tolerance used to detect covariates that are
	// linearly dependent on the covariates preceding them.
	tol float64

	log hclog.Logger

	done bool
}

// NewOLS creates a new OLS model for the outcome yname.  Set the
// covariates and other options with the chained methods, then call
// Done before Fit.
func NewOLS(data dstream.Dstream, yname string) *OLS {
	return &OLS{
		data:  data,
		yname: yname,
		tol:   1e-7,
		log:   hclog.NewNullLogger(),
	}
}

// Covariates sets the names of the covariates, in order.
func (m *OLS) Covariates(names ...string) *OLS {
	m.xnames = names
	return m
}

// AddConstant adds an intercept, a column of ones, as the first
// covariate.
func (m *OLS) AddConstant() *OLS {
	m.constant = true
	return m
}

// Tolerance sets the relative tolerance used to detect aliased
// covariates.
func (m *OLS) Tolerance(tol float64) *OLS {
	m.tol = tol
	return m
}

// Log sets the logger used while fitting.
func (m *OLS) Log(log hclog.Logger) *OLS {
	m.log = log
	return m
}

func (m *OLS) findvars() {

	m.ypos = -1
	m.xpos = m.xpos[0:0]

	pos := make(map[string]int)
	for k, na := range m.data.Names() {
		pos[na] = k
	}

	var ok bool
	if m.ypos, ok = pos[m.yname]; !ok {
		msg := fmt.Sprintf("Outcome variable '%s' not found.", m.yname)
		panic(msg)
	}

	if len(m.xnames) == 0 {
		for k, na := range m.data.Names() {
			if na != m.yname {
				m.xpos = append(m.xpos, k)
			}
		}
		return
	}

	for _, na := range m.xnames {
		k, ok := pos[na]
		if !ok {
			msg := fmt.Sprintf("Covariate '%s' not found.", na)
			panic(msg)
		}
		if k == m.ypos {
			msg := fmt.Sprintf("Variable '%s' is both outcome and covariate.", na)
			panic(msg)
		}
		m.xpos = append(m.xpos, k)
	}
}

// read copies every variable of the stream into memory.
func (m *OLS) read() {

	m.names = append([]string(nil), m.data.Names()...)
	m.da = make([][]float64, len(m.names))

	m.data.Reset()
	for m.data.Next() {
		for j := range m.da {
			x, ok := m.data.GetPos(j).([]float64)
			if !ok {
				msg := fmt.Sprintf("Variable '%s' is not float64.", m.names[j])
				panic(msg)
			}
			m.da[j] = append(m.da[j], x...)
		}
	}
	m.data.Reset()

	if m.constant {
		icept := make([]float64, len(m.da[m.ypos]))
		for i := range icept {
			icept[i] = 1
		}
		m.da = append(m.da, icept)
		m.names = append(m.names, ConstName)
		m.xpos = append([]int{len(m.da) - 1}, m.xpos...)
	}
}

// Done completes definition of the model.  After calling Done the
// model can be fit by calling the Fit method.
func (m *OLS) Done() *OLS {
	m.findvars()
	m.read()
	m.done = true
	return m
}

// NumParams returns the number of covariates in the model, including
// the intercept.
func (m *OLS) NumParams() int {
	return len(m.xpos)
}

// NumObs returns the number of observations.
func (m *OLS) NumObs() int {
	return len(m.da[m.ypos])
}

// Xpos returns the positions of the covariates in Dataset.
func (m *OLS) Xpos() []int {
	return m.xpos
}

// Dataset returns the model data, including the intercept column if
// one was added.
func (m *OLS) Dataset() [][]float64 {
	return m.da
}

// YName returns the name of the outcome variable.
func (m *OLS) YName() string {
	return m.yname
}

// XNames returns the names of the covariates in parameter order.
func (m *OLS) XNames() []string {
	xna := make([]string, len(m.xpos))
	for k, j := range m.xpos {
		xna[k] = m.names[j]
	}
	return xna
}

// alias marks the covariates that are linearly dependent on the
// covariates before them, using Gram-Schmidt orthogonalization.
func (m *OLS) alias() []bool {

	aliased := make([]bool, len(m.xpos))
	var basis [][]float64

	for k, j := range m.xpos {
		x := m.da[j]
		v := make([]float64, len(x))
		copy(v, x)
		for _, q := range basis {
			floats.AddScaled(v, -floats.Dot(q, v), q)
		}

		nx := floats.Norm(x, 2)
		nv := floats.Norm(v, 2)
		if nx == 0 || nv <= m.tol*nx {
			aliased[k] = true
			continue
		}
		floats.Scale(1/nv, v)
		basis = append(basis, v)
	}

	return aliased
}

// hasConstant returns the number of non-aliased covariates that are
// constant and non-zero.
func (m *OLS) hasConstant(aliased []bool) int {
	var kc int
	for k, j := range m.xpos {
		if aliased[k] {
			continue
		}
		x := m.da[j]
		if len(x) > 0 && x[0] != 0 && floats.Max(x) == floats.Min(x) {
			kc++
		}
	}
	if kc > 1 {
		kc = 1
	}
	return kc
}

// Fit estimates the parameters of the model.  Covariates that are
// linear combinations of earlier covariates are aliased: their
// coefficients are zero and their standard errors are NaN.
func (m *OLS) Fit() (*OLSResults, error) {

	if !m.done {
		panic("OLS: Done must be called before Fit.\n")
	}

	nobs := m.NumObs()
	p := m.NumParams()
	if nobs < p {
		return nil, fmt.Errorf("%w: %d observations for %d parameters",
			ErrRankDeficient, nobs, p)
	}

	aliased := m.alias()
	var kept []int
	for k := range m.xpos {
		if !aliased[k] {
			kept = append(kept, k)
		}
	}
	rank := len(kept)
	if rank == 0 {
		return nil, fmt.Errorf("%w: no covariate has variation", ErrRankDeficient)
	}

	xnames := m.XNames()
	for k, a := range aliased {
		if a {
			m.log.Warn("covariate is collinear with preceding covariates, coefficient set to zero",
				"outcome", m.yname, "covariate", xnames[k])
		}
	}

	x := mat.NewDense(nobs, rank, nil)
	for c, k := range kept {
		x.SetCol(c, m.da[m.xpos[k]])
	}
	yda := m.da[m.ypos]
	y := mat.NewVecDense(nobs, append([]float64(nil), yda...))

	var qr mat.QR
	qr.Factorize(x)
	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, y); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRankDeficient, err)
	}

	params := make([]float64, p)
	for c, k := range kept {
		params[k] = beta.AtVec(c)
	}

	var fv mat.VecDense
	fv.MulVec(x, &beta)
	fitted := fv.RawVector().Data
	resid := make([]float64, nobs)
	floats.SubTo(resid, yda, fitted)

	ssr := floats.Dot(resid, resid)
	kconst := m.hasConstant(aliased)

	var tss float64
	if kconst > 0 {
		mn := floats.Sum(yda) / float64(nobs)
		for _, v := range yda {
			tss += (v - mn) * (v - mn)
		}
	} else {
		tss = floats.Dot(yda, yda)
	}

	dfResid := float64(nobs - rank)
	scale := ssr / dfResid

	n := float64(nobs)
	ll := -n/2*math.Log(2*math.Pi) - n/2*math.Log(ssr/n) - n/2

	vcov := make([]float64, p*p)
	for i := range vcov {
		vcov[i] = math.NaN()
	}
	if dfResid > 0 {
		vc, err := statmodel.GetVcov(x, scale)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRankDeficient, err)
		}
		for c1, k1 := range kept {
			for c2, k2 := range kept {
				vcov[k1*p+k2] = vc[c1*rank+c2]
			}
		}
	}

	m.log.Debug("fitted OLS", "outcome", m.yname, "nobs", nobs, "rank", rank, "ssr", ssr)

	return &OLSResults{
		BaseResults: statmodel.NewBaseResults(m, ll, params, xnames, vcov, dfResid),
		ols:         m,
		aliased:     aliased,
		rank:        rank,
		kconst:      kconst,
		ssr:         ssr,
		tss:         tss,
		fitted:      fitted,
		resid:       resid,
		cond:        mat.Cond(x, 2),
	}, nil
}
