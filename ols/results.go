package ols

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/socialsoftware/metricreg/statmodel"
)

// OLSResults describes the results of a fitted OLS model.
type OLSResults struct {
	statmodel.BaseResults

	ols *OLS

	// aliased[k] is true if covariate k was dropped as collinear.
	aliased []bool

	// Rank of the design, the number of non-aliased covariates.
	rank int

	// 1 if the design contains a constant column, 0 otherwise.
	kconst int

	// Residual and total sums of squares
	ssr float64
	tss float64

	fitted []float64
	resid  []float64

	// Condition number of the non-aliased design
	cond float64
}

var _ statmodel.BaseResultser = (*OLSResults)(nil)

// NumObs returns the number of observations used in the fit.
func (rslt *OLSResults) NumObs() int {
	return len(rslt.resid)
}

// Aliased reports, per parameter, whether the covariate was dropped
// because it is a linear combination of the covariates before it.
func (rslt *OLSResults) Aliased() []bool {
	return rslt.aliased
}

// Rank returns the rank of the design matrix.
func (rslt *OLSResults) Rank() int {
	return rslt.rank
}

// Resid returns the residuals.
func (rslt *OLSResults) Resid() []float64 {
	return rslt.resid
}

// Fitted returns the fitted values.
func (rslt *OLSResults) Fitted() []float64 {
	return rslt.fitted
}

// SSR returns the residual sum of squares.
func (rslt *OLSResults) SSR() float64 {
	return rslt.ssr
}

// Scale returns the estimated error variance.
func (rslt *OLSResults) Scale() float64 {
	return rslt.ssr / rslt.DFResid()
}

// DFModel returns the model degrees of freedom, not counting the intercept.
func (rslt *OLSResults) DFModel() float64 {
	return float64(rslt.rank - rslt.kconst)
}

// Rsquared returns the coefficient of determination.  The total sum
// of squares is centered if the model has an intercept.
func (rslt *OLSResults) Rsquared() float64 {
	return 1 - rslt.ssr/rslt.tss
}

// RsquaredAdj returns the R-squared adjusted for the number of covariates.
func (rslt *OLSResults) RsquaredAdj() float64 {
	n := float64(rslt.NumObs())
	return 1 - (n-float64(rslt.kconst))/rslt.DFResid()*(1-rslt.Rsquared())
}

// FValue returns the F statistic for the hypothesis that all
// coefficients other than the intercept are zero.
func (rslt *OLSResults) FValue() float64 {
	dfm := rslt.DFModel()
	dfr := rslt.DFResid()
	if dfm <= 0 || dfr <= 0 {
		return math.NaN()
	}
	ess := rslt.tss - rslt.ssr
	return (ess / dfm) / (rslt.ssr / dfr)
}

// FPValue returns the p-value of the F statistic.
func (rslt *OLSResults) FPValue() float64 {
	f := rslt.FValue()
	switch {
	case math.IsNaN(f):
		return math.NaN()
	case math.IsInf(f, 1):
		return 0
	}
	return distuv.F{D1: rslt.DFModel(), D2: rslt.DFResid()}.Survival(f)
}

// AIC returns the Akaike information criterion.
func (rslt *OLSResults) AIC() float64 {
	return -2*rslt.LogLike() + 2*float64(rslt.rank)
}

// BIC returns the Bayesian information criterion.
func (rslt *OLSResults) BIC() float64 {
	n := float64(rslt.NumObs())
	return -2*rslt.LogLike() + math.Log(n)*float64(rslt.rank)
}

// CondNo returns the condition number of the non-aliased design matrix.
func (rslt *OLSResults) CondNo() float64 {
	return rslt.cond
}

// Diagnostics holds residual diagnostics for a fitted model.
type Diagnostics struct {

	// D'Agostino-Pearson omnibus normality test
	Omnibus  float64
	OmnibusP float64

	// Skew and (non-excess) kurtosis of the residuals
	Skew     float64
	Kurtosis float64

	DurbinWatson float64

	// Jarque-Bera normality test
	JarqueBera  float64
	JarqueBeraP float64
}

// Diagnostics computes normality and autocorrelation diagnostics of
// the residuals.  Tests that need more observations than are available
// are NaN.
func (rslt *OLSResults) Diagnostics() Diagnostics {

	resid := rslt.resid
	n := float64(len(resid))

	m2 := stat.Moment(2, resid, nil)
	skew := stat.Moment(3, resid, nil) / math.Pow(m2, 1.5)
	kurt := stat.Moment(4, resid, nil) / (m2 * m2)

	chi2 := distuv.ChiSquared{K: 2}

	jb := n / 6 * (skew*skew + (kurt-3)*(kurt-3)/4)

	omni := math.NaN()
	if len(resid) >= 8 {
		zs := skewZ(skew, n)
		zk := kurtosisZ(kurt, n)
		omni = zs*zs + zk*zk
	}

	var dw float64
	for i := 1; i < len(resid); i++ {
		d := resid[i] - resid[i-1]
		dw += d * d
	}
	dw /= rslt.ssr

	return Diagnostics{
		Omnibus:      omni,
		OmnibusP:     survival(chi2, omni),
		Skew:         skew,
		Kurtosis:     kurt,
		DurbinWatson: dw,
		JarqueBera:   jb,
		JarqueBeraP:  survival(chi2, jb),
	}
}

// survival returns the upper tail probability of x, or NaN if x is
// not a number.
func survival(d distuv.ChiSquared, x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return math.NaN()
	}
	return d.Survival(x)
}

// skewZ transforms the sample skew b to an approximately standard
// normal statistic (D'Agostino, 1970).
func skewZ(b, n float64) float64 {
	y := b * math.Sqrt((n+1)*(n+3)/(6*(n-2)))
	beta2 := 3 * (n*n + 27*n - 70) * (n + 1) * (n + 3) /
		((n - 2) * (n + 5) * (n + 7) * (n + 9))
	w2 := -1 + math.Sqrt(2*(beta2-1))
	delta := 1 / math.Sqrt(0.5*math.Log(w2))
	alpha := math.Sqrt(2 / (w2 - 1))
	if y == 0 {
		y = 1
	}
	return delta * math.Log(y/alpha+math.Sqrt((y/alpha)*(y/alpha)+1))
}

// kurtosisZ transforms the sample kurtosis b to an approximately
// standard normal statistic (Anscombe and Glynn, 1983).
func kurtosisZ(b, n float64) float64 {
	e := 3 * (n - 1) / (n + 1)
	varb := 24 * n * (n - 2) * (n - 3) / ((n + 1) * (n + 1) * (n + 3) * (n + 5))
	x := (b - e) / math.Sqrt(varb)
	sb1 := 6 * (n*n - 5*n + 2) / ((n + 7) * (n + 9)) *
		math.Sqrt(6*(n+3)*(n+5)/(n*(n-2)*(n-3)))
	a := 6 + 8/sb1*(2/sb1+math.Sqrt(1+4/(sb1*sb1)))
	term1 := 1 - 2/(9*a)
	denom := 1 + x*math.Sqrt(2/(a-4))
	if denom == 0 {
		return math.NaN()
	}
	term2 := math.Copysign(math.Cbrt((1-2/a)/math.Abs(denom)), denom)
	return (term1 - term2) / math.Sqrt(2/(9*a))
}
