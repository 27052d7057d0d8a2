package ols

import (
	"fmt"
	"strings"

	"github.com/socialsoftware/metricreg/statmodel"
)

// OLSSummary summarizes a fitted OLS model.
type OLSSummary struct {
	results *OLSResults

	// Confidence intervals have coverage 1-alpha
	alpha float64

	// Messages that are appended to the table
	messages []string
}

// Summary returns a summary of the model results.
func (rslt *OLSResults) Summary() *OLSSummary {
	return &OLSSummary{
		results: rslt,
		alpha:   0.05,
	}
}

// Alpha sets the level of the confidence intervals.
func (s *OLSSummary) Alpha(alpha float64) *OLSSummary {
	s.alpha = alpha
	return s
}

// Note appends a message to the summary.
func (s *OLSSummary) Note(msg string) *OLSSummary {
	s.messages = append(s.messages, msg)
	return s
}

func kv(key, value string) string {
	return fmt.Sprintf("%-22s%14s", key, value)
}

func kvf(key string, v float64, prec int) string {
	return kv(key, fmt.Sprintf("%.*f", prec, v))
}

// String returns the summary table.
func (s *OLSSummary) String() string {

	rslt := s.results
	dg := rslt.Diagnostics()

	sum := &statmodel.SummaryTable{
		Title: "OLS Regression Results",
	}

	sum.Top = []string{
		kv("Dep. Variable:", rslt.ols.YName()),
		kvf("R-squared:", rslt.Rsquared(), 3),
		kv("Model:", "OLS"),
		kvf("Adj. R-squared:", rslt.RsquaredAdj(), 3),
		kv("Method:", "Least Squares"),
		kv("F-statistic:", fmt.Sprintf("%.4g", rslt.FValue())),
		kv("No. Observations:", fmt.Sprintf("%d", rslt.NumObs())),
		kv("Prob (F-statistic):", fmt.Sprintf("%.3g", rslt.FPValue())),
		kv("Df Residuals:", fmt.Sprintf("%.0f", rslt.DFResid())),
		kv("Log-Likelihood:", fmt.Sprintf("%.5g", rslt.LogLike())),
		kv("Df Model:", fmt.Sprintf("%.0f", rslt.DFModel())),
		kv("AIC:", fmt.Sprintf("%.4g", rslt.AIC())),
		kv("Covariance Type:", "nonrobust"),
		kv("BIC:", fmt.Sprintf("%.4g", rslt.BIC())),
	}

	lo := fmt.Sprintf("[%g", s.alpha/2)
	hi := fmt.Sprintf("%g]", 1-s.alpha/2)
	sum.ColNames = []string{"", "coef", "std err", "t", "P>|t|", lo, hi}
	sum.ColFmt = []statmodel.Fmter{statmodel.FmtString, statmodel.FmtFloat, statmodel.FmtFloat,
		statmodel.FmtFloat, statmodel.FmtPValue, statmodel.FmtFloat, statmodel.FmtFloat}

	lcb, ucb := rslt.ConfInt(s.alpha)
	sum.Cols = []interface{}{
		rslt.Names(),
		rslt.Params(),
		rslt.StdErr(),
		rslt.TValues(),
		rslt.PValues(),
		lcb,
		ucb,
	}

	sum.Bottom = []string{
		kvf("Omnibus:", dg.Omnibus, 3),
		kvf("Durbin-Watson:", dg.DurbinWatson, 3),
		kvf("Prob(Omnibus):", dg.OmnibusP, 3),
		kvf("Jarque-Bera (JB):", dg.JarqueBera, 3),
		kvf("Skew:", dg.Skew, 3),
		kv("Prob(JB):", fmt.Sprintf("%.3g", dg.JarqueBeraP)),
		kvf("Kurtosis:", dg.Kurtosis, 3),
		kv("Cond. No.", fmt.Sprintf("%.3g", rslt.CondNo())),
	}

	var msg []string
	var alias []string
	for k, a := range rslt.Aliased() {
		if a {
			alias = append(alias, rslt.Names()[k])
		}
	}
	if len(alias) > 0 {
		msg = append(msg, fmt.Sprintf("Covariates collinear with preceding covariates, coefficients fixed at zero: %s",
			strings.Join(alias, ", ")))
	}
	if rslt.DFResid() == 0 {
		msg = append(msg, "The model interpolates the data exactly, standard errors are undefined.")
	}
	if rslt.NumObs() < 8 {
		msg = append(msg, "The omnibus test requires at least 8 observations.")
	}
	msg = append(msg, s.messages...)
	if len(msg) > 0 {
		sum.Msg = append([]string{"Notes:"}, msg...)
		for i := 1; i < len(sum.Msg); i++ {
			sum.Msg[i] = fmt.Sprintf("[%d] %s", i, sum.Msg[i])
		}
	}

	return sum.String()
}
