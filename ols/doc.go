/*
Package ols fits linear models by ordinary least squares.

The data are provided to the models using the dstream package, see
http://github.com/kshedden/dstream.  A model is defined by chaining
methods on the value returned by NewOLS, then calling Done:

	model := ols.NewOLS(data, "complexity").Covariates("n", "A", "W", "R", "S").AddConstant().Done()
	rslt, err := model.Fit()
	if err != nil {
		...
	}
	fmt.Print(rslt.Summary())
*/
package ols
