package statmodel

import (
	"errors"
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func data1() ([]string, [][]float64) {
	x := [][]float64{
		{0, 1, 3, 2, 1, 1, 0},
		{1, 1, 1, 1, 1, 1, 1},
		{4, 1, -1, 3, 5, -5, 3},
	}
	return []string{"y", "x1", "x2"}, x
}

func data1b() ([]string, [][]float64) {
	x := [][]float64{
		{0, 1, 3, 2, 1, 1, 0},
		{1, 1, 1, 1, 1, 1, 1},
		{8, 2, -2, 6, 10, -10, 6},
	}
	return []string{"y", "x1", "x2"}, x
}

// A mock model for testing
type Mock struct {
	data [][]float64
	xpos []int
}

func (m *Mock) Dataset() [][]float64 {
	return m.data
}

func (m *Mock) NumParams() int {
	return len(m.xpos)
}

func (m *Mock) NumObs() int {
	return len(m.data[0])
}

func (m *Mock) Xpos() []int {
	return m.xpos
}

func TestResult1(t *testing.T) {

	_, da := data1()
	model := &Mock{
		data: da,
		xpos: []int{1, 2},
	}

	params := []float64{1, 2}
	xnames := []string{"x1", "x2"}
	vcov := []float64{0.25, 0, 0, 1}

	r := NewBaseResults(model, 0, params, xnames, vcov, 5)

	// Test fitted values on the training data.
	fv := []float64{9, 3, -1, 7, 11, -9, 7}
	if !floats.Equal(fv, r.FittedValues(nil)) {
		t.Fail()
	}

	// Test fitted values when passing new data.
	_, da2 := data1b()
	fv = []float64{17, 5, -3, 13, 21, -19, 13}
	if !floats.Equal(fv, r.FittedValues(da2)) {
		t.Fail()
	}

	if !floats.EqualApprox(r.StdErr(), []float64{0.5, 1}, 1e-12) {
		t.Errorf("stderr: %v", r.StdErr())
	}
	if !floats.EqualApprox(r.TValues(), []float64{2, 2}, 1e-12) {
		t.Errorf("tvalues: %v", r.TValues())
	}

	// Two-sided t(5) p-value for |t| = 2 is 0.10194
	pv := r.PValues()
	if math.Abs(pv[0]-0.101939) > 1e-5 || math.Abs(pv[1]-pv[0]) > 1e-12 {
		t.Errorf("pvalues: %v", pv)
	}

	// t(5) 0.975 quantile is 2.5706
	lcb, ucb := r.ConfInt(0.05)
	if math.Abs(lcb[0]-(1-0.5*2.570582)) > 1e-5 || math.Abs(ucb[1]-(2+2.570582)) > 1e-5 {
		t.Errorf("confint: %v %v", lcb, ucb)
	}
}

func TestResultNoVcov(t *testing.T) {

	_, da := data1()
	model := &Mock{data: da, xpos: []int{1, 2}}
	r := NewBaseResults(model, 0, []float64{1, 2}, []string{"x1", "x2"}, nil, 5)

	if r.StdErr() != nil || r.TValues() != nil || r.PValues() != nil {
		t.Fail()
	}
	if lcb, ucb := r.ConfInt(0.05); lcb != nil || ucb != nil {
		t.Fail()
	}
}

func TestGetVcov(t *testing.T) {

	// X'X = [[2, 0], [0, 8]]
	x := mat.NewDense(2, 2, []float64{1, 2, 1, -2})
	vcov, err := GetVcov(x, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.EqualApprox(vcov, []float64{1, 0, 0, 0.25}, 1e-12) {
		t.Errorf("vcov: %v", vcov)
	}

	// Collinear columns
	x = mat.NewDense(3, 2, []float64{1, 2, 1, 2, 1, 2})
	if _, err := GetVcov(x, 1); !errors.Is(err, ErrSingular) {
		t.Errorf("expected ErrSingular, got %v", err)
	}
}

func TestSummaryTable(t *testing.T) {

	tab := &SummaryTable{
		Title:    "Test results",
		Top:      []string{"Dep:  y", "N:  7", "R2:  0.5"},
		ColNames: []string{"", "coef", "P>|t|"},
		ColFmt:   []Fmter{FmtString, FmtFloat, FmtPValue},
		Cols: []interface{}{
			[]string{"const", "x"},
			[]float64{1.5, -2},
			[]float64{0.01, 0.5},
		},
		Bottom: []string{"Skew:  0.1", "Kurtosis:  3.0"},
		Msg:    []string{"a note"},
	}

	s := tab.String()
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")

	if strings.TrimSpace(lines[0]) != "Test results" {
		t.Errorf("title line: %q", lines[0])
	}
	for _, want := range []string{"const", "1.5000", "-2.0000", "0.010", "Kurtosis:  3.0", "a note", "R2:  0.5"} {
		if !strings.Contains(s, want) {
			t.Errorf("summary missing %q:\n%s", want, s)
		}
	}
	if lines[len(lines)-1] != "a note" {
		t.Errorf("last line: %q", lines[len(lines)-1])
	}

	// All rules have the table width.
	var w int
	for _, l := range lines {
		if strings.Trim(l, "=") == "" || strings.Trim(l, "-") == "" {
			if w == 0 {
				w = len(l)
			} else if len(l) != w {
				t.Errorf("ragged rule %q", l)
			}
		}
	}
}
