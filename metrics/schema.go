package metrics

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSchema is returned when input does not match the expected columns.
	ErrSchema = errors.New("metrics: input does not match schema")

	// ErrEmpty is returned when no measurements were read.
	ErrEmpty = errors.New("metrics: no measurements")
)

// Field names of a measurement, in table order.
const (
	FieldN           = "n"
	FieldA           = "A"
	FieldW           = "W"
	FieldR           = "R"
	FieldS           = "S"
	FieldCohesion    = "cohesion"
	FieldCoupling    = "coupling"
	FieldComplexity  = "complexity"
	FieldPerformance = "performance"
)

// FieldNames lists the measurement fields in the order used by tables.
var FieldNames = []string{
	FieldN, FieldA, FieldW, FieldR, FieldS,
	FieldCohesion, FieldCoupling, FieldComplexity, FieldPerformance,
}

// Column is one column of a measurement file.
type Column struct {

	// Name is the expected header of the column.
	Name string

	// Field is the measurement field read from the column.  Columns
	// with an empty Field are not read into measurements.
	Field string
}

// Schema describes the columns of a measurement file, in file order.
type Schema struct {
	Columns []Column
}

// DefaultSchema returns the layout written by the decomposition
// evaluator: the cluster count and the four similarity weights, the
// cohesion and coupling of the decomposition, and the raw and the
// "p"-prefixed variants of complexity and performance.  Only the
// "p"-prefixed variants are analyzed.
func DefaultSchema() Schema {
	return Schema{
		Columns: []Column{
			{Name: "n", Field: FieldN},
			{Name: "A", Field: FieldA},
			{Name: "W", Field: FieldW},
			{Name: "R", Field: FieldR},
			{Name: "S", Field: FieldS},
			{Name: "cohesion", Field: FieldCohesion},
			{Name: "coupling", Field: FieldCoupling},
			{Name: "complexity"},
			{Name: "pComplexity", Field: FieldComplexity},
			{Name: "performance"},
			{Name: "pPerformance", Field: FieldPerformance},
		},
	}
}

// Positions returns, for each entry of FieldNames, the position of
// the column holding it.
func (s Schema) Positions() ([]int, error) {

	pos := make(map[string]int)
	for j, c := range s.Columns {
		if c.Field == "" {
			continue
		}
		if _, ok := pos[c.Field]; ok {
			return nil, fmt.Errorf("%w: field %q mapped twice", ErrSchema, c.Field)
		}
		pos[c.Field] = j
	}

	var ix []int
	for _, f := range FieldNames {
		j, ok := pos[f]
		if !ok {
			return nil, fmt.Errorf("%w: no column for field %q", ErrSchema, f)
		}
		ix = append(ix, j)
	}

	return ix, nil
}

// CheckWidth verifies that a record with n fields holds every column
// of the schema.  Extra trailing fields are allowed.
func (s Schema) CheckWidth(n int) error {
	if n < len(s.Columns) {
		return fmt.Errorf("%w: %d columns, expected at least %d", ErrSchema, n, len(s.Columns))
	}
	return nil
}

// CheckHeader verifies that a header row names the schema's columns
// in order.  Names are compared case-insensitively; extra trailing
// columns are allowed.
func (s Schema) CheckHeader(header []string) error {

	if err := s.CheckWidth(len(header)); err != nil {
		return err
	}

	for j, c := range s.Columns {
		got := strings.TrimSpace(header[j])
		if !strings.EqualFold(got, c.Name) {
			return fmt.Errorf("%w: column %d is %q, expected %q", ErrSchema, j, got, c.Name)
		}
	}

	return nil
}
