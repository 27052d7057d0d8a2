package metrics

import (
	"fmt"

	"github.com/kshedden/dstream/dstream"
)

// Measurement is one row of a measurement file.
type Measurement struct {
	N           float64
	A           float64
	W           float64
	R           float64
	S           float64
	Cohesion    float64
	Coupling    float64
	Complexity  float64
	Performance float64
}

// Values returns the fields of the measurement in FieldNames order.
func (m Measurement) Values() []float64 {
	return []float64{m.N, m.A, m.W, m.R, m.S, m.Cohesion, m.Coupling, m.Complexity, m.Performance}
}

func measurementOf(v []float64) Measurement {
	return Measurement{
		N:           v[0],
		A:           v[1],
		W:           v[2],
		R:           v[3],
		S:           v[4],
		Cohesion:    v[5],
		Coupling:    v[6],
		Complexity:  v[7],
		Performance: v[8],
	}
}

// Builder accumulates measurements into a Table.  A Builder is not
// safe for concurrent use.
type Builder struct {
	cols [][]float64
	done bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		cols: make([][]float64, len(FieldNames)),
	}
}

// Add appends a measurement.
func (b *Builder) Add(m Measurement) {
	if b.done {
		panic("metrics: Add called after Done")
	}
	for j, v := range m.Values() {
		b.cols[j] = append(b.cols[j], v)
	}
}

// Len returns the number of measurements added so far.
func (b *Builder) Len() int {
	return len(b.cols[0])
}

// Done returns the table of all added measurements.  The builder
// cannot be used afterwards.
func (b *Builder) Done() *Table {
	b.done = true
	t := &Table{cols: b.cols}
	b.cols = nil
	return t
}

// Table is an immutable column-oriented set of measurements, in the
// order they were added.
type Table struct {
	cols [][]float64
}

// NumRows returns the number of measurements.
func (t *Table) NumRows() int {
	return len(t.cols[0])
}

// Names returns the column names.
func (t *Table) Names() []string {
	return append([]string(nil), FieldNames...)
}

func fieldPos(name string) (int, error) {
	for j, f := range FieldNames {
		if f == name {
			return j, nil
		}
	}
	return -1, fmt.Errorf("%w: unknown field %q", ErrSchema, name)
}

// Column returns a copy of the named column.
func (t *Table) Column(name string) ([]float64, error) {
	j, err := fieldPos(name)
	if err != nil {
		return nil, err
	}
	return append([]float64(nil), t.cols[j]...), nil
}

// Row returns measurement i.
func (t *Table) Row(i int) Measurement {
	v := make([]float64, len(t.cols))
	for j := range t.cols {
		v[j] = t.cols[j][i]
	}
	return measurementOf(v)
}

// Dstream returns an in-memory dstream holding copies of the named
// columns, or of all columns if no names are given.
func (t *Table) Dstream(names ...string) (dstream.Dstream, error) {

	if len(names) == 0 {
		names = FieldNames
	}

	da := make([]interface{}, len(names))
	for k, na := range names {
		x, err := t.Column(na)
		if err != nil {
			return nil, err
		}
		da[k] = x
	}

	return dstream.NewFromFlat(da, append([]string(nil), names...)), nil
}
