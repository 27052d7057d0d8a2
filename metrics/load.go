package metrics

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/kshedden/dstream/dstream"
)

// Reader reads measurement files laid out according to a Schema.
type Reader struct {
	schema Schema

	// If true the first line of a file is a header.
	header bool

	// If true the header names must match the schema's column names.
	matchNames bool

	chunkSize int

	log hclog.Logger
}

// NewReader returns a Reader for files with the given layout.  By
// default the first line of every file is a header whose names are
// not checked.
func NewReader(schema Schema) *Reader {
	return &Reader{
		schema:    schema,
		header:    true,
		chunkSize: 1000,
		log:       hclog.NewNullLogger(),
	}
}

// Header sets whether files start with a header line.
func (r *Reader) Header(header bool) *Reader {
	r.header = header
	return r
}

// MatchNames sets whether the header names must match the schema.
// Columns are always read by position.
func (r *Reader) MatchNames(match bool) *Reader {
	r.matchNames = match
	return r
}

// ChunkSize sets the number of rows parsed at a time.
func (r *Reader) ChunkSize(n int) *Reader {
	r.chunkSize = n
	return r
}

// Log sets the logger.
func (r *Reader) Log(log hclog.Logger) *Reader {
	r.log = log
	return r
}

// ReadFile reads the named file and adds its measurements to b.  It
// returns the number of measurements read.
func (r *Reader) ReadFile(name string, b *Builder) (int, error) {

	fid, err := os.Open(name)
	if err != nil {
		return 0, err
	}
	defer fid.Close()

	n, err := r.Read(fid, b)
	if err != nil {
		return n, fmt.Errorf("%s: %w", name, err)
	}

	r.log.Debug("read measurement file", "file", name, "rows", n)

	return n, nil
}

// Read reads measurements in CSV format from rdr and adds them to b.
// It returns the number of measurements read.  Rows are added only
// after the whole input has been parsed, so b is unchanged if an error
// is returned.
func (r *Reader) Read(rdr io.Reader, b *Builder) (int, error) {

	pos, err := r.schema.Positions()
	if err != nil {
		return 0, err
	}

	br := bufio.NewReader(rdr)

	if r.header {
		line, err := br.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return 0, fmt.Errorf("%w: missing header: %v", ErrSchema, err)
		}
		head, err := csv.NewReader(strings.NewReader(line)).Read()
		if err != nil {
			return 0, fmt.Errorf("%w: malformed header: %v", ErrSchema, err)
		}
		if err := r.schema.CheckWidth(len(head)); err != nil {
			return 0, fmt.Errorf("header: %w", err)
		}
		if r.matchNames {
			if err := r.schema.CheckHeader(head); err != nil {
				return 0, err
			}
		}
	}

	// The width of the first record sets the number of columns parsed.
	first, err := br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, err
	}
	if strings.TrimSpace(first) == "" {
		return 0, nil
	}
	rec, err := csv.NewReader(strings.NewReader(first)).Read()
	if err != nil {
		return 0, fmt.Errorf("%w: row 1: %v", ErrSchema, err)
	}
	if err := r.schema.CheckWidth(len(rec)); err != nil {
		return 0, fmt.Errorf("row 1: %w", err)
	}

	rows, err := r.parse(io.MultiReader(strings.NewReader(first), br), pos, len(rec))
	if err != nil {
		return 0, err
	}

	for _, v := range rows {
		b.Add(measurementOf(v))
	}

	return len(rows), nil
}

// parse reads the body of a file, whose records have width fields.
// Columns past the schema are parsed but never read.  The dstream CSV
// reader panics on malformed input, the panic is returned as an
// ErrSchema error.
func (r *Reader) parse(rdr io.Reader, pos []int, width int) (rows [][]float64, err error) {

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: after %d rows: %v", ErrSchema, len(rows), p)
			rows = nil
		}
	}()

	types := make([]dstream.VarType, width)
	for j := range types {
		name := fmt.Sprintf("_extra%d", j)
		if j < len(r.schema.Columns) {
			name = r.schema.Columns[j].Name
		}
		types[j] = dstream.VarType{Name: name, Type: dstream.Float64}
	}

	da := dstream.FromCSV(rdr).SetTypes(types).ChunkSize(r.chunkSize).Done()

	cols := make([][]float64, len(pos))
	for da.Next() {
		for k, j := range pos {
			cols[k] = da.GetPos(j).([]float64)
		}
		for i := range cols[0] {
			v := make([]float64, len(pos))
			for k := range pos {
				x := cols[k][i]
				if math.IsNaN(x) {
					col := r.schema.Columns[pos[k]].Name
					return nil, fmt.Errorf("%w: row %d: non-numeric value in column %q",
						ErrSchema, len(rows)+1, col)
				}
				v[k] = x
			}
			rows = append(rows, v)
		}
	}

	return rows, nil
}

// Discover returns the names of the CSV files directly under dir,
// sorted.
func Discover(dir string) ([]string, error) {

	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range ents {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	return names, nil
}
