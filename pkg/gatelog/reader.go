// Package gatelog loads checkpoint passage logs: one row per passenger with the
// wall-clock times at gates b1..b5 and the passenger class in column "type".
package gatelog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"Go2GateSpectra/internal/model"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Column names of the input file.
const (
	ColumnClass = "type"
	rowColumn   = "_row"
)

// CheckpointColumns are the timestamp columns in gate order.
var CheckpointColumns = []string{"b1", "b2", "b3", "b4", "b5"}

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// Table is an in-memory passage log. Every cell is kept as text; blank cells are NA.
type Table struct {
	df      dataframe.DataFrame
	rawRows int
}

// Open loads the file at path.
func Open(path string, delimiter rune) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open passage log: %w", err)
	}
	defer f.Close()

	t, err := Read(f, delimiter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Read loads a delimited passage log with a header row.
func Read(r io.Reader, delimiter rune) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = delimiter
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no header row: %w", ErrMissingColumn)
	}

	header := records[0]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	for _, col := range append([]string{ColumnClass}, CheckpointColumns...) {
		if !contains(header, col) {
			return nil, fmt.Errorf("%w '%s'", ErrMissingColumn, col)
		}
	}

	// Short rows are missing trailing cells, which read as NA.
	for i := 1; i < len(records); i++ {
		switch n := len(records[i]); {
		case n > len(header):
			return nil, fmt.Errorf("record on line %d: %d fields, header has %d", i+1, n, len(header))
		case n < len(header):
			padded := make([]string, len(header))
			copy(padded, records[i])
			records[i] = padded
		}
	}

	if len(records) == 1 {
		return &Table{df: emptyFrame(header)}, nil
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{"", "NA", "NaN", "<nil>"}),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("failed to load records: %w", df.Err)
	}

	rows := make([]int, df.Nrow())
	for i := range rows {
		rows[i] = i + 1
	}
	df = df.Mutate(series.New(rows, series.Int, rowColumn))
	if df.Err != nil {
		return nil, fmt.Errorf("failed to number rows: %w", df.Err)
	}

	return &Table{df: df, rawRows: df.Nrow()}, nil
}

func emptyFrame(header []string) dataframe.DataFrame {
	cols := make([]series.Series, 0, len(header)+1)
	for _, name := range header {
		cols = append(cols, series.New([]string{}, series.String, name))
	}
	cols = append(cols, series.New([]int{}, series.Int, rowColumn))
	return dataframe.New(cols...)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Clean returns a table without the rows whose checkpoint 5 is blank. Cleaning
// a clean table is a no-op.
func (t *Table) Clean() (*Table, error) {
	if t.df.Nrow() == 0 {
		return t, nil
	}
	exit := CheckpointColumns[len(CheckpointColumns)-1]
	df := t.df.Filter(dataframe.F{
		Colname:    exit,
		Comparator: series.CompFunc,
		Comparando: func(el series.Element) bool {
			return !el.IsNA() && strings.TrimSpace(el.String()) != ""
		},
	})
	if df.Err != nil {
		return nil, fmt.Errorf("failed to drop incomplete rows: %w", df.Err)
	}
	return &Table{df: df, rawRows: t.rawRows}, nil
}

// Len is the number of rows currently in the table.
func (t *Table) Len() int { return t.df.Nrow() }

// RawRows is the number of data rows read from the source.
func (t *Table) RawRows() int { return t.rawRows }

// Column returns the text of one column; NA cells are empty strings.
func (t *Table) Column(name string) []string {
	if t.df.Nrow() == 0 {
		return nil
	}
	col := t.df.Col(name)
	out := make([]string, col.Len())
	for i := range out {
		el := col.Elem(i)
		if el.IsNA() {
			continue
		}
		out[i] = el.String()
	}
	return out
}

// Records converts the table into passenger records with the raw checkpoint
// text set. Derived fields are left zero.
func (t *Table) Records() []model.PassengerRecord {
	n := t.df.Nrow()
	if n == 0 {
		return nil
	}
	recs := make([]model.PassengerRecord, n)

	rows, _ := t.df.Col(rowColumn).Int()
	classes := t.Column(ColumnClass)
	for i := range recs {
		recs[i].Row = rows[i]
		recs[i].Class = model.PassengerClass(strings.TrimSpace(classes[i]))
	}
	for c, name := range CheckpointColumns {
		for i, text := range t.Column(name) {
			recs[i].Checkpoints[c] = text
		}
	}
	return recs
}
