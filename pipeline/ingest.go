package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultDelimiter       = ';'
	DefaultTimestampColumn = "ds"
	DefaultValueColumn     = "y"
)

var (
	ErrEmptyUpload   = errors.New("upload has no header row")
	ErrMissingColumn = errors.New("missing required column")
	ErrNullTimestamp = errors.New("found null timestamps")
)

// timestampLayouts are tried in order for every timestamp cell
var timestampLayouts = []string{
	time.DateOnly,
	time.DateTime,
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
}

// IngestOptions names the delimiter and the timestamp and value columns of an upload
type IngestOptions struct {
	Delimiter       rune
	TimestampColumn string
	ValueColumn     string
}

func NewDefaultIngestOptions() IngestOptions {
	return IngestOptions{
		Delimiter:       DefaultDelimiter,
		TimestampColumn: DefaultTimestampColumn,
		ValueColumn:     DefaultValueColumn,
	}
}

func (o *IngestOptions) setDefaults() {
	if o.Delimiter == 0 {
		o.Delimiter = DefaultDelimiter
	}
	if o.TimestampColumn == "" {
		o.TimestampColumn = DefaultTimestampColumn
	}
	if o.ValueColumn == "" {
		o.ValueColumn = DefaultValueColumn
	}
}

// Table is the raw parsed upload
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// NullTime is a timestamp that failed to parse when Valid is false
type NullTime struct {
	Time  time.Time
	Valid bool
}

// Record is a single observation. Value is NaN when the raw value is empty or not numeric.
type Record struct {
	Timestamp NullTime
	Value     float64
	RawValue  string
}

// Dataset is the ingested upload. Records is empty and ColumnErr is set when the timestamp or
// value column is absent, deferring the failure to the fit stage.
type Dataset struct {
	Table         Table
	Records       []Record
	ColumnErr     error
	InvalidValues int

	timestampIdx int
}

// Ingest parses delimited text with a header row. Unparseable timestamps become null timestamps
// and unparseable values become NaN; neither aborts ingestion.
func Ingest(r io.Reader, opt IngestOptions) (*Dataset, error) {
	opt.setDefaults()

	reader := csv.NewReader(r)
	reader.Comma = opt.Delimiter
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyUpload
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read header, %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("unable to read rows, %w", err)
	}

	ds := &Dataset{Table: Table{Columns: header, Rows: rows}}

	tsIdx, valIdx := columnIndex(header, opt.TimestampColumn), columnIndex(header, opt.ValueColumn)
	var missing []string
	if tsIdx < 0 {
		missing = append(missing, opt.TimestampColumn)
	}
	if valIdx < 0 {
		missing = append(missing, opt.ValueColumn)
	}
	if len(missing) > 0 {
		ds.ColumnErr = fmt.Errorf("%s, %w", strings.Join(missing, ", "), ErrMissingColumn)
		return ds, nil
	}

	ds.timestampIdx = tsIdx
	ds.Records = make([]Record, 0, len(rows))
	for _, row := range rows {
		rec := Record{
			Timestamp: parseTimestamp(cell(row, tsIdx)),
			RawValue:  cell(row, valIdx),
		}
		val, valid := parseValue(rec.RawValue)
		if !valid {
			ds.InvalidValues++
		}
		rec.Value = val
		ds.Records = append(ds.Records, rec)
	}
	return ds, nil
}

// MaxTimestamp returns the latest non-null timestamp
func (d *Dataset) MaxTimestamp() (time.Time, bool) {
	var maxT time.Time
	var found bool
	for _, rec := range d.Records {
		if !rec.Timestamp.Valid {
			continue
		}
		if !found || rec.Timestamp.Time.After(maxT) {
			maxT = rec.Timestamp.Time
			found = true
		}
	}
	return maxT, found
}

// DisplayRows returns the raw rows with the timestamp column replaced by the parsed timestamp.
// Null timestamps are shown as NaT.
func (d *Dataset) DisplayRows() [][]string {
	if d.ColumnErr != nil || len(d.Records) != len(d.Table.Rows) {
		return d.Table.Rows
	}

	dateOnly := true
	for _, rec := range d.Records {
		t := rec.Timestamp.Time
		if rec.Timestamp.Valid && (t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0) {
			dateOnly = false
			break
		}
	}

	res := make([][]string, 0, len(d.Table.Rows))
	for i, row := range d.Table.Rows {
		display := make([]string, len(d.Table.Columns))
		copy(display, row)
		display[d.timestampIdx] = "NaT"
		if rec := d.Records[i]; rec.Timestamp.Valid {
			display[d.timestampIdx] = formatTimestamp(rec.Timestamp.Time, dateOnly)
		}
		res = append(res, display)
	}
	return res
}

// NullTimestamps counts the records whose timestamp did not parse
func (d *Dataset) NullTimestamps() int {
	var cnt int
	for _, rec := range d.Records {
		if !rec.Timestamp.Valid {
			cnt++
		}
	}
	return cnt
}

// Series returns the records in chronological order for fitting. It fails on a missing column or
// on any null timestamp.
func (d *Dataset) Series() ([]time.Time, []float64, error) {
	if d.ColumnErr != nil {
		return nil, nil, d.ColumnErr
	}
	if cnt := d.NullTimestamps(); cnt > 0 {
		return nil, nil, fmt.Errorf("%d rows, %w", cnt, ErrNullTimestamp)
	}

	records := make([]Record, len(d.Records))
	copy(records, d.Records)
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Time.Before(records[j].Timestamp.Time)
	})

	t := make([]time.Time, 0, len(records))
	y := make([]float64, 0, len(records))
	for _, rec := range records {
		t = append(t, rec.Timestamp.Time)
		y = append(y, rec.Value)
	}
	return t, y, nil
}

func columnIndex(header []string, name string) int {
	for i, col := range header {
		if col == name {
			return i
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseTimestamp(s string) NullTime {
	if s == "" {
		return NullTime{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NullTime{Time: t, Valid: true}
		}
	}
	return NullTime{}
}

// parseValue reports false for a non-empty value that is not a finite number
func parseValue(s string) (float64, bool) {
	if s == "" {
		return math.NaN(), true
	}
	val, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(val) || math.IsInf(val, 0) {
		return math.NaN(), false
	}
	return val, true
}
