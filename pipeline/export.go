package pipeline

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dataURIPrefix = "data:file/csv;base64,"

var (
	ErrInvalidDataURI   = errors.New("invalid csv data uri")
	ErrUnexpectedHeader = errors.New("unexpected export header")
)

// ExportHeader are the columns of the exported forecast
var ExportHeader = []string{"ds", "yhat", "yhat_lower", "yhat_upper"}

// ForecastRow is a single prediction with its interval
type ForecastRow struct {
	DS        time.Time `json:"ds"`
	YHat      float64   `json:"yhat"`
	YHatLower float64   `json:"yhat_lower"`
	YHatUpper float64   `json:"yhat_upper"`
}

// ForecastTable is a sequence of predictions in timeline order
type ForecastTable []ForecastRow

// Filter keeps the rows strictly after maxT
func Filter(rows ForecastTable, maxT time.Time) ForecastTable {
	res := make(ForecastTable, 0, len(rows))
	for _, row := range rows {
		if row.DS.After(maxT) {
			res = append(res, row)
		}
	}
	return res
}

// DateOnly reports whether every timestamp is at midnight
func (ft ForecastTable) DateOnly() bool {
	for _, row := range ft {
		if row.DS.Hour() != 0 || row.DS.Minute() != 0 || row.DS.Second() != 0 || row.DS.Nanosecond() != 0 {
			return false
		}
	}
	return true
}

// Strings formats the rows for display and export
func (ft ForecastTable) Strings() [][]string {
	dateOnly := ft.DateOnly()
	res := make([][]string, 0, len(ft))
	for _, row := range ft {
		res = append(res, []string{
			formatTimestamp(row.DS, dateOnly),
			formatFloat(row.YHat),
			formatFloat(row.YHatLower),
			formatFloat(row.YHatUpper),
		})
	}
	return res
}

// EncodeCSV writes the rows as comma separated text with a header
func EncodeCSV(rows ForecastTable) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(ExportHeader); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows.Strings()); err != nil {
		return nil, fmt.Errorf("unable to write forecast csv, %w", err)
	}
	return buf.Bytes(), nil
}

// DataURI embeds the csv bytes into a base64 data uri usable as a download link
func DataURI(csvBytes []byte) string {
	return dataURIPrefix + base64.StdEncoding.EncodeToString(csvBytes)
}

// DecodeDataURI returns the csv bytes embedded in a data uri
func DecodeDataURI(uri string) ([]byte, error) {
	payload, found := strings.CutPrefix(uri, dataURIPrefix)
	if !found {
		return nil, ErrInvalidDataURI
	}
	res, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w, %w", ErrInvalidDataURI, err)
	}
	return res, nil
}

// DecodeCSV parses an exported forecast back into rows
func DecodeCSV(csvBytes []byte) (ForecastTable, error) {
	records, err := csv.NewReader(bytes.NewReader(csvBytes)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("unable to read forecast csv, %w", err)
	}
	if len(records) == 0 || strings.Join(records[0], ",") != strings.Join(ExportHeader, ",") {
		return nil, ErrUnexpectedHeader
	}

	rows := make(ForecastTable, 0, len(records)-1)
	for i, rec := range records[1:] {
		ts := parseTimestamp(rec[0])
		if !ts.Valid {
			return nil, fmt.Errorf("row %d, %w", i+1, ErrNullTimestamp)
		}
		row := ForecastRow{DS: ts.Time}
		vals := []*float64{&row.YHat, &row.YHatLower, &row.YHatUpper}
		for j, v := range vals {
			*v, err = strconv.ParseFloat(rec[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %s, %w", i+1, ExportHeader[j+1], err)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func formatTimestamp(t time.Time, dateOnly bool) string {
	if dateOnly {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.DateTime)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
