// Package importer reads employee flight lists from spreadsheets. It maps the
// header row onto canonical field names through a table of aliases and
// returns one Row per non-blank data line. Validation of the values is left
// to the caller.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Canonical field names.
const (
	FieldEmployee      = "employee_name"
	FieldFlightNumber  = "flight_number"
	FieldDepartureTime = "departure_time"
	FieldOrigin        = "origin"
	FieldDestination   = "destination"
)

var (
	// ErrUnsupportedFormat is returned for extensions other than csv/xlsx/xlsm.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrNoHeader is returned when the file has no header row.
	ErrNoHeader = errors.New("file has no header row")
	// ErrMissingColumns is returned when required columns cannot be located.
	ErrMissingColumns = errors.New("missing required columns")
)

// aliases maps a folded header (lowercase, no spaces or underscores) to its
// canonical field.
var aliases = map[string]string{
	"employeename": FieldEmployee,
	"employee":     FieldEmployee,
	"name":         FieldEmployee,
	"traveler":     FieldEmployee,
	"traveller":    FieldEmployee,
	"passenger":    FieldEmployee,

	"flightnumber": FieldFlightNumber,
	"flight":       FieldFlightNumber,
	"flightno":     FieldFlightNumber,
	"flight#":      FieldFlightNumber,

	"departuretime": FieldDepartureTime,
	"departure":     FieldDepartureTime,
	"departuredate": FieldDepartureTime,
	"date":          FieldDepartureTime,

	"origin":           FieldOrigin,
	"from":             FieldOrigin,
	"departureairport": FieldOrigin,

	"destination":    FieldDestination,
	"to":             FieldDestination,
	"arrivalairport": FieldDestination,
}

var required = []string{FieldEmployee, FieldFlightNumber}

// Row is one data line. Line is the 1-based line number in the source file
// (the header is line 1).
type Row struct {
	Line   int
	Fields map[string]string
}

// Get returns the trimmed value of a canonical field.
func (r Row) Get(field string) string { return strings.TrimSpace(r.Fields[field]) }

// Parse reads a CSV or XLSX document. filename is only used for its
// extension.
func Parse(filename string, r io.Reader) ([]Row, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return parseCSV(r)
	case ".xlsx", ".xlsm":
		return parseXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

func foldHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "\ufeff")
	return strings.NewReplacer(" ", "", "_", "", "-", "", ".", "").Replace(s)
}

// mapHeader returns column index -> canonical field. The first column that
// matches a field wins.
func mapHeader(header []string) (map[int]string, error) {
	cols := make(map[int]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		field, ok := aliases[foldHeader(h)]
		if !ok || seen[field] {
			continue
		}
		cols[i] = field
		seen[field] = true
	}
	var missing []string
	for _, f := range required {
		if !seen[f] {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return cols, nil
}

func buildRows(records [][]string, convert func(field, v string) string) ([]Row, error) {
	if len(records) == 0 {
		return nil, ErrNoHeader
	}
	cols, err := mapHeader(records[0])
	if err != nil {
		return nil, err
	}
	var out []Row
	for i, rec := range records[1:] {
		row := Row{Line: i + 2, Fields: make(map[string]string, len(cols))}
		blank := true
		for idx, field := range cols {
			if idx >= len(rec) {
				continue
			}
			v := strings.TrimSpace(rec[idx])
			if v == "" {
				continue
			}
			if convert != nil {
				v = convert(field, v)
			}
			row.Fields[field] = v
			blank = false
		}
		if !blank {
			out = append(out, row)
		}
	}
	return out, nil
}

func parseCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return buildRows(records, nil)
}

func parseXLSX(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoHeader
	}
	records, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read xlsx rows: %w", err)
	}
	return buildRows(records, convertSerialDate)
}

// convertSerialDate turns an Excel date serial in the departure column into
// an RFC3339 timestamp. Other values pass through.
func convertSerialDate(field, v string) string {
	if field != FieldDepartureTime {
		return v
	}
	serial, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return v
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return v
	}
	return t.UTC().Format("2006-01-02T15:04:05Z07:00")
}

// Template returns a CSV header plus one example line, served to users who
// want a starting point for an upload.
func Template() []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"Employee Name", "Flight Number", "Departure Time", "Origin", "Destination"})
	_ = w.Write([]string{"Jane Doe", "AA1234", "2026-01-15 08:30", "JFK", "LAX"})
	w.Flush()
	return buf.Bytes()
}
