// Package fetcher opens incident datasets and decodes them into raw records.
package fetcher

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/sells-group/crimestat/internal/model"
)

// ErrNoHeader is returned when the input is empty.
var ErrNoHeader = eris.New("csv: input has no header row")

// CSVOptions configures the record reader.
type CSVOptions struct {
	Delimiter  rune   // default ','
	Comment    rune   // comment character (0 = none)
	Charset    string // any WHATWG encoding label; "" or utf-8 reads bytes as-is
	LazyQuotes bool
}

// column identifies a RawRecord field.
type column int

const (
	colCrime column = iota
	colCategory
	colMunicipality
	colNeighborhood
	colDate
	colTime
	colLongitude
	colLatitude
	numColumns
)

// columnAliases lists accepted header names per field, preferred name first.
// Both spellings used by the CDMX open-data dumps are accepted.
var columnAliases = [numColumns][]string{
	colCrime:        {"delito"},
	colCategory:     {"categoria_delito", "categoria"},
	colMunicipality: {"alcaldia_hecho", "alcaldiahechos", "alcaldia"},
	colNeighborhood: {"colonia_hecho", "colonia_datos", "colonia"},
	colDate:         {"fecha_hecho", "fechahecho"},
	colTime:         {"hora_hecho", "horahecho"},
	colLongitude:    {"longitud", "longitude", "lon"},
	colLatitude:     {"latitud", "latitude", "lat"},
}

// RecordReader decodes delimited rows into model.RawRecord by header name.
type RecordReader struct {
	r      *csv.Reader
	header []string
	index  [numColumns]int
	line   int
}

// NewRecordReader reads the header row and prepares the column index.
// Columns absent from the header decode as empty strings.
func NewRecordReader(r io.Reader, opts CSVOptions) (*RecordReader, error) {
	if cs := strings.ToLower(strings.TrimSpace(opts.Charset)); cs != "" && cs != "utf-8" && cs != "utf8" {
		enc, err := htmlindex.Get(cs)
		if err != nil {
			return nil, eris.Wrapf(err, "csv: unsupported charset %q", opts.Charset)
		}
		r = enc.NewDecoder().Reader(r)
	}

	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	if opts.Comment != 0 {
		reader.Comment = opts.Comment
	}
	reader.LazyQuotes = opts.LazyQuotes
	reader.FieldsPerRecord = -1 // allow variable fields
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, eris.Wrap(err, "csv: read header")
	}

	rr := &RecordReader{r: reader, header: append([]string(nil), header...), line: 1}
	rr.index = indexHeader(rr.header)
	return rr, nil
}

func indexHeader(header []string) [numColumns]int {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := byName[name]; !dup {
			byName[name] = i
		}
	}

	var idx [numColumns]int
	for c := column(0); c < numColumns; c++ {
		idx[c] = -1
		for _, alias := range columnAliases[c] {
			if i, ok := byName[alias]; ok {
				idx[c] = i
				break
			}
		}
	}
	return idx
}

// Header returns the header row as read.
func (rr *RecordReader) Header() []string {
	return rr.header
}

// Missing returns the preferred names of the fields the header lacks.
func (rr *RecordReader) Missing() []string {
	return missingColumns(&rr.index)
}

// Line returns the number of rows consumed so far, header included.
func (rr *RecordReader) Line() int {
	return rr.line
}

// Next returns the next record, io.EOF at the end of input, or a *RowError
// for a malformed row. After a RowError the reader continues with the
// following row.
func (rr *RecordReader) Next() (model.RawRecord, error) {
	row, err := rr.r.Read()
	if err == io.EOF {
		return model.RawRecord{}, io.EOF
	}
	rr.line++
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return model.RawRecord{}, &RowError{Line: rr.line, Err: err}
		}
		return model.RawRecord{}, eris.Wrap(err, "csv: read row")
	}

	return decodeRow(&rr.index, row), nil
}

// decodeRow maps a row onto a RawRecord. Missing or short fields decode as "".
func decodeRow(index *[numColumns]int, row []string) model.RawRecord {
	field := func(c column) string {
		i := index[c]
		if i < 0 || i >= len(row) {
			return ""
		}
		return row[i]
	}

	return model.RawRecord{
		Crime:        field(colCrime),
		Category:     field(colCategory),
		Municipality: field(colMunicipality),
		Neighborhood: field(colNeighborhood),
		DateOccurred: field(colDate),
		TimeOccurred: field(colTime),
		Longitude:    field(colLongitude),
		Latitude:     field(colLatitude),
	}
}

// missingColumns returns the preferred names of the fields index lacks.
func missingColumns(index *[numColumns]int) []string {
	var out []string
	for c := column(0); c < numColumns; c++ {
		if index[c] < 0 {
			out = append(out, columnAliases[c][0])
		}
	}
	return out
}
