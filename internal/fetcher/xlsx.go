package fetcher

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/crimestat/internal/model"
)

// XLSXOptions selects the worksheet holding the incident table.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
}

// XLSXRecordReader decodes worksheet rows into model.RawRecord by header
// name. The first row of the sheet is the header.
type XLSXRecordReader struct {
	rows   []*xlsx.Row
	header []string
	index  [numColumns]int
	pos    int
}

// NewXLSXRecordReader opens the workbook at path and indexes its header row.
func NewXLSXRecordReader(path string, opts XLSXOptions) (*XLSXRecordReader, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, &SourceError{Path: path, Err: eris.Wrap(err, "xlsx: open file")}
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) == 0 {
		return nil, ErrNoHeader
	}

	header := rowToStrings(sheet.Rows[0])
	return &XLSXRecordReader{
		rows:   sheet.Rows,
		header: header,
		index:  indexHeader(header),
		pos:    1,
	}, nil
}

// Header returns the header row.
func (xr *XLSXRecordReader) Header() []string {
	return xr.header
}

// Missing returns the preferred names of the fields the header lacks.
func (xr *XLSXRecordReader) Missing() []string {
	return missingColumns(&xr.index)
}

// Line returns the number of rows consumed so far, header included.
func (xr *XLSXRecordReader) Line() int {
	return xr.pos
}

// Next returns the next record or io.EOF.
func (xr *XLSXRecordReader) Next() (model.RawRecord, error) {
	for xr.pos < len(xr.rows) {
		row := xr.rows[xr.pos]
		xr.pos++
		if row == nil || len(row.Cells) == 0 {
			continue
		}
		return decodeRow(&xr.index, rowToStrings(row)), nil
	}
	return model.RawRecord{}, io.EOF
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex < 0 || opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("xlsx: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}

	return f.Sheets[opts.SheetIndex], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
