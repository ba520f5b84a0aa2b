package export

import (
	"encoding/csv"
	"io"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/sells-group/crimestat/internal/model"
)

// CSVWriter writes detail records as a flat CSV with a header row.
type CSVWriter struct {
	cw     *csv.Writer
	enc    *csvutil.Encoder
	count  int
	closed bool
}

// NewCSVWriter returns a writer that encodes rows to w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	cw := csv.NewWriter(w)
	return &CSVWriter{cw: cw, enc: csvutil.NewEncoder(cw)}
}

// Write appends one row.
func (c *CSVWriter) Write(d model.DetailRecord) error {
	if c.closed {
		return eris.New("csv: write after close")
	}
	if err := c.enc.Encode(d); err != nil {
		return eris.Wrap(err, "csv: encode row")
	}
	c.count++
	return nil
}

// Count returns the number of rows written.
func (c *CSVWriter) Count() int {
	return c.count
}

// Close flushes buffered rows. An empty export still gets its header.
func (c *CSVWriter) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	if c.count == 0 {
		if err := c.enc.EncodeHeader(model.DetailRecord{}); err != nil {
			return eris.Wrap(err, "csv: encode header")
		}
	}
	c.cw.Flush()
	return eris.Wrap(c.cw.Error(), "csv: flush")
}
