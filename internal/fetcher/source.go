package fetcher

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/sells-group/crimestat/internal/model"
)

// Source yields raw records until io.EOF.
type Source interface {
	Next() (model.RawRecord, error)
	Header() []string
	Missing() []string
	Line() int
	Close() error
}

// SourceOptions configures OpenSource.
type SourceOptions struct {
	CSV  CSVOptions
	XLSX XLSXOptions
}

// OpenSource opens path and returns a record source. Workbooks (.xlsx) are
// read with the XLSX reader; everything else is treated as delimited text,
// optionally compressed. Failures to open or to find a header are reported
// as *SourceError.
func OpenSource(path string, opts SourceOptions) (Source, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		xr, err := NewXLSXRecordReader(path, opts.XLSX)
		if err != nil {
			return nil, asSourceError(path, err)
		}
		return &xlsxSource{XLSXRecordReader: xr}, nil
	}

	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	rr, err := NewRecordReader(rc, opts.CSV)
	if err != nil {
		_ = rc.Close()
		return nil, asSourceError(path, err)
	}
	return &csvSource{RecordReader: rr, closer: rc}, nil
}

func asSourceError(path string, err error) error {
	if IsSourceUnavailable(err) {
		return err
	}
	return &SourceError{Path: path, Err: err}
}

type csvSource struct {
	*RecordReader
	closer io.Closer
}

func (s *csvSource) Close() error {
	return s.closer.Close()
}

type xlsxSource struct {
	*XLSXRecordReader
}

func (s *xlsxSource) Close() error {
	return nil
}
