package fetcher

import (
	"archive/zip"
	"compress/gzip"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Open opens a local dataset for reading. Paths ending in .gz are
// decompressed; .zip archives yield their first .csv entry. Any failure is
// returned as a *SourceError.
func Open(p string) (io.ReadCloser, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, &SourceError{Path: p, Err: err}
	}
	if info.IsDir() {
		return nil, &SourceError{Path: p, Err: eris.New("is a directory")}
	}

	switch strings.ToLower(filepath.Ext(p)) {
	case ".zip":
		return openZIP(p)
	case ".gz":
		return openGzip(p)
	}

	f, err := os.Open(p)
	if err != nil {
		return nil, &SourceError{Path: p, Err: err}
	}
	return f, nil
}

func openGzip(p string) (io.ReadCloser, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, &SourceError{Path: p, Err: err}
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, &SourceError{Path: p, Err: eris.Wrap(err, "gzip: open stream")}
	}
	return &stackedCloser{Reader: gz, closers: []io.Closer{gz, f}}, nil
}

func openZIP(p string) (io.ReadCloser, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, &SourceError{Path: p, Err: eris.Wrap(err, "zip: open archive")}
	}

	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.EqualFold(path.Ext(f.Name), ".csv") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			_ = zr.Close()
			return nil, &SourceError{Path: p, Err: eris.Wrapf(err, "zip: open entry %s", f.Name)}
		}
		return &stackedCloser{Reader: rc, closers: []io.Closer{rc, zr}}, nil
	}

	_ = zr.Close()
	return nil, &SourceError{Path: p, Err: eris.New("zip: no .csv entry in archive")}
}

// stackedCloser closes every underlying closer in order and reports the
// first failure.
type stackedCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedCloser) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
