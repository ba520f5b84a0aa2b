// Package export writes classified detail records to map-ready formats.
package export

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/crimestat/internal/model"
)

// Format names an output encoding.
type Format string

const (
	FormatGeoJSON   Format = "geojson"
	FormatShapefile Format = "shapefile"
	FormatCSV       Format = "csv"
)

// Sink receives detail records one at a time. It satisfies
// aggregate.DetailSink.
type Sink interface {
	Write(rec model.DetailRecord) error
	Close() error
}

// ParseFormat resolves an explicit format name, falling back to the file
// extension of path when name is empty.
func ParseFormat(name, path string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".geojson", ".json":
			return FormatGeoJSON, nil
		case ".shp":
			return FormatShapefile, nil
		case ".csv":
			return FormatCSV, nil
		default:
			return "", eris.Errorf("export: cannot infer format from %q", path)
		}
	}

	switch Format(name) {
	case FormatGeoJSON, FormatShapefile, FormatCSV:
		return Format(name), nil
	case "shp":
		return FormatShapefile, nil
	case "json":
		return FormatGeoJSON, nil
	default:
		return "", eris.Errorf("export: unknown format %q", name)
	}
}

// Create opens a staged output for path. format may be empty to infer it
// from the extension. Records go to a hidden file next to path; Close
// publishes it and Abort discards it, so an earlier export at path survives
// a failed run.
func Create(path, format string) (*Output, error) {
	f, err := ParseFormat(format, path)
	if err != nil {
		return nil, err
	}

	if f == FormatShapefile {
		// go-shp names every sibling in lower case.
		if strings.EqualFold(filepath.Ext(path), ".shp") {
			path = strings.TrimSuffix(path, filepath.Ext(path))
		}
		path += ".shp"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "export: create directory %s", dir)
		}
	}

	ext := filepath.Ext(path)
	pattern := "." + strings.TrimSuffix(filepath.Base(path), ext) + "-*" + ext
	file, err := os.CreateTemp(filepath.Dir(path), pattern)
	if err != nil {
		return nil, eris.Wrapf(err, "export: create %s", path)
	}
	staged := file.Name()

	if f == FormatShapefile {
		_ = file.Close()
		w, err := NewShapefileWriter(staged)
		stagedBase := strings.TrimSuffix(staged, ext)
		destBase := strings.TrimSuffix(path, ext)
		out := &Output{Sink: w, path: path}
		for _, sibling := range shapefileExts {
			out.moves = append(out.moves, move{from: stagedBase + sibling, to: destBase + sibling})
		}
		if err != nil {
			out.removeStaged()
			return nil, err
		}
		return out, nil
	}

	out := &Output{path: path, moves: []move{{from: staged, to: path}}}
	switch f {
	case FormatCSV:
		out.Sink = &fileSink{Sink: NewCSVWriter(file), file: file}
	default:
		out.Sink = &fileSink{Sink: NewGeoJSONWriter(file), file: file}
	}
	return out, nil
}

// shapefileExts are the files of a shapefile set, .shp last so a reader
// never sees a .shp without its siblings.
var shapefileExts = []string{".shx", ".dbf", ".prj", ".shp"}

type move struct {
	from, to string
}

// Output is a Sink staged next to its destination.
type Output struct {
	Sink
	path  string
	moves []move
	done  bool
}

// Path returns the destination path.
func (o *Output) Path() string {
	return o.path
}

// Close finishes the encoding and moves the staged files into place.
func (o *Output) Close() error {
	if o.done {
		return nil
	}
	o.done = true

	if err := o.Sink.Close(); err != nil {
		o.removeStaged()
		return err
	}
	for _, m := range o.moves {
		if err := os.Chmod(m.from, 0o644); err != nil {
			o.removeStaged()
			return eris.Wrapf(err, "export: publish %s", m.to)
		}
		if err := os.Rename(m.from, m.to); err != nil {
			o.removeStaged()
			return eris.Wrapf(err, "export: publish %s", m.to)
		}
	}
	return nil
}

// Abort drops the staged files and leaves the destination untouched.
func (o *Output) Abort() {
	if o.done {
		return
	}
	o.done = true
	_ = o.Sink.Close()
	o.removeStaged()
}

func (o *Output) removeStaged() {
	for _, m := range o.moves {
		_ = os.Remove(m.from)
	}
}

// fileSink closes the underlying file after the encoder is finished.
type fileSink struct {
	Sink
	file io.Closer
}

func (s *fileSink) Close() error {
	err := s.Sink.Close()
	if cerr := s.file.Close(); cerr != nil && err == nil {
		err = eris.Wrap(cerr, "export: close file")
	}
	return err
}

// Discard is a Sink that drops every record.
var Discard Sink = discard{}

type discard struct{}

func (discard) Write(model.DetailRecord) error { return nil }
func (discard) Close() error                   { return nil }
