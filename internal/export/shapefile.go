package export

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"

	"github.com/sells-group/crimestat/internal/model"
)

// wgs84PRJ is written next to the shapefile so GIS tools pick up EPSG:4326.
const wgs84PRJ = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

// shapeFields are the DBF columns, in attribute index order. DBF names are
// limited to ten characters.
var shapeFields = []shp.Field{
	shp.StringField("FECHA", 10),
	shp.StringField("DELITO", 120),
	shp.StringField("CATEGORIA", 80),
	shp.StringField("ALCALDIA", 40),
	shp.StringField("COLONIA", 80),
	shp.StringField("TIPO", 10),
	shp.NumberField("ES_GRAVE", 1),
	shp.StringField("HORA", 8),
	shp.NumberField("ANIO", 4),
	shp.NumberField("MES", 2),
}

// ShapefileWriter writes detail records as a POINT shapefile (.shp, .shx,
// .dbf and .prj siblings).
type ShapefileWriter struct {
	w      *shp.Writer
	path   string
	count  int
	closed bool
}

// NewShapefileWriter creates the shapefile set at path. A missing .shp
// extension is appended.
func NewShapefileWriter(path string) (*ShapefileWriter, error) {
	if !strings.EqualFold(filepath.Ext(path), ".shp") {
		path += ".shp"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "shapefile: create directory %s", dir)
		}
	}

	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return nil, eris.Wrapf(err, "shapefile: create %s", path)
	}
	if err := w.SetFields(shapeFields); err != nil {
		w.Close()
		return nil, eris.Wrap(err, "shapefile: set fields")
	}

	prj := strings.TrimSuffix(path, filepath.Ext(path)) + ".prj"
	if err := os.WriteFile(prj, []byte(wgs84PRJ), 0o644); err != nil {
		w.Close()
		return nil, eris.Wrapf(err, "shapefile: write %s", prj)
	}

	return &ShapefileWriter{w: w, path: path}, nil
}

// Path returns the .shp path being written.
func (s *ShapefileWriter) Path() string {
	return s.path
}

// Write appends one point and its attributes.
func (s *ShapefileWriter) Write(d model.DetailRecord) error {
	if s.closed {
		return eris.New("shapefile: write after close")
	}

	row := int(s.w.Write(&shp.Point{X: d.Longitude, Y: d.Latitude}))

	severe := 0
	if d.Severe {
		severe = 1
	}
	values := []interface{}{
		d.Date,
		d.Crime,
		d.Category,
		d.Municipality,
		d.Neighborhood,
		string(d.Tag),
		severe,
		d.Time,
		d.Year,
		d.Month,
	}
	for i, v := range values {
		if str, ok := v.(string); ok {
			v = fitField(str, int(shapeFields[i].Size))
		}
		if err := s.w.WriteAttribute(row, i, v); err != nil {
			return eris.Wrapf(err, "shapefile: write attribute %d of row %d", i, row)
		}
	}

	s.count++
	return nil
}

// Count returns the number of shapes written.
func (s *ShapefileWriter) Count() int {
	return s.count
}

// Close writes the headers and closes the file set.
func (s *ShapefileWriter) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.w.Close()
	return placeDBF(s.path)
}

// placeDBF moves the attribute table go-shp writes as "<base>dbf" to
// "<base>.dbf", where readers look for it.
func placeDBF(shpPath string) error {
	base := strings.TrimSuffix(shpPath, filepath.Ext(shpPath))
	written := base + "dbf"
	if _, err := os.Stat(written); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return eris.Wrapf(err, "shapefile: stat %s", written)
	}
	if err := os.Rename(written, base+".dbf"); err != nil {
		return eris.Wrapf(err, "shapefile: rename %s", written)
	}
	return nil
}

// fitField truncates s to at most size bytes without splitting a rune.
func fitField(s string, size int) string {
	if len(s) <= size {
		return s
	}
	s = s[:size]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
