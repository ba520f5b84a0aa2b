package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/jszwec/csvutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/crimestat/internal/model"
)

func sampleDetails() []model.DetailRecord {
	return []model.DetailRecord{
		{
			Tag:          model.TagHomicide,
			Severe:       true,
			Crime:        "HOMICIDIO DOLOSO",
			Category:     "HOMICIDIO DOLOSO",
			Municipality: "CUAUHTEMOC",
			Neighborhood: "CENTRO",
			Date:         "2020-01-01",
			Time:         "22:15:00",
			Year:         2020,
			Month:        1,
			Longitude:    -99.13,
			Latitude:     19.43,
		},
		{
			Tag:          model.TagRobbery,
			Crime:        "ROBO DE CELULAR",
			Category:     "DELITO DE BAJO IMPACTO",
			Municipality: "ÁLVARO OBREGÓN",
			Neighborhood: "SAN ÁNGEL",
			Date:         "2021-06-15",
			Time:         "08:00:00",
			Year:         2021,
			Month:        6,
			Longitude:    -99.19,
			Latitude:     19.34,
		},
	}
}

// plainCollection mirrors what the map frontend reads.
type plainCollection struct {
	Type     string    `json:"type"`
	BBox     []float64 `json:"bbox"`
	Features []struct {
		Type     string `json:"type"`
		Geometry struct {
			Type        string    `json:"type"`
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties map[string]interface{} `json:"properties"`
	} `json:"features"`
}

func TestGeoJSONWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewGeoJSONWriter(&buf)
	for _, d := range sampleDetails() {
		require.NoError(t, w.Write(d))
	}
	require.NoError(t, w.Close())
	assert.Equal(t, 2, w.Count())

	var fc plainCollection
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 2)

	f := fc.Features[0]
	assert.Equal(t, "Feature", f.Type)
	assert.Equal(t, "Point", f.Geometry.Type)
	assert.Equal(t, []float64{-99.13, 19.43}, f.Geometry.Coordinates)
	assert.Equal(t, "2020-01-01", f.Properties["fecha"])
	assert.Equal(t, "HOMICIDIO DOLOSO", f.Properties["delito"])
	assert.Equal(t, "CUAUHTEMOC", f.Properties["alcaldia"])
	assert.Equal(t, "CENTRO", f.Properties["colonia"])
	assert.Equal(t, "homicidio", f.Properties["tipo"])
	assert.Equal(t, true, f.Properties["es_grave"])
	assert.Equal(t, "22:15:00", f.Properties["hora"])
	assert.Equal(t, float64(2020), f.Properties["año"])
	assert.Equal(t, float64(1), f.Properties["mes"])

	assert.Equal(t, "ÁLVARO OBREGÓN", fc.Features[1].Properties["alcaldia"])
	assert.Equal(t, false, fc.Features[1].Properties["es_grave"])

	assert.Equal(t, []float64{-99.19, 19.34, -99.13, 19.43}, fc.BBox)
}

func TestGeoJSONWriter_DecodesWithGoGeom(t *testing.T) {
	var buf bytes.Buffer
	w := NewGeoJSONWriter(&buf)
	require.NoError(t, w.Write(sampleDetails()[0]))
	require.NoError(t, w.Close())

	var doc struct {
		Features []json.RawMessage `json:"features"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Features, 1)

	var f geojson.Feature
	require.NoError(t, json.Unmarshal(doc.Features[0], &f))
	assert.Equal(t, "CUAUHTEMOC", f.Properties["alcaldia"])

	pt, ok := f.Geometry.(*geom.Point)
	require.True(t, ok)
	assert.InDelta(t, -99.13, pt.X(), 1e-9)
	assert.InDelta(t, 19.43, pt.Y(), 1e-9)
}

func TestGeoJSONWriter_Empty(t *testing.T) {
	var buf bytes.Buffer
	w := NewGeoJSONWriter(&buf)
	require.NoError(t, w.Close())

	var fc plainCollection
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.Empty(t, fc.Features)
	assert.Nil(t, fc.BBox)
	assert.Equal(t, 0, w.Count())
}

func TestGeoJSONWriter_WriteAfterClose(t *testing.T) {
	w := NewGeoJSONWriter(&bytes.Buffer{})
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.Error(t, w.Write(sampleDetails()[0]))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestGeoJSONWriter_BufferedFailureSurfaces(t *testing.T) {
	w := NewGeoJSONWriter(failingWriter{})
	require.NoError(t, w.Write(sampleDetails()[0]))

	err := w.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestCSVWriter_BufferedFailureSurfaces(t *testing.T) {
	w := NewCSVWriter(failingWriter{})
	require.NoError(t, w.Write(sampleDetails()[0]))
	assert.Error(t, w.Close())
}

func TestCSVWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)
	for _, d := range sampleDetails() {
		require.NoError(t, w.Write(d))
	}
	require.NoError(t, w.Close())
	assert.Equal(t, 2, w.Count())

	header := strings.SplitN(buf.String(), "\n", 2)[0]
	assert.Equal(t, "tipo,es_grave,delito,categoria,alcaldia,colonia,fecha,hora,anio,mes,longitud,latitud", header)

	var got []model.DetailRecord
	require.NoError(t, csvutil.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, sampleDetails(), got)
}

func TestCSVWriter_EmptyWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)
	require.NoError(t, w.Close())
	assert.Equal(t, "tipo,es_grave,delito,categoria,alcaldia,colonia,fecha,hora,anio,mes,longitud,latitud\n", buf.String())
}

func TestShapefileWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "delitos")
	w, err := NewShapefileWriter(path)
	require.NoError(t, err)
	assert.Equal(t, path+".shp", w.Path())

	for _, d := range sampleDetails() {
		require.NoError(t, w.Write(d))
	}
	require.NoError(t, w.Close())
	assert.Equal(t, 2, w.Count())

	for _, ext := range []string{".shx", ".dbf", ".prj"} {
		_, err := os.Stat(path + ext)
		assert.NoError(t, err, ext)
	}
	_, err = os.Stat(path + "dbf")
	assert.True(t, os.IsNotExist(err), "attribute table left without its extension dot")

	r, err := shp.Open(path + ".shp")
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	fields := r.Fields()
	idx := make(map[string]int, len(fields))
	for i, f := range fields {
		idx[strings.TrimRight(f.String(), "\x00")] = i
	}
	attr := func(name string) string {
		return strings.TrimSpace(strings.TrimRight(r.Attribute(idx[name]), "\x00"))
	}

	require.True(t, r.Next())
	_, shape := r.Shape()
	pt, ok := shape.(*shp.Point)
	require.True(t, ok)
	assert.InDelta(t, -99.13, pt.X, 1e-9)
	assert.InDelta(t, 19.43, pt.Y, 1e-9)
	assert.Equal(t, "HOMICIDIO DOLOSO", attr("DELITO"))
	assert.Equal(t, "homicidio", attr("TIPO"))
	assert.Equal(t, "1", attr("ES_GRAVE"))
	assert.Equal(t, "2020", attr("ANIO"))

	require.True(t, r.Next())
	assert.Equal(t, "robo", attr("TIPO"))
	assert.Equal(t, "0", attr("ES_GRAVE"))
	assert.False(t, r.Next())
}

func TestShapefileWriter_EmptyIsReadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vacio.shp")
	w, err := NewShapefileWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err = os.Stat(filepath.Join(filepath.Dir(path), "vacio.dbf"))
	require.NoError(t, err)

	r, err := shp.Open(path)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()
	assert.Len(t, r.Fields(), len(shapeFields))
	assert.False(t, r.Next())
}

func TestFitField(t *testing.T) {
	assert.Equal(t, "ROBO", fitField("ROBO", 10))
	assert.Equal(t, "ÁL", fitField("ÁLVARO", 3))
	assert.Equal(t, "", fitField("Á", 1))
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name, format, path string
		want               Format
		wantErr            bool
	}{
		{"explicit geojson", "geojson", "x.bin", FormatGeoJSON, false},
		{"explicit upper", "CSV", "x", FormatCSV, false},
		{"shp alias", "shp", "x", FormatShapefile, false},
		{"ext geojson", "", "a/delitos-cdmx.geojson", FormatGeoJSON, false},
		{"ext json", "", "a.json", FormatGeoJSON, false},
		{"ext shp", "", "a.SHP", FormatShapefile, false},
		{"ext csv", "", "a.csv", FormatCSV, false},
		{"unknown ext", "", "a.txt", "", true},
		{"unknown format", "kml", "a.kml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.format, tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCreate(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"sub/delitos.geojson", "delitos.csv", "delitos.shp"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			out, err := Create(path, "")
			require.NoError(t, err)
			assert.Equal(t, path, out.Path())
			require.NoError(t, out.Write(sampleDetails()[0]))

			_, err = os.Stat(path)
			assert.True(t, os.IsNotExist(err), "destination written before Close")

			require.NoError(t, out.Close())
			require.NoError(t, out.Close())

			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Positive(t, info.Size())
			assertNoStaged(t, filepath.Dir(path))
		})
	}

	_, err := Create(filepath.Join(dir, "x.txt"), "")
	assert.Error(t, err)
}

func TestCreate_ShapefileSet(t *testing.T) {
	dir := t.TempDir()
	out, err := Create(filepath.Join(dir, "delitos"), "shp")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "delitos.shp"), out.Path())

	for _, d := range sampleDetails() {
		require.NoError(t, out.Write(d))
	}
	require.NoError(t, out.Close())

	for _, ext := range []string{".shp", ".shx", ".dbf", ".prj"} {
		_, err := os.Stat(filepath.Join(dir, "delitos"+ext))
		assert.NoError(t, err, ext)
	}
	assertNoStaged(t, dir)

	r, err := shp.Open(out.Path())
	require.NoError(t, err)
	defer func() { _ = r.Close() }()
	assert.Equal(t, len(sampleDetails()), r.AttributeCount())

	info, err := os.Stat(out.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestCreate_ShapefileUpperExtension(t *testing.T) {
	dir := t.TempDir()
	out, err := Create(filepath.Join(dir, "DELITOS.SHP"), "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "DELITOS.shp"), out.Path())
	require.NoError(t, out.Close())

	_, err = os.Stat(filepath.Join(dir, "DELITOS.dbf"))
	assert.NoError(t, err)
	assertNoStaged(t, dir)
}

func TestCreate_AbortKeepsPrevious(t *testing.T) {
	for _, name := range []string{"delitos.geojson", "delitos.shp"} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, name)
			previous := []byte(`{"features":[{"previous":"run"}]}`)
			require.NoError(t, os.WriteFile(path, previous, 0o644))

			out, err := Create(path, "")
			require.NoError(t, err)
			require.NoError(t, out.Write(sampleDetails()[0]))
			out.Abort()
			out.Abort()
			assert.NoError(t, out.Close())

			got, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, previous, got)
			assertNoStaged(t, dir)
		})
	}
}

// assertNoStaged fails if any hidden staging file is left in dir.
func assertNoStaged(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), "."), "staged file left behind: %s", e.Name())
	}
}
