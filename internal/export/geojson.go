package export

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/crimestat/internal/model"
)

const (
	collectionOpen  = `{"type":"FeatureCollection","features":[`
	collectionEmpty = `{"type":"FeatureCollection","features":[]}`
)

// Feature converts a detail record into a GeoJSON point feature using the
// property names read by the map frontend.
func Feature(d model.DetailRecord) *geojson.Feature {
	return &geojson.Feature{
		Geometry: geom.NewPointFlat(geom.XY, []float64{d.Longitude, d.Latitude}),
		Properties: map[string]interface{}{
			"fecha":     d.Date,
			"delito":    d.Crime,
			"categoria": d.Category,
			"alcaldia":  d.Municipality,
			"colonia":   d.Neighborhood,
			"tipo":      string(d.Tag),
			"es_grave":  d.Severe,
			"hora":      d.Time,
			"año":       d.Year,
			"mes":       d.Month,
		},
	}
}

// GeoJSONWriter streams a FeatureCollection without holding features in
// memory. The collection bbox is written on Close.
type GeoJSONWriter struct {
	w      *bufio.Writer
	bounds *geom.Bounds
	count  int
	closed bool
}

// NewGeoJSONWriter returns a writer that encodes features to w.
func NewGeoJSONWriter(w io.Writer) *GeoJSONWriter {
	return &GeoJSONWriter{
		w:      bufio.NewWriter(w),
		bounds: geom.NewBounds(geom.XY),
	}
}

// Write appends one feature.
func (g *GeoJSONWriter) Write(d model.DetailRecord) error {
	if g.closed {
		return eris.New("geojson: write after close")
	}

	feat := Feature(d)
	data, err := json.Marshal(feat)
	if err != nil {
		return eris.Wrap(err, "geojson: encode feature")
	}

	prefix := ","
	if g.count == 0 {
		prefix = collectionOpen
	}
	if _, err := g.w.WriteString(prefix); err != nil {
		return eris.Wrap(err, "geojson: write")
	}
	if _, err := g.w.Write(data); err != nil {
		return eris.Wrap(err, "geojson: write")
	}

	g.bounds.Extend(feat.Geometry)
	g.count++
	return nil
}

// Count returns the number of features written.
func (g *GeoJSONWriter) Count() int {
	return g.count
}

// Bounds returns the extent of the features written so far.
func (g *GeoJSONWriter) Bounds() *geom.Bounds {
	return g.bounds
}

// Close terminates the document and flushes buffered output. It does not
// close the underlying writer.
func (g *GeoJSONWriter) Close() error {
	if g.closed {
		return nil
	}
	g.closed = true

	if g.count == 0 {
		if _, err := g.w.WriteString(collectionEmpty); err != nil {
			return eris.Wrap(err, "geojson: write")
		}
		return eris.Wrap(g.w.Flush(), "geojson: flush")
	}

	bbox, err := json.Marshal([]float64{
		g.bounds.Min(0), g.bounds.Min(1), g.bounds.Max(0), g.bounds.Max(1),
	})
	if err != nil {
		return eris.Wrap(err, "geojson: encode bbox")
	}
	if _, err := g.w.WriteString(`],"bbox":`); err != nil {
		return eris.Wrap(err, "geojson: write")
	}
	if _, err := g.w.Write(bbox); err != nil {
		return eris.Wrap(err, "geojson: write")
	}
	if _, err := g.w.WriteString("}"); err != nil {
		return eris.Wrap(err, "geojson: write")
	}
	return eris.Wrap(g.w.Flush(), "geojson: flush")
}
