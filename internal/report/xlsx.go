package report

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/crimestat/internal/aggregate"
	"github.com/sells-group/crimestat/internal/classify"
)

// Sheet names written by WriteXLSX.
const (
	SheetSummary        = "Resumen"
	SheetCrimes         = "Delitos"
	SheetCategories     = "Categorias"
	SheetMunicipalities = "Alcaldias"
	SheetClassified     = "Clasificados"
	SheetSeverity       = "Graves"
)

// WriteXLSX writes the report tables as a workbook to w.
func WriteXLSX(s *aggregate.State, c *classify.Classifier, opts Options, w io.Writer) error {
	sum := BuildSummary(s, c, opts)
	f := xlsx.NewFile()

	sheet, err := f.AddSheet(SheetSummary)
	if err != nil {
		return eris.Wrapf(err, "xlsx: add sheet %s", SheetSummary)
	}
	addRow(sheet, "metrica", "valor")
	addCountRow(sheet, "total", sum.Total)
	addCountRow(sheet, "coordenadas_validas", sum.CoordValid)
	addCountRow(sheet, "coordenadas_invalidas", sum.CoordInvalid)
	addCountRow(sheet, "fechas_validas", sum.DateValid)
	addCountRow(sheet, "fechas_invalidas", sum.DateInvalid)
	if sum.Dates != nil {
		addRow(sheet, "fecha_min", sum.Dates.Earliest)
		addRow(sheet, "fecha_max", sum.Dates.Latest)
		addCountRow(sheet, "rango_dias", int64(sum.Dates.Days))
	}
	addCountRow(sheet, "anio_minimo", int64(sum.Classified.ThresholdYear))
	addCountRow(sheet, "clasificados", sum.Classified.Retained)
	addCountRow(sheet, "graves", sum.Classified.Severe)
	addCountRow(sheet, "candidatos_buffer", sum.Classified.BufferCandidates)

	tables := []struct {
		name string
		rows []aggregate.Count
	}{
		{SheetCrimes, aggregate.TopN(s.Crimes, 0)},
		{SheetCategories, sum.Categories},
		{SheetMunicipalities, aggregate.TopN(s.Municipalities, 0)},
	}
	for _, t := range tables {
		if err := addCountSheet(f, t.name, "etiqueta", t.rows); err != nil {
			return err
		}
	}

	cls, err := f.AddSheet(SheetClassified)
	if err != nil {
		return eris.Wrapf(err, "xlsx: add sheet %s", SheetClassified)
	}
	addRow(cls, "tipo", "delito", "registros")
	for _, t := range sum.Classified.Tags {
		for _, cnt := range aggregate.TopN(s.ByTag[t.Tag], 0) {
			row := cls.AddRow()
			row.AddCell().SetString(string(t.Tag))
			row.AddCell().SetString(cnt.Label)
			row.AddCell().SetInt64(cnt.Count)
		}
	}

	sev, err := f.AddSheet(SheetSeverity)
	if err != nil {
		return eris.Wrapf(err, "xlsx: add sheet %s", SheetSeverity)
	}
	addRow(sev, "grupo", "delito", "registros")
	for _, g := range sum.SeverityGroups {
		for _, cnt := range g.Labels {
			row := sev.AddRow()
			row.AddCell().SetString(g.Name)
			row.AddCell().SetString(cnt.Label)
			row.AddCell().SetInt64(cnt.Count)
		}
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "xlsx: write workbook")
	}
	return nil
}

func addCountSheet(f *xlsx.File, name, header string, rows []aggregate.Count) error {
	sheet, err := f.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "xlsx: add sheet %s", name)
	}
	addRow(sheet, header, "registros")
	for _, cnt := range rows {
		addCountRow(sheet, cnt.Label, cnt.Count)
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, cells ...string) {
	row := sheet.AddRow()
	for _, v := range cells {
		row.AddCell().SetString(v)
	}
}

func addCountRow(sheet *xlsx.Sheet, label string, n int64) {
	row := sheet.AddRow()
	row.AddCell().SetString(label)
	row.AddCell().SetInt64(n)
}
