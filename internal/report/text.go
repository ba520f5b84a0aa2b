package report

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/crimestat/internal/aggregate"
	"github.com/sells-group/crimestat/internal/classify"
)

const (
	labelWidth = 60
	rule       = "================================================================================"
)

// FormatText renders the analysis report as plain text with thousands
// separators.
func FormatText(s *aggregate.State, c *classify.Classifier, opts Options) string {
	var b strings.Builder
	p := message.NewPrinter(language.English)

	if s.Total == 0 {
		section(&b, "RESUMEN GENERAL")
		b.WriteString("No records.\n")
		return b.String()
	}

	sum := BuildSummary(s, c, opts)

	section(&b, "RESUMEN GENERAL")
	p.Fprintf(&b, "Total de registros: %d\n", sum.Total)
	p.Fprintf(&b, "Registros con coordenadas válidas: %d (%.1f%%)\n", sum.CoordValid, pct(sum.CoordValid, sum.Total))
	p.Fprintf(&b, "Registros sin coordenadas: %d (%.1f%%)\n", sum.CoordInvalid, pct(sum.CoordInvalid, sum.Total))
	p.Fprintf(&b, "Registros con fecha inválida: %d\n", sum.DateInvalid)

	section(&b, "RANGO DE FECHAS")
	if sum.Dates == nil {
		b.WriteString("Sin fechas válidas.\n")
	} else {
		p.Fprintf(&b, "Fecha más antigua: %s\n", sum.Dates.Earliest)
		p.Fprintf(&b, "Fecha más reciente: %s\n", sum.Dates.Latest)
		p.Fprintf(&b, "Rango: %d días (%d años)\n", sum.Dates.Days, sum.Dates.Years)
	}

	section(&b, topHeading(opts.TopCrimes, "TIPOS DE DELITOS MÁS FRECUENTES", "TODOS LOS TIPOS DE DELITOS"))
	ranked(&b, p, sum.TopCrimes)

	section(&b, topHeading(opts.TopCategories, "CATEGORÍAS DE DELITOS", "TODAS LAS CATEGORÍAS DE DELITOS"))
	ranked(&b, p, sum.Categories)

	section(&b, topHeading(opts.TopMunicipalities, "ALCALDÍAS CON MÁS DELITOS", "TODAS LAS ALCALDÍAS"))
	ranked(&b, p, sum.TopMunicipalities)

	cls := sum.Classified
	if cls.ThresholdYear > 0 {
		section(&b, "DELITOS CLASIFICADOS DESDE "+strconv.Itoa(cls.ThresholdYear))
	} else {
		section(&b, "DELITOS CLASIFICADOS")
	}
	p.Fprintf(&b, "Total clasificados: %d\n", cls.Retained)
	p.Fprintf(&b, "Delitos graves: %d\n", cls.Severe)
	for _, t := range cls.Tags {
		p.Fprintf(&b, "\n%s: %d\n", t.Label, t.Total)
		for _, cnt := range t.Crimes {
			p.Fprintf(&b, "    - %s %8d\n", pad(cnt.Label, labelWidth), cnt.Count)
		}
	}

	section(&b, topHeading(opts.TopMunicipalities, "ALCALDÍAS (DELITOS CLASIFICADOS)", "TODAS LAS ALCALDÍAS (DELITOS CLASIFICADOS)"))
	ranked(&b, p, cls.TopMunicipalities)

	section(&b, "ANÁLISIS DE DELITOS GRAVES (para buffers de riesgo)")
	if len(sum.SeverityGroups) == 0 {
		b.WriteString("Sin delitos graves.\n")
	}
	for _, g := range sum.SeverityGroups {
		p.Fprintf(&b, "\n%s:\n", g.Name)
		p.Fprintf(&b, "  Total: %d registros\n", g.Total)
		for _, cnt := range g.Labels {
			p.Fprintf(&b, "    - %s %6d\n", pad(cnt.Label, labelWidth), cnt.Count)
		}
	}
	p.Fprintf(&b, "\nCandidatos a buffer de riesgo: %d\n", cls.BufferCandidates)

	return b.String()
}

func section(b *strings.Builder, title string) {
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(rule)
	b.WriteString("\n")
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(rule)
	b.WriteString("\n")
}

// topHeading titles a ranked table; headings carry no digit grouping. A
// limit of 0 lists every entry and uses the all heading.
func topHeading(n int, title, all string) string {
	if n <= 0 {
		return all
	}
	return "TOP " + strconv.Itoa(n) + " " + title
}

func ranked(b *strings.Builder, p *message.Printer, rows []aggregate.Count) {
	if len(rows) == 0 {
		b.WriteString("Sin datos.\n")
		return
	}
	for i, cnt := range rows {
		p.Fprintf(b, "%2d. %s %8d\n", i+1, pad(cnt.Label, labelWidth), cnt.Count)
	}
}

// pad truncates or right-pads s to width runes.
func pad(s string, width int) string {
	r := []rune(s)
	if len(r) >= width {
		return string(r[:width])
	}
	return s + strings.Repeat(" ", width-len(r))
}

func pct(n, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
