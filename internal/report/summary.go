// Package report renders aggregate state as text, JSON and XLSX summaries.
package report

import (
	"sort"

	"github.com/sells-group/crimestat/internal/aggregate"
	"github.com/sells-group/crimestat/internal/classify"
	"github.com/sells-group/crimestat/internal/model"
)

// Options controls how much of each frequency table is shown.
type Options struct {
	ThresholdYear     int
	TopCrimes         int
	TopCategories     int // 0 lists every category
	TopMunicipalities int
	TopPerTag         int
	PerSeverityGroup  int
}

// DefaultOptions returns the limits used by the analyze command.
func DefaultOptions() Options {
	return Options{
		ThresholdYear:     aggregate.DefaultThresholdYear,
		TopCrimes:         10,
		TopCategories:     0,
		TopMunicipalities: 15,
		TopPerTag:         10,
		PerSeverityGroup:  5,
	}
}

// Summary is the JSON form of a report.
type Summary struct {
	Total           int64   `json:"total"`
	CoordValid      int64   `json:"coord_valid"`
	CoordInvalid    int64   `json:"coord_invalid"`
	CoordValidRatio float64 `json:"coord_valid_ratio"`
	DateValid       int64   `json:"date_valid"`
	DateInvalid     int64   `json:"date_invalid"`

	Dates *DateSummary `json:"dates,omitempty"`

	TopCrimes         []aggregate.Count `json:"top_crimes"`
	Categories        []aggregate.Count `json:"categories"`
	TopMunicipalities []aggregate.Count `json:"top_municipalities"`

	Classified     ClassifiedSummary         `json:"classified"`
	SeverityGroups []aggregate.SeverityGroup `json:"severity_groups"`
}

// DateSummary describes the observed range of valid occurrence dates.
type DateSummary struct {
	Earliest string `json:"earliest"`
	Latest   string `json:"latest"`
	Days     int    `json:"days"`
	Years    int    `json:"years"`
}

// ClassifiedSummary describes the subset kept for mapping.
type ClassifiedSummary struct {
	ThresholdYear     int               `json:"threshold_year"`
	Retained          int64             `json:"retained"`
	Severe            int64             `json:"severe"`
	BufferCandidates  int64             `json:"buffer_candidates"`
	Tags              []TagSummary      `json:"tags"`
	TopMunicipalities []aggregate.Count `json:"top_municipalities"`
}

// TagSummary is the breakdown for one tag.
type TagSummary struct {
	Tag    model.Tag         `json:"tag"`
	Label  string            `json:"label"`
	Total  int64             `json:"total"`
	Crimes []aggregate.Count `json:"crimes"`
}

// BuildSummary assembles the report tables from s.
func BuildSummary(s *aggregate.State, c *classify.Classifier, opts Options) Summary {
	sum := Summary{
		Total:             s.Total,
		CoordValid:        s.CoordValid,
		CoordInvalid:      s.CoordInvalid,
		CoordValidRatio:   s.CoordValidRatio(),
		DateValid:         s.DateValid,
		DateInvalid:       s.DateInvalid,
		TopCrimes:         aggregate.TopN(s.Crimes, opts.TopCrimes),
		Categories:        aggregate.TopN(s.Categories, opts.TopCategories),
		TopMunicipalities: aggregate.TopN(s.Municipalities, opts.TopMunicipalities),
		SeverityGroups:    s.SeverityGroups(c, opts.PerSeverityGroup),
	}
	if s.Dates.Set {
		sum.Dates = &DateSummary{
			Earliest: s.Dates.Min.String(),
			Latest:   s.Dates.Max.String(),
			Days:     s.Dates.Days(),
			Years:    s.Dates.Years(),
		}
	}

	cls := ClassifiedSummary{
		ThresholdYear:     opts.ThresholdYear,
		Retained:          s.Retained,
		Severe:            s.RetainedSevere,
		BufferCandidates:  s.BufferCandidates,
		TopMunicipalities: aggregate.TopN(s.RetainedMunicipalities, opts.TopMunicipalities),
	}
	totals := s.TagTotals()
	for _, tag := range tagOrder(s, c) {
		cls.Tags = append(cls.Tags, TagSummary{
			Tag:    tag,
			Label:  tag.Label(),
			Total:  totals[tag],
			Crimes: aggregate.TopN(s.ByTag[tag], opts.TopPerTag),
		})
	}
	sum.Classified = cls

	return sum
}

// tagOrder lists the built-in tags first, then any further tags produced by
// custom rules or present in the state.
func tagOrder(s *aggregate.State, c *classify.Classifier) []model.Tag {
	seen := make(map[model.Tag]bool)
	var out []model.Tag
	add := func(t model.Tag) {
		if t == model.TagNone || seen[t] {
			return
		}
		seen[t] = true
		out = append(out, t)
	}

	for _, t := range model.DefaultTags {
		if _, ok := s.ByTag[t]; ok || hasTag(c, t) {
			add(t)
		}
	}
	for _, t := range c.Tags() {
		add(t)
	}
	extra := make([]string, 0, len(s.ByTag))
	for t := range s.ByTag {
		if !seen[t] {
			extra = append(extra, string(t))
		}
	}
	sort.Strings(extra)
	for _, t := range extra {
		add(model.Tag(t))
	}
	return out
}

func hasTag(c *classify.Classifier, t model.Tag) bool {
	for _, ct := range c.Tags() {
		if ct == t {
			return true
		}
	}
	return false
}
