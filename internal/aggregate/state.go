package aggregate

import (
	"sort"

	"github.com/sells-group/crimestat/internal/classify"
	"github.com/sells-group/crimestat/internal/model"
	"github.com/sells-group/crimestat/internal/validate"
)

// State holds every tally produced by a single pass over the input.
type State struct {
	Total        int64
	CoordValid   int64
	CoordInvalid int64
	DateValid    int64
	DateInvalid  int64

	Crimes         map[string]int64
	Categories     map[string]int64
	Municipalities map[string]int64
	Dates          DateRange

	// Classified subset: records with a tag, valid coordinates and a valid
	// date at or after the threshold year.
	ByTag                  map[model.Tag]map[string]int64
	Retained               int64
	RetainedMunicipalities map[string]int64
	RetainedSevere         int64
	BufferCandidates       int64

	// Details is only populated when the aggregator retains records in memory.
	Details []model.DetailRecord

	finalized bool
}

// NewState returns an empty State.
func NewState() *State {
	return &State{
		Crimes:                 make(map[string]int64),
		Categories:             make(map[string]int64),
		Municipalities:         make(map[string]int64),
		ByTag:                  make(map[model.Tag]map[string]int64),
		RetainedMunicipalities: make(map[string]int64),
	}
}

// Finalized reports whether ingestion has completed.
func (s *State) Finalized() bool {
	return s.finalized
}

// Merge folds o into s. Counters and mappings are summed and the date range
// widened, so merging shards in any order yields the same tallies. Details
// are appended in call order.
func (s *State) Merge(o *State) {
	s.Total += o.Total
	s.CoordValid += o.CoordValid
	s.CoordInvalid += o.CoordInvalid
	s.DateValid += o.DateValid
	s.DateInvalid += o.DateInvalid
	s.Retained += o.Retained
	s.RetainedSevere += o.RetainedSevere
	s.BufferCandidates += o.BufferCandidates

	mergeCounts(s.Crimes, o.Crimes)
	mergeCounts(s.Categories, o.Categories)
	mergeCounts(s.Municipalities, o.Municipalities)
	mergeCounts(s.RetainedMunicipalities, o.RetainedMunicipalities)
	for tag, labels := range o.ByTag {
		dst, ok := s.ByTag[tag]
		if !ok {
			dst = make(map[string]int64, len(labels))
			s.ByTag[tag] = dst
		}
		mergeCounts(dst, labels)
	}

	s.Dates.Merge(o.Dates)
	s.Details = append(s.Details, o.Details...)
}

func mergeCounts(dst, src map[string]int64) {
	for k, v := range src {
		dst[k] += v
	}
}

// CoordValidRatio returns the share of records with valid coordinates.
func (s *State) CoordValidRatio() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.CoordValid) / float64(s.Total)
}

// TagTotals returns the number of retained records per tag.
func (s *State) TagTotals() map[model.Tag]int64 {
	out := make(map[model.Tag]int64, len(s.ByTag))
	for tag, labels := range s.ByTag {
		out[tag] = Sum(labels)
	}
	return out
}

// Count is one row of a frequency table.
type Count struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// TopN returns the n most frequent entries, ties broken alphabetically.
// n <= 0 returns every entry.
func TopN(m map[string]int64, n int) []Count {
	out := make([]Count, 0, len(m))
	for k, v := range m {
		out = append(out, Count{Label: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// Sum returns the total of all values in m.
func Sum(m map[string]int64) int64 {
	var total int64
	for _, v := range m {
		total += v
	}
	return total
}

// SeverityGroup is the breakdown of crime labels under one severity group.
type SeverityGroup struct {
	Name   string  `json:"name"`
	Total  int64   `json:"total"`
	Labels []Count `json:"labels"`
}

// SeverityGroups buckets every observed crime label into the first matching
// severity group. Groups with no records are omitted; perGroup limits the
// labels listed under each group.
func (s *State) SeverityGroups(c *classify.Classifier, perGroup int) []SeverityGroup {
	buckets := make(map[string]map[string]int64)
	for label, n := range s.Crimes {
		g := c.Group(label)
		if g == "" {
			continue
		}
		if buckets[g] == nil {
			buckets[g] = make(map[string]int64)
		}
		buckets[g][label] += n
	}

	var out []SeverityGroup
	for _, name := range c.Groups() {
		labels, ok := buckets[name]
		if !ok {
			continue
		}
		out = append(out, SeverityGroup{
			Name:   name,
			Total:  Sum(labels),
			Labels: TopN(labels, perGroup),
		})
	}
	return out
}

// DateRange tracks the earliest and latest valid occurrence dates.
type DateRange struct {
	Min validate.Date
	Max validate.Date
	Set bool
}

// Observe widens the range to include d.
func (r *DateRange) Observe(d validate.Date) {
	if !r.Set {
		r.Min, r.Max, r.Set = d, d, true
		return
	}
	if d.Before(r.Min) {
		r.Min = d
	}
	if d.After(r.Max) {
		r.Max = d
	}
}

// Merge widens the range to include o.
func (r *DateRange) Merge(o DateRange) {
	if !o.Set {
		return
	}
	r.Observe(o.Min)
	r.Observe(o.Max)
}

// Days returns the span in days, or 0 for an empty range.
func (r DateRange) Days() int {
	if !r.Set {
		return 0
	}
	return r.Min.DaysUntil(r.Max)
}

// Years returns the difference between the latest and earliest years.
func (r DateRange) Years() int {
	if !r.Set {
		return 0
	}
	return r.Max.Year - r.Min.Year
}
