// Package aggregate accumulates incident statistics in a single forward pass.
package aggregate

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/crimestat/internal/classify"
	"github.com/sells-group/crimestat/internal/model"
	"github.com/sells-group/crimestat/internal/validate"
)

// DefaultThresholdYear is the earliest occurrence year kept in the classified subset.
const DefaultThresholdYear = 2019

// ErrFinalized is returned by Ingest after Finalize has been called.
var ErrFinalized = eris.New("aggregate: state already finalized")

// DetailSink receives retained detail records as they are produced.
type DetailSink interface {
	Write(model.DetailRecord) error
}

// Aggregator validates, classifies and tallies records one at a time.
// It is not safe for concurrent use.
type Aggregator struct {
	classifier    *classify.Classifier
	box           validate.Box
	thresholdYear int
	sink          DetailSink
	state         *State
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithBox sets the coordinate bounding box.
func WithBox(b validate.Box) Option {
	return func(a *Aggregator) { a.box = b }
}

// WithThresholdYear sets the earliest year kept in the classified subset.
// Zero disables the year filter; a valid date is still required.
func WithThresholdYear(year int) Option {
	return func(a *Aggregator) { a.thresholdYear = year }
}

// WithSink streams retained records to s instead of keeping them in State.Details.
func WithSink(s DetailSink) Option {
	return func(a *Aggregator) { a.sink = s }
}

// New creates an Aggregator with a fresh State.
func New(c *classify.Classifier, opts ...Option) *Aggregator {
	a := &Aggregator{
		classifier:    c,
		box:           validate.DefaultBox,
		thresholdYear: DefaultThresholdYear,
		state:         NewState(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// State returns the live state. Callers must not mutate it.
func (a *Aggregator) State() *State {
	return a.state
}

// Finalize marks the state complete and returns it.
func (a *Aggregator) Finalize() *State {
	a.state.finalized = true
	return a.state
}

// Ingest folds one record into the state. Malformed fields only drop the
// record from the aggregates that depend on them. The only error returned is
// a sink write failure; counters already updated for the record are kept,
// but the record is not counted as retained.
func (a *Aggregator) Ingest(rec model.RawRecord) error {
	s := a.state
	if s.finalized {
		return ErrFinalized
	}

	s.Total++

	lon, lat, coordsOK := a.box.Parse(rec.Longitude, rec.Latitude)
	if coordsOK {
		s.CoordValid++
	} else {
		s.CoordInvalid++
	}

	crime := strings.TrimSpace(rec.Crime)
	if crime != "" {
		s.Crimes[crime]++
	}

	if category := strings.TrimSpace(rec.Category); category != "" {
		s.Categories[category]++
	}

	municipality := strings.TrimSpace(rec.Municipality)
	municipalityOK := municipality != "" && !strings.EqualFold(municipality, validate.MissingSentinel)
	if municipalityOK {
		s.Municipalities[municipality]++
	}

	date, dateOK := validate.ParseDate(rec.DateOccurred)
	if dateOK {
		s.DateValid++
		s.Dates.Observe(date)
	} else {
		s.DateInvalid++
	}

	if !coordsOK || !dateOK || crime == "" {
		return nil
	}
	if a.thresholdYear > 0 && date.Year < a.thresholdYear {
		return nil
	}

	cls := a.classifier.Classify(crime)
	if cls.Tag == model.TagNone {
		return nil
	}

	detail := model.DetailRecord{
		Tag:          cls.Tag,
		Severe:       cls.Severe,
		Crime:        crime,
		Category:     strings.TrimSpace(rec.Category),
		Municipality: municipality,
		Neighborhood: strings.TrimSpace(rec.Neighborhood),
		Date:         date.String(),
		Time:         strings.TrimSpace(rec.TimeOccurred),
		Year:         date.Year,
		Month:        int(date.Month),
		Longitude:    lon,
		Latitude:     lat,
	}

	if a.sink != nil {
		if err := a.sink.Write(detail); err != nil {
			return eris.Wrap(err, "aggregate: write detail")
		}
	} else {
		s.Details = append(s.Details, detail)
	}

	s.Retained++
	labels, ok := s.ByTag[cls.Tag]
	if !ok {
		labels = make(map[string]int64)
		s.ByTag[cls.Tag] = labels
	}
	labels[crime]++
	if municipalityOK {
		s.RetainedMunicipalities[municipality]++
	}
	if cls.Severe {
		s.RetainedSevere++
	}
	if a.classifier.BufferCandidate(cls.Tag, crime) {
		s.BufferCandidates++
	}

	return nil
}
