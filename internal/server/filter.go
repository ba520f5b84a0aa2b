package server

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/crimestat/internal/model"
	"github.com/sells-group/crimestat/internal/validate"
)

// Filter selects detail records by query parameters.
type Filter struct {
	Tags         map[model.Tag]bool // empty matches every tag
	Municipality string
	From         validate.Date // inclusive; zero means unbounded
	To           validate.Date // inclusive; zero means unbounded
	SevereOnly   bool
}

// ParseFilter reads tipo, alcaldia, desde, hasta and grave from q.
func ParseFilter(q url.Values) (Filter, error) {
	var f Filter

	if raw := q.Get("tipo"); raw != "" {
		f.Tags = make(map[model.Tag]bool)
		for _, t := range strings.Split(raw, ",") {
			if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
				f.Tags[model.Tag(t)] = true
			}
		}
	}

	f.Municipality = strings.TrimSpace(q.Get("alcaldia"))

	if raw := q.Get("desde"); raw != "" {
		d, ok := validate.ParseDate(raw)
		if !ok {
			return Filter{}, eris.Errorf("invalid desde date %q, want YYYY-MM-DD", raw)
		}
		f.From = d
	}
	if raw := q.Get("hasta"); raw != "" {
		d, ok := validate.ParseDate(raw)
		if !ok {
			return Filter{}, eris.Errorf("invalid hasta date %q, want YYYY-MM-DD", raw)
		}
		f.To = d
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return Filter{}, eris.New("hasta is before desde")
	}

	if raw := q.Get("grave"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return Filter{}, eris.Errorf("invalid grave value %q", raw)
		}
		f.SevereOnly = b
	}

	return f, nil
}

// Match reports whether d passes every condition of f.
func (f Filter) Match(d model.DetailRecord) bool {
	if len(f.Tags) > 0 && !f.Tags[d.Tag] {
		return false
	}
	if f.Municipality != "" && !strings.EqualFold(f.Municipality, d.Municipality) {
		return false
	}
	if f.SevereOnly && !d.Severe {
		return false
	}
	// Detail dates are canonical YYYY-MM-DD, so string order is date order.
	if !f.From.IsZero() && d.Date < f.From.String() {
		return false
	}
	if !f.To.IsZero() && d.Date > f.To.String() {
		return false
	}
	return true
}
