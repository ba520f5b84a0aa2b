// Package classify maps free-text crime labels to risk tags and a separate
// grave-crime flag using ordered keyword rules.
package classify

import (
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/crimestat/internal/model"
)

// Result is the classification of a single label.
type Result struct {
	Tag    model.Tag `json:"tag"`
	Severe bool      `json:"severe"`
}

// Classifier evaluates a compiled RuleSet. It is not safe for concurrent use.
type Classifier struct {
	set      RuleSet
	rules    []matcher
	severity []matcher
	groups   []matcher
	buffers  []BufferRule
	upper    cases.Caser
}

type matcher struct {
	rule Rule
	re   *regexp.Regexp
}

// New compiles a RuleSet. Keywords are normalized the same way labels are.
func New(set RuleSet) (*Classifier, error) {
	c := &Classifier{
		set:   set,
		upper: cases.Upper(language.Spanish),
	}

	var err error
	if c.rules, err = c.compile("rule", set.Rules, true); err != nil {
		return nil, err
	}
	if c.severity, err = c.compile("severity", set.Severity, false); err != nil {
		return nil, err
	}
	if c.groups, err = c.compile("group", set.Groups, false); err != nil {
		return nil, err
	}

	for i, b := range set.Buffers {
		if b.Tag == model.TagNone {
			return nil, eris.Errorf("classify: buffer %d has no tag", i)
		}
		ctxs := make([]string, len(b.Contexts))
		for j, kw := range b.Contexts {
			ctxs[j] = c.normalize(kw)
		}
		c.buffers = append(c.buffers, BufferRule{Tag: b.Tag, Contexts: ctxs})
	}

	return c, nil
}

// Default returns a Classifier over DefaultRuleSet.
func Default() *Classifier {
	c, err := New(DefaultRuleSet())
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Classifier) compile(kind string, rules []Rule, needTag bool) ([]matcher, error) {
	out := make([]matcher, 0, len(rules))
	for i, r := range rules {
		if needTag && r.Tag == model.TagNone {
			return nil, eris.Errorf("classify: %s %d (%s) has no tag", kind, i, r.Name)
		}
		if len(r.All) == 0 && len(r.Any) == 0 && r.Pattern == "" {
			return nil, eris.Errorf("classify: %s %d (%s) has no keywords or pattern", kind, i, r.Name)
		}

		m := matcher{rule: Rule{
			Name:    r.Name,
			Tag:     r.Tag,
			All:     c.normalizeAll(r.All),
			Any:     c.normalizeAll(r.Any),
			None:    c.normalizeAll(r.None),
			Pattern: r.Pattern,
		}}
		if r.Pattern != "" {
			re, err := regexp.Compile(r.Pattern)
			if err != nil {
				return nil, eris.Wrapf(err, "classify: %s %d (%s) pattern", kind, i, r.Name)
			}
			m.re = re
		}
		out = append(out, m)
	}
	return out, nil
}

func (m matcher) match(label string) bool {
	for _, kw := range m.rule.All {
		if !strings.Contains(label, kw) {
			return false
		}
	}
	if len(m.rule.Any) > 0 {
		found := false
		for _, kw := range m.rule.Any {
			if strings.Contains(label, kw) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, kw := range m.rule.None {
		if strings.Contains(label, kw) {
			return false
		}
	}
	if m.re != nil && !m.re.MatchString(label) {
		return false
	}
	return true
}

// Normalize trims and uppercases a label. No other normalization is applied.
func Normalize(label string) string {
	return cases.Upper(language.Spanish).String(strings.TrimSpace(label))
}

func (c *Classifier) normalize(label string) string {
	return c.upper.String(strings.TrimSpace(label))
}

func (c *Classifier) normalizeAll(kws []string) []string {
	if len(kws) == 0 {
		return nil
	}
	out := make([]string, len(kws))
	for i, kw := range kws {
		out[i] = c.normalize(kw)
	}
	return out
}

// Classify returns the tag and severity flag of a label.
func (c *Classifier) Classify(label string) Result {
	norm := c.normalize(label)
	return Result{Tag: c.tag(norm), Severe: c.severe(norm)}
}

// Tag returns the tag of the first matching rule, or TagNone.
func (c *Classifier) Tag(label string) model.Tag {
	return c.tag(c.normalize(label))
}

// IsSevere reports whether a label belongs to the grave-crime set. It is
// evaluated independently of Tag and may disagree with it.
func (c *Classifier) IsSevere(label string) bool {
	return c.severe(c.normalize(label))
}

// Group returns the name of the first severity group matching the label, or "".
func (c *Classifier) Group(label string) string {
	norm := c.normalize(label)
	for _, m := range c.groups {
		if m.match(norm) {
			return m.rule.Name
		}
	}
	return ""
}

// Groups returns the severity group names in evaluation order.
func (c *Classifier) Groups() []string {
	names := make([]string, len(c.groups))
	for i, m := range c.groups {
		names[i] = m.rule.Name
	}
	return names
}

// Tags returns the distinct tags produced by the rules in first-seen order.
func (c *Classifier) Tags() []model.Tag {
	seen := make(map[model.Tag]bool, len(c.rules))
	var tags []model.Tag
	for _, m := range c.rules {
		if !seen[m.rule.Tag] {
			seen[m.rule.Tag] = true
			tags = append(tags, m.rule.Tag)
		}
	}
	return tags
}

// BufferCandidate reports whether a retained record with the given tag and
// label seeds a risk buffer.
func (c *Classifier) BufferCandidate(tag model.Tag, label string) bool {
	if tag == model.TagNone {
		return false
	}
	norm := ""
	for _, b := range c.buffers {
		if b.Tag != tag {
			continue
		}
		if len(b.Contexts) == 0 {
			return true
		}
		if norm == "" {
			norm = c.normalize(label)
		}
		for _, kw := range b.Contexts {
			if strings.Contains(norm, kw) {
				return true
			}
		}
	}
	return false
}

// RuleSet returns the rule set the classifier was built from.
func (c *Classifier) RuleSet() RuleSet {
	return c.set
}

func (c *Classifier) tag(norm string) model.Tag {
	if norm == "" {
		return model.TagNone
	}
	for _, m := range c.rules {
		if m.match(norm) {
			return m.rule.Tag
		}
	}
	return model.TagNone
}

func (c *Classifier) severe(norm string) bool {
	if norm == "" {
		return false
	}
	for _, m := range c.severity {
		if m.match(norm) {
			return true
		}
	}
	return false
}
