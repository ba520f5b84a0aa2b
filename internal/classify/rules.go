package classify

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/crimestat/internal/model"
)

// Rule matches a normalized crime label. A label matches when it contains
// every All keyword, at least one Any keyword (if any are listed), none of
// the None keywords, and the Pattern regexp (if set).
type Rule struct {
	Name    string    `yaml:"name" json:"name"`
	Tag     model.Tag `yaml:"tag,omitempty" json:"tag,omitempty"`
	All     []string  `yaml:"all,omitempty" json:"all,omitempty"`
	Any     []string  `yaml:"any,omitempty" json:"any,omitempty"`
	None    []string  `yaml:"none,omitempty" json:"none,omitempty"`
	Pattern string    `yaml:"pattern,omitempty" json:"pattern,omitempty"`
}

// BufferRule selects retained records that seed risk buffers on the map.
// With no Contexts every record carrying Tag qualifies; otherwise the label
// must mention one of the contexts.
type BufferRule struct {
	Tag      model.Tag `yaml:"tag" json:"tag"`
	Contexts []string  `yaml:"contexts,omitempty" json:"contexts,omitempty"`
}

// RuleSet is the data-driven configuration of a Classifier. Rules are
// evaluated in order and the first match wins.
type RuleSet struct {
	Rules    []Rule       `yaml:"rules" json:"rules"`
	Severity []Rule       `yaml:"severity" json:"severity"`
	Groups   []Rule       `yaml:"groups" json:"groups"`
	Buffers  []BufferRule `yaml:"buffers" json:"buffers"`
}

// DefaultRules returns the tag rules in precedence order: homicide (except
// culpable homicide), then robbery with violence, then any other robbery.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "homicidio doloso", Tag: model.TagHomicide, All: []string{"HOMICIDIO"}, None: []string{"CULPOSO"}},
		{Name: "robo con violencia", Tag: model.TagAssault, All: []string{"ROBO", "VIOLENCIA"}},
		{Name: "robo", Tag: model.TagRobbery, All: []string{"ROBO"}},
	}
}

// DefaultSeverity returns the rules of the grave-crime predicate.
func DefaultSeverity() []Rule {
	return []Rule{
		{Name: "delito grave", Any: []string{"HOMICIDIO", "FEMINICIDIO", "VIOLACION", "SECUESTRO"}, None: []string{"CULPOSO"}},
		{Name: "robo con violencia", All: []string{"ROBO", "VIOLENCIA"}},
	}
}

// DefaultGroups returns the severity groups used to break down crime labels
// in reports.
func DefaultGroups() []Rule {
	return []Rule{
		{Name: "HOMICIDIO", Pattern: "HOMICIDIO"},
		{Name: "FEMINICIDIO", Pattern: "FEMINICIDIO"},
		{Name: "VIOLACION", Pattern: "VIOLACION"},
		{Name: "ROBO CON VIOLENCIA", Pattern: "ROBO.*VIOLENCIA"},
		{Name: "SECUESTRO", Pattern: "SECUESTRO"},
	}
}

// DefaultBuffers returns the risk-buffer selection: every homicide, plus
// assaults against pedestrians, passengers and homes.
func DefaultBuffers() []BufferRule {
	return []BufferRule{
		{Tag: model.TagHomicide},
		{Tag: model.TagAssault, Contexts: []string{"TRANSEUNTE", "PASAJERO", "TAXI", "METRO", "MICROBUS", "CASA HABITACION"}},
	}
}

// DefaultRuleSet returns the built-in rule set.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		Rules:    DefaultRules(),
		Severity: DefaultSeverity(),
		Groups:   DefaultGroups(),
		Buffers:  DefaultBuffers(),
	}
}

// LoadRules reads a YAML rule file. Sections left empty in the file fall back
// to the built-in defaults.
func LoadRules(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, eris.Wrapf(err, "classify: read rules %s", path)
	}

	var set RuleSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return RuleSet{}, eris.Wrapf(err, "classify: parse rules %s", path)
	}

	if len(set.Rules) == 0 {
		set.Rules = DefaultRules()
	}
	if len(set.Severity) == 0 {
		set.Severity = DefaultSeverity()
	}
	if len(set.Groups) == 0 {
		set.Groups = DefaultGroups()
	}
	if len(set.Buffers) == 0 {
		set.Buffers = DefaultBuffers()
	}
	return set, nil
}
