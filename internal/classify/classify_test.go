package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/crimestat/internal/model"
)

func TestClassify_DefaultRules(t *testing.T) {
	c := Default()

	tests := []struct {
		name   string
		label  string
		tag    model.Tag
		severe bool
	}{
		{name: "culpable homicide excluded", label: "HOMICIDIO CULPOSO", tag: model.TagNone, severe: false},
		{name: "intentional homicide", label: "HOMICIDIO DOLOSO", tag: model.TagHomicide, severe: true},
		{name: "vehicle robbery with violence", label: "ROBO DE VEHICULO CON VIOLENCIA", tag: model.TagAssault, severe: true},
		{name: "plain robbery", label: "ROBO DE CELULAR", tag: model.TagRobbery, severe: false},
		{name: "feminicide untagged but severe", label: "FEMINICIDIO", tag: model.TagNone, severe: true},
		{name: "rape untagged but severe", label: "VIOLACION", tag: model.TagNone, severe: true},
		{name: "kidnapping untagged but severe", label: "SECUESTRO EXPRESS", tag: model.TagNone, severe: true},
		{name: "homicide beats robbery", label: "HOMICIDIO POR ROBO CON VIOLENCIA", tag: model.TagHomicide, severe: true},
		{name: "culpable homicide with robbery", label: "ROBO Y HOMICIDIO CULPOSO", tag: model.TagRobbery, severe: false},
		{name: "lowercase label", label: "  robo a transeunte con violencia ", tag: model.TagAssault, severe: true},
		{name: "sin violencia still contains violencia", label: "robo a pasajero a bordo de microbús sin violencia", tag: model.TagAssault, severe: true},
		{name: "unrelated", label: "FRAUDE", tag: model.TagNone, severe: false},
		{name: "empty", label: "", tag: model.TagNone, severe: false},
		{name: "whitespace only", label: "   ", tag: model.TagNone, severe: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := c.Classify(tt.label)
			assert.Equal(t, tt.tag, r.Tag)
			assert.Equal(t, tt.severe, r.Severe)
			assert.Equal(t, tt.tag, c.Tag(tt.label))
			assert.Equal(t, tt.severe, c.IsSevere(tt.label))
		})
	}
}

func TestClassify_RuleOrderMatters(t *testing.T) {
	// Robbery before assault: every robbery-with-violence degrades to robo.
	set := DefaultRuleSet()
	set.Rules = []Rule{
		{Name: "robo", Tag: model.TagRobbery, All: []string{"ROBO"}},
		{Name: "robo con violencia", Tag: model.TagAssault, All: []string{"ROBO", "VIOLENCIA"}},
	}
	c, err := New(set)
	require.NoError(t, err)

	assert.Equal(t, model.TagRobbery, c.Tag("ROBO DE VEHICULO CON VIOLENCIA"))
	assert.Equal(t, model.TagAssault, Default().Tag("ROBO DE VEHICULO CON VIOLENCIA"))
}

func TestClassify_PatternRule(t *testing.T) {
	set := DefaultRuleSet()
	set.Rules = append([]Rule{
		{Name: "robo vehiculo violento", Tag: "robo_vehiculo", Pattern: `^ROBO DE VEHICULO.*CON VIOLENCIA$`},
	}, set.Rules...)
	c, err := New(set)
	require.NoError(t, err)

	assert.Equal(t, model.Tag("robo_vehiculo"), c.Tag("ROBO DE VEHICULO DE SERVICIO PARTICULAR CON VIOLENCIA"))
	assert.Equal(t, model.TagAssault, c.Tag("ROBO A NEGOCIO CON VIOLENCIA"))
	assert.Equal(t, []model.Tag{"robo_vehiculo", model.TagHomicide, model.TagAssault, model.TagRobbery}, c.Tags())
}

func TestNew_Errors(t *testing.T) {
	t.Run("tag rule without tag", func(t *testing.T) {
		set := DefaultRuleSet()
		set.Rules = []Rule{{Name: "x", All: []string{"ROBO"}}}
		_, err := New(set)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "has no tag")
	})

	t.Run("rule without conditions", func(t *testing.T) {
		set := DefaultRuleSet()
		set.Severity = []Rule{{Name: "everything", None: []string{"CULPOSO"}}}
		_, err := New(set)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no keywords or pattern")
	})

	t.Run("bad pattern", func(t *testing.T) {
		set := DefaultRuleSet()
		set.Groups = []Rule{{Name: "bad", Pattern: "ROBO("}}
		_, err := New(set)
		require.Error(t, err)
	})

	t.Run("buffer without tag", func(t *testing.T) {
		set := DefaultRuleSet()
		set.Buffers = []BufferRule{{Contexts: []string{"METRO"}}}
		_, err := New(set)
		require.Error(t, err)
	})
}

func TestGroup(t *testing.T) {
	c := Default()

	assert.Equal(t, "HOMICIDIO", c.Group("HOMICIDIO POR ARMA DE FUEGO"))
	assert.Equal(t, "FEMINICIDIO", c.Group("FEMINICIDIO"))
	assert.Equal(t, "VIOLACION", c.Group("VIOLACION EQUIPARADA"))
	assert.Equal(t, "ROBO CON VIOLENCIA", c.Group("ROBO A NEGOCIO CON VIOLENCIA"))
	assert.Equal(t, "SECUESTRO", c.Group("PLAGIO O SECUESTRO"))
	// First match wins: culpable homicide still lands in the homicide group.
	assert.Equal(t, "HOMICIDIO", c.Group("HOMICIDIO CULPOSO POR TRANSITO VEHICULAR"))
	assert.Equal(t, "", c.Group("FRAUDE"))

	assert.Equal(t, []string{"HOMICIDIO", "FEMINICIDIO", "VIOLACION", "ROBO CON VIOLENCIA", "SECUESTRO"}, c.Groups())
}

func TestBufferCandidate(t *testing.T) {
	c := Default()

	assert.True(t, c.BufferCandidate(model.TagHomicide, "HOMICIDIO DOLOSO"))
	assert.True(t, c.BufferCandidate(model.TagAssault, "ROBO A TRANSEUNTE EN VIA PUBLICA CON VIOLENCIA"))
	assert.True(t, c.BufferCandidate(model.TagAssault, "ROBO A CASA HABITACION CON VIOLENCIA"))
	assert.False(t, c.BufferCandidate(model.TagAssault, "ROBO A NEGOCIO CON VIOLENCIA"))
	assert.False(t, c.BufferCandidate(model.TagRobbery, "ROBO A TRANSEUNTE SIN VIOLENCIA"))
	assert.False(t, c.BufferCandidate(model.TagNone, "HOMICIDIO DOLOSO"))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "ROBO A TRANSEÚNTE", Normalize("  robo a transeúnte\t"))
	assert.Equal(t, "", Normalize(""))
}
