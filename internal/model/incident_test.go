package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTagString(t *testing.T) {
	assert.Equal(t, "none", TagNone.String())
	assert.Equal(t, "robo", TagRobbery.String())
	assert.Equal(t, "asalto", TagAssault.String())
	assert.Equal(t, "homicidio", TagHomicide.String())
	assert.Equal(t, "extorsion", Tag("extorsion").String())
}

func TestTagLabel(t *testing.T) {
	assert.Equal(t, "Homicidios", TagHomicide.Label())
	assert.Equal(t, "Sin clasificar", TagNone.Label())
	// Custom tags fall back to their raw value.
	assert.Equal(t, "extorsion", Tag("extorsion").Label())
}

func TestDefaultTagsOrder(t *testing.T) {
	assert.Equal(t, []Tag{TagRobbery, TagAssault, TagHomicide}, DefaultTags)
}
