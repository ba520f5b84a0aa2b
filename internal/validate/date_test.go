package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, ok := ParseDate("2019-03-01")
	require.True(t, ok)
	assert.Equal(t, 2019, d.Year)
	assert.Equal(t, time.March, d.Month)
	assert.Equal(t, 1, d.Day)

	d, ok = ParseDate("  2020-12-31 ")
	require.True(t, ok)
	assert.Equal(t, "2020-12-31", d.String())
}

func TestParseDate_Invalid(t *testing.T) {
	for _, in := range []string{
		"",
		"NA",
		"03/01/2019",
		"2019-3-1",
		"2019-02-30",
		"2019-03-01 10:00:00",
		"2019/03/01",
		"na",
	} {
		t.Run(in, func(t *testing.T) {
			_, ok := ParseDate(in)
			assert.False(t, ok)
		})
	}
}

func TestDateOrdering(t *testing.T) {
	a := Date{Year: 2019, Month: time.January, Day: 15}
	b := Date{Year: 2019, Month: time.February, Day: 1}
	c := Date{Year: 2020, Month: time.January, Day: 1}

	assert.True(t, a.Before(b))
	assert.True(t, b.Before(c))
	assert.False(t, b.Before(a))
	assert.False(t, a.Before(a))
	assert.True(t, c.After(a))
	assert.False(t, a.After(a))
}

func TestDaysUntil(t *testing.T) {
	a := Date{Year: 2019, Month: time.January, Day: 1}
	b := Date{Year: 2020, Month: time.January, Day: 1}
	assert.Equal(t, 365, a.DaysUntil(b))
	assert.Equal(t, 0, a.DaysUntil(a))
	assert.Equal(t, -425, Date{Year: 2020, Month: time.March, Day: 1}.DaysUntil(a))
}

func TestDaysUntil_Centuries(t *testing.T) {
	old := Date{Year: 1700, Month: time.January, Day: 1}
	recent := Date{Year: 2020, Month: time.January, Day: 1}
	assert.Equal(t, 116877, old.DaysUntil(recent))
	assert.Equal(t, -116877, recent.DaysUntil(old))
}

func TestDateZero(t *testing.T) {
	assert.True(t, Date{}.IsZero())
	d, _ := ParseDate("2001-01-01")
	assert.False(t, d.IsZero())
}

func TestDateMarshalText(t *testing.T) {
	b, err := Date{Year: 2021, Month: time.July, Day: 4}.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2021-07-04", string(b))
}
