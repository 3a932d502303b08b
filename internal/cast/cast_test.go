package cast

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPHPLayout(t *testing.T) {
	tests := []struct {
		format string
		layout string
	}{
		{"Y-m-d", "2006-01-02"},
		{"Y-m-d H:i:s", "2006-01-02 15:04:05"},
		{"d/m/y", "02/01/06"},
		{`Y\Ym`, "2006Y01"},
		{"D, j M Y", "Mon, 2 Jan 2006"},
		{"H:i:s.u", "15:04:05.000000"},
		{`\d\a\y j`, "day 2"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			layout, err := PHPLayout(tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.layout, layout)
		})
	}

	_, err := PHPLayout("U")
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	// Literals Go would format as date elements.
	for _, format := range []string{`Y\1`, `\J\a\n Y`, `\M\o\n j`, `Y, 2 m`} {
		_, err := PHPLayout(format)
		require.ErrorIs(t, err, ErrUnsupportedFormat, format)
	}
}

func TestDate_EncodeWithConfiguredFormat(t *testing.T) {
	d, err := NewDate("Y-m-d", false)
	require.NoError(t, err)

	out, err := d.Encode(time.Date(2024, 1, 5, 13, 4, 5, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-05", out)
}

func TestDate_Decode(t *testing.T) {
	d, err := NewDate("", true)
	require.NoError(t, err)
	assert.Equal(t, DefaultDateFormat, d.Format())

	out, err := d.Decode("2024-01-05 13:04:05")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), out)

	out, err = d.Decode("")
	require.NoError(t, err)
	assert.Nil(t, out)

	_, err = d.Decode("yesterday")
	require.Error(t, err)

	_, err = d.Decode([]int{1})
	require.ErrorIs(t, err, ErrUnsupportedValue)
}

func TestDate_Strftime(t *testing.T) {
	d, err := NewDate("%Y-%m-%d", false)
	require.NoError(t, err)

	out, err := d.Encode(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-05", out)
}

func TestWeak(t *testing.T) {
	f := NewFactory()

	c, err := f.Build("int", Options{})
	require.NoError(t, err)

	out, err := c.Decode("30")
	require.NoError(t, err)
	assert.Equal(t, int64(30), out)

	c, err = f.Build("string", Options{})
	require.NoError(t, err)

	out, err = c.Encode(42)
	require.NoError(t, err)
	assert.Equal(t, "42", out)

	c, err = f.Build("bool", Options{})
	require.NoError(t, err)

	out, err = c.Decode("1")
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

func TestJSON(t *testing.T) {
	c := JSON{}

	stored, err := c.Decode(map[string]any{"a": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, stored.(string))

	restored, err := c.Encode(stored)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1)}, restored)
}

func TestFactory_UnknownCasterSuggestsName(t *testing.T) {
	_, err := NewFactory().Build("datetme", Options{})
	require.ErrorIs(t, err, ErrUnknownCaster)
	assert.Contains(t, err.Error(), `did you mean "datetime"`)
}

type countingCaster struct {
	calls int
}

func (c *countingCaster) Decode(v any) (any, error) {
	c.calls++
	return v, nil
}

func (c *countingCaster) Encode(v any) (any, error) {
	return v, nil
}

func TestRegistry_CachesCasterPerInstance(t *testing.T) {
	builds := 0
	shared := &countingCaster{}

	f := NewFactory()
	f.Register("counting", func(string, Options) (Caster, error) {
		builds++
		return shared, nil
	})

	r := NewRegistry(f, map[string]string{"name": "counting"}, Options{})

	for range 3 {
		_, err := r.Decode("name", "x")
		require.NoError(t, err)
	}

	assert.Equal(t, 1, builds)
	assert.Equal(t, 3, shared.calls)

	// A second instance builds its own caster.
	other := NewRegistry(f, map[string]string{"name": "counting"}, Options{})
	_, err := other.Decode("name", "y")
	require.NoError(t, err)
	assert.Equal(t, 2, builds)
}

func TestRegistry_PassThrough(t *testing.T) {
	r := NewRegistry(nil, map[string]string{"born": "date:Y-m-d"}, Options{})

	out, err := r.Decode("unknown", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, out)

	out, err = r.Decode("born", nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestRegistry_CastFailureIsTyped(t *testing.T) {
	r := NewRegistry(nil, map[string]string{"born": "date:Y-m-d"}, Options{})

	_, err := r.Decode("born", "not a date")
	require.Error(t, err)

	var castErr *Error
	require.True(t, errors.As(err, &castErr))
	assert.Equal(t, "born", castErr.Field)
	assert.Equal(t, "date:Y-m-d", castErr.Caster)
}
