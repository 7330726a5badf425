package primitive

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type color int

func (c color) String() string {
	switch c {
	case 1:
		return "red"
	case 2:
		return "green"
	default:
		return "unknown"
	}
}

type level string

type weekday int

func (w *weekday) UnmarshalText(text []byte) error {
	switch string(text) {
	case "monday":
		*w = 1
	case "tuesday":
		*w = 2
	default:
		*w = 0
	}

	return nil
}

func TestConverter(t *testing.T) {
	t.Parallel()

	stamp := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		to   reflect.Type
		want any
	}{
		{"identity", 42, reflect.TypeFor[int](), 42},
		{"widening", int8(-5), reflect.TypeFor[int64](), int64(-5)},
		{"narrowing", int64(100), reflect.TypeFor[int8](), int8(100)},
		{"signed to unsigned", 7, reflect.TypeFor[uint32](), uint32(7)},
		{"float to int", 3.99, reflect.TypeFor[int](), 3},
		{"int to float", 3, reflect.TypeFor[float64](), 3.0},
		{"int to text", 123, reflect.TypeFor[string](), "123"},
		{"float to text", 1.5, reflect.TypeFor[string](), "1.5"},
		{"text to int", " 42 ", reflect.TypeFor[int](), 42},
		{"text to float", "2.25", reflect.TypeFor[float32](), float32(2.25)},
		{"text to bool", "yes", reflect.TypeFor[bool](), true},
		{"bool to text", false, reflect.TypeFor[string](), "false"},
		{"text to time", "2024-03-01T10:30:00Z", reflect.TypeFor[time.Time](), stamp},
		{"time to text", stamp, reflect.TypeFor[string](), "2024-03-01T10:30:00Z"},
		{"text to duration", "2h45m", reflect.TypeFor[time.Duration](), 2*time.Hour + 45*time.Minute},
		{"duration to float", 90 * time.Second, reflect.TypeFor[float64](), 90.0},
		{"stringer enum to text", color(2), reflect.TypeFor[string](), "green"},
		{"text to string enum", "debug", reflect.TypeFor[level](), level("debug")},
		{"string enum to text", level("warn"), reflect.TypeFor[string](), "warn"},
		{"text to unmarshaler enum", "tuesday", reflect.TypeFor[weekday](), weekday(2)},
		{"int enum to int enum", color(1), reflect.TypeFor[weekday](), weekday(1)},
		{"named float", float64(12.5), reflect.TypeFor[celsius](), celsius(12.5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fn, err := Converter(reflect.TypeOf(tt.in), tt.to, CategoryAll)
			require.NoError(t, err)

			got, err := fn(reflect.ValueOf(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Interface())
		})
	}
}

type celsius float64

func TestConverter_Failures(t *testing.T) {
	t.Parallel()

	t.Run("category not allowed", func(t *testing.T) {
		t.Parallel()

		_, err := Converter(reflect.TypeFor[string](), reflect.TypeFor[int](), CategorySafeNumber)
		require.ErrorIs(t, err, ErrConversionNotAllowed)
	})

	t.Run("no conversion", func(t *testing.T) {
		t.Parallel()

		_, err := Converter(reflect.TypeFor[[]int](), reflect.TypeFor[string](), CategoryAll)
		require.ErrorIs(t, err, ErrNoConversion)
	})

	t.Run("overflow", func(t *testing.T) {
		t.Parallel()

		fn, err := Converter(reflect.TypeFor[int](), reflect.TypeFor[int8](), CategoryAll)
		require.NoError(t, err)

		_, err = fn(reflect.ValueOf(300))
		require.ErrorIs(t, err, ErrOutOfRange)
	})

	t.Run("negative to unsigned", func(t *testing.T) {
		t.Parallel()

		fn, err := Converter(reflect.TypeFor[int](), reflect.TypeFor[uint](), CategoryAll)
		require.NoError(t, err)

		_, err = fn(reflect.ValueOf(-1))
		require.ErrorIs(t, err, ErrOutOfRange)
	})

	t.Run("float beyond int64", func(t *testing.T) {
		t.Parallel()

		fn, err := Converter(reflect.TypeFor[float64](), reflect.TypeFor[int64](), CategoryAll)
		require.NoError(t, err)

		_, err = fn(reflect.ValueOf(math.Inf(1)))
		require.ErrorIs(t, err, ErrOutOfRange)
	})

	t.Run("bad text", func(t *testing.T) {
		t.Parallel()

		fn, err := Converter(reflect.TypeFor[string](), reflect.TypeFor[bool](), CategoryAll)
		require.NoError(t, err)

		_, err = fn(reflect.ValueOf("maybe"))
		require.ErrorIs(t, err, ErrInvalidText)
	})
}

func TestConversions_Lookup(t *testing.T) {
	t.Parallel()

	c := NewConversions(CategoryDefault)
	assert.Equal(t, CategoryDefault, c.Allowed())

	first, err := c.Lookup(reflect.TypeFor[string](), reflect.TypeFor[int]())
	require.NoError(t, err)

	second, err := c.Lookup(reflect.TypeFor[string](), reflect.TypeFor[int]())
	require.NoError(t, err)
	assert.Equal(t, reflect.ValueOf(first).Pointer(), reflect.ValueOf(second).Pointer())

	_, err = c.Lookup(reflect.TypeFor[int](), reflect.TypeFor[bool]())
	require.ErrorIs(t, err, ErrConversionNotAllowed)
}
