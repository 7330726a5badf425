package primitive

import (
	"encoding"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"struct-mapper/utils"
)

var (
	ErrNoConversion         = errors.New("no conversion between types")
	ErrConversionNotAllowed = errors.New("conversion category is not allowed")
	ErrOutOfRange           = errors.New("value is out of range")
	ErrInvalidText          = errors.New("text cannot be converted")
)

var (
	stringerType      = reflect.TypeFor[fmt.Stringer]()
	textUnmarshalType = reflect.TypeFor[encoding.TextUnmarshaler]()
	timeType          = reflect.TypeFor[time.Time]()
)

// Convert converts a value into the target type it was built for.
type Convert func(reflect.Value) (reflect.Value, error)

// Converter returns a conversion between two scalar types.
//
// Identical and assignable types are always converted. Conversions between
// primitive kinds are restricted to the allowed categories; other pairs fall
// back to Go conversion rules within the same kind family.
func Converter(from, to reflect.Type, allowed CategoryEnum) (Convert, error) {
	if from == to {
		return identity, nil
	}

	if from.AssignableTo(to) {
		return convertTo(to), nil
	}

	fromKind, toKind := FromReflectType(from), FromReflectType(to)
	if fromKind != 0 && toKind != 0 {
		category := Category(fromKind, toKind)
		switch {
		case category == CategoryNone:
			// fall through to the generic conversion below
		case category&allowed == 0:
			return nil, fmt.Errorf("%w: %s to %s", ErrConversionNotAllowed, from, to)
		default:
			if fn := kindConverter(fromKind, toKind, to); fn != nil {
				return fn, nil
			}
		}
	}

	if sameFamily(from.Kind(), to.Kind()) && from.ConvertibleTo(to) {
		return convertTo(to), nil
	}

	if to.Kind() == reflect.String && from.Implements(stringerType) {
		return stringify(to), nil
	}

	return nil, fmt.Errorf("%w: %s to %s", ErrNoConversion, from, to)
}

// Conversions memoizes converters per type pair for a fixed set of categories.
type Conversions struct {
	allowed CategoryEnum
	cache   sync.Map // ConversionKey -> conversionEntry
}

// ConversionKey identifies a memoized conversion.
type ConversionKey struct{ From, To reflect.Type }

type conversionEntry struct {
	fn  Convert
	err error
}

func NewConversions(allowed CategoryEnum) *Conversions {
	return &Conversions{allowed: allowed}
}

// Allowed returns the categories the conversions are restricted to.
func (c *Conversions) Allowed() CategoryEnum { return c.allowed }

// Lookup returns the memoized converter for the pair.
func (c *Conversions) Lookup(from, to reflect.Type) (Convert, error) {
	key := ConversionKey{From: from, To: to}
	if entry, ok := c.cache.Load(key); ok {
		e := entry.(conversionEntry)
		return e.fn, e.err
	}

	fn, err := Converter(from, to, c.allowed)
	c.cache.Store(key, conversionEntry{fn: fn, err: err})

	return fn, err
}

func identity(v reflect.Value) (reflect.Value, error) { return v, nil }

func convertTo(to reflect.Type) Convert {
	return func(v reflect.Value) (reflect.Value, error) {
		return v.Convert(to), nil
	}
}

func stringify(to reflect.Type) Convert {
	return func(v reflect.Value) (reflect.Value, error) {
		s := v.Interface().(fmt.Stringer).String()
		return reflect.ValueOf(s).Convert(to), nil
	}
}

func sameFamily(a, b reflect.Kind) bool {
	return family(a) != 0 && family(a) == family(b)
}

func family(k reflect.Kind) int {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return 1
	case reflect.String:
		return 2
	case reflect.Bool:
		return 3
	case reflect.Complex64, reflect.Complex128:
		return 4
	default:
		return 0
	}
}

func kindConverter(from, to KindEnum, toType reflect.Type) Convert {
	switch {
	case from.IsNumber() && to.IsNumber():
		return numberToNumber(to, toType)
	case from.IsNumber() && to.IsText():
		return numberToText(from, toType)
	case from.IsText() && to.IsNumber():
		return textToNumber(to, toType)
	case from.IsInteger() && to == KindBool:
		return func(v reflect.Value) (reflect.Value, error) {
			n, err := readInt(v)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(n != 0).Convert(toType), nil
		}
	case from == KindBool && to.IsInteger():
		return func(v reflect.Value) (reflect.Value, error) {
			out := reflect.New(toType).Elem()
			if v.Bool() {
				return writeInt(out, to, 1)
			}
			return out, nil
		}
	case from.IsText() && to == KindBool:
		return textToBool(toType)
	case from == KindBool && to.IsText():
		return func(v reflect.Value) (reflect.Value, error) {
			return reflect.ValueOf(strconv.FormatBool(v.Bool())).Convert(toType), nil
		}
	case from.IsText() && to == KindTime:
		return func(v reflect.Value) (reflect.Value, error) {
			t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(v.String()))
			if err != nil {
				return reflect.Value{}, fmt.Errorf("%w: %w", ErrInvalidText, err)
			}
			return reflect.ValueOf(t), nil
		}
	case from == KindTime && to.IsText():
		return func(v reflect.Value) (reflect.Value, error) {
			t := v.Interface().(time.Time)
			return reflect.ValueOf(t.Format(time.RFC3339Nano)).Convert(toType), nil
		}
	case from.IsInteger() && to == KindTime:
		return func(v reflect.Value) (reflect.Value, error) {
			n, err := readInt(v)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(time.Unix(n, 0).UTC()), nil
		}
	case from == KindTime && to.IsInteger():
		return func(v reflect.Value) (reflect.Value, error) {
			t := v.Interface().(time.Time)
			return writeInt(reflect.New(toType).Elem(), to, t.Unix())
		}
	case from.IsText() && to == KindDuration:
		return func(v reflect.Value) (reflect.Value, error) {
			d, err := time.ParseDuration(strings.TrimSpace(v.String()))
			if err != nil {
				return reflect.Value{}, fmt.Errorf("%w: %w", ErrInvalidText, err)
			}
			return reflect.ValueOf(d), nil
		}
	case from == KindDuration && to.IsText():
		return func(v reflect.Value) (reflect.Value, error) {
			return reflect.ValueOf(time.Duration(v.Int()).String()).Convert(toType), nil
		}
	case from.IsInteger() && to == KindDuration:
		return func(v reflect.Value) (reflect.Value, error) {
			n, err := readInt(v)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(time.Duration(n)), nil
		}
	case from == KindDuration && to.IsInteger():
		return func(v reflect.Value) (reflect.Value, error) {
			return writeInt(reflect.New(toType).Elem(), to, v.Int())
		}
	case from.IsFloat() && to == KindDuration:
		return func(v reflect.Value) (reflect.Value, error) {
			seconds := v.Float() * float64(time.Second)
			if !utils.Within(float64(math.MinInt64), seconds, float64(math.MaxInt64)) {
				return reflect.Value{}, fmt.Errorf("%w: %v seconds", ErrOutOfRange, v.Float())
			}
			return reflect.ValueOf(time.Duration(seconds)), nil
		}
	case from == KindDuration && to.IsFloat():
		return func(v reflect.Value) (reflect.Value, error) {
			return reflect.ValueOf(time.Duration(v.Int()).Seconds()).Convert(toType), nil
		}
	case from == KindPrimitiveEnum || to == KindPrimitiveEnum:
		return enumConverter(toType)
	}

	return nil
}

func numberToNumber(to KindEnum, toType reflect.Type) Convert {
	return func(v reflect.Value) (reflect.Value, error) {
		out := reflect.New(toType).Elem()

		switch {
		case to.IsSigned():
			n, err := readInt(v)
			if err != nil {
				return reflect.Value{}, err
			}
			return writeInt(out, to, n)

		case to.IsUnsigned():
			n, err := readUint(v)
			if err != nil {
				return reflect.Value{}, err
			}
			if out.OverflowUint(n) {
				return reflect.Value{}, fmt.Errorf("%w: %d for %s", ErrOutOfRange, n, toType)
			}
			out.SetUint(n)
			return out, nil

		default:
			out.SetFloat(readFloat(v))
			return out, nil
		}
	}
}

func numberToText(from KindEnum, toType reflect.Type) Convert {
	return func(v reflect.Value) (reflect.Value, error) {
		var s string

		switch {
		case from.IsSigned():
			s = strconv.FormatInt(v.Int(), 10)
		case from.IsUnsigned():
			s = strconv.FormatUint(v.Uint(), 10)
		default:
			s = strconv.FormatFloat(v.Float(), 'g', -1, from.Bits())
		}

		return reflect.ValueOf(s).Convert(toType), nil
	}
}

func textToNumber(to KindEnum, toType reflect.Type) Convert {
	return func(v reflect.Value) (reflect.Value, error) {
		s := strings.TrimSpace(v.String())
		out := reflect.New(toType).Elem()

		switch {
		case to.IsSigned():
			n, err := strconv.ParseInt(s, 10, to.Bits())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("%w: %w", ErrInvalidText, err)
			}
			out.SetInt(n)

		case to.IsUnsigned():
			n, err := strconv.ParseUint(s, 10, to.Bits())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("%w: %w", ErrInvalidText, err)
			}
			out.SetUint(n)

		default:
			f, err := strconv.ParseFloat(s, to.Bits())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("%w: %w", ErrInvalidText, err)
			}
			out.SetFloat(f)
		}

		return out, nil
	}
}

func textToBool(toType reflect.Type) Convert {
	return func(v reflect.Value) (reflect.Value, error) {
		var b bool

		switch strings.ToLower(strings.TrimSpace(v.String())) {
		default:
			return reflect.Value{}, fmt.Errorf("%w: %q is not a boolean", ErrInvalidText, v.String())
		case "true", "yes", "on", "y", "1":
			b = true
		case "false", "no", "off", "n", "0":
			b = false
		}

		return reflect.ValueOf(b).Convert(toType), nil
	}
}

// enumConverter converts between named scalar types and their textual form.
func enumConverter(toType reflect.Type) Convert {
	return func(v reflect.Value) (reflect.Value, error) {
		if v.Kind() == toType.Kind() {
			return v.Convert(toType), nil
		}

		text := textOf(v)
		if toType.Kind() == reflect.String {
			return reflect.ValueOf(text).Convert(toType), nil
		}

		ptr := reflect.New(toType)
		if ptr.Type().Implements(textUnmarshalType) {
			err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(text))
			if err != nil {
				return reflect.Value{}, fmt.Errorf("%w: %w", ErrInvalidText, err)
			}
			return ptr.Elem(), nil
		}

		switch toType.Kind() {
		case reflect.Bool:
			return textToBool(toType)(reflect.ValueOf(text))
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			n, err := strconv.ParseInt(strings.TrimSpace(text), 10, toType.Bits())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("%w: %w", ErrInvalidText, err)
			}
			ptr.Elem().SetInt(n)
			return ptr.Elem(), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			n, err := strconv.ParseUint(strings.TrimSpace(text), 10, toType.Bits())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("%w: %w", ErrInvalidText, err)
			}
			ptr.Elem().SetUint(n)
			return ptr.Elem(), nil
		}

		return reflect.Value{}, fmt.Errorf("%w: %s to %s", ErrNoConversion, v.Type(), toType)
	}
}

func textOf(v reflect.Value) string {
	switch {
	case v.Kind() == reflect.String:
		return v.String()
	case v.Type().Implements(stringerType):
		return v.Interface().(fmt.Stringer).String()
	case v.Kind() == reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case v.CanInt():
		return strconv.FormatInt(v.Int(), 10)
	case v.CanUint():
		return strconv.FormatUint(v.Uint(), 10)
	default:
		return fmt.Sprint(v.Interface())
	}
}

func readInt(v reflect.Value) (int64, error) {
	switch {
	case v.CanInt():
		return v.Int(), nil
	case v.CanUint():
		n := v.Uint()
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d", ErrOutOfRange, n)
		}
		return int64(n), nil
	case v.CanFloat():
		f := v.Float()
		if !utils.Within(float64(math.MinInt64), f, float64(math.MaxInt64)) {
			return 0, fmt.Errorf("%w: %v", ErrOutOfRange, f)
		}
		return int64(f), nil
	case v.Kind() == reflect.Bool:
		if v.Bool() {
			return 1, nil
		}
		return 0, nil
	}

	return 0, fmt.Errorf("%w: %s is not a number", ErrNoConversion, v.Type())
}

func readUint(v reflect.Value) (uint64, error) {
	switch {
	case v.CanUint():
		return v.Uint(), nil
	case v.CanInt():
		n := v.Int()
		if n < 0 {
			return 0, fmt.Errorf("%w: %d", ErrOutOfRange, n)
		}
		return uint64(n), nil
	case v.CanFloat():
		f := v.Float()
		if !utils.Within(0, f, float64(math.MaxUint64)) {
			return 0, fmt.Errorf("%w: %v", ErrOutOfRange, f)
		}
		return uint64(f), nil
	}

	return 0, fmt.Errorf("%w: %s is not a number", ErrNoConversion, v.Type())
}

func readFloat(v reflect.Value) float64 {
	switch {
	case v.CanInt():
		return float64(v.Int())
	case v.CanUint():
		return float64(v.Uint())
	default:
		return v.Float()
	}
}

func writeInt(out reflect.Value, to KindEnum, n int64) (reflect.Value, error) {
	if to.IsUnsigned() {
		if n < 0 || out.OverflowUint(uint64(n)) {
			return reflect.Value{}, fmt.Errorf("%w: %d for %s", ErrOutOfRange, n, out.Type())
		}
		out.SetUint(uint64(n))
		return out, nil
	}

	if out.OverflowInt(n) {
		return reflect.Value{}, fmt.Errorf("%w: %d for %s", ErrOutOfRange, n, out.Type())
	}
	out.SetInt(n)

	return out, nil
}

// IsTime reports whether the type is time.Time.
func IsTime(t reflect.Type) bool { return t == timeType }
