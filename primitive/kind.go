package primitive

import (
	"reflect"
	"strconv"
	"time"
)

//go:generate go tool stringer -type=KindEnum -output=kind_string.go

// KindEnum is the conversion kind of a simple type. The zero value marks a
// type that has no conversion kind.
type KindEnum int

const (
	_ KindEnum = iota

	KindInt
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindBool
	KindString
	KindTime
	KindDuration
	KindPrimitiveEnum // named integer, boolean or string type

	// KindTotal is the number of kinds, the zero kind included.
	KindTotal = int(iota)
)

// kindInfo describes the numeric kinds. minBits and maxBits differ only for
// int and uint, whose width depends on the platform.
type kindInfo struct {
	number, integer, signed bool
	minBits, maxBits        int
}

var kinds = map[KindEnum]kindInfo{
	KindInt:     {number: true, integer: true, signed: true, minBits: 32, maxBits: 64},
	KindInt8:    {number: true, integer: true, signed: true, minBits: 8, maxBits: 8},
	KindInt16:   {number: true, integer: true, signed: true, minBits: 16, maxBits: 16},
	KindInt32:   {number: true, integer: true, signed: true, minBits: 32, maxBits: 32},
	KindInt64:   {number: true, integer: true, signed: true, minBits: 64, maxBits: 64},
	KindUint:    {number: true, integer: true, minBits: 32, maxBits: 64},
	KindUint8:   {number: true, integer: true, minBits: 8, maxBits: 8},
	KindUint16:  {number: true, integer: true, minBits: 16, maxBits: 16},
	KindUint32:  {number: true, integer: true, minBits: 32, maxBits: 32},
	KindUint64:  {number: true, integer: true, minBits: 64, maxBits: 64},
	KindFloat32: {number: true, signed: true, minBits: 32, maxBits: 32},
	KindFloat64: {number: true, signed: true, minBits: 64, maxBits: 64},
}

func (k KindEnum) IsNumber() bool  { return kinds[k].number }
func (k KindEnum) IsInteger() bool { return kinds[k].integer }
func (k KindEnum) IsFloat() bool   { return kinds[k].number && !kinds[k].integer }

// IsSigned reports whether the kind is a signed integer.
func (k KindEnum) IsSigned() bool { return kinds[k].integer && kinds[k].signed }

// IsUnsigned reports whether the kind is an unsigned integer.
func (k KindEnum) IsUnsigned() bool { return kinds[k].integer && !kinds[k].signed }

// IsText reports whether the kind is carried as a string.
func (k KindEnum) IsText() bool { return k == KindString }

// Bits returns the width of a number kind on this platform.
func (k KindEnum) Bits() int {
	info, ok := kinds[k]
	if !ok {
		panic("only number kinds have a width, but requested for: " + k.String())
	}

	if info.minBits != info.maxBits {
		return strconv.IntSize
	}

	return info.maxBits
}

var builtinKinds = map[reflect.Type]KindEnum{
	reflect.TypeFor[int]():           KindInt,
	reflect.TypeFor[int8]():          KindInt8,
	reflect.TypeFor[int16]():         KindInt16,
	reflect.TypeFor[int32]():         KindInt32,
	reflect.TypeFor[int64]():         KindInt64,
	reflect.TypeFor[uint]():          KindUint,
	reflect.TypeFor[uint8]():         KindUint8,
	reflect.TypeFor[uint16]():        KindUint16,
	reflect.TypeFor[uint32]():        KindUint32,
	reflect.TypeFor[uint64]():        KindUint64,
	reflect.TypeFor[float32]():       KindFloat32,
	reflect.TypeFor[float64]():       KindFloat64,
	reflect.TypeFor[bool]():          KindBool,
	reflect.TypeFor[string]():        KindString,
	reflect.TypeFor[time.Time]():     KindTime,
	reflect.TypeFor[time.Duration](): KindDuration,
}

// FromReflectType returns the conversion kind of a type. Named integer,
// boolean and string types are enums.
func FromReflectType(rtype reflect.Type) KindEnum {
	if rtype == nil {
		return 0
	}

	if kind, ok := builtinKinds[rtype]; ok {
		return kind
	}

	switch rtype.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Bool, reflect.String:
		return KindPrimitiveEnum
	default:
		return 0
	}
}

// IsSimple reports whether values of the type are copied as a whole rather than
// member by member.
func IsSimple(rtype reflect.Type) bool {
	if FromReflectType(rtype) != 0 {
		return true
	}

	switch rtype.Kind() {
	case reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	default:
		return false
	}
}
