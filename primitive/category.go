package primitive

// CategoryEnum is a set of conversion categories. Only conversions in an
// enabled category are used when primitive members are mapped.
type CategoryEnum int

const (
	CategorySafeNumber   CategoryEnum = 1 << iota // number to number, every value fits
	CategoryUnsafeNumber                          // number to number, values may overflow or lose precision
	CategoryTextNumber                            // number <-> decimal text
	CategoryNumericBool                           // integer <-> bool as 0 and 1
	CategoryTextualBool                           // bool <-> text: true/false, yes/no, on/off, 1/0
	CategoryDatetime                              // time.Time <-> RFC 3339 text
	CategoryTimestamp                             // time.Time <-> Unix seconds
	CategoryDuration                              // time.Duration <-> text such as 2h45m
	CategoryNanoseconds                           // time.Duration <-> integer nanoseconds
	CategorySeconds                               // time.Duration <-> float seconds
	CategoryEnumString                            // named type <-> text, through String and UnmarshalText when present
	CategorySafeArray                             // slice -> array of the same or a larger length
	CategoryUnsafeArray                           // slice -> shorter array, extra elements are dropped

	CategoryAll  CategoryEnum = (1 << iota) - 1
	CategoryNone CategoryEnum = 0
)

// CategoryDefault is used when no categories are configured explicitly.
const CategoryDefault = CategorySafeNumber | CategoryUnsafeNumber | CategoryTextNumber |
	CategoryTextualBool | CategoryDatetime | CategoryDuration | CategoryEnumString | CategorySafeArray

// categoryOf decides whether a kind pair belongs to each category.
var categoryOf = map[CategoryEnum]func(from, to KindEnum) bool{
	CategorySafeNumber: safeNumber,
	CategoryUnsafeNumber: func(from, to KindEnum) bool {
		return from.IsNumber() && to.IsNumber() && !safeNumber(from, to)
	},
	CategoryTextNumber: func(from, to KindEnum) bool {
		return (from.IsNumber() && to.IsText()) || (from.IsText() && to.IsNumber())
	},
	CategoryNumericBool: func(from, to KindEnum) bool {
		return either(from, to, KindBool, KindEnum.IsInteger)
	},
	CategoryTextualBool: func(from, to KindEnum) bool {
		return either(from, to, KindBool, KindEnum.IsText)
	},
	CategoryDatetime: func(from, to KindEnum) bool {
		return either(from, to, KindTime, KindEnum.IsText)
	},
	CategoryTimestamp: func(from, to KindEnum) bool {
		return either(from, to, KindTime, KindEnum.IsInteger)
	},
	CategoryDuration: func(from, to KindEnum) bool {
		return either(from, to, KindDuration, KindEnum.IsText)
	},
	CategoryNanoseconds: func(from, to KindEnum) bool {
		// uint64 nanoseconds may not fit a Duration
		return either(from, to, KindDuration, func(k KindEnum) bool { return k.IsInteger() && k != KindUint64 })
	},
	CategorySeconds: func(from, to KindEnum) bool {
		return either(from, to, KindDuration, KindEnum.IsFloat)
	},
	CategoryEnumString: func(from, to KindEnum) bool {
		return either(from, to, KindPrimitiveEnum, func(k KindEnum) bool { return k.IsText() || k == KindPrimitiveEnum })
	},
}

// Category returns every category the conversion of the pair belongs to.
func Category(from, to KindEnum) CategoryEnum {
	result := CategoryNone
	for category, belongs := range categoryOf {
		if belongs(from, to) {
			result |= category
		}
	}

	return result
}

// either reports whether one side of the pair is kind and the other matches other.
func either(from, to, kind KindEnum, other func(KindEnum) bool) bool {
	return (from == kind && other(to)) || (to == kind && other(from))
}

// mantissa is the number of integer bits a float holds exactly.
var mantissa = map[KindEnum]int{KindFloat32: 24, KindFloat64: 53}

// safeNumber reports whether every value of from converts to to exactly, on
// every platform: int and uint may be 32 bits wide.
func safeNumber(from, to KindEnum) bool {
	if !from.IsNumber() || !to.IsNumber() {
		return false
	}

	if from == to {
		return true
	}

	src, dst := kinds[from], kinds[to]

	switch {
	case to.IsFloat() && from.IsFloat():
		return src.maxBits <= dst.maxBits
	case to.IsFloat():
		return src.maxBits <= mantissa[to]
	case from.IsFloat():
		return false
	case src.signed == dst.signed:
		return src.maxBits <= dst.minBits
	case dst.signed:
		return src.maxBits < dst.minBits
	default:
		return false
	}
}
