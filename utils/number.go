package utils

// Number is any built-in integer or floating point type.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr |
		~float32 | ~float64
}

// Within reports whether lo <= v <= hi. NaN is never within a range.
func Within[T Number](lo, v, hi T) bool {
	return lo <= v && v <= hi
}
