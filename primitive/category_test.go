package primitive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategory_SafeNumber(t *testing.T) {
	t.Parallel()

	safe := []struct{ from, to KindEnum }{
		{KindInt, KindInt},
		{KindInt, KindInt64},
		{KindInt8, KindInt},
		{KindInt32, KindInt},
		{KindInt16, KindFloat32},
		{KindInt32, KindFloat64},
		{KindUint8, KindInt16},
		{KindUint16, KindInt},
		{KindUint32, KindInt64},
		{KindUint32, KindFloat64},
		{KindUint, KindUint64},
		{KindFloat32, KindFloat64},
	}
	for _, p := range safe {
		assert.Equal(t, CategorySafeNumber, Category(p.from, p.to), "%s -> %s", p.from, p.to)
	}

	unsafe := []struct{ from, to KindEnum }{
		{KindInt, KindInt32},
		{KindInt64, KindInt},
		{KindUint32, KindInt},
		{KindUint16, KindInt16},
		{KindInt8, KindUint64},
		{KindInt32, KindFloat32},
		{KindInt, KindFloat64},
		{KindFloat64, KindFloat32},
		{KindFloat32, KindInt64},
	}
	for _, p := range unsafe {
		assert.Equal(t, CategoryUnsafeNumber, Category(p.from, p.to), "%s -> %s", p.from, p.to)
	}
}

func TestCategory_Time(t *testing.T) {
	t.Parallel()

	assert.Equal(t, CategoryTimestamp, Category(KindInt64, KindTime))
	assert.Equal(t, CategoryNanoseconds, Category(KindDuration, KindInt64))
	assert.Equal(t, CategoryNone, Category(KindUint64, KindDuration))
	assert.Equal(t, CategorySeconds, Category(KindFloat64, KindDuration))
	assert.Equal(t, CategoryDuration, Category(KindString, KindDuration))
}

func TestCategory_Text(t *testing.T) {
	t.Parallel()

	assert.Equal(t, CategoryTextNumber, Category(KindString, KindUint8))
	assert.Equal(t, CategoryTextualBool, Category(KindBool, KindString))
	assert.Equal(t, CategoryNumericBool, Category(KindInt, KindBool))
	assert.Equal(t, CategoryEnumString, Category(KindPrimitiveEnum, KindString))
	assert.Equal(t, CategoryEnumString, Category(KindPrimitiveEnum, KindPrimitiveEnum))
	assert.Equal(t, CategoryNone, Category(KindPrimitiveEnum, KindInt))
}

func TestKindEnum_Bits(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 16, KindUint16.Bits())
	assert.Equal(t, 32, KindFloat32.Bits())
	assert.Contains(t, []int{32, 64}, KindInt.Bits())
	assert.Panics(t, func() { KindString.Bits() })
}
