package target

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestRegion(t *testing.T) {
	r := Region{Start: 0x1000, Length: 0x100}

	assert.Equal(t, uint64(0x1100), r.End())
	assert.True(t, r.Contains(0x1000))
	assert.True(t, r.Contains(0x10ff))
	assert.False(t, r.Contains(0x1100))
	assert.False(t, r.Contains(0xfff))
}

func TestFunctionContains(t *testing.T) {
	fn := Function{Start: 0x40, Length: 8}

	assert.True(t, fn.Contains(0x40))
	assert.True(t, fn.Contains(0x47))
	assert.False(t, fn.Contains(0x48))
	assert.False(t, Function{Start: 0x40}.Contains(0x40))
}

func TestTypes(t *testing.T) {
	assert.Equal(t, Type{Name: "uint32_t", Width: 4}, IntegerType(4))
	assert.Equal(t, Type{Name: "uint8_t", Width: 1}, IntegerType(1))
	assert.Equal(t, Type{Name: "void*", Width: 8, Pointer: true}, PointerType(8))
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "r|w|data", (SegmentReadable | SegmentWritable | SegmentContainsData).String())
	assert.Equal(t, "none", SegmentFlag(0).String())
	assert.Equal(t, "read-write data", ReadWriteDataSemantics.String())
	assert.Equal(t, "imported data", ImportedDataSymbol.String())
}

func TestFindBaseRegion(t *testing.T) {
	rom := SegmentReadable | SegmentExecutable
	regions := []Region{
		{Name: "FLASH", Start: 0x08000000, Length: 0x10000, Flags: rom},
		{Name: "BOOT", Start: 0x0, Length: 0x1000, Flags: rom},
		{Name: "SRAM", Start: 0x20000000, Length: 0x1000, Flags: SegmentReadable | SegmentWritable},
	}

	region, ok := FindBaseRegion(regions, 0, false)
	assert.True(t, ok)
	assert.Equal(t, "BOOT", region.Name)

	region, ok = FindBaseRegion(regions, 0x08000100, true)
	assert.True(t, ok)
	assert.Equal(t, "FLASH", region.Name)

	_, ok = FindBaseRegion(regions, 0x20000000, true)
	assert.False(t, ok)

	_, ok = FindBaseRegion(nil, 0, false)
	assert.False(t, ok)
}
