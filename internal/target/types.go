package target

import (
	"fmt"
	"strings"
)

// SegmentFlag describes the access rights and content of a region.
type SegmentFlag uint8

// Region flags.
const (
	SegmentReadable SegmentFlag = 1 << iota
	SegmentWritable
	SegmentExecutable
	SegmentContainsData
	SegmentContainsCode
)

var segmentFlagNames = []string{"r", "w", "x", "data", "code"}

func (f SegmentFlag) String() string {
	var parts []string
	for i, name := range segmentFlagNames {
		if f&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Semantics describes how the analysis treats the contents of a section.
type Semantics int

// Section semantics.
const (
	DefaultSemantics Semantics = iota
	ReadOnlyCodeSemantics
	ReadOnlyDataSemantics
	ReadWriteDataSemantics
)

func (s Semantics) String() string {
	switch s {
	case ReadOnlyCodeSemantics:
		return "read-only code"
	case ReadOnlyDataSemantics:
		return "read-only data"
	case ReadWriteDataSemantics:
		return "read-write data"
	default:
		return "default"
	}
}

// SymbolKind is the kind of a named address.
type SymbolKind int

// Symbol kinds.
const (
	DataSymbol SymbolKind = iota
	ImportedDataSymbol
	FunctionSymbol
)

func (k SymbolKind) String() string {
	switch k {
	case ImportedDataSymbol:
		return "imported data"
	case FunctionSymbol:
		return "function"
	default:
		return "data"
	}
}

// Region is a contiguous memory range of the address space.
type Region struct {
	Name   string
	Start  uint64
	Length uint64
	Flags  SegmentFlag
}

// End returns the first address after the region.
func (r Region) End() uint64 {
	return r.Start + r.Length
}

// Contains returns whether the address is inside the region.
func (r Region) Contains(address uint64) bool {
	return address >= r.Start && address-r.Start < r.Length
}

// Section is a named logical range with semantics for the analysis.
type Section struct {
	Name      string
	Start     uint64
	Length    uint64
	Semantics Semantics
}

// Symbol binds a name to an address.
type Symbol struct {
	Kind    SymbolKind
	Address uint64
	Name    string
}

// Type describes the storage of a data variable.
type Type struct {
	Name    string
	Width   uint32 // in bytes
	Pointer bool
}

// IntegerType returns the unsigned integer type of the given byte width.
func IntegerType(width uint32) Type {
	return Type{
		Name:  fmt.Sprintf("uint%d_t", width*8),
		Width: width,
	}
}

// PointerType returns a pointer type of the given byte width.
func PointerType(width uint32) Type {
	return Type{
		Name:    "void*",
		Width:   width,
		Pointer: true,
	}
}

// DataVariable is a typed storage location.
type DataVariable struct {
	Address uint64
	Type    Type
	Name    string
}

// Function is a function found by the analysis.
type Function struct {
	Start  uint64
	Length uint64
	Name   string
}

// Contains returns whether the address is inside the function body.
func (f Function) Contains(address uint64) bool {
	return address >= f.Start && address-f.Start < f.Length
}

// FindBaseRegion returns the read-only region that contains the load
// address. Without a load address the lowest mapped address is used.
func FindBaseRegion(regions []Region, loadAddress uint64, hasLoadAddress bool) (Region, bool) {
	if len(regions) == 0 {
		return Region{}, false
	}

	address := loadAddress
	if !hasLoadAddress {
		address = regions[0].Start
		for _, region := range regions[1:] {
			address = min(address, region.Start)
		}
	}

	for _, region := range regions {
		if region.Contains(address) && region.Flags&SegmentWritable == 0 {
			return region, true
		}
	}
	return Region{}, false
}
