// Package firmware loads firmware images that seed the read-only memory of an address space.
package firmware

import (
	"debug/elf"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/marcinbor85/gohex"
	"github.com/retroenv/retrosvd/internal/target"
)

// Format is a firmware image file format.
type Format string

// Supported firmware formats.
const (
	Binary   Format = "binary"
	IntelHex Format = "ihex"
	ELF      Format = "elf"
)

var (
	// ErrUnsupportedFormat is returned for unknown image formats.
	ErrUnsupportedFormat = errors.New("unsupported firmware format")
	// ErrEmptyImage is returned when an image does not contain any data.
	ErrEmptyImage = errors.New("empty firmware image")
)

// RegionFlags are the flags of the regions that are created for image segments.
const RegionFlags = target.SegmentReadable | target.SegmentExecutable | target.SegmentContainsCode

// FormatFromString returns the format for the given name.
func FormatFromString(s string) (Format, error) {
	switch format := Format(s); format {
	case Binary, IntelHex, ELF:
		return format, nil
	default:
		return "", fmt.Errorf("%w '%s'", ErrUnsupportedFormat, s)
	}
}

// Segment is a contiguous block of image data.
type Segment struct {
	Address uint64
	Data    []byte
}

// Image is a loaded firmware image.
type Image struct {
	Segments []Segment
	Entry    uint64
}

// Load loads the image file. The load address is only used for raw binaries,
// the other formats contain the addresses of their segments.
func Load(path string, format Format, loadAddress uint64) (*Image, error) {
	var (
		image *Image
		err   error
	)

	switch format {
	case Binary:
		image, err = loadBinary(path, loadAddress)
	case IntelHex:
		image, err = loadIntelHex(path)
	case ELF:
		image, err = loadELF(path)
	default:
		return nil, fmt.Errorf("%w '%s'", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	if len(image.Segments) == 0 {
		return nil, fmt.Errorf("loading '%s': %w", path, ErrEmptyImage)
	}
	return image, nil
}

func loadBinary(path string, loadAddress uint64) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	image := &Image{Entry: loadAddress}
	if len(data) > 0 {
		image.Segments = []Segment{{Address: loadAddress, Data: data}}
	}
	return image, nil
}

func loadIntelHex(path string) (*Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer func() { _ = file.Close() }()

	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(file); err != nil {
		return nil, fmt.Errorf("parsing intel hex file '%s': %w", path, err)
	}

	image := &Image{}
	for _, segment := range mem.GetDataSegments() {
		image.Segments = append(image.Segments, Segment{
			Address: uint64(segment.Address),
			Data:    segment.Data,
		})
	}

	// without a start address record the image starts at its lowest segment
	if start, ok := mem.GetStartAddress(); ok {
		image.Entry = uint64(start)
	} else if len(image.Segments) > 0 {
		image.Entry = image.Segments[0].Address
	}
	return image, nil
}

func loadELF(path string) (*Image, error) {
	file, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening elf file '%s': %w", path, err)
	}
	defer func() { _ = file.Close() }()

	image := &Image{Entry: file.Entry}
	for _, prog := range file.Progs {
		if prog.Type != elf.PT_LOAD || prog.Memsz == 0 {
			continue
		}

		data := make([]byte, prog.Memsz)
		if prog.Filesz > 0 {
			if _, err := prog.ReadAt(data[:prog.Filesz], 0); err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("reading segment at 0x%x: %w", prog.Paddr, err)
			}
		}

		image.Segments = append(image.Segments, Segment{
			Address: prog.Paddr,
			Data:    data,
		})
	}
	return image, nil
}

// Seed adds one read-only code region per image segment to the address
// space. The first region is named after the base section, the following
// ones get an index suffix. The start of the first segment becomes the load
// address.
func (img *Image) Seed(space target.Seeder, baseName string) error {
	for i, segment := range img.Segments {
		name := baseName
		if i > 0 {
			name = fmt.Sprintf("%s_%d", baseName, i)
		}

		if err := space.AddRegion(name, segment.Address, uint64(len(segment.Data)), RegionFlags); err != nil {
			return fmt.Errorf("seeding region '%s': %w", name, err)
		}
	}

	if err := space.SetLoadAddress(img.Segments[0].Address); err != nil {
		return fmt.Errorf("setting load address: %w", err)
	}
	return nil
}

// Size returns the number of data bytes of all segments.
func (img *Image) Size() int {
	size := 0
	for _, segment := range img.Segments {
		size += len(segment.Data)
	}
	return size
}
