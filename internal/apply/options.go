package apply

import (
	"fmt"
)

// Options controls how a description is mapped onto an address space.
type Options struct {
	VectorTableBase uint64 // address of the vector slot of interrupt index 0
	PointerSize     uint32 // size of a vector slot in bytes
	RegisterWidth   uint32 // register width in bytes when the description does not specify it
	Strict          bool   // fail on address collisions instead of letting the later definition win
	BaseSectionName string
}

// DefaultOptions returns the options for a 32 bit Cortex-M device.
func DefaultOptions() Options {
	return Options{
		VectorTableBase: 0x40,
		PointerSize:     4,
		RegisterWidth:   4,
		BaseSectionName: "ROM",
	}
}

func (o Options) validate() error {
	if !validWidth(o.PointerSize) {
		return fmt.Errorf("%w: pointer size %d", ErrInvalidOptions, o.PointerSize)
	}
	if !validWidth(o.RegisterWidth) {
		return fmt.Errorf("%w: register width %d", ErrInvalidOptions, o.RegisterWidth)
	}
	if o.BaseSectionName == "" {
		return fmt.Errorf("%w: empty base section name", ErrInvalidOptions)
	}
	return nil
}

func validWidth(width uint32) bool {
	switch width {
	case 1, 2, 4, 8:
		return true
	default:
		return false
	}
}
