// Package svd contains the hardware description model of a microcontroller:
// its peripherals, their memory mapped registers and interrupts.
package svd

import (
	"fmt"
	"math"
)

// System is the root of a hardware description.
// The order of the peripherals is the declaration order of the document.
type System struct {
	Name        string
	Description string
	Peripherals []Peripheral
}

// Peripheral is a memory mapped hardware unit.
type Peripheral struct {
	Name        string
	BaseAddress uint64
	Size        uint64 // 0 means declared but not materialized
	Description string

	Registers  []Register
	Interrupts []Interrupt
}

// Register is a storage cell at a fixed offset inside a peripheral.
type Register struct {
	Name        string
	Offset      uint64
	Description string
	Width       uint32 // in bits, 0 if the document does not specify it
}

// Interrupt is an entry of the global interrupt vector table.
type Interrupt struct {
	Name        string
	Index       int64
	Description string
}

// RegisterAddress returns the absolute address of the given register.
func (p Peripheral) RegisterAddress(r Register) uint64 {
	return p.BaseAddress + r.Offset
}

// End returns the first address after the peripheral memory region.
func (p Peripheral) End() uint64 {
	return p.BaseAddress + p.Size
}

// ValidationError describes a structural violation of the model.
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// Validate checks the structural invariants of the system.
func (s *System) Validate() error {
	names := make(map[string]int, len(s.Peripherals))

	for i, p := range s.Peripherals {
		path := fmt.Sprintf("peripheral[%d]", i)
		if p.Name == "" {
			return &ValidationError{Path: path, Reason: "empty name"}
		}
		path = fmt.Sprintf("peripheral %s", p.Name)

		if first, ok := names[p.Name]; ok {
			return &ValidationError{
				Path:   path,
				Reason: fmt.Sprintf("duplicate name, first declared as peripheral[%d]", first),
			}
		}
		names[p.Name] = i

		if p.Size > math.MaxUint64-p.BaseAddress {
			return &ValidationError{Path: path, Reason: "address block exceeds the address space"}
		}

		if err := validateRegisters(path, p.Registers); err != nil {
			return err
		}
		for j, irq := range p.Interrupts {
			if irq.Name == "" {
				return &ValidationError{Path: fmt.Sprintf("%s interrupt[%d]", path, j), Reason: "empty name"}
			}
		}
	}
	return nil
}

func validateRegisters(path string, registers []Register) error {
	for i, r := range registers {
		if r.Name == "" {
			return &ValidationError{Path: fmt.Sprintf("%s register[%d]", path, i), Reason: "empty name"}
		}
		if r.Width == 0 {
			continue
		}
		if r.Width%8 != 0 || r.Width > 64 {
			return &ValidationError{
				Path:   fmt.Sprintf("%s register %s", path, r.Name),
				Reason: fmt.Sprintf("unsupported width of %d bits", r.Width),
			}
		}
	}
	return nil
}
