// Package loader handles loading of SVD hardware description files.
package loader

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/retroenv/retrosvd/internal/svd"
)

var (
	// ErrMalformed is returned for documents that are not well-formed SVD XML.
	ErrMalformed = errors.New("malformed document")
	// ErrMissingField is returned when a required element is missing or empty.
	ErrMissingField = errors.New("missing required field")
	// ErrInvalidNumber is returned when a numeric element can not be parsed.
	ErrInvalidNumber = errors.New("invalid number")
	// ErrUnknownDerivation is returned when a peripheral derives from an unknown or cyclic peripheral.
	ErrUnknownDerivation = errors.New("unknown derivedFrom peripheral")
)

// ParseError describes why a document could not be loaded.
type ParseError struct {
	Path  string // location of the element in the document, empty for the whole document
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	var sb strings.Builder
	sb.WriteString("parsing description")
	if e.Path != "" {
		sb.WriteString(" at ")
		sb.WriteString(e.Path)
	}
	if e.Field != "" {
		sb.WriteString(" field '")
		sb.WriteString(e.Field)
		sb.WriteString("'")
	}
	sb.WriteString(": ")
	sb.WriteString(e.Err.Error())
	return sb.String()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Loader handles loading hardware descriptions.
type Loader struct{}

// New creates a new description loader.
func New() *Loader {
	return &Loader{}
}

// LoadFile loads and validates the description file at the given path.
func (l *Loader) LoadFile(path string) (*svd.System, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	return l.Load(file)
}

// LoadFromBytes loads and validates a description from memory.
func (l *Loader) LoadFromBytes(data []byte) (*svd.System, error) {
	return l.Load(bytes.NewReader(data))
}

// Load reads and validates a description. It returns either a complete
// system or an error, a partially converted system is never returned.
func (l *Loader) Load(r io.Reader) (*svd.System, error) {
	var device xmlDevice
	decoder := xml.NewDecoder(r)
	if err := decoder.Decode(&device); err != nil {
		return nil, &ParseError{Err: fmt.Errorf("%w: %w", ErrMalformed, err)}
	}

	conv := converter{}
	system, err := conv.convertDevice(device)
	if err != nil {
		return nil, err
	}

	if err := system.Validate(); err != nil {
		return nil, &ParseError{Err: err}
	}
	return system, nil
}

// peripheralEntry is a converted peripheral together with the information
// needed to resolve a derivedFrom reference.
type peripheralEntry struct {
	peripheral   svd.Peripheral
	derivedFrom  string
	hasRegisters bool
	hasSize      bool
	resolved     bool
}

type converter struct {
	deviceWidth uint32
}

func (c *converter) convertDevice(device xmlDevice) (*svd.System, error) {
	system := &svd.System{
		Name:        optional(device.Name),
		Description: optional(device.Description),
	}

	var err error
	if c.deviceWidth, err = optionalWidth("device", device.Size); err != nil {
		return nil, err
	}

	entries := make([]*peripheralEntry, 0, len(device.Peripherals))
	byName := make(map[string]*peripheralEntry, len(device.Peripherals))

	for i, xp := range device.Peripherals {
		entry, err := c.convertPeripheral(i, xp)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
		if _, ok := byName[entry.peripheral.Name]; !ok {
			byName[entry.peripheral.Name] = entry
		}
	}

	for _, entry := range entries {
		if err := resolveDerivation(entry, byName, 0); err != nil {
			return nil, err
		}
		system.Peripherals = append(system.Peripherals, entry.peripheral)
	}
	return system, nil
}

func (c *converter) convertPeripheral(index int, xp xmlPeripheral) (*peripheralEntry, error) {
	path := fmt.Sprintf("peripheral[%d]", index)

	name, err := required(path, "name", xp.Name)
	if err != nil {
		return nil, err
	}
	path = "peripheral " + name

	baseText, err := required(path, "baseAddress", xp.BaseAddress)
	if err != nil {
		return nil, err
	}
	base, err := number(path, "baseAddress", baseText)
	if err != nil {
		return nil, err
	}

	width, err := optionalWidth(path, xp.Size)
	if err != nil {
		return nil, err
	}
	if width == 0 {
		width = c.deviceWidth
	}

	entry := &peripheralEntry{
		peripheral: svd.Peripheral{
			Name:        name,
			BaseAddress: base,
			Description: optional(xp.Description),
		},
		derivedFrom:  strings.TrimSpace(xp.DerivedFrom),
		hasRegisters: xp.Registers != nil,
		hasSize:      len(xp.AddressBlocks) > 0,
	}

	if entry.peripheral.Size, err = addressBlockSize(path, xp.AddressBlocks); err != nil {
		return nil, err
	}

	if xp.Registers != nil {
		regs := registerScope{path: path, width: width}
		if entry.peripheral.Registers, err = regs.convert(xp.Registers.nodes); err != nil {
			return nil, err
		}
	}

	for i, xi := range xp.Interrupts {
		irq, err := convertInterrupt(fmt.Sprintf("%s interrupt[%d]", path, i), xi)
		if err != nil {
			return nil, err
		}
		entry.peripheral.Interrupts = append(entry.peripheral.Interrupts, irq)
	}

	return entry, nil
}

// addressBlockSize returns the end of the furthest address block, which
// spans all registers of the peripheral.
func addressBlockSize(path string, blocks []xmlAddressBlock) (uint64, error) {
	var size uint64
	for i, block := range blocks {
		blockPath := fmt.Sprintf("%s addressBlock[%d]", path, i)

		var offset uint64
		if block.Offset != nil {
			var err error
			if offset, err = number(blockPath, "offset", *block.Offset); err != nil {
				return 0, err
			}
		}

		sizeText, err := required(blockPath, "size", block.Size)
		if err != nil {
			return 0, err
		}
		blockSize, err := number(blockPath, "size", sizeText)
		if err != nil {
			return 0, err
		}

		end, err := addOffset(blockPath, "size", offset, blockSize)
		if err != nil {
			return 0, err
		}
		size = max(size, end)
	}
	return size, nil
}

func convertInterrupt(path string, xi xmlInterrupt) (svd.Interrupt, error) {
	name, err := required(path, "name", xi.Name)
	if err != nil {
		return svd.Interrupt{}, err
	}
	path = "interrupt " + name

	valueText, err := required(path, "value", xi.Value)
	if err != nil {
		return svd.Interrupt{}, err
	}
	index, err := parseSigned(valueText)
	if err != nil {
		return svd.Interrupt{}, &ParseError{Path: path, Field: "value", Err: err}
	}

	return svd.Interrupt{
		Name:        name,
		Index:       index,
		Description: optional(xi.Description),
	}, nil
}

// resolveDerivation copies registers, size and description from the base
// peripheral into entry when entry does not declare them itself.
func resolveDerivation(entry *peripheralEntry, byName map[string]*peripheralEntry, depth int) error {
	if entry.resolved || entry.derivedFrom == "" {
		entry.resolved = true
		return nil
	}

	path := "peripheral " + entry.peripheral.Name
	base, ok := byName[entry.derivedFrom]
	if !ok || base == entry || depth > len(byName) {
		return &ParseError{
			Path:  path,
			Field: "derivedFrom",
			Err:   fmt.Errorf("%w '%s'", ErrUnknownDerivation, entry.derivedFrom),
		}
	}
	if err := resolveDerivation(base, byName, depth+1); err != nil {
		return err
	}

	p := &entry.peripheral
	if !entry.hasRegisters {
		p.Registers = append([]svd.Register(nil), base.peripheral.Registers...)
	}
	if !entry.hasSize {
		p.Size = base.peripheral.Size
	}
	if p.Description == "" {
		p.Description = base.peripheral.Description
	}
	entry.resolved = true
	return nil
}

func required(path, field string, value *string) (string, error) {
	if value == nil {
		return "", &ParseError{Path: path, Field: field, Err: ErrMissingField}
	}
	s := strings.TrimSpace(*value)
	if s == "" {
		return "", &ParseError{Path: path, Field: field, Err: ErrMissingField}
	}
	return s, nil
}

// addOffset adds an offset to a base and fails if the sum exceeds the address space.
func addOffset(path, field string, base, offset uint64) (uint64, error) {
	if offset > math.MaxUint64-base {
		return 0, &ParseError{
			Path:  path,
			Field: field,
			Err:   fmt.Errorf("%w: 0x%x + 0x%x exceeds the address space", ErrInvalidNumber, base, offset),
		}
	}
	return base + offset, nil
}

func optional(value *string) string {
	if value == nil {
		return ""
	}
	return normalizeText(*value)
}

// normalizeText collapses the line breaks and indentation that vendors
// commonly put into description elements.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func number(path, field, s string) (uint64, error) {
	value, err := ParseNumber(s)
	if err != nil {
		return 0, &ParseError{Path: path, Field: field, Err: err}
	}
	return value, nil
}

func optionalWidth(path string, value *string) (uint32, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return 0, nil
	}
	width, err := number(path, "size", *value)
	if err != nil {
		return 0, err
	}
	if width > 64 {
		return 0, &ParseError{Path: path, Field: "size", Err: fmt.Errorf("%w: width of %d bits", ErrInvalidNumber, width)}
	}
	return uint32(width), nil
}
