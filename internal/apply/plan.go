package apply

import (
	"fmt"
	"math"

	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrosvd/internal/svd"
	"github.com/retroenv/retrosvd/internal/symbols"
	"github.com/retroenv/retrosvd/internal/target"
)

// OpKind is the kind of an address space operation.
type OpKind int

// Operation kinds.
const (
	OpAddRegion OpKind = iota
	OpAddSection
	OpDefineSymbol
	OpDefineDataVariable
	OpSetComment
	OpRemoveFunctions // remove all functions containing the address
	OpBeginTransaction
	OpCommitTransaction
	OpRefreshAnalysis
)

var opKindNames = map[OpKind]string{
	OpAddRegion:          "add region",
	OpAddSection:         "add section",
	OpDefineSymbol:       "define symbol",
	OpDefineDataVariable: "define data variable",
	OpSetComment:         "set comment",
	OpRemoveFunctions:    "remove functions",
	OpBeginTransaction:   "begin transaction",
	OpCommitTransaction:  "commit transaction",
	OpRefreshAnalysis:    "refresh analysis",
}

func (k OpKind) String() string {
	if name, ok := opKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("operation %d", int(k))
}

// Operation is a single staged mutation of an address space.
// Only the fields relevant for the kind are set.
type Operation struct {
	Kind    OpKind
	Name    string
	Address uint64
	Length  uint64

	Flags      target.SegmentFlag
	Semantics  target.Semantics
	SymbolKind target.SymbolKind
	Type       target.Type
	Text       string
}

func (o Operation) String() string {
	switch o.Kind {
	case OpAddRegion, OpAddSection:
		return fmt.Sprintf("%s '%s' [0x%x, 0x%x)", o.Kind, o.Name, o.Address, o.Address+o.Length)
	case OpDefineSymbol, OpDefineDataVariable:
		return fmt.Sprintf("%s '%s' at 0x%x", o.Kind, o.Name, o.Address)
	case OpSetComment, OpRemoveFunctions:
		return fmt.Sprintf("%s at 0x%x", o.Kind, o.Address)
	default:
		return o.Kind.String()
	}
}

// Plan is the ordered list of operations that applies a description.
type Plan struct {
	Base       target.Region
	Operations []Operation
	Skipped    []string // zero-length peripherals
	Overwrites int      // definitions replaced by a later one at the same address

	// Overwritten contains the addresses whose final definition replaced a
	// differently named one, in ascending order.
	Overwritten []uint64
}

// Regions returns the number of regions the plan creates.
func (p *Plan) Regions() int {
	return p.count(OpAddRegion)
}

// Symbols returns the number of symbols the plan defines.
func (p *Plan) Symbols() int {
	return p.count(OpDefineSymbol)
}

// Vectors returns the number of interrupt vector slots the plan defines.
func (p *Plan) Vectors() int {
	return p.count(OpRemoveFunctions)
}

func (p *Plan) count(kind OpKind) int {
	var n int
	for _, op := range p.Operations {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// planner stages all operations and validates them before anything is
// applied to an address space.
type planner struct {
	logger  *log.Logger
	options Options
	plan    *Plan
	names   *symbols.Table[string] // name defined at each address, used marks overwritten ones
}

func (p *planner) add(op Operation) {
	p.plan.Operations = append(p.plan.Operations, op)
}

func (p *planner) build(system *svd.System) error {
	base := p.plan.Base
	p.add(Operation{
		Kind:      OpAddSection,
		Name:      p.options.BaseSectionName,
		Address:   base.Start,
		Length:    base.Length,
		Semantics: target.ReadOnlyCodeSemantics,
	})

	for _, peripheral := range system.Peripherals {
		if peripheral.Size == 0 {
			p.logger.Warn("Skipping zero-length peripheral",
				log.String("peripheral", peripheral.Name),
				log.Hex("address", peripheral.BaseAddress))
			p.plan.Skipped = append(p.plan.Skipped, peripheral.Name)
			continue
		}

		if err := p.addPeripheral(peripheral); err != nil {
			return err
		}
	}
	return nil
}

func (p *planner) addPeripheral(peripheral svd.Peripheral) error {
	if peripheral.Size > math.MaxUint64-peripheral.BaseAddress {
		return &PlanError{Path: "peripheral " + peripheral.Name, Reason: "address block exceeds the address space"}
	}

	p.add(Operation{
		Kind:    OpAddRegion,
		Name:    peripheral.Name,
		Address: peripheral.BaseAddress,
		Length:  peripheral.Size,
		Flags:   target.SegmentReadable | target.SegmentWritable | target.SegmentContainsData,
	})
	p.add(Operation{
		Kind:      OpAddSection,
		Name:      peripheral.Name,
		Address:   peripheral.BaseAddress,
		Length:    peripheral.Size,
		Semantics: target.ReadWriteDataSemantics,
	})
	p.logger.Debug("Created peripheral section",
		log.String("peripheral", peripheral.Name),
		log.Hex("address", peripheral.BaseAddress))

	for _, register := range peripheral.Registers {
		if err := p.addRegister(peripheral, register); err != nil {
			return err
		}
	}

	for _, interrupt := range peripheral.Interrupts {
		if err := p.addInterrupt(interrupt); err != nil {
			return err
		}
	}
	return nil
}

func (p *planner) addRegister(peripheral svd.Peripheral, register svd.Register) error {
	name := peripheral.Name + "::" + register.Name
	if register.Offset > math.MaxUint64-peripheral.BaseAddress {
		return &PlanError{Path: "register " + name, Reason: "address exceeds the address space"}
	}
	address := peripheral.RegisterAddress(register)

	if err := p.claim(address, name); err != nil {
		return err
	}

	width := p.options.RegisterWidth
	if register.Width != 0 {
		width = register.Width / 8
	}

	p.add(Operation{Kind: OpDefineSymbol, Name: name, Address: address, SymbolKind: target.ImportedDataSymbol})
	p.add(Operation{Kind: OpDefineDataVariable, Name: name, Address: address, Type: target.IntegerType(width)})
	p.add(Operation{Kind: OpSetComment, Address: address, Text: register.Description})

	p.logger.Debug("Created register symbol",
		log.String("symbol", name),
		log.Hex("address", address))
	return nil
}

func (p *planner) addInterrupt(interrupt svd.Interrupt) error {
	name := interrupt.Name + "_vector"
	address, err := p.vectorAddress(interrupt.Index)
	if err != nil {
		return &PlanError{Path: "interrupt " + interrupt.Name, Reason: err.Error()}
	}

	if err := p.claim(address, name); err != nil {
		return err
	}

	p.add(Operation{Kind: OpRemoveFunctions, Address: address})
	p.add(Operation{Kind: OpDefineDataVariable, Name: name, Address: address, Type: target.PointerType(p.options.PointerSize)})
	p.add(Operation{Kind: OpSetComment, Address: address, Text: interrupt.Description})

	p.logger.Debug("Created interrupt vector",
		log.String("symbol", name),
		log.Hex("address", address))
	return nil
}

// vectorAddress returns the address of the vector slot of the interrupt index.
func (p *planner) vectorAddress(index int64) (uint64, error) {
	base := p.options.VectorTableBase
	size := uint64(p.options.PointerSize)

	if index >= 0 {
		slot := uint64(index)
		if slot > (math.MaxUint64-base)/size {
			return 0, fmt.Errorf("vector slot of index %d exceeds the address space", index)
		}
		return base + slot*size, nil
	}

	slot := uint64(-(index + 1)) + 1
	if slot > base/size {
		return 0, fmt.Errorf("vector slot of index %d is below address 0", index)
	}
	return base - slot*size, nil
}

// claim records the definition of name at the address. A different name at
// an already used address is an error in strict mode, otherwise the later
// definition replaces the earlier one.
func (p *planner) claim(address uint64, name string) error {
	previous, ok := p.names.Get(address)
	if ok && previous != name {
		if p.options.Strict {
			return &CollisionError{Address: address, First: previous, Second: name}
		}

		p.plan.Overwrites++
		p.names.MarkUsed(address)
		p.logger.Debug("Overwriting definition",
			log.String("previous", previous),
			log.String("symbol", name),
			log.Hex("address", address))
	}

	p.names.Set(address, name)
	return nil
}
