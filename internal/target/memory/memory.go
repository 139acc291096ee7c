// Package memory implements an in-memory address space.
package memory

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/retroenv/retrosvd/internal/symbols"
	"github.com/retroenv/retrosvd/internal/target"
)

var (
	// ErrInvalidRegion is returned for empty or overflowing regions and sections.
	ErrInvalidRegion = errors.New("invalid region")
	// ErrUnknownFunction is returned when removing a function that does not exist.
	ErrUnknownFunction = errors.New("unknown function")
	// ErrTransaction is returned for unbalanced transaction calls.
	ErrTransaction = errors.New("transaction error")
)

var (
	_ target.AddressSpace = &AddressSpace{}
	_ target.Reader       = &AddressSpace{}
	_ target.Seeder       = &AddressSpace{}
)

// AddressSpace is an address space that is kept in memory only.
// Symbols, data variables and comments are unique per address, a later
// definition replaces the earlier one.
type AddressSpace struct {
	regions   []target.Region
	sections  []target.Section
	functions []target.Function

	symbols   *symbols.Table[target.Symbol]
	variables *symbols.Table[target.DataVariable]
	comments  *symbols.Table[string]

	loadAddress    uint64
	hasLoadAddress bool

	inTransaction bool
	commits       int
	refreshes     int
	mutations     int
}

// New creates a new empty address space.
func New() *AddressSpace {
	return &AddressSpace{
		symbols:   symbols.New[target.Symbol](),
		variables: symbols.New[target.DataVariable](),
		comments:  symbols.New[string](),
	}
}

// SetLoadAddress sets the address that the base region has to contain.
func (a *AddressSpace) SetLoadAddress(address uint64) error {
	a.loadAddress = address
	a.hasLoadAddress = true
	return nil
}

// BaseRegion returns the read-only region that contains the load address.
// Without a load address the lowest mapped address is used.
func (a *AddressSpace) BaseRegion() (target.Region, bool) {
	return target.FindBaseRegion(a.regions, a.loadAddress, a.hasLoadAddress)
}

// AddRegion adds a region. A region with the same start and length replaces the existing one.
func (a *AddressSpace) AddRegion(name string, start, length uint64, flags target.SegmentFlag) error {
	if err := checkRange(start, length); err != nil {
		return fmt.Errorf("adding region '%s': %w", name, err)
	}

	a.mutations++
	region := target.Region{Name: name, Start: start, Length: length, Flags: flags}
	for i, existing := range a.regions {
		if existing.Start == start && existing.Length == length {
			a.regions[i] = region
			return nil
		}
	}
	a.regions = append(a.regions, region)
	return nil
}

// AddSection adds a section. A section with the same name replaces the existing one.
func (a *AddressSpace) AddSection(name string, start, length uint64, semantics target.Semantics) error {
	if err := checkRange(start, length); err != nil {
		return fmt.Errorf("adding section '%s': %w", name, err)
	}

	a.mutations++
	section := target.Section{Name: name, Start: start, Length: length, Semantics: semantics}
	for i, existing := range a.sections {
		if existing.Name == name {
			a.sections[i] = section
			return nil
		}
	}
	a.sections = append(a.sections, section)
	return nil
}

// DefineSymbol binds the name to the address.
func (a *AddressSpace) DefineSymbol(kind target.SymbolKind, address uint64, name string) error {
	a.mutations++
	a.symbols.Set(address, target.Symbol{Kind: kind, Address: address, Name: name})
	return nil
}

// DefineDataVariable defines a typed variable at the address.
func (a *AddressSpace) DefineDataVariable(address uint64, typ target.Type, name string) error {
	a.mutations++
	a.variables.Set(address, target.DataVariable{Address: address, Type: typ, Name: name})
	return nil
}

// SetComment sets the comment at the address, an empty text removes it.
func (a *AddressSpace) SetComment(address uint64, text string) error {
	a.mutations++
	if text == "" {
		a.comments.Delete(address)
		return nil
	}
	a.comments.Set(address, text)
	return nil
}

// AddFunction adds a function as if the analysis had found it.
func (a *AddressSpace) AddFunction(fn target.Function) error {
	a.functions = append(a.functions, fn)
	return nil
}

// FunctionsContaining returns all functions whose body contains the address.
func (a *AddressSpace) FunctionsContaining(address uint64) ([]target.Function, error) {
	var result []target.Function
	for _, fn := range a.functions {
		if fn.Contains(address) {
			result = append(result, fn)
		}
	}
	return result, nil
}

// RemoveFunction removes the function with the same start address.
func (a *AddressSpace) RemoveFunction(fn target.Function) error {
	index := slices.IndexFunc(a.functions, func(existing target.Function) bool {
		return existing.Start == fn.Start
	})
	if index < 0 {
		return fmt.Errorf("%w at 0x%x", ErrUnknownFunction, fn.Start)
	}

	a.mutations++
	a.functions = slices.Delete(a.functions, index, index+1)
	return nil
}

// Functions returns all functions.
func (a *AddressSpace) Functions() []target.Function {
	return slices.Clone(a.functions)
}

// BeginTransaction starts a transaction, transactions can not be nested.
func (a *AddressSpace) BeginTransaction() error {
	if a.inTransaction {
		return fmt.Errorf("%w: transaction already started", ErrTransaction)
	}
	a.inTransaction = true
	return nil
}

// CommitTransaction ends the current transaction.
func (a *AddressSpace) CommitTransaction() error {
	if !a.inTransaction {
		return fmt.Errorf("%w: no transaction started", ErrTransaction)
	}
	a.inTransaction = false
	a.commits++
	return nil
}

// RefreshAnalysis counts the analysis requests.
func (a *AddressSpace) RefreshAnalysis() error {
	a.refreshes++
	return nil
}

// SymbolAt returns the symbol at the address.
func (a *AddressSpace) SymbolAt(address uint64) (target.Symbol, bool) {
	return a.symbols.Get(address)
}

// DataVariableAt returns the data variable at the address.
func (a *AddressSpace) DataVariableAt(address uint64) (target.DataVariable, bool) {
	return a.variables.Get(address)
}

// CommentAt returns the comment at the address.
func (a *AddressSpace) CommentAt(address uint64) (string, bool) {
	return a.comments.Get(address)
}

// Regions returns all regions in the order they were added.
func (a *AddressSpace) Regions() []target.Region {
	return slices.Clone(a.regions)
}

// Sections returns all sections in the order they were added.
func (a *AddressSpace) Sections() []target.Section {
	return slices.Clone(a.sections)
}

// Symbols returns all symbols ordered by address.
func (a *AddressSpace) Symbols() []target.Symbol {
	return a.symbols.Sorted()
}

// DataVariables returns all data variables ordered by address.
func (a *AddressSpace) DataVariables() []target.DataVariable {
	return a.variables.Sorted()
}

// Commits returns the number of committed transactions.
func (a *AddressSpace) Commits() int {
	return a.commits
}

// Refreshes returns the number of analysis requests.
func (a *AddressSpace) Refreshes() int {
	return a.refreshes
}

// Mutations returns the number of mutating calls.
func (a *AddressSpace) Mutations() int {
	return a.mutations
}

// InTransaction returns whether a transaction is open.
func (a *AddressSpace) InTransaction() bool {
	return a.inTransaction
}

func checkRange(start, length uint64) error {
	if length == 0 {
		return fmt.Errorf("%w: empty range at 0x%x", ErrInvalidRegion, start)
	}
	if length > math.MaxUint64-start {
		return fmt.Errorf("%w: range at 0x%x with length 0x%x overflows", ErrInvalidRegion, start, length)
	}
	return nil
}
