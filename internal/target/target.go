// Package target defines the address space of an analysis project that
// hardware descriptions are applied to.
package target

//go:generate mockgen -destination=mocks/address_space.go -package=mocks . AddressSpace

// AddressSpace is the mutable memory map of an analyzed binary.
type AddressSpace interface {
	// BaseRegion returns the primary read-only region containing the load address.
	BaseRegion() (Region, bool)

	AddRegion(name string, start, length uint64, flags SegmentFlag) error
	AddSection(name string, start, length uint64, semantics Semantics) error
	DefineSymbol(kind SymbolKind, address uint64, name string) error
	DefineDataVariable(address uint64, typ Type, name string) error
	SetComment(address uint64, text string) error

	// FunctionsContaining returns all functions whose body contains the address.
	FunctionsContaining(address uint64) ([]Function, error)
	RemoveFunction(fn Function) error

	BeginTransaction() error
	CommitTransaction() error

	// RefreshAnalysis requests the analysis to be rerun after mutations.
	RefreshAnalysis() error
}

// Reader gives read access to the definitions of an address space.
type Reader interface {
	SymbolAt(address uint64) (Symbol, bool)
	DataVariableAt(address uint64) (DataVariable, bool)
	CommentAt(address uint64) (string, bool)
	Regions() []Region
	Sections() []Section
}

// Seeder prepares an address space before a description is applied.
type Seeder interface {
	AddRegion(name string, start, length uint64, flags SegmentFlag) error
	AddFunction(fn Function) error
	SetLoadAddress(address uint64) error
}
