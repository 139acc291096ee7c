package apply

import (
	"github.com/retroenv/retrosvd/internal/symbols"
	"github.com/retroenv/retrosvd/internal/target"
)

// Definition is the final state of an address after all operations of a
// plan are applied. Later operations replace earlier ones, a definition
// can have a symbol, a data variable or both.
type Definition struct {
	Address  uint64
	Symbol   target.Symbol
	Variable target.DataVariable
	Comment  string

	Redefined bool // replaced a differently named definition
}

// Name returns the variable name, or the symbol name for addresses without a variable.
func (d Definition) Name() string {
	if d.Variable.Name != "" {
		return d.Variable.Name
	}
	return d.Symbol.Name
}

// IsVector returns whether the definition is an interrupt vector slot.
func (d Definition) IsVector() bool {
	return d.Variable.Type.Pointer
}

// Definitions returns the definitions of the plan ordered by address.
func (p *Plan) Definitions() []Definition {
	table := symbols.New[Definition]()
	update := func(address uint64, change func(*Definition)) {
		definition, _ := table.Get(address)
		definition.Address = address
		change(&definition)
		table.Set(address, definition)
	}

	for _, op := range p.Operations {
		switch op.Kind {
		case OpDefineSymbol:
			update(op.Address, func(d *Definition) {
				d.Symbol = target.Symbol{Kind: op.SymbolKind, Address: op.Address, Name: op.Name}
			})
		case OpDefineDataVariable:
			update(op.Address, func(d *Definition) {
				d.Variable = target.DataVariable{Address: op.Address, Type: op.Type, Name: op.Name}
			})
		case OpSetComment:
			update(op.Address, func(d *Definition) {
				d.Comment = op.Text
			})
		default:
		}
	}

	for _, address := range p.Overwritten {
		table.MarkUsed(address)
	}
	definitions := table.Sorted()
	for i := range definitions {
		definitions[i].Redefined = table.IsUsed(definitions[i].Address)
	}
	return definitions
}
