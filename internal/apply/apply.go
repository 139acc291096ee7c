// Package apply maps a hardware description onto the address space of an
// analysis project.
//
// All operations are staged and validated in a Plan first. Only a valid plan
// is replayed against the address space, inside a single transaction.
package apply

import (
	"fmt"

	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrosvd/internal/svd"
	"github.com/retroenv/retrosvd/internal/symbols"
	"github.com/retroenv/retrosvd/internal/target"
)

// Applier applies hardware descriptions to address spaces.
type Applier struct {
	logger  *log.Logger
	options Options
}

// New creates a new applier.
func New(logger *log.Logger, options Options) (*Applier, error) {
	if err := options.validate(); err != nil {
		return nil, err
	}
	return &Applier{
		logger:  logger,
		options: options,
	}, nil
}

// Options returns the options of the applier.
func (a *Applier) Options() Options {
	return a.options
}

// Apply maps the system onto the address space. It returns ErrNoBaseRegion,
// a *PlanError or a *CollisionError without modifying the address space.
// An *ApplyError is returned if the address space rejects an operation, in
// which case the operations before it remain applied.
func (a *Applier) Apply(system *svd.System, space target.AddressSpace) error {
	plan, err := a.PlanFor(system, space)
	if err != nil {
		return err
	}
	return a.Replay(plan, space)
}

// PlanFor resolves the base region of the address space and returns the plan
// of the system for it.
func (a *Applier) PlanFor(system *svd.System, space target.AddressSpace) (*Plan, error) {
	base, ok := space.BaseRegion()
	if !ok {
		return nil, ErrNoBaseRegion
	}
	return a.Plan(system, base)
}

// Plan returns all operations that map the system onto an address space
// with the given base region.
func (a *Applier) Plan(system *svd.System, base target.Region) (*Plan, error) {
	p := &planner{
		logger:  a.logger,
		options: a.options,
		plan:    &Plan{Base: base},
		names:   symbols.New[string](),
	}
	if err := p.build(system); err != nil {
		return nil, err
	}
	p.plan.Overwritten = p.names.UsedAddresses()
	return p.plan, nil
}

// Replay executes the operations of the plan inside a transaction and
// requests an analysis update afterwards.
func (a *Applier) Replay(plan *Plan, space target.AddressSpace) error {
	if err := space.BeginTransaction(); err != nil {
		return &ApplyError{Op: Operation{Kind: OpBeginTransaction}, Err: err}
	}

	for _, op := range plan.Operations {
		if err := execute(space, op); err != nil {
			return &ApplyError{Op: op, Err: err}
		}
	}

	if err := space.CommitTransaction(); err != nil {
		return &ApplyError{Op: Operation{Kind: OpCommitTransaction}, Err: err}
	}
	if err := space.RefreshAnalysis(); err != nil {
		return &ApplyError{Op: Operation{Kind: OpRefreshAnalysis}, Err: err}
	}
	return nil
}

func execute(space target.AddressSpace, op Operation) error {
	switch op.Kind {
	case OpAddRegion:
		return space.AddRegion(op.Name, op.Address, op.Length, op.Flags)
	case OpAddSection:
		return space.AddSection(op.Name, op.Address, op.Length, op.Semantics)
	case OpDefineSymbol:
		return space.DefineSymbol(op.SymbolKind, op.Address, op.Name)
	case OpDefineDataVariable:
		return space.DefineDataVariable(op.Address, op.Type, op.Name)
	case OpSetComment:
		return space.SetComment(op.Address, op.Text)
	case OpRemoveFunctions:
		return removeFunctions(space, op.Address)
	default:
		return fmt.Errorf("unsupported operation %s", op.Kind)
	}
}

// removeFunctions removes all functions that contain the address, these are
// vector table slots that the analysis mistakenly disassembled as code.
func removeFunctions(space target.AddressSpace, address uint64) error {
	functions, err := space.FunctionsContaining(address)
	if err != nil {
		return fmt.Errorf("getting functions: %w", err)
	}
	for _, fn := range functions {
		if err := space.RemoveFunction(fn); err != nil {
			return fmt.Errorf("removing function at 0x%x: %w", fn.Start, err)
		}
	}
	return nil
}
