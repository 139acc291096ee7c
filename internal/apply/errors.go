package apply

import (
	"errors"
	"fmt"
)

var (
	// ErrNoBaseRegion is returned when the address space has no base region.
	// Nothing has been modified when it is returned.
	ErrNoBaseRegion = errors.New("no base region found in address space")
	// ErrInvalidOptions is returned by New for unusable options.
	ErrInvalidOptions = errors.New("invalid options")
)

// PlanError is returned when the description can not be mapped onto the
// address space. Nothing has been modified when it is returned.
type PlanError struct {
	Path   string
	Reason string
}

func (e *PlanError) Error() string {
	return fmt.Sprintf("planning %s: %s", e.Path, e.Reason)
}

// CollisionError is returned in strict mode when two different definitions
// map to the same address.
type CollisionError struct {
	Address uint64
	First   string
	Second  string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("address 0x%x of '%s' is already used by '%s'", e.Address, e.Second, e.First)
}

// ApplyError is returned when the address space rejects an operation.
// Operations before the failing one have already been applied.
type ApplyError struct {
	Op  Operation
	Err error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("applying %s: %s", e.Op, e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}
