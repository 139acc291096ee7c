package sqlite

import (
	"cmp"
	"slices"

	"github.com/retroenv/retrosvd/internal/target"
)

// SQLite integers are signed 64 bit, addresses are stored with their bit
// pattern unchanged and ordered in Go.

func toDB(value uint64) int64 {
	return int64(value)
}

func fromDB(value int64) uint64 {
	return uint64(value)
}

func sortFunctions(functions []target.Function) {
	slices.SortFunc(functions, func(a, b target.Function) int {
		return cmp.Compare(a.Start, b.Start)
	})
}
