package sqlite

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrosvd/internal/apply"
	"github.com/retroenv/retrosvd/internal/svd"
	"github.com/retroenv/retrosvd/internal/target"
)

const romFlags = target.SegmentReadable | target.SegmentExecutable | target.SegmentContainsCode

func openTestDatabase(t *testing.T) (*Database, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "target.sqlite3")
	db, err := Open(path)
	assert.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, path
}

func TestRegionsAndSections(t *testing.T) {
	db, _ := openTestDatabase(t)

	assert.NoError(t, db.AddRegion("ROM", 0, 0x1000, romFlags))
	assert.NoError(t, db.AddRegion("GPIOA", 0x40020000, 0x400, target.SegmentReadable))
	assert.NoError(t, db.AddRegion("GPIO", 0x40020000, 0x400, target.SegmentReadable|target.SegmentWritable))
	assert.NoError(t, db.AddSection("ROM", 0, 0x1000, target.ReadOnlyCodeSemantics))
	assert.NoError(t, db.AddSection("ROM", 0, 0x2000, target.ReadOnlyCodeSemantics))

	regions := db.Regions()
	assert.Len(t, regions, 2)
	assert.Equal(t, "GPIO", regions[1].Name)
	assert.Equal(t, target.SegmentReadable|target.SegmentWritable, regions[1].Flags)

	sections := db.Sections()
	assert.Len(t, sections, 1)
	assert.Equal(t, uint64(0x2000), sections[0].Length)

	err := db.AddRegion("EMPTY", 0x100, 0, romFlags)
	assert.True(t, errors.Is(err, ErrInvalidRegion))
	assert.NoError(t, db.Err())
}

func TestHighAddresses(t *testing.T) {
	db, _ := openTestDatabase(t)
	address := uint64(0xffffffff_fffff000)

	assert.NoError(t, db.DefineSymbol(target.ImportedDataSymbol, address, "HIGH::REG"))
	assert.NoError(t, db.SetComment(address, "top"))

	symbol, ok := db.SymbolAt(address)
	assert.True(t, ok)
	assert.Equal(t, address, symbol.Address)
	assert.Equal(t, target.ImportedDataSymbol, symbol.Kind)

	comment, ok := db.CommentAt(address)
	assert.True(t, ok)
	assert.Equal(t, "top", comment)
}

func TestSymbolsAndComments(t *testing.T) {
	db, _ := openTestDatabase(t)

	assert.NoError(t, db.DefineSymbol(target.DataSymbol, 0x100, "first"))
	assert.NoError(t, db.DefineSymbol(target.ImportedDataSymbol, 0x100, "second"))
	assert.NoError(t, db.DefineDataVariable(0x100, target.IntegerType(2), "second"))
	assert.NoError(t, db.DefineDataVariable(0x104, target.PointerType(4), "handler_vector"))

	symbol, ok := db.SymbolAt(0x100)
	assert.True(t, ok)
	assert.Equal(t, "second", symbol.Name)

	variable, ok := db.DataVariableAt(0x100)
	assert.True(t, ok)
	assert.Equal(t, target.IntegerType(2), variable.Type)

	variable, ok = db.DataVariableAt(0x104)
	assert.True(t, ok)
	assert.Equal(t, target.PointerType(4), variable.Type)

	_, ok = db.SymbolAt(0x200)
	assert.False(t, ok)

	assert.NoError(t, db.SetComment(0x100, "control"))
	assert.NoError(t, db.SetComment(0x100, ""))
	_, ok = db.CommentAt(0x100)
	assert.False(t, ok)
	assert.NoError(t, db.Err())
}

func TestFunctions(t *testing.T) {
	db, _ := openTestDatabase(t)

	assert.NoError(t, db.AddFunction(target.Function{Start: 0x50, Length: 0x10, Name: "sub_50"}))
	assert.NoError(t, db.AddFunction(target.Function{Start: 0x40, Length: 0x20, Name: "sub_40"}))

	functions, err := db.FunctionsContaining(0x54)
	assert.NoError(t, err)
	assert.Len(t, functions, 2)
	assert.Equal(t, "sub_40", functions[0].Name)

	assert.NoError(t, db.RemoveFunction(functions[0]))
	err = db.RemoveFunction(functions[0])
	assert.True(t, errors.Is(err, ErrUnknownFunction))

	all, err := db.Functions()
	assert.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestTransactions(t *testing.T) {
	db, path := openTestDatabase(t)

	assert.True(t, errors.Is(db.CommitTransaction(), ErrTransaction))

	assert.NoError(t, db.BeginTransaction())
	assert.True(t, errors.Is(db.BeginTransaction(), ErrTransaction))
	assert.NoError(t, db.DefineSymbol(target.DataSymbol, 0x10, "kept"))
	assert.NoError(t, db.CommitTransaction())

	assert.NoError(t, db.BeginTransaction())
	assert.NoError(t, db.DefineSymbol(target.DataSymbol, 0x20, "discarded"))
	_, ok := db.SymbolAt(0x20)
	assert.True(t, ok)
	assert.NoError(t, db.Rollback())

	_, ok = db.SymbolAt(0x20)
	assert.False(t, ok)

	transactions, err := db.Transactions()
	assert.NoError(t, err)
	assert.Equal(t, 1, transactions)

	assert.NoError(t, db.Close())

	reopened, err := Open(path)
	assert.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	symbol, ok := reopened.SymbolAt(0x10)
	assert.True(t, ok)
	assert.Equal(t, "kept", symbol.Name)
}

func TestBaseRegion(t *testing.T) {
	db, _ := openTestDatabase(t)

	_, ok := db.BaseRegion()
	assert.False(t, ok)

	assert.NoError(t, db.AddRegion("BOOT", 0, 0x1000, romFlags))
	assert.NoError(t, db.AddRegion("FLASH", 0x08000000, 0x10000, romFlags))

	region, ok := db.BaseRegion()
	assert.True(t, ok)
	assert.Equal(t, "BOOT", region.Name)

	assert.NoError(t, db.SetLoadAddress(0x08000000))
	region, ok = db.BaseRegion()
	assert.True(t, ok)
	assert.Equal(t, "FLASH", region.Name)
	assert.NoError(t, db.Err())
}

func TestApplyToDatabase(t *testing.T) {
	db, _ := openTestDatabase(t)
	assert.NoError(t, db.AddRegion("ROM", 0, 0x8000, romFlags))
	assert.NoError(t, db.AddFunction(target.Function{Start: 0xd0, Length: 0x10, Name: "sub_d0"}))

	system := &svd.System{Peripherals: []svd.Peripheral{
		{
			Name: "GPIOA", BaseAddress: 0x40020000, Size: 0x400,
			Registers: []svd.Register{
				{Name: "MODER", Offset: 0x0, Description: "GPIO port mode register"},
				{Name: "ODR", Offset: 0x14},
			},
		},
		{
			Name: "USART1", BaseAddress: 0x40011000, Size: 0x400,
			Interrupts: []svd.Interrupt{{Name: "USART1", Index: 37, Description: "USART1 global interrupt"}},
		},
	}}

	applier, err := apply.New(log.NewTestLogger(t), apply.DefaultOptions())
	assert.NoError(t, err)
	assert.NoError(t, applier.Apply(system, db))

	symbol, ok := db.SymbolAt(0x40020014)
	assert.True(t, ok)
	assert.Equal(t, "GPIOA::ODR", symbol.Name)

	comment, ok := db.CommentAt(0x40020000)
	assert.True(t, ok)
	assert.Equal(t, "GPIO port mode register", comment)

	variable, ok := db.DataVariableAt(0xd4)
	assert.True(t, ok)
	assert.Equal(t, "USART1_vector", variable.Name)

	functions, err := db.Functions()
	assert.NoError(t, err)
	assert.Empty(t, functions)

	assert.Len(t, db.Regions(), 3)
	assert.Len(t, db.Sections(), 3)

	transactions, err := db.Transactions()
	assert.NoError(t, err)
	assert.Equal(t, 1, transactions)

	runs, err := db.AnalysisRuns()
	assert.NoError(t, err)
	assert.Equal(t, 1, runs)
	assert.NoError(t, db.Err())
}
