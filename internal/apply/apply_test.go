package apply

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrosvd/internal/svd"
	"github.com/retroenv/retrosvd/internal/target"
	"github.com/retroenv/retrosvd/internal/target/memory"
)

const romFlags = target.SegmentReadable | target.SegmentExecutable | target.SegmentContainsCode

func newSpace(t *testing.T) *memory.AddressSpace {
	t.Helper()
	space := memory.New()
	assert.NoError(t, space.AddRegion("ROM", 0x0, 0x10000, romFlags))
	assert.NoError(t, space.SetLoadAddress(0x0))
	return space
}

func newApplier(t *testing.T, options Options) *Applier {
	t.Helper()
	applier, err := New(log.NewTestLogger(t), options)
	assert.NoError(t, err)
	return applier
}

func gpioSystem() *svd.System {
	return &svd.System{Peripherals: []svd.Peripheral{
		{
			Name:        "GPIOA",
			BaseAddress: 0x40020000,
			Size:        0x400,
			Registers: []svd.Register{
				{Name: "MODER", Offset: 0x00, Description: "GPIO port mode register"},
				{Name: "IDR", Offset: 0x10, Width: 16},
			},
		},
	}}
}

func TestApplyPeripheralRegisters(t *testing.T) {
	space := newSpace(t)
	applier := newApplier(t, DefaultOptions())

	assert.NoError(t, applier.Apply(gpioSystem(), space))

	symbol, ok := space.SymbolAt(0x40020000)
	assert.True(t, ok)
	assert.Equal(t, "GPIOA::MODER", symbol.Name)
	assert.Equal(t, target.ImportedDataSymbol, symbol.Kind)

	variable, ok := space.DataVariableAt(0x40020000)
	assert.True(t, ok)
	assert.Equal(t, "GPIOA::MODER", variable.Name)
	assert.Equal(t, target.IntegerType(4), variable.Type)

	comment, ok := space.CommentAt(0x40020000)
	assert.True(t, ok)
	assert.Equal(t, "GPIO port mode register", comment)

	variable, ok = space.DataVariableAt(0x40020010)
	assert.True(t, ok)
	assert.Equal(t, "GPIOA::IDR", variable.Name)
	assert.Equal(t, "uint16_t", variable.Type.Name)

	regions := space.Regions()
	assert.Len(t, regions, 2)
	assert.Equal(t, target.Region{
		Name:   "GPIOA",
		Start:  0x40020000,
		Length: 0x400,
		Flags:  target.SegmentReadable | target.SegmentWritable | target.SegmentContainsData,
	}, regions[1])

	sections := space.Sections()
	assert.Len(t, sections, 2)
	assert.Equal(t, target.Section{Name: "ROM", Start: 0, Length: 0x10000, Semantics: target.ReadOnlyCodeSemantics}, sections[0])
	assert.Equal(t, target.Section{Name: "GPIOA", Start: 0x40020000, Length: 0x400, Semantics: target.ReadWriteDataSemantics}, sections[1])

	assert.Equal(t, 1, space.Commits())
	assert.Equal(t, 1, space.Refreshes())
	assert.False(t, space.InTransaction())
}

func TestApplyZeroLengthPeripheral(t *testing.T) {
	space := newSpace(t)
	mutationsBefore := space.Mutations()
	applier := newApplier(t, DefaultOptions())

	system := &svd.System{Peripherals: []svd.Peripheral{
		{
			Name:        "TIM1",
			BaseAddress: 0x40010000,
			Registers:   []svd.Register{{Name: "CR1", Offset: 0}},
			Interrupts:  []svd.Interrupt{{Name: "TIM1_UP", Index: 25}},
		},
	}}

	plan, err := applier.PlanFor(system, space)
	assert.NoError(t, err)
	assert.Equal(t, []string{"TIM1"}, plan.Skipped)
	assert.Equal(t, 0, plan.Regions())

	assert.NoError(t, applier.Apply(system, space))

	assert.Equal(t, mutationsBefore+1, space.Mutations())
	assert.Len(t, space.Regions(), 1)
	assert.Len(t, space.Sections(), 1)
	assert.Empty(t, space.Symbols())
	assert.Empty(t, space.DataVariables())
}

func TestApplyInterruptVector(t *testing.T) {
	space := newSpace(t)
	assert.NoError(t, space.AddFunction(target.Function{Start: 0xd0, Length: 0x8, Name: "sub_d0"}))
	assert.NoError(t, space.AddFunction(target.Function{Start: 0x200, Length: 0x20, Name: "main"}))
	applier := newApplier(t, DefaultOptions())

	system := &svd.System{Peripherals: []svd.Peripheral{
		{
			Name:        "USART1",
			BaseAddress: 0x40011000,
			Size:        0x400,
			Interrupts:  []svd.Interrupt{{Name: "USART1", Index: 37, Description: "USART1 global interrupt"}},
		},
	}}

	assert.NoError(t, applier.Apply(system, space))

	variable, ok := space.DataVariableAt(0xd4)
	assert.True(t, ok)
	assert.Equal(t, "USART1_vector", variable.Name)
	assert.Equal(t, target.PointerType(4), variable.Type)

	comment, ok := space.CommentAt(0xd4)
	assert.True(t, ok)
	assert.Equal(t, "USART1 global interrupt", comment)

	functions := space.Functions()
	assert.Len(t, functions, 1)
	assert.Equal(t, "main", functions[0].Name)
}

func TestApplyCustomVectorTable(t *testing.T) {
	space := newSpace(t)
	options := DefaultOptions()
	options.VectorTableBase = 0x1000
	options.PointerSize = 8
	options.RegisterWidth = 2
	applier := newApplier(t, options)

	system := &svd.System{Peripherals: []svd.Peripheral{
		{
			Name:        "UART",
			BaseAddress: 0x2000,
			Size:        0x100,
			Registers:   []svd.Register{{Name: "DR", Offset: 4}},
			Interrupts:  []svd.Interrupt{{Name: "UART", Index: 3}, {Name: "NMI", Index: -14}},
		},
	}}

	assert.NoError(t, applier.Apply(system, space))

	variable, ok := space.DataVariableAt(0x1018)
	assert.True(t, ok)
	assert.Equal(t, "UART_vector", variable.Name)
	assert.Equal(t, uint32(8), variable.Type.Width)

	variable, ok = space.DataVariableAt(0x1000 - 14*8)
	assert.True(t, ok)
	assert.Equal(t, "NMI_vector", variable.Name)

	variable, ok = space.DataVariableAt(0x2004)
	assert.True(t, ok)
	assert.Equal(t, "uint16_t", variable.Type.Name)
}

//nolint:funlen // test functions can be long
func TestApplyCollisions(t *testing.T) {
	system := &svd.System{Peripherals: []svd.Peripheral{
		{
			Name: "TIM2", BaseAddress: 0x40000000, Size: 0x400,
			Registers: []svd.Register{
				{Name: "CCMR1_Output", Offset: 0x18, Description: "output mode"},
				{Name: "CCMR1_Input", Offset: 0x18, Description: "input mode"},
			},
		},
	}}

	t.Run("permissive mode last write wins", func(t *testing.T) {
		space := newSpace(t)
		applier := newApplier(t, DefaultOptions())

		plan, err := applier.PlanFor(system, space)
		assert.NoError(t, err)
		assert.Equal(t, 1, plan.Overwrites)
		assert.Equal(t, []uint64{0x40000018}, plan.Overwritten)

		assert.NoError(t, applier.Apply(system, space))

		symbol, ok := space.SymbolAt(0x40000018)
		assert.True(t, ok)
		assert.Equal(t, "TIM2::CCMR1_Input", symbol.Name)
		variable, _ := space.DataVariableAt(0x40000018)
		assert.Equal(t, "TIM2::CCMR1_Input", variable.Name)
		comment, _ := space.CommentAt(0x40000018)
		assert.Equal(t, "input mode", comment)
	})

	t.Run("strict mode fails without mutation", func(t *testing.T) {
		space := newSpace(t)
		mutationsBefore := space.Mutations()
		options := DefaultOptions()
		options.Strict = true
		applier := newApplier(t, options)

		err := applier.Apply(system, space)
		assert.Error(t, err)

		var collisionErr *CollisionError
		assert.True(t, errors.As(err, &collisionErr))
		assert.Equal(t, uint64(0x40000018), collisionErr.Address)
		assert.Equal(t, "TIM2::CCMR1_Output", collisionErr.First)
		assert.Equal(t, "TIM2::CCMR1_Input", collisionErr.Second)

		assert.Equal(t, mutationsBefore, space.Mutations())
		assert.Equal(t, 0, space.Commits())
	})

	t.Run("shared interrupt is not a collision", func(t *testing.T) {
		space := newSpace(t)
		options := DefaultOptions()
		options.Strict = true
		applier := newApplier(t, options)

		shared := &svd.System{Peripherals: []svd.Peripheral{
			{Name: "I2C1", BaseAddress: 0x40005400, Size: 0x400, Interrupts: []svd.Interrupt{{Name: "I2C1_EV", Index: 31}}},
			{Name: "I2C2", BaseAddress: 0x40005800, Size: 0x400, Interrupts: []svd.Interrupt{{Name: "I2C1_EV", Index: 31}}},
		}}
		assert.NoError(t, applier.Apply(shared, space))
	})

	t.Run("register colliding with vector slot across peripherals", func(t *testing.T) {
		options := DefaultOptions()
		options.Strict = true
		applier := newApplier(t, options)

		crossing := &svd.System{Peripherals: []svd.Peripheral{
			{Name: "SCB", BaseAddress: 0x0, Size: 0x100, Registers: []svd.Register{{Name: "SLOT", Offset: 0x40}}},
			{Name: "WWDG", BaseAddress: 0x40002c00, Size: 0x400, Interrupts: []svd.Interrupt{{Name: "WWDG", Index: 0}}},
		}}
		_, err := applier.Plan(crossing, target.Region{Start: 0, Length: 0x1000})

		var collisionErr *CollisionError
		assert.True(t, errors.As(err, &collisionErr))
		assert.Equal(t, "WWDG_vector", collisionErr.Second)
	})
}

func TestApplyIdempotent(t *testing.T) {
	space := newSpace(t)
	applier := newApplier(t, DefaultOptions())
	system := gpioSystem()
	system.Peripherals = append(system.Peripherals, svd.Peripheral{
		Name: "USART1", BaseAddress: 0x40011000, Size: 0x400,
		Interrupts: []svd.Interrupt{{Name: "USART1", Index: 37}},
	})

	assert.NoError(t, applier.Apply(system, space))
	symbols := space.Symbols()
	variables := space.DataVariables()
	regions := space.Regions()
	sections := space.Sections()

	assert.NoError(t, applier.Apply(system, space))
	assert.Equal(t, symbols, space.Symbols())
	assert.Equal(t, variables, space.DataVariables())
	assert.Equal(t, regions, space.Regions())
	assert.Equal(t, sections, space.Sections())
	assert.Equal(t, 2, space.Commits())
}

func TestApplyNoBaseRegion(t *testing.T) {
	space := memory.New()
	applier := newApplier(t, DefaultOptions())

	err := applier.Apply(gpioSystem(), space)
	assert.True(t, errors.Is(err, ErrNoBaseRegion))
	assert.Equal(t, 0, space.Mutations())
	assert.Equal(t, 0, space.Commits())
}

// rejectingSpace fails to add the region with the configured name.
type rejectingSpace struct {
	*memory.AddressSpace
	reject string
}

var errRejected = errors.New("region rejected")

func (r *rejectingSpace) AddRegion(name string, start, length uint64, flags target.SegmentFlag) error {
	if name == r.reject {
		return errRejected
	}
	return r.AddressSpace.AddRegion(name, start, length, flags)
}

func TestApplyTargetFailure(t *testing.T) {
	space := &rejectingSpace{AddressSpace: newSpace(t), reject: "BAD"}
	applier := newApplier(t, DefaultOptions())

	system := &svd.System{Peripherals: []svd.Peripheral{
		{Name: "GOOD", BaseAddress: 0x1000, Size: 0x10, Registers: []svd.Register{{Name: "R", Offset: 0}}},
		{Name: "BAD", BaseAddress: 0x2000, Size: 0x100},
		{Name: "LATER", BaseAddress: 0x3000, Size: 0x10},
	}}

	err := applier.Apply(system, space)
	assert.Error(t, err)

	var applyErr *ApplyError
	assert.True(t, errors.As(err, &applyErr))
	assert.Equal(t, OpAddRegion, applyErr.Op.Kind)
	assert.Equal(t, "BAD", applyErr.Op.Name)
	assert.True(t, errors.Is(err, errRejected))

	// operations before the failure remain applied
	_, ok := space.SymbolAt(0x1000)
	assert.True(t, ok)
	assert.Len(t, space.Sections(), 2)
	assert.Len(t, space.Regions(), 2)
	assert.True(t, space.InTransaction())
	assert.Equal(t, 0, space.Commits())
	assert.Equal(t, 0, space.Refreshes())
}

func TestPlanErrors(t *testing.T) {
	applier := newApplier(t, DefaultOptions())
	base := target.Region{Start: 0, Length: 0x1000}

	tests := []struct {
		name   string
		system *svd.System
		reason string
	}{
		{
			name: "vector slot below address 0",
			system: &svd.System{Peripherals: []svd.Peripheral{
				{Name: "CORE", BaseAddress: 0x1000, Size: 0x10, Interrupts: []svd.Interrupt{{Name: "NMI", Index: -17}}},
			}},
			reason: "below address 0",
		},
		{
			name: "register beyond the address space",
			system: &svd.System{Peripherals: []svd.Peripheral{
				{Name: "HIGH", BaseAddress: 0xffffffffffffff00, Size: 0x10, Registers: []svd.Register{{Name: "R", Offset: 0x100}}},
			}},
			reason: "address exceeds the address space",
		},
		{
			name: "vector slot beyond the address space",
			system: &svd.System{Peripherals: []svd.Peripheral{
				{Name: "UART", BaseAddress: 0x1000, Size: 0x10, Interrupts: []svd.Interrupt{{Name: "UART", Index: 1 << 62}}},
			}},
			reason: "exceeds the address space",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := applier.Plan(tt.system, base)

			var planErr *PlanError
			assert.True(t, errors.As(err, &planErr))
			assert.ErrorContains(t, err, tt.reason)
		})
	}
}

func TestNewInvalidOptions(t *testing.T) {
	options := DefaultOptions()
	options.PointerSize = 3
	_, err := New(log.NewTestLogger(t), options)
	assert.True(t, errors.Is(err, ErrInvalidOptions))

	options = DefaultOptions()
	options.RegisterWidth = 0
	_, err = New(log.NewTestLogger(t), options)
	assert.True(t, errors.Is(err, ErrInvalidOptions))

	options = DefaultOptions()
	options.BaseSectionName = ""
	_, err = New(log.NewTestLogger(t), options)
	assert.True(t, errors.Is(err, ErrInvalidOptions))
}

func TestPlanCounts(t *testing.T) {
	applier := newApplier(t, DefaultOptions())
	system := gpioSystem()
	system.Peripherals = append(system.Peripherals,
		svd.Peripheral{Name: "TIM1", BaseAddress: 0x40010000},
		svd.Peripheral{
			Name: "USART1", BaseAddress: 0x40011000, Size: 0x400,
			Interrupts: []svd.Interrupt{{Name: "USART1", Index: 37}},
		},
	)

	plan, err := applier.Plan(system, target.Region{Start: 0, Length: 0x1000})
	assert.NoError(t, err)
	assert.Equal(t, 2, plan.Regions())
	assert.Equal(t, 2, plan.Symbols())
	assert.Equal(t, 1, plan.Vectors())
	assert.Equal(t, []string{"TIM1"}, plan.Skipped)
	assert.Equal(t, "add section 'ROM' [0x0, 0x1000)", plan.Operations[0].String())
}
