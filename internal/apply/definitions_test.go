package apply

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrosvd/internal/svd"
	"github.com/retroenv/retrosvd/internal/target"
)

func TestPlanDefinitions(t *testing.T) {
	applier := newApplier(t, DefaultOptions())
	system := gpioSystem()
	system.Peripherals = append(system.Peripherals, svd.Peripheral{
		Name: "USART1", BaseAddress: 0x40011000, Size: 0x400,
		Interrupts: []svd.Interrupt{{Name: "USART1", Index: 37, Description: "USART1 global interrupt"}},
	})

	plan, err := applier.Plan(system, target.Region{Name: "ROM", Length: 0x1000, Flags: romFlags})
	assert.NoError(t, err)

	definitions := plan.Definitions()
	assert.Len(t, definitions, 3)

	vector := definitions[0]
	assert.Equal(t, uint64(0xd4), vector.Address)
	assert.Equal(t, "USART1_vector", vector.Name())
	assert.True(t, vector.IsVector())
	assert.Equal(t, "", vector.Symbol.Name)
	assert.Equal(t, "USART1 global interrupt", vector.Comment)

	register := definitions[1]
	assert.Equal(t, "GPIOA::MODER", register.Name())
	assert.Equal(t, "GPIOA::MODER", register.Symbol.Name)
	assert.False(t, register.IsVector())
	assert.Equal(t, "GPIO port mode register", register.Comment)

	assert.Equal(t, "uint16_t", definitions[2].Variable.Type.Name)
	assert.Equal(t, "", definitions[2].Comment)

	assert.Empty(t, plan.Overwritten)
	for _, definition := range definitions {
		assert.False(t, definition.Redefined)
	}
}

func TestPlanDefinitionsLastWriteWins(t *testing.T) {
	applier := newApplier(t, DefaultOptions())
	system := &svd.System{Peripherals: []svd.Peripheral{
		{
			Name: "LOW", BaseAddress: 0x40, Size: 0x10,
			Registers: []svd.Register{{Name: "CTRL", Offset: 0, Description: "control"}},
		},
		{
			Name: "HIGH", BaseAddress: 0x1000, Size: 0x10,
			Interrupts: []svd.Interrupt{{Name: "RESET", Index: 0}},
		},
	}}

	plan, err := applier.Plan(system, target.Region{Name: "ROM", Length: 0x1000, Flags: romFlags})
	assert.NoError(t, err)

	definitions := plan.Definitions()
	assert.Len(t, definitions, 1)
	assert.Equal(t, "LOW::CTRL", definitions[0].Symbol.Name)
	assert.Equal(t, "RESET_vector", definitions[0].Name())
	assert.Equal(t, "", definitions[0].Comment)
	assert.True(t, definitions[0].Redefined)
	assert.Equal(t, 1, plan.Overwrites)
	assert.Equal(t, []uint64{0x40}, plan.Overwritten)
}
