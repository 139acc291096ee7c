// Package verification verifies that an address space contains all definitions of an applied plan.
package verification

import (
	"errors"
	"fmt"

	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrosvd/internal/apply"
	"github.com/retroenv/retrosvd/internal/target"
)

// ErrMismatch is returned when the address space differs from the plan.
var ErrMismatch = errors.New("address space mismatch")

const maxLoggedMismatches = 10

type checker struct {
	logger *log.Logger
	diffs  int
}

func (c *checker) mismatch(what string, address uint64, expected, got string) {
	c.diffs++
	if c.diffs <= maxLoggedMismatches {
		c.logger.Error("Definition mismatch",
			log.String("kind", what),
			log.Hex("address", address),
			log.String("expected", expected),
			log.String("got", got))
	}
}

// Verify reads back every region, section, symbol, data variable and comment
// that the plan defines and compares it to the address space.
func Verify(logger *log.Logger, plan *apply.Plan, reader target.Reader) error {
	c := &checker{logger: logger}

	checkRegions(c, plan, reader.Regions())
	checkSections(c, plan, reader.Sections())

	for _, definition := range plan.Definitions() {
		checkDefinition(c, reader, definition)
	}

	if c.diffs == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d differences", ErrMismatch, c.diffs)
}

type regionKey struct {
	start  uint64
	length uint64
}

func checkRegions(c *checker, plan *apply.Plan, regions []target.Region) {
	expected := map[regionKey]target.Region{}
	var order []regionKey
	for _, op := range plan.Operations {
		if op.Kind != apply.OpAddRegion {
			continue
		}
		key := regionKey{start: op.Address, length: op.Length}
		if _, ok := expected[key]; !ok {
			order = append(order, key)
		}
		expected[key] = target.Region{Name: op.Name, Start: op.Address, Length: op.Length, Flags: op.Flags}
	}

	actual := make(map[regionKey]target.Region, len(regions))
	for _, region := range regions {
		actual[regionKey{start: region.Start, length: region.Length}] = region
	}

	for _, key := range order {
		want := expected[key]
		got, ok := actual[key]
		if !ok {
			c.mismatch("region", want.Start, formatRegion(want), "")
			continue
		}
		if got != want {
			c.mismatch("region", want.Start, formatRegion(want), formatRegion(got))
		}
	}
}

func checkSections(c *checker, plan *apply.Plan, sections []target.Section) {
	expected := map[string]target.Section{}
	var order []string
	for _, op := range plan.Operations {
		if op.Kind != apply.OpAddSection {
			continue
		}
		if _, ok := expected[op.Name]; !ok {
			order = append(order, op.Name)
		}
		expected[op.Name] = target.Section{Name: op.Name, Start: op.Address, Length: op.Length, Semantics: op.Semantics}
	}

	actual := make(map[string]target.Section, len(sections))
	for _, section := range sections {
		actual[section.Name] = section
	}

	for _, name := range order {
		want := expected[name]
		got, ok := actual[name]
		if !ok {
			c.mismatch("section", want.Start, formatSection(want), "")
			continue
		}
		if got != want {
			c.mismatch("section", want.Start, formatSection(want), formatSection(got))
		}
	}
}

func checkDefinition(c *checker, reader target.Reader, definition apply.Definition) {
	address := definition.Address

	if definition.Symbol.Name != "" {
		symbol, ok := reader.SymbolAt(address)
		switch {
		case !ok:
			c.mismatch("symbol", address, definition.Symbol.Name, "")
		case symbol.Name != definition.Symbol.Name || symbol.Kind != definition.Symbol.Kind:
			c.mismatch("symbol", address,
				fmt.Sprintf("%s (%s)", definition.Symbol.Name, definition.Symbol.Kind),
				fmt.Sprintf("%s (%s)", symbol.Name, symbol.Kind))
		}
	}

	if definition.Variable.Name != "" {
		variable, ok := reader.DataVariableAt(address)
		switch {
		case !ok:
			c.mismatch("data variable", address, definition.Variable.Name, "")
		case variable != definition.Variable:
			c.mismatch("data variable", address,
				fmt.Sprintf("%s %s", definition.Variable.Type.Name, definition.Variable.Name),
				fmt.Sprintf("%s %s", variable.Type.Name, variable.Name))
		}
	}

	comment, ok := reader.CommentAt(address)
	if !ok {
		comment = ""
	}
	if comment != definition.Comment {
		c.mismatch("comment", address, definition.Comment, comment)
	}
}

func formatRegion(region target.Region) string {
	return fmt.Sprintf("%s [0x%x, 0x%x) %s", region.Name, region.Start, region.End(), region.Flags)
}

func formatSection(section target.Section) string {
	return fmt.Sprintf("%s [0x%x, 0x%x) %s", section.Name, section.Start, section.Start+section.Length, section.Semantics)
}
