// Package writer writes listings of the definitions that a plan applies.
package writer

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/retroenv/retrosvd/internal/apply"
)

// Listing formats.
const (
	Asm = "asm"
	C   = "c"
)

// Formats contains all supported listing formats.
var Formats = []string{Asm, C}

// Writer writes register and interrupt vector listings.
type Writer struct {
	format string
	writer io.Writer
}

// New creates a new writer for the given listing format.
func New(format string, writer io.Writer) (*Writer, error) {
	switch format {
	case Asm, C:
	default:
		return nil, fmt.Errorf("unsupported listing format '%s'", format)
	}
	return &Writer{
		format: format,
		writer: writer,
	}, nil
}

// Write writes all definitions of the plan, the name is used for the header.
func (w Writer) Write(name string, plan *apply.Plan) error {
	definitions := plan.Definitions()
	digits := addressDigits(definitions)

	if err := w.writeHeader(name); err != nil {
		return err
	}

	for _, definition := range definitions {
		if err := w.writeDefinition(definition, digits); err != nil {
			return fmt.Errorf("writing definition '%s': %w", definition.Name(), err)
		}
	}

	return w.writeFooter(name)
}

func (w Writer) writeHeader(name string) error {
	var err error
	switch w.format {
	case Asm:
		_, err = fmt.Fprintf(w.writer, "; %s peripheral registers and interrupt vectors\n\n", name)
	case C:
		guard := guardName(name)
		_, err = fmt.Fprintf(w.writer, "/* %s peripheral registers and interrupt vectors */\n\n#ifndef %s\n#define %s\n\n#include <stdint.h>\n\n",
			name, guard, guard)
	}
	if err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	return nil
}

func (w Writer) writeFooter(name string) error {
	if w.format != C {
		return nil
	}
	if _, err := fmt.Fprintf(w.writer, "\n#endif /* %s */\n", guardName(name)); err != nil {
		return fmt.Errorf("writing footer: %w", err)
	}
	return nil
}

func (w Writer) writeDefinition(definition apply.Definition, digits int) error {
	name := Identifier(definition.Name())
	address := fmt.Sprintf("%0*x", digits, definition.Address)

	if definition.Redefined {
		if err := w.writeRedefinedNote(name); err != nil {
			return err
		}
	}

	var line string
	switch w.format {
	case Asm:
		line = fmt.Sprintf("%s = $%s", name, address)
		if definition.Comment != "" {
			line += " ; " + singleLine(definition.Comment)
		}

	case C:
		if definition.IsVector() {
			line = fmt.Sprintf("#define %s (*(void * volatile *)0x%sUL)", name, address)
		} else {
			line = fmt.Sprintf("#define %s (*(volatile %s *)0x%sUL)", name, definition.Variable.Type.Name, address)
		}
		if definition.Comment != "" {
			line += " /* " + strings.ReplaceAll(singleLine(definition.Comment), "*/", "* /") + " */"
		}
	}

	if _, err := fmt.Fprintln(w.writer, line); err != nil {
		return fmt.Errorf("writing line: %w", err)
	}
	return nil
}

// writeRedefinedNote marks a definition that replaced a differently named
// one at the same address.
func (w Writer) writeRedefinedNote(name string) error {
	var err error
	switch w.format {
	case Asm:
		_, err = fmt.Fprintf(w.writer, "; %s replaces an earlier definition\n", name)
	case C:
		_, err = fmt.Fprintf(w.writer, "/* %s replaces an earlier definition */\n", name)
	}
	if err != nil {
		return fmt.Errorf("writing note: %w", err)
	}
	return nil
}

// Identifier converts a symbol name to an identifier that assemblers and C
// compilers accept, like GPIOA::MODER to GPIOA_MODER.
func Identifier(name string) string {
	name = strings.ReplaceAll(name, "::", "_")
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

func guardName(name string) string {
	return strings.ToUpper(Identifier(name)) + "_H"
}

// singleLine joins the lines of multi line descriptions.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// addressDigits returns the number of hex digits to print all addresses with
// the same width.
func addressDigits(definitions []apply.Definition) int {
	for _, definition := range definitions {
		if definition.Address > math.MaxUint32 {
			return 16
		}
	}
	return 8
}
