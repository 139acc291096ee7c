// Package cli handles command line interface logic
package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/retroenv/retrosvd/internal/loader"
	"github.com/retroenv/retrosvd/internal/options"
	"github.com/retroenv/retrosvd/internal/writer"
)

// ParseFlags parses command line flags and returns the program options
func ParseFlags() (options.Program, error) {
	flags := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flags.Usage = func() {} // printed by UsageError.ShowUsage
	var opts options.Program
	readOptionFlags(flags, &opts)

	err := flags.Parse(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return opts, &UsageError{flags: flags}
	}
	args := flags.Args()
	if err != nil || (len(args) == 0 && opts.Batch == "") {
		return opts, &UsageError{flags: flags, msg: errorMessage(err)}
	}

	if err := validateArgs(args); err != nil {
		return opts, err
	}

	if err := normalizeOptions(&opts); err != nil {
		return opts, err
	}

	if err := validateOptionCombinations(opts); err != nil {
		return opts, err
	}

	if opts.Batch == "" {
		opts.Input = args[0]
	}
	return opts, nil
}

// UsageError represents an error that should show usage information
type UsageError struct {
	flags *flag.FlagSet
	msg   string
}

func (e *UsageError) Error() string {
	return e.msg
}

func (e *UsageError) ShowUsage() {
	fmt.Printf("usage: retrosvd [options] <file.svd>\n\n")
	fmt.Printf("One of -db or -fw is required, the description is applied to the ROM region of the target.\n\n")
	if e.flags != nil {
		e.flags.PrintDefaults()
	}
	fmt.Println()
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// validateArgs checks if arguments are in correct order
func validateArgs(args []string) error {
	for i, arg := range args {
		if i > 0 && arg != "" && arg[0] == '-' {
			return &UsageError{
				msg: fmt.Sprintf("Potential argument %s found after SVD file, please pass the SVD file as last argument", arg),
			}
		}
	}
	if len(args) > 1 {
		return &UsageError{msg: fmt.Sprintf("only one SVD file can be applied, got %d", len(args))}
	}
	return nil
}

// normalizeOptions normalizes and validates option values
func normalizeOptions(opts *options.Program) error {
	opts.Format = strings.ToLower(opts.Format)
	opts.Listing = strings.ToLower(opts.Listing)

	// Validate listing type
	for _, valid := range writer.Formats {
		if opts.Listing == valid {
			return nil
		}
	}

	return fmt.Errorf("unsupported listing format: %s. Valid options: %s",
		opts.Listing, strings.Join(writer.Formats, ", "))
}

// validateOptionCombinations checks for options that can not be used together
func validateOptionCombinations(opts options.Program) error {
	if opts.Verify && opts.DryRun {
		return errors.New("the -verify and -dry-run options can not be combined, a dry run does not change the target")
	}
	if opts.Database != "" || opts.Firmware != "" {
		return nil
	}
	if opts.Batch != "" {
		return errors.New("batch mode needs a -db project database or a -fw firmware image as shared target")
	}
	return errors.New("a -db project database or a -fw firmware image is needed, the description is applied to its ROM region")
}

func readOptionFlags(flags *flag.FlagSet, opts *options.Program) {
	flags.StringVar(&opts.Input, "i", "", "name of the input SVD file")
	flags.StringVar(&opts.Database, "db", "", "SQLite project database to apply to, without it the -fw image is loaded into an in-memory target")
	flags.StringVar(&opts.Firmware, "fw", "", "firmware image that seeds the ROM region of the target")
	flags.StringVar(&opts.Output, "o", "", "name of the listing file of the applied symbols")
	flags.StringVar(&opts.Batch, "batch", "", "apply a batch of SVD files matching the given path and file mask in order, for example *.svd")
	flags.StringVar(&opts.Format, "format", "", "firmware format (binary, ihex, elf) - if not auto-detected from file extension")
	flags.StringVar(&opts.Listing, "listing", writer.Asm, "format of the listing file (asm/c)")
	flags.BoolVar(&opts.Strict, "strict", false, "fail if two different definitions share an address")
	flags.BoolVar(&opts.DryRun, "dry-run", false, "print the planned operations without changing the target")
	flags.BoolVar(&opts.Verify, "verify", false, "verify the target after applying by reading back all definitions")
	flags.BoolVar(&opts.Debug, "debug", false, "enable debugging options for extended logging")
	flags.BoolVar(&opts.Quiet, "q", false, "perform operations quietly")

	opts.VectorTableBase = 0x40
	opts.PointerSize = 4
	opts.RegisterWidth = 4
	flags.Var(number[uint64]{&opts.LoadAddress}, "load", "load address of a raw binary firmware image")
	flags.Var(number[uint64]{&opts.VectorTableBase}, "vectors", "address of the interrupt vector table")
	flags.Var(number[uint32]{&opts.PointerSize}, "ptr", "size of a vector table entry in bytes")
	flags.Var(number[uint32]{&opts.RegisterWidth}, "width", "width in bytes of registers that do not declare a size")
}

// number is a flag value that accepts the SVD number syntax like 0x40, #1000 or 4k.
type number[T uint32 | uint64] struct {
	value *T
}

func (n number[T]) String() string {
	if n.value == nil {
		return "0"
	}
	return fmt.Sprintf("0x%x", uint64(*n.value))
}

func (n number[T]) Set(s string) error {
	value, err := loader.ParseNumber(s)
	if err != nil {
		return fmt.Errorf("parsing number: %w", err)
	}
	if uint64(T(value)) != value {
		return fmt.Errorf("number %s is out of range", s)
	}
	*n.value = T(value)
	return nil
}
