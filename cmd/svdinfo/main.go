// Package main implements a tool that prints the peripherals of an SVD device description
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrosvd/internal/loader"
	"github.com/retroenv/retrosvd/internal/svd"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

type optionFlags struct {
	input      string
	peripheral string

	quiet bool
}

func main() {
	options := readArguments()

	if !options.quiet {
		printBanner()
	}

	if err := printFile(os.Stdout, options); err != nil {
		fmt.Println(fmt.Errorf("printing description failed: %w", err))
		os.Exit(1)
	}
}

func readArguments() optionFlags {
	flags := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	options := optionFlags{}

	flags.StringVar(&options.peripheral, "p", "", "only print the peripheral with the given name")
	flags.BoolVar(&options.quiet, "q", false, "perform operations quietly")

	err := flags.Parse(os.Args[1:])
	args := flags.Args()

	if err != nil || len(args) == 0 {
		printBanner()
		fmt.Printf("usage: svdinfo [options] <file.svd>\n\n")
		flags.PrintDefaults()
		os.Exit(1)
	}
	options.input = args[0]

	return options
}

func printBanner() {
	fmt.Println("[-------------------------------------]")
	fmt.Println("[ svdinfo - SVD device description    ]")
	fmt.Printf("[-------------------------------------]\n\n")
	fmt.Printf("version: %s\n\n", buildinfo.Version(version, commit, date))
}

func printFile(w io.Writer, options optionFlags) error {
	system, err := loader.New().LoadFile(options.input)
	if err != nil {
		return fmt.Errorf("loading file: %w", err)
	}

	found := false
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "device: %s\t%s\n\n", system.Name, system.Description); err != nil {
		return fmt.Errorf("writing device: %w", err)
	}

	for _, peripheral := range system.Peripherals {
		if options.peripheral != "" && !strings.EqualFold(options.peripheral, peripheral.Name) {
			continue
		}
		found = true

		if err := printPeripheral(tw, peripheral); err != nil {
			return fmt.Errorf("writing peripheral '%s': %w", peripheral.Name, err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing output: %w", err)
	}

	if !found && options.peripheral != "" {
		return fmt.Errorf("peripheral '%s' not found", options.peripheral)
	}
	return nil
}

func printPeripheral(w io.Writer, peripheral svd.Peripheral) error {
	if _, err := fmt.Fprintf(w, "%s\t0x%08x\t0x%x bytes\t%s\n",
		peripheral.Name, peripheral.BaseAddress, peripheral.Size, peripheral.Description); err != nil {
		return err
	}

	for _, register := range peripheral.Registers {
		width := "-"
		if register.Width != 0 {
			width = fmt.Sprintf("%d bit", register.Width)
		}
		if _, err := fmt.Fprintf(w, "  %s\t0x%08x\t%s\t%s\n",
			register.Name, peripheral.RegisterAddress(register), width, register.Description); err != nil {
			return err
		}
	}

	for _, interrupt := range peripheral.Interrupts {
		if _, err := fmt.Fprintf(w, "  irq %s\t%d\t\t%s\n",
			interrupt.Name, interrupt.Index, interrupt.Description); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintln(w)
	return err
}
