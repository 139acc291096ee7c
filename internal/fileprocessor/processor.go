// Package fileprocessor handles file loading and processing operations
package fileprocessor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrosvd/internal/options"
	"github.com/retroenv/retrosvd/internal/pipeline"
	"github.com/retroenv/retrosvd/internal/writer"
)

// ErrNoFiles is returned when a batch pattern does not match any file.
var ErrNoFiles = errors.New("no files to process")

// Run opens the target, seeds it with the firmware image and applies all
// description files of the options to it in order.
func Run(ctx context.Context, logger *log.Logger, opts options.Program) error {
	files, err := GetFilesToProcess(&opts)
	if err != nil {
		return err
	}

	p := pipeline.New(logger)
	space, closeTarget, err := p.OpenTarget(opts)
	if err != nil {
		return fmt.Errorf("opening target: %w", err)
	}
	defer func() {
		if err := closeTarget(); err != nil {
			logger.Error("Closing target failed", log.Err(err))
		}
	}()

	if err := p.Seed(ctx, opts, space); err != nil {
		return fmt.Errorf("seeding target: %w", err)
	}

	for _, file := range files {
		fileOpts := opts
		fileOpts.Input = file
		if len(files) > 1 && opts.Output != "" {
			fileOpts.Output = GenerateOutputFilename(file, opts.Listing)
		}

		if err := ProcessFile(ctx, p, fileOpts, space); err != nil {
			return fmt.Errorf("processing '%s': %w", file, err)
		}
	}
	return nil
}

// ProcessFile applies a single description file to the target and writes
// the listing file if requested.
func ProcessFile(ctx context.Context, p *pipeline.Pipeline, opts options.Program, space pipeline.Target) error {
	output, err := createWriter(opts)
	if err != nil {
		return fmt.Errorf("creating writer: %w", err)
	}

	if output == nil {
		_, err = p.Execute(ctx, opts, space, nil)
		return err
	}

	_, err = p.Execute(ctx, opts, space, output)
	if closeErr := output.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("closing output file: %w", closeErr)
	}
	return err
}

// GetFilesToProcess returns list of files to process based on options
func GetFilesToProcess(opts *options.Program) ([]string, error) {
	if opts.Batch == "" {
		return []string{opts.Input}, nil
	}

	matches, err := filepath.Glob(opts.Batch)
	if err != nil {
		return nil, fmt.Errorf("globbing batch pattern: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: pattern '%s' did not match", ErrNoFiles, opts.Batch)
	}
	sort.Strings(matches)
	return matches, nil
}

// GenerateOutputFilename generates the listing filename for a given description file
func GenerateOutputFilename(inputFile, listing string) string {
	ext := filepath.Ext(inputFile)
	base := inputFile[:len(inputFile)-len(ext)]
	if listing == writer.C {
		return base + ".h"
	}
	return base + ".inc"
}

func createWriter(opts options.Program) (io.WriteCloser, error) {
	if opts.Output == "" {
		return nil, nil
	}
	if opts.Output == "-" {
		return nopCloser{os.Stdout}, nil
	}

	file, err := os.Create(opts.Output)
	if err != nil {
		return nil, fmt.Errorf("creating output file %s: %w", opts.Output, err)
	}
	return file, nil
}

// PrintBanner prints application version information
func PrintBanner(logger *log.Logger, opts options.Program, version, commit, date string) {
	if opts.Quiet {
		return
	}

	logger.Info("retrosvd - SVD device description applier",
		log.String("version", buildinfo.Version(version, commit, date)))
}

// nopCloser wraps an io.Writer to add a no-op Close method
type nopCloser struct {
	io.Writer
}

func (nc nopCloser) Close() error {
	return nil
}
