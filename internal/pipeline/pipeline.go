// Package pipeline orchestrates the workflow stages of applying a description.
package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrosvd/internal/apply"
	"github.com/retroenv/retrosvd/internal/detector"
	"github.com/retroenv/retrosvd/internal/firmware"
	"github.com/retroenv/retrosvd/internal/loader"
	"github.com/retroenv/retrosvd/internal/options"
	"github.com/retroenv/retrosvd/internal/svd"
	"github.com/retroenv/retrosvd/internal/target"
	"github.com/retroenv/retrosvd/internal/target/memory"
	"github.com/retroenv/retrosvd/internal/target/sqlite"
	"github.com/retroenv/retrosvd/internal/verification"
	"github.com/retroenv/retrosvd/internal/writer"
)

// Target is an address space that can be seeded and read back.
type Target interface {
	target.AddressSpace
	target.Reader
	target.Seeder
}

// errorReporter is implemented by targets that report read errors separately.
type errorReporter interface {
	Err() error
}

// rollbacker is implemented by targets that can discard an open transaction.
type rollbacker interface {
	Rollback() error
}

// Result contains the outcome of applying one description file.
type Result struct {
	System *svd.System
	Plan   *apply.Plan
}

// Pipeline orchestrates the complete apply workflow.
type Pipeline struct {
	logger   *log.Logger
	detector *detector.Detector
	loader   *loader.Loader
}

// New creates a new apply pipeline.
func New(logger *log.Logger) *Pipeline {
	return &Pipeline{
		logger:   logger,
		detector: detector.New(logger),
		loader:   loader.New(),
	}
}

// OpenTarget opens the project database given in the options, or creates a
// new in-memory address space. The returned function closes the target.
func (p *Pipeline) OpenTarget(opts options.Program) (Target, func() error, error) {
	if opts.Database == "" {
		return memory.New(), func() error { return nil }, nil
	}

	db, err := sqlite.Open(opts.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("opening project database: %w", err)
	}
	p.logger.Debug("Opened project database", log.String("file", opts.Database))
	return db, db.Close, nil
}

// Seed loads the firmware image given in the options and adds its segments
// as read-only code regions to the target.
func (p *Pipeline) Seed(ctx context.Context, opts options.Program, space Target) error {
	if opts.Firmware == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("seeding cancelled: %w", err)
	}

	format, err := p.detector.Detect(opts)
	if err != nil {
		return fmt.Errorf("detecting firmware format: %w", err)
	}

	image, err := firmware.Load(opts.Firmware, format, opts.LoadAddress)
	if err != nil {
		return fmt.Errorf("loading firmware: %w", err)
	}

	if err := image.Seed(space, apply.DefaultOptions().BaseSectionName); err != nil {
		return fmt.Errorf("seeding target: %w", err)
	}

	if !opts.Quiet {
		p.logger.Info("Loaded firmware image",
			log.String("file", opts.Firmware),
			log.String("format", string(format)),
			log.Int("segments", len(image.Segments)),
			log.Int("size", image.Size()),
			log.Hex("entry", image.Entry))
	}
	return nil
}

// Execute loads the description file of the options, applies it to the
// target and optionally verifies the result and writes a listing to output.
func (p *Pipeline) Execute(ctx context.Context, opts options.Program, space Target, output io.Writer) (*Result, error) {
	system, err := p.loader.LoadFile(opts.Input)
	if err != nil {
		return nil, fmt.Errorf("loading description: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("apply cancelled: %w", err)
	}

	applier, err := apply.New(p.logger, applyOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("creating applier: %w", err)
	}

	plan, err := applier.PlanFor(system, space)
	if err != nil {
		return nil, fmt.Errorf("planning: %w", err)
	}
	p.printInfo(opts, system, plan)

	if opts.DryRun {
		p.printPlan(plan)
	} else if err := p.replay(applier, plan, space); err != nil {
		return nil, err
	}

	result := &Result{System: system, Plan: plan}
	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("verification cancelled: %w", err)
	}

	if opts.Verify {
		if err := p.verify(plan, space); err != nil {
			return result, fmt.Errorf("verification failed: %w", err)
		}
		p.logger.Info("Verification successful")
	}

	if output != nil {
		if err := writeListing(opts, system, plan, output); err != nil {
			return result, err
		}
	}
	return result, nil
}

// replay applies the plan, a failed replay discards the open transaction of
// targets that support it.
func (p *Pipeline) replay(applier *apply.Applier, plan *apply.Plan, space Target) error {
	err := applier.Replay(plan, space)
	if err == nil {
		return nil
	}

	if rb, ok := space.(rollbacker); ok {
		if rbErr := rb.Rollback(); rbErr != nil {
			p.logger.Warn("Discarding transaction failed", log.Err(rbErr))
		}
	}
	return fmt.Errorf("applying: %w", err)
}

func (p *Pipeline) verify(plan *apply.Plan, space Target) error {
	if err := verification.Verify(p.logger, plan, space); err != nil {
		return err
	}
	if reporter, ok := space.(errorReporter); ok {
		if err := reporter.Err(); err != nil {
			return fmt.Errorf("reading target: %w", err)
		}
	}
	return nil
}

func writeListing(opts options.Program, system *svd.System, plan *apply.Plan, output io.Writer) error {
	w, err := writer.New(opts.Listing, output)
	if err != nil {
		return fmt.Errorf("creating listing writer: %w", err)
	}

	name := system.Name
	if name == "" {
		name = "device"
	}
	if err := w.Write(name, plan); err != nil {
		return fmt.Errorf("writing listing: %w", err)
	}
	return nil
}

func applyOptions(opts options.Program) apply.Options {
	applyOpts := apply.DefaultOptions()
	applyOpts.VectorTableBase = opts.VectorTableBase
	applyOpts.PointerSize = opts.PointerSize
	applyOpts.RegisterWidth = opts.RegisterWidth
	applyOpts.Strict = opts.Strict
	return applyOpts
}

// printInfo prints information about the description being applied.
func (p *Pipeline) printInfo(opts options.Program, system *svd.System, plan *apply.Plan) {
	if opts.Quiet {
		return
	}

	p.logger.Info("Applying device description",
		log.String("file", opts.Input),
		log.String("device", system.Name),
		log.String("base_region", plan.Base.Name),
		log.Int("peripherals", len(system.Peripherals)),
		log.Int("regions", plan.Regions()),
		log.Int("symbols", plan.Symbols()),
		log.Int("vectors", plan.Vectors()),
	)
	if len(plan.Skipped) > 0 {
		p.logger.Warn("Peripherals without address block were skipped", log.Int("count", len(plan.Skipped)))
	}
	if plan.Overwrites > 0 {
		p.logger.Warn("Definitions at shared addresses were replaced",
			log.Int("count", plan.Overwrites),
			log.Int("addresses", len(plan.Overwritten)))
	}
	for _, definition := range plan.Definitions() {
		if definition.Redefined {
			p.logger.Warn("Definition replaced an earlier one",
				log.String("symbol", definition.Name()),
				log.Hex("address", definition.Address))
		}
	}
}

// printPlan logs all operations of a plan instead of applying it.
func (p *Pipeline) printPlan(plan *apply.Plan) {
	for _, op := range plan.Operations {
		p.logger.Info("Planned operation", log.Stringer("operation", op))
	}
}
