// Package detector handles firmware image format detection.
package detector

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrosvd/internal/firmware"
	"github.com/retroenv/retrosvd/internal/options"
)

// Detector handles firmware format detection from file extensions and options.
type Detector struct {
	logger *log.Logger
}

// New creates a new format detector.
func New(logger *log.Logger) *Detector {
	return &Detector{
		logger: logger,
	}
}

// Detect determines the firmware format from options or file auto-detection.
// It first checks if a format is explicitly specified in options, otherwise
// attempts to detect the format from the firmware filename extension.
func (d *Detector) Detect(opts options.Program) (firmware.Format, error) {
	if opts.Format != "" {
		format, err := firmware.FormatFromString(strings.ToLower(opts.Format))
		if err != nil {
			return "", fmt.Errorf("parsing format option: %w", err)
		}
		return format, nil
	}

	format := d.detectFromFile(opts.Firmware)
	d.logger.Debug("Auto-detected firmware format",
		log.String("format", string(format)),
		log.String("file", opts.Firmware))
	return format, nil
}

// detectFromFile determines the firmware format based on file extension.
func (d *Detector) detectFromFile(filename string) firmware.Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".hex", ".ihex", ".ihx":
		return firmware.IntelHex
	case ".elf", ".axf", ".out":
		return firmware.ELF
	default:
		// .bin and unknown extensions are loaded as raw memory dump
		return firmware.Binary
	}
}
