package detector

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrosvd/internal/firmware"
	"github.com/retroenv/retrosvd/internal/options"
)

func TestDetect(t *testing.T) {
	logger := log.NewTestLogger(t)
	d := New(logger)

	tests := []struct {
		name       string
		formatOpt  string
		inputFile  string
		wantFormat firmware.Format
	}{
		{
			name:       "explicit ihex format option",
			formatOpt:  "ihex",
			inputFile:  "firmware.bin",
			wantFormat: firmware.IntelHex,
		},
		{
			name:       "explicit elf format option in uppercase",
			formatOpt:  "ELF",
			inputFile:  "firmware.hex",
			wantFormat: firmware.ELF,
		},
		{
			name:       "detect from .hex extension",
			inputFile:  "firmware.hex",
			wantFormat: firmware.IntelHex,
		},
		{
			name:       "detect from .axf extension",
			inputFile:  "firmware.axf",
			wantFormat: firmware.ELF,
		},
		{
			name:       "unknown extension defaults to binary",
			inputFile:  "firmware.dump",
			wantFormat: firmware.Binary,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := options.Program{
				Parameters: options.Parameters{Firmware: tt.inputFile},
				Flags:      options.Flags{Format: tt.formatOpt},
			}

			got, err := d.Detect(opts)
			assert.NoError(t, err)
			assert.Equal(t, tt.wantFormat, got)
		})
	}
}

func TestDetectInvalidOption(t *testing.T) {
	d := New(log.NewTestLogger(t))

	opts := options.Program{Flags: options.Flags{Format: "srec"}}
	_, err := d.Detect(opts)
	assert.True(t, errors.Is(err, firmware.ErrUnsupportedFormat))
}

func TestDetectFromFile(t *testing.T) {
	logger := log.NewTestLogger(t)
	d := New(logger)

	tests := []struct {
		name       string
		filename   string
		wantFormat firmware.Format
	}{
		{
			name:       ".bin extension",
			filename:   "stm32f4.bin",
			wantFormat: firmware.Binary,
		},
		{
			name:       ".HEX extension (uppercase)",
			filename:   "BLINKY.HEX",
			wantFormat: firmware.IntelHex,
		},
		{
			name:       ".ihx extension",
			filename:   "blinky.ihx",
			wantFormat: firmware.IntelHex,
		},
		{
			name:       ".elf extension",
			filename:   "blinky.elf",
			wantFormat: firmware.ELF,
		},
		{
			name:       "no extension",
			filename:   "firmware",
			wantFormat: firmware.Binary,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.detectFromFile(tt.filename)
			assert.Equal(t, tt.wantFormat, got)
		})
	}
}
