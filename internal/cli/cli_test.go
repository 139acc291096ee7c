package cli

import (
	"errors"
	"os"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrosvd/internal/options"
	"github.com/retroenv/retrosvd/internal/writer"
)

func parseArgs(t *testing.T, args ...string) (options.Program, error) {
	t.Helper()
	oldArgs := os.Args
	t.Cleanup(func() { os.Args = oldArgs })

	os.Args = append([]string{"retrosvd"}, args...)
	return ParseFlags()
}

func TestParseFlagsDefaults(t *testing.T) {
	opts, err := parseArgs(t, "-fw", "firmware.bin", "stm32f407.svd")
	assert.NoError(t, err)

	assert.Equal(t, "stm32f407.svd", opts.Input)
	assert.Equal(t, "firmware.bin", opts.Firmware)
	assert.Equal(t, writer.Asm, opts.Listing)
	assert.Equal(t, uint64(0x40), opts.VectorTableBase)
	assert.Equal(t, uint32(4), opts.PointerSize)
	assert.Equal(t, uint32(4), opts.RegisterWidth)
	assert.Equal(t, uint64(0), opts.LoadAddress)
	assert.False(t, opts.Strict)
}

func TestParseFlagsNumbers(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want options.Layout
	}{
		{
			name: "hex values",
			args: []string{"-fw", "firmware.bin", "-load", "0x08000000", "-vectors", "0x0", "test.svd"},
			want: options.Layout{LoadAddress: 0x08000000, PointerSize: 4, RegisterWidth: 4},
		},
		{
			name: "scaled and binary values",
			args: []string{"-db", "project.sqlite3", "-load", "128k", "-ptr", "#1000", "-width", "2", "test.svd"},
			want: options.Layout{LoadAddress: 0x20000, VectorTableBase: 0x40, PointerSize: 8, RegisterWidth: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseArgs(t, tt.args...)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, opts.Layout)
		})
	}
}

func TestParseFlagsErrors(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantUsage bool
		contains  string
	}{
		{
			name:      "missing input",
			args:      []string{"-strict"},
			wantUsage: true,
		},
		{
			name:      "invalid number",
			args:      []string{"-vectors", "zz", "test.svd"},
			wantUsage: true,
			contains:  "parsing number",
		},
		{
			name:      "pointer size out of range",
			args:      []string{"-ptr", "0x100000000", "test.svd"},
			wantUsage: true,
			contains:  "out of range",
		},
		{
			name:      "argument after input",
			args:      []string{"test.svd", "-strict"},
			wantUsage: true,
			contains:  "found after SVD file",
		},
		{
			name:     "unsupported listing",
			args:     []string{"-fw", "firmware.bin", "-listing", "rust", "test.svd"},
			contains: "unsupported listing format",
		},
		{
			name:     "verify and dry run",
			args:     []string{"-verify", "-dry-run", "test.svd"},
			contains: "can not be combined",
		},
		{
			name:     "batch without shared target",
			args:     []string{"-batch", "*.svd"},
			contains: "batch mode",
		},
		{
			name:     "no target",
			args:     []string{"-verify", "test.svd"},
			contains: "-db project database or a -fw firmware image is needed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseArgs(t, tt.args...)
			assert.Error(t, err)

			var usageErr *UsageError
			assert.Equal(t, tt.wantUsage, errors.As(err, &usageErr))
			if tt.contains != "" {
				assert.ErrorContains(t, err, tt.contains)
			}
		})
	}
}

func TestParseFlagsBatch(t *testing.T) {
	opts, err := parseArgs(t, "-db", "project.sqlite3", "-batch", "svd/*.svd", "-listing", "C")
	assert.NoError(t, err)

	assert.Equal(t, "", opts.Input)
	assert.Equal(t, "svd/*.svd", opts.Batch)
	assert.Equal(t, "c", opts.Listing)
}
