// Package options contains the program options.
package options

// Parameters contains file path options.
type Parameters struct {
	Input    string `flag:"i" usage:"input SVD file"`
	Database string `flag:"db" usage:"SQLite project database (default: in-memory)"`
	Firmware string `flag:"fw" usage:"firmware image that seeds the ROM region"`
	Output   string `flag:"o" usage:"output listing file of the applied symbols"`
	Batch    string `flag:"batch" usage:"batch apply SVD files matching pattern (e.g. *.svd)"`
}

// Flags contains behavior options.
type Flags struct {
	Format  string `flag:"format" usage:"firmware format: binary, ihex, elf (default: auto-detect)"`
	Listing string `flag:"listing" usage:"listing format: asm, c" default:"asm"`
	Strict  bool   `flag:"strict" usage:"fail on address collisions"`
	DryRun  bool   `flag:"dry-run" usage:"print the plan without changing the target"`
	Verify  bool   `flag:"verify" usage:"verify the target after applying"`
	Debug   bool   `flag:"debug" usage:"enable debug logging"`
	Quiet   bool   `flag:"q" usage:"quiet mode"`
}

// Layout contains the numeric layout options, given in SVD number syntax.
type Layout struct {
	LoadAddress     uint64 `flag:"load" usage:"load address of raw binary firmware"`
	VectorTableBase uint64 `flag:"vectors" usage:"address of the interrupt vector table" default:"0x40"`
	PointerSize     uint32 `flag:"ptr" usage:"pointer size in bytes" default:"4"`
	RegisterWidth   uint32 `flag:"width" usage:"default register width in bytes" default:"4"`
}

// Program options of the applier.
type Program struct {
	Parameters
	Flags
	Layout
}
