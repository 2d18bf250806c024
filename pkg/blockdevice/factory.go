package blockdevice

import "log/slog"

// Options configures Open.
type Options struct {
	Path       string
	SectorSize uint32
	ReadOnly   bool
	TestMode   bool // use an in-memory device instead of opening Path
	Logger     *slog.Logger
}

// Open constructs a Device per the server's --path/--sector-size/
// --read-only/--test-mode CLI contract (spec.md §6).
func Open(opts Options) (Device, error) {
	if opts.SectorSize == 0 {
		opts.SectorSize = 512
	}
	if opts.TestMode {
		return NewMemoryDevice(DefaultMemorySize, opts.SectorSize), nil
	}
	return OpenFileDevice(opts.Path, opts.SectorSize, opts.ReadOnly, opts.Logger)
}
