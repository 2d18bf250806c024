package wire

import "errors"

// Decode errors, grouped the way errors.go groups sentinel values in the
// teacher: one var block per subsystem.
var (
	ErrUnknownCommand       = errors.New("wire: unknown command")
	ErrShortBuffer          = errors.New("wire: buffer too short")
	ErrUnsupportedBlockSize = errors.New("wire: unsupported block size")
)
