// Package blockdevice provides §4.2's uniform seek/read/write/available/
// size abstraction over either a raw OS block device or an in-memory
// buffer, mirroring the shape of the teacher's can.Bus interface (a small
// capability interface over a single concrete transport).
package blockdevice

// Device is the capability interface every BlockDevice implementation
// satisfies. sector_size and sector_count are immutable for the handle's
// lifetime.
type Device interface {
	// SectorSize returns the device's sector size in bytes.
	SectorSize() uint32
	// SectorCount returns the device's capacity in sectors.
	SectorCount() uint64
	// Available is a cheap probe; false means the underlying device has
	// been removed. Implementations that cannot cheaply detect removal
	// may return true optimistically.
	Available() bool
	// Status returns cumulative (bytesRead, bytesWritten) counters.
	Status() (bytesRead, bytesWritten uint64)
	// Seek positions the cursor at sectorOffset*SectorSize() bytes from
	// the device start. No bounds check is performed at this layer.
	Seek(sectorOffset uint64)
	// Read reads exactly size bytes from the cursor and advances it.
	// Short reads are permitted only at end-of-device.
	Read(size uint32) ([]byte, error)
	// Write writes all of data at the cursor and advances it. On a
	// read-only handle, it discards data and logs a warning instead of
	// returning an error, because the protocol has no way to surface a
	// write failure to a client that has already sent the data.
	Write(data []byte) error
	// ReadOnly reports whether Write silently discards.
	ReadOnly() bool
	// Close releases the underlying OS resource. Idempotent.
	Close() error
}
