package blockdevice

import (
	"sync/atomic"

	"github.com/pkg/errors"
)

// DefaultMemorySize is the default capacity of a MemoryDevice, matching
// pyudpbd's MemoryBlockDevice default of 16 MiB.
const DefaultMemorySize = 16 * 1024 * 1024

// MemoryDevice is a fixed-size byte buffer backing a Device, used for
// tests and the server's --test-mode.
type MemoryDevice struct {
	sectorSize uint32
	data       []byte
	position   uint64
	totalRead  atomic.Uint64
	totalWrite atomic.Uint64
}

// NewMemoryDevice allocates a size-byte buffer with the given sector size.
// size must be a multiple of sectorSize.
func NewMemoryDevice(size int, sectorSize uint32) *MemoryDevice {
	if size <= 0 {
		size = DefaultMemorySize
	}
	return &MemoryDevice{
		sectorSize: sectorSize,
		data:       make([]byte, size),
	}
}

func (m *MemoryDevice) SectorSize() uint32 { return m.sectorSize }

func (m *MemoryDevice) SectorCount() uint64 {
	return uint64(len(m.data)) / uint64(m.sectorSize)
}

func (m *MemoryDevice) Available() bool { return true }

func (m *MemoryDevice) Status() (uint64, uint64) {
	return m.totalRead.Load(), m.totalWrite.Load()
}

func (m *MemoryDevice) Seek(sectorOffset uint64) {
	m.position = sectorOffset * uint64(m.sectorSize)
}

func (m *MemoryDevice) Read(size uint32) ([]byte, error) {
	if m.position >= uint64(len(m.data)) {
		m.totalRead.Add(uint64(size))
		return nil, nil
	}
	end := m.position + uint64(size)
	if end > uint64(len(m.data)) {
		end = uint64(len(m.data))
	}
	out := make([]byte, end-m.position)
	copy(out, m.data[m.position:end])
	m.totalRead.Add(uint64(len(out)))
	m.position = m.position + uint64(size)
	return out, nil
}

func (m *MemoryDevice) Write(data []byte) error {
	if m.position >= uint64(len(m.data)) {
		m.totalWrite.Add(uint64(len(data)))
		m.position += uint64(len(data))
		return nil
	}
	end := m.position + uint64(len(data))
	if end > uint64(len(m.data)) {
		end = uint64(len(m.data))
	}
	n := copy(m.data[m.position:end], data)
	if n != len(data) {
		m.totalWrite.Add(uint64(n))
		m.position += uint64(len(data))
		return errors.New("blockdevice: write past end of memory device")
	}
	m.totalWrite.Add(uint64(n))
	m.position += uint64(len(data))
	return nil
}

func (m *MemoryDevice) ReadOnly() bool { return false }

func (m *MemoryDevice) Close() error { return nil }
