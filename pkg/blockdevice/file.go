package blockdevice

import (
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/udpbdgo/udpbd/pkg/humanbytes"
)

// FileDevice wraps an OS file descriptor opened on a raw block device or
// mount point. On open, it determines total size via a platform ioctl
// (blockDeviceSize, implemented per-platform); if opening read-write fails
// with a permission error, it transparently retries read-only.
type FileDevice struct {
	logger     *slog.Logger
	file       *os.File
	path       string
	sectorSize uint32
	sectorCnt  uint64
	readOnly   bool
	totalRead  atomic.Uint64
	totalWrite atomic.Uint64
}

// OpenFileDevice opens path as a block device. If ro is false and the
// read-write open fails with a permission/access error, it is retried
// read-only and FileDevice.ReadOnly() reports true afterwards.
func OpenFileDevice(path string, sectorSize uint32, ro bool, logger *slog.Logger) (*FileDevice, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "blockdevice", "path", path)

	openPath, resolvedSize, resolved, err := resolveBlockDevicePath(path)
	if err != nil {
		return nil, errors.Wrapf(err, "blockdevice: resolve %s", path)
	}
	if resolved {
		logger.Info("resolved mount point to backing device", "device", openPath, "size", humanbytes.Format(resolvedSize, false))
	}

	flag := os.O_RDONLY
	if !ro {
		flag = os.O_RDWR
	}
	f, err := os.OpenFile(openPath, flag, 0)
	if !ro && err != nil && os.IsPermission(err) {
		logger.Warn("failed to open block device read-write, retrying read-only", "err", err)
		ro = true
		f, err = os.OpenFile(openPath, os.O_RDONLY, 0)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "blockdevice: open %s", openPath)
	}

	size := resolvedSize
	if !resolved {
		size, err = blockDeviceSize(f)
		if err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "blockdevice: size %s", openPath)
		}
	}

	d := &FileDevice{
		logger:     logger,
		file:       f,
		path:       path,
		sectorSize: sectorSize,
		sectorCnt:  size / uint64(sectorSize),
		readOnly:   ro,
	}
	logger.Info("opened block device",
		"size", humanbytes.Format(size, false), "sectorSize", sectorSize, "sectorCount", d.sectorCnt, "readOnly", ro)
	return d, nil
}

func (d *FileDevice) SectorSize() uint32   { return d.sectorSize }
func (d *FileDevice) SectorCount() uint64  { return d.sectorCnt }
func (d *FileDevice) ReadOnly() bool       { return d.readOnly }
func (d *FileDevice) Status() (uint64, uint64) {
	return d.totalRead.Load(), d.totalWrite.Load()
}

func (d *FileDevice) Seek(sectorOffset uint64) {
	_, err := d.file.Seek(int64(sectorOffset*uint64(d.sectorSize)), 0)
	if err != nil {
		d.logger.Error("seek failed", "sectorOffset", sectorOffset, "err", err)
	}
}

func (d *FileDevice) Read(size uint32) ([]byte, error) {
	buf := make([]byte, size)
	n, err := d.file.Read(buf)
	d.totalRead.Add(uint64(n))
	if err != nil {
		return buf[:n], errors.Wrap(err, "blockdevice: read")
	}
	return buf[:n], nil
}

// Write writes data to the device. On a read-only handle it discards data
// and logs a warning instead of returning an error: the protocol has no
// error frame to surface a failed write to a client that already sent it.
func (d *FileDevice) Write(data []byte) error {
	if d.readOnly {
		d.logger.Warn("discarding write to read-only device", "size", len(data))
		return nil
	}
	n, err := d.file.Write(data)
	d.totalWrite.Add(uint64(n))
	if err != nil {
		return errors.Wrap(err, "blockdevice: write")
	}
	return nil
}

func (d *FileDevice) Close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}
