package udpbd

import (
	"context"
	"time"
)

// Status returns the block device's cumulative (bytesRead, bytesWritten)
// counters. Reads without synchronization beyond the atomics the device
// implementations already use internally — per spec.md §5, tearing on
// these scalar counters is acceptable for human-readable/observability
// output.
func (s *Server) Status() (bytesRead, bytesWritten uint64) {
	return s.blkdev.Status()
}

// ReportStatusPeriodically logs (and, via onTick, exposes) the device's
// status counters every interval until ctx is cancelled. Grounded on
// server.py's print_block_device_status_forever background thread.
func (s *Server) ReportStatusPeriodically(ctx context.Context, interval time.Duration, onTick func(read, written uint64)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			read, written := s.Status()
			s.logger.Info("status", "bytesRead", read, "bytesWritten", written)
			if onTick != nil {
				onTick(read, written)
			}
		}
	}
}
