package udpbd

import (
	"net"

	"github.com/udpbdgo/udpbd/pkg/wire"
)

// handleWrite implements spec.md §4.7 phase 1: seek to the target sector
// and arm write_size_left. No reply is emitted.
func (s *Server) handleWrite(buf []byte, addr *net.UDPAddr) {
	req, err := wire.UnpackRWRequest(buf)
	if err != nil {
		s.logger.Warn("dropping WRITE: bad request", "err", err, "addr", addr)
		return
	}
	s.blkdev.Seek(uint64(req.SectorNr))
	s.writeSizeLeft = int64(req.SectorCount) * int64(s.blkdev.SectorSize())
	s.logger.Debug("write armed", "addr", addr, "startSector", req.SectorNr, "writeSizeLeft", s.writeSizeLeft)
}

// handleWriteRDMA implements spec.md §4.7 phase 2: write each payload to
// the device and decrement write_size_left by the size declared in the
// packet's BlockType, not len(data) — this is the protocol's definition,
// even though the two should agree. Emits WRITE_DONE exactly once, when
// write_size_left reaches zero.
func (s *Server) handleWriteRDMA(buf []byte, addr *net.UDPAddr) {
	req, err := wire.UnpackRDMAPayload(buf)
	if err != nil {
		s.logger.Warn("dropping WRITE_RDMA: bad payload", "err", err, "addr", addr)
		return
	}

	if s.writeSizeLeft <= 0 {
		// Stray WRITE_RDMA with no preceding WRITE (spec.md §9 open
		// question): conservative choice is drop and log.
		s.logger.Warn("dropping WRITE_RDMA: no write in progress", "addr", addr)
		return
	}

	if err := s.blkdev.Write(req.Data); err != nil {
		s.logger.Error("write failed", "addr", addr, "err", err)
	}

	declared := int64(req.Block.BlockCount) * int64(req.Block.BlockSize())
	s.writeSizeLeft -= declared

	s.logger.Info("RDMA write",
		"addr", addr, "cmdid", req.Header.CmdID,
		"dataSize", len(req.Data), "writeSizeLeft", s.writeSizeLeft, "done", s.writeSizeLeft <= 0)

	if s.writeSizeLeft <= 0 {
		reply := wire.WriteReply{
			Header: wire.Header{Cmd: wire.CmdWriteDone, CmdID: req.Header.CmdID, CmdPkt: req.Header.CmdID + 1},
			Result: 0,
		}
		s.send(reply.Pack(), addr)
	}
}
