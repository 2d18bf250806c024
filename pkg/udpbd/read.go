package udpbd

import (
	"net"

	"github.com/udpbdgo/udpbd/internal/blockshift"
	"github.com/udpbdgo/udpbd/pkg/wire"
)

// handleRead implements spec.md §4.6: fragment a multi-sector read into a
// sequence of RDMA packets, choosing the block shift that minimizes packet
// count for this transfer.
func (s *Server) handleRead(buf []byte, addr *net.UDPAddr) {
	req, err := wire.UnpackRWRequest(buf)
	if err != nil {
		s.logger.Warn("dropping READ: bad request", "err", err, "addr", addr)
		return
	}
	s.logger.Info("RDMA read",
		"addr", addr, "cmdid", req.Header.CmdID,
		"startSector", req.SectorNr, "sectorCount", req.SectorCount)

	nBytes := uint64(req.SectorCount) * uint64(s.blkdev.SectorSize())
	s.setBlockShift(blockshift.Select(nBytes))
	s.blkdev.Seek(uint64(req.SectorNr))

	blocksLeft := uint32(req.SectorCount) * s.blocksPerSect
	cmdpkt := uint8(1)
	for blocksLeft > 0 {
		n := s.blocksPerPkt
		if blocksLeft < n {
			n = blocksLeft
		}
		blocksLeft -= n

		data, err := s.blkdev.Read(n * s.blockSize)
		if err != nil {
			s.logger.Error("read failed, aborting transfer", "err", err)
			return
		}

		reply := wire.RDMAPayload{
			Header: wire.Header{Cmd: wire.CmdReadRDMA, CmdID: req.Header.CmdID, CmdPkt: cmdpkt},
			Block:  wire.BlockType{BlockShift: s.blockShift, BlockCount: uint16(n)},
			Data:   data,
		}
		s.send(reply.Pack(), addr)

		// cmdpkt is 8 bits; a read spanning more than 256 packets wraps.
		// The reference client accommodates this because it tracks
		// completion by accumulated byte count, not by cmdpkt value.
		cmdpkt++
	}
}
