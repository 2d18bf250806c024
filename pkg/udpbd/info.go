package udpbd

import (
	"net"

	"github.com/udpbdgo/udpbd/pkg/wire"
)

// handleInfo implements spec.md §4.5: reply with the device's geometry as
// a single datagram, cmdpkt=1, cmdid echoed from the request.
func (s *Server) handleInfo(hdr wire.Header, addr *net.UDPAddr) {
	s.logger.Info("info request", "addr", addr, "cmdid", hdr.CmdID)

	reply := wire.InfoReply{
		Header:      wire.Header{Cmd: wire.CmdInfoReply, CmdID: hdr.CmdID, CmdPkt: 1},
		SectorSize:  s.blkdev.SectorSize(),
		SectorCount: uint32(s.blkdev.SectorCount()),
	}
	s.send(reply.Pack(), addr)
}
