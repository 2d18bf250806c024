// Package udpbd implements the §4.4-§4.8 request dispatcher and RDMA
// transfer engine: a single-threaded UDP server that sequences INFO/READ/
// WRITE transactions against a blockdevice.Device.
package udpbd

import (
	"log/slog"
	"net"
	"time"

	"github.com/pkg/errors"

	"github.com/udpbdgo/udpbd/internal/blockshift"
	"github.com/udpbdgo/udpbd/pkg/blockdevice"
	"github.com/udpbdgo/udpbd/pkg/wire"
)

// DefaultPort is 0xBDBD, the UDPBD protocol's default port.
const DefaultPort = 0xBDBD

// initialBlockShift matches spec.md §4.8: the server starts at shift 5
// (block size 128) before any transfer has picked a size.
const initialBlockShift = 5

// recvBufferSize is comfortably larger than any legal UDPBD datagram
// (MaxFrameSize=1472) to avoid silent truncation by ReadFromUDP.
const recvBufferSize = 2048

// Server is the single logical connection described in spec.md §3: it
// owns the UDP socket, the block device, and all RDMA transaction state.
// It is not safe for concurrent use from multiple goroutines — the
// protocol's single shared cursor and WRITE slot make that meaningless
// (spec.md §5).
type Server struct {
	logger *slog.Logger
	blkdev blockdevice.Device
	conn   *net.UDPConn
	port   int

	blockShift    uint8
	blockSize     uint32
	blocksPerPkt  uint32
	blocksPerSect uint32
	writeSizeLeft int64 // signed: a misbehaving client can overshoot
}

// New constructs a Server around blkdev, bound to 0.0.0.0:port with
// SO_BROADCAST enabled. port defaults to DefaultPort when zero.
func New(blkdev blockdevice.Device, port int, logger *slog.Logger) (*Server, error) {
	if port == 0 {
		port = DefaultPort
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "udpbd", "port", port)

	conn, err := listenBroadcastUDP(port)
	if err != nil {
		return nil, errors.Wrap(err, "udpbd: listen")
	}

	s := &Server{
		logger: logger,
		blkdev: blkdev,
		conn:   conn,
		port:   port,
	}
	s.setBlockShift(initialBlockShift)
	return s, nil
}

func (s *Server) setBlockShift(shift uint8) {
	if shift == s.blockShift && s.blockSize != 0 {
		return
	}
	prev := s.blockSize
	s.blockShift = shift
	s.blockSize = blockshift.BlockSize(shift)
	s.blocksPerPkt = blockshift.BlocksPerPacket(s.blockSize)
	s.blocksPerSect = s.blkdev.SectorSize() / s.blockSize
	s.logger.Debug("block size changed", "from", prev, "to", s.blockSize)
}

// Serve runs the recv->decode->dispatch->reply loop until the block device
// reports unavailable or the socket returns an unrecoverable error. It
// periodically re-checks device availability, bounded by timeout.
func (s *Server) Serve(timeout time.Duration) error {
	s.logger.Info("server is started")
	defer s.logger.Info("server is stopped")

	buf := make([]byte, recvBufferSize)
	for {
		if !s.blkdev.Available() {
			s.logger.Error("block device is not available")
			return nil
		}

		if timeout > 0 {
			if err := s.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
				return errors.Wrap(err, "udpbd: set read deadline")
			}
		}

		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			s.logger.Error("socket error, stopping", "err", err)
			return errors.Wrap(err, "udpbd: recv")
		}

		s.handleDatagram(buf[:n], addr)
	}
}

// Close releases the UDP socket and the block device. Idempotent.
func (s *Server) Close() error {
	var err error
	if s.conn != nil {
		err = s.conn.Close()
		s.conn = nil
	}
	if closeErr := s.blkdev.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

func (s *Server) handleDatagram(buf []byte, addr *net.UDPAddr) {
	hdr, err := wire.UnpackHeader(buf)
	if err != nil {
		s.logger.Warn("dropping datagram: bad header", "err", err, "addr", addr)
		return
	}
	s.logger.Debug("received datagram", "cmd", hdr.Cmd, "addr", addr)

	switch hdr.Cmd {
	case wire.CmdInfo:
		s.handleInfo(hdr, addr)
	case wire.CmdRead:
		s.handleRead(buf, addr)
	case wire.CmdWrite:
		s.handleWrite(buf, addr)
	case wire.CmdWriteRDMA:
		s.handleWriteRDMA(buf, addr)
	default:
		s.logger.Warn("dropping datagram: unexpected command", "cmd", hdr.Cmd, "addr", addr)
	}
}

func (s *Server) send(buf []byte, addr *net.UDPAddr) {
	if _, err := s.conn.WriteToUDP(buf, addr); err != nil {
		s.logger.Error("send failed", "addr", addr, "err", err)
	}
}
