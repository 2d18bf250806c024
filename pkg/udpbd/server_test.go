package udpbd

import (
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udpbdgo/udpbd/pkg/blockdevice"
	"github.com/udpbdgo/udpbd/pkg/wire"
)

// nextTestPort starts a new, hopefully-free port per test to avoid TIME_WAIT
// collisions between sequential test runs that reuse a fixed number.
var nextTestPort = 49200

func newTestServer(t *testing.T, blkdev blockdevice.Device) (*Server, *net.UDPConn) {
	t.Helper()

	port := nextTestPort
	nextTestPort++

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := New(blkdev, port, logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	go s.Serve(50 * time.Millisecond)

	client, err := net.DialUDP("udp4", nil, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return s, client
}

func recvFrom(t *testing.T, conn *net.UDPConn) []byte {
	t.Helper()
	buf := make([]byte, recvBufferSize)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	n, err := conn.Read(buf)
	require.NoError(t, err, "expected a reply datagram")
	return buf[:n]
}

func TestHandleInfo(t *testing.T) {
	blkdev := blockdevice.NewMemoryDevice(4096, 512)
	_, client := newTestServer(t, blkdev)

	req := wire.RWRequest{Header: wire.Header{Cmd: wire.CmdInfo, CmdID: 3}}
	_, err := client.Write(req.Pack())
	require.NoError(t, err)

	reply, err := wire.UnpackInfoReply(recvFrom(t, client))
	require.NoError(t, err)

	assert.Equal(t, wire.CmdInfoReply, reply.Header.Cmd)
	assert.EqualValues(t, 3, reply.Header.CmdID)
	assert.EqualValues(t, 1, reply.Header.CmdPkt)
	assert.EqualValues(t, 512, reply.SectorSize)
	assert.EqualValues(t, 8, reply.SectorCount)
}

func TestHandleReadSingleSector(t *testing.T) {
	const sectorSize = 512
	blkdev := blockdevice.NewMemoryDevice(sectorSize*4, sectorSize)
	_, client := newTestServer(t, blkdev)

	req := wire.RWRequest{
		Header:      wire.Header{Cmd: wire.CmdRead, CmdID: 1},
		SectorNr:    0,
		SectorCount: 1,
	}
	_, err := client.Write(req.Pack())
	require.NoError(t, err)

	payload, err := wire.UnpackRDMAPayload(recvFrom(t, client))
	require.NoError(t, err)

	// spec.md §8 scenario 4: a single 512-byte sector picks shift 7.
	assert.Equal(t, wire.CmdReadRDMA, payload.Header.Cmd)
	assert.EqualValues(t, 1, payload.Header.CmdID)
	assert.EqualValues(t, 7, payload.Block.BlockShift)
	assert.EqualValues(t, sectorSize, len(payload.Data))
}

func TestHandleWriteRoundTrip(t *testing.T) {
	const sectorSize = 512
	blkdev := blockdevice.NewMemoryDevice(sectorSize*4, sectorSize)
	_, client := newTestServer(t, blkdev)

	writeReq := wire.RWRequest{
		Header:      wire.Header{Cmd: wire.CmdWrite, CmdID: 5},
		SectorNr:    0,
		SectorCount: 2,
	}
	_, err := client.Write(writeReq.Pack())
	require.NoError(t, err)

	payload := make([]byte, sectorSize)
	for i := range payload {
		payload[i] = 0xAB
	}

	for i := 0; i < 2; i++ {
		frame := wire.RDMAPayload{
			Header: wire.Header{Cmd: wire.CmdWriteRDMA, CmdID: 5, CmdPkt: uint8(i + 1)},
			Block:  wire.BlockType{BlockShift: 7, BlockCount: 1},
			Data:   payload,
		}
		_, err := client.Write(frame.Pack())
		require.NoError(t, err)
	}

	reply, err := wire.UnpackWriteReply(recvFrom(t, client))
	require.NoError(t, err)
	assert.Equal(t, wire.CmdWriteDone, reply.Header.Cmd)
	assert.EqualValues(t, 0, reply.Result)

	read, written := blkdev.Status()
	assert.EqualValues(t, 0, read)
	assert.EqualValues(t, sectorSize*2, written)
}

func TestHandleWriteRDMAWithoutWriteIsDropped(t *testing.T) {
	blkdev := blockdevice.NewMemoryDevice(4096, 512)
	_, client := newTestServer(t, blkdev)

	frame := wire.RDMAPayload{
		Header: wire.Header{Cmd: wire.CmdWriteRDMA, CmdID: 1, CmdPkt: 1},
		Block:  wire.BlockType{BlockShift: 7, BlockCount: 1},
		Data:   make([]byte, 512),
	}
	_, err := client.Write(frame.Pack())
	require.NoError(t, err)

	require.NoError(t, client.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	buf := make([]byte, recvBufferSize)
	_, err = client.Read(buf)
	assert.Error(t, err, "no reply expected for a WRITE_RDMA with no preceding WRITE")
}

func TestServeKeepsRunningAcrossReadTimeouts(t *testing.T) {
	// Serve's deadline-bounded ReadFromUDP should loop on timeout rather
	// than treating it as fatal, as long as Available() keeps reporting
	// true (it always does for a MemoryDevice).
	blkdev := blockdevice.NewMemoryDevice(4096, 512)
	s, _ := newTestServer(t, blkdev)

	done := make(chan error, 1)
	go func() { done <- s.Serve(10 * time.Millisecond) }()

	select {
	case err := <-done:
		t.Fatalf("Serve returned unexpectedly: %v", err)
	case <-time.After(80 * time.Millisecond):
	}
}

func TestDefaultPortConstant(t *testing.T) {
	assert.Equal(t, 0xBDBD, DefaultPort)
}
