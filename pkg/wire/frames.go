package wire

import "encoding/binary"

// InfoReplySize is the fixed packed size of an InfoReply in bytes.
const InfoReplySize = 10

// InfoReply answers an INFO request with the device's geometry.
type InfoReply struct {
	Header      Header
	SectorSize  uint32
	SectorCount uint32
}

func (r InfoReply) Pack() []byte {
	buf := make([]byte, InfoReplySize)
	copy(buf, r.Header.Pack())
	binary.LittleEndian.PutUint32(buf[2:6], r.SectorSize)
	binary.LittleEndian.PutUint32(buf[6:10], r.SectorCount)
	return buf
}

func UnpackInfoReply(buf []byte) (InfoReply, error) {
	if len(buf) < InfoReplySize {
		return InfoReply{}, ErrShortBuffer
	}
	hdr, err := UnpackHeader(buf[:2])
	if err != nil {
		return InfoReply{}, err
	}
	return InfoReply{
		Header:      hdr,
		SectorSize:  binary.LittleEndian.Uint32(buf[2:6]),
		SectorCount: binary.LittleEndian.Uint32(buf[6:10]),
	}, nil
}

func (r InfoReply) Sizeof() int { return InfoReplySize }

// RWRequestSize is the fixed packed size of an RWRequest in bytes.
const RWRequestSize = 8

// RWRequest is the common shape of an INFO/READ/WRITE request: a header
// plus the starting sector and sector count of the transfer.
type RWRequest struct {
	Header      Header
	SectorNr    uint32
	SectorCount uint16
}

func (r RWRequest) Pack() []byte {
	buf := make([]byte, RWRequestSize)
	copy(buf, r.Header.Pack())
	binary.LittleEndian.PutUint32(buf[2:6], r.SectorNr)
	binary.LittleEndian.PutUint16(buf[6:8], r.SectorCount)
	return buf
}

func UnpackRWRequest(buf []byte) (RWRequest, error) {
	if len(buf) < RWRequestSize {
		return RWRequest{}, ErrShortBuffer
	}
	hdr, err := UnpackHeader(buf[:2])
	if err != nil {
		return RWRequest{}, err
	}
	return RWRequest{
		Header:      hdr,
		SectorNr:    binary.LittleEndian.Uint32(buf[2:6]),
		SectorCount: binary.LittleEndian.Uint16(buf[6:8]),
	}, nil
}

func (r RWRequest) Sizeof() int { return RWRequestSize }

// WriteReplySize is the fixed packed size of a WriteReply in bytes.
const WriteReplySize = 6

// WriteReply is the WRITE_DONE completion frame.
type WriteReply struct {
	Header Header
	Result uint32 // 0 on success
}

func (r WriteReply) Pack() []byte {
	buf := make([]byte, WriteReplySize)
	copy(buf, r.Header.Pack())
	binary.LittleEndian.PutUint32(buf[2:6], r.Result)
	return buf
}

func UnpackWriteReply(buf []byte) (WriteReply, error) {
	if len(buf) < WriteReplySize {
		return WriteReply{}, ErrShortBuffer
	}
	hdr, err := UnpackHeader(buf[:2])
	if err != nil {
		return WriteReply{}, err
	}
	return WriteReply{
		Header: hdr,
		Result: binary.LittleEndian.Uint32(buf[2:6]),
	}, nil
}

func (r WriteReply) Sizeof() int { return WriteReplySize }

// RDMAPayloadPrefixSize is the fixed-size prefix of an RDMAPayload: Header
// + BlockType. The data field occupies whatever remains of the datagram.
const RDMAPayloadPrefixSize = HeaderSize + BlockTypeSize

// RDMAPayload carries bulk READ_RDMA/WRITE_RDMA data: a header, the block
// geometry describing Data, and Data itself.
type RDMAPayload struct {
	Header Header
	Block  BlockType
	Data   []byte
}

// Pack encodes the fixed prefix followed by Data verbatim, with no padding.
func (p RDMAPayload) Pack() []byte {
	buf := make([]byte, 0, RDMAPayloadPrefixSize+len(p.Data))
	buf = append(buf, p.Header.Pack()...)
	buf = append(buf, p.Block.Pack()...)
	buf = append(buf, p.Data...)
	return buf
}

// UnpackRDMAPayload decodes the 2-byte Header and 4-byte BlockType prefix
// and treats the remainder of buf as Data verbatim.
func UnpackRDMAPayload(buf []byte) (RDMAPayload, error) {
	if len(buf) < RDMAPayloadPrefixSize {
		return RDMAPayload{}, ErrShortBuffer
	}
	hdr, err := UnpackHeader(buf[:2])
	if err != nil {
		return RDMAPayload{}, err
	}
	block, err := UnpackBlockType(buf[2:6])
	if err != nil {
		return RDMAPayload{}, err
	}
	return RDMAPayload{
		Header: hdr,
		Block:  block,
		Data:   buf[6:],
	}, nil
}

// Sizeof reports the size of the fixed prefix plus len(p.Data); unlike
// fixed-size frames, this is not a class-level constant.
func (p RDMAPayload) Sizeof() int { return RDMAPayloadPrefixSize + len(p.Data) }
