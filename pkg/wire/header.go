package wire

import "encoding/binary"

// HeaderSize is the fixed, packed size of a Header in bytes.
const HeaderSize = 2

// Header is the 2-byte little-endian word common to every UDPBD frame.
// Its three fields straddle byte boundaries:
//
//	bits 0-4   cmd
//	bits 5-7   cmdid
//	bits 8-15  cmdpkt
type Header struct {
	Cmd    Command
	CmdID  uint8 // 3 bits, opaque client-assigned transaction id
	CmdPkt uint8 // packet sequence number within a transaction
}

// Pack encodes h into its 2-byte wire form.
func (h Header) Pack() []byte {
	v := uint16(h.Cmd)&0x1F | (uint16(h.CmdID)&0x07)<<5 | uint16(h.CmdPkt)<<8
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint16(buf, v)
	return buf
}

// UnpackHeader decodes a Header from the first 2 bytes of buf.
// Returns ErrShortBuffer if buf is too short, ErrUnknownCommand if the
// decoded cmd field isn't one of the seven defined command tags.
func UnpackHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, ErrShortBuffer
	}
	v := binary.LittleEndian.Uint16(buf)
	cmd := Command(v & 0x1F)
	if !cmd.Valid() {
		return Header{}, ErrUnknownCommand
	}
	return Header{
		Cmd:    cmd,
		CmdID:  uint8((v & 0x00E0) >> 5),
		CmdPkt: uint8((v & 0xFF00) >> 8),
	}, nil
}

// Sizeof reports the fixed packed size of a Header.
func (h Header) Sizeof() int { return HeaderSize }
