// Package wire implements the UDPBD bit-packed frame family: compact
// request/reply structs that pack into and unpack from fixed-size little
// endian byte buffers, with strict 1472-byte MTU discipline.
package wire

import "fmt"

// Command is the 5-bit command tag carried in every Header.
type Command uint8

const (
	CmdInfo      Command = 0x00
	CmdInfoReply Command = 0x01
	CmdRead      Command = 0x02
	CmdReadRDMA  Command = 0x03
	CmdWrite     Command = 0x04
	CmdWriteRDMA Command = 0x05
	CmdWriteDone Command = 0x06
)

var commandNames = map[Command]string{
	CmdInfo:      "INFO",
	CmdInfoReply: "INFO_REPLY",
	CmdRead:      "READ",
	CmdReadRDMA:  "READ_RDMA",
	CmdWrite:     "WRITE",
	CmdWriteRDMA: "WRITE_RDMA",
	CmdWriteDone: "WRITE_DONE",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Command(0x%02x)", uint8(c))
}

// Valid reports whether c is one of the seven defined command tags.
func (c Command) Valid() bool {
	_, ok := commandNames[c]
	return ok
}

// RDMAMaxPayload is the largest data payload (in bytes) that fits an RDMA
// packet once the 2-byte Header and 4-byte BlockType prefix are accounted
// for, under the protocol's 1472-byte MTU ceiling.
const RDMAMaxPayload = 1466

// MaxFrameSize is the hard MTU ceiling every emitted frame must respect.
const MaxFrameSize = 1472
