package wire

import "encoding/binary"

// BlockTypeSize is the fixed packed size of a BlockType in bytes.
const BlockTypeSize = 4

// blockSizeByShift is the static shift -> block-size table from spec.md §3.
// Legal shifts in practice are 3, 5, 6, 7 (32/128/256/512 bytes); shift 4
// (64 bytes) exists in the encoding but the selector never picks it.
var blockSizeByShift = map[uint8]uint32{
	3: 32,
	4: 64,
	5: 128,
	6: 256,
	7: 512,
}

// BlockType is the 4-byte little-endian word describing the block size and
// count carried by an RDMAPayload.
//
//	bits 0-3    block_shift
//	bits 4-12   block_count
//	bits 13-31  spare (must be zero on the wire)
type BlockType struct {
	BlockShift uint8 // 4 bits
	BlockCount uint16
	Spare      uint32
}

// NewBlockType builds a BlockType for the given block size in bytes
// (32/64/128/256/512). Returns ErrUnsupportedBlockSize otherwise.
func NewBlockType(blockCount uint16, blockSize uint32) (BlockType, error) {
	for shift, size := range blockSizeByShift {
		if size == blockSize {
			return BlockType{BlockShift: shift, BlockCount: blockCount}, nil
		}
	}
	return BlockType{}, ErrUnsupportedBlockSize
}

// BlockSize returns 1 << (block_shift + 2), the size in bytes of one block.
func (b BlockType) BlockSize() uint32 {
	return 1 << (b.BlockShift + 2)
}

// Pack encodes b into its 4-byte wire form.
func (b BlockType) Pack() []byte {
	v := uint32(b.BlockShift)&0xF |
		(uint32(b.BlockCount)&0x1FF)<<4 |
		(b.Spare&0x7FFFF)<<13
	buf := make([]byte, BlockTypeSize)
	binary.LittleEndian.PutUint32(buf, v)
	return buf
}

// UnpackBlockType decodes a BlockType from the first 4 bytes of buf.
func UnpackBlockType(buf []byte) (BlockType, error) {
	if len(buf) < BlockTypeSize {
		return BlockType{}, ErrShortBuffer
	}
	v := binary.LittleEndian.Uint32(buf)
	return BlockType{
		BlockShift: uint8(v & 0xF),
		BlockCount: uint16((v & 0x1FF0) >> 4),
		Spare:      (v & 0xFFFFE000) >> 13,
	}, nil
}

// Sizeof reports the fixed packed size of a BlockType.
func (b BlockType) Sizeof() int { return BlockTypeSize }
