package blockshift

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func packetCount(nBytes uint64, shift uint8) uint64 {
	bs := uint64(BlockSize(shift))
	bpp := uint64(BlocksPerPacket(uint32(bs)))
	perPacket := bpp * bs
	return (nBytes + perPacket - 1) / perPacket
}

func TestSelectNeverWorseThanMinimum(t *testing.T) {
	const sectorSize = 512
	for sectors := uint64(1); sectors <= 4096; sectors++ {
		nBytes := sectors * sectorSize
		shift := Select(nBytes)
		minPackets := packetCount(nBytes, 3)
		gotPackets := packetCount(nBytes, shift)
		assert.LessOrEqual(t, gotPackets, minPackets, "sectors=%d shift=%d", sectors, shift)

		blockSize := BlockSize(shift)
		bpp := BlocksPerPacket(blockSize)
		assert.LessOrEqual(t, bpp*blockSize, uint32(1466))
	}
}

func TestSelectConcreteScenarios(t *testing.T) {
	// spec.md §8 scenario 4: 1 sector (512 bytes) -> shift 7.
	assert.EqualValues(t, 7, Select(512))
	// spec.md §8 scenario 5: 2 sectors (1024 bytes) -> shift 7.
	assert.EqualValues(t, 7, Select(1024))
}

func TestSelectPrefersLargestOnTie(t *testing.T) {
	// At very small sizes every shift yields 1 packet; largest should win.
	assert.EqualValues(t, 7, Select(1))
}

func TestBlockSizeTable(t *testing.T) {
	assert.EqualValues(t, 32, BlockSize(3))
	assert.EqualValues(t, 64, BlockSize(4))
	assert.EqualValues(t, 128, BlockSize(5))
	assert.EqualValues(t, 256, BlockSize(6))
	assert.EqualValues(t, 512, BlockSize(7))
}

func TestBlocksPerPacketTable(t *testing.T) {
	assert.EqualValues(t, 45, BlocksPerPacket(32))
	assert.EqualValues(t, 11, BlocksPerPacket(128))
	assert.EqualValues(t, 5, BlocksPerPacket(256))
	assert.EqualValues(t, 2, BlocksPerPacket(512))
}
