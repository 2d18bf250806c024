package blockdevice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDeviceSeekReadWrite(t *testing.T) {
	dev := NewMemoryDevice(4096, 512)
	assert.EqualValues(t, 512, dev.SectorSize())
	assert.EqualValues(t, 8, dev.SectorCount())
	assert.True(t, dev.Available())
	assert.False(t, dev.ReadOnly())

	dev.Seek(1)
	payload := make([]byte, 512)
	for i := range payload {
		payload[i] = byte(i)
	}
	require.NoError(t, dev.Write(payload))

	dev.Seek(1)
	got, err := dev.Read(512)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	read, written := dev.Status()
	assert.EqualValues(t, 512, read)
	assert.EqualValues(t, 512, written)
}

func TestMemoryDeviceReadPastEndIsShort(t *testing.T) {
	dev := NewMemoryDevice(512, 512)
	dev.Seek(0)
	got, err := dev.Read(1024)
	require.NoError(t, err)
	assert.Len(t, got, 512)
}

func TestMemoryDeviceDefaultSize(t *testing.T) {
	dev := NewMemoryDevice(0, 512)
	assert.EqualValues(t, DefaultMemorySize/512, dev.SectorCount())
}
