package blockdevice

import (
	"sync"
	"testing"

	gotestassert "gotest.tools/v3/assert"
)

// TestStatusIsSafeDuringSequentialIO exercises Status() from a background
// goroutine while the test goroutine drives the one sequence of Read/Write
// calls the protocol ever issues against a device (spec.md §5: a single
// logical connection, no concurrent transfers) and checks the final
// counters land on the expected total once both goroutines are done.
func TestStatusIsSafeDuringSequentialIO(t *testing.T) {
	const sectorSize = 512
	const sectors = 64
	dev := NewMemoryDevice(sectorSize*sectors, sectorSize)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				dev.Status()
			}
		}
	}()

	dev.Seek(0)
	for i := 0; i < sectors/2; i++ {
		_, err := dev.Read(sectorSize)
		gotestassert.NilError(t, err)
	}
	payload := make([]byte, sectorSize)
	for i := 0; i < sectors/2; i++ {
		gotestassert.NilError(t, dev.Write(payload))
	}

	close(stop)
	wg.Wait()

	read, written := dev.Status()
	gotestassert.Equal(t, read, uint64(sectorSize*sectors/2))
	gotestassert.Equal(t, written, uint64(sectorSize*sectors/2))
}
