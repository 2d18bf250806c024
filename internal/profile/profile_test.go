package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udpbdgo/udpbd/pkg/blockdevice"
)

func TestApplyOverridesOnlyPresentKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.ini")
	contents := "[server]\npath = /dev/sdb\nsector_size = 4096\nread_only = true\nport = 48317\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	p, err := Load(path)
	require.NoError(t, err)

	opts := blockdevice.Options{Path: "/original", SectorSize: 512, ReadOnly: false, TestMode: true}
	port := 0xBDBD
	debugHTTP := false
	debugHTTPAddr := "127.0.0.1:8081"
	logBroadcast := false

	p.Apply(&opts, &port, &debugHTTP, &debugHTTPAddr, &logBroadcast)

	assert.Equal(t, "/dev/sdb", opts.Path)
	assert.EqualValues(t, 4096, opts.SectorSize)
	assert.True(t, opts.ReadOnly)
	assert.True(t, opts.TestMode, "test_mode absent from file, must be left untouched")
	assert.Equal(t, 48317, port)
	assert.False(t, debugHTTP, "debug_http absent from file, must be left untouched")
	assert.Equal(t, "127.0.0.1:8081", debugHTTPAddr)
}
