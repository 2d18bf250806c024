package logbroadcast

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerEnabled(t *testing.T) {
	h := &Handler{level: slog.LevelWarn}
	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
}

func TestHandlerWithAttrsAndGroupDoNotMutateParent(t *testing.T) {
	base := &Handler{level: slog.LevelInfo}
	child := base.WithAttrs([]slog.Attr{slog.String("component", "udpbd")}).WithGroup("req")

	assert.Empty(t, base.attrs)
	assert.Empty(t, base.group)

	childHandler, ok := child.(*Handler)
	require.True(t, ok)
	assert.Len(t, childHandler.attrs, 1)
	assert.Equal(t, "req", childHandler.group)
}

func TestListenAndClose(t *testing.T) {
	r, err := Listen(0)
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.conn.SetReadDeadline(time.Now().Add(20*time.Millisecond)))
	_, err = r.Recv()
	assert.Error(t, err, "expected a read timeout with nothing broadcasting")
}
