// Package logbroadcast implements an slog.Handler that broadcasts log
// lines as UDP datagrams instead of (or in addition to) writing them to a
// stream, grounded on logviewer.py/sockutils.py's single broadcast-socket
// pattern: one well-known port, every listener on the LAN sees every line.
package logbroadcast

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// DefaultPort is the port logviewer.py's sockutils.create_broadcast_socket
// binds by default.
const DefaultPort = 18194

// Handler is an slog.Handler that renders each record as a single line and
// sends it as a UDP broadcast datagram. It never returns an error from
// Handle on a send failure; a dropped log line must not interrupt the
// server loop it is attached to.
type Handler struct {
	conn  *net.UDPConn
	attrs []slog.Attr
	group string
	level slog.Leveler
}

// NewHandler opens a broadcast UDP socket targeting 255.255.255.255:port
// and returns a Handler that sends to it.
func NewHandler(port int, level slog.Leveler) (*Handler, error) {
	if port == 0 {
		port = DefaultPort
	}
	if level == nil {
		level = slog.LevelInfo
	}

	dest, err := net.ResolveUDPAddr("udp4", fmt.Sprintf("255.255.255.255:%d", port))
	if err != nil {
		return nil, err
	}

	sendConn, err := net.DialUDP("udp4", nil, dest)
	if err != nil {
		return nil, errors.Wrap(err, "logbroadcast: dial")
	}
	rawSendConn, err := sendConn.SyscallConn()
	if err != nil {
		sendConn.Close()
		return nil, err
	}
	var sockErr error
	err = rawSendConn.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
	})
	if err != nil {
		sendConn.Close()
		return nil, err
	}
	if sockErr != nil {
		sendConn.Close()
		return nil, sockErr
	}

	return &Handler{conn: sendConn, level: level}, nil
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats r as "time level msg key=value..." and sends it as a
// single UDP datagram, matching the one-line-per-message shape the
// reference logviewer prints.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s %s %s", r.Time.Format(time.RFC3339), r.Level, r.Message)
	if h.group != "" {
		fmt.Fprintf(&buf, " group=%s", h.group)
	}
	for _, a := range h.attrs {
		fmt.Fprintf(&buf, " %s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&buf, " %s=%v", a.Key, a.Value)
		return true
	})

	_, _ = h.conn.Write(buf.Bytes())
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &next
}

func (h *Handler) WithGroup(name string) slog.Handler {
	next := *h
	next.group = name
	return &next
}

// Close releases the underlying socket.
func (h *Handler) Close() error {
	return h.conn.Close()
}
