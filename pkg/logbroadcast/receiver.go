package logbroadcast

import (
	"net"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Message is one received log line, tagged with the sender's address, the
// way logviewer.py prints "[ip:port] text".
type Message struct {
	Addr net.Addr
	Text string
}

// Receiver listens for broadcast log lines sent by a Handler.
type Receiver struct {
	conn *net.UDPConn
}

// Listen binds 0.0.0.0:port with SO_BROADCAST set and returns a Receiver
// ready to call Recv on. port defaults to DefaultPort when zero.
func Listen(port int) (*Receiver, error) {
	if port == 0 {
		port = DefaultPort
	}
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: port})
	if err != nil {
		return nil, errors.Wrap(err, "logbroadcast: listen")
	}
	rawConn, err := conn.SyscallConn()
	if err != nil {
		conn.Close()
		return nil, err
	}
	var sockErr error
	err = rawConn.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
	})
	if err != nil {
		conn.Close()
		return nil, err
	}
	if sockErr != nil {
		conn.Close()
		return nil, sockErr
	}
	return &Receiver{conn: conn}, nil
}

// Recv blocks for the next datagram and returns it as a Message.
func (r *Receiver) Recv() (Message, error) {
	buf := make([]byte, 2048)
	n, addr, err := r.conn.ReadFromUDP(buf)
	if err != nil {
		return Message{}, err
	}
	return Message{Addr: addr, Text: string(buf[:n])}, nil
}

// Close releases the underlying socket.
func (r *Receiver) Close() error {
	return r.conn.Close()
}
