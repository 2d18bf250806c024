package udpbd

import (
	"net"

	"golang.org/x/sys/unix"
)

// listenBroadcastUDP binds 0.0.0.0:port with SO_BROADCAST set, matching
// pyudpbd's sockutils.create_broadcast_socket. net.ListenUDP has no
// portable broadcast-enable knob, so the option is set via the raw fd
// through golang.org/x/sys/unix, the way the teacher reaches for
// golang.org/x/sys/unix for CAN socket options.
func listenBroadcastUDP(port int) (*net.UDPConn, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: port})
	if err != nil {
		return nil, err
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
	return conn, nil
}
