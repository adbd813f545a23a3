package framesource

import (
	"fmt"
	"net"
)

// UDPSource adapts a UDP socket to the line stream the Mux consumes. Each
// datagram carries exactly one JSON frame; the source appends the newline the
// scanner splits on.
type UDPSource struct {
	conn    net.PacketConn
	buf     []byte
	pending []byte
}

// ListenUDP opens a UDP listener on addr for incoming frame datagrams.
func ListenUDP(addr string) (*UDPSource, error) {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return &UDPSource{
		conn: conn,
		buf:  make([]byte, maxFrameSize),
	}, nil
}

// LocalAddr returns the bound address, useful when listening on port 0.
func (u *UDPSource) LocalAddr() net.Addr {
	return u.conn.LocalAddr()
}

// Read returns bytes of the current datagram plus a trailing newline,
// reading the next datagram once the current one is fully consumed.
func (u *UDPSource) Read(p []byte) (int, error) {
	if len(u.pending) == 0 {
		n, _, err := u.conn.ReadFrom(u.buf)
		if err != nil {
			return 0, err
		}
		u.pending = append(u.pending, u.buf[:n]...)
		u.pending = append(u.pending, '\n')
	}
	n := copy(p, u.pending)
	u.pending = u.pending[n:]
	if len(u.pending) == 0 {
		u.pending = nil
	}
	return n, nil
}

// Close closes the underlying socket. A blocked Read returns with an error.
func (u *UDPSource) Close() error {
	return u.conn.Close()
}
