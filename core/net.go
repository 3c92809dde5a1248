package core

import "net"

// Dial connects to address and wraps the connection with the cipher.
func Dial(network, address string, ciph ConnCipher) (net.Conn, error) {
	c, err := net.Dial(network, address)
	if err != nil {
		return nil, err
	}
	return ciph.StreamConn(c), nil
}

// Listen creates a listener whose accepted connections are wrapped with
// the cipher.
func Listen(network, address string, ciph ConnCipher) (net.Listener, error) {
	l, err := net.Listen(network, address)
	if err != nil {
		return nil, err
	}
	return &listener{l, ciph}, nil
}

type listener struct {
	net.Listener
	ConnCipher
}

func (l *listener) Accept() (net.Conn, error) {
	c, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	return l.StreamConn(c), nil
}

// ListenPacket creates a packet socket wrapped with the cipher.
func ListenPacket(network, address string, ciph ConnCipher) (net.PacketConn, error) {
	c, err := net.ListenPacket(network, address)
	if err != nil {
		return nil, err
	}
	return ciph.PacketConn(c), nil
}
