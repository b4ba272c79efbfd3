package testapp

import (
	"fmt"
	"net"
)

// Listen binds a TCP listener on the loopback interface with port 0 so the
// operating system picks a free ephemeral port. The listener is returned open:
// holding it until the server takes over means no other process can claim the port.
func Listen() (net.Listener, int, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, 0, fmt.Errorf("failed to bind random port: %w", err)
	}

	addr, ok := listener.Addr().(*net.TCPAddr)
	if !ok || addr.Port == 0 {
		listener.Close()
		return nil, 0, fmt.Errorf("unexpected listener address %q", listener.Addr())
	}
	return listener, addr.Port, nil
}
