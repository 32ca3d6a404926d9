package emigo

import "net"

// Dial connects to an EPC server at address, wires a Manager onto the new
// connection, invokes connectFn (so the caller can register its own
// methods before any inbound call can arrive), and then starts draining the
// socket. Either side of an EPC connection can simultaneously act as
// caller and callee, so a dialed Manager is just as capable of serving
// inbound calls as one accepted by a Server.
func Dial(address string, connectFn ConnectFunc, opts ...ManagerOption) (*Manager, error) {
	netConn, err := net.Dial("tcp", address)
	if err != nil {
		return nil, err
	}

	c := NewConnection(address, netConn, nil)
	m := NewManager(c, opts...)
	if connectFn != nil {
		connectFn(m)
	}
	c.Start()
	return m, nil
}
