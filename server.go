package emigo

import (
	"fmt"
	"net"
	"sync"

	"github.com/joeycumines/logiface"
)

// ConnectFunc is invoked once per accepted connection, after its Manager is
// constructed and wired but before any inbound call can have been
// processed, so it is safe to register methods here.
type ConnectFunc func(*Manager)

// Server accepts loopback TCP connections and spins up a Connection plus a
// Manager for each one.
type Server struct {
	connectFn   ConnectFunc
	managerOpts []ManagerOption
	logger      *logiface.Logger[logiface.Event]

	mu       sync.Mutex
	managers map[*Manager]struct{}
	listener net.Listener
}

// NewServer creates a Server that invokes connectFn for each accepted
// connection.
func NewServer(connectFn ConnectFunc, opts ...ServerOption) *Server {
	s := &Server{
		connectFn: connectFn,
		managers:  make(map[*Manager]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start binds a loopback listener on port (0 picks an ephemeral port) and
// runs the accept loop until the listener is closed by Stop. It returns the
// bound address so callers can discover an ephemeral port.
func (s *Server) Start(port int) (addr net.Addr, err error) {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	go s.acceptLoop(ln)
	return ln.Addr(), nil
}

// Stop closes the listener and disconnects every live Manager. The
// listener's own accept loop observes the close and exits on its own.
func (s *Server) Stop() {
	s.mu.Lock()
	ln := s.listener
	managers := make([]*Manager, 0, len(s.managers))
	for m := range s.managers {
		managers = append(managers, m)
	}
	s.mu.Unlock()

	if ln != nil {
		_ = ln.Close()
	}
	for _, m := range managers {
		m.Stop()
	}
}

func (s *Server) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			// net.Listener has no notion of a per-client accept failure
			// distinct from the listener itself dying, so any error here
			// means the loop is done; a closed listener is the normal way
			// this happens.
			s.warn("emigo: accept loop exiting", err)
			return
		}
		go s.handleAccepted(conn)
	}
}

func (s *Server) handleAccepted(netConn net.Conn) {
	var manager *Manager
	c := NewConnection(netConn.RemoteAddr().String(), netConn, func() {
		s.removeManager(manager)
	})
	manager = NewManager(c, s.managerOpts...)

	s.mu.Lock()
	s.managers[manager] = struct{}{}
	s.mu.Unlock()

	if s.connectFn != nil {
		s.connectFn(manager)
	}

	c.Start()
}

func (s *Server) removeManager(m *Manager) {
	s.mu.Lock()
	delete(s.managers, m)
	s.mu.Unlock()
}

func (s *Server) warn(msg string, err error) {
	if s.logger == nil {
		return
	}
	s.logger.Info().Err(err).Log(msg)
}
