// Package etpserver is the thin Accept-loop glue that turns a
// session.Connection and package transport into a running ETP store
// endpoint: listen, accept, read frames, drive the state machine, write
// replies, and support graceful shutdown.
//
// Grounded on the prior implementation's server/server.go: the accept-loop-spawns-a-
// goroutine-per-connection shape and the atomic-shutdown-flag +
// WaitGroup graceful-shutdown pattern. Deliberately NOT adapted is the
// prior implementation's per-request goroutine dispatch (svr.handleConn spawning
// svr.handleRequest): §5 requires one connection to behave as a
// single logical actor with decode/dispatch/reply happening
// synchronously and contiguously, so this server dispatches inline in
// the read loop instead.
package etpserver

import (
	"errors"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/geosiris-technologies/etpproto-go/datatypes"
	"github.com/geosiris-technologies/etpproto-go/endpoint"
	"github.com/geosiris-technologies/etpproto-go/handler"
	"github.com/geosiris-technologies/etpproto-go/session"
	"github.com/geosiris-technologies/etpproto-go/transport"
)

// ErrShutdownTimeout is returned by Shutdown when connection goroutines
// have not all returned within the given timeout.
var ErrShutdownTimeout = errors.New("etpserver: timeout waiting for connections to close")

// Server accepts ETP connections and drives one session.Connection per
// accepted socket.
type Server struct {
	capabilities datatypes.ServerCapabilities
	newHandler   func() handler.Handler

	mu       sync.Mutex
	listener net.Listener

	wg       sync.WaitGroup
	shutdown atomic.Bool

	registry      endpoint.Registry
	advertiseAddr string
}

// NewServer creates a Server that advertises capabilities and constructs
// a fresh handler.Handler for every accepted connection (a handler is
// not required to be safe for concurrent use across connections, since
// each connection's dispatch is single-threaded but independent
// connections run on independent goroutines).
func NewServer(capabilities datatypes.ServerCapabilities, newHandler func() handler.Handler) *Server {
	return &Server{capabilities: capabilities, newHandler: newHandler}
}

// Serve listens on address, optionally registers with reg under
// advertiseAddr (pass reg == nil to skip discovery), and accepts
// connections until Shutdown is called.
func (s *Server) Serve(network, address, advertiseAddr string, reg endpoint.Registry) error {
	listener, err := net.Listen(network, address)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.advertiseAddr = advertiseAddr
	if reg != nil {
		s.registry = reg
		if err := reg.Register(endpoint.StoreInstance{
			Addr:               advertiseAddr,
			ApplicationName:    s.capabilities.ApplicationName,
			ApplicationVersion: s.capabilities.ApplicationVersion,
		}, 10); err != nil {
			log.Printf("etpserver: registry.Register failed: %v", err)
		}
	}

	for {
		conn, err := listener.Accept()
		if err != nil {
			if s.shutdown.Load() {
				return nil
			}
			return err
		}
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

// handleConn reads frames from conn sequentially and drives one
// session.Connection's state machine; replies are written back on the
// same goroutine before the next frame is read, so a slow handler
// naturally backpressures its own connection rather than the whole
// server (§5's single-actor-per-connection model).
func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	h := session.DefaultServerHandler{ServerCapabilities: s.capabilities, Inner: s.newHandler()}
	sess := session.NewServerConnection(h, s.capabilities)

	for {
		frame, err := transport.ReadFrame(conn)
		if err != nil {
			return
		}
		replies, err := sess.HandleFrame(frame)
		if err != nil {
			log.Printf("etpserver: malformed frame from %s: %v", conn.RemoteAddr(), err)
			return
		}
		for _, reply := range replies {
			if err := transport.WriteFrame(conn, reply); err != nil {
				return
			}
		}
		if sess.State() == session.StateClosed {
			return
		}
	}
}

// Addr returns the address the listener actually bound to (useful when
// Serve was given ":0" or "host:0" to pick an ephemeral port), or "" if
// Serve hasn't bound a listener yet.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown deregisters from the registry, stops accepting new
// connections, and waits up to timeout for every connection goroutine to
// return. It does not close open connections: each goroutine returns when
// its peer disconnects, a read or write fails, or its session closes
// (mirrors the prior implementation's
// Server.Shutdown ordering: deregister before closing the listener, so
// no new client routes to an endpoint that's about to stop accepting).
func (s *Server) Shutdown(timeout time.Duration) error {
	if s.registry != nil {
		if err := s.registry.Deregister(s.advertiseAddr); err != nil {
			log.Printf("etpserver: registry.Deregister failed: %v", err)
		}
	}

	s.shutdown.Store(true)
	s.listener.Close()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return ErrShutdownTimeout
	}
}
