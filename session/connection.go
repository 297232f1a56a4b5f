// Package session implements ETP's connection state machine: session
// establishment, message-id allocation, correlation, Acknowledge handling,
// and the Unestablished/Established transition rules of §4.4.
//
// Grounded on original_source/src/connection.rs's EtpConnection for the
// transition logic itself, and on the prior implementation's
// transport/client_transport.go for the pending-request correlation
// pattern (register a response channel before sending, resolve it from a
// single reader loop via the inbound correlation_id).
package session

import (
	"sync"
	"sync/atomic"

	"github.com/geosiris-technologies/etpproto-go/datatypes"
	"github.com/geosiris-technologies/etpproto-go/etpmsg"
	"github.com/geosiris-technologies/etpproto-go/handler"
)

// Role distinguishes which side of the handshake a Connection plays.
// Message-id allocation depends on it: Server starts at 1, Client at 2
// (§4.4).
type Role int

const (
	RoleServer Role = iota
	RoleClient
)

// State is the connection's lifecycle state.
type State int

const (
	StateUnestablished State = iota
	StateEstablished
	StateClosed
)

// Connection is one ETP duplex session's state machine. It does not own a
// transport: HandleEnvelope is pure with respect to the wire (it returns
// the encoded frames to send in reply), so it can be driven by any duplex-frame
// pipe package transport provides, or by a test harness directly.
type Connection struct {
	mu sync.Mutex

	role  Role
	state State

	nextMessageID int64

	serverCapabilities *datatypes.ServerCapabilities
	negotiatedCaps     map[string]datatypes.DataValue
	clientInfo         *datatypes.ClientInfo

	handler handler.Handler

	multipartBuf map[int64][]etpmsg.RawPart

	pending map[int64]chan etpmsg.Envelope

	closeReason string
}

// NewServerConnection creates a Server-role connection. serverCapabilities
// is this endpoint's advertised capability set; the connection keeps it
// until CloseSession clears it. The connection does not use it to answer
// RequestSession: the handler builds that reply (see DefaultServerHandler).
func NewServerConnection(h handler.Handler, serverCapabilities datatypes.ServerCapabilities) *Connection {
	return &Connection{
		role:               RoleServer,
		state:              StateUnestablished,
		nextMessageID:      1,
		serverCapabilities: &serverCapabilities,
		handler:            h,
		multipartBuf:       make(map[int64][]etpmsg.RawPart),
		pending:            make(map[int64]chan etpmsg.Envelope),
	}
}

// NewClientConnection creates a Client-role connection.
func NewClientConnection(h handler.Handler) *Connection {
	return &Connection{
		role:          RoleClient,
		state:         StateUnestablished,
		nextMessageID: 2,
		handler:       h,
		multipartBuf:  make(map[int64][]etpmsg.RawPart),
		pending:       make(map[int64]chan etpmsg.Envelope),
	}
}

// consumeMessageID returns the next message_id to use and advances the
// counter, pre-increment: the value returned is the one the caller uses,
// matching original_source/src/connection.rs's consume_message_id. Server
// connections start at 1, Client connections start at 2; both increment by
// 1 thereafter.
func (c *Connection) consumeMessageID() int64 {
	return atomic.AddInt64(&c.nextMessageID, 1) - 1
}

// AllocateMessageID hands out the next message_id a caller should stamp
// on a message it is about to send itself — needed by package etpclient
// to send the opening RequestSession before any inbound frame exists to
// derive a reply's message_id from.
func (c *Connection) AllocateMessageID() int64 {
	return c.consumeMessageID()
}

// State returns the connection's current lifecycle state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CloseReason returns the reason recorded when the connection transitioned
// to StateClosed, or "" if it hasn't closed.
func (c *Connection) CloseReason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeReason
}
