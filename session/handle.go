package session

import (
	"github.com/geosiris-technologies/etpproto-go/datatypes"
	"github.com/geosiris-technologies/etpproto-go/etpmsg"
)

// HandleFrame is the connection's single entry point for inbound bytes. It
// returns zero or more encoded reply frames, in the order they must be
// sent. A malformed frame that can't even be header-decoded is reported
// back to the caller as an error; anything past that point (unknown
// message type, decompression failure, protocol-level denial) is
// represented as a ProtocolException reply, never a Go error, since those
// are valid ETP outcomes the peer must see on the wire.
func (c *Connection) HandleFrame(data []byte) ([][]byte, error) {
	header, _, bodyBytes, err := etpmsg.DecodeRaw(data)
	if err != nil && err != etpmsg.ErrDecompressionFailed {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosed {
		return nil, nil
	}

	if err == etpmsg.ErrDecompressionFailed {
		return c.replyLocked(header, etpmsg.ProtocolException{
			ErrorCode:    etpmsg.ErrCodeRequestDenied,
			ErrorMessage: "failed to decompress message body",
		}), nil
	}

	if header.MessageFlags&etpmsg.FlagMultipart != 0 {
		return c.handleMultipartPartLocked(header, bodyBytes)
	}

	body, decodeErr := etpmsg.DecodeBody(header.Protocol, header.MessageType, bodyBytes)
	if decodeErr != nil {
		return c.replyLocked(header, etpmsg.ProtocolException{
			ErrorCode:    etpmsg.ErrCodeUnsupportedProtocol,
			ErrorMessage: decodeErr.Error(),
		}), nil
	}

	return c.handleMessageLocked(header, body), nil
}

// HandleEnvelope drives the state machine from an envelope some other
// component already decoded — package etpclient's handshake uses this,
// since transport.ClientTransport decodes inbound frames itself to
// route them by correlation_id before session ever sees them. Unlike
// HandleFrame, it never sees raw multipart fragments (those are
// reassembled by the caller, or not used at all on this path).
func (c *Connection) HandleEnvelope(env etpmsg.Envelope) [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosed {
		return nil
	}
	if env.Body == nil {
		return c.replyLocked(env.Header, etpmsg.ProtocolException{
			ErrorCode:    etpmsg.ErrCodeUnsupportedProtocol,
			ErrorMessage: "could not decode message body",
		})
	}
	return c.handleMessageLocked(env.Header, env.Body)
}

// handleMultipartPartLocked buffers one fragment and, once FlagFinal
// arrives, reassembles and processes the logical message. Fragments are
// keyed by CorrelationID: every part of one multipart message answers (or
// is) the same logical exchange (§3).
func (c *Connection) handleMultipartPartLocked(header etpmsg.Header, bodyBytes []byte) ([][]byte, error) {
	key := header.CorrelationID
	c.multipartBuf[key] = append(c.multipartBuf[key], etpmsg.RawPart{Header: header, Body: bodyBytes})

	if header.MessageFlags&etpmsg.FlagFinal == 0 {
		return nil, nil
	}

	parts := c.multipartBuf[key]
	delete(c.multipartBuf, key)

	env, err := etpmsg.Reassemble(parts)
	if err != nil {
		return c.replyLocked(header, etpmsg.ProtocolException{
			ErrorCode:    etpmsg.ErrCodeRequestDenied,
			ErrorMessage: err.Error(),
		}), nil
	}
	if env.Body == nil {
		return c.replyLocked(env.Header, etpmsg.ProtocolException{
			ErrorCode:    etpmsg.ErrCodeUnsupportedProtocol,
			ErrorMessage: "reassembled message has an unknown type",
		}), nil
	}
	return c.handleMessageLocked(env.Header, env.Body), nil
}

// handleMessageLocked implements the Unestablished/Established transition
// rules of §4.4. Must be called with c.mu held.
func (c *Connection) handleMessageLocked(header etpmsg.Header, body etpmsg.ProtocolMessage) [][]byte {
	var out [][]byte

	if header.MessageFlags&etpmsg.FlagAcknowledge != 0 {
		out = append(out, c.replyLocked(header, etpmsg.Acknowledge{})...)
	}

	if c.state == StateUnestablished {
		return append(out, c.handleUnestablishedLocked(header, body)...)
	}
	return append(out, c.handleEstablishedLocked(header, body)...)
}

func (c *Connection) handleUnestablishedLocked(header etpmsg.Header, body etpmsg.ProtocolMessage) [][]byte {
	switch c.role {
	case RoleServer:
		req, ok := body.(etpmsg.RequestSession)
		if !ok {
			return c.replyLocked(header, etpmsg.ProtocolException{
				ErrorCode:    etpmsg.ErrCodeRequestDenied,
				ErrorMessage: "server requires RequestSession as the first message",
			})
		}
		return c.dispatchRequestSessionLocked(header, req)

	case RoleClient:
		// Deliberate deviation from original_source/src/connection.rs,
		// which silently drops any non-OpenSession first message on the
		// client side: this runtime answers it with ProtocolException
		// instead, so a misbehaving peer is observable rather than
		// silently ignored.
		open, ok := body.(etpmsg.OpenSession)
		if !ok {
			return c.replyLocked(header, etpmsg.ProtocolException{
				ErrorCode:    etpmsg.ErrCodeRequestDenied,
				ErrorMessage: "client requires OpenSession as the first message",
			})
		}
		c.negotiatedCaps = open.EndpointCapabilities
		c.state = StateEstablished

		var out [][]byte
		for _, reply := range c.handler.Handle(open) {
			out = append(out, c.replyLocked(header, reply)...)
		}
		return out
	}
	return nil
}

// dispatchRequestSessionLocked implements §4.4's "Core_RequestSession ->
// invoke handler" rule: the handler, not Connection, decides whether the
// session is accepted, what gets negotiated, and what else to say. The
// state machine only transitions to Established and records negotiated
// state when an etpmsg.OpenSession shows up among the handler's replies,
// and every reply the handler returns is sent, matching
// original_source/src/connection.rs's Server/RequestSession branch, which
// calls self.msg_handler.handle(...) and only then inspects the result for
// a Core_OpenSession variant.
func (c *Connection) dispatchRequestSessionLocked(header etpmsg.Header, req etpmsg.RequestSession) [][]byte {
	var out [][]byte
	for _, reply := range c.handler.Handle(req) {
		if open, ok := reply.(etpmsg.OpenSession); ok {
			c.negotiatedCaps = open.EndpointCapabilities
			c.state = StateEstablished
			ci := datatypes.NewClientInfo(nil, nil, req.EndpointCapabilities)
			c.clientInfo = &ci
		}
		out = append(out, c.replyLocked(header, reply)...)
	}
	return out
}

func (c *Connection) handleEstablishedLocked(header etpmsg.Header, body etpmsg.ProtocolMessage) [][]byte {
	switch m := body.(type) {
	case etpmsg.CloseSession:
		return c.closeSessionLocked(header, m)
	case etpmsg.Ping:
		return c.replyLocked(header, etpmsg.Pong{CurrentDateTime: m.CurrentDateTime})
	case etpmsg.Acknowledge:
		return nil
	case etpmsg.ProtocolException:
		return c.handleInboundExceptionLocked(header, m)
	}

	var out [][]byte
	var fatal *etpmsg.ProtocolException
	for _, reply := range c.handler.Handle(body) {
		out = append(out, c.replyLocked(header, reply)...)
		if exc, ok := reply.(etpmsg.ProtocolException); ok && fatal == nil && fatalErrorKinds[exc.ErrorCode] {
			fatal = &exc
		}
	}
	// A handler-returned fatal ProtocolException is followed by a
	// CloseSession, and the connection closes.
	if fatal != nil {
		out = append(out, c.replyLocked(header, etpmsg.CloseSession{Reason: fatal.ErrorMessage})...)
		c.closeReason = fatal.ErrorMessage
		c.state = StateClosed
	}
	return out
}

func (c *Connection) closeSessionLocked(header etpmsg.Header, m etpmsg.CloseSession) [][]byte {
	c.closeReason = m.Reason
	var out [][]byte
	if c.role == RoleServer {
		out = c.replyLocked(header, etpmsg.CloseSession{Reason: "Answer to client CloseSession message"})
	}
	c.state = StateClosed
	c.serverCapabilities = nil
	return out
}

// fatalErrorKinds are the inbound ProtocolException error codes that leave
// a connection unrecoverable: nothing sent afterward on it can succeed, so
// handleInboundExceptionLocked auto-closes rather than let the caller keep
// sending into a session the peer has already abandoned.
var fatalErrorKinds = map[string]bool{
	etpmsg.ErrCodeAuthorizationExpired: true,
	etpmsg.ErrCodeInvalidMessageType:   true,
}

// handleInboundExceptionLocked implements connection.rs's TODO about
// auto-closing on fatal errors: a peer reporting that our credentials have
// expired, or that we sent a message type it can no longer make sense of,
// mid-session means nothing further on this connection can succeed, so we
// tear it down rather than let the caller keep sending into a session the
// peer has already denied.
func (c *Connection) handleInboundExceptionLocked(_ etpmsg.Header, m etpmsg.ProtocolException) [][]byte {
	if fatalErrorKinds[m.ErrorCode] {
		c.closeReason = m.ErrorMessage
		c.state = StateClosed
	}
	return nil
}

// replyLocked wraps a single reply body into an encoded frame correlated
// to header, allocating the next message_id from this connection's
// counter. Must be called with c.mu held (consumeMessageID does not take
// c.mu itself, only an atomic counter, so this is safe to call from
// within handleMessageLocked's call chain).
func (c *Connection) replyLocked(header etpmsg.Header, reply etpmsg.ProtocolMessage) [][]byte {
	frame := etpmsg.Encode(header.MessageID, c.consumeMessageID(), etpmsg.FlagFinal, reply, nil)
	return [][]byte{frame}
}
