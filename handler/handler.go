// Package handler defines the single entry point an application implements
// to answer ETP messages. Grounded on original_source/src/message.rs's
// EtpMessageHandler trait: one method dispatching on the body's own type,
// not one callback registered per message type the way the prior implementation's
// server/service.go reflects over exported methods — the protocol's design
// notes call that pattern out explicitly as the wrong shape for ETP, since
// the number of (protocol, message_type) pairs a handler answers is data,
// not a fixed method set known at compile time.
package handler

import "github.com/geosiris-technologies/etpproto-go/etpmsg"

// Handler answers one inbound message with zero or more reply bodies.
// Zero replies is valid (e.g. answering a Pong with nothing); more than
// one models a handler that wants to emit several distinct messages for a
// single inbound one (package session is responsible for correlation_id
// and message_id assignment on each).
type Handler interface {
	Handle(in etpmsg.ProtocolMessage) []etpmsg.ProtocolMessage
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(in etpmsg.ProtocolMessage) []etpmsg.ProtocolMessage

func (f HandlerFunc) Handle(in etpmsg.ProtocolMessage) []etpmsg.ProtocolMessage {
	return f(in)
}

// DefaultHandler answers every message it doesn't specifically recognize
// with unsupported_protocol, matching EtpMessageHandler's default trait
// method. Embed it and override the cases an application cares about.
type DefaultHandler struct{}

func (DefaultHandler) Handle(in etpmsg.ProtocolMessage) []etpmsg.ProtocolMessage {
	return []etpmsg.ProtocolMessage{
		etpmsg.ProtocolException{
			ErrorCode:    etpmsg.ErrCodeUnsupportedProtocol,
			ErrorMessage: "no handler registered for this protocol",
		},
	}
}

