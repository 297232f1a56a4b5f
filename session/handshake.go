package session

import (
	"github.com/geosiris-technologies/etpproto-go/datatypes"
	"github.com/geosiris-technologies/etpproto-go/etpmsg"
	"github.com/geosiris-technologies/etpproto-go/handler"
	"github.com/geosiris-technologies/etpproto-go/negotiate"
)

// NegotiatedOpenSession builds the OpenSession a compliant server answers a
// RequestSession with: capability, protocol, and data-object intersections
// per §4.3, run through package negotiate. original_source/src/connection.rs
// never calls capabilities_utils::negotiate_capabilities itself — computing
// the reply is entirely a msg_handler concern there — so this is offered as
// a ready-made building block for a handler.Handler that wants default
// negotiation, not something Connection invokes on its own.
func NegotiatedOpenSession(serverCapabilities datatypes.ServerCapabilities, req etpmsg.RequestSession) etpmsg.OpenSession {
	return etpmsg.OpenSession{
		ApplicationName:      serverCapabilities.ApplicationName,
		ApplicationVersion:   serverCapabilities.ApplicationVersion,
		SupportedProtocols:   negotiate.Protocols(serverCapabilities.SupportedProtocols, req.RequestedProtocols),
		SupportedDataObjects: negotiate.DataObjects(serverCapabilities.SupportedDataObjects, req.SupportedDataObjects),
		SupportedFormats:     serverCapabilities.SupportedFormats,
		EndpointCapabilities: negotiate.Capabilities(serverCapabilities.EndpointCapabilities, req.EndpointCapabilities),
	}
}

// DefaultServerHandler answers Core_RequestSession with NegotiatedOpenSession
// and delegates everything else to Inner (or handler.DefaultHandler{} if
// Inner is nil). It's the batteries-included server handler: an application
// that needs to reject a session, alter the negotiated reply, or inject
// extra messages at establishment supplies its own handler.Handler instead,
// calling NegotiatedOpenSession itself or not at all.
type DefaultServerHandler struct {
	ServerCapabilities datatypes.ServerCapabilities
	Inner              handler.Handler
}

func (h DefaultServerHandler) Handle(in etpmsg.ProtocolMessage) []etpmsg.ProtocolMessage {
	if req, ok := in.(etpmsg.RequestSession); ok {
		return []etpmsg.ProtocolMessage{NegotiatedOpenSession(h.ServerCapabilities, req)}
	}
	inner := h.Inner
	if inner == nil {
		inner = handler.DefaultHandler{}
	}
	return inner.Handle(in)
}
