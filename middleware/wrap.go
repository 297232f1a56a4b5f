package middleware

import (
	"github.com/geosiris-technologies/etpproto-go/etpmsg"
	"github.com/geosiris-technologies/etpproto-go/handler"
)

// Wrap adapts a handler.Handler into the HandleFunc shape a Middleware
// chain operates over.
func Wrap(h handler.Handler) HandleFunc {
	return h.Handle
}

// Apply builds handler.Handler wrapping h with the given middlewares, for
// passing straight into session.NewServerConnection/NewClientConnection.
func Apply(h handler.Handler, middlewares ...Middleware) handler.Handler {
	chained := Chain(middlewares...)(Wrap(h))
	return handler.HandlerFunc(func(in etpmsg.ProtocolMessage) []etpmsg.ProtocolMessage {
		return chained(in)
	})
}
