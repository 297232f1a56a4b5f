// Package middleware implements the prior implementation's onion-model chain,
// generalized from wrapping message.RPCMessage request/response pairs to
// wrapping handler.Handler's single inbound-body-to-reply-bodies call.
//
// Onion model execution order:
//
//	Chain(A, B, C)(handler)  →  A(B(C(handler)))
//
//	Request:   A.before → B.before → C.before → handler
//	Response:  handler → C.after → B.after → A.after
package middleware

import "github.com/geosiris-technologies/etpproto-go/etpmsg"

// HandleFunc matches handler.Handler.Handle's signature so a Middleware
// chain can wrap any Handler via HandleFunc(h.Handle).
type HandleFunc func(in etpmsg.ProtocolMessage) []etpmsg.ProtocolMessage

// Middleware takes a handler and returns a new handler that wraps it.
type Middleware func(next HandleFunc) HandleFunc

// Chain composes multiple middlewares into a single middleware, built from
// right to left so the first middleware in the list is the outermost
// layer (executed first on request, last on response).
func Chain(middlewares ...Middleware) Middleware {
	return func(next HandleFunc) HandleFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
