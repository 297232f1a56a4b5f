package middleware

import (
	"time"

	"github.com/geosiris-technologies/etpproto-go/etpmsg"
)

// TimeOutMiddleware guards against a Handler that never returns: ETP's
// dispatch is meant to be compute-only and non-suspending (§5),
// so a handler blowing that budget is a bug, not a normal slow path — this
// is a safety net, not a retry or backpressure mechanism.
//
// The handler goroutine is NOT cancelled on timeout; it keeps running in
// the background and its result, if any, is discarded.
func TimeOutMiddleware(timeout time.Duration) Middleware {
	return func(next HandleFunc) HandleFunc {
		return func(in etpmsg.ProtocolMessage) []etpmsg.ProtocolMessage {
			done := make(chan []etpmsg.ProtocolMessage, 1)
			go func() {
				done <- next(in)
			}()

			select {
			case out := <-done:
				return out
			case <-time.After(timeout):
				return []etpmsg.ProtocolMessage{etpmsg.ProtocolException{
					ErrorCode:    etpmsg.ErrCodeRequestDenied,
					ErrorMessage: "handler exceeded its time budget",
				}}
			}
		}
	}
}
