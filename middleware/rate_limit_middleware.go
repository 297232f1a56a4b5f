package middleware

import (
	"golang.org/x/time/rate"

	"github.com/geosiris-technologies/etpproto-go/etpmsg"
)

// RateLimitMiddleware bounds how many messages per second a connection's
// handler will process, token-bucket style, guarding against a peer that
// floods requests past what the store behind the handler can sustain.
//
// The limiter is created in the OUTER closure, once per middleware
// construction, not per call — a fresh limiter per call would always have
// a full bucket and never actually limit anything.
func RateLimitMiddleware(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next HandleFunc) HandleFunc {
		return func(in etpmsg.ProtocolMessage) []etpmsg.ProtocolMessage {
			if !limiter.Allow() {
				return []etpmsg.ProtocolMessage{etpmsg.ProtocolException{
					ErrorCode:    etpmsg.ErrCodeRequestDenied,
					ErrorMessage: "rate limit exceeded",
				}}
			}
			return next(in)
		}
	}
}
