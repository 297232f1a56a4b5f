package middleware

import (
	"log"
	"time"

	"github.com/geosiris-technologies/etpproto-go/etpmsg"
)

// LoggingMiddleware records the inbound message's (protocol, message_type)
// and the handler's duration and reply count.
func LoggingMiddleware() Middleware {
	return func(next HandleFunc) HandleFunc {
		return func(in etpmsg.ProtocolMessage) []etpmsg.ProtocolMessage {
			start := time.Now()
			out := next(in)
			log.Printf("protocol=%d message_type=%d duration=%s replies=%d",
				in.Protocol(), in.MessageType(), time.Since(start), len(out))
			for _, r := range out {
				if exc, ok := r.(etpmsg.ProtocolException); ok {
					log.Printf("error_code=%s error_message=%s", exc.ErrorCode, exc.ErrorMessage)
				}
			}
			return out
		}
	}
}
