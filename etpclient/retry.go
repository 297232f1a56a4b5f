package etpclient

import (
	"time"

	"github.com/geosiris-technologies/etpproto-go/etpmsg"
	"github.com/geosiris-technologies/etpproto-go/handler"
)

// DialWithRetry calls Dial, retrying up to maxRetries times with
// exponential backoff (baseDelay, baseDelay*2, baseDelay*4, ...) when the
// attempt fails. ETP has no per-message retry concept — once a session is
// open, a failed exchange is a protocol-level ProtocolException the caller
// must handle, not a transient fault — but establishing the underlying
// socket is exactly the kind of transient failure the prior implementation's
// RetryMiddleware targets, so that backoff shape is reused here for
// connection establishment instead of per-call dispatch.
func DialWithRetry(network, address string, maxRetries int, baseDelay time.Duration, h handler.Handler, request etpmsg.RequestSession, timeout time.Duration) (*Client, error) {
	cli, err := Dial(network, address, h, request, timeout)
	for i := 0; i < maxRetries && err != nil; i++ {
		time.Sleep(baseDelay * time.Duration(uint(1)<<uint(i)))
		cli, err = Dial(network, address, h, request, timeout)
	}
	return cli, err
}
