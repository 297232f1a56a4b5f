// Package etpclient is the thin dial-and-handshake glue that turns a
// transport.ClientTransport and session.Connection into a usable ETP
// customer: optionally discover a store instance via package endpoint,
// dial it, send RequestSession, and block for the negotiated
// OpenSession.
//
// Grounded on the prior implementation's client/client.go: Discover → Pick → dial →
// Call, generalized from the prior implementation's per-call service/method addressing
// (every Call does discovery + balancing again) to ETP's one-time
// session establishment (discovery happens once, at Open, since every
// later message reuses the same connection).
package etpclient

import (
	"fmt"
	"net"
	"time"

	"github.com/geosiris-technologies/etpproto-go/endpoint"
	"github.com/geosiris-technologies/etpproto-go/etpmsg"
	"github.com/geosiris-technologies/etpproto-go/handler"
	"github.com/geosiris-technologies/etpproto-go/session"
	"github.com/geosiris-technologies/etpproto-go/transport"
)

// Client is one established ETP customer session: a dialed transport
// plus the client-role state machine driving it.
type Client struct {
	transport *transport.ClientTransport
	session   *session.Connection
}

// Dial connects directly to address (no discovery) and negotiates a
// session, blocking up to timeout for the server's OpenSession reply.
func Dial(network, address string, h handler.Handler, request etpmsg.RequestSession, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout(network, address, timeout)
	if err != nil {
		return nil, err
	}
	return open(conn, h, request, timeout)
}

// DialDiscovered discovers store instances via reg, picks one with bal
// (keyed on key — typically the dataspace a caller is about to address,
// for ConsistentHashBalancer; ignored by RoundRobin/WeightedRandom), and
// dials it. bal is either an endpoint.Balancer or a
// *endpoint.ConsistentHashBalancer, which has a key-based Pick and so does
// not implement Balancer.
func DialDiscovered(reg endpoint.Registry, bal any, key string, h handler.Handler, request etpmsg.RequestSession, timeout time.Duration) (*Client, error) {
	instances, err := reg.Discover()
	if err != nil {
		return nil, fmt.Errorf("etpclient: discover: %w", err)
	}

	var inst *endpoint.StoreInstance
	switch b := bal.(type) {
	case *endpoint.ConsistentHashBalancer:
		inst, err = b.Pick(key)
	case endpoint.Balancer:
		inst, err = b.Pick(instances)
	default:
		err = fmt.Errorf("unsupported balancer type %T", bal)
	}
	if err != nil {
		return nil, fmt.Errorf("etpclient: pick instance: %w", err)
	}

	return Dial("tcp", inst.Addr, h, request, timeout)
}

func open(conn net.Conn, h handler.Handler, request etpmsg.RequestSession, timeout time.Duration) (*Client, error) {
	ct := transport.NewClientTransport(conn)
	sess := session.NewClientConnection(h)

	messageID := sess.AllocateMessageID()
	frame := etpmsg.Encode(0, messageID, etpmsg.FlagFinal, request, nil)
	respChan, err := ct.Send(messageID, frame)
	if err != nil {
		ct.Close()
		return nil, err
	}

	select {
	case env, ok := <-respChan:
		if !ok {
			ct.Close()
			return nil, fmt.Errorf("etpclient: connection closed before OpenSession")
		}
		if exc, ok := env.Body.(etpmsg.ProtocolException); ok {
			ct.Close()
			return nil, fmt.Errorf("etpclient: server denied session: %s: %s", exc.ErrorCode, exc.ErrorMessage)
		}
		if _, ok := env.Body.(etpmsg.OpenSession); !ok {
			ct.Close()
			return nil, fmt.Errorf("etpclient: expected OpenSession, got %T", env.Body)
		}
		// Feed the already-decoded OpenSession through the state machine
		// so sess transitions Unestablished -> Established exactly as it
		// would for any inbound frame (§4.4), sending along whatever h
		// answers OpenSession with.
		for _, reply := range sess.HandleEnvelope(env) {
			if err := transport.WriteFrame(ct.Conn(), reply); err != nil {
				ct.Close()
				return nil, err
			}
		}
	case <-time.After(timeout):
		ct.Close()
		return nil, fmt.Errorf("etpclient: timed out waiting for OpenSession")
	}

	return &Client{transport: ct, session: sess}, nil
}

// State returns the underlying session's lifecycle state.
func (c *Client) State() session.State {
	return c.session.State()
}

// AllocateMessageID hands out the next message_id this client should
// stamp on a message it's about to send, for callers building their own
// frames with etpmsg.Encode instead of going through a Call-style helper.
func (c *Client) AllocateMessageID() int64 {
	return c.session.AllocateMessageID()
}

// SendRaw writes an already-encoded frame (typically from etpmsg.Encode)
// and returns a channel that receives the reply envelope correlated to
// it, the same way transport.ClientTransport.Send does. A message that
// gets no reply (a one-way PutDataObjects a handler doesn't answer, for
// instance) simply leaves its channel unused; the caller isn't required
// to read from it.
func (c *Client) SendRaw(frame []byte) (<-chan etpmsg.Envelope, error) {
	header, _, err := etpmsg.DecodeHeader(frame)
	if err != nil {
		return nil, fmt.Errorf("etpclient: SendRaw: %w", err)
	}
	return c.transport.Send(header.MessageID, frame)
}

// Close sends CloseSession and closes the underlying connection.
func (c *Client) Close() error {
	messageID := c.session.AllocateMessageID()
	frame := etpmsg.Encode(0, messageID, etpmsg.FlagFinal, etpmsg.CloseSession{Reason: "client closing"}, nil)
	if _, err := c.transport.Send(messageID, frame); err != nil {
		return c.transport.Close()
	}
	return c.transport.Close()
}
