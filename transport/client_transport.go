// Package transport carries already-encoded ETP frames (etpmsg.Encode's
// output) over a duplex byte stream. Physical transport choice is out of
// scope (§1): this package only needs a length-prefix framing
// discipline on top of any net.Conn and a synchronous request/response
// correlation tracker for the client side.
//
// Grounded on the prior implementation's transport/client_transport.go: the
// sending-mutex-protects-one-write-at-a-time pattern, and the
// register-the-response-channel-before-writing / single-reader-goroutine
// pattern for routing replies back to the caller that sent them. The
// sequence number the prior framework multiplexes on is ETP's own correlation_id, so
// no separate sequence counter is needed.
package transport

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/geosiris-technologies/etpproto-go/etpmsg"
)

const maxFrameSize = 64 << 20

// WriteFrame writes one length-prefixed ETP frame to w.
func WriteFrame(w io.Writer, frame []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(frame)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(frame)
	return err
}

// ReadFrame reads one length-prefixed ETP frame from r.
func ReadFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > maxFrameSize {
		return nil, fmt.Errorf("transport: frame of %d bytes exceeds maximum %d", n, maxFrameSize)
	}
	frame := make([]byte, n)
	if _, err := io.ReadFull(r, frame); err != nil {
		return nil, err
	}
	return frame, nil
}

// ClientTransport manages a single duplex connection on the client side,
// correlating outbound messages to their eventual replies by
// correlation_id so a caller can synchronously wait for the answer to the
// message it just sent, while other replies keep arriving on the same
// connection in any order.
type ClientTransport struct {
	conn    net.Conn
	sending sync.Mutex
	pending sync.Map // map[int64]chan etpmsg.Envelope
}

// NewClientTransport wraps conn and starts the background read loop that
// dispatches inbound frames to whichever Send call is waiting on their
// correlation_id.
func NewClientTransport(conn net.Conn) *ClientTransport {
	t := &ClientTransport{conn: conn}
	go t.recvLoop()
	return t
}

// Send writes frame (the output of etpmsg.Encode) and returns a channel
// that receives the reply envelope whose correlation_id matches
// messageID. The channel is registered before the write to avoid a race
// against recvLoop delivering the reply before Send returns.
func (t *ClientTransport) Send(messageID int64, frame []byte) (<-chan etpmsg.Envelope, error) {
	respChan := make(chan etpmsg.Envelope, 1)
	t.pending.Store(messageID, respChan)

	t.sending.Lock()
	err := WriteFrame(t.conn, frame)
	t.sending.Unlock()
	if err != nil {
		t.pending.Delete(messageID)
		return nil, err
	}
	return respChan, nil
}

// recvLoop is the connection's single reader: reads must be sequential to
// correctly parse frame boundaries off a byte stream, so only one
// goroutine ever calls ReadFrame on this conn.
func (t *ClientTransport) recvLoop() {
	for {
		frame, err := ReadFrame(t.conn)
		if err != nil {
			t.closeAllPending()
			return
		}
		env, err := etpmsg.Decode(frame)
		if err != nil {
			continue
		}
		if ch, ok := t.pending.LoadAndDelete(env.Header.CorrelationID); ok {
			ch.(chan etpmsg.Envelope) <- env
		}
	}
}

func (t *ClientTransport) closeAllPending() {
	t.pending.Range(func(key, value any) bool {
		close(value.(chan etpmsg.Envelope))
		return true
	})
}

// Conn returns the underlying connection.
func (t *ClientTransport) Conn() net.Conn {
	return t.conn
}

// Close closes the underlying connection.
func (t *ClientTransport) Close() error {
	return t.conn.Close()
}
