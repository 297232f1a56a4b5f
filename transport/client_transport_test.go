package transport

import (
	"net"
	"sync"
	"testing"

	"github.com/geosiris-technologies/etpproto-go/etpmsg"
)

// pingPongListener accepts one connection and echoes every inbound Ping
// back as a Pong correlated to the inbound message_id, enough to drive
// ClientTransport's send/receive multiplexing without pulling in the
// session state machine.
func pingPongListener(t *testing.T, ln net.Listener) {
	t.Helper()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			frame, err := ReadFrame(conn)
			if err != nil {
				return
			}
			env, err := etpmsg.Decode(frame)
			if err != nil {
				continue
			}
			ping, ok := env.Body.(etpmsg.Ping)
			if !ok {
				continue
			}
			reply := etpmsg.Encode(env.Header.MessageID, env.Header.MessageID+1000,
				etpmsg.FlagFinal, etpmsg.Pong{CurrentDateTime: ping.CurrentDateTime}, nil)
			if err := WriteFrame(conn, reply); err != nil {
				return
			}
		}
	}()
}

func dialTransport(t *testing.T) (*ClientTransport, net.Listener) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	pingPongListener(t, ln)

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	return NewClientTransport(conn), ln
}

// TestClientTransportSerial sends several Pings one at a time, waiting
// for each correlated Pong before sending the next.
func TestClientTransportSerial(t *testing.T) {
	ct, ln := dialTransport(t)
	defer ln.Close()
	defer ct.Close()

	for _, ts := range []int64{1, 2, 3} {
		messageID := ts
		frame := etpmsg.Encode(0, messageID, etpmsg.FlagFinal, etpmsg.Ping{CurrentDateTime: ts}, nil)
		ch, err := ct.Send(messageID, frame)
		if err != nil {
			t.Fatalf("Send: %v", err)
		}
		env := <-ch
		pong, ok := env.Body.(etpmsg.Pong)
		if !ok {
			t.Fatalf("expected Pong, got %T", env.Body)
		}
		if pong.CurrentDateTime != ts {
			t.Errorf("Pong.CurrentDateTime = %d, want %d", pong.CurrentDateTime, ts)
		}
	}
}

// TestClientTransportConcurrent sends many Pings concurrently on one
// connection and checks every correlation_id routes to its own waiter —
// the core multiplexing guarantee the prior implementation's pending-map pattern
// provides.
func TestClientTransportConcurrent(t *testing.T) {
	ct, ln := dialTransport(t)
	defer ln.Close()
	defer ct.Close()

	var wg sync.WaitGroup
	for i := int64(0); i < 50; i++ {
		wg.Add(1)
		go func(messageID int64) {
			defer wg.Done()
			frame := etpmsg.Encode(0, messageID, etpmsg.FlagFinal, etpmsg.Ping{CurrentDateTime: messageID}, nil)
			ch, err := ct.Send(messageID, frame)
			if err != nil {
				t.Errorf("Send: %v", err)
				return
			}
			env := <-ch
			pong, ok := env.Body.(etpmsg.Pong)
			if !ok {
				t.Errorf("expected Pong, got %T", env.Body)
				return
			}
			if pong.CurrentDateTime != messageID {
				t.Errorf("Pong.CurrentDateTime = %d, want %d", pong.CurrentDateTime, messageID)
			}
		}(i)
	}
	wg.Wait()
}
