package session

import (
	"testing"

	"github.com/geosiris-technologies/etpproto-go/datatypes"
	"github.com/geosiris-technologies/etpproto-go/etpmsg"
	"github.com/geosiris-technologies/etpproto-go/handler"
)

func decodeOne(t *testing.T, frames [][]byte) etpmsg.Envelope {
	t.Helper()
	if len(frames) != 1 {
		t.Fatalf("expected exactly 1 reply frame, got %d", len(frames))
	}
	env, err := etpmsg.Decode(frames[0])
	if err != nil {
		t.Fatalf("Decode reply: %v", err)
	}
	return env
}

func TestMessageIDAllocationStartsByRole(t *testing.T) {
	srv := NewServerConnection(handler.DefaultHandler{}, datatypes.ServerCapabilities{})
	if got := srv.consumeMessageID(); got != 1 {
		t.Errorf("server first message_id = %d, want 1", got)
	}
	if got := srv.consumeMessageID(); got != 2 {
		t.Errorf("server second message_id = %d, want 2", got)
	}

	cli := NewClientConnection(handler.DefaultHandler{})
	if got := cli.consumeMessageID(); got != 2 {
		t.Errorf("client first message_id = %d, want 2", got)
	}
	if got := cli.consumeMessageID(); got != 3 {
		t.Errorf("client second message_id = %d, want 3", got)
	}
}

// TestSessionLifecycle implements scenario S5 on the server side: a Ping
// before RequestSession is denied with request_denied, RequestSession ->
// OpenSession establishes the session, Ping -> Pong round-trips, and
// CloseSession is mirrored by the server (the client side is covered by
// TestClientSideDoesNotMirrorCloseSession).
func TestSessionLifecycle(t *testing.T) {
	srvCaps := datatypes.ServerCapabilities{
		ApplicationName:    "etpproto-go-test-store",
		ApplicationVersion: "1.0.0",
		EndpointCapabilities: map[string]datatypes.DataValue{
			string(datatypes.ActiveTimeoutPeriod): datatypes.NewLong(120),
		},
	}
	srv := NewServerConnection(DefaultServerHandler{ServerCapabilities: srvCaps}, srvCaps)

	ping := etpmsg.Ping{CurrentDateTime: 1}
	frame := etpmsg.Encode(0, 2, etpmsg.FlagFinal, ping, nil)
	frames, err := srv.HandleFrame(frame)
	if err != nil {
		t.Fatalf("HandleFrame: %v", err)
	}
	env := decodeOne(t, frames)
	exc, ok := env.Body.(etpmsg.ProtocolException)
	if !ok {
		t.Fatalf("expected ProtocolException before RequestSession, got %T", env.Body)
	}
	if exc.ErrorCode != etpmsg.ErrCodeRequestDenied {
		t.Errorf("ErrorCode = %q, want %q", exc.ErrorCode, etpmsg.ErrCodeRequestDenied)
	}
	if srv.State() != StateUnestablished {
		t.Errorf("state = %v, want Unestablished (denial must not establish)", srv.State())
	}

	reqSession := etpmsg.RequestSession{
		ApplicationName: "etpproto-go-test-client",
		EndpointCapabilities: map[string]datatypes.DataValue{
			string(datatypes.ActiveTimeoutPeriod): datatypes.NewLong(90),
		},
	}
	frame = etpmsg.Encode(0, 2, etpmsg.FlagFinal, reqSession, nil)
	frames, err = srv.HandleFrame(frame)
	if err != nil {
		t.Fatalf("HandleFrame: %v", err)
	}
	env = decodeOne(t, frames)
	open, ok := env.Body.(etpmsg.OpenSession)
	if !ok {
		t.Fatalf("expected OpenSession, got %T", env.Body)
	}
	if srv.State() != StateEstablished {
		t.Errorf("state = %v, want Established", srv.State())
	}
	if v, _ := open.EndpointCapabilities[string(datatypes.ActiveTimeoutPeriod)].AsInt64(); v != 90 {
		t.Errorf("negotiated ActiveTimeoutPeriod = %d, want 90 (min of 120,90)", v)
	}
	if env.Header.CorrelationID != 2 {
		t.Errorf("OpenSession correlation_id = %d, want 2 (the RequestSession's message_id)", env.Header.CorrelationID)
	}

	frame = etpmsg.Encode(0, 4, etpmsg.FlagFinal, etpmsg.Ping{CurrentDateTime: 99}, nil)
	frames, err = srv.HandleFrame(frame)
	if err != nil {
		t.Fatalf("HandleFrame: %v", err)
	}
	env = decodeOne(t, frames)
	pong, ok := env.Body.(etpmsg.Pong)
	if !ok {
		t.Fatalf("expected Pong, got %T", env.Body)
	}
	if pong.CurrentDateTime != 99 {
		t.Errorf("Pong.CurrentDateTime = %d, want 99", pong.CurrentDateTime)
	}

	frame = etpmsg.Encode(0, 6, etpmsg.FlagFinal, etpmsg.CloseSession{Reason: "done"}, nil)
	frames, err = srv.HandleFrame(frame)
	if err != nil {
		t.Fatalf("HandleFrame: %v", err)
	}
	env = decodeOne(t, frames)
	closeReply, ok := env.Body.(etpmsg.CloseSession)
	if !ok {
		t.Fatalf("expected mirrored CloseSession from server, got %T", env.Body)
	}
	if closeReply.Reason == "" {
		t.Errorf("expected a non-empty mirror reason")
	}
	if srv.State() != StateClosed {
		t.Errorf("state = %v, want Closed", srv.State())
	}
	if srv.serverCapabilities != nil {
		t.Errorf("serverCapabilities should be cleared on close, got %+v", srv.serverCapabilities)
	}
}

func TestClientSideDoesNotMirrorCloseSession(t *testing.T) {
	cli := NewClientConnection(handler.DefaultHandler{})
	open := etpmsg.OpenSession{ApplicationName: "srv"}
	frame := etpmsg.Encode(0, 1, etpmsg.FlagFinal, open, nil)
	if _, err := cli.HandleFrame(frame); err != nil {
		t.Fatalf("HandleFrame: %v", err)
	}
	if cli.State() != StateEstablished {
		t.Fatalf("state = %v, want Established", cli.State())
	}

	frame = etpmsg.Encode(0, 1, etpmsg.FlagFinal, etpmsg.CloseSession{Reason: "server closing"}, nil)
	frames, err := cli.HandleFrame(frame)
	if err != nil {
		t.Fatalf("HandleFrame: %v", err)
	}
	if len(frames) != 0 {
		t.Errorf("expected no reply from client on CloseSession, got %d frames", len(frames))
	}
	if cli.State() != StateClosed {
		t.Errorf("state = %v, want Closed", cli.State())
	}
}

func TestClientStrictOnNonOpenSessionFirstMessage(t *testing.T) {
	cli := NewClientConnection(handler.DefaultHandler{})
	frame := etpmsg.Encode(0, 1, etpmsg.FlagFinal, etpmsg.Ping{CurrentDateTime: 1}, nil)
	frames, err := cli.HandleFrame(frame)
	if err != nil {
		t.Fatalf("HandleFrame: %v", err)
	}
	env := decodeOne(t, frames)
	if _, ok := env.Body.(etpmsg.ProtocolException); !ok {
		t.Fatalf("expected ProtocolException, got %T (deviation: original silently drops this)", env.Body)
	}
	if cli.State() != StateUnestablished {
		t.Errorf("state = %v, want Unestablished", cli.State())
	}
}

// TestHandlerCanRejectRequestSession confirms a custom Handler, not
// Connection, decides whether a RequestSession is accepted: a handler that
// never returns a Core_OpenSession must leave the connection Unestablished,
// per §4.4.
func TestHandlerCanRejectRequestSession(t *testing.T) {
	srv := NewServerConnection(handler.HandlerFunc(func(in etpmsg.ProtocolMessage) []etpmsg.ProtocolMessage {
		return []etpmsg.ProtocolMessage{etpmsg.ProtocolException{
			ErrorCode:    etpmsg.ErrCodeRequestDenied,
			ErrorMessage: "no thanks",
		}}
	}), datatypes.ServerCapabilities{})

	frame := etpmsg.Encode(0, 2, etpmsg.FlagFinal, etpmsg.RequestSession{}, nil)
	frames, err := srv.HandleFrame(frame)
	if err != nil {
		t.Fatalf("HandleFrame: %v", err)
	}
	env := decodeOne(t, frames)
	if _, ok := env.Body.(etpmsg.ProtocolException); !ok {
		t.Fatalf("expected the handler's ProtocolException, got %T", env.Body)
	}
	if srv.State() != StateUnestablished {
		t.Errorf("state = %v, want Unestablished (handler never returned OpenSession)", srv.State())
	}
}

// TestClientHandlerInvokedOnOpenSession confirms the client side also
// routes the inbound OpenSession through its Handler rather than just
// updating state directly, per §4.4.
func TestClientHandlerInvokedOnOpenSession(t *testing.T) {
	var seen etpmsg.ProtocolMessage
	cli := NewClientConnection(handler.HandlerFunc(func(in etpmsg.ProtocolMessage) []etpmsg.ProtocolMessage {
		seen = in
		return []etpmsg.ProtocolMessage{etpmsg.Pong{CurrentDateTime: 1}}
	}))

	open := etpmsg.OpenSession{ApplicationName: "srv"}
	frame := etpmsg.Encode(0, 1, etpmsg.FlagFinal, open, nil)
	frames, err := cli.HandleFrame(frame)
	if err != nil {
		t.Fatalf("HandleFrame: %v", err)
	}
	if _, ok := seen.(etpmsg.OpenSession); !ok {
		t.Fatalf("handler was invoked with %T, want OpenSession", seen)
	}
	if cli.State() != StateEstablished {
		t.Errorf("state = %v, want Established", cli.State())
	}
	env := decodeOne(t, frames)
	if _, ok := env.Body.(etpmsg.Pong); !ok {
		t.Errorf("expected the handler's Pong reply, got %T", env.Body)
	}
}

func TestAcknowledgeSentBeforeHandlerReply(t *testing.T) {
	srv := NewServerConnection(DefaultServerHandler{
		ServerCapabilities: datatypes.ServerCapabilities{},
		Inner: handler.HandlerFunc(func(in etpmsg.ProtocolMessage) []etpmsg.ProtocolMessage {
			return []etpmsg.ProtocolMessage{etpmsg.Pong{CurrentDateTime: 5}}
		}),
	}, datatypes.ServerCapabilities{})

	frame := etpmsg.Encode(0, 2, etpmsg.FlagFinal, etpmsg.RequestSession{}, nil)
	if _, err := srv.HandleFrame(frame); err != nil {
		t.Fatalf("HandleFrame: %v", err)
	}

	frame = etpmsg.Encode(0, 4, etpmsg.FlagFinal|etpmsg.FlagAcknowledge, etpmsg.GetDataObjects{}, nil)
	frames, err := srv.HandleFrame(frame)
	if err != nil {
		t.Fatalf("HandleFrame: %v", err)
	}
	if len(frames) < 1 {
		t.Fatalf("expected at least an Acknowledge reply")
	}
	first, err := etpmsg.Decode(frames[0])
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if _, ok := first.Body.(etpmsg.Acknowledge); !ok {
		t.Errorf("first reply = %T, want Acknowledge", first.Body)
	}
}

func TestAutoCloseOnAuthorizationExpired(t *testing.T) {
	srv := NewServerConnection(DefaultServerHandler{}, datatypes.ServerCapabilities{})
	frame := etpmsg.Encode(0, 2, etpmsg.FlagFinal, etpmsg.RequestSession{}, nil)
	if _, err := srv.HandleFrame(frame); err != nil {
		t.Fatalf("HandleFrame: %v", err)
	}

	frame = etpmsg.Encode(0, 4, etpmsg.FlagFinal, etpmsg.ProtocolException{ErrorCode: etpmsg.ErrCodeAuthorizationExpired}, nil)
	if _, err := srv.HandleFrame(frame); err != nil {
		t.Fatalf("HandleFrame: %v", err)
	}
	if srv.State() != StateClosed {
		t.Errorf("state = %v, want Closed after inbound EAUTHORIZATION_EXPIRED", srv.State())
	}
}

func TestAutoCloseOnInvalidMessageType(t *testing.T) {
	srv := NewServerConnection(DefaultServerHandler{}, datatypes.ServerCapabilities{})
	frame := etpmsg.Encode(0, 2, etpmsg.FlagFinal, etpmsg.RequestSession{}, nil)
	if _, err := srv.HandleFrame(frame); err != nil {
		t.Fatalf("HandleFrame: %v", err)
	}

	frame = etpmsg.Encode(0, 4, etpmsg.FlagFinal, etpmsg.ProtocolException{ErrorCode: etpmsg.ErrCodeInvalidMessageType}, nil)
	if _, err := srv.HandleFrame(frame); err != nil {
		t.Fatalf("HandleFrame: %v", err)
	}
	if srv.State() != StateClosed {
		t.Errorf("state = %v, want Closed after inbound EINVALID_MESSAGE_TYPE", srv.State())
	}
}

func TestNonFatalExceptionDoesNotClose(t *testing.T) {
	srv := NewServerConnection(DefaultServerHandler{}, datatypes.ServerCapabilities{})
	frame := etpmsg.Encode(0, 2, etpmsg.FlagFinal, etpmsg.RequestSession{}, nil)
	if _, err := srv.HandleFrame(frame); err != nil {
		t.Fatalf("HandleFrame: %v", err)
	}

	frame = etpmsg.Encode(0, 4, etpmsg.FlagFinal, etpmsg.ProtocolException{ErrorCode: etpmsg.ErrCodeRequestDenied}, nil)
	if _, err := srv.HandleFrame(frame); err != nil {
		t.Fatalf("HandleFrame: %v", err)
	}
	if srv.State() != StateEstablished {
		t.Errorf("state = %v, want still Established after a non-fatal ProtocolException", srv.State())
	}
}
