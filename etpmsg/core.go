package etpmsg

import (
	"github.com/geosiris-technologies/etpproto-go/datatypes"
	"github.com/geosiris-technologies/etpproto-go/wire"
)

// Core protocol message type identifiers (protocol 0).
const (
	MsgRequestSession  int32 = 1
	MsgOpenSession     int32 = 2
	MsgCloseSession    int32 = 3
	MsgPing            int32 = 4
	MsgPong            int32 = 5
	MsgProtocolException int32 = 1000
	MsgAcknowledge     int32 = 1001
)

func init() {
	RegisterBody(ProtocolCore, MsgRequestSession, func(b []byte) (ProtocolMessage, error) { return unmarshalRequestSession(b) })
	RegisterBody(ProtocolCore, MsgOpenSession, func(b []byte) (ProtocolMessage, error) { return unmarshalOpenSession(b) })
	RegisterBody(ProtocolCore, MsgCloseSession, func(b []byte) (ProtocolMessage, error) { return unmarshalCloseSession(b) })
	RegisterBody(ProtocolCore, MsgPing, func(b []byte) (ProtocolMessage, error) { return unmarshalPing(b) })
	RegisterBody(ProtocolCore, MsgPong, func(b []byte) (ProtocolMessage, error) { return unmarshalPong(b) })
	RegisterBody(ProtocolCore, MsgProtocolException, func(b []byte) (ProtocolMessage, error) { return unmarshalProtocolException(b) })
	RegisterBody(ProtocolCore, MsgAcknowledge, func(b []byte) (ProtocolMessage, error) { return unmarshalAcknowledge(b) })
}

// RequestSession is a client's opening bid: the protocols it wants, its
// capabilities, and (optionally) the credential it's authenticating with.
type RequestSession struct {
	ApplicationName      string
	ApplicationVersion   string
	RequestedProtocols   []datatypes.SupportedProtocol
	SupportedDataObjects []datatypes.SupportedDataObject
	SupportedCompression []string
	SupportedFormats     []string
	EndpointCapabilities map[string]datatypes.DataValue
}

func (RequestSession) Protocol() int32    { return ProtocolCore }
func (RequestSession) MessageType() int32 { return MsgRequestSession }

func (m RequestSession) MarshalBody() []byte {
	var buf []byte
	buf = wire.PutString(buf, m.ApplicationName)
	buf = wire.PutString(buf, m.ApplicationVersion)
	buf = datatypes.MarshalSupportedProtocols(buf, m.RequestedProtocols)
	buf = wire.PutVarintZigzag64(buf, int64(len(m.SupportedDataObjects)))
	for _, o := range m.SupportedDataObjects {
		buf = wire.PutString(buf, o.QualifiedType)
		buf = datatypes.MarshalCapabilities(buf, o.DataObjectCapabilities)
	}
	buf = datatypes.MarshalStrings(buf, m.SupportedCompression)
	buf = datatypes.MarshalStrings(buf, m.SupportedFormats)
	buf = datatypes.MarshalCapabilities(buf, m.EndpointCapabilities)
	return buf
}

func unmarshalRequestSession(buf []byte) (RequestSession, error) {
	var m RequestSession
	off := 0
	appName, n, err := wire.String(buf[off:])
	if err != nil {
		return m, err
	}
	m.ApplicationName = appName
	off += n
	appVer, n, err := wire.String(buf[off:])
	if err != nil {
		return m, err
	}
	m.ApplicationVersion = appVer
	off += n
	protos, n, err := datatypes.UnmarshalSupportedProtocols(buf[off:])
	if err != nil {
		return m, err
	}
	m.RequestedProtocols = protos
	off += n
	objCount, n, err := wire.VarintZigzag64(buf[off:])
	if err != nil {
		return m, err
	}
	off += n
	for i := int64(0); i < objCount; i++ {
		qt, n, err := wire.String(buf[off:])
		if err != nil {
			return m, err
		}
		off += n
		caps, n, err := datatypes.UnmarshalCapabilities(buf[off:])
		if err != nil {
			return m, err
		}
		off += n
		m.SupportedDataObjects = append(m.SupportedDataObjects, datatypes.SupportedDataObject{
			QualifiedType:          qt,
			DataObjectCapabilities: caps,
		})
	}
	compression, n, err := datatypes.UnmarshalStrings(buf[off:])
	if err != nil {
		return m, err
	}
	m.SupportedCompression = compression
	off += n
	formats, n, err := datatypes.UnmarshalStrings(buf[off:])
	if err != nil {
		return m, err
	}
	m.SupportedFormats = formats
	off += n
	epCaps, _, err := datatypes.UnmarshalCapabilities(buf[off:])
	if err != nil {
		return m, err
	}
	m.EndpointCapabilities = epCaps
	return m, nil
}

// OpenSession is the server's accept reply: the negotiated protocol/object
// lists and the negotiated endpoint capabilities (§4.3).
type OpenSession struct {
	ApplicationName      string
	ApplicationVersion   string
	SupportedProtocols   []datatypes.SupportedProtocol
	SupportedDataObjects []datatypes.SupportedDataObject
	SupportedCompression string
	SupportedFormats     []string
	EndpointCapabilities map[string]datatypes.DataValue
	SessionID            string
}

func (OpenSession) Protocol() int32    { return ProtocolCore }
func (OpenSession) MessageType() int32 { return MsgOpenSession }

func (m OpenSession) MarshalBody() []byte {
	var buf []byte
	buf = wire.PutString(buf, m.ApplicationName)
	buf = wire.PutString(buf, m.ApplicationVersion)
	buf = datatypes.MarshalSupportedProtocols(buf, m.SupportedProtocols)
	buf = wire.PutVarintZigzag64(buf, int64(len(m.SupportedDataObjects)))
	for _, o := range m.SupportedDataObjects {
		buf = wire.PutString(buf, o.QualifiedType)
		buf = datatypes.MarshalCapabilities(buf, o.DataObjectCapabilities)
	}
	buf = wire.PutString(buf, m.SupportedCompression)
	buf = datatypes.MarshalStrings(buf, m.SupportedFormats)
	buf = datatypes.MarshalCapabilities(buf, m.EndpointCapabilities)
	buf = wire.PutString(buf, m.SessionID)
	return buf
}

func unmarshalOpenSession(buf []byte) (OpenSession, error) {
	var m OpenSession
	off := 0
	appName, n, err := wire.String(buf[off:])
	if err != nil {
		return m, err
	}
	m.ApplicationName = appName
	off += n
	appVer, n, err := wire.String(buf[off:])
	if err != nil {
		return m, err
	}
	m.ApplicationVersion = appVer
	off += n
	protos, n, err := datatypes.UnmarshalSupportedProtocols(buf[off:])
	if err != nil {
		return m, err
	}
	m.SupportedProtocols = protos
	off += n
	objCount, n, err := wire.VarintZigzag64(buf[off:])
	if err != nil {
		return m, err
	}
	off += n
	for i := int64(0); i < objCount; i++ {
		qt, n, err := wire.String(buf[off:])
		if err != nil {
			return m, err
		}
		off += n
		caps, n, err := datatypes.UnmarshalCapabilities(buf[off:])
		if err != nil {
			return m, err
		}
		off += n
		m.SupportedDataObjects = append(m.SupportedDataObjects, datatypes.SupportedDataObject{
			QualifiedType:          qt,
			DataObjectCapabilities: caps,
		})
	}
	compression, n, err := wire.String(buf[off:])
	if err != nil {
		return m, err
	}
	m.SupportedCompression = compression
	off += n
	formats, n, err := datatypes.UnmarshalStrings(buf[off:])
	if err != nil {
		return m, err
	}
	m.SupportedFormats = formats
	off += n
	epCaps, n, err := datatypes.UnmarshalCapabilities(buf[off:])
	if err != nil {
		return m, err
	}
	m.EndpointCapabilities = epCaps
	off += n
	sessID, _, err := wire.String(buf[off:])
	if err != nil {
		return m, err
	}
	m.SessionID = sessID
	return m, nil
}

// CloseSession ends the session. Reason is informational only.
type CloseSession struct {
	Reason string
}

func (CloseSession) Protocol() int32    { return ProtocolCore }
func (CloseSession) MessageType() int32 { return MsgCloseSession }

func (m CloseSession) MarshalBody() []byte {
	return wire.PutString(nil, m.Reason)
}

func unmarshalCloseSession(buf []byte) (CloseSession, error) {
	reason, _, err := wire.String(buf)
	if err != nil {
		return CloseSession{}, err
	}
	return CloseSession{Reason: reason}, nil
}

// Ping/Pong are the keepalive pair. CurrentDateTime is epoch milliseconds;
// kept as int64 since wall-clock formatting is outside the codec's concern.
type Ping struct {
	CurrentDateTime int64
}

func (Ping) Protocol() int32    { return ProtocolCore }
func (Ping) MessageType() int32 { return MsgPing }

func (m Ping) MarshalBody() []byte {
	return wire.PutVarintZigzag64(nil, m.CurrentDateTime)
}

func unmarshalPing(buf []byte) (Ping, error) {
	v, _, err := wire.VarintZigzag64(buf)
	if err != nil {
		return Ping{}, err
	}
	return Ping{CurrentDateTime: v}, nil
}

type Pong struct {
	CurrentDateTime int64
}

func (Pong) Protocol() int32    { return ProtocolCore }
func (Pong) MessageType() int32 { return MsgPong }

func (m Pong) MarshalBody() []byte {
	return wire.PutVarintZigzag64(nil, m.CurrentDateTime)
}

func unmarshalPong(buf []byte) (Pong, error) {
	v, _, err := wire.VarintZigzag64(buf)
	if err != nil {
		return Pong{}, err
	}
	return Pong{CurrentDateTime: v}, nil
}

// ProtocolException carries an error code and message; it has no
// correlation requirement of its own (it answers whatever request_denied it
// reports on).
type ProtocolException struct {
	ErrorCode    string
	ErrorMessage string
}

func (ProtocolException) Protocol() int32    { return ProtocolCore }
func (ProtocolException) MessageType() int32 { return MsgProtocolException }

func (m ProtocolException) MarshalBody() []byte {
	var buf []byte
	buf = wire.PutString(buf, m.ErrorCode)
	buf = wire.PutString(buf, m.ErrorMessage)
	return buf
}

func unmarshalProtocolException(buf []byte) (ProtocolException, error) {
	var m ProtocolException
	code, n, err := wire.String(buf)
	if err != nil {
		return m, err
	}
	m.ErrorCode = code
	msg, _, err := wire.String(buf[n:])
	if err != nil {
		return m, err
	}
	m.ErrorMessage = msg
	return m, nil
}

// Acknowledge is the empty reply sent when FlagAcknowledge is set on an
// inbound message (§4.4).
type Acknowledge struct{}

func (Acknowledge) Protocol() int32    { return ProtocolCore }
func (Acknowledge) MessageType() int32 { return MsgAcknowledge }
func (Acknowledge) MarshalBody() []byte { return nil }

func unmarshalAcknowledge([]byte) (Acknowledge, error) {
	return Acknowledge{}, nil
}

// Well-known ProtocolException error codes used by package session.
const (
	ErrCodeRequestDenied        = "request_denied"
	ErrCodeUnsupportedProtocol  = "unsupported_protocol"
	ErrCodeInvalidState         = "invalid_state"
	ErrCodeAuthorizationExpired = "eauthorization_expired"
	ErrCodeInvalidMessageType   = "einvalid_message_type"
)
