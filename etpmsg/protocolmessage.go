package etpmsg

import "fmt"

// Published protocol identifiers (§6).
const (
	ProtocolCore                      int32 = 0
	ProtocolChannelStreaming          int32 = 1
	ProtocolChannelDataFrame          int32 = 2
	ProtocolDiscovery                 int32 = 3
	ProtocolStore                     int32 = 4
	ProtocolStoreNotification         int32 = 5
	ProtocolGrowingObject             int32 = 6
	ProtocolGrowingObjectNotification int32 = 7
	ProtocolDataArray                 int32 = 9
	ProtocolDiscoveryQuery            int32 = 13
	ProtocolStoreQuery                int32 = 14
	ProtocolGrowingObjectQuery        int32 = 16
	ProtocolTransaction               int32 = 18
	ProtocolChannelSubscribe          int32 = 21
	ProtocolChannelDataload           int32 = 22
	ProtocolDataspace                 int32 = 24
	ProtocolSupportedTypes            int32 = 25
	ProtocolWitsmlSoap                int32 = 2000
)

// ProtocolMessage is the tagged union over every schema-defined message
// body. Out of scope per §1, these bodies are "assumed available"
// in a real deployment (generated from the ETP Avro schemas); this runtime
// implements the Core protocol bodies needed to drive the state machine,
// plus a representative slice of Store bodies sufficient to exercise the
// codec's compression policy end to end (§8 properties #3-#4).
type ProtocolMessage interface {
	Protocol() int32
	MessageType() int32
	MarshalBody() []byte
}

// bodyKey identifies a (protocol, message_type) pair in the dispatch
// registry.
type bodyKey struct {
	protocol    int32
	messageType int32
}

type bodyDecoder func([]byte) (ProtocolMessage, error)

var bodyRegistry = map[bodyKey]bodyDecoder{}

// RegisterBody adds a decoder for the given (protocol, message_type) pair.
// Called from each message type's init(); exported so a caller can extend
// the registry with message types this runtime doesn't know about, without
// forking the codec.
func RegisterBody(protocol, messageType int32, decode bodyDecoder) {
	bodyRegistry[bodyKey{protocol, messageType}] = decode
}

// DecodeBody dispatches to the registered decoder for (protocol,
// messageType). An unknown pair returns ErrUnknownMessageType; the caller
// (package session) synthesizes a ProtocolException in response.
func DecodeBody(protocol, messageType int32, buf []byte) (ProtocolMessage, error) {
	decode, ok := bodyRegistry[bodyKey{protocol, messageType}]
	if !ok {
		return nil, fmt.Errorf("%w: protocol=%d message_type=%d", ErrUnknownMessageType, protocol, messageType)
	}
	return decode(buf)
}

// ErrUnknownMessageType is returned by DecodeBody for an (protocol,
// message_type) pair with no registered decoder.
var ErrUnknownMessageType = fmt.Errorf("etpmsg: unknown message type")
