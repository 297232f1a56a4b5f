// Package etpmsg implements ETP's message envelope and codec: the
// MessageHeader/flags wire shape, the ProtocolMessage registry, compression
// policy, and multipart reassembly.
//
// Grounded on the prior implementation's protocol/protocol.go (frame layout, the idea of
// a small fixed header preceding a variable-length body) and
// message/message.go (the envelope wrapping a codec-agnostic payload),
// generalized from the prior implementation's bespoke 14-byte magic-numbered header to
// ETP's Avro-encoded, magic-free header, and from the prior implementation's
// request/response RPCMessage to ETP's tagged-union ProtocolMessage.
package etpmsg

import "github.com/geosiris-technologies/etpproto-go/wire"

// Flag bits for MessageHeader.MessageFlags (§3). Other bits are
// reserved: they must be preserved across encode/decode but are never
// interpreted here.
const (
	FlagMultipart       int32 = 0x01
	FlagFinal           int32 = 0x02
	FlagNoData          int32 = 0x04
	FlagCompressed      int32 = 0x08
	FlagAcknowledge     int32 = 0x10
	FlagHeaderExtension int32 = 0x20

	FlagFinalAndMultipart = FlagFinal | FlagMultipart
)

// Header is ETP's fixed five-field MessageHeader.
type Header struct {
	Protocol      int32
	MessageType   int32
	CorrelationID int64
	MessageID     int64
	MessageFlags  int32
}

// HeaderFlags is the decoded view of MessageHeader.MessageFlags: six
// independent named bits, one bool field per bit. It is a plain record,
// not a bitmask type, per the "dynamic tagged values"-adjacent design
// note: this is what ParseFlags/ToInt32's round-trip law (§8 #1)
// is stated over.
type HeaderFlags struct {
	Multipart       bool
	Final           bool
	NoData          bool
	Compressed      bool
	Acknowledge     bool
	HeaderExtension bool
}

// ParseFlags decodes the six known bits out of a raw MessageFlags value.
// Any other (reserved) bit is simply not represented in the result — this
// function, and its ToInt32 inverse, only round-trip over the six known
// bits (§8 property #1 is stated over combinations of exactly
// these fields, matching original_source/src/message.rs's
// MessageHeaderFlag).
func ParseFlags(flags int32) HeaderFlags {
	return HeaderFlags{
		Multipart:       flags&FlagMultipart != 0,
		Final:           flags&FlagFinal != 0,
		NoData:          flags&FlagNoData != 0,
		Compressed:      flags&FlagCompressed != 0,
		Acknowledge:     flags&FlagAcknowledge != 0,
		HeaderExtension: flags&FlagHeaderExtension != 0,
	}
}

// ToInt32 re-encodes the six known bits into a raw MessageFlags value.
func (f HeaderFlags) ToInt32() int32 {
	var v int32
	if f.Multipart {
		v |= FlagMultipart
	}
	if f.Final {
		v |= FlagFinal
	}
	if f.NoData {
		v |= FlagNoData
	}
	if f.Compressed {
		v |= FlagCompressed
	}
	if f.Acknowledge {
		v |= FlagAcknowledge
	}
	if f.HeaderExtension {
		v |= FlagHeaderExtension
	}
	return v
}

// DefaultFlags is Core protocol 0 / message type 2's (OpenSession) default
// flag set: FINAL only, matching the Rust original's
// MessageHeaderFlag::default().
func DefaultFlags() HeaderFlags {
	return HeaderFlags{Final: true}
}

// EncodeHeader appends h's Avro-encoded wire form to buf: five fields in
// declaration order, each an int/long zigzag varint. This is the leaf
// encoding the §4.1 test vector pins: {0,1,52,51,19} ->
// [0, 2, 104, 102, 38].
func EncodeHeader(buf []byte, h Header) []byte {
	buf = wire.PutVarintZigzag32(buf, h.Protocol)
	buf = wire.PutVarintZigzag32(buf, h.MessageType)
	buf = wire.PutVarintZigzag64(buf, h.CorrelationID)
	buf = wire.PutVarintZigzag64(buf, h.MessageID)
	buf = wire.PutVarintZigzag32(buf, h.MessageFlags)
	return buf
}

// DecodeHeader decodes a Header from the front of buf, returning the
// header and the number of bytes consumed.
func DecodeHeader(buf []byte) (Header, int, error) {
	var h Header
	off := 0

	protocol, n, err := wire.VarintZigzag32(buf[off:])
	if err != nil {
		return h, 0, err
	}
	h.Protocol = protocol
	off += n

	msgType, n, err := wire.VarintZigzag32(buf[off:])
	if err != nil {
		return h, 0, err
	}
	h.MessageType = msgType
	off += n

	corrID, n, err := wire.VarintZigzag64(buf[off:])
	if err != nil {
		return h, 0, err
	}
	h.CorrelationID = corrID
	off += n

	msgID, n, err := wire.VarintZigzag64(buf[off:])
	if err != nil {
		return h, 0, err
	}
	h.MessageID = msgID
	off += n

	flags, n, err := wire.VarintZigzag32(buf[off:])
	if err != nil {
		return h, 0, err
	}
	h.MessageFlags = flags
	off += n

	return h, off, nil
}
