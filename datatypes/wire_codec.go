package datatypes

import "github.com/geosiris-technologies/etpproto-go/wire"

// This file is the "external, schema-generated record serializer" the protocol
// treats as an interface-only collaborator (§1), given a concrete body so
// the codec in package etpmsg has something real to dispatch to. It
// follows the same length-prefixed discipline as the prior implementation's
// codec/binary_codec.go, built on wire's Avro-compatible primitives so the
// pinned header vector and these bodies share one encoding scheme.

// MarshalWire appends the tagged encoding of d to buf.
func (d DataValue) MarshalWire(buf []byte) []byte {
	buf = append(buf, byte(d.Kind))
	switch d.Kind {
	case KindBoolean:
		buf = wire.PutBool(buf, d.Boolean)
	case KindInt:
		buf = wire.PutVarintZigzag32(buf, d.Int)
	case KindLong:
		buf = wire.PutVarintZigzag64(buf, d.Long)
	case KindFloat:
		buf = wire.PutFloat32(buf, d.Float)
	case KindDouble:
		buf = wire.PutFloat64(buf, d.Double)
	case KindString:
		buf = wire.PutString(buf, d.String)
	case KindBytes:
		buf = wire.PutBytes(buf, d.Bytes)
	case KindArray:
		buf = wire.PutVarintZigzag64(buf, int64(len(d.Array)))
		for _, el := range d.Array {
			buf = el.MarshalWire(buf)
		}
	}
	return buf
}

// UnmarshalDataValue decodes a DataValue from the front of buf, returning
// the value and the number of bytes consumed.
func UnmarshalDataValue(buf []byte) (DataValue, int, error) {
	if len(buf) < 1 {
		return DataValue{}, 0, wire.ErrTruncated
	}
	kind := DataValueKind(buf[0])
	off := 1
	switch kind {
	case KindBoolean:
		v, n, err := wire.Bool(buf[off:])
		if err != nil {
			return DataValue{}, 0, err
		}
		return DataValue{Kind: kind, Boolean: v}, off + n, nil
	case KindInt:
		v, n, err := wire.VarintZigzag32(buf[off:])
		if err != nil {
			return DataValue{}, 0, err
		}
		return DataValue{Kind: kind, Int: v}, off + n, nil
	case KindLong:
		v, n, err := wire.VarintZigzag64(buf[off:])
		if err != nil {
			return DataValue{}, 0, err
		}
		return DataValue{Kind: kind, Long: v}, off + n, nil
	case KindFloat:
		v, n, err := wire.Float32(buf[off:])
		if err != nil {
			return DataValue{}, 0, err
		}
		return DataValue{Kind: kind, Float: v}, off + n, nil
	case KindDouble:
		v, n, err := wire.Float64(buf[off:])
		if err != nil {
			return DataValue{}, 0, err
		}
		return DataValue{Kind: kind, Double: v}, off + n, nil
	case KindString:
		v, n, err := wire.String(buf[off:])
		if err != nil {
			return DataValue{}, 0, err
		}
		return DataValue{Kind: kind, String: v}, off + n, nil
	case KindBytes:
		v, n, err := wire.Bytes(buf[off:])
		if err != nil {
			return DataValue{}, 0, err
		}
		return DataValue{Kind: kind, Bytes: v}, off + n, nil
	case KindArray:
		count, n, err := wire.VarintZigzag64(buf[off:])
		if err != nil {
			return DataValue{}, 0, err
		}
		off += n
		arr := make([]DataValue, 0, count)
		for i := int64(0); i < count; i++ {
			el, n, err := UnmarshalDataValue(buf[off:])
			if err != nil {
				return DataValue{}, 0, err
			}
			arr = append(arr, el)
			off += n
		}
		return DataValue{Kind: kind, Array: arr}, off, nil
	default:
		return DataValue{Kind: KindUnset}, off, nil
	}
}

// MarshalCapabilities appends a length-prefixed map[string]DataValue.
func MarshalCapabilities(buf []byte, m map[string]DataValue) []byte {
	buf = wire.PutVarintZigzag64(buf, int64(len(m)))
	for k, v := range m {
		buf = wire.PutString(buf, k)
		buf = v.MarshalWire(buf)
	}
	return buf
}

// UnmarshalCapabilities decodes a length-prefixed map[string]DataValue.
func UnmarshalCapabilities(buf []byte) (map[string]DataValue, int, error) {
	count, off, err := wire.VarintZigzag64(buf)
	if err != nil {
		return nil, 0, err
	}
	m := make(map[string]DataValue, count)
	for i := int64(0); i < count; i++ {
		k, n, err := wire.String(buf[off:])
		if err != nil {
			return nil, 0, err
		}
		off += n
		v, n, err := UnmarshalDataValue(buf[off:])
		if err != nil {
			return nil, 0, err
		}
		off += n
		m[k] = v
	}
	return m, off, nil
}

// MarshalStrings appends a length-prefixed []string.
func MarshalStrings(buf []byte, ss []string) []byte {
	buf = wire.PutVarintZigzag64(buf, int64(len(ss)))
	for _, s := range ss {
		buf = wire.PutString(buf, s)
	}
	return buf
}

// UnmarshalStrings decodes a length-prefixed []string.
func UnmarshalStrings(buf []byte) ([]string, int, error) {
	count, off, err := wire.VarintZigzag64(buf)
	if err != nil {
		return nil, 0, err
	}
	out := make([]string, 0, count)
	for i := int64(0); i < count; i++ {
		s, n, err := wire.String(buf[off:])
		if err != nil {
			return nil, 0, err
		}
		out = append(out, s)
		off += n
	}
	return out, off, nil
}

// MarshalSupportedProtocol appends one SupportedProtocol entry.
func MarshalSupportedProtocol(buf []byte, p SupportedProtocol) []byte {
	buf = wire.PutVarintZigzag32(buf, p.Protocol)
	buf = wire.PutString(buf, p.ProtocolVersion)
	buf = wire.PutString(buf, p.Role)
	buf = MarshalCapabilities(buf, p.ProtocolCapabilities)
	return buf
}

// UnmarshalSupportedProtocol decodes one SupportedProtocol entry.
func UnmarshalSupportedProtocol(buf []byte) (SupportedProtocol, int, error) {
	var p SupportedProtocol
	off := 0
	proto, n, err := wire.VarintZigzag32(buf[off:])
	if err != nil {
		return p, 0, err
	}
	p.Protocol = proto
	off += n
	ver, n, err := wire.String(buf[off:])
	if err != nil {
		return p, 0, err
	}
	p.ProtocolVersion = ver
	off += n
	role, n, err := wire.String(buf[off:])
	if err != nil {
		return p, 0, err
	}
	p.Role = role
	off += n
	caps, n, err := UnmarshalCapabilities(buf[off:])
	if err != nil {
		return p, 0, err
	}
	p.ProtocolCapabilities = caps
	off += n
	return p, off, nil
}

// MarshalSupportedProtocols appends a length-prefixed []SupportedProtocol.
func MarshalSupportedProtocols(buf []byte, ps []SupportedProtocol) []byte {
	buf = wire.PutVarintZigzag64(buf, int64(len(ps)))
	for _, p := range ps {
		buf = MarshalSupportedProtocol(buf, p)
	}
	return buf
}

// UnmarshalSupportedProtocols decodes a length-prefixed []SupportedProtocol.
func UnmarshalSupportedProtocols(buf []byte) ([]SupportedProtocol, int, error) {
	count, off, err := wire.VarintZigzag64(buf)
	if err != nil {
		return nil, 0, err
	}
	out := make([]SupportedProtocol, 0, count)
	for i := int64(0); i < count; i++ {
		p, n, err := UnmarshalSupportedProtocol(buf[off:])
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
		off += n
	}
	return out, off, nil
}
