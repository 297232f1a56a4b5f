package etpmsg

import (
	"github.com/geosiris-technologies/etpproto-go/datatypes"
	"github.com/geosiris-technologies/etpproto-go/wire"
)

// Store protocol message type identifiers (protocol 4), a representative
// slice sufficient to drive the codec's compression policy over a
// non-trivial body (§8 properties #3-#4, scenario S6).
const (
	MsgGetDataObjects    int32 = 1
	MsgPutDataObjects    int32 = 2
	MsgDeleteDataObjects int32 = 3
)

func init() {
	RegisterBody(ProtocolStore, MsgGetDataObjects, func(b []byte) (ProtocolMessage, error) { return unmarshalGetDataObjects(b) })
	RegisterBody(ProtocolStore, MsgPutDataObjects, func(b []byte) (ProtocolMessage, error) { return unmarshalPutDataObjects(b) })
	RegisterBody(ProtocolStore, MsgDeleteDataObjects, func(b []byte) (ProtocolMessage, error) { return unmarshalDeleteDataObjects(b) })
}

// GetDataObjects requests a set of data objects by URI.
type GetDataObjects struct {
	URIs map[string]string
	Format string
}

func (GetDataObjects) Protocol() int32    { return ProtocolStore }
func (GetDataObjects) MessageType() int32 { return MsgGetDataObjects }

func (m GetDataObjects) MarshalBody() []byte {
	var buf []byte
	buf = wire.PutVarintZigzag64(buf, int64(len(m.URIs)))
	for k, v := range m.URIs {
		buf = wire.PutString(buf, k)
		buf = wire.PutString(buf, v)
	}
	buf = wire.PutString(buf, m.Format)
	return buf
}

func unmarshalGetDataObjects(buf []byte) (GetDataObjects, error) {
	var m GetDataObjects
	off := 0
	count, n, err := wire.VarintZigzag64(buf[off:])
	if err != nil {
		return m, err
	}
	off += n
	m.URIs = make(map[string]string, count)
	for i := int64(0); i < count; i++ {
		k, n, err := wire.String(buf[off:])
		if err != nil {
			return m, err
		}
		off += n
		v, n, err := wire.String(buf[off:])
		if err != nil {
			return m, err
		}
		off += n
		m.URIs[k] = v
	}
	format, _, err := wire.String(buf[off:])
	if err != nil {
		return m, err
	}
	m.Format = format
	return m, nil
}

// DataObject is a single stored payload: a URI keyed blob plus its content
// type, grounded on the schema-record concept left external per §1.
type DataObject struct {
	URI         string
	ContentType string
	Data        []byte
}

// PutDataObjects writes one or more objects to the store. This is the body
// used to exercise the COMPRESSED-over-protocol-4 path end to end: a
// large Data payload compresses where the same bytes on protocol 0 would
// not (§4.1 compression policy).
type PutDataObjects struct {
	DataObjects map[string]DataObject
}

func (PutDataObjects) Protocol() int32    { return ProtocolStore }
func (PutDataObjects) MessageType() int32 { return MsgPutDataObjects }

func (m PutDataObjects) MarshalBody() []byte {
	var buf []byte
	buf = wire.PutVarintZigzag64(buf, int64(len(m.DataObjects)))
	for k, v := range m.DataObjects {
		buf = wire.PutString(buf, k)
		buf = wire.PutString(buf, v.URI)
		buf = wire.PutString(buf, v.ContentType)
		buf = wire.PutBytes(buf, v.Data)
	}
	return buf
}

func unmarshalPutDataObjects(buf []byte) (PutDataObjects, error) {
	var m PutDataObjects
	off := 0
	count, n, err := wire.VarintZigzag64(buf[off:])
	if err != nil {
		return m, err
	}
	off += n
	m.DataObjects = make(map[string]DataObject, count)
	for i := int64(0); i < count; i++ {
		k, n, err := wire.String(buf[off:])
		if err != nil {
			return m, err
		}
		off += n
		uri, n, err := wire.String(buf[off:])
		if err != nil {
			return m, err
		}
		off += n
		contentType, n, err := wire.String(buf[off:])
		if err != nil {
			return m, err
		}
		off += n
		data, n, err := wire.Bytes(buf[off:])
		if err != nil {
			return m, err
		}
		off += n
		m.DataObjects[k] = DataObject{URI: uri, ContentType: contentType, Data: data}
	}
	return m, nil
}

// DeleteDataObjects removes objects by URI.
type DeleteDataObjects struct {
	URIs []string
}

func (DeleteDataObjects) Protocol() int32    { return ProtocolStore }
func (DeleteDataObjects) MessageType() int32 { return MsgDeleteDataObjects }

func (m DeleteDataObjects) MarshalBody() []byte {
	return datatypes.MarshalStrings(nil, m.URIs)
}

func unmarshalDeleteDataObjects(buf []byte) (DeleteDataObjects, error) {
	uris, _, err := datatypes.UnmarshalStrings(buf)
	if err != nil {
		return DeleteDataObjects{}, err
	}
	return DeleteDataObjects{URIs: uris}, nil
}
