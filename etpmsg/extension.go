package etpmsg

import "github.com/geosiris-technologies/etpproto-go/wire"

// HeaderExtension is present iff FlagHeaderExtension is set. Its contents
// are opaque to the core (§3); we carry them as raw bytes so a
// caller that understands a given extension schema can decode them itself.
type HeaderExtension struct {
	Raw []byte
}

func encodeExtension(buf []byte, ext *HeaderExtension) []byte {
	if ext == nil {
		return buf
	}
	return wire.PutBytes(buf, ext.Raw)
}

func decodeExtension(buf []byte) (*HeaderExtension, int, error) {
	raw, n, err := wire.Bytes(buf)
	if err != nil {
		return nil, 0, err
	}
	return &HeaderExtension{Raw: raw}, n, nil
}
