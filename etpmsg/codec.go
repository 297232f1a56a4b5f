package etpmsg

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
)

// ErrDecompressionFailed is returned by DecodeRaw when FlagCompressed is
// set but the body fails to gunzip.
var ErrDecompressionFailed = fmt.Errorf("etpmsg: failed to decompress body")

// Envelope is one complete ETP message: header, optional extension, and
// decoded body. Body is nil when Decode could not dispatch the
// (protocol, message_type) pair to a known type, or when decompression
// failed — the caller (package session) is responsible for turning a nil
// Body into a ProtocolException reply.
type Envelope struct {
	Header    Header
	Extension *HeaderExtension
	Body      ProtocolMessage
}

// compressionEligible mirrors original_source/src/message.rs's
// encode_message compression gate: no message on protocol 0, and no
// message of type 1000 or 1001 (ProtocolException, Acknowledge) on any
// protocol, is ever compressed, regardless of what the caller requests.
func compressionEligible(protocol, messageType int32) bool {
	if protocol == ProtocolCore {
		return false
	}
	if messageType == MsgProtocolException || messageType == MsgAcknowledge {
		return false
	}
	return true
}

// Encode serializes body into a complete ETP frame: header, optional
// extension, then body bytes, gzip-compressing the body when the caller
// requests FlagCompressed and the (protocol, message_type) pair is
// eligible. Unlike the Rust original, the COMPRESSED bit is flipped
// directly on the raw flags value rather than round-tripped through the
// six-field HeaderFlags record, so any reserved bits the caller set in
// requestedFlags survive the encode (§3).
func Encode(correlationID, messageID int64, requestedFlags int32, body ProtocolMessage, extension *HeaderExtension) []byte {
	protocol := body.Protocol()
	messageType := body.MessageType()

	flags := requestedFlags
	bodyBytes := body.MarshalBody()

	wantCompressed := flags&FlagCompressed != 0
	if wantCompressed && compressionEligible(protocol, messageType) {
		if compressed, ok := gzipCompress(bodyBytes); ok {
			bodyBytes = compressed
		} else {
			flags &^= FlagCompressed
		}
	} else {
		flags &^= FlagCompressed
	}

	if extension != nil {
		flags |= FlagHeaderExtension
	} else {
		flags &^= FlagHeaderExtension
	}

	header := Header{
		Protocol:      protocol,
		MessageType:   messageType,
		CorrelationID: correlationID,
		MessageID:     messageID,
		MessageFlags:  flags,
	}

	buf := EncodeHeader(nil, header)
	buf = encodeExtension(buf, extension)
	buf = append(buf, bodyBytes...)
	return buf
}

// DecodeRaw parses a frame's header, optional extension, and decompresses
// its body, but does not dispatch the body through the ProtocolMessage
// registry. Package session uses this directly for multipart parts, whose
// individual body bytes are fragments that won't decode as a standalone
// message until Reassemble concatenates them.
func DecodeRaw(data []byte) (Header, *HeaderExtension, []byte, error) {
	header, n, err := DecodeHeader(data)
	if err != nil {
		return Header{}, nil, nil, err
	}
	off := n

	var ext *HeaderExtension
	if header.MessageFlags&FlagHeaderExtension != 0 {
		e, n, err := decodeExtension(data[off:])
		if err != nil {
			return Header{}, nil, nil, err
		}
		ext = e
		off += n
	}

	bodyBytes := data[off:]
	if header.MessageFlags&FlagCompressed != 0 {
		decompressed, ok := gzipDecompress(bodyBytes)
		if !ok {
			return header, ext, nil, ErrDecompressionFailed
		}
		bodyBytes = decompressed
	}
	return header, ext, bodyBytes, nil
}

// Decode parses a complete ETP frame. DecodeHeader's own returned
// byte-count drives where the extension (if any) and body start — the
// header is not assumed to occupy a fixed number of bytes, since that only
// holds for the small field values in the protocol's pinned test vector.
func Decode(data []byte) (Envelope, error) {
	header, ext, bodyBytes, err := DecodeRaw(data)
	if err != nil {
		if err == ErrDecompressionFailed {
			return Envelope{Header: header, Extension: ext, Body: nil}, nil
		}
		return Envelope{}, err
	}

	body, err := DecodeBody(header.Protocol, header.MessageType, bodyBytes)
	if err != nil {
		return Envelope{Header: header, Extension: ext, Body: nil}, nil
	}
	return Envelope{Header: header, Extension: ext, Body: body}, nil
}

func gzipCompress(data []byte) ([]byte, bool) {
	var out bytes.Buffer
	w := gzip.NewWriter(&out)
	if _, err := w.Write(data); err != nil {
		return nil, false
	}
	if err := w.Close(); err != nil {
		return nil, false
	}
	return out.Bytes(), true
}

func gzipDecompress(data []byte) ([]byte, bool) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, false
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, false
	}
	return out, true
}
