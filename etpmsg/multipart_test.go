package etpmsg

import "testing"

func TestReassembleOrdersAndConcatenates(t *testing.T) {
	full := PutDataObjects{DataObjects: map[string]DataObject{"a": {URI: "u", Data: []byte("0123456789")}}}
	fullBytes := full.MarshalBody()
	mid := len(fullBytes) / 2

	h := Header{Protocol: ProtocolStore, MessageType: MsgPutDataObjects, CorrelationID: 1}
	// Submitted out of order; Reassemble must sort by MessageID itself.
	unordered := []RawPart{
		{Header: Header{Protocol: h.Protocol, MessageType: h.MessageType, CorrelationID: 1, MessageID: 2, MessageFlags: FlagMultipart | FlagFinal}, Body: fullBytes[mid:]},
		{Header: Header{Protocol: h.Protocol, MessageType: h.MessageType, CorrelationID: 1, MessageID: 1, MessageFlags: FlagMultipart}, Body: fullBytes[:mid]},
	}

	env, err := Reassemble(unordered)
	if err != nil {
		t.Fatalf("Reassemble: %v", err)
	}
	got, ok := env.Body.(PutDataObjects)
	if !ok {
		t.Fatalf("body type = %T, want PutDataObjects", env.Body)
	}
	if string(got.DataObjects["a"].Data) != "0123456789" {
		t.Errorf("reassembled data = %q, want %q", got.DataObjects["a"].Data, "0123456789")
	}
	if env.Header.MessageFlags&FlagMultipart != 0 {
		t.Errorf("expected MULTIPART cleared on the reassembled header")
	}
}

func TestReassembleDetectsGap(t *testing.T) {
	parts := []RawPart{
		{Header: Header{MessageID: 1, MessageFlags: FlagMultipart}, Body: []byte("a")},
		{Header: Header{MessageID: 3, MessageFlags: FlagMultipart | FlagFinal}, Body: []byte("b")},
	}
	_, err := Reassemble(parts)
	if err == nil {
		t.Fatalf("expected ErrMultipartGap, got nil")
	}
}

func TestReassembleRequiresFinalOnLastPart(t *testing.T) {
	parts := []RawPart{
		{Header: Header{MessageID: 1, MessageFlags: FlagMultipart}, Body: []byte("a")},
		{Header: Header{MessageID: 2, MessageFlags: FlagMultipart}, Body: []byte("b")},
	}
	_, err := Reassemble(parts)
	if err == nil {
		t.Fatalf("expected ErrMultipartNotFinal, got nil")
	}
}

func TestReassembleRejectsEmpty(t *testing.T) {
	_, err := Reassemble(nil)
	if err != ErrMultipartEmpty {
		t.Fatalf("expected ErrMultipartEmpty, got %v", err)
	}
}
