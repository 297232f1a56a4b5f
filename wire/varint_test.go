package wire

import "testing"

func TestVarintZigzag32RoundTrip(t *testing.T) {
	values := []int32{0, 1, -1, 52, -52, 1 << 20, -(1 << 20), math32Max, -math32Max}
	for _, v := range values {
		buf := PutVarintZigzag32(nil, v)
		got, n, err := VarintZigzag32(buf)
		if err != nil {
			t.Fatalf("decode %d failed: %v", v, err)
		}
		if n != len(buf) {
			t.Errorf("decode %d consumed %d bytes, want %d", v, n, len(buf))
		}
		if got != v {
			t.Errorf("round trip %d, got %d", v, got)
		}
	}
}

const math32Max = int32(1<<31 - 1)

func TestHeaderVectorFields(t *testing.T) {
	// Pins the exact header vector: {protocol:0, message_type:1,
	// correlation_id:52, message_id:51, message_flags:19} -> [0, 2, 104, 102, 38].
	cases := []struct {
		v    int32
		want byte
	}{
		{0, 0},
		{1, 2},
		{19, 38},
	}
	for _, c := range cases {
		buf := PutVarintZigzag32(nil, c.v)
		if len(buf) != 1 || buf[0] != c.want {
			t.Errorf("PutVarintZigzag32(%d) = %v, want [%d]", c.v, buf, c.want)
		}
	}

	buf64 := PutVarintZigzag64(nil, 52)
	if len(buf64) != 1 || buf64[0] != 104 {
		t.Errorf("PutVarintZigzag64(52) = %v, want [104]", buf64)
	}
	buf64 = PutVarintZigzag64(nil, 51)
	if len(buf64) != 1 || buf64[0] != 102 {
		t.Errorf("PutVarintZigzag64(51) = %v, want [102]", buf64)
	}
}

func TestStringRoundTrip(t *testing.T) {
	buf := PutString(nil, "alwyn")
	got, n, err := String(buf)
	if err != nil {
		t.Fatalf("String decode failed: %v", err)
	}
	if n != len(buf) {
		t.Errorf("consumed %d, want %d", n, len(buf))
	}
	if got != "alwyn" {
		t.Errorf("got %q, want %q", got, "alwyn")
	}
}

func TestBytesTruncated(t *testing.T) {
	buf := PutVarintZigzag64(nil, 10)
	if _, _, err := Bytes(buf); err != ErrTruncated {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
}

func TestFloatRoundTrip(t *testing.T) {
	buf := PutFloat64(nil, 3.14159)
	got, n, err := Float64(buf)
	if err != nil {
		t.Fatalf("Float64 decode failed: %v", err)
	}
	if n != 8 {
		t.Errorf("consumed %d, want 8", n)
	}
	if got != 3.14159 {
		t.Errorf("got %v, want 3.14159", got)
	}
}
