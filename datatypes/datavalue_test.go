package datatypes

import "testing"

func TestAsInt64(t *testing.T) {
	cases := []struct {
		dv   DataValue
		want int64
		ok   bool
	}{
		{NewLong(142), 142, true},
		{NewInt(7), 7, true},
		{NewDouble(3.9), 3, true},
		{NewString("142"), 142, true},
		{NewString("nope"), 0, false},
		{NewBoolean(true), 0, false},
	}
	for _, c := range cases {
		got, ok := c.dv.AsInt64()
		if ok != c.ok || (ok && got != c.want) {
			t.Errorf("AsInt64(%v) = (%d, %v), want (%d, %v)", c.dv, got, ok, c.want, c.ok)
		}
	}
}

func TestAsBool(t *testing.T) {
	if v, ok := NewBoolean(true).AsBool(); !ok || !v {
		t.Errorf("AsBool on boolean failed: %v %v", v, ok)
	}
	if _, ok := NewLong(1).AsBool(); ok {
		t.Errorf("AsBool on long should fail")
	}
}

func TestNextUniqueIDMonotonic(t *testing.T) {
	a := NextUniqueID()
	b := NextUniqueID()
	if b <= a {
		t.Errorf("expected strictly increasing ids, got %d then %d", a, b)
	}
}

func TestNewClientInfoDistinctUIDs(t *testing.T) {
	c1 := NewClientInfo(nil, nil, nil)
	c2 := NewClientInfo(nil, nil, nil)
	if c1.UID == c2.UID {
		t.Errorf("expected distinct uids, got %d twice", c1.UID)
	}
	if c1.Capabilities == nil {
		t.Errorf("expected non-nil capabilities map")
	}
}
