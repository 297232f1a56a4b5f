package uri

import "testing"

func strPtrEq(t *testing.T, name string, got *string, want string) {
	t.Helper()
	if got == nil {
		t.Errorf("%s: got nil, want %q", name, want)
		return
	}
	if *got != want {
		t.Errorf("%s: got %q, want %q", name, *got, want)
	}
}

func strPtrAbsent(t *testing.T, name string, got *string) {
	t.Helper()
	if got != nil {
		t.Errorf("%s: got %q, want absent", name, *got)
	}
}

func TestParseDataspaceOnly(t *testing.T) {
	// S1
	u, err := Parse("eml:///dataspace('alwyn')")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	strPtrEq(t, "dataspace", u.Dataspace, "alwyn")
	strPtrAbsent(t, "domain", u.Domain)
	strPtrAbsent(t, "objectType", u.ObjectType)
	strPtrAbsent(t, "objectUUID", u.ObjectUUID)
}

func TestParseObjectWithVersion(t *testing.T) {
	// S2
	u, err := Parse("eml:///dataspace('rdms-db')/resqml20.obj_HorizonInterpretation(uuid=421a7a05-033a-450d-bcef-051352023578,version='2.0')")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	strPtrEq(t, "dataspace", u.Dataspace, "rdms-db")
	strPtrEq(t, "domain", u.Domain, "resqml")
	strPtrEq(t, "domainVersion", u.DomainVersion, "20")
	strPtrEq(t, "objectType", u.ObjectType, "obj_HorizonInterpretation")
	strPtrEq(t, "objectUUID", u.ObjectUUID, "421a7a05-033a-450d-bcef-051352023578")
	strPtrEq(t, "objectVersion", u.ObjectVersion, "2.0")
}

func TestParseCollectionAndQuery(t *testing.T) {
	// S3
	raw := "eml:///dataspace('/folder-name/project-name')/witsml20.Well(uuid=ec8c3f16-1454-4f36-ae10-27d2a2680cf2,version='1.0')/witsml20.Wellbore?query"
	u, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if u.Raw != raw {
		t.Errorf("Raw round trip mismatch: got %q", u.Raw)
	}
	strPtrEq(t, "dataspace", u.Dataspace, "/folder-name/project-name")
	strPtrEq(t, "domain", u.Domain, "witsml")
	strPtrEq(t, "objectType", u.ObjectType, "Well")
	strPtrEq(t, "objectUUID", u.ObjectUUID, "ec8c3f16-1454-4f36-ae10-27d2a2680cf2")
	strPtrEq(t, "objectVersion", u.ObjectVersion, "1.0")
	strPtrEq(t, "collectionDomain", u.CollectionDomain, "witsml")
	strPtrEq(t, "collectionDomainVersion", u.CollectionDomainVersion, "20")
	strPtrEq(t, "collectionType", u.CollectionType, "Wellbore")
	strPtrEq(t, "query", u.Query, "query")
}

func TestParseRejectsNonEmlScheme(t *testing.T) {
	for _, raw := range []string{"eml://", "not an uri", ""} {
		if _, err := Parse(raw); err != ErrNotEmlURI {
			t.Errorf("Parse(%q) error = %v, want ErrNotEmlURI", raw, err)
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	raw := "eml:///dataspace('alwyn')"
	u, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if u.String() != raw {
		t.Errorf("String() = %q, want %q", u.String(), raw)
	}
}
