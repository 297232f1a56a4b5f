// Package uri parses and represents the `eml:///` scheme used to address
// ETP data objects, dataspaces, and collections.
//
// There is no analog for this domain elsewhere in this codebase's ancestry
// (RPC-style addressing uses "Service.Method" strings, not a structured
// URI scheme); the pattern
// below is translated directly from the Rust original
// (original_source/src/uri.rs), since regexp.Regexp (RE2) supports named
// capture groups and the original pattern uses no backreferences or
// lookaround, so the translation is mechanical.
package uri

import (
	"fmt"
	"regexp"
	"strings"
)

// canonicalDataObjectURI mirrors original_source/src/uri.rs's
// canonical_data_object_uris(), with Go's regexp named-group syntax
// (?P<name>...) in place of Rust regex's equivalent (?<name>...)/(?P<name>...).
const canonicalDataObjectURI = `^eml:///` +
	`(?:dataspace\('(?P<dataspace>[^']*?(?:''[^']*?)*)'\)/?)?` +
	`(?:(?P<object>(?P<domain>witsml|resqml|prodml|eml)(?P<domainVersion>[1-9]\d)\.(?P<objectType>\w+)\(` +
	`(?:(?P<uuid>[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12})` +
	`|uuid=(?P<uuid2>[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}),version='(?P<version>[^']*?(?:''[^']*?)*)')\))?` +
	`(?P<request>(?:(?:(?:(/(?P<collectionDomain>witsml|resqml|prodml|eml)(?P<collectionDomainVersion>[1-9]\d)\.(?P<collectionType>\w+))?)` +
	`|(?P<subPath>(?:/[\w]+)+))?(?:\?(?P<query>[^#\n]+))?))?)?$`

var uriPattern = regexp.MustCompile(canonicalDataObjectURI)

// Uri is the structured form of an `eml:///` URI. Every field besides Raw
// is a pointer so absence (not present in the input) is distinguishable
// from the empty string.
type Uri struct {
	Raw string

	Dataspace *string

	Domain        *string
	DomainVersion *string
	ObjectType    *string
	ObjectUUID    *string
	ObjectVersion *string

	CollectionDomain        *string
	CollectionDomainVersion *string
	CollectionType          *string

	SubPath *string
	Query   *string
}

// ErrNotEmlURI is returned when the input does not start with the
// mandatory `eml:///` scheme prefix.
var ErrNotEmlURI = fmt.Errorf("uri: input does not start with eml:///")

// Parse parses raw as an `eml:///` URI. Inputs not starting with the
// literal scheme prefix fail with ErrNotEmlURI; everything else the
// pattern doesn't recognize leaves the corresponding fields absent rather
// than failing, matching the "field absence is not an error" invariant.
func Parse(raw string) (*Uri, error) {
	if !strings.HasPrefix(raw, "eml:///") {
		return nil, ErrNotEmlURI
	}

	match := uriPattern.FindStringSubmatch(raw)
	u := &Uri{Raw: raw}
	if match == nil {
		// Starts with the scheme but doesn't fit the canonical grammar
		// (e.g. a malformed dataspace clause): every field is absent, raw
		// still round-trips, per the protocol's "missing fields indicate
		// absence, not error, unless the string violates the scheme
		// entirely" (the scheme prefix is what we actually enforce).
		return u, nil
	}

	names := uriPattern.SubexpNames()
	get := func(name string) *string {
		for i, n := range names {
			if n == name && match[i] != "" {
				v := match[i]
				return &v
			}
		}
		return nil
	}

	u.Dataspace = get("dataspace")
	u.Domain = get("domain")
	u.DomainVersion = get("domainVersion")
	u.ObjectType = get("objectType")
	if uuid := get("uuid"); uuid != nil {
		u.ObjectUUID = uuid
	} else {
		u.ObjectUUID = get("uuid2")
	}
	u.ObjectVersion = get("version")
	u.CollectionDomain = get("collectionDomain")
	u.CollectionDomainVersion = get("collectionDomainVersion")
	u.CollectionType = get("collectionType")
	u.SubPath = get("subPath")
	u.Query = get("query")

	return u, nil
}

// String returns the original input verbatim; structured re-formatting is
// not a required operation (§4.2).
func (u *Uri) String() string {
	return u.Raw
}
