// Package negotiate implements ETP's pairwise capability reduction: given
// two endpoints' capability maps/lists, produce the single agreed set each
// side will operate under for the session.
//
// Directly grounded on original_source/src/capabilities_utils.rs; the
// per-kind rule table it builds from trait methods lives in
// datatypes.CapabilityRules instead (see that package's design note).
package negotiate

import (
	"log"

	"github.com/geosiris-technologies/etpproto-go/datatypes"
)

// Capabilities reduces two endpoint capability maps (A from the local
// side, B from the peer) to one negotiated map, applying the per-key
// policy from §4.3.
func Capabilities(a, b map[string]datatypes.DataValue) map[string]datatypes.DataValue {
	nego := make(map[string]datatypes.DataValue)

	for aKey, aVal := range a {
		kind, known := knownKind(aKey)
		if !known {
			continue
		}
		bVal, present := b[aKey]
		if !present {
			// Known kind, but the peer didn't declare it: not copied, the
			// peer did not agree (§4.3).
			continue
		}
		if v, ok := reduceNumeric(aVal, bVal, kind); ok {
			nego[aKey] = v
			continue
		}
		if v, ok := reduceBoolean(aVal, bVal); ok {
			nego[aKey] = v
			continue
		}
		log.Printf("negotiate: dropping capability %q: mixed or unsupported types", aKey)
	}

	// Pass unknown keys through from A. This intentionally preserves the
	// source's quirk (see original_source/src/capabilities_utils.rs lines
	// 64-69): a second pass iterates A again, not B, so a B-only unknown
	// key is silently lost rather than carried through.
	// TODO: if a conformance vector ever requires B-only unknown keys to
	// survive, switch this second pass to range over b.
	for aKey, aVal := range a {
		if _, known := knownKind(aKey); !known {
			nego[aKey] = aVal
		}
	}

	// Any known kind absent from the result receives its published
	// default, if one is defined.
	for _, kind := range datatypes.KnownEndpointCapabilityKinds {
		key := string(kind)
		if _, present := nego[key]; present {
			continue
		}
		if rule, ok := datatypes.CapabilityRules[kind]; ok && rule.Default != nil {
			nego[key] = *rule.Default
		}
	}

	return nego
}

func knownKind(key string) (datatypes.EndpointCapabilityKind, bool) {
	kind := datatypes.EndpointCapabilityKind(key)
	_, ok := datatypes.CapabilityRules[kind]
	return kind, ok
}

func reduceNumeric(a, b datatypes.DataValue, kind datatypes.EndpointCapabilityKind) (datatypes.DataValue, bool) {
	av, aok := a.AsInt64()
	bv, bok := b.AsInt64()
	if !aok || !bok {
		return datatypes.DataValue{}, false
	}
	value := av
	if bv < value {
		value = bv
	}
	if rule, ok := datatypes.CapabilityRules[kind]; ok {
		if rule.Min != nil {
			if min, ok := rule.Min.AsInt64(); ok && min > value {
				value = min
			}
		}
		if rule.Max != nil {
			if max, ok := rule.Max.AsInt64(); ok && max < value {
				value = max
			}
		}
	}
	return datatypes.NewLong(value), true
}

func reduceBoolean(a, b datatypes.DataValue) (datatypes.DataValue, bool) {
	av, aok := a.AsBool()
	bv, bok := b.AsBool()
	if !aok || !bok {
		return datatypes.DataValue{}, false
	}
	return datatypes.NewBoolean(av && bv), true
}

// DataObjects intersects two SupportedDataObject lists by QualifiedType;
// for each matched pair, SupportsGet/SupportsPut/SupportsDelete are ANDed
// when both sides declare them, otherwise omitted.
func DataObjects(a, b []datatypes.SupportedDataObject) []datatypes.SupportedDataObject {
	byType := make(map[string]datatypes.SupportedDataObject, len(b))
	for _, obj := range b {
		byType[obj.QualifiedType] = obj
	}

	var out []datatypes.SupportedDataObject
	for _, aObj := range a {
		bObj, ok := byType[aObj.QualifiedType]
		if !ok {
			continue
		}
		caps := make(map[string]datatypes.DataValue)
		for _, kind := range []datatypes.DataObjectCapabilityKind{
			datatypes.SupportsGet, datatypes.SupportsPut, datatypes.SupportsDelete,
		} {
			key := string(kind)
			av, aok := aObj.DataObjectCapabilities[key]
			bv, bok := bObj.DataObjectCapabilities[key]
			if !aok || !bok {
				continue
			}
			if v, ok := reduceBoolean(av, bv); ok {
				caps[key] = v
			}
		}
		out = append(out, datatypes.SupportedDataObject{
			QualifiedType:          aObj.QualifiedType,
			DataObjectCapabilities: caps,
		})
	}
	return out
}

// Protocols intersects two SupportedProtocol lists by (protocol, version,
// role), recursively negotiating each matched pair's capability sub-maps.
func Protocols(a, b []datatypes.SupportedProtocol) []datatypes.SupportedProtocol {
	type key struct {
		protocol int32
		version  string
		role     string
	}
	byKey := make(map[key]datatypes.SupportedProtocol, len(b))
	for _, p := range b {
		byKey[key{p.Protocol, p.ProtocolVersion, p.Role}] = p
	}

	var out []datatypes.SupportedProtocol
	for _, aProto := range a {
		bProto, ok := byKey[key{aProto.Protocol, aProto.ProtocolVersion, aProto.Role}]
		if !ok {
			continue
		}
		out = append(out, datatypes.SupportedProtocol{
			Protocol:             aProto.Protocol,
			ProtocolVersion:      aProto.ProtocolVersion,
			Role:                 aProto.Role,
			ProtocolCapabilities: Capabilities(aProto.ProtocolCapabilities, bProto.ProtocolCapabilities),
		})
	}
	return out
}

// ServerCapabilitiesOf reduces two ServerCapabilities descriptors: identity
// fields are taken from peer verbatim ("we know ours"), lists are
// set-intersected, and nested descriptors reduce recursively.
func ServerCapabilitiesOf(local, peer datatypes.ServerCapabilities) datatypes.ServerCapabilities {
	return datatypes.ServerCapabilities{
		ApplicationName:      peer.ApplicationName,
		ApplicationVersion:   peer.ApplicationVersion,
		ContactInformation:   peer.ContactInformation,
		SupportedCompression: intersectStrings(local.SupportedCompression, peer.SupportedCompression),
		SupportedEncodings:   intersectStrings(local.SupportedEncodings, peer.SupportedEncodings),
		SupportedFormats:     intersectStrings(local.SupportedFormats, peer.SupportedFormats),
		SupportedDataObjects: DataObjects(local.SupportedDataObjects, peer.SupportedDataObjects),
		SupportedProtocols:   Protocols(local.SupportedProtocols, peer.SupportedProtocols),
		EndpointCapabilities: Capabilities(local.EndpointCapabilities, peer.EndpointCapabilities),
	}
}

func intersectStrings(a, b []string) []string {
	set := make(map[string]bool, len(b))
	for _, s := range b {
		set[s] = true
	}
	var out []string
	for _, s := range a {
		if set[s] {
			out = append(out, s)
		}
	}
	return out
}
