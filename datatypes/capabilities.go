package datatypes

// EndpointCapabilityKind is the closed enumeration of well-known endpoint
// capability names published in the ETP specification.
type EndpointCapabilityKind string

const (
	ActiveTimeoutPeriod               EndpointCapabilityKind = "ActiveTimeoutPeriod"
	ChangePropagationPeriod           EndpointCapabilityKind = "ChangePropagationPeriod"
	ChangeRetentionPeriod             EndpointCapabilityKind = "ChangeRetentionPeriod"
	MaxConcurrentMultipart            EndpointCapabilityKind = "MaxConcurrentMultipart"
	MaxDataObjectSize                 EndpointCapabilityKind = "MaxDataObjectSize"
	MaxPartSize                       EndpointCapabilityKind = "MaxPartSize"
	MaxSessionClientCount             EndpointCapabilityKind = "MaxSessionClientCount"
	MaxSessionGlobalCount             EndpointCapabilityKind = "MaxSessionGlobalCount"
	MultipartMessageTimeoutPeriod     EndpointCapabilityKind = "MultipartMessageTimeoutPeriod"
	ResponseTimeoutPeriod             EndpointCapabilityKind = "ResponseTimeoutPeriod"
	RequestSessionTimeoutPeriod       EndpointCapabilityKind = "RequestSessionTimeoutPeriod"
	SessionEstablishmentTimeoutPeriod EndpointCapabilityKind = "SessionEstablishmentTimeoutPeriod"
	SupportsAlternateRequestUris      EndpointCapabilityKind = "SupportsAlternateRequestUris"
	SupportsMessageHeaderExtensions   EndpointCapabilityKind = "SupportsMessageHeaderExtensions"
)

// capabilityRule carries the default/min/max rule attributes for one
// EndpointCapabilityKind. Expressed as a static lookup table keyed by kind
// rather than methods on an enum type, per the "per-kind metadata" design
// note — this is pure data, polymorphism buys nothing here.
type capabilityRule struct {
	Default *DataValue
	Min     *DataValue
	Max     *DataValue
}

func longRule(def, min, max *int64) capabilityRule {
	r := capabilityRule{}
	if def != nil {
		v := NewLong(*def)
		r.Default = &v
	}
	if min != nil {
		v := NewLong(*min)
		r.Min = &v
	}
	if max != nil {
		v := NewLong(*max)
		r.Max = &v
	}
	return r
}

func l(v int64) *int64 { return &v }

// CapabilityRules is the published table of kind rules (§4.3),
// keyed by EndpointCapabilityKind.
var CapabilityRules = map[EndpointCapabilityKind]capabilityRule{
	ActiveTimeoutPeriod:               longRule(l(3600), l(60), nil),
	ChangePropagationPeriod:           longRule(l(5), l(1), l(600)),
	ChangeRetentionPeriod:             longRule(l(86400), l(86400), nil),
	MaxConcurrentMultipart:            longRule(l(1), l(1), nil),
	MaxDataObjectSize:                 longRule(nil, l(100000), nil),
	MaxPartSize:                       longRule(nil, l(10000), nil),
	MaxSessionClientCount:             longRule(nil, l(2), nil),
	MaxSessionGlobalCount:             longRule(nil, l(2), nil),
	MultipartMessageTimeoutPeriod:     longRule(nil, nil, l(60)),
	ResponseTimeoutPeriod:             longRule(l(300), l(60), nil),
	RequestSessionTimeoutPeriod:       longRule(l(45), l(5), nil),
	SessionEstablishmentTimeoutPeriod: longRule(l(3600), l(60), nil),
	SupportsAlternateRequestUris: {
		Default: boolPtr(false),
	},
	SupportsMessageHeaderExtensions: {
		Default: boolPtr(false),
	},
}

func boolPtr(v bool) *DataValue {
	dv := NewBoolean(v)
	return &dv
}

// KnownEndpointCapabilityKinds lists every kind this runtime recognizes, in
// the order they appear in the published table.
var KnownEndpointCapabilityKinds = []EndpointCapabilityKind{
	ActiveTimeoutPeriod,
	ChangePropagationPeriod,
	ChangeRetentionPeriod,
	MaxConcurrentMultipart,
	MaxDataObjectSize,
	MaxPartSize,
	MaxSessionClientCount,
	MaxSessionGlobalCount,
	MultipartMessageTimeoutPeriod,
	ResponseTimeoutPeriod,
	RequestSessionTimeoutPeriod,
	SessionEstablishmentTimeoutPeriod,
	SupportsAlternateRequestUris,
	SupportsMessageHeaderExtensions,
}

// DataObjectCapabilityKind is the closed set of per-qualified-type
// capabilities negotiated for SupportedDataObject entries.
type DataObjectCapabilityKind string

const (
	SupportsGet    DataObjectCapabilityKind = "SupportsGet"
	SupportsPut    DataObjectCapabilityKind = "SupportsPut"
	SupportsDelete DataObjectCapabilityKind = "SupportsDelete"
)

// SupportedProtocol describes one protocol an endpoint supports, along with
// its role and protocol-level capabilities.
type SupportedProtocol struct {
	Protocol             int32
	ProtocolVersion      string
	Role                 string
	ProtocolCapabilities map[string]DataValue
}

// SupportedDataObject describes one data-object family an endpoint
// supports, along with its per-type capabilities.
type SupportedDataObject struct {
	QualifiedType          string
	DataObjectCapabilities map[string]DataValue
}

// ServerCapabilities is the full capability descriptor an ETP endpoint
// advertises during session establishment.
type ServerCapabilities struct {
	ApplicationName    string
	ApplicationVersion string
	ContactInformation string

	SupportedCompression []string
	SupportedEncodings   []string
	SupportedFormats     []string

	SupportedDataObjects []SupportedDataObject
	SupportedProtocols   []SupportedProtocol

	EndpointCapabilities map[string]DataValue
}
