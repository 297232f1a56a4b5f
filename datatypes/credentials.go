package datatypes

import "sync/atomic"

// CredentialKind discriminates the two supported credential shapes.
type CredentialKind int

const (
	CredentialNone CredentialKind = iota
	CredentialBasic
	CredentialBearer
)

// Credentials is a tagged union carried opaquely through the session; the
// core never inspects login/password/token values, only routes them.
type Credentials struct {
	Kind CredentialKind

	Login    string
	Password string

	Token      string
	RefreshURL *string
}

func NewBasicCredentials(login, password string) Credentials {
	return Credentials{Kind: CredentialBasic, Login: login, Password: password}
}

func NewBearerCredentials(token string, refreshURL *string) Credentials {
	return Credentials{Kind: CredentialBearer, Token: token, RefreshURL: refreshURL}
}

// ClientInfo is the opaque client identity carried through a session.
type ClientInfo struct {
	UID          uint64
	IP           *string
	Credentials  *Credentials
	Capabilities map[string]DataValue
}

// uniqueIDCounter is process-wide, mutable state with the lifetime of the
// process — a single atomic integer, per the "process-wide counter" design
// note. Saturation of the uint64 space is a fatal assertion, not a
// recoverable error.
var uniqueIDCounter uint64

// NextUniqueID returns a strictly increasing, process-unique id. It panics
// if the counter saturates uint64, mirroring the Rust original's
// assert_ne!(id, u64::MAX).
func NextUniqueID() uint64 {
	id := atomic.AddUint64(&uniqueIDCounter, 1) - 1
	if id == ^uint64(0) {
		panic("datatypes: unique id counter has overflowed and is no longer unique")
	}
	return id
}

// NewClientInfo builds a ClientInfo with a fresh unique id. A nil
// capabilities map is normalized to an empty, non-nil map.
func NewClientInfo(ip *string, credentials *Credentials, capabilities map[string]DataValue) ClientInfo {
	if capabilities == nil {
		capabilities = make(map[string]DataValue)
	}
	return ClientInfo{
		UID:          NextUniqueID(),
		IP:           ip,
		Credentials:  credentials,
		Capabilities: capabilities,
	}
}
