// Package endpoint lets an ETP customer discover which store instance to
// open a session against before any message is exchanged — a concern
// original_source both leave implicit by assuming a single
// fixed peer. Grounded on the prior implementation's registry/registry.go: the same
// register/deregister/discover/watch shape, generalized from a bare
// "Addr" service instance to a StoreInstance carrying enough of
// datatypes.ServerCapabilities for a customer to pick intelligently
// (application identity, supported dataspaces) before paying for a full
// RequestSession round trip.
package endpoint

// StoreInstance describes one running ETP store process a customer can
// open a session against.
type StoreInstance struct {
	Addr               string // dial address, e.g. "127.0.0.1:7632"
	ApplicationName    string
	ApplicationVersion string
	Weight             int      // relative capacity, used by WeightedRandomBalancer
	Dataspaces         []string // dataspaces this instance is known to serve
}

// Registry is the interface for store-instance registration and
// discovery. Implementations include EtcdRegistry (production) and a
// caller-supplied in-memory fake for tests.
type Registry interface {
	// Register adds a store instance to the registry with a TTL lease.
	// The instance is automatically removed if KeepAlive stops (e.g. the
	// store process crashes).
	Register(instance StoreInstance, ttlSeconds int64) error

	// Deregister removes a store instance from the registry. Called
	// during graceful shutdown before the store stops accepting
	// connections.
	Deregister(addr string) error

	// Discover returns all currently registered store instances.
	Discover() ([]StoreInstance, error)

	// Watch returns a channel that emits the updated instance list
	// whenever the registered set changes.
	Watch() <-chan []StoreInstance
}
