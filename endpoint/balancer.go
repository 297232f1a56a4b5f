package endpoint

// Three strategies, directly adapted from the prior implementation's loadbalance
// package:
//   - RoundRobin:      identically-provisioned store instances
//   - WeightedRandom:  heterogeneous instances (different capacity)
//   - ConsistentHash:  dataspace affinity (see consistent_hash.go)

// Balancer selects one store instance from a discovered set. A customer
// calls Pick before opening each new session.
type Balancer interface {
	// Pick selects one instance from the available list. Must be
	// goroutine-safe.
	Pick(instances []StoreInstance) (*StoreInstance, error)

	// Name returns the strategy name, for logging.
	Name() string
}
