package endpoint

import (
	"fmt"
	"hash/crc32"
	"sort"
)

// ConsistentHashBalancer maps keys (here, a parsed uri.Uri's Dataspace)
// to store instances using a hash ring, so repeated sessions against the
// same dataspace land on the same instance — dataspace affinity, useful
// because a store process typically keeps per-dataspace state (caches,
// open transactions) that benefits from session locality.
//
// Each real instance gets 100 virtual nodes on the ring so three
// instances don't cluster unevenly (directly adapted from the prior implementation's
// loadbalance/consistent_hash.go).
type ConsistentHashBalancer struct {
	replicas int
	ring     []uint32
	nodes    map[uint32]*StoreInstance
}

// NewConsistentHashBalancer builds an empty hash ring.
func NewConsistentHashBalancer() *ConsistentHashBalancer {
	return &ConsistentHashBalancer{
		replicas: 100,
		nodes:    make(map[uint32]*StoreInstance),
	}
}

// Add places instance onto the ring with b.replicas virtual nodes.
func (b *ConsistentHashBalancer) Add(instance *StoreInstance) {
	for i := 0; i < b.replicas; i++ {
		key := fmt.Sprintf("%s#%d", instance.Addr, i)
		hash := crc32.ChecksumIEEE([]byte(key))
		b.ring = append(b.ring, hash)
		b.nodes[hash] = instance
	}
	sort.Slice(b.ring, func(i, j int) bool { return b.ring[i] < b.ring[j] })
}

// Pick returns the instance responsible for key (typically a dataspace
// name), the first node clockwise from key's hash, wrapping around to
// the first node on the ring if key hashes past every node.
//
// Pick takes a string key rather than a []StoreInstance because
// consistent hashing is key-based, not list-based — it does not
// implement the Balancer interface directly, matching the prior implementation's
// ConsistentHashBalancer.
func (b *ConsistentHashBalancer) Pick(key string) (*StoreInstance, error) {
	if len(b.ring) == 0 {
		return nil, fmt.Errorf("endpoint: no store instances available")
	}
	hash := crc32.ChecksumIEEE([]byte(key))
	idx := sort.Search(len(b.ring), func(i int) bool { return b.ring[i] >= hash })
	if idx == len(b.ring) {
		idx = 0
	}
	return b.nodes[b.ring[idx]], nil
}

func (b *ConsistentHashBalancer) Name() string { return "ConsistentHash" }
