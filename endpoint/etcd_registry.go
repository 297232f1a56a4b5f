package endpoint

// Directly adapted from the prior implementation's registry/etcd_registry.go: etcd as
// a distributed phonebook, TTL leases so a crashed store's entry expires
// instead of lingering, and a Watch that re-Discovers on any prefix
// change rather than trying to diff individual etcd events.
//
//	Key:   /etp/stores/{Addr}
//	Value: JSON-encoded StoreInstance

import (
	"context"
	"encoding/json"

	clientv3 "go.etcd.io/etcd/client/v3"
)

const etcdStorePrefix = "/etp/stores/"

// EtcdRegistry implements Registry using etcd v3.
type EtcdRegistry struct {
	client *clientv3.Client
}

// NewEtcdRegistry creates a registry connected to the given etcd
// endpoints.
func NewEtcdRegistry(endpoints []string) (*EtcdRegistry, error) {
	c, err := clientv3.New(clientv3.Config{Endpoints: endpoints})
	if err != nil {
		return nil, err
	}
	return &EtcdRegistry{client: c}, nil
}

// Register adds instance to etcd with a TTL lease and starts background
// lease renewal. leaseID is kept local, not stored on the struct, so
// multiple stores sharing one EtcdRegistry never race over it.
func (r *EtcdRegistry) Register(instance StoreInstance, ttlSeconds int64) error {
	ctx := context.TODO()

	lease, err := r.client.Grant(ctx, ttlSeconds)
	if err != nil {
		return err
	}

	val, err := json.Marshal(instance)
	if err != nil {
		return err
	}

	_, err = r.client.Put(ctx, etcdStorePrefix+instance.Addr, string(val), clientv3.WithLease(lease.ID))
	if err != nil {
		return err
	}

	ch, err := r.client.KeepAlive(ctx, lease.ID)
	if err != nil {
		return err
	}
	go func() {
		for range ch {
		}
	}()
	return nil
}

// Deregister removes a store instance from etcd.
func (r *EtcdRegistry) Deregister(addr string) error {
	_, err := r.client.Delete(context.TODO(), etcdStorePrefix+addr)
	return err
}

// Discover returns every currently registered store instance.
func (r *EtcdRegistry) Discover() ([]StoreInstance, error) {
	resp, err := r.client.Get(context.TODO(), etcdStorePrefix, clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}
	instances := make([]StoreInstance, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var inst StoreInstance
		if err := json.Unmarshal(kv.Value, &inst); err != nil {
			continue
		}
		instances = append(instances, inst)
	}
	return instances, nil
}

// Watch monitors the store prefix and emits the updated instance list on
// any change (registration, deregistration, lease expiry).
func (r *EtcdRegistry) Watch() <-chan []StoreInstance {
	ctx := context.TODO()
	ch := make(chan []StoreInstance, 1)

	go func() {
		watchChan := r.client.Watch(ctx, etcdStorePrefix, clientv3.WithPrefix())
		for range watchChan {
			instances, err := r.Discover()
			if err != nil {
				continue
			}
			ch <- instances
		}
	}()

	return ch
}
