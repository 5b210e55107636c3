package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/example/shopcore/pkg/config"
	clientv3 "go.etcd.io/etcd/client/v3"
)

const leaseTTL = 30 // seconds

// Registrar announces this service in etcd under a leased key so stale
// instances disappear when their keepalive stops.
type Registrar struct {
	client *clientv3.Client
	config *config.EtcdConfig
}

type ServiceInstance struct {
	Name string
	Host string
	Port int
}

func NewRegistrar(cfg *config.EtcdConfig) (*Registrar, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}

	return &Registrar{
		client: cli,
		config: cfg,
	}, nil
}

func (r *Registrar) instanceKey(instance *ServiceInstance) string {
	return fmt.Sprintf("%s%s/%s:%d", r.config.Prefix, instance.Name, instance.Host, instance.Port)
}

func (r *Registrar) Register(ctx context.Context, instance *ServiceInstance) error {
	addr := fmt.Sprintf("%s:%d", instance.Host, instance.Port)

	lease, err := r.client.Grant(ctx, leaseTTL)
	if err != nil {
		return fmt.Errorf("failed to create lease: %w", err)
	}

	_, err = r.client.Put(ctx, r.instanceKey(instance), addr, clientv3.WithLease(lease.ID))
	if err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}

	ch, kaerr := r.client.KeepAlive(ctx, lease.ID)
	if kaerr != nil {
		return fmt.Errorf("failed to keep alive: %w", kaerr)
	}

	// drain keepalive acks until the lease is revoked or ctx ends
	go func() {
		for range ch {
		}
	}()

	return nil
}

func (r *Registrar) Deregister(ctx context.Context, instance *ServiceInstance) error {
	if _, err := r.client.Delete(ctx, r.instanceKey(instance)); err != nil {
		return fmt.Errorf("failed to deregister service: %w", err)
	}
	return nil
}

func (r *Registrar) Close() error {
	return r.client.Close()
}
