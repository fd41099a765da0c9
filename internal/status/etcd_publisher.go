package status

import (
	"context"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/auto-dns/docker-mount-notify/internal/config"
	"github.com/auto-dns/docker-mount-notify/internal/domain"
	"github.com/rs/zerolog"
)

type etcdClient interface {
	Get(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error)
	Put(ctx context.Context, key, val string, opts ...clientv3.OpOption) (*clientv3.PutResponse, error)
	Delete(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.DeleteResponse, error)
	Close() error
}

// ContainerStatus is what one host reports about one watched container.
type ContainerStatus struct {
	Hostname      string
	ContainerId   string
	ContainerName string
	Attached      time.Time
	Targets       []domain.WatchTarget
}

// EtcdPublisher mirrors the watch registry of this host into etcd under
// <path_prefix>/<hostname>/<container id>.
type EtcdPublisher struct {
	client   etcdClient
	cfg      *config.EtcdConfig
	hostname string
	now      func() time.Time
	logger   zerolog.Logger
}

func NewEtcdPublisher(client etcdClient, cfg *config.EtcdConfig, logger zerolog.Logger) *EtcdPublisher {
	return &EtcdPublisher{
		client:   client,
		cfg:      cfg,
		hostname: cfg.Hostname,
		now:      time.Now,
		logger:   logger.With().Str("component", "etcd_status").Logger(),
	}
}

// Reset removes every entry previously published by this host, e.g. by a run that crashed.
func (ep *EtcdPublisher) Reset(ctx context.Context) error {
	_, err := ep.client.Delete(ctx, hostKeyPrefix(ep.cfg.PathPrefix, ep.hostname), clientv3.WithPrefix())
	return err
}

// Publish records the watch targets of a container.
func (ep *EtcdPublisher) Publish(ctx context.Context, c domain.Container, targets []domain.WatchTarget) error {
	value, err := marshalEtcdValue(&ContainerStatus{
		Hostname:      ep.hostname,
		ContainerId:   c.Id,
		ContainerName: c.DisplayName(),
		Attached:      ep.now().UTC(),
		Targets:       targets,
	})
	if err != nil {
		return err
	}
	key := containerKey(ep.cfg.PathPrefix, ep.hostname, c.Id)
	if _, err := ep.client.Put(ctx, key, value); err != nil {
		return err
	}
	ep.logger.Debug().Msgf("Published key %s", key)
	return nil
}

// Unpublish removes the entry of a container.
func (ep *EtcdPublisher) Unpublish(ctx context.Context, containerId string) error {
	key := containerKey(ep.cfg.PathPrefix, ep.hostname, containerId)
	if _, err := ep.client.Delete(ctx, key); err != nil {
		return err
	}
	ep.logger.Debug().Msgf("Deleted key %s", key)
	return nil
}

// List retrieves the entries of every host under the configured prefix.
func (ep *EtcdPublisher) List(ctx context.Context) ([]*ContainerStatus, error) {
	resp, err := ep.client.Get(ctx, ep.cfg.PathPrefix+"/", clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}
	var statuses []*ContainerStatus
	for _, kv := range resp.Kvs {
		keyStr := string(kv.Key)
		s, err := unmarshalEtcdValue(keyStr, string(kv.Value), ep.cfg.PathPrefix)
		if err != nil {
			ep.logger.Error().Err(err).Msgf("Failed to parse key: %s", keyStr)
			continue
		}
		statuses = append(statuses, s)
	}
	return statuses, nil
}

func (ep *EtcdPublisher) Close() error {
	return ep.client.Close()
}
