package app

import (
	"context"
	"fmt"

	"github.com/auto-dns/docker-mount-notify/internal/config"
	"github.com/auto-dns/docker-mount-notify/internal/core"
	"github.com/auto-dns/docker-mount-notify/internal/dockerapi"
	"github.com/auto-dns/docker-mount-notify/internal/domain"
	"github.com/auto-dns/docker-mount-notify/internal/event"
	"github.com/auto-dns/docker-mount-notify/internal/mounts"
	"github.com/auto-dns/docker-mount-notify/internal/propagate"
	"github.com/auto-dns/docker-mount-notify/internal/status"
	"github.com/auto-dns/docker-mount-notify/internal/watch"
	"github.com/benbjohnson/clock"
	dockerCli "github.com/docker/docker/client"
	"github.com/rs/zerolog"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// Options selects which containers are watched.
type Options struct {
	// Containers restricts watching to these names or ids. Empty means every container.
	Containers []string
	// Follow keeps watching container start/die events after the initial attach.
	Follow bool
}

type statusBackend interface {
	Reset(ctx context.Context) error
	Publish(ctx context.Context, c domain.Container, targets []domain.WatchTarget) error
	Unpublish(ctx context.Context, containerId string) error
	Close() error
}

type App struct {
	docker    *dockerapi.Client
	publisher statusBackend
	engine    *core.Engine
	cancel    context.CancelFunc
	logger    zerolog.Logger
}

// New creates a new App by wiring up all dependencies.
func New(cfg *config.Config, opts Options, logger zerolog.Logger) (*App, error) {
	// Docker CLI
	dockerClient, err := dockerCli.NewClientWithOpts(dockerCli.FromEnv, dockerCli.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	docker := dockerapi.NewClient(dockerClient, logger)

	var publisher statusBackend = status.Noop{}
	if cfg.Etcd.Enabled {
		publisher, err = NewEtcdPublisher(&cfg.Etcd, logger)
		if err != nil {
			_ = docker.Close()
			return nil, err
		}
	}

	application, err := build(cfg, opts, docker, publisher, clock.New(), logger)
	if err != nil {
		_ = docker.Close()
		_ = publisher.Close()
		return nil, err
	}
	return application, nil
}

// NewEtcdPublisher connects to etcd for the status mirror.
func NewEtcdPublisher(cfg *config.EtcdConfig, logger zerolog.Logger) (*status.EtcdPublisher, error) {
	etcdClient, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}
	return status.NewEtcdPublisher(etcdClient, cfg, logger), nil
}

func build(cfg *config.Config, opts Options, docker *dockerapi.Client, publisher statusBackend, clk clock.Clock, logger zerolog.Logger) (*App, error) {
	ignore, err := watch.NewIgnoreMatcher(cfg.App.IgnorePatterns)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	propagator := propagate.New(ctx, docker, cfg.App.ExecUser, logger)
	opener := core.FSOpener(watch.Options{
		Debounce: cfg.App.Debounce,
		Ignore:   ignore,
		Clock:    clk,
	}, propagator.Propagate, logger)

	resolver := mounts.NewResolver(cfg.App.HostMountRoot, cfg.App.HostPathStyle)
	registry := core.NewRegistry(docker, resolver, opener, publisher, logger)
	gen := event.NewDockerGenerator(docker, opts.Containers, opts.Follow, logger)
	engine := core.NewEngine(logger, gen, registry)

	return &App{
		docker:    docker,
		publisher: publisher,
		engine:    engine,
		cancel:    cancel,
		logger:    logger,
	}, nil
}

// Run watches containers until ctx is cancelled or the lifecycle event stream breaks.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info().Msg("Application starting")
	if err := a.publisher.Reset(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to clear stale status entries")
	}
	return a.engine.Run(ctx)
}

func (a *App) Close() error {
	a.cancel()
	var firstErr error
	if a.docker != nil {
		if err := a.docker.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close docker client: %w", err)
		}
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close status publisher: %w", err)
		}
	}
	return firstErr
}
