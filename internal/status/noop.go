package status

import (
	"context"

	"github.com/auto-dns/docker-mount-notify/internal/domain"
)

// Noop is used when no status backend is configured.
type Noop struct{}

func (Noop) Reset(ctx context.Context) error { return nil }

func (Noop) Publish(ctx context.Context, c domain.Container, targets []domain.WatchTarget) error {
	return nil
}

func (Noop) Unpublish(ctx context.Context, containerId string) error { return nil }

func (Noop) Close() error { return nil }
