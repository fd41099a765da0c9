package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/auto-dns/docker-mount-notify/internal/dockerapi"
	"github.com/auto-dns/docker-mount-notify/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	events chan domain.ContainerEvent
	errs   chan error
}

func newFakeGenerator() *fakeGenerator {
	return &fakeGenerator{
		events: make(chan domain.ContainerEvent),
		errs:   make(chan error, 1),
	}
}

func (g *fakeGenerator) Subscribe(ctx context.Context) (<-chan domain.ContainerEvent, <-chan error) {
	return g.events, g.errs
}

func runEngine(t *testing.T, eng *Engine) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- eng.Run(context.Background()) }()
	return done
}

func TestEngineAttachesAndDetachesOnLifecycleEvents(t *testing.T) {
	reg, opener, _, _ := newTestRegistry(webContainer)
	gen := newFakeGenerator()
	done := runEngine(t, NewEngine(zerolog.Nop(), gen, reg))

	gen.events <- domain.ContainerEvent{Container: domain.Container{Id: "abc123"}, EventType: domain.EventTypeInitialContainerDetection}
	gen.events <- domain.ContainerEvent{Container: domain.Container{Id: "unknown"}, EventType: domain.EventTypeContainerDied}
	gen.events <- domain.ContainerEvent{Container: domain.Container{Id: "abc123"}, EventType: domain.EventTypeContainerStarted}
	// The engine handles events one at a time, so the next send only completes after the
	// previous event was processed.
	gen.events <- domain.ContainerEvent{Container: domain.Container{}, EventType: domain.EventTypeContainerStarted}

	assert.True(t, reg.Has("abc123"))
	assert.Equal(t, 2, opener.openCount())
	assert.Len(t, opener.opened, 4)

	gen.events <- domain.ContainerEvent{Container: domain.Container{Id: "abc123"}, EventType: domain.EventTypeContainerDied}
	gen.events <- domain.ContainerEvent{}
	assert.False(t, reg.Has("abc123"))
	assert.Equal(t, 0, opener.openCount())

	close(gen.errs)
	close(gen.events)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("engine did not stop")
	}
}

func TestEngineSurfacesStreamTermination(t *testing.T) {
	reg, opener, _, _ := newTestRegistry(webContainer)
	gen := newFakeGenerator()
	done := runEngine(t, NewEngine(zerolog.Nop(), gen, reg))

	gen.events <- domain.ContainerEvent{Container: domain.Container{Id: "abc123"}, EventType: domain.EventTypeContainerStarted}
	gen.errs <- dockerapi.NewStreamClosedError(errors.New("EOF"))
	close(gen.events)

	select {
	case err := <-done:
		var closed *dockerapi.StreamClosedError
		require.ErrorAs(t, err, &closed)
	case <-time.After(time.Second):
		t.Fatal("engine did not stop")
	}
	assert.False(t, reg.Has("abc123"), "watchers are closed when the engine stops")
	assert.Equal(t, 0, opener.openCount())
}

func TestEngineKeepsRunningAfterAttachFailure(t *testing.T) {
	reg, _, _, _ := newTestRegistry(webContainer)
	gen := newFakeGenerator()
	done := runEngine(t, NewEngine(zerolog.Nop(), gen, reg))

	gen.events <- domain.ContainerEvent{Container: domain.Container{Id: "gone"}, EventType: domain.EventTypeContainerStarted}
	gen.events <- domain.ContainerEvent{Container: domain.Container{Id: "abc123"}, EventType: domain.EventTypeContainerStarted}
	gen.events <- domain.ContainerEvent{}

	assert.False(t, reg.Has("gone"))
	assert.True(t, reg.Has("abc123"))

	close(gen.errs)
	close(gen.events)
	<-done
}
