package dockerapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/auto-dns/docker-mount-notify/internal/domain"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/events"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDocker struct {
	mu          sync.Mutex
	summaries   []container.Summary
	inspect     map[string]container.InspectResponse
	inspectErr  error
	execCreates []container.ExecOptions
	execStarts  []container.ExecStartOptions
	execStartID []string
	createErr   error
	createID    string
	eventOpts   events.ListOptions
	msgCh       chan events.Message
	errCh       chan error
}

func newFakeDocker() *fakeDocker {
	return &fakeDocker{
		inspect:  map[string]container.InspectResponse{},
		createID: "exec-1",
		msgCh:    make(chan events.Message),
		errCh:    make(chan error, 1),
	}
}

func (f *fakeDocker) ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error) {
	return f.summaries, nil
}

func (f *fakeDocker) ContainerInspect(ctx context.Context, containerID string) (container.InspectResponse, error) {
	if f.inspectErr != nil {
		return container.InspectResponse{}, f.inspectErr
	}
	info, ok := f.inspect[containerID]
	if !ok {
		return container.InspectResponse{}, fmt.Errorf("No such container: %s", containerID)
	}
	return info, nil
}

func (f *fakeDocker) ContainerExecCreate(ctx context.Context, containerID string, options container.ExecOptions) (container.ExecCreateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.execCreates = append(f.execCreates, options)
	if f.createErr != nil {
		return container.ExecCreateResponse{}, f.createErr
	}
	return container.ExecCreateResponse{ID: f.createID}, nil
}

func (f *fakeDocker) ContainerExecStart(ctx context.Context, execID string, config container.ExecStartOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.execStartID = append(f.execStartID, execID)
	f.execStarts = append(f.execStarts, config)
	return nil
}

func (f *fakeDocker) Events(ctx context.Context, options events.ListOptions) (<-chan events.Message, <-chan error) {
	f.eventOpts = options
	return f.msgCh, f.errCh
}

func (f *fakeDocker) Close() error { return nil }

func TestInspectContainerTrimsNameAndCopiesMounts(t *testing.T) {
	fake := newFakeDocker()
	fake.inspect["web"] = container.InspectResponse{
		ContainerJSONBase: &container.ContainerJSONBase{ID: "abc123", Name: "/web"},
		Mounts: []container.MountPoint{
			{Type: mount.TypeBind, Source: "/host_mnt/c/proj", Destination: "/app"},
			{Type: mount.TypeVolume, Source: "/var/lib/docker/volumes/data", Destination: "/data"},
		},
	}
	c := NewClient(fake, zerolog.Nop())

	ctr, err := c.InspectContainer(context.Background(), "web")
	require.NoError(t, err)
	assert.Equal(t, "abc123", ctr.Id)
	assert.Equal(t, "web", ctr.Name)
	assert.Equal(t, []domain.Mount{
		{Type: "bind", Source: "/host_mnt/c/proj", Destination: "/app"},
		{Type: "volume", Source: "/var/lib/docker/volumes/data", Destination: "/data"},
	}, ctr.Mounts)
}

func TestInspectContainerClassifiesErrors(t *testing.T) {
	fake := newFakeDocker()
	c := NewClient(fake, zerolog.Nop())

	fake.inspectErr = client.ErrorConnectionFailed("npipe:////./pipe/docker_engine")
	_, err := c.InspectContainer(context.Background(), "web")
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)

	fake.inspectErr = fmt.Errorf("decode: %w", io.ErrUnexpectedEOF)
	_, err = c.InspectContainer(context.Background(), "web")
	var protocolErr *ProtocolError
	require.ErrorAs(t, err, &protocolErr)

	fake.inspectErr = nil
	fake.inspect["empty"] = container.InspectResponse{}
	_, err = c.InspectContainer(context.Background(), "empty")
	require.ErrorAs(t, err, &protocolErr)
}

func TestListContainersUsesFirstName(t *testing.T) {
	fake := newFakeDocker()
	fake.summaries = []container.Summary{
		{ID: "a", Names: []string{"/web"}},
		{ID: "b"},
	}
	c := NewClient(fake, zerolog.Nop())

	got, err := c.ListContainers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Container{{Id: "a", Name: "web"}, {Id: "b"}}, got)
}

func TestExecCreatesThenStartsDetached(t *testing.T) {
	fake := newFakeDocker()
	c := NewClient(fake, zerolog.Nop())

	err := c.Exec(context.Background(), "abc123", []string{"chmod", "+", "/app/x"}, "")
	require.NoError(t, err)

	require.Len(t, fake.execCreates, 1)
	assert.Equal(t, []string{"chmod", "+", "/app/x"}, []string(fake.execCreates[0].Cmd))
	require.Len(t, fake.execStarts, 1)
	assert.True(t, fake.execStarts[0].Detach)
	assert.Equal(t, "exec-1", fake.execStartID[0])
}

func TestExecWithoutExecIdIsProtocolError(t *testing.T) {
	fake := newFakeDocker()
	fake.createID = ""
	c := NewClient(fake, zerolog.Nop())

	err := c.Exec(context.Background(), "abc123", []string{"chmod", "+", "/app"}, "")
	var protocolErr *ProtocolError
	require.ErrorAs(t, err, &protocolErr)
	assert.Empty(t, fake.execStarts)
}

func TestSubscribeFiltersAndTerminates(t *testing.T) {
	fake := newFakeDocker()
	c := NewClient(fake, zerolog.Nop())

	since := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	out, errs := c.Subscribe(context.Background(), SubscribeOptions{Since: since, Containers: []string{"web"}})

	assert.Equal(t, []string{"container"}, fake.eventOpts.Filters.Get("type"))
	assert.ElementsMatch(t, []string{"start", "die"}, fake.eventOpts.Filters.Get("event"))
	assert.Equal(t, []string{"web"}, fake.eventOpts.Filters.Get("container"))
	assert.Equal(t, since.Format(time.RFC3339Nano), fake.eventOpts.Since)

	fake.msgCh <- events.Message{Action: "kill", Actor: events.Actor{ID: "abc"}}
	fake.msgCh <- events.Message{
		Action: events.ActionStart,
		Actor:  events.Actor{ID: "abc", Attributes: map[string]string{"name": "web"}},
	}

	select {
	case ev := <-out:
		assert.Equal(t, domain.EventTypeContainerStarted, ev.EventType)
		assert.Equal(t, "abc", ev.Container.Id)
		assert.Equal(t, "web", ev.Container.Name)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for start event")
	}

	fake.errCh <- io.EOF

	select {
	case err := <-errs:
		var closed *StreamClosedError
		require.ErrorAs(t, err, &closed)
		assert.True(t, errors.Is(err, io.EOF))
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for stream termination")
	}
	_, ok := <-out
	assert.False(t, ok, "event channel should be closed after termination")
}

func TestSubscribeCancelledContextIsNotAnError(t *testing.T) {
	fake := newFakeDocker()
	c := NewClient(fake, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	out, errs := c.Subscribe(ctx, SubscribeOptions{})
	cancel()

	select {
	case err, ok := <-errs:
		assert.False(t, ok, "unexpected error %v", err)
	case <-time.After(time.Second):
		t.Fatal("error channel was not closed")
	}
	_, ok := <-out
	assert.False(t, ok)
}
