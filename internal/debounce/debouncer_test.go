package debounce

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	fired []string
	at    []time.Time
	clk   clock.Clock
}

func (r *recorder) fire(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fired = append(r.fired, key)
	r.at = append(r.at, r.clk.Now())
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fired)
}

func (r *recorder) keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := append([]string(nil), r.fired...)
	sort.Strings(keys)
	return keys
}

const unit = time.Millisecond

func TestDebouncerBurstFiresOnceAfterQuietPeriod(t *testing.T) {
	mock := clock.NewMock()
	start := mock.Now()
	rec := &recorder{clk: mock}
	d := New(mock, 10*unit, rec.fire)
	defer d.Stop()

	assert.False(t, d.Trigger("f"))
	mock.Add(3 * unit)
	assert.True(t, d.Trigger("f"))
	mock.Add(3 * unit)
	assert.True(t, d.Trigger("f"))
	assert.Equal(t, 1, d.Pending())

	mock.Add(9 * unit) // t=15
	assert.Never(t, func() bool { return rec.count() > 0 }, 50*time.Millisecond, 5*time.Millisecond)

	mock.Add(1 * unit) // t=16
	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)

	mock.Add(20 * unit)
	assert.Never(t, func() bool { return rec.count() > 1 }, 50*time.Millisecond, 5*time.Millisecond)

	rec.mu.Lock()
	elapsed := rec.at[0].Sub(start)
	rec.mu.Unlock()
	assert.GreaterOrEqual(t, elapsed, 16*unit)
	assert.Less(t, elapsed, 26*unit)
	assert.Equal(t, 0, d.Pending())
}

func TestDebouncerKeysAreIndependent(t *testing.T) {
	mock := clock.NewMock()
	rec := &recorder{clk: mock}
	d := New(mock, 10*unit, rec.fire)
	defer d.Stop()

	d.Trigger("f")
	d.Trigger("g")
	assert.Equal(t, 2, d.Pending())

	mock.Add(10 * unit)
	require.Eventually(t, func() bool { return rec.count() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"f", "g"}, rec.keys())
}

func TestDebouncerEmptyKey(t *testing.T) {
	mock := clock.NewMock()
	rec := &recorder{clk: mock}
	d := New(mock, 10*unit, rec.fire)
	defer d.Stop()

	d.Trigger("")
	d.Trigger("")
	mock.Add(10 * unit)
	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{""}, rec.keys())
}

func TestDebouncerStopCancelsPending(t *testing.T) {
	mock := clock.NewMock()
	rec := &recorder{clk: mock}
	d := New(mock, 10*unit, rec.fire)

	d.Trigger("f")
	d.Stop()
	assert.False(t, d.Trigger("g"))
	assert.Equal(t, 0, d.Pending())

	mock.Add(50 * unit)
	assert.Never(t, func() bool { return rec.count() > 0 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestDebouncerRealClock(t *testing.T) {
	fired := make(chan string, 4)
	d := New(nil, 20*time.Millisecond, func(key string) { fired <- key })
	defer d.Stop()

	for i := 0; i < 5; i++ {
		d.Trigger("f")
		time.Sleep(2 * time.Millisecond)
	}

	select {
	case key := <-fired:
		assert.Equal(t, "f", key)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for debounced call")
	}
	select {
	case key := <-fired:
		t.Fatalf("unexpected second call for %q", key)
	case <-time.After(60 * time.Millisecond):
	}
}
