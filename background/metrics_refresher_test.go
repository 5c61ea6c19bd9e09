package background

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/taskmanager-go/db"
	"github.com/user/taskmanager-go/tasks"
)

type fakePool struct{ inUse int }

func (p fakePool) Stats() db.PoolStats { return db.PoolStats{InUse: p.inUse, Max: 10} }

type fakeCounter struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *fakeCounter) CountByStatus(context.Context) (map[tasks.Status]int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return map[tasks.Status]int{tasks.StatusTodo: c.calls}, nil
}

func (c *fakeCounter) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type fakeSink struct {
	mu     sync.Mutex
	active int
	counts map[tasks.Status]int
	sets   int
}

func (s *fakeSink) SetDBConnections(active int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *fakeSink) SetTaskCounts(counts map[tasks.Status]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts = counts
	s.sets++
}

func TestRefresh(t *testing.T) {
	sink := &fakeSink{}
	r := MetricsRefresher{Pool: fakePool{inUse: 3}, Tasks: &fakeCounter{}, Sink: sink}

	r.Refresh(context.Background())

	assert.Equal(t, 3, sink.active)
	assert.Equal(t, map[tasks.Status]int{tasks.StatusTodo: 1}, sink.counts)
}

func TestRefresh_KeepsPreviousCountsOnError(t *testing.T) {
	sink := &fakeSink{counts: map[tasks.Status]int{tasks.StatusDone: 7}}
	r := MetricsRefresher{Pool: fakePool{inUse: 1}, Tasks: &fakeCounter{err: errors.New("boom")}, Sink: sink}

	r.Refresh(context.Background())

	assert.Equal(t, 1, sink.active)
	assert.Equal(t, map[tasks.Status]int{tasks.StatusDone: 7}, sink.counts)
	assert.Equal(t, 0, sink.sets)
}

func TestStartMetricsRefresher_TicksUntilStopped(t *testing.T) {
	counter := &fakeCounter{}
	stop := make(chan struct{})
	done := StartMetricsRefresher(MetricsRefresher{
		Pool:     fakePool{},
		Tasks:    counter,
		Sink:     &fakeSink{},
		Interval: 10 * time.Millisecond,
	}, stop)

	require.Eventually(t, func() bool { return counter.Calls() >= 3 }, time.Second, 5*time.Millisecond)

	close(stop)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop")
	}

	calls := counter.Calls()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, counter.Calls(), "no refresh after stop")
}
