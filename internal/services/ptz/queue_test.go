package ptz

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/models"
)

type recordingLink struct {
	mu       sync.Mutex
	sent     []Command
	delay    time.Duration
	failures map[models.PTZAction]error

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (l *recordingLink) Send(ctx context.Context, cmd Command) error {
	n := l.inFlight.Add(1)
	defer l.inFlight.Add(-1)
	for {
		peak := l.maxInFlight.Load()
		if n <= peak || l.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}
	if l.delay > 0 {
		time.Sleep(l.delay)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.sent = append(l.sent, cmd)
	return l.failures[cmd.Action]
}

func (l *recordingLink) commands() []Command {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Command(nil), l.sent...)
}

func shutdown(t *testing.T, q *Queue) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, q.Shutdown(ctx))
}

func TestQueueDispatchesInEnqueueOrder(t *testing.T) {
	link := &recordingLink{delay: 5 * time.Millisecond}
	q := NewQueue(link, DefaultOptions())
	defer shutdown(t, q)

	require.True(t, q.Move(models.PTZLeft, true))
	require.True(t, q.Move(models.PTZLeft, true))
	require.True(t, q.Stop())

	require.Eventually(t, func() bool { return len(link.commands()) == 3 }, time.Second, 5*time.Millisecond)

	want := []Command{
		{Action: models.PTZLeft, Step: StepContinuous, Speed: MaxSpeed},
		{Action: models.PTZLeft, Step: StepContinuous, Speed: MaxSpeed},
		{Action: models.PTZStop, Step: StepSingle, Speed: MaxSpeed},
	}
	if diff := cmp.Diff(want, link.commands()); diff != "" {
		t.Errorf("dispatch order (-want +got):\n%s", diff)
	}
	assert.Equal(t, int32(1), link.maxInFlight.Load(), "commands must not overlap")
}

func TestQueueLongSequenceKeepsOrder(t *testing.T) {
	link := &recordingLink{}
	q := NewQueue(link, DefaultOptions())
	defer shutdown(t, q)

	actions := []models.PTZAction{models.PTZUp, models.PTZRight, models.PTZStop, models.PTZZoomIn, models.PTZStop, models.PTZDown}
	for i := 0; i < 20; i++ {
		for _, a := range actions {
			q.Move(a, false)
		}
	}
	require.Eventually(t, func() bool { return len(link.commands()) == 20*len(actions) }, 2*time.Second, 5*time.Millisecond)

	for i, cmd := range link.commands() {
		assert.Equal(t, actions[i%len(actions)], cmd.Action, "position %d", i)
		assert.Equal(t, StepSingle, cmd.Step)
	}
}

func TestEnqueueNeverBlocks(t *testing.T) {
	release := make(chan struct{})
	link := &blockingLink{release: release}
	q := NewQueue(link, DefaultOptions())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			q.Move(models.PTZRight, false)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked behind a slow camera")
	}
	assert.GreaterOrEqual(t, q.Stats().Pending, 999)

	close(release)
	shutdown(t, q)
	assert.False(t, q.Move(models.PTZLeft, false), "closed queue rejects jobs")
}

type blockingLink struct {
	release chan struct{}
}

func (l *blockingLink) Send(ctx context.Context, _ Command) error {
	select {
	case <-l.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestSendFailureDoesNotStopQueue(t *testing.T) {
	link := &recordingLink{failures: map[models.PTZAction]error{models.PTZUp: errors.New("timeout")}}
	q := NewQueue(link, DefaultOptions())
	defer shutdown(t, q)

	q.Move(models.PTZUp, false)
	q.Move(models.PTZDown, false)

	require.Eventually(t, func() bool { return len(link.commands()) == 2 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return q.Stats().Dispatched == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(1), q.Stats().Failed)
}

func TestSpeed(t *testing.T) {
	assert.Equal(t, MinSpeed, ClampSpeed(-5))
	assert.Equal(t, MinSpeed, ClampSpeed(0))
	assert.Equal(t, 30, ClampSpeed(30))
	assert.Equal(t, MaxSpeed, ClampSpeed(200))

	link := &recordingLink{}
	q := NewQueue(link, Options{Workers: 1, Speed: 500})
	defer shutdown(t, q)
	assert.Equal(t, MaxSpeed, q.Speed())

	assert.Equal(t, 10, q.SetSpeed(10))
	q.Move(models.PTZLeft, false)
	q.Enqueue(models.PTZJob{Action: models.PTZRight, Speed: 90})

	require.Eventually(t, func() bool { return len(link.commands()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 10, link.commands()[0].Speed)
	assert.Equal(t, MaxSpeed, link.commands()[1].Speed)
}

func TestParallelWorkers(t *testing.T) {
	link := &recordingLink{delay: 20 * time.Millisecond}
	q := NewQueue(link, Options{Workers: 2})
	defer shutdown(t, q)

	for i := 0; i < 6; i++ {
		q.Move(models.PTZLeft, true)
	}
	require.Eventually(t, func() bool { return len(link.commands()) == 6 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(2), link.maxInFlight.Load())
}

func TestHTTPCameraLink(t *testing.T) {
	var (
		mu       sync.Mutex
		requests []*http.Request
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests = append(requests, r)
		mu.Unlock()

		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte("[Succeed]set ok."))
	}))
	defer srv.Close()

	ctx := context.Background()
	link := NewHTTPCameraLink(srv.URL, "admin", "secret", time.Second)

	require.NoError(t, link.Send(ctx, Command{Action: models.PTZZoomIn, Step: StepContinuous, Speed: 40}))
	require.NoError(t, link.Probe(ctx))
	require.NoError(t, link.Send(ctx, Command{Action: models.PTZStop, Step: StepSingle, Speed: 40}))

	mu.Lock()
	require.Len(t, requests, 3)
	assert.Equal(t, "/cgi-bin/hi3510/ptzctrl.cgi", requests[0].URL.Path)
	assert.Equal(t, "-step=0&-act=zoomin&-speed=40", requests[0].URL.RawQuery)
	assert.Equal(t, "/cgi-bin/hi3510/param.cgi", requests[1].URL.Path)
	assert.Equal(t, "cmd=getnetattr", requests[1].URL.RawQuery)
	assert.Equal(t, "-act=stop", requests[2].URL.RawQuery, "stop carries no step or speed")
	mu.Unlock()

	t.Run("wrong credentials", func(t *testing.T) {
		bad := NewHTTPCameraLink(srv.URL, "admin", "nope", time.Second)
		assert.Error(t, bad.Send(ctx, Command{Action: models.PTZStop, Step: StepSingle, Speed: 1}))
		assert.Error(t, bad.Probe(ctx))
	})

	t.Run("unreachable camera", func(t *testing.T) {
		dead := NewHTTPCameraLink("127.0.0.1:1", "", "", 200*time.Millisecond)
		assert.Error(t, dead.Probe(ctx))
	})
}
