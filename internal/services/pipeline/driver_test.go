package pipeline

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/models"
	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/services/zones"
)

type sliceSource struct {
	frames []models.Frame
	errs   []error
	closed bool
}

func (s *sliceSource) Read(ctx context.Context) (models.Frame, error) {
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return models.Frame{}, err
	}
	if len(s.frames) == 0 {
		return models.Frame{}, io.EOF
	}
	f := s.frames[0]
	s.frames = s.frames[1:]
	return f, nil
}

func (s *sliceSource) Close() error {
	s.closed = true
	return nil
}

// echoTracker turns each submitted frame into one immediately pollable result.
type echoTracker struct {
	mu       sync.Mutex
	running  bool
	pending  [][]models.Detection
	starts   int
	stops    int
	detector func(models.Frame) []models.Detection
}

func (e *echoTracker) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = true
	e.starts++
}

func (e *echoTracker) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = false
	e.stops++
}

func (e *echoTracker) Submit(frame models.Frame) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending = append(e.pending, e.detector(frame))
	return true
}

func (e *echoTracker) TryPollResult() ([]models.Detection, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.pending) == 0 {
		return nil, false
	}
	r := e.pending[0]
	e.pending = e.pending[1:]
	return r, true
}

func (e *echoTracker) Drain() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := len(e.pending)
	e.pending = nil
	return n
}

type recordingZones struct {
	calls [][]models.Point
}

func (r *recordingZones) UpdateOccupancy(points []models.Point) []zones.OccupancyChange {
	r.calls = append(r.calls, points)
	return nil
}

type recordingSink struct {
	batches int
}

func (r *recordingSink) Detections(dets []models.Detection) { r.batches++ }

func personAt(x, y float64) []models.Detection {
	return []models.Detection{{Box: models.BBox{X: x - 5, Y: y - 5, W: 10, H: 10}, Score: 0.9, ClassID: models.ClassPerson}}
}

func TestDriverFeedsCentersToZones(t *testing.T) {
	tracker := &echoTracker{detector: func(f models.Frame) []models.Detection { return personAt(float64(f.ID*10), 50) }}
	occ := &recordingZones{}
	sink := &recordingSink{}
	src := &sliceSource{frames: []models.Frame{{ID: 1}, {ID: 2}, {ID: 3}}}

	d := NewDriver(src, tracker, occ, sink)
	d.StartTracking()
	require.True(t, d.IsTracking())

	require.NoError(t, d.Run(context.Background()))

	assert.Equal(t, [][]models.Point{{{X: 10, Y: 50}}, {{X: 20, Y: 50}}, {{X: 30, Y: 50}}}, occ.calls)
	assert.Equal(t, 3, sink.batches)
	assert.False(t, d.IsTracking(), "run stops tracking on exit")
	assert.Equal(t, Stats{Frames: 3, Results: 3}, d.Stats())
}

func TestDriverDiscardsResultsWhileStopped(t *testing.T) {
	tracker := &echoTracker{detector: func(models.Frame) []models.Detection { return personAt(1, 1) }}
	occ := &recordingZones{}
	d := NewDriver(&sliceSource{}, tracker, occ, nil)

	d.StartTracking()
	d.Step(models.Frame{ID: 1})
	require.Len(t, occ.calls, 1)

	// A result still in flight when tracking stops must not reach the zones.
	tracker.pending = append(tracker.pending, personAt(2, 2))
	d.tracking.Store(false)
	d.Step(models.Frame{ID: 2})

	assert.Len(t, occ.calls, 1)
	assert.Equal(t, int64(1), d.Stats().Ignored)
}

func TestDriverStopTrackingDrainsTracker(t *testing.T) {
	tracker := &echoTracker{detector: func(models.Frame) []models.Detection { return nil }}
	d := NewDriver(&sliceSource{}, tracker, &recordingZones{}, nil)

	d.StartTracking()
	d.StartTracking()
	tracker.Submit(models.Frame{})
	d.StopTracking()
	d.StopTracking()

	assert.Equal(t, 1, tracker.starts)
	assert.Equal(t, 1, tracker.stops)
	assert.Empty(t, tracker.pending)
}

func TestDriverNoSubmitWhileStopped(t *testing.T) {
	submitted := 0
	tracker := &echoTracker{detector: func(models.Frame) []models.Detection { submitted++; return nil }}
	d := NewDriver(&sliceSource{frames: []models.Frame{{ID: 1}, {ID: 2}}}, tracker, &recordingZones{}, nil)

	require.NoError(t, d.Run(context.Background()))
	assert.Equal(t, 0, submitted)
	assert.Equal(t, int64(2), d.Stats().Frames)
}

func TestDriverRecoversFromReadErrors(t *testing.T) {
	src := &sliceSource{
		errs:   []error{errors.New("timeout"), errors.New("timeout")},
		frames: []models.Frame{{ID: 1}},
	}
	d := NewDriver(src, &echoTracker{detector: func(models.Frame) []models.Detection { return nil }}, &recordingZones{}, nil)

	start := time.Now()
	require.NoError(t, d.Run(context.Background()))
	assert.Equal(t, int64(1), d.Stats().Frames)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestDriverStopsOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := NewDriver(&sliceSource{frames: []models.Frame{{ID: 1}}}, &echoTracker{}, &recordingZones{}, nil)
	require.NoError(t, d.Run(ctx))
	assert.Equal(t, int64(0), d.Stats().Frames)
}
