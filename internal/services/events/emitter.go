package events

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/models"
	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/services/lights"
	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/services/tracking"
	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/services/zones"
)

type envelope struct {
	subject string
	payload interface{}
}

// Emitter turns registry, light and tracking activity into published events.
// Callers never wait on the broker: events go through a bounded buffer and
// are dropped when it is full.
type Emitter struct {
	publisher models.MessagePublisher
	workerID  string
	workers   int
	logger    zerolog.Logger

	mu     sync.RWMutex
	queue  chan envelope
	closed bool
	wg     sync.WaitGroup

	published atomic.Int64
	dropped   atomic.Int64
	failed    atomic.Int64
}

func NewEmitter(publisher models.MessagePublisher, workerID string, workers, buffer int) *Emitter {
	if workers <= 0 {
		workers = 1
	}
	if buffer <= 0 {
		buffer = 100
	}
	return &Emitter{
		publisher: publisher,
		workerID:  workerID,
		workers:   workers,
		logger:    log.With().Str("service", "events").Logger(),
		queue:     make(chan envelope, buffer),
	}
}

func (e *Emitter) Start() {
	for i := 0; i < e.workers; i++ {
		e.wg.Add(1)
		go e.run(i)
	}
	e.logger.Info().Int("workers", e.workers).Msg("Event publisher started")
}

func (e *Emitter) run(id int) {
	defer e.wg.Done()
	for env := range e.queue {
		e.publish(id, env)
	}
}

func (e *Emitter) publish(id int, env envelope) {
	defer func() {
		if r := recover(); r != nil {
			e.failed.Add(1)
			e.logger.Error().Int("worker", id).Interface("panic", r).Msg("Event publisher panic recovered")
		}
	}()

	if err := e.publisher.Publish(env.subject, env.payload); err != nil {
		e.failed.Add(1)
		e.logger.Warn().Err(err).Str("subject", env.subject).Msg("Failed to publish event")
		return
	}
	e.published.Add(1)
}

func (e *Emitter) emit(subject string, payload interface{}) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return
	}
	select {
	case e.queue <- envelope{subject: subject, payload: payload}:
	default:
		e.dropped.Add(1)
		e.logger.Warn().Str("subject", subject).Msg("Event buffer full, dropping event")
	}
}

func (e *Emitter) ZoneCreated(z zones.ZoneSnapshot) {
	e.emit(models.SubjectZoneCreated, models.ZoneEvent{
		WorkerID:     e.workerID,
		ZoneID:       z.ID,
		Polygon:      z.Polygon,
		LightAddress: z.LightAddress,
		Timestamp:    time.Now(),
	})
}

func (e *Emitter) ZonesCleared(count int) {
	e.emit(models.SubjectZonesCleared, models.ZoneEvent{
		WorkerID:  e.workerID,
		Cleared:   count,
		Timestamp: time.Now(),
	})
}

func (e *Emitter) OccupancyChanged(c zones.OccupancyChange) {
	e.emit(models.SubjectOccupancy, models.OccupancyEvent{
		WorkerID:     e.workerID,
		ZoneID:       c.ZoneID,
		LightAddress: c.LightAddress,
		Previous:     c.Previous,
		Occupancy:    c.Current,
		Timestamp:    time.Now(),
	})
}

// LightTransition is registered as the light controller's transition hook.
func (e *Emitter) LightTransition(t lights.Transition) {
	ev := models.LightEvent{
		WorkerID:  e.workerID,
		Address:   t.Address,
		From:      t.From,
		To:        t.To,
		Actuated:  t.Actuated,
		Timestamp: t.At,
	}
	if t.Err != nil {
		ev.Error = t.Err.Error()
	}
	e.emit(models.SubjectLight, ev)
}

func (e *Emitter) Detections(dets []models.Detection) {
	e.emit(models.SubjectDetections, models.DetectionEvent{
		WorkerID:   e.workerID,
		Detections: dets,
		Centers:    tracking.Centers(dets),
		Timestamp:  time.Now(),
	})
}

type Stats struct {
	Published int64 `json:"published"`
	Dropped   int64 `json:"dropped"`
	Failed    int64 `json:"failed"`
}

func (e *Emitter) Stats() Stats {
	return Stats{
		Published: e.published.Load(),
		Dropped:   e.dropped.Load(),
		Failed:    e.failed.Load(),
	}
}

// Shutdown stops accepting events and flushes what is buffered until ctx is done.
func (e *Emitter) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	if !e.closed {
		e.closed = true
		close(e.queue)
	}
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
