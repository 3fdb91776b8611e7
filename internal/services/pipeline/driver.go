package pipeline

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/models"
	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/services/tracking"
	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/services/zones"
)

// FrameSource yields frames until it returns io.EOF.
type FrameSource interface {
	Read(ctx context.Context) (models.Frame, error)
	Close() error
}

type Tracker interface {
	Start(ctx context.Context)
	Stop()
	Submit(frame models.Frame) bool
	TryPollResult() ([]models.Detection, bool)
	Drain() int
}

type OccupancyUpdater interface {
	UpdateOccupancy(points []models.Point) []zones.OccupancyChange
}

type DetectionSink interface {
	Detections(dets []models.Detection)
}

const maxConsecutiveReadErrors = 30

// Driver moves frames from the source into the tracker and folds finished
// results into zone occupancy. Results that arrive while tracking is off are
// discarded.
type Driver struct {
	source  FrameSource
	tracker Tracker
	zones   OccupancyUpdater
	sink    DetectionSink
	logger  zerolog.Logger

	mu       sync.Mutex
	ctx      context.Context
	tracking atomic.Bool

	frames  atomic.Int64
	results atomic.Int64
	ignored atomic.Int64
}

func NewDriver(source FrameSource, tracker Tracker, occupancy OccupancyUpdater, sink DetectionSink) *Driver {
	return &Driver{
		source:  source,
		tracker: tracker,
		zones:   occupancy,
		sink:    sink,
		logger:  log.With().Str("service", "pipeline").Logger(),
		ctx:     context.Background(),
	}
}

// Run reads frames until ctx is done or the source is exhausted.
func (d *Driver) Run(ctx context.Context) error {
	d.mu.Lock()
	d.ctx = ctx
	d.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().Interface("panic", r).Msg("Pipeline panic recovered")
		}
	}()
	defer d.StopTracking()

	d.logger.Info().Msg("Pipeline started")
	readErrors := 0
	for {
		if ctx.Err() != nil {
			d.logger.Info().Msg("Pipeline stopping")
			return nil
		}

		frame, err := d.source.Read(ctx)
		if errors.Is(err, io.EOF) {
			d.logger.Info().Int64("frames", d.frames.Load()).Msg("Video source exhausted")
			return nil
		}
		if err != nil {
			readErrors++
			d.logger.Warn().Err(err).Int("consecutive", readErrors).Msg("Frame read failed")
			if readErrors >= maxConsecutiveReadErrors {
				return err
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}
		readErrors = 0
		d.Step(frame)
	}
}

// Step handles one captured frame: submit it and fold in at most one result.
func (d *Driver) Step(frame models.Frame) {
	d.frames.Add(1)
	if d.tracking.Load() {
		d.tracker.Submit(frame)
	}

	dets, ok := d.tracker.TryPollResult()
	if !ok {
		return
	}
	if !d.tracking.Load() {
		d.ignored.Add(1)
		return
	}
	d.results.Add(1)
	d.zones.UpdateOccupancy(tracking.Centers(dets))
	if d.sink != nil {
		d.sink.Detections(dets)
	}
}

func (d *Driver) StartTracking() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tracking.Load() {
		return
	}
	d.tracker.Start(d.ctx)
	d.tracking.Store(true)
	d.logger.Info().Msg("Tracking started")
}

func (d *Driver) StopTracking() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.tracking.Load() {
		return
	}
	d.tracking.Store(false)
	d.tracker.Stop()
	dropped := d.tracker.Drain()
	d.logger.Info().Int("discarded", dropped).Msg("Tracking stopped")
}

func (d *Driver) IsTracking() bool {
	return d.tracking.Load()
}

type Stats struct {
	Frames   int64 `json:"frames"`
	Results  int64 `json:"results"`
	Ignored  int64 `json:"ignored"`
	Tracking bool  `json:"tracking"`
}

func (d *Driver) Stats() Stats {
	return Stats{
		Frames:   d.frames.Load(),
		Results:  d.results.Load(),
		Ignored:  d.ignored.Load(),
		Tracking: d.tracking.Load(),
	}
}
