package tracking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/models"
)

var ErrPoolStopped = errors.New("tracking pool stopped")

// Detector turns a frame into raw detections.
type Detector interface {
	Detect(ctx context.Context, frame models.Frame) ([]models.Detection, error)
}

type Options struct {
	Workers        int
	QueueSize      int
	SubmitInterval int // Only every Nth submitted frame is queued
	ClassID        int
	MinScore       float64
	DetectTimeout  time.Duration
}

func DefaultOptions() Options {
	return Options{
		Workers:        5,
		QueueSize:      10,
		SubmitInterval: 2,
		ClassID:        models.ClassPerson,
		MinScore:       0.5,
		DetectTimeout:  5 * time.Second,
	}
}

type Stats struct {
	Offered   int64 `json:"offered"`
	Skipped   int64 `json:"skipped"`
	Submitted int64 `json:"submitted"`
	Dropped   int64 `json:"dropped"`
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
	Workers   int   `json:"workers"`
	Queued    int   `json:"queued"`
	Running   bool  `json:"running"`
}

// Pool runs detection on a fixed set of workers fed from one bounded queue.
// Submit and TryPollResult never block; results come back in no particular
// order.
type Pool struct {
	detector Detector
	opts     Options
	logger   zerolog.Logger

	jobs    chan models.Frame
	results chan []models.Detection

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running atomic.Bool

	offered   atomic.Int64
	skipped   atomic.Int64
	submitted atomic.Int64
	dropped   atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64
}

func NewPool(detector Detector, opts Options) *Pool {
	defaults := DefaultOptions()
	if opts.Workers <= 0 {
		opts.Workers = defaults.Workers
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaults.QueueSize
	}
	if opts.SubmitInterval <= 0 {
		opts.SubmitInterval = 1
	}
	if opts.DetectTimeout <= 0 {
		opts.DetectTimeout = defaults.DetectTimeout
	}
	return &Pool{
		detector: detector,
		opts:     opts,
		logger:   log.With().Str("service", "tracking").Logger(),
		jobs:     make(chan models.Frame, opts.QueueSize),
		results:  make(chan []models.Detection, opts.QueueSize),
	}
}

// Start launches the workers. Calling Start on a running pool is a no-op.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running.Load() {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running.Store(true)

	for i := 0; i < p.opts.Workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
	p.logger.Info().
		Int("workers", p.opts.Workers).
		Int("queue_size", p.opts.QueueSize).
		Int("submit_interval", p.opts.SubmitInterval).
		Msg("Tracking pool started")
}

// Stop cancels the workers and waits for them. In-flight inferences finish
// but their results are dropped.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.running.Load() {
		p.mu.Unlock()
		return
	}
	p.running.Store(false)
	p.cancel()
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info().Msg("Tracking pool stopped")
}

func (p *Pool) Running() bool {
	return p.running.Load()
}

// Submit offers a frame. Only every Nth offered frame is queued; a full queue
// drops the frame. It returns true when the frame was queued.
func (p *Pool) Submit(frame models.Frame) bool {
	n := p.offered.Add(1)
	if (n-1)%int64(p.opts.SubmitInterval) != 0 {
		p.skipped.Add(1)
		return false
	}
	if !p.running.Load() {
		p.dropped.Add(1)
		return false
	}

	select {
	case p.jobs <- frame:
		p.submitted.Add(1)
		return true
	default:
		p.dropped.Add(1)
		p.logger.Debug().Int64("frame_id", frame.ID).Msg("Tracking queue full, dropping frame")
		return false
	}
}

// TryPollResult returns one finished result if any is ready.
func (p *Pool) TryPollResult() ([]models.Detection, bool) {
	select {
	case dets := <-p.results:
		return dets, true
	default:
		return nil, false
	}
}

// Drain discards every queued frame and pending result.
func (p *Pool) Drain() int {
	n := 0
	for {
		select {
		case <-p.jobs:
			n++
		case <-p.results:
			n++
		default:
			return n
		}
	}
}

func (p *Pool) Stats() Stats {
	return Stats{
		Offered:   p.offered.Load(),
		Skipped:   p.skipped.Load(),
		Submitted: p.submitted.Load(),
		Dropped:   p.dropped.Load(),
		Processed: p.processed.Load(),
		Failed:    p.failed.Load(),
		Workers:   p.opts.Workers,
		Queued:    len(p.jobs),
		Running:   p.running.Load(),
	}
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-p.jobs:
			dets, err := p.process(ctx, frame)
			if err != nil {
				p.failed.Add(1)
				p.logger.Warn().Err(err).Int("worker", id).Int64("frame_id", frame.ID).Msg("Detection failed")
				continue
			}
			p.processed.Add(1)
			select {
			case p.results <- dets:
			case <-ctx.Done():
				return
			default:
				p.logger.Debug().Int("worker", id).Msg("Result buffer full, dropping result")
			}
		}
	}
}

func (p *Pool) process(ctx context.Context, frame models.Frame) (dets []models.Detection, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", models.ErrDetector, r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, p.opts.DetectTimeout)
	defer cancel()

	raw, err := p.detector.Detect(ctx, frame)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrDetector, err)
	}
	return Filter(raw, p.opts.ClassID, p.opts.MinScore), nil
}

// Filter keeps detections of classID scoring at least minScore.
func Filter(dets []models.Detection, classID int, minScore float64) []models.Detection {
	return lo.Filter(dets, func(d models.Detection, _ int) bool {
		return d.ClassID == classID && d.Score >= minScore
	})
}

// Centers reduces detections to their box centres.
func Centers(dets []models.Detection) []models.Point {
	return lo.Map(dets, func(d models.Detection, _ int) models.Point { return d.Box.Center() })
}
