package ptz

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/models"
)

const (
	MinSpeed = 1
	MaxSpeed = 65
)

// Step values understood by the camera.
const (
	StepContinuous = 0
	StepSingle     = 1
)

// Command is one dispatch to the camera.
type Command struct {
	Action models.PTZAction
	Step   int
	Speed  int
}

// CameraLink delivers commands to a camera. Send blocks until the camera
// answered or ctx is done.
type CameraLink interface {
	Send(ctx context.Context, cmd Command) error
}

type Options struct {
	// Workers > 1 dispatches in parallel and gives up ordering.
	Workers     int
	Speed       int
	SendTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{Workers: 1, Speed: MaxSpeed, SendTimeout: 3 * time.Second}
}

// ClampSpeed bounds speed to what the camera accepts.
func ClampSpeed(speed int) int {
	if speed < MinSpeed {
		return MinSpeed
	}
	if speed > MaxSpeed {
		return MaxSpeed
	}
	return speed
}

type Stats struct {
	Enqueued   int64 `json:"enqueued"`
	Dispatched int64 `json:"dispatched"`
	Failed     int64 `json:"failed"`
	Pending    int   `json:"pending"`
	Workers    int   `json:"workers"`
	Speed      int   `json:"speed"`
}

// Queue is an unbounded FIFO of camera jobs drained by a fixed set of
// workers. Enqueue never blocks.
type Queue struct {
	link   CameraLink
	opts   Options
	logger zerolog.Logger

	mu     sync.Mutex
	cond   *sync.Cond
	jobs   []models.PTZJob
	closed bool

	speed      atomic.Int32
	enqueued   atomic.Int64
	dispatched atomic.Int64
	failed     atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewQueue starts the workers immediately.
func NewQueue(link CameraLink, opts Options) *Queue {
	defaults := DefaultOptions()
	if opts.Workers <= 0 {
		opts.Workers = defaults.Workers
	}
	if opts.Speed == 0 {
		opts.Speed = defaults.Speed
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = defaults.SendTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		link:   link,
		opts:   opts,
		logger: log.With().Str("service", "ptz").Logger(),
		ctx:    ctx,
		cancel: cancel,
	}
	q.cond = sync.NewCond(&q.mu)
	q.speed.Store(int32(ClampSpeed(opts.Speed)))

	for i := 0; i < opts.Workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	q.logger.Info().Int("workers", opts.Workers).Int("speed", q.Speed()).Msg("PTZ command queue started")
	return q
}

// Enqueue appends job to the queue. It returns false once the queue is shut down.
func (q *Queue) Enqueue(job models.PTZJob) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.jobs = append(q.jobs, job)
	q.enqueued.Add(1)
	q.cond.Signal()
	return true
}

// Move queues a movement. A continuous move runs until the next Stop.
func (q *Queue) Move(action models.PTZAction, continuous bool) bool {
	return q.Enqueue(models.PTZJob{Action: action, Continuous: continuous})
}

// Stop queues a stop behind everything already queued.
func (q *Queue) Stop() bool {
	return q.Enqueue(models.PTZJob{Action: models.PTZStop})
}

func (q *Queue) SetSpeed(speed int) int {
	clamped := ClampSpeed(speed)
	q.speed.Store(int32(clamped))
	return clamped
}

func (q *Queue) Speed() int {
	return int(q.speed.Load())
}

func (q *Queue) Stats() Stats {
	q.mu.Lock()
	pending := len(q.jobs)
	q.mu.Unlock()
	return Stats{
		Enqueued:   q.enqueued.Load(),
		Dispatched: q.dispatched.Load(),
		Failed:     q.failed.Load(),
		Pending:    pending,
		Workers:    q.opts.Workers,
		Speed:      q.Speed(),
	}
}

// Shutdown stops accepting jobs, drops whatever is still queued and waits for
// in-flight commands up to ctx.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	dropped := len(q.jobs)
	q.jobs = nil
	q.cond.Broadcast()
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.cancel()
		q.logger.Info().Int("dropped", dropped).Msg("PTZ command queue stopped")
		return nil
	case <-ctx.Done():
		q.cancel()
		return ctx.Err()
	}
}

func (q *Queue) next() (models.PTZJob, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.jobs) == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.closed {
		return models.PTZJob{}, false
	}
	job := q.jobs[0]
	q.jobs[0] = models.PTZJob{}
	q.jobs = q.jobs[1:]
	return job, true
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()
	for {
		job, ok := q.next()
		if !ok {
			return
		}
		q.dispatch(id, job)
	}
}

func (q *Queue) dispatch(worker int, job models.PTZJob) {
	defer func() {
		if r := recover(); r != nil {
			q.failed.Add(1)
			q.logger.Error().Int("worker", worker).Interface("panic", r).Msg("PTZ dispatch panic recovered")
		}
	}()

	cmd := q.command(job)
	ctx, cancel := context.WithTimeout(q.ctx, q.opts.SendTimeout)
	defer cancel()

	start := time.Now()
	if err := q.link.Send(ctx, cmd); err != nil {
		q.failed.Add(1)
		q.logger.Error().
			Err(fmt.Errorf("%w: %v", models.ErrCameraLink, err)).
			Int("worker", worker).
			Str("action", cmd.Action.String()).
			Msg("PTZ command failed")
		return
	}
	q.dispatched.Add(1)
	q.logger.Debug().
		Int("worker", worker).
		Str("action", cmd.Action.String()).
		Int("step", cmd.Step).
		Int("speed", cmd.Speed).
		Dur("took", time.Since(start)).
		Msg("PTZ command sent")
}

func (q *Queue) command(job models.PTZJob) Command {
	step := StepSingle
	if job.Continuous {
		step = StepContinuous
	}
	speed := q.Speed()
	if job.Speed != 0 {
		speed = ClampSpeed(job.Speed)
	}
	return Command{Action: job.Action, Step: step, Speed: speed}
}
