package lights

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/models"
)

// Light is the debounce state machine of one zone light.
//
//	OFF         --count>0-->  ON           (switch on)
//	ON          --count=0-->  PENDING_OFF  (start timer)
//	PENDING_OFF --count>0-->  ON           (cancel timer, no command)
//	PENDING_OFF --timer---->  OFF          (switch off)
//
// Every field below mu is guarded by it. Commands are sent while holding mu
// so physical switching follows the logical order.
type Light struct {
	ctrl          *Controller
	address       string
	statusAddress string

	mu           sync.Mutex
	state        models.LightState
	pendingSince time.Time
	timer        clockwork.Timer
	generation   uint64
	released     bool
}

func (l *Light) Address() string {
	return l.address
}

func (l *Light) StatusAddress() string {
	return l.statusAddress
}

func (l *Light) State() models.LightState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Light) Snapshot() models.LightSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	snap := models.LightSnapshot{
		Address:       l.address,
		StatusAddress: l.statusAddress,
		State:         l.state,
	}
	if l.state == models.LightPendingOff {
		since := l.pendingSince
		deadline := since.Add(l.ctrl.opts.DebounceWindow)
		snap.PendingSince = &since
		snap.Deadline = &deadline
	}
	return snap
}

// OnOccupancyChanged feeds a new zone count into the state machine. An
// actuator failure is returned but the logical state is committed anyway.
func (l *Light) OnOccupancyChanged(count int) error {
	l.mu.Lock()
	t := l.onOccupancyLocked(count)
	l.mu.Unlock()

	if t == nil {
		return nil
	}
	l.ctrl.emit(*t)
	return t.Err
}

func (l *Light) onOccupancyLocked(count int) *Transition {
	if l.released {
		return nil
	}
	from := l.state
	now := l.ctrl.clock.Now()

	if count > 0 {
		switch l.state {
		case models.LightOff:
			err := l.actuate(true)
			l.state = models.LightOn
			return &Transition{Address: l.address, From: from, To: l.state, Actuated: true, Err: err, At: now}
		case models.LightPendingOff:
			l.cancelTimerLocked()
			l.state = models.LightOn
			l.ctrl.logger.Debug().Str("address", l.address).Msg("Zone re-occupied, switch-off cancelled")
			return &Transition{Address: l.address, From: from, To: l.state, At: now}
		}
		return nil
	}

	if l.state != models.LightOn {
		return nil
	}
	l.state = models.LightPendingOff
	l.pendingSince = now
	l.generation++
	gen := l.generation
	l.timer = l.ctrl.clock.AfterFunc(l.ctrl.opts.DebounceWindow, func() { l.expire(gen) })
	l.ctrl.logger.Debug().
		Str("address", l.address).
		Dur("window", l.ctrl.opts.DebounceWindow).
		Msg("Zone empty, switch-off pending")
	return &Transition{Address: l.address, From: from, To: l.state, At: now}
}

func (l *Light) expire(gen uint64) {
	defer func() {
		if r := recover(); r != nil {
			l.ctrl.logger.Error().Str("address", l.address).Interface("panic", r).Msg("Light timer panic recovered")
		}
	}()

	l.mu.Lock()
	// A cancel or re-arm after this timer was started bumps the generation.
	// Released lights still finish their pending switch-off.
	if gen != l.generation || l.state != models.LightPendingOff {
		l.mu.Unlock()
		return
	}
	l.timer = nil
	err := l.actuate(false)
	l.state = models.LightOff
	t := Transition{
		Address:  l.address,
		From:     models.LightPendingOff,
		To:       models.LightOff,
		Actuated: true,
		Err:      err,
		At:       l.ctrl.clock.Now(),
	}
	l.mu.Unlock()

	l.ctrl.emit(t)
}

func (l *Light) cancelTimerLocked() {
	l.generation++
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
}

// release detaches the light from occupancy. A lit light is switched off now;
// a pending switch-off keeps its timer and fires after the window.
func (l *Light) release() *Transition {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.released = true
	if l.state != models.LightOn {
		return nil
	}
	err := l.actuate(false)
	l.state = models.LightOff
	return &Transition{
		Address:  l.address,
		From:     models.LightOn,
		To:       models.LightOff,
		Actuated: true,
		Err:      err,
		At:       l.ctrl.clock.Now(),
	}
}

func (l *Light) actuate(on bool) error {
	c := l.ctrl
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.ActuatorTimeout)
	defer cancel()

	var err error
	if on {
		err = c.actuator.SetOn(ctx, l.address)
	} else {
		err = c.actuator.SetOff(ctx, l.address)
	}
	if err != nil {
		c.logger.Error().Err(err).Str("address", l.address).Bool("on", on).Msg("Light command failed")
		return fmt.Errorf("%w: %s: %v", models.ErrActuatorDispatch, l.address, err)
	}
	c.logger.Info().Str("address", l.address).Bool("on", on).Msg("Light switched")
	return nil
}
