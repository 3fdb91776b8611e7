package lights

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/models"
)

// Actuator switches a physical light by group address.
type Actuator interface {
	SetOn(ctx context.Context, address string) error
	SetOff(ctx context.Context, address string) error
}

type Options struct {
	DebounceWindow  time.Duration
	SwitchPrefix    string
	StatusPrefix    string
	ActuatorTimeout time.Duration
	// ResetOnAllocate switches every new light off once when it is allocated.
	ResetOnAllocate bool
}

func DefaultOptions() Options {
	return Options{
		DebounceWindow:  5 * time.Second,
		SwitchPrefix:    "0/0",
		StatusPrefix:    "0/1",
		ActuatorTimeout: 2 * time.Second,
	}
}

// Transition describes one state change of a light.
type Transition struct {
	Address  string
	From     models.LightState
	To       models.LightState
	Actuated bool
	Err      error
	At       time.Time
}

// Controller allocates zone lights and owns their debounce timers.
type Controller struct {
	actuator Actuator
	opts     Options
	clock    clockwork.Clock
	logger   zerolog.Logger

	mu     sync.Mutex
	lights []*Light
	next   int
	hook   func(Transition)
}

func NewController(actuator Actuator, opts Options, clock clockwork.Clock) *Controller {
	defaults := DefaultOptions()
	if opts.DebounceWindow <= 0 {
		opts.DebounceWindow = defaults.DebounceWindow
	}
	if opts.SwitchPrefix == "" {
		opts.SwitchPrefix = defaults.SwitchPrefix
	}
	if opts.StatusPrefix == "" {
		opts.StatusPrefix = defaults.StatusPrefix
	}
	if opts.ActuatorTimeout <= 0 {
		opts.ActuatorTimeout = defaults.ActuatorTimeout
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Controller{
		actuator: actuator,
		opts:     opts,
		clock:    clock,
		logger:   log.With().Str("service", "lights").Logger(),
	}
}

// OnTransition registers fn to be called after every state change, outside
// the light's lock.
func (c *Controller) OnTransition(fn func(Transition)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hook = fn
}

func (c *Controller) emit(t Transition) {
	c.mu.Lock()
	hook := c.hook
	c.mu.Unlock()
	if hook != nil {
		hook(t)
	}
}

// Allocate creates a light with the next free address. Address numbers are
// never reused, even after ReleaseAll.
func (c *Controller) Allocate() models.ZoneLight {
	c.mu.Lock()
	c.next++
	n := c.next
	l := &Light{
		ctrl:          c,
		address:       fmt.Sprintf("%s/%d", c.opts.SwitchPrefix, n),
		statusAddress: fmt.Sprintf("%s/%d", c.opts.StatusPrefix, n),
		state:         models.LightOff,
	}
	c.lights = append(c.lights, l)
	c.mu.Unlock()

	c.logger.Info().Str("address", l.address).Str("status_address", l.statusAddress).Msg("Light allocated")

	if c.opts.ResetOnAllocate {
		if err := l.actuate(false); err != nil {
			c.logger.Warn().Err(err).Str("address", l.address).Msg("Initial switch-off failed")
		}
	}
	return l
}

// ReleaseAll detaches every light. Lit lights are switched off at once and
// pending switch-offs still fire when their window ends. Released lights
// ignore further occupancy changes.
func (c *Controller) ReleaseAll() {
	c.mu.Lock()
	released := c.lights
	c.lights = nil
	c.mu.Unlock()

	for _, l := range released {
		if t := l.release(); t != nil {
			c.emit(*t)
		}
	}
	c.logger.Info().Int("lights", len(released)).Msg("Lights released")
}

// Lights returns snapshots in allocation order.
func (c *Controller) Lights() []models.LightSnapshot {
	c.mu.Lock()
	lights := append([]*Light(nil), c.lights...)
	c.mu.Unlock()
	return lo.Map(lights, func(l *Light, _ int) models.LightSnapshot { return l.Snapshot() })
}

func (c *Controller) Window() time.Duration {
	return c.opts.DebounceWindow
}
