package zones

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/models"
)

var ErrTooFewPoints = errors.New("a zone needs at least 3 points")

// OccupancyPolicy selects how points are folded into a zone count.
type OccupancyPolicy string

const (
	// PolicyAccumulate counts every contained point.
	PolicyAccumulate OccupancyPolicy = "accumulate"
	// PolicyLastPointReset zeroes the running count whenever a point falls
	// outside the zone, so only the trailing run of contained points counts.
	PolicyLastPointReset OccupancyPolicy = "last_point_reset"
)

func ParsePolicy(s string) (OccupancyPolicy, error) {
	switch p := OccupancyPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyAccumulate, PolicyLastPointReset:
		return p, nil
	case "":
		return PolicyAccumulate, nil
	default:
		return "", fmt.Errorf("unknown occupancy policy %q", s)
	}
}

// LightAllocator hands out one light per zone.
type LightAllocator interface {
	Allocate() models.ZoneLight
	ReleaseAll()
}

// Observer is told about registry changes after the registry lock is released.
type Observer interface {
	ZoneCreated(zone ZoneSnapshot)
	ZonesCleared(count int)
	OccupancyChanged(change OccupancyChange)
}

type Options struct {
	CollisionMargin float64
	Policy          OccupancyPolicy
}

func DefaultOptions() Options {
	return Options{CollisionMargin: 50, Policy: PolicyAccumulate}
}

type zone struct {
	id        string
	key       string
	polygon   []models.Point
	occupancy int
	light     models.ZoneLight
	createdAt time.Time
}

// ZoneSnapshot is a read-only copy of a zone.
type ZoneSnapshot struct {
	ID           string            `json:"id"`
	Polygon      []models.Point    `json:"polygon"`
	Occupancy    int               `json:"occupancy"`
	LightAddress string            `json:"light_address"`
	LightState   models.LightState `json:"light_state"`
	CreatedAt    time.Time         `json:"created_at"`
}

// OccupancyChange is emitted for every zone whose count differs from the
// previous update.
type OccupancyChange struct {
	ZoneID       string `json:"zone_id"`
	LightAddress string `json:"light_address"`
	Previous     int    `json:"previous"`
	Current      int    `json:"current"`

	light models.ZoneLight
}

// LoadResult reports what LoadZones did.
type LoadResult struct {
	Loaded  int `json:"loaded"`
	Skipped int `json:"skipped"`
}

// Registry owns the zone set. Every mutation serializes on mu; lights and the
// observer are called only after mu is released.
type Registry struct {
	mu       sync.Mutex
	zones    []*zone
	byKey    map[string]*zone
	lights   LightAllocator
	store    Store
	observer Observer
	opts     Options
	logger   zerolog.Logger
}

func NewRegistry(lights LightAllocator, store Store, opts Options) *Registry {
	if opts.CollisionMargin < 0 {
		opts.CollisionMargin = 0
	}
	if opts.Policy == "" {
		opts.Policy = PolicyAccumulate
	}
	return &Registry{
		byKey:  make(map[string]*zone),
		lights: lights,
		store:  store,
		opts:   opts,
		logger: log.With().Str("service", "zones").Logger(),
	}
}

// SetObserver must be called before the registry is shared.
func (r *Registry) SetObserver(o Observer) {
	r.observer = o
}

func (r *Registry) Policy() OccupancyPolicy {
	return r.opts.Policy
}

func polygonKey(polygon []models.Point) string {
	return FormatPolygon(polygon)
}

// CreateZone registers a zone for the given vertices. A polygon that
// canonicalizes to an existing zone is rejected with ErrDuplicateZone.
func (r *Registry) CreateZone(points []models.Point) (ZoneSnapshot, error) {
	if len(points) < 3 {
		return ZoneSnapshot{}, ErrTooFewPoints
	}
	canonical := OrderClockwise(points)

	r.mu.Lock()
	z, err := r.createLocked(canonical)
	if err != nil {
		r.mu.Unlock()
		r.logger.Warn().Str("polygon", FormatPolygon(canonical)).Msg("Zone already exists, ignoring")
		return ZoneSnapshot{}, err
	}
	snap := z.snapshot()
	r.mu.Unlock()

	r.logger.Info().
		Str("zone_id", snap.ID).
		Str("light", snap.LightAddress).
		Int("vertices", len(snap.Polygon)).
		Msg("Zone created")

	if r.observer != nil {
		r.observer.ZoneCreated(snap)
	}
	return snap, nil
}

func (r *Registry) createLocked(canonical []models.Point) (*zone, error) {
	key := polygonKey(canonical)
	if _, exists := r.byKey[key]; exists {
		return nil, models.ErrDuplicateZone
	}
	z := &zone{
		id:        uuid.NewString(),
		key:       key,
		polygon:   canonical,
		light:     r.lights.Allocate(),
		createdAt: time.Now(),
	}
	r.zones = append(r.zones, z)
	r.byKey[key] = z
	return z, nil
}

// Contains reports whether point falls in the zone given the collision margin.
func (r *Registry) Contains(polygon []models.Point, point models.Point) bool {
	return Intersects(polygon, point, r.opts.CollisionMargin)
}

// UpdateOccupancy recounts every zone from scratch and notifies the light of
// each zone whose count changed. Unchanged zones are left alone.
func (r *Registry) UpdateOccupancy(points []models.Point) []OccupancyChange {
	r.mu.Lock()
	var changes []OccupancyChange
	for _, z := range r.zones {
		count := r.count(z.polygon, points)
		if count == z.occupancy {
			continue
		}
		changes = append(changes, OccupancyChange{
			ZoneID:       z.id,
			LightAddress: z.light.Address(),
			Previous:     z.occupancy,
			Current:      count,
			light:        z.light,
		})
		z.occupancy = count
	}
	r.mu.Unlock()

	for _, change := range changes {
		r.logger.Debug().
			Str("zone_id", change.ZoneID).
			Int("previous", change.Previous).
			Int("occupancy", change.Current).
			Msg("Zone occupancy changed")

		if err := change.light.OnOccupancyChanged(change.Current); err != nil {
			r.logger.Error().Err(err).Str("light", change.LightAddress).Msg("Light did not follow occupancy change")
		}
		if r.observer != nil {
			r.observer.OccupancyChanged(change)
		}
	}
	return changes
}

func (r *Registry) count(polygon []models.Point, points []models.Point) int {
	count := 0
	for _, p := range points {
		if r.Contains(polygon, p) {
			count++
		} else if r.opts.Policy == PolicyLastPointReset {
			count = 0
		}
	}
	return count
}

// SaveZones writes every polygon, in creation order, to the store.
func (r *Registry) SaveZones(ctx context.Context) (int, error) {
	r.mu.Lock()
	polygons := lo.Map(r.zones, func(z *zone, _ int) []models.Point { return z.polygon })
	r.mu.Unlock()

	if r.store == nil {
		return 0, fmt.Errorf("%w: no store configured", models.ErrPersistence)
	}
	if err := r.store.Save(ctx, polygons); err != nil {
		return 0, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}
	r.logger.Info().Int("zones", len(polygons)).Msg("Zones saved")
	return len(polygons), nil
}

// LoadZones reads every polygon from the store before touching the registry.
// Any read or parse error leaves the registry as it was. Polygons matching an
// existing zone are skipped.
func (r *Registry) LoadZones(ctx context.Context) (LoadResult, error) {
	if r.store == nil {
		return LoadResult{}, fmt.Errorf("%w: no store configured", models.ErrPersistence)
	}
	polygons, err := r.store.Load(ctx)
	if err != nil {
		return LoadResult{}, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}
	for i, polygon := range polygons {
		if len(polygon) < 3 {
			return LoadResult{}, fmt.Errorf("%w: zone %d: %w", models.ErrPersistence, i+1, ErrTooFewPoints)
		}
	}

	var (
		result  LoadResult
		created []ZoneSnapshot
	)
	r.mu.Lock()
	for _, polygon := range polygons {
		z, err := r.createLocked(OrderClockwise(polygon))
		if err != nil {
			result.Skipped++
			continue
		}
		result.Loaded++
		created = append(created, z.snapshot())
	}
	r.mu.Unlock()

	r.logger.Info().Int("loaded", result.Loaded).Int("skipped", result.Skipped).Msg("Zones loaded")

	if r.observer != nil {
		for _, snap := range created {
			r.observer.ZoneCreated(snap)
		}
	}
	return result, nil
}

// DeleteAllZones removes every zone and releases their lights, cancelling any
// pending switch-off.
func (r *Registry) DeleteAllZones() int {
	r.mu.Lock()
	n := len(r.zones)
	r.zones = nil
	r.byKey = make(map[string]*zone)
	r.lights.ReleaseAll()
	r.mu.Unlock()

	r.logger.Info().Int("zones", n).Msg("All zones deleted")
	if r.observer != nil {
		r.observer.ZonesCleared(n)
	}
	return n
}

// Zones returns snapshots in creation order.
func (r *Registry) Zones() []ZoneSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return lo.Map(r.zones, func(z *zone, _ int) ZoneSnapshot { return z.snapshot() })
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.zones)
}

func (z *zone) snapshot() ZoneSnapshot {
	polygon := make([]models.Point, len(z.polygon))
	copy(polygon, z.polygon)
	return ZoneSnapshot{
		ID:           z.id,
		Polygon:      polygon,
		Occupancy:    z.occupancy,
		LightAddress: z.light.Address(),
		LightState:   z.light.State(),
		CreatedAt:    z.createdAt,
	}
}
