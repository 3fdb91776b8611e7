package zones

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/models"
)

type fakeLight struct {
	mu      sync.Mutex
	address string
	counts  []int
	err     error
}

func (l *fakeLight) Address() string { return l.address }
func (l *fakeLight) State() models.LightState { return models.LightOff }

func (l *fakeLight) OnOccupancyChanged(count int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counts = append(l.counts, count)
	return l.err
}

func (l *fakeLight) calls() []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]int(nil), l.counts...)
}

type fakeAllocator struct {
	lights   []*fakeLight
	released int
}

func (a *fakeAllocator) Allocate() models.ZoneLight {
	l := &fakeLight{address: fmt.Sprintf("0/0/%d", len(a.lights)+1)}
	a.lights = append(a.lights, l)
	return l
}

func (a *fakeAllocator) ReleaseAll() { a.released++ }

type recordingObserver struct {
	created []ZoneSnapshot
	cleared []int
	changes []OccupancyChange
}

func (o *recordingObserver) ZoneCreated(z ZoneSnapshot) { o.created = append(o.created, z) }
func (o *recordingObserver) ZonesCleared(n int) { o.cleared = append(o.cleared, n) }
func (o *recordingObserver) OccupancyChanged(c OccupancyChange) { o.changes = append(o.changes, c) }

type failingStore struct{ err error }

func (s failingStore) Save(context.Context, [][]models.Point) error { return s.err }
func (s failingStore) Load(context.Context) ([][]models.Point, error) {
	return nil, s.err
}

var square = []models.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}}

func newTestRegistry(t *testing.T, policy OccupancyPolicy) (*Registry, *fakeAllocator, *recordingObserver) {
	t.Helper()
	alloc := &fakeAllocator{}
	obs := &recordingObserver{}
	store := NewFileStore(filepath.Join(t.TempDir(), "zones.txt"))
	r := NewRegistry(alloc, store, Options{CollisionMargin: 50, Policy: policy})
	r.SetObserver(obs)
	return r, alloc, obs
}

func permutations(points []models.Point) [][]models.Point {
	if len(points) <= 1 {
		return [][]models.Point{append([]models.Point(nil), points...)}
	}
	var out [][]models.Point
	for i := range points {
		rest := make([]models.Point, 0, len(points)-1)
		rest = append(rest, points[:i]...)
		rest = append(rest, points[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]models.Point{points[i]}, p...))
		}
	}
	return out
}

func TestOrderClockwise(t *testing.T) {
	t.Run("square in screen coordinates", func(t *testing.T) {
		got := OrderClockwise([]models.Point{{X: 0, Y: 100}, {X: 100, Y: 100}, {X: 0, Y: 0}, {X: 100, Y: 0}})
		want := []models.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("OrderClockwise mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("invariant to input order", func(t *testing.T) {
		pentagon := []models.Point{{X: 10.5, Y: 3}, {X: 70, Y: 12.25}, {X: 91, Y: 60}, {X: 40, Y: 99.75}, {X: 3, Y: 51}}
		want := OrderClockwise(pentagon)
		for _, perm := range permutations(pentagon) {
			if diff := cmp.Diff(want, OrderClockwise(perm)); diff != "" {
				t.Fatalf("order depends on input %v (-want +got):\n%s", perm, diff)
			}
		}
	})

	t.Run("equal angles break on distance", func(t *testing.T) {
		pts := []models.Point{{X: -2, Y: -2}, {X: 3, Y: 0}, {X: -1, Y: -1}, {X: 0, Y: 3}}
		want := []models.Point{{X: -1, Y: -1}, {X: -2, Y: -2}, {X: 3, Y: 0}, {X: 0, Y: 3}}
		assert.Equal(t, want, OrderClockwise(pts))
		for _, perm := range permutations(pts) {
			assert.Equal(t, want, OrderClockwise(perm))
		}
	})

	t.Run("does not modify input", func(t *testing.T) {
		in := []models.Point{{X: 0, Y: 100}, {X: 0, Y: 0}, {X: 100, Y: 0}}
		before := append([]models.Point(nil), in...)
		OrderClockwise(in)
		assert.Equal(t, before, in)
	})
}

func TestCreateZone(t *testing.T) {
	t.Run("registers zone with a fresh light", func(t *testing.T) {
		r, alloc, obs := newTestRegistry(t, PolicyAccumulate)

		snap, err := r.CreateZone(square)
		require.NoError(t, err)
		assert.NotEmpty(t, snap.ID)
		assert.Equal(t, 0, snap.Occupancy)
		assert.Equal(t, "0/0/1", snap.LightAddress)
		assert.Len(t, alloc.lights, 1)
		require.Len(t, obs.created, 1)
		assert.Equal(t, snap.ID, obs.created[0].ID)
	})

	t.Run("rejects duplicate in any vertex order", func(t *testing.T) {
		r, alloc, obs := newTestRegistry(t, PolicyAccumulate)
		_, err := r.CreateZone(square)
		require.NoError(t, err)

		for _, perm := range permutations(square) {
			_, err := r.CreateZone(perm)
			assert.ErrorIs(t, err, models.ErrDuplicateZone)
		}
		assert.Equal(t, 1, r.Len())
		assert.Len(t, alloc.lights, 1)
		assert.Len(t, obs.created, 1)
	})

	t.Run("rejects fewer than three points", func(t *testing.T) {
		r, alloc, _ := newTestRegistry(t, PolicyAccumulate)
		_, err := r.CreateZone(square[:2])
		assert.ErrorIs(t, err, ErrTooFewPoints)
		assert.Equal(t, 0, r.Len())
		assert.Empty(t, alloc.lights)
	})
}

func TestContains(t *testing.T) {
	r, _, _ := newTestRegistry(t, PolicyAccumulate)

	tests := []struct {
		name  string
		point models.Point
		want  bool
	}{
		{"inside", models.Point{X: 50, Y: 50}, true},
		{"square touches edge", models.Point{X: 150, Y: 50}, true},
		{"square just misses edge", models.Point{X: 150.5, Y: 50}, false},
		{"square touches corner", models.Point{X: 150, Y: 150}, true},
		{"square misses corner", models.Point{X: 150.1, Y: 150}, false},
		{"overlaps edge", models.Point{X: 120, Y: 50}, true},
		{"above", models.Point{X: 50, Y: -49}, true},
		{"far away", models.Point{X: 500, Y: 500}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Contains(OrderClockwise(square), tt.point))
		})
	}

	t.Run("square inside large polygon", func(t *testing.T) {
		big := OrderClockwise([]models.Point{{X: 0, Y: 0}, {X: 1000, Y: 0}, {X: 1000, Y: 1000}, {X: 0, Y: 1000}})
		assert.True(t, r.Contains(big, models.Point{X: 500, Y: 500}))
	})

	t.Run("polygon inside square", func(t *testing.T) {
		tiny := OrderClockwise([]models.Point{{X: 495, Y: 495}, {X: 505, Y: 495}, {X: 500, Y: 505}})
		assert.True(t, r.Contains(tiny, models.Point{X: 500, Y: 500}))
	})

	t.Run("zero margin is the closed polygon", func(t *testing.T) {
		assert.True(t, Intersects(square, models.Point{X: 100, Y: 50}, 0))
		assert.False(t, Intersects(square, models.Point{X: 100.01, Y: 50}, 0))
	})
}

func TestUpdateOccupancy(t *testing.T) {
	in := models.Point{X: 50, Y: 50}
	out := models.Point{X: 500, Y: 500}

	tests := []struct {
		name   string
		policy OccupancyPolicy
		points []models.Point
		want   int
	}{
		{"accumulate counts every contained point", PolicyAccumulate, []models.Point{in, in, out}, 2},
		{"accumulate ignores order", PolicyAccumulate, []models.Point{in, out, in}, 2},
		{"reset zeroes after a miss", PolicyLastPointReset, []models.Point{in, in, out}, 0},
		{"reset keeps trailing run", PolicyLastPointReset, []models.Point{out, in}, 1},
		{"reset counts trailing run only", PolicyLastPointReset, []models.Point{in, out, in, in}, 2},
		{"no points", PolicyAccumulate, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := newTestRegistry(t, tt.policy)
			_, err := r.CreateZone(square)
			require.NoError(t, err)

			r.UpdateOccupancy(tt.points)
			assert.Equal(t, tt.want, r.Zones()[0].Occupancy)
		})
	}
}

func TestUpdateOccupancyIsEdgeTriggered(t *testing.T) {
	r, alloc, obs := newTestRegistry(t, PolicyAccumulate)
	_, err := r.CreateZone(square)
	require.NoError(t, err)
	other := []models.Point{{X: 300, Y: 300}, {X: 400, Y: 300}, {X: 400, Y: 400}}
	_, err = r.CreateZone(other)
	require.NoError(t, err)

	person := []models.Point{{X: 50, Y: 50}}

	changes := r.UpdateOccupancy(person)
	require.Len(t, changes, 1)
	assert.Equal(t, 0, changes[0].Previous)
	assert.Equal(t, 1, changes[0].Current)

	assert.Empty(t, r.UpdateOccupancy(person))
	assert.Empty(t, r.UpdateOccupancy(person))

	changes = r.UpdateOccupancy(nil)
	require.Len(t, changes, 1)
	assert.Equal(t, 0, changes[0].Current)

	if diff := cmp.Diff([]int{1, 0}, alloc.lights[0].calls()); diff != "" {
		t.Errorf("light notifications (-want +got):\n%s", diff)
	}
	assert.Empty(t, alloc.lights[1].calls())
	assert.Len(t, obs.changes, 2)
}

func TestUpdateOccupancyContinuesAfterLightError(t *testing.T) {
	r, alloc, _ := newTestRegistry(t, PolicyAccumulate)
	_, err := r.CreateZone(square)
	require.NoError(t, err)
	alloc.lights[0].err = errors.New("bus down")

	changes := r.UpdateOccupancy([]models.Point{{X: 50, Y: 50}})
	assert.Len(t, changes, 1)
	assert.Equal(t, 1, r.Zones()[0].Occupancy)
}

func TestSaveLoadZones(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "zones.txt"))

	src := NewRegistry(&fakeAllocator{}, store, DefaultOptions())
	_, err := src.CreateZone(square)
	require.NoError(t, err)
	_, err = src.CreateZone([]models.Point{{X: 300, Y: 300}, {X: 400.5, Y: 300}, {X: 400, Y: 410}})
	require.NoError(t, err)

	n, err := src.SaveZones(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	t.Run("round trip", func(t *testing.T) {
		dst := NewRegistry(&fakeAllocator{}, store, DefaultOptions())
		res, err := dst.LoadZones(ctx)
		require.NoError(t, err)
		assert.Equal(t, LoadResult{Loaded: 2}, res)

		want := lo2polys(src.Zones())
		if diff := cmp.Diff(want, lo2polys(dst.Zones())); diff != "" {
			t.Errorf("loaded polygons (-want +got):\n%s", diff)
		}
	})

	t.Run("duplicates are skipped", func(t *testing.T) {
		res, err := src.LoadZones(ctx)
		require.NoError(t, err)
		assert.Equal(t, LoadResult{Skipped: 2}, res)
		assert.Equal(t, 2, src.Len())
	})

	t.Run("parse error leaves registry untouched", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.txt")
		content := "[(0, 0), (10, 0), (10, 10)]\n[(1, 2), oops]\n"
		require.NoError(t, os.WriteFile(bad, []byte(content), 0o644))

		alloc := &fakeAllocator{}
		dst := NewRegistry(alloc, NewFileStore(bad), DefaultOptions())
		_, err := dst.LoadZones(ctx)
		assert.ErrorIs(t, err, models.ErrPersistence)
		assert.Equal(t, 0, dst.Len())
		assert.Empty(t, alloc.lights)
	})

	t.Run("short polygon aborts load", func(t *testing.T) {
		bad := filepath.Join(dir, "short.txt")
		require.NoError(t, os.WriteFile(bad, []byte("[(0, 0), (10, 0), (10, 10)]\n[(1, 2), (3, 4)]\n"), 0o644))

		dst := NewRegistry(&fakeAllocator{}, NewFileStore(bad), DefaultOptions())
		_, err := dst.LoadZones(ctx)
		assert.ErrorIs(t, err, models.ErrPersistence)
		assert.Equal(t, 0, dst.Len())
	})

	t.Run("missing file", func(t *testing.T) {
		dst := NewRegistry(&fakeAllocator{}, NewFileStore(filepath.Join(dir, "nope.txt")), DefaultOptions())
		_, err := dst.LoadZones(ctx)
		assert.ErrorIs(t, err, models.ErrPersistence)
	})

	t.Run("store failure on save", func(t *testing.T) {
		r := NewRegistry(&fakeAllocator{}, failingStore{err: errors.New("disk full")}, DefaultOptions())
		_, err := r.SaveZones(ctx)
		assert.ErrorIs(t, err, models.ErrPersistence)
	})
}

func lo2polys(zs []ZoneSnapshot) [][]models.Point {
	out := make([][]models.Point, len(zs))
	for i, z := range zs {
		out[i] = z.Polygon
	}
	return out
}

func TestDeleteAllZones(t *testing.T) {
	r, alloc, obs := newTestRegistry(t, PolicyAccumulate)
	_, err := r.CreateZone(square)
	require.NoError(t, err)

	assert.Equal(t, 1, r.DeleteAllZones())
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 1, alloc.released)
	assert.Equal(t, []int{1}, obs.cleared)

	// The same polygon is accepted again once cleared.
	_, err = r.CreateZone(square)
	assert.NoError(t, err)
	assert.Equal(t, "0/0/2", r.Zones()[0].LightAddress)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("LAST_POINT_RESET")
	require.NoError(t, err)
	assert.Equal(t, PolicyLastPointReset, p)

	p, err = ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyAccumulate, p)

	_, err = ParsePolicy("sometimes")
	assert.Error(t, err)
}
