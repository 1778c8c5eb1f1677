package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/johngerving/3D-Building-Map-sub000/internal/document"
)

var (
	// ErrStaleLoad is returned by Viewer.Load when a newer load or an
	// invalidation superseded it before it could be applied.
	ErrStaleLoad = errors.New("load superseded by a newer generation")
	// ErrUnknownFloor is returned when a floor id is not in the applied scene.
	ErrUnknownFloor = errors.New("unknown floor")
)

// Viewer owns the applied scene. Loads run outside the lock; only the apply
// step mutates the scene, and only when the load's generation is still
// current.
type Viewer struct {
	pipeline *Pipeline
	metrics  *Metrics
	logger   *slog.Logger

	mu         sync.Mutex
	generation uint64
	revision   int64
	floors     []document.FloorSpec
	groups     []*FloorGroup
	stack      Stack
	focus      string
}

// NewViewer creates a viewer that loads floors through p.
func NewViewer(p *Pipeline) *Viewer {
	return &Viewer{
		pipeline: p,
		metrics:  p.metrics,
		logger:   p.logger,
	}
}

// Load builds floors for a building revision and applies them if no newer
// load started in the meantime. On failure the previously applied scene is
// left untouched.
func (v *Viewer) Load(ctx context.Context, revision int64, floors []document.FloorSpec) error {
	v.mu.Lock()
	v.generation++
	gen := v.generation
	v.mu.Unlock()

	groups, err := v.pipeline.LoadFloors(ctx, floors)

	v.mu.Lock()
	defer v.mu.Unlock()

	if gen != v.generation {
		v.metrics.staleDiscard(ctx)
		v.logger.Debug("discarding stale load", "revision", revision, "generation", gen)
		return ErrStaleLoad
	}
	if err != nil {
		return err
	}

	v.revision = revision
	v.floors = append([]document.FloorSpec(nil), floors...)
	v.groups = groups
	v.stack = NewStack(floors)
	if v.focus != "" && v.indexOf(v.focus) < 0 {
		v.focus = ""
	}
	for _, g := range v.groups {
		g.SetFocused(g.Name == v.focus)
	}
	return nil
}

// Invalidate bumps the generation so any in-flight load is discarded.
func (v *Viewer) Invalidate() {
	v.mu.Lock()
	v.generation++
	v.mu.Unlock()
}

// Generation returns the current load generation.
func (v *Viewer) Generation() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.generation
}

// Revision returns the building revision of the applied scene.
func (v *Viewer) Revision() int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.revision
}

func (v *Viewer) indexOf(floorID string) int {
	for i, g := range v.groups {
		if g.Name == floorID {
			return i
		}
	}
	return -1
}

// SetFocus marks floorID as the focused floor, hiding its upper outline. An
// empty id clears focus.
func (v *Viewer) SetFocus(floorID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if floorID != "" && v.indexOf(floorID) < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownFloor, floorID)
	}
	v.focus = floorID
	for _, g := range v.groups {
		g.SetFocused(g.Name == floorID)
	}
	return nil
}

// Focus returns the focused floor id, or "".
func (v *Viewer) Focus() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.focus
}

// SetPosition moves a floor horizontally. Centering is recomputed from the
// floor's geometry.
func (v *Viewer) SetPosition(floorID string, x, z float64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	i := v.indexOf(floorID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownFloor, floorID)
	}
	pos := document.Position{X: x, Z: z}
	v.groups[i].SetPosition(pos)
	v.floors[i].Position = pos
	return nil
}

// Snapshot returns copies of the applied floor groups in stack order.
func (v *Viewer) Snapshot() []*FloorGroup {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]*FloorGroup, len(v.groups))
	for i, g := range v.groups {
		out[i] = g.Clone()
	}
	return out
}

// CameraTarget is what a renderer needs to frame one floor.
type CameraTarget struct {
	FloorID string     `json:"floorId"`
	Center  mgl64.Vec3 `json:"center"`
	Height  float64    `json:"height"`
	Radius  float64    `json:"radius"`
}

// CameraTarget returns framing data for the floor at index.
func (v *Viewer) CameraTarget(index int) (CameraTarget, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if index < 0 || index >= len(v.groups) {
		return CameraTarget{}, fmt.Errorf("%w: index %d", ErrUnknownFloor, index)
	}
	g := v.groups[index]
	t := CameraTarget{FloorID: g.Name, Height: v.stack.Height(index)}
	b := g.Bounds()
	if b.IsEmpty() {
		t.Center = mgl64.Vec3{0, t.Height, 0}
		return t, nil
	}
	t.Center = b.Center()
	t.Radius = b.Size().Len() / 2
	return t, nil
}

// HeightForIndex returns the stack height of floor index in the applied
// scene.
func (v *Viewer) HeightForIndex(index int) float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stack.Height(index)
}
