package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/johngerving/3D-Building-Map-sub000/internal/document"
)

// Engine is the browser-facing state holder. It owns the viewer and the
// camera, takes commands from the frontend and answers queries as JSON.
type Engine struct {
	viewer   *Viewer
	building *document.Building

	// Camera state
	camera      CameraTarget
	move        *CameraMove
	frame       int
	cameraIndex int
}

// NewEngine creates an engine that resolves floor sources through f.
// sample:// sources are always served from the built-in samples.
func NewEngine(f Fetcher, opts ...Option) *Engine {
	return &Engine{
		viewer: NewViewer(NewPipeline(withSamples(f), opts...)),
	}
}

func withSamples(f Fetcher) Fetcher {
	samples := StaticFetcher(document.SampleSources)
	return FetcherFunc(func(ctx context.Context, source string) (io.ReadCloser, error) {
		if strings.HasPrefix(source, "sample://") || f == nil {
			return samples.Fetch(ctx, source)
		}
		return f.Fetch(ctx, source)
	})
}

// Viewer returns the underlying viewer.
func (e *Engine) Viewer() *Viewer { return e.viewer }

// --- Commands (frontend → engine) ---

// LoadBuilding loads a building manifest from JSON and builds every floor.
func (e *Engine) LoadBuilding(ctx context.Context, jsonData string) error {
	var b document.Building
	if err := json.Unmarshal([]byte(jsonData), &b); err != nil {
		return fmt.Errorf("decode building: %w", err)
	}
	return e.load(ctx, &b)
}

// LoadSampleBuilding loads the built-in two-storey sample.
func (e *Engine) LoadSampleBuilding(ctx context.Context, buildingID string) error {
	return e.load(ctx, document.NewSampleBuilding(buildingID))
}

func (e *Engine) load(ctx context.Context, b *document.Building) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if err := e.viewer.Load(ctx, b.Revision, b.Floors); err != nil {
		return err
	}
	e.building = b
	e.move = nil
	e.cameraIndex = 0
	if t, err := e.viewer.CameraTarget(0); err == nil {
		e.camera = t
	}
	return nil
}

// Invalidate discards any load in flight, e.g. after a model.invalidate
// message.
func (e *Engine) Invalidate() {
	e.viewer.Invalidate()
}

// SetFocus focuses a floor and starts a camera move to it.
func (e *Engine) SetFocus(floorID string, frames int, easing Easing) error {
	if err := e.viewer.SetFocus(floorID); err != nil {
		return err
	}
	if floorID == "" {
		return nil
	}
	for i, g := range e.viewer.Snapshot() {
		if g.Name == floorID {
			return e.FlyTo(i, frames, easing)
		}
	}
	return nil
}

// SetPosition moves a floor horizontally and records the offset in the
// loaded manifest.
func (e *Engine) SetPosition(floorID string, x, z float64) error {
	if err := e.viewer.SetPosition(floorID, x, z); err != nil {
		return err
	}
	if e.building != nil {
		for i := range e.building.Floors {
			if e.building.Floors[i].ID == floorID {
				e.building.Floors[i].Position = document.Position{X: x, Z: z}
			}
		}
	}
	return nil
}

// FlyTo starts a camera move to the floor at index.
func (e *Engine) FlyTo(index, frames int, easing Easing) error {
	to, err := e.viewer.CameraTarget(index)
	if err != nil {
		return err
	}
	e.move = &CameraMove{From: e.camera, To: to, Frames: frames, Easing: easing}
	e.frame = 0
	e.cameraIndex = index
	return nil
}

// Tick advances the camera move by one frame and returns the camera as JSON.
// This is called once per animation frame from the frontend.
func (e *Engine) Tick() string {
	if e.move != nil {
		e.frame++
		e.camera = e.move.At(e.frame)
		if e.frame >= e.move.Frames {
			e.move = nil
		}
	}
	return e.GetCamera()
}

// --- Queries (frontend ← engine) ---

// Snapshot returns the applied floor groups as JSON.
func (e *Engine) Snapshot() string {
	data, err := json.Marshal(e.viewer.Snapshot())
	if err != nil {
		return "[]"
	}
	return string(data)
}

// HeightForIndex returns the stack height of the floor at index.
func (e *Engine) HeightForIndex(index int) float64 {
	return e.viewer.HeightForIndex(index)
}

// GetCamera returns the current camera target as JSON.
func (e *Engine) GetCamera() string {
	data, _ := json.Marshal(map[string]interface{}{
		"target": e.camera,
		"index":  e.cameraIndex,
		"moving": e.move != nil,
	})
	return string(data)
}

// GetBuilding returns the loaded building manifest as JSON.
func (e *Engine) GetBuilding() string {
	if e.building == nil {
		return "{}"
	}
	data, _ := json.Marshal(e.building)
	return string(data)
}

// GetFocus returns the focused floor id.
func (e *Engine) GetFocus() string {
	return e.viewer.Focus()
}
