package engine

import (
	"log/slog"

	"github.com/johngerving/3D-Building-Map-sub000/internal/document"
)

// Role is the rendering role a batch of geometry plays in a floor.
type Role int

const (
	RoleMap     Role = iota // room fills and outlines drawn flat
	RoleWall                // strokes of extruded sections, drawn on top of the walls
	RoleOutline             // floor layer, drawn under and above the floor
	RoleExtrude             // wall volumes
)

func (r Role) String() string {
	switch r {
	case RoleMap:
		return "map"
	case RoleWall:
		return "wall"
	case RoleOutline:
		return "outline"
	case RoleExtrude:
		return "extrude"
	}
	return "unknown"
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// PrimitiveKind says how a primitive was produced.
type PrimitiveKind string

const (
	KindFill    PrimitiveKind = "fill"
	KindStroke  PrimitiveKind = "stroke"
	KindExtrude PrimitiveKind = "extrude"
)

// Primitive is one geometry built from a single path or sub-path.
type Primitive struct {
	Section  SectionID
	PathID   string
	Kind     PrimitiveKind
	Geometry *Geometry
}

// Batch is an ordered list of primitives sharing a role.
type Batch struct {
	Role       Role
	Primitives []Primitive
}

// Geometries returns the primitive geometries in order.
func (b Batch) Geometries() []*Geometry {
	out := make([]*Geometry, len(b.Primitives))
	for i, p := range b.Primitives {
		out[i] = p.Geometry
	}
	return out
}

// Len returns the number of primitives.
func (b Batch) Len() int { return len(b.Primitives) }

func (b *Batch) add(section SectionID, pathID string, kind PrimitiveKind, g *Geometry) {
	if g == nil {
		return
	}
	b.Primitives = append(b.Primitives, Primitive{Section: section, PathID: pathID, Kind: kind, Geometry: g})
}

// Batches is the builder output for one floor.
type Batches struct {
	Map     Batch
	Wall    Batch
	Outline Batch
	Extrude Batch
}

// RoleFor returns the role of a layer for the given floor. Extruded sections
// only count while extrusion is active and take precedence over the floor
// layer; the floor layer only counts while enabled.
func RoleFor(id SectionID, spec document.FloorSpec) Role {
	if spec.ExtrusionActive() && spec.IsExtruded(string(id)) {
		return RoleWall
	}
	if spec.OutlineActive() && string(id) == spec.FloorLayer.ID {
		return RoleOutline
	}
	return RoleMap
}

// Builder turns classified paths into geometry batches.
type Builder struct {
	logger *slog.Logger
}

// NewBuilder creates a builder. A nil logger uses slog.Default().
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{logger: logger}
}

// Build converts every classified group into geometry. Fill paths become flat
// shapes, and wall sections also get an extruded volume per fill; every
// stroke sub-path becomes a ribbon. Degenerate sub-paths are skipped. The output depends only
// on the inputs.
func (b *Builder) Build(c *Classification, spec document.FloorSpec) Batches {
	out := Batches{
		Map:     Batch{Role: RoleMap},
		Wall:    Batch{Role: RoleWall},
		Outline: Batch{Role: RoleOutline},
		Extrude: Batch{Role: RoleExtrude},
	}

	c.Each(func(g *ClassifiedGroup) {
		role := RoleFor(g.ID, spec)

		var target *Batch
		switch role {
		case RoleWall:
			target = &out.Wall
		case RoleOutline:
			target = &out.Outline
		default:
			target = &out.Map
		}

		for _, p := range g.FillPaths {
			shapes := ShapesForPath(p)
			if len(shapes) == 0 {
				b.logger.Debug("fill path has no area", "floor", spec.ID, "layer", g.ID, "path", p.ID)
				continue
			}
			target.add(g.ID, p.ID, KindFill, ShapeGeometry(shapes))
			if role == RoleWall {
				out.Extrude.add(g.ID, p.ID, KindExtrude, ExtrudeGeometry(shapes, spec.ExtrudeDepth))
			}
		}

		for _, p := range g.StrokePaths {
			for i, sp := range p.SubPaths {
				geom := StrokeGeometry(sp, p.Style)
				if geom == nil {
					b.logger.Debug("skipping degenerate stroke", "floor", spec.ID, "layer", g.ID, "path", p.ID, "subpath", i)
					continue
				}
				target.add(g.ID, p.ID, KindStroke, geom)
			}
		}
	})

	return out
}
