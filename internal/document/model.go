package document

import (
	"errors"
	"fmt"
	"strings"
)

// Building is a complete building manifest: metadata plus its floors in
// stacking order (ground floor first).
type Building struct {
	ID          string      `json:"id" mapstructure:"id" yaml:"id"`
	Name        string      `json:"name" mapstructure:"name" yaml:"name"`
	Description string      `json:"description,omitempty" mapstructure:"description" yaml:"description,omitempty"`
	Revision    int64       `json:"revision" mapstructure:"revision" yaml:"revision"`
	Floors      []FloorSpec `json:"floors" mapstructure:"floors" yaml:"floors"`
}

// FloorSpec describes one floor of a building and how its SVG plan is turned
// into 3D geometry.
type FloorSpec struct {
	ID        string   `json:"id" mapstructure:"id" yaml:"id"`
	Name      string   `json:"name" mapstructure:"name" yaml:"name"`
	SVGSource string   `json:"svgSource" mapstructure:"svgSource" yaml:"svgSource"`
	Scale     float64  `json:"scale" mapstructure:"scale" yaml:"scale"`
	Position  Position `json:"position" mapstructure:"position" yaml:"position"`

	// VerticalGap separates the base layer from the extrusion and stacked
	// floors from each other.
	VerticalGap float64 `json:"verticalGap" mapstructure:"verticalGap" yaml:"verticalGap"`

	ExtrudedSectionIDs []string   `json:"extrudedSectionIds" mapstructure:"extrudedSectionIds" yaml:"extrudedSectionIds"`
	ExtrudeDepth       float64    `json:"extrudeDepth" mapstructure:"extrudeDepth" yaml:"extrudeDepth"`
	FloorLayer         FloorLayer `json:"floorLayer" mapstructure:"floorLayer" yaml:"floorLayer"`

	Locations []Location `json:"locations,omitempty" mapstructure:"locations" yaml:"locations,omitempty"`
}

// Position is a horizontal offset in scene units. X moves along the scene x
// axis; Z is subtracted from the scene z axis.
type Position struct {
	X float64 `json:"x" mapstructure:"x" yaml:"x"`
	Z float64 `json:"z" mapstructure:"z" yaml:"z"`
}

// FloorLayer names the layer drawn as the floor and ceiling outline.
type FloorLayer struct {
	ID      string `json:"id" mapstructure:"id" yaml:"id"`
	Enabled bool   `json:"enabled" mapstructure:"enabled" yaml:"enabled"`
}

// Location is a labelled point of interest on a floor, in SVG user space.
type Location struct {
	ID   string  `json:"id" mapstructure:"id" yaml:"id"`
	Name string  `json:"name" mapstructure:"name" yaml:"name"`
	Kind string  `json:"kind,omitempty" mapstructure:"kind" yaml:"kind,omitempty"`
	X    float64 `json:"x" mapstructure:"x" yaml:"x"`
	Y    float64 `json:"y" mapstructure:"y" yaml:"y"`
}

// ExtrusionActive reports whether walls are built for this floor. Both a
// positive depth and at least one extruded section are required.
func (f FloorSpec) ExtrusionActive() bool {
	return f.ExtrudeDepth > 0 && len(f.ExtrudedSectionIDs) > 0
}

// OutlineActive reports whether the floor layer outline is drawn.
func (f FloorSpec) OutlineActive() bool {
	return f.FloorLayer.Enabled && f.FloorLayer.ID != ""
}

// IsExtruded reports whether layer id is one of the extruded sections.
func (f FloorSpec) IsExtruded(id string) bool {
	for _, s := range f.ExtrudedSectionIDs {
		if s == id {
			return true
		}
	}
	return false
}

// StackHeight is the vertical space this floor occupies in a building stack.
// Floors without active extrusion take no space.
func (f FloorSpec) StackHeight() float64 {
	if !f.ExtrusionActive() {
		return 0
	}
	return f.ExtrudeDepth*f.Scale + f.VerticalGap*3
}

// Validate checks the fields that cannot be resolved by precedence rules.
func (f FloorSpec) Validate() error {
	var errs []string
	if strings.TrimSpace(f.ID) == "" {
		errs = append(errs, "id is required")
	}
	if strings.TrimSpace(f.SVGSource) == "" {
		errs = append(errs, "svgSource is required")
	}
	if f.Scale <= 0 {
		errs = append(errs, fmt.Sprintf("scale must be positive, got %g", f.Scale))
	}
	if f.ExtrudeDepth < 0 {
		errs = append(errs, fmt.Sprintf("extrudeDepth must not be negative, got %g", f.ExtrudeDepth))
	}
	if f.VerticalGap < 0 {
		errs = append(errs, fmt.Sprintf("verticalGap must not be negative, got %g", f.VerticalGap))
	}
	if len(errs) > 0 {
		return fmt.Errorf("floor %q: %s", f.ID, strings.Join(errs, "; "))
	}
	return nil
}

// Validate checks every floor and rejects duplicate floor ids.
func (b Building) Validate() error {
	seen := make(map[string]bool, len(b.Floors))
	var errs []error
	for _, f := range b.Floors {
		if err := f.Validate(); err != nil {
			errs = append(errs, err)
		}
		if seen[f.ID] {
			errs = append(errs, fmt.Errorf("floor %q: duplicate id", f.ID))
		}
		seen[f.ID] = true
	}
	return errors.Join(errs...)
}
