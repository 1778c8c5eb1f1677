// Package svgdoc parses SVG floor plans into flattened, transformed paths
// while keeping the markup tree available for layer lookups.
package svgdoc

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/beevik/etree"
	"github.com/paulmach/orb"
)

// Document is a parsed SVG floor plan.
type Document struct {
	ViewBox  orb.Bound
	Paths    []*Path
	Warnings []Warning

	tree *etree.Document
}

// Path is a single drawable shape element with its geometry flattened into
// user space (ancestor transforms applied).
type Path struct {
	ID       string
	Tag      string
	Style    Style
	SubPaths []SubPath

	// Element is the source node; its ancestors determine the layer.
	Element *etree.Element
}

// Warning describes a recoverable authoring problem in the source SVG.
type Warning struct {
	PathID  string `json:"pathId,omitempty"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.PathID != "" {
		return fmt.Sprintf("<%s id=%q>: %s", w.Tag, w.PathID, w.Message)
	}
	return fmt.Sprintf("<%s>: %s", w.Tag, w.Message)
}

// Fill returns the resolved fill paint.
func (p *Path) Fill() string { return p.Style.Fill }

// Stroke returns the resolved stroke paint.
func (p *Path) Stroke() string { return p.Style.Stroke }

// Bounds returns the bounding box of all sub-path points.
func (p *Path) Bounds() orb.Bound {
	var mp orb.MultiPoint
	for _, sp := range p.SubPaths {
		mp = append(mp, sp.Points...)
	}
	return mp.Bound()
}

// ParentLayerID returns the id of the element two levels above the path,
// following the <g layer><g wrapper><path/></g></g> authoring convention.
// ok is false when either ancestor is missing or the layer carries no id.
func (p *Path) ParentLayerID() (string, bool) {
	return LayerIDOf(p.Element)
}

// LayerIDOf walks two ancestors up from el and returns that element's id.
func LayerIDOf(el *etree.Element) (string, bool) {
	if el == nil {
		return "", false
	}
	wrapper := el.Parent()
	if wrapper == nil || wrapper.Tag == "" {
		return "", false
	}
	layer := wrapper.Parent()
	if layer == nil || layer.Tag == "" {
		return "", false
	}
	id := layer.SelectAttrValue("id", "")
	if id == "" {
		return "", false
	}
	return id, true
}

// Parse reads an SVG document. Malformed XML or a non-svg root is an error;
// problems with individual shapes are collected as warnings.
func Parse(r io.Reader) (*Document, error) {
	tree := etree.NewDocument()
	if _, err := tree.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("read svg: %w", err)
	}
	root := tree.Root()
	if root == nil {
		return nil, fmt.Errorf("read svg: empty document")
	}
	if root.Tag != "svg" {
		return nil, fmt.Errorf("read svg: root element is <%s>, want <svg>", root.Tag)
	}

	doc := &Document{tree: tree}
	doc.ViewBox = parseViewBox(root)
	doc.walk(root, DefaultStyle(), Identity())
	return doc, nil
}

// ParseString is a convenience wrapper around Parse.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Bounds returns the bounding box of every path in the document.
func (d *Document) Bounds() orb.Bound {
	var mp orb.MultiPoint
	for _, p := range d.Paths {
		for _, sp := range p.SubPaths {
			mp = append(mp, sp.Points...)
		}
	}
	return mp.Bound()
}

// ElementByID finds an element anywhere in the document.
func (d *Document) ElementByID(id string) *etree.Element {
	if d.tree == nil {
		return nil
	}
	return findByID(d.tree.Root(), id)
}

func findByID(el *etree.Element, id string) *etree.Element {
	if el == nil {
		return nil
	}
	if el.SelectAttrValue("id", "") == id {
		return el
	}
	for _, child := range el.ChildElements() {
		if found := findByID(child, id); found != nil {
			return found
		}
	}
	return nil
}

var skippedContainers = map[string]bool{
	"defs":     true,
	"clipPath": true,
	"mask":     true,
	"symbol":   true,
	"pattern":  true,
	"marker":   true,
	"style":    true,
	"title":    true,
	"desc":     true,
	"metadata": true,
}

func (d *Document) walk(el *etree.Element, parentStyle Style, parentMatrix Matrix2D) {
	style := inherit(parentStyle, el)
	if !style.Display {
		return
	}
	m := parentMatrix
	if t := el.SelectAttrValue("transform", ""); t != "" {
		m = parentMatrix.Multiply(ParseTransform(t))
	}

	switch el.Tag {
	case "svg", "g", "a", "switch":
		for _, child := range el.ChildElements() {
			if skippedContainers[child.Tag] {
				continue
			}
			d.walk(child, style, m)
		}
		return
	}

	subPaths, err := shapeSubPaths(el)
	if err != nil {
		d.Warnings = append(d.Warnings, Warning{
			PathID:  el.SelectAttrValue("id", ""),
			Tag:     el.Tag,
			Message: err.Error(),
		})
		return
	}
	if subPaths == nil {
		return
	}

	if !m.IsIdentity() {
		for i := range subPaths {
			for j, pt := range subPaths[i].Points {
				subPaths[i].Points[j] = m.Apply(pt)
			}
		}
		style.StrokeWidth *= m.ScaleFactor()
	}

	d.Paths = append(d.Paths, &Path{
		ID:       el.SelectAttrValue("id", ""),
		Tag:      el.Tag,
		Style:    style,
		SubPaths: subPaths,
		Element:  el,
	})
}

// shapeSubPaths converts a basic shape or path element to sub-paths in the
// element's local coordinate system. It returns nil, nil for elements that
// are not drawable shapes.
func shapeSubPaths(el *etree.Element) ([]SubPath, error) {
	num := func(name string) float64 {
		v, _ := parseLength(el.SelectAttrValue(name, "0"))
		return v
	}

	switch el.Tag {
	case "path":
		return ParsePathData(el.SelectAttrValue("d", ""))

	case "rect":
		x, y, w, h := num("x"), num("y"), num("width"), num("height")
		if w <= 0 || h <= 0 {
			return nil, fmt.Errorf("rect has non-positive size %gx%g", w, h)
		}
		rx, hasRx := parseLength(el.SelectAttrValue("rx", ""))
		ry, hasRy := parseLength(el.SelectAttrValue("ry", ""))
		if !hasRx {
			rx = ry
		}
		if !hasRy {
			ry = rx
		}
		rx = math.Min(math.Max(rx, 0), w/2)
		ry = math.Min(math.Max(ry, 0), h/2)
		if rx == 0 || ry == 0 {
			return []SubPath{{
				Points: []orb.Point{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}},
				Closed: true,
			}}, nil
		}
		return roundedRect(x, y, w, h, rx, ry), nil

	case "circle":
		r := num("r")
		if r <= 0 {
			return nil, fmt.Errorf("circle has non-positive radius %g", r)
		}
		return []SubPath{ellipse(num("cx"), num("cy"), r, r)}, nil

	case "ellipse":
		rx, ry := num("rx"), num("ry")
		if rx <= 0 || ry <= 0 {
			return nil, fmt.Errorf("ellipse has non-positive radii %gx%g", rx, ry)
		}
		return []SubPath{ellipse(num("cx"), num("cy"), rx, ry)}, nil

	case "line":
		return []SubPath{{
			Points: []orb.Point{{num("x1"), num("y1")}, {num("x2"), num("y2")}},
		}}, nil

	case "polygon", "polyline":
		coords := parseNumberList(el.SelectAttrValue("points", ""))
		if len(coords)%2 != 0 {
			coords = coords[:len(coords)-1]
		}
		if len(coords) < 4 {
			return nil, fmt.Errorf("%s needs at least two points", el.Tag)
		}
		pts := make([]orb.Point, 0, len(coords)/2)
		for i := 0; i < len(coords); i += 2 {
			pts = append(pts, orb.Point{coords[i], coords[i+1]})
		}
		return []SubPath{{Points: pts, Closed: el.Tag == "polygon"}}, nil
	}

	return nil, nil
}

func ellipse(cx, cy, rx, ry float64) SubPath {
	const segments = CurveDivisions * 4
	pts := make([]orb.Point, segments)
	for i := range pts {
		t := 2 * math.Pi * float64(i) / segments
		pts[i] = orb.Point{cx + rx*math.Cos(t), cy + ry*math.Sin(t)}
	}
	return SubPath{Points: pts, Closed: true}
}

func roundedRect(x, y, w, h, rx, ry float64) []SubPath {
	var pts []orb.Point
	corner := func(from, to orb.Point) {
		arc := arcPoints(from, rx, ry, 0, false, true, to, CurveDivisions/2)
		if len(pts) > 0 && len(arc) > 0 {
			arc = arc[1:]
		}
		pts = append(pts, arc...)
	}
	corner(orb.Point{x, y + ry}, orb.Point{x + rx, y})
	pts = append(pts, orb.Point{x + w - rx, y})
	corner(orb.Point{x + w - rx, y}, orb.Point{x + w, y + ry})
	pts = append(pts, orb.Point{x + w, y + h - ry})
	corner(orb.Point{x + w, y + h - ry}, orb.Point{x + w - rx, y + h})
	pts = append(pts, orb.Point{x + rx, y + h})
	corner(orb.Point{x + rx, y + h}, orb.Point{x, y + h - ry})
	return []SubPath{{Points: dedupe(pts), Closed: true}}
}

func dedupe(pts []orb.Point) []orb.Point {
	out := pts[:0]
	for i, p := range pts {
		if i > 0 && p == out[len(out)-1] {
			continue
		}
		out = append(out, p)
	}
	return out
}

func parseViewBox(root *etree.Element) orb.Bound {
	if vb := parseNumberList(root.SelectAttrValue("viewBox", "")); len(vb) == 4 {
		return orb.Bound{Min: orb.Point{vb[0], vb[1]}, Max: orb.Point{vb[0] + vb[2], vb[1] + vb[3]}}
	}
	w, _ := parseLength(root.SelectAttrValue("width", "0"))
	h, _ := parseLength(root.SelectAttrValue("height", "0"))
	return orb.Bound{Max: orb.Point{w, h}}
}
