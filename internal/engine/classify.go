package engine

import (
	"log/slog"

	"github.com/johngerving/3D-Building-Map-sub000/internal/svgdoc"
)

// SectionID identifies a named layer in a floor-plan SVG.
type SectionID string

// ClassifiedGroup holds the paths of one layer, split by paint.
// A path may appear in both lists or neither.
type ClassifiedGroup struct {
	ID          SectionID
	FillPaths   []*svgdoc.Path
	StrokePaths []*svgdoc.Path
}

// Classification is the result of grouping a document's paths by layer.
// Order lists layer ids by first appearance in the document.
type Classification struct {
	Groups map[SectionID]*ClassifiedGroup
	Order  []SectionID
}

// Group returns the group for id, or nil.
func (c *Classification) Group(id SectionID) *ClassifiedGroup {
	if c == nil {
		return nil
	}
	return c.Groups[id]
}

// Each calls fn for every group in document order.
func (c *Classification) Each(fn func(*ClassifiedGroup)) {
	if c == nil {
		return
	}
	for _, id := range c.Order {
		fn(c.Groups[id])
	}
}

// Classify groups paths by the id of the layer two levels above each path
// and splits every group into fill-bearing and stroke-bearing lists in
// document order. Paths without that ancestor are dropped and reported as
// warnings.
func Classify(paths []*svgdoc.Path, logger *slog.Logger) (*Classification, []svgdoc.Warning) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Classification{Groups: make(map[SectionID]*ClassifiedGroup)}
	var warnings []svgdoc.Warning

	for _, p := range paths {
		layer, ok := p.ParentLayerID()
		if !ok {
			w := svgdoc.Warning{PathID: p.ID, Tag: p.Tag, Message: "no layer id two levels above path"}
			logger.Warn("path dropped from classification", "path", p.ID, "tag", p.Tag)
			warnings = append(warnings, w)
			continue
		}

		id := SectionID(layer)
		g, exists := c.Groups[id]
		if !exists {
			g = &ClassifiedGroup{ID: id}
			c.Groups[id] = g
			c.Order = append(c.Order, id)
		}
		if p.Style.HasFill() {
			g.FillPaths = append(g.FillPaths, p)
		}
		if p.Style.HasStroke() {
			g.StrokePaths = append(g.StrokePaths, p)
		}
	}

	return c, warnings
}

// ClassifyDocument classifies all paths of a parsed document. Parse warnings
// from the document are returned ahead of classification warnings.
func ClassifyDocument(doc *svgdoc.Document, logger *slog.Logger) (*Classification, []svgdoc.Warning) {
	c, warnings := Classify(doc.Paths, logger)
	return c, append(append([]svgdoc.Warning(nil), doc.Warnings...), warnings...)
}
